package cart

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"Storefront/internal/session"
	"Storefront/internal/storage"
	"Storefront/pkg/kit"
)

const maxBodyBytes = 1 << 20

type Server struct {
	Store   storage.Store
	Log     *zap.Logger
	Metrics *Metrics

	// Limit wraps the mutating routes. Nil means unlimited.
	Limit func(http.Handler) http.Handler
}

func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()

	r.Get("/", s.list)
	r.Get("/summary", s.summary)

	r.Group(func(mr chi.Router) {
		if s.Limit != nil {
			mr.Use(s.Limit)
		}
		mr.Post("/add", s.add)
		mr.Put("/update", s.update)
		mr.Delete("/remove/{productId}", s.remove)
		mr.Delete("/clear", s.clear)
	})

	return r
}

type itemReq struct {
	ProductID *int64 `json:"productId"`
	Quantity  *int   `json:"quantity"`
}

var (
	errProductIDRequired = errors.New("productId required")
	errQuantityRequired  = errors.New("quantity required")
	errQuantityTooSmall  = errors.New("quantity must be at least 1")
)

func (req itemReq) validate(quantityRequired bool) (int64, int, error) {
	if req.ProductID == nil {
		return 0, 0, errProductIDRequired
	}
	qty := 1
	if req.Quantity != nil {
		qty = *req.Quantity
	} else if quantityRequired {
		return 0, 0, errQuantityRequired
	}
	if qty < 1 {
		return 0, 0, errQuantityTooSmall
	}
	return *req.ProductID, qty, nil
}

func (s *Server) list(w http.ResponseWriter, r *http.Request) {
	sid, ok := s.sessionID(w, r)
	if !ok {
		return
	}

	items, err := s.Store.CartItems(r.Context(), sid)
	if err != nil {
		s.logError("list cart failed", err, sid)
		kit.WriteError(w, r, http.StatusInternalServerError, "failed to fetch cart items", nil)
		return
	}
	kit.WriteJSON(w, http.StatusOK, items)
}

func (s *Server) summary(w http.ResponseWriter, r *http.Request) {
	sid, ok := s.sessionID(w, r)
	if !ok {
		return
	}

	items, err := s.Store.CartItems(r.Context(), sid)
	if err != nil {
		s.logError("cart summary failed", err, sid)
		kit.WriteError(w, r, http.StatusInternalServerError, "failed to fetch cart items", nil)
		return
	}
	kit.WriteJSON(w, http.StatusOK, Summarize(items))
}

func (s *Server) add(w http.ResponseWriter, r *http.Request) {
	sid, ok := s.sessionID(w, r)
	if !ok {
		return
	}

	req, err := decodeItemRequest(w, r)
	if err != nil {
		kit.WriteError(w, r, http.StatusBadRequest, "invalid request data", map[string]any{"cause": err.Error()})
		return
	}
	productID, qty, err := req.validate(false)
	if err != nil {
		kit.WriteError(w, r, http.StatusBadRequest, "invalid request data", map[string]any{"cause": err.Error()})
		return
	}

	_, found, err := s.Store.ProductByID(r.Context(), productID)
	if err != nil {
		s.logError("lookup product failed", err, sid)
		kit.WriteError(w, r, http.StatusInternalServerError, "failed to add item to cart", nil)
		return
	}
	if !found {
		kit.WriteError(w, r, http.StatusNotFound, "product not found", map[string]any{"productId": productID})
		return
	}

	it, err := s.Store.AddToCart(r.Context(), sid, productID, qty)
	s.Metrics.observe("add", err)
	if errors.Is(err, storage.ErrQuantityOverflow) {
		kit.WriteError(w, r, http.StatusBadRequest, "invalid request data", map[string]any{"cause": err.Error()})
		return
	}
	if err != nil {
		s.logError("add to cart failed", err, sid)
		kit.WriteError(w, r, http.StatusInternalServerError, "failed to add item to cart", nil)
		return
	}
	kit.WriteJSON(w, http.StatusOK, it)
}

func (s *Server) update(w http.ResponseWriter, r *http.Request) {
	sid, ok := s.sessionID(w, r)
	if !ok {
		return
	}

	req, err := decodeItemRequest(w, r)
	if err != nil {
		kit.WriteError(w, r, http.StatusBadRequest, "invalid request data", map[string]any{"cause": err.Error()})
		return
	}
	productID, qty, err := req.validate(true)
	if err != nil {
		kit.WriteError(w, r, http.StatusBadRequest, "invalid request data", map[string]any{"cause": err.Error()})
		return
	}

	it, err := s.Store.UpdateCartItemQuantity(r.Context(), sid, productID, qty)
	s.Metrics.observe("update", err)
	if err != nil {
		if !errors.Is(err, storage.ErrCartItemNotFound) {
			s.logError("update cart item failed", err, sid)
		}
		kit.WriteError(w, r, http.StatusInternalServerError, "failed to update cart item", map[string]any{"cause": err.Error()})
		return
	}
	kit.WriteJSON(w, http.StatusOK, it)
}

func (s *Server) remove(w http.ResponseWriter, r *http.Request) {
	sid, ok := s.sessionID(w, r)
	if !ok {
		return
	}

	raw := chi.URLParam(r, "productId")
	productID, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		kit.WriteError(w, r, http.StatusBadRequest, "invalid productId", map[string]any{"productId": raw})
		return
	}

	err = s.Store.RemoveFromCart(r.Context(), sid, productID)
	s.Metrics.observe("remove", err)
	if err != nil {
		s.logError("remove from cart failed", err, sid)
		kit.WriteError(w, r, http.StatusInternalServerError, "failed to remove item from cart", nil)
		return
	}
	kit.WriteJSON(w, http.StatusOK, map[string]bool{"success": true})
}

func (s *Server) clear(w http.ResponseWriter, r *http.Request) {
	sid, ok := s.sessionID(w, r)
	if !ok {
		return
	}

	err := s.Store.ClearCart(r.Context(), sid)
	s.Metrics.observe("clear", err)
	if err != nil {
		s.logError("clear cart failed", err, sid)
		kit.WriteError(w, r, http.StatusInternalServerError, "failed to clear cart", nil)
		return
	}
	kit.WriteJSON(w, http.StatusOK, map[string]bool{"success": true})
}

func (s *Server) sessionID(w http.ResponseWriter, r *http.Request) (string, bool) {
	sid, ok := session.IDFromContext(r.Context())
	if !ok {
		kit.WriteError(w, r, http.StatusInternalServerError, "no session", nil)
		return "", false
	}
	return sid, true
}

func (s *Server) logError(msg string, err error, sid string) {
	if s.Log != nil {
		s.Log.Error(msg, zap.Error(err), zap.String("session_id", sid))
	}
}

func decodeItemRequest(w http.ResponseWriter, r *http.Request) (itemReq, error) {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	defer func() { _ = r.Body.Close() }()

	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()

	var req itemReq
	if err := dec.Decode(&req); err != nil {
		return itemReq{}, err
	}
	if err := dec.Decode(&struct{}{}); err != io.EOF {
		return itemReq{}, errors.New("extra data after json object")
	}
	return req, nil
}
