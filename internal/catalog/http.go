package catalog

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"Storefront/internal/storage"
	"Storefront/pkg/kit"
)

const maxBodyBytes = 1 << 20

var maxRating = decimal.NewFromInt(5)

type Server struct {
	Store storage.Store
	Log   *zap.Logger

	// Admin guards product creation. Nil leaves POST unrouted.
	Admin func(http.Handler) http.Handler
}

func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()

	r.Get("/", s.list)
	r.Get("/categories", s.categories)
	r.Get("/{id}", s.get)

	if s.Admin != nil {
		r.With(s.Admin).Post("/", s.create)
	}

	return r
}

func (s *Server) list(w http.ResponseWriter, r *http.Request) {
	products, err := s.Store.AllProducts(r.Context())
	if err != nil {
		s.logError("list products failed", err)
		kit.WriteError(w, r, http.StatusInternalServerError, "failed to fetch products", nil)
		return
	}

	q := r.URL.Query()
	out, err := Apply(products, Filter{
		Category: q.Get("category"),
		MinPrice: q.Get("minPrice"),
		MaxPrice: q.Get("maxPrice"),
		SortBy:   ParseSortMode(q.Get("sortBy")),
	})
	if err != nil {
		kit.WriteError(w, r, http.StatusBadRequest, "invalid filter", map[string]any{"cause": err.Error()})
		return
	}

	w.Header().Set("X-Total-Count", strconv.Itoa(len(products)))
	kit.WriteJSONCached(w, r, http.StatusOK, out)
}

func (s *Server) categories(w http.ResponseWriter, r *http.Request) {
	products, err := s.Store.AllProducts(r.Context())
	if err != nil {
		s.logError("list categories failed", err)
		kit.WriteError(w, r, http.StatusInternalServerError, "failed to fetch categories", nil)
		return
	}
	kit.WriteJSONCached(w, r, http.StatusOK, Categories(products))
}

func (s *Server) get(w http.ResponseWriter, r *http.Request) {
	raw := chi.URLParam(r, "id")

	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		kit.WriteError(w, r, http.StatusNotFound, "product not found", map[string]any{"id": raw})
		return
	}

	p, ok, err := s.Store.ProductByID(r.Context(), id)
	if err != nil {
		if s.Log != nil {
			s.Log.Error("get product failed", zap.Error(err), zap.Int64("id", id))
		}
		kit.WriteError(w, r, http.StatusInternalServerError, "failed to fetch product", nil)
		return
	}
	if !ok {
		kit.WriteError(w, r, http.StatusNotFound, "product not found", map[string]any{"id": id})
		return
	}
	kit.WriteJSON(w, http.StatusOK, p)
}

type createReq struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Price       string `json:"price"`
	Image       string `json:"image"`
	Category    string `json:"category"`
	Rating      string `json:"rating"`
	Stock       *int   `json:"stock"`
}

var errInvalidProduct = errors.New("invalid product")

func (req createReq) toNewProduct() (storage.NewProduct, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return storage.NewProduct{}, errors.New("name required")
	}

	price, err := decimal.NewFromString(strings.TrimSpace(req.Price))
	if err != nil || price.IsNegative() {
		return storage.NewProduct{}, errors.New("price must be a non-negative decimal")
	}

	rating := decimal.Zero
	if strings.TrimSpace(req.Rating) != "" {
		rating, err = decimal.NewFromString(strings.TrimSpace(req.Rating))
		if err != nil || rating.IsNegative() || rating.GreaterThan(maxRating) {
			return storage.NewProduct{}, errors.New("rating must be between 0 and 5")
		}
	}

	if req.Stock != nil && *req.Stock < 0 {
		return storage.NewProduct{}, errors.New("stock must not be negative")
	}

	return storage.NewProduct{
		Name:        name,
		Description: req.Description,
		Price:       price,
		Image:       req.Image,
		Category:    strings.TrimSpace(req.Category),
		Rating:      rating,
		Stock:       req.Stock,
	}, nil
}

func (s *Server) create(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)

	var req createReq
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		kit.WriteError(w, r, http.StatusBadRequest, "bad json", map[string]any{"cause": err.Error()})
		return
	}

	np, err := req.toNewProduct()
	if err != nil {
		kit.WriteError(w, r, http.StatusBadRequest, errInvalidProduct.Error(), map[string]any{"cause": err.Error()})
		return
	}

	p, err := s.Store.CreateProduct(r.Context(), np)
	if err != nil {
		s.logError("create product failed", err)
		kit.WriteError(w, r, http.StatusInternalServerError, "failed to create product", nil)
		return
	}
	kit.WriteJSON(w, http.StatusCreated, p)
}

func (s *Server) logError(msg string, err error) {
	if s.Log != nil {
		s.Log.Error(msg, zap.Error(err))
	}
}
