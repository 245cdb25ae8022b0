package cart_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"math"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"Storefront/internal/cart"
	"Storefront/internal/session"
	"Storefront/internal/storage"
)

func withSession(id string, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		next.ServeHTTP(w, r.WithContext(session.WithID(r.Context(), id)))
	})
}

type harness struct {
	h       http.Handler
	store   storage.Store
	metrics *cart.Metrics
}

func newHarness(t *testing.T, store storage.Store) harness {
	t.Helper()

	m := cart.NewMetrics(prometheus.NewRegistry(), "test")
	s := &cart.Server{Store: store, Log: zap.NewNop(), Metrics: m}
	return harness{h: withSession("s1", s.Routes()), store: store, metrics: m}
}

func (hs harness) do(t *testing.T, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()

	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	hs.h.ServeHTTP(rec, req)
	return rec
}

func TestCart_AddDefaultsQuantityToOne(t *testing.T) {
	hs := newHarness(t, storage.NewMemStore())

	rec := hs.do(t, http.MethodPost, "/add", `{"productId": 2}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var it storage.CartItem
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &it))
	assert.Equal(t, int64(2), it.ProductID)
	assert.Equal(t, 1, it.Quantity)
	assert.Equal(t, "s1", it.SessionID)

	assert.Equal(t, 1.0, testutil.ToFloat64(hs.metrics.Mutations.WithLabelValues("add", "ok")))
}

func TestCart_AddValidation(t *testing.T) {
	hs := newHarness(t, storage.NewMemStore())

	cases := map[string]struct {
		body string
		want int
	}{
		"missing product":   {`{"quantity": 2}`, http.StatusBadRequest},
		"zero quantity":     {`{"productId": 1, "quantity": 0}`, http.StatusBadRequest},
		"string product":    {`{"productId": "1"}`, http.StatusBadRequest},
		"unknown field":     {`{"productId": 1, "color": "red"}`, http.StatusBadRequest},
		"not json":          {`nope`, http.StatusBadRequest},
		"unknown product":   {`{"productId": 404}`, http.StatusNotFound},
		"explicit quantity": {`{"productId": 1, "quantity": 3}`, http.StatusOK},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			rec := hs.do(t, http.MethodPost, "/add", tc.body)
			assert.Equal(t, tc.want, rec.Code, rec.Body.String())
		})
	}
}

func TestCart_AddOverflowIsRejected(t *testing.T) {
	hs := newHarness(t, storage.NewMemStore())

	maxQty := strconv.Itoa(math.MaxInt)
	require.Equal(t, http.StatusOK, hs.do(t, http.MethodPost, "/add", `{"productId": 1, "quantity": `+maxQty+`}`).Code)

	rec := hs.do(t, http.MethodPost, "/add", `{"productId": 1}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code, rec.Body.String())

	items, err := hs.store.CartItems(context.Background(), "s1")
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, math.MaxInt, items[0].Quantity)
}

func TestCart_UpdateRules(t *testing.T) {
	hs := newHarness(t, storage.NewMemStore())

	rec := hs.do(t, http.MethodPut, "/update", `{"productId": 1, "quantity": 5}`)
	assert.Equal(t, http.StatusInternalServerError, rec.Code, "missing row is a server error")

	rec = hs.do(t, http.MethodPut, "/update", `{"productId": 1}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	require.Equal(t, http.StatusOK, hs.do(t, http.MethodPost, "/add", `{"productId": 1}`).Code)

	rec = hs.do(t, http.MethodPut, "/update", `{"productId": 1, "quantity": 5}`)
	require.Equal(t, http.StatusOK, rec.Code)

	var it storage.CartItem
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &it))
	assert.Equal(t, 5, it.Quantity)
}

func TestCart_RemoveAndClearAlwaysSucceed(t *testing.T) {
	hs := newHarness(t, storage.NewMemStore())

	for i := 0; i < 2; i++ {
		rec := hs.do(t, http.MethodDelete, "/remove/3", "")
		require.Equal(t, http.StatusOK, rec.Code)
		assert.JSONEq(t, `{"success":true}`, rec.Body.String())

		rec = hs.do(t, http.MethodDelete, "/clear", "")
		require.Equal(t, http.StatusOK, rec.Code)
		assert.JSONEq(t, `{"success":true}`, rec.Body.String())
	}

	rec := hs.do(t, http.MethodDelete, "/remove/abc", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCart_ListAndSummary(t *testing.T) {
	hs := newHarness(t, storage.NewMemStore())

	rec := hs.do(t, http.MethodGet, "/", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `[]`, rec.Body.String())

	require.Equal(t, http.StatusOK, hs.do(t, http.MethodPost, "/add", `{"productId": 1, "quantity": 2}`).Code)
	require.Equal(t, http.StatusOK, hs.do(t, http.MethodPost, "/add", `{"productId": 2}`).Code)

	rec = hs.do(t, http.MethodGet, "/summary", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var sum struct {
		Items     []storage.CartItemWithProduct `json:"items"`
		ItemCount int                           `json:"itemCount"`
		Total     decimal.Decimal               `json:"total"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &sum))
	require.Len(t, sum.Items, 2)
	assert.Equal(t, 3, sum.ItemCount)
	assert.True(t, sum.Total.Equal(decimal.RequireFromString("184.97")), "total=%s", sum.Total)
	assert.Equal(t, "Classic Cotton T-Shirt", sum.Items[1].Product.Name)
}

type failingStore struct {
	storage.Store
}

var errBackend = errors.New("backend down")

func (failingStore) CartItems(context.Context, string) ([]storage.CartItemWithProduct, error) {
	return nil, errBackend
}

func (failingStore) ClearCart(context.Context, string) error { return errBackend }

func TestCart_BackendFailuresAre500(t *testing.T) {
	hs := newHarness(t, failingStore{Store: storage.NewMemStore()})

	assert.Equal(t, http.StatusInternalServerError, hs.do(t, http.MethodGet, "/", "").Code)
	assert.Equal(t, http.StatusInternalServerError, hs.do(t, http.MethodDelete, "/clear", "").Code)
	assert.Equal(t, 1.0, testutil.ToFloat64(hs.metrics.Mutations.WithLabelValues("clear", "error")))
}

func TestCart_RequiresSession(t *testing.T) {
	s := &cart.Server{Store: storage.NewMemStore()}

	rec := httptest.NewRecorder()
	s.Routes().ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/add", bytes.NewBufferString(`{"productId":1}`)))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestSummarize_Empty(t *testing.T) {
	s := cart.Summarize(nil)
	assert.NotNil(t, s.Items)
	assert.Equal(t, 0, s.ItemCount)
	assert.True(t, s.Total.IsZero())
}
