package saleshttp

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bizdash/bizdash/internal/records"
	"github.com/bizdash/bizdash/internal/sales"
)

func newRouter(t *testing.T) (http.Handler, records.Product) {
	t.Helper()
	store := records.NewMemoryStore()
	product := records.Product{Name: "Widget", Price: decimal.NewFromInt(10), CurrentStock: 8, MinimumStock: 2}
	_, err := store.Insert(context.Background(), records.Products, &product)
	require.NoError(t, err)
	now := func() time.Time { return time.Date(2024, time.April, 12, 0, 0, 0, 0, time.UTC) }
	r := chi.NewRouter()
	NewHandler(nil, sales.NewService(store, nil, now)).MountRoutes(r)
	return r, product
}

func do(h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestSaleEndpoints(t *testing.T) {
	h, product := newRouter(t)

	rec := do(h, http.MethodPost, "/sales", `{"date":"2024-04-12","payment_method":"card","items":[{"product_id":"`+product.ID+`","quantity":2,"unit_price":"10"}]}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var created sales.Detail
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))
	assert.True(t, created.TotalAmount.Equal(decimal.NewFromInt(20)))
	require.Len(t, created.Items, 1)

	rec = do(h, http.MethodGet, "/sales/"+created.ID, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"status":"pending"`)

	rec = do(h, http.MethodPut, "/sales/"+created.ID+"/status", `{"status":"collected"}`)
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = do(h, http.MethodGet, "/sales?status=collected", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var body struct {
		Sales []sales.Detail `json:"sales"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Len(t, body.Sales, 1)
	require.NotNil(t, body.Sales[0].CollectionDate)
	assert.Equal(t, "2024-04-12", *body.Sales[0].CollectionDate)
}

func TestSaleErrors(t *testing.T) {
	h, _ := newRouter(t)

	cases := []struct {
		name   string
		method string
		path   string
		body   string
		want   int
	}{
		{"unknown product", http.MethodPost, "/sales", `{"date":"2024-04-12","payment_method":"card","items":[{"product_id":"ghost","quantity":1,"unit_price":"1"}]}`, http.StatusNotFound},
		{"bad method", http.MethodPost, "/sales", `{"date":"2024-04-12","payment_method":"iou","total_amount":"5"}`, http.StatusBadRequest},
		{"unknown field", http.MethodPost, "/sales", `{"date":"2024-04-12","payment_method":"card","total_amount":"5","vendor":"x"}`, http.StatusBadRequest},
		{"missing sale", http.MethodGet, "/sales/missing", "", http.StatusNotFound},
		{"bad status", http.MethodPut, "/sales/missing/status", `{"status":"refunded"}`, http.StatusBadRequest},
		{"missing status target", http.MethodPut, "/sales/missing/status", `{"status":"collected"}`, http.StatusNotFound},
		{"bad filter", http.MethodGet, "/sales?from=yesterday", "", http.StatusBadRequest},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, do(h, tc.method, tc.path, tc.body).Code)
		})
	}
}
