package cataloghttp

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bizdash/bizdash/internal/catalog"
	"github.com/bizdash/bizdash/internal/records"
)

func newRouter(t *testing.T) http.Handler {
	t.Helper()
	r := chi.NewRouter()
	NewHandler(nil, catalog.NewService(records.NewMemoryStore(), nil)).MountRoutes(r)
	return r
}

func do(h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func created[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v))
	return v
}

func TestProductEndpoints(t *testing.T) {
	h := newRouter(t)

	product := created[records.Product](t, do(h, http.MethodPost, "/products", `{"name":"Widget","price":"10","current_stock":1,"minimum_stock":3}`))
	created[records.Product](t, do(h, http.MethodPost, "/products", `{"name":"Gadget","price":"5","current_stock":9,"minimum_stock":1}`))

	rec := do(h, http.MethodGet, "/products?critical=true", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var body struct {
		Products []records.Product `json:"products"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Len(t, body.Products, 1)
	assert.Equal(t, product.ID, body.Products[0].ID)

	assert.Equal(t, http.StatusBadRequest, do(h, http.MethodGet, "/products?critical=maybe", "").Code)
	assert.Equal(t, http.StatusBadRequest, do(h, http.MethodPost, "/products", `{"price":"1"}`).Code)
	assert.Equal(t, http.StatusNoContent, do(h, http.MethodPut, "/products/"+product.ID, `{"name":"Widget","price":"11","current_stock":10}`).Code)
	assert.Equal(t, http.StatusNotFound, do(h, http.MethodPut, "/products/missing", `{"name":"X"}`).Code)
	assert.Equal(t, http.StatusNoContent, do(h, http.MethodDelete, "/products/"+product.ID, "").Code)
	assert.Equal(t, http.StatusNotFound, do(h, http.MethodDelete, "/products/"+product.ID, "").Code)
}

func TestCustomerEndpoints(t *testing.T) {
	h := newRouter(t)

	customer := created[records.Customer](t, do(h, http.MethodPost, "/customers", `{"name":"Ana","status":"active"}`))

	rec := do(h, http.MethodGet, "/customers?status=active", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"name":"Ana"`)

	assert.Equal(t, http.StatusBadRequest, do(h, http.MethodPut, "/customers/"+customer.ID, `{"name":"Ana","status":"vip"}`).Code)
	assert.Equal(t, http.StatusNoContent, do(h, http.MethodPut, "/customers/"+customer.ID, `{"name":"Ana","status":"inactive"}`).Code)
	assert.Contains(t, do(h, http.MethodGet, "/customers?status=inactive", "").Body.String(), customer.ID)
	assert.Equal(t, http.StatusNoContent, do(h, http.MethodDelete, "/customers/"+customer.ID, "").Code)
}

func TestExpenseEndpoints(t *testing.T) {
	h := newRouter(t)

	expense := created[records.Expense](t, do(h, http.MethodPost, "/expenses", `{"date":"2024-04-01","amount":"80","category":"utilities"}`))
	assert.Equal(t, http.StatusBadRequest, do(h, http.MethodPost, "/expenses", `{"date":"2024-04-01","amount":"-1","category":"rent"}`).Code)

	rec := do(h, http.MethodGet, "/expenses?from=2024-04-01&to=2024-04-30&category=utilities", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), expense.ID)
	assert.Equal(t, http.StatusBadRequest, do(h, http.MethodGet, "/expenses?from=April", "").Code)

	assert.Equal(t, http.StatusNoContent, do(h, http.MethodPut, "/expenses/"+expense.ID, `{"date":"2024-04-02","amount":"90","category":"utilities"}`).Code)
	assert.Equal(t, http.StatusNoContent, do(h, http.MethodDelete, "/expenses/"+expense.ID, "").Code)
	assert.Equal(t, http.StatusNotFound, do(h, http.MethodDelete, "/expenses/"+expense.ID, "").Code)
}
