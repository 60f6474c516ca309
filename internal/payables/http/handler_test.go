package payableshttp

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bizdash/bizdash/internal/payables"
	"github.com/bizdash/bizdash/internal/records"
)

func newRouter(t *testing.T) http.Handler {
	t.Helper()
	now := func() time.Time { return time.Date(2024, time.May, 3, 0, 0, 0, 0, time.UTC) }
	svc := payables.NewService(records.NewMemoryStore(), nil, now)
	r := chi.NewRouter()
	NewHandler(nil, svc).MountRoutes(r)
	return r
}

func do(h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestPayablesEndpoints(t *testing.T) {
	h := newRouter(t)

	rec := do(h, http.MethodPost, "/payables/suppliers", `{"name":"Acme"}`)
	require.Equal(t, http.StatusCreated, rec.Code)
	var supplier records.Supplier
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &supplier))

	suppliers := do(h, http.MethodGet, "/payables/suppliers", "")
	require.Equal(t, http.StatusOK, suppliers.Code)
	assert.Contains(t, suppliers.Body.String(), "Acme")

	rec = do(h, http.MethodPost, "/payables/purchases", `{"supplier_id":"ghost","date":"2024-05-01","total_amount":"10"}`)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = do(h, http.MethodPost, "/payables/purchases", `{"supplier_id":"ghost","date":"May 1","total_amount":"10"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(h, http.MethodPut, "/payables/purchases/missing/status", `{"status":"paid"}`)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = do(h, http.MethodPut, "/payables/purchases/missing/status", `{"status":"lost"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(h, http.MethodPost, "/payables/purchases", `{"supplier_id":"`+supplier.ID+`","date":"2024-05-01","total_amount":"120"}`)
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = do(h, http.MethodPost, "/payables/payments", `{"supplier_id":"`+supplier.ID+`","date":"2024-05-02","amount":"20","method":"cash"}`)
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = do(h, http.MethodGet, "/payables/balances", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"total_outstanding":"100"`)

	rec = do(h, http.MethodGet, "/payables/purchases?supplier_id="+supplier.ID, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"status":"pending"`)

	rec = do(h, http.MethodPut, "/payables/suppliers/"+supplier.ID, `{"name":"Acme Ltd","tax_id":"B123"}`)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Contains(t, do(h, http.MethodGet, "/payables/suppliers", "").Body.String(), "Acme Ltd")

	rec = do(h, http.MethodPut, "/payables/suppliers/missing", `{"name":"X"}`)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = do(h, http.MethodDelete, "/payables/suppliers/"+supplier.ID, "")
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestDeleteUnusedSupplier(t *testing.T) {
	h := newRouter(t)

	rec := do(h, http.MethodPost, "/payables/suppliers", `{"name":"Idle"}`)
	require.Equal(t, http.StatusCreated, rec.Code)
	var supplier records.Supplier
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &supplier))

	assert.Equal(t, http.StatusNoContent, do(h, http.MethodDelete, "/payables/suppliers/"+supplier.ID, "").Code)
	assert.Equal(t, http.StatusNotFound, do(h, http.MethodDelete, "/payables/suppliers/"+supplier.ID, "").Code)
}
