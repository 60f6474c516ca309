package variancehttp

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bizdash/bizdash/internal/records"
	"github.com/bizdash/bizdash/internal/variance"
)

type stubService struct {
	budgets   []records.Budget
	createErr error
	lastInput variance.BudgetInput
	report    variance.Report
	filter    variance.ComparisonFilter
}

func (s *stubService) ListBudgets(context.Context) ([]records.Budget, error) {
	return s.budgets, nil
}

func (s *stubService) CreateBudget(_ context.Context, in variance.BudgetInput) (records.Budget, error) {
	s.lastInput = in
	if s.createErr != nil {
		return records.Budget{}, s.createErr
	}
	return records.Budget{ID: "b1", Year: in.Year, Month: in.Month}, nil
}

func (s *stubService) UpdateBudget(context.Context, string, variance.BudgetInput) error {
	return nil
}

func (s *stubService) DeleteBudget(_ context.Context, id string) error {
	if id == "missing" {
		return variance.ErrBudgetNotFound
	}
	return nil
}

func (s *stubService) Compare(_ context.Context, f variance.ComparisonFilter) (variance.Report, error) {
	s.filter = f
	return s.report, nil
}

func newRouter(svc *stubService) http.Handler {
	r := chi.NewRouter()
	NewHandler(nil, svc).MountRoutes(r)
	return r
}

func TestCreateBudget(t *testing.T) {
	svc := &stubService{}
	body := `{"year":2024,"month":1,"expected_revenue":"200","expected_expense":"50"}`
	req := httptest.NewRequest(http.MethodPost, "/planning/budgets", strings.NewReader(body))
	rec := httptest.NewRecorder()

	newRouter(svc).ServeHTTP(rec, req)
	require.Equal(t, http.StatusCreated, rec.Code)
	assert.True(t, svc.lastInput.ExpectedRevenue.Equal(decimal.NewFromInt(200)))
}

func TestCreateBudgetConflictAndBadBody(t *testing.T) {
	svc := &stubService{createErr: variance.ErrBudgetExists}
	rec := httptest.NewRecorder()
	newRouter(svc).ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/planning/budgets", strings.NewReader(`{"year":2024,"month":1}`)))
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, "application/problem+json", rec.Header().Get("Content-Type"))

	rec = httptest.NewRecorder()
	newRouter(svc).ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/planning/budgets", strings.NewReader(`{"year":`)))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestDeleteMissingBudget(t *testing.T) {
	rec := httptest.NewRecorder()
	newRouter(&stubService{}).ServeHTTP(rec, httptest.NewRequest(http.MethodDelete, "/planning/budgets/missing", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestComparisonJSONAndCSV(t *testing.T) {
	svc := &stubService{report: variance.Report{
		From: "2024-01",
		To:   "2024-01",
		Comparisons: variance.Compare([]records.Budget{{
			Year: 2024, Month: 1,
			ExpectedRevenue: decimal.NewFromInt(200),
			ExpectedExpense: decimal.NewFromInt(50),
		}}, nil),
	}}
	router := newRouter(svc)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/planning/comparison?from=2024-01&to=2024-01", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, variance.ComparisonFilter{From: "2024-01", To: "2024-01"}, svc.filter)
	var payload variance.Report
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &payload))
	require.Len(t, payload.Comparisons, 1)
	assert.Equal(t, "2024-01", payload.Comparisons[0].Period)

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/planning/comparison.csv", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "text/csv", rec.Header().Get("Content-Type"))
	lines := strings.Split(strings.TrimSpace(rec.Body.String()), "\n")
	assert.Len(t, lines, 2)
}
