package variance

import (
	"context"
	"strings"
	"testing"

	"github.com/hibiken/asynq"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	jobmetrics "github.com/bizdash/bizdash/internal/jobs"
	"github.com/bizdash/bizdash/internal/records"
	"github.com/bizdash/bizdash/jobs"
)

func TestAlertScanJobCountsAlerts(t *testing.T) {
	svc, store := newTestService(t)
	ctx := context.Background()

	_, err := svc.CreateBudget(ctx, BudgetInput{Year: 2024, Month: 2, ExpectedRevenue: dec("100"), ExpectedExpense: dec("10")})
	require.NoError(t, err)
	_, err = store.Insert(ctx, records.Sales, records.Sale{Date: "2024-02-03", TotalAmount: dec("40"), Status: records.SaleCollected})
	require.NoError(t, err)

	reg := prometheus.NewRegistry()
	job := NewAlertScanJob(svc, nil, jobmetrics.NewMetrics(reg))
	require.NoError(t, job.Handle(ctx, asynq.NewTask(jobs.TaskPlanningAlertScan, nil)))

	families, err := reg.Gather()
	require.NoError(t, err)
	var found bool
	for _, mf := range families {
		if strings.HasSuffix(mf.GetName(), "plan_alerts_total") {
			found = true
			assert.NotEmpty(t, mf.GetMetric())
		}
	}
	assert.True(t, found, "expected plan alert counter to be recorded")
}
