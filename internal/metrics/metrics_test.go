package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHandlerExposesDomainMetrics(t *testing.T) {
	RecordTicketsAllocated(3)
	RecordAllocationRejected("capacity")
	RecordInstantWin("CASH")
	RecordLedgerTransaction("CASH", -100)
	RecordDrawEvent("executed")
	RecordJobRun("close_expired", true)
	RecordHTTPRequest(http.MethodGet, "/health", http.StatusOK, 10*time.Millisecond)

	rec := httptest.NewRecorder()
	Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	body := rec.Body.String()
	assert.Contains(t, body, "competitions_tickets_allocated_total")
	assert.Contains(t, body, `competitions_tickets_allocation_rejections_total{reason="capacity"}`)
	assert.Contains(t, body, `competitions_ledger_transactions_total{direction="debit",ledger="CASH"}`)
	assert.Contains(t, body, `competitions_http_requests_total{method="GET",path="/health",status="200"}`)
	assert.Contains(t, body, `competitions_scheduler_job_runs_total{job="close_expired",success="true"}`)
}
