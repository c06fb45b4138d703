package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// Registry holds the application-specific Prometheus collectors.
	Registry = prometheus.NewRegistry()

	httpRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "competitions",
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total number of HTTP requests handled.",
		},
		[]string{"method", "path", "status"},
	)

	httpDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "competitions",
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "Duration of HTTP requests.",
			Buckets:   prometheus.ExponentialBuckets(0.005, 2, 10), // 5ms to ~5s
		},
		[]string{"method", "path"},
	)

	ticketsAllocated = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "competitions",
			Subsystem: "tickets",
			Name:      "allocated_total",
			Help:      "Total number of ticket numbers issued.",
		},
	)

	allocationRejections = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "competitions",
			Subsystem: "tickets",
			Name:      "allocation_rejections_total",
			Help:      "Allocations refused, by reason.",
		},
		[]string{"reason"},
	)

	instantWins = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "competitions",
			Subsystem: "instant_wins",
			Name:      "claimed_total",
			Help:      "Instant-win tickets claimed, by prize type.",
		},
		[]string{"type"},
	)

	ledgerTransactions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "competitions",
			Subsystem: "ledger",
			Name:      "transactions_total",
			Help:      "Ledger transactions written, by ledger and direction.",
		},
		[]string{"ledger", "direction"},
	)

	draws = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "competitions",
			Subsystem: "draws",
			Name:      "events_total",
			Help:      "Draw lifecycle events.",
		},
		[]string{"event"},
	)

	jobRuns = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "competitions",
			Subsystem: "scheduler",
			Name:      "job_runs_total",
			Help:      "Total number of scheduled job runs.",
		},
		[]string{"job", "success"},
	)
)

func init() {
	Registry.MustRegister(
		httpRequests,
		httpDuration,
		ticketsAllocated,
		allocationRejections,
		instantWins,
		ledgerTransactions,
		draws,
		jobRuns,
		prometheus.NewProcessCollector(prometheus.ProcessCollectorOpts{}),
		prometheus.NewGoCollector(),
	)
}

// Handler returns an HTTP handler exposing the registered Prometheus metrics.
func Handler() http.Handler {
	return promhttp.HandlerFor(Registry, promhttp.HandlerOpts{})
}

// RecordHTTPRequest records one handled request. path should be the route
// template, not the raw URL, to keep label cardinality bounded.
func RecordHTTPRequest(method, path string, status int, duration time.Duration) {
	httpRequests.WithLabelValues(method, path, strconv.Itoa(status)).Inc()
	httpDuration.WithLabelValues(method, path).Observe(duration.Seconds())
}

// RecordTicketsAllocated counts issued ticket numbers.
func RecordTicketsAllocated(n int) {
	ticketsAllocated.Add(float64(n))
}

// RecordAllocationRejected counts a refused allocation.
func RecordAllocationRejected(reason string) {
	allocationRejections.WithLabelValues(reason).Inc()
}

// RecordInstantWin counts a claimed instant-win ticket.
func RecordInstantWin(prizeType string) {
	instantWins.WithLabelValues(prizeType).Inc()
}

// RecordLedgerTransaction counts a ledger row by sign.
func RecordLedgerTransaction(ledger string, amount int64) {
	direction := "credit"
	if amount < 0 {
		direction = "debit"
	}
	ledgerTransactions.WithLabelValues(ledger, direction).Inc()
}

// RecordDrawEvent counts draw lifecycle events (executed, cleared, finalized).
func RecordDrawEvent(event string) {
	draws.WithLabelValues(event).Inc()
}

// RecordJobRun counts a scheduled job execution.
func RecordJobRun(job string, success bool) {
	jobRuns.WithLabelValues(job, strconv.FormatBool(success)).Inc()
}
