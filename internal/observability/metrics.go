package observability

import (
	"strconv"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	registerOnce             sync.Once
	httpDurationHistogram    *prometheus.HistogramVec
	ledgerOperationCounter   *prometheus.CounterVec
	idempotencyCounter       *prometheus.CounterVec
	storageErrorCounter      *prometheus.CounterVec
	reconciliationMismatches prometheus.Gauge
	workerRunCounter         *prometheus.CounterVec
)

// Init registers all Prometheus collectors.
func Init() {
	registerOnce.Do(func() {
		httpDurationHistogram = prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request latency",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "path", "status"})

		ledgerOperationCounter = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "ledger_operations_total",
			Help: "Money movement and admin operations by outcome",
		}, []string{"operation", "outcome"})

		idempotencyCounter = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "idempotency_events_total",
			Help: "Idempotency middleware outcomes",
		}, []string{"outcome"})

		storageErrorCounter = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "ledger_storage_errors_total",
			Help: "Failed collection writes, labelled by the operation that issued them",
		}, []string{"operation"})

		reconciliationMismatches = prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "ledger_reconciliation_mismatches",
			Help: "Accounts whose balance disagreed with the journal on the last reconciliation",
		})

		workerRunCounter = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "worker_runs_total",
			Help: "Background worker run outcomes",
		}, []string{"worker", "result"})

		prometheus.MustRegister(
			httpDurationHistogram,
			ledgerOperationCounter,
			idempotencyCounter,
			storageErrorCounter,
			reconciliationMismatches,
			workerRunCounter,
		)
	})
}

func ObserveHTTP(method, path string, status int, duration time.Duration) {
	if httpDurationHistogram == nil {
		return
	}
	httpDurationHistogram.WithLabelValues(method, path, strconv.Itoa(status)).Observe(duration.Seconds())
}

func IncrementLedgerOperation(operation, outcome string) {
	if ledgerOperationCounter == nil {
		return
	}
	ledgerOperationCounter.WithLabelValues(operation, outcome).Inc()
}

func IncrementIdempotencyEvent(outcome string) {
	if idempotencyCounter == nil {
		return
	}
	idempotencyCounter.WithLabelValues(outcome).Inc()
}

func IncrementStorageError(operation string) {
	if storageErrorCounter == nil {
		return
	}
	storageErrorCounter.WithLabelValues(operation).Inc()
}

func SetReconciliationMismatches(n int) {
	if reconciliationMismatches == nil {
		return
	}
	reconciliationMismatches.Set(float64(n))
}

func IncrementWorkerRun(worker, result string) {
	if workerRunCounter == nil {
		return
	}
	workerRunCounter.WithLabelValues(worker, result).Inc()
}
