package observability

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func value(t *testing.T, c prometheus.Metric) float64 {
	t.Helper()
	var m dto.Metric
	require.NoError(t, c.Write(&m))
	if m.Counter != nil {
		return m.Counter.GetValue()
	}
	return m.Gauge.GetValue()
}

func TestHelpersAreNoopsBeforeInit(t *testing.T) {
	if ledgerOperationCounter != nil {
		t.Skip("collectors already registered")
	}
	assert.NotPanics(t, func() {
		IncrementLedgerOperation("deposit", "applied")
		IncrementStorageError("deposit")
		SetReconciliationMismatches(3)
		ObserveHTTP("GET", "/healthz", 200, time.Millisecond)
	})
}

func TestCountersAfterInit(t *testing.T) {
	Init()
	Init()

	before := value(t, ledgerOperationCounter.WithLabelValues("withdraw", "blocked"))
	IncrementLedgerOperation("withdraw", "blocked")
	assert.Equal(t, before+1, value(t, ledgerOperationCounter.WithLabelValues("withdraw", "blocked")))

	SetReconciliationMismatches(2)
	assert.Equal(t, float64(2), value(t, reconciliationMismatches))

	before = value(t, storageErrorCounter.WithLabelValues("transfer"))
	IncrementStorageError("transfer")
	assert.Equal(t, before+1, value(t, storageErrorCounter.WithLabelValues("transfer")))
}
