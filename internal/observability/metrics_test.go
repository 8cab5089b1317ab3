package observability

import (
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// value reads the current value of a counter or gauge.
func value(t *testing.T, m prometheus.Metric) float64 {
	t.Helper()
	var out dto.Metric
	require.NoError(t, m.Write(&out))
	switch {
	case out.Counter != nil:
		return out.Counter.GetValue()
	case out.Gauge != nil:
		return out.Gauge.GetValue()
	}
	t.Fatalf("metric %s is neither counter nor gauge", m.Desc())
	return 0
}

func TestRecordBacktest(t *testing.T) {
	m := NewMetricsWith(prometheus.NewRegistry(), "test")

	m.RecordBacktest("historical", 50*time.Millisecond, 12, 252, nil)
	m.RecordBacktest("historical", time.Millisecond, 0, 0, errors.New("boom"))

	assert.Equal(t, 1.0, value(t, m.BacktestRuns.WithLabelValues("historical", "ok")))
	assert.Equal(t, 1.0, value(t, m.BacktestRuns.WithLabelValues("historical", "error")))
	assert.Equal(t, 12.0, value(t, m.TradesSimulated))
	assert.Equal(t, 252.0, value(t, m.DaysSimulated))
	assert.Greater(t, value(t, m.LastSuccessfulBacktest), 0.0)
}

func TestMonteCarloPending(t *testing.T) {
	m := NewMetricsWith(prometheus.NewRegistry(), "test")

	m.RecordMonteCarloBatch(5)
	assert.Equal(t, 5.0, value(t, m.MonteCarloRunsPending))

	m.RecordMonteCarloRun(nil)
	m.RecordMonteCarloRun(errors.New("failed"))
	m.ReleasePending(3)

	assert.Equal(t, 0.0, value(t, m.MonteCarloRunsPending))
	assert.Equal(t, 1.0, value(t, m.MonteCarloRuns.WithLabelValues("ok")))
	assert.Equal(t, 1.0, value(t, m.MonteCarloRuns.WithLabelValues("error")))
}

func TestRecordHTTPRequest(t *testing.T) {
	m := NewMetricsWith(prometheus.NewRegistry(), "test")

	m.RecordHTTPRequest("/health", http.StatusOK, time.Millisecond)
	m.RecordHTTPRequest("/health", http.StatusOK, time.Millisecond)

	assert.Equal(t, 2.0, value(t, m.HTTPRequests.WithLabelValues("/health", "OK")))
}
