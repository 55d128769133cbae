package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func counterValue(t *testing.T, c prometheus.Counter) float64 {
	t.Helper()
	var m dto.Metric
	require.NoError(t, c.Write(&m))
	return m.GetCounter().GetValue()
}

func TestRegister_Idempotent(t *testing.T) {
	assert.NotPanics(t, func() {
		RegisterGreetingMetrics()
		RegisterGreetingMetrics()
		RegisterBrokerMetrics()
		RegisterBrokerMetrics()
		RegisterCircuitBreakerMetrics()
		RegisterHTTPMetrics()
	})
}

func TestCounters(t *testing.T) {
	before := counterValue(t, GreetingsReceivedTotal.WithLabelValues("accepted"))
	IncGreetingsReceived("accepted")
	assert.Equal(t, before+1, counterValue(t, GreetingsReceivedTotal.WithLabelValues("accepted")))

	IncValidationFailure("to")
	assert.GreaterOrEqual(t, counterValue(t, ValidationFailuresTotal.WithLabelValues("to")), 1.0)

	IncKafkaTransaction("greetings", "aborted")
	assert.GreaterOrEqual(t, counterValue(t, KafkaTransactionsTotal.WithLabelValues("greetings", "aborted")), 1.0)
}

func TestObserveSinkOperation(t *testing.T) {
	ObserveSinkOperation("memory", "store", "success", 3*time.Millisecond)

	var m dto.Metric
	h := SinkOperationDuration.WithLabelValues("memory", "store", "success").(prometheus.Histogram)
	require.NoError(t, h.Write(&m))
	assert.GreaterOrEqual(t, m.GetHistogram().GetSampleCount(), uint64(1))
}
