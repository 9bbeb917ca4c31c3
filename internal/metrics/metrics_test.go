package metrics_test

import (
	"io"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"architect/internal/metrics"
)

func TestCountersAndHandler(t *testing.T) {
	m := metrics.New()
	m.GateDecisions.WithLabelValues("START").Inc()
	m.GeneratorCalls.WithLabelValues("evaluate", "ok").Add(2)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.GateDecisions.WithLabelValues("START")))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.GeneratorCalls.WithLabelValues("evaluate", "ok")))

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	body, err := io.ReadAll(rec.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), `architect_gate_decisions_total{decision="START"} 1`)
}

func TestSessionsHaveSeparateRegistries(t *testing.T) {
	a, b := metrics.New(), metrics.New()
	a.Events.Inc()
	assert.Equal(t, 0.0, testutil.ToFloat64(b.Events))
}
