package metrics

import (
	"io"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/require"
)

func getCounterValue(cv *prometheus.CounterVec, labels ...string) float64 {
	m := &dto.Metric{}
	if err := cv.WithLabelValues(labels...).Write(m); err != nil {
		return 0
	}
	return m.GetCounter().GetValue()
}

func TestRecordDecisions(t *testing.T) {
	before := getCounterValue(GuardDecisionsTotal, "redirecting", "unauthenticated")
	RecordGuardDecision("redirecting", "unauthenticated")
	require.Equal(t, before+1, getCounterValue(GuardDecisionsTotal, "redirecting", "unauthenticated"))

	before = getCounterValue(EdgeDecisionsTotal, "rendering", "allowed")
	RecordEdgeDecision("rendering", "allowed")
	RecordEdgeDecision("rendering", "allowed")
	require.Equal(t, before+2, getCounterValue(EdgeDecisionsTotal, "rendering", "allowed"))
}

func TestRecordOutcomes(t *testing.T) {
	before := getCounterValue(LoginsTotal, "invalid_credentials")
	RecordLogin("invalid_credentials")
	require.Equal(t, before+1, getCounterValue(LoginsTotal, "invalid_credentials"))

	before = getCounterValue(RefreshesTotal, "stale")
	RecordRefresh("stale")
	require.Equal(t, before+1, getCounterValue(RefreshesTotal, "stale"))
}

func TestHandler(t *testing.T) {
	RecordLogin("success")
	RecordRequest("/dashboard", 200, 15*time.Millisecond)
	RecordSessionsRemoved(3)

	w := httptest.NewRecorder()
	Handler().ServeHTTP(w, httptest.NewRequest("GET", "/metrics", nil))
	require.Equal(t, 200, w.Code)

	body, err := io.ReadAll(w.Body)
	require.NoError(t, err)
	require.Contains(t, string(body), `dashboard_logins_total{outcome="success"}`)
	require.Contains(t, string(body), "dashboard_request_duration_seconds_bucket")
	require.Contains(t, string(body), "dashboard_sessions_removed_total")
	require.Contains(t, string(body), "go_goroutines")
}
