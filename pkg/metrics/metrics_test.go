package metrics

import (
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sqlscout/sqlscout/pkg/finding"
	"github.com/sqlscout/sqlscout/pkg/requester"
)

var _ requester.Observer = (*Collector)(nil)

func TestObserveRequest(t *testing.T) {
	c := New()
	c.ObserveRequest(200, 120*time.Millisecond, "")
	c.ObserveRequest(200, 80*time.Millisecond, "")
	c.ObserveRequest(503, 0, "transient")
	c.ObserveRequest(0, 0, "critical")

	assert.Equal(t, 2.0, testutil.ToFloat64(c.requests.WithLabelValues("2xx", "none")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.requests.WithLabelValues("5xx", "transient")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.requests.WithLabelValues("none", "critical")))
}

func TestObserveFinding(t *testing.T) {
	c := New()
	c.ObserveFinding(finding.New(finding.TypeError, "http://x/?id=1", "id", "'", finding.High))
	c.ObserveFinding(finding.New(finding.TypeError, "http://x/?id=2", "id", "'", finding.High))
	c.ObserveFinding(finding.New(finding.TypeTimeBlind, "http://x/?q=1", "q", "SLEEP", finding.Medium))

	assert.Equal(t, 2.0, testutil.ToFloat64(c.findings.WithLabelValues(finding.TypeError, "high")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.findings.WithLabelValues(finding.TypeTimeBlind, "medium")))
}

func TestRegistriesAreIndependent(t *testing.T) {
	a, b := New(), New()
	a.ObserveRequest(200, time.Millisecond, "")
	assert.Equal(t, 0.0, testutil.ToFloat64(b.requests.WithLabelValues("2xx", "none")))
}

func TestHandlerExposition(t *testing.T) {
	c := New()
	c.ObserveRequest(200, 50*time.Millisecond, "")

	rec := httptest.NewRecorder()
	c.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	require.Equal(t, 200, rec.Code)
	assert.Contains(t, rec.Body.String(), "sqlscout_requests_total")
	assert.Contains(t, rec.Body.String(), "sqlscout_request_duration_seconds")
}

func TestStatusClass(t *testing.T) {
	assert.Equal(t, "2xx", statusClass(204))
	assert.Equal(t, "4xx", statusClass(404))
	assert.Equal(t, "5xx", statusClass(503))
	assert.Equal(t, "none", statusClass(0))
	assert.Equal(t, "none", statusClass(700))
}
