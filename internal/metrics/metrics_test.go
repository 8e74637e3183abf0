package metrics

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestMetrics_Counters(t *testing.T) {
	m := New(prometheus.NewRegistry())

	m.Booking(OutcomeBooked)
	m.Booking(OutcomeBooked)
	m.Booking(OutcomeConflict)
	m.StatusChange("cancelled")
	m.DayGenerated()
	m.DaysReconciled(3)
	m.DaysReconciled(0)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.bookingsTotal.WithLabelValues(OutcomeBooked)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.bookingsTotal.WithLabelValues(OutcomeConflict)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.statusChangesTotal.WithLabelValues("cancelled")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.daysGeneratedTotal))
	assert.Equal(t, 3.0, testutil.ToFloat64(m.daysReconciledTotal))
}

func TestMetrics_NilReceiver(t *testing.T) {
	var m *Metrics

	assert.NotPanics(t, func() {
		m.Booking(OutcomeBooked)
		m.StatusChange("confirmed")
		m.DayGenerated()
		m.DaysReconciled(1)
		m.HTTPRequest(http.MethodGet, "/", http.StatusOK, time.Millisecond)
	})
}

func TestHandler_Exposes(t *testing.T) {
	reg := NewRegistry()
	m := New(reg)
	m.HTTPRequest(http.MethodPost, "/api/appointments/create", http.StatusCreated, 20*time.Millisecond)

	rec := httptest.NewRecorder()
	Handler(reg).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.True(t, strings.Contains(body, `http_requests_total{method="POST",route="/api/appointments/create",status_code="201"} 1`))
	assert.True(t, strings.Contains(body, "go_goroutines"))
}
