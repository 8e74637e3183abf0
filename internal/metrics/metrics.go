package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Booking outcomes reported by the slot allocator.
const (
	OutcomeBooked      = "booked"
	OutcomeConflict    = "conflict"
	OutcomeUnavailable = "unavailable"
	OutcomeContended   = "contended"
	OutcomeRejected    = "rejected"
	OutcomeError       = "error"
)

// Metrics holds the service collectors. All methods are safe on a nil
// receiver so tests and tools can run without a registry.
type Metrics struct {
	bookingsTotal       *prometheus.CounterVec
	statusChangesTotal  *prometheus.CounterVec
	daysGeneratedTotal  prometheus.Counter
	daysReconciledTotal prometheus.Counter
	httpRequestsTotal   *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec
}

func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		bookingsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "clinic_bookings_total",
				Help: "Booking attempts by outcome",
			},
			[]string{"outcome"},
		),
		statusChangesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "clinic_appointment_status_changes_total",
				Help: "Appointment status transitions by target status",
			},
			[]string{"status"},
		),
		daysGeneratedTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "clinic_day_availability_generated_total",
				Help: "Day availability records created from working hours",
			},
		),
		daysReconciledTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "clinic_day_availability_reconciled_total",
				Help: "Day availability records rewritten by the reconciler",
			},
		),
		httpRequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "route", "status_code"},
		),
		httpRequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "http_request_duration_seconds",
				Help:    "Duration of HTTP requests in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "route"},
		),
	}

	reg.MustRegister(
		m.bookingsTotal,
		m.statusChangesTotal,
		m.daysGeneratedTotal,
		m.daysReconciledTotal,
		m.httpRequestsTotal,
		m.httpRequestDuration,
	)

	return m
}

// NewRegistry returns a registry preloaded with the Go and process collectors.
func NewRegistry() *prometheus.Registry {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return reg
}

func Handler(reg *prometheus.Registry) http.Handler {
	return promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg})
}

func (m *Metrics) Booking(outcome string) {
	if m == nil {
		return
	}
	m.bookingsTotal.WithLabelValues(outcome).Inc()
}

func (m *Metrics) StatusChange(status string) {
	if m == nil {
		return
	}
	m.statusChangesTotal.WithLabelValues(status).Inc()
}

func (m *Metrics) DayGenerated() {
	if m == nil {
		return
	}
	m.daysGeneratedTotal.Inc()
}

func (m *Metrics) DaysReconciled(n int) {
	if m == nil || n <= 0 {
		return
	}
	m.daysReconciledTotal.Add(float64(n))
}

func (m *Metrics) HTTPRequest(method, route string, status int, took time.Duration) {
	if m == nil {
		return
	}
	m.httpRequestsTotal.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	m.httpRequestDuration.WithLabelValues(method, route).Observe(took.Seconds())
}
