package monitoring

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// MetricsCollector handles Prometheus metrics collection. Each collector
// owns its registry so several services (or tests) can coexist in one process.
type MetricsCollector struct {
	serviceName string
	registry    *prometheus.Registry

	httpRequestsTotal     *prometheus.CounterVec
	httpRequestDuration   *prometheus.HistogramVec
	appointmentsBooked    *prometheus.CounterVec
	slotConflicts         *prometheus.CounterVec
	appointmentTransition *prometheus.CounterVec
	notificationsTotal    *prometheus.CounterVec
	authorizationDenials  *prometheus.CounterVec
	systemErrors          *prometheus.CounterVec
}

// NewMetricsCollector creates a new metrics collector
func NewMetricsCollector(serviceName string) *MetricsCollector {
	m := &MetricsCollector{
		serviceName: serviceName,
		registry:    prometheus.NewRegistry(),

		httpRequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "endpoint", "status_code", "service"},
		),
		httpRequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "http_request_duration_seconds",
				Help:    "Duration of HTTP requests in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "endpoint", "service"},
		),
		appointmentsBooked: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "clinic_appointments_booked_total",
				Help: "Total number of appointments created in pending state",
			},
			[]string{"service"},
		),
		slotConflicts: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "clinic_slot_conflicts_total",
				Help: "Total number of bookings rejected because the slot was taken",
			},
			[]string{"service"},
		),
		appointmentTransition: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "clinic_appointment_transitions_total",
				Help: "Total number of appointment status transitions",
			},
			[]string{"status", "service"},
		),
		notificationsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "clinic_notifications_total",
				Help: "Total number of notifications appended to inboxes",
			},
			[]string{"type", "service"},
		),
		authorizationDenials: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "clinic_authorization_denials_total",
				Help: "Total number of operations refused by role checks",
			},
			[]string{"operation", "service"},
		),
		systemErrors: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "system_errors_total",
				Help: "Total number of system errors",
			},
			[]string{"error_type", "service", "component"},
		),
	}

	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.httpRequestsTotal,
		m.httpRequestDuration,
		m.appointmentsBooked,
		m.slotConflicts,
		m.appointmentTransition,
		m.notificationsTotal,
		m.authorizationDenials,
		m.systemErrors,
	)

	return m
}

// Registry exposes the collector's registry
func (m *MetricsCollector) Registry() *prometheus.Registry {
	return m.registry
}

// RecordHTTPRequest records HTTP request metrics
func (m *MetricsCollector) RecordHTTPRequest(method, endpoint, statusCode string, duration time.Duration) {
	m.httpRequestsTotal.WithLabelValues(method, endpoint, statusCode, m.serviceName).Inc()
	m.httpRequestDuration.WithLabelValues(method, endpoint, m.serviceName).Observe(duration.Seconds())
}

// RecordAppointmentBooked counts a successfully created appointment
func (m *MetricsCollector) RecordAppointmentBooked() {
	m.appointmentsBooked.WithLabelValues(m.serviceName).Inc()
}

// RecordSlotConflict counts a booking rejected because the slot was held
func (m *MetricsCollector) RecordSlotConflict() {
	m.slotConflicts.WithLabelValues(m.serviceName).Inc()
}

// RecordTransition counts an appointment moving into status
func (m *MetricsCollector) RecordTransition(status string) {
	m.appointmentTransition.WithLabelValues(status, m.serviceName).Inc()
}

// RecordNotification counts an appended notification
func (m *MetricsCollector) RecordNotification(notificationType string) {
	m.notificationsTotal.WithLabelValues(notificationType, m.serviceName).Inc()
}

// RecordAuthorizationDenied counts a refused role check
func (m *MetricsCollector) RecordAuthorizationDenied(operation string) {
	m.authorizationDenials.WithLabelValues(operation, m.serviceName).Inc()
}

// RecordSystemError records system error metrics
func (m *MetricsCollector) RecordSystemError(errorType, component string) {
	m.systemErrors.WithLabelValues(errorType, m.serviceName, component).Inc()
}

// Handler returns the Prometheus metrics HTTP handler
func (m *MetricsCollector) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}
