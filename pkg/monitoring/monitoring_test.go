package monitoring

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gorilla/mux"
	"github.com/physiocare/clinic/pkg/logger"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

func TestMetricsCollector_IndependentRegistries(t *testing.T) {
	a := NewMetricsCollector("scheduling-service")
	b := NewMetricsCollector("scheduling-service")

	a.RecordAppointmentBooked()
	a.RecordAppointmentBooked()
	a.RecordSlotConflict()
	a.RecordTransition("approved")
	a.RecordNotification("appointment_requested")

	assert.Equal(t, 2.0, testutil.ToFloat64(a.appointmentsBooked.WithLabelValues("scheduling-service")))
	assert.Equal(t, 1.0, testutil.ToFloat64(a.slotConflicts.WithLabelValues("scheduling-service")))
	assert.Equal(t, 1.0, testutil.ToFloat64(a.appointmentTransition.WithLabelValues("approved", "scheduling-service")))
	assert.Equal(t, 0.0, testutil.ToFloat64(b.appointmentsBooked.WithLabelValues("scheduling-service")))
}

func TestMetricsCollector_Handler(t *testing.T) {
	m := NewMetricsCollector("scheduling-service")
	m.RecordNotification("appointment_approved")

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `clinic_notifications_total{service="scheduling-service",type="appointment_approved"} 1`)
}

func TestMonitoringMiddleware_HTTP(t *testing.T) {
	recorder := tracetest.NewSpanRecorder()
	tracing, err := NewTracingManager(context.Background(), &TracingConfig{
		ServiceName:  "scheduling-service",
		SamplingRate: 1.0,
	}, sdktrace.WithSpanProcessor(recorder))
	require.NoError(t, err)
	defer tracing.Shutdown(context.Background())

	metrics := NewMetricsCollector("scheduling-service")
	var logs bytes.Buffer
	log := logger.NewWithOutput("info", &logs)
	mm := NewMonitoringMiddleware(metrics, tracing, log)

	var seenRequestID, seenTraceID string
	router := mux.NewRouter()
	router.Use(mm.HTTPMiddleware)
	router.HandleFunc("/api/v1/appointments/{id}", func(w http.ResponseWriter, r *http.Request) {
		seenRequestID = logger.RequestIDFromContext(r.Context())
		seenTraceID = TraceIDFromContext(r.Context())
		w.WriteHeader(http.StatusNotFound)
	})

	req := httptest.NewRequest(http.MethodGet, "/api/v1/appointments/abc", nil)
	req.Header.Set("X-Request-ID", "req-1")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "req-1", rec.Header().Get("X-Request-ID"))
	assert.Equal(t, "req-1", seenRequestID)
	assert.NotEmpty(t, seenTraceID)

	spans := recorder.Ended()
	require.Len(t, spans, 1)
	assert.Equal(t, "GET /api/v1/appointments/{id}", spans[0].Name())

	count := testutil.ToFloat64(metrics.httpRequestsTotal.WithLabelValues("GET", "/api/v1/appointments/{id}", "404", "scheduling-service"))
	assert.Equal(t, 1.0, count)

	assert.True(t, strings.Contains(logs.String(), `"request_id":"req-1"`))
	assert.True(t, strings.Contains(logs.String(), "HTTP request completed with error"))
}

func TestMonitoringMiddleware_GeneratesRequestID(t *testing.T) {
	mm := NewMonitoringMiddleware(nil, nil, nil)
	handler := mm.HTTPMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok"))
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, rec.Header().Get("X-Request-ID"), 36)
}

type fakePinger struct{ err error }

func (f fakePinger) Ping(ctx context.Context) error { return f.err }

func TestHealthManager(t *testing.T) {
	hm := NewHealthManager("scheduling-service", "1.0.0")
	hm.RegisterChecker("store", NewStoreHealthChecker(fakePinger{}, "memory"))
	hm.RegisterChecker("calendar", NewCustomHealthChecker(func(ctx context.Context) HealthCheck {
		return HealthCheck{Status: HealthStatusDegraded, Message: "no slots configured"}
	}))

	report := hm.CheckHealth(context.Background())
	assert.Equal(t, HealthStatusDegraded, report.Status)
	require.Len(t, report.Checks, 2)
	assert.Equal(t, "calendar", report.Checks[0].Name)
	assert.Equal(t, "store", report.Checks[1].Name)

	rec := httptest.NewRecorder()
	hm.HTTPHandler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, rec.Code)

	hm.RegisterChecker("store", NewStoreHealthChecker(fakePinger{err: errors.New("connection refused")}, "postgres"))
	rec = httptest.NewRecorder()
	hm.HTTPHandler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)

	var body HealthReport
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, HealthStatusUnhealthy, body.Status)
	assert.Equal(t, 1, body.Summary["unhealthy"])
}
