package monitoring

import (
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/physiocare/clinic/pkg/logger"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"
)

// MonitoringMiddleware combines metrics, tracing, and logging
type MonitoringMiddleware struct {
	metrics *MetricsCollector
	tracing *TracingManager
	logger  *logger.Logger
}

// NewMonitoringMiddleware creates a new monitoring middleware
func NewMonitoringMiddleware(metrics *MetricsCollector, tracing *TracingManager, log *logger.Logger) *MonitoringMiddleware {
	return &MonitoringMiddleware{
		metrics: metrics,
		tracing: tracing,
		logger:  log,
	}
}

// HTTPMiddleware assigns a request ID, opens a server span, records request
// metrics and writes one access log line per request
func (mm *MonitoringMiddleware) HTTPMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		requestID := r.Header.Get("X-Request-ID")
		if requestID == "" {
			requestID = uuid.New().String()
		}
		ctx := logger.ContextWithRequestID(r.Context(), requestID)

		route := routeTemplate(r)

		wrapper := &monitoringResponseWriter{
			ResponseWriter: w,
			statusCode:     http.StatusOK,
		}
		wrapper.Header().Set("X-Request-ID", requestID)

		if mm.tracing != nil {
			ctx = mm.tracing.ExtractTraceContext(ctx, propagation.HeaderCarrier(r.Header))
			spanCtx, s := mm.tracing.StartHTTPSpan(ctx, r.Method, route)
			ctx = spanCtx
			defer s.End()

			s.SetAttributes(
				attribute.String("user_agent.original", r.UserAgent()),
				attribute.String("client.address", r.RemoteAddr),
				attribute.String("request.id", requestID),
			)
			mm.tracing.InjectTraceContext(ctx, propagation.HeaderCarrier(wrapper.Header()))

			defer func() {
				s.SetAttributes(
					attribute.Int("http.response.status_code", wrapper.statusCode),
					attribute.Int64("http.response.body.size", wrapper.bytesWritten),
				)
				if wrapper.statusCode >= 500 {
					s.SetStatus(codes.Error, http.StatusText(wrapper.statusCode))
				}
			}()
		}

		next.ServeHTTP(wrapper, r.WithContext(ctx))

		duration := time.Since(start)

		if mm.metrics != nil {
			mm.metrics.RecordHTTPRequest(r.Method, route, strconv.Itoa(wrapper.statusCode), duration)
		}

		if mm.logger != nil {
			mm.logger.HTTPRequest(
				ctx,
				r.Method,
				r.URL.Path,
				r.UserAgent(),
				r.RemoteAddr,
				wrapper.statusCode,
				duration.Milliseconds(),
			)
		}
	})
}

// routeTemplate labels requests by their mux route so metrics do not
// grow one series per appointment ID
func routeTemplate(r *http.Request) string {
	if route := mux.CurrentRoute(r); route != nil {
		if tmpl, err := route.GetPathTemplate(); err == nil {
			return tmpl
		}
	}
	return r.URL.Path
}

// monitoringResponseWriter wraps http.ResponseWriter to capture metrics
type monitoringResponseWriter struct {
	http.ResponseWriter
	statusCode   int
	bytesWritten int64
}

func (mrw *monitoringResponseWriter) WriteHeader(code int) {
	mrw.statusCode = code
	mrw.ResponseWriter.WriteHeader(code)
}

func (mrw *monitoringResponseWriter) Write(b []byte) (int, error) {
	n, err := mrw.ResponseWriter.Write(b)
	mrw.bytesWritten += int64(n)
	return n, err
}
