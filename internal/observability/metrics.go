// Package observability defines the Prometheus metrics for the HTTP
// surface. Metrics are registered once at init and exposed on /metrics by
// the server.
package observability

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	requestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "exercise_tracker",
		Subsystem: "http",
		Name:      "requests_total",
		Help:      "HTTP requests served, by method, route pattern and status code.",
	}, []string{"method", "route", "status"})

	requestDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "exercise_tracker",
		Subsystem: "http",
		Name:      "request_duration_seconds",
		Help:      "HTTP request latency, by method and route pattern.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"method", "route"})
)

func init() {
	prometheus.MustRegister(requestsTotal, requestDuration)
}

// RecordRequest records one served request. route should be the registered
// pattern, not the raw path, to keep label cardinality bounded.
func RecordRequest(method, route string, status int, elapsed time.Duration) {
	requestsTotal.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	requestDuration.WithLabelValues(method, route).Observe(elapsed.Seconds())
}

// statusRecorder captures the status code for the metrics middleware.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (rec *statusRecorder) WriteHeader(code int) {
	rec.status = code
	rec.ResponseWriter.WriteHeader(code)
}

// Middleware instruments every request with the counters above. It sits
// inside the router so chi's route context is populated and the matched
// pattern is available via the routePattern func.
func Middleware(routePattern func(r *http.Request) string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}

			next.ServeHTTP(rec, r)

			route := routePattern(r)
			if route == "" {
				route = "unmatched"
			}
			RecordRequest(r.Method, route, rec.status, time.Since(start))
		})
	}
}
