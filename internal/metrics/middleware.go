package metrics

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
)

// Route labels for the OData feed endpoints. Curated feeds share the label of
// the plain feed so the feed name never reaches a label.
const (
	RouteFeedSearch = "odata_search"
	RouteFeedCount  = "odata_count"
	RouteUnmatched  = "unmatched"
)

const (
	feedSearchSuffix = "/Search()"
	feedCountSuffix  = "/Search()/$count"
)

var (
	httpRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "gallery",
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request duration in seconds",
			Buckets:   []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		},
		[]string{"method", "route", "status"},
	)

	httpRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "gallery",
			Name:      "http_requests_total",
			Help:      "Total number of HTTP requests",
		},
		[]string{"method", "route", "status"},
	)

	httpFeedRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "gallery",
			Name:      "http_feed_requests_total",
			Help:      "OData feed requests by feed kind",
		},
		[]string{"route", "curated"},
	)
)

var httpMetricsRegistered bool

// RegisterHTTPMetrics registers the request metrics. Must be called once from main.
func RegisterHTTPMetrics() {
	if httpMetricsRegistered {
		return
	}
	prometheus.MustRegister(httpRequestDuration)
	prometheus.MustRegister(httpRequestsTotal)
	prometheus.MustRegister(httpFeedRequestsTotal)
	httpMetricsRegistered = true
}

// Middleware records HTTP request duration and count per route.
func Middleware() func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			ww := &statusWriter{ResponseWriter: w, status: http.StatusOK}
			next.ServeHTTP(ww, r)

			var pattern string
			if rctx := chi.RouteContext(r.Context()); rctx != nil {
				pattern = rctx.RoutePattern()
			}
			route, curated := routeLabel(pattern)
			status := strconv.Itoa(ww.status)

			httpRequestDuration.WithLabelValues(r.Method, route, status).Observe(time.Since(start).Seconds())
			httpRequestsTotal.WithLabelValues(r.Method, route, status).Inc()
			if route == RouteFeedSearch || route == RouteFeedCount {
				httpFeedRequestsTotal.WithLabelValues(route, strconv.FormatBool(curated)).Inc()
			}
		})
	}
}

// routeLabel maps a chi route pattern onto a bounded label. It reports whether
// the pattern is a curated feed.
func routeLabel(pattern string) (string, bool) {
	if pattern == "" {
		return RouteUnmatched, false
	}
	if len(pattern) > 1 {
		pattern = strings.TrimSuffix(pattern, "/")
	}

	curated := strings.Contains(pattern, "/curated-feeds/")
	switch {
	case strings.HasSuffix(pattern, feedCountSuffix):
		return RouteFeedCount, curated
	case strings.HasSuffix(pattern, feedSearchSuffix):
		return RouteFeedSearch, curated
	}
	return pattern, false
}

// statusWriter captures the first status written.
type statusWriter struct {
	http.ResponseWriter
	status      int
	wroteHeader bool
}

func (w *statusWriter) WriteHeader(status int) {
	if !w.wroteHeader {
		w.status = status
		w.wroteHeader = true
	}
	w.ResponseWriter.WriteHeader(status)
}

func (w *statusWriter) Write(b []byte) (int, error) {
	w.wroteHeader = true
	return w.ResponseWriter.Write(b) //nolint:wrapcheck // delegating to underlying ResponseWriter
}
