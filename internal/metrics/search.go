package metrics

import "github.com/prometheus/client_golang/prometheus"

// Search path labels.
const (
	PathRemote = "remote"
	PathLocal  = "local"
)

// Search Prometheus metrics.
var (
	SearchRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "gallery",
			Name:      "search_requests_total",
			Help:      "Total search requests by resolution path",
		},
		[]string{"path"}, // "remote" / "local"
	)

	SearchRemoteDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "gallery",
			Name:      "search_remote_duration_seconds",
			Help:      "Search service query duration in seconds",
			Buckets:   []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		},
	)

	SearchRemoteErrorsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "gallery",
			Name:      "search_remote_errors_total",
			Help:      "Total search service errors",
		},
		[]string{"reason"}, // "transport" / "status" / "decode" / "document"
	)

	SearchDiagnosticsFetchTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "gallery",
			Name:      "search_diagnostics_fetch_total",
			Help:      "Search service diagnostics fetches",
		},
		[]string{"status"}, // "success" / "error"
	)
)

var searchMetricsRegistered bool

// RegisterSearchMetrics registers Prometheus search metrics. Must be called once from main.
func RegisterSearchMetrics() {
	if searchMetricsRegistered {
		return
	}
	prometheus.MustRegister(SearchRequestsTotal)
	prometheus.MustRegister(SearchRemoteDuration)
	prometheus.MustRegister(SearchRemoteErrorsTotal)
	prometheus.MustRegister(SearchDiagnosticsFetchTotal)
	searchMetricsRegistered = true
}
