package metrics

import "github.com/prometheus/client_golang/prometheus"

// JobRunsTotal counts background job runs by outcome.
var JobRunsTotal = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: "gallery",
		Name:      "job_runs_total",
		Help:      "Total background job runs",
	},
	[]string{"job", "status"}, // "success" / "error"
)

var jobMetricsRegistered bool

// RegisterJobMetrics registers Prometheus job metrics. Must be called once from main.
func RegisterJobMetrics() {
	if jobMetricsRegistered {
		return
	}
	prometheus.MustRegister(JobRunsTotal)
	jobMetricsRegistered = true
}
