package chi

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	healthuc "github.com/rrudduck/NuGetGallery/internal/usecase/health"
)

// HealthResponse is the body of GET /health.
type HealthResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks"`
}

// IndexDiagnosticsResponse describes the search index.
type IndexDiagnosticsResponse struct {
	IndexPath        string     `json:"indexPath"`
	IsLocal          bool       `json:"isLocal"`
	LastWriteTime    *time.Time `json:"lastWriteTime,omitempty"`
	IndexSizeInBytes int64      `json:"indexSizeInBytes"`
	DocumentCount    int        `json:"documentCount"`
}

// GetTotals handles GET /stats/totals.
func (s *Server) GetTotals(w http.ResponseWriter, r *http.Request) {
	totals, err := s.stats.Totals(r.Context())
	if err != nil {
		s.handleDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, totals)
}

// GetIndexDiagnostics handles GET /diagnostics/index.
func (s *Server) GetIndexDiagnostics(w http.ResponseWriter, r *http.Request) {
	if s.index == nil {
		writeError(w, http.StatusNotFound, CodeNotFound, "search service is disabled")
		return
	}

	ctx := r.Context()
	resp := IndexDiagnosticsResponse{
		IndexPath:        s.index.IndexPath(),
		IsLocal:          s.index.IsLocal(),
		IndexSizeInBytes: s.index.IndexSizeInBytes(ctx),
		DocumentCount:    s.index.DocumentCount(ctx),
	}
	if t, ok := s.index.LastWriteTime(ctx); ok {
		resp.LastWriteTime = &t
	}
	writeJSON(w, http.StatusOK, resp)
}

// HealthCheck handles GET /health.
func (s *Server) HealthCheck(w http.ResponseWriter, r *http.Request) {
	report := s.health.Check(r.Context())

	checks := make(map[string]string, len(report.Checks))
	for k, v := range report.Checks {
		checks[k] = string(v)
	}

	httpStatus := http.StatusOK
	if report.Status != healthuc.Healthy {
		httpStatus = http.StatusServiceUnavailable
	}

	writeJSON(w, httpStatus, HealthResponse{
		Status: string(report.Status),
		Checks: checks,
	})
}

// Metrics handles GET /metrics.
func (s *Server) Metrics(w http.ResponseWriter, r *http.Request) {
	promhttp.Handler().ServeHTTP(w, r)
}
