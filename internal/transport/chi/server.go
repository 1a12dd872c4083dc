// Package chi serves the gallery feed, list and status endpoints over a chi router.
package chi

import (
	"context"
	"encoding/json"
	"errors"
	"iter"
	"net/http"
	"time"

	gochi "github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/rrudduck/NuGetGallery/internal/domain"
	"github.com/rrudduck/NuGetGallery/internal/domain/gallery"
	"github.com/rrudduck/NuGetGallery/internal/domain/search/filter"
	healthuc "github.com/rrudduck/NuGetGallery/internal/usecase/health"
	searchuc "github.com/rrudduck/NuGetGallery/internal/usecase/search"
	statisticsuc "github.com/rrudduck/NuGetGallery/internal/usecase/statistics"
)

// Catalog is the local package store behind the fallback search path.
type Catalog interface {
	All(ctx context.Context) (iter.Seq[gallery.Package], error)
	Get(ctx context.Context, key int) (gallery.Package, error)
	Put(ctx context.Context, pkg gallery.Package) error
	Delete(ctx context.Context, key int) error
}

// SearchIndex is the remote index as seen by the status and catalog endpoints.
type SearchIndex interface {
	UpdatePackage(ctx context.Context, pkg gallery.Package) error
	IndexPath() string
	IsLocal() bool
	LastWriteTime(ctx context.Context) (time.Time, bool)
	IndexSizeInBytes(ctx context.Context) int64
	DocumentCount(ctx context.Context) int
}

// Options holds feed paging limits for the local search path.
type Options struct {
	DefaultTop int
	MaxTop     int
	APIKeys    []string
}

// errorHandler tries to handle a domain error. Returns true if handled.
type errorHandler func(w http.ResponseWriter, err error, msg string) bool

// Server holds the HTTP handlers.
type Server struct {
	search        *searchuc.Service
	stats         *statisticsuc.Service
	health        *healthuc.Service
	catalog       Catalog
	index         SearchIndex
	opts          Options
	logger        *zap.Logger
	errorHandlers []errorHandler
}

// NewServer creates an HTTP API server. index is nil when the search service
// is disabled.
func NewServer(
	search *searchuc.Service,
	stats *statisticsuc.Service,
	health *healthuc.Service,
	catalog Catalog,
	index SearchIndex,
	opts Options,
	logger *zap.Logger,
) *Server {
	if opts.MaxTop <= 0 {
		opts.MaxTop = filter.MaxPageSize
	}
	if opts.DefaultTop <= 0 || opts.DefaultTop > opts.MaxTop {
		opts.DefaultTop = opts.MaxTop
	}
	s := &Server{
		search:  search,
		stats:   stats,
		health:  health,
		catalog: catalog,
		index:   index,
		opts:    opts,
		logger:  logger,
	}
	s.errorHandlers = []errorHandler{
		upstreamStatusHandler,
		sentinelHandler(domain.ErrInvalidDocument, http.StatusBadGateway, CodeInvalidIndexDocument),
		sentinelHandler(domain.ErrSearchUnavailable, http.StatusBadGateway, CodeSearchUnavailable),
		sentinelHandler(domain.ErrNotFound, http.StatusNotFound, CodeNotFound),
	}
	return s
}

// Routes registers every endpoint on r.
func (s *Server) Routes(r gochi.Router) {
	r.Get("/api/v2/Search()", s.SearchFeed)
	r.Get("/api/v2/Search()/$count", s.CountFeed)
	r.Get("/api/v2/curated-feeds/{feed}/Search()", s.SearchFeed)
	r.Get("/api/v2/curated-feeds/{feed}/Search()/$count", s.CountFeed)

	r.Get("/packages", s.ListPackages)
	r.Route("/catalog/packages/{key}", func(r gochi.Router) {
		r.Get("/", s.GetPackage)
		r.With(APIKeyMiddleware(s.opts.APIKeys)).Put("/", s.PutPackage)
		r.With(APIKeyMiddleware(s.opts.APIKeys)).Delete("/", s.DeletePackage)
	})

	r.Get("/stats/totals", s.GetTotals)
	r.Get("/diagnostics/index", s.GetIndexDiagnostics)
	r.Get("/health", s.HealthCheck)
	r.Get("/metrics", s.Metrics)
}

// ErrorCode is a machine-readable error kind.
type ErrorCode string

// Error codes.
const (
	CodeBadRequest           ErrorCode = "bad_request"
	CodeUnauthorized         ErrorCode = "unauthorized"
	CodeNotFound             ErrorCode = "not_found"
	CodeSearchUnavailable    ErrorCode = "search_unavailable"
	CodeInvalidIndexDocument ErrorCode = "invalid_index_document"
	CodeInternalError        ErrorCode = "internal_error"
)

// ErrorResponse is the JSON error body.
type ErrorResponse struct {
	Code    ErrorCode `json:"code"`
	Message string    `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code ErrorCode, message string) {
	writeJSON(w, status, ErrorResponse{
		Code:    code,
		Message: message,
	})
}

// safeDomainMessage returns a sentinel error message for the client without exposing internals.
func safeDomainMessage(err error) string {
	sentinels := []error{
		domain.ErrNotFound,
		domain.ErrInvalidDocument,
		domain.ErrSearchUnavailable,
	}
	for _, s := range sentinels {
		if errors.Is(err, s) {
			return s.Error()
		}
	}
	return "internal error"
}

// sentinelHandler returns an errorHandler that matches a single sentinel error.
func sentinelHandler(sentinel error, status int, code ErrorCode) errorHandler {
	return func(w http.ResponseWriter, err error, msg string) bool {
		if !errors.Is(err, sentinel) {
			return false
		}
		writeError(w, status, code, msg)
		return true
	}
}

// upstreamStatusHandler reports the status the search service answered with.
func upstreamStatusHandler(w http.ResponseWriter, err error, msg string) bool {
	var se *domain.StatusError
	if !errors.As(err, &se) {
		return false
	}
	writeJSON(w, http.StatusBadGateway, map[string]any{
		"code":            CodeSearchUnavailable,
		"message":         msg,
		"upstream_status": se.StatusCode,
	})
	return true
}

func (s *Server) handleDomainError(w http.ResponseWriter, err error) {
	s.logger.Warn("domain error", zap.Error(err))
	msg := safeDomainMessage(err)
	for _, h := range s.errorHandlers {
		if h(w, err, msg) {
			return
		}
	}
	s.logger.Error("internal error", zap.Error(err))
	writeError(w, http.StatusInternalServerError, CodeInternalError, "internal error")
}

// lazyCatalog defers loading the catalog until the local path iterates it.
// A load error stops the sequence and is kept for the handler to report.
type lazyCatalog struct {
	catalog Catalog
	err     error
}

func (l *lazyCatalog) packages(ctx context.Context) iter.Seq[gallery.Package] {
	return func(yield func(gallery.Package) bool) {
		seq, err := l.catalog.All(ctx)
		if err != nil {
			l.err = err
			return
		}
		for p := range seq {
			if !yield(p) {
				return
			}
		}
	}
}
