package health

import (
	"context"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/rrudduck/NuGetGallery/internal/logger"
)

// Status represents the aggregated health status.
type Status string

const (
	// Healthy indicates all components are operational.
	Healthy Status = "ok"
	// Degraded indicates the search service is down; feeds still answer from the catalog.
	Degraded Status = "degraded"
	// Unhealthy indicates the catalog store is down.
	Unhealthy Status = "error"
)

// CheckResult represents an individual component health check outcome.
type CheckResult string

const (
	// CheckOK indicates a passing health check.
	CheckOK CheckResult = "ok"
	// CheckError indicates a failing health check.
	CheckError CheckResult = "error"
)

// Component names reported in Report.Checks.
const (
	ComponentDatabase      = "database"
	ComponentSearchService = "search_service"
)

// Report aggregates health check results.
type Report struct {
	Status Status
	Checks map[string]CheckResult
}

// Service coordinates health checks.
type Service struct {
	db     DBPinger
	search SearchChecker
}

// New creates a Service. search is nil when the search service is disabled.
func New(db DBPinger, search SearchChecker) *Service {
	return &Service{db: db, search: search}
}

// Check runs the component checks concurrently.
func (s *Service) Check(ctx context.Context) Report {
	var (
		mu     sync.Mutex
		checks = make(map[string]CheckResult, 2)
		g      errgroup.Group
	)
	record := func(name string, err error) {
		res := CheckOK
		if err != nil {
			res = CheckError
			logger.FromContext(ctx).Warn("health check failed",
				zap.String("component", name), zap.Error(err))
		}
		mu.Lock()
		checks[name] = res
		mu.Unlock()
	}

	g.Go(func() error {
		record(ComponentDatabase, s.db.Ping(ctx))
		return nil
	})
	if s.search != nil {
		g.Go(func() error {
			record(ComponentSearchService, s.search.HealthCheck(ctx))
			return nil
		})
	}
	_ = g.Wait()

	status := Healthy
	switch {
	case checks[ComponentDatabase] == CheckError:
		status = Unhealthy
	case checks[ComponentSearchService] == CheckError:
		status = Degraded
	}
	return Report{Status: status, Checks: checks}
}
