// Package statistics aggregates gallery-wide totals from the local catalog.
package statistics

import (
	"context"
	"fmt"
	"iter"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/rrudduck/NuGetGallery/internal/config"
	"github.com/rrudduck/NuGetGallery/internal/domain/gallery"
	"github.com/rrudduck/NuGetGallery/internal/jobs"
	"github.com/rrudduck/NuGetGallery/internal/logger"
)

// JobName identifies the totals refresh in the scheduler.
const JobName = "UpdateStatistics"

// Service computes and stores gallery totals.
type Service struct {
	catalog Catalog
	store   TotalsStore
	now     func() time.Time
}

// New creates a statistics service.
func New(catalog Catalog, store TotalsStore) *Service {
	return &Service{catalog: catalog, store: store, now: time.Now}
}

// Totals returns the last stored snapshot.
func (s *Service) Totals(ctx context.Context) (gallery.Totals, error) {
	return s.store.Totals(ctx)
}

// Update recomputes the totals from the catalog and stores them.
func (s *Service) Update(ctx context.Context) (gallery.Totals, error) {
	packages, err := s.catalog.All(ctx)
	if err != nil {
		return gallery.Totals{}, fmt.Errorf("list catalog: %w", err)
	}

	t := Compute(packages)
	t.LastUpdated = s.now().UTC()
	if err := s.store.SaveTotals(ctx, t); err != nil {
		return gallery.Totals{}, err
	}

	logger.FromContext(ctx).Info("gallery totals updated",
		zap.Int64("downloads", t.Downloads),
		zap.Int("unique_packages", t.UniquePackages),
		zap.Int("total_packages", t.TotalPackages),
	)
	return t, nil
}

// Compute folds packages into totals. A registration's downloads are counted
// once however many versions it has; packages without a registration count
// their own downloads. Registration ids compare case-insensitively.
func Compute(packages iter.Seq[gallery.Package]) gallery.Totals {
	var t gallery.Totals
	seen := make(map[string]struct{})
	for p := range packages {
		t.TotalPackages++
		reg := p.PackageRegistration
		if reg == nil {
			t.Downloads += int64(p.DownloadCount)
			continue
		}
		id := strings.ToLower(reg.ID)
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		t.Downloads += int64(reg.DownloadCount)
	}
	t.UniquePackages = len(seen)
	return t
}

// RegisterBackgroundJobs appends the totals refresh unless a dedicated worker
// process owns it.
func (s *Service) RegisterBackgroundJobs(list []jobs.Job, cfg config.JobsConfig) []jobs.Job {
	if cfg.HasWorker {
		return list
	}
	return append(list, jobs.Job{
		Name:     JobName,
		Interval: time.Duration(cfg.StatisticsIntervalSec) * time.Second,
		Timeout:  time.Duration(cfg.StatisticsTimeoutSec) * time.Second,
		Run: func(ctx context.Context) error {
			_, err := s.Update(ctx)
			return err
		},
	})
}
