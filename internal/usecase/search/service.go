// Package search routes package searches to the remote index when the request
// shape allows it and to a local predicate otherwise.
package search

import (
	"cmp"
	"context"
	"fmt"
	"iter"
	"slices"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/rrudduck/NuGetGallery/internal/domain/gallery"
	"github.com/rrudduck/NuGetGallery/internal/domain/search/filter"
	"github.com/rrudduck/NuGetGallery/internal/domain/search/odata"
	"github.com/rrudduck/NuGetGallery/internal/domain/search/result"
	"github.com/rrudduck/NuGetGallery/internal/domain/search/sortorder"
	"github.com/rrudduck/NuGetGallery/internal/logger"
	"github.com/rrudduck/NuGetGallery/internal/metrics"
)

// Gallery list sort keys.
const (
	SortKeyTitle = "title"
	SortKeyDate  = "date"
)

// Query is an inbound feed search.
type Query struct {
	// RawURL is the request path and undecoded query string.
	RawURL            string
	SearchTerm        string
	TargetFramework   string
	IncludePrerelease bool
	CuratedFeed       *gallery.CuratedFeed
}

// Service holds no mutable state; it is safe for concurrent use.
type Service struct {
	remote SearchService
	local  LocalSearch
}

// New creates a search service. remote may be nil, in which case every
// request takes the local path.
func New(remote SearchService, local LocalSearch) *Service {
	return &Service{remote: remote, local: local}
}

// ResolveSortOrder builds the filter for a gallery list page. Pages are
// 1-based; anything below 1 is treated as the first page.
func ResolveSortOrder(sortKey string, page int) filter.SearchFilter {
	if page < 1 {
		page = 1
	}

	order := sortorder.Relevance
	switch sortKey {
	case SortKeyTitle:
		order = sortorder.TitleAscending
	case SortKeyDate:
		order = sortorder.Published
	}

	return filter.MustNew((page-1)*filter.DefaultPageSize, filter.DefaultPageSize, order,
		filter.WithPrerelease(true))
}

// Search answers a feed query. Index-eligible requests go to the remote
// service and any error it returns is passed through; there is no fallback
// to the local path. Other requests filter packages in process and leave the
// total for the caller to count.
func (s *Service) Search(
	ctx context.Context, q Query, packages iter.Seq[gallery.Package],
) (result.Results, error) {
	log := logger.FromContext(ctx)
	if q.TargetFramework != "" {
		log.Debug("target framework not applied to search", zap.String("target_framework", q.TargetFramework))
	}

	if f, ok := odata.ReadSearchFilter(q.RawURL); ok && s.remote != nil {
		f = f.WithSearchTerm(q.SearchTerm).
			WithIncludePrerelease(q.IncludePrerelease).
			WithCuratedFeed(q.CuratedFeed)

		metrics.SearchRequestsTotal.WithLabelValues(metrics.PathRemote).Inc()
		log.Debug("search routed to index",
			zap.Int("skip", f.Skip()),
			zap.Int("take", f.Take()),
			zap.String("sort", string(f.SortOrder())),
			zap.Bool("count_only", f.CountOnly()),
		)

		res, err := s.remote.Search(ctx, f)
		if err != nil {
			return result.Results{}, fmt.Errorf("search index: %w", err)
		}
		return res, nil
	}

	metrics.SearchRequestsTotal.WithLabelValues(metrics.PathLocal).Inc()
	log.Debug("search routed to local catalog")

	if !q.IncludePrerelease {
		packages = stableOnly(packages)
	}
	return result.Unbounded(s.local(packages, q.SearchTerm)), nil
}

// List answers a gallery list page. With a remote service the filter is sent
// as-is; otherwise the local path sorts and pages in process.
func (s *Service) List(
	ctx context.Context, f filter.SearchFilter, packages iter.Seq[gallery.Package],
) (result.Results, error) {
	if s.remote != nil {
		metrics.SearchRequestsTotal.WithLabelValues(metrics.PathRemote).Inc()
		res, err := s.remote.Search(ctx, f)
		if err != nil {
			return result.Results{}, fmt.Errorf("search index: %w", err)
		}
		return res, nil
	}

	metrics.SearchRequestsTotal.WithLabelValues(metrics.PathLocal).Inc()
	if !f.IncludePrerelease() {
		packages = stableOnly(packages)
	}
	matched := slices.Collect(s.local(packages, f.SearchTerm()))
	sortPackages(matched, f.SortOrder())

	if f.CountOnly() {
		return result.CountOnly(len(matched)), nil
	}
	page := slices.Collect(result.Page(slices.Values(matched), f.Skip(), f.Take()))
	return result.New(len(matched), page), nil
}

func stableOnly(packages iter.Seq[gallery.Package]) iter.Seq[gallery.Package] {
	return func(yield func(gallery.Package) bool) {
		for p := range packages {
			if !p.IsPrerelease && !yield(p) {
				return
			}
		}
	}
}

// sortPackages orders local results. Relevance falls back to download count.
func sortPackages(pkgs []gallery.Package, order sortorder.SortOrder) {
	title := func(p gallery.Package) string {
		if p.Title != "" {
			return strings.ToLower(p.Title)
		}
		return strings.ToLower(p.ID())
	}

	var less func(a, b gallery.Package) int
	switch order {
	case sortorder.TitleAscending:
		less = func(a, b gallery.Package) int { return cmp.Compare(title(a), title(b)) }
	case sortorder.TitleDescending:
		less = func(a, b gallery.Package) int { return cmp.Compare(title(b), title(a)) }
	case sortorder.Published:
		less = func(a, b gallery.Package) int { return b.Published.Compare(a.Published) }
	case sortorder.LastEdited:
		less = func(a, b gallery.Package) int { return lastEdited(b).Compare(lastEdited(a)) }
	default:
		less = func(a, b gallery.Package) int { return cmp.Compare(b.DownloadCount, a.DownloadCount) }
	}
	slices.SortStableFunc(pkgs, less)
}

func lastEdited(p gallery.Package) time.Time {
	if p.LastEdited != nil {
		return *p.LastEdited
	}
	return p.LastUpdated
}
