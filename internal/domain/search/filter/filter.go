package filter

import (
	"fmt"

	"github.com/rrudduck/NuGetGallery/internal/domain/gallery"
	"github.com/rrudduck/NuGetGallery/internal/domain/search/sortorder"
)

// Paging limits.
const (
	// MaxPageSize caps take for index-eligible feed queries.
	MaxPageSize = 40
	// DefaultPageSize is the package list page size of the gallery UI.
	DefaultPageSize = 20
)

// SearchFilter is a normalized search request. It is never mutated after
// construction; the With* methods return modified copies.
type SearchFilter struct {
	searchTerm        string
	skip              int
	take              int
	sortOrder         sortorder.SortOrder
	includePrerelease bool
	countOnly         bool
	curatedFeed       *gallery.CuratedFeed
}

// Option sets an optional SearchFilter field at construction.
type Option func(*SearchFilter)

// WithTerm sets the search term.
func WithTerm(term string) Option {
	return func(f *SearchFilter) { f.searchTerm = term }
}

// WithPrerelease sets prerelease inclusion.
func WithPrerelease(include bool) Option {
	return func(f *SearchFilter) { f.includePrerelease = include }
}

// WithCountOnly marks the request as count-only.
func WithCountOnly(countOnly bool) Option {
	return func(f *SearchFilter) { f.countOnly = countOnly }
}

// WithFeed narrows the request to a curated feed.
func WithFeed(feed *gallery.CuratedFeed) Option {
	return func(f *SearchFilter) { f.curatedFeed = feed }
}

// New validates and creates a SearchFilter.
// An empty sort order defaults to relevance.
func New(skip, take int, order sortorder.SortOrder, opts ...Option) (SearchFilter, error) {
	if skip < 0 {
		return SearchFilter{}, fmt.Errorf("skip must be >= 0, got %d", skip)
	}
	if take <= 0 {
		return SearchFilter{}, fmt.Errorf("take must be > 0, got %d", take)
	}
	if order == "" {
		order = sortorder.Relevance
	}
	if !order.IsValid() {
		return SearchFilter{}, fmt.Errorf("invalid sort order: %q", order)
	}

	f := SearchFilter{skip: skip, take: take, sortOrder: order}
	for _, o := range opts {
		o(&f)
	}
	return f, nil
}

// MustNew calls New and panics on error.
func MustNew(skip, take int, order sortorder.SortOrder, opts ...Option) SearchFilter {
	f, err := New(skip, take, order, opts...)
	if err != nil {
		panic(err)
	}
	return f
}

// SearchTerm returns the search term.
func (f SearchFilter) SearchTerm() string { return f.searchTerm }

// Skip returns the number of results to skip.
func (f SearchFilter) Skip() int { return f.skip }

// Take returns the page size.
func (f SearchFilter) Take() int { return f.take }

// SortOrder returns the requested ordering.
func (f SearchFilter) SortOrder() sortorder.SortOrder { return f.sortOrder }

// IncludePrerelease reports whether prerelease versions are included.
func (f SearchFilter) IncludePrerelease() bool { return f.includePrerelease }

// CountOnly reports whether only the total is requested.
func (f SearchFilter) CountOnly() bool { return f.countOnly }

// CuratedFeed returns the curated feed, or nil.
func (f SearchFilter) CuratedFeed() *gallery.CuratedFeed { return f.curatedFeed }

// CuratedFeedName returns the curated feed name, or "" when unscoped.
func (f SearchFilter) CuratedFeedName() string {
	if f.curatedFeed == nil {
		return ""
	}
	return f.curatedFeed.Name
}

// WithSearchTerm returns a copy with the search term replaced.
func (f SearchFilter) WithSearchTerm(term string) SearchFilter {
	f.searchTerm = term
	return f
}

// WithIncludePrerelease returns a copy with prerelease inclusion replaced.
func (f SearchFilter) WithIncludePrerelease(include bool) SearchFilter {
	f.includePrerelease = include
	return f
}

// WithCuratedFeed returns a copy scoped to the given curated feed.
func (f SearchFilter) WithCuratedFeed(feed *gallery.CuratedFeed) SearchFilter {
	f.curatedFeed = feed
	return f
}
