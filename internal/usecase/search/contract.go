package search

import (
	"context"
	"iter"

	"github.com/rrudduck/NuGetGallery/internal/domain/gallery"
	"github.com/rrudduck/NuGetGallery/internal/domain/search/filter"
	"github.com/rrudduck/NuGetGallery/internal/domain/search/result"
)

// SearchService answers index-eligible searches.
type SearchService interface {
	Search(ctx context.Context, f filter.SearchFilter) (result.Results, error)
}

// LocalSearch applies a free-text predicate to an in-process package sequence.
type LocalSearch func(packages iter.Seq[gallery.Package], term string) iter.Seq[gallery.Package]
