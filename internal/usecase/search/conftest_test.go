package search

import (
	"context"
	"iter"
	"slices"
	"strings"
	"time"

	"github.com/rrudduck/NuGetGallery/internal/domain/gallery"
	"github.com/rrudduck/NuGetGallery/internal/domain/search/filter"
	"github.com/rrudduck/NuGetGallery/internal/domain/search/result"
)

// --- Mocks ---

type mockRemote struct {
	res    result.Results
	err    error
	calls  int
	filter filter.SearchFilter
}

func (m *mockRemote) Search(_ context.Context, f filter.SearchFilter) (result.Results, error) {
	m.calls++
	m.filter = f
	return m.res, m.err
}

// recordingLocal is a LocalSearch that keeps items whose title contains term.
type recordingLocal struct {
	calls int
	term  string
}

func (l *recordingLocal) search(seq iter.Seq[gallery.Package], term string) iter.Seq[gallery.Package] {
	l.calls++
	l.term = term
	return func(yield func(gallery.Package) bool) {
		for p := range seq {
			if term != "" && !containsFold(p.Title, term) {
				continue
			}
			if !yield(p) {
				return
			}
		}
	}
}

func containsFold(s, sub string) bool {
	return strings.Contains(strings.ToLower(s), strings.ToLower(sub))
}

func day(n int) time.Time {
	return time.Date(2024, 1, n, 0, 0, 0, 0, time.UTC)
}

func catalog() iter.Seq[gallery.Package] {
	return slices.Values([]gallery.Package{
		{Key: 1, Title: "Json.NET", Version: "13.0.3", DownloadCount: 900, Published: day(3)},
		{Key: 2, Title: "JsonPatch", Version: "2.0.0-rc1", IsPrerelease: true, DownloadCount: 50, Published: day(5)},
		{Key: 3, Title: "Dapper", Version: "2.1.0", DownloadCount: 400, Published: day(1)},
		{Key: 4, Title: "AutoMapper", Version: "13.0.0", DownloadCount: 700, Published: day(4)},
	})
}

func keysOf(r result.Results) []int {
	var out []int
	for p := range r.Data() {
		out = append(out, p.Key)
	}
	return out
}
