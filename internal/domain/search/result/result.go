package result

import (
	"iter"
	"slices"

	"github.com/rrudduck/NuGetGallery/internal/domain/gallery"
)

// Results is the outcome of a single search request. It is built once and
// its data sequence is meant to be consumed once.
type Results struct {
	totalHits int
	known     bool
	data      iter.Seq[gallery.Package]
}

// CountOnly creates results carrying only a total.
func CountOnly(totalHits int) Results {
	return Results{totalHits: totalHits, known: true}
}

// New creates results with a known total and the packages in server order.
func New(totalHits int, packages []gallery.Package) Results {
	return Results{totalHits: totalHits, known: true, data: slices.Values(packages)}
}

// Unbounded creates results whose total is left to the caller to count.
func Unbounded(data iter.Seq[gallery.Package]) Results {
	return Results{data: data}
}

// TotalHits returns the total match count and whether it is known.
func (r Results) TotalHits() (int, bool) { return r.totalHits, r.known }

// Data returns the package sequence. Never nil.
func (r Results) Data() iter.Seq[gallery.Package] {
	if r.data == nil {
		return func(func(gallery.Package) bool) {}
	}
	return r.data
}

// Count returns the total, consuming the data when the total is unknown.
func (r Results) Count() int {
	if r.known {
		return r.totalHits
	}
	n := 0
	for range r.Data() {
		n++
	}
	return n
}

// Page returns a lazy window over seq.
func Page(seq iter.Seq[gallery.Package], skip, take int) iter.Seq[gallery.Package] {
	return func(yield func(gallery.Package) bool) {
		if take <= 0 {
			return
		}
		i, taken := 0, 0
		for p := range seq {
			if i < skip {
				i++
				continue
			}
			if !yield(p) {
				return
			}
			taken++
			if taken >= take {
				return
			}
		}
	}
}
