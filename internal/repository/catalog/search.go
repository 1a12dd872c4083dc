package catalog

import (
	"iter"
	"strings"

	"github.com/rrudduck/NuGetGallery/internal/domain/gallery"
)

// Search filters seq down to packages matching any whitespace-separated word
// of term. A word matches when it is a case-insensitive substring of the id,
// title, tags, description or authors. A blank term returns seq unchanged.
func Search(seq iter.Seq[gallery.Package], term string) iter.Seq[gallery.Package] {
	words := strings.Fields(strings.ToLower(term))
	if len(words) == 0 {
		return seq
	}

	return func(yield func(gallery.Package) bool) {
		for p := range seq {
			if matches(&p, words) && !yield(p) {
				return
			}
		}
	}
}

func matches(p *gallery.Package, words []string) bool {
	fields := [...]string{p.ID(), p.Title, p.Tags, p.Description, p.Authors}
	for _, w := range words {
		for _, f := range fields {
			if strings.Contains(strings.ToLower(f), w) {
				return true
			}
		}
	}
	return false
}
