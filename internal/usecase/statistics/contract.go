package statistics

import (
	"context"
	"iter"

	"github.com/rrudduck/NuGetGallery/internal/domain/gallery"
)

// Catalog lists every stored package.
type Catalog interface {
	All(ctx context.Context) (iter.Seq[gallery.Package], error)
}

// TotalsStore persists the computed totals.
type TotalsStore interface {
	SaveTotals(ctx context.Context, t gallery.Totals) error
	Totals(ctx context.Context) (gallery.Totals, error)
}
