// Package stats persists the gallery totals computed by the statistics job.
package stats

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/rrudduck/NuGetGallery/internal/db"
	"github.com/rrudduck/NuGetGallery/internal/domain"
	"github.com/rrudduck/NuGetGallery/internal/domain/gallery"
)

const totalsKey = domain.KeyPrefix + "stats:totals"

// store is the consumer interface for statistics (ISP).
type store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
}

// Store reads and writes the totals snapshot.
type Store struct {
	store store
}

// New creates a statistics store.
func New(s store) *Store {
	return &Store{store: s}
}

// SaveTotals replaces the stored snapshot.
func (s *Store) SaveTotals(ctx context.Context, t gallery.Totals) error {
	data, err := json.Marshal(t)
	if err != nil {
		return fmt.Errorf("marshal totals: %w", err)
	}
	if err := s.store.Set(ctx, totalsKey, data); err != nil {
		return fmt.Errorf("stats SET %s: %w", totalsKey, err)
	}
	return nil
}

// Totals returns the stored snapshot. Returns domain.ErrNotFound before the
// first job run.
func (s *Store) Totals(ctx context.Context) (gallery.Totals, error) {
	data, err := s.store.Get(ctx, totalsKey)
	if err != nil {
		if errors.Is(err, db.ErrKeyNotFound) {
			return gallery.Totals{}, domain.ErrNotFound
		}
		return gallery.Totals{}, fmt.Errorf("stats GET %s: %w", totalsKey, err)
	}

	var t gallery.Totals
	if err := json.Unmarshal(data, &t); err != nil {
		return gallery.Totals{}, fmt.Errorf("unmarshal totals: %w", err)
	}
	return t, nil
}
