// Package catalog stores the local package catalog that backs searches the
// index cannot answer.
package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"iter"
	"slices"
	"strconv"

	"github.com/rrudduck/NuGetGallery/internal/db"
	"github.com/rrudduck/NuGetGallery/internal/domain"
	"github.com/rrudduck/NuGetGallery/internal/domain/gallery"
)

const packagePrefix = domain.KeyPrefix + "pkg:"

// store is the consumer interface for the catalog (ISP).
type store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	MGet(ctx context.Context, keys []string) ([][]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	Del(ctx context.Context, key string) error
	Scan(ctx context.Context, pattern string) ([]string, error)
}

// Repo reads and writes packages as JSON values keyed by package key.
type Repo struct {
	store store
}

// New creates a catalog repository.
func New(s store) *Repo {
	return &Repo{store: s}
}

// Put stores a package, replacing any previous version with the same key.
func (r *Repo) Put(ctx context.Context, pkg gallery.Package) error {
	if pkg.Key <= 0 {
		return fmt.Errorf("package key must be > 0, got %d", pkg.Key)
	}
	if pkg.PackageRegistration == nil {
		pkg.PackageRegistrationKey = 0
	}
	pkg.IsPrerelease = gallery.IsPrereleaseVersion(pkg.Version)

	data, err := json.Marshal(pkg)
	if err != nil {
		return fmt.Errorf("marshal package %d: %w", pkg.Key, err)
	}
	if err := r.store.Set(ctx, packageKey(pkg.Key), data); err != nil {
		return fmt.Errorf("set package %d: %w", pkg.Key, err)
	}
	return nil
}

// Get returns a single package.
func (r *Repo) Get(ctx context.Context, key int) (gallery.Package, error) {
	data, err := r.store.Get(ctx, packageKey(key))
	if err != nil {
		if errors.Is(err, db.ErrKeyNotFound) {
			return gallery.Package{}, domain.ErrNotFound
		}
		return gallery.Package{}, fmt.Errorf("get package %d: %w", key, err)
	}

	var pkg gallery.Package
	if err := json.Unmarshal(data, &pkg); err != nil {
		return gallery.Package{}, fmt.Errorf("unmarshal package %d: %w", key, err)
	}
	return pkg, nil
}

// Delete removes a package.
func (r *Repo) Delete(ctx context.Context, key int) error {
	if err := r.store.Del(ctx, packageKey(key)); err != nil {
		return fmt.Errorf("delete package %d: %w", key, err)
	}
	return nil
}

// All loads the catalog ordered by package key. Values that vanished between
// SCAN and MGET are skipped.
func (r *Repo) All(ctx context.Context) (iter.Seq[gallery.Package], error) {
	keys, err := r.store.Scan(ctx, packagePrefix+"*")
	if err != nil {
		return nil, fmt.Errorf("scan packages: %w", err)
	}
	if len(keys) == 0 {
		return slices.Values([]gallery.Package(nil)), nil
	}
	// SCAN may return a key more than once.
	slices.Sort(keys)
	keys = slices.Compact(keys)

	values, err := r.store.MGet(ctx, keys)
	if err != nil {
		return nil, fmt.Errorf("mget packages: %w", err)
	}

	pkgs := make([]gallery.Package, 0, len(values))
	for i, data := range values {
		if data == nil {
			continue
		}
		var pkg gallery.Package
		if err := json.Unmarshal(data, &pkg); err != nil {
			return nil, fmt.Errorf("unmarshal %s: %w", keys[i], err)
		}
		pkgs = append(pkgs, pkg)
	}

	slices.SortFunc(pkgs, func(a, b gallery.Package) int { return a.Key - b.Key })
	return slices.Values(pkgs), nil
}

func packageKey(key int) string {
	return packagePrefix + strconv.Itoa(key)
}
