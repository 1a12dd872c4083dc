package catalog

import (
	"context"
	"strings"
	"testing"

	"github.com/rrudduck/NuGetGallery/internal/db"
	"github.com/rrudduck/NuGetGallery/internal/domain/gallery"
)

// mockStore is an in-memory store for tests.
type mockStore struct {
	data    map[string][]byte
	scanDup bool // report every key twice, as SCAN may during a rehash
	scanErr error
	mgetErr error
	setErr  error
}

func (m *mockStore) Get(_ context.Context, key string) ([]byte, error) {
	v, ok := m.data[key]
	if !ok {
		return nil, db.ErrKeyNotFound
	}
	return v, nil
}

func (m *mockStore) MGet(_ context.Context, keys []string) ([][]byte, error) {
	if m.mgetErr != nil {
		return nil, m.mgetErr
	}
	out := make([][]byte, len(keys))
	for i, k := range keys {
		out[i] = m.data[k]
	}
	return out, nil
}

func (m *mockStore) Set(_ context.Context, key string, value []byte) error {
	if m.setErr != nil {
		return m.setErr
	}
	m.data[key] = value
	return nil
}

func (m *mockStore) Del(_ context.Context, key string) error {
	delete(m.data, key)
	return nil
}

func (m *mockStore) Scan(_ context.Context, pattern string) ([]string, error) {
	if m.scanErr != nil {
		return nil, m.scanErr
	}
	prefix := strings.TrimSuffix(pattern, "*")
	var keys []string
	for k := range m.data {
		if strings.HasPrefix(k, prefix) {
			keys = append(keys, k)
			if m.scanDup {
				keys = append(keys, k)
			}
		}
	}
	return keys, nil
}

func newTestRepo(t *testing.T) (*Repo, *mockStore) {
	t.Helper()
	ms := &mockStore{data: map[string][]byte{}}
	return New(ms), ms
}

func testPackage(key int, id, version string) gallery.Package {
	return gallery.Package{
		Key:                    key,
		PackageRegistrationKey: key * 10,
		PackageRegistration:    &gallery.PackageRegistration{Key: key * 10, ID: id},
		Version:                version,
		Title:                  id,
	}
}
