package chi

import (
	"context"
	"errors"
	"iter"
	"net/http"
	"net/http/httptest"
	"slices"
	"strings"
	"testing"
	"time"

	gochi "github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/rrudduck/NuGetGallery/internal/domain"
	"github.com/rrudduck/NuGetGallery/internal/domain/gallery"
	"github.com/rrudduck/NuGetGallery/internal/domain/search/filter"
	"github.com/rrudduck/NuGetGallery/internal/domain/search/result"
	"github.com/rrudduck/NuGetGallery/internal/repository/catalog"
	healthuc "github.com/rrudduck/NuGetGallery/internal/usecase/health"
	searchuc "github.com/rrudduck/NuGetGallery/internal/usecase/search"
	statisticsuc "github.com/rrudduck/NuGetGallery/internal/usecase/statistics"
)

// --- Mocks ---

type mockCatalog struct {
	packages map[int]gallery.Package
	allErr   error
	allCalls int
}

func newMockCatalog(pkgs ...gallery.Package) *mockCatalog {
	m := &mockCatalog{packages: make(map[int]gallery.Package)}
	for _, p := range pkgs {
		m.packages[p.Key] = p
	}
	return m
}

func (m *mockCatalog) All(_ context.Context) (iter.Seq[gallery.Package], error) {
	m.allCalls++
	if m.allErr != nil {
		return nil, m.allErr
	}
	keys := make([]int, 0, len(m.packages))
	for k := range m.packages {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	out := make([]gallery.Package, len(keys))
	for i, k := range keys {
		out[i] = m.packages[k]
	}
	return slices.Values(out), nil
}

func (m *mockCatalog) Get(_ context.Context, key int) (gallery.Package, error) {
	p, ok := m.packages[key]
	if !ok {
		return gallery.Package{}, domain.ErrNotFound
	}
	return p, nil
}

func (m *mockCatalog) Put(_ context.Context, pkg gallery.Package) error {
	m.packages[pkg.Key] = pkg
	return nil
}

func (m *mockCatalog) Delete(_ context.Context, key int) error {
	delete(m.packages, key)
	return nil
}

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

type mockIndex struct {
	updated  []int
	written  time.Time
	hasWrite bool
}

func (m *mockIndex) UpdatePackage(_ context.Context, pkg gallery.Package) error {
	m.updated = append(m.updated, pkg.Key)
	return nil
}
func (m *mockIndex) IndexPath() string { return "https://search.example.org/" }
func (m *mockIndex) IsLocal() bool     { return false }
func (m *mockIndex) LastWriteTime(_ context.Context) (time.Time, bool) {
	return m.written, m.hasWrite
}
func (m *mockIndex) IndexSizeInBytes(_ context.Context) int64 { return 2048 }
func (m *mockIndex) DocumentCount(_ context.Context) int      { return 17 }

type mockPinger struct{ err error }

func (m *mockPinger) Ping(_ context.Context) error { return m.err }

type mockChecker struct{ err error }

func (m *mockChecker) HealthCheck(_ context.Context) error { return m.err }

type mockTotals struct {
	totals *gallery.Totals
}

func (m *mockTotals) SaveTotals(_ context.Context, t gallery.Totals) error {
	m.totals = &t
	return nil
}

func (m *mockTotals) Totals(_ context.Context) (gallery.Totals, error) {
	if m.totals == nil {
		return gallery.Totals{}, domain.ErrNotFound
	}
	return *m.totals, nil
}

// --- Fixtures ---

type testEnv struct {
	router  http.Handler
	catalog *mockCatalog
	remote  *mockRemote
	index   *mockIndex
	totals  *mockTotals
}

type envOption func(*envConfig)

type envConfig struct {
	remote  bool
	apiKeys []string
	dbErr   error
}

func withRemote() envOption                { return func(c *envConfig) { c.remote = true } }
func withAPIKeys(keys ...string) envOption { return func(c *envConfig) { c.apiKeys = keys } }
func withDBError(err error) envOption      { return func(c *envConfig) { c.dbErr = err } }

func newTestEnv(t *testing.T, opts ...envOption) *testEnv {
	t.Helper()
	var cfg envConfig
	for _, o := range opts {
		o(&cfg)
	}

	env := &testEnv{
		catalog: newMockCatalog(fixturePackages()...),
		remote:  &mockRemote{},
		totals:  &mockTotals{},
	}

	var (
		remote searchuc.SearchService
		index  SearchIndex
		health healthuc.SearchChecker
	)
	if cfg.remote {
		remote = env.remote
		env.index = &mockIndex{}
		index = env.index
		health = &mockChecker{}
	}

	srv := NewServer(
		searchuc.New(remote, catalog.Search),
		statisticsuc.New(env.catalog, env.totals),
		healthuc.New(&mockPinger{err: cfg.dbErr}, health),
		env.catalog,
		index,
		Options{APIKeys: cfg.apiKeys},
		zap.NewNop(),
	)
	r := gochi.NewRouter()
	srv.Routes(r)
	env.router = r
	return env
}

func (e *testEnv) do(method, target string, body string, header ...string) *httptest.ResponseRecorder {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, target, http.NoBody)
	} else {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
	}
	for i := 0; i+1 < len(header); i += 2 {
		req.Header.Set(header[i], header[i+1])
	}
	rr := httptest.NewRecorder()
	e.router.ServeHTTP(rr, req)
	return rr
}

func fixturePackages() []gallery.Package {
	reg := func(key int, id string, downloads int) *gallery.PackageRegistration {
		return &gallery.PackageRegistration{Key: key, ID: id, DownloadCount: downloads}
	}
	day := func(n int) time.Time { return time.Date(2024, 2, n, 0, 0, 0, 0, time.UTC) }
	return []gallery.Package{
		{Key: 1, PackageRegistration: reg(1, "Newtonsoft.Json", 900), Title: "Json.NET", Version: "13.0.3", DownloadCount: 900, Published: day(1)},
		{Key: 2, PackageRegistration: reg(2, "JsonPatch", 20), Title: "JsonPatch", Version: "1.0.0-beta", IsPrerelease: true, DownloadCount: 20, Published: day(2)},
		{Key: 3, PackageRegistration: reg(3, "Dapper", 400), Title: "Dapper", Version: "2.1.0", DownloadCount: 400, Published: day(3)},
		{Key: 4, PackageRegistration: reg(4, "System.Text.Json", 700), Title: "System.Text.Json", Version: "8.0.0", DownloadCount: 700, Published: day(4)},
	}
}

var errBoom = errors.New("boom")
