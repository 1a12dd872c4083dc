package chi

import (
	"encoding/json"
	"fmt"
	"net/http"
	"slices"

	gochi "github.com/go-chi/chi/v5"
	"github.com/oapi-codegen/runtime"
	"go.uber.org/zap"

	"github.com/rrudduck/NuGetGallery/internal/domain/gallery"
	searchuc "github.com/rrudduck/NuGetGallery/internal/usecase/search"
)

// PackageListResponse is one page of the gallery package list.
type PackageListResponse struct {
	TotalHits int               `json:"totalHits"`
	Page      int               `json:"page"`
	PageSize  int               `json:"pageSize"`
	Items     []gallery.Package `json:"items"`
}

// ListPackages handles GET /packages.
func (s *Server) ListPackages(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	var (
		term      string
		sortOrder string
		page      = 1
	)
	if err := runtime.BindQueryParameter("form", true, false, "q", q, &term); err != nil {
		writeError(w, http.StatusBadRequest, CodeBadRequest, err.Error())
		return
	}
	if err := runtime.BindQueryParameter("form", true, false, "sortOrder", q, &sortOrder); err != nil {
		writeError(w, http.StatusBadRequest, CodeBadRequest, err.Error())
		return
	}
	if err := runtime.BindQueryParameter("form", true, false, "page", q, &page); err != nil {
		writeError(w, http.StatusBadRequest, CodeBadRequest, err.Error())
		return
	}
	page = max(page, 1)

	f := searchuc.ResolveSortOrder(sortOrder, page).WithSearchTerm(term)
	src := &lazyCatalog{catalog: s.catalog}
	res, err := s.search.List(r.Context(), f, src.packages(r.Context()))
	if err == nil {
		err = src.err
	}
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	items := slices.Collect(res.Data())
	if items == nil {
		items = []gallery.Package{}
	}
	writeJSON(w, http.StatusOK, PackageListResponse{
		TotalHits: res.Count(),
		Page:      page,
		PageSize:  f.Take(),
		Items:     items,
	})
}

// GetPackage handles GET /catalog/packages/{key}.
func (s *Server) GetPackage(w http.ResponseWriter, r *http.Request) {
	key, ok := bindPackageKey(w, r)
	if !ok {
		return
	}
	pkg, err := s.catalog.Get(r.Context(), key)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, pkg)
}

// PutPackage handles PUT /catalog/packages/{key}.
func (s *Server) PutPackage(w http.ResponseWriter, r *http.Request) {
	key, ok := bindPackageKey(w, r)
	if !ok {
		return
	}

	var pkg gallery.Package
	if err := json.NewDecoder(r.Body).Decode(&pkg); err != nil {
		writeError(w, http.StatusBadRequest, CodeBadRequest, "Invalid request body: "+err.Error())
		return
	}
	if pkg.Key != 0 && pkg.Key != key {
		writeError(w, http.StatusBadRequest, CodeBadRequest,
			fmt.Sprintf("body key %d does not match path key %d", pkg.Key, key))
		return
	}
	pkg.Key = key

	if err := s.catalog.Put(r.Context(), pkg); err != nil {
		s.handleDomainError(w, err)
		return
	}
	if s.index != nil {
		if err := s.index.UpdatePackage(r.Context(), pkg); err != nil {
			s.logger.Warn("index update failed", zap.Int("key", key), zap.Error(err))
		}
	}
	w.WriteHeader(http.StatusNoContent)
}

// DeletePackage handles DELETE /catalog/packages/{key}.
func (s *Server) DeletePackage(w http.ResponseWriter, r *http.Request) {
	key, ok := bindPackageKey(w, r)
	if !ok {
		return
	}
	if err := s.catalog.Delete(r.Context(), key); err != nil {
		s.handleDomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func bindPackageKey(w http.ResponseWriter, r *http.Request) (int, bool) {
	var key int
	err := runtime.BindStyledParameterWithOptions("simple", "key", gochi.URLParam(r, "key"), &key,
		runtime.BindStyledParameterOptions{ParamLocation: runtime.ParamLocationPath, Required: true})
	if err != nil || key <= 0 {
		writeError(w, http.StatusBadRequest, CodeBadRequest, "package key must be a positive integer")
		return 0, false
	}
	return key, true
}
