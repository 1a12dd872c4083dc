package chi

import (
	"net/http"
	"net/url"
	"slices"
	"strconv"
	"strings"

	gochi "github.com/go-chi/chi/v5"
	"github.com/oapi-codegen/runtime"

	"github.com/rrudduck/NuGetGallery/internal/domain/gallery"
	"github.com/rrudduck/NuGetGallery/internal/domain/search/result"
	searchuc "github.com/rrudduck/NuGetGallery/internal/usecase/search"
)

// FeedResponse is the body of a feed search.
type FeedResponse struct {
	TotalHits int               `json:"totalHits"`
	Items     []gallery.Package `json:"items"`
}

type feedParams struct {
	SearchTerm        string
	TargetFramework   string
	IncludePrerelease bool
}

// SearchFeed handles GET /api/v2/Search() and its curated-feed variant.
func (s *Server) SearchFeed(w http.ResponseWriter, r *http.Request) {
	res, src, ok := s.runFeedSearch(w, r)
	if !ok {
		return
	}

	data := res.Data()
	total, known := res.TotalHits()
	if !known {
		// The local path returns every match; page it here.
		skip, top, err := s.bindWindow(r.URL.Query())
		if err != nil {
			writeError(w, http.StatusBadRequest, CodeBadRequest, err.Error())
			return
		}
		all := slices.Collect(data)
		if src.err != nil {
			s.handleDomainError(w, src.err)
			return
		}
		total = len(all)
		data = result.Page(slices.Values(all), skip, top)
	}

	items := slices.Collect(data)
	if items == nil {
		items = []gallery.Package{}
	}
	writeJSON(w, http.StatusOK, FeedResponse{TotalHits: total, Items: items})
}

// CountFeed handles GET /api/v2/Search()/$count and its curated-feed variant.
func (s *Server) CountFeed(w http.ResponseWriter, r *http.Request) {
	res, src, ok := s.runFeedSearch(w, r)
	if !ok {
		return
	}

	n := res.Count()
	if src.err != nil {
		s.handleDomainError(w, src.err)
		return
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(strconv.Itoa(n)))
}

func (s *Server) runFeedSearch(w http.ResponseWriter, r *http.Request) (result.Results, *lazyCatalog, bool) {
	params, err := bindFeedParams(r.URL.Query())
	if err != nil {
		writeError(w, http.StatusBadRequest, CodeBadRequest, err.Error())
		return result.Results{}, nil, false
	}

	var feed *gallery.CuratedFeed
	if name := gochi.URLParam(r, "feed"); name != "" {
		feed = &gallery.CuratedFeed{Name: name}
	}

	src := &lazyCatalog{catalog: s.catalog}
	res, err := s.search.Search(r.Context(), searchuc.Query{
		RawURL:            r.RequestURI,
		SearchTerm:        params.SearchTerm,
		TargetFramework:   params.TargetFramework,
		IncludePrerelease: params.IncludePrerelease,
		CuratedFeed:       feed,
	}, src.packages(r.Context()))
	if err != nil {
		s.handleDomainError(w, err)
		return result.Results{}, nil, false
	}
	return res, src, true
}

func bindFeedParams(q url.Values) (feedParams, error) {
	var p feedParams
	if err := runtime.BindQueryParameter("form", true, false, "searchTerm", q, &p.SearchTerm); err != nil {
		return feedParams{}, err
	}
	if err := runtime.BindQueryParameter("form", true, false, "targetFramework", q, &p.TargetFramework); err != nil {
		return feedParams{}, err
	}
	if err := runtime.BindQueryParameter("form", true, false, "includePrerelease", q, &p.IncludePrerelease); err != nil {
		return feedParams{}, err
	}
	p.SearchTerm = unquoteOData(p.SearchTerm)
	p.TargetFramework = unquoteOData(p.TargetFramework)
	return p, nil
}

// bindWindow reads $skip and $top for the local path. $top defaults to and is
// capped at the configured maximum; a negative $skip counts as 0.
func (s *Server) bindWindow(q url.Values) (skip, top int, err error) {
	top = s.opts.DefaultTop
	if err := runtime.BindQueryParameter("form", true, false, "$skip", q, &skip); err != nil {
		return 0, 0, err
	}
	if err := runtime.BindQueryParameter("form", true, false, "$top", q, &top); err != nil {
		return 0, 0, err
	}
	skip = max(skip, 0)
	top = min(max(top, 0), s.opts.MaxTop)
	return skip, top, nil
}

// unquoteOData strips the single quotes around an OData string literal and
// collapses escaped quotes.
func unquoteOData(v string) string {
	if len(v) >= 2 && v[0] == '\'' && v[len(v)-1] == '\'' {
		v = v[1 : len(v)-1]
	}
	return strings.ReplaceAll(v, "''", "'")
}
