// Package odata recognizes the OData feed queries that the search index can
// answer directly. Only the query shapes produced by the gallery's own client
// libraries are accepted; anything else is left to the local fallback.
package odata

import (
	"strconv"
	"strings"

	"github.com/rrudduck/NuGetGallery/internal/domain/search/filter"
	"github.com/rrudduck/NuGetGallery/internal/domain/search/sortorder"
)

// Recognized query keys and values.
const (
	ParamFilter  = "$filter"
	ParamSkip    = "$skip"
	ParamOrderBy = "$orderby"

	FilterLatest         = "IsLatestVersion"
	FilterAbsoluteLatest = "IsAbsoluteLatestVersion"

	countSuffix = "$count"
	// descMarker is matched against the raw, still-encoded $orderby value.
	descMarker = "%20desc"
)

// orderByPrefixes is evaluated in order; the first matching prefix wins.
var orderByPrefixes = []struct {
	prefix string
	order  sortorder.SortOrder
}{
	{"DownloadCount", sortorder.Relevance},
	{"Published", sortorder.Published},
	{"LastEdited", sortorder.LastEdited},
	{"Id", sortorder.TitleAscending},
	{"concat", sortorder.TitleAscending},
}

// ParseQueryTerms splits a raw query string into name/value pairs.
// Terms that do not split into exactly one name and one value are dropped.
// Values are not URL-decoded. A repeated name keeps its last value.
func ParseQueryTerms(query string) map[string]string {
	terms := make(map[string]string)
	for _, prop := range strings.Split(query, "&") {
		nameValue := strings.Split(prop, "=")
		if len(nameValue) == 2 {
			terms[nameValue[0]] = nameValue[1]
		}
	}
	return terms
}

// ReadSearchFilter builds a SearchFilter from a raw request URL (path and query).
// It returns false when the request shape cannot be served by the index.
func ReadSearchFilter(rawURL string) (filter.SearchFilter, bool) {
	if rawURL == "" {
		return filter.SearchFilter{}, false
	}

	path, query, found := strings.Cut(rawURL, "?")
	if !found || query == "" {
		return filter.SearchFilter{}, false
	}

	terms := ParseQueryTerms(query)

	// The index only holds latest and latest-stable versions.
	f, ok := terms[ParamFilter]
	if !ok || (f != FilterLatest && f != FilterAbsoluteLatest) {
		return filter.SearchFilter{}, false
	}

	skip := 0
	if raw, ok := terms[ParamSkip]; ok {
		if n, err := strconv.Atoi(raw); err == nil && n > 0 {
			skip = n
		}
	}

	order, ok := readSortOrder(terms)
	if !ok {
		return filter.SearchFilter{}, false
	}

	// Always ask for a full page so the feed layer emits a continuation link.
	sf, err := filter.New(skip, filter.MaxPageSize, order,
		filter.WithCountOnly(strings.HasSuffix(path, countSuffix)))
	if err != nil {
		return filter.SearchFilter{}, false
	}
	return sf, true
}

// readSortOrder maps $orderby onto a sort order the index supports.
func readSortOrder(terms map[string]string) (sortorder.SortOrder, bool) {
	orderBy, ok := terms[ParamOrderBy]
	if !ok || orderBy == "" {
		return sortorder.Relevance, true
	}

	for _, p := range orderByPrefixes {
		if !strings.HasPrefix(orderBy, p.prefix) {
			continue
		}
		if p.prefix == "concat" && strings.Contains(orderBy, descMarker) {
			return sortorder.TitleDescending, true
		}
		return p.order, true
	}
	return "", false
}
