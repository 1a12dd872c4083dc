package searchservice

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/rrudduck/NuGetGallery/internal/domain"
	"github.com/rrudduck/NuGetGallery/internal/domain/gallery"
	"github.com/rrudduck/NuGetGallery/internal/domain/search/filter"
	"github.com/rrudduck/NuGetGallery/internal/domain/search/result"
	"github.com/rrudduck/NuGetGallery/internal/metrics"
)

// searchFields are OR-ed together, each with a trailing wildcard.
var searchFields = []string{
	"Id", "Version", "TokenizedId", "ShingledId", "Title", "Tags", "Description", "Authors", "Owners",
}

// BuildLuceneQuery turns a free-text term into a prefix query across the
// indexed package fields. Spaces are escaped so the term stays one token.
func BuildLuceneQuery(term string) string {
	escaped := strings.ReplaceAll(term, " ", `\ `)

	var b strings.Builder
	for i, f := range searchFields {
		if i > 0 {
			b.WriteByte(' ')
		}
		b.WriteString(f)
		b.WriteByte(':')
		b.WriteString(escaped)
		b.WriteByte('*')
	}
	return b.String()
}

// searchResponse is the body of search/query.
type searchResponse struct {
	TotalHits int               `json:"TotalHits"`
	Data      []packageDocument `json:"Data"`
}

// Search queries the index. Transport failures and non-success statuses are
// returned wrapping domain.ErrSearchUnavailable; there is no fallback.
func (c *Client) Search(ctx context.Context, f filter.SearchFilter) (result.Results, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	start := time.Now()
	resp, err := c.get(ctx, searchPath, searchQuery(f))
	metrics.SearchRemoteDuration.Observe(time.Since(start).Seconds())
	if err != nil {
		observeError("transport")
		return result.Results{}, fmt.Errorf("%w: %w", domain.ErrSearchUnavailable, err)
	}
	defer drain(resp.Body)

	if !isSuccess(resp.StatusCode) {
		observeError("status")
		c.logger.Warn("search query failed", zap.Int("status", resp.StatusCode))
		return result.Results{}, domain.NewStatusError(resp.StatusCode)
	}

	var body searchResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		observeError("decode")
		return result.Results{}, fmt.Errorf("%w: decode search response: %w", domain.ErrSearchUnavailable, err)
	}

	if f.CountOnly() || body.TotalHits == 0 {
		return result.CountOnly(body.TotalHits), nil
	}

	pkgs := make([]gallery.Package, len(body.Data))
	for i := range body.Data {
		p, err := body.Data[i].toPackage()
		if err != nil {
			observeError("document")
			return result.Results{}, fmt.Errorf("document %d: %w", i, err)
		}
		pkgs[i] = p
	}
	return result.New(body.TotalHits, pkgs), nil
}

// searchQuery encodes the filter as search/query parameters.
func searchQuery(f filter.SearchFilter) url.Values {
	q := url.Values{}
	q.Set("q", BuildLuceneQuery(f.SearchTerm()))
	q.Set("skip", strconv.Itoa(f.Skip()))
	q.Set("take", strconv.Itoa(f.Take()))
	q.Set("sortBy", f.SortOrder().QueryValue())
	if feed := f.CuratedFeedName(); feed != "" {
		q.Set("feed", feed)
	}
	q.Set("prerelease", strconv.FormatBool(f.IncludePrerelease()))
	q.Set("luceneQuery", "true")
	q.Set("countOnly", strconv.FormatBool(f.CountOnly()))
	q.Set("explanation", "false")
	q.Set("ignoreFilter", "false")
	return q
}
