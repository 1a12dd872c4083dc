package searchservice

import (
	"context"
	"encoding/json"
	"io"
	"time"

	"go.uber.org/zap"

	"github.com/rrudduck/NuGetGallery/internal/metrics"
)

// diagnostics is the decoded search/diag snapshot. Missing or malformed
// fields keep their zero values.
type diagnostics struct {
	lastWriteTime    time.Time
	hasLastWriteTime bool
	indexSizeInBytes int64
	documentCount    int
}

// diagnosticsDocument keeps every field raw so one bad value cannot fail the rest.
type diagnosticsDocument struct {
	CommitUserData json.RawMessage `json:"CommitUserData"`
	TotalMemory    json.RawMessage `json:"TotalMemory"`
	NumDocs        json.RawMessage `json:"NumDocs"`
}

func decodeDiagnostics(body []byte) diagnostics {
	var doc diagnosticsDocument
	if err := json.Unmarshal(body, &doc); err != nil {
		return diagnostics{}
	}

	var d diagnostics
	var commit struct {
		TimeStamp *string `json:"commit-time-stamp"`
	}
	if json.Unmarshal(doc.CommitUserData, &commit) == nil && commit.TimeStamp != nil {
		if t, err := parseTimestamp(*commit.TimeStamp); err == nil {
			d.lastWriteTime, d.hasLastWriteTime = t, true
		}
	}
	_ = json.Unmarshal(doc.TotalMemory, &d.indexSizeInBytes)
	_ = json.Unmarshal(doc.NumDocs, &d.documentCount)
	return d
}

// LastWriteTime returns the index commit time, or false when unknown.
func (c *Client) LastWriteTime(ctx context.Context) (time.Time, bool) {
	d := c.ensureDiagnostics(ctx)
	return d.lastWriteTime, d.hasLastWriteTime
}

// IndexSizeInBytes returns the index memory footprint, or 0 when unknown.
func (c *Client) IndexSizeInBytes(ctx context.Context) int64 {
	return c.ensureDiagnostics(ctx).indexSizeInBytes
}

// DocumentCount returns the number of indexed documents, or 0 when unknown.
func (c *Client) DocumentCount(ctx context.Context) int {
	return c.ensureDiagnostics(ctx).documentCount
}

// ensureDiagnostics fetches search/diag at most once per client. Concurrent
// first callers share one request, detached from the first caller's
// cancellation. A non-success status caches an empty snapshot; a transport
// failure returns zeros without caching.
func (c *Client) ensureDiagnostics(ctx context.Context) diagnostics {
	if d, ok := c.cachedDiagnostics(); ok {
		return d
	}

	v, _, _ := c.diagGroup.Do(diagnosticsPath, func() (any, error) {
		if d, ok := c.cachedDiagnostics(); ok {
			return d, nil
		}
		d, cache := c.fetchDiagnostics(context.WithoutCancel(ctx))
		if cache {
			c.diagMu.Lock()
			c.diag = &d
			c.diagMu.Unlock()
		}
		return d, nil
	})
	return v.(diagnostics)
}

func (c *Client) cachedDiagnostics() (diagnostics, bool) {
	c.diagMu.RLock()
	defer c.diagMu.RUnlock()
	if c.diag == nil {
		return diagnostics{}, false
	}
	return *c.diag, true
}

func (c *Client) fetchDiagnostics(ctx context.Context) (diagnostics, bool) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	resp, err := c.get(ctx, diagnosticsPath, nil)
	if err != nil {
		metrics.SearchDiagnosticsFetchTotal.WithLabelValues("error").Inc()
		c.logger.Error("Error when retrieving diagnostics", zap.Error(err))
		return diagnostics{}, false
	}
	defer drain(resp.Body)

	if !isSuccess(resp.StatusCode) {
		metrics.SearchDiagnosticsFetchTotal.WithLabelValues("error").Inc()
		c.logger.Error("HTTP Error when retrieving diagnostics", zap.Int("status", resp.StatusCode))
		return diagnostics{}, true
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		metrics.SearchDiagnosticsFetchTotal.WithLabelValues("error").Inc()
		c.logger.Error("Error reading diagnostics", zap.Error(err))
		return diagnostics{}, false
	}

	metrics.SearchDiagnosticsFetchTotal.WithLabelValues("success").Inc()
	return decodeDiagnostics(body), true
}
