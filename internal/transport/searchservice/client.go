// Package searchservice is the client for the external search index service.
package searchservice

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
	"golang.org/x/time/rate"

	"github.com/rrudduck/NuGetGallery/internal/domain"
	"github.com/rrudduck/NuGetGallery/internal/logger"
	"github.com/rrudduck/NuGetGallery/internal/metrics"
)

const (
	searchPath      = "search/query"
	diagnosticsPath = "search/diag"

	defaultTimeout = 30 * time.Second
	// traceSource names the client's log output.
	traceSource = "ExternalSearchService"
)

// Credentials are extracted from the user info of the service URI.
type Credentials struct {
	Username string
	Password string
}

// Config holds the search service client settings.
type Config struct {
	ServiceURI string
	Timeout    time.Duration
	// RateLimit is requests per second; 0 disables limiting.
	RateLimit  float64
	RateBurst  int
	HTTPClient *http.Client
	Logger     *zap.Logger
}

// Client talks to the search index service. It is safe for concurrent use.
type Client struct {
	serviceURI  *url.URL
	credentials *Credentials
	http        *http.Client
	timeout     time.Duration
	limiter     *rate.Limiter
	logger      *zap.Logger

	diagGroup singleflight.Group
	diagMu    sync.RWMutex
	diag      *diagnostics
}

// NewClient parses the service URI and creates a client.
// Embedded user:password credentials are moved out of the URI and sent as
// basic auth. User info that is not exactly user:password fails with
// domain.ErrInvalidServiceURI.
func NewClient(cfg Config) (*Client, error) {
	u, creds, err := parseServiceURI(cfg.ServiceURI)
	if err != nil {
		return nil, err
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	hc := cfg.HTTPClient
	if hc == nil {
		hc = &http.Client{}
	}

	c := &Client{
		serviceURI:  u,
		credentials: creds,
		http:        hc,
		timeout:     timeout,
		logger:      logger.Source(cfg.Logger, traceSource),
	}
	if cfg.RateLimit > 0 {
		burst := cfg.RateBurst
		if burst <= 0 {
			burst = 1
		}
		c.limiter = rate.NewLimiter(rate.Limit(cfg.RateLimit), burst)
	}
	return c, nil
}

func parseServiceURI(raw string) (*url.URL, *Credentials, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %w", domain.ErrInvalidServiceURI, err)
	}
	if !u.IsAbs() || u.Host == "" {
		return nil, nil, fmt.Errorf("%w: %q is not an absolute URI", domain.ErrInvalidServiceURI, raw)
	}
	if u.Path == "" || u.Path[len(u.Path)-1] != '/' {
		u.Path += "/"
	}

	if u.User == nil || u.User.String() == "" {
		u.User = nil
		return u, nil, nil
	}

	// Exactly one ':' separates user and password; Password() splits on the first.
	password, ok := u.User.Password()
	if !ok || strings.Contains(password, ":") {
		return nil, nil, fmt.Errorf("%w: user info must be user:password", domain.ErrInvalidServiceURI)
	}
	creds := &Credentials{Username: u.User.Username(), Password: password}
	u.User = nil
	return u, creds, nil
}

// ServiceURI returns the service endpoint without credentials.
func (c *Client) ServiceURI() string { return c.serviceURI.String() }

// Credentials returns the extracted credentials, or nil.
func (c *Client) Credentials() *Credentials { return c.credentials }

// get issues a GET relative to the service URI. The caller closes the body.
func (c *Client) get(ctx context.Context, path string, query url.Values) (*http.Response, error) {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("rate limit wait: %w", err)
		}
	}

	target := c.serviceURI.ResolveReference(&url.URL{Path: path, RawQuery: query.Encode()})
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target.String(), http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if c.credentials != nil {
		req.SetBasicAuth(c.credentials.Username, c.credentials.Password)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("GET %s: %w", path, err)
	}
	c.logger.Debug("search service request",
		zap.String("path", path),
		zap.Int("status", resp.StatusCode),
	)
	return resp, nil
}

// HealthCheck verifies the service answers the diagnostics endpoint.
// It does not touch the cached diagnostics snapshot.
func (c *Client) HealthCheck(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	resp, err := c.get(ctx, diagnosticsPath, nil)
	if err != nil {
		return fmt.Errorf("%w: %w", domain.ErrSearchUnavailable, err)
	}
	defer drain(resp.Body)

	if !isSuccess(resp.StatusCode) {
		return domain.NewStatusError(resp.StatusCode)
	}
	return nil
}

func drain(body io.ReadCloser) {
	_, _ = io.Copy(io.Discard, body)
	_ = body.Close()
}

func isSuccess(status int) bool { return status >= 200 && status <= 299 }

func observeError(reason string) {
	metrics.SearchRemoteErrorsTotal.WithLabelValues(reason).Inc()
}
