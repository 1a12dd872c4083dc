package searchservice

import (
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"
)

// countingServer serves handler and counts requests per path.
type countingServer struct {
	*httptest.Server
	search atomic.Int32
	diag   atomic.Int32
}

func newServer(t *testing.T, handler http.HandlerFunc) *countingServer {
	t.Helper()
	cs := &countingServer{}
	cs.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/" + searchPath:
			cs.search.Add(1)
		case "/" + diagnosticsPath:
			cs.diag.Add(1)
		}
		handler(w, r)
	}))
	t.Cleanup(cs.Close)
	return cs
}

func newTestClient(t *testing.T, uri string) *Client {
	t.Helper()
	c, err := NewClient(Config{ServiceURI: uri, Timeout: 2 * time.Second})
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	return c
}

// roundTripFunc adapts a function to http.RoundTripper.
type roundTripFunc func(*http.Request) (*http.Response, error)

func (f roundTripFunc) RoundTrip(r *http.Request) (*http.Response, error) { return f(r) }

const documentJSON = `{
	"Key": 101,
	"Version": "13.0.3",
	"NormalizedVersion": "13.0.3",
	"Title": "Json.NET",
	"Description": "Popular high-performance JSON framework",
	"Authors": "James Newton-King",
	"Tags": "json",
	"IconUrl": "https://example.org/icon.png",
	"DownloadCount": 42,
	"PackageFileSize": 2048,
	"IsLatest": true,
	"IsLatestStable": true,
	"Created": "2023-03-08T07:42:54.647Z",
	"LastUpdated": "2023-03-08T07:42:54.647",
	"Published": "2023-03-08T07:42:54Z",
	"Dependencies": [
		{"Id": "Microsoft.CSharp", "VersionSpec": "[4.3.0, )", "TargetFramework": "netstandard1.0"}
	],
	"SupportedFrameworks": ["net45", "netstandard2.0"],
	"PackageRegistration": {
		"Key": 7,
		"Id": "Newtonsoft.Json",
		"Owners": ["jamesnk", "newtonsoft"],
		"DownloadCount": 9000
	}
}`
