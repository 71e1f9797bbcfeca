package crawler

import (
	"compress/gzip"
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/andybalholm/brotli"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/amosWeiskopf/sitegraph/pkg/graph"
	"github.com/amosWeiskopf/sitegraph/pkg/uri"
)

func newTestFetcher(t *testing.T, opts FetcherOptions) *HTTPFetcher {
	t.Helper()
	f, err := NewHTTPFetcher(opts)
	require.NoError(t, err)
	return f
}

func TestHTTPFetcherHeaders(t *testing.T) {
	var got http.Header
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = r.Header.Clone()
		w.Header().Set("Content-Type", "text/html")
		w.Write([]byte("<html></html>"))
	}))
	defer server.Close()

	f := newTestFetcher(t, FetcherOptions{UserAgent: "test-agent/2.0"})
	resp, err := f.Fetch(context.Background(), server.URL+"/")
	require.NoError(t, err)

	assert.Equal(t, 200, resp.StatusCode)
	assert.Equal(t, "text/html", resp.ContentType)
	assert.Equal(t, "test-agent/2.0", got.Get("User-Agent"))
	assert.Equal(t, "gzip, deflate, br", got.Get("Accept-Encoding"))
	assert.Contains(t, got.Get("Accept"), "text/html")
}

func TestHTTPFetcherDecodesContent(t *testing.T) {
	const page = `<html><body><a href="/next">next</a></body></html>`

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		switch r.URL.Path {
		case "/gzip":
			w.Header().Set("Content-Encoding", "gzip")
			gz := gzip.NewWriter(w)
			gz.Write([]byte(page))
			gz.Close()
		case "/br":
			w.Header().Set("Content-Encoding", "br")
			br := brotli.NewWriter(w)
			br.Write([]byte(page))
			br.Close()
		default:
			w.Write([]byte(page))
		}
	}))
	defer server.Close()

	f := newTestFetcher(t, FetcherOptions{})
	for _, path := range []string{"/plain", "/gzip", "/br"} {
		t.Run(path, func(t *testing.T) {
			resp, err := f.Fetch(context.Background(), server.URL+path)
			require.NoError(t, err)
			assert.Equal(t, page, resp.Body)
		})
	}
}

func TestHTTPFetcherCharset(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=iso-8859-1")
		w.Write([]byte("<p>caf\xe9</p>"))
	}))
	defer server.Close()

	f := newTestFetcher(t, FetcherOptions{})
	resp, err := f.Fetch(context.Background(), server.URL)
	require.NoError(t, err)
	assert.Equal(t, "<p>café</p>", resp.Body)
}

func TestHTTPFetcherStatusError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusNotFound)
	}))
	defer server.Close()

	f := newTestFetcher(t, FetcherOptions{})
	resp, err := f.Fetch(context.Background(), server.URL+"/missing")
	assert.Nil(t, resp)

	var statusErr *StatusError
	require.ErrorAs(t, err, &statusErr)
	assert.Equal(t, 404, statusErr.Code)
	assert.Equal(t, "HTTP 404 Not Found", statusErr.Error())
}

func TestHTTPFetcherBodyLimit(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(strings.Repeat("x", 2048)))
	}))
	defer server.Close()

	f := newTestFetcher(t, FetcherOptions{MaxBodyBytes: 1024})
	_, err := f.Fetch(context.Background(), server.URL)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "exceeds limit")
}

func TestHTTPFetcherTimeout(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-time.After(time.Second):
		case <-r.Context().Done():
		}
	}))
	defer server.Close()

	f := newTestFetcher(t, FetcherOptions{Timeout: 50 * time.Millisecond})
	_, err := f.Fetch(context.Background(), server.URL)
	assert.Error(t, err)
}

func TestHTTPFetcherRedirects(t *testing.T) {
	elsewhere := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		w.Write([]byte(`<a href="/off-site">off</a>`))
	}))
	defer elsewhere.Close()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/old":
			http.Redirect(w, r, "/new", http.StatusMovedPermanently)
		case "/new":
			w.Header().Set("Content-Type", "text/html")
			w.Write([]byte("moved here"))
		case "/away":
			http.Redirect(w, r, elsewhere.URL+"/", http.StatusFound)
		default:
			http.NotFound(w, r)
		}
	}))
	defer server.Close()

	f := newTestFetcher(t, FetcherOptions{})

	resp, err := f.Fetch(context.Background(), server.URL+"/old")
	require.NoError(t, err)
	assert.Equal(t, 200, resp.StatusCode)
	assert.Equal(t, "moved here", resp.Body)

	resp, err = f.Fetch(context.Background(), server.URL+"/away")
	require.NoError(t, err)
	assert.Equal(t, http.StatusFound, resp.StatusCode)
	assert.NotContains(t, resp.Body, "off-site")

	c, err := New(f, 2)
	require.NoError(t, err)
	result, err := c.Crawl(context.Background(), server.URL+"/away")
	require.NoError(t, err)

	assert.Equal(t, 1, result.Graph.Len())
	node, ok := result.Graph.Node(uri.MustParse(server.URL + "/away"))
	require.True(t, ok)
	assert.Equal(t, graph.Failure, node.Status)
	assert.Equal(t, http.StatusFound, node.ResponseCode)
}

func TestCrawlOverHTTP(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		switch r.URL.Path {
		case "/":
			w.Write([]byte(`
				<!DOCTYPE html>
				<html>
				<head>
					<title>Test Page</title>
					<link rel="stylesheet" href="/static/site.css">
				</head>
				<body>
					<a href="/page1">Page 1</a>
					<a href="page2#details">Page 2</a>
					<a href="/missing">Missing</a>
					<a href="mailto:test@example.com">Email</a>
					<a href="https://external.example.org/">External</a>
				</body>
				</html>
			`))
		case "/page1":
			w.Write([]byte(`<html><body><a href="./">Home</a></body></html>`))
		case "/page2":
			w.Write([]byte(`<html><body><a href="../page1">Page 1</a></body></html>`))
		case "/static/site.css":
			w.Header().Set("Content-Type", "text/css")
			w.Write([]byte(`body { color: black; }`))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer server.Close()

	f := newTestFetcher(t, FetcherOptions{Timeout: 5 * time.Second})
	c, err := New(f, 4)
	require.NoError(t, err)

	result, err := c.Crawl(context.Background(), server.URL+"/")
	require.NoError(t, err)

	base := uri.MustParse(server.URL)
	at := func(path string) uri.URI {
		u := base
		u.Path = path
		return u
	}

	g := result.Graph
	assert.Equal(t, 5, g.Len())

	root, ok := g.Node(at("/"))
	require.True(t, ok)
	assert.Equal(t, graph.Success, root.Status)
	assert.Equal(t, "Test Page", root.Title)

	missing, ok := g.Node(at("/missing"))
	require.True(t, ok)
	assert.Equal(t, graph.Failure, missing.Status)
	assert.Equal(t, 404, missing.ResponseCode)

	css, ok := g.Node(at("/static/site.css"))
	require.True(t, ok)
	assert.Equal(t, graph.Success, css.Status)
	assert.Empty(t, css.Title)

	assert.Equal(t, 3, g.InDegree(at("/")) + g.InDegree(at("/page1")))
	assert.Len(t, result.Errors, 1)
}
