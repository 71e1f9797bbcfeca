package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/amosWeiskopf/sitegraph/internal/config"
	"github.com/amosWeiskopf/sitegraph/internal/models"
	"github.com/amosWeiskopf/sitegraph/internal/store"
)

func newSite(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/" {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		fmt.Fprint(w, `<html><head><title>Home</title></head><body>
			<a href="/about">About</a> <a href="/private/x">Private</a> <a href="/gone">Gone</a>
			<a href="https://elsewhere.example/">Off site</a></body></html>`)
	})
	mux.HandleFunc("/about", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		fmt.Fprint(w, `<html><head><title>About</title></head><body><a href="/">Home</a></body></html>`)
	})
	mux.HandleFunc("/private/x", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		fmt.Fprint(w, `<html><head><title>Private</title></head><body></body></html>`)
	})
	mux.HandleFunc("/robots.txt", func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprint(w, "User-agent: *\nDisallow: /private/\n")
	})
	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)
	return server
}

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg, err := config.Load("", nil)
	require.NoError(t, err)
	cfg.Crawler.MaxThreads = 2
	return cfg
}

func TestRunCrawlToStdout(t *testing.T) {
	server := newSite(t)
	cfg := testConfig(t)

	var out bytes.Buffer
	require.NoError(t, runCrawl(context.Background(), cfg, server.URL, &out, zerolog.Nop()))

	var report models.GraphReport
	require.NoError(t, json.Unmarshal(out.Bytes(), &report))
	assert.Equal(t, server.URL+"/", report.Crawl.Seed)
	assert.Equal(t, 4, report.Crawl.TotalPages)
	assert.Equal(t, 3, report.Crawl.Succeeded)
	assert.Equal(t, 1, report.Crawl.Failed)
	assert.True(t, report.Crawl.Complete)
}

func TestRunCrawlWithFileStoreAndRobots(t *testing.T) {
	server := newSite(t)
	dir := t.TempDir()

	cfg := testConfig(t)
	cfg.Output.Format = "markdown"
	cfg.Output.Path = filepath.Join(dir, "reports", "site.md")
	cfg.Output.AuditRobots = true
	cfg.Storage.Type = "sqlite"
	cfg.Storage.Path = filepath.Join(dir, "sitegraph.db")

	var out bytes.Buffer
	require.NoError(t, runCrawl(context.Background(), cfg, server.URL+"/", &out, zerolog.Nop()))
	assert.Zero(t, out.Len())

	data, err := os.ReadFile(cfg.Output.Path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "### Disallowed by robots.txt")
	assert.Contains(t, string(data), "### Broken Link")

	db, err := store.Open(cfg.Storage.Path)
	require.NoError(t, err)
	defer db.Close()
	crawls, err := db.ListCrawls(context.Background())
	require.NoError(t, err)
	require.Len(t, crawls, 1)
	assert.Equal(t, 4, crawls[0].TotalPages)
}

func TestRunCrawlReportIntoDirectory(t *testing.T) {
	server := newSite(t)
	dir := t.TempDir()

	cfg := testConfig(t)
	cfg.Output.Format = "yaml"
	cfg.Output.Path = dir

	var out bytes.Buffer
	require.NoError(t, runCrawl(context.Background(), cfg, server.URL, &out, zerolog.Nop()))

	host := strings.TrimPrefix(server.URL, "http://")
	want := filepath.Join(dir, strings.ReplaceAll(host, ":", "_")+".yaml")
	data, err := os.ReadFile(want)
	require.NoError(t, err)
	assert.Contains(t, string(data), "total_pages: 4")
}

func TestRunCrawlInterrupted(t *testing.T) {
	server := newSite(t)
	cfg := testConfig(t)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	var out bytes.Buffer
	err := runCrawl(ctx, cfg, server.URL, &out, zerolog.Nop())
	require.ErrorIs(t, err, context.Canceled)

	var report models.GraphReport
	require.NoError(t, json.Unmarshal(out.Bytes(), &report))
	assert.False(t, report.Crawl.Complete)
	assert.Equal(t, 1, report.Crawl.Pending)
}

func TestRunCrawlBadSeed(t *testing.T) {
	cfg := testConfig(t)
	var out bytes.Buffer
	err := runCrawl(context.Background(), cfg, "/relative/only", &out, zerolog.Nop())
	require.Error(t, err)
	assert.Zero(t, out.Len())
}

func TestCrawlCommandRejectsInvalidThreads(t *testing.T) {
	root := newRootCmd()
	root.SetArgs([]string{"crawl", "--threads", "0", "https://example.com/"})
	root.SetOut(&bytes.Buffer{})

	err := root.Execute()
	assert.ErrorIs(t, err, config.ErrInvalidConfig)
}

func TestVersionCommand(t *testing.T) {
	root := newRootCmd()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetArgs([]string{"version"})

	require.NoError(t, root.Execute())
	assert.Contains(t, out.String(), "sitegraph dev")
}
