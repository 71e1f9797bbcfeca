package extractor

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/amosWeiskopf/sitegraph/pkg/uri"
)

func TestExtractCandidateHrefs(t *testing.T) {
	body := `
		<html>
		<head>
			<title>Test Page</title>
			<script src="/js/app.js"></script>
			<link rel="stylesheet" href="/css/site.css">
		</head>
		<body>
			<a href="/page1">Page 1</a>
			<p>Some text <a class="nav" href="page2">Page 2</a></p>
			<a name="anchor-without-href">nothing</a>
			<link rel="preload" href="/fonts/a.woff2">
			<script>var inline = true;</script>
			<a href="#top">Top</a>
		</body>
		</html>
	`

	e := New()
	got := e.ExtractCandidateHrefs(body)

	assert.Equal(t, []string{
		"/page1",
		"page2",
		"#top",
		"/css/site.css",
		"/fonts/a.woff2",
		"/js/app.js",
	}, got)
}

func TestExtractCandidateHrefsKeepsDuplicates(t *testing.T) {
	e := New()
	got := e.ExtractCandidateHrefs(`<a href="/x">one</a><a href="/x">two</a>`)
	assert.Equal(t, []string{"/x", "/x"}, got)
}

func TestDiscoverLinks(t *testing.T) {
	page := uri.MustParse("http://example.com/docs/index.html")
	body := `
		<a href="#section">Skip</a>
		<a href="mailto:team@example.com">Mail</a>
		<a href="intro.html">Intro</a>
		<a href="intro.html#part-2">Intro again</a>
		<a href="../about">About</a>
		<a href="https://other.org/">Elsewhere</a>
		<a href="/bad path/">Space</a>
		<a href="/search?q=<b>">Broken</a>
		<a href="  /padded  ">Padded</a>
		<script src="//cdn.example.net/lib.js"></script>
	`

	e := New()
	links, errs := e.DiscoverLinks(body, page)

	want := []string{
		"http://example.com/docs/intro.html",
		"http://example.com/about",
		"https://other.org/",
		"http://example.com/bad%20path/",
		"http://example.com/padded",
		"http://cdn.example.net/lib.js",
	}
	got := make([]string, 0, len(links))
	for _, l := range links {
		got = append(got, l.String())
	}
	assert.Equal(t, want, got)

	require.Len(t, errs, 1)
	var perr *uri.ParseError
	require.ErrorAs(t, errs[0], &perr)
	assert.Equal(t, "query", perr.Section)
	assert.Contains(t, errs[0].Error(), `link "/search?q=<b>"`)
}

func TestDiscoverLinksEmptyBody(t *testing.T) {
	e := New()
	links, errs := e.DiscoverLinks("", uri.MustParse("http://example.com/"))
	assert.Empty(t, links)
	assert.Empty(t, errs)
}

func TestTitle(t *testing.T) {
	e := New()

	assert.Equal(t, "Test Page", e.Title(`<html><head><title>Test Page</title></head><body><p>x</p></body></html>`))
	assert.Equal(t, "", e.Title(`<html><body>no title here</body></html>`))
}

func TestTitleElement(t *testing.T) {
	assert.Equal(t, "First", titleElement(`<title>First</title><title>Second</title>`))
	assert.Equal(t, "", titleElement(`<title></title>`))
}
