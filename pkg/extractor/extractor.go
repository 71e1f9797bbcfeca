package extractor

import (
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/markusmobius/go-trafilatura"
	"golang.org/x/net/html"

	"github.com/amosWeiskopf/sitegraph/pkg/uri"
	"github.com/amosWeiskopf/sitegraph/pkg/utils"
)

// attributePass selects one kind of reference from a document.
type attributePass struct {
	selector string
	attr     string
}

// Extractor handles link and metadata extraction from fetched documents
type Extractor struct {
	passes []attributePass
}

// New creates a new Extractor instance
func New() *Extractor {
	return &Extractor{
		passes: []attributePass{
			{selector: "a[href]", attr: "href"},
			{selector: "link[href]", attr: "href"},
			{selector: "script[src]", attr: "src"},
		},
	}
}

// ExtractCandidateHrefs returns the raw reference strings found in body.
// Anchors come first, then <link> elements, then scripts; within each
// group values appear in document order.
func (e *Extractor) ExtractCandidateHrefs(body string) []string {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(body))
	if err != nil {
		return nil
	}

	var hrefs []string
	for _, p := range e.passes {
		doc.Find(p.selector).Each(func(_ int, s *goquery.Selection) {
			if v, ok := s.Attr(p.attr); ok {
				hrefs = append(hrefs, v)
			}
		})
	}
	return hrefs
}

// DiscoverLinks resolves every usable reference in body against page.
// Fragment-only and mailto references are skipped. A reference that fails
// to resolve is reported in the returned errors and does not stop the
// others. The returned URIs are unique and keep first-seen order.
func (e *Extractor) DiscoverLinks(body string, page uri.URI) ([]uri.URI, []error) {
	var (
		links []uri.URI
		errs  []error
		seen  = make(map[uri.URI]bool)
	)

	for _, href := range e.ExtractCandidateHrefs(body) {
		href = strings.TrimSpace(href)
		if strings.HasPrefix(href, "#") || strings.HasPrefix(href, "mailto") {
			continue
		}

		link, err := uri.Resolve(page, href)
		if err != nil {
			errs = append(errs, fmt.Errorf("link %q on %s: %w", href, page, err))
			continue
		}
		if !seen[link] {
			seen[link] = true
			links = append(links, link)
		}
	}
	return links, errs
}

// Title returns the document title, or "" when none can be found.
func (e *Extractor) Title(body string) string {
	result, err := trafilatura.Extract(strings.NewReader(body), trafilatura.Options{})
	if err == nil && result != nil && result.Metadata.Title != "" {
		return utils.CleanText(result.Metadata.Title)
	}
	return utils.CleanText(titleElement(body))
}

// titleElement returns the text of the first <title> element.
func titleElement(body string) string {
	doc, err := html.Parse(strings.NewReader(body))
	if err != nil {
		return ""
	}

	var title string
	var find func(*html.Node) bool
	find = func(n *html.Node) bool {
		if n.Type == html.ElementNode && n.Data == "title" {
			if n.FirstChild != nil {
				title = n.FirstChild.Data
			}
			return true
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			if find(c) {
				return true
			}
		}
		return false
	}
	find(doc)
	return title
}
