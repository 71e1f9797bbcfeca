package analyzer

import (
	"context"
	"fmt"
	"net/http"

	"github.com/temoto/robotstxt"

	"github.com/amosWeiskopf/sitegraph/pkg/graph"
	"github.com/amosWeiskopf/sitegraph/pkg/uri"
)

// FetchRobots downloads and parses robots.txt for the origin of anchor.
// A missing robots.txt parses as allow-all.
func FetchRobots(ctx context.Context, client *http.Client, anchor uri.URI) (*robotstxt.RobotsData, error) {
	robotsURL := anchor.Origin()
	robotsURL.Path = "/robots.txt"

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, robotsURL.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("build robots.txt request: %w", err)
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch robots.txt: %w", err)
	}
	defer resp.Body.Close()

	robots, err := robotstxt.FromResponse(resp)
	if err != nil {
		return nil, fmt.Errorf("parse robots.txt: %w", err)
	}
	return robots, nil
}

// auditRobots lists crawled pages that robots.txt disallows.
func (a *Analyzer) auditRobots(g *graph.PageGraph) []string {
	group := a.config.Robots.FindGroup(a.config.UserAgent)

	var disallowed []string
	for u := range g.Nodes() {
		path := u.Path
		if path == "" {
			path = "/"
		}
		if u.Query != "" {
			path += "?" + u.Query
		}
		if !group.Test(path) {
			disallowed = append(disallowed, u.String())
		}
	}
	return disallowed
}
