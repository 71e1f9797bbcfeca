// Package crawler drives a domain-confined crawl: a FIFO frontier, a
// bounded pool of fetch workers and a single loop that owns the page
// graph and folds worker results into it.
package crawler

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/amosWeiskopf/sitegraph/pkg/extractor"
	"github.com/amosWeiskopf/sitegraph/pkg/graph"
	"github.com/amosWeiskopf/sitegraph/pkg/uri"
)

const defaultProgressInterval = 2 * time.Second

var (
	errRelativeSeed = errors.New("seed must name a protocol and a host")
	errNoResponse   = errors.New("fetcher returned no response")
)

// Crawler crawls every page reachable from a seed without leaving the
// seed's protocol, host and port.
type Crawler struct {
	fetcher          Fetcher
	extractor        *extractor.Extractor
	maxThreads       int
	verbose          bool
	titles           bool
	progressInterval time.Duration
	logger           zerolog.Logger
}

// Result is the outcome of one crawl.
type Result struct {
	SessionID  string
	Seed       uri.URI
	Anchor     uri.URI
	Graph      *graph.PageGraph
	MaxThreads int
	Errors     []string
	StartedAt  time.Time
	FinishedAt time.Time
}

// report is what a worker sends back for one page.
type report struct {
	page     uri.URI
	code     int
	err      error
	title    string
	links    []uri.URI
	linkErrs []error
}

// session is the state of a running crawl. Only the crawl loop touches it.
type session struct {
	id       string
	anchor   uri.URI
	graph    *graph.PageGraph
	frontier *Frontier
	errors   []string
	crawled  int
	verbose  bool
	progress rate.Sometimes
	logger   zerolog.Logger
}

// New creates a Crawler that keeps at most maxThreads fetches in flight.
func New(fetcher Fetcher, maxThreads int, opts ...Option) (*Crawler, error) {
	if maxThreads < 1 {
		return nil, fmt.Errorf("%w: got %d", ErrInvalidConcurrency, maxThreads)
	}
	if fetcher == nil {
		return nil, errors.New("crawler: nil fetcher")
	}

	c := &Crawler{
		fetcher:          fetcher,
		extractor:        extractor.New(),
		maxThreads:       maxThreads,
		titles:           true,
		progressInterval: defaultProgressInterval,
		logger:           zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// MaxThreads returns the concurrency bound.
func (c *Crawler) MaxThreads() int {
	return c.maxThreads
}

// Crawl fetches seed and every same-origin page reachable from it, and
// returns the resulting graph. It blocks until the frontier is empty and
// no fetch is in flight.
//
// A seed that does not parse, or that lacks a protocol or host, is
// reported as a *SeedError before any fetch happens. Problems with
// individual pages are recorded in Result.Errors and on the graph nodes.
// If ctx is cancelled, Crawl stops dispatching, waits for in-flight
// fetches and returns the partial result along with the context error.
func (c *Crawler) Crawl(ctx context.Context, seed string) (*Result, error) {
	seedURI, err := uri.Parse(strings.TrimSpace(seed))
	if err != nil {
		return nil, &SeedError{Seed: seed, Err: err}
	}
	if !seedURI.IsAbsolute() {
		return nil, &SeedError{Seed: seed, Err: errRelativeSeed}
	}
	seedURI = seedURI.Key()

	s := &session{
		id:       uuid.NewString(),
		anchor:   seedURI.Origin(),
		graph:    graph.New(),
		frontier: NewFrontier(),
		verbose:  c.verbose,
		progress: rate.Sometimes{First: 1, Interval: c.progressInterval},
	}
	s.logger = c.logger.With().Str("session", s.id).Logger()

	result := &Result{
		SessionID:  s.id,
		Seed:       seedURI,
		Anchor:     s.anchor,
		Graph:      s.graph,
		MaxThreads: c.maxThreads,
		StartedAt:  time.Now(),
	}

	s.logger.Info().
		Str("seed", seedURI.String()).
		Int("max_threads", c.maxThreads).
		Msg("crawl started")

	s.graph.AddNode(seedURI)
	s.frontier.Push(seedURI)
	s.logEnqueued(seedURI)

	runErr := c.run(ctx, s)

	result.Errors = s.errors
	result.FinishedAt = time.Now()

	counts := s.graph.Counts()
	event := s.logger.Info()
	if runErr != nil {
		event = s.logger.Warn().Err(runErr)
	}
	event.
		Int("pages", s.graph.Len()).
		Int("edges", s.graph.EdgeCount()).
		Int("success", counts[graph.Success]).
		Int("failure", counts[graph.Failure]).
		Int("errors", len(s.errors)).
		Dur("elapsed", result.FinishedAt.Sub(result.StartedAt)).
		Msg("crawl finished")

	return result, runErr
}

// run is the crawl loop. It owns the graph and the frontier; workers only
// see the tasks channel and the results channel.
func (c *Crawler) run(ctx context.Context, s *session) error {
	tasks := make(chan uri.URI)
	results := make(chan report, c.maxThreads)

	g, gctx := errgroup.WithContext(ctx)
	for range c.maxThreads {
		g.Go(func() error {
			for page := range tasks {
				results <- c.visit(gctx, page)
			}
			return nil
		})
	}

	active := 0
	for {
		for active < c.maxThreads && s.frontier.Len() > 0 && ctx.Err() == nil {
			page, _ := s.frontier.Dispatch()
			if err := s.graph.SetStatus(page, graph.InProgress, 0, ""); err != nil {
				s.record(fmt.Sprintf("dispatch %s: %v", page, err))
				s.frontier.Complete(page)
				continue
			}
			tasks <- page
			active++
		}
		if active == 0 {
			break
		}

		rep := <-results
		active--
		s.integrate(rep)
		s.logProgress(active)
	}

	close(tasks)
	if err := g.Wait(); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("crawl interrupted: %w", err)
	}
	return nil
}

// visit fetches one page and extracts its links. It runs on a worker and
// never touches the session.
func (c *Crawler) visit(ctx context.Context, page uri.URI) report {
	rep := report{page: page}

	resp, err := c.fetcher.Fetch(ctx, page.String())
	if err != nil {
		var statusErr *StatusError
		if errors.As(err, &statusErr) {
			rep.code = statusErr.Code
		}
		rep.err = err
		return rep
	}
	if resp == nil {
		rep.err = errNoResponse
		return rep
	}

	rep.code = resp.StatusCode
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		rep.err = &StatusError{Code: resp.StatusCode}
		return rep
	}

	rep.links, rep.linkErrs = c.extractor.DiscoverLinks(resp.Body, page)
	if c.titles && isMarkup(resp.ContentType) {
		rep.title = c.extractor.Title(resp.Body)
	}
	return rep
}

// integrate folds one worker report into the graph and the frontier.
func (s *session) integrate(rep report) {
	status, errText := graph.Success, ""
	if rep.err != nil {
		status, errText = graph.Failure, rep.err.Error()
		s.record(fmt.Sprintf("fetch %s: %v", rep.page, rep.err))
		s.logger.Debug().Str("url", rep.page.String()).Int("code", rep.code).Err(rep.err).Msg("fetch failed")
	}
	if err := s.graph.SetStatus(rep.page, status, rep.code, errText); err != nil {
		s.record(fmt.Sprintf("complete %s: %v", rep.page, err))
	}
	s.frontier.Complete(rep.page)
	s.crawled++

	if rep.title != "" {
		_ = s.graph.SetTitle(rep.page, rep.title)
	}

	for _, linkErr := range rep.linkErrs {
		s.record(linkErr.Error())
		_ = s.graph.NoteError(rep.page, linkErr.Error())
	}

	for _, link := range rep.links {
		if !link.SameOrigin(s.anchor) {
			continue
		}
		if s.graph.AddNode(link) {
			s.frontier.Push(link)
			s.logEnqueued(link)
		}
		s.graph.AddEdge(rep.page, link)
	}
}

func (s *session) record(msg string) {
	s.errors = append(s.errors, msg)
}

func (s *session) logEnqueued(u uri.URI) {
	if !s.verbose {
		return
	}
	s.logger.Info().Str("url", u.String()).Msg("enqueued")
}

func (s *session) logProgress(active int) {
	s.progress.Do(func() {
		s.logger.Info().
			Int("crawled", s.crawled).
			Int("queued", s.frontier.Len()).
			Int("active", active).
			Int("errors", len(s.errors)).
			Msg("progress")
	})
}

func isMarkup(contentType string) bool {
	if contentType == "" {
		return true
	}
	mimeType := strings.TrimSpace(strings.Split(strings.ToLower(contentType), ";")[0])
	switch mimeType {
	case "text/html", "application/xhtml+xml", "application/xhtml", "text/xml", "application/xml":
		return true
	}
	return false
}
