package crawler

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/rs/zerolog"
)

// ErrInvalidConcurrency is returned by New when maxThreads is below one.
var ErrInvalidConcurrency = errors.New("max threads must be at least 1")

// Fetcher retrieves a single page for the crawler
type Fetcher interface {
	// Fetch downloads rawURL. A response with a non-success status is
	// reported as a *StatusError.
	Fetch(ctx context.Context, rawURL string) (*Response, error)
}

// FetcherFunc adapts an ordinary function to the Fetcher interface.
type FetcherFunc func(ctx context.Context, rawURL string) (*Response, error)

// Fetch calls f(ctx, rawURL).
func (f FetcherFunc) Fetch(ctx context.Context, rawURL string) (*Response, error) {
	return f(ctx, rawURL)
}

// Response is a fetched document
type Response struct {
	StatusCode  int
	Body        string
	ContentType string
}

// StatusError reports a response whose status code is not a success.
type StatusError struct {
	Code int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("HTTP %d %s", e.Code, http.StatusText(e.Code))
}

// SeedError is returned when the seed URL cannot start a crawl.
type SeedError struct {
	Seed string
	Err  error
}

func (e *SeedError) Error() string {
	return fmt.Sprintf("invalid seed %q: %v", e.Seed, e.Err)
}

func (e *SeedError) Unwrap() error {
	return e.Err
}

// Option configures a Crawler
type Option func(*Crawler)

// WithLogger sets the logger used for progress and diagnostics.
func WithLogger(logger zerolog.Logger) Option {
	return func(c *Crawler) {
		c.logger = logger
	}
}

// WithVerbose toggles one log line per newly enqueued page.
func WithVerbose(verbose bool) Option {
	return func(c *Crawler) {
		c.verbose = verbose
	}
}

// WithTitles toggles recording of page titles.
func WithTitles(enabled bool) Option {
	return func(c *Crawler) {
		c.titles = enabled
	}
}

// WithProgressInterval sets the minimum time between progress log lines.
func WithProgressInterval(d time.Duration) Option {
	return func(c *Crawler) {
		if d > 0 {
			c.progressInterval = d
		}
	}
}
