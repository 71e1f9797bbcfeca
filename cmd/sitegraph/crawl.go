package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/amosWeiskopf/sitegraph/internal/config"
	"github.com/amosWeiskopf/sitegraph/internal/logging"
	"github.com/amosWeiskopf/sitegraph/internal/models"
	"github.com/amosWeiskopf/sitegraph/internal/store"
	"github.com/amosWeiskopf/sitegraph/pkg/analyzer"
	"github.com/amosWeiskopf/sitegraph/pkg/crawler"
	"github.com/amosWeiskopf/sitegraph/pkg/reporter"
	"github.com/amosWeiskopf/sitegraph/pkg/utils"
)

func newCrawlCmd() *cobra.Command {
	crawlCmd := &cobra.Command{
		Use:   "crawl [URL]",
		Short: "Crawl a website and report its page graph",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			configPath, _ := cmd.Flags().GetString("config")
			cfg, err := config.Load(configPath, cmd.Flags())
			if err != nil {
				return err
			}
			if err := cfg.Validate(); err != nil {
				return err
			}

			logger, closer, err := logging.New(cfg.Logging)
			if err != nil {
				return err
			}
			defer closer.Close()

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			return runCrawl(ctx, cfg, args[0], cmd.OutOrStdout(), logger)
		},
	}

	flags := crawlCmd.Flags()
	flags.IntP("threads", "t", 8, "Maximum number of concurrent fetches")
	flags.Duration("timeout", 30*time.Second, "Per-request timeout")
	flags.String("user-agent", "SiteGraph/1.0", "User-Agent header sent with every request")
	flags.BoolP("verbose", "v", false, "Log every newly discovered page")
	flags.Bool("titles", true, "Extract page titles")
	flags.StringP("format", "f", "json", "Report format ("+strings.Join(reporter.Formats, ", ")+")")
	flags.StringP("output", "o", "", "Report file (default stdout)")
	flags.Bool("audit-robots", false, "Flag crawled pages disallowed by robots.txt")
	flags.String("store", "", "SQLite database to archive the crawl in")
	flags.String("log-level", "info", "Log level (debug, info, warn, error)")
	flags.String("log-format", "console", "Log format (console, json)")

	return crawlCmd
}

// runCrawl crawls seed, analyses the graph and writes the report. A crawl
// interrupted by ctx still reports the partial graph before returning the
// interruption error.
func runCrawl(ctx context.Context, cfg *config.Config, seed string, stdout io.Writer, logger zerolog.Logger) error {
	fetcher, err := crawler.NewHTTPFetcher(crawler.FetcherOptions{
		UserAgent:    cfg.Crawler.UserAgent,
		Timeout:      cfg.Crawler.Timeout,
		MaxBodyBytes: cfg.Crawler.MaxBodyBytes,
	})
	if err != nil {
		return fmt.Errorf("failed to create fetcher: %w", err)
	}

	c, err := crawler.New(fetcher, cfg.Crawler.MaxThreads,
		crawler.WithLogger(logger),
		crawler.WithVerbose(cfg.Crawler.Verbose),
		crawler.WithTitles(cfg.Crawler.ExtractTitles),
		crawler.WithProgressInterval(cfg.Crawler.ProgressInterval),
	)
	if err != nil {
		return fmt.Errorf("failed to create crawler: %w", err)
	}

	result, crawlErr := c.Crawl(ctx, seed)
	if result == nil {
		return crawlErr
	}

	analyzerConfig := &analyzer.Config{AnalyzePageRank: true, UserAgent: cfg.Crawler.UserAgent}
	if cfg.Output.AuditRobots {
		// ctx may already be cancelled by an interrupt
		robotsCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), cfg.Crawler.Timeout)
		robots, err := analyzer.FetchRobots(robotsCtx, fetcher.Client(), result.Anchor)
		cancel()
		if err != nil {
			logger.Warn().Err(err).Str("session", result.SessionID).Msg("robots.txt unavailable, skipping audit")
		} else {
			analyzerConfig.Robots = robots
		}
	}

	report, err := analyzer.NewWithConfig(analyzerConfig).Analyze(result)
	if err != nil {
		return fmt.Errorf("analysis failed: %w", err)
	}

	path, err := writeReport(report, cfg.Output, stdout)
	if err != nil {
		return err
	}
	if path != "" {
		logger.Info().Str("session", result.SessionID).Str("path", path).Msg("report saved")
	}

	if strings.EqualFold(cfg.Storage.Type, "sqlite") {
		db, err := store.Open(cfg.Storage.Path)
		if err != nil {
			return err
		}
		defer db.Close()

		id, err := db.SaveCrawl(context.WithoutCancel(ctx), report)
		if err != nil {
			return fmt.Errorf("failed to store crawl: %w", err)
		}
		logger.Info().Str("session", result.SessionID).Int64("crawl_id", id).Str("db", db.Path()).Msg("crawl stored")
	}

	return crawlErr
}

// writeReport renders report to the file named by out.Path, or to stdout
// when no path is set. It returns the path written, if any.
func writeReport(report *models.GraphReport, out config.OutputConfig, stdout io.Writer) (string, error) {
	if out.Path == "" {
		return "", reporter.Render(report, out.Format, stdout)
	}

	path := reportPath(report, out)
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return "", fmt.Errorf("failed to create report directory: %w", err)
		}
	}
	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("failed to write report: %w", err)
	}
	if err := reporter.Render(report, out.Format, f); err != nil {
		_ = f.Close()
		return "", err
	}
	return path, f.Close()
}

// reportPath names the report file. An output path that ends in a separator
// or names an existing directory gets a file named after the crawled site.
func reportPath(report *models.GraphReport, out config.OutputConfig) string {
	isDir := strings.HasSuffix(out.Path, "/") || strings.HasSuffix(out.Path, string(os.PathSeparator))
	if info, err := os.Stat(out.Path); err == nil && info.IsDir() {
		isDir = true
	}
	if !isDir {
		return out.Path
	}

	site := report.Crawl.Anchor
	if i := strings.Index(site, "://"); i >= 0 {
		site = site[i+3:]
	}
	return filepath.Join(out.Path, utils.SanitizeFilename(site)+reportExt(out.Format))
}

func reportExt(format string) string {
	switch strings.ToLower(format) {
	case "yaml", "yml":
		return ".yaml"
	case "markdown", "md":
		return ".md"
	case "html":
		return ".html"
	default:
		return ".json"
	}
}
