// Package store persists finished crawl reports to a SQLite database.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/amosWeiskopf/sitegraph/internal/models"
)

// ErrNilReport is returned when SaveCrawl is called without a report.
var ErrNilReport = errors.New("store: nil report")

const schema = `
CREATE TABLE IF NOT EXISTS crawls (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	session_id TEXT NOT NULL UNIQUE,
	seed TEXT NOT NULL,
	anchor TEXT NOT NULL,
	domain TEXT NOT NULL,
	max_threads INTEGER NOT NULL,
	started_at DATETIME NOT NULL,
	finished_at DATETIME NOT NULL,
	total_pages INTEGER NOT NULL,
	total_links INTEGER NOT NULL,
	succeeded INTEGER NOT NULL,
	failed INTEGER NOT NULL,
	pending INTEGER NOT NULL,
	complete INTEGER NOT NULL,
	grade TEXT,
	score REAL
);

CREATE TABLE IF NOT EXISTS pages (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	crawl_id INTEGER NOT NULL REFERENCES crawls(id) ON DELETE CASCADE,
	url TEXT NOT NULL,
	status TEXT NOT NULL,
	response_code INTEGER,
	title TEXT,
	error TEXT,
	in_degree INTEGER NOT NULL,
	out_degree INTEGER NOT NULL,
	pagerank REAL,
	UNIQUE(crawl_id, url)
);

CREATE INDEX IF NOT EXISTS idx_pages_crawl ON pages(crawl_id);
CREATE INDEX IF NOT EXISTS idx_pages_status ON pages(status);

CREATE TABLE IF NOT EXISTS links (
	crawl_id INTEGER NOT NULL REFERENCES crawls(id) ON DELETE CASCADE,
	from_url TEXT NOT NULL,
	to_url TEXT NOT NULL,
	PRIMARY KEY (crawl_id, from_url, to_url)
);

CREATE INDEX IF NOT EXISTS idx_links_to ON links(crawl_id, to_url);

CREATE TABLE IF NOT EXISTS crawl_errors (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	crawl_id INTEGER NOT NULL REFERENCES crawls(id) ON DELETE CASCADE,
	message TEXT NOT NULL
);
`

// Store is a SQLite-backed archive of crawl reports.
type Store struct {
	db   *sql.DB
	path string
}

// CrawlSummary is one row of the crawls table.
type CrawlSummary struct {
	ID         int64
	SessionID  string
	Seed       string
	Domain     string
	StartedAt  time.Time
	FinishedAt time.Time
	TotalPages int
	TotalLinks int
	Complete   bool
	Grade      string
}

// Open opens or creates the database at path and ensures the schema exists.
func Open(path string) (*Store, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0750); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path+"?mode=rwc&_pragma=foreign_keys(1)")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// SQLite only supports one writer
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(time.Hour)

	ctx := context.Background()
	if _, err := db.ExecContext(ctx, "PRAGMA journal_mode=WAL"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
	}
	if _, err := db.ExecContext(ctx, schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}

	return &Store{db: db, path: path}, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Path returns the database file path.
func (s *Store) Path() string {
	return s.path
}

// SaveCrawl writes report and all of its pages, links and errors in a single
// transaction and returns the new crawl row id. Saving the same session twice
// replaces the earlier rows.
func (s *Store) SaveCrawl(ctx context.Context, report *models.GraphReport) (int64, error) {
	if report == nil {
		return 0, ErrNilReport
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	info := report.Crawl
	if _, err := tx.ExecContext(ctx, `DELETE FROM crawls WHERE session_id = ?`, info.SessionID); err != nil {
		return 0, fmt.Errorf("failed to replace crawl: %w", err)
	}

	res, err := tx.ExecContext(ctx, `
	INSERT INTO crawls (session_id, seed, anchor, domain, max_threads, started_at, finished_at,
		total_pages, total_links, succeeded, failed, pending, complete, grade, score)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		info.SessionID, info.Seed, info.Anchor, info.Domain, info.MaxThreads,
		info.StartedAt.UTC(), info.FinishedAt.UTC(),
		info.TotalPages, info.TotalLinks, info.Succeeded, info.Failed, info.Pending,
		info.Complete, report.Summary.Grade, report.Summary.Score,
	)
	if err != nil {
		return 0, fmt.Errorf("failed to insert crawl: %w", err)
	}
	crawlID, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to get crawl id: %w", err)
	}

	pageStmt, err := tx.PrepareContext(ctx, `
	INSERT INTO pages (crawl_id, url, status, response_code, title, error, in_degree, out_degree, pagerank)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return 0, fmt.Errorf("failed to prepare page insert: %w", err)
	}
	defer pageStmt.Close()
	for _, p := range report.Pages {
		if _, err := pageStmt.ExecContext(ctx, crawlID, p.URL, p.Status, p.ResponseCode,
			p.Title, p.Error, p.InDegree, p.OutDegree, p.PageRank); err != nil {
			return 0, fmt.Errorf("failed to insert page %s: %w", p.URL, err)
		}
	}

	linkStmt, err := tx.PrepareContext(ctx, `INSERT INTO links (crawl_id, from_url, to_url) VALUES (?, ?, ?)`)
	if err != nil {
		return 0, fmt.Errorf("failed to prepare link insert: %w", err)
	}
	defer linkStmt.Close()
	for _, l := range report.Links {
		if _, err := linkStmt.ExecContext(ctx, crawlID, l.From, l.To); err != nil {
			return 0, fmt.Errorf("failed to insert link %s -> %s: %w", l.From, l.To, err)
		}
	}

	for _, msg := range report.Errors {
		if _, err := tx.ExecContext(ctx, `INSERT INTO crawl_errors (crawl_id, message) VALUES (?, ?)`, crawlID, msg); err != nil {
			return 0, fmt.Errorf("failed to insert crawl error: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit crawl: %w", err)
	}
	return crawlID, nil
}

// ListCrawls returns stored crawls, newest first.
func (s *Store) ListCrawls(ctx context.Context) ([]CrawlSummary, error) {
	rows, err := s.db.QueryContext(ctx, `
	SELECT id, session_id, seed, domain, started_at, finished_at, total_pages, total_links, complete, COALESCE(grade, '')
	FROM crawls ORDER BY started_at DESC, id DESC`)
	if err != nil {
		return nil, fmt.Errorf("failed to query crawls: %w", err)
	}
	defer rows.Close()

	var out []CrawlSummary
	for rows.Next() {
		var c CrawlSummary
		if err := rows.Scan(&c.ID, &c.SessionID, &c.Seed, &c.Domain, &c.StartedAt, &c.FinishedAt,
			&c.TotalPages, &c.TotalLinks, &c.Complete, &c.Grade); err != nil {
			return nil, fmt.Errorf("failed to scan crawl: %w", err)
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// Pages returns the stored pages of a crawl ordered by URL.
func (s *Store) Pages(ctx context.Context, crawlID int64) ([]models.Page, error) {
	rows, err := s.db.QueryContext(ctx, `
	SELECT url, status, response_code, COALESCE(title, ''), COALESCE(error, ''), in_degree, out_degree, pagerank
	FROM pages WHERE crawl_id = ? ORDER BY url`, crawlID)
	if err != nil {
		return nil, fmt.Errorf("failed to query pages: %w", err)
	}
	defer rows.Close()

	var out []models.Page
	for rows.Next() {
		var p models.Page
		if err := rows.Scan(&p.URL, &p.Status, &p.ResponseCode, &p.Title, &p.Error,
			&p.InDegree, &p.OutDegree, &p.PageRank); err != nil {
			return nil, fmt.Errorf("failed to scan page: %w", err)
		}
		out = append(out, p)
	}
	return out, rows.Err()
}
