package models

import "time"

// Page represents one node of the crawl graph
type Page struct {
	URL          string  `json:"url" yaml:"url"`
	Status       string  `json:"status" yaml:"status"`
	ResponseCode int     `json:"response_code" yaml:"response_code"`
	Title        string  `json:"title,omitempty" yaml:"title,omitempty"`
	Error        string  `json:"error,omitempty" yaml:"error,omitempty"`
	InDegree     int     `json:"in_degree" yaml:"in_degree"`
	OutDegree    int     `json:"out_degree" yaml:"out_degree"`
	PageRank     float64 `json:"pagerank" yaml:"pagerank"`
}

// Link represents a hyperlink from one page to another
type Link struct {
	From string `json:"from" yaml:"from"`
	To   string `json:"to" yaml:"to"`
}

// CrawlInfo describes the crawl a report was built from
type CrawlInfo struct {
	SessionID  string        `json:"session_id" yaml:"session_id"`
	Seed       string        `json:"seed" yaml:"seed"`
	Anchor     string        `json:"anchor" yaml:"anchor"`
	Domain     string        `json:"domain" yaml:"domain"`
	MaxThreads int           `json:"max_threads" yaml:"max_threads"`
	StartedAt  time.Time     `json:"started_at" yaml:"started_at"`
	FinishedAt time.Time     `json:"finished_at" yaml:"finished_at"`
	Duration   time.Duration `json:"duration_ns" yaml:"duration"`
	TotalPages int           `json:"total_pages" yaml:"total_pages"`
	TotalLinks int           `json:"total_links" yaml:"total_links"`
	Succeeded  int           `json:"succeeded" yaml:"succeeded"`
	Failed     int           `json:"failed" yaml:"failed"`
	Pending    int           `json:"pending" yaml:"pending"`
	Complete   bool          `json:"complete" yaml:"complete"`
}
