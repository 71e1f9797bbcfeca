package models

import "time"

// GraphReport is the analysed form of a finished crawl
type GraphReport struct {
	Crawl           CrawlInfo        `json:"crawl" yaml:"crawl"`
	GeneratedAt     time.Time        `json:"generated_at" yaml:"generated_at"`
	Summary         Summary          `json:"summary" yaml:"summary"`
	Scores          Scores           `json:"scores" yaml:"scores"`
	Pages           []Page           `json:"pages" yaml:"pages"`
	Links           []Link           `json:"links" yaml:"links"`
	Errors          []string         `json:"errors" yaml:"errors"`
	Findings        []Finding        `json:"findings" yaml:"findings"`
	Recommendations []Recommendation `json:"recommendations" yaml:"recommendations"`
}

// Summary provides high-level site health insights
type Summary struct {
	Grade         string   `json:"grade" yaml:"grade"`
	Score         float64  `json:"score" yaml:"score"`
	Strengths     []string `json:"strengths,omitempty" yaml:"strengths,omitempty"`
	Weaknesses    []string `json:"weaknesses,omitempty" yaml:"weaknesses,omitempty"`
	TopPriorities []string `json:"top_priorities,omitempty" yaml:"top_priorities,omitempty"`
}

// Scores contains the site health metric scores, each in 0..100
type Scores struct {
	Health        float64 `json:"health" yaml:"health"`
	LinkIntegrity float64 `json:"link_integrity" yaml:"link_integrity"`
	Content       float64 `json:"content" yaml:"content"`
	Overall       float64 `json:"overall" yaml:"overall"`
}

// Finding represents an issue or observation about the crawled site
type Finding struct {
	Category    string   `json:"category" yaml:"category"`
	Type        string   `json:"type" yaml:"type"`
	Description string   `json:"description" yaml:"description"`
	Severity    string   `json:"severity" yaml:"severity"`
	URLs        []string `json:"urls,omitempty" yaml:"urls,omitempty"`
}

// Recommendation represents an actionable improvement
type Recommendation struct {
	Priority    string `json:"priority" yaml:"priority"`
	Category    string `json:"category" yaml:"category"`
	Action      string `json:"action" yaml:"action"`
	Impact      string `json:"impact" yaml:"impact"`
	Effort      string `json:"effort" yaml:"effort"`
	Description string `json:"description" yaml:"description"`
}
