package analyzer

import (
	"fmt"
	"math"
	"net"
	"sort"
	"strings"
	"time"

	"github.com/temoto/robotstxt"
	"golang.org/x/net/publicsuffix"

	"github.com/amosWeiskopf/sitegraph/internal/models"
	"github.com/amosWeiskopf/sitegraph/pkg/crawler"
	"github.com/amosWeiskopf/sitegraph/pkg/graph"
	"github.com/amosWeiskopf/sitegraph/pkg/uri"
)

// Analyzer turns a crawl result into a scored report
type Analyzer struct {
	config *Config
}

// Config holds analyzer configuration
type Config struct {
	AnalyzePageRank bool
	Damping         float64
	Iterations      int

	// Robots, when set, is used to flag crawled pages the site's
	// robots.txt disallows for UserAgent. It never affects the crawl.
	Robots    *robotstxt.RobotsData
	UserAgent string
}

// New creates a new Analyzer instance
func New() *Analyzer {
	return &Analyzer{
		config: &Config{
			AnalyzePageRank: true,
			Damping:         0.85,
			Iterations:      100,
			UserAgent:       "*",
		},
	}
}

// NewWithConfig creates an Analyzer with custom configuration
func NewWithConfig(config *Config) *Analyzer {
	if config.Damping <= 0 || config.Damping >= 1 {
		config.Damping = 0.85
	}
	if config.Iterations <= 0 {
		config.Iterations = 100
	}
	if config.UserAgent == "" {
		config.UserAgent = "*"
	}
	return &Analyzer{config: config}
}

// Analyze builds a report for a finished or interrupted crawl
func (a *Analyzer) Analyze(result *crawler.Result) (*models.GraphReport, error) {
	if result == nil || result.Graph == nil {
		return nil, fmt.Errorf("analyze: empty crawl result")
	}
	g := result.Graph

	report := &models.GraphReport{
		Crawl:       crawlInfo(result),
		GeneratedAt: time.Now(),
		Errors:      append([]string{}, result.Errors...),
	}

	var ranks map[uri.URI]float64
	if a.config.AnalyzePageRank {
		ranks = a.calculatePageRank(g)
	}

	report.Pages = make([]models.Page, 0, g.Len())
	for u, node := range g.Nodes() {
		report.Pages = append(report.Pages, models.Page{
			URL:          u.String(),
			Status:       node.Status.String(),
			ResponseCode: node.ResponseCode,
			Title:        node.Title,
			Error:        node.Error,
			InDegree:     g.InDegree(u),
			OutDegree:    g.OutDegree(u),
			PageRank:     ranks[u],
		})
	}
	report.Links = collectLinks(g)

	report.Scores.Health = a.analyzeHealth(g)
	report.Scores.LinkIntegrity = a.analyzeLinkIntegrity(g)
	report.Scores.Content = a.analyzeContent(g)
	report.Scores.Overall = a.calculateOverallScore(report.Scores)

	report.Findings = a.generateFindings(result)
	report.Recommendations = a.generateRecommendations(report.Findings)
	report.Summary = a.generateSummary(report)

	return report, nil
}

func crawlInfo(result *crawler.Result) models.CrawlInfo {
	counts := result.Graph.Counts()
	info := models.CrawlInfo{
		SessionID:  result.SessionID,
		Seed:       result.Seed.String(),
		Anchor:     result.Anchor.String(),
		Domain:     registrableDomain(result.Anchor.Host),
		MaxThreads: result.MaxThreads,
		StartedAt:  result.StartedAt,
		FinishedAt: result.FinishedAt,
		Duration:   result.FinishedAt.Sub(result.StartedAt),
		TotalPages: result.Graph.Len(),
		TotalLinks: result.Graph.EdgeCount(),
		Succeeded:  counts[graph.Success],
		Failed:     counts[graph.Failure],
		Pending:    counts[graph.Enqueued] + counts[graph.InProgress],
	}
	info.Complete = info.Pending == 0
	return info
}

// registrableDomain returns the eTLD+1 of host, or host itself for IPs,
// localhost and other names without a public suffix.
func registrableDomain(host string) string {
	if net.ParseIP(host) != nil {
		return host
	}
	domain, err := publicsuffix.EffectiveTLDPlusOne(host)
	if err != nil {
		return host
	}
	return domain
}

func collectLinks(g *graph.PageGraph) []models.Link {
	links := make([]models.Link, 0, g.EdgeCount())
	for from := range g.Nodes() {
		targets := make([]string, 0, g.OutDegree(from))
		for to := range g.Children(from) {
			targets = append(targets, to.String())
		}
		sort.Strings(targets)
		for _, to := range targets {
			links = append(links, models.Link{From: from.String(), To: to})
		}
	}
	return links
}

// calculatePageRank implements the PageRank algorithm over the crawl graph
func (a *Analyzer) calculatePageRank(g *graph.PageGraph) map[uri.URI]float64 {
	pages := make([]uri.URI, 0, g.Len())
	for u := range g.Nodes() {
		pages = append(pages, u)
	}
	if len(pages) == 0 {
		return nil
	}

	pageCount := float64(len(pages))
	damping := a.config.Damping

	pageRank := make(map[uri.URI]float64, len(pages))
	for _, u := range pages {
		pageRank[u] = 1.0 / pageCount
	}

	for i := 0; i < a.config.Iterations; i++ {
		newPageRank := make(map[uri.URI]float64, len(pages))

		for _, u := range pages {
			rank := (1.0 - damping) / pageCount

			for inbound := range g.Parents(u) {
				outboundCount := float64(g.OutDegree(inbound))
				if outboundCount > 0 {
					rank += damping * pageRank[inbound] / outboundCount
				}
			}

			newPageRank[u] = rank
		}

		pageRank = newPageRank
	}

	return pageRank
}

// analyzeHealth is the share of attempted pages that were fetched successfully
func (a *Analyzer) analyzeHealth(g *graph.PageGraph) float64 {
	counts := g.Counts()
	attempted := counts[graph.Success] + counts[graph.Failure]
	if attempted == 0 {
		return 0
	}
	return float64(counts[graph.Success]) / float64(attempted) * 100
}

// analyzeLinkIntegrity is the share of edges that do not point at a failed page
func (a *Analyzer) analyzeLinkIntegrity(g *graph.PageGraph) float64 {
	total := g.EdgeCount()
	if total == 0 {
		return 100
	}

	broken := 0
	for u, node := range g.Nodes() {
		if node.Status == graph.Failure {
			broken += g.InDegree(u)
		}
	}
	return math.Max(0, 1.0-float64(broken)/float64(total)) * 100
}

// analyzeContent evaluates page titles
func (a *Analyzer) analyzeContent(g *graph.PageGraph) float64 {
	score := 0.0
	factors := 0
	titles := make(map[string]int)

	for u, node := range g.Nodes() {
		if node.Status != graph.Success || !isWebpageURL(u) {
			continue
		}
		factors++
		titles[node.Title]++

		// Check title
		if len(node.Title) > 0 && len(node.Title) <= 60 {
			score += 1.0
		} else if len(node.Title) > 0 {
			score += 0.5
		}
	}

	if factors == 0 {
		return 0
	}

	duplicates := 0
	for title, count := range titles {
		if title != "" && count > 1 {
			duplicates += count - 1
		}
	}
	score -= 0.5 * float64(duplicates)

	return math.Max(0, score/float64(factors)) * 100
}

// calculateOverallScore computes the weighted average of all scores
func (a *Analyzer) calculateOverallScore(scores models.Scores) float64 {
	weights := map[string]float64{
		"health":         0.4,
		"link_integrity": 0.4,
		"content":        0.2,
	}

	return scores.Health*weights["health"] +
		scores.LinkIntegrity*weights["link_integrity"] +
		scores.Content*weights["content"]
}

// generateFindings creates a list of findings
func (a *Analyzer) generateFindings(result *crawler.Result) []models.Finding {
	g := result.Graph
	findings := []models.Finding{}

	// Broken links, one finding per failed page
	for u, node := range g.Nodes() {
		if node.Status != graph.Failure {
			continue
		}
		findings = append(findings, models.Finding{
			Category:    "Technical",
			Type:        "Broken Link",
			Description: fmt.Sprintf("%s failed: %s", u, describeFailure(node)),
			Severity:    "high",
			URLs:        referrers(g, u),
		})
	}

	// Check for missing titles
	var untitled []string
	for u, node := range g.Nodes() {
		if node.Status == graph.Success && node.Title == "" && isWebpageURL(u) {
			untitled = append(untitled, u.String())
		}
	}
	if len(untitled) > 0 {
		findings = append(findings, models.Finding{
			Category:    "Content",
			Type:        "Missing Title",
			Description: fmt.Sprintf("%d pages lack a title", len(untitled)),
			Severity:    "medium",
			URLs:        untitled,
		})
	}

	// Check for duplicate titles
	titles := make(map[string][]string)
	var titleOrder []string
	for u, node := range g.Nodes() {
		if node.Title == "" {
			continue
		}
		if _, seen := titles[node.Title]; !seen {
			titleOrder = append(titleOrder, node.Title)
		}
		titles[node.Title] = append(titles[node.Title], u.String())
	}
	for _, title := range titleOrder {
		if urls := titles[title]; len(urls) > 1 {
			findings = append(findings, models.Finding{
				Category:    "Content",
				Type:        "Duplicate Title",
				Description: fmt.Sprintf("Title '%s' used on %d pages", title, len(urls)),
				Severity:    "medium",
				URLs:        urls,
			})
		}
	}

	// Pages whose links could not be resolved
	var unresolved []string
	for u, node := range g.Nodes() {
		if node.Status == graph.Success && node.Error != "" {
			unresolved = append(unresolved, u.String())
		}
	}
	if len(unresolved) > 0 {
		findings = append(findings, models.Finding{
			Category:    "Technical",
			Type:        "Malformed Links",
			Description: fmt.Sprintf("%d pages contain links that could not be resolved", len(unresolved)),
			Severity:    "low",
			URLs:        unresolved,
		})
	}

	// Pages never fetched because the crawl stopped early
	var pending []string
	for u, node := range g.Nodes() {
		if !node.Status.Terminal() {
			pending = append(pending, u.String())
		}
	}
	if len(pending) > 0 {
		findings = append(findings, models.Finding{
			Category:    "Crawl",
			Type:        "Incomplete Crawl",
			Description: fmt.Sprintf("%d pages were discovered but never fetched", len(pending)),
			Severity:    "medium",
			URLs:        pending,
		})
	}

	if a.config.Robots != nil {
		if disallowed := a.auditRobots(g); len(disallowed) > 0 {
			findings = append(findings, models.Finding{
				Category:    "Crawl",
				Type:        "Disallowed by robots.txt",
				Description: fmt.Sprintf("%d crawled pages are disallowed for %s", len(disallowed), a.config.UserAgent),
				Severity:    "low",
				URLs:        disallowed,
			})
		}
	}

	sortBySeverity(findings)
	return findings
}

func describeFailure(node graph.PageNode) string {
	if node.Error != "" {
		return node.Error
	}
	return fmt.Sprintf("status %d", node.ResponseCode)
}

func referrers(g *graph.PageGraph, u uri.URI) []string {
	var urls []string
	for parent := range g.Parents(u) {
		urls = append(urls, parent.String())
	}
	sort.Strings(urls)
	return urls
}

var severityOrder = map[string]int{"critical": 0, "high": 1, "medium": 2, "low": 3}

func sortBySeverity(findings []models.Finding) {
	sort.SliceStable(findings, func(i, j int) bool {
		return severityOrder[findings[i].Severity] < severityOrder[findings[j].Severity]
	})
}

// generateRecommendations creates actionable recommendations based on findings
func (a *Analyzer) generateRecommendations(findings []models.Finding) []models.Recommendation {
	recommendations := []models.Recommendation{}
	seen := make(map[string]bool)

	for _, finding := range findings {
		if seen[finding.Type] {
			continue
		}
		seen[finding.Type] = true

		var rec models.Recommendation
		switch finding.Type {
		case "Broken Link":
			rec = models.Recommendation{
				Priority:    "critical",
				Category:    "Technical",
				Action:      "Fix or remove broken links",
				Impact:      "high",
				Effort:      "low",
				Description: "Restore the failing pages or update every page that links to them",
			}
		case "Missing Title":
			rec = models.Recommendation{
				Priority:    "high",
				Category:    "Content",
				Action:      "Add page titles",
				Impact:      "medium",
				Effort:      "low",
				Description: "Give every HTML page a descriptive <title> of at most 60 characters",
			}
		case "Duplicate Title":
			rec = models.Recommendation{
				Priority:    "medium",
				Category:    "Content",
				Action:      "Fix duplicate titles",
				Impact:      "medium",
				Effort:      "low",
				Description: "Ensure each page has a unique, descriptive title tag",
			}
		case "Malformed Links":
			rec = models.Recommendation{
				Priority:    "medium",
				Category:    "Technical",
				Action:      "Encode link targets",
				Impact:      "low",
				Effort:      "low",
				Description: "Percent-encode characters such as <, > and quotes in href and src attributes",
			}
		case "Incomplete Crawl":
			rec = models.Recommendation{
				Priority:    "low",
				Category:    "Crawl",
				Action:      "Re-run the crawl to completion",
				Impact:      "medium",
				Effort:      "low",
				Description: "The report covers only part of the site; raise the timeout or let the crawl finish",
			}
		case "Disallowed by robots.txt":
			rec = models.Recommendation{
				Priority:    "low",
				Category:    "Crawl",
				Action:      "Review robots.txt rules",
				Impact:      "low",
				Effort:      "low",
				Description: "Linked pages are disallowed for crawlers; remove the links or relax the rules",
			}
		default:
			continue
		}

		recommendations = append(recommendations, rec)
	}

	return recommendations
}

// generateSummary creates a high-level summary
func (a *Analyzer) generateSummary(report *models.GraphReport) models.Summary {
	summary := models.Summary{
		Score: report.Scores.Overall,
	}

	// Determine grade
	switch {
	case summary.Score >= 90:
		summary.Grade = "A"
	case summary.Score >= 80:
		summary.Grade = "B"
	case summary.Score >= 70:
		summary.Grade = "C"
	case summary.Score >= 60:
		summary.Grade = "D"
	default:
		summary.Grade = "F"
	}

	// Identify strengths and weaknesses
	if report.Scores.Health >= 95 {
		summary.Strengths = append(summary.Strengths, "Nearly every page loads successfully")
	}
	if report.Scores.LinkIntegrity >= 95 {
		summary.Strengths = append(summary.Strengths, "Internal links are intact")
	}
	if report.Scores.Content >= 80 {
		summary.Strengths = append(summary.Strengths, "Pages carry distinct titles")
	}

	if report.Scores.Health < 80 {
		summary.Weaknesses = append(summary.Weaknesses, "Many pages fail to load")
	}
	if report.Scores.LinkIntegrity < 80 {
		summary.Weaknesses = append(summary.Weaknesses, "Broken internal links need attention")
	}
	if report.Scores.Content < 60 {
		summary.Weaknesses = append(summary.Weaknesses, "Page titles are missing or repeated")
	}

	// Top priorities
	for i, rec := range report.Recommendations {
		if i >= 3 {
			break
		}
		summary.TopPriorities = append(summary.TopPriorities, rec.Action)
	}

	return summary
}

// isWebpageURL reports whether u looks like a document rather than an asset
func isWebpageURL(u uri.URI) bool {
	path := strings.ToLower(u.Path)
	nonWebExts := []string{".jpg", ".jpeg", ".png", ".gif", ".svg", ".ico", ".webp", ".pdf", ".zip", ".mp4", ".mp3", ".css", ".js", ".woff", ".woff2"}
	for _, ext := range nonWebExts {
		if strings.HasSuffix(path, ext) {
			return false
		}
	}
	return true
}
