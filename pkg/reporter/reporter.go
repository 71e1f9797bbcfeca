package reporter

import (
	"encoding/json"
	"fmt"
	"html/template"
	"io"
	"strconv"
	"strings"

	"github.com/nao1215/markdown"
	"gopkg.in/yaml.v3"

	"github.com/amosWeiskopf/sitegraph/internal/models"
	"github.com/amosWeiskopf/sitegraph/pkg/utils"
)

// Formats lists the supported report formats.
var Formats = []string{"json", "yaml", "markdown", "html"}

// Reporter handles report generation in various formats
type Reporter struct {
	html *template.Template
}

// New creates a new Reporter instance
func New() *Reporter {
	return &Reporter{
		html: template.Must(template.New("report").Funcs(template.FuncMap{
			"score": func(v float64) string { return fmt.Sprintf("%.0f", v) },
			"rank":  func(v float64) string { return fmt.Sprintf("%.4f", v) },
		}).Parse(htmlTemplate)),
	}
}

// Render writes report to w in the given format using a default Reporter.
func Render(report *models.GraphReport, format string, w io.Writer) error {
	return New().Render(report, format, w)
}

// Render writes report to w in the given format
func (r *Reporter) Render(report *models.GraphReport, format string, w io.Writer) error {
	if report == nil {
		return fmt.Errorf("render: nil report")
	}

	switch strings.ToLower(format) {
	case "json":
		return r.generateJSON(report, w)
	case "yaml", "yml":
		return r.generateYAML(report, w)
	case "markdown", "md":
		return r.generateMarkdown(report, w)
	case "html":
		return r.generateHTML(report, w)
	default:
		return fmt.Errorf("unsupported format: %s", format)
	}
}

// generateJSON creates a JSON formatted report
func (r *Reporter) generateJSON(report *models.GraphReport, w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(report); err != nil {
		return fmt.Errorf("failed to marshal report: %w", err)
	}
	return nil
}

// generateYAML creates a YAML formatted report
func (r *Reporter) generateYAML(report *models.GraphReport, w io.Writer) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(report); err != nil {
		return fmt.Errorf("failed to marshal report: %w", err)
	}
	return enc.Close()
}

// generateHTML creates an HTML formatted report
func (r *Reporter) generateHTML(report *models.GraphReport, w io.Writer) error {
	if err := r.html.Execute(w, report); err != nil {
		return fmt.Errorf("failed to execute template: %w", err)
	}
	return nil
}

// generateMarkdown creates a Markdown formatted report
func (r *Reporter) generateMarkdown(report *models.GraphReport, w io.Writer) error {
	md := markdown.NewMarkdown(w)

	md.H1(fmt.Sprintf("Site Graph for %s", report.Crawl.Anchor))
	md.PlainText("")
	md.Table(markdown.TableSet{
		Header: []string{"Property", "Value"},
		Rows: [][]string{
			{"Seed", "`" + report.Crawl.Seed + "`"},
			{"Domain", report.Crawl.Domain},
			{"Session", report.Crawl.SessionID},
			{"Started", report.Crawl.StartedAt.Format("2006-01-02 15:04:05 MST")},
			{"Duration", report.Crawl.Duration.String()},
			{"Threads", strconv.Itoa(report.Crawl.MaxThreads)},
			{"Pages", strconv.Itoa(report.Crawl.TotalPages)},
			{"Links", strconv.Itoa(report.Crawl.TotalLinks)},
			{"Succeeded", strconv.Itoa(report.Crawl.Succeeded)},
			{"Failed", strconv.Itoa(report.Crawl.Failed)},
		},
	})
	md.PlainText("")
	if !report.Crawl.Complete {
		md.Warningf("Crawl stopped early: %d pages were never fetched.", report.Crawl.Pending)
		md.PlainText("")
	}

	md.H2("Summary")
	md.PlainText("")
	md.PlainTextf("**Overall Grade:** %s (%.0f/100)", report.Summary.Grade, report.Summary.Score)
	md.PlainText("")
	md.Table(markdown.TableSet{
		Header: []string{"Metric", "Score"},
		Rows: [][]string{
			{"Health", fmt.Sprintf("%.0f", report.Scores.Health)},
			{"Link Integrity", fmt.Sprintf("%.0f", report.Scores.LinkIntegrity)},
			{"Content", fmt.Sprintf("%.0f", report.Scores.Content)},
			{"**Overall**", fmt.Sprintf("**%.0f**", report.Scores.Overall)},
		},
	})
	md.PlainText("")

	if len(report.Summary.Strengths) > 0 {
		md.H3("Strengths")
		md.BulletList(report.Summary.Strengths...)
		md.PlainText("")
	}
	if len(report.Summary.Weaknesses) > 0 {
		md.H3("Areas for Improvement")
		md.BulletList(report.Summary.Weaknesses...)
		md.PlainText("")
	}

	md.H2("Pages")
	md.PlainText("")
	rows := make([][]string, 0, len(report.Pages))
	for _, p := range report.Pages {
		rows = append(rows, []string{
			p.URL,
			p.Status,
			strconv.Itoa(p.ResponseCode),
			orDash(escapeCell(p.Title)),
			strconv.Itoa(p.InDegree),
			strconv.Itoa(p.OutDegree),
			fmt.Sprintf("%.4f", p.PageRank),
		})
	}
	md.Table(markdown.TableSet{
		Header: []string{"URL", "Status", "Code", "Title", "In", "Out", "PageRank"},
		Rows:   rows,
	})
	md.PlainText("")

	if len(report.Findings) > 0 {
		md.H2("Findings")
		md.PlainText("")
		for _, finding := range report.Findings {
			md.H3(finding.Type)
			md.BulletList(
				"**Category:** "+finding.Category,
				"**Severity:** "+finding.Severity,
				"**Description:** "+finding.Description,
			)
			if len(finding.URLs) > 0 {
				md.PlainText("")
				md.BulletList(finding.URLs...)
			}
			md.PlainText("")
		}
	} else {
		md.Tip("No issues found.")
		md.PlainText("")
	}

	if len(report.Recommendations) > 0 {
		md.H2("Recommendations")
		md.PlainText("")
		for i, rec := range report.Recommendations {
			md.H3(fmt.Sprintf("%d. %s", i+1, rec.Action))
			md.BulletList(
				"**Priority:** "+rec.Priority,
				"**Impact:** "+rec.Impact,
				"**Effort:** "+rec.Effort,
				"**Description:** "+rec.Description,
			)
			md.PlainText("")
		}
	}

	if len(report.Errors) > 0 {
		md.H2("Errors")
		md.PlainText("")
		errs := make([]string, len(report.Errors))
		for i, e := range report.Errors {
			errs[i] = utils.TruncateText(e, 200)
		}
		md.BulletList(errs...)
		md.PlainText("")
	}

	if err := md.Build(); err != nil {
		return fmt.Errorf("failed to write markdown: %w", err)
	}
	return nil
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

func escapeCell(s string) string {
	return strings.ReplaceAll(s, "|", `\|`)
}
