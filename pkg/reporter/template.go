package reporter

const htmlTemplate = `<!DOCTYPE html>
<html lang="en">
<head>
    <meta charset="UTF-8">
    <meta name="viewport" content="width=device-width, initial-scale=1.0">
    <title>Site Graph - {{.Crawl.Anchor}}</title>
    <style>
        body {
            font-family: -apple-system, BlinkMacSystemFont, 'Segoe UI', Roboto, 'Helvetica Neue', Arial, sans-serif;
            line-height: 1.6;
            color: #333;
            max-width: 1200px;
            margin: 0 auto;
            padding: 20px;
            background: #f5f5f5;
        }
        .header {
            background: linear-gradient(135deg, #2b5876 0%, #4e4376 100%);
            color: white;
            padding: 2rem;
            border-radius: 10px;
            margin-bottom: 2rem;
        }
        .card {
            background: white;
            border-radius: 10px;
            padding: 1.5rem;
            margin-bottom: 1.5rem;
            box-shadow: 0 2px 10px rgba(0,0,0,0.1);
        }
        .score-grid {
            display: grid;
            grid-template-columns: repeat(auto-fit, minmax(180px, 1fr));
            gap: 1rem;
            margin: 1rem 0;
        }
        .score-item {
            text-align: center;
            padding: 1rem;
            background: #f8f9fa;
            border-radius: 8px;
        }
        .score-value {
            font-size: 2rem;
            font-weight: bold;
            color: #2b5876;
        }
        .score-label {
            color: #666;
            font-size: 0.9rem;
        }
        .grade {
            display: inline-block;
            padding: 0.5rem 1rem;
            background: #28a745;
            color: white;
            border-radius: 5px;
            font-weight: bold;
        }
        table {
            width: 100%;
            border-collapse: collapse;
            font-size: 0.9rem;
        }
        th, td {
            text-align: left;
            padding: 0.4rem 0.6rem;
            border-bottom: 1px solid #eee;
            word-break: break-all;
        }
        tr.failure td {
            color: #dc3545;
        }
        .finding {
            border-left: 4px solid #ffc107;
            padding: 0.5rem 1rem;
            margin: 1rem 0;
        }
        .finding.high {
            border-left-color: #dc3545;
        }
        .finding.low {
            border-left-color: #28a745;
        }
        .priority-badge {
            display: inline-block;
            padding: 0.25rem 0.75rem;
            border-radius: 4px;
            font-size: 0.85rem;
            font-weight: bold;
            background: #fd7e14;
            color: white;
        }
    </style>
</head>
<body>
    <div class="header">
        <h1>Site Graph for {{.Crawl.Anchor}}</h1>
        <p>Seed {{.Crawl.Seed}} &middot; {{.Crawl.TotalPages}} pages &middot; {{.Crawl.TotalLinks}} links &middot; generated {{.GeneratedAt.Format "January 2, 2006"}}</p>
    </div>

    <div class="card">
        <h2>Summary</h2>
        <p>Overall Grade: <span class="grade">{{.Summary.Grade}}</span></p>
        {{if not .Crawl.Complete}}<p><strong>Crawl stopped early: {{.Crawl.Pending}} pages were never fetched.</strong></p>{{end}}
        <div class="score-grid">
            <div class="score-item">
                <div class="score-value">{{score .Scores.Health}}</div>
                <div class="score-label">Health</div>
            </div>
            <div class="score-item">
                <div class="score-value">{{score .Scores.LinkIntegrity}}</div>
                <div class="score-label">Link Integrity</div>
            </div>
            <div class="score-item">
                <div class="score-value">{{score .Scores.Content}}</div>
                <div class="score-label">Content</div>
            </div>
            <div class="score-item">
                <div class="score-value">{{score .Scores.Overall}}</div>
                <div class="score-label">Overall</div>
            </div>
        </div>
        {{if .Summary.Strengths}}
        <h3>Strengths</h3>
        <ul>{{range .Summary.Strengths}}<li>{{.}}</li>{{end}}</ul>
        {{end}}
        {{if .Summary.Weaknesses}}
        <h3>Areas for Improvement</h3>
        <ul>{{range .Summary.Weaknesses}}<li>{{.}}</li>{{end}}</ul>
        {{end}}
    </div>

    <div class="card">
        <h2>Pages</h2>
        <table>
            <tr><th>URL</th><th>Status</th><th>Code</th><th>Title</th><th>In</th><th>Out</th><th>PageRank</th></tr>
            {{range .Pages}}
            <tr class="{{.Status}}"><td>{{.URL}}</td><td>{{.Status}}</td><td>{{.ResponseCode}}</td><td>{{.Title}}</td><td>{{.InDegree}}</td><td>{{.OutDegree}}</td><td>{{rank .PageRank}}</td></tr>
            {{end}}
        </table>
    </div>

    {{if .Findings}}
    <div class="card">
        <h2>Findings</h2>
        {{range .Findings}}
        <div class="finding {{.Severity}}">
            <h4>{{.Type}}</h4>
            <p>{{.Description}}</p>
            {{if .URLs}}<ul>{{range .URLs}}<li>{{.}}</li>{{end}}</ul>{{end}}
        </div>
        {{end}}
    </div>
    {{end}}

    {{if .Recommendations}}
    <div class="card">
        <h2>Recommendations</h2>
        {{range .Recommendations}}
        <div>
            <span class="priority-badge">{{.Priority}} priority</span>
            <h4>{{.Action}}</h4>
            <p>{{.Description}}</p>
            <p><small>Impact: {{.Impact}} | Effort: {{.Effort}}</small></p>
        </div>
        {{end}}
    </div>
    {{end}}

    {{if .Errors}}
    <div class="card">
        <h2>Errors</h2>
        <ul>{{range .Errors}}<li>{{.}}</li>{{end}}</ul>
    </div>
    {{end}}
</body>
</html>
`
