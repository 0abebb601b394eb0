// Package newsletter renders the daily risk digest as an HTML email body
// and writes it to the reports directory.
package newsletter

import (
	"bytes"
	"fmt"
	"html/template"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"cmxcli/internal/snapshot"
)

// Generator renders and writes daily risk digests
type Generator struct {
	reportsDir string
	tmpl       *template.Template
	logger     *slog.Logger
}

// Summary is one metal's line in the digest
type Summary struct {
	Metal          string
	Composite      int
	Level          string
	DominantFactor string
	Commentary     string
	Registered     float64
	Eligible       float64
}

// digest is the template context for one issue
type digest struct {
	Date      string
	Generated string
	Rows      []Summary
	Alerts    []Summary
}

// New creates a generator writing into reportsDir
func New(reportsDir string, logger *slog.Logger) (*Generator, error) {
	if logger == nil {
		logger = slog.Default()
	}

	tmpl, err := template.New("digest").Funcs(template.FuncMap{
		"title":  titleCase,
		"ounces": formatQuantity,
	}).Parse(digestTemplate)
	if err != nil {
		return nil, fmt.Errorf("parse digest template: %w", err)
	}

	if err := os.MkdirAll(reportsDir, 0o755); err != nil {
		return nil, fmt.Errorf("create reports dir: %w", err)
	}

	return &Generator{
		reportsDir: reportsDir,
		tmpl:       tmpl,
		logger:     logger.With(slog.String("component", "newsletter")),
	}, nil
}

// Generate renders the digest for the given rows and writes it to
// cmx_pulse_YYYY-MM-DD.html. Inventory snapshots are optional per metal.
func (g *Generator) Generate(date time.Time, rows []snapshot.RiskScoreRow, inventory map[snapshot.Metal]snapshot.InventorySnapshot) (string, error) {
	if len(rows) == 0 {
		return "", fmt.Errorf("generate digest: no risk scores for %s", date.Format("2006-01-02"))
	}

	d := digest{
		Date:      date.Format("January 2, 2006"),
		Generated: time.Now().Format(time.RFC1123),
	}

	sorted := make([]snapshot.RiskScoreRow, len(rows))
	copy(sorted, rows)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Composite > sorted[j].Composite
	})

	for _, row := range sorted {
		s := Summary{
			Metal:          row.Metal.String(),
			Composite:      row.Composite,
			Level:          row.Level.String(),
			DominantFactor: row.DominantFactor,
			Commentary:     row.Commentary,
		}
		if inv, ok := inventory[row.Metal]; ok {
			s.Registered = inv.Registered
			s.Eligible = inv.Eligible
		}
		d.Rows = append(d.Rows, s)
		if row.Level.String() == "HIGH" || row.Level.String() == "EXTREME" {
			d.Alerts = append(d.Alerts, s)
		}
	}

	var buf bytes.Buffer
	if err := g.tmpl.Execute(&buf, d); err != nil {
		return "", fmt.Errorf("render digest: %w", err)
	}

	filename := fmt.Sprintf("cmx_pulse_%s.html", date.Format("2006-01-02"))
	path := filepath.Join(g.reportsDir, filename)
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		return "", fmt.Errorf("write digest: %w", err)
	}

	g.logger.Info("digest written",
		slog.String("path", path),
		slog.Int("metals", len(d.Rows)),
		slog.Int("alerts", len(d.Alerts)))

	return path, nil
}

// titleCase capitalizes the first letter of a metal name
func titleCase(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

// formatQuantity renders a troy ounce (or pound) quantity with thousands
// separators for the email body.
func formatQuantity(v float64) string {
	s := fmt.Sprintf("%.0f", v)
	var out []byte
	for i, ch := range []byte(s) {
		if i > 0 && (len(s)-i)%3 == 0 && ch != '-' {
			out = append(out, ',')
		}
		out = append(out, ch)
	}
	return string(out)
}

const digestTemplate = `<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<title>CMX Pulse Daily Risk Digest</title>
<style>
body { font-family: Arial, sans-serif; color: #1a1a2e; margin: 0; padding: 24px; }
h1 { font-size: 20px; }
table { border-collapse: collapse; width: 100%; margin-top: 12px; }
th, td { border: 1px solid #d8d8e0; padding: 8px 10px; text-align: left; font-size: 13px; }
th { background: #16213e; color: #ffffff; }
.level-LOW { color: #2e7d32; font-weight: bold; }
.level-MODERATE { color: #f9a825; font-weight: bold; }
.level-HIGH { color: #ef6c00; font-weight: bold; }
.level-EXTREME { color: #c62828; font-weight: bold; }
.alert { background: #fdecea; border-left: 4px solid #c62828; padding: 10px 14px; margin: 8px 0; font-size: 13px; }
.footer { margin-top: 24px; font-size: 11px; color: #8a8a9a; }
</style>
</head>
<body>
<h1>CMX Pulse &mdash; Warehouse Risk Digest for {{.Date}}</h1>
{{if .Alerts}}
<h2>Alerts</h2>
{{range .Alerts}}
<div class="alert"><strong>{{title .Metal}}</strong> is <span class="level-{{.Level}}">{{.Level}}</span> ({{.Composite}}/100), driven by {{.DominantFactor}}. {{.Commentary}}</div>
{{end}}
{{end}}
<h2>Composite Risk Scores</h2>
<table>
<tr><th>Metal</th><th>Score</th><th>Level</th><th>Dominant Factor</th><th>Registered</th><th>Eligible</th></tr>
{{range .Rows}}
<tr>
<td>{{title .Metal}}</td>
<td>{{.Composite}}</td>
<td class="level-{{.Level}}">{{.Level}}</td>
<td>{{.DominantFactor}}</td>
<td>{{ounces .Registered}}</td>
<td>{{ounces .Eligible}}</td>
</tr>
{{end}}
</table>
<div class="footer">Generated {{.Generated}} by CMX Pulse. Scores are informational and not trading advice.</div>
</body>
</html>
`
