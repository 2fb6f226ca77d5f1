// Copyright 2025 The DFC Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//      http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package dfccore

import (
	"fmt"
	"html/template"
	"io"
	"strings"
	"time"

	"github.com/beevik/etree"
	"github.com/fatih/color"
	"github.com/goccy/go-json"
	"github.com/olekukonko/tablewriter"
)

// ViolationKind locates where a violation was detected.
type ViolationKind string

const (
	ViolationKindSchema ViolationKind = "schema"
	ViolationKindColumn ViolationKind = "column"
	ViolationKindRow    ViolationKind = "row"
	ViolationKindTable  ViolationKind = "table"
)

// Violation is one detected breach of a contract check. Values are
// immutable once emitted and aggregate into a ValidationReport; they are
// never raised as errors.
type Violation struct {
	ID       string           `json:"id"`
	Level    Level            `json:"level"`
	Kind     ViolationKind    `json:"kind"`
	Columns  []string         `json:"columns"`
	Summary  string           `json:"summary"`
	Count    int              `json:"count"`
	Examples []map[string]any `json:"examples"`
}

// ValidationStats carries dataset size and wall-clock duration of one
// validation pass.
type ValidationStats struct {
	Rows       int   `json:"rows"`
	Cols       int   `json:"cols"`
	DurationMs int64 `json:"duration_ms"`
}

// ValidationReport is the aggregate outcome of one validation call.
// Read-only once returned.
type ValidationReport struct {
	OK          bool            `json:"ok"`
	Stats       ValidationStats `json:"stats"`
	Violations  []Violation     `json:"violations"`
	SchemaDiffs []string        `json:"schema_diffs"`
	Profile     string          `json:"profile"`
	Snapshot    *DriftSnapshot  `json:"snapshot,omitempty"`
}

// ToJSON renders the report as indented JSON.
func (r *ValidationReport) ToJSON() (string, error) {
	payload, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return "", err
	}
	return string(payload), nil
}

// ToJUnit renders the report as a JUnit-style test suite: one test case
// per violation, ERROR as a failure and WARN as skipped.
func (r *ValidationReport) ToJUnit() (string, error) {
	doc := etree.NewDocument()
	doc.CreateProcInst("xml", `version="1.0" encoding="UTF-8"`)
	failures, skipped := 0, 0
	for _, v := range r.Violations {
		switch v.Level {
		case LevelError:
			failures++
		case LevelWarn:
			skipped++
		}
	}
	suite := doc.CreateElement("testsuite")
	suite.CreateAttr("name", "dfc-contracts")
	suite.CreateAttr("tests", fmt.Sprintf("%d", len(r.Violations)))
	suite.CreateAttr("failures", fmt.Sprintf("%d", failures))
	suite.CreateAttr("skipped", fmt.Sprintf("%d", skipped))
	suite.CreateAttr("timestamp", time.Now().UTC().Format(time.RFC3339))
	for _, v := range r.Violations {
		testcase := suite.CreateElement("testcase")
		testcase.CreateAttr("classname", string(v.Kind))
		testcase.CreateAttr("name", v.ID)
		switch v.Level {
		case LevelError:
			failure := testcase.CreateElement("failure")
			failure.CreateAttr("message", v.Summary)
			failure.SetText(fmt.Sprintf("Count: %d", v.Count))
		case LevelWarn:
			skip := testcase.CreateElement("skipped")
			skip.CreateAttr("message", v.Summary)
		}
	}
	doc.Indent(2)
	return doc.WriteToString()
}

// ToMarkdown renders a summary table suitable for a pull-request comment.
func (r *ValidationReport) ToMarkdown() string {
	if len(r.Violations) == 0 && len(r.SchemaDiffs) == 0 {
		return "✅ Validation succeeded with no findings."
	}
	lines := []string{"## dfc validation report", ""}
	if len(r.SchemaDiffs) > 0 {
		lines = append(lines, "### Schema differences")
		for _, diff := range r.SchemaDiffs {
			lines = append(lines, "- "+diff)
		}
		lines = append(lines, "")
	}
	if len(r.Violations) > 0 {
		lines = append(lines,
			"### Violations",
			"| ID | Level | Kind | Columns | Summary | Count |",
			"| --- | --- | --- | --- | --- | --- |")
		for _, v := range r.Violations {
			lines = append(lines, fmt.Sprintf("| %s | %s | %s | %s | %s | %d |",
				v.ID, v.Level, v.Kind, strings.Join(v.Columns, ", "), v.Summary, v.Count))
		}
	}
	return strings.Join(lines, "\n")
}

var reportTemplate = template.Must(template.New("report").Parse(`<!DOCTYPE html>
<html>
<head>
  <meta charset="utf-8">
  <title>dfc validation</title>
  <style>
    body { font-family: -apple-system, BlinkMacSystemFont, 'Segoe UI', sans-serif; margin: 2rem; }
    table { border-collapse: collapse; width: 100%; margin-top: 1rem; }
    th, td { border: 1px solid #ddd; padding: 8px; }
    th { background: #f2f2f2; }
    .ok { color: #2e8540; }
    .fail { color: #b10e1e; }
    .level-ERROR { background: #ffe6e6; }
    .level-WARN { background: #fff8e6; }
  </style>
</head>
<body>
  <h1>dfc validation</h1>
  <p>Status: <strong class="{{if .OK}}ok{{else}}fail{{end}}">{{if .OK}}PASSED{{else}}FAILED{{end}}</strong></p>
  <p>Rows: {{.Stats.Rows}} &middot; Columns: {{.Stats.Cols}} &middot; Profile: {{.Profile}} &middot; Generated: {{.GeneratedAt}}</p>
{{if .SchemaDiffs}}  <h2>Schema differences</h2>
  <ul>
{{range .SchemaDiffs}}    <li>{{.}}</li>
{{end}}  </ul>
{{end}}{{if .Rows}}  <h2>Violations</h2>
  <table>
    <thead>
      <tr><th>ID</th><th>Level</th><th>Kind</th><th>Columns</th><th>Summary</th><th>Count</th></tr>
    </thead>
    <tbody>
{{range .Rows}}      <tr class="level-{{.Level}}">
        <td>{{.ID}}</td><td>{{.Level}}</td><td>{{.Kind}}</td><td>{{.Columns}}</td><td>{{.Summary}}</td><td>{{.Count}}</td>
      </tr>
{{end}}    </tbody>
  </table>
{{else}}  <p>No violations detected.</p>
{{end}}</body>
</html>
`))

type htmlReportRow struct {
	ID      string
	Level   Level
	Kind    ViolationKind
	Columns string
	Summary string
	Count   int
}

// ToHTML renders a self-contained HTML document with inline styles and
// one row per violation.
func (r *ValidationReport) ToHTML() (string, error) {
	rows := make([]htmlReportRow, len(r.Violations))
	for i, v := range r.Violations {
		rows[i] = htmlReportRow{
			ID:      v.ID,
			Level:   v.Level,
			Kind:    v.Kind,
			Columns: strings.Join(v.Columns, ", "),
			Summary: v.Summary,
			Count:   v.Count,
		}
	}
	data := struct {
		OK          bool
		Stats       ValidationStats
		Profile     string
		GeneratedAt string
		SchemaDiffs []string
		Rows        []htmlReportRow
	}{
		OK:          r.OK,
		Stats:       r.Stats,
		Profile:     r.Profile,
		GeneratedAt: time.Now().UTC().Format(time.RFC3339),
		SchemaDiffs: r.SchemaDiffs,
		Rows:        rows,
	}
	var buf strings.Builder
	if err := reportTemplate.Execute(&buf, data); err != nil {
		return "", err
	}
	return buf.String(), nil
}

// WriteConsole prints the report as a colored table, the way the check
// command shows it.
func (r *ValidationReport) WriteConsole(w io.Writer) {
	if r.OK {
		fmt.Fprintln(w, color.New(color.FgGreen, color.Bold).Sprint("VALIDATION PASSED"))
	} else {
		fmt.Fprintln(w, color.New(color.FgRed, color.Bold).Sprint("VALIDATION FAILED"))
	}
	fmt.Fprintf(w, "Rows: %d  Columns: %d  Profile: %s  Duration: %dms\n",
		r.Stats.Rows, r.Stats.Cols, r.Profile, r.Stats.DurationMs)
	if len(r.SchemaDiffs) > 0 {
		fmt.Fprintln(w, color.New(color.FgRed).Sprint("Schema differences:"))
		for _, diff := range r.SchemaDiffs {
			fmt.Fprintf(w, "- %s\n", diff)
		}
	}
	if len(r.Violations) == 0 {
		fmt.Fprintln(w, "No violations detected.")
		return
	}
	table := tablewriter.NewTable(w)
	table.Header("ID", "Level", "Kind", "Columns", "Summary", "Count")
	for _, v := range r.Violations {
		table.Append([]string{
			v.ID,
			string(v.Level),
			string(v.Kind),
			strings.Join(v.Columns, ", "),
			v.Summary,
			fmt.Sprintf("%d", v.Count),
		})
	}
	table.Render()
}
