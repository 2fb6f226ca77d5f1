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
	"html"
	"math"
	"os"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/DataFrameGuard/dfc-core/frame"
	"github.com/goccy/go-json"
)

// DefaultQuantiles are the quantile points recorded per numeric column.
var DefaultQuantiles = []float64{0.01, 0.05, 0.25, 0.5, 0.75, 0.95, 0.99}

// DefaultTopK caps the distinct values kept per categorical column.
const DefaultTopK = 20

const (
	SnapshotKindNumeric     = "numeric"
	SnapshotKindCategorical = "categorical"
)

// NumericSnapshot is the statistical fingerprint of a numeric column.
// An empty non-null set yields zeros across the board.
type NumericSnapshot struct {
	Count     int                `json:"count"`
	Mean      float64            `json:"mean"`
	Std       float64            `json:"std"`
	Min       float64            `json:"min"`
	Max       float64            `json:"max"`
	Quantiles map[string]float64 `json:"quantiles"`
}

// TopValue is one categorical value with its normalized frequency.
type TopValue struct {
	Value string  `json:"value"`
	Freq  float64 `json:"freq"`
}

type CategoricalSnapshot struct {
	TopValues []TopValue `json:"top_values"`
}

// ColumnSnapshot tags one column as numeric or categorical and carries the
// matching statistics.
type ColumnSnapshot struct {
	Column      string               `json:"column"`
	Kind        string               `json:"kind"`
	Numeric     *NumericSnapshot     `json:"numeric,omitempty"`
	Categorical *CategoricalSnapshot `json:"categorical,omitempty"`
}

// DriftSnapshot is a per-column statistical fingerprint of a dataset at
// one point in time. Two snapshots are comparable over their shared
// column set.
type DriftSnapshot struct {
	CreatedAt  string                    `json:"created_at"`
	Columns    map[string]ColumnSnapshot `json:"columns"`
	NullRatios map[string]float64        `json:"null_ratios"`
}

// SnapshotOptions tune Snapshot; the zero value means all columns,
// DefaultQuantiles and DefaultTopK.
type SnapshotOptions struct {
	Columns   []string
	Quantiles []float64
	TopK      int
}

// Snapshot computes the statistical fingerprint of a table. Numeric and
// numeric-coercible columns record count, mean, population std, min, max
// and the requested quantiles; everything else records top-K normalized
// value frequencies. Each column also records its null ratio.
func Snapshot(table *frame.Table, opts SnapshotOptions) *DriftSnapshot {
	targets := opts.Columns
	if len(targets) == 0 {
		targets = table.Columns()
	}
	quantiles := opts.Quantiles
	if len(quantiles) == 0 {
		quantiles = DefaultQuantiles
	}
	topk := opts.TopK
	if topk <= 0 {
		topk = DefaultTopK
	}
	columns := make(map[string]ColumnSnapshot, len(targets))
	nullRatios := make(map[string]float64, len(targets))
	for _, name := range targets {
		series, ok := table.Column(name)
		if !ok {
			continue
		}
		nullRatios[name] = series.NullRatio()
		if series.IsNumericDtype() || series.CoercibleNumeric() {
			columns[name] = ColumnSnapshot{
				Column:  name,
				Kind:    SnapshotKindNumeric,
				Numeric: numericSnapshot(series, quantiles),
			}
			continue
		}
		counts := series.ValueCounts()
		if len(counts) > topk {
			counts = counts[:topk]
		}
		top := make([]TopValue, len(counts))
		for i, vc := range counts {
			top[i] = TopValue{Value: vc.Value, Freq: vc.Freq}
		}
		columns[name] = ColumnSnapshot{
			Column:      name,
			Kind:        SnapshotKindCategorical,
			Categorical: &CategoricalSnapshot{TopValues: top},
		}
	}
	return &DriftSnapshot{
		CreatedAt:  time.Now().UTC().Format(time.RFC3339),
		Columns:    columns,
		NullRatios: nullRatios,
	}
}

func numericSnapshot(series *frame.Series, quantiles []float64) *NumericSnapshot {
	values := series.NonNullFloats()
	snap := &NumericSnapshot{
		Count:     len(values),
		Quantiles: map[string]float64{},
	}
	if len(values) == 0 {
		return snap
	}
	snap.Mean = frame.Mean(values)
	snap.Std = frame.StdPop(values)
	snap.Min = frame.Min(values)
	snap.Max = frame.Max(values)
	for _, q := range quantiles {
		snap.Quantiles[formatQuantileKey(q)] = frame.Quantile(values, q)
	}
	return snap
}

func formatQuantileKey(q float64) string {
	return strconv.FormatFloat(q, 'g', -1, 64)
}

// ToJSON renders the snapshot as indented JSON.
func (s *DriftSnapshot) ToJSON() (string, error) {
	payload, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return "", err
	}
	return string(payload), nil
}

// LoadSnapshot reads a snapshot previously persisted with SaveSnapshot.
func LoadSnapshot(path string) (*DriftSnapshot, error) {
	payload, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrContractIO, err)
	}
	var snap DriftSnapshot
	if err := json.Unmarshal(payload, &snap); err != nil {
		return nil, fmt.Errorf("decode snapshot %s: %w", path, err)
	}
	return &snap, nil
}

// SaveSnapshot persists the snapshot as JSON.
func SaveSnapshot(snap *DriftSnapshot, path string) error {
	payload, err := snap.ToJSON()
	if err != nil {
		return fmt.Errorf("encode snapshot %s: %w", path, err)
	}
	if err := os.WriteFile(path, []byte(payload), 0o644); err != nil {
		return fmt.Errorf("%w: %v", ErrContractIO, err)
	}
	return nil
}

// Drift finding kinds.
const (
	DriftKindQuantile  = "quantile"
	DriftKindNullRatio = "null_ratio"
	DriftKindCategory  = "category"
)

// DriftFinding is one detected distribution change.
type DriftFinding struct {
	Column  string         `json:"column"`
	Kind    string         `json:"kind"`
	Details map[string]any `json:"details"`
}

// DriftReport is the outcome of comparing two snapshots.
type DriftReport struct {
	OK       bool           `json:"ok"`
	Findings []DriftFinding `json:"findings"`
}

// DriftThresholds are the per-kind tolerances for CompareSnapshots; the
// zero value falls back to the defaults 0.1 / 0.05 / 0.2.
type DriftThresholds struct {
	Quantile  float64
	NullRatio float64
	Category  float64
}

func (t DriftThresholds) withDefaults() DriftThresholds {
	if t.Quantile == 0 {
		t.Quantile = 0.1
	}
	if t.NullRatio == 0 {
		t.NullRatio = 0.05
	}
	if t.Category == 0 {
		t.Category = 0.2
	}
	return t
}

// CompareSnapshots diffs two snapshots over their shared columns, sorted
// for determinism. Every comparison is strict: a difference exactly equal
// to its threshold is not flagged.
func CompareSnapshots(ref *DriftSnapshot, cur *DriftSnapshot, thresholds DriftThresholds) *DriftReport {
	thresholds = thresholds.withDefaults()
	findings := []DriftFinding{}
	shared := []string{}
	for name := range ref.Columns {
		if _, ok := cur.Columns[name]; ok {
			shared = append(shared, name)
		}
	}
	sort.Strings(shared)
	for _, column := range shared {
		refSnap := ref.Columns[column]
		curSnap := cur.Columns[column]
		if refSnap.Kind == SnapshotKindNumeric && curSnap.Kind == SnapshotKindNumeric &&
			refSnap.Numeric != nil && curSnap.Numeric != nil {
			findings = append(findings, quantileFindings(column, refSnap.Numeric, curSnap.Numeric, thresholds.Quantile)...)
		}
		refNull, refHas := ref.NullRatios[column]
		curNull, curHas := cur.NullRatios[column]
		if refHas && curHas {
			diff := math.Abs(curNull - refNull)
			if diff > thresholds.NullRatio {
				findings = append(findings, DriftFinding{
					Column:  column,
					Kind:    DriftKindNullRatio,
					Details: map[string]any{"ref": refNull, "cur": curNull, "diff": diff},
				})
			}
		}
		if refSnap.Kind == SnapshotKindCategorical && curSnap.Kind == SnapshotKindCategorical &&
			refSnap.Categorical != nil && curSnap.Categorical != nil {
			if finding, drifted := categoryFinding(column, refSnap.Categorical, curSnap.Categorical, thresholds.Category); drifted {
				findings = append(findings, finding)
			}
		}
	}
	return &DriftReport{OK: len(findings) == 0, Findings: findings}
}

func quantileFindings(column string, ref *NumericSnapshot, cur *NumericSnapshot, threshold float64) []DriftFinding {
	keys := make([]string, 0, len(ref.Quantiles))
	for key := range ref.Quantiles {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	findings := []DriftFinding{}
	for _, key := range keys {
		curValue, ok := cur.Quantiles[key]
		if !ok {
			continue
		}
		refValue := ref.Quantiles[key]
		diff := math.Abs(curValue - refValue)
		if diff > threshold {
			findings = append(findings, DriftFinding{
				Column:  column,
				Kind:    DriftKindQuantile,
				Details: map[string]any{"quantile": key, "ref": refValue, "cur": curValue, "diff": diff},
			})
		}
	}
	return findings
}

// categoryFinding measures churn: the reference-weight mass of top-K
// values that vanished from the current top-K.
func categoryFinding(column string, ref *CategoricalSnapshot, cur *CategoricalSnapshot, threshold float64) (DriftFinding, bool) {
	current := map[string]bool{}
	for _, tv := range cur.TopValues {
		current[tv.Value] = true
	}
	missing := []string{}
	churn := 0.0
	for _, tv := range ref.TopValues {
		if !current[tv.Value] {
			missing = append(missing, tv.Value)
			churn += tv.Freq
		}
	}
	if churn <= threshold {
		return DriftFinding{}, false
	}
	sort.Strings(missing)
	return DriftFinding{
		Column:  column,
		Kind:    DriftKindCategory,
		Details: map[string]any{"missing": missing, "churn": churn},
	}, true
}

// ToJSON renders the drift report as indented JSON.
func (r *DriftReport) ToJSON() (string, error) {
	payload, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return "", err
	}
	return string(payload), nil
}

// ToHTML renders the drift report as a minimal self-contained HTML table.
func (r *DriftReport) ToHTML() string {
	var rows strings.Builder
	for _, finding := range r.Findings {
		detail, _ := json.Marshal(finding.Details)
		rows.WriteString("<tr><td>" + html.EscapeString(finding.Column) + "</td><td>" +
			html.EscapeString(finding.Kind) + "</td><td><code>" +
			html.EscapeString(string(detail)) + "</code></td></tr>")
	}
	body := rows.String()
	if body == "" {
		body = "<tr><td colspan='3'>No drift detected.</td></tr>"
	}
	status := "Drift detected"
	if r.OK {
		status = "OK"
	}
	return "<!DOCTYPE html><html><head><meta charset='utf-8'><title>dfc drift report</title>" +
		"<style>table{border-collapse:collapse;width:100%;}th,td{border:1px solid #ddd;padding:8px;}</style>" +
		"</head><body><h1>dfc drift report</h1><p>Status: " + status + "</p>" +
		"<table><thead><tr><th>Column</th><th>Kind</th><th>Details</th></tr></thead>" +
		"<tbody>" + body + "</tbody></table></body></html>"
}
