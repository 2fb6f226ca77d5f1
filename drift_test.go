package dfccore

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/DataFrameGuard/dfc-core/frame"
)

func numericColumn(name string, values ...float64) *frame.Series {
	cells := make([]any, len(values))
	for i, v := range values {
		cells[i] = v
	}
	return frame.NewSeries(name, frame.DtypeFloat64, cells)
}

func TestSnapshotNumeric(t *testing.T) {
	table := frame.MustNew(numericColumn("amount", 1, 2, 3, 4))

	snap := Snapshot(table, SnapshotOptions{})
	column, ok := snap.Columns["amount"]
	if !ok || column.Kind != SnapshotKindNumeric {
		t.Fatalf("expected numeric snapshot, got %+v", column)
	}
	if column.Numeric.Count != 4 || column.Numeric.Mean != 2.5 {
		t.Fatalf("unexpected stats: %+v", column.Numeric)
	}
	if column.Numeric.Min != 1 || column.Numeric.Max != 4 {
		t.Fatalf("unexpected bounds: %+v", column.Numeric)
	}
	if column.Numeric.Quantiles["0.5"] != 2.5 {
		t.Fatalf("unexpected median: %v", column.Numeric.Quantiles)
	}
	if snap.NullRatios["amount"] != 0 {
		t.Fatalf("unexpected null ratio: %v", snap.NullRatios)
	}
}

func TestSnapshotCategorical(t *testing.T) {
	table := frame.MustNew(
		frame.NewSeries("status", frame.DtypeString, []any{"paid", "paid", "open", nil}),
	)

	snap := Snapshot(table, SnapshotOptions{})
	column := snap.Columns["status"]
	if column.Kind != SnapshotKindCategorical {
		t.Fatalf("expected categorical snapshot, got %s", column.Kind)
	}
	top := column.Categorical.TopValues
	if len(top) != 2 || top[0].Value != "paid" {
		t.Fatalf("unexpected top values: %v", top)
	}
	if snap.NullRatios["status"] != 0.25 {
		t.Fatalf("unexpected null ratio: %v", snap.NullRatios["status"])
	}
}

func TestSnapshotEmptyColumn(t *testing.T) {
	table := frame.MustNew(
		frame.NewSeries("amount", frame.DtypeFloat64, []any{nil, nil}),
	)

	snap := Snapshot(table, SnapshotOptions{})
	column := snap.Columns["amount"]
	if column.Numeric.Count != 0 || column.Numeric.Mean != 0 {
		t.Fatalf("all-null column must yield zeros: %+v", column.Numeric)
	}
}

func quantileOnlySnapshot(column string, median float64) *DriftSnapshot {
	return &DriftSnapshot{
		Columns: map[string]ColumnSnapshot{
			column: {
				Column:  column,
				Kind:    SnapshotKindNumeric,
				Numeric: &NumericSnapshot{Count: 1, Quantiles: map[string]float64{"0.5": median}},
			},
		},
		NullRatios: map[string]float64{column: 0},
	}
}

func TestCompareSnapshotsThresholdIsStrict(t *testing.T) {
	ref := quantileOnlySnapshot("amount", 1.0)

	// A shift exactly equal to the threshold must not flag.
	report := CompareSnapshots(ref, quantileOnlySnapshot("amount", 1.25), DriftThresholds{Quantile: 0.25})
	if !report.OK {
		t.Fatalf("diff equal to threshold must not flag: %v", report.Findings)
	}

	// Just beyond it must.
	report = CompareSnapshots(ref, quantileOnlySnapshot("amount", 1.5), DriftThresholds{Quantile: 0.25})
	if report.OK {
		t.Fatal("diff beyond threshold must flag")
	}
	if report.Findings[0].Kind != DriftKindQuantile {
		t.Fatalf("unexpected finding kind: %s", report.Findings[0].Kind)
	}
}

func TestCompareSnapshotsNullRatio(t *testing.T) {
	ref := Snapshot(frame.MustNew(
		frame.NewSeries("email", frame.DtypeString, []any{"a", "b", "c", "d"}),
	), SnapshotOptions{})
	cur := Snapshot(frame.MustNew(
		frame.NewSeries("email", frame.DtypeString, []any{"a", nil, nil, "d"}),
	), SnapshotOptions{})

	report := CompareSnapshots(ref, cur, DriftThresholds{})
	if report.OK {
		t.Fatal("null ratio jump must flag")
	}
	found := false
	for _, finding := range report.Findings {
		if finding.Kind == DriftKindNullRatio && finding.Column == "email" {
			found = true
			if finding.Details["diff"] != 0.5 {
				t.Fatalf("unexpected diff: %v", finding.Details)
			}
		}
	}
	if !found {
		t.Fatalf("missing null_ratio finding: %v", report.Findings)
	}
}

func TestCompareSnapshotsCategoryChurn(t *testing.T) {
	ref := Snapshot(frame.MustNew(
		frame.NewSeries("status", frame.DtypeString, []any{"paid", "paid", "open", "void"}),
	), SnapshotOptions{})
	cur := Snapshot(frame.MustNew(
		frame.NewSeries("status", frame.DtypeString, []any{"refunded", "refunded", "chargeback", "chargeback"}),
	), SnapshotOptions{})

	report := CompareSnapshots(ref, cur, DriftThresholds{})
	if report.OK {
		t.Fatal("full categorical turnover must flag")
	}
	found := false
	for _, finding := range report.Findings {
		if finding.Kind == DriftKindCategory {
			found = true
			if finding.Details["churn"] != 1.0 {
				t.Fatalf("expected churn 1.0, got %v", finding.Details["churn"])
			}
		}
	}
	if !found {
		t.Fatalf("missing category finding: %v", report.Findings)
	}
}

func TestCompareSnapshotsIgnoresUnsharedColumns(t *testing.T) {
	ref := Snapshot(frame.MustNew(numericColumn("a", 1, 2)), SnapshotOptions{})
	cur := Snapshot(frame.MustNew(numericColumn("b", 100, 200)), SnapshotOptions{})

	report := CompareSnapshots(ref, cur, DriftThresholds{})
	if !report.OK {
		t.Fatalf("no shared columns means no findings: %v", report.Findings)
	}
}

func TestSnapshotRoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "snapshot.json")

	snap := Snapshot(frame.MustNew(numericColumn("amount", 1, 2, 3)), SnapshotOptions{})
	if err := SaveSnapshot(snap, path); err != nil {
		t.Fatalf("save failed: %v", err)
	}
	loaded, err := LoadSnapshot(path)
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if loaded.Columns["amount"].Numeric.Mean != 2 {
		t.Fatalf("round trip lost data: %+v", loaded.Columns["amount"])
	}

	report := CompareSnapshots(snap, loaded, DriftThresholds{})
	if !report.OK {
		t.Fatalf("identical snapshots must not drift: %v", report.Findings)
	}

	if _, err := LoadSnapshot(filepath.Join(dir, "missing.json")); err == nil {
		t.Fatal("expected error for missing file")
	}
	_ = os.Remove(path)
}
