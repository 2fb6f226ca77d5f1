package dfccore

import (
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/DataFrameGuard/dfc-core/frame"
)

func lintTable() *frame.Table {
	return frame.MustNew(
		frame.NewSeries("amount", frame.DtypeFloat64, []any{0.0, 10.0, 20.0}),
		frame.NewSeries("status", frame.DtypeString, []any{"ok", "ok", "bad"}),
		frame.NewSeries("created_at", frame.DtypeDatetime, []any{
			time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC),
			time.Date(2026, 5, 2, 0, 0, 0, 0, time.UTC),
			time.Date(2026, 5, 3, 0, 0, 0, 0, time.UTC),
		}),
	)
}

func lintContract() *Contract {
	return &Contract{
		Name:    "payments",
		Version: "1.0.0",
		Columns: []ColumnSpec{
			{Name: "amount", Dtype: "float64"},
			{Name: "status", Dtype: "string"},
			{Name: "created_at", Dtype: "datetime64[ns]"},
			{Name: "note", Dtype: "string", Nullable: NullsAllowed()},
		},
	}
}

func suggestionAt(report *LintReport, location string, fragment string) *LintSuggestion {
	for i := range report.Suggestions {
		s := &report.Suggestions[i]
		if s.Location == location && strings.Contains(s.Message, fragment) {
			return s
		}
	}
	return nil
}

func TestSuggestImprovements(t *testing.T) {
	report := SuggestImprovements(lintContract(), lintTable())
	if report.IsClean() {
		t.Fatal("expected suggestions")
	}
	if s := suggestionAt(report, "amount", "non-negative"); s == nil || s.Severity != LintWarn {
		t.Errorf("missing min suggestion: %+v", report.Suggestions)
	}
	if s := suggestionAt(report, "status", "low cardinality"); s == nil || s.Severity != LintInfo {
		t.Errorf("missing enum suggestion: %+v", report.Suggestions)
	}
	if s := suggestionAt(report, "created_at", "no timezone"); s == nil || s.Severity != LintInfo {
		t.Errorf("missing timezone suggestion: %+v", report.Suggestions)
	}
	if s := suggestionAt(report, "note", "allows any nulls"); s == nil || s.Severity != LintWarn {
		t.Errorf("missing nullable advisory: %+v", report.Suggestions)
	}
	// Low-cardinality samples must not turn numeric or datetime columns
	// into enums.
	if s := suggestionAt(report, "amount", "low cardinality"); s != nil {
		t.Errorf("unexpected enum suggestion for a numeric column: %+v", *s)
	}
	if s := suggestionAt(report, "created_at", "low cardinality"); s != nil {
		t.Errorf("unexpected enum suggestion for a datetime column: %+v", *s)
	}
}

func TestSuggestImprovementsCleanContract(t *testing.T) {
	contract := lintContract()
	cols := contract.ColumnMap()
	cols["amount"].Min = NumBound(0)
	cols["status"].Enum = []string{"bad", "ok"}
	cols["created_at"].Tz = "UTC"
	contract.Columns = contract.Columns[:3] // drop the open-ended note column

	report := SuggestImprovements(contract, lintTable())
	if !report.IsClean() {
		t.Fatalf("expected a clean report, got %+v", report.Suggestions)
	}
}

func TestLintReportApply(t *testing.T) {
	original := lintContract()
	report := SuggestImprovements(original, lintTable())
	updated, err := report.Apply(original, true)
	if err != nil {
		t.Fatalf("apply: %v", err)
	}

	cols := updated.ColumnMap()
	if cols["amount"].Min == nil {
		t.Error("min suggestion not applied")
	} else if v, _ := cols["amount"].Min.Float(); v != 0 {
		t.Errorf("amount min = %v", cols["amount"].Min)
	}
	if !reflect.DeepEqual(cols["status"].Enum, []string{"bad", "ok"}) {
		t.Errorf("status enum = %v", cols["status"].Enum)
	}
	if cols["created_at"].Tz != "UTC" {
		t.Errorf("created_at tz = %q", cols["created_at"].Tz)
	}
	if updated.Version != "1.1.0" {
		t.Errorf("version = %q, want 1.1.0", updated.Version)
	}

	// The original stays untouched.
	if original.Columns[0].Min != nil || original.Version != "1.0.0" {
		t.Error("apply must not mutate the input contract")
	}
}

func TestLintReportApplyWithoutBump(t *testing.T) {
	original := lintContract()
	report := SuggestImprovements(original, lintTable())
	updated, err := report.Apply(original, false)
	if err != nil {
		t.Fatalf("apply: %v", err)
	}
	if updated.Version != "1.0.0" {
		t.Errorf("version = %q, want 1.0.0", updated.Version)
	}
}

func TestBumpVersion(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"1.0.0", "1.1.0"},
		{"0.9.3", "0.10.0"},
		{"2.1", "2.1"},
		{"v1.2.3", "v1.2.3"},
		{"1.2.beta", "1.2.beta"},
		{"", ""},
	}
	for _, tt := range tests {
		if got := BumpVersion(tt.in); got != tt.want {
			t.Errorf("BumpVersion(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
