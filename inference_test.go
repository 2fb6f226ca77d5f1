package dfccore

import (
	"reflect"
	"testing"
	"time"

	"github.com/DataFrameGuard/dfc-core/frame"
)

func inferenceTable() *frame.Table {
	return frame.MustNew(
		frame.NewSeries("user_id", frame.DtypeInt64, []any{int64(1), int64(2), int64(3), int64(4), int64(5)}),
		frame.NewSeries("amount", frame.DtypeFloat64, []any{0.0, 10.5, 20.0, nil, 30.0}),
		frame.NewSeries("status", frame.DtypeString, []any{"active", "closed", "active", "closed", "active"}),
	)
}

func findSuggestion(suggestions []InferenceSuggestion, kind string, column string) *InferenceSuggestion {
	for i := range suggestions {
		if suggestions[i].Kind == kind && suggestions[i].Column == column {
			return &suggestions[i]
		}
	}
	return nil
}

func TestInferContract(t *testing.T) {
	result := InferContract(inferenceTable(), "users", InferOptions{EnumMaxCardinality: 3})
	contract := result.Contract
	if contract.Name != "users" || contract.Version != "0.1.0" {
		t.Fatalf("unexpected header: %s %s", contract.Name, contract.Version)
	}
	cols := contract.ColumnMap()

	userID := cols["user_id"]
	if userID.Dtype != "int64" || !userID.Unique {
		t.Errorf("user_id spec = %+v", userID)
	}
	if userID.Nullable != NullsForbidden() {
		t.Errorf("user_id nullable = %v", userID.Nullable)
	}
	if v, _ := userID.Min.Float(); v != 1 {
		t.Errorf("user_id min = %v", userID.Min)
	}
	if v, _ := userID.Max.Float(); v != 5 {
		t.Errorf("user_id max = %v", userID.Max)
	}
	if userID.Enum != nil {
		t.Errorf("user_id cardinality exceeds the enum cap, got enum %v", userID.Enum)
	}

	amount := cols["amount"]
	if amount.Nullable != NullsMaxRatio(0.2) {
		t.Errorf("amount nullable = %v", amount.Nullable)
	}
	if v, _ := amount.Min.Float(); v != 0 {
		t.Errorf("amount min = %v", amount.Min)
	}
	if v, _ := amount.Max.Float(); v != 30 {
		t.Errorf("amount max = %v", amount.Max)
	}

	status := cols["status"]
	if !reflect.DeepEqual(status.Enum, []string{"active", "closed"}) {
		t.Errorf("status enum = %v", status.Enum)
	}
	if status.Unique {
		t.Error("status must not be inferred unique")
	}
}

func TestInferContractNullableThreshold(t *testing.T) {
	result := InferContract(inferenceTable(), "users", InferOptions{NullableThreshold: 0.25})
	amount := result.Contract.ColumnMap()["amount"]
	if amount.Nullable != NullsForbidden() {
		t.Errorf("null ratio below threshold must infer forbidden, got %v", amount.Nullable)
	}
}

func TestInferContractDatetimePromotion(t *testing.T) {
	table := frame.MustNew(
		frame.NewSeries("event_date", frame.DtypeString, []any{"2026-01-01", "2026-01-02", "2026-01-03"}),
	)
	spec := InferContract(table, "events", InferOptions{}).Contract.Columns[0]
	if spec.Dtype != frame.DtypeDatetime {
		t.Fatalf("expected datetime promotion, got %s", spec.Dtype)
	}
	if spec.Min == nil || spec.Max == nil {
		t.Fatal("expected datetime bounds")
	}
	if ts, ok := spec.Min.Time(); !ok || !ts.Equal(time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("min bound = %v", spec.Min)
	}
}

func TestInferSuggestions(t *testing.T) {
	result := InferContract(inferenceTable(), "users", InferOptions{})
	if s := findSuggestion(result.Suggestions, "positive", "user_id"); s == nil {
		t.Error("expected a positive suggestion for user_id")
	}
	if s := findSuggestion(result.Suggestions, "non_negative", "amount"); s == nil {
		t.Error("expected a non_negative suggestion for amount")
	} else if s.Details["min"] != 0.0 {
		t.Errorf("non_negative details = %v", s.Details)
	}
	if s := findSuggestion(result.Suggestions, "enum", "status"); s == nil {
		t.Error("expected an enum suggestion for status")
	}
}

func TestInferMonotonicSuggestion(t *testing.T) {
	table := frame.MustNew(
		frame.NewSeries("observed_at", frame.DtypeDatetime, []any{
			time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC),
			time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC),
			time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC),
		}),
	)
	result := InferContract(table, "events", InferOptions{})
	if findSuggestion(result.Suggestions, "monotonic_increasing", "observed_at") == nil {
		t.Error("expected a monotonic suggestion")
	}
}

func TestInferRangePairSuggestion(t *testing.T) {
	table := frame.MustNew(
		frame.NewSeries("start", frame.DtypeFloat64, []any{1.0, 2.0, 3.0}),
		frame.NewSeries("end", frame.DtypeFloat64, []any{1.0, 5.0, 9.0}),
	)
	result := InferContract(table, "ranges", InferOptions{})
	if findSuggestion(result.Suggestions, "range_pair", "start->end") == nil {
		t.Fatal("expected a range_pair suggestion")
	}

	// A single inverted row disqualifies the pair.
	inverted := frame.MustNew(
		frame.NewSeries("start", frame.DtypeFloat64, []any{1.0, 7.0}),
		frame.NewSeries("end", frame.DtypeFloat64, []any{2.0, 6.0}),
	)
	result = InferContract(inverted, "ranges", InferOptions{})
	if findSuggestion(result.Suggestions, "range_pair", "start->end") != nil {
		t.Fatal("inverted rows must not suggest a range pair")
	}
}
