package dfccore

import (
	"strings"
	"testing"
)

func contains(entries []string, substr string) bool {
	for _, entry := range entries {
		if strings.Contains(entry, substr) {
			return true
		}
	}
	return false
}

func baseContract() *Contract {
	return &Contract{
		Name:    "orders",
		Version: "1.0.0",
		Columns: []ColumnSpec{
			{Name: "order_id", Dtype: "int64"},
			{Name: "amount", Dtype: "float64"},
			{Name: "status", Dtype: "string", Enum: []string{"paid", "open", "void"}},
		},
	}
}

func TestCompareContractsIdentical(t *testing.T) {
	diff := CompareContracts(baseContract(), baseContract())
	if diff.IsBreaking() {
		t.Fatalf("identical contracts must not be breaking: %v", diff.Breaking)
	}
	if len(diff.NonBreaking) != 0 || len(diff.ChangedColumns) != 0 {
		t.Fatalf("identical contracts must not differ: %+v", diff)
	}
}

func TestCompareContractsColumnRemoval(t *testing.T) {
	old := baseContract()
	updated := baseContract()
	updated.Columns = updated.Columns[:2] // drop status

	diff := CompareContracts(old, updated)
	if !diff.IsBreaking() {
		t.Fatal("column removal must be breaking")
	}
	if !contains(diff.Breaking, "status: column removed") {
		t.Fatalf("unexpected breaking entries: %v", diff.Breaking)
	}
}

func TestCompareContractsColumnAddition(t *testing.T) {
	old := baseContract()
	updated := baseContract()
	updated.Columns = append(updated.Columns, ColumnSpec{Name: "currency", Dtype: "string"})

	diff := CompareContracts(old, updated)
	if diff.IsBreaking() {
		t.Fatalf("column addition must not be breaking: %v", diff.Breaking)
	}
	if !contains(diff.NonBreaking, "currency: column added") {
		t.Fatalf("unexpected non-breaking entries: %v", diff.NonBreaking)
	}
}

func TestCompareContractsDtypeChanges(t *testing.T) {
	old := baseContract()

	narrowed := baseContract()
	narrowed.Columns[1].Dtype = "int32" // float64 -> int32
	diff := CompareContracts(old, narrowed)
	if !contains(diff.Breaking, "amount: dtype narrowed") {
		t.Fatalf("expected narrowing, got %v", diff.Breaking)
	}
	change, ok := diff.ChangedColumns["amount"]
	if !ok || change.Dtype == nil || change.Dtype.To != "int32" {
		t.Fatalf("missing column change detail: %+v", diff.ChangedColumns)
	}

	widened := baseContract()
	widened.Columns[0].Dtype = "int32"
	oldNarrow := baseContract()
	oldNarrow.Columns[0].Dtype = "int16"
	diff = CompareContracts(oldNarrow, widened)
	if diff.IsBreaking() {
		t.Fatalf("widening must not be breaking: %v", diff.Breaking)
	}
	if !contains(diff.NonBreaking, "order_id: dtype widened") {
		t.Fatalf("expected widening entry, got %v", diff.NonBreaking)
	}
}

func TestCompareContractsNullability(t *testing.T) {
	old := baseContract()
	old.Columns[1].Nullable = NullsMaxRatio(0.1)

	tightened := baseContract()
	tightened.Columns[1].Nullable = NullsForbidden()
	diff := CompareContracts(old, tightened)
	if !contains(diff.Breaking, "amount: nullability tightened") {
		t.Fatalf("expected tightening, got %v", diff.Breaking)
	}

	relaxed := baseContract()
	relaxed.Columns[1].Nullable = NullsAllowed()
	diff = CompareContracts(old, relaxed)
	if diff.IsBreaking() {
		t.Fatalf("relaxing must not be breaking: %v", diff.Breaking)
	}
	if !contains(diff.NonBreaking, "amount: nullability relaxed") {
		t.Fatalf("expected relaxation entry, got %v", diff.NonBreaking)
	}
}

func TestCompareContractsEnumChanges(t *testing.T) {
	old := baseContract()
	updated := baseContract()
	updated.Columns[2].Enum = []string{"paid", "open", "refunded"} // -void +refunded

	diff := CompareContracts(old, updated)
	if !diff.IsBreaking() {
		t.Fatal("removing enum values must be breaking")
	}
	if !contains(diff.Breaking, "enum removed values [void]") {
		t.Fatalf("unexpected breaking entries: %v", diff.Breaking)
	}
	if !contains(diff.NonBreaking, "enum added values [refunded]") {
		t.Fatalf("unexpected non-breaking entries: %v", diff.NonBreaking)
	}
	change := diff.ChangedColumns["status"]
	if change.Enum == nil || len(change.Enum.Removed) != 1 || change.Enum.Removed[0] != "void" {
		t.Fatalf("unexpected enum diff: %+v", change.Enum)
	}
}

func TestCompareContractsRules(t *testing.T) {
	old := baseContract()
	old.Rules = []RuleSpec{
		{ID: "cap", Level: LevelWarn, Kind: RuleKindRow, Expr: "amount < 100.0"},
	}

	// Removal is breaking.
	updated := baseContract()
	diff := CompareContracts(old, updated)
	if !contains(diff.Breaking, "rule cap removed") {
		t.Fatalf("expected rule removal, got %v", diff.Breaking)
	}

	// WARN -> ERROR escalation is breaking.
	escalated := baseContract()
	escalated.Rules = []RuleSpec{
		{ID: "cap", Level: LevelError, Kind: RuleKindRow, Expr: "amount < 100.0"},
	}
	diff = CompareContracts(old, escalated)
	if !contains(diff.Breaking, "rule cap escalated to ERROR") {
		t.Fatalf("expected escalation, got %v", diff.Breaking)
	}
	if _, ok := diff.ChangedRules["cap"]; !ok {
		t.Fatalf("expected rule change detail: %+v", diff.ChangedRules)
	}

	// New ERROR rules are breaking, new WARN rules are not.
	withNew := baseContract()
	withNew.Rules = []RuleSpec{
		{ID: "cap", Level: LevelWarn, Kind: RuleKindRow, Expr: "amount < 100.0"},
		{ID: "floor", Level: LevelError, Kind: RuleKindRow, Expr: "amount >= 0.0"},
		{ID: "hint", Level: LevelWarn, Kind: RuleKindRow, Expr: "amount < 50.0"},
	}
	diff = CompareContracts(old, withNew)
	if !contains(diff.Breaking, "rule floor added") {
		t.Fatalf("expected breaking rule addition, got %v", diff.Breaking)
	}
	if !contains(diff.NonBreaking, "rule hint added") {
		t.Fatalf("expected non-breaking rule addition, got %v", diff.NonBreaking)
	}
}
