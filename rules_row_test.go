package dfccore

import (
	"errors"
	"testing"

	"github.com/DataFrameGuard/dfc-core/frame"
)

func TestRowRuleEvaluation(t *testing.T) {
	table := frame.MustNew(
		frame.NewSeries("amount", frame.DtypeFloat64, []any{10.0, -5.0, 20.0}),
		frame.NewSeries("status", frame.DtypeString, []any{"paid", "open", "paid"}),
	)

	tests := []struct {
		name     string
		expr     string
		expected []bool
	}{
		{"numeric comparison", "amount >= 0.0", []bool{false, true, false}},
		{"cross-type comparison", "amount >= 0", []bool{false, true, false}},
		{"string predicate", `status == "paid"`, []bool{false, true, false}},
		{"conjunction", `amount > 0.0 && status == "paid"`, []bool{false, true, false}},
		{"all pass", "amount < 100.0", []bool{false, false, false}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			program, err := compileRowRule(tt.expr, table)
			if err != nil {
				t.Fatalf("compile failed: %v", err)
			}
			mask := program.failingRows(table)
			for i := range tt.expected {
				if mask[i] != tt.expected[i] {
					t.Fatalf("row %d: expected failing=%v, got %v", i, tt.expected[i], mask[i])
				}
			}
		})
	}
}

func TestRowRuleNullRowsFail(t *testing.T) {
	table := frame.MustNew(
		frame.NewSeries("amount", frame.DtypeFloat64, []any{10.0, nil}),
	)

	program, err := compileRowRule("amount >= 0.0", table)
	if err != nil {
		t.Fatalf("compile failed: %v", err)
	}
	mask := program.failingRows(table)
	if mask[0] {
		t.Fatal("valid row must pass")
	}
	if !mask[1] {
		t.Fatal("rows the expression cannot evaluate must fail conservatively")
	}
}

func TestRowRuleCompileError(t *testing.T) {
	table := frame.MustNew(
		frame.NewSeries("amount", frame.DtypeFloat64, []any{1.0}),
	)

	_, err := compileRowRule("amount >>>> 1", table)
	if !errors.Is(err, ErrRuleExecution) {
		t.Fatalf("expected ErrRuleExecution, got %v", err)
	}

	// Referencing a column the dataset lacks is a compile error too.
	_, err = compileRowRule("missing_col > 0", table)
	if !errors.Is(err, ErrRuleExecution) {
		t.Fatalf("expected ErrRuleExecution, got %v", err)
	}
}
