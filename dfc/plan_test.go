package dfc

import (
	"fmt"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadPlan(t *testing.T) {
	dir := t.TempDir()
	path := writeFixture(t, dir, "plan.yaml", `version: "1"
suites:
  - name: orders
    data: orders.csv
    contract: orders.json
    profile: prod
    checks:
      - row_count > 0
      - not_null(order_id)
  - name: events
    data: events.csv
    sample: 0.5
`)

	plan, err := LoadPlan(path)
	require.NoError(t, err)
	assert.Equal(t, "1", plan.Version)
	require.Len(t, plan.Suites, 2)
	assert.Equal(t, "orders", plan.Suites[0].Name)
	assert.Len(t, plan.Suites[0].Checks, 2)
	assert.Equal(t, 0.5, plan.Suites[1].Sample)
}

func TestLoadPlanRejectsInvalid(t *testing.T) {
	dir := t.TempDir()
	tests := []struct {
		name string
		yaml string
	}{
		{"missing name", "suites:\n  - data: orders.csv\n"},
		{"missing data", "suites:\n  - name: orders\n"},
		{"bad check", "suites:\n  - name: orders\n    data: orders.csv\n    checks: ['levitate(x)']\n"},
	}
	for _, tt := range tests {
		path := writeFixture(t, dir, tt.name+".yaml", tt.yaml)
		if _, err := LoadPlan(path); err == nil {
			t.Errorf("%s: expected an error", tt.name)
		}
	}

	if _, err := LoadPlan(dir + "/absent.yaml"); err == nil {
		t.Error("missing file: expected an error")
	}
}

func TestRunPlan(t *testing.T) {
	dir := t.TempDir()
	writeFixture(t, dir, "orders.csv", ordersCSV)
	writeFixture(t, dir, "orders.json", ordersContractJSON)

	plan := &Plan{Suites: []Suite{
		{
			Name:     "orders",
			Data:     dir + "/orders.csv",
			Contract: dir + "/orders.json",
			Checks:   []string{"row_count > 0", "not_null(order_id)"},
		},
		{
			Name:   "too-small",
			Data:   dir + "/orders.csv",
			Checks: []string{"row_count > 100"},
		},
		{
			Name: "missing-data",
			Data: dir + "/absent.csv",
		},
	}}

	results := RunPlan(plan, 2, nil)
	require.Len(t, results, 3)

	// Sorted by suite name regardless of completion order.
	assert.Equal(t, "missing-data", results[0].Suite)
	assert.Equal(t, "orders", results[1].Suite)
	assert.Equal(t, "too-small", results[2].Suite)

	assert.False(t, results[0].OK)
	assert.NotEmpty(t, results[0].Err)

	orders := results[1]
	assert.True(t, orders.OK)
	require.NotNil(t, orders.Validation)
	assert.True(t, orders.Validation.OK)
	require.Len(t, orders.Checks, 2)

	tooSmall := results[2]
	assert.False(t, tooSmall.OK)
	require.Len(t, tooSmall.Checks, 1)
	assert.False(t, tooSmall.Checks[0].Passed)
	assert.Equal(t, float64(4), tooSmall.Checks[0].Actual)
}

func TestTaskPoolCollectsErrors(t *testing.T) {
	pool := newTaskPool(2, nil)
	var ran atomic.Int32
	for i := 0; i < 5; i++ {
		i := i
		pool.Enqueue(fmt.Sprintf("task-%d", i), func() error {
			ran.Add(1)
			if i%2 == 0 {
				return fmt.Errorf("task %d failed", i)
			}
			return nil
		})
	}
	pool.Join()

	assert.Equal(t, int32(5), ran.Load())
	assert.Len(t, pool.Errors(), 3)
}

func TestTaskPoolClampsSize(t *testing.T) {
	pool := newTaskPool(0, nil)
	pool.Enqueue("only", func() error { return nil })
	pool.Join()
	assert.Empty(t, pool.Errors())
}
