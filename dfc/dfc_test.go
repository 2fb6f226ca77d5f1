package dfc

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dfccore "github.com/DataFrameGuard/dfc-core"
)

const ordersCSV = `order_id,amount,status
1,10.5,paid
2,20.0,open
3,30.25,paid
4,5.0,void
`

const ordersContractJSON = `{
  "name": "orders",
  "version": "1.0.0",
  "columns": [
    {"name": "order_id", "dtype": "int64", "nullable": false, "unique": true},
    {"name": "amount", "dtype": "float64", "nullable": false, "min": 0},
    {"name": "status", "dtype": "string", "nullable": false, "enum": ["paid", "open", "void"]}
  ]
}`

func writeFixture(t *testing.T, dir string, name string, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadTableDispatch(t *testing.T) {
	dir := t.TempDir()
	csvPath := writeFixture(t, dir, "orders.csv", ordersCSV)
	jsonPath := writeFixture(t, dir, "orders.json", `[{"order_id": 1, "amount": 10.5}]`)

	table, err := LoadTable(csvPath)
	require.NoError(t, err)
	assert.Equal(t, 4, table.NumRows())

	table, err = LoadTable(jsonPath)
	require.NoError(t, err)
	assert.Equal(t, 1, table.NumRows())

	_, err = LoadTable(filepath.Join(dir, "orders.parquet"))
	require.True(t, errors.Is(err, dfccore.ErrUnsupportedFormat))
}

func TestCheck(t *testing.T) {
	dir := t.TempDir()
	contractPath := writeFixture(t, dir, "orders.json", ordersContractJSON)
	dataPath := writeFixture(t, dir, "orders.csv", ordersCSV)

	report, err := Check(contractPath, dataPath, dfccore.ValidateOptions{}, nil)
	require.NoError(t, err)
	assert.True(t, report.OK)

	badData := writeFixture(t, dir, "bad.csv", "order_id,amount,status\n1,-5.0,paid\n")
	report, err = Check(contractPath, badData, dfccore.ValidateOptions{}, nil)
	require.NoError(t, err)
	assert.False(t, report.OK)
}

func TestDiffContracts(t *testing.T) {
	dir := t.TempDir()
	oldPath := writeFixture(t, dir, "old.json", ordersContractJSON)
	newPath := writeFixture(t, dir, "new.json", `{
  "name": "orders",
  "version": "2.0.0",
  "columns": [
    {"name": "order_id", "dtype": "int64", "nullable": false, "unique": true},
    {"name": "amount", "dtype": "float64", "nullable": false, "min": 0}
  ]
}`)

	diff, err := DiffContracts(oldPath, newPath)
	require.NoError(t, err)
	assert.True(t, diff.IsBreaking())
	assert.Contains(t, diff.Breaking, "status: column removed")
}

func TestSnapshotAndCheckDrift(t *testing.T) {
	dir := t.TempDir()
	dataPath := writeFixture(t, dir, "orders.csv", ordersCSV)

	snap, err := SnapshotData(dataPath, dfccore.SnapshotOptions{})
	require.NoError(t, err)
	snapshotPath := filepath.Join(dir, "baseline.json")
	require.NoError(t, dfccore.SaveSnapshot(snap, snapshotPath))

	report, err := CheckDrift(snapshotPath, dataPath, dfccore.DriftThresholds{})
	require.NoError(t, err)
	assert.True(t, report.OK, "identical data must not drift")

	shifted := writeFixture(t, dir, "shifted.csv", `order_id,amount,status
1,1000.5,paid
2,2000.0,paid
3,3000.25,paid
4,5000.0,paid
`)
	report, err = CheckDrift(snapshotPath, shifted, dfccore.DriftThresholds{})
	require.NoError(t, err)
	assert.False(t, report.OK)
}

func TestInfer(t *testing.T) {
	dir := t.TempDir()
	dataPath := writeFixture(t, dir, "orders.csv", ordersCSV)

	result, err := Infer(dataPath, "")
	require.NoError(t, err)
	assert.Equal(t, "orders", result.Contract.Name, "name defaults to the file basename")
	assert.Len(t, result.Contract.Columns, 3)

	result, err = Infer(dataPath, "sales")
	require.NoError(t, err)
	assert.Equal(t, "sales", result.Contract.Name)
}

func TestLint(t *testing.T) {
	dir := t.TempDir()
	contractPath := writeFixture(t, dir, "orders.json", `{
  "name": "orders",
  "version": "1.0.0",
  "columns": [
    {"name": "order_id", "dtype": "int64", "nullable": false},
    {"name": "amount", "dtype": "float64', "nullable": false}
  ]
}`)
	dataPath := writeFixture(t, dir, "orders.csv", ordersCSV)

	_, _, err := Lint(contractPath, dataPath)
	require.Error(t, err, "malformed contract JSON must fail")

	contractPath = writeFixture(t, dir, "good.json", `{
  "name": "orders",
  "version": "1.0.0",
  "columns": [
    {"name": "order_id", "dtype": "int64", "nullable": false},
    {"name": "amount", "dtype": "float64", "nullable": false}
  ]
}`)
	report, contract, err := Lint(contractPath, dataPath)
	require.NoError(t, err)
	assert.Equal(t, "orders", contract.Name)
	assert.False(t, report.IsClean(), "amount has no min bound")
}
