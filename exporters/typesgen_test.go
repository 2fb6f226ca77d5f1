package exporters

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	dfccore "github.com/DataFrameGuard/dfc-core"
)

func TestToGoStruct(t *testing.T) {
	out := ToGoStruct(exportContract(), "orders")

	assert.True(t, strings.HasPrefix(out, "// Code generated by dfc export-types; DO NOT EDIT.\n"))
	assert.Contains(t, out, "package orders\n")
	assert.Contains(t, out, "import \"time\"\n")
	assert.Contains(t, out, "type OrdersRow struct {\n")
	assert.Contains(t, out, "\tOrderID int64 `json:\"order_id\"`")
	assert.Contains(t, out, "\tAmount *float64 `json:\"amount\"`")
	assert.Contains(t, out, "\tStatus string `json:\"status\"`")
	assert.Contains(t, out, "\tCreatedAt *time.Time `json:\"created_at\"`")
}

func TestToGoStructDefaults(t *testing.T) {
	contract := &dfccore.Contract{
		Name:    "events",
		Columns: []dfccore.ColumnSpec{{Name: "category", Dtype: "category"}},
	}
	out := ToGoStruct(contract, "")
	assert.Contains(t, out, "package types\n")
	assert.Contains(t, out, "\tCategory string `json:\"category\"`")
	assert.NotContains(t, out, "import \"time\"")
}

func TestExportedName(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"order_id", "OrderID"},
		{"api-key", "APIKey"},
		{"created at", "CreatedAt"},
		{"uuid", "UUID"},
		{"2fa_enabled", "Col2faEnabled"},
		{"", "Contract"},
		{"plain", "Plain"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, ExportedName(tt.in), tt.in)
	}
}
