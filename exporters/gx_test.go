package exporters

import (
	"testing"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func expectationTypes(suite *GxSuite) []string {
	out := make([]string, len(suite.Expectations))
	for i, e := range suite.Expectations {
		out[i] = e.ExpectationType
	}
	return out
}

func TestToGxSuite(t *testing.T) {
	suite := ToGxSuite(exportContract())

	assert.Equal(t, "orders_suite", suite.ExpectationSuiteName)
	assert.Equal(t, "1.0.0", suite.Meta["contract_version"])
	assert.Equal(t, []string{
		"expect_column_values_to_not_be_null",
		"expect_column_values_to_be_unique",
		"expect_column_min_to_be_between",
		"expect_column_values_to_not_be_null",
		"expect_column_values_to_be_in_set",
		"expect_column_min_to_be_between",
	}, expectationTypes(suite))

	inSet := suite.Expectations[4]
	assert.Equal(t, "status", inSet.Kwargs["column"])
	assert.Equal(t, []string{"paid", "open"}, inSet.Kwargs["value_set"])
}

func TestGxSuiteToJSON(t *testing.T) {
	payload, err := ToGxSuite(exportContract()).ToJSON()
	require.NoError(t, err)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(payload, &decoded))
	assert.Equal(t, "orders_suite", decoded["expectation_suite_name"])
	expectations, ok := decoded["expectations"].([]any)
	require.True(t, ok)
	assert.Len(t, expectations, 6)
}
