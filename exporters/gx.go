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

package exporters

import (
	"github.com/goccy/go-json"

	dfccore "github.com/DataFrameGuard/dfc-core"
)

// GxExpectation is a single Great Expectations expectation.
type GxExpectation struct {
	ExpectationType string         `json:"expectation_type"`
	Kwargs          map[string]any `json:"kwargs"`
}

// GxSuite is a Great Expectations expectation suite.
type GxSuite struct {
	ExpectationSuiteName string          `json:"expectation_suite_name"`
	Expectations         []GxExpectation `json:"expectations"`
	Meta                 map[string]any  `json:"meta"`
}

// ToJSON serializes the suite in the layout Great Expectations loads.
func (s *GxSuite) ToJSON() ([]byte, error) {
	return json.MarshalIndent(s, "", "  ")
}

// ToGxSuite maps contract constraints onto Great Expectations
// expectations: null, uniqueness, value-set and min/max checks.
func ToGxSuite(contract *dfccore.Contract) *GxSuite {
	expectations := []GxExpectation{}
	for _, column := range contract.Columns {
		if column.Nullable.Kind() == dfccore.NullForbidden {
			expectations = append(expectations, GxExpectation{
				ExpectationType: "expect_column_values_to_not_be_null",
				Kwargs:          map[string]any{"column": column.Name},
			})
		}
		if column.Unique {
			expectations = append(expectations, GxExpectation{
				ExpectationType: "expect_column_values_to_be_unique",
				Kwargs:          map[string]any{"column": column.Name},
			})
		}
		if len(column.Enum) > 0 {
			expectations = append(expectations, GxExpectation{
				ExpectationType: "expect_column_values_to_be_in_set",
				Kwargs:          map[string]any{"column": column.Name, "value_set": column.Enum},
			})
		}
		if column.Min != nil {
			expectations = append(expectations, GxExpectation{
				ExpectationType: "expect_column_min_to_be_between",
				Kwargs:          map[string]any{"column": column.Name, "min_value": column.Min},
			})
		}
		if column.Max != nil {
			expectations = append(expectations, GxExpectation{
				ExpectationType: "expect_column_max_to_be_between",
				Kwargs:          map[string]any{"column": column.Name, "max_value": column.Max},
			})
		}
	}
	return &GxSuite{
		ExpectationSuiteName: contract.Name + "_suite",
		Expectations:         expectations,
		Meta:                 map[string]any{"contract_version": contract.Version},
	}
}
