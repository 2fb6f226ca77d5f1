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

package dfccore

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/DataFrameGuard/dfc-core/frame"
)

// Lint severities.
const (
	LintInfo = "INFO"
	LintWarn = "WARN"
)

// LintSuggestion is a single improvement a contract author can review
// and optionally apply. Suggestions without an apply function are
// advisory only.
type LintSuggestion struct {
	Severity string `json:"severity"`
	Message  string `json:"message"`
	Location string `json:"location"`
	Diff     string `json:"diff"`

	apply func(*Contract)
}

// Apply mutates the contract in place when the suggestion is
// mechanical; advisory suggestions are a no-op.
func (s LintSuggestion) Apply(contract *Contract) {
	if s.apply != nil {
		s.apply(contract)
	}
}

// LintReport aggregates lint findings for a contract against a dataset.
type LintReport struct {
	Suggestions []LintSuggestion `json:"suggestions"`
}

// IsClean reports whether linting produced no suggestions.
func (r *LintReport) IsClean() bool {
	return len(r.Suggestions) == 0
}

// Apply returns a copy of the contract with every applicable suggestion
// folded in. When bump is true the minor version is incremented.
func (r *LintReport) Apply(contract *Contract, bump bool) (*Contract, error) {
	updated, err := contract.Clone()
	if err != nil {
		return nil, err
	}
	for _, suggestion := range r.Suggestions {
		suggestion.Apply(updated)
	}
	if bump {
		updated.Version = BumpVersion(updated.Version)
	}
	return updated, nil
}

// SuggestImprovements lints a contract against sample data, combining
// inference-driven observations with static contract checks.
func SuggestImprovements(contract *Contract, table *frame.Table) *LintReport {
	inference := InferContract(table, contract.Name, InferOptions{Version: contract.Version})
	suggestions := []LintSuggestion{}
	columnMap := contract.ColumnMap()
	for _, observed := range inference.Suggestions {
		column, ok := columnMap[observed.Column]
		if !ok {
			continue
		}
		switch observed.Kind {
		case "non_negative", "positive":
			if column.Min == nil {
				minValue := 0.0
				if observed.Kind == "positive" {
					if raw, ok := observed.Details["min"].(float64); ok && raw > 0 {
						minValue = raw
					}
				}
				suggestions = append(suggestions, minSuggestion(column.Name, minValue, LintWarn))
			}
		case "enum":
			// Enums on numeric or datetime columns are almost always
			// sampling noise.
			if len(column.Enum) == 0 && enumCandidateDtype(column.Dtype) {
				values, _ := observed.Details["values"].([]string)
				suggestions = append(suggestions, enumSuggestion(column.Name, values))
			}
		}
	}
	suggestions = append(suggestions, lintContractRules(contract)...)
	return &LintReport{Suggestions: suggestions}
}

func lintContractRules(contract *Contract) []LintSuggestion {
	results := []LintSuggestion{}
	for _, column := range contract.Columns {
		if column.Nullable.Kind() == NullAllowed {
			results = append(results, LintSuggestion{
				Severity: LintWarn,
				Message:  fmt.Sprintf("Column %q allows any nulls; consider explicit ratio.", column.Name),
				Location: column.Name,
				Diff:     "Set nullable to a float ratio",
			})
		}
		if strings.HasPrefix(column.Dtype, "datetime64") && column.Tz == "" {
			name := column.Name
			results = append(results, LintSuggestion{
				Severity: LintInfo,
				Message:  fmt.Sprintf("Datetime column %q has no timezone; default to UTC.", name),
				Location: name,
				Diff:     "Set tz to 'UTC'",
				apply: func(c *Contract) {
					setColumn(c, name, func(col *ColumnSpec) { col.Tz = "UTC" })
				},
			})
		}
		if numericDtype(column.Dtype) {
			if strings.Contains(strings.ToLower(column.Name), "amount") && belowZero(column.Min) {
				results = append(results, minSuggestion(column.Name, 0, LintWarn))
			}
		}
	}
	return results
}

func numericDtype(dtype string) bool {
	normalized := NormalizeDtype(dtype)
	return strings.HasPrefix(normalized, "int") || strings.HasPrefix(normalized, "float")
}

func enumCandidateDtype(dtype string) bool {
	return !numericDtype(dtype) && !strings.HasPrefix(NormalizeDtype(dtype), "datetime")
}

func belowZero(bound *Bound) bool {
	if bound == nil {
		return true
	}
	value, ok := bound.Float()
	return ok && value < 0
}

func minSuggestion(column string, value float64, severity string) LintSuggestion {
	rendered := strconv.FormatFloat(value, 'g', -1, 64)
	return LintSuggestion{
		Severity: severity,
		Message:  fmt.Sprintf("Column %q appears to be non-negative; set min >= %s.", column, rendered),
		Location: column,
		Diff:     fmt.Sprintf("Set min to %s", rendered),
		apply: func(c *Contract) {
			setColumn(c, column, func(col *ColumnSpec) { col.Min = NumBound(value) })
		},
	}
}

func enumSuggestion(column string, values []string) LintSuggestion {
	return LintSuggestion{
		Severity: LintInfo,
		Message:  fmt.Sprintf("Column %q has low cardinality; define enum of %v.", column, values),
		Location: column,
		Diff:     fmt.Sprintf("Set enum to %v", values),
		apply: func(c *Contract) {
			setColumn(c, column, func(col *ColumnSpec) { col.Enum = values })
		},
	}
}

func setColumn(contract *Contract, name string, mutate func(*ColumnSpec)) {
	for i := range contract.Columns {
		if contract.Columns[i].Name == name {
			mutate(&contract.Columns[i])
			return
		}
	}
}

// BumpVersion increments the minor component of a semantic version and
// resets the patch. Unparseable versions are returned unchanged.
func BumpVersion(version string) string {
	parts := strings.Split(version, ".")
	if len(parts) != 3 {
		return version
	}
	major, err1 := strconv.Atoi(parts[0])
	minor, err2 := strconv.Atoi(parts[1])
	if err1 != nil || err2 != nil {
		return version
	}
	if _, err := strconv.Atoi(parts[2]); err != nil {
		return version
	}
	return fmt.Sprintf("%d.%d.0", major, minor+1)
}
