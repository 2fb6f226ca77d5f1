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
	"math"

	"github.com/DataFrameGuard/dfc-core/frame"
)

// TableCheck receives the full dataset plus the rule's parameter mapping
// and returns the subset of rows violating the rule; an empty result is a
// pass. Parameter problems are configuration errors, not data violations.
type TableCheck func(table *frame.Table, params map[string]any) (*frame.Table, error)

var tableChecks = map[string]TableCheck{
	"start_le_end":          checkStartLeEnd,
	"non_decreasing_by_key": checkNonDecreasingByKey,
	"within_tolerance":      checkWithinTolerance,
	"functional_dependency": checkFunctionalDependency,
}

// RegisterTableCheck adds a caller-supplied check to the registry under
// the given name, replacing any previous registration. Intended for
// startup-time extension; the registry is not synchronized.
func RegisterTableCheck(name string, fn TableCheck) {
	tableChecks[name] = fn
}

// LookupTableCheck resolves a registered check by name.
func LookupTableCheck(name string) (TableCheck, bool) {
	fn, ok := tableChecks[name]
	return fn, ok
}

// checkStartLeEnd flags rows where the start column exceeds the end
// column. Pairs compare numerically when both sides coerce to numbers,
// as timestamps otherwise; rows with nulls or unparseable cells pass.
func checkStartLeEnd(table *frame.Table, params map[string]any) (*frame.Table, error) {
	startName, err := paramString(params, "start")
	if err != nil {
		return nil, err
	}
	endName, err := paramString(params, "end")
	if err != nil {
		return nil, err
	}
	start, err := requireColumn(table, startName)
	if err != nil {
		return nil, err
	}
	end, err := requireColumn(table, endName)
	if err != nil {
		return nil, err
	}
	mask := make([]bool, table.NumRows())
	for i := 0; i < table.NumRows(); i++ {
		if sv, ok := start.Float(i); ok {
			if ev, ok := end.Float(i); ok {
				mask[i] = sv > ev
				continue
			}
		}
		if st, ok := start.Time(i); ok {
			if et, ok := end.Time(i); ok {
				mask[i] = st.After(et)
			}
		}
	}
	return table.Filter(mask).Select(startName, endName), nil
}

// checkNonDecreasingByKey flags any row where the column decreased from
// the immediately preceding row, within each group defined by "by" or
// globally when "by" is empty. Rows are taken strictly in their current
// order; no sorting happens first.
func checkNonDecreasingByKey(table *frame.Table, params map[string]any) (*frame.Table, error) {
	colName, err := paramString(params, "col")
	if err != nil {
		return nil, err
	}
	series, err := requireColumn(table, colName)
	if err != nil {
		return nil, err
	}
	byCols := paramStrings(params, "by")
	values, ok := series.Floats()
	resultCols := append(append([]string{}, byCols...), colName)
	if len(byCols) == 0 {
		mask := decreaseMask(values, ok, allRows(table.NumRows()))
		return table.Filter(mask).Select(resultCols...), nil
	}
	mask := make([]bool, table.NumRows())
	for _, group := range table.GroupBy(byCols) {
		for i, flagged := range decreaseMask(values, ok, group.Rows) {
			if flagged {
				mask[group.Rows[i]] = true
			}
		}
	}
	return table.Filter(mask).Select(resultCols...), nil
}

func decreaseMask(values []float64, ok []bool, rows []int) []bool {
	mask := make([]bool, len(rows))
	for i := 1; i < len(rows); i++ {
		prev, cur := rows[i-1], rows[i]
		if ok[prev] && ok[cur] && values[cur] < values[prev] {
			mask[i] = true
		}
	}
	return mask
}

// checkWithinTolerance flags rows where |lhs - rhs| exceeds tol. Rows
// where either side is null or non-numeric pass.
func checkWithinTolerance(table *frame.Table, params map[string]any) (*frame.Table, error) {
	lhsName, err := paramString(params, "lhs")
	if err != nil {
		return nil, err
	}
	rhsName, err := paramString(params, "rhs")
	if err != nil {
		return nil, err
	}
	tol := paramFloat(params, "tol", 0.0)
	lhs, err := requireColumn(table, lhsName)
	if err != nil {
		return nil, err
	}
	rhs, err := requireColumn(table, rhsName)
	if err != nil {
		return nil, err
	}
	mask := make([]bool, table.NumRows())
	for i := 0; i < table.NumRows(); i++ {
		lv, lok := lhs.Float(i)
		rv, rok := rhs.Float(i)
		if lok && rok {
			mask[i] = math.Abs(lv-rv) > tol
		}
	}
	return table.Filter(mask).Select(lhsName, rhsName), nil
}

// checkFunctionalDependency flags every row whose lhs key maps to more
// than one distinct rhs combination anywhere in the dataset.
func checkFunctionalDependency(table *frame.Table, params map[string]any) (*frame.Table, error) {
	lhs := paramStrings(params, "lhs")
	rhs := paramStrings(params, "rhs")
	if len(lhs) == 0 || len(rhs) == 0 {
		return table.Filter(make([]bool, table.NumRows())).Select(append(lhs, rhs...)...), nil
	}
	rhsSeries := make([]*frame.Series, 0, len(rhs))
	for _, name := range rhs {
		series, err := requireColumn(table, name)
		if err != nil {
			return nil, err
		}
		rhsSeries = append(rhsSeries, series)
	}
	mask := make([]bool, table.NumRows())
	for _, group := range table.GroupBy(lhs) {
		distinct := map[string]struct{}{}
		for _, row := range group.Rows {
			key := ""
			for _, series := range rhsSeries {
				key += frame.FormatValue(series.Values[row]) + "\x1f"
			}
			distinct[key] = struct{}{}
		}
		if len(distinct) > 1 {
			for _, row := range group.Rows {
				mask[row] = true
			}
		}
	}
	return table.Filter(mask).Select(append(append([]string{}, lhs...), rhs...)...), nil
}

func requireColumn(table *frame.Table, name string) (*frame.Series, error) {
	series, ok := table.Column(name)
	if !ok {
		return nil, fmt.Errorf("%w: column %s not in dataset", ErrRuleExecution, name)
	}
	return series, nil
}

func paramString(params map[string]any, key string) (string, error) {
	raw, ok := params[key]
	if !ok {
		return "", fmt.Errorf("%w: missing parameter %q", ErrRuleExecution, key)
	}
	return frame.FormatValue(raw), nil
}

func paramStrings(params map[string]any, key string) []string {
	raw, ok := params[key]
	if !ok {
		return nil
	}
	switch values := raw.(type) {
	case []string:
		return values
	case []any:
		out := make([]string, len(values))
		for i, v := range values {
			out[i] = frame.FormatValue(v)
		}
		return out
	default:
		return []string{frame.FormatValue(raw)}
	}
}

func paramFloat(params map[string]any, key string, fallback float64) float64 {
	raw, ok := params[key]
	if !ok {
		return fallback
	}
	switch value := raw.(type) {
	case float64:
		return value
	case int64:
		return float64(value)
	case int:
		return float64(value)
	case string:
		var parsed float64
		if _, err := fmt.Sscanf(value, "%g", &parsed); err == nil {
			return parsed
		}
	}
	return fallback
}

func allRows(n int) []int {
	out := make([]int, n)
	for i := range out {
		out[i] = i
	}
	return out
}
