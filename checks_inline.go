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
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/DataFrameGuard/dfc-core/frame"
)

// CheckScope locates what an inline check inspects.
type CheckScope string

const (
	ScopeTable  CheckScope = "table"
	ScopeColumn CheckScope = "column"
)

// BetweenRange is an inclusive threshold interval.
type BetweenRange struct {
	Min any
	Max any
}

// InlineCheck is a parsed quick-check expression such as
// "row_count > 100" or "not_null(order_id)".
type InlineCheck struct {
	FunctionName       string
	FunctionParameters []string
	Scope              CheckScope
	Operator           string
	ThresholdValue     any
}

var (
	tableScopeFunctions = map[string]bool{
		"row_count": true,
	}

	columnScopeFunctions = map[string]bool{
		"not_null":   true,
		"uniqueness": true,
		"freshness":  true,
		"min":        true,
		"max":        true,
		"mean":       true,
		"sum":        true,
		"stddev":     true,
	}
)

var (
	betweenRegex      = regexp.MustCompile(`^(\w+)(?:\((.*?)\))?\s+between\s+(.+)\s+and\s+(.+)$`)
	operatorRegex     = regexp.MustCompile(`^(\w+)(?:\((.*?)\))?\s*([<>=!]+)\s*(.+)$`)
	functionOnlyRegex = regexp.MustCompile(`^(\w+)(?:\((.*?)\))?$`)
)

// ParseInlineCheck parses a quick-check expression into its function,
// parameters, operator and threshold.
func ParseInlineCheck(expression string) (*InlineCheck, error) {
	expression = strings.TrimSpace(expression)
	if expression == "" {
		return nil, fmt.Errorf("empty expression")
	}

	check := &InlineCheck{
		FunctionParameters: []string{},
	}

	if matches := betweenRegex.FindStringSubmatch(expression); matches != nil {
		check.FunctionName = matches[1]
		check.Operator = "between"
		if matches[2] != "" {
			check.FunctionParameters = parseParameters(matches[2])
		}

		minVal, err := parseThresholdValue(strings.TrimSpace(matches[3]))
		if err != nil {
			return nil, fmt.Errorf("failed to parse min value: %v", err)
		}
		maxVal, err := parseThresholdValue(strings.TrimSpace(matches[4]))
		if err != nil {
			return nil, fmt.Errorf("failed to parse max value: %v", err)
		}
		check.ThresholdValue = BetweenRange{Min: minVal, Max: maxVal}
	} else if matches := operatorRegex.FindStringSubmatch(expression); matches != nil {
		check.FunctionName = matches[1]
		check.Operator = matches[3]
		if matches[2] != "" {
			check.FunctionParameters = parseParameters(matches[2])
		}

		val, err := parseThresholdValue(strings.TrimSpace(matches[4]))
		if err != nil {
			return nil, fmt.Errorf("failed to parse threshold value: %v", err)
		}
		check.ThresholdValue = val
	} else if matches := functionOnlyRegex.FindStringSubmatch(expression); matches != nil {
		check.FunctionName = matches[1]
		check.Operator = ""
		if matches[2] != "" {
			check.FunctionParameters = parseParameters(matches[2])
		}
	} else {
		return nil, fmt.Errorf("invalid expression format: %s", expression)
	}

	if !tableScopeFunctions[check.FunctionName] && !columnScopeFunctions[check.FunctionName] {
		return nil, fmt.Errorf("unknown check function: %s", check.FunctionName)
	}
	check.Scope = ScopeColumn
	if tableScopeFunctions[check.FunctionName] {
		check.Scope = ScopeTable
	}
	return check, nil
}

func parseParameters(paramStr string) []string {
	if paramStr == "" {
		return []string{}
	}
	params := strings.Split(paramStr, ",")
	for i, param := range params {
		params[i] = strings.TrimSpace(param)
	}
	return params
}

func parseThresholdValue(valueStr string) (any, error) {
	valueStr = strings.TrimSpace(valueStr)
	if valueStr == "" {
		return nil, fmt.Errorf("empty value")
	}

	// Freshness windows like "7d" or "36h" stay strings until evaluation.
	if durationSuffix(valueStr) {
		return valueStr, nil
	}
	if strings.Contains(valueStr, ".") {
		if floatVal, err := strconv.ParseFloat(valueStr, 64); err == nil {
			return floatVal, nil
		}
	}
	if intVal, err := strconv.Atoi(valueStr); err == nil {
		return intVal, nil
	}
	return valueStr, nil
}

func durationSuffix(valueStr string) bool {
	if len(valueStr) < 2 {
		return false
	}
	last := valueStr[len(valueStr)-1]
	if last != 'd' && last != 'h' && last != 'm' && last != 's' {
		return false
	}
	_, err := strconv.ParseFloat(valueStr[:len(valueStr)-1], 64)
	return err == nil
}

// InlineCheckResult is the outcome of one inline check.
type InlineCheckResult struct {
	Expression string `json:"expression"`
	Passed     bool   `json:"passed"`
	Actual     any    `json:"actual"`
}

// EvaluateInlineCheck parses and runs a quick-check expression against a
// table. now is used as the reference time for freshness checks.
func EvaluateInlineCheck(table *frame.Table, expression string, now time.Time) (*InlineCheckResult, error) {
	check, err := ParseInlineCheck(expression)
	if err != nil {
		return nil, err
	}
	actual, defaultPass, err := evaluateMetric(table, check, now)
	if err != nil {
		return nil, err
	}
	result := &InlineCheckResult{Expression: expression, Actual: actual}
	if check.Operator == "" {
		result.Passed = defaultPass
		return result, nil
	}
	passed, err := compareThreshold(actual, check.Operator, check.ThresholdValue)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", expression, err)
	}
	result.Passed = passed
	return result, nil
}

// evaluateMetric computes the check's metric plus the pass verdict used
// when the expression carries no explicit operator.
func evaluateMetric(table *frame.Table, check *InlineCheck, now time.Time) (float64, bool, error) {
	if check.Scope == ScopeTable {
		if check.FunctionName == "row_count" {
			rows := float64(table.NumRows())
			return rows, rows > 0, nil
		}
		return 0, false, fmt.Errorf("unknown table check function: %s", check.FunctionName)
	}

	if len(check.FunctionParameters) == 0 {
		return 0, false, fmt.Errorf("%s requires a column parameter", check.FunctionName)
	}
	series, ok := table.Column(check.FunctionParameters[0])
	if !ok {
		return 0, false, fmt.Errorf("%w: column %q not found", ErrRuleExecution, check.FunctionParameters[0])
	}

	switch check.FunctionName {
	case "not_null":
		nulls := float64(series.NullCount())
		return nulls, nulls == 0, nil
	case "uniqueness":
		duplicates := 0.0
		for _, grouped := range valueFrequencies(series) {
			if grouped > 1 {
				duplicates += float64(grouped - 1)
			}
		}
		return duplicates, duplicates == 0, nil
	case "freshness":
		newest, ok := newestTimestamp(series)
		if !ok {
			return 0, false, fmt.Errorf("%w: column %q has no timestamps", ErrRuleExecution, series.Name)
		}
		age := now.Sub(newest).Seconds()
		return age, false, nil
	case "min", "max", "mean", "sum", "stddev":
		values := series.NonNullFloats()
		if len(values) == 0 {
			return 0, false, fmt.Errorf("%w: column %q has no numeric values", ErrRuleExecution, series.Name)
		}
		switch check.FunctionName {
		case "min":
			return frame.Min(values), false, nil
		case "max":
			return frame.Max(values), false, nil
		case "mean":
			return frame.Mean(values), false, nil
		case "sum":
			total := 0.0
			for _, v := range values {
				total += v
			}
			return total, false, nil
		default:
			return frame.StdPop(values), false, nil
		}
	default:
		return 0, false, fmt.Errorf("unknown column check function: %s", check.FunctionName)
	}
}

func valueFrequencies(series *frame.Series) map[string]int {
	freq := map[string]int{}
	for i := 0; i < series.Len(); i++ {
		if series.IsNull(i) {
			continue
		}
		freq[frame.FormatValue(series.Values[i])]++
	}
	return freq
}

func newestTimestamp(series *frame.Series) (time.Time, bool) {
	var newest time.Time
	found := false
	for i := 0; i < series.Len(); i++ {
		ts, ok := series.Time(i)
		if !ok {
			continue
		}
		if !found || ts.After(newest) {
			newest = ts
		}
		found = true
	}
	return newest, found
}

func compareThreshold(actual float64, operator string, threshold any) (bool, error) {
	if operator == "between" {
		rng, ok := threshold.(BetweenRange)
		if !ok {
			return false, fmt.Errorf("between requires a range threshold")
		}
		lower, err := thresholdFloat(rng.Min)
		if err != nil {
			return false, err
		}
		upper, err := thresholdFloat(rng.Max)
		if err != nil {
			return false, err
		}
		return actual >= lower && actual <= upper, nil
	}

	limit, err := thresholdFloat(threshold)
	if err != nil {
		return false, err
	}
	switch operator {
	case ">":
		return actual > limit, nil
	case ">=":
		return actual >= limit, nil
	case "<":
		return actual < limit, nil
	case "<=":
		return actual <= limit, nil
	case "=", "==":
		return actual == limit, nil
	case "!=":
		return actual != limit, nil
	default:
		return false, fmt.Errorf("unsupported operator: %s", operator)
	}
}

// thresholdFloat renders a threshold as a float: numbers pass through,
// duration strings ("7d", "12h") become seconds for freshness checks.
func thresholdFloat(threshold any) (float64, error) {
	switch v := threshold.(type) {
	case int:
		return float64(v), nil
	case float64:
		return v, nil
	case string:
		if strings.HasSuffix(v, "d") {
			days, err := strconv.ParseFloat(strings.TrimSuffix(v, "d"), 64)
			if err != nil {
				return 0, fmt.Errorf("invalid duration threshold: %s", v)
			}
			return days * 24 * time.Hour.Seconds(), nil
		}
		duration, err := time.ParseDuration(v)
		if err != nil {
			return 0, fmt.Errorf("invalid threshold: %s", v)
		}
		return duration.Seconds(), nil
	default:
		return 0, fmt.Errorf("invalid threshold %v", threshold)
	}
}
