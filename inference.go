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
	"sort"
	"strings"
	"time"

	"github.com/DataFrameGuard/dfc-core/frame"
)

// InferOptions tune contract inference; the zero value uses the defaults
// below.
type InferOptions struct {
	Version            string  // default "0.1.0"
	EnumMaxCardinality int     // default 50
	EnumMinFreqRatio   float64 // default 0.95
	NullableThreshold  float64 // ratios at or below this infer nullable=false
}

// InferenceSuggestion is an observation about the data that the caller
// may want to fold into the contract by hand.
type InferenceSuggestion struct {
	Column  string         `json:"column"`
	Kind    string         `json:"kind"`
	Message string         `json:"message"`
	Details map[string]any `json:"details"`
}

// InferenceResult carries the inferred contract plus suggestions.
type InferenceResult struct {
	Contract    *Contract             `json:"contract"`
	Suggestions []InferenceSuggestion `json:"suggestions"`
}

// InferContract derives a starting contract from sample data: dtypes
// (promoting string columns that parse as datetimes), null tolerances,
// numeric and datetime bounds, low-cardinality enums and uniqueness.
func InferContract(table *frame.Table, name string, opts InferOptions) *InferenceResult {
	if opts.Version == "" {
		opts.Version = "0.1.0"
	}
	if opts.EnumMaxCardinality == 0 {
		opts.EnumMaxCardinality = 50
	}
	if opts.EnumMinFreqRatio == 0 {
		opts.EnumMinFreqRatio = 0.95
	}
	columns := []ColumnSpec{}
	suggestions := []InferenceSuggestion{}
	for _, columnName := range table.Columns() {
		series, _ := table.Column(columnName)
		spec := inferColumn(series, opts)
		columns = append(columns, spec)
		suggestions = append(suggestions, deriveSuggestions(series)...)
	}
	suggestions = append(suggestions, pairwiseSuggestions(table)...)
	contract := &Contract{
		Name:       name,
		Version:    opts.Version,
		Columns:    columns,
		UniqueKeys: [][]string{},
	}
	return &InferenceResult{Contract: contract, Suggestions: suggestions}
}

func inferColumn(series *frame.Series, opts InferOptions) ColumnSpec {
	dtype := NormalizeDtype(series.Dtype)
	if dtype == "string" && datetimeParseRatio(series) >= 0.95 {
		dtype = frame.DtypeDatetime
	}
	spec := ColumnSpec{Name: series.Name, Dtype: dtype}
	nullRatio := series.NullRatio()
	switch {
	case nullRatio == 0 || nullRatio <= opts.NullableThreshold:
		spec.Nullable = NullsForbidden()
	default:
		spec.Nullable = NullsMaxRatio(math.Round(nullRatio*10000) / 10000)
	}
	if series.IsNumericDtype() {
		values := series.NonNullFloats()
		if len(values) > 0 {
			spec.Min = NumBound(frame.Min(values))
			spec.Max = NumBound(frame.Max(values))
		}
	} else if strings.HasPrefix(dtype, "datetime64") {
		if minT, maxT, ok := timeRange(series); ok {
			spec.Min = StrBound(minT.Format(time.RFC3339))
			spec.Max = StrBound(maxT.Format(time.RFC3339))
		}
	}
	nonNull := series.Len() - series.NullCount()
	if nonNull > 0 && series.Nunique() <= opts.EnumMaxCardinality {
		counts := series.ValueCounts()
		coverage := 0.0
		values := make([]string, 0, len(counts))
		for _, vc := range counts {
			coverage += vc.Freq
			values = append(values, vc.Value)
		}
		if coverage >= opts.EnumMinFreqRatio {
			sort.Strings(values)
			spec.Enum = values
		}
	}
	if nonNull > 0 && series.NullCount() == 0 && series.IsUnique() {
		spec.Unique = true
	}
	return spec
}

func datetimeParseRatio(series *frame.Series) float64 {
	if series.Len() == 0 {
		return 0
	}
	parsed := 0
	for i := 0; i < series.Len(); i++ {
		if _, ok := series.Time(i); ok {
			parsed++
		}
	}
	return float64(parsed) / float64(series.Len())
}

func timeRange(series *frame.Series) (time.Time, time.Time, bool) {
	var minT, maxT time.Time
	found := false
	for i := 0; i < series.Len(); i++ {
		ts, ok := series.Time(i)
		if !ok {
			continue
		}
		if !found || ts.Before(minT) {
			minT = ts
		}
		if !found || ts.After(maxT) {
			maxT = ts
		}
		found = true
	}
	return minT, maxT, found
}

func deriveSuggestions(series *frame.Series) []InferenceSuggestion {
	suggestions := []InferenceSuggestion{}
	nonNull := series.Len() - series.NullCount()
	if nonNull == 0 {
		return suggestions
	}
	if series.IsNumericDtype() {
		values := series.NonNullFloats()
		minValue := frame.Min(values)
		if minValue >= 0 {
			kind := "positive"
			if minValue == 0 {
				kind = "non_negative"
			}
			suggestions = append(suggestions, InferenceSuggestion{
				Column:  series.Name,
				Kind:    kind,
				Message: fmt.Sprintf("Column %q appears %s (min=%g).", series.Name, strings.ReplaceAll(kind, "_", " "), minValue),
				Details: map[string]any{"min": minValue},
			})
		}
	}
	if series.Nunique() <= 20 {
		counts := series.ValueCounts()
		coverage := 0.0
		values := make([]string, 0, len(counts))
		for _, vc := range counts {
			coverage += vc.Freq
			values = append(values, vc.Value)
		}
		if coverage >= 0.9 {
			sort.Strings(values)
			suggestions = append(suggestions, InferenceSuggestion{
				Column:  series.Name,
				Kind:    "enum",
				Message: fmt.Sprintf("Column %q has low cardinality; consider enum constraint.", series.Name),
				Details: map[string]any{"values": values},
			})
		}
	}
	if series.IsDatetimeDtype() && isMonotonicIncreasing(series) {
		suggestions = append(suggestions, InferenceSuggestion{
			Column:  series.Name,
			Kind:    "monotonic_increasing",
			Message: fmt.Sprintf("Datetime column %q is monotonic increasing.", series.Name),
			Details: map[string]any{"direction": "increasing"},
		})
	}
	return suggestions
}

func isMonotonicIncreasing(series *frame.Series) bool {
	var prev time.Time
	seen := false
	for i := 0; i < series.Len(); i++ {
		ts, ok := series.Time(i)
		if !ok {
			continue
		}
		if seen && ts.Before(prev) {
			return false
		}
		prev = ts
		seen = true
	}
	return seen
}

var rangePairNames = [][2]string{
	{"start", "end"},
	{"from", "to"},
	{"begin", "finish"},
}

// pairwiseSuggestions looks for conventional start/end column pairs where
// the start never exceeds the end.
func pairwiseSuggestions(table *frame.Table) []InferenceSuggestion {
	lower := map[string]string{}
	for _, name := range table.Columns() {
		lower[strings.ToLower(name)] = name
	}
	suggestions := []InferenceSuggestion{}
	for _, pair := range rangePairNames {
		startName, okStart := lower[pair[0]]
		endName, okEnd := lower[pair[1]]
		if !okStart || !okEnd {
			continue
		}
		start, _ := table.Column(startName)
		end, _ := table.Column(endName)
		comparable, ordered := 0, 0
		total := 0
		for i := 0; i < table.NumRows(); i++ {
			if start.IsNull(i) && end.IsNull(i) {
				continue
			}
			total++
			if sv, sok := start.Float(i); sok {
				if ev, eok := end.Float(i); eok {
					comparable++
					if ev >= sv {
						ordered++
					}
					continue
				}
			}
			if st, sok := start.Time(i); sok {
				if et, eok := end.Time(i); eok {
					comparable++
					if !et.Before(st) {
						ordered++
					}
				}
			}
		}
		if total == 0 || comparable == 0 {
			continue
		}
		if float64(comparable)/float64(total) >= 0.9 && ordered == comparable {
			suggestions = append(suggestions, InferenceSuggestion{
				Column:  fmt.Sprintf("%s->%s", startName, endName),
				Kind:    "range_pair",
				Message: fmt.Sprintf("%q is never greater than %q.", startName, endName),
				Details: map[string]any{"start": startName, "end": endName},
			})
		}
	}
	return suggestions
}
