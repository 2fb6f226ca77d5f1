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

package frame

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"
)

// Dtype tokens shared with the contract vocabulary.
const (
	DtypeInt64    = "int64"
	DtypeInt32    = "int32"
	DtypeInt16    = "int16"
	DtypeInt8     = "int8"
	DtypeFloat64  = "float64"
	DtypeFloat32  = "float32"
	DtypeBool     = "bool"
	DtypeString   = "string"
	DtypeDatetime = "datetime64[ns]"
)

// Series is a single named column. A nil cell marks a null.
type Series struct {
	Name   string
	Dtype  string
	Values []any
}

func NewSeries(name string, dtype string, values []any) *Series {
	return &Series{Name: name, Dtype: dtype, Values: values}
}

func (s *Series) Len() int {
	return len(s.Values)
}

func (s *Series) IsNull(i int) bool {
	return s.Values[i] == nil
}

func (s *Series) NullMask() []bool {
	mask := make([]bool, len(s.Values))
	for i, v := range s.Values {
		mask[i] = v == nil
	}
	return mask
}

func (s *Series) NullCount() int {
	count := 0
	for _, v := range s.Values {
		if v == nil {
			count++
		}
	}
	return count
}

func (s *Series) NullRatio() float64 {
	if len(s.Values) == 0 {
		return 0
	}
	return float64(s.NullCount()) / float64(len(s.Values))
}

func (s *Series) IsNumericDtype() bool {
	switch s.Dtype {
	case DtypeInt64, DtypeInt32, DtypeInt16, DtypeInt8, DtypeFloat64, DtypeFloat32:
		return true
	}
	return false
}

func (s *Series) IsDatetimeDtype() bool {
	return strings.HasPrefix(s.Dtype, "datetime64")
}

// Float coerces the cell at i to a float64. Returns false for nulls and
// values that do not parse.
func (s *Series) Float(i int) (float64, bool) {
	return toFloat(s.Values[i])
}

// Time coerces the cell at i to a timestamp.
func (s *Series) Time(i int) (time.Time, bool) {
	return toTime(s.Values[i])
}

// Floats coerces every cell; ok[i] reports whether cell i produced a value.
func (s *Series) Floats() ([]float64, []bool) {
	values := make([]float64, len(s.Values))
	ok := make([]bool, len(s.Values))
	for i := range s.Values {
		values[i], ok[i] = toFloat(s.Values[i])
	}
	return values, ok
}

// Times coerces every cell to a timestamp.
func (s *Series) Times() ([]time.Time, []bool) {
	values := make([]time.Time, len(s.Values))
	ok := make([]bool, len(s.Values))
	for i := range s.Values {
		values[i], ok[i] = toTime(s.Values[i])
	}
	return values, ok
}

// CoercibleNumeric reports whether the series is numeric, or at least one
// non-null cell parses as a number.
func (s *Series) CoercibleNumeric() bool {
	if s.IsNumericDtype() {
		return true
	}
	for i := range s.Values {
		if s.Values[i] == nil {
			continue
		}
		if _, ok := toFloat(s.Values[i]); ok {
			return true
		}
	}
	return false
}

// CoercibleDatetime reports whether the series is datetime-typed, or at
// least one non-null cell parses as a timestamp.
func (s *Series) CoercibleDatetime() bool {
	if s.IsDatetimeDtype() {
		return true
	}
	for i := range s.Values {
		if s.Values[i] == nil {
			continue
		}
		if _, ok := toTime(s.Values[i]); ok {
			return true
		}
	}
	return false
}

// NonNullFloats returns successfully coerced non-null values in row order.
func (s *Series) NonNullFloats() []float64 {
	out := make([]float64, 0, len(s.Values))
	for i := range s.Values {
		if s.Values[i] == nil {
			continue
		}
		if v, ok := toFloat(s.Values[i]); ok {
			out = append(out, v)
		}
	}
	return out
}

// Strings renders every non-null cell to its string form, keeping row indices.
func (s *Series) Strings() (indices []int, values []string) {
	for i, v := range s.Values {
		if v == nil {
			continue
		}
		indices = append(indices, i)
		values = append(values, FormatValue(v))
	}
	return indices, values
}

// Nunique counts distinct non-null values by string rendering.
func (s *Series) Nunique() int {
	seen := map[string]struct{}{}
	for _, v := range s.Values {
		if v == nil {
			continue
		}
		seen[FormatValue(v)] = struct{}{}
	}
	return len(seen)
}

// IsUnique reports whether no non-null value occurs twice.
func (s *Series) IsUnique() bool {
	seen := map[string]struct{}{}
	for _, v := range s.Values {
		if v == nil {
			continue
		}
		key := FormatValue(v)
		if _, dup := seen[key]; dup {
			return false
		}
		seen[key] = struct{}{}
	}
	return true
}

// ValueCount is one distinct value with its normalized frequency.
type ValueCount struct {
	Value string
	Freq  float64
}

// ValueCounts returns normalized frequencies of non-null values ordered by
// descending frequency, ties broken by value for determinism.
func (s *Series) ValueCounts() []ValueCount {
	counts := map[string]int{}
	total := 0
	for _, v := range s.Values {
		if v == nil {
			continue
		}
		counts[FormatValue(v)]++
		total++
	}
	if total == 0 {
		return nil
	}
	out := make([]ValueCount, 0, len(counts))
	for value, n := range counts {
		out = append(out, ValueCount{Value: value, Freq: float64(n) / float64(total)})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Freq != out[j].Freq {
			return out[i].Freq > out[j].Freq
		}
		return out[i].Value < out[j].Value
	})
	return out
}

// FormatValue renders a cell to its canonical string form. Nulls render
// as the empty string.
func FormatValue(v any) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return val
	case bool:
		if val {
			return "true"
		}
		return "false"
	case int:
		return strconv.Itoa(val)
	case int64:
		return strconv.FormatInt(val, 10)
	case float64:
		return strconv.FormatFloat(val, 'g', -1, 64)
	case time.Time:
		return val.Format(time.RFC3339)
	default:
		return fmt.Sprintf("%v", val)
	}
}

func toFloat(v any) (float64, bool) {
	switch val := v.(type) {
	case nil:
		return 0, false
	case float64:
		return val, true
	case float32:
		return float64(val), true
	case int:
		return float64(val), true
	case int64:
		return float64(val), true
	case int32:
		return float64(val), true
	case string:
		parsed, err := strconv.ParseFloat(strings.TrimSpace(val), 64)
		if err != nil {
			return 0, false
		}
		return parsed, true
	}
	return 0, false
}

var timeLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	"2006-01-02",
}

func toTime(v any) (time.Time, bool) {
	switch val := v.(type) {
	case nil:
		return time.Time{}, false
	case time.Time:
		return val, true
	case string:
		trimmed := strings.TrimSpace(val)
		for _, layout := range timeLayouts {
			if ts, err := time.Parse(layout, trimmed); err == nil {
				return ts, true
			}
		}
	}
	return time.Time{}, false
}

// ParseTime parses a timestamp from its string rendering using the same
// layouts the coercion path accepts.
func ParseTime(value string) (time.Time, bool) {
	return toTime(value)
}
