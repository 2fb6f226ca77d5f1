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
	"math"
	"os"
	"sort"

	"github.com/goccy/go-json"
)

// ReadJSON loads a JSON array of objects into a table.
func ReadJSON(path string) (*Table, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("open json: %w", err)
	}
	return FromJSONRecords(data)
}

// FromJSONRecords builds a table from a JSON array of flat objects.
// Column order follows first appearance across records; objects missing
// a key contribute a null.
func FromJSONRecords(data []byte) (*Table, error) {
	var records []map[string]any
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("parse json records: %w", err)
	}
	return FromRecords(records)
}

// FromRecords builds a table from in-memory row maps.
func FromRecords(records []map[string]any) (*Table, error) {
	names := []string{}
	seen := map[string]bool{}
	for _, record := range records {
		for key := range record {
			if !seen[key] {
				seen[key] = true
				names = append(names, key)
			}
		}
	}
	// Map iteration order is random, so column order must not depend on it.
	sort.Strings(names)
	cols := make([]*Series, 0, len(names))
	for _, name := range names {
		values := make([]any, len(records))
		for i, record := range records {
			values[i] = normalizeJSONValue(record[name])
		}
		dtype := inferAnyDtype(values)
		coerceValues(dtype, values)
		cols = append(cols, NewSeries(name, dtype, values))
	}
	return New(cols...)
}

func normalizeJSONValue(value any) any {
	switch v := value.(type) {
	case nil:
		return nil
	case float64:
		return v
	case bool, string, int64:
		return v
	default:
		return fmt.Sprintf("%v", v)
	}
}

func coerceValues(dtype string, values []any) {
	for i, value := range values {
		if value == nil {
			continue
		}
		switch dtype {
		case DtypeInt64:
			if v, ok := value.(float64); ok {
				values[i] = int64(v)
			}
		case DtypeDatetime:
			if v, ok := value.(string); ok {
				if ts, ok := ParseTime(v); ok {
					values[i] = ts
				}
			}
		}
	}
}

func inferAnyDtype(values []any) string {
	seen := false
	isBool, isNumeric, isIntegral, isTime := true, true, true, true
	for _, value := range values {
		if value == nil {
			continue
		}
		seen = true
		switch v := value.(type) {
		case bool:
			isNumeric, isIntegral, isTime = false, false, false
		case float64:
			isBool, isTime = false, false
			if v != math.Trunc(v) || math.Abs(v) > 1<<53 {
				isIntegral = false
			}
		case int64:
			isBool, isTime = false, false
		case string:
			isBool, isNumeric, isIntegral = false, false, false
			if _, ok := ParseTime(v); !ok {
				isTime = false
			}
		default:
			isBool, isNumeric, isIntegral, isTime = false, false, false, false
		}
	}
	if !seen {
		return DtypeString
	}
	switch {
	case isBool:
		return DtypeBool
	case isNumeric && isIntegral:
		return DtypeInt64
	case isNumeric:
		return DtypeFloat64
	case isTime:
		return DtypeDatetime
	default:
		return DtypeString
	}
}
