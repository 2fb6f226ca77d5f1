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
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
)

var nullTokens = map[string]bool{
	"":     true,
	"null": true,
	"NULL": true,
	"NA":   true,
	"NaN":  true,
}

// ReadCSV loads a headered CSV file into a table, inferring a dtype per
// column: int64, float64, bool, datetime64[ns], falling back to string.
func ReadCSV(path string) (*Table, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open csv: %w", err)
	}
	defer file.Close()
	return ParseCSV(file)
}

// ParseCSV loads headered CSV data from a reader.
func ParseCSV(r io.Reader) (*Table, error) {
	reader := csv.NewReader(r)
	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("parse csv: %w", err)
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("parse csv: missing header row")
	}
	header := records[0]
	raw := make([][]string, len(header))
	for _, record := range records[1:] {
		for ci := range header {
			cell := ""
			if ci < len(record) {
				cell = record[ci]
			}
			raw[ci] = append(raw[ci], cell)
		}
	}
	cols := make([]*Series, len(header))
	for ci, name := range header {
		cols[ci] = inferSeries(name, raw[ci])
	}
	return New(cols...)
}

func inferSeries(name string, cells []string) *Series {
	values := make([]any, len(cells))
	dtype := inferDtype(cells)
	for i, cell := range cells {
		if nullTokens[cell] {
			values[i] = nil
			continue
		}
		switch dtype {
		case DtypeInt64:
			parsed, _ := strconv.ParseInt(cell, 10, 64)
			values[i] = parsed
		case DtypeFloat64:
			parsed, _ := strconv.ParseFloat(cell, 64)
			values[i] = parsed
		case DtypeBool:
			values[i] = strings.EqualFold(cell, "true")
		case DtypeDatetime:
			ts, _ := ParseTime(cell)
			values[i] = ts
		default:
			values[i] = cell
		}
	}
	return NewSeries(name, dtype, values)
}

func inferDtype(cells []string) string {
	seen := false
	isInt, isFloat, isBool, isTime := true, true, true, true
	for _, cell := range cells {
		if nullTokens[cell] {
			continue
		}
		seen = true
		if _, err := strconv.ParseInt(cell, 10, 64); err != nil {
			isInt = false
		}
		if _, err := strconv.ParseFloat(cell, 64); err != nil {
			isFloat = false
		}
		if !strings.EqualFold(cell, "true") && !strings.EqualFold(cell, "false") {
			isBool = false
		}
		if _, ok := ParseTime(cell); !ok {
			isTime = false
		}
	}
	if !seen {
		return DtypeString
	}
	switch {
	case isBool:
		return DtypeBool
	case isInt:
		return DtypeInt64
	case isFloat:
		return DtypeFloat64
	case isTime:
		return DtypeDatetime
	default:
		return DtypeString
	}
}
