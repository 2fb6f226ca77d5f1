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
	"fmt"
	"strings"
	"unicode"

	dfccore "github.com/DataFrameGuard/dfc-core"
)

var goTypeMapping = map[string]string{
	"int64":   "int64",
	"int32":   "int32",
	"int16":   "int16",
	"int8":    "int8",
	"float64": "float64",
	"float32": "float32",
	"bool":    "bool",
	"boolean": "bool",
	"object":  "string",
	"string":  "string",
}

// ToGoStruct renders a Go source file declaring a row struct for the
// contract with JSON tags. Nullable columns become pointer fields.
func ToGoStruct(contract *dfccore.Contract, pkg string) string {
	if pkg == "" {
		pkg = "types"
	}
	needsTime := false
	fields := make([]string, 0, len(contract.Columns))
	for _, column := range contract.Columns {
		goType := goType(column.Dtype)
		if goType == "time.Time" {
			needsTime = true
		}
		if column.Nullable.Kind() != dfccore.NullForbidden {
			goType = "*" + goType
		}
		fields = append(fields, fmt.Sprintf("\t%s %s `json:%q`", ExportedName(column.Name), goType, column.Name))
	}
	var b strings.Builder
	fmt.Fprintf(&b, "// Code generated by dfc export-types; DO NOT EDIT.\n\npackage %s\n\n", pkg)
	if needsTime {
		b.WriteString("import \"time\"\n\n")
	}
	fmt.Fprintf(&b, "// %sRow is one record of the %s contract (version %s).\n", ExportedName(contract.Name), contract.Name, contract.Version)
	fmt.Fprintf(&b, "type %sRow struct {\n", ExportedName(contract.Name))
	b.WriteString(strings.Join(fields, "\n"))
	b.WriteString("\n}\n")
	return b.String()
}

func goType(dtype string) string {
	dtype = strings.ToLower(dtype)
	if strings.HasPrefix(dtype, "datetime64") {
		return "time.Time"
	}
	if mapped, ok := goTypeMapping[dtype]; ok {
		return mapped
	}
	return "string"
}

// ExportedName converts a column or contract name into an exported Go
// identifier: snake_case and kebab-case segments are camel-cased, common
// initialisms upper-cased, and leading digits prefixed.
func ExportedName(name string) string {
	parts := strings.FieldsFunc(name, func(r rune) bool {
		return r == '_' || r == '-' || r == ' ' || r == '.'
	})
	var b strings.Builder
	for _, part := range parts {
		if upper := strings.ToUpper(part); commonInitialisms[upper] {
			b.WriteString(upper)
			continue
		}
		runes := []rune(part)
		runes[0] = unicode.ToUpper(runes[0])
		b.WriteString(string(runes))
	}
	out := b.String()
	if out == "" {
		return "Contract"
	}
	if unicode.IsDigit(rune(out[0])) {
		out = "Col" + out
	}
	return out
}

var commonInitialisms = map[string]bool{
	"ID":   true,
	"URL":  true,
	"API":  true,
	"SQL":  true,
	"UUID": true,
	"IP":   true,
}
