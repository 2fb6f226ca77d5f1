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

// Package exporters turns contracts into artifacts for other tools:
// SQL DDL, dbt schema tests, Great Expectations suites and Go types.
package exporters

import (
	"fmt"
	"strings"

	dfccore "github.com/DataFrameGuard/dfc-core"
)

var sqlTypeMappings = map[string]map[string]string{
	"postgres": {
		"int64":          "BIGINT",
		"int32":          "INTEGER",
		"float64":        "DOUBLE PRECISION",
		"float32":        "REAL",
		"bool":           "BOOLEAN",
		"boolean":        "BOOLEAN",
		"datetime64[ns]": "TIMESTAMP",
		"object":         "TEXT",
		"string":         "TEXT",
		"default":        "TEXT",
	},
	"sqlite": {
		"int64":          "INTEGER",
		"int32":          "INTEGER",
		"float64":        "REAL",
		"float32":        "REAL",
		"bool":           "INTEGER",
		"boolean":        "INTEGER",
		"datetime64[ns]": "TEXT",
		"object":         "TEXT",
		"string":         "TEXT",
		"default":        "TEXT",
	},
	"bigquery": {
		"int64":          "INT64",
		"int32":          "INT64",
		"float64":        "FLOAT64",
		"float32":        "FLOAT64",
		"bool":           "BOOL",
		"boolean":        "BOOL",
		"datetime64[ns]": "TIMESTAMP",
		"object":         "STRING",
		"string":         "STRING",
		"default":        "STRING",
	},
}

// ToSQL renders a CREATE TABLE statement for the contract in the given
// dialect (postgres, sqlite or bigquery). Enum and bound constraints
// become inline CHECK clauses.
func ToSQL(contract *dfccore.Contract, dialect string) (string, error) {
	dialect = strings.ToLower(dialect)
	typeMapping, ok := sqlTypeMappings[dialect]
	if !ok {
		return "", fmt.Errorf("unsupported SQL dialect: %s", dialect)
	}
	var b strings.Builder
	fmt.Fprintf(&b, "CREATE TABLE %s (\n", contract.Name)
	columnLines := make([]string, 0, len(contract.Columns))
	for _, column := range contract.Columns {
		sqlType, ok := typeMapping[strings.ToLower(column.Dtype)]
		if !ok {
			sqlType = typeMapping["default"]
		}
		nullable := ""
		if column.Nullable.Kind() == dfccore.NullForbidden {
			nullable = " NOT NULL"
		}
		constraints := []string{}
		if len(column.Enum) > 0 {
			quoted := make([]string, len(column.Enum))
			for i, value := range column.Enum {
				quoted[i] = "'" + value + "'"
			}
			constraints = append(constraints, fmt.Sprintf("CHECK (%s IN (%s))", column.Name, strings.Join(quoted, ", ")))
		}
		if column.Min != nil {
			constraints = append(constraints, fmt.Sprintf("CHECK (%s >= %s)", column.Name, sqlLiteral(column.Min)))
		}
		if column.Max != nil {
			constraints = append(constraints, fmt.Sprintf("CHECK (%s <= %s)", column.Name, sqlLiteral(column.Max)))
		}
		constraintSQL := ""
		if len(constraints) > 0 {
			constraintSQL = " " + strings.Join(constraints, " ")
		}
		columnLines = append(columnLines, fmt.Sprintf("  %s %s%s%s", column.Name, sqlType, nullable, constraintSQL))
	}
	b.WriteString(strings.Join(columnLines, ",\n"))
	b.WriteString("\n)\n")
	return b.String(), nil
}

func sqlLiteral(bound *dfccore.Bound) string {
	if _, ok := bound.Float(); ok {
		return bound.String()
	}
	return "'" + bound.String() + "'"
}
