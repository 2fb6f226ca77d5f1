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
	"gopkg.in/yaml.v3"

	dfccore "github.com/DataFrameGuard/dfc-core"
)

type dbtSchemaFile struct {
	Version int        `yaml:"version"`
	Models  []dbtModel `yaml:"models"`
}

type dbtModel struct {
	Name    string      `yaml:"name"`
	Columns []dbtColumn `yaml:"columns"`
}

type dbtColumn struct {
	Name  string `yaml:"name"`
	Tests []any  `yaml:"tests,omitempty"`
}

// ToDbtTests renders a dbt schema.yml fragment with not_null, unique
// and accepted_values tests derived from the contract.
func ToDbtTests(contract *dfccore.Contract, tableName string) (string, error) {
	model := dbtModel{Name: tableName}
	for _, column := range contract.Columns {
		out := dbtColumn{Name: column.Name}
		if column.Nullable.Kind() == dfccore.NullForbidden {
			out.Tests = append(out.Tests, "not_null")
		}
		if column.Unique {
			out.Tests = append(out.Tests, "unique")
		}
		if len(column.Enum) > 0 {
			out.Tests = append(out.Tests, map[string]any{
				"accepted_values": map[string]any{"values": column.Enum},
			})
		}
		model.Columns = append(model.Columns, out)
	}
	data, err := yaml.Marshal(dbtSchemaFile{Version: 2, Models: []dbtModel{model}})
	if err != nil {
		return "", err
	}
	return string(data), nil
}
