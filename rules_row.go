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

	"github.com/DataFrameGuard/dfc-core/frame"
	"github.com/google/cel-go/cel"
)

// rowRuleProgram is a compiled row-rule expression bound to the dataset's
// column set. Expressions are CEL: comparisons, arithmetic and boolean
// combinators over column references, with no general-purpose code execution.
type rowRuleProgram struct {
	program cel.Program
}

// compileRowRule compiles the rule expression against the table's columns.
// A malformed expression is a configuration error, not a data violation.
func compileRowRule(expr string, table *frame.Table) (*rowRuleProgram, error) {
	options := []cel.EnvOption{
		cel.HomogeneousAggregateLiterals(),
		cel.EagerlyValidateDeclarations(true),
		// Column dtypes are not known at declaration time, so int columns
		// must compare against float literals and vice versa.
		cel.CrossTypeNumericComparisons(true),
	}
	for _, name := range table.Columns() {
		options = append(options, cel.Variable(name, cel.DynType))
	}
	env, err := cel.NewEnv(options...)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrRuleExecution, err)
	}
	ast, issues := env.Compile(expr)
	if issues != nil && issues.Err() != nil {
		return nil, fmt.Errorf("%w: compile %q: %v", ErrRuleExecution, expr, issues.Err())
	}
	program, err := env.Program(ast)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrRuleExecution, err)
	}
	return &rowRuleProgram{program: program}, nil
}

// failingRows evaluates the expression against every row and returns the
// mask of rows that do not pass. A null or failed evaluation counts as
// failing: missing data never passes a row rule.
func (p *rowRuleProgram) failingRows(table *frame.Table) []bool {
	mask := make([]bool, table.NumRows())
	for i := 0; i < table.NumRows(); i++ {
		activation := rowActivation(table, i)
		out, _, err := p.program.Eval(activation)
		if err != nil {
			mask[i] = true
			continue
		}
		passed, ok := out.Value().(bool)
		mask[i] = !ok || !passed
	}
	return mask
}

func rowActivation(table *frame.Table, row int) map[string]any {
	activation := make(map[string]any, table.NumCols())
	for _, name := range table.Columns() {
		series, _ := table.Column(name)
		activation[name] = series.Values[row]
	}
	return activation
}
