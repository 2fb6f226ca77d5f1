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

// Package frame provides the in-memory columnar table the validation and
// drift engines operate on: column access by name, dtype introspection,
// boolean masking, group-by, descriptive statistics and deterministic
// sampling.
package frame

import (
	"fmt"
	"math"
	"math/rand"
	"sort"
	"strings"
)

// Table is an immutable snapshot of tabular data. Operations that reduce
// the row set return a new Table sharing no cell storage with the input.
type Table struct {
	cols  []*Series
	index map[string]int
	nrows int
}

func New(cols ...*Series) (*Table, error) {
	t := &Table{index: make(map[string]int, len(cols))}
	for i, col := range cols {
		if i == 0 {
			t.nrows = col.Len()
		} else if col.Len() != t.nrows {
			return nil, fmt.Errorf("column %s has %d rows, want %d", col.Name, col.Len(), t.nrows)
		}
		if _, dup := t.index[col.Name]; dup {
			return nil, fmt.Errorf("duplicate column %s", col.Name)
		}
		t.index[col.Name] = i
		t.cols = append(t.cols, col)
	}
	return t, nil
}

// MustNew is New for tests and literals with known-good columns.
func MustNew(cols ...*Series) *Table {
	t, err := New(cols...)
	if err != nil {
		panic(err)
	}
	return t
}

func (t *Table) NumRows() int {
	return t.nrows
}

func (t *Table) NumCols() int {
	return len(t.cols)
}

// Columns returns column names in declaration order.
func (t *Table) Columns() []string {
	names := make([]string, len(t.cols))
	for i, col := range t.cols {
		names[i] = col.Name
	}
	return names
}

func (t *Table) HasColumn(name string) bool {
	_, ok := t.index[name]
	return ok
}

func (t *Table) Column(name string) (*Series, bool) {
	i, ok := t.index[name]
	if !ok {
		return nil, false
	}
	return t.cols[i], true
}

// Row returns one row as a column name to cell mapping.
func (t *Table) Row(i int) map[string]any {
	row := make(map[string]any, len(t.cols))
	for _, col := range t.cols {
		row[col.Name] = col.Values[i]
	}
	return row
}

// Records returns up to limit rows as flat mappings. A negative limit
// returns every row.
func (t *Table) Records(limit int) []map[string]any {
	n := t.nrows
	if limit >= 0 && limit < n {
		n = limit
	}
	out := make([]map[string]any, 0, n)
	for i := 0; i < n; i++ {
		out = append(out, t.Row(i))
	}
	return out
}

// RecordsAt returns up to limit rows at the given indices.
func (t *Table) RecordsAt(indices []int, limit int) []map[string]any {
	out := make([]map[string]any, 0, len(indices))
	for _, i := range indices {
		if limit >= 0 && len(out) >= limit {
			break
		}
		out = append(out, t.Row(i))
	}
	return out
}

// Filter returns the rows where mask is true.
func (t *Table) Filter(mask []bool) *Table {
	indices := make([]int, 0, len(mask))
	for i, keep := range mask {
		if keep {
			indices = append(indices, i)
		}
	}
	return t.SelectRows(indices)
}

// SelectRows returns a new table holding the given rows in the given order.
func (t *Table) SelectRows(indices []int) *Table {
	cols := make([]*Series, len(t.cols))
	for ci, col := range t.cols {
		values := make([]any, len(indices))
		for vi, ri := range indices {
			values[vi] = col.Values[ri]
		}
		cols[ci] = NewSeries(col.Name, col.Dtype, values)
	}
	out, _ := New(cols...)
	return out
}

// Select returns a new table restricted to the named columns, in the
// given order. Unknown names are skipped.
func (t *Table) Select(names ...string) *Table {
	cols := make([]*Series, 0, len(names))
	for _, name := range names {
		if i, ok := t.index[name]; ok {
			cols = append(cols, t.cols[i])
		}
	}
	out, _ := New(cols...)
	out.nrows = t.nrows
	return out
}

// Sample draws a deterministic fraction of rows. The same seed always
// selects the same rows, returned in their original order.
func (t *Table) Sample(frac float64, seed int64) *Table {
	if frac >= 1 {
		return t.SelectRows(allIndices(t.nrows))
	}
	take := int(math.Round(frac * float64(t.nrows)))
	if take > t.nrows {
		take = t.nrows
	}
	rng := rand.New(rand.NewSource(seed))
	perm := rng.Perm(t.nrows)[:take]
	sort.Ints(perm)
	return t.SelectRows(perm)
}

// Group is one group-by bucket: the rendered key and member row indices
// in first-seen order.
type Group struct {
	Key  string
	Rows []int
}

// GroupBy buckets rows by the rendered values of the named columns.
// Null cells participate in keys, so all-null groups stay together.
// Groups come back in first-seen order.
func (t *Table) GroupBy(by []string) []Group {
	series := make([]*Series, 0, len(by))
	for _, name := range by {
		if col, ok := t.Column(name); ok {
			series = append(series, col)
		}
	}
	order := []string{}
	buckets := map[string][]int{}
	for i := 0; i < t.nrows; i++ {
		parts := make([]string, len(series))
		for si, col := range series {
			parts[si] = FormatValue(col.Values[i])
		}
		key := strings.Join(parts, "\x1f")
		if _, seen := buckets[key]; !seen {
			order = append(order, key)
		}
		buckets[key] = append(buckets[key], i)
	}
	out := make([]Group, 0, len(order))
	for _, key := range order {
		out = append(out, Group{Key: key, Rows: buckets[key]})
	}
	return out
}

// DuplicatedRows flags every row (all occurrences) whose rendered key over
// the given columns occurs more than once.
func (t *Table) DuplicatedRows(by []string) []bool {
	mask := make([]bool, t.nrows)
	for _, group := range t.GroupBy(by) {
		if len(group.Rows) > 1 {
			for _, i := range group.Rows {
				mask[i] = true
			}
		}
	}
	return mask
}

func allIndices(n int) []int {
	out := make([]int, n)
	for i := range out {
		out[i] = i
	}
	return out
}
