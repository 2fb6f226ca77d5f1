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
	"io"
	"log/slog"
	"math"
	"math/rand"
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/DataFrameGuard/dfc-core/frame"
)

// sampleSeed fixes the RNG so repeated validations of the same dataset
// select the same rows.
const sampleSeed = 0

// ValidateOptions tune one validation pass. The zero value validates the
// whole dataset against the "prod" profile with 20 bounded examples.
type ValidateOptions struct {
	Profile      string
	Sample       float64
	StratifyBy   []string
	MaxExamples  int
	WithSnapshot bool
}

// Validator walks a contract's column specs and rules over a dataset and
// produces a structured violation report.
type Validator struct {
	logger *slog.Logger
}

func NewValidator(logger *slog.Logger) *Validator {
	if logger == nil {
		// noop logger by default
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Validator{logger: logger}
}

// Validate is the package-level convenience entry point without logging.
func Validate(table *frame.Table, contract *Contract, opts ValidateOptions) (*ValidationReport, error) {
	return NewValidator(nil).Validate(table, contract, opts)
}

// Validate runs schema, column, key and rule checks in contract order and
// aggregates everything into one report. Data problems land in the report
// as violations; configuration problems abort with an error.
func (v *Validator) Validate(table *frame.Table, contract *Contract, opts ValidateOptions) (*ValidationReport, error) {
	if opts.Profile == "" {
		opts.Profile = "prod"
	}
	if opts.MaxExamples == 0 {
		opts.MaxExamples = 20
	}
	work := table
	if opts.Sample != 0 {
		sampled, err := sampleTable(table, opts.Sample, opts.StratifyBy)
		if err != nil {
			return nil, err
		}
		work = sampled
	}
	profile := contract.Profiles[opts.Profile]
	if profile.DefaultMaxExamples > 0 {
		opts.MaxExamples = profile.DefaultMaxExamples
	}
	start := time.Now()
	run := &validationRun{
		table:       work,
		contract:    contract,
		profile:     profile,
		maxExamples: opts.MaxExamples,
		logger:      v.logger,
		ok:          true,
	}
	available := map[string]bool{}
	for _, name := range work.Columns() {
		available[name] = true
	}
	for i := range contract.Columns {
		column := &contract.Columns[i]
		delete(available, column.Name)
		if err := run.checkColumn(column); err != nil {
			return nil, err
		}
	}
	run.checkExtraColumns(available)
	if err := run.checkUniqueKeys(); err != nil {
		return nil, err
	}
	for i := range contract.Rules {
		if err := run.applyRule(&contract.Rules[i]); err != nil {
			return nil, err
		}
	}
	elapsed := time.Since(start).Milliseconds()
	v.logger.Debug("validation completed",
		"contract", contract.Name,
		"profile", opts.Profile,
		"violations", len(run.violations),
		"duration_ms", elapsed)
	report := &ValidationReport{
		OK: run.ok,
		Stats: ValidationStats{
			Rows:       work.NumRows(),
			Cols:       work.NumCols(),
			DurationMs: elapsed,
		},
		Violations:  run.violations,
		SchemaDiffs: run.schemaDiffs,
		Profile:     opts.Profile,
	}
	if opts.WithSnapshot {
		// Snapshot the working row set, after sampling has fixed it.
		report.Snapshot = Snapshot(work, SnapshotOptions{})
	}
	return report, nil
}

type validationRun struct {
	table       *frame.Table
	contract    *Contract
	profile     ProfileOverrides
	maxExamples int
	logger      *slog.Logger
	ok          bool
	violations  []Violation
	schemaDiffs []string
}

func (r *validationRun) add(v Violation) {
	if v.Examples == nil {
		v.Examples = []map[string]any{}
	}
	r.violations = append(r.violations, v)
}

func (r *validationRun) fail(v Violation) {
	r.add(v)
	r.ok = false
}

func (r *validationRun) examples(mask []bool, columns ...string) []map[string]any {
	return r.table.Filter(mask).Select(columns...).Records(r.maxExamples)
}

func (r *validationRun) checkColumn(column *ColumnSpec) error {
	series, present := r.table.Column(column.Name)
	if !present {
		r.schemaDiffs = append(r.schemaDiffs, fmt.Sprintf("missing column %s", column.Name))
		r.fail(Violation{
			ID:      fmt.Sprintf("column.%s.missing", column.Name),
			Level:   LevelError,
			Kind:    ViolationKindSchema,
			Columns: []string{column.Name},
			Summary: fmt.Sprintf("Column %s missing", column.Name),
			Count:   r.table.NumRows(),
		})
		return nil
	}
	r.logger.Debug("running column checks", "column", column.Name, "dtype", series.Dtype)
	actual := NormalizeDtype(series.Dtype)
	if !DtypeCompatible(actual, column.Dtype) {
		r.schemaDiffs = append(r.schemaDiffs,
			fmt.Sprintf("dtype mismatch for %s: expected %s got %s", column.Name, column.Dtype, actual))
		r.fail(Violation{
			ID:      fmt.Sprintf("column.%s.dtype", column.Name),
			Level:   LevelError,
			Kind:    ViolationKindSchema,
			Columns: []string{column.Name},
			Summary: fmt.Sprintf("Expected dtype %s got %s", column.Dtype, actual),
			Count:   r.table.NumRows(),
		})
	}
	override, hasOverride := r.profile.Columns[column.Name]
	r.checkNulls(column, series, override, hasOverride)
	if err := r.checkEnum(column, series, override, hasOverride); err != nil {
		return err
	}
	if err := r.checkRegex(column, series); err != nil {
		return err
	}
	if err := r.checkBounds(column, series); err != nil {
		return err
	}
	r.checkLengths(column, series)
	r.checkUnique(column, series)
	return nil
}

// checkNulls resolves the effective policy in three tiers: a profile
// max_null_ratio override wins, then a profile nullable override, then
// the base spec.
func (r *validationRun) checkNulls(column *ColumnSpec, series *frame.Series, override ColumnProfileOverride, hasOverride bool) {
	policy := column.Nullable
	if hasOverride {
		if override.Nullable != nil {
			policy = *override.Nullable
		}
		if override.MaxNullRatio != nil {
			policy = NullsMaxRatio(*override.MaxNullRatio)
		}
	}
	nullRatio := series.NullRatio()
	var summary string
	switch policy.Kind() {
	case NullAllowed:
		return
	case NullForbidden:
		if nullRatio == 0 {
			return
		}
		summary = fmt.Sprintf("Null ratio %.3f exceeds allowed 0", nullRatio)
	case NullMaxRatio:
		if nullRatio <= policy.Ratio() {
			return
		}
		summary = fmt.Sprintf("Null ratio %.3f exceeds allowed %g", nullRatio, policy.Ratio())
	}
	r.fail(Violation{
		ID:       fmt.Sprintf("column.%s.nulls", column.Name),
		Level:    LevelError,
		Kind:     ViolationKindColumn,
		Columns:  []string{column.Name},
		Summary:  summary,
		Count:    series.NullCount(),
		Examples: r.examples(series.NullMask(), column.Name),
	})
}

func (r *validationRun) checkEnum(column *ColumnSpec, series *frame.Series, override ColumnProfileOverride, hasOverride bool) error {
	allowUnknown := column.AllowUnknown
	enum := column.Enum
	if hasOverride {
		if override.AllowUnknown != nil {
			allowUnknown = *override.AllowUnknown
		}
		if len(override.Enum) > 0 {
			enum = override.Enum
		}
	}
	if len(enum) == 0 || allowUnknown {
		return nil
	}
	allowed := make(map[string]bool, len(enum))
	for _, value := range enum {
		allowed[value] = true
	}
	mask := make([]bool, series.Len())
	offending := map[string]bool{}
	indices, values := series.Strings()
	for i, row := range indices {
		if !allowed[values[i]] {
			mask[row] = true
			offending[values[i]] = true
		}
	}
	if len(offending) == 0 {
		return nil
	}
	distinct := make([]string, 0, len(offending))
	for value := range offending {
		distinct = append(distinct, value)
	}
	sort.Strings(distinct)
	if len(distinct) > 5 {
		distinct = distinct[:5]
	}
	r.fail(Violation{
		ID:       fmt.Sprintf("column.%s.enum", column.Name),
		Level:    LevelError,
		Kind:     ViolationKindColumn,
		Columns:  []string{column.Name},
		Summary:  fmt.Sprintf("Found unexpected values %v", distinct),
		Count:    countMask(mask),
		Examples: r.examples(mask, column.Name),
	})
	return nil
}

func (r *validationRun) checkRegex(column *ColumnSpec, series *frame.Series) error {
	if column.Regex == "" {
		return nil
	}
	// Full match: the whole value must satisfy the pattern.
	pattern, err := regexp.Compile("^(?:" + column.Regex + ")$")
	if err != nil {
		return fmt.Errorf("%w: column %s regex: %v", ErrRuleExecution, column.Name, err)
	}
	mask := make([]bool, series.Len())
	indices, values := series.Strings()
	for i, row := range indices {
		if !pattern.MatchString(values[i]) {
			mask[row] = true
		}
	}
	if countMask(mask) == 0 {
		return nil
	}
	r.fail(Violation{
		ID:       fmt.Sprintf("column.%s.regex", column.Name),
		Level:    LevelError,
		Kind:     ViolationKindColumn,
		Columns:  []string{column.Name},
		Summary:  "Values do not match required pattern",
		Count:    countMask(mask),
		Examples: r.examples(mask, column.Name),
	})
	return nil
}

// checkBounds takes the numeric path when the column is numeric or
// numeric-coercible, the datetime path when datetime-coercible, and
// silently skips columns that are neither.
func (r *validationRun) checkBounds(column *ColumnSpec, series *frame.Series) error {
	if column.Min == nil && column.Max == nil {
		return nil
	}
	if series.IsNumericDtype() || series.CoercibleNumeric() {
		values, ok := series.Floats()
		if column.Min != nil {
			bound, numeric := column.Min.Float()
			if !numeric {
				return fmt.Errorf("%w: column %s min bound %s is not numeric", ErrRuleExecution, column.Name, column.Min)
			}
			r.boundViolation(column, "min", bound, floatMask(values, ok, func(v float64) bool { return v < bound }))
		}
		if column.Max != nil {
			bound, numeric := column.Max.Float()
			if !numeric {
				return fmt.Errorf("%w: column %s max bound %s is not numeric", ErrRuleExecution, column.Name, column.Max)
			}
			r.boundViolation(column, "max", bound, floatMask(values, ok, func(v float64) bool { return v > bound }))
		}
		return nil
	}
	if series.CoercibleDatetime() {
		times, ok := series.Times()
		if column.Min != nil {
			bound, parsed := column.Min.Time()
			if !parsed {
				return fmt.Errorf("%w: column %s min bound %s is not a timestamp", ErrRuleExecution, column.Name, column.Min)
			}
			r.boundTimeViolation(column, "min", column.Min, timeMask(times, ok, func(t time.Time) bool { return t.Before(bound) }))
		}
		if column.Max != nil {
			bound, parsed := column.Max.Time()
			if !parsed {
				return fmt.Errorf("%w: column %s max bound %s is not a timestamp", ErrRuleExecution, column.Name, column.Max)
			}
			r.boundTimeViolation(column, "max", column.Max, timeMask(times, ok, func(t time.Time) bool { return t.After(bound) }))
		}
	}
	return nil
}

func (r *validationRun) boundViolation(column *ColumnSpec, side string, bound float64, mask []bool) {
	if countMask(mask) == 0 {
		return
	}
	r.fail(Violation{
		ID:       fmt.Sprintf("column.%s.%s", column.Name, side),
		Level:    LevelError,
		Kind:     ViolationKindColumn,
		Columns:  []string{column.Name},
		Summary:  fmt.Sprintf("Values violate %s %g", side, bound),
		Count:    countMask(mask),
		Examples: r.examples(mask, column.Name),
	})
}

func (r *validationRun) boundTimeViolation(column *ColumnSpec, side string, bound *Bound, mask []bool) {
	if countMask(mask) == 0 {
		return
	}
	r.fail(Violation{
		ID:       fmt.Sprintf("column.%s.%s", column.Name, side),
		Level:    LevelError,
		Kind:     ViolationKindColumn,
		Columns:  []string{column.Name},
		Summary:  fmt.Sprintf("Values violate %s %s", side, bound),
		Count:    countMask(mask),
		Examples: r.examples(mask, column.Name),
	})
}

func (r *validationRun) checkLengths(column *ColumnSpec, series *frame.Series) {
	if column.MinLength == nil && column.MaxLength == nil {
		return
	}
	indices, values := series.Strings()
	if column.MinLength != nil {
		mask := make([]bool, series.Len())
		for i, row := range indices {
			if len([]rune(values[i])) < *column.MinLength {
				mask[row] = true
			}
		}
		if countMask(mask) > 0 {
			r.fail(Violation{
				ID:       fmt.Sprintf("column.%s.min_length", column.Name),
				Level:    LevelError,
				Kind:     ViolationKindColumn,
				Columns:  []string{column.Name},
				Summary:  fmt.Sprintf("Length shorter than %d", *column.MinLength),
				Count:    countMask(mask),
				Examples: r.examples(mask, column.Name),
			})
		}
	}
	if column.MaxLength != nil {
		mask := make([]bool, series.Len())
		for i, row := range indices {
			if len([]rune(values[i])) > *column.MaxLength {
				mask[row] = true
			}
		}
		if countMask(mask) > 0 {
			r.fail(Violation{
				ID:       fmt.Sprintf("column.%s.max_length", column.Name),
				Level:    LevelError,
				Kind:     ViolationKindColumn,
				Columns:  []string{column.Name},
				Summary:  fmt.Sprintf("Length exceeds %d", *column.MaxLength),
				Count:    countMask(mask),
				Examples: r.examples(mask, column.Name),
			})
		}
	}
}

// checkUnique flags every occurrence of a duplicated non-null value, not
// just the second and later ones.
func (r *validationRun) checkUnique(column *ColumnSpec, series *frame.Series) {
	if !column.Unique {
		return
	}
	counts := map[string]int{}
	indices, values := series.Strings()
	for i := range indices {
		counts[values[i]]++
	}
	mask := make([]bool, series.Len())
	for i, row := range indices {
		if counts[values[i]] > 1 {
			mask[row] = true
		}
	}
	if countMask(mask) == 0 {
		return
	}
	r.fail(Violation{
		ID:       fmt.Sprintf("column.%s.unique", column.Name),
		Level:    LevelError,
		Kind:     ViolationKindColumn,
		Columns:  []string{column.Name},
		Summary:  "Duplicate values found",
		Count:    countMask(mask),
		Examples: r.examples(mask, column.Name),
	})
}

// checkExtraColumns emits one WARN per undeclared dataset column when the
// contract disallows extras. Warnings never flip the overall result.
func (r *validationRun) checkExtraColumns(available map[string]bool) {
	if r.contract.AllowsExtraColumns() || len(available) == 0 {
		return
	}
	extras := make([]string, 0, len(available))
	for name := range available {
		extras = append(extras, name)
	}
	sort.Strings(extras)
	for _, extra := range extras {
		r.schemaDiffs = append(r.schemaDiffs, fmt.Sprintf("unexpected column %s", extra))
		r.add(Violation{
			ID:      fmt.Sprintf("column.%s.unexpected", extra),
			Level:   LevelWarn,
			Kind:    ViolationKindSchema,
			Columns: []string{extra},
			Summary: "Unexpected column present",
			Count:   r.table.NumRows(),
		})
	}
}

func (r *validationRun) checkUniqueKeys() error {
	for _, key := range r.contract.UniqueKeys {
		for _, name := range key {
			if !r.table.HasColumn(name) {
				return fmt.Errorf("%w: unique key column %s not in dataset", ErrRuleExecution, name)
			}
		}
		mask := r.table.DuplicatedRows(key)
		if countMask(mask) == 0 {
			continue
		}
		r.fail(Violation{
			ID:       fmt.Sprintf("contract.unique.%s", strings.Join(key, "+")),
			Level:    LevelError,
			Kind:     ViolationKindTable,
			Columns:  append([]string{}, key...),
			Summary:  "Composite key is not unique",
			Count:    countMask(mask),
			Examples: r.examples(mask, key...),
		})
	}
	return nil
}

func (r *validationRun) applyRule(rule *RuleSpec) error {
	switch {
	case rule.Kind == RuleKindRow && rule.Expr != "":
		return r.applyRowRule(rule)
	case rule.Kind == RuleKindTable && rule.FnName != "":
		return r.applyTableRule(rule)
	default:
		return nil
	}
}

func (r *validationRun) applyRowRule(rule *RuleSpec) error {
	program, err := compileRowRule(rule.Expr, r.table)
	if err != nil {
		return fmt.Errorf("rule %s: %w", rule.ID, err)
	}
	mask := program.failingRows(r.table)
	if countMask(mask) == 0 {
		return nil
	}
	r.add(Violation{
		ID:       fmt.Sprintf("rule.%s", rule.ID),
		Level:    rule.Level,
		Kind:     ViolationKindRow,
		Columns:  r.table.Columns(),
		Summary:  rule.Message,
		Count:    countMask(mask),
		Examples: r.table.Filter(mask).Records(r.maxExamples),
	})
	if rule.Level == LevelError {
		r.ok = false
	}
	return nil
}

func (r *validationRun) applyTableRule(rule *RuleSpec) error {
	fn, registered := LookupTableCheck(rule.FnName)
	if !registered {
		return fmt.Errorf("%w: unknown table rule: %s", ErrRuleExecution, rule.FnName)
	}
	failing, err := fn(r.table, rule.Params)
	if err != nil {
		return fmt.Errorf("rule %s: %w", rule.ID, err)
	}
	if failing.NumRows() == 0 {
		return nil
	}
	r.add(Violation{
		ID:       fmt.Sprintf("rule.%s", rule.ID),
		Level:    rule.Level,
		Kind:     ViolationKindTable,
		Columns:  failing.Columns(),
		Summary:  rule.Message,
		Count:    failing.NumRows(),
		Examples: failing.Records(r.maxExamples),
	})
	if rule.Level == LevelError {
		r.ok = false
	}
	return nil
}

// sampleTable draws a deterministic sample: a plain fraction, or a
// per-group proportional sample keeping at least one row per non-empty
// group when stratification columns are given.
func sampleTable(table *frame.Table, frac float64, stratifyBy []string) (*frame.Table, error) {
	if frac <= 0 || frac > 1 {
		return nil, fmt.Errorf("%w: got %g", ErrInvalidSampleFraction, frac)
	}
	if len(stratifyBy) == 0 {
		return table.Sample(frac, sampleSeed), nil
	}
	for _, name := range stratifyBy {
		if !table.HasColumn(name) {
			return nil, fmt.Errorf("%w: %s", ErrStratifyColumn, name)
		}
	}
	selected := []int{}
	for _, group := range table.GroupBy(stratifyBy) {
		take := int(math.Round(float64(len(group.Rows)) * frac))
		if take < 1 {
			take = 1
		}
		if take > len(group.Rows) {
			take = len(group.Rows)
		}
		rng := rand.New(rand.NewSource(sampleSeed))
		for _, pick := range rng.Perm(len(group.Rows))[:take] {
			selected = append(selected, group.Rows[pick])
		}
	}
	sort.Ints(selected)
	return table.SelectRows(selected), nil
}

func countMask(mask []bool) int {
	count := 0
	for _, flagged := range mask {
		if flagged {
			count++
		}
	}
	return count
}

func floatMask(values []float64, ok []bool, pred func(float64) bool) []bool {
	mask := make([]bool, len(values))
	for i := range values {
		if ok[i] && pred(values[i]) {
			mask[i] = true
		}
	}
	return mask
}

func timeMask(values []time.Time, ok []bool, pred func(time.Time) bool) []bool {
	mask := make([]bool, len(values))
	for i := range values {
		if ok[i] && pred(values[i]) {
			mask[i] = true
		}
	}
	return mask
}
