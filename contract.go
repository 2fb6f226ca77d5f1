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
	"strconv"
	"strings"
	"time"

	"github.com/DataFrameGuard/dfc-core/frame"
	"github.com/goccy/go-json"
)

// Level is the severity of a rule or violation.
type Level string

const (
	LevelError Level = "ERROR"
	LevelWarn  Level = "WARN"
)

// RuleKind selects how a RuleSpec is evaluated.
type RuleKind string

const (
	RuleKindRow   RuleKind = "row"
	RuleKindTable RuleKind = "table"
)

// NullPolicyKind tags the NullPolicy variant.
type NullPolicyKind int

const (
	// NullForbidden tolerates zero nulls. Zero value, matching the
	// contract default nullable=false.
	NullForbidden NullPolicyKind = iota
	// NullAllowed tolerates any null ratio.
	NullAllowed
	// NullMaxRatio tolerates nulls up to a ratio in [0, 1].
	NullMaxRatio
)

// NullPolicy is the tagged variant behind the contract's polymorphic
// nullable field: false forbids nulls, true allows them, a float caps the
// null ratio. Keeping the three cases explicit makes every branch
// exhaustive.
type NullPolicy struct {
	kind     NullPolicyKind
	maxRatio float64
}

func NullsForbidden() NullPolicy {
	return NullPolicy{kind: NullForbidden}
}

func NullsAllowed() NullPolicy {
	return NullPolicy{kind: NullAllowed}
}

func NullsMaxRatio(ratio float64) NullPolicy {
	return NullPolicy{kind: NullMaxRatio, maxRatio: ratio}
}

func (p NullPolicy) Kind() NullPolicyKind {
	return p.kind
}

// Ratio collapses the policy to the tolerated null ratio: forbidden is 0,
// allowed is 1, a cap is itself.
func (p NullPolicy) Ratio() float64 {
	switch p.kind {
	case NullAllowed:
		return 1.0
	case NullMaxRatio:
		return p.maxRatio
	default:
		return 0.0
	}
}

func (p NullPolicy) String() string {
	switch p.kind {
	case NullAllowed:
		return "true"
	case NullMaxRatio:
		return strconv.FormatFloat(p.maxRatio, 'g', -1, 64)
	default:
		return "false"
	}
}

func (p NullPolicy) MarshalJSON() ([]byte, error) {
	switch p.kind {
	case NullAllowed:
		return []byte("true"), nil
	case NullMaxRatio:
		return []byte(strconv.FormatFloat(p.maxRatio, 'g', -1, 64)), nil
	default:
		return []byte("false"), nil
	}
}

func (p *NullPolicy) UnmarshalJSON(data []byte) error {
	var raw any
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	return p.fromAny(raw)
}

// MarshalText keeps the policy round-trippable through the TOML codec,
// which renders it as the strings "false", "true" or the ratio.
func (p NullPolicy) MarshalText() ([]byte, error) {
	return []byte(p.String()), nil
}

func (p *NullPolicy) UnmarshalText(text []byte) error {
	value := strings.TrimSpace(string(text))
	switch value {
	case "false", "":
		*p = NullsForbidden()
		return nil
	case "true":
		*p = NullsAllowed()
		return nil
	}
	ratio, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return fmt.Errorf("invalid null policy %q", value)
	}
	*p = NullsMaxRatio(ratio)
	return nil
}

func (p *NullPolicy) fromAny(raw any) error {
	switch value := raw.(type) {
	case bool:
		if value {
			*p = NullsAllowed()
		} else {
			*p = NullsForbidden()
		}
		return nil
	case float64:
		*p = NullsMaxRatio(value)
		return nil
	case string:
		return p.UnmarshalText([]byte(value))
	default:
		return fmt.Errorf("invalid null policy %v", raw)
	}
}

// Bound is a min/max limit: either a number or a datetime string.
type Bound struct {
	num   float64
	str   string
	isNum bool
}

func NumBound(value float64) *Bound {
	return &Bound{num: value, isNum: true}
}

func StrBound(value string) *Bound {
	return &Bound{str: value}
}

// Float returns the numeric form of the bound, parsing string bounds when
// they happen to hold numbers.
func (b *Bound) Float() (float64, bool) {
	if b.isNum {
		return b.num, true
	}
	parsed, err := strconv.ParseFloat(strings.TrimSpace(b.str), 64)
	if err != nil {
		return 0, false
	}
	return parsed, true
}

// Time parses the bound as a timestamp.
func (b *Bound) Time() (time.Time, bool) {
	if b.isNum {
		return time.Time{}, false
	}
	return frame.ParseTime(b.str)
}

func (b *Bound) String() string {
	if b.isNum {
		return strconv.FormatFloat(b.num, 'g', -1, 64)
	}
	return b.str
}

func (b *Bound) MarshalJSON() ([]byte, error) {
	if b.isNum {
		return []byte(strconv.FormatFloat(b.num, 'g', -1, 64)), nil
	}
	return json.Marshal(b.str)
}

func (b *Bound) UnmarshalJSON(data []byte) error {
	var raw any
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	switch value := raw.(type) {
	case float64:
		*b = Bound{num: value, isNum: true}
	case string:
		*b = Bound{str: value}
	default:
		return fmt.Errorf("invalid bound %v", raw)
	}
	return nil
}

func (b *Bound) MarshalText() ([]byte, error) {
	return []byte(b.String()), nil
}

func (b *Bound) UnmarshalText(text []byte) error {
	value := string(text)
	if parsed, err := strconv.ParseFloat(strings.TrimSpace(value), 64); err == nil {
		*b = Bound{num: parsed, isNum: true}
		return nil
	}
	*b = Bound{str: value}
	return nil
}

// ColumnSpec declares the expectations for one column.
type ColumnSpec struct {
	Name         string                           `json:"name" toml:"name"`
	Dtype        string                           `json:"dtype" toml:"dtype"`
	Nullable     NullPolicy                       `json:"nullable" toml:"nullable"`
	Unique       bool                             `json:"unique,omitempty" toml:"unique,omitempty"`
	Min          *Bound                           `json:"min,omitempty" toml:"min,omitempty"`
	Max          *Bound                           `json:"max,omitempty" toml:"max,omitempty"`
	Enum         []string                         `json:"enum,omitempty" toml:"enum,omitempty"`
	AllowUnknown bool                             `json:"allow_unknown,omitempty" toml:"allow_unknown,omitempty"`
	Regex        string                           `json:"regex,omitempty" toml:"regex,omitempty"`
	MinLength    *int                             `json:"min_length,omitempty" toml:"min_length,omitempty"`
	MaxLength    *int                             `json:"max_length,omitempty" toml:"max_length,omitempty"`
	Tz           string                           `json:"tz,omitempty" toml:"tz,omitempty"`
	Description  string                           `json:"description,omitempty" toml:"description,omitempty"`
	Unit         string                           `json:"unit,omitempty" toml:"unit,omitempty"`
	Profiles     map[string]ColumnProfileOverride `json:"profiles,omitempty" toml:"profiles,omitempty"`
}

// RuleSpec declares one cross-column rule. Row rules carry a boolean
// expression evaluated per row; table rules name a registered check
// function plus its parameters.
type RuleSpec struct {
	ID      string         `json:"id" toml:"id"`
	Level   Level          `json:"level" toml:"level"`
	Kind    RuleKind       `json:"kind" toml:"kind"`
	Expr    string         `json:"expr,omitempty" toml:"expr,omitempty"`
	FnName  string         `json:"fn_name,omitempty" toml:"fn_name,omitempty"`
	Params  map[string]any `json:"params,omitempty" toml:"params,omitempty"`
	Message string         `json:"message" toml:"message"`
}

// ColumnProfileOverride relaxes or tightens a single column for one
// named profile. Nil fields leave the base spec in force.
type ColumnProfileOverride struct {
	Nullable     *NullPolicy `json:"nullable,omitempty" toml:"nullable,omitempty"`
	AllowUnknown *bool       `json:"allow_unknown,omitempty" toml:"allow_unknown,omitempty"`
	Enum         []string    `json:"enum,omitempty" toml:"enum,omitempty"`
	MaxNullRatio *float64    `json:"max_null_ratio,omitempty" toml:"max_null_ratio,omitempty"`
}

// ProfileOverrides is one named override bundle, e.g. "prod" or "staging".
type ProfileOverrides struct {
	Columns            map[string]ColumnProfileOverride `json:"columns,omitempty" toml:"columns,omitempty"`
	DefaultMaxExamples int                              `json:"default_max_examples,omitempty" toml:"default_max_examples,omitempty"`
}

// Contract is a declarative schema plus rule set a dataset must satisfy.
// It is immutable during a validation run; inference and linting produce
// new contract values instead of mutating it.
type Contract struct {
	Name              string                      `json:"name" toml:"name"`
	Version           string                      `json:"version" toml:"version"`
	Description       string                      `json:"description,omitempty" toml:"description,omitempty"`
	Columns           []ColumnSpec                `json:"columns" toml:"columns"`
	Rules             []RuleSpec                  `json:"rules,omitempty" toml:"rules,omitempty"`
	Profiles          map[string]ProfileOverrides `json:"profiles,omitempty" toml:"profiles,omitempty"`
	Metadata          map[string]any              `json:"metadata,omitempty" toml:"metadata,omitempty"`
	UniqueKeys        [][]string                  `json:"unique_keys,omitempty" toml:"unique_keys,omitempty"`
	AllowExtraColumns *bool                       `json:"allow_extra_columns,omitempty" toml:"allow_extra_columns,omitempty"`
}

// AllowsExtraColumns reports the effective extra-column policy; the
// default with no explicit setting is to allow them.
func (c *Contract) AllowsExtraColumns() bool {
	return c.AllowExtraColumns == nil || *c.AllowExtraColumns
}

// ColumnMap indexes the declared columns by name.
func (c *Contract) ColumnMap() map[string]*ColumnSpec {
	out := make(map[string]*ColumnSpec, len(c.Columns))
	for i := range c.Columns {
		out[c.Columns[i].Name] = &c.Columns[i]
	}
	return out
}

// Clone deep-copies the contract through its JSON form, so linting can
// produce an edited copy without touching the original.
func (c *Contract) Clone() (*Contract, error) {
	payload, err := json.Marshal(c)
	if err != nil {
		return nil, err
	}
	var out Contract
	if err := json.Unmarshal(payload, &out); err != nil {
		return nil, err
	}
	return &out, nil
}
