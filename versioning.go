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
	"sort"

	"github.com/goccy/go-json"
)

// ColumnChange records the before/after of one changed column attribute.
type ColumnChange struct {
	Dtype    *FromTo   `json:"dtype,omitempty"`
	Nullable *FromTo   `json:"nullable,omitempty"`
	Enum     *EnumDiff `json:"enum,omitempty"`
}

type FromTo struct {
	From string `json:"from"`
	To   string `json:"to"`
}

type EnumDiff struct {
	Removed []string `json:"removed"`
	Added   []string `json:"added"`
}

// RuleChange records the before/after of one modified rule.
type RuleChange struct {
	From RuleSpec `json:"from"`
	To   RuleSpec `json:"to"`
}

// ContractDiff buckets every detected change into breaking and
// non-breaking lists, with structured detail per changed column and rule.
type ContractDiff struct {
	Breaking       []string                `json:"breaking"`
	NonBreaking    []string                `json:"non_breaking"`
	ChangedColumns map[string]ColumnChange `json:"changed_columns"`
	ChangedRules   map[string]RuleChange   `json:"changed_rules"`
}

// IsBreaking reports whether the diff could cause previously valid data
// to fail: true iff the breaking bucket is non-empty.
func (d *ContractDiff) IsBreaking() bool {
	return len(d.Breaking) > 0
}

// ToJSON renders the diff as indented JSON.
func (d *ContractDiff) ToJSON() (string, error) {
	payload, err := json.MarshalIndent(d, "", "  ")
	if err != nil {
		return "", err
	}
	return string(payload), nil
}

// CompareContracts classifies every schema and rule change between two
// contract versions. Removals and tightenings break; additions and
// relaxations do not, except new ERROR-level rules.
func CompareContracts(old *Contract, new *Contract) *ContractDiff {
	diff := &ContractDiff{
		Breaking:       []string{},
		NonBreaking:    []string{},
		ChangedColumns: map[string]ColumnChange{},
		ChangedRules:   map[string]RuleChange{},
	}
	oldCols := old.ColumnMap()
	newCols := new.ColumnMap()
	for _, oldCol := range old.Columns {
		newCol, kept := newCols[oldCol.Name]
		if !kept {
			diff.Breaking = append(diff.Breaking, describe("column removed", oldCol.Name))
			continue
		}
		change := ColumnChange{}
		if NormalizeDtype(oldCol.Dtype) != NormalizeDtype(newCol.Dtype) {
			change.Dtype = &FromTo{From: oldCol.Dtype, To: newCol.Dtype}
			if IsDtypeNarrowing(oldCol.Dtype, newCol.Dtype) {
				diff.Breaking = append(diff.Breaking, describe("dtype narrowed", oldCol.Name))
			} else {
				diff.NonBreaking = append(diff.NonBreaking, describe("dtype widened", oldCol.Name))
			}
		}
		if oldCol.Nullable != newCol.Nullable {
			change.Nullable = &FromTo{From: oldCol.Nullable.String(), To: newCol.Nullable.String()}
			if newCol.Nullable.Ratio() < oldCol.Nullable.Ratio() {
				diff.Breaking = append(diff.Breaking, describe("nullability tightened", oldCol.Name))
			} else {
				diff.NonBreaking = append(diff.NonBreaking, describe("nullability relaxed", oldCol.Name))
			}
		}
		if len(oldCol.Enum) > 0 && len(newCol.Enum) > 0 {
			removed, added := setDiff(oldCol.Enum, newCol.Enum)
			if len(removed) > 0 {
				diff.Breaking = append(diff.Breaking,
					describe(fmt.Sprintf("enum removed values %v", removed), oldCol.Name))
			}
			if len(added) > 0 {
				diff.NonBreaking = append(diff.NonBreaking,
					describe(fmt.Sprintf("enum added values %v", added), oldCol.Name))
			}
			if len(removed) > 0 || len(added) > 0 {
				change.Enum = &EnumDiff{Removed: removed, Added: added}
			}
		}
		if change.Dtype != nil || change.Nullable != nil || change.Enum != nil {
			diff.ChangedColumns[oldCol.Name] = change
		}
	}
	for _, newCol := range new.Columns {
		if _, existed := oldCols[newCol.Name]; !existed {
			diff.NonBreaking = append(diff.NonBreaking, describe("column added", newCol.Name))
		}
	}
	compareRules(old, new, diff)
	return diff
}

func compareRules(old *Contract, new *Contract, diff *ContractDiff) {
	oldRules := map[string]*RuleSpec{}
	for i := range old.Rules {
		oldRules[old.Rules[i].ID] = &old.Rules[i]
	}
	newRules := map[string]*RuleSpec{}
	for i := range new.Rules {
		newRules[new.Rules[i].ID] = &new.Rules[i]
	}
	for _, oldRule := range old.Rules {
		newRule, kept := newRules[oldRule.ID]
		if !kept {
			diff.Breaking = append(diff.Breaking, fmt.Sprintf("rule %s removed", oldRule.ID))
			continue
		}
		if oldRule.Level != newRule.Level || oldRule.Kind != newRule.Kind || oldRule.Message != newRule.Message {
			diff.ChangedRules[oldRule.ID] = RuleChange{From: oldRule, To: *newRule}
			if newRule.Level == LevelError && oldRule.Level == LevelWarn {
				diff.Breaking = append(diff.Breaking, fmt.Sprintf("rule %s escalated to ERROR", oldRule.ID))
			}
		}
	}
	for _, newRule := range new.Rules {
		if _, existed := oldRules[newRule.ID]; existed {
			continue
		}
		if newRule.Level == LevelError {
			diff.Breaking = append(diff.Breaking, fmt.Sprintf("rule %s added", newRule.ID))
		} else {
			diff.NonBreaking = append(diff.NonBreaking, fmt.Sprintf("rule %s added", newRule.ID))
		}
	}
}

func describe(message string, column string) string {
	return fmt.Sprintf("%s: %s", column, message)
}

func setDiff(old []string, new []string) (removed []string, added []string) {
	oldSet := map[string]bool{}
	for _, value := range old {
		oldSet[value] = true
	}
	newSet := map[string]bool{}
	for _, value := range new {
		newSet[value] = true
	}
	removed = []string{}
	added = []string{}
	for value := range oldSet {
		if !newSet[value] {
			removed = append(removed, value)
		}
	}
	for value := range newSet {
		if !oldSet[value] {
			added = append(added, value)
		}
	}
	sort.Strings(removed)
	sort.Strings(added)
	return removed, added
}
