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

package dfc

import (
	"fmt"
	"log/slog"
	"os"
	"sort"
	"sync"
	"time"

	"gopkg.in/yaml.v3"

	dfccore "github.com/DataFrameGuard/dfc-core"
)

// Plan is a YAML-defined batch of validation suites, one per dataset.
type Plan struct {
	Version string  `yaml:"version"`
	Suites  []Suite `yaml:"suites"`
}

// Suite validates one dataset against its contract, optionally compares
// it against a drift baseline and runs inline quick checks.
type Suite struct {
	Name     string   `yaml:"name"`
	Data     string   `yaml:"data"`
	Contract string   `yaml:"contract,omitempty"`
	Profile  string   `yaml:"profile,omitempty"`
	Sample   float64  `yaml:"sample,omitempty"`
	Checks   []string `yaml:"checks,omitempty"`

	Drift *SuiteDrift `yaml:"drift,omitempty"`
}

// SuiteDrift points a suite at a stored drift baseline.
type SuiteDrift struct {
	Snapshot  string  `yaml:"snapshot"`
	Quantile  float64 `yaml:"quantile,omitempty"`
	NullRatio float64 `yaml:"null_ratio,omitempty"`
	Category  float64 `yaml:"category,omitempty"`
}

// SuiteResult is the outcome of one executed suite.
type SuiteResult struct {
	Suite      string                       `json:"suite"`
	OK         bool                         `json:"ok"`
	Validation *dfccore.ValidationReport    `json:"validation,omitempty"`
	Drift      *dfccore.DriftReport         `json:"drift,omitempty"`
	Checks     []*dfccore.InlineCheckResult `json:"checks,omitempty"`
	Err        string                       `json:"error,omitempty"`
}

// LoadPlan reads a validation plan from a YAML file.
func LoadPlan(path string) (*Plan, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", dfccore.ErrContractIO, err)
	}
	defer file.Close()

	var plan Plan
	decoder := yaml.NewDecoder(file)
	if err := decoder.Decode(&plan); err != nil {
		return nil, fmt.Errorf("parse plan: %w", err)
	}
	for i, suite := range plan.Suites {
		if suite.Name == "" {
			return nil, fmt.Errorf("parse plan: suite %d has no name", i)
		}
		if suite.Data == "" {
			return nil, fmt.Errorf("parse plan: suite %q has no data file", suite.Name)
		}
		for _, check := range suite.Checks {
			if _, err := dfccore.ParseInlineCheck(check); err != nil {
				return nil, fmt.Errorf("parse plan: suite %q: %w", suite.Name, err)
			}
		}
	}
	return &plan, nil
}

// RunPlan executes every suite in the plan, up to workers at a time.
// Results come back sorted by suite name regardless of completion order.
func RunPlan(plan *Plan, workers int, logger *slog.Logger) []SuiteResult {
	pool := newTaskPool(workers, logger)
	var mu sync.Mutex
	results := make([]SuiteResult, 0, len(plan.Suites))

	for _, suite := range plan.Suites {
		suite := suite
		pool.Enqueue(suite.Name, func() error {
			result := runSuite(&suite, logger)
			mu.Lock()
			results = append(results, result)
			mu.Unlock()
			if !result.OK {
				return fmt.Errorf("suite %s failed", suite.Name)
			}
			return nil
		})
	}
	pool.Join()

	sort.Slice(results, func(i, j int) bool { return results[i].Suite < results[j].Suite })
	return results
}

func runSuite(suite *Suite, logger *slog.Logger) SuiteResult {
	result := SuiteResult{Suite: suite.Name, OK: true}

	table, err := LoadTable(suite.Data)
	if err != nil {
		return suiteError(suite.Name, err)
	}

	if suite.Contract != "" {
		contract, err := dfccore.LoadContract(suite.Contract)
		if err != nil {
			return suiteError(suite.Name, err)
		}
		report, err := dfccore.NewValidator(logger).Validate(table, contract, dfccore.ValidateOptions{
			Profile: suite.Profile,
			Sample:  suite.Sample,
		})
		if err != nil {
			return suiteError(suite.Name, err)
		}
		result.Validation = report
		result.OK = result.OK && report.OK
	}

	for _, expression := range suite.Checks {
		check, err := dfccore.EvaluateInlineCheck(table, expression, time.Now().UTC())
		if err != nil {
			return suiteError(suite.Name, err)
		}
		result.Checks = append(result.Checks, check)
		result.OK = result.OK && check.Passed
	}

	if suite.Drift != nil {
		reference, err := dfccore.LoadSnapshot(suite.Drift.Snapshot)
		if err != nil {
			return suiteError(suite.Name, err)
		}
		current := dfccore.Snapshot(table, dfccore.SnapshotOptions{})
		drift := dfccore.CompareSnapshots(reference, current, dfccore.DriftThresholds{
			Quantile:  suite.Drift.Quantile,
			NullRatio: suite.Drift.NullRatio,
			Category:  suite.Drift.Category,
		})
		result.Drift = drift
		result.OK = result.OK && drift.OK
	}

	return result
}

func suiteError(name string, err error) SuiteResult {
	return SuiteResult{Suite: name, OK: false, Err: err.Error()}
}
