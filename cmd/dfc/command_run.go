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

package main

import (
	"fmt"
	"os"
	"runtime"

	"github.com/fatih/color"
	"github.com/goccy/go-json"

	"github.com/DataFrameGuard/dfc-core/dfc"
)

// RunCmd executes a YAML plan of validation suites.
type RunCmd struct {
	Config  string `arg:"" help:"Plan file (yaml)" type:"path"`
	Workers int    `help:"Number of parallel suites (0 means CPU count)" default:"0"`
	Report  string `help:"Write the combined results as JSON" type:"path"`
}

func (cmd *RunCmd) Run(ctx *Context) error {
	plan, err := dfc.LoadPlan(cmd.Config)
	if err != nil {
		return err
	}
	workers := cmd.Workers
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	results := dfc.RunPlan(plan, workers, ctx.Logger)

	failed := 0
	for _, result := range results {
		if result.OK {
			if !ctx.Quiet {
				color.New(color.FgGreen).Printf("PASS %s\n", result.Suite)
			}
			continue
		}
		failed++
		if ctx.Quiet {
			continue
		}
		color.New(color.FgRed, color.Bold).Printf("FAIL %s\n", result.Suite)
		if result.Err != "" {
			fmt.Printf("  error: %s\n", result.Err)
		}
		if result.Validation != nil && !result.Validation.OK {
			for _, violation := range result.Validation.Violations {
				fmt.Printf("  [%s] %s: %s\n", violation.Level, violation.ID, violation.Summary)
			}
		}
		for _, check := range result.Checks {
			if !check.Passed {
				fmt.Printf("  check failed: %s (actual %v)\n", check.Expression, check.Actual)
			}
		}
		if result.Drift != nil && !result.Drift.OK {
			for _, finding := range result.Drift.Findings {
				fmt.Printf("  drift: %s %s\n", finding.Column, finding.Kind)
			}
		}
	}

	if cmd.Report != "" {
		rendered, err := json.MarshalIndent(results, "", "  ")
		if err != nil {
			return err
		}
		if err := os.WriteFile(cmd.Report, rendered, 0o644); err != nil {
			return err
		}
	}

	if failed > 0 {
		return errChecksFailed
	}
	return nil
}
