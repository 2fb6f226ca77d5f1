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
	"errors"
	"fmt"
	"os"
	"strconv"

	"github.com/fatih/color"
	"github.com/olekukonko/tablewriter"

	dfccore "github.com/DataFrameGuard/dfc-core"
	"github.com/DataFrameGuard/dfc-core/dfc"
	"github.com/DataFrameGuard/dfc-core/exporters"
)

// errChecksFailed signals a non-zero exit after findings were already
// rendered to the console.
var errChecksFailed = errors.New("checks failed")

// InitCmd infers a contract from a dataset.
type InitCmd struct {
	Path    string  `arg:"" help:"Dataset file (csv or json)" type:"path"`
	Name    string  `help:"Contract name" default:"dataset"`
	Version string  `help:"Contract version" default:"0.1.0"`
	Sample  float64 `help:"Sample fraction in (0, 1]"`
	Out     string  `short:"o" help:"Write the contract to a file instead of stdout" type:"path"`
}

func (cmd *InitCmd) Run(ctx *Context) error {
	table, err := dfc.LoadTable(cmd.Path)
	if err != nil {
		return err
	}
	if cmd.Sample > 0 && cmd.Sample < 1 {
		table = table.Sample(cmd.Sample, 0)
	}
	result := dfccore.InferContract(table, cmd.Name, dfccore.InferOptions{Version: cmd.Version})
	for _, suggestion := range result.Suggestions {
		ctx.Logger.Debug("inference suggestion",
			"column", suggestion.Column,
			"kind", suggestion.Kind,
			"message", suggestion.Message)
	}
	if cmd.Out != "" {
		return dfccore.SaveContract(result.Contract, cmd.Out)
	}
	rendered, err := result.Contract.ToJSON()
	if err != nil {
		return err
	}
	fmt.Println(rendered)
	return nil
}

// SaveCmd converts a contract between the supported formats.
type SaveCmd struct {
	Contract string `arg:"" help:"Contract file to load" type:"path"`
	Out      string `short:"o" required:"" help:"Output contract file" type:"path"`
	Format   string `short:"f" help:"Force format json|toml" enum:",json,toml" default:""`
}

func (cmd *SaveCmd) Run(ctx *Context) error {
	contract, err := dfccore.LoadContract(cmd.Contract)
	if err != nil {
		return err
	}
	switch cmd.Format {
	case "json":
		rendered, err := contract.ToJSON()
		if err != nil {
			return err
		}
		return os.WriteFile(cmd.Out, []byte(rendered), 0o644)
	case "toml":
		rendered, err := contract.ToTOML()
		if err != nil {
			return err
		}
		return os.WriteFile(cmd.Out, []byte(rendered), 0o644)
	default:
		return dfccore.SaveContract(contract, cmd.Out)
	}
}

// CheckCmd validates a dataset against a contract.
type CheckCmd struct {
	Path        string   `arg:"" help:"Dataset file (csv or json)" type:"path"`
	Contract    string   `short:"c" required:"" help:"Contract file" type:"path"`
	Profile     string   `help:"Profile name" default:"prod"`
	Sample      float64  `help:"Sample fraction in (0, 1]"`
	StratifyBy  []string `help:"Columns to stratify sampling by"`
	MaxExamples int      `help:"Maximum examples per violation" default:"20"`
	Report      string   `help:"Write a JSON report" type:"path"`
	HTML        string   `help:"Write an HTML report" type:"path"`
	Junit       string   `help:"Write a JUnit XML report" type:"path"`
	Markdown    string   `help:"Write a Markdown report" type:"path"`
	SnapshotOut string   `help:"Write a drift baseline of the validated data" type:"path"`
}

func (cmd *CheckCmd) Run(ctx *Context) error {
	opts := dfccore.ValidateOptions{
		Profile:      cmd.Profile,
		Sample:       cmd.Sample,
		StratifyBy:   cmd.StratifyBy,
		MaxExamples:  cmd.MaxExamples,
		WithSnapshot: cmd.SnapshotOut != "",
	}
	report, err := dfc.Check(cmd.Contract, cmd.Path, opts, ctx.Logger)
	if err != nil {
		return err
	}
	if !ctx.Quiet {
		report.WriteConsole(os.Stdout)
	}
	if cmd.Report != "" {
		rendered, err := report.ToJSON()
		if err != nil {
			return err
		}
		if err := os.WriteFile(cmd.Report, []byte(rendered), 0o644); err != nil {
			return err
		}
	}
	if cmd.HTML != "" {
		rendered, err := report.ToHTML()
		if err != nil {
			return err
		}
		if err := os.WriteFile(cmd.HTML, []byte(rendered), 0o644); err != nil {
			return err
		}
	}
	if cmd.Junit != "" {
		rendered, err := report.ToJUnit()
		if err != nil {
			return err
		}
		if err := os.WriteFile(cmd.Junit, []byte(rendered), 0o644); err != nil {
			return err
		}
	}
	if cmd.Markdown != "" {
		if err := os.WriteFile(cmd.Markdown, []byte(report.ToMarkdown()), 0o644); err != nil {
			return err
		}
	}
	if cmd.SnapshotOut != "" && report.Snapshot != nil {
		if err := dfccore.SaveSnapshot(report.Snapshot, cmd.SnapshotOut); err != nil {
			return err
		}
	}
	if !report.OK {
		return errChecksFailed
	}
	return nil
}

// DiffContractsCmd classifies changes between two contract versions.
type DiffContractsCmd struct {
	Old            string `arg:"" help:"Previous contract file" type:"path"`
	New            string `arg:"" help:"Next contract file" type:"path"`
	FailOnBreaking bool   `help:"Exit non-zero when breaking changes are present"`
}

func (cmd *DiffContractsCmd) Run(ctx *Context) error {
	diff, err := dfc.DiffContracts(cmd.Old, cmd.New)
	if err != nil {
		return err
	}
	rendered, err := diff.ToJSON()
	if err != nil {
		return err
	}
	fmt.Println(rendered)
	if diff.IsBreaking() {
		if !ctx.Quiet {
			color.New(color.FgRed, color.Bold).Fprintln(os.Stderr, "Breaking changes detected")
		}
		if cmd.FailOnBreaking {
			return errChecksFailed
		}
	}
	return nil
}

// LintCmd suggests contract improvements from sample data.
type LintCmd struct {
	Path     string `arg:"" help:"Dataset file (csv or json)" type:"path"`
	Contract string `short:"c" required:"" help:"Contract file" type:"path"`
	Apply    bool   `help:"Apply mechanical suggestions and write the updated contract"`
	Out      string `short:"o" help:"Output file for the updated contract (defaults to the input contract)" type:"path"`
	NoBump   bool   `help:"Do not bump the contract version when applying"`
}

func (cmd *LintCmd) Run(ctx *Context) error {
	report, contract, err := dfc.Lint(cmd.Contract, cmd.Path)
	if err != nil {
		return err
	}
	if report.IsClean() {
		if !ctx.Quiet {
			color.New(color.FgGreen).Println("Contract is clean")
		}
		return nil
	}
	for _, suggestion := range report.Suggestions {
		line := fmt.Sprintf("[%s] %s: %s (%s)", suggestion.Severity, suggestion.Location, suggestion.Message, suggestion.Diff)
		if suggestion.Severity == dfccore.LintWarn {
			color.Yellow(line)
		} else {
			fmt.Println(line)
		}
	}
	if !cmd.Apply {
		return nil
	}
	updated, err := report.Apply(contract, !cmd.NoBump)
	if err != nil {
		return err
	}
	out := cmd.Out
	if out == "" {
		out = cmd.Contract
	}
	return dfccore.SaveContract(updated, out)
}

// SnapshotCmd captures a drift baseline from a dataset.
type SnapshotCmd struct {
	Path    string   `arg:"" help:"Dataset file (csv or json)" type:"path"`
	Out     string   `short:"o" help:"Write the snapshot to a file instead of stdout" type:"path"`
	Columns []string `help:"Restrict the snapshot to these columns"`
	TopK    int      `help:"Top values per categorical column" default:"20"`
}

func (cmd *SnapshotCmd) Run(ctx *Context) error {
	snap, err := dfc.SnapshotData(cmd.Path, dfccore.SnapshotOptions{
		Columns: cmd.Columns,
		TopK:    cmd.TopK,
	})
	if err != nil {
		return err
	}
	if cmd.Out != "" {
		return dfccore.SaveSnapshot(snap, cmd.Out)
	}
	rendered, err := snap.ToJSON()
	if err != nil {
		return err
	}
	fmt.Println(rendered)
	return nil
}

// DriftCmd compares a dataset against a stored drift baseline.
type DriftCmd struct {
	Path               string  `arg:"" help:"Dataset file (csv or json)" type:"path"`
	Snapshot           string  `short:"s" required:"" help:"Reference snapshot file" type:"path"`
	QuantileThreshold  float64 `help:"Quantile drift threshold" default:"0.1"`
	NullRatioThreshold float64 `help:"Absolute null ratio drift threshold" default:"0.05"`
	CategoryThreshold  float64 `help:"Categorical churn threshold" default:"0.2"`
	HTML               string  `help:"Write an HTML drift report" type:"path"`
}

func (cmd *DriftCmd) Run(ctx *Context) error {
	report, err := dfc.CheckDrift(cmd.Snapshot, cmd.Path, dfccore.DriftThresholds{
		Quantile:  cmd.QuantileThreshold,
		NullRatio: cmd.NullRatioThreshold,
		Category:  cmd.CategoryThreshold,
	})
	if err != nil {
		return err
	}
	rendered, err := report.ToJSON()
	if err != nil {
		return err
	}
	fmt.Println(rendered)
	if cmd.HTML != "" {
		if err := os.WriteFile(cmd.HTML, []byte(report.ToHTML()), 0o644); err != nil {
			return err
		}
	}
	if !report.OK {
		if !ctx.Quiet {
			color.New(color.FgRed, color.Bold).Fprintln(os.Stderr, "Drift detected")
		}
		return errChecksFailed
	}
	return nil
}

// StatsCmd prints per-column summary statistics.
type StatsCmd struct {
	Path   string  `arg:"" help:"Dataset file (csv or json)" type:"path"`
	Sample float64 `help:"Sample fraction in (0, 1]"`
}

func (cmd *StatsCmd) Run(ctx *Context) error {
	table, err := dfc.LoadTable(cmd.Path)
	if err != nil {
		return err
	}
	if cmd.Sample > 0 && cmd.Sample < 1 {
		table = table.Sample(cmd.Sample, 0)
	}
	out := tablewriter.NewTable(os.Stdout)
	out.Header("Column", "Dtype", "Null %", "Distinct")
	for _, name := range table.Columns() {
		series, _ := table.Column(name)
		out.Append([]string{
			name,
			series.Dtype,
			fmt.Sprintf("%.2f", series.NullRatio()*100),
			strconv.Itoa(series.Nunique()),
		})
	}
	out.Render()
	return nil
}

// ExportTypesCmd generates a Go row struct from a contract.
type ExportTypesCmd struct {
	Contract string `arg:"" help:"Contract file" type:"path"`
	Package  string `help:"Package name for the generated file" default:"types"`
	Out      string `short:"o" help:"Write the generated source to a file instead of stdout" type:"path"`
}

func (cmd *ExportTypesCmd) Run(ctx *Context) error {
	contract, err := dfccore.LoadContract(cmd.Contract)
	if err != nil {
		return err
	}
	return writeOut(cmd.Out, exporters.ToGoStruct(contract, cmd.Package))
}

// ExportDbtCmd generates dbt schema tests from a contract.
type ExportDbtCmd struct {
	Contract string `arg:"" help:"Contract file" type:"path"`
	Table    string `help:"dbt model name (defaults to the contract name)"`
	Out      string `short:"o" help:"Write the schema.yml fragment to a file instead of stdout" type:"path"`
}

func (cmd *ExportDbtCmd) Run(ctx *Context) error {
	contract, err := dfccore.LoadContract(cmd.Contract)
	if err != nil {
		return err
	}
	tableName := cmd.Table
	if tableName == "" {
		tableName = contract.Name
	}
	rendered, err := exporters.ToDbtTests(contract, tableName)
	if err != nil {
		return err
	}
	return writeOut(cmd.Out, rendered)
}

// ExportGxCmd generates a Great Expectations suite from a contract.
type ExportGxCmd struct {
	Contract string `arg:"" help:"Contract file" type:"path"`
	Out      string `short:"o" help:"Write the suite to a file instead of stdout" type:"path"`
}

func (cmd *ExportGxCmd) Run(ctx *Context) error {
	contract, err := dfccore.LoadContract(cmd.Contract)
	if err != nil {
		return err
	}
	rendered, err := exporters.ToGxSuite(contract).ToJSON()
	if err != nil {
		return err
	}
	return writeOut(cmd.Out, string(rendered))
}

// SQLCmd generates CREATE TABLE DDL from a contract.
type SQLCmd struct {
	Contract string `arg:"" help:"Contract file" type:"path"`
	Dialect  string `help:"SQL dialect" enum:"postgres,sqlite,bigquery" default:"postgres"`
	Out      string `short:"o" help:"Write the DDL to a file instead of stdout" type:"path"`
}

func (cmd *SQLCmd) Run(ctx *Context) error {
	contract, err := dfccore.LoadContract(cmd.Contract)
	if err != nil {
		return err
	}
	rendered, err := exporters.ToSQL(contract, cmd.Dialect)
	if err != nil {
		return err
	}
	return writeOut(cmd.Out, rendered)
}

func writeOut(path string, content string) error {
	if path == "" {
		fmt.Print(content)
		return nil
	}
	return os.WriteFile(path, []byte(content), 0o644)
}
