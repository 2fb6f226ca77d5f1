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
	"io"
	"log/slog"
	"os"

	"github.com/alecthomas/kong"

	"github.com/DataFrameGuard/dfc-core/dfc"
)

// Context carries global flags into command Run methods.
type Context struct {
	Verbose bool
	Quiet   bool
	Logger  *slog.Logger
}

var CLI struct {
	Verbose bool `short:"v" help:"Enable verbose logging"`
	Quiet   bool `short:"q" help:"Suppress non-essential output"`

	Init          InitCmd          `cmd:"" help:"Infer a contract from a dataset"`
	Save          SaveCmd          `cmd:"" help:"Convert a contract between json and toml"`
	Check         CheckCmd         `cmd:"" help:"Validate a dataset against a contract"`
	Run           RunCmd           `cmd:"" help:"Execute a YAML plan of validation suites"`
	DiffContracts DiffContractsCmd `cmd:"" name:"diff-contracts" help:"Classify changes between two contract versions"`
	Lint          LintCmd          `cmd:"" help:"Suggest contract improvements from sample data"`
	Snapshot      SnapshotCmd      `cmd:"" help:"Capture a drift baseline from a dataset"`
	Drift         DriftCmd         `cmd:"" help:"Compare a dataset against a stored drift baseline"`
	Stats         StatsCmd         `cmd:"" help:"Print per-column summary statistics"`
	ExportTypes   ExportTypesCmd   `cmd:"" name:"export-types" help:"Generate a Go row struct from a contract"`
	ExportDbt     ExportDbtCmd     `cmd:"" name:"export-dbt" help:"Generate dbt schema tests from a contract"`
	ExportGx      ExportGxCmd      `cmd:"" name:"export-gx" help:"Generate a Great Expectations suite from a contract"`
	SQL           SQLCmd           `cmd:"" name:"sql" help:"Generate CREATE TABLE DDL from a contract"`

	Version kong.VersionFlag `help:"Print version and exit"`
}

func main() {
	ctx := kong.Parse(&CLI,
		kong.Name("dfc"),
		kong.Description("Data contract utilities for tabular datasets"),
		kong.Vars{"version": dfc.GetDfcCoreLibVersion()},
	)

	var handler slog.Handler
	switch {
	case CLI.Verbose:
		handler = slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelDebug})
	case CLI.Quiet:
		handler = slog.NewTextHandler(io.Discard, nil)
	default:
		handler = slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn})
	}

	appCtx := &Context{
		Verbose: CLI.Verbose,
		Quiet:   CLI.Quiet,
		Logger:  slog.New(handler),
	}

	err := ctx.Run(appCtx)
	if err != nil {
		// Findings are already rendered by the command; only surface
		// unexpected failures.
		if !errors.Is(err, errChecksFailed) {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		}
		os.Exit(1)
	}
}
