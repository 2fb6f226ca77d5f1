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

// Package dfc is the high-level entry point: it loads contracts and
// datasets from disk and runs the core validation, drift and diff
// operations in one call each.
package dfc

import (
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"

	dfccore "github.com/DataFrameGuard/dfc-core"
	"github.com/DataFrameGuard/dfc-core/frame"
)

const (
	Version = "v0.1.0"
)

func GetDfcCoreLibVersion() string {
	return Version
}

// LoadTable reads a dataset from disk, dispatching on the file
// extension: .csv or .json (array of objects).
func LoadTable(path string) (*frame.Table, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv":
		return frame.ReadCSV(path)
	case ".json":
		return frame.ReadJSON(path)
	default:
		return nil, fmt.Errorf("%w: unsupported data format %q", dfccore.ErrUnsupportedFormat, filepath.Ext(path))
	}
}

// Check loads a contract and a dataset and validates the data.
func Check(contractPath string, dataPath string, opts dfccore.ValidateOptions, logger *slog.Logger) (*dfccore.ValidationReport, error) {
	contract, err := dfccore.LoadContract(contractPath)
	if err != nil {
		return nil, err
	}
	table, err := LoadTable(dataPath)
	if err != nil {
		return nil, err
	}
	return dfccore.NewValidator(logger).Validate(table, contract, opts)
}

// DiffContracts loads two contract files and classifies the changes
// between them.
func DiffContracts(oldPath string, newPath string) (*dfccore.ContractDiff, error) {
	oldContract, err := dfccore.LoadContract(oldPath)
	if err != nil {
		return nil, err
	}
	newContract, err := dfccore.LoadContract(newPath)
	if err != nil {
		return nil, err
	}
	return dfccore.CompareContracts(oldContract, newContract), nil
}

// SnapshotData loads a dataset and captures its drift baseline.
func SnapshotData(dataPath string, opts dfccore.SnapshotOptions) (*dfccore.DriftSnapshot, error) {
	table, err := LoadTable(dataPath)
	if err != nil {
		return nil, err
	}
	return dfccore.Snapshot(table, opts), nil
}

// CheckDrift loads a stored snapshot, snapshots the current dataset and
// compares the two.
func CheckDrift(snapshotPath string, dataPath string, thresholds dfccore.DriftThresholds) (*dfccore.DriftReport, error) {
	reference, err := dfccore.LoadSnapshot(snapshotPath)
	if err != nil {
		return nil, err
	}
	table, err := LoadTable(dataPath)
	if err != nil {
		return nil, err
	}
	current := dfccore.Snapshot(table, dfccore.SnapshotOptions{})
	return dfccore.CompareSnapshots(reference, current, thresholds), nil
}

// Lint loads a contract and a dataset and suggests contract
// improvements.
func Lint(contractPath string, dataPath string) (*dfccore.LintReport, *dfccore.Contract, error) {
	contract, err := dfccore.LoadContract(contractPath)
	if err != nil {
		return nil, nil, err
	}
	table, err := LoadTable(dataPath)
	if err != nil {
		return nil, nil, err
	}
	return dfccore.SuggestImprovements(contract, table), contract, nil
}

// Infer bootstraps a contract from a dataset.
func Infer(dataPath string, name string) (*dfccore.InferenceResult, error) {
	table, err := LoadTable(dataPath)
	if err != nil {
		return nil, err
	}
	if name == "" {
		name = strings.TrimSuffix(filepath.Base(dataPath), filepath.Ext(dataPath))
	}
	return dfccore.InferContract(table, name, dfccore.InferOptions{}), nil
}
