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
	"os"
	"path/filepath"
	"strings"

	"github.com/goccy/go-json"
	"github.com/pelletier/go-toml/v2"
)

// ToJSON renders the contract as indented JSON.
func (c *Contract) ToJSON() (string, error) {
	payload, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return "", err
	}
	return string(payload), nil
}

// ToTOML renders the contract as TOML.
func (c *Contract) ToTOML() (string, error) {
	payload, err := toml.Marshal(c)
	if err != nil {
		return "", err
	}
	return string(payload), nil
}

// LoadContract reads a contract from a .json or .toml file. Filesystem
// failures wrap ErrContractIO; an unknown extension wraps
// ErrUnsupportedFormat; decode failures surface as-is so callers can see
// what the parser rejected.
func LoadContract(path string) (*Contract, error) {
	payload, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrContractIO, err)
	}
	var contract Contract
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		if err := json.Unmarshal(payload, &contract); err != nil {
			return nil, fmt.Errorf("decode contract %s: %w", path, err)
		}
	case ".toml":
		if err := toml.Unmarshal(payload, &contract); err != nil {
			return nil, fmt.Errorf("decode contract %s: %w", path, err)
		}
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, filepath.Ext(path))
	}
	return &contract, nil
}

// SaveContract writes a contract to a .json or .toml file, keyed on the
// extension like LoadContract.
func SaveContract(contract *Contract, path string) error {
	var payload string
	var err error
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		payload, err = contract.ToJSON()
	case ".toml":
		payload, err = contract.ToTOML()
	default:
		return fmt.Errorf("%w: %s", ErrUnsupportedFormat, filepath.Ext(path))
	}
	if err != nil {
		return fmt.Errorf("encode contract %s: %w", path, err)
	}
	if err := os.WriteFile(path, []byte(payload), 0o644); err != nil {
		return fmt.Errorf("%w: %v", ErrContractIO, err)
	}
	return nil
}
