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

import "errors"

// Configuration and integrity errors abort an operation. They are distinct
// from data violations, which are reported as Violation values and never
// surface as errors.
var (
	// ErrContractIO wraps filesystem failures while loading or saving a contract.
	ErrContractIO = errors.New("contract io failure")

	// ErrUnsupportedFormat marks a contract path whose extension names no
	// known encoding.
	ErrUnsupportedFormat = errors.New("unsupported contract format")

	// ErrRuleExecution marks a rule that cannot run at all: a malformed row
	// expression or a reference to an unregistered table check.
	ErrRuleExecution = errors.New("rule execution failure")

	// ErrInvalidSampleFraction marks a sample fraction outside (0, 1].
	ErrInvalidSampleFraction = errors.New("sample fraction must be in (0, 1]")

	// ErrStratifyColumn marks a stratification column missing from the dataset.
	ErrStratifyColumn = errors.New("stratify column not in dataset")
)
