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

import "strings"

var dtypeSynonyms = map[string]string{
	"int":     "int64",
	"integer": "int64",
	"float":   "float64",
	"double":  "float64",
	"str":     "string",
	"text":    "string",
}

// NormalizeDtype maps a declared or observed type token to its canonical
// lower-case form. Unknown tokens pass through unchanged.
func NormalizeDtype(token string) string {
	normalized := strings.ToLower(strings.TrimSpace(token))
	if canonical, ok := dtypeSynonyms[normalized]; ok {
		return canonical
	}
	return normalized
}

var dtypeAliasClasses = [][]string{
	{"int64", "int32", "int16", "int8"},
	{"float64", "float32"},
	{"bool", "boolean"},
	{"string", "object"},
}

// DtypeCompatible reports whether an observed column type satisfies a
// declared type. Exact match after normalization always succeeds; integer
// widths, float widths, boolean spellings and string/object each collapse
// to one class; any two datetime tokens are compatible regardless of
// precision or timezone. There is no other cross-class compatibility.
func DtypeCompatible(actual string, expected string) bool {
	actualNorm := NormalizeDtype(actual)
	expectedNorm := NormalizeDtype(expected)
	if actualNorm == expectedNorm {
		return true
	}
	for _, class := range dtypeAliasClasses {
		if containsToken(class, actualNorm) && containsToken(class, expectedNorm) {
			return true
		}
	}
	if strings.HasPrefix(actualNorm, "datetime64") && strings.HasPrefix(expectedNorm, "datetime64") {
		return true
	}
	return false
}

var numericWidthLadder = []string{"int8", "int16", "int32", "int64", "float32", "float64"}

// IsDtypeNarrowing reports whether moving a column from the old dtype to
// the new one can reject previously valid data. Within the numeric width
// ladder a move to a lower position narrows; float to int narrows;
// datetime to non-datetime narrows; any other change is treated as
// narrowing since nothing can prove it safe.
func IsDtypeNarrowing(old string, new string) bool {
	oldNorm := NormalizeDtype(old)
	newNorm := NormalizeDtype(new)
	if oldNorm == newNorm {
		return false
	}
	oldIdx := ladderIndex(oldNorm)
	newIdx := ladderIndex(newNorm)
	if oldIdx >= 0 && newIdx >= 0 {
		return newIdx < oldIdx
	}
	if strings.HasPrefix(oldNorm, "float") && strings.HasPrefix(newNorm, "int") {
		return true
	}
	if strings.HasPrefix(oldNorm, "datetime64") && !strings.HasPrefix(newNorm, "datetime64") {
		return true
	}
	return true
}

func ladderIndex(token string) int {
	for i, entry := range numericWidthLadder {
		if entry == token {
			return i
		}
	}
	return -1
}

func containsToken(tokens []string, token string) bool {
	for _, entry := range tokens {
		if entry == token {
			return true
		}
	}
	return false
}
