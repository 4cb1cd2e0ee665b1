// Copyright 2026 Teradata
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//	http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.
package answer

import (
	"strings"
	"unicode"
)

var enumerationKeywords = map[string]bool{
	"list":       true,
	"show":       true,
	"display":    true,
	"compare":    true,
	"statistics": true,
	"stats":      true,
	"ranking":    true,
	"rankings":   true,
	"table":      true,
}

// ShouldPresentTable decides whether p is shown as a table rather than text.
// Any payload with more than one row is a table.
func ShouldPresentTable(p *ExtractedPayload, question string) bool {
	switch {
	case p == nil || len(p.Rows) == 0:
		return false
	case len(p.Rows) == 1 && p.ColumnCount() == 1:
		return false
	case len(p.Rows) > 1:
		return true
	case p.ColumnCount() > 2:
		return true
	}
	for _, w := range words(question) {
		if enumerationKeywords[w] {
			return true
		}
	}
	return false
}

// words splits text into lower-cased letter/digit tokens.
func words(text string) []string {
	return strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}

func hasAnyWord(tokens []string, set map[string]bool) bool {
	for _, t := range tokens {
		if set[t] {
			return true
		}
	}
	return false
}
