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
package fabric

import (
	"regexp"
	"strings"
)

var (
	lineComment  = regexp.MustCompile(`--[^\n]*`)
	blockComment = regexp.MustCompile(`(?s)/\*.*?\*/`)
	stringLit    = regexp.MustCompile(`'(?:[^']|'')*'`)

	// forbiddenKeywords may not appear anywhere outside string literals.
	forbiddenKeywords = regexp.MustCompile(`(?i)\b(INSERT|UPDATE|DELETE|DROP|ALTER|CREATE|TRUNCATE|ATTACH|DETACH|PRAGMA|GRANT|REVOKE|VACUUM|REINDEX|MERGE|UPSERT|COPY|CALL|EXEC|EXECUTE)\b`)
)

// NormalizeStatement trims whitespace, a trailing semicolon and surrounding
// markdown fences, which models routinely leave in tool arguments.
func NormalizeStatement(query string) string {
	q := strings.TrimSpace(query)
	if strings.HasPrefix(q, "```") {
		q = strings.TrimPrefix(q, "```")
		if nl := strings.IndexByte(q, '\n'); nl >= 0 {
			first := strings.TrimSpace(q[:nl])
			if first == "" || !strings.ContainsAny(first, " \t(") {
				q = q[nl+1:]
			}
		}
		q = strings.TrimSuffix(strings.TrimSpace(q), "```")
	}
	q = strings.TrimSpace(q)
	for strings.HasSuffix(q, ";") {
		q = strings.TrimSpace(strings.TrimSuffix(q, ";"))
	}
	return q
}

// CheckReadOnly reports issues that make query unsafe to run: more than one
// statement, a non-SELECT statement, or a data-modifying keyword.
func CheckReadOnly(query string) []Issue {
	q := NormalizeStatement(query)
	if q == "" {
		return []Issue{{Severity: "error", Message: "query is empty", Suggestion: "Provide a single SELECT statement."}}
	}

	stripped := stringLit.ReplaceAllString(q, "''")
	stripped = blockComment.ReplaceAllString(stripped, " ")
	stripped = lineComment.ReplaceAllString(stripped, " ")
	stripped = strings.TrimSpace(stripped)

	var issues []Issue
	if strings.Contains(stripped, ";") {
		issues = append(issues, Issue{
			Severity:   "error",
			Message:    "multiple statements are not allowed",
			Suggestion: "Send one SELECT statement per call.",
		})
	}

	upper := strings.ToUpper(stripped)
	if !strings.HasPrefix(upper, "SELECT") && !strings.HasPrefix(upper, "WITH") {
		issues = append(issues, Issue{
			Severity:   "error",
			Message:    "only SELECT statements are allowed",
			Suggestion: "Rewrite the request as a SELECT query.",
		})
	}

	if m := forbiddenKeywords.FindString(stripped); m != "" {
		issues = append(issues, Issue{
			Severity:   "error",
			Message:    "statement contains forbidden keyword " + strings.ToUpper(m),
			Suggestion: "The database is read-only; remove data-modifying clauses.",
		})
	}
	return issues
}

// IssueSummary joins issue messages for error text.
func IssueSummary(issues []Issue) string {
	msgs := make([]string, 0, len(issues))
	for _, is := range issues {
		msgs = append(msgs, is.Message)
	}
	return strings.Join(msgs, "; ")
}
