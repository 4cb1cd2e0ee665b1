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
// Package fabric is the SQL engine seam behind the query tools. A Backend
// validates statements without returning data and executes read-only
// statements into ordered rows.
package fabric

import (
	"context"
)

// Backend is a SQL database the agent's tools run against.
type Backend interface {
	// Name returns the backend identifier from configuration
	Name() string

	// Type returns the dialect ("sqlite", "postgres", "mysql")
	Type() string

	// Validate checks that query is a read-only statement the engine can
	// plan. It never returns rows.
	Validate(ctx context.Context, query string) (*ValidationResult, error)

	// Query executes a read-only statement, returning at most maxRows rows.
	// maxRows <= 0 means no limit.
	Query(ctx context.Context, query string, maxRows int) (*QueryResult, error)

	// ListTables lists user tables, for tool descriptions and diagnostics
	ListTables(ctx context.Context) ([]string, error)

	// Ping checks backend connectivity and health.
	Ping(ctx context.Context) error

	// Close releases backend resources.
	Close() error
}

// ValidationResult is the outcome of a Validate call.
type ValidationResult struct {
	Valid  bool
	Issues []Issue

	// Statement is the normalized statement that was checked
	Statement string
}

// Issue represents a problem found while validating.
type Issue struct {
	Severity   string // "error", "warning"
	Message    string
	Suggestion string
}

// QueryResult holds ordered tabular results.
type QueryResult struct {
	Columns []Column

	// Rows preserves column order; cells are nil, int64, float64, bool,
	// string or time.Time
	Rows [][]interface{}

	RowCount int

	// Truncated is set when more rows existed than maxRows
	Truncated bool

	ExecutionStats ExecutionStats
}

// ColumnNames returns the result's column names in order.
func (r *QueryResult) ColumnNames() []string {
	names := make([]string, len(r.Columns))
	for i, c := range r.Columns {
		names[i] = c.Name
	}
	return names
}

// Column represents a column in tabular results.
type Column struct {
	Name     string
	Type     string
	Nullable bool
}

// ExecutionStats tracks execution metrics.
type ExecutionStats struct {
	DurationMs int64
}
