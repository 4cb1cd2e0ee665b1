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
// Package builtin provides the SQL tool pair the agent is built around:
// query_validate checks a statement without returning data and
// query_execute runs it and returns rows as a tuple literal.
package builtin

import (
	"context"
	"fmt"
	"strings"

	"github.com/teradata-labs/matchpoint/pkg/fabric"
	"github.com/teradata-labs/matchpoint/pkg/literal"
	"github.com/teradata-labs/matchpoint/pkg/shuttle"
)

// Tool names.
const (
	ValidateToolName   = "query_validate"
	ExecuteToolName    = "query_execute"
	ListTablesToolName = "list_tables"
)

// DefaultMaxRows caps the rows query_execute returns to the model.
const DefaultMaxRows = 200

// Options configures the SQL tools.
type Options struct {
	// MaxRows caps rows returned by query_execute; <= 0 uses DefaultMaxRows
	MaxRows int
}

// Register adds the SQL tools for backend to reg.
func Register(reg *shuttle.Registry, backend fabric.Backend, opts Options) error {
	if opts.MaxRows <= 0 {
		opts.MaxRows = DefaultMaxRows
	}
	tools := []shuttle.Tool{
		NewQueryValidateTool(backend),
		NewQueryExecuteTool(backend, opts.MaxRows),
		NewListTablesTool(backend),
	}
	for _, tool := range tools {
		if err := reg.Register(tool); err != nil {
			return err
		}
	}
	return nil
}

func queryParam(params map[string]interface{}) (string, *shuttle.Result) {
	q, _ := params["query"].(string)
	if strings.TrimSpace(q) == "" {
		return "", &shuttle.Result{
			Success: false,
			Error: &shuttle.Error{
				Code:       shuttle.CodeInvalidArguments,
				Message:    "query parameter is required",
				Suggestion: "Pass the SQL statement in the 'query' argument.",
			},
		}
	}
	return q, nil
}

func querySchema(description string) *shuttle.JSONSchema {
	return shuttle.NewObjectSchema(description, map[string]*shuttle.JSONSchema{
		"query": shuttle.NewStringSchema("A single read-only SQL SELECT statement").WithMinLength(1),
	}, []string{"query"})
}

// QueryValidateTool checks a statement without returning data.
type QueryValidateTool struct {
	backend fabric.Backend
}

// NewQueryValidateTool creates the validator half of the SQL tool pair.
func NewQueryValidateTool(backend fabric.Backend) *QueryValidateTool {
	return &QueryValidateTool{backend: backend}
}

func (t *QueryValidateTool) Name() string { return ValidateToolName }

func (t *QueryValidateTool) Description() string {
	return "Checks that a SQL SELECT statement is read-only and can be planned against the " +
		"tennis database. Returns no rows. After a successful check you must call " +
		ExecuteToolName + " with the same statement to get the data."
}

func (t *QueryValidateTool) InputSchema() *shuttle.JSONSchema {
	return querySchema("Statement to validate")
}

func (t *QueryValidateTool) Backend() string { return t.backend.Type() }

func (t *QueryValidateTool) Execute(ctx context.Context, params map[string]interface{}) (*shuttle.Result, error) {
	query, bad := queryParam(params)
	if bad != nil {
		return bad, nil
	}

	res, err := t.backend.Validate(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("validate query: %w", err)
	}
	if !res.Valid {
		suggestion := ""
		for _, is := range res.Issues {
			if is.Suggestion != "" {
				suggestion = is.Suggestion
				break
			}
		}
		return &shuttle.Result{
			Success: false,
			Error: &shuttle.Error{
				Code:       "invalid_query",
				Message:    fabric.IssueSummary(res.Issues),
				Suggestion: suggestion,
			},
			Metadata: map[string]interface{}{"statement": res.Statement},
		}, nil
	}

	return &shuttle.Result{
		Success: true,
		Data: fmt.Sprintf("Query is valid. Now call %s with this statement:\n```sql\n%s\n```",
			ExecuteToolName, res.Statement),
		Metadata: map[string]interface{}{"statement": res.Statement},
	}, nil
}

// QueryExecuteTool runs a read-only statement and returns its rows.
type QueryExecuteTool struct {
	backend fabric.Backend
	maxRows int
}

// NewQueryExecuteTool creates the executor half of the SQL tool pair.
func NewQueryExecuteTool(backend fabric.Backend, maxRows int) *QueryExecuteTool {
	return &QueryExecuteTool{backend: backend, maxRows: maxRows}
}

func (t *QueryExecuteTool) Name() string { return ExecuteToolName }

func (t *QueryExecuteTool) Description() string {
	return fmt.Sprintf("Runs a read-only SQL SELECT statement against the tennis database and returns "+
		"up to %d rows as a list of tuples, e.g. [('Roger Federer', 20)]. "+
		"Validate the statement with %s first.", t.maxRows, ValidateToolName)
}

func (t *QueryExecuteTool) InputSchema() *shuttle.JSONSchema {
	return querySchema("Statement to execute")
}

func (t *QueryExecuteTool) Backend() string { return t.backend.Type() }

func (t *QueryExecuteTool) Execute(ctx context.Context, params map[string]interface{}) (*shuttle.Result, error) {
	query, bad := queryParam(params)
	if bad != nil {
		return bad, nil
	}

	res, err := t.backend.Query(ctx, query, t.maxRows)
	if err != nil {
		return &shuttle.Result{
			Success: false,
			Error: &shuttle.Error{
				Code:       "query_failed",
				Message:    err.Error(),
				Retryable:  ctx.Err() == nil,
				Suggestion: "Fix the statement, validate it again, then execute it.",
			},
		}, nil
	}

	return &shuttle.Result{
		Success: true,
		Data:    literal.FormatRows(res.Rows),
		Metadata: map[string]interface{}{
			"statement": fabric.NormalizeStatement(query),
			"columns":   res.ColumnNames(),
			"row_count": res.RowCount,
			"truncated": res.Truncated,
		},
	}, nil
}

// ListTablesTool lists tables so the model can discover the schema.
type ListTablesTool struct {
	backend fabric.Backend
}

// NewListTablesTool creates the schema discovery tool.
func NewListTablesTool(backend fabric.Backend) *ListTablesTool {
	return &ListTablesTool{backend: backend}
}

func (t *ListTablesTool) Name() string { return ListTablesToolName }

func (t *ListTablesTool) Description() string {
	return "Lists the tables available in the tennis database."
}

func (t *ListTablesTool) InputSchema() *shuttle.JSONSchema {
	return shuttle.NewObjectSchema("No arguments", nil, nil)
}

func (t *ListTablesTool) Backend() string { return t.backend.Type() }

func (t *ListTablesTool) Execute(ctx context.Context, params map[string]interface{}) (*shuttle.Result, error) {
	tables, err := t.backend.ListTables(ctx)
	if err != nil {
		return nil, err
	}
	return &shuttle.Result{
		Success: true,
		Data:    strings.Join(tables, "\n"),
	}, nil
}

var (
	_ shuttle.Tool = (*QueryValidateTool)(nil)
	_ shuttle.Tool = (*QueryExecuteTool)(nil)
	_ shuttle.Tool = (*ListTablesTool)(nil)
)
