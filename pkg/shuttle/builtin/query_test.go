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
package builtin

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/teradata-labs/matchpoint/internal/sqlitedriver"
	"github.com/teradata-labs/matchpoint/pkg/fabric"
	"github.com/teradata-labs/matchpoint/pkg/shuttle"
	"github.com/teradata-labs/matchpoint/pkg/types"
)

func newBackend(t *testing.T) fabric.Backend {
	t.Helper()
	db, err := sqlitedriver.Open(context.Background(), sqlitedriver.Config{Path: ":memory:"})
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	for _, s := range []string{
		"CREATE TABLE matches (tourney_name TEXT, year INTEGER, winner_name TEXT, loser_name TEXT, score TEXT)",
		"INSERT INTO matches VALUES ('Wimbledon', 2022, 'Novak Djokovic', 'Nick Kyrgios', '4-6 6-3 6-4 7-6(3)')",
		"INSERT INTO matches VALUES ('Wimbledon', 2008, 'Rafael Nadal', 'Roger Federer', '6-4 6-4 6-7(5) 6-7(8) 9-7')",
	} {
		_, err := db.Exec(s)
		require.NoError(t, err)
	}
	return fabric.NewSQLBackend(db, "atp", "sqlite", zaptest.NewLogger(t), nil)
}

func newExecutor(t *testing.T) *shuttle.Executor {
	t.Helper()
	reg := shuttle.NewRegistry()
	require.NoError(t, Register(reg, newBackend(t), Options{}))
	reg.Freeze()
	return shuttle.NewExecutor(reg, shuttle.WithLogger(zaptest.NewLogger(t)))
}

func TestRegister(t *testing.T) {
	reg := shuttle.NewRegistry()
	require.NoError(t, Register(reg, newBackend(t), Options{MaxRows: 5}))
	assert.Equal(t, []string{ValidateToolName, ExecuteToolName, ListTablesToolName}, reg.List())

	tool, ok := reg.Get(ExecuteToolName)
	require.True(t, ok)
	assert.Equal(t, "sqlite", tool.Backend())
	assert.Contains(t, tool.Description(), "up to 5 rows")

	assert.Error(t, Register(reg, newBackend(t), Options{}), "second registration must fail")
}

func TestQueryValidate(t *testing.T) {
	exec := newExecutor(t)
	ctx := context.Background()

	tr := exec.Run(ctx, types.ToolCall{ID: "v1", Name: ValidateToolName, Input: map[string]interface{}{
		"query": "SELECT winner_name FROM matches WHERE year = 2022;",
	}})
	require.False(t, tr.IsError, tr.Error)
	assert.Contains(t, tr.Output, "```sql\nSELECT winner_name FROM matches WHERE year = 2022\n```")
	assert.NotContains(t, tr.Output, "Djokovic", "validation must not return data")

	tr = exec.Run(ctx, types.ToolCall{ID: "v2", Name: ValidateToolName, Input: map[string]interface{}{
		"query": "SELECT nope FROM players",
	}})
	assert.True(t, tr.IsError)
	assert.Contains(t, tr.Error, "invalid_query")

	tr = exec.Run(ctx, types.ToolCall{ID: "v3", Name: ValidateToolName, Input: map[string]interface{}{
		"query": "DELETE FROM matches",
	}})
	assert.True(t, tr.IsError)
	assert.Contains(t, tr.Error, "invalid_query")
}

func TestQueryExecute(t *testing.T) {
	exec := newExecutor(t)

	tr := exec.Run(context.Background(), types.ToolCall{ID: "e1", Name: ExecuteToolName, Input: map[string]interface{}{
		"query": "SELECT winner_name, loser_name, year FROM matches ORDER BY year",
	}})
	require.False(t, tr.IsError, tr.Error)
	assert.Equal(t,
		"[('Rafael Nadal', 'Roger Federer', 2008), ('Novak Djokovic', 'Nick Kyrgios', 2022)]",
		tr.Output)
}

func TestQueryExecute_Errors(t *testing.T) {
	exec := newExecutor(t)
	ctx := context.Background()

	tr := exec.Run(ctx, types.ToolCall{ID: "e1", Name: ExecuteToolName, Input: map[string]interface{}{
		"query": "SELECT * FROM nowhere",
	}})
	assert.True(t, tr.IsError)
	assert.Contains(t, tr.Error, "query_failed")

	tr = exec.Run(ctx, types.ToolCall{ID: "e2", Name: ExecuteToolName, Input: map[string]interface{}{}})
	assert.True(t, tr.IsError)
	assert.Contains(t, tr.Error, shuttle.CodeInvalidArguments)
}

func TestQueryExecute_MaxRowsAndMetadata(t *testing.T) {
	tool := NewQueryExecuteTool(newBackend(t), 1)
	res, err := tool.Execute(context.Background(), map[string]interface{}{"query": "SELECT winner_name FROM matches"})
	require.NoError(t, err)
	require.True(t, res.Success)
	assert.Equal(t, 1, res.Metadata["row_count"])
	assert.Equal(t, true, res.Metadata["truncated"])
	assert.Equal(t, []string{"winner_name"}, res.Metadata["columns"])
}

func TestListTables(t *testing.T) {
	exec := newExecutor(t)
	tr := exec.Run(context.Background(), types.ToolCall{ID: "l1", Name: ListTablesToolName})
	require.False(t, tr.IsError, tr.Error)
	assert.Equal(t, "matches", tr.Output)
}
