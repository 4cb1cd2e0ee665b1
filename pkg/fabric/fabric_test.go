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
	"context"
	"database/sql"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/teradata-labs/matchpoint/internal/sqlitedriver"
	"github.com/teradata-labs/matchpoint/pkg/literal"
	"github.com/teradata-labs/matchpoint/pkg/observability"
)

func newMatchDB(t *testing.T) *SQLBackend {
	t.Helper()
	db, err := sqlitedriver.Open(context.Background(), sqlitedriver.Config{Path: ":memory:"})
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	seed(t, db)
	return NewSQLBackend(db, "atp", "sqlite", zaptest.NewLogger(t), observability.NewNoOpTracer())
}

func seed(t *testing.T, db *sql.DB) {
	t.Helper()
	stmts := []string{
		`CREATE TABLE matches (
			tourney_name TEXT, year INTEGER, surface TEXT,
			winner_name TEXT, loser_name TEXT, score TEXT, minutes REAL
		)`,
		`INSERT INTO matches VALUES ('Wimbledon', 2022, 'Grass', 'Novak Djokovic', 'Nick Kyrgios', '4-6 6-3 6-4 7-6(3)', 176.0)`,
		`INSERT INTO matches VALUES ('Roland Garros', 2022, 'Clay', 'Rafael Nadal', 'Casper Ruud', '6-3 6-3 6-0', 138.5)`,
		`INSERT INTO matches VALUES ('US Open', 2022, 'Hard', 'Carlos Alcaraz', 'Casper Ruud', '6-4 2-6 7-6(1) 6-3', NULL)`,
	}
	for _, s := range stmts {
		_, err := db.Exec(s)
		require.NoError(t, err)
	}
}

func TestSQLBackend_Query(t *testing.T) {
	b := newMatchDB(t)

	res, err := b.Query(context.Background(), "SELECT winner_name, year, minutes FROM matches ORDER BY minutes DESC;", 0)
	require.NoError(t, err)

	assert.Equal(t, []string{"winner_name", "year", "minutes"}, res.ColumnNames())
	require.Equal(t, 3, res.RowCount)
	assert.False(t, res.Truncated)
	assert.Equal(t, "Novak Djokovic", res.Rows[0][0])
	assert.Equal(t, int64(2022), res.Rows[0][1])
	assert.Equal(t, 176.0, res.Rows[0][2])
	assert.Nil(t, res.Rows[2][2])
}

func TestSQLBackend_Query_MaxRows(t *testing.T) {
	b := newMatchDB(t)

	res, err := b.Query(context.Background(), "SELECT winner_name FROM matches", 2)
	require.NoError(t, err)
	assert.Equal(t, 2, res.RowCount)
	assert.True(t, res.Truncated)
}

func TestSQLBackend_Query_RejectsWrites(t *testing.T) {
	b := newMatchDB(t)

	_, err := b.Query(context.Background(), "DELETE FROM matches", 0)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "only SELECT")

	var n int
	require.NoError(t, b.DB().QueryRow("SELECT COUNT(*) FROM matches").Scan(&n))
	assert.Equal(t, 3, n)
}

func TestSQLBackend_Validate(t *testing.T) {
	b := newMatchDB(t)
	ctx := context.Background()

	tests := []struct {
		name  string
		query string
		valid bool
	}{
		{"valid select", "SELECT winner_name FROM matches WHERE year = 2022", true},
		{"fenced select", "```sql\nSELECT winner_name FROM matches;\n```", true},
		{"cte", "WITH w AS (SELECT winner_name FROM matches) SELECT * FROM w", true},
		{"unknown table", "SELECT * FROM tournaments", false},
		{"syntax error", "SELECT FROM WHERE", false},
		{"write", "UPDATE matches SET year = 1999", false},
		{"stacked", "SELECT 1; DROP TABLE matches", false},
		{"empty", "  ", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := b.Validate(ctx, tt.query)
			require.NoError(t, err)
			assert.Equal(t, tt.valid, res.Valid, "issues: %v", res.Issues)
			if !tt.valid {
				assert.NotEmpty(t, res.Issues)
			}
		})
	}
}

func TestSQLBackend_ValidateDoesNotReturnRows(t *testing.T) {
	b := newMatchDB(t)
	res, err := b.Validate(context.Background(), "SELECT * FROM matches")
	require.NoError(t, err)
	assert.True(t, res.Valid)
	assert.Equal(t, "SELECT * FROM matches", res.Statement)
}

func TestSQLBackend_ListTables(t *testing.T) {
	b := newMatchDB(t)
	tables, err := b.ListTables(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"matches"}, tables)
	require.NoError(t, b.Ping(context.Background()))
}

func TestCheckReadOnly(t *testing.T) {
	assert.Empty(t, CheckReadOnly("SELECT replace(score, '-', ':') FROM matches"))
	assert.Empty(t, CheckReadOnly("SELECT 'drop table' AS note"))
	assert.Empty(t, CheckReadOnly("SELECT update_date FROM t -- delete later"))
	assert.NotEmpty(t, CheckReadOnly("PRAGMA table_info(matches)"))
	assert.NotEmpty(t, CheckReadOnly("SELECT * FROM t; SELECT 2"))
}

func TestNormalizeStatement(t *testing.T) {
	assert.Equal(t, "SELECT 1", NormalizeStatement("  SELECT 1;; "))
	assert.Equal(t, "SELECT 1", NormalizeStatement("```sql\nSELECT 1\n```"))
	assert.Equal(t, "SELECT 1", NormalizeStatement("```\nSELECT 1;\n```"))
}

func TestConfig_Validate(t *testing.T) {
	cfg := Config{Type: "postgresql", DSN: "postgres://localhost/atp"}
	require.NoError(t, cfg.Validate())
	assert.Equal(t, "postgres", cfg.Type)
	assert.Equal(t, "postgres", cfg.Name)
	assert.Equal(t, "postgres", driverName(cfg.Type))

	cfg = Config{Type: "sqlite3", DSN: "atp.db"}
	require.NoError(t, cfg.Validate())
	assert.Equal(t, "sqlite3", driverName(cfg.Type))

	assert.Error(t, (&Config{Type: "oracle", DSN: "x"}).Validate())
	assert.Error(t, (&Config{Type: "mysql"}).Validate())
	assert.Error(t, (&Config{DSN: "x"}).Validate())
}

func TestOpen_SQLiteMemory(t *testing.T) {
	b, err := Open(context.Background(), Config{Type: "sqlite", DSN: ":memory:"}, zaptest.NewLogger(t), nil)
	require.NoError(t, err)
	defer b.Close()
	assert.Equal(t, "sqlite", b.Type())
	assert.Equal(t, "sqlite", b.Name())
}

func TestNormalizeCell(t *testing.T) {
	assert.Equal(t, literal.Decimal("12.50"), normalizeCell([]byte("12.50"), "NUMERIC"))
	assert.Equal(t, "abc", normalizeCell([]byte("abc"), "TEXT"))
	assert.Equal(t, int64(3), normalizeCell(int(3), "INTEGER"))
	assert.Equal(t, float64(float32(1.5)), normalizeCell(float32(1.5), "REAL"))
}
