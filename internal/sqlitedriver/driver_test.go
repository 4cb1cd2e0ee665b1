package sqlitedriver_test

import (
	"context"
	"database/sql"
	"path/filepath"
	"slices"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/teradata-labs/matchpoint/internal/sqlitedriver"
)

func TestDriverRegistered(t *testing.T) {
	assert.True(t, slices.Contains(sql.Drivers(), sqlitedriver.DriverName), "sqlite3 driver should be registered")
}

func TestOpen_MemoryRoundTrip(t *testing.T) {
	db, err := sqlitedriver.Open(context.Background(), sqlitedriver.Config{Path: ":memory:"})
	require.NoError(t, err)
	defer db.Close()

	_, err = db.Exec("CREATE TABLE players (id INTEGER PRIMARY KEY, name TEXT)")
	require.NoError(t, err)
	_, err = db.Exec("INSERT INTO players (name) VALUES (?)", "Rafael Nadal")
	require.NoError(t, err)

	var name string
	require.NoError(t, db.QueryRow("SELECT name FROM players WHERE id = 1").Scan(&name))
	assert.Equal(t, "Rafael Nadal", name)
}

func TestOpen_ReadOnlyRejectsWrites(t *testing.T) {
	path := filepath.Join(t.TempDir(), "matches.db")
	ctx := context.Background()

	rw, err := sqlitedriver.Open(ctx, sqlitedriver.Config{Path: path})
	require.NoError(t, err)
	_, err = rw.Exec("CREATE TABLE matches (winner TEXT)")
	require.NoError(t, err)
	require.NoError(t, rw.Close())

	ro, err := sqlitedriver.Open(ctx, sqlitedriver.Config{Path: path, ReadOnly: true})
	require.NoError(t, err)
	defer ro.Close()

	_, err = ro.Exec("INSERT INTO matches (winner) VALUES ('x')")
	assert.Error(t, err)
}

func TestOpen_Errors(t *testing.T) {
	_, err := sqlitedriver.Open(context.Background(), sqlitedriver.Config{})
	assert.Error(t, err)

	t.Setenv("MATCHPOINT_DB_KEY", "")
	_, err = sqlitedriver.Open(context.Background(), sqlitedriver.Config{Path: ":memory:", Encrypt: true})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no key provided")
}
