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
package sqlitedriver

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"strings"
)

// DriverName is the database/sql name every SQLite connection uses.
const DriverName = "sqlite3"

// Config describes a SQLite file to open.
type Config struct {
	// Path to the database file, or ":memory:".
	Path string

	// EncryptionKey enables SQLCipher when non-empty. Falls back to the
	// MATCHPOINT_DB_KEY environment variable when Encrypt is set.
	EncryptionKey string
	Encrypt       bool

	// ReadOnly opens the file with mode=ro. Used for the match database the
	// query tools run against.
	ReadOnly bool
}

// Open opens a SQLite database, applies the encryption key if requested and
// enables WAL for writable file databases.
func Open(ctx context.Context, cfg Config) (*sql.DB, error) {
	if cfg.Path == "" {
		return nil, fmt.Errorf("sqlite path is required")
	}

	dsn := cfg.Path
	if cfg.ReadOnly && cfg.Path != ":memory:" {
		dsn = withParam(dsn, "mode=ro")
	}

	db, err := sql.Open(DriverName, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// :memory: databases and the pragmas below are per connection, so
	// anything but a plain read-only file uses a single connection.
	if cfg.Path == ":memory:" || !cfg.ReadOnly || cfg.Encrypt {
		db.SetMaxOpenConns(1)
	}

	if cfg.Encrypt {
		key := cfg.EncryptionKey
		if key == "" {
			key = os.Getenv("MATCHPOINT_DB_KEY")
		}
		if key == "" {
			db.Close()
			return nil, fmt.Errorf("encryption enabled but no key provided (set EncryptionKey or MATCHPOINT_DB_KEY)")
		}
		if !EncryptionSupported {
			db.Close()
			return nil, fmt.Errorf("encryption requested but this build has no SQLCipher support (rebuild with CGO_ENABLED=1)")
		}
		// Must be the first statement on the connection.
		if _, err := db.ExecContext(ctx, fmt.Sprintf("PRAGMA key = '%s'", strings.ReplaceAll(key, "'", "''"))); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to set encryption key: %w", err)
		}
	}

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		if cfg.Encrypt {
			return nil, fmt.Errorf("failed to verify encryption key (wrong key or corrupted database): %w", err)
		}
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if !cfg.ReadOnly && cfg.Path != ":memory:" {
		if _, err := db.ExecContext(ctx, "PRAGMA journal_mode=WAL"); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
		}
	}
	if _, err := db.ExecContext(ctx, "PRAGMA busy_timeout=5000"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to set busy timeout: %w", err)
	}

	return db, nil
}

func withParam(dsn, param string) string {
	if !strings.HasPrefix(dsn, "file:") {
		dsn = "file:" + dsn
	}
	if strings.Contains(dsn, "?") {
		return dsn + "&" + param
	}
	return dsn + "?" + param
}
