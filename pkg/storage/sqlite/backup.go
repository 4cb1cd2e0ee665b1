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

// Package sqlite holds maintenance operations for the SQLite session
// database: online backup and integrity verification.
package sqlite

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/teradata-labs/matchpoint/internal/sqlitedriver"
)

// Backup copies the session database at dbPath with VACUUM INTO, which
// allows concurrent readers on the source. The copy is named with a
// timestamp suffix (e.g. "sessions.db.backup.20260224T153000") unless dest
// is set. A partially written copy is removed on failure.
func Backup(ctx context.Context, dbPath, dest string) (backupPath string, err error) {
	if _, err := os.Stat(dbPath); err != nil {
		return "", fmt.Errorf("backup: source database %q: %w", dbPath, err)
	}
	backupPath = dest
	if backupPath == "" {
		backupPath = dbPath + ".backup." + time.Now().Format("20060102T150405")
	}
	if _, err := os.Stat(backupPath); err == nil {
		return "", fmt.Errorf("backup: destination %q already exists", backupPath)
	}

	db, err := sqlitedriver.Open(ctx, sqlitedriver.Config{Path: dbPath})
	if err != nil {
		return "", fmt.Errorf("backup: open source database %q: %w", dbPath, err)
	}
	defer func() { _ = db.Close() }()

	if _, err := db.ExecContext(ctx, "VACUUM INTO ?", backupPath); err != nil {
		_ = os.Remove(backupPath)
		return "", fmt.Errorf("backup: vacuum into %q from %q: %w", backupPath, dbPath, err)
	}
	if err := db.Close(); err != nil {
		_ = os.Remove(backupPath)
		return "", fmt.Errorf("backup: close source database %q: %w", dbPath, err)
	}

	if err := VerifyBackup(ctx, backupPath); err != nil {
		_ = os.Remove(backupPath)
		return "", err
	}
	return backupPath, nil
}

// VerifyBackup runs PRAGMA integrity_check against a database file.
func VerifyBackup(ctx context.Context, path string) error {
	db, err := sqlitedriver.Open(ctx, sqlitedriver.Config{Path: path, ReadOnly: true})
	if err != nil {
		return fmt.Errorf("verify backup: open %q: %w", path, err)
	}
	defer func() { _ = db.Close() }()

	var result string
	if err := db.QueryRowContext(ctx, "PRAGMA integrity_check").Scan(&result); err != nil {
		return fmt.Errorf("verify backup: integrity check on %q: %w", path, err)
	}
	if result != "ok" {
		return fmt.Errorf("verify backup: integrity check failed on %q: %s", path, result)
	}
	return nil
}
