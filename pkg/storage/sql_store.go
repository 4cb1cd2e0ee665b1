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
package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/teradata-labs/matchpoint/internal/pgxdriver"
	"github.com/teradata-labs/matchpoint/internal/sqlitedriver"
	"github.com/teradata-labs/matchpoint/pkg/observability"
	"github.com/teradata-labs/matchpoint/pkg/types"
)

// Dialect selects SQL placeholder style and schema details.
type Dialect string

const (
	DialectSQLite   Dialect = "sqlite"
	DialectPostgres Dialect = "postgres"
)

// Config selects and configures a Store.
type Config struct {
	// Backend is "memory", "sqlite" or "postgres"
	Backend string `mapstructure:"backend"`

	// Path is the sqlite database file
	Path string `mapstructure:"path"`

	// DSN is the postgres connection string
	DSN string `mapstructure:"dsn"`

	// Schema is the postgres search_path (default public)
	Schema string `mapstructure:"schema"`

	// EncryptionKey enables SQLCipher encryption for sqlite (cgo builds only)
	EncryptionKey string `mapstructure:"encryption_key"`
}

// Open creates the store described by cfg.
func Open(ctx context.Context, cfg Config, logger *zap.Logger, tracer observability.Tracer) (Store, error) {
	switch strings.ToLower(cfg.Backend) {
	case "", "memory":
		return NewMemoryStore(), nil
	case "sqlite", "sqlite3":
		db, err := sqlitedriver.Open(ctx, sqlitedriver.Config{
			Path:          cfg.Path,
			EncryptionKey: cfg.EncryptionKey,
			Encrypt:       cfg.EncryptionKey != "",
		})
		if err != nil {
			return nil, fmt.Errorf("failed to open session database: %w", err)
		}
		return NewSQLStore(ctx, db, DialectSQLite, logger, tracer)
	case "postgres", "postgresql":
		db, err := pgxdriver.OpenDB(ctx, pgxdriver.Config{DSN: cfg.DSN, Schema: cfg.Schema}, tracer)
		if err != nil {
			return nil, fmt.Errorf("failed to open session database: %w", err)
		}
		return NewSQLStore(ctx, db, DialectPostgres, logger, tracer)
	}
	return nil, fmt.Errorf("unsupported storage backend %q", cfg.Backend)
}

// SQLStore keeps histories in a relational database, one row per message.
type SQLStore struct {
	db      *sql.DB
	dialect Dialect
	logger  *zap.Logger
	tracer  observability.Tracer
}

// NewSQLStore wraps db and creates the schema if needed. The store owns db.
func NewSQLStore(ctx context.Context, db *sql.DB, dialect Dialect, logger *zap.Logger, tracer observability.Tracer) (*SQLStore, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if tracer == nil {
		tracer = observability.NewNoOpTracer()
	}
	s := &SQLStore{db: db, dialect: dialect, logger: logger, tracer: tracer}
	if err := s.initSchema(ctx); err != nil {
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}
	return s, nil
}

func (s *SQLStore) initSchema(ctx context.Context) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS sessions (
			id TEXT PRIMARY KEY,
			created_at BIGINT NOT NULL,
			updated_at BIGINT NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS messages (
			session_id TEXT NOT NULL,
			seq INTEGER NOT NULL,
			id TEXT,
			role TEXT NOT NULL,
			content TEXT,
			content_blocks_json TEXT,
			tool_calls_json TEXT,
			tool_use_id TEXT,
			tool_result_json TEXT,
			timestamp BIGINT NOT NULL,
			PRIMARY KEY (session_id, seq)
		)`,
	}
	for _, stmt := range stmts {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return err
		}
	}
	return nil
}

// rebind rewrites ? placeholders for dialects that number them.
func (s *SQLStore) rebind(query string) string {
	if s.dialect != DialectPostgres {
		return query
	}
	var b strings.Builder
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

func (s *SQLStore) Load(ctx context.Context, sessionID string) ([]types.Message, error) {
	if sessionID == "" {
		return nil, ErrInvalidSessionID
	}
	ctx, span := s.tracer.StartSpan(ctx, "storage.load")
	defer s.tracer.EndSpan(span)
	span.SetAttribute(observability.AttrSessionID, sessionID)

	rows, err := s.db.QueryContext(ctx, s.rebind(`
		SELECT id, role, content, content_blocks_json, tool_calls_json, tool_use_id, tool_result_json, timestamp
		FROM messages WHERE session_id = ? ORDER BY seq`), sessionID)
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("failed to load messages: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var msgs []types.Message
	for rows.Next() {
		var (
			id, content, blocksJSON, callsJSON, toolUseID, resultJSON sql.NullString
			role                                                      string
			ts                                                        int64
		)
		if err := rows.Scan(&id, &role, &content, &blocksJSON, &callsJSON, &toolUseID, &resultJSON, &ts); err != nil {
			span.RecordError(err)
			return nil, fmt.Errorf("failed to scan message: %w", err)
		}
		msg := types.Message{
			ID:        id.String,
			Role:      types.Actor(role),
			Content:   content.String,
			ToolUseID: toolUseID.String,
			Timestamp: time.UnixMilli(ts),
		}
		if blocksJSON.Valid {
			if err := json.Unmarshal([]byte(blocksJSON.String), &msg.ContentBlocks); err != nil {
				return nil, fmt.Errorf("failed to unmarshal content blocks: %w", err)
			}
		}
		if callsJSON.Valid {
			if err := json.Unmarshal([]byte(callsJSON.String), &msg.ToolCalls); err != nil {
				return nil, fmt.Errorf("failed to unmarshal tool calls: %w", err)
			}
		}
		if resultJSON.Valid {
			msg.ToolResult = &types.ToolResult{}
			if err := json.Unmarshal([]byte(resultJSON.String), msg.ToolResult); err != nil {
				return nil, fmt.Errorf("failed to unmarshal tool result: %w", err)
			}
		}
		msgs = append(msgs, msg)
	}
	if err := rows.Err(); err != nil {
		span.RecordError(err)
		return nil, err
	}
	span.SetAttribute("storage.messages", len(msgs))
	return msgs, nil
}

func (s *SQLStore) Save(ctx context.Context, sessionID string, messages []types.Message) (err error) {
	if sessionID == "" {
		return ErrInvalidSessionID
	}
	ctx, span := s.tracer.StartSpan(ctx, "storage.save")
	defer s.tracer.EndSpan(span)
	span.SetAttribute(observability.AttrSessionID, sessionID)
	span.SetAttribute("storage.messages", len(messages))

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		span.RecordError(err)
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
			span.RecordError(err)
		}
	}()

	now := time.Now().UnixMilli()
	if _, err = tx.ExecContext(ctx, s.rebind(`
		INSERT INTO sessions (id, created_at, updated_at) VALUES (?, ?, ?)
		ON CONFLICT (id) DO UPDATE SET updated_at = excluded.updated_at`),
		sessionID, now, now); err != nil {
		return fmt.Errorf("failed to upsert session: %w", err)
	}
	if _, err = tx.ExecContext(ctx, s.rebind(`DELETE FROM messages WHERE session_id = ?`), sessionID); err != nil {
		return fmt.Errorf("failed to clear messages: %w", err)
	}

	insert := s.rebind(`
		INSERT INTO messages (session_id, seq, id, role, content, content_blocks_json, tool_calls_json, tool_use_id, tool_result_json, timestamp)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	for i, msg := range messages {
		var blocksJSON, callsJSON, resultJSON, toolUseID *string
		if len(msg.ContentBlocks) > 0 {
			if blocksJSON, err = marshalString(msg.ContentBlocks); err != nil {
				return fmt.Errorf("failed to marshal content blocks: %w", err)
			}
		}
		if len(msg.ToolCalls) > 0 {
			if callsJSON, err = marshalString(msg.ToolCalls); err != nil {
				return fmt.Errorf("failed to marshal tool calls: %w", err)
			}
		}
		if msg.ToolResult != nil {
			if resultJSON, err = marshalString(msg.ToolResult); err != nil {
				return fmt.Errorf("failed to marshal tool result: %w", err)
			}
		}
		if msg.ToolUseID != "" {
			toolUseID = &msg.ToolUseID
		}
		if _, err = tx.ExecContext(ctx, insert,
			sessionID, i, msg.ID, string(msg.Role), msg.Content,
			blocksJSON, callsJSON, toolUseID, resultJSON, msg.Timestamp.UnixMilli(),
		); err != nil {
			return fmt.Errorf("failed to insert message %d: %w", i, err)
		}
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit: %w", err)
	}
	s.logger.Debug("session saved",
		zap.String("session_id", sessionID),
		zap.Int("messages", len(messages)),
	)
	return nil
}

func marshalString(v interface{}) (*string, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	str := string(data)
	return &str, nil
}

func (s *SQLStore) Delete(ctx context.Context, sessionID string) error {
	ctx, span := s.tracer.StartSpan(ctx, "storage.delete")
	defer s.tracer.EndSpan(span)
	span.SetAttribute(observability.AttrSessionID, sessionID)

	for _, stmt := range []string{
		`DELETE FROM messages WHERE session_id = ?`,
		`DELETE FROM sessions WHERE id = ?`,
	} {
		if _, err := s.db.ExecContext(ctx, s.rebind(stmt), sessionID); err != nil {
			span.RecordError(err)
			return fmt.Errorf("failed to delete session: %w", err)
		}
	}
	return nil
}

// ListSessions returns session ids, most recently updated first.
func (s *SQLStore) ListSessions(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id FROM sessions ORDER BY updated_at DESC, id`)
	if err != nil {
		return nil, fmt.Errorf("failed to list sessions: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func (s *SQLStore) Close() error {
	return s.db.Close()
}

var (
	_ Store         = (*SQLStore)(nil)
	_ SessionLister = (*SQLStore)(nil)
)
