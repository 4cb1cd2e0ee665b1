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
	"fmt"
	"strings"
	"time"

	_ "github.com/go-sql-driver/mysql" // mysql
	_ "github.com/lib/pq"              // postgres
	"go.uber.org/zap"

	"github.com/teradata-labs/matchpoint/internal/sqlitedriver"
	"github.com/teradata-labs/matchpoint/pkg/literal"
	"github.com/teradata-labs/matchpoint/pkg/observability"
)

// SQLBackend is a Backend over database/sql.
type SQLBackend struct {
	db     *sql.DB
	name   string
	typ    string
	logger *zap.Logger
	tracer observability.Tracer
}

// Open connects to the configured database and verifies connectivity.
func Open(ctx context.Context, cfg Config, logger *zap.Logger, tracer observability.Tracer) (*SQLBackend, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if tracer == nil {
		tracer = observability.NewNoOpTracer()
	}

	var db *sql.DB
	var err error
	if cfg.Type == "sqlite" {
		db, err = sqlitedriver.Open(ctx, sqlitedriver.Config{
			Path:          cfg.DSN,
			EncryptionKey: cfg.EncryptionKey,
			Encrypt:       cfg.EncryptionKey != "",
			ReadOnly:      cfg.DSN != ":memory:",
		})
		if err != nil {
			return nil, err
		}
	} else {
		db, err = sql.Open(driverName(cfg.Type), cfg.DSN)
		if err != nil {
			return nil, fmt.Errorf("failed to open database: %w", err)
		}
		if err := db.PingContext(ctx); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("failed to ping database: %w", err)
		}
	}

	// sqlitedriver sizes its own pool.
	if cfg.MaxOpenConns > 0 && cfg.Type != "sqlite" {
		db.SetMaxOpenConns(cfg.MaxOpenConns)
	}
	if cfg.MaxIdleConns > 0 {
		db.SetMaxIdleConns(cfg.MaxIdleConns)
	}
	if cfg.ConnMaxLife > 0 {
		db.SetConnMaxLifetime(cfg.ConnMaxLife)
	}

	logger.Info("database backend opened",
		zap.String("name", cfg.Name),
		zap.String("type", cfg.Type),
	)
	return NewSQLBackend(db, cfg.Name, cfg.Type, logger, tracer), nil
}

// NewSQLBackend wraps an existing connection pool.
func NewSQLBackend(db *sql.DB, name, typ string, logger *zap.Logger, tracer observability.Tracer) *SQLBackend {
	if logger == nil {
		logger = zap.NewNop()
	}
	if tracer == nil {
		tracer = observability.NewNoOpTracer()
	}
	return &SQLBackend{db: db, name: name, typ: typ, logger: logger, tracer: tracer}
}

func (b *SQLBackend) Name() string { return b.name }

func (b *SQLBackend) Type() string { return b.typ }

// DB exposes the pool, for seeding fixtures in tests and tooling.
func (b *SQLBackend) DB() *sql.DB { return b.db }

// Validate runs the read-only guardrail and then asks the engine to plan the
// statement with EXPLAIN, so syntax and unknown tables are reported without
// producing data.
func (b *SQLBackend) Validate(ctx context.Context, query string) (*ValidationResult, error) {
	ctx, span := b.tracer.StartSpan(ctx, observability.SpanBackendQuery,
		observability.WithAttribute(observability.AttrBackendType, b.typ),
		observability.WithAttribute("backend.operation", "validate"),
	)
	defer b.tracer.EndSpan(span)

	stmt := NormalizeStatement(query)
	result := &ValidationResult{Statement: stmt}
	if issues := CheckReadOnly(stmt); len(issues) > 0 {
		result.Issues = issues
		return result, nil
	}

	rows, err := b.db.QueryContext(ctx, "EXPLAIN "+stmt)
	if err != nil {
		if ctx.Err() != nil {
			span.RecordError(ctx.Err())
			return nil, ctx.Err()
		}
		result.Issues = []Issue{{
			Severity:   "error",
			Message:    err.Error(),
			Suggestion: "Check table and column names against the schema.",
		}}
		return result, nil
	}
	defer func() { _ = rows.Close() }()
	for rows.Next() {
	}
	if err := rows.Err(); err != nil {
		result.Issues = []Issue{{Severity: "error", Message: err.Error()}}
		return result, nil
	}

	result.Valid = true
	return result, nil
}

// Query executes a read-only statement into ordered rows.
func (b *SQLBackend) Query(ctx context.Context, query string, maxRows int) (*QueryResult, error) {
	ctx, span := b.tracer.StartSpan(ctx, observability.SpanBackendQuery,
		observability.WithAttribute(observability.AttrBackendType, b.typ),
		observability.WithAttribute("backend.operation", "query"),
	)
	defer b.tracer.EndSpan(span)

	start := time.Now()
	stmt := NormalizeStatement(query)
	if issues := CheckReadOnly(stmt); len(issues) > 0 {
		err := fmt.Errorf("statement rejected: %s", IssueSummary(issues))
		span.RecordError(err)
		return nil, err
	}

	rows, err := b.db.QueryContext(ctx, stmt)
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("query failed: %w", err)
	}
	defer func() { _ = rows.Close() }()

	names, err := rows.Columns()
	if err != nil {
		return nil, err
	}
	columnTypes, err := rows.ColumnTypes()
	if err != nil {
		return nil, err
	}

	cols := make([]Column, len(names))
	for i, name := range names {
		nullable, _ := columnTypes[i].Nullable()
		cols[i] = Column{
			Name:     name,
			Type:     columnTypes[i].DatabaseTypeName(),
			Nullable: nullable,
		}
	}

	result := &QueryResult{Columns: cols}
	for rows.Next() {
		if maxRows > 0 && len(result.Rows) >= maxRows {
			result.Truncated = true
			break
		}
		values := make([]interface{}, len(names))
		ptrs := make([]interface{}, len(names))
		for i := range values {
			ptrs[i] = &values[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, err
		}
		for i, v := range values {
			values[i] = normalizeCell(v, cols[i].Type)
		}
		result.Rows = append(result.Rows, values)
	}
	if err := rows.Err(); err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("query failed: %w", err)
	}

	result.RowCount = len(result.Rows)
	result.ExecutionStats.DurationMs = time.Since(start).Milliseconds()
	span.SetAttribute("backend.rows", result.RowCount)

	b.logger.Debug("query executed",
		zap.String("backend", b.name),
		zap.Int("rows", result.RowCount),
		zap.Bool("truncated", result.Truncated),
		zap.Int64("duration_ms", result.ExecutionStats.DurationMs),
	)
	return result, nil
}

// normalizeCell converts driver values into the small set of cell types the
// renderer understands.
func normalizeCell(v interface{}, dbType string) interface{} {
	switch val := v.(type) {
	case []byte:
		s := string(val)
		// Drivers return NUMERIC/DECIMAL as text.
		switch strings.ToUpper(dbType) {
		case "NUMERIC", "DECIMAL":
			return literal.Decimal(s)
		}
		return s
	case int:
		return int64(val)
	case int32:
		return int64(val)
	case float32:
		return float64(val)
	}
	return v
}

// ListTables lists user tables in the current database.
func (b *SQLBackend) ListTables(ctx context.Context) ([]string, error) {
	var q string
	switch b.typ {
	case "sqlite":
		q = "SELECT name FROM sqlite_master WHERE type IN ('table','view') AND name NOT LIKE 'sqlite_%' ORDER BY name"
	case "postgres":
		q = "SELECT table_name FROM information_schema.tables WHERE table_schema = current_schema() ORDER BY table_name"
	default:
		q = "SELECT table_name FROM information_schema.tables WHERE table_schema = DATABASE() ORDER BY table_name"
	}

	rows, err := b.db.QueryContext(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("list tables: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var tables []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		tables = append(tables, name)
	}
	return tables, rows.Err()
}

func (b *SQLBackend) Ping(ctx context.Context) error {
	return b.db.PingContext(ctx)
}

func (b *SQLBackend) Close() error {
	if b.db != nil {
		return b.db.Close()
	}
	return nil
}

var _ Backend = (*SQLBackend)(nil)
