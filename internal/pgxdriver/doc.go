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

// Package pgxdriver opens PostgreSQL connections through pgx/v5.
//
// The session store is written against database/sql, so the pgx
// connection config is wrapped with the pgx stdlib adapter rather than
// exposed as a pgxpool.Pool.
//
// Usage:
//
//	db, err := pgxdriver.OpenDB(ctx, cfg, tracer)
//	defer db.Close()
package pgxdriver
