// Package sqlitedriver registers a SQLite database/sql driver under the name
// "sqlite3" and opens matchpoint's SQLite files. When built with CGO it uses
// go-sqlcipher, which adds SQLCipher encryption. Without CGO it falls back to
// the pure-Go modernc.org/sqlite driver, which has no encryption support.
//
// Import for side effects only, or call Open:
//
//	import _ "github.com/teradata-labs/matchpoint/internal/sqlitedriver"
package sqlitedriver
