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
	"fmt"
	"time"
)

// Config describes the database the query tools run against.
type Config struct {
	// Name identifies the backend in logs and tool descriptions
	Name string `mapstructure:"name"`

	// Type is the dialect: sqlite, postgres or mysql
	Type string `mapstructure:"type"`

	// DSN is the driver data source name; for sqlite it is the file path
	DSN string `mapstructure:"dsn"`

	MaxOpenConns int           `mapstructure:"max_open_conns"`
	MaxIdleConns int           `mapstructure:"max_idle_conns"`
	ConnMaxLife  time.Duration `mapstructure:"conn_max_lifetime"`

	// EncryptionKey opens an SQLCipher-encrypted sqlite file
	EncryptionKey string `mapstructure:"encryption_key"`
}

// Validate checks required fields and normalizes the dialect name.
func (c *Config) Validate() error {
	switch c.Type {
	case "sqlite", "sqlite3":
		c.Type = "sqlite"
	case "postgres", "postgresql":
		c.Type = "postgres"
	case "mysql":
	case "":
		return fmt.Errorf("database type is required")
	default:
		return fmt.Errorf("unsupported database type %q (supported: sqlite, postgres, mysql)", c.Type)
	}
	if c.DSN == "" {
		return fmt.Errorf("database DSN is required")
	}
	if c.Name == "" {
		c.Name = c.Type
	}
	return nil
}

// driverName maps a dialect to its registered database/sql driver.
func driverName(typ string) string {
	switch typ {
	case "sqlite":
		return "sqlite3"
	case "postgres":
		return "postgres"
	default:
		return typ
	}
}
