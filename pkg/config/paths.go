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
// Package config resolves matchpoint's on-disk locations.
package config

import (
	"os"
	"path/filepath"
	"strings"
)

// DataDirEnv overrides the data directory.
const DataDirEnv = "MATCHPOINT_DATA_DIR"

// ConfigFileName is the config file looked up in the data directory.
const ConfigFileName = "matchpoint.yaml"

// GetDataDir returns the matchpoint data directory.
//
// Priority:
// 1. MATCHPOINT_DATA_DIR environment variable (if set and non-empty)
// 2. ~/.matchpoint (default)
//
// The returned path is absolute; a leading ~ is expanded. It reads the
// environment directly because it runs before the config file is located.
func GetDataDir() string {
	if dataDir := os.Getenv(DataDirEnv); dataDir != "" {
		return expandPath(dataDir)
	}

	homeDir, err := os.UserHomeDir()
	if err != nil {
		return ".matchpoint"
	}
	return filepath.Join(homeDir, ".matchpoint")
}

// GetSubDir returns a path inside the data directory.
// Example: GetSubDir("sessions.db") returns ~/.matchpoint/sessions.db
func GetSubDir(name string) string {
	return filepath.Join(GetDataDir(), name)
}

// DefaultConfigPath returns the config file path in the data directory.
func DefaultConfigPath() string {
	return GetSubDir(ConfigFileName)
}

// ExpandPath expands ~ and resolves to an absolute path.
func ExpandPath(path string) string {
	return expandPath(path)
}

func expandPath(path string) string {
	if strings.HasPrefix(path, "~/") {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return path
		}
		return filepath.Join(homeDir, path[2:])
	}

	absPath, err := filepath.Abs(path)
	if err != nil {
		return path
	}
	return absPath
}
