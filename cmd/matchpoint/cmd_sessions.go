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
package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/teradata-labs/matchpoint/pkg/storage"
	"github.com/teradata-labs/matchpoint/pkg/storage/sqlite"
)

var sessionsCmd = &cobra.Command{
	Use:   "sessions",
	Short: "Inspect and maintain stored conversation sessions",
}

var sessionsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List stored session ids",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := openStore(cmd)
		if err != nil {
			return err
		}
		defer func() { _ = store.Close() }()

		lister, ok := store.(storage.SessionLister)
		if !ok {
			return fmt.Errorf("storage backend %q cannot list sessions", config.Storage.Backend)
		}
		ids, err := lister.ListSessions(cmd.Context())
		if err != nil {
			return err
		}
		for _, id := range ids {
			fmt.Fprintln(cmd.OutOrStdout(), id)
		}
		return nil
	},
}

var sessionsShowCmd = &cobra.Command{
	Use:   "show <session-id>",
	Short: "Print the history of a session",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := openStore(cmd)
		if err != nil {
			return err
		}
		defer func() { _ = store.Close() }()

		msgs, err := store.Load(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		if len(msgs) == 0 {
			return fmt.Errorf("session %q not found", args[0])
		}
		out := cmd.OutOrStdout()
		for _, msg := range msgs {
			text := msg.Text()
			if msg.HasToolCalls() {
				names := make([]string, len(msg.ToolCalls))
				for i, call := range msg.ToolCalls {
					names[i] = call.Name
				}
				text = strings.TrimSpace(text + " [calls: " + strings.Join(names, ", ") + "]")
			}
			fmt.Fprintf(out, "%-9s %s\n", msg.Role, text)
		}
		return nil
	},
}

var sessionsDeleteCmd = &cobra.Command{
	Use:   "delete <session-id>",
	Short: "Delete a session",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := openStore(cmd)
		if err != nil {
			return err
		}
		defer func() { _ = store.Close() }()
		return store.Delete(cmd.Context(), args[0])
	},
}

var sessionsBackupCmd = &cobra.Command{
	Use:   "backup",
	Short: "Back up the SQLite session database",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if !strings.HasPrefix(strings.ToLower(config.Storage.Backend), "sqlite") {
			return fmt.Errorf("backup requires the sqlite storage backend, got %q", config.Storage.Backend)
		}
		if config.Storage.EncryptionKey != "" {
			return fmt.Errorf("backup of encrypted session databases is not supported")
		}
		out, _ := cmd.Flags().GetString("out")
		path, err := sqlite.Backup(cmd.Context(), config.Storage.Path, out)
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), path)
		return nil
	},
}

func init() {
	sessionsBackupCmd.Flags().String("out", "", "Backup file (default: <path>.backup.<timestamp>)")
	sessionsCmd.AddCommand(sessionsListCmd, sessionsShowCmd, sessionsDeleteCmd, sessionsBackupCmd)
	rootCmd.AddCommand(sessionsCmd)
}

func openStore(cmd *cobra.Command) (storage.Store, error) {
	logger, err := newLogger(config.Logging)
	if err != nil {
		return nil, err
	}
	return storage.Open(cmd.Context(), config.Storage, logger, nil)
}
