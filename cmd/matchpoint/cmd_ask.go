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
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/teradata-labs/matchpoint/pkg/agent"
	"github.com/teradata-labs/matchpoint/pkg/answer"
)

var askCmd = &cobra.Command{
	Use:   "ask <question>",
	Short: "Answer one question and exit",
	Example: `  matchpoint ask "Who won the 2008 Wimbledon final?"
  matchpoint ask --session s1 "And in 2009?"`,
	Args: cobra.MinimumNArgs(1),
	RunE: runAsk,
}

func init() {
	askCmd.Flags().String("session", "", "Session id to continue (default: a new session)")
	askCmd.Flags().Bool("json", false, "Print the full response as JSON")
}

func runAsk(cmd *cobra.Command, args []string) error {
	logger, err := newLogger(config.Logging)
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	a, err := buildApp(ctx, config, logger)
	if err != nil {
		return err
	}
	defer func() { _ = a.Close() }()

	sessionID, _ := cmd.Flags().GetString("session")
	if sessionID == "" {
		sessionID = uuid.NewString()
	}

	resp, err := a.agent.RunTurn(ctx, sessionID, strings.Join(args, " "))
	if err != nil && resp == nil {
		return err
	}
	if err != nil {
		logger.Warn("turn finished with error", zap.Error(err))
	}

	if asJSON, _ := cmd.Flags().GetBool("json"); asJSON {
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(resp)
	}
	printResponse(cmd.OutOrStdout(), resp)
	if resp.Degraded {
		fmt.Fprintf(cmd.ErrOrStderr(), "(best-effort answer: %s)\n", resp.DegradedReason)
	}
	fmt.Fprintf(cmd.ErrOrStderr(), "session: %s\n", resp.SessionID)
	return err
}

// printResponse writes the table when there is one, otherwise the text.
func printResponse(w io.Writer, resp *agent.Response) {
	if resp.Table == nil {
		fmt.Fprintln(w, resp.FinalText)
		return
	}
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, strings.Join(resp.Table.Columns, "\t"))
	for _, row := range resp.Table.Rows {
		cells := make([]string, len(row))
		for i, v := range row {
			cells[i] = answer.CellText(v)
		}
		fmt.Fprintln(tw, strings.Join(cells, "\t"))
	}
	_ = tw.Flush()
}
