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
package agent

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/teradata-labs/matchpoint/internal/sqlitedriver"
	"github.com/teradata-labs/matchpoint/pkg/fabric"
	"github.com/teradata-labs/matchpoint/pkg/observability"
	"github.com/teradata-labs/matchpoint/pkg/shuttle"
	"github.com/teradata-labs/matchpoint/pkg/shuttle/builtin"
	"github.com/teradata-labs/matchpoint/pkg/types"
)

const finalQuery = "SELECT winner_name, loser_name, score FROM matches WHERE year = 2008"

type respondFunc func(ctx context.Context, call int, msgs []types.Message) (*types.LLMResponse, error)

// scriptedLLM is a language model stub driven by a function of the call
// number and the messages it receives.
type scriptedLLM struct {
	mu      sync.Mutex
	calls   int
	seen    [][]types.Message
	respond respondFunc
}

func (s *scriptedLLM) Chat(ctx context.Context, msgs []types.Message, tools []types.ToolDefinition) (*types.LLMResponse, error) {
	s.mu.Lock()
	s.calls++
	n := s.calls
	s.seen = append(s.seen, append([]types.Message(nil), msgs...))
	s.mu.Unlock()
	return s.respond(ctx, n, msgs)
}

func (s *scriptedLLM) Name() string  { return "scripted" }
func (s *scriptedLLM) Model() string { return "stub-1" }

func (s *scriptedLLM) Calls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}

// steps replays responses in order and repeats the last one.
func steps(responses ...*types.LLMResponse) respondFunc {
	return func(_ context.Context, call int, _ []types.Message) (*types.LLMResponse, error) {
		if call > len(responses) {
			call = len(responses)
		}
		return responses[call-1], nil
	}
}

func validateStep(query string) *types.LLMResponse {
	return &types.LLMResponse{
		Content: "Let me check the query:\n```sql\n" + query + "\n```",
		ToolCalls: []types.ToolCall{{
			Name:  builtin.ValidateToolName,
			Input: map[string]interface{}{"query": query},
		}},
	}
}

func executeStep(query string) *types.LLMResponse {
	return &types.LLMResponse{
		ToolCalls: []types.ToolCall{{
			Name:  builtin.ExecuteToolName,
			Input: map[string]interface{}{"query": query},
		}},
	}
}

func textStep(text string) *types.LLMResponse {
	return &types.LLMResponse{Content: text}
}

func newExecutor(t *testing.T, tracer observability.Tracer) *shuttle.Executor {
	t.Helper()
	ctx := context.Background()
	db, err := sqlitedriver.Open(ctx, sqlitedriver.Config{Path: ":memory:"})
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	for _, s := range []string{
		"CREATE TABLE matches (tourney_name TEXT, year INTEGER, winner_name TEXT, loser_name TEXT, score TEXT)",
		"INSERT INTO matches VALUES ('Wimbledon', 2008, 'Rafael Nadal', 'Roger Federer', '6-4 6-4 6-7(5) 6-7(8) 9-7')",
		"INSERT INTO matches VALUES ('Wimbledon', 2022, 'Novak Djokovic', 'Nick Kyrgios', '4-6 6-3 6-4 7-6(3)')",
	} {
		_, err := db.ExecContext(ctx, s)
		require.NoError(t, err)
	}

	logger := zaptest.NewLogger(t)
	reg := shuttle.NewRegistry()
	require.NoError(t, builtin.Register(reg, fabric.NewSQLBackend(db, "atp", "sqlite", logger, tracer), builtin.Options{}))
	reg.Freeze()
	return shuttle.NewExecutor(reg, shuttle.WithLogger(logger), shuttle.WithTracer(tracer))
}

// testConfig is the default configuration without retry backoff.
func testConfig() *Config {
	cfg := DefaultConfig()
	cfg.Retry.Enabled = false
	return cfg
}

func newTestAgent(t *testing.T, llm types.LLMProvider, cfg *Config, opts ...Option) (*Agent, *observability.MockTracer) {
	t.Helper()
	if cfg == nil {
		cfg = testConfig()
	}
	tracer := observability.NewMockTracer()
	base := []Option{
		WithLogger(zaptest.NewLogger(t)),
		WithTracer(tracer),
		WithConfig(cfg),
	}
	return NewAgent(newExecutor(t, tracer), llm, append(base, opts...)...), tracer
}

func rolesOf(msgs []types.Message) []types.Actor {
	out := make([]types.Actor, len(msgs))
	for i, m := range msgs {
		out[i] = m.Role
	}
	return out
}
