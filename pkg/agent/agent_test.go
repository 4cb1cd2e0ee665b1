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
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/teradata-labs/matchpoint/pkg/observability"
	"github.com/teradata-labs/matchpoint/pkg/shuttle"
	"github.com/teradata-labs/matchpoint/pkg/shuttle/builtin"
	"github.com/teradata-labs/matchpoint/pkg/storage"
	"github.com/teradata-labs/matchpoint/pkg/types"
)

const finalRow = "[('Rafael Nadal', 'Roger Federer', '6-4 6-4 6-7(5) 6-7(8) 9-7')]"

func TestRunTurn_ReminderThenExecute(t *testing.T) {
	llm := &scriptedLLM{respond: steps(
		validateStep(finalQuery),
		textStep("The query is valid, so Nadal beat Federer."),
		executeStep(finalQuery),
		textStep(finalRow),
	)}
	store := storage.NewMemoryStore()
	ag, tracer := newTestAgent(t, llm, nil, WithStore(store))

	resp, err := ag.RunTurn(context.Background(), "s1", "Who won the 2008 Wimbledon final?")
	require.NoError(t, err)

	assert.Equal(t, 4, resp.Iterations)
	assert.Equal(t, 1, resp.Reminders)
	assert.False(t, resp.Degraded)
	assert.Equal(t, "Winner: Rafael Nadal, Loser: Roger Federer, Score: 6-4 6-4 6-7(5) 6-7(8) 9-7", resp.FinalText)

	require.NotNil(t, resp.Table)
	assert.Equal(t, []string{"Winner", "Loser", "Score"}, resp.Table.Columns)
	require.Len(t, resp.Table.Rows, 1)
	assert.Equal(t, "Rafael Nadal", resp.Table.Rows[0][0])

	// The third model call saw the reminder as its newest message.
	require.Equal(t, 4, llm.Calls())
	third := llm.seen[2]
	last := third[len(third)-1]
	assert.Equal(t, types.ActorSystem, last.Role)
	assert.Contains(t, last.Content, builtin.ExecuteToolName)
	assert.Contains(t, last.Content, finalQuery)
	assert.Equal(t, types.ActorSystem, third[0].Role, "system prompt first")

	assert.Len(t, tracer.GetEventsByName(observability.EventReminderInjected), 1)
	assert.NotNil(t, tracer.GetSpanByName(observability.SpanAgentTurn))

	history, err := store.Load(context.Background(), "s1")
	require.NoError(t, err)
	assert.Equal(t, []types.Actor{
		types.ActorUser,
		types.ActorAgent, types.ActorToolResult,
		types.ActorAgent, types.ActorSystem,
		types.ActorAgent, types.ActorToolResult,
		types.ActorAgent,
	}, rolesOf(history))
}

func TestRunTurn_ReminderCapFailsOpen(t *testing.T) {
	// Validates after every user, system or tool-free step, never executes.
	llm := &scriptedLLM{respond: func(_ context.Context, _ int, msgs []types.Message) (*types.LLMResponse, error) {
		if msgs[len(msgs)-1].Role != types.ActorToolResult {
			return validateStep(finalQuery), nil
		}
		return textStep("Rafael Nadal won."), nil
	}}
	ag, tracer := newTestAgent(t, llm, nil)

	resp, err := ag.RunTurn(context.Background(), "s1", "Who won the 2008 Wimbledon final?")
	require.NoError(t, err)

	assert.Equal(t, 8, resp.Iterations)
	assert.Equal(t, 3, resp.Reminders)
	assert.False(t, resp.Degraded)
	assert.Equal(t, "Rafael Nadal won.", resp.FinalText)
	assert.Nil(t, resp.Table)
	assert.Len(t, tracer.GetEventsByName(observability.EventReminderInjected), 3)
	assert.Len(t, tracer.GetEventsByName(observability.EventReminderCapReached), 1)
}

func TestRunTurn_PartialConfigKeepsReminders(t *testing.T) {
	llm := &scriptedLLM{respond: steps(
		validateStep(finalQuery),
		textStep("The query is valid, so Nadal beat Federer."),
		executeStep(finalQuery),
		textStep(finalRow),
	)}
	ag, _ := newTestAgent(t, llm, &Config{MaxIterations: 8})

	resp, err := ag.RunTurn(context.Background(), "s1", "Who won the 2008 Wimbledon final?")
	require.NoError(t, err)
	assert.Equal(t, 1, resp.Reminders)
	assert.Equal(t, 4, resp.Iterations)
	require.NotNil(t, resp.Table)
	assert.Equal(t, []string{"Winner", "Loser", "Score"}, resp.Table.Columns)
}

func TestRunTurn_RenamedQueryTools(t *testing.T) {
	querySchema := shuttle.NewObjectSchema("query", map[string]*shuttle.JSONSchema{
		"query": shuttle.NewStringSchema("SQL statement"),
	}, []string{"query"})
	reg := shuttle.NewRegistry()
	require.NoError(t, reg.Register(&shuttle.MockTool{MockName: "check_sql", MockSchema: querySchema,
		MockExecute: func(context.Context, map[string]interface{}) (*shuttle.Result, error) {
			return &shuttle.Result{Success: true, Data: "valid"}, nil
		}}))
	require.NoError(t, reg.Register(&shuttle.MockTool{MockName: "run_sql", MockSchema: querySchema,
		MockExecute: func(context.Context, map[string]interface{}) (*shuttle.Result, error) {
			return &shuttle.Result{Success: true, Data: finalRow}, nil
		}}))
	reg.Freeze()

	call := func(name string) *types.LLMResponse {
		return &types.LLMResponse{ToolCalls: []types.ToolCall{{
			Name: name, Input: map[string]interface{}{"query": finalQuery},
		}}}
	}
	llm := &scriptedLLM{respond: steps(
		call("check_sql"),
		textStep("Looks valid."),
		call("run_sql"),
		textStep(finalRow),
	)}
	cfg := testConfig()
	cfg.ValidateTool = "check_sql"
	cfg.ExecuteTool = "run_sql"
	ag := NewAgent(shuttle.NewExecutor(reg), llm, WithConfig(cfg))

	resp, err := ag.RunTurn(context.Background(), "s1", "Who won the 2008 Wimbledon final?")
	require.NoError(t, err)
	assert.Equal(t, 1, resp.Reminders)
	require.NotNil(t, resp.Table)
	assert.Equal(t, []string{"Winner", "Loser", "Score"}, resp.Table.Columns)

	third := llm.seen[2]
	assert.Contains(t, third[len(third)-1].Content, "run_sql")
}

func TestRunTurn_IterationLimit(t *testing.T) {
	llm := &scriptedLLM{respond: steps(&types.LLMResponse{
		ToolCalls: []types.ToolCall{{Name: builtin.ValidateToolName, Input: map[string]interface{}{"query": finalQuery}}},
	})}
	cfg := testConfig()
	cfg.MaxIterations = 5
	store := storage.NewMemoryStore()
	ag, tracer := newTestAgent(t, llm, cfg, WithStore(store))

	resp, err := ag.RunTurn(context.Background(), "s1", "Who won?")
	require.NoError(t, err)

	assert.True(t, resp.Degraded)
	assert.Equal(t, ReasonLoopLimitExceeded, resp.DegradedReason)
	assert.Equal(t, NoAnswerText, resp.FinalText)
	assert.Equal(t, 5, resp.Iterations)
	assert.Equal(t, 5, llm.Calls())
	assert.Len(t, tracer.GetEventsByName(observability.EventLoopLimitExceeded), 1)

	history, err := store.Load(context.Background(), "s1")
	require.NoError(t, err)
	ids := map[string]bool{}
	answered := map[string]bool{}
	for _, m := range history {
		for _, tc := range m.ToolCalls {
			require.NotEmpty(t, tc.ID)
			assert.False(t, ids[tc.ID], "tool call ids are unique")
			ids[tc.ID] = true
		}
		if m.Role == types.ActorToolResult {
			answered[m.ToolUseID] = true
		}
	}
	assert.Len(t, ids, 5)
	assert.Equal(t, ids, answered, "every call has a result")
}

func TestRunTurn_ModelError(t *testing.T) {
	boom := errors.New("connection refused")
	llm := &scriptedLLM{respond: func(context.Context, int, []types.Message) (*types.LLMResponse, error) {
		return nil, boom
	}}
	store := storage.NewMemoryStore()
	ag, tracer := newTestAgent(t, llm, nil, WithStore(store))

	resp, err := ag.RunTurn(context.Background(), "s1", "Who won?")
	require.Error(t, err)
	assert.Nil(t, resp)
	assert.ErrorIs(t, err, ErrModelCall)
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, 1, llm.Calls())
	assert.NotEmpty(t, tracer.GetMetricsByName(observability.MetricLLMErrors))

	history, err := store.Load(context.Background(), "s1")
	require.NoError(t, err)
	assert.Empty(t, history, "failed turns are not persisted")
}

func TestRunTurn_RetriesTransientModelErrors(t *testing.T) {
	llm := &scriptedLLM{respond: func(_ context.Context, call int, _ []types.Message) (*types.LLMResponse, error) {
		if call <= 2 {
			return nil, fmt.Errorf("503 service unavailable")
		}
		return textStep("Hello!"), nil
	}}
	cfg := DefaultConfig()
	cfg.Retry.InitialDelay = time.Millisecond
	cfg.Retry.MaxDelay = 2 * time.Millisecond
	ag, _ := newTestAgent(t, llm, cfg)

	resp, err := ag.RunTurn(context.Background(), "s1", "Hi")
	require.NoError(t, err)
	assert.Equal(t, "Hello!", resp.FinalText)
	assert.Equal(t, 1, resp.Iterations, "retries are one iteration")
	assert.Equal(t, 3, llm.Calls())
}

func TestRunTurn_Canceled(t *testing.T) {
	llm := &scriptedLLM{respond: func(ctx context.Context, _ int, _ []types.Message) (*types.LLMResponse, error) {
		<-ctx.Done()
		return nil, ctx.Err()
	}}
	store := storage.NewMemoryStore()
	ag, _ := newTestAgent(t, llm, nil, WithStore(store))

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	resp, err := ag.RunTurn(ctx, "s1", "Who won?")
	require.Error(t, err)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.NotErrorIs(t, err, ErrModelCall)
	require.NotNil(t, resp)
	assert.True(t, resp.Degraded)
	assert.Equal(t, ReasonCanceled, resp.DegradedReason)
	assert.Equal(t, NoAnswerText, resp.FinalText)

	history, err := store.Load(context.Background(), "s1")
	require.NoError(t, err)
	assert.Empty(t, history)
}

func TestRunTurn_HistoryCarriesOver(t *testing.T) {
	llm := &scriptedLLM{respond: steps(
		textStep("Rafael Nadal."),
		textStep("Novak Djokovic."),
	)}
	store := storage.NewMemoryStore()
	ag, _ := newTestAgent(t, llm, nil, WithStore(store))
	ctx := context.Background()

	_, err := ag.RunTurn(ctx, "s1", "Who won Wimbledon in 2008?")
	require.NoError(t, err)
	resp, err := ag.RunTurn(ctx, "s1", "And in 2022?")
	require.NoError(t, err)
	assert.Equal(t, "Novak Djokovic.", resp.FinalText)

	second := llm.seen[1]
	assert.Equal(t, []types.Actor{
		types.ActorSystem, types.ActorUser, types.ActorAgent, types.ActorUser,
	}, rolesOf(second))
	assert.Equal(t, "And in 2022?", second[3].Content)

	// Another session starts clean.
	_, err = ag.RunTurn(ctx, "s2", "Hi")
	require.NoError(t, err)
	assert.Equal(t, []types.Actor{types.ActorSystem, types.ActorUser}, rolesOf(llm.seen[2]))
}

func TestRunTurn_SerializesPerSession(t *testing.T) {
	var inFlight, maxInFlight int32
	llm := &scriptedLLM{respond: func(context.Context, int, []types.Message) (*types.LLMResponse, error) {
		n := atomic.AddInt32(&inFlight, 1)
		defer atomic.AddInt32(&inFlight, -1)
		for {
			m := atomic.LoadInt32(&maxInFlight)
			if n <= m || atomic.CompareAndSwapInt32(&maxInFlight, m, n) {
				break
			}
		}
		time.Sleep(2 * time.Millisecond)
		return textStep("ok"), nil
	}}
	store := storage.NewMemoryStore()
	ag, _ := newTestAgent(t, llm, nil, WithStore(store))

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, err := ag.RunTurn(context.Background(), "shared", fmt.Sprintf("question %d", i))
			assert.NoError(t, err)
		}(i)
	}
	wg.Wait()

	assert.Equal(t, int32(1), atomic.LoadInt32(&maxInFlight))
	history, err := store.Load(context.Background(), "shared")
	require.NoError(t, err)
	assert.Len(t, history, 20, "no turn lost its update")
}

func TestRunTurn_InvalidSession(t *testing.T) {
	llm := &scriptedLLM{respond: steps(textStep("hi"))}
	ag, _ := newTestAgent(t, llm, nil)

	_, err := ag.RunTurn(context.Background(), "", "Who won?")
	assert.ErrorIs(t, err, ErrInvalidSession)
	assert.Equal(t, 0, llm.Calls())
}

func TestNewAgent_Defaults(t *testing.T) {
	ag := NewAgent(newExecutor(t, nil), &scriptedLLM{respond: steps(textStep("hi"))})
	cfg := ag.Config()
	assert.Equal(t, 12, cfg.MaxIterations)
	assert.Equal(t, 3, cfg.MaxReminders)
	assert.Equal(t, 10, cfg.WindowSize)
	assert.Equal(t, builtin.ValidateToolName, cfg.ValidateTool)
	assert.Equal(t, builtin.ExecuteToolName, cfg.ExecuteTool)
}
