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
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/teradata-labs/matchpoint/pkg/observability"
	"github.com/teradata-labs/matchpoint/pkg/types"
)

func sampleHistory() []types.Message {
	ts := time.UnixMilli(1_700_000_000_000)
	return []types.Message{
		{ID: "m1", Role: types.ActorUser, Content: "Who won Wimbledon in 2022?", Timestamp: ts},
		{ID: "m2", Role: types.ActorAgent, Timestamp: ts, ToolCalls: []types.ToolCall{{
			ID: "c1", Name: "query_execute", Input: map[string]interface{}{"query": "SELECT winner_name FROM matches"},
		}}},
		{ID: "m3", Role: types.ActorToolResult, Content: "[('Novak Djokovic',)]", ToolUseID: "c1", Timestamp: ts,
			ToolResult: &types.ToolResult{ToolCallID: "c1", Output: "[('Novak Djokovic',)]", Duration: 12 * time.Millisecond}},
		{ID: "m4", Role: types.ActorAgent, Timestamp: ts, ContentBlocks: []types.ContentBlock{{Type: "text", Text: "Novak Djokovic."}}},
	}
}

func newSQLiteStore(t *testing.T) *SQLStore {
	t.Helper()
	store, err := Open(context.Background(), Config{
		Backend: "sqlite",
		Path:    filepath.Join(t.TempDir(), "sessions.db"),
	}, zaptest.NewLogger(t), observability.NewMockTracer())
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store.(*SQLStore)
}

func testStore(t *testing.T, store Store) {
	ctx := context.Background()

	msgs, err := store.Load(ctx, "missing")
	require.NoError(t, err)
	assert.Empty(t, msgs)

	history := sampleHistory()
	require.NoError(t, store.Save(ctx, "s1", history))

	loaded, err := store.Load(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, history, loaded)

	// Save replaces rather than appends.
	require.NoError(t, store.Save(ctx, "s1", history[:1]))
	loaded, err = store.Load(ctx, "s1")
	require.NoError(t, err)
	assert.Len(t, loaded, 1)

	// Sessions are isolated.
	require.NoError(t, store.Save(ctx, "s2", history))
	loaded, err = store.Load(ctx, "s1")
	require.NoError(t, err)
	assert.Len(t, loaded, 1)

	require.NoError(t, store.Delete(ctx, "s2"))
	require.NoError(t, store.Delete(ctx, "never-existed"))
	loaded, err = store.Load(ctx, "s2")
	require.NoError(t, err)
	assert.Empty(t, loaded)

	_, err = store.Load(ctx, "")
	assert.ErrorIs(t, err, ErrInvalidSessionID)
	assert.ErrorIs(t, store.Save(ctx, "", history), ErrInvalidSessionID)
}

func TestMemoryStore(t *testing.T) {
	testStore(t, NewMemoryStore())
}

func TestMemoryStore_NoAliasing(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	history := sampleHistory()
	require.NoError(t, store.Save(ctx, "s1", history))

	history[1].ToolCalls[0].Input["query"] = "mutated"
	loaded, err := store.Load(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, "SELECT winner_name FROM matches", loaded[1].ToolCalls[0].Input["query"])

	loaded[0].Content = "mutated"
	again, err := store.Load(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, "Who won Wimbledon in 2022?", again[0].Content)
}

func TestMemoryStore_ListSessions(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	require.NoError(t, store.Save(ctx, "b", sampleHistory()))
	require.NoError(t, store.Save(ctx, "a", sampleHistory()))

	var lister SessionLister = store
	ids, err := lister.ListSessions(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, ids)

	require.NoError(t, store.Delete(ctx, "a"))
	ids, err = lister.ListSessions(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"b"}, ids)
}

func TestSQLStore(t *testing.T) {
	testStore(t, newSQLiteStore(t))
}

func TestSQLStore_ListSessionsAndTracing(t *testing.T) {
	ctx := context.Background()
	tracer := observability.NewMockTracer()
	store, err := Open(ctx, Config{Backend: "sqlite", Path: ":memory:"}, nil, tracer)
	require.NoError(t, err)
	defer func() { _ = store.Close() }()

	require.NoError(t, store.Save(ctx, "a", sampleHistory()))
	require.NoError(t, store.Save(ctx, "b", sampleHistory()))

	ids, err := store.(SessionLister).ListSessions(ctx)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"a", "b"}, ids)

	spans := tracer.GetSpansByName("storage.save")
	require.Len(t, spans, 2)
	assert.Equal(t, "a", spans[0].Attributes[observability.AttrSessionID])
}

func TestSQLStore_ConcurrentSessions(t *testing.T) {
	store := newSQLiteStore(t)
	ctx := context.Background()

	var wg sync.WaitGroup
	for _, id := range []string{"a", "b", "c", "d"} {
		wg.Add(1)
		go func() {
			defer wg.Done()
			assert.NoError(t, store.Save(ctx, id, sampleHistory()))
		}()
	}
	wg.Wait()

	for _, id := range []string{"a", "b", "c", "d"} {
		msgs, err := store.Load(ctx, id)
		require.NoError(t, err)
		assert.Len(t, msgs, 4)
	}
}

func TestOpen(t *testing.T) {
	ctx := context.Background()

	store, err := Open(ctx, Config{}, nil, nil)
	require.NoError(t, err)
	assert.IsType(t, &MemoryStore{}, store)

	_, err = Open(ctx, Config{Backend: "cassandra"}, nil, nil)
	assert.Error(t, err)
}

func TestSQLStore_Rebind(t *testing.T) {
	pg := &SQLStore{dialect: DialectPostgres}
	assert.Equal(t, "SELECT a FROM t WHERE x = $1 AND y = $2", pg.rebind("SELECT a FROM t WHERE x = ? AND y = ?"))

	lite := &SQLStore{dialect: DialectSQLite}
	assert.Equal(t, "x = ?", lite.rebind("x = ?"))
}

func TestTrimHistory(t *testing.T) {
	u := func(s string) types.Message { return types.Message{Role: types.ActorUser, Content: s} }
	a := func(s string) types.Message { return types.Message{Role: types.ActorAgent, Content: s} }
	tr := types.Message{Role: types.ActorToolResult, ToolUseID: "c"}

	history := []types.Message{u("q1"), a("tool"), tr, a("a1"), u("q2"), a("tool"), tr, a("a2")}

	assert.Equal(t, history, TrimHistory(history, 0))
	assert.Equal(t, history, TrimHistory(history, 8))
	assert.Equal(t, history[4:], TrimHistory(history, 5), "window starts mid-question, advance to next user message")
	assert.Equal(t, history[4:], TrimHistory(history, 4))
	assert.Equal(t, history[4:], TrimHistory(history, 2), "current question is kept whole")

	noUser := []types.Message{a("x"), a("y"), a("z")}
	assert.Equal(t, noUser[1:], TrimHistory(noUser, 2))
}
