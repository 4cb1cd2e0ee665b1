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
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/teradata-labs/matchpoint/pkg/agent"
	"github.com/teradata-labs/matchpoint/pkg/storage"
	"github.com/teradata-labs/matchpoint/pkg/types"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// mockTurner implements Turner for testing.
type mockTurner struct {
	runFunc func(ctx context.Context, sessionID, userText string) (*agent.Response, error)
}

func (m *mockTurner) RunTurn(ctx context.Context, sessionID, userText string) (*agent.Response, error) {
	if m.runFunc != nil {
		return m.runFunc(ctx, sessionID, userText)
	}
	return &agent.Response{SessionID: sessionID, FinalText: "Mock response", Iterations: 1}, nil
}

func newTestServer(t *testing.T, turner Turner, opts ...Option) *HTTPServer {
	t.Helper()
	cfg := DefaultConfig()
	opts = append([]Option{WithLogger(zaptest.NewLogger(t)), WithGatherer(prometheus.NewRegistry())}, opts...)
	return NewHTTPServer(turner, cfg, opts...)
}

func postTurn(t *testing.T, h http.Handler, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/v1/turn", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func TestHandleTurn_Success(t *testing.T) {
	var gotSession, gotText string
	turner := &mockTurner{runFunc: func(_ context.Context, sessionID, userText string) (*agent.Response, error) {
		gotSession, gotText = sessionID, userText
		return &agent.Response{
			SessionID: sessionID,
			FinalText: "Winner: Rafael Nadal",
			Table: &agent.Table{
				Columns: []string{"Winner", "Loser"},
				Rows:    [][]interface{}{{"Rafael Nadal", "Roger Federer"}},
			},
			Iterations: 4,
			Reminders:  1,
		}, nil
	}}
	srv := newTestServer(t, turner)

	w := postTurn(t, srv.Handler(), `{"session_id":"s1","message":"Who won the 2008 Wimbledon final?"}`)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "s1", gotSession)
	assert.Equal(t, "Who won the 2008 Wimbledon final?", gotText)

	var resp agent.Response
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "Winner: Rafael Nadal", resp.FinalText)
	require.NotNil(t, resp.Table)
	assert.Equal(t, []string{"Winner", "Loser"}, resp.Table.Columns)
	assert.Equal(t, 1, resp.Reminders)
}

func TestHandleTurn_GeneratesSessionID(t *testing.T) {
	srv := newTestServer(t, &mockTurner{})

	w := postTurn(t, srv.Handler(), `{"message":"hi"}`)
	require.Equal(t, http.StatusOK, w.Code)

	var resp agent.Response
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Len(t, resp.SessionID, 36)
}

func TestHandleTurn_BadRequest(t *testing.T) {
	srv := newTestServer(t, &mockTurner{runFunc: func(context.Context, string, string) (*agent.Response, error) {
		t.Fatal("turner must not be called")
		return nil, nil
	}})

	for _, body := range []string{`{`, `{"session_id":"s1"}`, `{"message":"   "}`} {
		w := postTurn(t, srv.Handler(), body)
		assert.Equal(t, http.StatusBadRequest, w.Code, body)
	}
}

func TestHandleTurn_ErrorMapping(t *testing.T) {
	partial := &agent.Response{SessionID: "s1", FinalText: agent.NoAnswerText, Degraded: true, DegradedReason: agent.ReasonCanceled}
	tests := []struct {
		name       string
		resp       *agent.Response
		err        error
		wantStatus int
		wantPart   bool
	}{
		{name: "model failure", err: fmt.Errorf("%w: connection refused", agent.ErrModelCall), wantStatus: http.StatusBadGateway},
		{name: "invalid session", err: agent.ErrInvalidSession, wantStatus: http.StatusBadRequest},
		{name: "timeout", resp: partial, err: fmt.Errorf("conversation canceled: %w", context.DeadlineExceeded), wantStatus: http.StatusGatewayTimeout, wantPart: true},
		{name: "save failure", resp: partial, err: errors.New("failed to save session s1: disk full"), wantStatus: http.StatusInternalServerError, wantPart: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := newTestServer(t, &mockTurner{runFunc: func(context.Context, string, string) (*agent.Response, error) {
				return tt.resp, tt.err
			}})

			w := postTurn(t, srv.Handler(), `{"session_id":"s1","message":"Who won?"}`)
			assert.Equal(t, tt.wantStatus, w.Code)

			var body ErrorResponse
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
			assert.Equal(t, tt.err.Error(), body.Error)
			assert.Equal(t, tt.wantPart, body.Response != nil)
		})
	}
}

func TestHandleTurn_AppliesTimeout(t *testing.T) {
	turner := &mockTurner{runFunc: func(ctx context.Context, sessionID, _ string) (*agent.Response, error) {
		_, ok := ctx.Deadline()
		assert.True(t, ok, "turn runs under a deadline")
		return &agent.Response{SessionID: sessionID}, nil
	}}
	srv := newTestServer(t, turner)
	w := postTurn(t, srv.Handler(), `{"message":"hi"}`)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestHealthAndReady(t *testing.T) {
	failing := HealthCheck{Name: "database", Check: func(context.Context) error { return errors.New("connection refused") }}
	passing := HealthCheck{Name: "noop", Check: func(context.Context) error { return nil }}

	srv := newTestServer(t, &mockTurner{}, WithHealthCheck(passing))
	w := httptest.NewRecorder()
	srv.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"healthy"}`, w.Body.String())

	w = httptest.NewRecorder()
	srv.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ready", nil))
	assert.Equal(t, http.StatusOK, w.Code)

	srv = newTestServer(t, &mockTurner{}, WithHealthCheck(passing), WithHealthCheck(failing))
	w = httptest.NewRecorder()
	srv.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ready", nil))
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Contains(t, w.Body.String(), "connection refused")
}

func TestMetricsEndpoint(t *testing.T) {
	reg := prometheus.NewRegistry()
	counter := prometheus.NewCounter(prometheus.CounterOpts{Name: "matchpoint_test_total", Help: "test"})
	reg.MustRegister(counter)
	counter.Inc()

	srv := newTestServer(t, &mockTurner{}, WithGatherer(reg))
	w := httptest.NewRecorder()
	srv.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "matchpoint_test_total 1")
}

func TestDeleteSession(t *testing.T) {
	store := storage.NewMemoryStore()
	ctx := context.Background()
	require.NoError(t, store.Save(ctx, "s1", []types.Message{{Role: types.ActorUser, Content: "hi"}}))

	srv := newTestServer(t, &mockTurner{}, WithStore(store))
	w := httptest.NewRecorder()
	srv.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodDelete, "/v1/sessions/s1", nil))
	assert.Equal(t, http.StatusNoContent, w.Code)

	history, err := store.Load(ctx, "s1")
	require.NoError(t, err)
	assert.Empty(t, history)

	// Without a store the route is not registered.
	srv = newTestServer(t, &mockTurner{})
	w = httptest.NewRecorder()
	srv.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodDelete, "/v1/sessions/s1", nil))
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestCORS(t *testing.T) {
	cfg := DefaultConfig()
	cfg.CORS.Enabled = true
	cfg.CORS.AllowedOrigins = []string{"http://localhost:3000"}
	srv := NewHTTPServer(&mockTurner{}, cfg, WithGatherer(prometheus.NewRegistry()))

	req := httptest.NewRequest(http.MethodOptions, "/v1/turn", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	w := httptest.NewRecorder()
	srv.Handler().ServeHTTP(w, req)
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "http://localhost:3000", w.Header().Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "86400", w.Header().Get("Access-Control-Max-Age"))

	req = httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set("Origin", "http://evil.example")
	w = httptest.NewRecorder()
	srv.Handler().ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, w.Header().Get("Access-Control-Allow-Origin"))
}

type pingLLM struct{ err error }

func (p pingLLM) Chat(context.Context, []types.Message, []types.ToolDefinition) (*types.LLMResponse, error) {
	if p.err != nil {
		return nil, p.err
	}
	return &types.LLMResponse{Content: "pong"}, nil
}
func (pingLLM) Name() string  { return "stub" }
func (pingLLM) Model() string { return "stub-1" }

func TestValidateProvider(t *testing.T) {
	require.NoError(t, ValidateProvider(context.Background(), pingLLM{}))

	err := ValidateProvider(context.Background(), pingLLM{err: errors.New("dial tcp: connection refused")})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "stub/stub-1")
}

func TestStatusFor(t *testing.T) {
	assert.Equal(t, 499, statusFor(context.Canceled))
	assert.Equal(t, http.StatusInternalServerError, statusFor(errors.New("boom")))
}
