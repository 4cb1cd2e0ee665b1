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
	"time"

	"go.uber.org/zap"

	"github.com/teradata-labs/matchpoint/pkg/answer"
	"github.com/teradata-labs/matchpoint/pkg/observability"
	"github.com/teradata-labs/matchpoint/pkg/session"
	"github.com/teradata-labs/matchpoint/pkg/storage"
)

// NoAnswerText is returned when the conversation produced neither text nor
// rows.
const NoAnswerText = "I couldn't find an answer to that question."

// Response is the answer to one user turn.
type Response struct {
	SessionID string `json:"session_id"`
	FinalText string `json:"final_text"`

	// Table is set when the rows are better shown as a table
	Table *Table `json:"table,omitempty"`

	// Degraded marks a best-effort answer; DegradedReason says why
	Degraded       bool   `json:"degraded"`
	DegradedReason string `json:"degraded_reason,omitempty"`

	Iterations int `json:"iterations"`
	Reminders  int `json:"reminders"`
}

// Table is a tabular answer with one name per column.
type Table struct {
	Columns     []string            `json:"columns"`
	ColumnSpecs []answer.ColumnSpec `json:"column_specs,omitempty"`
	Rows        [][]interface{}     `json:"rows"`
}

// RunTurn answers userText in the context of the session's history. Turns of
// one session are serialized so history updates are never lost.
//
// A failed model call returns (nil, ErrModelCall). Cancellation returns the
// partial response and the context error; nothing is persisted. A failure to
// persist history returns the response together with the error.
func (a *Agent) RunTurn(ctx context.Context, sessionID, userText string) (*Response, error) {
	if sessionID == "" {
		return nil, ErrInvalidSession
	}
	ctx = session.WithSessionID(ctx, sessionID)
	ctx, span := a.tracer.StartSpan(ctx, observability.SpanAgentTurn,
		observability.WithAttribute(observability.AttrSessionID, sessionID),
	)
	defer a.tracer.EndSpan(span)
	span.SetAttribute("message.length", len(userText))
	start := time.Now()

	unlock, err := a.locker.Lock(ctx, sessionID)
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("waiting for session %s: %w", sessionID, err)
	}
	defer unlock()

	history, err := a.store.Load(ctx, sessionID)
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("failed to load session %s: %w", sessionID, err)
	}

	state := NewConversationState(history, userText)
	result, runErr := a.Run(ctx, state)
	if runErr != nil && errors.Is(runErr, ErrModelCall) {
		a.logger.Error("turn failed",
			zap.String("session_id", sessionID),
			zap.Int("iterations", state.IterationCount),
			zap.Error(runErr),
		)
		span.RecordError(runErr)
		return nil, runErr
	}

	resp := a.respond(sessionID, result)
	a.recordTurn(resp, time.Since(start))
	if runErr != nil {
		span.RecordError(runErr)
		return resp, runErr
	}

	trimmed := storage.TrimHistory(state.Messages, a.config.MaxHistoryMessages)
	if err := a.store.Save(ctx, sessionID, trimmed); err != nil {
		span.RecordError(err)
		return resp, fmt.Errorf("failed to save session %s: %w", sessionID, err)
	}

	a.logger.Debug("turn complete",
		zap.String("session_id", sessionID),
		zap.Int("iterations", resp.Iterations),
		zap.Int("reminders", resp.Reminders),
		zap.Bool("table", resp.Table != nil),
		zap.Bool("degraded", resp.Degraded),
		zap.Duration("duration", time.Since(start)),
	)
	span.SetOK()
	return resp, nil
}

func (a *Agent) respond(sessionID string, result *Result) *Response {
	state := result.State
	ext := a.extractor.Extract(state.Messages)

	resp := &Response{
		SessionID:      sessionID,
		FinalText:      ext.FinalText,
		Degraded:       result.Degraded,
		DegradedReason: result.DegradedReason,
		Iterations:     state.IterationCount,
		Reminders:      state.ReminderCount,
	}
	if resp.FinalText == "" {
		resp.FinalText = NoAnswerText
	}
	if answer.ShouldPresentTable(ext.Payload, ext.Question) {
		specs := a.namer.Name(ext.Payload.Rows, ext.Query, ext.Question)
		names := make([]string, len(specs))
		for i, s := range specs {
			names[i] = s.Name
		}
		resp.Table = &Table{Columns: names, ColumnSpecs: specs, Rows: ext.Payload.Rows}
	}
	return resp
}

func (a *Agent) recordTurn(resp *Response, d time.Duration) {
	a.tracer.RecordMetric(observability.MetricAgentTurns, 1, nil)
	a.tracer.RecordMetric(observability.MetricAgentTurnDuration, float64(d.Milliseconds()), nil)
	if resp.Degraded {
		a.tracer.RecordMetric(observability.MetricAgentDegraded, 1, map[string]string{
			"reason": resp.DegradedReason,
		})
	}
}
