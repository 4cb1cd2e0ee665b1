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
// Package agent runs the conversation loop: it drives the language model,
// dispatches the tool calls it asks for, makes sure validated queries are
// executed, and turns the finished conversation into a Response.
package agent

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/teradata-labs/matchpoint/pkg/answer"
	"github.com/teradata-labs/matchpoint/pkg/observability"
	"github.com/teradata-labs/matchpoint/pkg/session"
	"github.com/teradata-labs/matchpoint/pkg/shuttle"
	"github.com/teradata-labs/matchpoint/pkg/storage"
	"github.com/teradata-labs/matchpoint/pkg/types"
)

// Agent answers questions for many sessions concurrently. Everything it holds
// is read-only after NewAgent except the store and the session locks.
type Agent struct {
	llm          types.LLMProvider
	executor     *shuttle.Executor
	policy       *Policy
	extractor    *answer.Extractor
	namer        *answer.ColumnNamer
	store        storage.Store
	locker       *session.Locker
	config       *Config
	systemPrompt string
	logger       *zap.Logger
	tracer       observability.Tracer
}

// Option configures an Agent.
type Option func(*Agent)

// WithConfig sets loop and policy limits.
func WithConfig(config *Config) Option {
	return func(a *Agent) {
		a.config = config
	}
}

// WithTracer sets the observability tracer.
func WithTracer(tracer observability.Tracer) Option {
	return func(a *Agent) {
		a.tracer = tracer
	}
}

// WithLogger sets the logger.
func WithLogger(logger *zap.Logger) Option {
	return func(a *Agent) {
		a.logger = logger
	}
}

// WithStore sets the session history store. Defaults to an in-memory store.
func WithStore(store storage.Store) Option {
	return func(a *Agent) {
		a.store = store
	}
}

// WithSystemPrompt replaces the default system prompt.
func WithSystemPrompt(prompt string) Option {
	return func(a *Agent) {
		a.systemPrompt = prompt
	}
}

// WithColumnNamer sets the namer used for tables and the default formatter.
func WithColumnNamer(namer *answer.ColumnNamer) Option {
	return func(a *Agent) {
		a.namer = namer
	}
}

// WithExtractor sets the answer extractor.
func WithExtractor(extractor *answer.Extractor) Option {
	return func(a *Agent) {
		a.extractor = extractor
	}
}

// NewAgent creates an agent that runs tools through executor and asks llm for
// each step.
func NewAgent(executor *shuttle.Executor, llm types.LLMProvider, opts ...Option) *Agent {
	a := &Agent{
		llm:          llm,
		executor:     executor,
		systemPrompt: DefaultSystemPrompt,
		locker:       session.NewLocker(),
	}
	for _, opt := range opts {
		opt(a)
	}

	a.config = a.config.withDefaults()
	if a.logger == nil {
		a.logger = zap.NewNop()
	}
	if a.tracer == nil {
		a.tracer = observability.NewNoOpTracer()
	}
	if a.store == nil {
		a.store = storage.NewMemoryStore()
	}
	if a.namer == nil {
		a.namer = answer.NewColumnNamer(nil)
	}
	if a.extractor == nil {
		a.extractor = answer.NewExtractor(answer.NewFormatter(a.namer), a.logger,
			answer.WithExecuteTool(a.config.ExecuteTool))
	}
	a.policy = NewPolicy(a.config)
	return a
}

// Config returns the effective configuration.
func (a *Agent) Config() Config {
	return *a.config
}

// Result is the outcome of one run of the loop.
type Result struct {
	State          *ConversationState
	Degraded       bool
	DegradedReason string
}

// Run drives state until the agent answers, the iteration cap is hit or ctx
// is done. Hitting the cap is not an error: the result is flagged degraded.
// A failed model call returns ErrModelCall; cancellation returns the partial
// result together with the context error.
func (a *Agent) Run(ctx context.Context, state *ConversationState) (*Result, error) {
	ctx, span := a.tracer.StartSpan(ctx, observability.SpanAgentConversation,
		observability.WithAttribute(observability.AttrSessionID, session.SessionIDFromContext(ctx)),
		observability.WithAttribute(observability.AttrLLMProvider, a.llm.Name()),
		observability.WithAttribute(observability.AttrLLMModel, a.llm.Model()),
	)
	defer a.tracer.EndSpan(span)
	span.SetAttribute("config.max_iterations", a.config.MaxIterations)

	result := &Result{State: state}
	tools := a.executor.Registry().Definitions()

	defer func() {
		span.SetAttribute(observability.AttrIteration, state.IterationCount)
		span.SetAttribute(observability.AttrReminderCount, state.ReminderCount)
		span.SetAttribute(observability.AttrDegraded, result.Degraded)
	}()

	for {
		if state.IterationCount >= a.config.MaxIterations {
			result.Degraded = true
			result.DegradedReason = ReasonLoopLimitExceeded
			a.logger.Warn("iteration limit reached, returning best effort answer",
				zap.String("session_id", session.SessionIDFromContext(ctx)),
				zap.Int("max_iterations", a.config.MaxIterations),
				zap.Int("reminders", state.ReminderCount),
			)
			span.RecordError(ErrLoopLimitExceeded)
			a.tracer.RecordEvent(ctx, observability.EventLoopLimitExceeded, map[string]interface{}{
				observability.AttrIteration:     state.IterationCount,
				observability.AttrReminderCount: state.ReminderCount,
			})
			return result, nil
		}
		if err := ctx.Err(); err != nil {
			return a.canceled(result, span, err)
		}

		// AGENT_TURN
		resp, err := a.callModel(ctx, state, tools)
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return a.canceled(result, span, ctxErr)
			}
			span.RecordError(err)
			return result, fmt.Errorf("%w: %w", ErrModelCall, err)
		}

		msg := resp.ToMessage()
		msg.ToolCalls = append([]types.ToolCall(nil), msg.ToolCalls...)
		for i := range msg.ToolCalls {
			if msg.ToolCalls[i].ID == "" {
				msg.ToolCalls[i].ID = "call_" + uuid.NewString()
			}
		}
		state.Append(msg)

		// TOOL_TURN
		if msg.HasToolCalls() {
			for _, tr := range a.executor.ExecuteAll(ctx, msg.ToolCalls) {
				state.Append(toolResultMessage(tr))
			}
			continue
		}

		decision, in := a.policy.Apply(state)
		if decision == Continue {
			a.logger.Info("validated query was not executed, reminder injected",
				zap.String("session_id", session.SessionIDFromContext(ctx)),
				zap.Int("reminders", state.ReminderCount),
				zap.String("statement", in.Statement),
			)
			a.tracer.RecordEvent(ctx, observability.EventReminderInjected, map[string]interface{}{
				observability.AttrReminderCount: state.ReminderCount,
				"statement":                     in.Statement,
			})
			a.tracer.RecordMetric(observability.MetricAgentReminders, 1, nil)
			continue
		}
		if in.Unfinished() {
			a.logger.Warn("reminder limit reached, accepting answer without execution",
				zap.String("session_id", session.SessionIDFromContext(ctx)),
				zap.Int("reminders", state.ReminderCount),
			)
			a.tracer.RecordEvent(ctx, observability.EventReminderCapReached, map[string]interface{}{
				observability.AttrReminderCount: state.ReminderCount,
			})
		}
		span.SetOK()
		return result, nil
	}
}

func (a *Agent) canceled(result *Result, span *observability.Span, err error) (*Result, error) {
	result.Degraded = true
	result.DegradedReason = ReasonCanceled
	span.RecordError(err)
	return result, fmt.Errorf("conversation canceled: %w", err)
}

// callModel performs one counted model call.
func (a *Agent) callModel(ctx context.Context, state *ConversationState, tools []types.ToolDefinition) (*types.LLMResponse, error) {
	ctx, span := a.tracer.StartSpan(ctx, observability.SpanLLMCompletion,
		observability.WithSpanKind("llm"),
		observability.WithAttribute(observability.AttrLLMProvider, a.llm.Name()),
		observability.WithAttribute(observability.AttrLLMModel, a.llm.Model()),
	)
	defer a.tracer.EndSpan(span)

	state.IterationCount++
	span.SetAttribute(observability.AttrIteration, state.IterationCount)

	labels := map[string]string{
		observability.AttrLLMProvider: a.llm.Name(),
		observability.AttrLLMModel:    a.llm.Model(),
	}
	start := time.Now()
	resp, err := a.chatWithRetry(ctx, a.modelMessages(state), tools)
	a.tracer.RecordMetric(observability.MetricLLMCalls, 1, labels)
	a.tracer.RecordMetric(observability.MetricLLMLatency, float64(time.Since(start).Milliseconds()), labels)

	if err == nil && resp == nil {
		err = errors.New("provider returned no response")
	}
	if err != nil {
		span.RecordError(err)
		a.tracer.RecordMetric(observability.MetricLLMErrors, 1, labels)
		return nil, err
	}

	span.SetAttribute("llm.tool_calls", len(resp.ToolCalls))
	span.SetAttribute("llm.tokens.input", resp.Usage.InputTokens)
	span.SetAttribute("llm.tokens.output", resp.Usage.OutputTokens)
	span.SetOK()
	return resp, nil
}

// modelMessages prepends the system prompt. State is never modified.
func (a *Agent) modelMessages(state *ConversationState) []types.Message {
	msgs := make([]types.Message, 0, len(state.Messages)+1)
	if a.systemPrompt != "" {
		msgs = append(msgs, types.Message{Role: types.ActorSystem, Content: a.systemPrompt})
	}
	return append(msgs, state.Messages...)
}

func toolResultMessage(tr types.ToolResult) types.Message {
	return types.Message{
		Role:       types.ActorToolResult,
		Content:    tr.Text(),
		ToolUseID:  tr.ToolCallID,
		ToolResult: &tr,
	}
}
