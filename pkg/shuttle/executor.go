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
package shuttle

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"runtime/debug"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/teradata-labs/matchpoint/pkg/observability"
	"github.com/teradata-labs/matchpoint/pkg/types"
)

// DefaultToolTimeout bounds a single tool call when no timeout is configured.
const DefaultToolTimeout = 30 * time.Second

// Executor resolves tool calls against a registry and runs them with a
// per-call timeout. Failures become results, never control flow.
type Executor struct {
	registry       *Registry
	timeout        time.Duration
	maxConcurrency int
	logger         *zap.Logger
	tracer         observability.Tracer
}

// ExecutorOption configures an Executor.
type ExecutorOption func(*Executor)

// WithTimeout sets the per-call timeout. Zero or negative keeps the default.
func WithTimeout(d time.Duration) ExecutorOption {
	return func(e *Executor) {
		if d > 0 {
			e.timeout = d
		}
	}
}

// WithMaxConcurrency caps how many calls of one turn run at once. Zero means
// unlimited.
func WithMaxConcurrency(n int) ExecutorOption {
	return func(e *Executor) {
		e.maxConcurrency = n
	}
}

// WithLogger sets the executor logger.
func WithLogger(logger *zap.Logger) ExecutorOption {
	return func(e *Executor) {
		if logger != nil {
			e.logger = logger
		}
	}
}

// WithTracer sets the observability sink for tool spans and events.
func WithTracer(tracer observability.Tracer) ExecutorOption {
	return func(e *Executor) {
		if tracer != nil {
			e.tracer = tracer
		}
	}
}

// NewExecutor creates a new tool executor.
func NewExecutor(registry *Registry, opts ...ExecutorOption) *Executor {
	e := &Executor{
		registry: registry,
		timeout:  DefaultToolTimeout,
		logger:   zap.NewNop(),
		tracer:   observability.NewNoOpTracer(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Registry returns the registry the executor resolves names against.
func (e *Executor) Registry() *Registry {
	return e.registry
}

// Execute runs a tool by name. The only error is an unknown tool; every
// other failure is reported in the returned Result.
func (e *Executor) Execute(ctx context.Context, toolName string, params map[string]interface{}) (*Result, error) {
	tool, ok := e.registry.Get(toolName)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownTool, toolName)
	}

	if err := e.registry.validate(toolName, params); err != nil {
		return &Result{
			Success: false,
			Error: &Error{
				Code:       CodeInvalidArguments,
				Message:    err.Error(),
				Suggestion: "Check the tool's input schema and call it again.",
			},
		}, nil
	}

	callCtx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	type outcome struct {
		result *Result
		err    error
	}
	done := make(chan outcome, 1)

	start := time.Now()
	go func() {
		defer func() {
			if r := recover(); r != nil {
				e.logger.Error("tool panicked",
					zap.String("tool", toolName),
					zap.Any("panic", r),
					zap.ByteString("stack", debug.Stack()),
				)
				done <- outcome{result: &Result{
					Success: false,
					Error:   &Error{Code: CodePanic, Message: fmt.Sprintf("tool panicked: %v", r)},
				}}
			}
		}()
		result, err := tool.Execute(callCtx, params)
		done <- outcome{result: result, err: err}
	}()

	var result *Result
	select {
	case out := <-done:
		result = out.result
		if out.err != nil {
			result = &Result{
				Success: false,
				Error:   &Error{Code: CodeExecutionFailed, Message: out.err.Error()},
			}
		}
	case <-callCtx.Done():
		// The tool goroutine may still be running; its result is discarded.
		result = timeoutResult(ctx, callCtx, e.timeout)
	}
	duration := time.Since(start)

	if result == nil {
		result = &Result{Success: true}
	}
	// Executor timing is authoritative.
	result.ExecutionTimeMs = duration.Milliseconds()
	return result, nil
}

func timeoutResult(parent, callCtx context.Context, timeout time.Duration) *Result {
	if parent.Err() != nil {
		return &Result{
			Success: false,
			Error:   &Error{Code: CodeCanceled, Message: fmt.Sprintf("tool call canceled: %v", parent.Err())},
		}
	}
	if errors.Is(callCtx.Err(), context.DeadlineExceeded) {
		return &Result{
			Success: false,
			Error: &Error{
				Code:      CodeTimeout,
				Message:   fmt.Sprintf("tool call timed out after %s", timeout),
				Retryable: true,
			},
		}
	}
	return &Result{
		Success: false,
		Error:   &Error{Code: CodeCanceled, Message: callCtx.Err().Error()},
	}
}

// Run executes one tool call and always yields a well-formed ToolResult for it.
func (e *Executor) Run(ctx context.Context, call types.ToolCall) types.ToolResult {
	ctx, span := e.tracer.StartSpan(ctx, observability.SpanToolExecute,
		observability.WithSpanKind("tool"),
		observability.WithAttribute(observability.AttrToolName, call.Name),
		observability.WithAttribute(observability.AttrToolCallID, call.ID),
	)
	defer e.tracer.EndSpan(span)

	if len(call.Input) > 0 {
		if args, err := json.Marshal(call.Input); err == nil && len(args) < 1000 {
			span.SetAttribute(observability.AttrToolArgs, string(args))
		}
	}
	if tool, ok := e.registry.Get(call.Name); ok {
		span.SetAttribute(observability.AttrBackendType, tool.Backend())
	}

	start := time.Now()
	result, err := e.Execute(ctx, call.Name, call.Input)
	if err != nil {
		result = &Result{
			Success: false,
			Error: &Error{
				Code:       CodeUnknownTool,
				Message:    err.Error(),
				Suggestion: fmt.Sprintf("Available tools: %v", e.registry.List()),
			},
			ExecutionTimeMs: time.Since(start).Milliseconds(),
		}
	}

	tr := types.ToolResult{
		ToolCallID: call.ID,
		Duration:   time.Duration(result.ExecutionTimeMs) * time.Millisecond,
	}
	if result.Success {
		tr.Output = CoerceText(result.Data)
		span.SetOK()
	} else {
		tr.IsError = true
		if result.Error == nil {
			result.Error = &Error{Code: CodeExecutionFailed, Message: "tool reported failure"}
		}
		tr.Error = result.Error.Text()
		span.RecordError(result.Error.Err())
		span.SetAttribute("tool.error.code", result.Error.Code)

		e.logger.Warn("tool call failed",
			zap.String("tool", call.Name),
			zap.String("call_id", call.ID),
			zap.String("code", result.Error.Code),
			zap.String("error", result.Error.Message),
		)
		e.tracer.RecordMetric(observability.MetricToolErrors, 1, map[string]string{
			observability.AttrToolName: call.Name,
			"code":                     result.Error.Code,
		})
	}

	span.SetAttribute(observability.AttrToolSuccess, result.Success)
	span.SetAttribute(observability.AttrToolDuration, result.ExecutionTimeMs)
	e.tracer.RecordMetric(observability.MetricToolExecutions, 1, map[string]string{
		observability.AttrToolName: call.Name,
	})
	e.tracer.RecordMetric(observability.MetricToolDuration, float64(result.ExecutionTimeMs), map[string]string{
		observability.AttrToolName: call.Name,
	})
	e.tracer.RecordEvent(ctx, observability.EventToolExecuted, map[string]interface{}{
		observability.AttrToolName:     call.Name,
		observability.AttrToolCallID:   call.ID,
		observability.AttrToolSuccess:  result.Success,
		observability.AttrToolDuration: result.ExecutionTimeMs,
	})

	return tr
}

// ExecuteAll runs every call concurrently, joins them all and returns one
// result per call in call order. Zero calls is a no-op.
func (e *Executor) ExecuteAll(ctx context.Context, calls []types.ToolCall) []types.ToolResult {
	if len(calls) == 0 {
		return nil
	}

	results := make([]types.ToolResult, len(calls))
	var g errgroup.Group
	if e.maxConcurrency > 0 {
		g.SetLimit(e.maxConcurrency)
	}
	for i, call := range calls {
		g.Go(func() error {
			results[i] = e.Run(ctx, call)
			return nil
		})
	}
	// Run never returns an error into the group.
	_ = g.Wait()

	return results
}
