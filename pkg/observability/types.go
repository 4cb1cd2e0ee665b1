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
// Package observability provides spans, events and metrics for the matchpoint agent.
//
// The conversation loop, every tool call and every reminder injection are
// instrumented. Sinks are pluggable: zap logging, Prometheus, or a capturing
// mock for tests.
//
// Example usage:
//
//	tracer := observability.NewLogTracer(logger)
//	ctx, span := tracer.StartSpan(ctx, observability.SpanToolExecute)
//	defer tracer.EndSpan(span)
//	span.SetAttribute(observability.AttrToolName, "query_execute")
package observability

import "time"

// StatusCode is the outcome of a span. It doubles as the Prometheus
// "status" label value.
type StatusCode string

const (
	StatusUnset StatusCode = "unset"
	StatusOK    StatusCode = "ok"
	StatusError StatusCode = "error"
)

// Status is a span outcome with an optional message.
type Status struct {
	Code    StatusCode
	Message string
}

// Event is a point-in-time occurrence recorded outside any span.
type Event struct {
	Timestamp  time.Time
	Name       string
	Attributes map[string]interface{}
}

// Span is one timed unit of work: a turn, a model call, a tool call or a
// backend query. Child spans share the TraceID of their parent.
type Span struct {
	TraceID  string
	SpanID   string
	ParentID string

	Name       string
	Attributes map[string]interface{}

	StartTime time.Time
	EndTime   time.Time
	Duration  time.Duration

	Status Status
}

// SetAttribute sets key on the span.
func (s *Span) SetAttribute(key string, value interface{}) {
	if s.Attributes == nil {
		s.Attributes = make(map[string]interface{})
	}
	s.Attributes[key] = value
}

// SetOK marks the span successful unless an error was already recorded.
func (s *Span) SetOK() {
	if s.Status.Code != StatusError {
		s.Status = Status{Code: StatusOK}
	}
}

// RecordError marks the span failed. Nil errors are ignored.
func (s *Span) RecordError(err error) {
	if err == nil {
		return
	}
	s.Status = Status{Code: StatusError, Message: err.Error()}
	s.SetAttribute(AttrErrorMessage, err.Error())
	s.SetAttribute(AttrErrorType, "error")
}

// SpanOption configures a span at start.
type SpanOption func(*Span)

// WithAttribute sets an attribute at span start.
func WithAttribute(key string, value interface{}) SpanOption {
	return func(s *Span) { s.SetAttribute(key, value) }
}

// WithSpanKind tags the span as "turn", "llm", "tool" or "backend".
func WithSpanKind(kind string) SpanOption {
	return WithAttribute("span.kind", kind)
}
