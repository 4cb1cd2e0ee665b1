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
package observability

import "time"

// Standard span names.
const (
	SpanAgentConversation = "agent.conversation"
	SpanAgentTurn         = "agent.turn"
	SpanLLMCompletion     = "llm.completion"
	SpanToolExecute       = "tool.execute"
	SpanBackendQuery      = "backend.query"
)

// Standard event names.
const (
	// EventToolExecuted is recorded once per tool call, success or failure.
	EventToolExecuted = "tool.executed"

	// EventReminderInjected is recorded when the enforcement policy appends a
	// corrective system message.
	EventReminderInjected = "reminder.injected"

	// EventReminderCapReached is recorded when a violation remains but the
	// reminder budget is spent.
	EventReminderCapReached = "reminder.cap_reached"

	// EventLoopLimitExceeded is recorded when a turn stops on the iteration cap.
	EventLoopLimitExceeded = "agent.loop_limit_exceeded"
)

// Standard metric names.
const (
	MetricAgentTurns        = "agent.turns.total"
	MetricAgentTurnDuration = "agent.turn.duration"
	MetricAgentReminders    = "agent.reminders.total"
	MetricAgentDegraded     = "agent.degraded.total"

	MetricLLMCalls   = "llm.calls.total"
	MetricLLMLatency = "llm.latency"
	MetricLLMErrors  = "llm.errors.total"

	MetricToolExecutions = "tool.executions.total"
	MetricToolDuration   = "tool.duration"
	MetricToolErrors     = "tool.errors.total"
)

// Standard attribute names.
const (
	AttrSessionID = "session.id"

	AttrLLMProvider = "llm.provider"
	AttrLLMModel    = "llm.model"

	AttrToolName     = "tool.name"
	AttrToolCallID   = "tool.call_id"
	AttrToolArgs     = "tool.args"
	AttrToolSuccess  = "tool.success"
	AttrToolDuration = "tool.duration_ms"

	AttrReminderCount = "reminder.count"
	AttrIteration     = "agent.iteration"
	AttrDegraded      = "agent.degraded"

	AttrBackendType = "backend.type"

	AttrErrorType    = "error.type"
	AttrErrorMessage = "error.message"
)

// now is replaced in tests that need stable timestamps.
var now = time.Now
