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
// Package types holds the conversation data model shared by the agent, the
// tool layer, storage and the language-model clients.
package types

import (
	"context"
	"strings"
	"time"
)

// Actor identifies who produced a message.
type Actor string

const (
	// ActorUser is a question or follow-up typed by the caller.
	ActorUser Actor = "user"

	// ActorAgent is a model response, possibly carrying tool calls.
	ActorAgent Actor = "assistant"

	// ActorSystem is a synthesized instruction, such as an enforcement reminder.
	ActorSystem Actor = "system"

	// ActorToolResult answers exactly one prior tool call.
	ActorToolResult Actor = "tool"
)

// Valid reports whether a is one of the four known actors.
func (a Actor) Valid() bool {
	switch a {
	case ActorUser, ActorAgent, ActorSystem, ActorToolResult:
		return true
	}
	return false
}

// ToolCall represents a tool invocation requested by the model.
// The name is not checked here; unknown tools fail when executed.
type ToolCall struct {
	// ID is a unique identifier for this tool call
	ID string `json:"id"`

	// Name is the tool name
	Name string `json:"name"`

	// Input contains the tool arguments
	Input map[string]interface{} `json:"input,omitempty"`
}

// ContentBlock is one part of a multi-part message body.
type ContentBlock struct {
	// Type is the content type ("text" is the only one the agent reads)
	Type string `json:"type"`

	// Text contains text content (when Type is "text")
	Text string `json:"text,omitempty"`
}

// ToolResult is the outcome of one tool call. Exactly one of Output and Error
// is meaningful: IsError selects which.
type ToolResult struct {
	ToolCallID string        `json:"tool_call_id"`
	Output     string        `json:"output,omitempty"`
	Error      string        `json:"error,omitempty"`
	IsError    bool          `json:"is_error,omitempty"`
	Duration   time.Duration `json:"duration"`
}

// Text returns the output or the error text, whichever applies.
func (r ToolResult) Text() string {
	if r.IsError {
		return r.Error
	}
	return r.Output
}

// Message is one immutable step of a conversation.
type Message struct {
	// ID is the unique message identifier
	ID string `json:"id,omitempty"`

	// Role is the message actor
	Role Actor `json:"role"`

	// Content is the message text, which may contain fenced code
	Content string `json:"content,omitempty"`

	// ContentBlocks holds multi-part content; Content takes precedence when set
	ContentBlocks []ContentBlock `json:"content_blocks,omitempty"`

	// ToolCalls contains tool invocations (Role is ActorAgent)
	ToolCalls []ToolCall `json:"tool_calls,omitempty"`

	// ToolUseID is the tool call this message answers (Role is ActorToolResult)
	ToolUseID string `json:"tool_use_id,omitempty"`

	// ToolResult carries the structured result (Role is ActorToolResult)
	ToolResult *ToolResult `json:"tool_result,omitempty"`

	// Timestamp when the message was created
	Timestamp time.Time `json:"timestamp"`
}

// Text returns the message body: Content when non-blank, otherwise the first
// non-blank text block.
func (m Message) Text() string {
	if strings.TrimSpace(m.Content) != "" {
		return m.Content
	}
	for _, block := range m.ContentBlocks {
		if block.Type == "text" && strings.TrimSpace(block.Text) != "" {
			return block.Text
		}
	}
	return ""
}

// HasToolCalls reports whether the message requests at least one tool.
func (m Message) HasToolCalls() bool {
	return len(m.ToolCalls) > 0
}

// Clone returns a deep copy, so stored history can never alias a live slice.
func (m Message) Clone() Message {
	out := m
	if m.ContentBlocks != nil {
		out.ContentBlocks = append([]ContentBlock(nil), m.ContentBlocks...)
	}
	if m.ToolCalls != nil {
		out.ToolCalls = make([]ToolCall, len(m.ToolCalls))
		for i, tc := range m.ToolCalls {
			out.ToolCalls[i] = tc
			if tc.Input != nil {
				in := make(map[string]interface{}, len(tc.Input))
				for k, v := range tc.Input {
					in[k] = v
				}
				out.ToolCalls[i].Input = in
			}
		}
	}
	if m.ToolResult != nil {
		tr := *m.ToolResult
		out.ToolResult = &tr
	}
	return out
}

// CloneMessages deep-copies a message log.
func CloneMessages(msgs []Message) []Message {
	if msgs == nil {
		return nil
	}
	out := make([]Message, len(msgs))
	for i, m := range msgs {
		out[i] = m.Clone()
	}
	return out
}

// LastUserIndex returns the index of the latest user message, or -1.
func LastUserIndex(msgs []Message) int {
	for i := len(msgs) - 1; i >= 0; i-- {
		if msgs[i].Role == ActorUser {
			return i
		}
	}
	return -1
}

// Usage tracks LLM token usage.
type Usage struct {
	InputTokens  int
	OutputTokens int
	TotalTokens  int
}

// LLMResponse represents a response from the language model.
type LLMResponse struct {
	// Content is the text response
	Content string

	// ToolCalls contains requested tool executions
	ToolCalls []ToolCall

	// StopReason indicates why the model stopped
	StopReason string

	// Usage tracks token usage
	Usage Usage

	// Metadata contains provider-specific metadata
	Metadata map[string]interface{}
}

// ToMessage converts a response into the agent message appended to history.
func (r *LLMResponse) ToMessage() Message {
	return Message{
		Role:      ActorAgent,
		Content:   r.Content,
		ToolCalls: r.ToolCalls,
		Timestamp: time.Now(),
	}
}

// ToolDefinition describes a callable tool to the language model.
type ToolDefinition struct {
	Name        string
	Description string

	// InputSchema is a JSON Schema object for the arguments
	InputSchema map[string]interface{}
}

// LLMProvider is the language model collaborator. Implementations must honor
// ctx cancellation and deadlines.
type LLMProvider interface {
	// Chat sends the conversation and returns the next agent step
	Chat(ctx context.Context, messages []Message, tools []ToolDefinition) (*LLMResponse, error)

	// Name returns the provider name
	Name() string

	// Model returns the model identifier
	Model() string
}
