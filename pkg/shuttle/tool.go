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
// Package shuttle defines callable tools, the registry that names them and
// the executor that turns tool calls into tool results.
package shuttle

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
)

// Tool is a named capability the model can call with a fixed argument shape.
// Tools are registered once at startup and shared by every session, so
// Execute must be safe for concurrent use.
type Tool interface {
	Name() string

	// Description is shown to the model next to the schema
	Description() string

	InputSchema() *JSONSchema

	// Execute runs the tool. It must return promptly once ctx is done; the
	// executor stops waiting at its timeout either way.
	Execute(ctx context.Context, params map[string]interface{}) (*Result, error)

	// Backend names the database dialect the tool runs against, or "" for
	// tools that need none
	Backend() string
}

// Result is what a tool reports. A tool that returns an error from Execute
// and one that returns Success=false are treated the same way.
type Result struct {
	Success bool

	// Data is coerced to text for the model (see CoerceText)
	Data interface{}

	Error *Error

	// Metadata is kept out of the model's view
	Metadata map[string]interface{}

	// ExecutionTimeMs is stamped by the executor
	ExecutionTimeMs int64
}

// Error describes a failed tool call in terms the model can act on.
type Error struct {
	// Code is one of the Code* constants
	Code string

	Message string

	Retryable bool

	// Suggestion tells the model how to fix the call
	Suggestion string
}

// Err converts the result error into a Go error that matches ErrToolExecution
// and, by code, ErrToolTimeout or ErrUnknownTool.
func (e *Error) Err() error {
	if e == nil {
		return nil
	}
	switch e.Code {
	case CodeTimeout:
		return fmt.Errorf("%w: %w: %s", ErrToolExecution, ErrToolTimeout, e.Message)
	case CodeUnknownTool:
		return fmt.Errorf("%w: %w: %s", ErrToolExecution, ErrUnknownTool, e.Message)
	default:
		return fmt.Errorf("%w: %s", ErrToolExecution, e.Message)
	}
}

// Text renders the error the way the model sees it.
func (e *Error) Text() string {
	if e == nil {
		return ""
	}
	var b strings.Builder
	b.WriteString("Error")
	if e.Code != "" {
		fmt.Fprintf(&b, " [%s]", e.Code)
	}
	b.WriteString(": ")
	b.WriteString(e.Message)
	if e.Suggestion != "" {
		b.WriteString("\nSuggestion: ")
		b.WriteString(e.Suggestion)
	}
	return b.String()
}

// JSONSchema is the subset of JSON Schema the query tools declare. It is
// sent to the model as a plain map and compiled by gojsonschema for
// argument validation.
type JSONSchema struct {
	Type        string                 `json:"type"`
	Description string                 `json:"description,omitempty"`
	Properties  map[string]*JSONSchema `json:"properties,omitempty"`
	Required    []string               `json:"required,omitempty"`
	Items       *JSONSchema            `json:"items,omitempty"`
	Enum        []interface{}          `json:"enum,omitempty"`
	Minimum     *float64               `json:"minimum,omitempty"`
	Maximum     *float64               `json:"maximum,omitempty"`
	MinLength   *int                   `json:"minLength,omitempty"`
}

// ToMap round-trips the schema through JSON into the map form model
// providers expect.
func (s *JSONSchema) ToMap() (map[string]interface{}, error) {
	data, err := json.Marshal(s)
	if err != nil {
		return nil, err
	}
	var out map[string]interface{}
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func NewObjectSchema(description string, properties map[string]*JSONSchema, required []string) *JSONSchema {
	return &JSONSchema{Type: "object", Description: description, Properties: properties, Required: required}
}

func NewStringSchema(description string) *JSONSchema {
	return &JSONSchema{Type: "string", Description: description}
}

func NewIntegerSchema(description string) *JSONSchema {
	return &JSONSchema{Type: "integer", Description: description}
}

// WithMinLength sets minLength on a string schema.
func (s *JSONSchema) WithMinLength(n int) *JSONSchema {
	s.MinLength = &n
	return s
}

// WithRange bounds a numeric schema.
func (s *JSONSchema) WithRange(min, max float64) *JSONSchema {
	s.Minimum, s.Maximum = &min, &max
	return s
}
