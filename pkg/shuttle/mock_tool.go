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
	"sync/atomic"
)

// MockTool is a configurable Tool for tests. Zero fields fall back to a
// tool named "mock_tool" that accepts an optional "input" string and
// returns "mock result".
type MockTool struct {
	MockName        string
	MockDescription string
	MockSchema      *JSONSchema
	MockBackend     string
	MockExecute     func(ctx context.Context, params map[string]interface{}) (*Result, error)

	calls atomic.Int64
}

func (m *MockTool) Name() string {
	return orDefault(m.MockName, "mock_tool")
}

func (m *MockTool) Description() string {
	return orDefault(m.MockDescription, "Mock tool for testing")
}

func (m *MockTool) InputSchema() *JSONSchema {
	if m.MockSchema != nil {
		return m.MockSchema
	}
	return NewObjectSchema("Mock schema", map[string]*JSONSchema{
		"input": NewStringSchema("Test input"),
	}, nil)
}

func (m *MockTool) Execute(ctx context.Context, params map[string]interface{}) (*Result, error) {
	m.calls.Add(1)
	if m.MockExecute != nil {
		return m.MockExecute(ctx, params)
	}
	return &Result{Success: true, Data: "mock result"}, nil
}

func (m *MockTool) Backend() string { return m.MockBackend }

// ExecuteCount reports how many times Execute ran, including calls whose
// results the executor discarded after a timeout.
func (m *MockTool) ExecuteCount() int {
	return int(m.calls.Load())
}

func orDefault(v, def string) string {
	if v == "" {
		return def
	}
	return v
}

var _ Tool = (*MockTool)(nil)
