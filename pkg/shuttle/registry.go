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
	"fmt"
	"sync"

	"github.com/xeipuuv/gojsonschema"

	"github.com/teradata-labs/matchpoint/pkg/types"
)

// Registry maps tool names to tools. It is populated at startup and then
// frozen; after Freeze it is read-only and safe to share across sessions.
type Registry struct {
	mu      sync.RWMutex
	tools   map[string]Tool
	schemas map[string]*gojsonschema.Schema
	order   []string
	frozen  bool
}

// NewRegistry creates a new tool registry.
func NewRegistry() *Registry {
	return &Registry{
		tools:   make(map[string]Tool),
		schemas: make(map[string]*gojsonschema.Schema),
	}
}

// Register adds a tool. The name must be unique and the input schema must
// compile; both are checked here rather than at call time.
func (r *Registry) Register(tool Tool) error {
	if tool == nil {
		return fmt.Errorf("register: nil tool")
	}
	name := tool.Name()
	if name == "" {
		return fmt.Errorf("register: tool has empty name")
	}

	schema, err := compileSchema(tool.InputSchema())
	if err != nil {
		return fmt.Errorf("register %s: invalid input schema: %w", name, err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if r.frozen {
		return fmt.Errorf("register %s: %w", name, ErrRegistryFrozen)
	}
	if _, exists := r.tools[name]; exists {
		return fmt.Errorf("register %s: tool already registered", name)
	}
	r.tools[name] = tool
	if schema != nil {
		r.schemas[name] = schema
	}
	r.order = append(r.order, name)
	return nil
}

// MustRegister is Register for initialization code; it panics on error.
func (r *Registry) MustRegister(tools ...Tool) {
	for _, tool := range tools {
		if err := r.Register(tool); err != nil {
			panic(err)
		}
	}
}

// Freeze makes the registry read-only.
func (r *Registry) Freeze() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.frozen = true
}

// Frozen reports whether Freeze has been called.
func (r *Registry) Frozen() bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.frozen
}

// Get retrieves a tool by name.
func (r *Registry) Get(name string) (Tool, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	tool, ok := r.tools[name]
	return tool, ok
}

// IsRegistered checks if a tool is registered.
func (r *Registry) IsRegistered(name string) bool {
	_, ok := r.Get(name)
	return ok
}

// List returns all registered tool names in registration order.
func (r *Registry) List() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, len(r.order))
	copy(names, r.order)
	return names
}

// ListTools returns all registered tools in registration order.
func (r *Registry) ListTools() []Tool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	tools := make([]Tool, 0, len(r.order))
	for _, name := range r.order {
		tools = append(tools, r.tools[name])
	}
	return tools
}

// Count returns the number of registered tools.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.tools)
}

// Definitions describes every tool for the language model.
func (r *Registry) Definitions() []types.ToolDefinition {
	tools := r.ListTools()
	defs := make([]types.ToolDefinition, 0, len(tools))
	for _, tool := range tools {
		def := types.ToolDefinition{
			Name:        tool.Name(),
			Description: tool.Description(),
		}
		if schema := NormalizeSchema(tool.InputSchema()); schema != nil {
			if m, err := schema.ToMap(); err == nil {
				def.InputSchema = m
			}
		}
		defs = append(defs, def)
	}
	return defs
}

// validate checks params against the compiled schema of the named tool.
func (r *Registry) validate(name string, params map[string]interface{}) error {
	r.mu.RLock()
	schema := r.schemas[name]
	r.mu.RUnlock()
	return validateParams(schema, params)
}
