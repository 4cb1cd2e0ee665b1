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

import "time"

// Config holds the loop and policy limits. Zero values are replaced by
// DefaultConfig's values when the agent is built.
type Config struct {
	// MaxIterations caps model calls per question
	MaxIterations int `mapstructure:"max_iterations"`

	// MaxReminders caps corrective messages per question
	MaxReminders int `mapstructure:"max_reminders"`

	// DisableReminders turns the enforcement policy's reminders off; a zero
	// MaxReminders alone means the default cap
	DisableReminders bool `mapstructure:"disable_reminders"`

	// WindowSize is how many recent messages the enforcement policy reads
	WindowSize int `mapstructure:"window_size"`

	// MinRowPayloadLength separates real row output from short
	// acknowledgements such as "[()]"
	MinRowPayloadLength int `mapstructure:"min_row_payload_length"`

	// ToolTimeout bounds each tool call
	ToolTimeout time.Duration `mapstructure:"tool_timeout"`

	// MaxToolConcurrency bounds parallel tool calls of one agent message
	// (0 = unlimited)
	MaxToolConcurrency int `mapstructure:"max_tool_concurrency"`

	// MaxHistoryMessages bounds persisted history per session (0 = unbounded)
	MaxHistoryMessages int `mapstructure:"max_history_messages"`

	// ValidateTool and ExecuteTool name the two-phase query tool pair
	ValidateTool string `mapstructure:"validate_tool"`
	ExecuteTool  string `mapstructure:"execute_tool"`

	// Retry configures model-call retries
	Retry RetryConfig `mapstructure:"retry"`
}

// RetryConfig configures exponential backoff retry logic for LLM calls
type RetryConfig struct {
	// MaxRetries is the maximum number of retry attempts (0 = no retries)
	MaxRetries int `mapstructure:"max_retries"`

	// InitialDelay is the initial delay before the first retry
	InitialDelay time.Duration `mapstructure:"initial_delay"`

	// MaxDelay is the maximum delay between retries
	MaxDelay time.Duration `mapstructure:"max_delay"`

	// Multiplier is the exponential backoff multiplier (e.g., 2.0 for doubling)
	Multiplier float64 `mapstructure:"multiplier"`

	// Enabled enables retry logic
	Enabled bool `mapstructure:"enabled"`
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		MaxIterations:       12,
		MaxReminders:        3,
		WindowSize:          10,
		MinRowPayloadLength: 50,
		ToolTimeout:         30 * time.Second,
		MaxToolConcurrency:  4,
		MaxHistoryMessages:  200,
		ValidateTool:        "query_validate",
		ExecuteTool:         "query_execute",
		Retry: RetryConfig{
			Enabled:      true,
			MaxRetries:   3,
			InitialDelay: 100 * time.Millisecond,
			MaxDelay:     5 * time.Second,
			Multiplier:   2.0,
		},
	}
}

// withDefaults fills zero fields from DefaultConfig.
func (c *Config) withDefaults() *Config {
	d := DefaultConfig()
	if c == nil {
		return d
	}
	out := *c
	if out.MaxIterations <= 0 {
		out.MaxIterations = d.MaxIterations
	}
	switch {
	case out.DisableReminders:
		out.MaxReminders = 0
	case out.MaxReminders <= 0:
		out.MaxReminders = d.MaxReminders
	}
	if out.WindowSize <= 0 {
		out.WindowSize = d.WindowSize
	}
	if out.MinRowPayloadLength <= 0 {
		out.MinRowPayloadLength = d.MinRowPayloadLength
	}
	if out.ToolTimeout <= 0 {
		out.ToolTimeout = d.ToolTimeout
	}
	if out.ValidateTool == "" {
		out.ValidateTool = d.ValidateTool
	}
	if out.ExecuteTool == "" {
		out.ExecuteTool = d.ExecuteTool
	}
	if out.Retry.Multiplier < 1 {
		out.Retry.Multiplier = d.Retry.Multiplier
	}
	if out.Retry.MaxDelay <= 0 {
		out.Retry.MaxDelay = d.Retry.MaxDelay
	}
	return &out
}
