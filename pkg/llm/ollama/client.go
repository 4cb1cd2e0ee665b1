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
// Package ollama is a LLMProvider over the Ollama /api/chat endpoint with
// native tool calling.
package ollama

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/teradata-labs/matchpoint/pkg/types"
)

// Client implements the LLMProvider interface for Ollama.
type Client struct {
	endpoint    string
	model       string
	httpClient  *http.Client
	maxTokens   int
	temperature float64
	toolMode    ToolMode
	logger      *zap.Logger
}

// Models known to support native tool calling (Ollama v0.12.3+)
var toolSupportedModels = []string{
	"llama3.3",
	"llama3.2",
	"llama3.1",
	"qwen3",
	"qwen2.5",
	"mistral",
	"mixtral",
	"gpt-oss",
	"deepseek-r1",
	"functionary",
}

// ToolMode defines how tools are handled.
type ToolMode string

const (
	// ToolModeAuto detects native support from the model name
	ToolModeAuto ToolMode = "auto"
	// ToolModeNative always sends tools with the request
	ToolModeNative ToolMode = "native"
	// ToolModePrompt never sends tools; tool results are replayed as user text
	ToolModePrompt ToolMode = "prompt"
)

// Config holds configuration for the Ollama client.
type Config struct {
	Endpoint    string        `mapstructure:"endpoint"`    // Default: http://localhost:11434
	Model       string        `mapstructure:"model"`       // Default: llama3.1
	MaxTokens   int           `mapstructure:"max_tokens"`  // Default: model-aware
	Temperature float64       `mapstructure:"temperature"` // Default: 0.1
	Timeout     time.Duration `mapstructure:"timeout"`     // Default: 120s
	ToolMode    ToolMode      `mapstructure:"tool_mode"`   // Default: auto
	Logger      *zap.Logger   `mapstructure:"-"`
}

// defaultMaxTokens sizes output by the parameter count in the model name.
func defaultMaxTokens(model string) int {
	m := strings.ToLower(model)
	switch {
	case strings.Contains(m, "70b") || strings.Contains(m, "72b") || strings.Contains(m, "405b"):
		return 8192
	case strings.Contains(m, "13b") || strings.Contains(m, "14b") ||
		strings.Contains(m, "20b") || strings.Contains(m, "32b"):
		return 6144
	}
	return 4096
}

// NewClient creates a new Ollama client.
func NewClient(cfg Config) *Client {
	if cfg.Endpoint == "" {
		cfg.Endpoint = "http://localhost:11434"
	}
	if cfg.Model == "" {
		cfg.Model = "llama3.1"
	}
	if cfg.MaxTokens == 0 {
		cfg.MaxTokens = defaultMaxTokens(cfg.Model)
	}
	if cfg.Temperature == 0 {
		// Query generation wants near-deterministic output.
		cfg.Temperature = 0.1
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 120 * time.Second
	}
	if cfg.ToolMode == "" {
		cfg.ToolMode = ToolModeAuto
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}

	return &Client{
		endpoint:    strings.TrimRight(cfg.Endpoint, "/"),
		model:       cfg.Model,
		maxTokens:   cfg.MaxTokens,
		temperature: cfg.Temperature,
		toolMode:    cfg.ToolMode,
		logger:      cfg.Logger,
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
		},
	}
}

// Name returns the provider name.
func (c *Client) Name() string {
	return "ollama"
}

// Model returns the model identifier.
func (c *Client) Model() string {
	return c.model
}

// supportsNativeTools checks if the model supports native tool calling.
func (c *Client) supportsNativeTools() bool {
	switch c.toolMode {
	case ToolModeNative:
		return true
	case ToolModePrompt:
		return false
	}
	for _, base := range toolSupportedModels {
		if strings.HasPrefix(c.model, base) {
			return true
		}
	}
	return false
}

// Chat sends a conversation to Ollama and returns the next agent step.
func (c *Client) Chat(ctx context.Context, messages []types.Message, tools []types.ToolDefinition) (*types.LLMResponse, error) {
	req := chatRequest{
		Model:    c.model,
		Messages: c.convertMessages(messages),
		Stream:   false,
		Options: map[string]interface{}{
			"temperature": c.temperature,
			"num_predict": c.maxTokens,
		},
	}
	if c.supportsNativeTools() && len(tools) > 0 {
		req.Tools = convertTools(tools)
	}

	resp, err := c.callAPI(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("ollama API call failed: %w", err)
	}
	return c.convertResponse(resp), nil
}

func convertTools(tools []types.ToolDefinition) []ollamaTool {
	out := make([]ollamaTool, len(tools))
	for i, tool := range tools {
		out[i] = ollamaTool{
			Type: "function",
			Function: ollamaFunction{
				Name:        tool.Name,
				Description: tool.Description,
				Parameters:  tool.InputSchema,
			},
		}
	}
	return out
}

// convertMessages maps agent messages to the Ollama wire format. Tool
// results carry the name of the tool they answer.
func (c *Client) convertMessages(messages []types.Message) []ollamaMessage {
	native := c.supportsNativeTools()
	toolNames := map[string]string{}
	out := make([]ollamaMessage, 0, len(messages))

	for _, msg := range messages {
		switch msg.Role {
		case types.ActorSystem, types.ActorUser:
			out = append(out, ollamaMessage{Role: string(msg.Role), Content: msg.Text()})

		case types.ActorAgent:
			m := ollamaMessage{Role: "assistant", Content: msg.Content}
			for _, tc := range msg.ToolCalls {
				toolNames[tc.ID] = tc.Name
				if !native {
					continue
				}
				m.ToolCalls = append(m.ToolCalls, ollamaToolCall{
					ID:   tc.ID,
					Type: "function",
					Function: ollamaFunctionCall{
						Name:      tc.Name,
						Arguments: tc.Input,
					},
				})
			}
			if !native && len(msg.ToolCalls) > 0 && m.Content == "" {
				m.Content = fmt.Sprintf("Calling tool %s.", msg.ToolCalls[0].Name)
			}
			out = append(out, m)

		case types.ActorToolResult:
			if native {
				out = append(out, ollamaMessage{
					Role:     "tool",
					Content:  msg.Text(),
					ToolName: toolNames[msg.ToolUseID],
				})
			} else {
				out = append(out, ollamaMessage{
					Role:    "user",
					Content: fmt.Sprintf("Tool result: %s", msg.Text()),
				})
			}
		}
	}
	return out
}

// cleanJSONString removes common formatting issues from JSON strings.
func cleanJSONString(s string) string {
	s = strings.TrimSpace(s)

	// Strip surrounding backticks (common in Ollama responses)
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(s, "```")
	if len(s) >= 2 && s[0] == '`' && s[len(s)-1] == '`' {
		s = s[1 : len(s)-1]
	}
	s = strings.TrimSpace(s)

	// Strip a "json" language marker
	if len(s) > 4 && strings.HasPrefix(s, "json") && strings.ContainsAny(s[4:5], " \t\r\n") {
		s = strings.TrimSpace(s[4:])
	}
	return s
}

func (c *Client) convertResponse(resp *chatResponse) *types.LLMResponse {
	var toolCalls []types.ToolCall
	for _, tc := range resp.Message.ToolCalls {
		var params map[string]interface{}
		switch args := tc.Function.Arguments.(type) {
		case string:
			cleaned := cleanJSONString(args)
			if err := json.Unmarshal([]byte(cleaned), &params); err != nil {
				c.logger.Warn("failed to parse tool arguments",
					zap.String("tool", tc.Function.Name),
					zap.String("raw", args),
					zap.Error(err),
				)
				params = map[string]interface{}{}
			}
		case map[string]interface{}:
			params = args
		default:
			params = map[string]interface{}{}
		}

		toolCalls = append(toolCalls, types.ToolCall{
			ID:    tc.ID,
			Name:  tc.Function.Name,
			Input: params,
		})
	}

	stop := resp.DoneReason
	if stop == "" {
		stop = "stop"
	}
	return &types.LLMResponse{
		Content:    resp.Message.Content,
		ToolCalls:  toolCalls,
		StopReason: stop,
		Usage: types.Usage{
			InputTokens:  resp.PromptEvalCount,
			OutputTokens: resp.EvalCount,
			TotalTokens:  resp.PromptEvalCount + resp.EvalCount,
		},
		Metadata: map[string]interface{}{
			"model":         resp.Model,
			"eval_duration": resp.EvalDuration,
			"native_tools":  c.supportsNativeTools(),
			"tool_mode":     string(c.toolMode),
		},
	}
}

// callAPI makes the HTTP request to Ollama.
func (c *Client) callAPI(ctx context.Context, req chatRequest) (*chatResponse, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint+"/api/chat", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	httpResp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("HTTP request failed: %w", err)
	}
	defer func() { _ = httpResp.Body.Close() }()

	respBody, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}
	if httpResp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("API error (status %d): %s", httpResp.StatusCode, string(respBody))
	}

	var resp chatResponse
	if err := json.Unmarshal(respBody, &resp); err != nil {
		return nil, fmt.Errorf("failed to unmarshal response: %w", err)
	}
	return &resp, nil
}

// Ollama API types

type chatRequest struct {
	Model    string                 `json:"model"`
	Messages []ollamaMessage        `json:"messages"`
	Stream   bool                   `json:"stream"`
	Tools    []ollamaTool           `json:"tools,omitempty"`
	Options  map[string]interface{} `json:"options,omitempty"`
}

type ollamaTool struct {
	Type     string         `json:"type"`
	Function ollamaFunction `json:"function"`
}

type ollamaFunction struct {
	Name        string                 `json:"name"`
	Description string                 `json:"description"`
	Parameters  map[string]interface{} `json:"parameters"`
}

type ollamaMessage struct {
	Role      string           `json:"role"`
	Content   string           `json:"content"`
	ToolCalls []ollamaToolCall `json:"tool_calls,omitempty"`
	ToolName  string           `json:"tool_name,omitempty"`
}

type ollamaToolCall struct {
	ID       string             `json:"id,omitempty"`
	Type     string             `json:"type,omitempty"`
	Function ollamaFunctionCall `json:"function"`
}

type ollamaFunctionCall struct {
	Name      string      `json:"name"`
	Arguments interface{} `json:"arguments"` // Can be string or map
}

type chatResponse struct {
	Model           string        `json:"model"`
	CreatedAt       string        `json:"created_at"`
	Message         ollamaMessage `json:"message"`
	Done            bool          `json:"done"`
	DoneReason      string        `json:"done_reason"`
	TotalDuration   int64         `json:"total_duration"`
	LoadDuration    int64         `json:"load_duration"`
	PromptEvalCount int           `json:"prompt_eval_count"`
	EvalCount       int           `json:"eval_count"`
	EvalDuration    int64         `json:"eval_duration"`
}

// Ensure Client implements LLMProvider interface.
var _ types.LLMProvider = (*Client)(nil)
