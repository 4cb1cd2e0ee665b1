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
// Package llm holds provider-independent wrappers around language models.
package llm

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/teradata-labs/matchpoint/pkg/types"
)

// RateLimiterConfig configures the LLM rate limiter.
type RateLimiterConfig struct {
	// Enabled enables rate limiting
	Enabled bool `mapstructure:"enabled"`

	// RequestsPerSecond is the sustained request rate across all sessions.
	RequestsPerSecond float64 `mapstructure:"requests_per_second"`

	// BurstCapacity is the maximum burst of requests allowed.
	BurstCapacity int `mapstructure:"burst"`

	// QueueTimeout bounds how long a request may wait for a slot.
	QueueTimeout time.Duration `mapstructure:"queue_timeout"`

	// Logger for rate limiter events
	Logger *zap.Logger `mapstructure:"-"`
}

// DefaultRateLimiterConfig returns defaults sized for a local model server.
func DefaultRateLimiterConfig() RateLimiterConfig {
	return RateLimiterConfig{
		Enabled:           true,
		RequestsPerSecond: 2.0,
		BurstCapacity:     4,
		QueueTimeout:      2 * time.Minute,
		Logger:            zap.NewNop(),
	}
}

// RateLimiterMetrics tracks rate limiter performance.
type RateLimiterMetrics struct {
	TotalRequests     int64
	ThrottledRequests int64
	DroppedRequests   int64
	CurrentQueueDepth int64
	TokensConsumed    int64
	LastThrottleTime  time.Time
}

// RateLimitedProvider is a LLMProvider that spaces calls to the wrapped
// provider with a token bucket shared by every caller. It never retries;
// throttled responses are counted and returned to the caller.
type RateLimitedProvider struct {
	provider types.LLMProvider
	limiter  *rate.Limiter
	config   RateLimiterConfig

	queueDepth atomic.Int64
	total      atomic.Int64
	throttled  atomic.Int64
	dropped    atomic.Int64

	// Token consumption tracking (sliding window)
	tokenWindow   []tokenUsage
	tokensTotal   int64
	lastThrottle  time.Time
	tokenWindowMu sync.Mutex
}

type tokenUsage struct {
	timestamp time.Time
	tokens    int64
}

// NewRateLimitedProvider wraps provider. A disabled config passes calls
// straight through.
func NewRateLimitedProvider(provider types.LLMProvider, config RateLimiterConfig) *RateLimitedProvider {
	if config.Logger == nil {
		config.Logger = zap.NewNop()
	}
	if config.BurstCapacity <= 0 {
		config.BurstCapacity = 1
	}
	limit := rate.Limit(config.RequestsPerSecond)
	if config.RequestsPerSecond <= 0 {
		limit = rate.Inf
	}
	return &RateLimitedProvider{
		provider: provider,
		limiter:  rate.NewLimiter(limit, config.BurstCapacity),
		config:   config,
	}
}

func (p *RateLimitedProvider) Name() string { return p.provider.Name() }

func (p *RateLimitedProvider) Model() string { return p.provider.Model() }

// Chat waits for a slot and forwards the call.
func (p *RateLimitedProvider) Chat(ctx context.Context, messages []types.Message, tools []types.ToolDefinition) (*types.LLMResponse, error) {
	if !p.config.Enabled {
		return p.provider.Chat(ctx, messages, tools)
	}

	waitCtx := ctx
	if p.config.QueueTimeout > 0 {
		var cancel context.CancelFunc
		waitCtx, cancel = context.WithTimeout(ctx, p.config.QueueTimeout)
		defer cancel()
	}

	p.queueDepth.Add(1)
	start := time.Now()
	err := p.limiter.Wait(waitCtx)
	p.queueDepth.Add(-1)
	if err != nil {
		p.dropped.Add(1)
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, fmt.Errorf("rate limiter queue timeout after %v: %w", p.config.QueueTimeout, err)
	}
	if waited := time.Since(start); waited > time.Second {
		p.config.Logger.Debug("llm request delayed by rate limiter",
			zap.Duration("waited", waited),
			zap.String("provider", p.provider.Name()),
		)
	}

	p.total.Add(1)
	resp, err := p.provider.Chat(ctx, messages, tools)
	if err != nil {
		if isThrottlingError(err) {
			p.throttled.Add(1)
			p.tokenWindowMu.Lock()
			p.lastThrottle = time.Now()
			p.tokenWindowMu.Unlock()
			p.config.Logger.Warn("llm request throttled by provider",
				zap.String("provider", p.provider.Name()),
				zap.Error(err),
			)
		}
		return nil, err
	}
	if resp != nil && resp.Usage.TotalTokens > 0 {
		p.RecordTokenUsage(int64(resp.Usage.TotalTokens))
	}
	return resp, nil
}

// isThrottlingError checks if an error is a throttling error (HTTP 429).
func isThrottlingError(err error) bool {
	if err == nil {
		return false
	}
	s := strings.ToLower(err.Error())
	return strings.Contains(s, "429") ||
		strings.Contains(s, "too many requests") ||
		strings.Contains(s, "rate limit") ||
		strings.Contains(s, "throttl")
}

// RecordTokenUsage records token consumption.
func (p *RateLimitedProvider) RecordTokenUsage(tokens int64) {
	p.tokenWindowMu.Lock()
	defer p.tokenWindowMu.Unlock()

	now := time.Now()
	p.tokenWindow = append(p.tokenWindow, tokenUsage{timestamp: now, tokens: tokens})
	p.tokensTotal += tokens

	// Remove entries older than 1 minute
	cutoff := now.Add(-1 * time.Minute)
	keep := 0
	for keep < len(p.tokenWindow) && !p.tokenWindow[keep].timestamp.After(cutoff) {
		keep++
	}
	p.tokenWindow = p.tokenWindow[keep:]
}

// TokenUsageLastMinute returns token consumption in the last minute.
func (p *RateLimitedProvider) TokenUsageLastMinute() int64 {
	p.tokenWindowMu.Lock()
	defer p.tokenWindowMu.Unlock()

	var total int64
	cutoff := time.Now().Add(-1 * time.Minute)
	for _, usage := range p.tokenWindow {
		if usage.timestamp.After(cutoff) {
			total += usage.tokens
		}
	}
	return total
}

// Metrics returns current rate limiter metrics.
func (p *RateLimitedProvider) Metrics() RateLimiterMetrics {
	p.tokenWindowMu.Lock()
	defer p.tokenWindowMu.Unlock()
	return RateLimiterMetrics{
		TotalRequests:     p.total.Load(),
		ThrottledRequests: p.throttled.Load(),
		DroppedRequests:   p.dropped.Load(),
		CurrentQueueDepth: p.queueDepth.Load(),
		TokensConsumed:    p.tokensTotal,
		LastThrottleTime:  p.lastThrottle,
	}
}

var _ types.LLMProvider = (*RateLimitedProvider)(nil)
