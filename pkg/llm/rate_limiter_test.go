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
package llm

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/teradata-labs/matchpoint/pkg/types"
)

type stubProvider struct {
	calls atomic.Int32
	err   error
}

func (s *stubProvider) Chat(ctx context.Context, _ []types.Message, _ []types.ToolDefinition) (*types.LLMResponse, error) {
	s.calls.Add(1)
	if s.err != nil {
		return nil, s.err
	}
	return &types.LLMResponse{Content: "ok", Usage: types.Usage{InputTokens: 7, OutputTokens: 3, TotalTokens: 10}}, nil
}

func (s *stubProvider) Name() string  { return "stub" }
func (s *stubProvider) Model() string { return "stub-1" }

func testLimiterConfig(t *testing.T) RateLimiterConfig {
	config := DefaultRateLimiterConfig()
	config.Logger = zaptest.NewLogger(t)
	config.RequestsPerSecond = 100
	config.BurstCapacity = 2
	return config
}

func TestRateLimitedProvider_Success(t *testing.T) {
	stub := &stubProvider{}
	p := NewRateLimitedProvider(stub, testLimiterConfig(t))

	resp, err := p.Chat(context.Background(), nil, nil)
	require.NoError(t, err)
	assert.Equal(t, "ok", resp.Content)
	assert.Equal(t, "stub", p.Name())
	assert.Equal(t, "stub-1", p.Model())

	metrics := p.Metrics()
	assert.Equal(t, int64(1), metrics.TotalRequests)
	assert.Equal(t, int64(0), metrics.ThrottledRequests)
	assert.Equal(t, int64(10), metrics.TokensConsumed)
	assert.Equal(t, int64(10), p.TokenUsageLastMinute())
}

func TestRateLimitedProvider_Disabled(t *testing.T) {
	stub := &stubProvider{}
	config := testLimiterConfig(t)
	config.Enabled = false
	config.RequestsPerSecond = 0.001
	config.BurstCapacity = 1
	p := NewRateLimitedProvider(stub, config)

	for i := 0; i < 5; i++ {
		_, err := p.Chat(context.Background(), nil, nil)
		require.NoError(t, err)
	}
	assert.Equal(t, int32(5), stub.calls.Load())
	assert.Equal(t, int64(0), p.Metrics().TotalRequests, "disabled limiter does not count")
}

func TestRateLimitedProvider_SpacesRequests(t *testing.T) {
	stub := &stubProvider{}
	config := testLimiterConfig(t)
	config.RequestsPerSecond = 20
	config.BurstCapacity = 1
	p := NewRateLimitedProvider(stub, config)

	start := time.Now()
	for i := 0; i < 4; i++ {
		_, err := p.Chat(context.Background(), nil, nil)
		require.NoError(t, err)
	}
	// One immediate slot, then three at 50ms intervals.
	assert.GreaterOrEqual(t, time.Since(start), 120*time.Millisecond)
}

func TestRateLimitedProvider_ContextCancellation(t *testing.T) {
	stub := &stubProvider{}
	config := testLimiterConfig(t)
	config.RequestsPerSecond = 0.01
	config.BurstCapacity = 1
	p := NewRateLimitedProvider(stub, config)

	_, err := p.Chat(context.Background(), nil, nil)
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err = p.Chat(ctx, nil, nil)
	require.Error(t, err)
	assert.Equal(t, int32(1), stub.calls.Load(), "waiting request never reached the provider")
	assert.Equal(t, int64(1), p.Metrics().DroppedRequests)
}

func TestRateLimitedProvider_QueueTimeout(t *testing.T) {
	stub := &stubProvider{}
	config := testLimiterConfig(t)
	config.RequestsPerSecond = 0.01
	config.BurstCapacity = 1
	config.QueueTimeout = 10 * time.Millisecond
	p := NewRateLimitedProvider(stub, config)

	_, err := p.Chat(context.Background(), nil, nil)
	require.NoError(t, err)
	_, err = p.Chat(context.Background(), nil, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "queue timeout")
}

func TestRateLimitedProvider_ThrottledIsNotRetried(t *testing.T) {
	stub := &stubProvider{err: errors.New("API error (status 429): Too Many Requests")}
	p := NewRateLimitedProvider(stub, testLimiterConfig(t))

	_, err := p.Chat(context.Background(), nil, nil)
	require.Error(t, err)
	assert.Equal(t, int32(1), stub.calls.Load())

	metrics := p.Metrics()
	assert.Equal(t, int64(1), metrics.ThrottledRequests)
	assert.False(t, metrics.LastThrottleTime.IsZero())
}

func TestIsThrottlingError(t *testing.T) {
	tests := []struct {
		err  error
		want bool
	}{
		{nil, false},
		{errors.New("status 429"), true},
		{errors.New("Too Many Requests"), true},
		{errors.New("rate limit exceeded"), true},
		{errors.New("ThrottlingException"), true},
		{errors.New("connection refused"), false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, isThrottlingError(tt.err), "%v", tt.err)
	}
}

func TestRateLimitedProvider_Concurrent(t *testing.T) {
	stub := &stubProvider{}
	config := testLimiterConfig(t)
	config.RequestsPerSecond = 1000
	config.BurstCapacity = 5
	p := NewRateLimitedProvider(stub, config)

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := p.Chat(context.Background(), nil, nil)
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	metrics := p.Metrics()
	assert.Equal(t, int64(20), metrics.TotalRequests)
	assert.Equal(t, int64(0), metrics.CurrentQueueDepth)
	assert.Equal(t, int64(200), metrics.TokensConsumed)
}
