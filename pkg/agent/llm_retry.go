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

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/teradata-labs/matchpoint/pkg/types"
)

// chatWithRetry calls the model, retrying failures with exponential backoff
// while the context is live. Only the final error is returned.
func (a *Agent) chatWithRetry(ctx context.Context, messages []types.Message, tools []types.ToolDefinition) (*types.LLMResponse, error) {
	policy := a.config.Retry
	if !policy.Enabled || policy.MaxRetries <= 0 {
		return a.llm.Chat(ctx, messages, tools)
	}

	attempts := policy.MaxRetries + 1
	delay := policy.InitialDelay
	var err error
	for attempt := 1; ; attempt++ {
		var resp *types.LLMResponse
		resp, err = a.llm.Chat(ctx, messages, tools)
		if err == nil {
			if attempt > 1 {
				a.logger.Info("model call succeeded after retry", zap.Int("attempt", attempt))
			}
			return resp, nil
		}
		if ctx.Err() != nil || attempt == attempts {
			break
		}

		a.logger.Warn("model call failed, retrying",
			zap.Int("attempt", attempt),
			zap.Int("max_attempts", attempts),
			zap.Duration("delay", delay),
			zap.Error(err),
		)
		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil, fmt.Errorf("model call interrupted during backoff: %w", ctx.Err())
		case <-timer.C:
		}
		delay = nextDelay(delay, policy)
	}

	if ctx.Err() != nil {
		return nil, err
	}
	a.logger.Error("model call retries exhausted", zap.Int("attempts", attempts), zap.Error(err))
	return nil, fmt.Errorf("model call failed after %d attempts: %w", attempts, err)
}

func nextDelay(d time.Duration, policy RetryConfig) time.Duration {
	mult := policy.Multiplier
	if mult < 1 {
		mult = 1
	}
	d = time.Duration(float64(d) * mult)
	if policy.MaxDelay > 0 && d > policy.MaxDelay {
		d = policy.MaxDelay
	}
	return d
}
