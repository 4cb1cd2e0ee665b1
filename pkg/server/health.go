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
package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/teradata-labs/matchpoint/pkg/types"
)

// HealthCheck is a named dependency check.
type HealthCheck struct {
	Name  string
	Check func(ctx context.Context) error
}

// PingCheck checks anything with a Ping method, such as a database backend.
func PingCheck(name string, p interface{ Ping(context.Context) error }) HealthCheck {
	return HealthCheck{Name: name, Check: p.Ping}
}

// ValidateProvider performs a preflight call against the language model.
// Called during server startup to fail fast on a missing model server.
func ValidateProvider(ctx context.Context, llm types.LLMProvider) error {
	checkCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()
	_, err := llm.Chat(checkCtx, []types.Message{{Role: types.ActorUser, Content: "ping"}}, nil)
	if err != nil {
		return fmt.Errorf("LLM provider preflight check failed (%s/%s): %w", llm.Name(), llm.Model(), err)
	}
	return nil
}

func (h *HTTPServer) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "healthy"})
}

// handleReady runs every registered check.
func (h *HTTPServer) handleReady(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	failures := gin.H{}
	for _, hc := range h.checks {
		if err := hc.Check(ctx); err != nil {
			failures[hc.Name] = err.Error()
		}
	}
	if len(failures) > 0 {
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable", "failures": failures})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ready"})
}
