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
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/teradata-labs/matchpoint/pkg/agent"
)

// TurnRequest is the body of POST /v1/turn. An empty SessionID starts a new
// session.
type TurnRequest struct {
	SessionID string `json:"session_id"`
	Message   string `json:"message"`
}

// ErrorResponse is the body of every non-2xx reply. Response carries the
// partial answer when one exists.
type ErrorResponse struct {
	Error    string          `json:"error"`
	Response *agent.Response `json:"response,omitempty"`
}

func (h *HTTPServer) handleTurn(c *gin.Context) {
	var req TurnRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body: " + err.Error()})
		return
	}
	if strings.TrimSpace(req.Message) == "" {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "message is required"})
		return
	}
	if req.SessionID == "" {
		req.SessionID = uuid.NewString()
	}

	ctx := c.Request.Context()
	if h.config.TurnTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, h.config.TurnTimeout)
		defer cancel()
	}

	resp, err := h.turner.RunTurn(ctx, req.SessionID, req.Message)
	if err != nil {
		status := statusFor(err)
		h.logger.Warn("turn failed",
			zap.String("session_id", req.SessionID),
			zap.Int("status", status),
			zap.Error(err),
		)
		c.JSON(status, ErrorResponse{Error: err.Error(), Response: resp})
		return
	}
	c.JSON(http.StatusOK, resp)
}

// statusFor maps turn errors to HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, agent.ErrInvalidSession):
		return http.StatusBadRequest
	case errors.Is(err, agent.ErrModelCall):
		return http.StatusBadGateway
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	case errors.Is(err, context.Canceled):
		// nginx's "client closed request"
		return 499
	}
	return http.StatusInternalServerError
}

func (h *HTTPServer) handleDeleteSession(c *gin.Context) {
	id := c.Param("id")
	if err := h.store.Delete(c.Request.Context(), id); err != nil {
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: err.Error()})
		return
	}
	c.Status(http.StatusNoContent)
}
