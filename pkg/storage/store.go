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
// Package storage persists conversation history per session id.
//
// Stores only load and save whole histories. Callers that read, mutate and
// write back a session must serialize on the session id themselves.
package storage

import (
	"context"
	"errors"

	"github.com/teradata-labs/matchpoint/pkg/types"
)

// ErrInvalidSessionID is returned for an empty session id.
var ErrInvalidSessionID = errors.New("invalid session id")

// Store persists the message history of each session.
type Store interface {
	// Load returns the history of sessionID, or nil for an unknown session
	Load(ctx context.Context, sessionID string) ([]types.Message, error)

	// Save replaces the history of sessionID
	Save(ctx context.Context, sessionID string, messages []types.Message) error

	// Delete removes a session; deleting an unknown session is not an error
	Delete(ctx context.Context, sessionID string) error

	// Close releases resources
	Close() error
}

// SessionLister is implemented by stores that can enumerate sessions.
type SessionLister interface {
	ListSessions(ctx context.Context) ([]string, error)
}

// TrimHistory keeps at most max trailing messages, starting at a user
// message so no tool result loses the call it answers. When no user message
// falls inside the window the current question is kept whole. max <= 0
// disables trimming.
func TrimHistory(messages []types.Message, max int) []types.Message {
	if max <= 0 || len(messages) <= max {
		return messages
	}
	for i := len(messages) - max; i < len(messages); i++ {
		if messages[i].Role == types.ActorUser {
			return messages[i:]
		}
	}
	if last := types.LastUserIndex(messages); last >= 0 {
		return messages[last:]
	}
	return messages[len(messages)-max:]
}
