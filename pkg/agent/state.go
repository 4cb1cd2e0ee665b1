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
	"time"

	"github.com/google/uuid"

	"github.com/teradata-labs/matchpoint/pkg/types"
)

// ConversationState is the message log and bookkeeping for one question.
// Only the loop handling it mutates it, and only by appending.
type ConversationState struct {
	Messages       []types.Message
	ReminderCount  int
	IterationCount int
}

// NewConversationState seeds a state with prior history and appends the new
// user question.
func NewConversationState(history []types.Message, question string) *ConversationState {
	msgs := make([]types.Message, 0, len(history)+8)
	msgs = append(msgs, history...)
	s := &ConversationState{Messages: msgs}
	s.Append(types.Message{Role: types.ActorUser, Content: question})
	return s
}

// Append adds a message, filling in its id and timestamp.
func (s *ConversationState) Append(msg types.Message) {
	if msg.ID == "" {
		msg.ID = uuid.NewString()
	}
	if msg.Timestamp.IsZero() {
		msg.Timestamp = time.Now()
	}
	s.Messages = append(s.Messages, msg)
}

// Question returns the latest user message text.
func (s *ConversationState) Question() string {
	if i := types.LastUserIndex(s.Messages); i >= 0 {
		return s.Messages[i].Text()
	}
	return ""
}

// current returns the messages after the latest user message.
func (s *ConversationState) current() []types.Message {
	return s.Messages[types.LastUserIndex(s.Messages)+1:]
}

// last returns the newest message, or nil.
func (s *ConversationState) last() *types.Message {
	if len(s.Messages) == 0 {
		return nil
	}
	return &s.Messages[len(s.Messages)-1]
}
