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
	"errors"

	"github.com/teradata-labs/matchpoint/pkg/literal"
	"github.com/teradata-labs/matchpoint/pkg/shuttle"
)

var (
	// ErrModelCall wraps a failed or timed-out language model call. It is
	// the only failure RunTurn surfaces as an operational error.
	ErrModelCall = errors.New("model call failed")

	// ErrLoopLimitExceeded marks a turn cut off at MaxIterations. It is
	// reported through Response.DegradedReason, not returned.
	ErrLoopLimitExceeded = errors.New("loop limit exceeded")

	// ErrInvalidSession is returned for an empty session id.
	ErrInvalidSession = errors.New("session id is required")
)

// Tool-level and parse-level errors stay local to their layers; they are
// re-exported so callers can match every kind from one place.
var (
	ErrUnknownTool   = shuttle.ErrUnknownTool
	ErrToolExecution = shuttle.ErrToolExecution
	ErrParse         = literal.ErrParse
)

// Degraded reasons reported on Response.
const (
	ReasonLoopLimitExceeded = "LoopLimitExceeded"
	ReasonCanceled          = "Canceled"
)
