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
package shuttle

import "errors"

// Error codes carried in Result.Error.Code.
const (
	CodeUnknownTool      = "unknown_tool"
	CodeInvalidArguments = "invalid_arguments"
	CodeExecutionFailed  = "execution_failed"
	CodeTimeout          = "timeout"
	CodeCanceled         = "canceled"
	CodePanic            = "panic"
)

var (
	// ErrUnknownTool is returned when a tool name is not registered.
	ErrUnknownTool = errors.New("unknown tool")

	// ErrToolExecution marks any failure inside a tool: an error return,
	// a panic, a timeout or an unsuccessful Result.
	ErrToolExecution = errors.New("tool execution failed")

	// ErrToolTimeout marks a tool call that exceeded its deadline. Errors
	// from Error.Err with CodeTimeout match it.
	ErrToolTimeout = errors.New("tool call timed out")

	// ErrRegistryFrozen is returned by Register after Freeze.
	ErrRegistryFrozen = errors.New("tool registry is frozen")
)
