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
	"fmt"
	"regexp"
	"strings"

	"github.com/teradata-labs/matchpoint/pkg/types"
)

// Decision is the enforcement policy's verdict on a tool-free agent message.
type Decision int

const (
	// Stop ends the loop.
	Stop Decision = iota
	// Continue gives the agent another turn after a reminder.
	Continue
)

func (d Decision) String() string {
	if d == Continue {
		return "continue"
	}
	return "stop"
}

// Inspection is what the policy found in the recent window.
type Inspection struct {
	Validated bool
	Executed  bool

	// Statement is the query the reminder asks the agent to execute
	Statement string
}

// Unfinished reports a validated query that was never executed.
func (in Inspection) Unfinished() bool {
	return in.Validated && !in.Executed
}

var (
	fencedBlock = regexp.MustCompile("(?s)```[A-Za-z0-9_-]*[ \t]*\n?(.*?)```")
	selectWord  = regexp.MustCompile(`(?i)\bselect\b`)
)

// Policy makes sure a validated query is executed before an answer is
// accepted, with a bounded number of reminders.
type Policy struct {
	validateTool string
	executeTool  string
	window       int
	minRowLen    int
	maxReminders int
}

// NewPolicy builds a policy from cfg.
func NewPolicy(cfg *Config) *Policy {
	cfg = cfg.withDefaults()
	return &Policy{
		validateTool: cfg.ValidateTool,
		executeTool:  cfg.ExecuteTool,
		window:       cfg.WindowSize,
		minRowLen:    cfg.MinRowPayloadLength,
		maxReminders: cfg.MaxReminders,
	}
}

// Inspect scans the last window messages of the current question.
// Reminders the policy itself wrote are not evidence either way.
func (p *Policy) Inspect(current []types.Message) Inspection {
	msgs := current
	if len(msgs) > p.window {
		msgs = msgs[len(msgs)-p.window:]
	}

	var in Inspection
	validateQuery := ""
	for _, m := range msgs {
		for _, tc := range m.ToolCalls {
			switch tc.Name {
			case p.validateTool:
				in.Validated = true
				if q, ok := tc.Input["query"].(string); ok && strings.TrimSpace(q) != "" {
					validateQuery = q
				}
			case p.executeTool:
				in.Executed = true
			}
		}
		if m.Role == types.ActorSystem || m.Role == types.ActorUser {
			continue
		}
		text := m.Text()
		if hasFencedSelect(text) {
			in.Validated = true
		}
		if p.looksLikeRows(text) {
			in.Executed = true
		}
	}

	if in.Unfinished() {
		in.Statement = latestFencedSelectLine(msgs)
		if in.Statement == "" {
			in.Statement = strings.TrimSpace(validateQuery)
		}
	}
	return in
}

// looksLikeRows is a shape heuristic, not a classifier: bracket-delimited,
// a parenthesis pair, and long enough not to be an acknowledgement.
func (p *Policy) looksLikeRows(text string) bool {
	s := strings.TrimSpace(text)
	if len(s) <= p.minRowLen || !strings.HasPrefix(s, "[") || !strings.HasSuffix(s, "]") {
		return false
	}
	open := strings.IndexByte(s, '(')
	return open >= 0 && strings.LastIndexByte(s, ')') > open
}

func hasFencedSelect(text string) bool {
	for _, m := range fencedBlock.FindAllStringSubmatch(text, -1) {
		if selectWord.MatchString(m[1]) {
			return true
		}
	}
	return false
}

// latestFencedSelectLine returns the first SELECT-bearing line of the most
// recent fenced block that has one.
func latestFencedSelectLine(msgs []types.Message) string {
	for i := len(msgs) - 1; i >= 0; i-- {
		if msgs[i].Role == types.ActorSystem || msgs[i].Role == types.ActorUser {
			continue
		}
		blocks := fencedBlock.FindAllStringSubmatch(msgs[i].Text(), -1)
		for j := len(blocks) - 1; j >= 0; j-- {
			for _, line := range strings.Split(blocks[j][1], "\n") {
				if selectWord.MatchString(line) {
					return strings.TrimSpace(line)
				}
			}
		}
	}
	return ""
}

// Apply evaluates the state after a tool-free agent message. On an
// unfinished validate/execute sequence with reminders left it appends a
// reminder, bumps the counter and returns Continue; otherwise Stop.
func (p *Policy) Apply(state *ConversationState) (Decision, Inspection) {
	in := p.Inspect(state.current())
	if !in.Unfinished() || state.ReminderCount >= p.maxReminders {
		return Stop, in
	}
	state.ReminderCount++
	state.Append(types.Message{
		Role:    types.ActorSystem,
		Content: p.reminder(in.Statement),
	})
	return Continue, in
}

func (p *Policy) reminder(statement string) string {
	if statement == "" {
		return fmt.Sprintf("You validated a query with %s but never ran it. "+
			"Call %s with the validated statement now and answer from the rows it returns.",
			p.validateTool, p.executeTool)
	}
	return fmt.Sprintf("You validated a query with %s but never ran it. "+
		"Call %s now with this statement and answer from the rows it returns:\n%s",
		p.validateTool, p.executeTool, statement)
}
