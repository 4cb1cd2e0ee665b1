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
package answer

import (
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/teradata-labs/matchpoint/pkg/literal"
	"github.com/teradata-labs/matchpoint/pkg/types"
)

// NarrativeFormatter renders rows as prose for the final answer.
type NarrativeFormatter interface {
	Format(rows [][]interface{}, question string) string
}

// Extraction is the answer recovered from one question's messages.
type Extraction struct {
	// FinalText is the text shown to the user; empty when the agent said
	// nothing and no rows were found
	FinalText string

	// Payload holds recovered rows, or nil for a conversational answer
	Payload *ExtractedPayload

	// Query is the statement that produced the payload, when it can be
	// traced back to an execute call
	Query string

	// Question is the latest user message
	Question string
}

// DefaultExecuteTool is the tool whose calls carry the source statement
// unless WithExecuteTool names another.
const DefaultExecuteTool = "query_execute"

// Extractor mines the messages after the latest user message for the answer.
type Extractor struct {
	formatter   NarrativeFormatter
	logger      *zap.Logger
	executeTool string
}

// ExtractorOption configures an Extractor.
type ExtractorOption func(*Extractor)

// WithExecuteTool sets the tool name whose "query" input is reported as the
// payload's source statement. An empty name keeps the default.
func WithExecuteTool(name string) ExtractorOption {
	return func(e *Extractor) {
		if name != "" {
			e.executeTool = name
		}
	}
}

// NewExtractor creates an extractor. A nil formatter uses the default
// narrative formatter with the built-in vocabulary.
func NewExtractor(formatter NarrativeFormatter, logger *zap.Logger, opts ...ExtractorOption) *Extractor {
	if formatter == nil {
		formatter = NewFormatter(NewColumnNamer(nil))
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	e := &Extractor{formatter: formatter, logger: logger, executeTool: DefaultExecuteTool}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Extract recovers the answer for the current question. It never fails:
// unparsable text simply yields no payload.
func (e *Extractor) Extract(messages []types.Message) Extraction {
	cutoff := types.LastUserIndex(messages)
	var out Extraction
	if cutoff >= 0 {
		out.Question = messages[cutoff].Text()
	}

	agentText := ""
	for i := len(messages) - 1; i > cutoff; i-- {
		if messages[i].Role == types.ActorAgent {
			agentText = strings.TrimSpace(messages[i].Text())
			break
		}
	}

	out.Payload = e.findPayload(messages, cutoff)
	if out.Payload != nil {
		out.Query = sourceQuery(messages, cutoff, out.Payload.SourceMessageIndex, e.executeTool)
	}

	switch {
	case agentText != "" && !isRawPayload(agentText):
		out.FinalText = agentText
	case out.Payload != nil:
		out.FinalText = e.render(out.Payload, out.Question)
	default:
		out.FinalText = agentText
	}
	return out
}

func (e *Extractor) render(p *ExtractedPayload, question string) string {
	switch p.Kind {
	case KindScalar:
		return "The answer is: " + CellText(p.Rows[0][0])
	case KindRow:
		return e.formatter.Format(p.Rows, question)
	default:
		return fmt.Sprintf("Found %d results:\n%s", len(p.Rows), e.formatter.Format(p.Rows, question))
	}
}

// findPayload scans newest first and returns the first parsable row set.
func (e *Extractor) findPayload(messages []types.Message, cutoff int) *ExtractedPayload {
	for i := len(messages) - 1; i > cutoff; i-- {
		candidate, ok := bracketSpan(payloadText(messages[i]))
		if !ok {
			continue
		}
		rows, err := literal.ParseRows(candidate)
		if err != nil {
			e.logger.Debug("ignoring unparsable payload",
				zap.Int("message_index", i),
				zap.Error(err),
			)
			continue
		}
		return newPayload(rows, i)
	}
	return nil
}

func payloadText(m types.Message) string {
	if m.Role == types.ActorToolResult && m.ToolResult != nil {
		if m.ToolResult.IsError {
			return ""
		}
		return m.ToolResult.Output
	}
	return m.Text()
}

// bracketSpan returns the bracket-delimited part of text that holds
// at least one parenthesis pair.
func bracketSpan(text string) (string, bool) {
	s := strings.TrimSpace(text)
	if !(strings.HasPrefix(s, "[") && strings.HasSuffix(s, "]")) {
		start := strings.IndexByte(s, '[')
		end := strings.LastIndexByte(s, ']')
		if start < 0 || end <= start {
			return "", false
		}
		s = s[start : end+1]
	}
	open := strings.IndexByte(s, '(')
	if open < 0 || strings.LastIndexByte(s, ')') < open {
		return "", false
	}
	return s, true
}

// isRawPayload reports whether the agent just echoed the tool output.
func isRawPayload(text string) bool {
	if !strings.HasPrefix(text, "[") || !strings.HasSuffix(text, "]") {
		return false
	}
	_, err := literal.ParseRows(text)
	return err == nil
}

// sourceQuery recovers the statement behind the payload: the execute call
// the source message answers, else the latest execute call of the question.
func sourceQuery(messages []types.Message, cutoff, source int, executeTool string) string {
	calls := map[string]types.ToolCall{}
	latest := ""
	for i := cutoff + 1; i < len(messages) && i <= source; i++ {
		for _, tc := range messages[i].ToolCalls {
			calls[tc.ID] = tc
			if tc.Name == executeTool {
				if q, ok := tc.Input["query"].(string); ok {
					latest = q
				}
			}
		}
	}
	if m := messages[source]; m.Role == types.ActorToolResult {
		if tc, ok := calls[m.ToolUseID]; ok && tc.Name == executeTool {
			if q, ok := tc.Input["query"].(string); ok {
				return q
			}
		}
	}
	return latest
}
