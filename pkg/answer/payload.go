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
// Package answer turns a finished conversation into a user-facing answer: it
// recovers tabular rows from free-form text, decides whether they deserve a
// table, and names their columns.
//
// Everything here is a pure function of its inputs. Running the extractor
// twice over the same messages yields the same text and payload.
package answer

import (
	"fmt"
	"time"

	"github.com/teradata-labs/matchpoint/pkg/literal"
)

// PayloadKind classifies the shape of extracted rows.
type PayloadKind int

const (
	// KindScalar is one row with one cell.
	KindScalar PayloadKind = iota
	// KindRow is one row with several cells.
	KindRow
	// KindTable is more than one row.
	KindTable
)

func (k PayloadKind) String() string {
	switch k {
	case KindScalar:
		return "scalar"
	case KindRow:
		return "row"
	case KindTable:
		return "table"
	}
	return fmt.Sprintf("PayloadKind(%d)", int(k))
}

// ExtractedPayload is best-effort tabular data recovered from message text.
// It is derived on demand and never persisted.
type ExtractedPayload struct {
	Kind PayloadKind
	Rows [][]interface{}

	// SourceMessageIndex is the index of the message the rows came from
	SourceMessageIndex int
}

func newPayload(rows [][]interface{}, index int) *ExtractedPayload {
	kind := KindTable
	if len(rows) == 1 {
		kind = KindRow
		if len(rows[0]) == 1 {
			kind = KindScalar
		}
	}
	return &ExtractedPayload{Kind: kind, Rows: rows, SourceMessageIndex: index}
}

// RowCount returns the number of rows; a nil payload has none.
func (p *ExtractedPayload) RowCount() int {
	if p == nil {
		return 0
	}
	return len(p.Rows)
}

// ColumnCount returns the width of the first row.
func (p *ExtractedPayload) ColumnCount() int {
	if p == nil || len(p.Rows) == 0 {
		return 0
	}
	return len(p.Rows[0])
}

// CellText renders a cell for people rather than for the parser.
func CellText(v interface{}) string {
	switch val := v.(type) {
	case nil:
		return "N/A"
	case string:
		return val
	case literal.Decimal:
		return val.String()
	case literal.Date:
		return val.String()
	case time.Time:
		return val.Format("2006-01-02 15:04:05")
	case bool:
		if val {
			return "yes"
		}
		return "no"
	}
	return literal.FormatValue(v)
}
