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
)

// Formatter is the default NarrativeFormatter. It names columns from the data
// and the question and writes one line per row.
type Formatter struct {
	namer *ColumnNamer
}

// NewFormatter creates a formatter using namer for labels.
func NewFormatter(namer *ColumnNamer) *Formatter {
	if namer == nil {
		namer = NewColumnNamer(nil)
	}
	return &Formatter{namer: namer}
}

// Format renders rows as "Name: value" pairs. Multiple rows are numbered.
func (f *Formatter) Format(rows [][]interface{}, question string) string {
	if len(rows) == 0 {
		return "No results."
	}
	names := f.namer.Names(rows, "", question)

	lines := make([]string, len(rows))
	for i, row := range rows {
		line := formatRow(row, names)
		if len(rows) > 1 {
			line = fmt.Sprintf("%d. %s", i+1, line)
		}
		lines[i] = line
	}
	return strings.Join(lines, "\n")
}

func formatRow(row []interface{}, names []string) string {
	parts := make([]string, len(row))
	for i, cell := range row {
		if i < len(names) && !strings.HasPrefix(names[i], "Column_") {
			parts[i] = names[i] + ": " + CellText(cell)
		} else {
			parts[i] = CellText(cell)
		}
	}
	return strings.Join(parts, ", ")
}

var _ NarrativeFormatter = (*Formatter)(nil)
