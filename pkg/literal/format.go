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
package literal

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

// FormatRows renders rows as a list of tuples, the text the query tool
// returns to the model. Zero rows render as "[]".
func FormatRows(rows [][]interface{}) string {
	var b strings.Builder
	b.WriteByte('[')
	for i, row := range rows {
		if i > 0 {
			b.WriteString(", ")
		}
		writeTuple(&b, row)
	}
	b.WriteByte(']')
	return b.String()
}

// FormatValue renders one cell.
func FormatValue(v interface{}) string {
	var b strings.Builder
	writeValue(&b, v)
	return b.String()
}

func writeTuple(b *strings.Builder, row []interface{}) {
	b.WriteByte('(')
	for i, cell := range row {
		if i > 0 {
			b.WriteString(", ")
		}
		writeValue(b, cell)
	}
	if len(row) == 1 {
		b.WriteByte(',')
	}
	b.WriteByte(')')
}

func writeValue(b *strings.Builder, v interface{}) {
	switch val := v.(type) {
	case nil:
		b.WriteString("None")
	case bool:
		if val {
			b.WriteString("True")
		} else {
			b.WriteString("False")
		}
	case int:
		b.WriteString(strconv.Itoa(val))
	case int32:
		b.WriteString(strconv.FormatInt(int64(val), 10))
	case int64:
		b.WriteString(strconv.FormatInt(val, 10))
	case uint64:
		b.WriteString(strconv.FormatUint(val, 10))
	case float32:
		b.WriteString(formatFloat(float64(val)))
	case float64:
		b.WriteString(formatFloat(val))
	case string:
		b.WriteString(quote(val))
	case []byte:
		b.WriteString(quote(string(val)))
	case Decimal:
		b.WriteString("Decimal(")
		b.WriteString(quote(string(val)))
		b.WriteByte(')')
	case Date:
		fmt.Fprintf(b, "datetime.date(%d, %d, %d)", val.Year(), int(val.Month()), val.Day())
	case time.Time:
		if val.Hour() == 0 && val.Minute() == 0 && val.Second() == 0 && val.Nanosecond() == 0 {
			fmt.Fprintf(b, "datetime.date(%d, %d, %d)", val.Year(), int(val.Month()), val.Day())
		} else {
			fmt.Fprintf(b, "datetime.datetime(%d, %d, %d, %d, %d, %d)",
				val.Year(), int(val.Month()), val.Day(), val.Hour(), val.Minute(), val.Second())
		}
	case Sequence:
		writeTuple(b, val)
	case []interface{}:
		writeTuple(b, val)
	case fmt.Stringer:
		b.WriteString(quote(val.String()))
	default:
		b.WriteString(quote(fmt.Sprint(val)))
	}
}

func formatFloat(f float64) string {
	switch {
	case math.IsNaN(f):
		return "None"
	case math.IsInf(f, 0):
		return "None"
	}
	s := strconv.FormatFloat(f, 'f', -1, 64)
	if math.Abs(f) >= 1e16 || (f != 0 && math.Abs(f) < 1e-4) {
		s = strconv.FormatFloat(f, 'e', -1, 64)
	}
	if !strings.ContainsAny(s, ".e") {
		s += ".0"
	}
	return s
}

// quote mirrors Python repr: single quotes unless the text contains a single
// quote and no double quote.
func quote(s string) string {
	q := byte('\'')
	if strings.ContainsRune(s, '\'') && !strings.ContainsRune(s, '"') {
		q = '"'
	}
	var b strings.Builder
	b.WriteByte(q)
	for _, r := range s {
		switch {
		case r == '\\':
			b.WriteString(`\\`)
		case r == rune(q):
			b.WriteByte('\\')
			b.WriteRune(r)
		case r == '\n':
			b.WriteString(`\n`)
		case r == '\t':
			b.WriteString(`\t`)
		case r == '\r':
			b.WriteString(`\r`)
		case r < 0x20:
			fmt.Fprintf(&b, `\x%02x`, r)
		default:
			b.WriteRune(r)
		}
	}
	b.WriteByte(q)
	return b.String()
}
