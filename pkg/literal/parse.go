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
	"strconv"
	"strings"
	"time"
	"unicode/utf8"
)

const (
	maxDepth = 32
	maxInput = 1 << 20
)

// Parse parses a single literal value. Lists and tuples become Sequence;
// cells become nil, bool, int64, float64, string, Decimal, Date or time.Time.
func Parse(text string) (interface{}, error) {
	if len(text) > maxInput {
		return nil, fmt.Errorf("%w: input too large", ErrParse)
	}
	p := &parser{src: text}
	p.skipSpace()
	v, err := p.value(0)
	if err != nil {
		return nil, err
	}
	p.skipSpace()
	if p.pos != len(p.src) {
		return nil, p.errorf("unexpected trailing input")
	}
	return v, nil
}

// ParseRows parses text and returns its rows when it has tabular shape: a
// non-empty outer sequence whose first element is itself a non-empty
// sequence. Later non-sequence elements become single-cell rows.
func ParseRows(text string) ([][]interface{}, error) {
	v, err := Parse(text)
	if err != nil {
		return nil, err
	}
	outer, ok := v.(Sequence)
	if !ok || len(outer) == 0 {
		return nil, fmt.Errorf("%w: not a non-empty sequence", ErrParse)
	}
	first, ok := outer[0].(Sequence)
	if !ok {
		return nil, fmt.Errorf("%w: flat sequence, not rows", ErrParse)
	}
	if len(first) == 0 {
		return nil, fmt.Errorf("%w: first row has no cells", ErrParse)
	}

	rows := make([][]interface{}, 0, len(outer))
	for _, el := range outer {
		if seq, ok := el.(Sequence); ok {
			rows = append(rows, []interface{}(seq))
		} else {
			rows = append(rows, []interface{}{el})
		}
	}
	return rows, nil
}

type parser struct {
	src string
	pos int
}

func (p *parser) errorf(format string, args ...interface{}) error {
	return fmt.Errorf("%w at offset %d: %s", ErrParse, p.pos, fmt.Sprintf(format, args...))
}

func (p *parser) skipSpace() {
	for p.pos < len(p.src) {
		switch p.src[p.pos] {
		case ' ', '\t', '\n', '\r':
			p.pos++
		default:
			return
		}
	}
}

func (p *parser) peek() byte {
	if p.pos >= len(p.src) {
		return 0
	}
	return p.src[p.pos]
}

func (p *parser) value(depth int) (interface{}, error) {
	if depth > maxDepth {
		return nil, p.errorf("nesting too deep")
	}
	switch c := p.peek(); {
	case c == '[':
		return p.sequence(depth, '[', ']')
	case c == '(':
		return p.sequence(depth, '(', ')')
	case c == '\'' || c == '"':
		return p.str()
	case c == '-' || c == '+' || c == '.' || (c >= '0' && c <= '9'):
		return p.number()
	case isIdentStart(c):
		return p.identValue(depth)
	case c == 0:
		return nil, p.errorf("unexpected end of input")
	default:
		return nil, p.errorf("unexpected character %q", c)
	}
}

// sequence parses a list or tuple. A parenthesized single value without a
// trailing comma is just that value, as in Python.
func (p *parser) sequence(depth int, open, close byte) (interface{}, error) {
	p.pos++ // open
	items := Sequence{}
	sawComma := false
	for {
		p.skipSpace()
		if p.peek() == close {
			p.pos++
			break
		}
		if len(items) > 0 && !sawComma {
			return nil, p.errorf("expected ',' or %q", close)
		}
		v, err := p.value(depth + 1)
		if err != nil {
			return nil, err
		}
		items = append(items, v)
		p.skipSpace()
		sawComma = false
		if p.peek() == ',' {
			p.pos++
			sawComma = true
		} else if p.peek() != close {
			return nil, p.errorf("expected ',' or %q", close)
		}
	}
	if open == '(' && len(items) == 1 && !sawComma {
		return items[0], nil
	}
	return items, nil
}

func (p *parser) str() (interface{}, error) {
	quote := p.src[p.pos]
	p.pos++
	var b strings.Builder
	for {
		if p.pos >= len(p.src) {
			return nil, p.errorf("unterminated string")
		}
		c := p.src[p.pos]
		switch {
		case c == quote:
			p.pos++
			return b.String(), nil
		case c == '\\':
			p.pos++
			if p.pos >= len(p.src) {
				return nil, p.errorf("unterminated escape")
			}
			if err := p.escape(&b); err != nil {
				return nil, err
			}
		case c == '\n':
			return nil, p.errorf("newline in string")
		default:
			r, size := utf8.DecodeRuneInString(p.src[p.pos:])
			b.WriteRune(r)
			p.pos += size
		}
	}
}

func (p *parser) escape(b *strings.Builder) error {
	c := p.src[p.pos]
	p.pos++
	switch c {
	case '\\', '\'', '"':
		b.WriteByte(c)
	case 'n':
		b.WriteByte('\n')
	case 't':
		b.WriteByte('\t')
	case 'r':
		b.WriteByte('\r')
	case '0':
		b.WriteByte(0)
	case 'x':
		return p.hexEscape(b, 2)
	case 'u':
		return p.hexEscape(b, 4)
	case 'U':
		return p.hexEscape(b, 8)
	default:
		// Python keeps unknown escapes verbatim.
		b.WriteByte('\\')
		b.WriteByte(c)
	}
	return nil
}

func (p *parser) hexEscape(b *strings.Builder, n int) error {
	if p.pos+n > len(p.src) {
		return p.errorf("truncated escape")
	}
	v, err := strconv.ParseUint(p.src[p.pos:p.pos+n], 16, 32)
	if err != nil {
		return p.errorf("invalid escape")
	}
	p.pos += n
	b.WriteRune(rune(v))
	return nil
}

func (p *parser) number() (interface{}, error) {
	start := p.pos
	if c := p.peek(); c == '-' || c == '+' {
		p.pos++
	}
	isFloat := false
scan:
	for p.pos < len(p.src) {
		c := p.src[p.pos]
		switch {
		case c >= '0' && c <= '9':
		case c == '.' || c == 'e' || c == 'E':
			isFloat = true
		case (c == '-' || c == '+') && (p.src[p.pos-1] == 'e' || p.src[p.pos-1] == 'E'):
		case c == '_':
		default:
			break scan
		}
		p.pos++
	}
	text := strings.ReplaceAll(p.src[start:p.pos], "_", "")
	if text == "" || text == "-" || text == "+" {
		return nil, p.errorf("invalid number")
	}
	if !isFloat {
		if v, err := strconv.ParseInt(text, 10, 64); err == nil {
			return v, nil
		}
	}
	v, err := strconv.ParseFloat(text, 64)
	if err != nil {
		return nil, p.errorf("invalid number %q", text)
	}
	return v, nil
}

func isIdentStart(c byte) bool {
	return c == '_' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func isIdentPart(c byte) bool {
	return isIdentStart(c) || (c >= '0' && c <= '9') || c == '.'
}

func (p *parser) ident() string {
	start := p.pos
	for p.pos < len(p.src) && isIdentPart(p.src[p.pos]) {
		p.pos++
	}
	return p.src[start:p.pos]
}

// identValue handles keywords, string prefixes and the known constructors.
func (p *parser) identValue(depth int) (interface{}, error) {
	// u'..' and b'..' string prefixes.
	if c := p.peek(); (c == 'u' || c == 'U' || c == 'b') && p.pos+1 < len(p.src) && (p.src[p.pos+1] == '\'' || p.src[p.pos+1] == '"') {
		p.pos++
		return p.str()
	}

	name := p.ident()
	switch name {
	case "None", "NULL", "null":
		return nil, nil
	case "True", "true":
		return true, nil
	case "False", "false":
		return false, nil
	case "Decimal", "decimal.Decimal":
		args, err := p.args(depth)
		if err != nil {
			return nil, err
		}
		if len(args) != 1 {
			return nil, p.errorf("Decimal takes one argument")
		}
		switch a := args[0].(type) {
		case string:
			if _, err := strconv.ParseFloat(a, 64); err != nil && a != "NaN" {
				return nil, p.errorf("invalid Decimal %q", a)
			}
			return Decimal(a), nil
		case int64:
			return Decimal(strconv.FormatInt(a, 10)), nil
		}
		return nil, p.errorf("invalid Decimal argument")
	case "datetime.date", "date":
		nums, err := p.intArgs(depth, 3, 3)
		if err != nil {
			return nil, err
		}
		d := NewDate(int(nums[0]), time.Month(nums[1]), int(nums[2]))
		if d.Year() != int(nums[0]) || int(d.Month()) != int(nums[1]) || d.Day() != int(nums[2]) {
			return nil, p.errorf("invalid date")
		}
		return d, nil
	case "datetime.datetime", "datetime":
		nums, err := p.intArgs(depth, 3, 7)
		if err != nil {
			return nil, err
		}
		for len(nums) < 7 {
			nums = append(nums, 0)
		}
		return time.Date(int(nums[0]), time.Month(nums[1]), int(nums[2]),
			int(nums[3]), int(nums[4]), int(nums[5]), int(nums[6])*1000, time.UTC), nil
	}
	return nil, p.errorf("unknown identifier %q", name)
}

func (p *parser) args(depth int) ([]interface{}, error) {
	p.skipSpace()
	if p.peek() != '(' {
		return nil, p.errorf("expected '('")
	}
	p.pos++
	var out []interface{}
	for {
		p.skipSpace()
		if p.peek() == ')' {
			p.pos++
			return out, nil
		}
		v, err := p.value(depth + 1)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
		p.skipSpace()
		switch p.peek() {
		case ',':
			p.pos++
		case ')':
		default:
			return nil, p.errorf("expected ',' or ')'")
		}
	}
}

func (p *parser) intArgs(depth, min, max int) ([]int64, error) {
	args, err := p.args(depth)
	if err != nil {
		return nil, err
	}
	if len(args) < min || len(args) > max {
		return nil, p.errorf("expected %d to %d arguments", min, max)
	}
	nums := make([]int64, len(args))
	for i, a := range args {
		n, ok := a.(int64)
		if !ok {
			return nil, p.errorf("expected integer argument")
		}
		nums[i] = n
	}
	return nums, nil
}
