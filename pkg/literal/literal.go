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
// Package literal reads and writes the bracketed row literals exchanged
// between the query tools and the model, for example
//
//	[('Novak Djokovic', 'Nick Kyrgios', '4-6 6-3 6-4 7-6(3)'), ('Rafael Nadal', 'Casper Ruud', '6-3 6-3 6-0')]
//
// The grammar is deliberately small: lists, tuples, quoted strings, numbers,
// None/True/False, Decimal('...') and datetime.date(...) constructors.
// Anything else is a parse error; callers treat that as "no rows".
package literal

import (
	"errors"
	"time"
)

// ErrParse is returned for any input outside the grammar.
var ErrParse = errors.New("literal: parse error")

// Decimal is an exact numeric kept as its decimal text.
type Decimal string

// String returns the decimal text.
func (d Decimal) String() string { return string(d) }

// Date is a calendar date without a time of day.
type Date struct {
	time.Time
}

// NewDate builds a Date at midnight UTC.
func NewDate(year int, month time.Month, day int) Date {
	return Date{time.Date(year, month, day, 0, 0, 0, 0, time.UTC)}
}

// String renders the date as YYYY-MM-DD.
func (d Date) String() string { return d.Format("2006-01-02") }

// Sequence is a parsed list or tuple.
type Sequence []interface{}

