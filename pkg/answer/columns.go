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
	"regexp"
	"strings"
	"sync/atomic"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/teradata-labs/matchpoint/pkg/literal"
)

// InferredFrom records which layer named a column.
type InferredFrom string

const (
	FromSQLParse     InferredFrom = "sql_parse"
	FromDataPattern  InferredFrom = "data_pattern"
	FromQueryKeyword InferredFrom = "query_keyword"
	FromGeneric      InferredFrom = "generic"
)

// ColumnSpec names one payload column.
type ColumnSpec struct {
	Index        int          `json:"index"`
	Name         string       `json:"name"`
	InferredFrom InferredFrom `json:"inferred_from"`
}

// ColumnNamer names payload columns from the query text, the data and the
// question, in that order of preference. The vocabulary can be swapped while
// turns are running.
type ColumnNamer struct {
	vocab atomic.Pointer[Vocabulary]
}

// NewColumnNamer creates a namer. A nil vocabulary uses DefaultVocabulary.
func NewColumnNamer(vocab *Vocabulary) *ColumnNamer {
	n := &ColumnNamer{}
	n.SetVocabulary(vocab)
	return n
}

// SetVocabulary replaces the vocabulary for subsequent calls. Nil restores
// DefaultVocabulary.
func (n *ColumnNamer) SetVocabulary(vocab *Vocabulary) {
	if vocab == nil {
		vocab = DefaultVocabulary()
	}
	n.vocab.Store(vocab)
}

// Vocabulary returns the vocabulary in use.
func (n *ColumnNamer) Vocabulary() *Vocabulary {
	return n.vocab.Load()
}

// Names returns just the display names.
func (n *ColumnNamer) Names(rows [][]interface{}, query, question string) []string {
	specs := n.Name(rows, query, question)
	names := make([]string, len(specs))
	for i, s := range specs {
		names[i] = s.Name
	}
	return names
}

// Name returns exactly one ColumnSpec per column of the first row. It never fails;
// malformed or missing query text just moves on to the next layer.
func (n *ColumnNamer) Name(rows [][]interface{}, query, question string) []ColumnSpec {
	if len(rows) == 0 || len(rows[0]) == 0 {
		return nil
	}
	width := len(rows[0])

	if names := n.fromSQL(query); len(names) == width {
		return specs(names, FromSQLParse)
	}
	if names := n.fromData(rows, width, question); names != nil {
		return specs(names, FromDataPattern)
	}
	if names := fromKeywords(width, question); names != nil {
		return specs(names, FromQueryKeyword)
	}

	names := make([]string, width)
	for i := range names {
		names[i] = fmt.Sprintf("Column_%d", i+1)
	}
	return specs(names, FromGeneric)
}

func specs(names []string, from InferredFrom) []ColumnSpec {
	out := make([]ColumnSpec, len(names))
	for i, name := range names {
		out[i] = ColumnSpec{Index: i, Name: name, InferredFrom: from}
	}
	return out
}

// Layer A: projection parse.

var (
	explicitAlias = regexp.MustCompile(`(?is)^(.+?)\s+AS\s+(?:"([^"]+)"|` + "`([^`]+)`" + `|\[([^\]]+)\]|'([^']+)'|([A-Za-z_][A-Za-z0-9_]*))$`)
	bareAlias     = regexp.MustCompile(`(?s)^(.*[A-Za-z0-9_)\]"'])\s+([A-Za-z_][A-Za-z0-9_]*)$`)
	identifier    = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)
	dottedRef     = regexp.MustCompile(`^(?:[A-Za-z_][A-Za-z0-9_]*\.)+([A-Za-z_][A-Za-z0-9_]*)$`)
	aggregateCall = regexp.MustCompile(`(?is)^(COUNT|SUM|AVG|MIN|MAX)\s*\((.*)\)$`)
	distinctWord  = regexp.MustCompile(`(?i)^DISTINCT\s+`)
	topClause     = regexp.MustCompile(`(?i)^TOP\s+\d+\s+`)
)

// notAliases are trailing words that end an expression rather than name it.
var notAliases = map[string]bool{
	"END": true, "NULL": true, "ASC": true, "DESC": true, "AND": true, "OR": true,
	"NOT": true, "THEN": true, "ELSE": true, "WHEN": true, "CASE": true, "IS": true,
}

var aggregateNames = map[string]string{
	"COUNT": "Count",
	"SUM":   "Total",
	"AVG":   "Average",
	"MIN":   "Min",
	"MAX":   "Max",
}

func (n *ColumnNamer) fromSQL(query string) []string {
	projection, ok := selectList(query)
	if !ok {
		return nil
	}
	exprs := splitTopLevel(projection)
	names := make([]string, 0, len(exprs))
	for _, expr := range exprs {
		name := n.exprName(expr)
		if name == "" {
			return nil
		}
		names = append(names, name)
	}
	return names
}

func (n *ColumnNamer) exprName(expr string) string {
	expr = strings.TrimSpace(expr)
	if expr == "" || expr == "*" || strings.HasSuffix(expr, ".*") {
		return ""
	}

	if m := explicitAlias.FindStringSubmatch(expr); m != nil {
		for _, alias := range m[2:] {
			if alias != "" {
				return n.display(alias)
			}
		}
	}
	if m := bareAlias.FindStringSubmatch(expr); m != nil && !notAliases[strings.ToUpper(m[2])] {
		head := strings.TrimSpace(m[1])
		// "a.b c" and "f(x) c" are aliased; "DISTINCT c" is not.
		if !strings.EqualFold(head, "DISTINCT") {
			return n.display(m[2])
		}
	}
	if m := dottedRef.FindStringSubmatch(expr); m != nil {
		return n.display(m[1])
	}
	if m := aggregateCall.FindStringSubmatch(expr); m != nil && balanced(m[2]) {
		fn := aggregateNames[strings.ToUpper(m[1])]
		inner := strings.TrimSpace(distinctWord.ReplaceAllString(strings.TrimSpace(m[2]), ""))
		if inner == "*" || inner == "1" || inner == "" {
			return fn
		}
		if sub := n.exprName(inner); sub != "" {
			if fn == "Count" {
				return sub + " Count"
			}
			return fn + " " + sub
		}
		return fn
	}
	if identifier.MatchString(expr) {
		return n.display(expr)
	}
	return titleCase(expr)
}

// display maps an identifier through the vocabulary, else title-cases it.
func (n *ColumnNamer) display(ident string) string {
	if name, ok := n.vocab.Load().displayName(ident); ok {
		return name
	}
	return titleCase(ident)
}

// titleCase turns "total_titles" or "sum(w_ace)" into "Total Titles" or "Sum W Ace".
// Apostrophes stay inside words, so "o'brien" becomes "O'brien".
func titleCase(s string) string {
	parts := strings.FieldsFunc(s, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r) && r != '\''
	})
	// Casers are stateful; one per call keeps concurrent turns apart.
	caser := cases.Title(language.English)
	words := parts[:0]
	for _, p := range parts {
		if p = strings.Trim(p, "'"); p != "" {
			words = append(words, caser.String(p))
		}
	}
	return strings.Join(words, " ")
}

// selectList returns the projection of the outermost SELECT.
func selectList(query string) (string, bool) {
	q := strings.TrimSpace(query)
	if q == "" {
		return "", false
	}
	start := -1
	end := len(q)
	depth := 0
	var quote byte
	for i := 0; i < len(q); i++ {
		c := q[i]
		if quote != 0 {
			if c == quote {
				quote = 0
			}
			continue
		}
		switch c {
		case '\'', '"', '`':
			quote = c
			continue
		case '(':
			depth++
			continue
		case ')':
			depth--
			continue
		}
		if depth != 0 || !wordStart(q, i) {
			continue
		}
		if start < 0 {
			if keywordAt(q, i, "SELECT") {
				start = i + len("SELECT")
			}
			continue
		}
		if keywordAt(q, i, "FROM") || keywordAt(q, i, "WHERE") || keywordAt(q, i, "GROUP") ||
			keywordAt(q, i, "ORDER") || keywordAt(q, i, "LIMIT") || keywordAt(q, i, "HAVING") ||
			keywordAt(q, i, "UNION") {
			end = i
			break
		}
	}
	if start < 0 || quote != 0 {
		return "", false
	}
	projection := strings.TrimSpace(q[start:end])
	projection = strings.TrimSuffix(projection, ";")
	projection = topClause.ReplaceAllString(projection, "")
	projection = distinctWord.ReplaceAllString(projection, "")
	projection = strings.TrimSpace(projection)
	return projection, projection != ""
}

func wordStart(s string, i int) bool {
	return i == 0 || !isWordByte(s[i-1])
}

func isWordByte(c byte) bool {
	return c == '_' || c == '.' || (c >= '0' && c <= '9') || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func keywordAt(s string, i int, kw string) bool {
	if i+len(kw) > len(s) || !strings.EqualFold(s[i:i+len(kw)], kw) {
		return false
	}
	return i+len(kw) == len(s) || !isWordByte(s[i+len(kw)])
}

func balanced(s string) bool {
	depth := 0
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '(':
			depth++
		case ')':
			depth--
			if depth < 0 {
				return false
			}
		}
	}
	return depth == 0
}

// splitTopLevel splits on commas outside parentheses and quotes.
func splitTopLevel(s string) []string {
	var parts []string
	depth := 0
	last := 0
	var quote byte
	for i := 0; i < len(s); i++ {
		c := s[i]
		if quote != 0 {
			if c == quote {
				quote = 0
			}
			continue
		}
		switch c {
		case '\'', '"', '`':
			quote = c
		case '(':
			depth++
		case ')':
			depth--
		case ',':
			if depth == 0 {
				parts = append(parts, s[last:i])
				last = i + 1
			}
		}
	}
	return append(parts, s[last:])
}

// Layer B: data sniffing.

const sampleSize = 20

var scorePattern = regexp.MustCompile(`^\d{1,2}-\d{1,2}(\(\d+\))?(\s+\d{1,2}-\d{1,2}(\(\d+\))?)*(\s+(RET|W/O|DEF|ABD))?$`)

type columnClass int

const (
	classUnknown columnClass = iota
	classPerson
	classYear
	classScore
	classTournament
	classSurface
	classCount
	classValue
)

var (
	matchWords   = map[string]bool{"beat": true, "beats": true, "defeated": true, "defeat": true, "match": true, "matches": true, "final": true, "finals": true, "versus": true, "vs": true, "against": true, "played": true, "lost": true}
	winnerWords  = map[string]bool{"won": true, "win": true, "wins": true, "winner": true, "winners": true, "champion": true, "champions": true, "title": true, "titles": true}
	rankingWords = map[string]bool{"rank": true, "ranked": true, "ranking": true, "rankings": true, "top": true, "seed": true, "seeded": true}
	compareWords = map[string]bool{"compare": true, "comparison": true, "head": true, "h2h": true, "versus": true, "vs": true}
)

// fromData classifies every column, or returns nil if any column cannot be
// classified.
func (n *ColumnNamer) fromData(rows [][]interface{}, width int, question string) []string {
	classes := make([]columnClass, width)
	for col := 0; col < width; col++ {
		classes[col] = n.classify(rows, col)
		if classes[col] == classUnknown {
			return nil
		}
	}

	tokens := words(question)
	persons := 0
	for _, c := range classes {
		if c == classPerson {
			persons++
		}
	}

	names := make([]string, width)
	person := 0
	for i, c := range classes {
		switch c {
		case classPerson:
			names[i] = personName(person, persons, tokens)
			person++
		case classYear:
			names[i] = "Year"
		case classScore:
			names[i] = "Score"
		case classTournament:
			names[i] = "Tournament"
		case classSurface:
			names[i] = "Surface"
		case classCount:
			if hasAnyWord(tokens, rankingWords) {
				names[i] = "Rank"
			} else {
				names[i] = "Count"
			}
		default:
			names[i] = "Value"
		}
	}
	return dedupe(names)
}

func personName(idx, total int, tokens []string) string {
	matchLike := hasAnyWord(tokens, matchWords)
	switch {
	case total >= 2 && matchLike:
		switch idx {
		case 0:
			return "Winner"
		case 1:
			return "Loser"
		}
	case total == 1 && (hasAnyWord(tokens, winnerWords) || matchLike):
		return "Winner"
	}
	return "Player"
}

func dedupe(names []string) []string {
	seen := map[string]int{}
	for _, n := range names {
		seen[n]++
	}
	counter := map[string]int{}
	for i, n := range names {
		if seen[n] > 1 {
			counter[n]++
			names[i] = fmt.Sprintf("%s %d", n, counter[n])
		}
	}
	return names
}

func (n *ColumnNamer) classify(rows [][]interface{}, col int) columnClass {
	result := classUnknown
	sampled := 0
	for _, row := range rows {
		if sampled == sampleSize {
			break
		}
		if col >= len(row) || row[col] == nil {
			continue
		}
		sampled++
		c := n.classifyValue(row[col])
		switch {
		case c == classUnknown:
			return classUnknown
		case result == classUnknown:
			result = c
		case result == c:
		case isNumericClass(result) && isNumericClass(c):
			// Mixed numeric columns fall back to the widest class.
			result = widerNumeric(result, c)
		default:
			return classUnknown
		}
	}
	return result
}

func isNumericClass(c columnClass) bool {
	return c == classYear || c == classCount || c == classValue
}

func widerNumeric(a, b columnClass) columnClass {
	if a == classValue || b == classValue {
		return classValue
	}
	return classCount
}

func (n *ColumnNamer) classifyValue(v interface{}) columnClass {
	switch val := v.(type) {
	case int64:
		return classifyInt(val)
	case float64, literal.Decimal:
		return classValue
	case bool:
		return classUnknown
	case string:
		return n.classifyString(strings.TrimSpace(val))
	}
	return classUnknown
}

func classifyInt(v int64) columnClass {
	switch {
	case v >= 1877 && v <= 2100:
		return classYear
	case v >= 0 && v <= 100000:
		return classCount
	}
	return classValue
}

func (n *ColumnNamer) classifyString(s string) columnClass {
	vocab := n.vocab.Load()
	switch {
	case s == "":
		return classUnknown
	case vocab.isSurface(s):
		return classSurface
	case scorePattern.MatchString(s):
		return classScore
	case vocab.isTournament(s):
		return classTournament
	case isPersonName(s):
		return classPerson
	}
	if allDigits(s) {
		var v int64
		if _, err := fmt.Sscan(s, &v); err == nil {
			return classifyInt(v)
		}
	}
	return classUnknown
}

// isPersonName matches capitalized multi-word tokens such as "Roger Federer"
// or "Juan Martin del Potro".
func isPersonName(s string) bool {
	parts := strings.Fields(s)
	if len(parts) < 2 {
		return false
	}
	capitalized := 0
	for _, p := range parts {
		for _, r := range p {
			if !unicode.IsLetter(r) && r != '-' && r != '.' && r != '\'' {
				return false
			}
		}
		if r := []rune(p)[0]; unicode.IsUpper(r) {
			capitalized++
		}
	}
	first := []rune(parts[0])[0]
	last := []rune(parts[len(parts)-1])[0]
	return unicode.IsUpper(first) && unicode.IsUpper(last) && capitalized >= 2
}

func allDigits(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return s != ""
}

// Layer C: keyword by column count.

func fromKeywords(width int, question string) []string {
	tokens := words(question)
	match := hasAnyWord(tokens, matchWords) || hasAnyWord(tokens, winnerWords)
	ranking := hasAnyWord(tokens, rankingWords)
	compare := hasAnyWord(tokens, compareWords)

	switch {
	case width == 3 && match:
		return []string{"Winner", "Loser", "Score"}
	case width == 4 && match:
		return []string{"Tournament", "Winner", "Loser", "Score"}
	case width == 2 && ranking:
		return []string{"Player", "Rank"}
	case width == 2 && compare:
		return []string{"Player", "Wins"}
	case width == 2 && match:
		return []string{"Winner", "Loser"}
	case width == 1 && ranking:
		return []string{"Player"}
	case width == 1 && match:
		return []string{"Winner"}
	}
	return nil
}
