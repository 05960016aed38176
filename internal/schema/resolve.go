package schema

import (
	"fmt"
	"strings"

	"sales-dashboard/internal/models"
)

// Table is a raw sheet: a header row and string cells. Rows may be shorter
// than Headers; missing cells read as empty.
type Table struct {
	Headers []string
	Rows    [][]string
}

// Cell returns the trimmed value at row, col or "" when out of range.
func (t Table) Cell(row, col int) string {
	if row < 0 || row >= len(t.Rows) || col < 0 || col >= len(t.Rows[row]) {
		return ""
	}
	return strings.TrimSpace(t.Rows[row][col])
}

// Strategy records how a canonical field was matched to a column.
type Strategy string

const (
	StrategyExact     Strategy = "exact"
	StrategySubstring Strategy = "substring"
	StrategyDateScan  Strategy = "date_scan"
)

// Match binds a canonical field to a source column.
type Match struct {
	Field    string   `json:"field"`
	Column   int      `json:"column"`
	Header   string   `json:"header"`
	Strategy Strategy `json:"strategy"`
}

// Mapping is the result of column resolution, in profile field order.
type Mapping struct {
	Matches []Match
	index   map[string]int
}

// Column returns the source column index bound to field.
func (m Mapping) Column(field string) (int, bool) {
	i, ok := m.index[field]
	if !ok {
		return -1, false
	}
	return m.Matches[i].Column, true
}

// Headers returns canonical field name -> source header.
func (m Mapping) Headers() map[string]string {
	out := make(map[string]string, len(m.Matches))
	for _, match := range m.Matches {
		out[match.Field] = match.Header
	}
	return out
}

// ResolutionError reports required canonical fields that no column matched.
type ResolutionError struct {
	Missing []string
	Source  string
}

func (e *ResolutionError) Error() string {
	msg := fmt.Sprintf("schema: missing required columns [%s]", strings.Join(e.Missing, ", "))
	if e.Source != "" {
		return fmt.Sprintf("%s; check the source sheet %q", msg, e.Source)
	}
	return msg + "; check the source sheet"
}

// Resolve binds every field of p to a column of t.
//
// Exact matches (case and accent insensitive, canonical name first, then the
// candidates in order) are taken for all fields before any substring match,
// and a column is bound to at most one field. A field left unmatched is then
// tried by substring: candidates in order, columns in sheet order, first
// unclaimed column whose header contains the candidate wins. An unmatched date
// falls back to the first column whose header contains a date token and holds
// at least one parseable value.
//
// Unmatched optional fields are simply absent from the mapping. Unmatched
// required fields produce a *ResolutionError naming all of them.
func Resolve(t Table, p Profile) (Mapping, error) {
	folded := make([]string, len(t.Headers))
	for i, h := range t.Headers {
		folded[i] = foldName(h)
	}
	claimed := make([]bool, len(t.Headers))
	found := make(map[string]Match, len(p.Fields))

	claim := func(field string, col int, strategy Strategy) {
		claimed[col] = true
		found[field] = Match{Field: field, Column: col, Header: t.Headers[col], Strategy: strategy}
	}

	for _, f := range p.Fields {
		if col := exactMatch(folded, claimed, names(f)); col >= 0 {
			claim(f.Name, col, StrategyExact)
		}
	}

	for _, f := range p.Fields {
		if _, ok := found[f.Name]; ok {
			continue
		}
		if col := substringMatch(folded, claimed, names(f)); col >= 0 {
			claim(f.Name, col, StrategySubstring)
		}
	}

	if _, ok := found[models.FieldDate]; !ok {
		if col := scanDateColumn(t, folded, claimed, p); col >= 0 {
			claim(models.FieldDate, col, StrategyDateScan)
		}
	}

	m := Mapping{index: make(map[string]int, len(found))}
	var missing []string
	for _, f := range p.Fields {
		match, ok := found[f.Name]
		if !ok {
			if f.Required {
				missing = append(missing, f.Name)
			}
			continue
		}
		m.index[f.Name] = len(m.Matches)
		m.Matches = append(m.Matches, match)
	}

	if len(missing) > 0 {
		return m, &ResolutionError{Missing: missing}
	}
	return m, nil
}

func names(f FieldSpec) []string {
	out := make([]string, 0, len(f.Candidates)+1)
	out = append(out, foldName(f.Name))
	for _, c := range f.Candidates {
		if c = foldName(c); c != "" {
			out = append(out, c)
		}
	}
	return out
}

func exactMatch(headers []string, claimed []bool, candidates []string) int {
	for _, cand := range candidates {
		for i, h := range headers {
			if !claimed[i] && h == cand {
				return i
			}
		}
	}
	return -1
}

func substringMatch(headers []string, claimed []bool, candidates []string) int {
	for _, cand := range candidates {
		for i, h := range headers {
			if !claimed[i] && strings.Contains(h, cand) {
				return i
			}
		}
	}
	return -1
}

func scanDateColumn(t Table, headers []string, claimed []bool, p Profile) int {
	for i, h := range headers {
		if claimed[i] || !containsAny(h, p.DateTokens) {
			continue
		}
		for row := range t.Rows {
			if _, ok := ParseDate(t.Cell(row, i), p.DateLayouts); ok {
				return i
			}
		}
	}
	return -1
}

func containsAny(s string, tokens []string) bool {
	for _, tok := range tokens {
		if tok = foldName(tok); tok != "" && strings.Contains(s, tok) {
			return true
		}
	}
	return false
}
