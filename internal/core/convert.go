package core

// convert.go provides cell-level coercion for spreadsheet data.
//
// Both upload sources are hand-exported spreadsheets, so cells arrive with:
//   - Currency symbols, percent signs and thousand separators in numbers
//   - Excel formula prefixes (="value")
//   - Inconsistent header casing, spacing and punctuation
//
// Number coercion never fails the row: an unparseable cell becomes 0 and the
// caller may record a ParseError for diagnostics.

import (
	"regexp"
	"strings"

	"github.com/shopspring/decimal"
)

// numericRegex validates that a string is a valid numeric format after cleanup.
// Matches integers, decimals, and scientific notation.
var numericRegex = regexp.MustCompile(`^[+-]?(\d+(\.\d*)?|\.\d+)([eE][+-]?\d+)?$`)

// ParseNumber converts a cell to a decimal.
// Handles currency symbols, percent signs, thousands separators and
// accounting format (parentheses for negative). ok is false for empty or
// invalid input.
func ParseNumber(s string) (decimal.Decimal, bool) {
	s = CleanCell(s)
	if s == "" {
		return decimal.Zero, false
	}

	// Detect negative accounting format "(123.45)"
	isNegative := false
	if strings.HasPrefix(s, "(") && strings.HasSuffix(s, ")") {
		isNegative = true
		s = strings.TrimSpace(s[1 : len(s)-1])
	}

	s = strings.ReplaceAll(s, "$", "")
	s = strings.ReplaceAll(s, "€", "") // Euro
	s = strings.ReplaceAll(s, "£", "") // Pound
	s = strings.ReplaceAll(s, "%", "")
	s = strings.ReplaceAll(s, ",", "")
	s = strings.TrimSpace(s)

	if isNegative {
		s = "-" + s
	}

	if !numericRegex.MatchString(s) {
		return decimal.Zero, false
	}

	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, false
	}
	return d, true
}

// ToFloat converts a cell to float64. Invalid or empty input yields 0.
func ToFloat(s string) float64 {
	d, _ := ParseNumber(s)
	f, _ := d.Float64()
	return f
}

// ToInt converts a cell to int, rounding half away from zero.
// Invalid or empty input yields 0.
func ToInt(s string) int {
	d, _ := ParseNumber(s)
	return int(d.Round(0).IntPart())
}

// HeaderIndex maps normalized column names to their position in a row.
type HeaderIndex map[string]int

// MakeHeaderIndex creates a HeaderIndex from a header row.
// Keys are normalized with normalizeKey so "Team Abbrev", "teamabbrev" and
// "TEAM_ABBREV" all resolve to the same column. The first occurrence of a
// duplicated header wins.
func MakeHeaderIndex(header []string) HeaderIndex {
	idx := make(HeaderIndex, len(header))
	for i, h := range header {
		key := normalizeKey(h)
		if key == "" {
			continue
		}
		if _, exists := idx[key]; !exists {
			idx[key] = i
		}
	}
	return idx
}

// Lookup returns the position of the first alias present in the index.
func (h HeaderIndex) Lookup(aliases ...string) (int, bool) {
	for _, a := range aliases {
		if pos, ok := h[normalizeKey(a)]; ok {
			return pos, true
		}
	}
	return 0, false
}

// Has reports whether any alias is present.
func (h HeaderIndex) Has(aliases ...string) bool {
	_, ok := h.Lookup(aliases...)
	return ok
}

// Cell returns the cleaned value of the first matching alias, or "".
func (h HeaderIndex) Cell(row []string, aliases ...string) string {
	pos, ok := h.Lookup(aliases...)
	if !ok || pos >= len(row) {
		return ""
	}
	return CleanCell(row[pos])
}

// CleanCell removes common spreadsheet artifacts from a cell value:
// - Trims whitespace
// - Removes Excel formula prefix (="...")
// - Removes surrounding quotes
func CleanCell(s string) string {
	s = strings.TrimSpace(s)

	if strings.HasPrefix(s, "=\"") && strings.HasSuffix(s, "\"") {
		s = s[2 : len(s)-1]
	} else if strings.HasPrefix(s, "=") {
		s = s[1:]
	}

	s = strings.Trim(s, `"'`)
	return strings.TrimSpace(s)
}

// normalizeKey lowercases s and drops everything but letters and digits,
// keeping '+' and '-' so "Name + ID" and "3-max" stay distinct.
func normalizeKey(s string) string {
	s = strings.ToLower(CleanCell(s))
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == '+', r == '-':
			b.WriteRune(r)
		}
	}
	return b.String()
}
