package ingest

import (
	"errors"
	"strconv"
	"strings"
)

// errBlankCell marks a cell that was empty after cleaning. Callers decide
// whether blank means zero, default, or rejection depending on the column.
var errBlankCell = errors.New("blank cell")

// currencyRunes are stripped from numeric cells before parsing
const currencyRunes = "$€£¥"

// parseNumber coerces a raw cell into a float64. It tolerates currency
// symbols, thousands separators, percent signs and surrounding whitespace,
// the way spreadsheet exports tend to decorate numbers.
func parseNumber(raw string) (float64, error) {
	s := strings.TrimSpace(raw)
	if s == "" || s == "-" {
		return 0, errBlankCell
	}

	s = strings.ReplaceAll(s, ",", "")
	s = strings.TrimSuffix(s, "%")
	s = strings.Trim(s, " \t")
	for _, r := range currencyRunes {
		s = strings.ReplaceAll(s, string(r), "")
	}
	s = strings.TrimSpace(s)

	// Accounting notation wraps negatives in parentheses
	if strings.HasPrefix(s, "(") && strings.HasSuffix(s, ")") {
		s = "-" + strings.TrimSuffix(strings.TrimPrefix(s, "("), ")")
	}

	if s == "" {
		return 0, errBlankCell
	}

	return strconv.ParseFloat(s, 64)
}
