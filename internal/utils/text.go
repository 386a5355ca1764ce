package utils

import (
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

// CleanText sanitizes a free-text value for CSV output so that bulk insert
// never sees a stray delimiter: commas become semicolons, en-dashes become
// hyphens, surrounding whitespace is stripped. Placeholder null spellings
// inherited from the upstream exports collapse to the empty string.
func CleanText(val string) string {
	s := strings.TrimSpace(val)
	if s == "" {
		return ""
	}
	switch strings.ToLower(s) {
	case "nan", "<na>":
		return ""
	}
	s = strings.ReplaceAll(s, ",", ";")
	s = strings.ReplaceAll(s, "–", "-")
	return strings.TrimSpace(s)
}

// ExpandScientificNotation rewrites numeric strings like 1.23E-4 into plain
// decimal form without losing precision. Values that do not look like
// scientific notation pass through untouched, as do values that fail to parse.
func ExpandScientificNotation(val string) string {
	s := strings.TrimSpace(val)
	if s == "" {
		return ""
	}
	switch strings.ToLower(s) {
	case "nan", "<na>":
		return ""
	}
	if !strings.ContainsAny(s, "eE") {
		return s
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return s
	}
	return d.String()
}

// FormatFloat renders a computed float with a fixed number of decimals and
// then strips trailing zeros and a dangling point, matching the formatting of
// the source exports ("1.6000000000" -> "1.6").
func FormatFloat(f float64, decimals int) string {
	s := strconv.FormatFloat(f, 'f', decimals, 64)
	if strings.Contains(s, ".") {
		s = strings.TrimRight(s, "0")
		s = strings.TrimRight(s, ".")
	}
	return s
}
