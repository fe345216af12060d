package engine

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
)

// ============================================================================
// FORMATTING AND LABEL HELPERS
// ============================================================================

// Segment units. Area is the default when a dimension name gives no hint.
const (
	UnitArea  = "m²"
	UnitPrice = "M"
)

var firstNumberRe = regexp.MustCompile(`\d+`)

// LowerBound extracts the numeric lower bound of a segment label: the first
// run of digits in the string. Labels with no digits sort last, so they
// report an effectively infinite bound.
func LowerBound(label string) float64 {
	m := firstNumberRe.FindString(label)
	if m == "" {
		return math.Inf(1)
	}
	v, err := strconv.ParseFloat(m, 64)
	if err != nil {
		return math.Inf(1)
	}
	return v
}

// lowerBoundText returns the digit run itself, for splicing into a merged
// bucket label without reformatting.
func lowerBoundText(label string) string {
	return firstNumberRe.FindString(label)
}

// InferUnit guesses the presentation unit from a dimension name. Price-like
// names carry the monetary unit; everything else keeps the area unit.
func InferUnit(dimName string) string {
	if strings.Contains(strings.ToLower(dimName), "price") {
		return UnitPrice
	}
	return UnitArea
}

// FormatInt renders an integer with thousands separators.
func FormatInt(n int64) string {
	if n < 0 {
		return "-" + FormatInt(-n)
	}
	if n < 1000 {
		return strconv.FormatInt(n, 10)
	}
	return fmt.Sprintf("%s,%03d", FormatInt(n/1000), n%1000)
}

// FormatCount renders a numeric value as a whole count with thousands
// separators, truncating any fractional remainder.
func FormatCount(v float64) string {
	return FormatInt(int64(v))
}

// FormatPercent renders the magnitude of a percentage: values of at least
// one percent as a rounded-down integer, smaller ones with two decimals.
func FormatPercent(v float64) string {
	a := math.Abs(v)
	if a >= 1 {
		return strconv.FormatInt(int64(a), 10)
	}
	return strconv.FormatFloat(a, 'f', 2, 64)
}

// RoundTo2 rounds to 2 decimal places.
func RoundTo2(v float64) float64 {
	return math.Round(v*100) / 100
}

// formatBound renders a bin edge for a label: whole values without a
// decimal point, anything else trimmed to at most two decimals.
func formatBound(v float64) string {
	if v == math.Trunc(v) {
		return strconv.FormatInt(int64(v), 10)
	}
	return strconv.FormatFloat(RoundTo2(v), 'f', -1, 64)
}

// fillTemplate substitutes the two `{}` placeholders of a label template
// with the lower and upper bound.
func fillTemplate(tmpl, lo, hi string) string {
	out := strings.Replace(tmpl, "{}", lo, 1)
	return strings.Replace(out, "{}", hi, 1)
}

// sortKeyLess orders segment labels by ascending numeric lower bound, with
// the label text as tiebreak so period labels like "2024-03" stay
// chronological within a year.
func sortKeyLess(a, b string) bool {
	la, lb := LowerBound(a), LowerBound(b)
	if la != lb {
		return la < lb
	}
	return a < b
}
