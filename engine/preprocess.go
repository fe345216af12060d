package engine

import (
	"strconv"
	"strings"
	"time"
)

// ============================================================================
// PREPROCESSOR — explicit type coercion at the table boundary
// ============================================================================
// Raw observation columns arrive as text (CSV cells, driver-scanned values).
// Preprocess coerces them to typed series once, before any other stage runs:
// dates to time values, dimension and indicator columns to numerics.
// Unparsable values become missing, not zeros, so later aggregation excludes
// them from denominators. No I/O is involved.
// ============================================================================

var dateLayouts = []string{
	"2006-01-02",
	"2006/01/02",
	"2006-01-02 15:04:05",
	"2006-01",
	time.RFC3339,
}

// Preprocess returns a copy of f with dateCol coerced to a time series and
// every column named in numericCols coerced to a numeric series. Columns
// that are absent or already typed are left as they are.
func Preprocess(f *Frame, dateCol string, numericCols []string) *Frame {
	out := f.clone()

	if s := out.Column(dateCol); s != nil && s.Kind() == KindLabel {
		out.SetColumn(dateCol, coerceTime(s))
	}
	for _, name := range numericCols {
		s := out.Column(name)
		if s == nil || s.Kind() != KindLabel {
			continue
		}
		out.SetColumn(name, coerceNumeric(s))
	}
	return out
}

// ParseNumber parses a single raw cell into a float, tolerating surrounding
// space and thousands separators.
func ParseNumber(raw string) (float64, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0, false
	}
	raw = strings.ReplaceAll(raw, ",", "")
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, false
	}
	return v, true
}

// ParseDate parses a single raw cell into a time value, trying the known
// layouts in order.
func ParseDate(raw string) (time.Time, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}, false
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

func coerceNumeric(s *Series) *Series {
	n := s.Len()
	nums := make([]float64, n)
	valid := make([]bool, n)
	for i := 0; i < n; i++ {
		nums[i], valid[i] = ParseNumber(s.Label(i))
	}
	return NewNumericSeriesMasked(nums, valid)
}

func coerceTime(s *Series) *Series {
	n := s.Len()
	times := make([]time.Time, n)
	valid := make([]bool, n)
	for i := 0; i < n; i++ {
		times[i], valid[i] = ParseDate(s.Label(i))
	}
	return NewTimeSeries(times, valid)
}
