package engine

import (
	"math"
	"testing"
)

// ============================================================================
// FORMATTING TESTS
// ============================================================================

func TestLowerBound(t *testing.T) {
	cases := map[string]float64{
		"60-80m²": 60,
		"≥140m²":  140,
		"2-3M":    2,
		"2023-04": 2023,
	}
	for label, want := range cases {
		if got := LowerBound(label); got != want {
			t.Errorf("LowerBound(%q): got %v, want %v", label, got, want)
		}
	}
	if !math.IsInf(LowerBound("unknown"), 1) {
		t.Error("labels without digits must sort last")
	}
}

func TestFormatInt(t *testing.T) {
	cases := map[int64]string{
		0:       "0",
		999:     "999",
		1500:    "1,500",
		1234567: "1,234,567",
		-8000:   "-8,000",
	}
	for n, want := range cases {
		if got := FormatInt(n); got != want {
			t.Errorf("FormatInt(%d): got %q, want %q", n, got, want)
		}
	}
}

func TestFormatPercent(t *testing.T) {
	cases := map[float64]string{
		50:    "50",
		25.9:  "25", // whole percents truncate, never round up
		-12.4: "12",
		0.37:  "0.37",
		0:     "0.00",
	}
	for v, want := range cases {
		if got := FormatPercent(v); got != want {
			t.Errorf("FormatPercent(%v): got %q, want %q", v, got, want)
		}
	}
}

func TestInferUnit(t *testing.T) {
	if InferUnit("price_range") != UnitPrice {
		t.Error("price dimension should carry the monetary unit")
	}
	if InferUnit("area_range") != UnitArea || InferUnit("anything") != UnitArea {
		t.Error("non-price dimensions default to the area unit")
	}
}

func TestCellStringIntegerPresentation(t *testing.T) {
	if got := NumCell(12).String(); got != "12" {
		t.Errorf("whole number: got %q, want 12", got)
	}
	if got := NumCell(104.567).String(); got != "104.57" {
		t.Errorf("fractional: got %q, want 104.57", got)
	}
	if got := TextCell("").String(); got != "" {
		t.Errorf("blank cell: got %q", got)
	}
}
