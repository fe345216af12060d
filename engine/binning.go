package engine

import (
	"math"
	"strconv"
)

// ============================================================================
// BINNING — continuous and temporal columns into labeled segments
// ============================================================================

// Bin adds rule.TargetCol to the frame and returns the extended copy. The
// input frame is never modified.
//
// Range binning spans floor(min/step)*step up to (floor(max/step)+1)*step in
// right-open intervals, so a value equal to an edge lands in the upper bin.
// Degenerate inputs — missing source column, empty or all-missing values,
// fewer than two computed edges — return the frame unchanged; callers treat
// that as "no bins available".
func Bin(f *Frame, rule BinningRule) *Frame {
	switch rule.Method {
	case MethodPeriod:
		return binPeriod(f, rule)
	case MethodRange:
		return binRange(f, rule)
	default:
		return f
	}
}

func binPeriod(f *Frame, rule BinningRule) *Frame {
	src := f.Column(rule.SourceCol)
	if src == nil || src.Kind() != KindTime {
		return f
	}

	n := src.Len()
	labels := make([]string, n)
	for i := 0; i < n; i++ {
		t, ok := src.Time(i)
		if !ok {
			continue
		}
		if rule.Granularity == GranYear {
			labels[i] = strconv.Itoa(t.Year())
		} else {
			labels[i] = t.Format("2006-01")
		}
	}

	out := f.clone()
	out.SetColumn(rule.TargetCol, NewLabelSeries(labels))
	return out
}

func binRange(f *Frame, rule BinningRule) *Frame {
	src := f.Column(rule.SourceCol)
	if src == nil || src.Kind() != KindNumeric {
		return f
	}

	minV, maxV, any := seriesMinMax(src)
	if !any {
		return f
	}

	step := rule.effectiveStep()
	start := math.Floor(minV/step) * step
	end := (math.Floor(maxV/step) + 1) * step

	nbins := int(math.Round((end - start) / step))
	if nbins < 1 {
		return f
	}

	// Labels per bin, with bounds rescaled back to the rule's display unit.
	scale := rule.UnitScale
	if scale <= 1 {
		scale = 1
	}
	labels := make([]string, nbins)
	for k := 0; k < nbins; k++ {
		lo := (start + float64(k)*step) / scale
		hi := (start + float64(k+1)*step) / scale
		labels[k] = fillTemplate(rule.Format, formatBound(RoundTo2(lo)), formatBound(RoundTo2(hi)))
	}

	n := src.Len()
	binned := make([]string, n)
	for i := 0; i < n; i++ {
		v, ok := src.Num(i)
		if !ok {
			continue
		}
		idx := int(math.Floor((v - start) / step))
		if idx < 0 {
			idx = 0
		}
		if idx >= nbins {
			idx = nbins - 1
		}
		binned[i] = labels[idx]
	}

	out := f.clone()
	out.SetColumn(rule.TargetCol, NewLabelSeries(binned))
	return out
}

func seriesMinMax(s *Series) (minV, maxV float64, any bool) {
	for i := 0; i < s.Len(); i++ {
		v, ok := s.Num(i)
		if !ok {
			continue
		}
		if !any || v < minV {
			minV = v
		}
		if !any || v > maxV {
			maxV = v
		}
		any = true
	}
	return minV, maxV, any
}
