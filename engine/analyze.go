package engine

import "strings"

// ============================================================================
// ANALYZE — the full table pipeline
// ============================================================================
// Analyze is the single entry point most callers want: it validates the
// config, derives the binned dimension columns, aggregates, compacts the
// long tail, and normalizes the result for presentation. The pipeline is
// deterministic for a given frame and config.
// ============================================================================

// Analyze produces the finished table for one analysis config.
//
// Standard tables group by every dimension target, compute each metric as a
// column, outer-join the metric columns filling absences with 0, and fold
// rows past the row cap when a range dimension is present. Crosstab tables
// pivot the two dimensions with optional "total" margins and fold both axes.
// Whole-number columns are normalized so counts never print as "12.00".
func Analyze(f *Frame, cfg AnalysisConfig) (*ResultTable, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	work := f
	hasRange := false
	for _, rule := range cfg.Dimensions {
		work = Bin(work, rule)
		if rule.Method == MethodRange {
			hasRange = true
		}
	}

	var t *ResultTable
	switch cfg.TableType {
	case TableCrosstab:
		t = Crosstab(work, cfg.CrosstabRow, cfg.CrosstabCol, cfg.Metrics[0], cfg.Margins)
		t = CompactCrosstab(t, cfg.maxRows(), cfg.maxCols())
	default:
		groupCols := make([]string, len(cfg.Dimensions))
		for i, rule := range cfg.Dimensions {
			groupCols[i] = rule.TargetCol
		}
		parts := make([]*ResultTable, len(cfg.Metrics))
		for i, m := range cfg.Metrics {
			parts[i] = Aggregate(work, groupCols, m)
		}
		t = Merge(parts, strings.Join(groupCols, " / "))
		// Period tables keep every period; only segment tables fold.
		if hasRange {
			t = Compact(t, cfg.maxRows())
		}
	}

	normalizeNumbers(t)
	if cfg.Transpose {
		t = t.Transpose()
	}
	return t, nil
}

// Conclusion routine names, as referenced from analysis catalogs.
const (
	ConcludeDominantSegment   = "dominant_segment"
	ConcludeSegmentSplit      = "segment_split"
	ConcludeCrosstabPeak      = "crosstab_peak"
	ConcludeVolumeTrend       = "volume_trend"
	ConcludeVolumeTrendBrief  = "volume_trend_brief"
	ConcludePriceTrend        = "price_trend"
	ConcludeMonthlyPriceTrend = "monthly_price_trend"
	ConcludeFlowTrend         = "flow_trend"
	ConcludeAreaFlowTrend     = "area_flow_trend"
	ConcludeCapacityTrend     = "capacity_trend"
)

// Column names the capacity summary reads from its table.
const (
	CapacityAreaCol  = "avg_area"
	CapacityPriceCol = "avg_price"
)

// Conclude dispatches a named conclusion routine against a finished table.
// Unknown names yield an empty mapping, so a catalog typo degrades to a
// table without narrative rather than a failed report.
func Conclude(name string, t *ResultTable, threshold float64) Vars {
	switch name {
	case ConcludeDominantSegment:
		return DominantSegment(t)
	case ConcludeSegmentSplit:
		return SegmentSplit(t, threshold)
	case ConcludeCrosstabPeak:
		return CrosstabPeak(t)
	case ConcludeVolumeTrend:
		return VolumeTrend(t)
	case ConcludeVolumeTrendBrief:
		return VolumeTrendBrief(t)
	case ConcludePriceTrend:
		return PriceTrend(t)
	case ConcludeMonthlyPriceTrend:
		return MonthlyPriceTrend(t)
	case ConcludeFlowTrend:
		return FlowTrend(t)
	case ConcludeAreaFlowTrend:
		return AreaFlowTrend(t)
	case ConcludeCapacityTrend:
		return CapacityTrend(t, CapacityAreaCol, CapacityPriceCol)
	}
	return Vars{}
}
