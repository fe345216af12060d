package engine

import (
	"math"
	"sort"
)

// ============================================================================
// CONCLUSIONS — named insight values extracted from finished tables
// ============================================================================
// Each function is pure: a finished ResultTable in, a flat Vars mapping out.
// This is the last stage before user-visible narrative text, so every
// function is maximally defensive — missing columns, empty tables, and zero
// denominators produce "N/A" values or an empty mapping, never a panic or an
// error that would abort the report.
// ============================================================================

// Trend direction words, in the three grammatical forms the narrative
// templates need.
const (
	TrendNounUp     = "increase"
	TrendNounDown   = "decrease"
	TrendStatusUp   = "increased"
	TrendStatusDown = "decreased"
	TrendAdjUp      = "upward"
	TrendAdjDown    = "downward"
)

const NotAvailable = "N/A"

// ============================================================================
// SEGMENT DISTRIBUTIONS
// ============================================================================

// DominantSegment reports the segment with the highest count. Rows are
// examined in lower-bound order regardless of how the table is stored, so
// ties resolve to the smallest segment. The variable name follows the
// dimension's unit: price dimensions produce Seg_Price_Stratum_Dominant,
// everything else Seg_Area_Stratum_Dominant.
func DominantSegment(t *ResultTable) Vars {
	segVar := "Seg_Area_Stratum_Dominant"
	if InferUnit(t.KeyCol) == UnitPrice {
		segVar = "Seg_Price_Stratum_Dominant"
	}
	vars := Vars{segVar: NotAvailable, "Metric_Volume_Dominant_Cluster": NotAvailable}

	keys := make([]int, len(t.Rows))
	for i := range keys {
		keys[i] = i
	}
	sort.SliceStable(keys, func(a, b int) bool {
		return sortKeyLess(t.Rows[keys[a]].Key, t.Rows[keys[b]].Key)
	})

	best := -1
	bestVal := 0.0
	for _, ri := range keys {
		c := t.Cell(ri, 0)
		if !c.IsNum {
			continue
		}
		if best < 0 || c.Num > bestVal {
			best = ri
			bestVal = c.Num
		}
	}
	if best < 0 {
		return vars
	}
	vars[segVar] = t.Rows[best].Key
	vars["Metric_Volume_Dominant_Cluster"] = FormatCount(bestVal)
	return vars
}

// SegmentSplit partitions segments at a lower-bound threshold and reports
// the highest-total segment on each side: the "core" segment below the
// threshold and the "upgrade" segment at or above it. A side with no
// qualifying row reports "N/A" rather than failing.
func SegmentSplit(t *ResultTable, threshold float64) Vars {
	vars := Vars{
		"Seg_SupplyDemand_Core_Area":    NotAvailable,
		"Seg_SupplyDemand_Upgrade_Area": NotAvailable,
	}

	coreIdx, upIdx := -1, -1
	var coreMax, upMax float64
	for ri := range t.Rows {
		total := rowTotal(&t.Rows[ri])
		if LowerBound(t.Rows[ri].Key) < threshold {
			if coreIdx < 0 || total > coreMax {
				coreIdx, coreMax = ri, total
			}
		} else {
			if upIdx < 0 || total > upMax {
				upIdx, upMax = ri, total
			}
		}
	}
	if coreIdx >= 0 {
		vars["Seg_SupplyDemand_Core_Area"] = t.Rows[coreIdx].Key
	}
	if upIdx >= 0 {
		vars["Seg_SupplyDemand_Upgrade_Area"] = t.Rows[upIdx].Key
	}
	return vars
}

func rowTotal(r *Row) float64 {
	total := 0.0
	for _, c := range r.Cells {
		if c.IsNum {
			total += c.Num
		}
	}
	return total
}

// ============================================================================
// CROSSTAB PEAK
// ============================================================================

// CrosstabPeak locates the single maximum cell of a crosstab, excluding any
// "total" margin, and reports its row segment, column segment, the peak
// value, and the grand total of all non-margin cells.
func CrosstabPeak(t *ResultTable) Vars {
	rowVar, colVar := "Seg_Area_Stratum_Modal", "Seg_Price_Stratum_Modal"
	if InferUnit(t.KeyCol) == UnitPrice {
		rowVar, colVar = colVar, rowVar
	}
	vars := Vars{
		"Metric_Transaction_Volume_Cumulative": NotAvailable,
		rowVar:                                 NotAvailable,
		colVar:                                 NotAvailable,
		"Metric_Transaction_Velocity_Peak":     NotAvailable,
	}

	total := 0.0
	bestRow, bestCol := -1, -1
	var peak float64
	for ri := range t.Rows {
		if t.Rows[ri].Key == MarginLabel {
			continue
		}
		for ci := range t.Columns {
			if t.Columns[ci] == MarginLabel {
				continue
			}
			c := t.Cell(ri, ci)
			if !c.IsNum {
				continue
			}
			total += c.Num
			if bestRow < 0 || c.Num > peak {
				bestRow, bestCol, peak = ri, ci, c.Num
			}
		}
	}
	if bestRow < 0 {
		return vars
	}
	vars["Metric_Transaction_Volume_Cumulative"] = FormatCount(total)
	vars[rowVar] = t.Rows[bestRow].Key
	vars[colVar] = t.Columns[bestCol]
	vars["Metric_Transaction_Velocity_Peak"] = FormatCount(peak)
	return vars
}

// ============================================================================
// TRENDS
// ============================================================================

// firstLast returns the first and last values of a column after sorting the
// rows ascending by their (time) key. Non-numeric cells count as 0.
func firstLast(t *ResultTable, col int) (first, last float64, ok bool) {
	if t == nil || len(t.Rows) == 0 || col < 0 || col >= len(t.Columns) {
		return 0, 0, false
	}
	keys := make([]int, len(t.Rows))
	for i := range keys {
		keys[i] = i
	}
	sort.SliceStable(keys, func(a, b int) bool {
		return sortKeyLess(t.Rows[keys[a]].Key, t.Rows[keys[b]].Key)
	})
	firstCell := t.Cell(keys[0], col)
	lastCell := t.Cell(keys[len(keys)-1], col)
	if firstCell.IsNum {
		first = firstCell.Num
	}
	if lastCell.IsNum {
		last = lastCell.Num
	}
	return first, last, true
}

// pctChange computes (last-first)/first*100, reporting a defined 0% change
// when the first value is 0.
func pctChange(first, last float64) float64 {
	if first == 0 {
		return 0
	}
	return (last - first) / first * 100
}

// VolumeTrend reports start/end values, absolute and relative change, and
// the trend direction of the first value column of a time-ordered table.
// Both the noun ("increase") and status ("increased") forms are emitted for
// template reuse. An empty table yields an empty mapping.
func VolumeTrend(t *ResultTable) Vars {
	first, last, ok := firstLast(t, 0)
	if !ok {
		return Vars{}
	}
	diff := last - first
	vars := Vars{
		"Metric_Volume_Start":       FormatCount(first),
		"Metric_Volume_End":         FormatCount(last),
		"Metric_Volume_Change_Abs":  FormatCount(math.Abs(diff)),
		"Metric_Volume_Change_Rate": FormatPercent(pctChange(first, last)),
	}
	if diff >= 0 {
		vars["Enum_Trend_Direction"] = TrendNounUp
		vars["Enum_Trend_Status"] = TrendStatusUp
	} else {
		vars["Enum_Trend_Direction"] = TrendNounDown
		vars["Enum_Trend_Status"] = TrendStatusDown
	}
	return vars
}

// VolumeTrendBrief is VolumeTrend without the relative change rate, for
// templates that only narrate the absolute movement.
func VolumeTrendBrief(t *ResultTable) Vars {
	vars := VolumeTrend(t)
	delete(vars, "Metric_Volume_Change_Rate")
	return vars
}

// PriceTrend reports the start/end year and price of a year-keyed price
// table, the adjectival direction, and a ready change description.
func PriceTrend(t *ResultTable) Vars {
	if t == nil || len(t.Rows) == 0 || len(t.Columns) == 0 {
		return Vars{}
	}
	keys := make([]int, len(t.Rows))
	for i := range keys {
		keys[i] = i
	}
	sort.SliceStable(keys, func(a, b int) bool {
		return sortKeyLess(t.Rows[keys[a]].Key, t.Rows[keys[b]].Key)
	})
	firstRow, lastRow := keys[0], keys[len(keys)-1]

	var first, last float64
	if c := t.Cell(firstRow, 0); c.IsNum {
		first = c.Num
	}
	if c := t.Cell(lastRow, 0); c.IsNum {
		last = c.Num
	}
	pct := pctChange(first, last)

	dir, verb := TrendAdjUp, TrendStatusUp
	if pct < 0 {
		dir, verb = TrendAdjDown, TrendStatusDown
	}
	return Vars{
		"Enum_Trend_Direction":    dir,
		"Metric_Price_Start":      FormatCount(first),
		"Metric_Year_Start":       t.Rows[firstRow].Key,
		"Metric_Price_End":        FormatCount(last),
		"Metric_Year_End":         t.Rows[lastRow].Key,
		"Text_Change_Description": verb + " " + FormatPercent(pct) + "%",
	}
}

// MonthlyPriceTrend reports the absolute price movement of a month-keyed
// table, with the adjectival and noun direction forms.
func MonthlyPriceTrend(t *ResultTable) Vars {
	first, last, ok := firstLast(t, 0)
	if !ok {
		return Vars{}
	}
	diff := last - first
	dir, noun := TrendAdjUp, TrendNounUp
	if diff < 0 {
		dir, noun = TrendAdjDown, TrendNounDown
	}
	return Vars{
		"Enum_Trend_Direction":    dir,
		"Metric_Price_Start":      FormatCount(first),
		"Metric_Price_End":        FormatCount(last),
		"Enum_Trend_Noun":         noun,
		"Metric_Price_Change_Abs": FormatCount(math.Abs(diff)),
	}
}

// FlowTrend reports supply and deal movements from the first two value
// columns of a time-ordered table, in noun form. Tables with fewer than two
// value columns yield an empty mapping.
func FlowTrend(t *ResultTable) Vars {
	supFirst, supLast, ok := firstLast(t, 0)
	if !ok {
		return Vars{}
	}
	dealFirst, dealLast, ok := firstLast(t, 1)
	if !ok {
		return Vars{}
	}

	vars := Vars{
		"Metric_Supply_Volume_Start": FormatCount(supFirst),
		"Metric_Supply_Volume_End":   FormatCount(supLast),
		"Metric_Supply_Change_Rate":  FormatPercent(pctChange(supFirst, supLast)),
		"Metric_Deal_Volume_Start":   FormatCount(dealFirst),
		"Metric_Deal_Volume_End":     FormatCount(dealLast),
		"Metric_Deal_Change_Rate":    FormatPercent(pctChange(dealFirst, dealLast)),
	}
	vars["Enum_Supply_Trend_Direction"] = trendNoun(supLast - supFirst)
	vars["Enum_Deal_Trend_Direction"] = trendNoun(dealLast - dealFirst)
	return vars
}

// AreaFlowTrend mirrors FlowTrend for area columns, in status form.
func AreaFlowTrend(t *ResultTable) Vars {
	supFirst, supLast, ok := firstLast(t, 0)
	if !ok {
		return Vars{}
	}
	dealFirst, dealLast, ok := firstLast(t, 1)
	if !ok {
		return Vars{}
	}
	return Vars{
		"Enum_Supply_Area_Trend":         trendStatus(supLast - supFirst),
		"Metric_Supply_Area_Change_Rate": FormatPercent(pctChange(supFirst, supLast)),
		"Enum_Deal_Area_Trend":           trendStatus(dealLast - dealFirst),
		"Metric_Deal_Area_Change_Rate":   FormatPercent(pctChange(dealFirst, dealLast)),
	}
}

// CapacityTrend reports area and price movements from two named columns of
// a time-ordered capacity table.
func CapacityTrend(t *ResultTable, areaCol, priceCol string) Vars {
	ai := t.ColumnIndex(areaCol)
	pi := t.ColumnIndex(priceCol)
	aFirst, aLast, ok := firstLast(t, ai)
	if !ok {
		return Vars{}
	}
	pFirst, pLast, ok := firstLast(t, pi)
	if !ok {
		return Vars{}
	}
	return Vars{
		"Metric_Area_Start":          FormatCount(aFirst),
		"Metric_Area_End":            FormatCount(aLast),
		"Metric_Area_Change_Rate":    FormatPercent(pctChange(aFirst, aLast)),
		"Enum_Area_Trend_Direction":  trendStatus(aLast - aFirst),
		"Metric_Price_Start":         FormatCount(pFirst),
		"Metric_Price_End":           FormatCount(pLast),
		"Metric_Price_Change_Rate":   FormatPercent(pctChange(pFirst, pLast)),
		"Enum_Price_Trend_Direction": trendStatus(pLast - pFirst),
	}
}

func trendNoun(diff float64) string {
	if diff >= 0 {
		return TrendNounUp
	}
	return TrendNounDown
}

func trendStatus(diff float64) string {
	if diff >= 0 {
		return TrendStatusUp
	}
	return TrendStatusDown
}
