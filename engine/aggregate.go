package engine

import (
	"math"
	"sort"
	"strings"
)

// ============================================================================
// AGGREGATION — filtered group-by plus wide-table merge
// ============================================================================

// accum collects values for one group (or one margin) and evaluates any of
// the supported aggregation functions over them.
type accum struct {
	count int
	sum   float64
	max   float64
	min   float64
}

func (a *accum) add(v float64) {
	if a.count == 0 || v > a.max {
		a.max = v
	}
	if a.count == 0 || v < a.min {
		a.min = v
	}
	a.sum += v
	a.count++
}

func (a *accum) value(agg string) float64 {
	switch agg {
	case AggCount:
		return float64(a.count)
	case AggSum:
		return a.sum
	case AggMean:
		if a.count == 0 {
			return 0
		}
		return a.sum / float64(a.count)
	case AggMax:
		return a.max
	case AggMin:
		return a.min
	default:
		return a.sum
	}
}

// Aggregate groups f by the given segment columns and computes one metric
// per group, producing a one-row-per-group table whose single value column
// is named after the metric.
//
// The metric's pre-filter restricts input rows to exact matches before
// grouping. Missing source values never enter the accumulator, so they stay
// out of count and mean denominators. A missing group or source column is a
// data-shape condition, recovered by returning an empty table.
func Aggregate(f *Frame, groupCols []string, m MetricRule) *ResultTable {
	keyCol := strings.Join(groupCols, " / ")
	out := &ResultTable{KeyCol: keyCol, Columns: []string{m.Name}}

	if f == nil || len(groupCols) == 0 {
		return out
	}
	for _, g := range groupCols {
		if !f.HasColumn(g) {
			return out
		}
	}
	src := f.Column(m.SourceCol)
	if src == nil {
		return out
	}

	groups := make(map[string]*accum)
	order := make([]string, 0)

	n := f.Len()
	for i := 0; i < n; i++ {
		if !matchesFilter(f, i, m.Filter) {
			continue
		}
		key := groupKey(f, i, groupCols)
		if key == "" {
			continue // row fell outside every bin
		}
		v, ok := src.Num(i)
		if !ok {
			continue
		}
		a, exists := groups[key]
		if !exists {
			a = &accum{}
			groups[key] = a
			order = append(order, key)
		}
		a.add(v)
	}

	sort.SliceStable(order, func(i, j int) bool { return sortKeyLess(order[i], order[j]) })

	for _, key := range order {
		out.Rows = append(out.Rows, Row{
			Key:   key,
			Cells: []Cell{NumCell(groups[key].value(m.Agg))},
		})
	}
	return out
}

func matchesFilter(f *Frame, i int, filter map[string]float64) bool {
	for col, want := range filter {
		s := f.Column(col)
		if s == nil {
			return false
		}
		v, ok := s.Num(i)
		if !ok || v != want {
			return false
		}
	}
	return true
}

func groupKey(f *Frame, i int, groupCols []string) string {
	if len(groupCols) == 1 {
		return f.Column(groupCols[0]).Label(i)
	}
	parts := make([]string, 0, len(groupCols))
	for _, g := range groupCols {
		v := f.Column(g).Label(i)
		if v == "" {
			return ""
		}
		parts = append(parts, v)
	}
	return strings.Join(parts, " / ")
}

// Merge outer-joins per-metric result tables on the segment key. Groups
// present in only some metrics keep a 0 for the others, never a blank, so
// downstream math stays total-preserving. Column order follows the metric
// declaration order; rows are re-sorted by ascending lower bound.
func Merge(results []*ResultTable, keyCol string) *ResultTable {
	out := &ResultTable{KeyCol: keyCol}
	if len(results) == 0 {
		return out
	}
	if out.KeyCol == "" {
		out.KeyCol = results[0].KeyCol
	}

	type wide struct {
		key   string
		cells map[string]Cell
	}
	byKey := make(map[string]*wide)
	order := make([]string, 0)

	for _, r := range results {
		if r == nil {
			continue
		}
		out.Columns = append(out.Columns, r.Columns...)
		for _, row := range r.Rows {
			w, ok := byKey[row.Key]
			if !ok {
				w = &wide{key: row.Key, cells: make(map[string]Cell)}
				byKey[row.Key] = w
				order = append(order, row.Key)
			}
			for ci, name := range r.Columns {
				if ci < len(row.Cells) {
					w.cells[name] = row.Cells[ci]
				}
			}
		}
	}

	sort.SliceStable(order, func(i, j int) bool { return sortKeyLess(order[i], order[j]) })

	for _, key := range order {
		w := byKey[key]
		row := Row{Key: key, Cells: make([]Cell, 0, len(out.Columns))}
		for _, name := range out.Columns {
			if c, ok := w.cells[name]; ok {
				row.Cells = append(row.Cells, c)
			} else {
				row.Cells = append(row.Cells, NumCell(0))
			}
		}
		out.Rows = append(out.Rows, row)
	}
	return out
}

// normalizeNumbers unifies the presentation scale within each value column.
// A column holding any fractional value renders every numeric cell with two
// decimals; columns of whole values keep the plain integer form.
func normalizeNumbers(t *ResultTable) {
	for ci := range t.Columns {
		frac := false
		for ri := range t.Rows {
			c := t.Cell(ri, ci)
			if c.IsNum && c.Num != math.Trunc(c.Num) {
				frac = true
				break
			}
		}
		if !frac {
			continue
		}
		for ri := range t.Rows {
			if ci < len(t.Rows[ri].Cells) && t.Rows[ri].Cells[ci].IsNum {
				t.Rows[ri].Cells[ci].frac = true
			}
		}
	}
}
