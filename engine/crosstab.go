package engine

import "sort"

// ============================================================================
// CROSSTAB — two-dimension pivot with margins
// ============================================================================

// MarginLabel names the margin row and column of a crosstab.
const MarginLabel = "total"

// Crosstab pivots one metric over two binned dimensions. Row and column
// labels are ordered by ascending numeric lower bound, never by bin-creation
// order. With margins enabled, a "total" row and column are appended last:
// plain sums for count and sum metrics, the metric's own aggregate over the
// underlying rows otherwise.
//
// A missing dimension or source column is recovered by returning an empty
// table.
func Crosstab(f *Frame, rowDim, colDim string, m MetricRule, margins bool) *ResultTable {
	out := &ResultTable{KeyCol: rowDim, ColDim: colDim}
	if f == nil || !f.HasColumn(rowDim) || !f.HasColumn(colDim) {
		return out
	}
	src := f.Column(m.SourceCol)
	if src == nil {
		return out
	}

	rows := f.Column(rowDim)
	cols := f.Column(colDim)

	type cellKey struct{ r, c string }
	cells := make(map[cellKey]*accum)
	rowMargins := make(map[string]*accum)
	colMargins := make(map[string]*accum)
	grand := &accum{}
	rowSeen := make(map[string]bool)
	colSeen := make(map[string]bool)
	var rowLabels, colLabels []string

	n := f.Len()
	for i := 0; i < n; i++ {
		if !matchesFilter(f, i, m.Filter) {
			continue
		}
		r, c := rows.Label(i), cols.Label(i)
		if r == "" || c == "" {
			continue
		}
		v, ok := src.Num(i)
		if !ok {
			continue
		}
		if !rowSeen[r] {
			rowSeen[r] = true
			rowLabels = append(rowLabels, r)
		}
		if !colSeen[c] {
			colSeen[c] = true
			colLabels = append(colLabels, c)
		}
		k := cellKey{r, c}
		a, exists := cells[k]
		if !exists {
			a = &accum{}
			cells[k] = a
		}
		a.add(v)

		ra, exists := rowMargins[r]
		if !exists {
			ra = &accum{}
			rowMargins[r] = ra
		}
		ra.add(v)

		ca, exists := colMargins[c]
		if !exists {
			ca = &accum{}
			colMargins[c] = ca
		}
		ca.add(v)

		grand.add(v)
	}

	sort.SliceStable(rowLabels, func(i, j int) bool { return sortKeyLess(rowLabels[i], rowLabels[j]) })
	sort.SliceStable(colLabels, func(i, j int) bool { return sortKeyLess(colLabels[i], colLabels[j]) })

	out.Columns = append(out.Columns, colLabels...)
	if margins {
		out.Columns = append(out.Columns, MarginLabel)
	}

	for _, r := range rowLabels {
		row := Row{Key: r, Cells: make([]Cell, 0, len(out.Columns))}
		for _, c := range colLabels {
			if a, ok := cells[cellKey{r, c}]; ok {
				row.Cells = append(row.Cells, NumCell(a.value(m.Agg)))
			} else {
				row.Cells = append(row.Cells, NumCell(0))
			}
		}
		if margins {
			row.Cells = append(row.Cells, NumCell(rowMargins[r].value(m.Agg)))
		}
		out.Rows = append(out.Rows, row)
	}

	if margins {
		total := Row{Key: MarginLabel, Cells: make([]Cell, 0, len(out.Columns))}
		for _, c := range colLabels {
			total.Cells = append(total.Cells, NumCell(colMargins[c].value(m.Agg)))
		}
		total.Cells = append(total.Cells, NumCell(grand.value(m.Agg)))
		out.Rows = append(out.Rows, total)
	}

	return out
}
