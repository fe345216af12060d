package engine

import "sort"

// ============================================================================
// COMPACTION — bounded presentation tables with exact totals
// ============================================================================
// Long-tailed segment tables are folded so a slide never shows more than the
// configured number of rows (and, for crosstabs, columns). The fold keeps
// the first N segments by ascending lower bound and merges everything past
// them into one "≥X" bucket whose numeric cells are the exact sums of the
// folded rows. Crosstab margins are detached before folding and re-derived
// from scratch afterwards, so the reported total is always exact no matter
// how much was merged away.
// ============================================================================

// Compact bounds a standard table to maxRows data rows. Tables that already
// fit are returned unchanged; otherwise the output has exactly maxRows+1
// rows, the last being the merged bucket. Non-numeric cells of the bucket
// row are left blank. Applying Compact again with the same bound is a no-op.
func Compact(t *ResultTable, maxRows int) *ResultTable {
	if t == nil || maxRows <= 0 || len(t.Rows) <= maxRows {
		return t
	}

	sorted := make([]Row, len(t.Rows))
	copy(sorted, t.Rows)
	sort.SliceStable(sorted, func(i, j int) bool { return sortKeyLess(sorted[i].Key, sorted[j].Key) })

	keep := sorted[:maxRows]
	tail := sorted[maxRows:]

	out := &ResultTable{KeyCol: t.KeyCol, ColDim: t.ColDim, Columns: t.Columns}
	out.Rows = append(out.Rows, keep...)
	out.Rows = append(out.Rows, foldRows(tail, len(t.Columns), InferUnit(t.KeyCol)))
	return out
}

// foldRows sums the tail into a single bucket row labeled with the lower
// bound of its first row plus the inferred unit.
func foldRows(tail []Row, ncols int, unit string) Row {
	label := "≥" + lowerBoundText(tail[0].Key) + unit
	merged := Row{Key: label, Cells: make([]Cell, ncols)}
	numeric := make([]bool, ncols)
	sums := make([]float64, ncols)

	for _, r := range tail {
		for ci := 0; ci < ncols && ci < len(r.Cells); ci++ {
			if r.Cells[ci].IsNum {
				numeric[ci] = true
				sums[ci] += r.Cells[ci].Num
			}
		}
	}
	for ci := 0; ci < ncols; ci++ {
		if numeric[ci] {
			merged.Cells[ci] = NumCell(sums[ci])
		} else {
			merged.Cells[ci] = TextCell("")
		}
	}
	return merged
}

// CompactCrosstab bounds a crosstab to maxRows×maxCols presented cells.
// Pre-existing "total" margins are detached first and do not count toward
// the fold decision; when margins are re-attached they occupy one presented
// slot each, so the data capacity is maxRows-1 by maxCols-1. After folding,
// the margin row and column are recomputed from the folded data rather than
// trimmed, which keeps the grand total exact.
func CompactCrosstab(t *ResultTable, maxRows, maxCols int) *ResultTable {
	if t == nil {
		return t
	}

	data, hadTotalRow, hadTotalCol := detachMargins(t)

	rowCap := maxRows
	if hadTotalRow && rowCap > 0 {
		rowCap--
	}
	colCap := maxCols
	if hadTotalCol && colCap > 0 {
		colCap--
	}

	folded := Compact(data, rowCap)
	folded = compactColumns(folded, colCap)

	if hadTotalRow || hadTotalCol {
		folded = attachMargins(folded, hadTotalRow, hadTotalCol)
	}
	return folded
}

// detachMargins strips any "total" row/column, reporting what was removed.
func detachMargins(t *ResultTable) (*ResultTable, bool, bool) {
	out := &ResultTable{KeyCol: t.KeyCol, ColDim: t.ColDim}

	totalCol := t.ColumnIndex(MarginLabel)
	for ci, name := range t.Columns {
		if ci != totalCol {
			out.Columns = append(out.Columns, name)
		}
	}

	hadTotalRow := false
	for ri := range t.Rows {
		if t.Rows[ri].Key == MarginLabel {
			hadTotalRow = true
			continue
		}
		row := Row{Key: t.Rows[ri].Key, Cells: make([]Cell, 0, len(out.Columns))}
		for ci := range t.Columns {
			if ci != totalCol {
				row.Cells = append(row.Cells, t.Cell(ri, ci))
			}
		}
		out.Rows = append(out.Rows, row)
	}
	return out, hadTotalRow, totalCol >= 0
}

// compactColumns applies the keep-first-N / merge-remainder rule to the
// column axis, mirroring the row fold.
func compactColumns(t *ResultTable, maxCols int) *ResultTable {
	if t == nil || maxCols <= 0 || len(t.Columns) <= maxCols {
		return t
	}

	idx := make([]int, len(t.Columns))
	for i := range idx {
		idx[i] = i
	}
	sort.SliceStable(idx, func(a, b int) bool { return sortKeyLess(t.Columns[idx[a]], t.Columns[idx[b]]) })

	keep := idx[:maxCols]
	tail := idx[maxCols:]
	mergedLabel := "≥" + lowerBoundText(t.Columns[tail[0]]) + InferUnit(t.ColDim)

	out := &ResultTable{KeyCol: t.KeyCol, ColDim: t.ColDim}
	for _, ci := range keep {
		out.Columns = append(out.Columns, t.Columns[ci])
	}
	out.Columns = append(out.Columns, mergedLabel)

	for _, r := range t.Rows {
		row := Row{Key: r.Key, Cells: make([]Cell, 0, maxCols+1)}
		for _, ci := range keep {
			row.Cells = append(row.Cells, r.Cells[ci])
		}
		sum := 0.0
		numeric := false
		for _, ci := range tail {
			if ci < len(r.Cells) && r.Cells[ci].IsNum {
				numeric = true
				sum += r.Cells[ci].Num
			}
		}
		if numeric {
			row.Cells = append(row.Cells, NumCell(sum))
		} else {
			row.Cells = append(row.Cells, TextCell(""))
		}
		out.Rows = append(out.Rows, row)
	}
	return out
}

// attachMargins re-derives the "total" row/column by summing the data cells.
func attachMargins(t *ResultTable, totalRow, totalCol bool) *ResultTable {
	out := &ResultTable{KeyCol: t.KeyCol, ColDim: t.ColDim}
	out.Columns = append(out.Columns, t.Columns...)
	if totalCol {
		out.Columns = append(out.Columns, MarginLabel)
	}

	ncols := len(t.Columns)
	colSums := make([]float64, ncols)
	grand := 0.0

	for _, r := range t.Rows {
		row := Row{Key: r.Key, Cells: make([]Cell, 0, len(out.Columns))}
		rowSum := 0.0
		for ci := 0; ci < ncols; ci++ {
			c := Cell{}
			if ci < len(r.Cells) {
				c = r.Cells[ci]
			}
			row.Cells = append(row.Cells, c)
			if c.IsNum {
				rowSum += c.Num
				colSums[ci] += c.Num
				grand += c.Num
			}
		}
		if totalCol {
			row.Cells = append(row.Cells, NumCell(rowSum))
		}
		out.Rows = append(out.Rows, row)
	}

	if totalRow {
		total := Row{Key: MarginLabel, Cells: make([]Cell, 0, len(out.Columns))}
		for ci := 0; ci < ncols; ci++ {
			total.Cells = append(total.Cells, NumCell(colSums[ci]))
		}
		if totalCol {
			total.Cells = append(total.Cells, NumCell(grand))
		}
		out.Rows = append(out.Rows, total)
	}
	return out
}
