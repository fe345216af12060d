package engine

import (
	"testing"
)

// ============================================================================
// AGGREGATION TESTS
// ============================================================================

// dealsFrame has two observations per segment label except "140-160m²",
// with supply/deal indicator flags.
func dealsFrame() *Frame {
	f := NewFrame()
	f.SetColumn("area_range", NewLabelSeries([]string{
		"60-80m²", "60-80m²", "80-100m²", "80-100m²", "140-160m²",
	}))
	f.SetColumn("area", NewNumericSeries([]float64{62, 75, 85, 99, 150}))
	f.SetColumn("supply_sets", NewNumericSeries([]float64{1, 0, 1, 1, 0}))
	f.SetColumn("deal_sets", NewNumericSeries([]float64{0, 1, 1, 1, 1}))
	return f
}

func TestAggregateCount(t *testing.T) {
	got := Aggregate(dealsFrame(), []string{"area_range"}, MetricRule{
		Name: "units", SourceCol: "area", Agg: AggCount,
	})

	if got.NumRows() != 3 {
		t.Fatalf("rows: got %d, want 3", got.NumRows())
	}
	want := map[string]float64{"60-80m²": 2, "80-100m²": 2, "140-160m²": 1}
	for key, n := range want {
		row := got.RowByKey(key)
		if row == nil {
			t.Fatalf("missing group %q", key)
		}
		if row.Cells[0].Num != n {
			t.Errorf("group %q: got %v, want %v", key, row.Cells[0].Num, n)
		}
	}
}

func TestAggregateFilterRestrictsRows(t *testing.T) {
	got := Aggregate(dealsFrame(), []string{"area_range"}, MetricRule{
		Name: "supply", SourceCol: "area", Agg: AggCount,
		Filter: map[string]float64{"supply_sets": 1},
	})

	if row := got.RowByKey("60-80m²"); row == nil || row.Cells[0].Num != 1 {
		t.Errorf("60-80m² supply count: got %v, want 1", got.RowByKey("60-80m²"))
	}
	// No supply rows in 140-160m²: the group does not appear at all.
	if got.RowByKey("140-160m²") != nil {
		t.Error("filtered-out group should not appear")
	}
}

func TestAggregateMeanSkipsMissing(t *testing.T) {
	f := NewFrame()
	f.SetColumn("year", NewLabelSeries([]string{"2023", "2023", "2023"}))
	f.SetColumn("avg_price", NewNumericSeriesMasked(
		[]float64{100, 0, 200}, []bool{true, false, true}))

	got := Aggregate(f, []string{"year"}, MetricRule{
		Name: "avg_price", SourceCol: "avg_price", Agg: AggMean,
	})
	if row := got.RowByKey("2023"); row == nil || row.Cells[0].Num != 150 {
		t.Errorf("mean should exclude missing values: got %v", got.RowByKey("2023"))
	}
}

func TestAggregateRowsSortedByLowerBound(t *testing.T) {
	f := NewFrame()
	f.SetColumn("area_range", NewLabelSeries([]string{
		"140-160m²", "60-80m²", "80-100m²",
	}))
	f.SetColumn("area", NewNumericSeries([]float64{150, 70, 90}))

	got := Aggregate(f, []string{"area_range"}, MetricRule{
		Name: "units", SourceCol: "area", Agg: AggCount,
	})
	want := []string{"60-80m²", "80-100m²", "140-160m²"}
	for i, key := range want {
		if got.Rows[i].Key != key {
			t.Errorf("row %d: got %q, want %q", i, got.Rows[i].Key, key)
		}
	}
}

func TestAggregateMissingColumnReturnsEmpty(t *testing.T) {
	got := Aggregate(dealsFrame(), []string{"no_such_dim"}, MetricRule{
		Name: "units", SourceCol: "area", Agg: AggCount,
	})
	if got.NumRows() != 0 {
		t.Errorf("expected empty table, got %d rows", got.NumRows())
	}
	if got.Columns[0] != "units" {
		t.Errorf("empty table keeps metric column: got %v", got.Columns)
	}
}

func TestAggregateUnbinnedRowsSkipped(t *testing.T) {
	f := NewFrame()
	f.SetColumn("area_range", NewLabelSeries([]string{"60-80m²", ""}))
	f.SetColumn("area", NewNumericSeries([]float64{70, 300}))

	got := Aggregate(f, []string{"area_range"}, MetricRule{
		Name: "units", SourceCol: "area", Agg: AggCount,
	})
	if got.NumRows() != 1 {
		t.Errorf("rows without a segment must not form a group: %d rows", got.NumRows())
	}
}

// ── Merge ────────────────────────────────────────────────────────────────────

func TestMergeOuterJoinFillsZero(t *testing.T) {
	supply := &ResultTable{KeyCol: "area_range", Columns: []string{"supply"}, Rows: []Row{
		{Key: "60-80m²", Cells: []Cell{NumCell(5)}},
		{Key: "80-100m²", Cells: []Cell{NumCell(3)}},
	}}
	deal := &ResultTable{KeyCol: "area_range", Columns: []string{"deal"}, Rows: []Row{
		{Key: "80-100m²", Cells: []Cell{NumCell(4)}},
		{Key: "140-160m²", Cells: []Cell{NumCell(2)}},
	}}

	got := Merge([]*ResultTable{supply, deal}, "area_range")

	if got.NumRows() != 3 || got.NumCols() != 2 {
		t.Fatalf("shape: got %dx%d, want 3x2", got.NumRows(), got.NumCols())
	}
	row := got.RowByKey("60-80m²")
	if !row.Cells[1].IsNum || row.Cells[1].Num != 0 {
		t.Errorf("absent metric should fill 0, got %+v", row.Cells[1])
	}
	row = got.RowByKey("140-160m²")
	if row.Cells[0].Num != 0 || row.Cells[1].Num != 2 {
		t.Errorf("140-160m²: got %+v", row.Cells)
	}
	if got.Rows[0].Key != "60-80m²" || got.Rows[2].Key != "140-160m²" {
		t.Errorf("merged rows out of order: %q..%q", got.Rows[0].Key, got.Rows[2].Key)
	}
}

// ── Number normalization ─────────────────────────────────────────────────────

func TestNormalizeNumbersUnifiesColumnScale(t *testing.T) {
	tbl := &ResultTable{KeyCol: "year", Columns: []string{"units", "avg_price"}, Rows: []Row{
		{Key: "2023", Cells: []Cell{NumCell(12.0), NumCell(104.57)}},
		{Key: "2024", Cells: []Cell{NumCell(9.0), NumCell(98.0)}},
	}}
	normalizeNumbers(tbl)

	if tbl.Cell(0, 0).String() != "12" {
		t.Errorf("count column: got %q, want 12", tbl.Cell(0, 0).String())
	}
	if tbl.Cell(0, 1).String() != "104.57" {
		t.Errorf("fractional column: got %q, want 104.57", tbl.Cell(0, 1).String())
	}
	if tbl.Cell(1, 1).String() != "98.00" {
		t.Errorf("whole value in fractional column: got %q, want 98.00", tbl.Cell(1, 1).String())
	}
	if tbl.Cell(1, 1).Num != 98 {
		t.Errorf("value must stay untruncated: got %v", tbl.Cell(1, 1).Num)
	}
}
