package engine

import (
	"errors"
	"fmt"
	"testing"
)

// ============================================================================
// PIPELINE TESTS
// ============================================================================

// observations builds a small raw market frame: every record is both a
// supply and a deal so counts are easy to follow.
func observations(areas []float64) *Frame {
	n := len(areas)
	dates := make([]string, n)
	flags := make([]float64, n)
	for i := range areas {
		dates[i] = fmt.Sprintf("2023-%02d-15", i%12+1)
		flags[i] = 1
	}
	f := NewFrame()
	f.SetColumn("deal_date", NewLabelSeries(dates))
	f.SetColumn("area", NewNumericSeries(areas))
	f.SetColumn("supply_sets", NewNumericSeries(flags))
	f.SetColumn("deal_sets", NewNumericSeries(flags))
	return Preprocess(f, "deal_date", nil)
}

func standardAreaConfig() AnalysisConfig {
	return AnalysisConfig{
		TableType: TableStandard,
		Dimensions: []BinningRule{{
			SourceCol: "area", TargetCol: "area_range",
			Method: MethodRange, Step: 20, Format: "{}-{}m²",
		}},
		Metrics: []MetricRule{
			{Name: "supply", SourceCol: "area", Agg: AggCount,
				Filter: map[string]float64{"supply_sets": 1}},
			{Name: "deal", SourceCol: "area", Agg: AggCount,
				Filter: map[string]float64{"deal_sets": 1}},
		},
	}
}

// ── Config validation ────────────────────────────────────────────────────────

func TestAnalyzeRejectsBadConfigs(t *testing.T) {
	cases := map[string]AnalysisConfig{
		"standard without dimensions": {
			TableType: TableStandard,
			Metrics:   []MetricRule{{Name: "n", SourceCol: "area", Agg: AggCount}},
		},
		"standard without metrics": {
			TableType:  TableStandard,
			Dimensions: []BinningRule{{SourceCol: "area", TargetCol: "r", Method: MethodRange, Step: 20}},
		},
		"crosstab with one dimension": {
			TableType: TableCrosstab,
			Dimensions: []BinningRule{
				{SourceCol: "area", TargetCol: "r", Method: MethodRange, Step: 20},
			},
			Metrics:     []MetricRule{{Name: "n", SourceCol: "area", Agg: AggCount}},
			CrosstabRow: "r", CrosstabCol: "c",
		},
		"unknown table type": {TableType: "pie"},
	}
	for name, cfg := range cases {
		_, err := Analyze(observations([]float64{70}), cfg)
		if !errors.Is(err, ErrConfig) {
			t.Errorf("%s: got %v, want ErrConfig", name, err)
		}
	}
}

// ── Standard pipeline ────────────────────────────────────────────────────────

func TestAnalyzeStandard(t *testing.T) {
	got, err := Analyze(observations([]float64{60, 65, 82, 99, 140}), standardAreaConfig())
	if err != nil {
		t.Fatalf("Analyze failed: %v", err)
	}

	if got.NumRows() != 3 || got.NumCols() != 2 {
		t.Fatalf("shape: got %dx%d, want 3x2", got.NumRows(), got.NumCols())
	}
	row := got.RowByKey("60-80m²")
	if row == nil || row.Cells[0].Num != 2 || row.Cells[1].Num != 2 {
		t.Errorf("60-80m²: got %+v", row)
	}
	if got.Rows[2].Key != "140-160m²" {
		t.Errorf("row order: got %q last", got.Rows[2].Key)
	}
}

func TestAnalyzeStandardCompactsRangeTables(t *testing.T) {
	// 40 segments of one observation each, bounded to the default 15 rows.
	areas := make([]float64, 40)
	for i := range areas {
		areas[i] = float64(30 + 20*i)
	}
	got, err := Analyze(observations(areas), standardAreaConfig())
	if err != nil {
		t.Fatalf("Analyze failed: %v", err)
	}
	if got.NumRows() != DefaultMaxRows+1 {
		t.Fatalf("rows: got %d, want %d", got.NumRows(), DefaultMaxRows+1)
	}
	if sum := tableSum(got, 0); sum != 40 {
		t.Errorf("compaction lost observations: sum %v, want 40", sum)
	}
}

func TestAnalyzePeriodTablesNotCompacted(t *testing.T) {
	n := 20
	dates := make([]string, n)
	flags := make([]float64, n)
	for i := range dates {
		dates[i] = fmt.Sprintf("%d-06-01", 2000+i)
		flags[i] = 1
	}
	f := NewFrame()
	f.SetColumn("deal_date", NewLabelSeries(dates))
	f.SetColumn("area", NewNumericSeries(make([]float64, n)))
	f.SetColumn("deal_sets", NewNumericSeries(flags))
	f = Preprocess(f, "deal_date", nil)

	got, err := Analyze(f, AnalysisConfig{
		TableType: TableStandard,
		Dimensions: []BinningRule{{
			SourceCol: "deal_date", TargetCol: "year",
			Method: MethodPeriod, Granularity: GranYear,
		}},
		Metrics: []MetricRule{{Name: "deal", SourceCol: "area", Agg: AggCount,
			Filter: map[string]float64{"deal_sets": 1}}},
	})
	if err != nil {
		t.Fatalf("Analyze failed: %v", err)
	}
	if got.NumRows() != n {
		t.Errorf("period table folded: got %d rows, want %d", got.NumRows(), n)
	}
	if got.Rows[0].Key != "2000" || got.Rows[n-1].Key != "2019" {
		t.Errorf("years out of order: %q..%q", got.Rows[0].Key, got.Rows[n-1].Key)
	}
}

func TestAnalyzeTranspose(t *testing.T) {
	cfg := standardAreaConfig()
	cfg.Transpose = true

	got, err := Analyze(observations([]float64{60, 82}), cfg)
	if err != nil {
		t.Fatalf("Analyze failed: %v", err)
	}
	if got.NumRows() != 2 {
		t.Fatalf("transposed rows: got %d, want 2", got.NumRows())
	}
	if got.Rows[0].Key != "supply" || got.Rows[1].Key != "deal" {
		t.Errorf("metric rows: got %q, %q", got.Rows[0].Key, got.Rows[1].Key)
	}
	if got.Columns[0] != "60-80m²" {
		t.Errorf("segment columns: got %v", got.Columns)
	}
}

// ── Crosstab pipeline ────────────────────────────────────────────────────────

func TestAnalyzeCrosstab(t *testing.T) {
	f := observations([]float64{65, 70, 90, 95})
	f.SetColumn("price", NewNumericSeries([]float64{250, 260, 310, 380}))

	got, err := Analyze(f, AnalysisConfig{
		TableType: TableCrosstab,
		Dimensions: []BinningRule{
			{SourceCol: "price", TargetCol: "price_range",
				Method: MethodRange, Step: 1, UnitScale: 100, Format: "{}-{}M"},
			{SourceCol: "area", TargetCol: "area_range",
				Method: MethodRange, Step: 20, Format: "{}-{}m²"},
		},
		Metrics: []MetricRule{{Name: "deal", SourceCol: "area", Agg: AggCount,
			Filter: map[string]float64{"deal_sets": 1}}},
		CrosstabRow: "price_range",
		CrosstabCol: "area_range",
		Margins:     true,
	})
	if err != nil {
		t.Fatalf("Analyze failed: %v", err)
	}

	if got.Columns[len(got.Columns)-1] != MarginLabel {
		t.Fatalf("margin column missing: %v", got.Columns)
	}
	grand := got.Cell(got.NumRows()-1, got.NumCols()-1)
	if grand.Num != 4 {
		t.Errorf("grand total: got %v, want 4", grand.Num)
	}
	if row := got.RowByKey("2-3M"); row == nil || row.Cells[0].Num != 2 {
		t.Errorf("2-3M x 60-80m²: got %+v", got.RowByKey("2-3M"))
	}
}

func TestAnalyzeMissingColumnDegradesToEmpty(t *testing.T) {
	f := NewFrame()
	f.SetColumn("something_else", NewNumericSeries([]float64{1}))

	got, err := Analyze(f, standardAreaConfig())
	if err != nil {
		t.Fatalf("missing data columns must not error: %v", err)
	}
	if got.NumRows() != 0 {
		t.Errorf("expected empty result, got %d rows", got.NumRows())
	}
}
