package helpers

import (
	"errors"
	"strings"
	"testing"

	"github.com/propstat-org/propstat/catalog"
	"github.com/propstat-org/propstat/engine"
)

// ============================================================================
// CSV HELPER TESTS
// ============================================================================

var observationCSV = []byte(`Deal Date,Area,Price,Avg Price,Supply Sets,Deal Sets
2023-04-15,89.5,260,"29,050",1,0
2023-05-02,95,310,32600,0,1
2023-06-20,not a number,280,29800,1,1
`)

func TestParseObservationCSV(t *testing.T) {
	frame, err := ParseObservationCSV(observationCSV)
	if err != nil {
		t.Fatalf("ParseObservationCSV failed: %v", err)
	}

	if frame.Len() != 3 {
		t.Fatalf("rows: got %d, want 3", frame.Len())
	}
	for _, col := range []string{
		catalog.ColDate, catalog.ColArea, catalog.ColPrice,
		catalog.ColAvgPrice, catalog.ColSupplyFlg, catalog.ColDealFlg,
	} {
		if !frame.HasColumn(col) {
			t.Errorf("canonical column %q missing", col)
		}
	}

	if v, ok := frame.Column(catalog.ColArea).Num(0); !ok || v != 89.5 {
		t.Errorf("area[0]: got %v/%v", v, ok)
	}
	// Thousands separators in quoted cells parse.
	if v, ok := frame.Column(catalog.ColAvgPrice).Num(0); !ok || v != 29050 {
		t.Errorf("avg_price[0]: got %v/%v", v, ok)
	}
	// Unparsable numerics load as missing, not zero.
	if _, ok := frame.Column(catalog.ColArea).Num(2); ok {
		t.Error("bad numeric cell should be missing")
	}
	// Dates are typed.
	if tm, ok := frame.Column(catalog.ColDate).Time(1); !ok || tm.Year() != 2023 {
		t.Errorf("deal_date[1]: got %v/%v", tm, ok)
	}
}

func TestParseObservationCSVSkipsMalformedRows(t *testing.T) {
	data := []byte("deal_date,area\n2023-01-01,70\nbroken,\"row\n2023-02-01,80\n")
	frame, err := ParseObservationCSV(data)
	if err != nil {
		t.Fatalf("ParseObservationCSV failed: %v", err)
	}
	if frame.Len() == 0 {
		t.Error("well-formed rows should survive a malformed neighbor")
	}
}

func TestWriteResultTable(t *testing.T) {
	tbl := &engine.ResultTable{
		KeyCol:  "area_range",
		Columns: []string{"supply", "deal"},
		Rows: []engine.Row{
			{Key: "60-80m²", Cells: []engine.Cell{engine.NumCell(5), engine.NumCell(4)}},
			{Key: "≥140m²", Cells: []engine.Cell{engine.NumCell(2), engine.TextCell("")}},
		},
	}

	var b strings.Builder
	if err := WriteResultTable(&b, tbl, nil); err != nil {
		t.Fatalf("WriteResultTable failed: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(b.String()), "\n")
	if lines[0] != "area_range,supply,deal" {
		t.Errorf("header: got %q", lines[0])
	}
	if lines[1] != "60-80m²,5,4" {
		t.Errorf("row 1: got %q", lines[1])
	}
	if lines[2] != "≥140m²,2," {
		t.Errorf("row 2: got %q", lines[2])
	}
}

func TestWriteResultTableColumnOverride(t *testing.T) {
	tbl := &engine.ResultTable{
		KeyCol:  "area_range",
		Columns: []string{"deal"},
		Rows:    []engine.Row{{Key: "60-80m²", Cells: []engine.Cell{engine.NumCell(4)}}},
	}

	var b strings.Builder
	err := WriteResultTable(&b, tbl, []string{"Area Segment", "Transaction Units"})
	if err != nil {
		t.Fatalf("WriteResultTable failed: %v", err)
	}
	if !strings.HasPrefix(b.String(), "Area Segment,Transaction Units\n") {
		t.Errorf("override header: got %q", b.String())
	}
}

func TestWriteResultTableRejectsBadOverride(t *testing.T) {
	tbl := &engine.ResultTable{
		KeyCol:  "area_range",
		Columns: []string{"supply", "deal"},
	}
	var b strings.Builder
	err := WriteResultTable(&b, tbl, []string{"Only One Title"})
	if !errors.Is(err, engine.ErrDataShape) {
		t.Errorf("short override: got %v, want ErrDataShape", err)
	}
}

func TestToSnakeCase(t *testing.T) {
	cases := map[string]string{
		"Deal Date": "deal_date",
		"dealDate":  "deal_date",
		"avg-price": "avg_price",
		"area":      "area",
	}
	for in, want := range cases {
		if got := toSnakeCase(in); got != want {
			t.Errorf("toSnakeCase(%q): got %q, want %q", in, got, want)
		}
	}
}
