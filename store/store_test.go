package store

import (
	"context"
	"testing"

	"github.com/propstat-org/propstat/catalog"
)

// ============================================================================
// SQLITE SOURCE TESTS
// ============================================================================

func openTestSource(t *testing.T) *SQLiteSource {
	t.Helper()
	src, err := Open(":memory:", nil)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	t.Cleanup(func() { src.Close() })
	return src
}

func f64(v float64) *float64 { return &v }

func seedObservations(t *testing.T, src *SQLiteSource) {
	t.Helper()
	err := src.Insert(context.Background(), []Observation{
		{City: "Chengdu", Block: "East", DealDate: "2023-04-15",
			Area: f64(89.5), Price: f64(260), AvgPrice: f64(29050), DealSets: 1},
		{City: "Chengdu", Block: "West", DealDate: "2023-05-02",
			Area: f64(120), Price: f64(410), AvgPrice: f64(34100), SupplySets: 1},
		{City: "Chengdu", Block: "East", DealDate: "2024-01-20",
			Area: nil, Price: f64(280), AvgPrice: f64(29800), DealSets: 1},
		{City: "Shenzhen", Block: "Bay", DealDate: "2023-06-01",
			Area: f64(75), Price: f64(900), AvgPrice: f64(120000), DealSets: 1},
	})
	if err != nil {
		t.Fatalf("Insert failed: %v", err)
	}
}

func TestObservationsLoadsTypedFrame(t *testing.T) {
	src := openTestSource(t)
	seedObservations(t, src)

	frame, err := src.Observations(context.Background(), QueryFilter{})
	if err != nil {
		t.Fatalf("Observations failed: %v", err)
	}
	if frame.Len() != 4 {
		t.Fatalf("rows: got %d, want 4", frame.Len())
	}
	if tm, ok := frame.Column(catalog.ColDate).Time(0); !ok || tm.Year() != 2023 {
		t.Errorf("date column not typed: %v/%v", tm, ok)
	}
	if v, ok := frame.Column(catalog.ColArea).Num(0); !ok || v != 89.5 {
		t.Errorf("area[0]: got %v/%v", v, ok)
	}
	// NULL dimensions load as missing.
	if _, ok := frame.Column(catalog.ColArea).Num(2); ok {
		t.Error("NULL area should be missing, not zero")
	}
	if v, _ := frame.Column(catalog.ColDealFlg).Num(0); v != 1 {
		t.Errorf("deal flag: got %v", v)
	}
}

func TestObservationsCityFilter(t *testing.T) {
	src := openTestSource(t)
	seedObservations(t, src)

	frame, err := src.Observations(context.Background(), QueryFilter{City: "Shenzhen"})
	if err != nil {
		t.Fatalf("Observations failed: %v", err)
	}
	if frame.Len() != 1 {
		t.Errorf("rows: got %d, want 1", frame.Len())
	}
}

func TestObservationsDateRangeFilter(t *testing.T) {
	src := openTestSource(t)
	seedObservations(t, src)

	frame, err := src.Observations(context.Background(), QueryFilter{
		City: "Chengdu", DateFrom: "2023-01-01", DateTo: "2023-12-31",
	})
	if err != nil {
		t.Fatalf("Observations failed: %v", err)
	}
	if frame.Len() != 2 {
		t.Errorf("rows: got %d, want 2", frame.Len())
	}
}

func TestObservationsBlockFilter(t *testing.T) {
	src := openTestSource(t)
	seedObservations(t, src)

	frame, err := src.Observations(context.Background(), QueryFilter{
		City: "Chengdu", Block: "East",
	})
	if err != nil {
		t.Fatalf("Observations failed: %v", err)
	}
	if frame.Len() != 2 {
		t.Errorf("rows: got %d, want 2", frame.Len())
	}
}

func TestObservationsEmptyStore(t *testing.T) {
	src := openTestSource(t)

	frame, err := src.Observations(context.Background(), QueryFilter{})
	if err != nil {
		t.Fatalf("Observations failed: %v", err)
	}
	if frame.Len() != 0 {
		t.Errorf("rows: got %d, want 0", frame.Len())
	}
}
