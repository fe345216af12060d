package helpers

import (
	"encoding/csv"
	"fmt"
	"io"
	"strings"
	"unicode"

	"github.com/propstat-org/propstat/catalog"
	"github.com/propstat-org/propstat/engine"
)

// ============================================================================
// CSV HELPERS — observation frames in, result tables out
// ============================================================================
// Consumer reads the CSV from wherever it lives (file, export, upload).
// ParseObservationCSV converts the raw bytes into an analysis-ready frame;
// WriteResultTable renders a finished table back to CSV.
// ============================================================================

// numericCols are the observation headers coerced to numbers on load.
var numericCols = []string{
	catalog.ColArea,
	catalog.ColPrice,
	catalog.ColAvgPrice,
	catalog.ColSupplyFlg,
	catalog.ColDealFlg,
}

// ParseObservationCSV parses CSV bytes into an observation frame. Headers
// are snake-cased, so "Deal Date" and "deal_date" both map to the canonical
// date column. Unparsable numeric values load as missing, malformed rows
// are skipped.
func ParseObservationCSV(data []byte) (*engine.Frame, error) {
	reader := csv.NewReader(strings.NewReader(string(data)))

	headers, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("read csv headers: %w", err)
	}
	keys := make([]string, len(headers))
	for i, h := range headers {
		keys[i] = toSnakeCase(strings.TrimSpace(h))
	}

	cols := make(map[string][]string, len(keys))
	for _, k := range keys {
		cols[k] = nil
	}
	n := 0
	for {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			continue // skip malformed rows
		}
		for i, key := range keys {
			val := ""
			if i < len(row) {
				val = strings.TrimSpace(row[i])
			}
			cols[key] = append(cols[key], val)
		}
		n++
	}

	frame := engine.NewFrame()
	for _, key := range keys {
		vals := cols[key]
		for len(vals) < n {
			vals = append(vals, "")
		}
		frame.SetColumn(key, engine.NewLabelSeries(vals))
	}
	return engine.Preprocess(frame, catalog.ColDate, numericCols), nil
}

// WriteResultTable renders a finished table as CSV. columns overrides the
// printed header titles when non-empty; it must then cover the key column
// plus every value column.
func WriteResultTable(w io.Writer, t *engine.ResultTable, columns []string) error {
	cw := csv.NewWriter(w)

	header := append([]string{t.KeyCol}, t.Columns...)
	if len(columns) > 0 {
		if len(columns) != len(header) {
			return fmt.Errorf("%w: %d column titles for %d columns",
				engine.ErrDataShape, len(columns), len(header))
		}
		header = columns
	}
	if err := cw.Write(header); err != nil {
		return fmt.Errorf("write csv header: %w", err)
	}
	for ri := range t.Rows {
		rec := make([]string, 0, len(header))
		rec = append(rec, t.Rows[ri].Key)
		for ci := range t.Columns {
			rec = append(rec, t.Cell(ri, ci).String())
		}
		if err := cw.Write(rec); err != nil {
			return fmt.Errorf("write csv row: %w", err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// toSnakeCase converts "Deal Date" or "dealDate" to "deal_date".
func toSnakeCase(s string) string {
	var b strings.Builder
	prevLower := false
	for _, r := range s {
		switch {
		case r == ' ' || r == '-' || r == '.':
			b.WriteRune('_')
			prevLower = false
		case unicode.IsUpper(r):
			if prevLower {
				b.WriteRune('_')
			}
			b.WriteRune(unicode.ToLower(r))
			prevLower = false
		default:
			b.WriteRune(r)
			prevLower = unicode.IsLower(r) || unicode.IsDigit(r)
		}
	}
	return b.String()
}
