package engine

import (
	"strconv"
	"time"
)

// ============================================================================
// DATA MODEL — Observation frames and result tables
// ============================================================================
// A Frame holds raw observations column-wise with explicit types and
// per-value validity; a ResultTable is the segment-keyed output of the
// aggregation, crosstab, and compaction stages, ready for rendering.
// ============================================================================

// SeriesKind identifies the storage type of a Frame column.
type SeriesKind int

const (
	KindLabel SeriesKind = iota
	KindNumeric
	KindTime
)

// Series is one column of a Frame. Numeric and time values carry a validity
// mask: coercion failures become missing values rather than zeros, so they
// can be excluded from aggregation denominators.
type Series struct {
	kind   SeriesKind
	labels []string
	nums   []float64
	times  []time.Time
	valid  []bool
}

// NewLabelSeries creates a string-typed column.
func NewLabelSeries(vals []string) *Series {
	return &Series{kind: KindLabel, labels: vals}
}

// NewNumericSeries creates a numeric column with every value valid.
func NewNumericSeries(vals []float64) *Series {
	valid := make([]bool, len(vals))
	for i := range valid {
		valid[i] = true
	}
	return &Series{kind: KindNumeric, nums: vals, valid: valid}
}

// NewNumericSeriesMasked creates a numeric column with an explicit validity
// mask. The mask must be the same length as vals.
func NewNumericSeriesMasked(vals []float64, valid []bool) *Series {
	return &Series{kind: KindNumeric, nums: vals, valid: valid}
}

// NewTimeSeries creates a temporal column with an explicit validity mask.
func NewTimeSeries(vals []time.Time, valid []bool) *Series {
	return &Series{kind: KindTime, times: vals, valid: valid}
}

// Kind returns the storage type of the series.
func (s *Series) Kind() SeriesKind { return s.kind }

// Len returns the number of values in the series.
func (s *Series) Len() int {
	switch s.kind {
	case KindNumeric:
		return len(s.nums)
	case KindTime:
		return len(s.times)
	default:
		return len(s.labels)
	}
}

// Label returns the string value at i. Numeric and time series render
// through their natural text form so callers can group on any column.
func (s *Series) Label(i int) string {
	if i < 0 || i >= s.Len() {
		return ""
	}
	switch s.kind {
	case KindLabel:
		return s.labels[i]
	case KindNumeric:
		if !s.valid[i] {
			return ""
		}
		return strconv.FormatFloat(s.nums[i], 'f', -1, 64)
	default:
		if !s.valid[i] {
			return ""
		}
		return s.times[i].Format("2006-01-02")
	}
}

// Num returns the numeric value at i and whether it is present.
func (s *Series) Num(i int) (float64, bool) {
	if s.kind != KindNumeric || i < 0 || i >= len(s.nums) || !s.valid[i] {
		return 0, false
	}
	return s.nums[i], true
}

// Time returns the temporal value at i and whether it is present.
func (s *Series) Time(i int) (time.Time, bool) {
	if s.kind != KindTime || i < 0 || i >= len(s.times) || !s.valid[i] {
		return time.Time{}, false
	}
	return s.times[i], true
}

// ============================================================================
// FRAME
// ============================================================================

// Frame is a column-ordered observation table. Stages never mutate a Frame
// in place: operations that add columns return a new Frame sharing the
// untouched series.
type Frame struct {
	cols []string
	data map[string]*Series
}

// NewFrame creates an empty Frame.
func NewFrame() *Frame {
	return &Frame{data: make(map[string]*Series)}
}

// SetColumn adds or replaces a column. Column order records first insertion.
func (f *Frame) SetColumn(name string, s *Series) {
	if _, ok := f.data[name]; !ok {
		f.cols = append(f.cols, name)
	}
	f.data[name] = s
}

// Columns returns column names in insertion order.
func (f *Frame) Columns() []string {
	out := make([]string, len(f.cols))
	copy(out, f.cols)
	return out
}

// Column returns the named series, or nil if absent.
func (f *Frame) Column(name string) *Series {
	return f.data[name]
}

// HasColumn reports whether the frame contains the named column.
func (f *Frame) HasColumn(name string) bool {
	_, ok := f.data[name]
	return ok
}

// Len returns the row count (length of the first column).
func (f *Frame) Len() int {
	if len(f.cols) == 0 {
		return 0
	}
	return f.data[f.cols[0]].Len()
}

// clone returns a shallow copy sharing all series. Used by stages that
// append a derived column without touching the input.
func (f *Frame) clone() *Frame {
	out := &Frame{
		cols: make([]string, len(f.cols)),
		data: make(map[string]*Series, len(f.data)),
	}
	copy(out.cols, f.cols)
	for k, v := range f.data {
		out.data[k] = v
	}
	return out
}

// ============================================================================
// RESULT TABLE
// ============================================================================

// Cell is one result-table value: either numeric or plain text. Blank
// non-numeric cells (as produced by compaction) have IsNum=false and an
// empty Text. The frac flag marks cells of columns that carry fractional
// values, so every number in such a column renders with the same scale.
type Cell struct {
	Num   float64
	Text  string
	IsNum bool
	frac  bool
}

// NumCell wraps a numeric value.
func NumCell(v float64) Cell { return Cell{Num: v, IsNum: true} }

// TextCell wraps a text value.
func TextCell(s string) Cell { return Cell{Text: s} }

// String renders the cell. Whole numbers print without decimals so counts
// keep their integer presentation; cells marked fractional always print
// two decimals, even when the value happens to be whole.
func (c Cell) String() string {
	if !c.IsNum {
		return c.Text
	}
	if !c.frac && c.Num == float64(int64(c.Num)) {
		return strconv.FormatInt(int64(c.Num), 10)
	}
	return strconv.FormatFloat(c.Num, 'f', 2, 64)
}

// Row is one keyed row of a ResultTable.
type Row struct {
	Key   string
	Cells []Cell
}

// ResultTable is the output of aggregation, crosstab, and compaction: rows
// keyed by a segment label, columns named after metrics (standard tables)
// or column-dimension segments (crosstabs). Row order reflects ascending
// numeric lower bound of the key labels, not insertion order.
type ResultTable struct {
	KeyCol  string   // name of the key (row) dimension
	ColDim  string   // crosstab only: name of the column dimension
	Columns []string // value column names, in declaration order
	Rows    []Row
}

// NumRows returns the row count.
func (t *ResultTable) NumRows() int { return len(t.Rows) }

// NumCols returns the value-column count.
func (t *ResultTable) NumCols() int { return len(t.Columns) }

// ColumnIndex returns the position of a value column, or -1.
func (t *ResultTable) ColumnIndex(name string) int {
	for i, c := range t.Columns {
		if c == name {
			return i
		}
	}
	return -1
}

// RowByKey returns the row with the given key, or nil.
func (t *ResultTable) RowByKey(key string) *Row {
	for i := range t.Rows {
		if t.Rows[i].Key == key {
			return &t.Rows[i]
		}
	}
	return nil
}

// Cell returns the cell at (row, col) or a blank text cell when out of range.
func (t *ResultTable) Cell(row, col int) Cell {
	if row < 0 || row >= len(t.Rows) || col < 0 || col >= len(t.Rows[row].Cells) {
		return Cell{}
	}
	return t.Rows[row].Cells[col]
}

// Transpose flips a standard table into presentation orientation: value
// columns become rows and segment keys become columns. Cell types are
// preserved.
func (t *ResultTable) Transpose() *ResultTable {
	out := &ResultTable{KeyCol: t.KeyCol}
	out.Columns = make([]string, 0, len(t.Rows))
	for _, r := range t.Rows {
		out.Columns = append(out.Columns, r.Key)
	}
	for ci, name := range t.Columns {
		row := Row{Key: name, Cells: make([]Cell, 0, len(t.Rows))}
		for ri := range t.Rows {
			row.Cells = append(row.Cells, t.Cell(ri, ci))
		}
		out.Rows = append(out.Rows, row)
	}
	return out
}

// Vars is a flat mapping of named conclusion values handed to the narrative
// text layer. Values are always strings, already formatted for templates.
type Vars map[string]string

// Merge folds other into v, overwriting on key collision, and returns v.
func (v Vars) Merge(other Vars) Vars {
	for k, val := range other {
		v[k] = val
	}
	return v
}
