package engine

import "fmt"

// ============================================================================
// ANALYSIS CONFIGURATION — declarative rules driving the pipeline
// ============================================================================
// Structured, field-named rules replace positional option lists: a config is
// validated once, before any computation, and is immutable afterwards.
// ============================================================================

// Table types.
const (
	TableStandard = "standard"
	TableCrosstab = "crosstab"
)

// Binning methods.
const (
	MethodRange  = "range"
	MethodPeriod = "period"
)

// Period granularities.
const (
	GranYear  = "year"
	GranMonth = "month"
)

// Aggregation functions.
const (
	AggSum   = "sum"
	AggCount = "count"
	AggMean  = "mean"
	AggMax   = "max"
	AggMin   = "min"
)

// Default presentation bounds. A crosstab margin occupies one presented
// slot, so the data area of a default crosstab is 14×16.
const (
	DefaultMaxRows = 15
	DefaultMaxCols = 17
)

// BinningRule converts a continuous or temporal column into a labeled
// segment column.
//
// For MethodRange, Step is the bin width and Format is a label template with
// two `{}` placeholders for the lower and upper bound ("{}-{}m²"). UnitScale
// handles columns stored in a smaller denomination than the step is written
// in: the step is multiplied by UnitScale before binning and every label
// bound is divided back (rounded to 2 decimals) when formatted. Scaled
// values never appear in the bin column itself.
//
// For MethodPeriod, Granularity selects the derived segment: calendar year
// or year-month.
type BinningRule struct {
	SourceCol   string  `yaml:"source_col"`
	TargetCol   string  `yaml:"target_col"`
	Method      string  `yaml:"method"`
	Step        float64 `yaml:"step,omitempty"`
	Format      string  `yaml:"format,omitempty"`
	Granularity string  `yaml:"granularity,omitempty"`
	UnitScale   float64 `yaml:"unit_scale,omitempty"`
}

// MetricRule names one output column and how to compute it. Filter is an
// exact-match pre-filter applied before grouping, e.g. {"supply_sets": 1}
// restricts the metric to rows flagged as supply records.
type MetricRule struct {
	Name      string             `yaml:"name"`
	SourceCol string             `yaml:"source_col"`
	Agg       string             `yaml:"agg"`
	Filter    map[string]float64 `yaml:"filter,omitempty"`
}

// AnalysisConfig describes one complete table analysis.
type AnalysisConfig struct {
	TableType  string        `yaml:"table_type"`
	Dimensions []BinningRule `yaml:"dimensions"`
	Metrics    []MetricRule  `yaml:"metrics"`

	// Crosstab only: which dimension targets form rows and columns.
	CrosstabRow string `yaml:"crosstab_row,omitempty"`
	CrosstabCol string `yaml:"crosstab_col,omitempty"`

	// Presentation bounds; zero means DefaultMaxRows/DefaultMaxCols.
	MaxRows int `yaml:"max_rows,omitempty"`
	MaxCols int `yaml:"max_cols,omitempty"`

	// Margins appends the "total" row and column on crosstabs.
	Margins bool `yaml:"margins,omitempty"`

	// Transpose flips a standard result into presentation orientation
	// (metrics as rows, segments as columns).
	Transpose bool `yaml:"transpose,omitempty"`
}

// Validate checks rule-shape errors that would make the analysis
// meaningless. Every returned error wraps ErrConfig.
func (c AnalysisConfig) Validate() error {
	switch c.TableType {
	case TableStandard:
		if len(c.Dimensions) == 0 {
			return fmt.Errorf("%w: standard table needs at least one dimension", ErrConfig)
		}
		if len(c.Metrics) == 0 {
			return fmt.Errorf("%w: standard table needs at least one metric", ErrConfig)
		}
	case TableCrosstab:
		if len(c.Dimensions) != 2 {
			return fmt.Errorf("%w: crosstab needs exactly two dimensions, got %d", ErrConfig, len(c.Dimensions))
		}
		if len(c.Metrics) != 1 {
			return fmt.Errorf("%w: crosstab needs exactly one metric, got %d", ErrConfig, len(c.Metrics))
		}
		if c.CrosstabRow == "" || c.CrosstabCol == "" {
			return fmt.Errorf("%w: crosstab needs row and column dimension names", ErrConfig)
		}
		if !c.hasDimensionTarget(c.CrosstabRow) || !c.hasDimensionTarget(c.CrosstabCol) {
			return fmt.Errorf("%w: crosstab row/col must name dimension targets", ErrConfig)
		}
	default:
		return fmt.Errorf("%w: unknown table type %q", ErrConfig, c.TableType)
	}

	for _, d := range c.Dimensions {
		if err := d.validate(); err != nil {
			return err
		}
	}
	for _, m := range c.Metrics {
		if err := m.validate(); err != nil {
			return err
		}
	}
	return nil
}

func (c AnalysisConfig) hasDimensionTarget(name string) bool {
	for _, d := range c.Dimensions {
		if d.TargetCol == name {
			return true
		}
	}
	return false
}

func (r BinningRule) validate() error {
	if r.SourceCol == "" || r.TargetCol == "" {
		return fmt.Errorf("%w: binning rule needs source and target columns", ErrConfig)
	}
	switch r.Method {
	case MethodRange:
		if r.Step < 0 {
			return fmt.Errorf("%w: binning step must not be negative", ErrConfig)
		}
		if r.Format == "" {
			return fmt.Errorf("%w: range binning needs a label format", ErrConfig)
		}
	case MethodPeriod:
		if r.Granularity != GranYear && r.Granularity != GranMonth {
			return fmt.Errorf("%w: period binning needs granularity year or month", ErrConfig)
		}
	default:
		return fmt.Errorf("%w: unknown binning method %q", ErrConfig, r.Method)
	}
	return nil
}

func (m MetricRule) validate() error {
	if m.Name == "" || m.SourceCol == "" {
		return fmt.Errorf("%w: metric rule needs a name and a source column", ErrConfig)
	}
	switch m.Agg {
	case AggSum, AggCount, AggMean, AggMax, AggMin:
		return nil
	default:
		return fmt.Errorf("%w: unknown aggregation %q", ErrConfig, m.Agg)
	}
}

// effectiveStep applies the zero-step guard and the unit rescale.
func (r BinningRule) effectiveStep() float64 {
	step := r.Step
	if step <= 0 {
		step = 1
	}
	if r.UnitScale > 1 {
		step *= r.UnitScale
	}
	return step
}

func (c AnalysisConfig) maxRows() int {
	if c.MaxRows > 0 {
		return c.MaxRows
	}
	return DefaultMaxRows
}

func (c AnalysisConfig) maxCols() int {
	if c.MaxCols > 0 {
		return c.MaxCols
	}
	return DefaultMaxCols
}
