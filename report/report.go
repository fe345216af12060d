// Package report runs catalog analyses against an observation source and
// assembles the render-ready sections: finished tables plus the flat
// conclusion variables that narrative templates substitute.
package report

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/propstat-org/propstat/catalog"
	"github.com/propstat-org/propstat/engine"
	"github.com/propstat-org/propstat/store"
)

// Section is one finished report building block.
type Section struct {
	Key     string
	Title   string
	Columns []string
	Table   *engine.ResultTable
	Vars    engine.Vars
}

// Report is the assembled output of one provider run.
type Report struct {
	RunID    string
	Filter   store.QueryFilter
	Sections []Section

	// Vars merges every section's conclusion variables. Later sections
	// win on name collisions, matching catalog order.
	Vars engine.Vars
}

// Provider binds an observation source to an analysis catalog.
type Provider struct {
	source  store.ObservationSource
	catalog *catalog.Catalog
	log     *zap.SugaredLogger
}

// NewProvider builds a provider. A nil catalog means the built-in one.
func NewProvider(src store.ObservationSource, cat *catalog.Catalog, log *zap.SugaredLogger) *Provider {
	if cat == nil {
		cat = catalog.Default()
	}
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	return &Provider{source: src, catalog: cat, log: log}
}

// Run executes one catalog entry against the filtered observations.
func (p *Provider) Run(ctx context.Context, key string, filter store.QueryFilter) (Section, error) {
	entry, ok := p.catalog.Get(key)
	if !ok {
		return Section{}, fmt.Errorf("run %q: unknown catalog entry", key)
	}
	frame, err := p.source.Observations(ctx, filter)
	if err != nil {
		return Section{}, fmt.Errorf("run %q: %w", key, err)
	}
	return p.section(frame, entry)
}

// RunAll executes every catalog entry over one shared observation load.
// A failing section is logged and skipped so one bad config or missing
// column costs a table, not the report.
func (p *Provider) RunAll(ctx context.Context, filter store.QueryFilter) (*Report, error) {
	frame, err := p.source.Observations(ctx, filter)
	if err != nil {
		return nil, err
	}
	rep := &Report{
		RunID:  uuid.NewString(),
		Filter: filter,
		Vars:   engine.Vars{},
	}
	for _, entry := range p.catalog.Entries() {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		sec, err := p.section(frame, entry)
		if err != nil {
			p.log.Warnw("section failed", "key", entry.Key, "error", err)
			continue
		}
		rep.Sections = append(rep.Sections, sec)
		rep.Vars = rep.Vars.Merge(sec.Vars)
	}
	p.log.Infow("report assembled",
		"run_id", rep.RunID, "sections", len(rep.Sections), "rows", frame.Len())
	return rep, nil
}

// section runs one entry's pipeline. Conclusions are extracted from the
// canonical table before any presentation transpose.
func (p *Provider) section(frame *engine.Frame, entry catalog.Entry) (Section, error) {
	cfg := entry.Config
	transpose := cfg.Transpose
	cfg.Transpose = false

	table, err := engine.Analyze(frame, cfg)
	if err != nil {
		return Section{}, err
	}
	vars := engine.Vars{}
	if entry.Conclusion != "" {
		vars = engine.Conclude(entry.Conclusion, table, entry.Threshold)
	}
	if transpose {
		table = table.Transpose()
	}
	// Column titles are authored for the canonical orientation; they do not
	// survive a transpose or a column fold.
	columns := entry.Columns
	if len(columns) != table.NumCols()+1 {
		columns = nil
	}
	p.log.Debugw("section built",
		"key", entry.Key, "rows", table.NumRows(), "vars", len(vars))
	return Section{
		Key:     entry.Key,
		Title:   entry.Title,
		Columns: columns,
		Table:   table,
		Vars:    vars,
	}, nil
}
