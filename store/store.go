// Package store loads observation frames for analysis. The canonical
// backing is a SQLite snapshot of listing records, but anything that can
// produce a frame for a market filter satisfies ObservationSource.
package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	_ "github.com/mattn/go-sqlite3"
	"go.uber.org/zap"

	"github.com/propstat-org/propstat/catalog"
	"github.com/propstat-org/propstat/engine"
)

// QueryFilter narrows an observation query to one market slice. Empty
// fields are not filtered on. Dates are inclusive "YYYY-MM-DD" bounds.
type QueryFilter struct {
	City     string
	Block    string
	DateFrom string
	DateTo   string
}

// ObservationSource produces the raw frame an analysis runs against.
type ObservationSource interface {
	Observations(ctx context.Context, f QueryFilter) (*engine.Frame, error)
	Close() error
}

// SQLiteSource reads observations from a local SQLite snapshot.
type SQLiteSource struct {
	db  *sql.DB
	log *zap.SugaredLogger
}

// Open opens (creating if needed) a SQLite observation store.
func Open(path string, log *zap.SugaredLogger) (*SQLiteSource, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("open observation store: %w", err)
	}
	schema := `
	CREATE TABLE IF NOT EXISTS observations (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		city TEXT NOT NULL,
		block TEXT NOT NULL DEFAULT '',
		deal_date TEXT NOT NULL,
		area REAL,
		price REAL,
		avg_price REAL,
		supply_sets REAL NOT NULL DEFAULT 0,
		deal_sets REAL NOT NULL DEFAULT 0
	);
	CREATE INDEX IF NOT EXISTS idx_observations_slice
		ON observations (city, block, deal_date);
	`
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("init observation schema: %w", err)
	}
	return &SQLiteSource{db: db, log: log}, nil
}

// Close releases the underlying database handle.
func (s *SQLiteSource) Close() error { return s.db.Close() }

// Observation is one raw record for ingestion. Nil dimension values load
// as missing and stay out of aggregation denominators.
type Observation struct {
	City       string
	Block      string
	DealDate   string
	Area       *float64
	Price      *float64
	AvgPrice   *float64
	SupplySets float64
	DealSets   float64
}

// Insert adds raw observations in one transaction.
func (s *SQLiteSource) Insert(ctx context.Context, obs []Observation) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("insert observations: %w", err)
	}
	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO observations
			(city, block, deal_date, area, price, avg_price, supply_sets, deal_sets)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		tx.Rollback()
		return fmt.Errorf("insert observations: %w", err)
	}
	defer stmt.Close()
	for _, o := range obs {
		if _, err := stmt.ExecContext(ctx, o.City, o.Block, o.DealDate,
			nullable(o.Area), nullable(o.Price), nullable(o.AvgPrice),
			o.SupplySets, o.DealSets); err != nil {
			tx.Rollback()
			return fmt.Errorf("insert observations: %w", err)
		}
	}
	return tx.Commit()
}

func nullable(v *float64) interface{} {
	if v == nil {
		return nil
	}
	return *v
}

// Observations loads the frame for one market slice, with the canonical
// column names analyses expect.
func (s *SQLiteSource) Observations(ctx context.Context, f QueryFilter) (*engine.Frame, error) {
	q := `SELECT deal_date, area, price, avg_price, supply_sets, deal_sets
		FROM observations`
	var conds []string
	var args []interface{}
	if f.City != "" {
		conds = append(conds, "city = ?")
		args = append(args, f.City)
	}
	if f.Block != "" {
		conds = append(conds, "block = ?")
		args = append(args, f.Block)
	}
	if f.DateFrom != "" {
		conds = append(conds, "deal_date >= ?")
		args = append(args, f.DateFrom)
	}
	if f.DateTo != "" {
		conds = append(conds, "deal_date <= ?")
		args = append(args, f.DateTo)
	}
	if len(conds) > 0 {
		q += " WHERE " + strings.Join(conds, " AND ")
	}
	q += " ORDER BY deal_date, id"

	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("query observations: %w", err)
	}
	defer rows.Close()

	var (
		dates                 []string
		area, price, avgPrice column
		supplySets, dealSets  column
	)
	for rows.Next() {
		var date string
		var a, p, ap sql.NullFloat64
		var sup, deal float64
		if err := rows.Scan(&date, &a, &p, &ap, &sup, &deal); err != nil {
			return nil, fmt.Errorf("scan observation: %w", err)
		}
		dates = append(dates, date)
		area.add(a)
		price.add(p)
		avgPrice.add(ap)
		supplySets.add(sql.NullFloat64{Float64: sup, Valid: true})
		dealSets.add(sql.NullFloat64{Float64: deal, Valid: true})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("query observations: %w", err)
	}

	frame := engine.NewFrame()
	frame.SetColumn(catalog.ColDate, engine.NewLabelSeries(dates))
	frame.SetColumn(catalog.ColArea, area.series())
	frame.SetColumn(catalog.ColPrice, price.series())
	frame.SetColumn(catalog.ColAvgPrice, avgPrice.series())
	frame.SetColumn(catalog.ColSupplyFlg, supplySets.series())
	frame.SetColumn(catalog.ColDealFlg, dealSets.series())

	if s.log != nil {
		s.log.Debugw("loaded observations",
			"city", f.City, "block", f.Block, "rows", len(dates))
	}
	return engine.Preprocess(frame, catalog.ColDate, nil), nil
}

// column collects one numeric column with a missing-value mask.
type column struct {
	vals  []float64
	valid []bool
}

func (c *column) add(v sql.NullFloat64) {
	c.vals = append(c.vals, v.Float64)
	c.valid = append(c.valid, v.Valid)
}

func (c *column) series() *engine.Series {
	return engine.NewNumericSeriesMasked(c.vals, c.valid)
}
