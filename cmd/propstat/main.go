package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/propstat-org/propstat/catalog"
	"github.com/propstat-org/propstat/engine"
	"github.com/propstat-org/propstat/helpers"
	"github.com/propstat-org/propstat/report"
	"github.com/propstat-org/propstat/store"
)

// ============================================================================
// PROPSTAT CLI — market tables and conclusions from raw observations
// ============================================================================

const version = "0.1.0"

func main() {
	// ── Flags ─────────────────────────────────────────────────────────────
	csvPath := flag.String("csv", "", "Path to observation CSV file")
	dbPath := flag.String("db", "", "Path to SQLite observation store")
	catalogPath := flag.String("catalog", "", "Path to YAML analysis catalog (default: built-in)")
	key := flag.String("key", "", "Run a single catalog entry instead of all")
	city := flag.String("city", "", "Filter: city")
	block := flag.String("block", "", "Filter: block")
	from := flag.String("from", "", "Filter: start date (YYYY-MM-DD, inclusive)")
	to := flag.String("to", "", "Filter: end date (YYYY-MM-DD, inclusive)")
	format := flag.String("format", "json", "Output format: json, csv")
	outFile := flag.String("out", "", "Write output to file instead of stdout")
	listKeys := flag.Bool("list", false, "Print catalog keys and exit")
	showVersion := flag.Bool("version", false, "Print version and exit")

	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, `Propstat — market tables and conclusions from raw observations

Usage:
  propstat --csv deals.csv --format csv
  propstat --db market.db --city Chengdu --from 2020-01-01 --key annual_price_trend
  propstat --db market.db --catalog custom.yaml --list

Flags:
`)
		flag.PrintDefaults()
		fmt.Fprintf(os.Stderr, `
Config:
  Settings load from propstat.yaml in the working directory or $HOME/.propstat,
  and from PROPSTAT_* environment variables. Flags win over both.
`)
	}
	flag.Parse()

	if *showVersion {
		fmt.Printf("propstat %s\n", version)
		os.Exit(0)
	}

	// ── Settings ──────────────────────────────────────────────────────────
	v := viper.New()
	v.SetConfigName("propstat")
	v.AddConfigPath(".")
	v.AddConfigPath("$HOME/.propstat")
	v.SetEnvPrefix("propstat")
	v.AutomaticEnv()
	v.SetDefault("log_level", "info")
	if err := v.ReadInConfig(); err != nil {
		if _, notFound := err.(viper.ConfigFileNotFoundError); !notFound {
			fatalf("read config: %v", err)
		}
	}
	if *dbPath == "" {
		*dbPath = v.GetString("db")
	}
	if *catalogPath == "" {
		*catalogPath = v.GetString("catalog")
	}

	logger := newLogger(v.GetString("log_level"))
	defer logger.Sync()
	log := logger.Sugar()

	// ── Catalog ───────────────────────────────────────────────────────────
	cat := catalog.Default()
	if *catalogPath != "" {
		loaded, err := catalog.Load(*catalogPath)
		if err != nil {
			fatalf("%v", err)
		}
		cat = loaded
	}
	if *listKeys {
		fmt.Println(strings.Join(cat.Keys(), "\n"))
		return
	}

	// ── Source ────────────────────────────────────────────────────────────
	var src store.ObservationSource
	switch {
	case *csvPath != "":
		data, err := os.ReadFile(*csvPath)
		if err != nil {
			fatalf("read observations: %v", err)
		}
		frame, err := helpers.ParseObservationCSV(data)
		if err != nil {
			fatalf("parse observations: %v", err)
		}
		src = frameSource{frame}
	case *dbPath != "":
		s, err := store.Open(*dbPath, log)
		if err != nil {
			fatalf("%v", err)
		}
		src = s
	default:
		fmt.Fprintln(os.Stderr, "Error: either --csv or --db is required")
		flag.Usage()
		os.Exit(1)
	}
	defer src.Close()

	// ── Run ───────────────────────────────────────────────────────────────
	ctx := context.Background()
	filter := store.QueryFilter{City: *city, Block: *block, DateFrom: *from, DateTo: *to}
	provider := report.NewProvider(src, cat, log)

	var sections []report.Section
	vars := engine.Vars{}
	if *key != "" {
		sec, err := provider.Run(ctx, *key, filter)
		if err != nil {
			fatalf("%v", err)
		}
		sections = []report.Section{sec}
		vars = sec.Vars
	} else {
		rep, err := provider.RunAll(ctx, filter)
		if err != nil {
			fatalf("%v", err)
		}
		sections = rep.Sections
		vars = rep.Vars
	}

	// ── Output ────────────────────────────────────────────────────────────
	writer := os.Stdout
	if *outFile != "" {
		f, err := os.Create(*outFile)
		if err != nil {
			fatalf("create output file: %v", err)
		}
		defer f.Close()
		writer = f
	}
	switch *format {
	case "csv":
		for _, sec := range sections {
			fmt.Fprintf(writer, "# %s\n", sec.Title)
			if err := helpers.WriteResultTable(writer, sec.Table, sec.Columns); err != nil {
				fatalf("write csv: %v", err)
			}
			fmt.Fprintln(writer)
		}
	default:
		writeJSON(writer, sections, vars)
	}
}

// frameSource serves a pre-loaded CSV frame. Filtering happens upstream in
// whatever produced the file, so the query filter is ignored.
type frameSource struct {
	frame *engine.Frame
}

func (s frameSource) Observations(context.Context, store.QueryFilter) (*engine.Frame, error) {
	return s.frame, nil
}

func (s frameSource) Close() error { return nil }

// ============================================================================
// OUTPUT
// ============================================================================

type jsonTable struct {
	KeyCol  string     `json:"keyCol"`
	Columns []string   `json:"columns"`
	Rows    [][]string `json:"rows"`
}

type jsonSection struct {
	Key   string      `json:"key"`
	Title string      `json:"title"`
	Table jsonTable   `json:"table"`
	Vars  engine.Vars `json:"vars,omitempty"`
}

func writeJSON(w *os.File, sections []report.Section, vars engine.Vars) {
	out := struct {
		Sections []jsonSection `json:"sections"`
		Vars     engine.Vars   `json:"vars"`
	}{Vars: vars}
	for _, sec := range sections {
		jt := jsonTable{KeyCol: sec.Table.KeyCol, Columns: sec.Table.Columns}
		for ri := range sec.Table.Rows {
			row := []string{sec.Table.Rows[ri].Key}
			for ci := range sec.Table.Columns {
				row = append(row, sec.Table.Cell(ri, ci).String())
			}
			jt.Rows = append(jt.Rows, row)
		}
		out.Sections = append(out.Sections, jsonSection{
			Key: sec.Key, Title: sec.Title, Table: jt, Vars: sec.Vars,
		})
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(out); err != nil {
		fatalf("encode json: %v", err)
	}
}

func newLogger(level string) *zap.Logger {
	cfg := zap.NewProductionConfig()
	if lvl, err := zap.ParseAtomicLevel(level); err == nil {
		cfg.Level = lvl
	}
	cfg.OutputPaths = []string{"stderr"}
	logger, err := cfg.Build()
	if err != nil {
		fatalf("init logger: %v", err)
	}
	return logger
}

func fatalf(format string, args ...interface{}) {
	fmt.Fprintf(os.Stderr, "Error: "+format+"\n", args...)
	os.Exit(1)
}
