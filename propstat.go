// Package propstat turns raw real-estate observations into presentation-ready
// market tables and narrative conclusion variables.
//
// Usage:
//
//	import (
//	    "github.com/propstat-org/propstat/engine"
//	    "github.com/propstat-org/propstat/report"
//	)
//
//	table, err := engine.Analyze(frame, cfg)
//	vars := engine.Conclude(engine.ConcludeDominantSegment, table, 0)
//
// The engine takes an AnalysisConfig (usually from a catalog entry) and an
// observation Frame, and returns a finished ResultTable: binned, aggregated,
// margin-totaled, and compacted to presentation bounds. Conclusion routines
// then extract the named variables narrative templates substitute.
//
// Data access and report assembly live in the store and report packages.
// The engine never touches a file or the network — all computation is local.
package propstat
