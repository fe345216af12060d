package engine

import "errors"

// Error taxonomy.
//
// ErrConfig marks a malformed AnalysisConfig. Configuration errors are fatal
// and surface to the caller before any computation starts.
//
// ErrDataShape marks an observation table that is missing an expected column.
// Stages recover from it locally — an empty or unchanged result instead of an
// aborted report — so it appears in returned errors only where the caller
// explicitly asked for strict behavior.
var (
	ErrConfig    = errors.New("invalid analysis config")
	ErrDataShape = errors.New("unexpected table shape")
)
