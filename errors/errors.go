// Package errors defines all exported error sentinels for the bytesort library.
//
// This is the single source of truth for error values. Callers match
// against these sentinels with errors.Is; call sites wrap them with
// additional context via fmt.Errorf and %w.
package errors

import "errors"

// Sort errors
var (
	ErrZeroBudget       = errors.New("bytesort: cache size must be at least one byte")
	ErrBudgetTooSmall   = errors.New("bytesort: cache size too small for the number of runs")
	ErrScratchTruncated = errors.New("bytesort: scratch file is truncated")
)

// Verification errors
var (
	ErrNotSorted = errors.New("bytesort: file is not sorted")
)
