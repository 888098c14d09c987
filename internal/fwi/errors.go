package fwi

import (
	"errors"
	"fmt"
)

var (
	// ErrNotInitialized is returned by Advance and State before Initialize
	// or Restore has supplied the previous day's codes.
	ErrNotInitialized = errors.New("fwi: fire code state not initialized")

	// ErrAlreadyInitialized is returned by a second call to Initialize.
	ErrAlreadyInitialized = errors.New("fwi: fire code state already initialized")
)

// ShapeError reports rasters that do not share the engine's grid.
type ShapeError struct {
	Field      string
	Rows, Cols int
	WantRows   int
	WantCols   int
}

func (e *ShapeError) Error() string {
	return fmt.Sprintf("fwi: %s is %dx%d, want %dx%d", e.Field, e.Rows, e.Cols, e.WantRows, e.WantCols)
}

// RangeError reports pixels outside a code's physically valid range. It is
// only produced when strict range checking is enabled.
type RangeError struct {
	Code     string
	Count    int
	Min, Max float64
	Sample   float64
}

func (e *RangeError) Error() string {
	return fmt.Sprintf("fwi: %d %s pixels outside [%g, %g] (e.g. %g)", e.Count, e.Code, e.Min, e.Max, e.Sample)
}

// DomainError reports pixels whose inputs were all finite but whose output is
// NaN or infinite.
type DomainError struct {
	Stage string
	Count int
}

func (e *DomainError) Error() string {
	return fmt.Sprintf("fwi: %s produced %d non-finite pixels from finite inputs", e.Stage, e.Count)
}
