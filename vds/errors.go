package vds

import (
	"errors"
	"fmt"
)

// Sentinel kinds for every failure surfaced by seisvds.  Concrete errors wrap one
// of these so callers can test with errors.Is.
var (
	// ErrStoreUnavailable is returned when a store cannot be opened or its layout
	// cannot be read.
	ErrStoreUnavailable = errors.New("store unavailable")

	// ErrCoordinateNotFound is returned when a coordinate does not lie on an axis grid.
	ErrCoordinateNotFound = errors.New("coordinate not found")

	// ErrOutOfRange is returned for ordinal indices or boxes outside a volume.
	ErrOutOfRange = errors.New("out of range")

	// ErrFetch is returned when the store fails while bricks are being read.
	ErrFetch = errors.New("fetch failed")

	// ErrInvalidSlice is returned for slice specs that cannot be iterated, e.g., step 0.
	ErrInvalidSlice = errors.New("invalid slice")

	// ErrClosed is returned by any read on a closed session or store.
	ErrClosed = errors.New("closed")
)

// CoordinateError reports a coordinate that matched no sample on an axis.
type CoordinateError struct {
	Axis       string
	Coordinate float64
}

func (e *CoordinateError) Error() string {
	return fmt.Sprintf("%s coordinate %g not found", e.Axis, e.Coordinate)
}

func (e *CoordinateError) Unwrap() error {
	return ErrCoordinateNotFound
}

// RangeError reports an ordinal outside [Min, Max).
type RangeError struct {
	What  string
	Value int
	Min   int
	Max   int
}

func (e *RangeError) Error() string {
	return fmt.Sprintf("%s %d out of range [%d, %d)", e.What, e.Value, e.Min, e.Max)
}

func (e *RangeError) Unwrap() error {
	return ErrOutOfRange
}

// FetchError wraps a store failure for a particular channel and brick.
func FetchError(channel string, lod int, chunk ChunkPoint3d, err error) error {
	return fmt.Errorf("%w: channel %q lod %d brick %s: %w", ErrFetch, channel, lod, chunk, err)
}

// StoreError wraps a failure to open or describe a store.
func StoreError(what string, err error) error {
	if err == nil {
		return fmt.Errorf("%w: %s", ErrStoreUnavailable, what)
	}
	return fmt.Errorf("%w: %s: %w", ErrStoreUnavailable, what, err)
}

// SliceError returns an ErrInvalidSlice with a description.
func SliceError(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", ErrInvalidSlice, fmt.Sprintf(format, args...))
}
