package types

import "time"

// ImageIO is the resource lifecycle contract for one open image file.
// Implementations are constructed by an ImageOpenFunc bound to a concrete
// path and mode; Open must validate the path without reading content, Read
// must fail with READ_FAILURE on corrupt content rather than returning
// partial data, and Close must be idempotent.
type ImageIO interface {
	// Read returns the full content of the open resource, optionally
	// interpreted relative to the given reference timestamp. A zero
	// timestamp means "whole content".
	Read(timestamp time.Time) (*Image, error)

	// Write persists an image to the open resource. Implementations
	// opened read-only, and read-only formats, return a WRITE_FAILURE or
	// NOT_SUPPORTED error instead of silently succeeding.
	Write(img *Image) error

	// Flush forces buffered writes to durable storage. A no-op for
	// read-only resources.
	Flush() error

	// Close releases the resource. Calling Close on an already-closed
	// handle must not fail.
	Close() error
}

// TimeSeriesIO is the resource lifecycle contract for one open cell file
// holding time series records keyed by grid point identifier.
type TimeSeriesIO interface {
	// ReadPoint returns the time series stored for the given grid point.
	ReadPoint(gpi int64) (*TimeSeries, error)

	// WritePoint persists a time series record for the given grid point.
	// The record's Lon/Lat are stored with it so later reads round-trip
	// location without consulting the grid.
	WritePoint(gpi int64, ts *TimeSeries) error

	Flush() error
	Close() error
}

// ImageOpenFunc constructs an ImageIO bound to path in the given mode.
// Codec-specific construction options are closed over by the caller.
// Opening a nonexistent path in read mode fails with RESOURCE_MISSING.
type ImageOpenFunc func(path string, mode Mode) (ImageIO, error)

// TimeSeriesOpenFunc constructs a TimeSeriesIO bound to a cell file.
type TimeSeriesOpenFunc func(path string, mode Mode) (TimeSeriesIO, error)

// Resampler interpolates image field values to arbitrary target locations.
// index and distance describe, per target location, the source points
// considered and their distances; weights carry the interpolation weights
// with NaN marking unused neighbors. The math itself is injected, never
// implemented by this layer.
type Resampler func(img *Image, index [][]int, distance, weights [][]float64) (map[string][]float64, error)
