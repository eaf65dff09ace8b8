package types

import (
	"sort"
	"time"

	"github.com/gridstore/gridstore/pkg/errors"
)

// Mode describes how a resource is opened.
type Mode string

const (
	ModeRead   Mode = "r"
	ModeWrite  Mode = "w"
	ModeAppend Mode = "a"
)

// Writable reports whether the mode permits write operations.
func (m Mode) Writable() bool {
	return m == ModeWrite || m == ModeAppend
}

// Image is one spatial snapshot: index-aligned longitude/latitude sequences
// and one value array per named field. The points are not assumed to form a
// regular grid. Field slices are shared with the consumer, not copied.
type Image struct {
	Lon []float64 `json:"lon"`
	Lat []float64 `json:"lat"`

	Fields   map[string][]float64   `json:"fields"`
	Metadata map[string]interface{} `json:"metadata,omitempty"`

	// Timestamp is the reference timestamp the image was resolved from.
	// Zero means unknown.
	Timestamp time.Time `json:"timestamp,omitempty"`

	// TimeKey optionally names the field holding per-point observation
	// times, which may differ from the reference timestamp.
	TimeKey string `json:"time_key,omitempty"`

	// Dtype optionally records a per-field data-type descriptor as written
	// by the producing codec.
	Dtype map[string]string `json:"dtype,omitempty"`
}

// Len returns the number of points in the image.
func (img *Image) Len() int {
	return len(img.Lon)
}

// FieldNames returns the field names in sorted order.
func (img *Image) FieldNames() []string {
	names := make([]string, 0, len(img.Fields))
	for name := range img.Fields {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Field returns the value array for the named field. The returned slice is
// the image's own backing array.
func (img *Image) Field(name string) ([]float64, error) {
	values, ok := img.Fields[name]
	if !ok {
		return nil, errors.Newf(errors.ErrCodeFieldNotFound, "field %q not in image", name)
	}
	return values, nil
}

// FieldAt returns the name and values of the i-th field in sorted name
// order.
func (img *Image) FieldAt(i int) (string, []float64, error) {
	names := img.FieldNames()
	if i < 0 || i >= len(names) {
		return "", nil, errors.Newf(errors.ErrCodeFieldNotFound, "field index %d out of range [0,%d)", i, len(names))
	}
	return names[i], img.Fields[names[i]], nil
}

// Validate checks the image invariant: lon, lat, and every field array have
// the same length.
func (img *Image) Validate() error {
	if len(img.Lon) != len(img.Lat) {
		return errors.Newf(errors.ErrCodeInvalidData,
			"lon/lat length mismatch: %d != %d", len(img.Lon), len(img.Lat))
	}
	for name, values := range img.Fields {
		if len(values) != len(img.Lon) {
			return errors.Newf(errors.ErrCodeInvalidData,
				"field %q has %d values for %d points", name, len(values), len(img.Lon))
		}
	}
	return nil
}

// TimeSeries is one location's temporal record: an ordered timestamp
// sequence and one value array per field, aligned 1:1 with the timestamps.
type TimeSeries struct {
	// GPI is the grid point identifier the series belongs to.
	GPI int64 `json:"gpi"`

	Lon float64 `json:"lon"`
	Lat float64 `json:"lat"`

	Times    []time.Time            `json:"times"`
	Fields   map[string][]float64   `json:"fields"`
	Metadata map[string]interface{} `json:"metadata,omitempty"`
}

// Len returns the number of observations in the series.
func (ts *TimeSeries) Len() int {
	return len(ts.Times)
}

// FieldNames returns the field names in sorted order.
func (ts *TimeSeries) FieldNames() []string {
	names := make([]string, 0, len(ts.Fields))
	for name := range ts.Fields {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Field returns the value array for the named field.
func (ts *TimeSeries) Field(name string) ([]float64, error) {
	values, ok := ts.Fields[name]
	if !ok {
		return nil, errors.Newf(errors.ErrCodeFieldNotFound, "field %q not in time series", name)
	}
	return values, nil
}

// Validate checks the series invariant: every field array has the same
// length as the timestamp sequence.
func (ts *TimeSeries) Validate() error {
	for name, values := range ts.Fields {
		if len(values) != len(ts.Times) {
			return errors.Newf(errors.ErrCodeInvalidData,
				"field %q has %d values for %d timestamps", name, len(values), len(ts.Times))
		}
	}
	return nil
}
