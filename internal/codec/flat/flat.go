// Package flat is the reference file codec: value objects gob-encoded
// inside a zstd frame, one image per file or one record map per cell file.
// It exists so the orchestration layers can be exercised end to end without
// an external format library; production deployments plug in their own
// codecs through the same lifecycle contracts.
package flat

import (
	"encoding/gob"
	"os"
	"path/filepath"
	"time"

	"github.com/klauspost/compress/zstd"

	"github.com/gridstore/gridstore/pkg/errors"
	"github.com/gridstore/gridstore/pkg/types"
)

func init() {
	// Metadata maps carry interface values; gob needs the concrete types
	// announced up front.
	gob.Register("")
	gob.Register(0)
	gob.Register(int64(0))
	gob.Register(0.0)
	gob.Register(false)
	gob.Register(time.Time{})
	gob.Register([]interface{}{})
	gob.Register(map[string]interface{}{})
}

// statPath validates that path names a usable regular file for reading.
func statPath(path string) error {
	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		return errors.Newf(errors.ErrCodeResourceMissing, "no such file").WithPath(path)
	}
	if err != nil {
		return errors.Wrap(errors.ErrCodeResourceUnavailable, "stat failed", err).WithPath(path)
	}
	if info.IsDir() {
		return errors.Newf(errors.ErrCodeResourceUnavailable, "path is a directory").WithPath(path)
	}
	return nil
}

// decodeInto reads a zstd frame from path and gob-decodes it into v.
func decodeInto(path string, v interface{}) error {
	f, err := os.Open(path)
	if os.IsNotExist(err) {
		return errors.Newf(errors.ErrCodeResourceMissing, "no such file").WithPath(path)
	}
	if err != nil {
		return errors.Wrap(errors.ErrCodeResourceUnavailable, "open failed", err).WithPath(path)
	}
	defer f.Close()

	zr, err := zstd.NewReader(f)
	if err != nil {
		return errors.Wrap(errors.ErrCodeReadFailure, "zstd reader", err).WithPath(path)
	}
	defer zr.Close()

	if err := gob.NewDecoder(zr).Decode(v); err != nil {
		return errors.Wrap(errors.ErrCodeReadFailure, "corrupt content", err).WithPath(path)
	}
	return nil
}

// encodeTo gob-encodes v into a zstd frame at path, creating parent
// directories as needed.
func encodeTo(path string, v interface{}) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return errors.Wrap(errors.ErrCodeWriteFailure, "creating directories", err).WithPath(path)
	}

	f, err := os.Create(path)
	if err != nil {
		return errors.Wrap(errors.ErrCodeWriteFailure, "create failed", err).WithPath(path)
	}

	zw, err := zstd.NewWriter(f)
	if err != nil {
		f.Close()
		return errors.Wrap(errors.ErrCodeWriteFailure, "zstd writer", err).WithPath(path)
	}

	werr := gob.NewEncoder(zw).Encode(v)
	cerr := zw.Close()
	ferr := f.Close()
	for _, err := range []error{werr, cerr, ferr} {
		if err != nil {
			return errors.Wrap(errors.ErrCodeWriteFailure, "encode failed", err).WithPath(path)
		}
	}
	return nil
}

// ImageFile is one image file satisfying types.ImageIO. Writes are buffered
// in memory and persisted on Flush or Close.
type ImageFile struct {
	path string
	mode types.Mode

	pending *types.Image
	dirty   bool
	closed  bool
}

var _ types.ImageIO = (*ImageFile)(nil)

// OpenImage binds an image file handle to path. Read-mode opens only
// validate that the path exists; decoding happens on Read, and an open
// followed by close leaves no external state changed.
func OpenImage(path string, mode types.Mode) (*ImageFile, error) {
	if !mode.Writable() {
		if err := statPath(path); err != nil {
			return nil, err
		}
	}
	return &ImageFile{path: path, mode: mode}, nil
}

// Read decodes the full image content. The reference timestamp is attached
// when the stored image carries none.
func (f *ImageFile) Read(timestamp time.Time) (*types.Image, error) {
	if f.closed {
		return nil, errors.New(errors.ErrCodeResourceClosed, "image file is closed").WithPath(f.path)
	}
	if f.dirty {
		// Unflushed write visible through the same handle.
		return f.pending, nil
	}

	var img types.Image
	if err := decodeInto(f.path, &img); err != nil {
		return nil, err
	}
	if err := img.Validate(); err != nil {
		return nil, errors.Wrap(errors.ErrCodeReadFailure, "stored image violates invariants", err).WithPath(f.path)
	}
	if img.Timestamp.IsZero() {
		img.Timestamp = timestamp
	}
	return &img, nil
}

// Write buffers an image for this file.
func (f *ImageFile) Write(img *types.Image) error {
	if f.closed {
		return errors.New(errors.ErrCodeResourceClosed, "image file is closed").WithPath(f.path)
	}
	if !f.mode.Writable() {
		return errors.New(errors.ErrCodeWriteFailure, "opened read-only").WithPath(f.path)
	}
	if err := img.Validate(); err != nil {
		return errors.Wrap(errors.ErrCodeWriteFailure, "invalid image", err).WithPath(f.path)
	}
	f.pending = img
	f.dirty = true
	return nil
}

// Flush persists the buffered image. A no-op when nothing is pending.
func (f *ImageFile) Flush() error {
	if !f.dirty {
		return nil
	}
	if err := encodeTo(f.path, f.pending); err != nil {
		return err
	}
	f.dirty = false
	return nil
}

// Close flushes pending data and releases the handle. Idempotent.
func (f *ImageFile) Close() error {
	if f.closed {
		return nil
	}
	err := f.Flush()
	f.closed = true
	f.pending = nil
	return err
}

// tsRecord is the persisted form of one point's time series.
type tsRecord struct {
	Lon      float64
	Lat      float64
	Times    []time.Time
	Fields   map[string][]float64
	Metadata map[string]interface{}
}

// TimeSeriesFile is one cell file satisfying types.TimeSeriesIO. The cell's
// record map is decoded lazily on first read and rewritten as a whole on
// Flush.
type TimeSeriesFile struct {
	path string
	mode types.Mode

	records map[int64]tsRecord
	loaded  bool
	dirty   bool
	closed  bool
}

var _ types.TimeSeriesIO = (*TimeSeriesFile)(nil)

// OpenTimeSeries binds a cell file handle to path. In read and append mode
// the path must exist or be creatable respectively; content is decoded on
// first access.
func OpenTimeSeries(path string, mode types.Mode) (*TimeSeriesFile, error) {
	f := &TimeSeriesFile{path: path, mode: mode}
	switch mode {
	case types.ModeWrite:
		f.records = make(map[int64]tsRecord)
		f.loaded = true
	case types.ModeAppend:
		// Existing content is picked up on first access; a fresh file
		// starts empty.
		if err := statPath(path); errors.IsMissing(err) {
			f.records = make(map[int64]tsRecord)
			f.loaded = true
		} else if err != nil {
			return nil, err
		}
	default:
		if err := statPath(path); err != nil {
			return nil, err
		}
	}
	return f, nil
}

func (f *TimeSeriesFile) load() error {
	if f.loaded {
		return nil
	}
	records := make(map[int64]tsRecord)
	if err := decodeInto(f.path, &records); err != nil {
		return err
	}
	f.records = records
	f.loaded = true
	return nil
}

// ReadPoint returns the stored series for a grid point. A point with no
// record reports NOT_FOUND.
func (f *TimeSeriesFile) ReadPoint(gpi int64) (*types.TimeSeries, error) {
	if f.closed {
		return nil, errors.New(errors.ErrCodeResourceClosed, "cell file is closed").WithPath(f.path)
	}
	if err := f.load(); err != nil {
		return nil, err
	}

	rec, ok := f.records[gpi]
	if !ok {
		return nil, errors.Newf(errors.ErrCodeNotFound, "no record for grid point %d", gpi).WithPath(f.path)
	}
	return &types.TimeSeries{
		GPI:      gpi,
		Lon:      rec.Lon,
		Lat:      rec.Lat,
		Times:    rec.Times,
		Fields:   rec.Fields,
		Metadata: rec.Metadata,
	}, nil
}

// WritePoint stores a series record for a grid point, replacing any
// previous record.
func (f *TimeSeriesFile) WritePoint(gpi int64, ts *types.TimeSeries) error {
	if f.closed {
		return errors.New(errors.ErrCodeResourceClosed, "cell file is closed").WithPath(f.path)
	}
	if !f.mode.Writable() {
		return errors.New(errors.ErrCodeWriteFailure, "opened read-only").WithPath(f.path)
	}
	if err := ts.Validate(); err != nil {
		return errors.Wrap(errors.ErrCodeWriteFailure, "invalid time series", err).WithPath(f.path)
	}
	if err := f.load(); err != nil {
		return err
	}

	f.records[gpi] = tsRecord{
		Lon:      ts.Lon,
		Lat:      ts.Lat,
		Times:    ts.Times,
		Fields:   ts.Fields,
		Metadata: ts.Metadata,
	}
	f.dirty = true
	return nil
}

// Flush rewrites the cell file when records changed.
func (f *TimeSeriesFile) Flush() error {
	if !f.dirty {
		return nil
	}
	if err := encodeTo(f.path, f.records); err != nil {
		return err
	}
	f.dirty = false
	return nil
}

// Close flushes pending records and releases the handle. Idempotent.
func (f *TimeSeriesFile) Close() error {
	if f.closed {
		return nil
	}
	err := f.Flush()
	f.closed = true
	f.records = nil
	return err
}

// Openers returns ready-to-inject open functions for both contracts.
func Openers() (types.ImageOpenFunc, types.TimeSeriesOpenFunc) {
	imageOpen := func(path string, mode types.Mode) (types.ImageIO, error) {
		return OpenImage(path, mode)
	}
	tsOpen := func(path string, mode types.Mode) (types.TimeSeriesIO, error) {
		return OpenTimeSeries(path, mode)
	}
	return imageOpen, tsOpen
}
