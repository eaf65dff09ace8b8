// Package gridded routes point-indexed time series access to the storage
// cell owning each point. A cell is a spatial partition backed by its own
// file; the dispatcher keeps exactly one cell open at a time and degrades
// gracefully when a cell file is missing.
package gridded

import (
	"fmt"
	"iter"
	"path/filepath"

	"github.com/sirupsen/logrus"

	"github.com/gridstore/gridstore/internal/handle"
	"github.com/gridstore/gridstore/internal/metrics"
	"github.com/gridstore/gridstore/pkg/errors"
	"github.com/gridstore/gridstore/pkg/types"
)

// Grid is the spatial index the dispatcher consults. It is provided
// externally; this package never implements point-to-cell mapping or
// nearest-neighbor search itself.
type Grid interface {
	// CellOf returns the cell owning the given grid point.
	CellOf(gpi int64) (int64, error)

	// NearestNeighbor returns the grid point closest to (lon, lat),
	// searching no farther than maxDist when maxDist > 0. A NOT_FOUND
	// error is the legitimate negative answer, not a fault.
	NearestNeighbor(lon, lat, maxDist float64) (int64, error)

	// LonLat returns the coordinates of a grid point.
	LonLat(gpi int64) (lon, lat float64, err error)

	// Points returns the grid points belonging to a cell.
	Points(cell int64) ([]int64, error)
}

// DefaultCellFormat renders cell ids as zero-padded four-digit file names.
const DefaultCellFormat = "%04d"

// Dataset dispatches time series reads and writes to cell files under a
// root directory. Each instance caches only the currently open cell; a
// request for a different cell closes the previous one first, exactly once.
// Instances are not safe for concurrent use.
type Dataset struct {
	path string
	grid Grid
	open types.TimeSeriesOpenFunc
	mode types.Mode

	// cellFormat renders a cell id into a file name.
	cellFormat string

	slot handle.Slot[types.TimeSeriesIO]

	log     *logrus.Entry
	metrics *metrics.Collector
}

// Option configures a Dataset.
type Option func(*Dataset)

// WithMode sets the open mode for cell files. Default: read.
func WithMode(mode types.Mode) Option {
	return func(d *Dataset) { d.mode = mode }
}

// WithCellFormat overrides the cell file name format.
func WithCellFormat(format string) Option {
	return func(d *Dataset) { d.cellFormat = format }
}

// WithLogger routes warnings from bulk iteration to the given logger.
func WithLogger(log *logrus.Logger) Option {
	return func(d *Dataset) { d.log = log.WithField("component", "gridded") }
}

// WithMetrics attaches a metrics collector.
func WithMetrics(c *metrics.Collector) Option {
	return func(d *Dataset) { d.metrics = c }
}

// NewDataset creates a cell-dispatched dataset rooted at path.
func NewDataset(path string, grid Grid, open types.TimeSeriesOpenFunc, opts ...Option) (*Dataset, error) {
	if grid == nil {
		return nil, errors.New(errors.ErrCodeInvalidConfig, "nil grid")
	}
	if open == nil {
		return nil, errors.New(errors.ErrCodeInvalidConfig, "nil open function")
	}

	d := &Dataset{
		path:       path,
		grid:       grid,
		open:       open,
		mode:       types.ModeRead,
		cellFormat: DefaultCellFormat,
		log:        logrus.StandardLogger().WithField("component", "gridded"),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d, nil
}

// CellPath returns the file path backing a cell.
func (d *Dataset) CellPath(cell int64) string {
	return filepath.Join(d.path, fmt.Sprintf(d.cellFormat, cell))
}

// openCell makes cell the dataset's current cell. The previous cell is
// flushed (in write mode) and closed before the new one is opened; when the
// open fails the slot stays empty so the next access retries instead of
// reusing a stale handle.
func (d *Dataset) openCell(cell int64) (types.TimeSeriesIO, error) {
	key := d.CellPath(cell)
	if fid, ok := d.slot.Get(key); ok {
		return fid, nil
	}

	switching := d.slot.Open()
	if switching && d.mode.Writable() {
		if cur, ok := d.slot.Current(); ok {
			if err := cur.Flush(); err != nil {
				return nil, errors.Wrap(errors.ErrCodeWriteFailure, "flushing previous cell", err).
					WithPath(d.slot.Key())
			}
		}
	}
	if err := d.slot.Close(); err != nil {
		d.log.WithError(err).WithField("path", key).Warn("closing previous cell failed")
	}

	fid, err := d.open(key, d.mode)
	if err != nil {
		return nil, err
	}
	d.metrics.RecordOpen(string(d.mode))
	if switching {
		d.metrics.RecordCellSwitch()
	}
	if err := d.slot.Put(key, fid); err != nil {
		return nil, err
	}
	return fid, nil
}

// ReadPoint returns the time series stored for a grid point, switching to
// the owning cell if necessary.
func (d *Dataset) ReadPoint(gpi int64) (*types.TimeSeries, error) {
	if d.mode == types.ModeWrite {
		return nil, errors.New(errors.ErrCodeNotSupported, "dataset is open write-only")
	}

	cell, err := d.grid.CellOf(gpi)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeNotFound, "no cell for grid point", err).
			WithContext("gpi", fmt.Sprint(gpi))
	}

	fid, err := d.openCell(cell)
	if err != nil {
		d.metrics.RecordRead(metrics.OutcomeMissing)
		return nil, err
	}

	ts, err := fid.ReadPoint(gpi)
	if err != nil {
		if errors.IsNotFound(err) {
			d.metrics.RecordRead(metrics.OutcomeMissing)
		} else {
			d.metrics.RecordRead(metrics.OutcomeCorrupt)
		}
		return nil, err
	}
	d.metrics.RecordRead(metrics.OutcomeOK)
	return ts, nil
}

// ReadLonLat returns the time series of the grid point nearest to
// (lon, lat), bounded by maxDist when maxDist > 0. When no point lies
// within the bound the grid's NOT_FOUND result is passed through, distinct
// from any read failure.
func (d *Dataset) ReadLonLat(lon, lat, maxDist float64) (*types.TimeSeries, error) {
	gpi, err := d.grid.NearestNeighbor(lon, lat, maxDist)
	if err != nil {
		return nil, err
	}
	return d.ReadPoint(gpi)
}

// WritePoint persists a time series for a grid point. The point's
// coordinates are attached from the grid before writing so reads round-trip
// location without another grid query.
func (d *Dataset) WritePoint(gpi int64, ts *types.TimeSeries) error {
	if !d.mode.Writable() {
		return errors.New(errors.ErrCodeWriteFailure, "dataset is open read-only")
	}
	if err := ts.Validate(); err != nil {
		return errors.Wrap(errors.ErrCodeWriteFailure, "invalid time series", err)
	}

	cell, err := d.grid.CellOf(gpi)
	if err != nil {
		return errors.Wrap(errors.ErrCodeNotFound, "no cell for grid point", err).
			WithContext("gpi", fmt.Sprint(gpi))
	}

	lon, lat, err := d.grid.LonLat(gpi)
	if err != nil {
		return errors.Wrap(errors.ErrCodeNotFound, "no coordinates for grid point", err).
			WithContext("gpi", fmt.Sprint(gpi))
	}
	ts.GPI = gpi
	ts.Lon = lon
	ts.Lat = lat

	fid, err := d.openCell(cell)
	if err != nil {
		return err
	}
	if err := fid.WritePoint(gpi, ts); err != nil {
		return err
	}
	d.metrics.RecordWrite()
	return nil
}

// Points yields the time series of every given grid point. A missing or
// corrupt cell yields a nil series for its points after a logged warning;
// iteration always continues with the next point.
func (d *Dataset) Points(gpis []int64) iter.Seq2[int64, *types.TimeSeries] {
	return func(yield func(int64, *types.TimeSeries) bool) {
		for _, gpi := range gpis {
			ts, err := d.ReadPoint(gpi)
			if err != nil {
				d.log.WithError(err).WithField("gpi", gpi).Warn("skipping unreadable point")
				ts = nil
			}
			if !yield(gpi, ts) {
				return
			}
		}
	}
}

// CellPoints yields the time series of every point in a cell.
func (d *Dataset) CellPoints(cell int64) (iter.Seq2[int64, *types.TimeSeries], error) {
	gpis, err := d.grid.Points(cell)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeNotFound, "no points for cell", err).
			WithContext("cell", fmt.Sprint(cell))
	}
	return d.Points(gpis), nil
}

// Flush forces buffered writes of the current cell to durable storage.
func (d *Dataset) Flush() error {
	if fid, ok := d.slot.Current(); ok {
		return fid.Flush()
	}
	return nil
}

// HandleStats returns the single-slot handle cache counters.
func (d *Dataset) HandleStats() handle.Stats {
	return d.slot.Stats()
}

// Close releases the current cell handle. Close is idempotent.
func (d *Dataset) Close() error {
	return d.slot.Close()
}
