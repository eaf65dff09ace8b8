// Package dataset orchestrates access to a dataset split across many
// timestamped files. FileSet resolves a reference timestamp to one concrete
// file and keeps that single file open across consecutive requests;
// IntervalReader merges the files of a whole time window into one image.
package dataset

import (
	"iter"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/gridstore/gridstore/internal/handle"
	"github.com/gridstore/gridstore/internal/metrics"
	"github.com/gridstore/gridstore/pkg/errors"
	"github.com/gridstore/gridstore/pkg/naming"
	"github.com/gridstore/gridstore/pkg/types"
)

// FileSet reads and writes single-timestamp files of a multi-file dataset.
// Each instance owns at most one open file handle; requesting a different
// path closes the previous handle before the new one is opened. Instances
// are not safe for concurrent use.
type FileSet struct {
	tmpl *naming.Template
	open types.ImageOpenFunc
	mode types.Mode

	slot handle.Slot[types.ImageIO]

	log     *logrus.Entry
	metrics *metrics.Collector
}

// Option configures a FileSet.
type Option func(*FileSet)

// WithMode sets the open mode for all underlying files. Default: read.
func WithMode(mode types.Mode) Option {
	return func(s *FileSet) { s.mode = mode }
}

// WithLogger routes warnings from bulk iteration to the given logger.
func WithLogger(log *logrus.Logger) Option {
	return func(s *FileSet) { s.log = log.WithField("component", "dataset") }
}

// WithMetrics attaches a metrics collector.
func WithMetrics(c *metrics.Collector) Option {
	return func(s *FileSet) { s.metrics = c }
}

// NewFileSet creates a file set over the given naming template. The open
// function constructs the concrete codec for each resolved path.
func NewFileSet(tmpl *naming.Template, open types.ImageOpenFunc, opts ...Option) (*FileSet, error) {
	if err := tmpl.Validate(); err != nil {
		return nil, err
	}
	if open == nil {
		return nil, errors.New(errors.ErrCodeInvalidConfig, "nil open function")
	}

	s := &FileSet{
		tmpl: tmpl,
		open: open,
		mode: types.ModeRead,
		log:  logrus.StandardLogger().WithField("component", "dataset"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Template returns the naming template the set resolves paths with.
func (s *FileSet) Template() *naming.Template {
	return s.tmpl
}

// openPath makes path the set's current resource, closing the previous one
// first. The old handle is closed exactly once even when the new open
// fails.
func (s *FileSet) openPath(path string) (types.ImageIO, error) {
	if fid, ok := s.slot.Get(path); ok {
		return fid, nil
	}

	if err := s.slot.Close(); err != nil {
		s.log.WithError(err).WithField("path", s.slot.Key()).Warn("closing previous file failed")
	}

	fid, err := s.open(path, s.mode)
	if err != nil {
		return nil, err
	}
	s.metrics.RecordOpen(string(s.mode))
	if err := s.slot.Put(path, fid); err != nil {
		return nil, err
	}
	return fid, nil
}

// Read returns the image stored for the given reference timestamp.
//
// A nonexistent file reports RESOURCE_MISSING and a present but undecodable
// file READ_FAILURE, so callers iterating a date range can tell a gap in
// the data from a broken file.
func (s *FileSet) Read(timestamp time.Time) (*types.Image, error) {
	if s.mode == types.ModeWrite {
		return nil, errors.New(errors.ErrCodeNotSupported, "file set is open write-only")
	}

	path, err := s.tmpl.Locate(timestamp)
	if err != nil {
		s.metrics.RecordRead(metrics.OutcomeMissing)
		return nil, err
	}

	fid, err := s.openPath(path)
	if err != nil {
		s.metrics.RecordRead(metrics.OutcomeMissing)
		return nil, err
	}

	begin := time.Now()
	img, err := fid.Read(timestamp)
	if err != nil {
		s.metrics.RecordRead(metrics.OutcomeCorrupt)
		return nil, err
	}
	s.metrics.RecordRead(metrics.OutcomeOK)
	s.metrics.ObserveReadDuration(time.Since(begin))

	if img.Timestamp.IsZero() {
		img.Timestamp = timestamp
	}
	return img, nil
}

// Write persists an image under the path resolved for the given reference
// timestamp. Consecutive writes to the same resolved path reuse the open
// handle; switching paths flushes and closes the previous file first.
func (s *FileSet) Write(timestamp time.Time, img *types.Image) error {
	if !s.mode.Writable() {
		return errors.New(errors.ErrCodeWriteFailure, "file set is open read-only")
	}
	if err := img.Validate(); err != nil {
		return errors.Wrap(errors.ErrCodeWriteFailure, "invalid image", err)
	}

	path := s.tmpl.Resolve(timestamp)
	if cur, ok := s.slot.Current(); ok && s.slot.Key() != path {
		if err := cur.Flush(); err != nil {
			return errors.Wrap(errors.ErrCodeWriteFailure, "flushing previous file", err).WithPath(s.slot.Key())
		}
	}

	fid, err := s.openPath(path)
	if err != nil {
		return err
	}
	if err := fid.Write(img); err != nil {
		return err
	}
	s.metrics.RecordWrite()
	return nil
}

// Images yields one image per timestamp slot between start and end, both
// inclusive. Slots whose file is absent or broken yield a nil image after
// logging a warning; a single bad slot never aborts the iteration.
func (s *FileSet) Images(start, end time.Time) iter.Seq2[time.Time, *types.Image] {
	return func(yield func(time.Time, *types.Image) bool) {
		for ts := range s.tmpl.Timestamps(start, end) {
			img, err := s.Read(ts)
			if err != nil {
				s.log.WithError(err).WithField("timestamp", ts).Warn("skipping unreadable slot")
				img = nil
			}
			if !yield(ts, img) {
				return
			}
		}
	}
}

// Daily yields the images of a single calendar day.
func (s *FileSet) Daily(day time.Time) iter.Seq2[time.Time, *types.Image] {
	start := time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, day.Location())
	end := start.Add(24*time.Hour - time.Microsecond)
	return s.Images(start, end)
}

// Flush forces buffered writes of the current file to durable storage.
func (s *FileSet) Flush() error {
	if fid, ok := s.slot.Current(); ok {
		return fid.Flush()
	}
	return nil
}

// HandleStats returns the single-slot handle cache counters.
func (s *FileSet) HandleStats() handle.Stats {
	return s.slot.Stats()
}

// Close releases the current file handle. Close is idempotent.
func (s *FileSet) Close() error {
	return s.slot.Close()
}
