package dataset

import (
	"iter"
	"math"
	"time"

	"go.uber.org/multierr"

	"github.com/gridstore/gridstore/internal/metrics"
	"github.com/gridstore/gridstore/pkg/naming"
	"github.com/gridstore/gridstore/pkg/types"
)

// BatchFunc decides which reference timestamps belong to a batch. Different
// datasets slice time differently, so the strategy is injected; the default
// enumerates the file set's own timestamp slots.
type BatchFunc func(start, end time.Time) []time.Time

// MetadataPolicy controls how per-file metadata is merged during
// aggregation.
type MetadataPolicy int

const (
	// MetadataLastWins merges metadata maps key by key, later files
	// overwriting earlier ones. This is the default.
	MetadataLastWins MetadataPolicy = iota

	// MetadataPerFile keeps each source file's metadata separately, as a
	// sequence aligned to source file order under the "sources" key.
	MetadataPerFile
)

// SourceMetadata is one source file's contribution when MetadataPerFile is
// selected.
type SourceMetadata struct {
	Timestamp time.Time              `json:"timestamp"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
}

// Skipped records one file of a batch that could not be read.
type Skipped struct {
	Timestamp time.Time
	Err       error
}

// BatchReport summarizes one interval aggregation.
type BatchReport struct {
	// Candidates is the number of timestamps the batch strategy produced.
	Candidates int
	// Read is the number of files merged into the result.
	Read int
	// Skipped lists the files that were absent or unreadable.
	Skipped []Skipped
}

// Err combines all skip causes into one error, or nil when every candidate
// was read.
func (r *BatchReport) Err() error {
	errs := make([]error, 0, len(r.Skipped))
	for _, s := range r.Skipped {
		errs = append(errs, s.Err)
	}
	return multierr.Combine(errs...)
}

// IntervalReader merges every file of a caller-specified interval into one
// combined image. It wraps a FileSet rather than extending it, so any file
// set gains interval batching by composition.
type IntervalReader struct {
	set     *FileSet
	batch   BatchFunc
	policy  MetadataPolicy
	metrics *metrics.Collector
}

// IntervalOption configures an IntervalReader.
type IntervalOption func(*IntervalReader)

// WithBatchFunc injects the batch strategy.
func WithBatchFunc(fn BatchFunc) IntervalOption {
	return func(r *IntervalReader) { r.batch = fn }
}

// WithMetadataPolicy selects the metadata merge behavior.
func WithMetadataPolicy(p MetadataPolicy) IntervalOption {
	return func(r *IntervalReader) { r.policy = p }
}

// WithIntervalMetrics attaches a metrics collector for skip counting.
func WithIntervalMetrics(c *metrics.Collector) IntervalOption {
	return func(r *IntervalReader) { r.metrics = c }
}

// NewIntervalReader wraps a file set for interval-batched reading.
func NewIntervalReader(set *FileSet, opts ...IntervalOption) *IntervalReader {
	r := &IntervalReader{
		set:    set,
		policy: MetadataLastWins,
	}
	r.batch = set.Template().TimestampSlice
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Read opens and reads every file whose reference timestamp the batch
// strategy places inside [start, end] and concatenates the results along
// the point axis, in ascending timestamp order, preserving each file's
// internal point order. Absent or corrupt files are recorded in the report
// and skipped; they never abort the batch. Zero readable files yield an
// empty image, not an error.
func (r *IntervalReader) Read(start, end time.Time) (*types.Image, *BatchReport, error) {
	candidates := r.batch(start, end)
	report := &BatchReport{Candidates: len(candidates)}

	images := make([]*types.Image, 0, len(candidates))
	stamps := make([]time.Time, 0, len(candidates))
	for _, ts := range candidates {
		img, err := r.set.Read(ts)
		if err != nil {
			report.Skipped = append(report.Skipped, Skipped{Timestamp: ts, Err: err})
			r.metrics.RecordBatchSkip()
			continue
		}
		images = append(images, img)
		stamps = append(stamps, ts)
	}
	report.Read = len(images)

	merged := r.merge(images, stamps, start)
	return merged, report, nil
}

// Chunks yields one merged image per chunk-sized sub-interval of
// [start, end], the composition equivalent of reading short orbit files in
// larger half-orbit pieces.
func (r *IntervalReader) Chunks(start, end time.Time, chunk time.Duration) iter.Seq2[naming.Interval, *types.Image] {
	return func(yield func(naming.Interval, *types.Image) bool) {
		for _, iv := range naming.SplitInterval(start, end, chunk) {
			img, _, err := r.Read(iv.Start, iv.End)
			if err != nil {
				img = nil
			}
			if !yield(iv, img) {
				return
			}
		}
	}
}

// merge concatenates per-point arrays block by block. Whole per-file blocks
// are ordered by source timestamp; points inside a block are never
// reordered. Fields absent from one file are NaN-filled for that file's
// block so every field stays aligned with lon/lat.
func (r *IntervalReader) merge(images []*types.Image, stamps []time.Time, start time.Time) *types.Image {
	merged := &types.Image{
		Fields:    make(map[string][]float64),
		Timestamp: start,
	}
	if len(images) == 0 {
		return merged
	}

	total := 0
	fields := make(map[string]struct{})
	for _, img := range images {
		total += img.Len()
		for name := range img.Fields {
			fields[name] = struct{}{}
		}
	}

	merged.Lon = make([]float64, 0, total)
	merged.Lat = make([]float64, 0, total)
	for name := range fields {
		merged.Fields[name] = make([]float64, 0, total)
	}

	for _, img := range images {
		merged.Lon = append(merged.Lon, img.Lon...)
		merged.Lat = append(merged.Lat, img.Lat...)
		for name := range fields {
			values, ok := img.Fields[name]
			if !ok {
				values = nanBlock(img.Len())
			}
			merged.Fields[name] = append(merged.Fields[name], values...)
		}
		if img.TimeKey != "" {
			merged.TimeKey = img.TimeKey
		}
	}

	switch r.policy {
	case MetadataPerFile:
		sources := make([]SourceMetadata, len(images))
		for i, img := range images {
			sources[i] = SourceMetadata{Timestamp: stamps[i], Metadata: img.Metadata}
		}
		merged.Metadata = map[string]interface{}{"sources": sources}
	default:
		for _, img := range images {
			for k, v := range img.Metadata {
				if merged.Metadata == nil {
					merged.Metadata = make(map[string]interface{})
				}
				merged.Metadata[k] = v
			}
		}
	}

	return merged
}

func nanBlock(n int) []float64 {
	block := make([]float64, n)
	for i := range block {
		block[i] = math.NaN()
	}
	return block
}
