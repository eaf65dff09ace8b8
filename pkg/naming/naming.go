// Package naming maps reference timestamps to concrete file paths and
// enumerates the timestamp slots a dataset defines over a date range.
package naming

import (
	"iter"
	"path/filepath"
	"strings"
	"time"

	"github.com/gridstore/gridstore/pkg/errors"
)

// DefaultPlaceholder is the token substituted with the formatted timestamp
// in a filename template, written as "{datetime}".
const DefaultPlaceholder = "datetime"

// DefaultStep is the temporal resolution assumed when none is configured:
// one slot per day.
const DefaultStep = 24 * time.Hour

// Template describes how a reference timestamp maps to a relative file path
// under a root directory. It is constructed once at dataset-open time and
// read-only afterwards.
type Template struct {
	// Root is the dataset root directory all resolved paths live under.
	Root string

	// Subpaths are time layouts rendered per timestamp and joined as a
	// directory chain, e.g. ["2006", "01"] for year/month folders.
	Subpaths []string

	// Filename is the file name template containing one placeholder,
	// e.g. "dataset_{datetime}.dat".
	Filename string

	// TimeFormat is the Go reference layout substituted for the
	// placeholder, e.g. "2006-01-02".
	TimeFormat string

	// Placeholder overrides DefaultPlaceholder when set.
	Placeholder string

	// Step is the spacing between timestamp slots. Zero means DefaultStep.
	Step time.Duration

	// Exact marks the filename template as matching file names exactly.
	// When false, Locate treats the rendered name as a glob pattern.
	Exact bool
}

// Validate checks that the template can produce paths.
func (t *Template) Validate() error {
	if t.Filename == "" {
		return errors.New(errors.ErrCodeInvalidLayout, "filename template is empty")
	}
	if !strings.Contains(t.Filename, "{"+t.placeholder()+"}") {
		return errors.Newf(errors.ErrCodeInvalidLayout,
			"filename template %q has no {%s} placeholder", t.Filename, t.placeholder())
	}
	if t.TimeFormat == "" {
		return errors.New(errors.ErrCodeInvalidLayout, "time format is empty")
	}
	if t.Step < 0 {
		return errors.Newf(errors.ErrCodeInvalidLayout, "negative step %v", t.Step)
	}
	return nil
}

func (t *Template) placeholder() string {
	if t.Placeholder != "" {
		return t.Placeholder
	}
	return DefaultPlaceholder
}

func (t *Template) step() time.Duration {
	if t.Step > 0 {
		return t.Step
	}
	return DefaultStep
}

// Resolve builds the path for a reference timestamp. It is deterministic
// and touches no external state: the same (timestamp, template) pair always
// yields the same path string.
func (t *Template) Resolve(ts time.Time) string {
	name := strings.ReplaceAll(t.Filename, "{"+t.placeholder()+"}", ts.Format(t.TimeFormat))

	parts := make([]string, 0, len(t.Subpaths)+2)
	parts = append(parts, t.Root)
	for _, layout := range t.Subpaths {
		parts = append(parts, ts.Format(layout))
	}
	parts = append(parts, name)
	return filepath.Join(parts...)
}

// Locate returns the concrete path for a timestamp. For exact templates it
// is Resolve without disk access. For non-exact templates the rendered name
// is used as a glob pattern; zero matches report a missing resource and
// multiple matches an ambiguous one.
func (t *Template) Locate(ts time.Time) (string, error) {
	pattern := t.Resolve(ts)
	if t.Exact {
		return pattern, nil
	}

	matches, err := filepath.Glob(pattern)
	if err != nil {
		return "", errors.Wrap(errors.ErrCodeInvalidLayout, "bad glob pattern", err).WithPath(pattern)
	}
	switch len(matches) {
	case 0:
		return "", errors.Newf(errors.ErrCodeResourceMissing, "no file matches %q", pattern)
	case 1:
		return matches[0], nil
	default:
		return "", errors.Newf(errors.ErrCodeAmbiguousPath,
			"%d files match %q", len(matches), pattern)
	}
}

// Timestamps enumerates the slots between start and end, both inclusive,
// spaced by the template step. The sequence ascends, is finite, and is
// restartable: ranging over it twice yields the same slots. A start after
// end produces an empty sequence.
func (t *Template) Timestamps(start, end time.Time) iter.Seq[time.Time] {
	step := t.step()
	return func(yield func(time.Time) bool) {
		for ts := start; !ts.After(end); ts = ts.Add(step) {
			if !yield(ts) {
				return
			}
		}
	}
}

// TimestampSlice collects Timestamps into a slice.
func (t *Template) TimestampSlice(start, end time.Time) []time.Time {
	var out []time.Time
	for ts := range t.Timestamps(start, end) {
		out = append(out, ts)
	}
	return out
}

// TimestampFromName recovers the reference timestamp embedded in a file
// name produced by this template.
func (t *Template) TimestampFromName(name string) (time.Time, error) {
	idx := strings.Index(t.Filename, "{"+t.placeholder()+"}")
	if idx < 0 {
		return time.Time{}, errors.Newf(errors.ErrCodeInvalidLayout,
			"filename template %q has no {%s} placeholder", t.Filename, t.placeholder())
	}

	// Layout width is taken from a rendered sample; all supported layouts
	// are fixed width.
	width := len(time.Now().Format(t.TimeFormat))
	base := filepath.Base(name)
	if idx+width > len(base) {
		return time.Time{}, errors.Newf(errors.ErrCodeInvalidLayout,
			"name %q too short for template %q", base, t.Filename)
	}

	ts, err := time.Parse(t.TimeFormat, base[idx:idx+width])
	if err != nil {
		return time.Time{}, errors.Wrap(errors.ErrCodeInvalidLayout,
			"timestamp not parseable from name", err).WithContext("name", base)
	}
	return ts, nil
}
