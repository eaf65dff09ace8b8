package naming

import "time"

// Interval is a closed time window.
type Interval struct {
	Start time.Time
	End   time.Time
}

// Contains reports whether ts falls inside the interval, bounds included.
func (iv Interval) Contains(ts time.Time) bool {
	return !ts.Before(iv.Start) && !ts.After(iv.End)
}

// SplitInterval cuts [start, end] into non-overlapping sub-intervals of the
// given chunk size. Each interval ends one microsecond before the next one
// starts; the final interval ends exactly at end. A start after end yields
// nil.
func SplitInterval(start, end time.Time, chunk time.Duration) []Interval {
	if start.After(end) {
		return nil
	}

	const edge = time.Microsecond

	var intervals []Interval
	curr := start
	for curr.Add(chunk).Before(end) {
		intervals = append(intervals, Interval{Start: curr, End: curr.Add(chunk - edge)})
		curr = curr.Add(chunk)
	}
	intervals = append(intervals, Interval{Start: curr, End: end})
	return intervals
}
