// Package types defines the value objects and resource lifecycle contracts
// shared by all gridstore packages.
//
// # Value objects
//
// Image is one spatial snapshot of point-indexed field data: index-aligned
// longitude and latitude sequences plus one value array per named field,
// free-form metadata, and an optional reference timestamp. TimeSeries is one
// location's record: an ordered timestamp sequence with 1:1 aligned field
// arrays. Both are containers, immutable by convention; accessors hand out
// the backing arrays rather than copies.
//
// # Lifecycle contracts
//
// ImageIO and TimeSeriesIO describe the open/read/write/flush/close
// protocol every concrete file codec must satisfy. The orchestration layers
// in pkg/dataset and pkg/gridded operate purely against these interfaces and
// an injected open function:
//
//	open := func(path string, mode types.Mode) (types.ImageIO, error) {
//		return flat.OpenImage(path, mode)
//	}
//	set, err := dataset.NewFileSet(tmpl, open)
//	if err != nil {
//		return err
//	}
//	img, err := set.Read(time.Date(2015, 1, 2, 0, 0, 0, 0, time.UTC))
//
// Codecs that cannot write implement Write and Flush as explicit
// NOT_SUPPORTED errors, never as silent no-ops.
package types
