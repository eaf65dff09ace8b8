package flat

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gridstore/gridstore/pkg/errors"
	"github.com/gridstore/gridstore/pkg/types"
)

func sampleImage() *types.Image {
	return &types.Image{
		Lon: []float64{14.5, 15.1},
		Lat: []float64{47.1, 47.3},
		Fields: map[string][]float64{
			"sm": {0.21, 0.33},
		},
		Metadata:  map[string]interface{}{"platform": "ASCAT", "orbit": 12345},
		Timestamp: time.Date(2015, 1, 2, 0, 0, 0, 0, time.UTC),
	}
}

func TestImageRoundTrip(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "2015", "01", "img.dat")
	want := sampleImage()

	w, err := OpenImage(path, types.ModeWrite)
	require.NoError(t, err)
	require.NoError(t, w.Write(want))
	require.NoError(t, w.Close())

	r, err := OpenImage(path, types.ModeRead)
	require.NoError(t, err)
	defer r.Close()

	got, err := r.Read(time.Time{})
	require.NoError(t, err)
	assert.Equal(t, want.Lon, got.Lon)
	assert.Equal(t, want.Lat, got.Lat)
	assert.Equal(t, want.Fields, got.Fields)
	assert.Equal(t, "ASCAT", got.Metadata["platform"])
	assert.True(t, want.Timestamp.Equal(got.Timestamp))
}

func TestOpenImageMissing(t *testing.T) {
	t.Parallel()

	_, err := OpenImage(filepath.Join(t.TempDir(), "nope.dat"), types.ModeRead)
	require.Error(t, err)
	assert.True(t, errors.IsMissing(err))
}

func TestOpenImageOnDirectory(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	_, err := OpenImage(dir, types.ModeRead)
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.ErrCodeResourceUnavailable))
	assert.False(t, errors.IsMissing(err))
}

func TestImageReadCorrupt(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "bad.dat")
	require.NoError(t, os.WriteFile(path, []byte("this is not a zstd frame"), 0o644))

	r, err := OpenImage(path, types.ModeRead)
	require.NoError(t, err)
	defer r.Close()

	_, err = r.Read(time.Time{})
	require.Error(t, err)
	assert.True(t, errors.IsReadFailure(err))
	assert.False(t, errors.IsMissing(err))
}

func TestImageWriteReadOnly(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "img.dat")
	w, err := OpenImage(path, types.ModeWrite)
	require.NoError(t, err)
	require.NoError(t, w.Write(sampleImage()))
	require.NoError(t, w.Close())

	r, err := OpenImage(path, types.ModeRead)
	require.NoError(t, err)
	defer r.Close()

	err = r.Write(sampleImage())
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.ErrCodeWriteFailure))
}

func TestImageWriteInvalid(t *testing.T) {
	t.Parallel()

	w, err := OpenImage(filepath.Join(t.TempDir(), "img.dat"), types.ModeWrite)
	require.NoError(t, err)
	defer w.Close()

	bad := sampleImage()
	bad.Lat = bad.Lat[:1]
	err = w.Write(bad)
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.ErrCodeWriteFailure))
}

func TestImageCloseIdempotent(t *testing.T) {
	t.Parallel()

	w, err := OpenImage(filepath.Join(t.TempDir(), "img.dat"), types.ModeWrite)
	require.NoError(t, err)
	require.NoError(t, w.Write(sampleImage()))
	require.NoError(t, w.Close())
	require.NoError(t, w.Close())

	_, err = w.Read(time.Time{})
	assert.True(t, errors.IsCode(err, errors.ErrCodeResourceClosed))
}

func TestReadModeOpenLeavesNoTrace(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := filepath.Join(dir, "img.dat")
	w, err := OpenImage(path, types.ModeWrite)
	require.NoError(t, err)
	require.NoError(t, w.Write(sampleImage()))
	require.NoError(t, w.Close())

	before, err := os.Stat(path)
	require.NoError(t, err)

	r, err := OpenImage(path, types.ModeRead)
	require.NoError(t, err)
	require.NoError(t, r.Close())

	after, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, before.Size(), after.Size())
	assert.True(t, before.ModTime().Equal(after.ModTime()))
}

func sampleSeries(gpi int64) *types.TimeSeries {
	return &types.TimeSeries{
		GPI: gpi,
		Lon: 14.5,
		Lat: 47.1,
		Times: []time.Time{
			time.Date(2015, 1, 1, 0, 0, 0, 0, time.UTC),
			time.Date(2015, 1, 2, 0, 0, 0, 0, time.UTC),
		},
		Fields:   map[string][]float64{"sm": {0.2, 0.3}},
		Metadata: map[string]interface{}{"sensor": "metop-a"},
	}
}

func TestTimeSeriesRoundTrip(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "0001")

	w, err := OpenTimeSeries(path, types.ModeWrite)
	require.NoError(t, err)
	require.NoError(t, w.WritePoint(42, sampleSeries(42)))
	require.NoError(t, w.WritePoint(43, sampleSeries(43)))
	require.NoError(t, w.Close())

	r, err := OpenTimeSeries(path, types.ModeRead)
	require.NoError(t, err)
	defer r.Close()

	got, err := r.ReadPoint(42)
	require.NoError(t, err)
	assert.Equal(t, int64(42), got.GPI)
	assert.Equal(t, 14.5, got.Lon)
	assert.Equal(t, 47.1, got.Lat)
	assert.Equal(t, []float64{0.2, 0.3}, got.Fields["sm"])
	assert.Equal(t, "metop-a", got.Metadata["sensor"])
}

func TestTimeSeriesPointNotFound(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "0001")
	w, err := OpenTimeSeries(path, types.ModeWrite)
	require.NoError(t, err)
	require.NoError(t, w.WritePoint(1, sampleSeries(1)))
	require.NoError(t, w.Close())

	r, err := OpenTimeSeries(path, types.ModeRead)
	require.NoError(t, err)
	defer r.Close()

	_, err = r.ReadPoint(999)
	require.Error(t, err)
	assert.True(t, errors.IsNotFound(err))
}

func TestTimeSeriesAppend(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "0001")

	w, err := OpenTimeSeries(path, types.ModeWrite)
	require.NoError(t, err)
	require.NoError(t, w.WritePoint(1, sampleSeries(1)))
	require.NoError(t, w.Close())

	a, err := OpenTimeSeries(path, types.ModeAppend)
	require.NoError(t, err)
	require.NoError(t, a.WritePoint(2, sampleSeries(2)))
	require.NoError(t, a.Close())

	r, err := OpenTimeSeries(path, types.ModeRead)
	require.NoError(t, err)
	defer r.Close()

	for _, gpi := range []int64{1, 2} {
		_, err := r.ReadPoint(gpi)
		assert.NoError(t, err, "gpi %d", gpi)
	}
}

func TestTimeSeriesAppendFreshFile(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "0002")
	a, err := OpenTimeSeries(path, types.ModeAppend)
	require.NoError(t, err)
	require.NoError(t, a.WritePoint(7, sampleSeries(7)))
	require.NoError(t, a.Close())

	r, err := OpenTimeSeries(path, types.ModeRead)
	require.NoError(t, err)
	defer r.Close()

	_, err = r.ReadPoint(7)
	assert.NoError(t, err)
}

func TestTimeSeriesMissingCell(t *testing.T) {
	t.Parallel()

	_, err := OpenTimeSeries(filepath.Join(t.TempDir(), "0042"), types.ModeRead)
	require.Error(t, err)
	assert.True(t, errors.IsMissing(err))
}

func TestTimeSeriesCloseIdempotent(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "0001")
	w, err := OpenTimeSeries(path, types.ModeWrite)
	require.NoError(t, err)
	require.NoError(t, w.WritePoint(1, sampleSeries(1)))
	require.NoError(t, w.Close())
	require.NoError(t, w.Close())
}
