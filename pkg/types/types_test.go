package types

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gridstore/gridstore/pkg/errors"
)

func validImage() *Image {
	return &Image{
		Lon: []float64{14.5, 15.1, 16.2},
		Lat: []float64{47.1, 47.3, 47.9},
		Fields: map[string][]float64{
			"sm":      {0.21, 0.33, 0.28},
			"sm_flag": {0, 0, 1},
		},
		Metadata:  map[string]interface{}{"platform": "ASCAT"},
		Timestamp: time.Date(2015, 1, 2, 0, 0, 0, 0, time.UTC),
	}
}

func TestImageValidate(t *testing.T) {
	t.Parallel()

	assert.NoError(t, validImage().Validate())

	t.Run("lon lat mismatch", func(t *testing.T) {
		img := validImage()
		img.Lat = img.Lat[:2]
		err := img.Validate()
		require.Error(t, err)
		assert.True(t, errors.IsCode(err, errors.ErrCodeInvalidData))
	})

	t.Run("short field", func(t *testing.T) {
		img := validImage()
		img.Fields["sm"] = img.Fields["sm"][:1]
		err := img.Validate()
		require.Error(t, err)
		assert.True(t, errors.IsCode(err, errors.ErrCodeInvalidData))
	})

	t.Run("empty image is valid", func(t *testing.T) {
		img := &Image{Fields: map[string][]float64{}}
		assert.NoError(t, img.Validate())
		assert.Equal(t, 0, img.Len())
	})
}

func TestImageFieldAccess(t *testing.T) {
	t.Parallel()

	img := validImage()

	t.Run("by name shares backing array", func(t *testing.T) {
		values, err := img.Field("sm")
		require.NoError(t, err)
		values[0] = 0.99
		again, err := img.Field("sm")
		require.NoError(t, err)
		assert.Equal(t, 0.99, again[0])
	})

	t.Run("unknown name", func(t *testing.T) {
		_, err := img.Field("missing")
		require.Error(t, err)
		assert.True(t, errors.IsNotFound(err))
	})

	t.Run("by index follows sorted names", func(t *testing.T) {
		assert.Equal(t, []string{"sm", "sm_flag"}, img.FieldNames())

		name, values, err := img.FieldAt(1)
		require.NoError(t, err)
		assert.Equal(t, "sm_flag", name)
		assert.Len(t, values, 3)
	})

	t.Run("index out of range", func(t *testing.T) {
		_, _, err := img.FieldAt(2)
		require.Error(t, err)
		assert.True(t, errors.IsNotFound(err))

		_, _, err = img.FieldAt(-1)
		require.Error(t, err)
	})
}

func TestTimeSeriesValidate(t *testing.T) {
	t.Parallel()

	ts := &TimeSeries{
		GPI: 42,
		Lon: 14.5,
		Lat: 47.1,
		Times: []time.Time{
			time.Date(2015, 1, 1, 0, 0, 0, 0, time.UTC),
			time.Date(2015, 1, 2, 0, 0, 0, 0, time.UTC),
		},
		Fields: map[string][]float64{"sm": {0.2, 0.3}},
	}
	require.NoError(t, ts.Validate())
	assert.Equal(t, 2, ts.Len())

	t.Run("misaligned field", func(t *testing.T) {
		bad := &TimeSeries{
			Times:  ts.Times,
			Fields: map[string][]float64{"sm": {0.2}},
		}
		err := bad.Validate()
		require.Error(t, err)
		assert.True(t, errors.IsCode(err, errors.ErrCodeInvalidData))
	})

	t.Run("field lookup", func(t *testing.T) {
		values, err := ts.Field("sm")
		require.NoError(t, err)
		assert.Equal(t, []float64{0.2, 0.3}, values)

		_, err = ts.Field("nope")
		assert.True(t, errors.IsNotFound(err))
	})
}

func TestModeWritable(t *testing.T) {
	t.Parallel()

	assert.False(t, ModeRead.Writable())
	assert.True(t, ModeWrite.Writable())
	assert.True(t, ModeAppend.Writable())
}
