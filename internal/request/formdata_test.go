package request

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/telhawk-systems/gmfetch/internal/dataset"
)

func april2015() dataset.DateRange {
	return dataset.NewDateRange(time.Date(2015, 4, 1, 0, 0, 0, 0, time.UTC), time.Date(2015, 4, 30, 0, 0, 0, 0, time.UTC))
}

func TestNewFormData(t *testing.T) {
	fd := NewFormData(mockConfig{})
	assert.Equal(t, mockFormat, fd.Format)
	assert.Nil(t, fd.Datasets)

	_, err := fd.AsMap()
	assert.ErrorIs(t, err, ErrDatasetsNotSet)
	assert.Contains(t, fd.String(), "<unset>")
}

func TestFormData_SetDatasets(t *testing.T) {
	fd := NewFormData(mockConfig{})
	require.NoError(t, fd.SetDatasets(april2015(), "ESK", dataset.Hour, "WDC"))

	got, err := fd.AsMap()
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"format": mockFormat, "datasets": "/wdc/datasets/hour/esk2015"}, got)
	assert.Contains(t, fd.String(), "/wdc/datasets/hour/esk2015")
}

func TestFormData_SetDatasetsBadCadence(t *testing.T) {
	fd := NewFormData(mockConfig{})
	err := fd.SetDatasets(april2015(), "ESK", dataset.Cadence("second"), "WDC")
	require.Error(t, err)
	assert.ErrorIs(t, err, dataset.ErrInvalidArgument)
	assert.Nil(t, fd.Datasets)
}

func TestFormData_Equal(t *testing.T) {
	a := NewFormData(mockConfig{})
	b := NewFormData(mockConfig{})
	assert.True(t, a.Equal(b))

	require.NoError(t, a.SetDatasets(april2015(), "ESK", dataset.Minute, "WDC"))
	assert.False(t, a.Equal(b))

	require.NoError(t, b.SetDatasets(april2015(), "esk", dataset.Minute, "wdc"))
	assert.True(t, a.Equal(b))

	b.Format = "other"
	assert.False(t, a.Equal(b))
	assert.False(t, a.Equal(nil))
}
