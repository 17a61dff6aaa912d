package metrics

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestObserveFetch_Success(t *testing.T) {
	m := New()
	m.ObserveFetch("WDC", "ESK", "minute", OutcomeOK, 2*time.Second, 30, 1024)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.FetchesTotal.WithLabelValues("WDC", "minute", OutcomeOK)))
	assert.Equal(t, 30.0, testutil.ToFloat64(m.FilesExtracted.WithLabelValues("WDC", "ESK")))
	assert.Equal(t, 1024.0, testutil.ToFloat64(m.ResponseBytes.WithLabelValues("WDC")))
	assert.Greater(t, testutil.ToFloat64(m.LastSuccessTime.WithLabelValues("WDC", "ESK")), 0.0)
}

func TestObserveFetch_Failure(t *testing.T) {
	m := New()
	m.ObserveFetch("WDC", "ESK", "hour", OutcomeResponseError, time.Second, 0, 0)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.FetchesTotal.WithLabelValues("WDC", "hour", OutcomeResponseError)))
	assert.Equal(t, 0, testutil.CollectAndCount(m.FilesExtracted))
	assert.Equal(t, 0, testutil.CollectAndCount(m.LastSuccessTime))
}

func TestObserveFetch_NilMetrics(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.ObserveFetch("WDC", "ESK", "hour", OutcomeOK, time.Second, 1, 1)
	})
}

func TestWriteTextfile(t *testing.T) {
	m := New()
	m.ObserveFetch("WDC", "NGK", "hour", OutcomeOK, time.Second, 1, 10)

	path := filepath.Join(t.TempDir(), "gmfetch.prom")
	require.NoError(t, m.WriteTextfile(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `gmfetch_fetches_total{cadence="hour",outcome="ok",service="WDC"} 1`)
	assert.Contains(t, string(data), "gmfetch_files_extracted_total")
}
