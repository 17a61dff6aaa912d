package cmd

import (
	"bytes"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/goccy/go-json"
	"github.com/klauspost/compress/zip"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/telhawk-systems/gmfetch/pkg/output"
)

// run executes the root command with args and returns stdout and stderr.
func run(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	t.Setenv("GMFETCH_CONFIG_DIR", t.TempDir())

	oldOut, oldErr := output.Out, output.ErrOut
	var out, errOut bytes.Buffer
	output.Out, output.ErrOut = &out, &errOut
	t.Cleanup(func() { output.Out, output.ErrOut = oldOut, oldErr })

	resetFlags(rootCmd)
	rootCmd.SetArgs(append(args, "--log-level", "error"))
	err := rootCmd.Execute()
	return out.String(), errOut.String(), err
}

func resetFlags(c *cobra.Command) {
	reset := func(f *pflag.Flag) {
		if sv, ok := f.Value.(pflag.SliceValue); ok {
			_ = sv.Replace(nil)
		} else {
			_ = f.Value.Set(f.DefValue)
		}
		f.Changed = false
	}
	c.Flags().VisitAll(reset)
	c.PersistentFlags().VisitAll(reset)
	for _, sub := range c.Commands() {
		resetFlags(sub)
	}
}

func TestCommandsRegistered(t *testing.T) {
	if rootCmd == nil {
		t.Fatal("rootCmd should not be nil")
	}

	expected := map[string]bool{"fetch": false, "datasets": false, "services": false}
	for _, c := range rootCmd.Commands() {
		if _, ok := expected[c.Name()]; ok {
			expected[c.Name()] = true
		}
	}
	for name, found := range expected {
		if !found {
			t.Errorf("expected command '%s' to be registered with root command", name)
		}
	}
}

func TestFetchCommandFlags(t *testing.T) {
	for _, name := range []string{"start", "end", "station", "cadence", "service", "dest", "config", "timeout", "metrics-file"} {
		if fetchCmd.Flags().Lookup(name) == nil {
			t.Errorf("fetch command should have --%s flag", name)
		}
	}
}

func TestDatasets_Plain(t *testing.T) {
	out, _, err := run(t, "datasets", "--start", "1999-12-31", "--end", "2000-01-02", "--station", "XXX", "--service", "YYY", "--cadence", "minute")
	require.NoError(t, err)
	assert.Equal(t, "/yyy/datasets/minute/xxx199912\n/yyy/datasets/minute/xxx200001\n", out)
}

func TestDatasets_JSONSeveralStations(t *testing.T) {
	out, _, err := run(t, "datasets", "--start", "2013-06-01", "--end", "2015-04-30",
		"--station", "ESK NGK", "--cadence", "hour", "--output", "json")
	require.NoError(t, err)

	var got []struct {
		Station  string   `json:"station"`
		Service  string   `json:"service"`
		Datasets []string `json:"datasets"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &got))
	require.Len(t, got, 2)
	assert.Equal(t, "NGK", got[1].Station)
	assert.Equal(t, "WDC", got[0].Service)
	assert.Equal(t, []string{"/wdc/datasets/hour/esk2013", "/wdc/datasets/hour/esk2014", "/wdc/datasets/hour/esk2015"}, got[0].Datasets)
}

func TestDatasets_BadCadence(t *testing.T) {
	_, _, err := run(t, "datasets", "--start", "2015-04-01", "--end", "2015-04-30", "--station", "ESK", "--cadence", "second")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "second")
	assert.Contains(t, err.Error(), "minute")
	assert.Contains(t, err.Error(), "hour")
}

func TestDatasets_RequiresStation(t *testing.T) {
	_, _, err := run(t, "datasets", "--start", "2015-04-01", "--end", "2015-04-30")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "--station")
}

func TestServices_BuiltIn(t *testing.T) {
	out, _, err := run(t, "services")
	require.NoError(t, err)
	assert.Contains(t, out, "SERVICE")
	assert.Contains(t, out, "WDC")
	assert.Contains(t, out, "http://app.geomag.bgs.ac.uk/wdc/datasets/download")
	assert.Contains(t, out, "text/x-iaga2002")
}

func TestServices_JSONReportsBrokenSections(t *testing.T) {
	path := filepath.Join(t.TempDir(), "services.ini")
	require.NoError(t, os.WriteFile(path, []byte("[BROKEN]\nHostname = http://example.com\n"), 0o644))

	out, _, err := run(t, "services", "--config", path, "--output", "json")
	require.NoError(t, err)

	var got struct {
		Source   string `json:"source"`
		Services []struct {
			Service string `json:"service"`
			Error   string `json:"error"`
		} `json:"services"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &got))
	assert.Equal(t, path, got.Source)
	require.Len(t, got.Services, 1)
	assert.Equal(t, "BROKEN", got.Services[0].Service)
	assert.Contains(t, got.Services[0].Error, "BROKEN")
}

func TestOutputFormat_Rejected(t *testing.T) {
	_, _, err := run(t, "services", "--output", "yaml")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported output format")
}

func archive(t *testing.T, name, content string) []byte {
	t.Helper()
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	w, err := zw.Create(name)
	require.NoError(t, err)
	_, err = w.Write([]byte(content))
	require.NoError(t, err)
	require.NoError(t, zw.Close())
	return buf.Bytes()
}

func serviceFile(t *testing.T, hostname string) string {
	t.Helper()
	content := fmt.Sprintf(`[WDC]
Accept = text/html,application/xhtml+xml,application/xml;q=0.9,image/webp,*/*;q=0
Accept-Encoding = gzip,deflate,sdch
Content-Type = application/x-www-form-urlencoded
Hostname = %s
Route = wdc/datasets/download
FileFormat = iaga2002
_format_template = text/x-{}
`, hostname)
	path := filepath.Join(t.TempDir(), "services.ini")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestFetch_EndToEnd(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		ds := r.PostForm.Get("datasets")
		if strings.Contains(ds, "/bad") {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		w.Write(archive(t, filepath.Base(ds)+".min", "data"))
	}))
	defer server.Close()

	cfgPath := serviceFile(t, server.URL)
	dest := t.TempDir()
	metricsFile := filepath.Join(t.TempDir(), "gmfetch.prom")

	out, _, err := run(t, "fetch",
		"--start", "2015-04-01", "--end", "2015-04-30",
		"--station", "ESK", "--station", "NGK",
		"--dest", dest, "--config", cfgPath, "--metrics-file", metricsFile)
	require.NoError(t, err)
	assert.Contains(t, out, "STATION")
	assert.Contains(t, out, "NGK")
	assert.Contains(t, out, "Fetched 2 station(s)")
	assert.FileExists(t, filepath.Join(dest, "esk201504.min"))
	assert.FileExists(t, filepath.Join(dest, "ngk201504.min"))

	prom, err := os.ReadFile(metricsFile)
	require.NoError(t, err)
	assert.Contains(t, string(prom), `gmfetch_fetches_total{cadence="minute",outcome="ok",service="WDC"} 2`)

	out, _, err = run(t, "fetch",
		"--start", "2015-04-01", "--end", "2015-04-30",
		"--station", "ESK BAD NGK", "--dest", dest, "--config", cfgPath, "--output", "json")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "station BAD")

	var results []map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &results))
	require.Len(t, results, 1)
	assert.Equal(t, "ESK", results[0]["station"])
}
