package stores

import (
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/klauspost/compress/zip"
	"github.com/stretchr/testify/require"

	"github.com/nupi-ai/webstore-publish/internal/browser"
	"github.com/nupi-ai/webstore-publish/internal/diag"
)

// makeBundle writes a minimal extension zip and returns its path.
func makeBundle(t *testing.T) string {
	t.Helper()
	return makeBundleWithManifest(t, `{"manifest_version": 3, "name": "Test Ext", "version": "1.0.0"}`)
}

// makeBundleWithManifest writes an extension zip holding manifest.
func makeBundleWithManifest(t *testing.T, manifest string) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), "ext.zip")
	f, err := os.Create(p)
	require.NoError(t, err)
	zw := zip.NewWriter(f)
	w, err := zw.Create("manifest.json")
	require.NoError(t, err)
	_, err = w.Write([]byte(manifest))
	require.NoError(t, err)
	require.NoError(t, zw.Close())
	require.NoError(t, f.Close())
	return p
}

// fakeStore starts an httptest server around mux and counts requests.
func fakeStore(t *testing.T, mux *http.ServeMux) (*httptest.Server, *atomic.Int32) {
	t.Helper()
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		mux.ServeHTTP(w, r)
	}))
	t.Cleanup(srv.Close)
	return srv, &hits
}

// testConfig points a client at srv with fast polling.
func testConfig(srv *httptest.Server) Config {
	return Config{
		HTTPClient:      srv.Client(),
		BaseURL:         srv.URL,
		TokenURL:        srv.URL + "/token",
		PollInterval:    time.Millisecond,
		PollTimeout:     2 * time.Second,
		RequestInterval: time.Millisecond,
	}
}

// testLogger returns an enabled diagnostics logger collecting lines.
func testLogger(t *testing.T, id browser.ID) (*diag.Logger, *[]string) {
	t.Helper()
	t.Setenv("WEBSTORE_PUBLISH_VERBOSE", "")
	var lines []string
	l := diag.New(id, func(line string) { lines = append(lines, line) })
	l.Enable()
	return l, &lines
}

func writeJSON(w http.ResponseWriter, status int, body string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	w.Write([]byte(body))
}
