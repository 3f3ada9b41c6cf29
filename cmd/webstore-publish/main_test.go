package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/klauspost/compress/zip"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nupi-ai/webstore-publish/internal/browser"
	"github.com/nupi-ai/webstore-publish/internal/constants"
	"github.com/nupi-ai/webstore-publish/internal/diag"
	"github.com/nupi-ai/webstore-publish/internal/stores"
	"github.com/nupi-ai/webstore-publish/internal/version"
)

// ---------------------------------------------------------------------------
// Helpers
// ---------------------------------------------------------------------------

type stubClient struct {
	accept bool
	err    error
	calls  int
}

func (s *stubClient) Required() map[string]string { return nil }

func (s *stubClient) ExtensionID(browser.Options) string { return "" }

func (s *stubClient) Submit(context.Context, browser.Options, *diag.Logger) (bool, error) {
	s.calls++
	return s.accept, s.err
}

// useRegistry swaps the store clients for the duration of the test.
func useRegistry(t *testing.T, reg stores.Registry) {
	t.Helper()
	orig := newRegistry
	newRegistry = func() stores.Registry { return reg }
	t.Cleanup(func() { newRegistry = orig })
}

// forbidNetwork fails the test if the run gets as far as building clients.
func forbidNetwork(t *testing.T) {
	t.Helper()
	orig := newRegistry
	newRegistry = func() stores.Registry {
		t.Fatal("store clients must not be created")
		return nil
	}
	t.Cleanup(func() { newRegistry = orig })
}

func execute(t *testing.T, args ...string) (stdout, stderr string, err error) {
	t.Helper()
	var out, errOut bytes.Buffer
	cmd := newRootCommand()
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetArgs(args)
	err = cmd.ExecuteContext(context.Background())
	return out.String(), errOut.String(), err
}

func writeBundle(t *testing.T) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), "ext.zip")
	f, err := os.Create(p)
	require.NoError(t, err)
	zw := zip.NewWriter(f)
	w, err := zw.Create("manifest.json")
	require.NoError(t, err)
	_, err = w.Write([]byte(`{"manifest_version": 3, "name": "Demo", "version": "1.0.0"}`))
	require.NoError(t, err)
	require.NoError(t, zw.Close())
	require.NoError(t, f.Close())
	return p
}

// ---------------------------------------------------------------------------
// Test mode
// ---------------------------------------------------------------------------

func TestTestMode_PrintsResolvedInputs(t *testing.T) {
	t.Setenv(constants.EnvTestMode, "true")
	t.Setenv(constants.EnvVerbose, "")
	forbidNetwork(t)

	stdout, _, err := execute(t,
		"--keys", `{"opera": {}, "firefox": {}, "chrome": {}, "safari": {}}`,
		"--artifact", "dist/ext.zip",
		"--version-file", "manifest.json",
		"--verbose", "true",
	)
	require.NoError(t, err)

	assert.Contains(t, stdout, "artifact: dist/ext.zip")
	assert.Contains(t, stdout, "version-file: manifest.json")
	assert.Contains(t, stdout, "verbose: true")
	assert.Contains(t, stdout, "browsers: chrome,firefox")
}

func TestTestMode_JSON(t *testing.T) {
	t.Setenv(constants.EnvTestMode, "1")
	forbidNetwork(t)

	stdout, _, err := execute(t, "--json", "--keys", `{"edge": {}, "itero": {}}`, "--zip", "a.zip")
	require.NoError(t, err)

	var got testModeResult
	require.NoError(t, json.Unmarshal([]byte(stdout), &got))
	assert.Equal(t, testModeResult{Artifact: "a.zip", Candidates: []string{"edge", "itero"}}, got)
}

func TestTestMode_NoSupportedStoreFails(t *testing.T) {
	t.Setenv(constants.EnvTestMode, "true")
	forbidNetwork(t)

	stdout, _, err := execute(t, "--keys", `{"opera": {}}`, "--artifact", "a.zip")
	require.Error(t, err)
	assert.Equal(t, "No supported browser found", err.Error())
	assert.NotContains(t, stdout, "browsers:")
}

func TestTestMode_NoArtifactFails(t *testing.T) {
	t.Setenv(constants.EnvTestMode, "true")
	forbidNetwork(t)

	stdout, _, err := execute(t, "--keys", `{"chrome": {}}`)
	require.Error(t, err)
	assert.Equal(t, "No artifact found", err.Error())
	assert.NotContains(t, stdout, "browsers:")
}

func TestTestMode_ListsSkippedCandidates(t *testing.T) {
	t.Setenv(constants.EnvTestMode, "true")
	forbidNetwork(t)

	stdout, _, err := execute(t, "--keys", `{"chrome": {"zip": "a.zip"}, "edge": {}}`)
	require.NoError(t, err)
	assert.Contains(t, stdout, "browsers: chrome,edge")
	assert.Contains(t, stdout, "::debug::Chrome bundle: a.zip")
}

func TestFlagOverridesEnvironmentInput(t *testing.T) {
	t.Setenv(constants.EnvTestMode, "true")
	t.Setenv("INPUT_KEYS", `{"chrome": {}}`)
	t.Setenv("INPUT_ARTIFACT", "from-env.zip")
	forbidNetwork(t)

	stdout, _, err := execute(t, "--artifact", "from-flag.zip")
	require.NoError(t, err)
	assert.Contains(t, stdout, "artifact: from-flag.zip")
	assert.Contains(t, stdout, "browsers: chrome")
}

// ---------------------------------------------------------------------------
// Setup failures
// ---------------------------------------------------------------------------

func TestNoKeys(t *testing.T) {
	t.Setenv("INPUT_KEYS", "")
	forbidNetwork(t)

	stdout, _, err := execute(t)
	assert.ErrorIs(t, err, browser.ErrNoKeys)
	assert.Contains(t, stdout, "::error::")
}

func TestNoSupportedStore(t *testing.T) {
	forbidNetwork(t)

	stdout, _, err := execute(t, "--keys", `{"opera": {"zip": "a.zip"}}`)
	require.Error(t, err)
	assert.Equal(t, "No supported browser found", err.Error())
	assert.Contains(t, stdout, "No supported browser found")
}

func TestNoArtifact(t *testing.T) {
	forbidNetwork(t)

	stdout, _, err := execute(t, "--json", "--keys", `{"chrome": {}, "firefox": {}}`)
	require.Error(t, err)
	assert.Equal(t, "No artifact found", err.Error())

	var res publishResult
	require.NoError(t, json.Unmarshal([]byte(stdout), &res))
	assert.False(t, res.Success)
	assert.Equal(t, "No artifact found", res.Error)
}

// ---------------------------------------------------------------------------
// Publishing
// ---------------------------------------------------------------------------

func TestPublish_AllSettleAndFail(t *testing.T) {
	t.Setenv(constants.EnvVerbose, "")
	zipPath := writeBundle(t)

	chrome := &stubClient{accept: true}
	firefox := &stubClient{err: errors.New("validation failed")}
	itero := &stubClient{accept: true}
	useRegistry(t, stores.Registry{browser.Chrome: chrome, browser.Firefox: firefox, browser.Itero: itero})

	stdout, stderr, err := execute(t, "--json",
		"--keys", `{"chrome": {"refreshToken": "super-secret-token"}, "firefox": {}, "itero": {}, "edge": {}}`,
		"--chrome-file", zipPath,
		"--firefox-file", zipPath,
		"--itero-file", zipPath,
	)
	assert.ErrorIs(t, err, errSubmissionsFailed)

	var res publishResult
	require.NoError(t, json.Unmarshal([]byte(stdout), &res))
	assert.False(t, res.Success)
	require.Len(t, res.Stores, 4)

	statuses := map[string]string{}
	for _, e := range res.Stores {
		statuses[e.Store] = e.Status
	}
	assert.Equal(t, map[string]string{
		"chrome":  "succeeded",
		"firefox": "failed",
		"edge":    "skipped",
		"itero":   "succeeded",
	}, statuses)
	assert.Equal(t, 1, chrome.calls)
	assert.Equal(t, 1, firefox.calls)
	assert.Equal(t, 1, itero.calls)

	assert.Contains(t, stderr, "::add-mask::super-secret-token")
	assert.Contains(t, stderr, "Firefox submission failed")
	assert.Contains(t, stderr, "Successfully submitted Demo 1.0.0 to Chrome")
}

func TestPublish_Success(t *testing.T) {
	zipPath := writeBundle(t)
	edge := &stubClient{accept: true}
	useRegistry(t, stores.Registry{browser.Edge: edge})

	stdout, _, err := execute(t, "--keys", `{"edge": {}}`, "--file", zipPath, "--edge-notes", "bug fixes")
	require.NoError(t, err)
	assert.Equal(t, 1, edge.calls)
	assert.Contains(t, stdout, "Successfully submitted Demo 1.0.0 to Edge")
}

func TestPublish_KeysFile(t *testing.T) {
	zipPath := writeBundle(t)
	keysFile := filepath.Join(t.TempDir(), "keys.json")
	require.NoError(t, os.WriteFile(keysFile, []byte(`{
		// local credentials
		"itero": {"zip": "`+filepath.ToSlash(zipPath)+`"}
	}`), 0o600))

	itero := &stubClient{accept: true}
	useRegistry(t, stores.Registry{browser.Itero: itero})

	_, _, err := execute(t, "--keys-file", keysFile)
	require.NoError(t, err)
	assert.Equal(t, 1, itero.calls)
}

func TestPublish_DeclinedDoesNotFail(t *testing.T) {
	zipPath := writeBundle(t)
	itero := &stubClient{accept: false}
	useRegistry(t, stores.Registry{browser.Itero: itero})

	stdout, _, err := execute(t, "--keys", `{"itero": {}}`, "--artifact", zipPath)
	require.NoError(t, err)
	assert.Contains(t, stdout, "Itero declined the submission")
}

// ---------------------------------------------------------------------------
// Version
// ---------------------------------------------------------------------------

func TestVersionCommand(t *testing.T) {
	restore := version.ForTesting("1.4.0")
	t.Cleanup(restore)

	stdout, _, err := execute(t, "version")
	require.NoError(t, err)
	assert.Contains(t, stdout, "webstore-publish v1.4.0")
	assert.Contains(t, stdout, "User-Agent: webstore-publish/1.4.0")
}

func TestVersionCommand_JSON(t *testing.T) {
	restore := version.ForTesting("v2.0.0-3-gabc1234")
	t.Cleanup(restore)

	stdout, _, err := execute(t, "version", "--json")
	require.NoError(t, err)

	var got map[string]string
	require.NoError(t, json.Unmarshal([]byte(stdout), &got))
	assert.Equal(t, "v2.0.0-3-gabc1234", got["version"])
	assert.Equal(t, "webstore-publish/2.0.0", got["user_agent"])
}
