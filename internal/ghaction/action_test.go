package ghaction

import (
	"bytes"
	"testing"

	"github.com/sethvargo/go-githubactions"
	"github.com/stretchr/testify/assert"
)

func newTestAction(env map[string]string) (*Action, *bytes.Buffer) {
	var buf bytes.Buffer
	a := New(
		githubactions.WithWriter(&buf),
		githubactions.WithGetenv(func(k string) string { return env[k] }),
	)
	return a, &buf
}

func TestInputFirstNonEmpty(t *testing.T) {
	a, _ := newTestAction(map[string]string{
		"INPUT_ZIP":      "b.zip",
		"INPUT_ARTIFACT": "c.zip",
	})
	assert.Equal(t, "b.zip", a.Input("file", "zip", "artifact"))
	assert.Equal(t, "", a.Input("missing"))
}

func TestFailDoesNotExit(t *testing.T) {
	a, buf := newTestAction(nil)

	a.Fail("Chrome submission failed: %s", "boom")
	a.Info("still running")

	assert.Contains(t, buf.String(), "::error::Chrome submission failed: boom")
	assert.Contains(t, buf.String(), "still running")
}

func TestLevels(t *testing.T) {
	a, buf := newTestAction(nil)
	a.Warning("no bundle for %s", "edge")
	a.Debug("dbg")
	out := buf.String()
	assert.Contains(t, out, "::warning::no bundle for edge")
	assert.Contains(t, out, "::debug::dbg")
}

func TestMaskSkipsBlankValues(t *testing.T) {
	a, buf := newTestAction(nil)
	a.Mask("", "  ", "s3cr3t")
	assert.Equal(t, "::add-mask::s3cr3t\n", buf.String())
}
