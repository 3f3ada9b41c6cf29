// Package ghaction adapts the GitHub Actions runtime (inputs, leveled log
// commands, job outputs and the step summary) for the publisher.
package ghaction

import (
	"os"
	"strings"
	"sync"

	"github.com/sethvargo/go-githubactions"
)

// Action wraps a githubactions.Action. Output methods are safe for
// concurrent use.
type Action struct {
	gha *githubactions.Action
	mu  sync.Mutex
}

// New creates an Action. Options are passed through to githubactions.New,
// which lets tests supply their own writer and environment.
func New(opts ...githubactions.Option) *Action {
	return &Action{gha: githubactions.New(opts...)}
}

// Input returns the first non-empty input among names.
func (a *Action) Input(names ...string) string {
	for _, name := range names {
		if v := a.gha.GetInput(name); v != "" {
			return v
		}
	}
	return ""
}

// Info writes a plain log line.
func (a *Action) Info(format string, args ...any) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.gha.Infof(format, args...)
}

// Debug writes a line only shown when step debug logging is on.
func (a *Action) Debug(format string, args ...any) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.gha.Debugf(format, args...)
}

// Warning writes a warning annotation.
func (a *Action) Warning(format string, args ...any) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.gha.Warningf(format, args...)
}

// Fail writes an error annotation. Unlike githubactions.Fatalf it does not
// exit, so callers can keep reporting.
func (a *Action) Fail(format string, args ...any) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.gha.Errorf(format, args...)
}

// Mask asks the runner to hide each value from all later log output.
func (a *Action) Mask(values ...string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			a.gha.AddMask(v)
		}
	}
}

// SetOutput sets a job output.
func (a *Action) SetOutput(name, value string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.gha.SetOutput(name, value)
}

// envStepSummary names the file the runner renders as the step summary.
const envStepSummary = "GITHUB_STEP_SUMMARY"

// Summary appends markdown to the job step summary. Outside a runner there
// is no summary file and the call does nothing.
func (a *Action) Summary(markdown string) {
	if os.Getenv(envStepSummary) == "" {
		return
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	a.gha.AddStepSummary(markdown)
}
