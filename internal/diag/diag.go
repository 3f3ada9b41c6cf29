// Package diag provides per-store verbose diagnostics: numbered step lines
// that are only emitted when verbose logging is enabled for that store.
package diag

import (
	"fmt"
	"os"
	"strings"

	"github.com/nupi-ai/webstore-publish/internal/browser"
	"github.com/nupi-ai/webstore-publish/internal/constants"
)

// Printer receives each finished diagnostic line.
type Printer func(line string)

// Logger is the diagnostics context of one store. It is not safe for
// concurrent use; each store's submission owns its Logger.
type Logger struct {
	store   browser.ID
	print   Printer
	enabled bool
	step    int
}

// New returns a disabled Logger for store writing through print.
func New(store browser.ID, print Printer) *Logger {
	return &Logger{store: store, print: print}
}

// Enable turns on diagnostics for the store and sets the process-wide
// verbose signal that store clients use to trace HTTP traffic.
func (l *Logger) Enable() {
	l.enabled = true
	os.Setenv(constants.EnvVerbose, "true")
}

// Enabled reports whether diagnostics are on for the store.
func (l *Logger) Enabled() bool {
	return l != nil && l.enabled
}

// Steps returns how many lines have been logged.
func (l *Logger) Steps() int {
	return l.step
}

// Store returns the store this logger belongs to.
func (l *Logger) Store() browser.ID {
	return l.store
}

// Log emits "Info <store>: Step <n>) <message>".
func (l *Logger) Log(format string, args ...any) {
	if !l.Enabled() {
		return
	}
	l.step++
	msg := strings.TrimRight(fmt.Sprintf(format, args...), " \t\r\n")
	l.emit("Info", msg)
}

// Error emits "Error <store>: Step <n>) <message>".
func (l *Logger) Error(format string, args ...any) {
	if !l.Enabled() {
		return
	}
	l.step++
	msg := strings.TrimLeft(fmt.Sprintf(format, args...), " \t\r\n")
	l.emit("Error", msg)
}

func (l *Logger) emit(severity, msg string) {
	if l.print == nil {
		return
	}
	l.print(fmt.Sprintf("%s %s: Step %d) %s", severity, l.store, l.step, msg))
}

// Set holds one Logger per store. Loggers are created lazily and share a
// Printer; their counters and flags are independent.
type Set struct {
	print   Printer
	loggers map[browser.ID]*Logger
}

// NewSet returns an empty Set writing through print.
func NewSet(print Printer) *Set {
	return &Set{print: print, loggers: make(map[browser.ID]*Logger)}
}

// For returns the Logger of store, creating it on first use. Call it during
// the sequential setup phase; the map is not guarded.
func (s *Set) For(store browser.ID) *Logger {
	l, ok := s.loggers[store]
	if !ok {
		l = New(store, s.print)
		s.loggers[store] = l
	}
	return l
}

// VerboseSignal reports whether the process-wide verbose signal is set.
func VerboseSignal() bool {
	return browser.Truthy(os.Getenv(constants.EnvVerbose))
}
