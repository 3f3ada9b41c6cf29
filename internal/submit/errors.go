package submit

import (
	"errors"
	"fmt"
	"strings"

	"github.com/nupi-ai/webstore-publish/internal/browser"
)

var (
	// ErrNoSupportedStore is returned when keys name no supported store.
	ErrNoSupportedStore = errors.New("No supported browser found")
	// ErrNoArtifact is returned when no candidate store has a bundle.
	ErrNoArtifact = errors.New("No artifact found")
)

// SubmissionError adds extension context to a store client's failure.
type SubmissionError struct {
	Store         browser.ID
	ExtensionID   string
	ExtensionName string
	Err           error
}

func (e *SubmissionError) Error() string {
	return fmt.Sprintf("%s%s: %v", e.Store.DisplayName(), e.context(), e.Err)
}

// context renders " (id <id>, <name>)", or "" when neither is known.
func (e *SubmissionError) context() string {
	var parts []string
	if e.ExtensionID != "" {
		parts = append(parts, "id "+e.ExtensionID)
	}
	if e.ExtensionName != "" {
		parts = append(parts, e.ExtensionName)
	}
	if len(parts) == 0 {
		return ""
	}
	return " (" + strings.Join(parts, ", ") + ")"
}

func (e *SubmissionError) Unwrap() error { return e.Err }

// ErrorDetail renders err as richly as it allows: the request/response
// detail of HTTP failures, else the message, else the value itself.
func ErrorDetail(err error) string {
	if err == nil {
		return ""
	}
	var detailed interface{ Detail() string }
	if errors.As(err, &detailed) {
		return err.Error() + "\n" + detailed.Detail()
	}
	if msg := err.Error(); msg != "" {
		return msg
	}
	return fmt.Sprintf("%#v", err)
}
