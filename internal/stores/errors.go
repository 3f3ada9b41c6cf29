package stores

import (
	"errors"
	"fmt"
	"strings"

	"github.com/nupi-ai/webstore-publish/internal/browser"
)

// ErrRejected marks a store answering successfully at the HTTP level but
// refusing the upload or publish (validation errors, failed operations).
var ErrRejected = errors.New("rejected by store")

// errPending is returned by poll operations that have not finished yet.
var errPending = errors.New("operation still in progress")

// APIError describes a failed HTTP exchange with a store. Body is already
// sanitized for logging.
type APIError struct {
	Store      browser.ID
	Method     string
	URL        string
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	msg := fmt.Sprintf("%s %s: HTTP %d", e.Method, e.URL, e.StatusCode)
	if e.Body != "" {
		msg += ": " + firstLine(e.Body)
	}
	return msg
}

// Detail renders the full request/response context for failure reports.
func (e *APIError) Detail() string {
	var b strings.Builder
	fmt.Fprintf(&b, "request: %s %s\n", e.Method, e.URL)
	fmt.Fprintf(&b, "response: HTTP %d", e.StatusCode)
	if e.Body != "" {
		fmt.Fprintf(&b, "\nbody: %s", e.Body)
	}
	return b.String()
}

func rejected(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrRejected, fmt.Sprintf(format, args...))
}

func firstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i]
	}
	return s
}
