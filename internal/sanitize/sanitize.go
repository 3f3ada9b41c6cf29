package sanitize

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// RedactedMarker replaces secret values in text bound for logs.
const RedactedMarker = "***"

// minSecretLen skips values too short to be credentials; redacting them
// would mangle unrelated text.
const minSecretLen = 6

// TruncateUTF8 truncates s to at most maxBytes bytes without splitting UTF-8 runes.
func TruncateUTF8(s string, maxBytes int) string {
	if maxBytes <= 0 {
		return ""
	}
	if len(s) <= maxBytes {
		return s
	}
	truncated := s[:maxBytes]
	for len(truncated) > 0 && !utf8.ValidString(truncated) {
		truncated = truncated[:len(truncated)-1]
	}
	return truncated
}

// Redact replaces every occurrence of each secret in s with RedactedMarker.
func Redact(s string, secrets ...string) string {
	for _, secret := range secrets {
		secret = strings.TrimSpace(secret)
		if len(secret) < minSecretLen {
			continue
		}
		s = strings.ReplaceAll(s, secret, RedactedMarker)
	}
	return s
}

// ForLog prepares untrusted remote text for a single log line: control
// sequences removed, secrets redacted, length capped.
func ForLog(s string, maxBytes int, secrets ...string) string {
	s = StripControlChars(s)
	s = Redact(s, secrets...)
	if len(s) > maxBytes {
		return TruncateUTF8(s, maxBytes) + "…"
	}
	return s
}

// StripControlChars removes ANSI escape sequences and non-printable control
// characters (except newline and tab) from s. Store error bodies are
// passed through it before they reach the CI log.
func StripControlChars(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	i := 0
	for i < len(s) {
		// Strip ANSI escape sequences: ESC [ ... final byte (0x40-0x7E).
		// Scan is capped at 64 bytes for CSI sequences that never terminate.
		if i+1 < len(s) && s[i] == '\x1b' && s[i+1] == '[' {
			j := i + 2
			maxJ := j + 64
			if maxJ > len(s) {
				maxJ = len(s)
			}
			for j < maxJ && (s[j] < 0x40 || s[j] > 0x7E) {
				j++
			}
			if j < len(s) && s[j] >= 0x40 && s[j] <= 0x7E {
				j++ // skip final byte
			}
			i = j
			continue
		}
		// Strip OSC sequences: ESC ] ... ST (ESC \ or BEL).
		if i+1 < len(s) && s[i] == '\x1b' && s[i+1] == ']' {
			j := i + 2
			for j < len(s) {
				if s[j] == '\x07' { // BEL terminator
					j++
					break
				}
				if j+1 < len(s) && s[j] == '\x1b' && s[j+1] == '\\' { // ST terminator
					j += 2
					break
				}
				j++
			}
			i = j
			continue
		}
		// Strip other ESC-initiated sequences (2-byte).
		if s[i] == '\x1b' {
			i += 2
			if i > len(s) {
				i = len(s)
			}
			continue
		}
		r, size := utf8.DecodeRuneInString(s[i:])
		// Only newline and tab survive among control characters.
		if r == '\n' || r == '\t' || (r >= ' ' && !unicode.IsControl(r)) {
			b.WriteString(s[i : i+size])
		}
		i += size
	}
	return b.String()
}
