// Package tlswarn provides a process-wide one-shot warning for credentials
// sent over plain HTTP.
package tlswarn

import (
	"log"
	"net/url"
	"strings"
	"sync"
)

var once sync.Once

// Plaintext reports whether rawURL uses the http scheme.
func Plaintext(rawURL string) bool {
	u, err := url.Parse(rawURL)
	return err == nil && strings.EqualFold(u.Scheme, "http")
}

// LogPlaintext emits a single warning via log.Print the first time it is
// called with a plain HTTP endpoint. Later calls are no-ops.
func LogPlaintext(endpoint string) {
	if !Plaintext(endpoint) {
		return
	}
	once.Do(func() {
		log.Printf("[TLS] WARNING: store credentials are exchanged over plain HTTP (%s). Use https outside of tests.", endpoint)
	})
}
