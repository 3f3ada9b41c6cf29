// Package stores implements the per-store publishing clients. Each client
// speaks one store's HTTP API; the submit package drives them through the
// Client interface and never branches on the store identity.
package stores

import (
	"context"
	"net/http"
	"time"

	"github.com/nupi-ai/webstore-publish/internal/browser"
	"github.com/nupi-ai/webstore-publish/internal/diag"
)

// Client submits an extension bundle to one store.
type Client interface {
	// Required maps option names that must be set to the reason reported
	// when one is missing. Checked before any network call.
	Required() map[string]string

	// ExtensionID returns the store-side identifier named in opts, used to
	// give failures context.
	ExtensionID(opts browser.Options) string

	// Submit uploads (and, unless configured otherwise, publishes) the
	// bundle at opts.Bundle(). It returns false when the store declined the
	// submission without an error.
	Submit(ctx context.Context, opts browser.Options, log *diag.Logger) (bool, error)
}

// Registry selects the client for each store identity.
type Registry map[browser.ID]Client

// Config tunes the clients. Zero values select production defaults.
type Config struct {
	// HTTPClient replaces the default client (timeouts, redirect guard).
	HTTPClient *http.Client
	// BaseURL replaces the store API origin.
	BaseURL string
	// TokenURL replaces the OAuth token endpoint where one is used.
	TokenURL string
	// PollInterval and PollTimeout control status polling.
	PollInterval time.Duration
	PollTimeout  time.Duration
	// RequestInterval is the minimum spacing between requests.
	RequestInterval time.Duration
}

// NewRegistry returns the clients for every supported store. Opera has no
// client and is never submitted to.
func NewRegistry(cfg Config) Registry {
	return Registry{
		browser.Chrome:  NewChrome(cfg),
		browser.Firefox: NewFirefox(cfg),
		browser.Edge:    NewEdge(cfg),
		browser.Itero:   NewItero(cfg),
	}
}
