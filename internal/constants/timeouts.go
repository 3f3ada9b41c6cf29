package constants

import "time"

// Shared duration vocabulary used by timeouts, polling and rate limits.
const (
	Duration500Milliseconds = 500 * time.Millisecond
	Duration5Seconds        = 5 * time.Second

	Duration2Minutes  = 2 * time.Minute
	Duration5Minutes  = 5 * time.Minute
	Duration10Minutes = 10 * time.Minute
)

// Domain-level timeout constants.
const (
	// StoreHTTPTimeout bounds a single request to a store API, bundle
	// upload included.
	StoreHTTPTimeout = Duration5Minutes

	// StorePollInterval is the wait between status polls of an asynchronous
	// store operation (Firefox validation, Edge package processing).
	StorePollInterval = Duration5Seconds

	// StorePollMaxElapsed caps the total time spent polling one operation.
	StorePollMaxElapsed = Duration10Minutes

	// FirefoxJWTLifetime is the validity of the signed AMO auth token. AMO
	// rejects tokens living longer than five minutes.
	FirefoxJWTLifetime = Duration2Minutes

	// StoreRequestInterval paces consecutive requests against one store.
	StoreRequestInterval = Duration500Milliseconds
)
