package constants

const (
	// EnvVerbose is the process-wide verbose signal. Store clients trace
	// their HTTP exchanges when it is set to a truthy value.
	EnvVerbose = "WEBSTORE_PUBLISH_VERBOSE"

	// EnvTestMode short-circuits a run after bundle resolution and prints
	// the resolved inputs instead of contacting any store.
	EnvTestMode = "WEBSTORE_PUBLISH_TEST_MODE"
)

// UserAgentPrefix is combined with the build version for store requests.
const UserAgentPrefix = "webstore-publish"
