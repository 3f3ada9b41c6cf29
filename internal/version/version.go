package version

import (
	"regexp"
	"strings"

	"github.com/nupi-ai/webstore-publish/internal/constants"
)

// version is stamped at build time with -ldflags "-X ...version.version=...".
var version = "dev"

// String returns the build version for the current binary.
func String() string {
	return version
}

// ForTesting overrides the version string and returns a cleanup function
// that restores the original value. Must not be called concurrently.
func ForTesting(v string) func() {
	original := version
	version = v
	return func() { version = original }
}

// gitDescribeSuffix matches the trailing "-N-gHASH" added by git describe
// (e.g., "0.3.0-5-gabcdef" → strip "-5-gabcdef").
var gitDescribeSuffix = regexp.MustCompile(`-\d+-g[0-9a-f]+$`)

// FormatVersion returns a display-friendly version string. For normal versions
// it ensures a "v" prefix (e.g. "0.3.0" → "v0.3.0"). Special values like
// "dev" and empty strings are returned as-is.
func FormatVersion(v string) string {
	if v == "" || v == "dev" {
		return v
	}
	if strings.HasPrefix(v, "v") {
		return v
	}
	return "v" + v
}

// UserAgent is sent with every store API request.
func UserAgent() string {
	v := strings.TrimPrefix(version, "v")
	v = gitDescribeSuffix.ReplaceAllString(v, "")
	return constants.UserAgentPrefix + "/" + v
}
