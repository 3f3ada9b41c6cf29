package validate

import (
	"fmt"
	"net/url"
	"regexp"
	"strings"

	"github.com/google/uuid"
)

// chromeIDRe matches Chrome Web Store item IDs: 32 characters drawn from a-p.
var chromeIDRe = regexp.MustCompile(`^[a-p]{32}$`)

// addonEmailIDRe matches the email-like form of a Firefox add-on ID.
var addonEmailIDRe = regexp.MustCompile(`^[a-zA-Z0-9._+-]*@[a-zA-Z0-9._-]+$`)

// MaxAddonIDLen is the longest add-on ID AMO accepts.
const MaxAddonIDLen = 255

// HTTPURL ensures the URL uses http or https scheme and has a non-empty host
// to prevent SSRF via file://, ftp://, or other dangerous schemes.
func HTTPURL(rawURL string) error {
	u, err := url.Parse(rawURL)
	if err != nil {
		return fmt.Errorf("invalid URL: %w", err)
	}
	switch u.Scheme {
	case "http", "https":
		// OK
	case "":
		return fmt.Errorf("URL missing scheme: %s", rawURL)
	default:
		return fmt.Errorf("URL scheme %q not allowed (only http/https)", u.Scheme)
	}
	if u.Host == "" {
		return fmt.Errorf("URL missing host: %s", rawURL)
	}
	return nil
}

// ChromeID validates a Chrome Web Store item ID.
func ChromeID(s string) error {
	if !chromeIDRe.MatchString(s) {
		return fmt.Errorf("invalid Chrome extension ID %q (want 32 letters a-p)", s)
	}
	return nil
}

// AddonID validates a Firefox add-on ID, either a braced UUID or an
// email-like identifier.
func AddonID(s string) error {
	if s == "" || len(s) > MaxAddonIDLen {
		return fmt.Errorf("invalid add-on ID %q", s)
	}
	if strings.HasPrefix(s, "{") && strings.HasSuffix(s, "}") {
		if _, err := uuid.Parse(s[1 : len(s)-1]); err != nil {
			return fmt.Errorf("invalid add-on ID %q: %w", s, err)
		}
		return nil
	}
	if !addonEmailIDRe.MatchString(s) {
		return fmt.Errorf("invalid add-on ID %q (want {uuid} or name@domain)", s)
	}
	return nil
}

// ProductID validates an Edge Add-ons product ID, which is a GUID.
func ProductID(s string) error {
	if _, err := uuid.Parse(s); err != nil {
		return fmt.Errorf("invalid Edge product ID %q: %w", s, err)
	}
	return nil
}
