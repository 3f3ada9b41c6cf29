package browser

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/nupi-ai/webstore-publish/internal/constants"
)

// Options holds one store's settings as decoded from the keys input.
// Values keep their JSON types (string, bool, float64, ...).
type Options map[string]any

// String returns the option as a string. Numbers and booleans are
// formatted; missing or null values yield "".
func (o Options) String(key string) string {
	switch v := o[key].(type) {
	case nil:
		return ""
	case string:
		return v
	case bool:
		return strconv.FormatBool(v)
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	default:
		return fmt.Sprint(v)
	}
}

// Bool interprets the option with JavaScript-like truthiness for strings:
// any non-empty value other than "false" or "0" is true.
func (o Options) Bool(key string) bool {
	return Truthy(o[key])
}

// Has reports whether the option is present and truthy.
func (o Options) Has(key string) bool {
	return Truthy(o[key])
}

// Set stores value under key.
func (o Options) Set(key string, value any) {
	o[key] = value
}

// Bundle returns the bundle path from "zip", falling back to its "file" alias.
func (o Options) Bundle() string {
	if zip := o.String(constants.OptionZip); zip != "" {
		return zip
	}
	return o.String(constants.OptionFile)
}

// SetBundle records a resolved bundle path under the primary "zip" field.
func (o Options) SetBundle(path string) {
	o[constants.OptionZip] = path
}

// VersionFile returns the version-descriptor path, defaulting to package.json.
func (o Options) VersionFile() string {
	if v := o.String(constants.OptionVersionFile); v != "" {
		return v
	}
	return constants.DefaultVersionFile
}

// Secrets returns every string value in o whose key looks like a credential.
// Callers mask and redact these before logging.
func (o Options) Secrets() []string {
	var out []string
	for k, v := range o {
		s, ok := v.(string)
		if !ok || s == "" {
			continue
		}
		lk := strings.ToLower(k)
		if strings.Contains(lk, "secret") || strings.Contains(lk, "token") ||
			strings.Contains(lk, "key") || strings.Contains(lk, "password") {
			out = append(out, s)
		}
	}
	return out
}

// Truthy mirrors the permissive truthiness CI inputs are given.
func Truthy(v any) bool {
	switch t := v.(type) {
	case nil:
		return false
	case bool:
		return t
	case string:
		s := strings.TrimSpace(strings.ToLower(t))
		return s != "" && s != "false" && s != "0"
	case float64:
		return t != 0
	case int:
		return t != 0
	default:
		return true
	}
}
