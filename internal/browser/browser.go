// Package browser defines the store identities this tool can publish to and
// the per-store option sets parsed from the "keys" input.
package browser

import (
	"slices"
	"strings"
)

// ID identifies a browser extension store.
type ID string

const (
	Chrome  ID = "chrome"
	Firefox ID = "firefox"
	Edge    ID = "edge"
	// Itero is the Itero TestBed preview channel.
	Itero ID = "itero"
	// Opera is recognised but has no working publish API, so it is never
	// part of Supported.
	Opera ID = "opera"
)

// All lists every known store identity.
var All = []ID{Chrome, Firefox, Opera, Edge, Itero}

// Supported lists the stores that submissions are attempted for, in the
// order results are reported.
var Supported = []ID{Chrome, Firefox, Edge, Itero}

// IsSupported reports whether id is in the active submission set.
func IsSupported(id ID) bool {
	return slices.Contains(Supported, id)
}

// DisplayName returns the human readable store name used in log lines.
func (id ID) DisplayName() string {
	switch id {
	case Chrome:
		return "Chrome"
	case Firefox:
		return "Firefox"
	case Edge:
		return "Edge"
	case Itero:
		return "Itero TestBed"
	case Opera:
		return "Opera"
	}
	s := string(id)
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

func (id ID) String() string {
	return string(id)
}

// Candidates returns the supported stores present in keys, in Supported
// order. Unknown and unsupported keys are ignored.
func Candidates(keys Keys) []ID {
	var out []ID
	for _, id := range Supported {
		if _, ok := keys[id]; ok {
			out = append(out, id)
		}
	}
	return out
}

// Join renders ids as a comma separated list.
func Join(ids []ID) string {
	parts := make([]string, len(ids))
	for i, id := range ids {
		parts[i] = string(id)
	}
	return strings.Join(parts, ",")
}
