// Package config assembles the publisher's run configuration from action
// inputs (or the equivalent command-line flags).
package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/nupi-ai/webstore-publish/internal/browser"
	"github.com/nupi-ai/webstore-publish/internal/constants"
)

// InputFunc returns the first non-empty value among the named inputs.
type InputFunc func(names ...string) string

// Inputs is the resolved run configuration.
type Inputs struct {
	Keys browser.Keys

	// Artifact is the global bundle path (file | zip | artifact).
	Artifact string
	// VersionFile overrides every store's version descriptor when set.
	VersionFile string
	// Notes are release notes for the Edge store.
	Notes string
	// Verbose enables per-store diagnostics for every store.
	Verbose bool
	// StoreFiles holds the <store>-file overrides that were provided.
	StoreFiles map[browser.ID]string
}

// Load reads every input through get. The keys input is required; when it
// is empty the keys-file input names a file to read it from instead.
func Load(get InputFunc) (*Inputs, error) {
	rawKeys := get(constants.InputKeys)
	if rawKeys == "" {
		if path := get(constants.InputKeysFile); path != "" {
			data, err := os.ReadFile(path)
			if err != nil {
				return nil, fmt.Errorf("read keys file: %w", err)
			}
			rawKeys = string(data)
		}
	}

	keys, err := browser.ParseKeys(rawKeys)
	if err != nil {
		return nil, err
	}

	in := &Inputs{
		Keys:        keys,
		Artifact:    get(constants.ArtifactInputs...),
		VersionFile: get(constants.InputVersionFile),
		Notes:       get(constants.NotesInputs...),
		Verbose:     browser.Truthy(get(constants.InputVerbose)),
		StoreFiles:  make(map[browser.ID]string),
	}
	for _, id := range browser.All {
		if v := get(StoreFileInput(id)); v != "" {
			in.StoreFiles[id] = v
		}
	}
	return in, nil
}

// StoreFileInput returns the name of id's store-specific artifact input.
func StoreFileInput(id browser.ID) string {
	return string(id) + constants.StoreFileInputSuffix
}

// InputNames lists every input Load may read, for flag registration.
func InputNames() []string {
	names := []string{
		constants.InputKeys,
		constants.InputKeysFile,
		constants.InputVersionFile,
		constants.InputVerbose,
	}
	names = append(names, constants.ArtifactInputs...)
	names = append(names, constants.NotesInputs...)
	for _, id := range browser.All {
		names = append(names, StoreFileInput(id))
	}
	return names
}

// Chain returns an InputFunc that consults each source in turn, per name,
// and returns the first non-empty value. Aliases keep their precedence:
// for names (a, b), a source that has a wins over a later source that
// has a, and any source's a wins over b.
func Chain(sources ...func(name string) string) InputFunc {
	return func(names ...string) string {
		for _, name := range names {
			for _, src := range sources {
				if v := strings.TrimSpace(src(name)); v != "" {
					return v
				}
			}
		}
		return ""
	}
}
