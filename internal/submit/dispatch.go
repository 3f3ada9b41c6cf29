// Package submit drives a publishing run: it decides which stores take part
// and with which bundle, validates each store's options, and submits to
// every store concurrently, collecting one outcome per store.
package submit

import (
	"github.com/nupi-ai/webstore-publish/internal/browser"
	"github.com/nupi-ai/webstore-publish/internal/constants"
	"github.com/nupi-ai/webstore-publish/internal/diag"
)

// Overrides are the run-wide inputs applied on top of the keys.
type Overrides struct {
	// Artifact is the global bundle, the lowest-priority source.
	Artifact string
	// StoreFiles are the per-store bundle inputs, the highest-priority source.
	StoreFiles map[browser.ID]string
	// VersionFile replaces every store's version descriptor when set.
	VersionFile string
	// Verbose turns diagnostics on for every store.
	Verbose bool
	// Notes become the Edge submission notes when Edge takes part.
	Notes string
}

// Plan is the outcome of the sequential resolution phase. Options in Keys
// are final once Prepare returns.
type Plan struct {
	Keys       browser.Keys
	Candidates []browser.ID
	// Skipped holds candidates for which no bundle source was found.
	Skipped map[browser.ID]bool
}

// IsSkipped reports whether id takes no part in the submission.
func (p *Plan) IsSkipped(id browser.ID) bool {
	return p.Skipped[id]
}

// Active returns the candidates that will be submitted to, in order.
func (p *Plan) Active() []browser.ID {
	var out []browser.ID
	for _, id := range p.Candidates {
		if !p.Skipped[id] {
			out = append(out, id)
		}
	}
	return out
}

// ResolveBundleSource picks a store's bundle: the store-specific input
// first, then the store's own zip/file option, then the global artifact.
// It returns "" when none is set.
func ResolveBundleSource(opts browser.Options, storeOverride, global string) string {
	if storeOverride != "" {
		return storeOverride
	}
	if own := opts.Bundle(); own != "" {
		return own
	}
	return global
}

// Prepare selects candidate stores, resolves each one's bundle and applies
// the run-wide overrides to keys in place. warn receives one line per
// skipped store. Diagnostics are enabled on diags for verbose stores.
func Prepare(keys browser.Keys, ov Overrides, diags *diag.Set, warn func(format string, args ...any)) (*Plan, error) {
	candidates := browser.Candidates(keys)
	if len(candidates) == 0 {
		return nil, ErrNoSupportedStore
	}

	plan := &Plan{
		Keys:       keys,
		Candidates: candidates,
		Skipped:    make(map[browser.ID]bool),
	}

	for _, id := range candidates {
		opts := keys[id]
		if opts == nil {
			opts = browser.Options{}
			keys[id] = opts
		}

		if src := ResolveBundleSource(opts, ov.StoreFiles[id], ov.Artifact); src != "" {
			opts.SetBundle(src)
		} else {
			plan.Skipped[id] = true
			if warn != nil {
				warn("No bundle provided for %s, skipping", id.DisplayName())
			}
		}

		if ov.Verbose {
			opts.Set(constants.OptionVerbose, true)
		}
		if ov.VersionFile != "" {
			opts.Set(constants.OptionVersionFile, ov.VersionFile)
		}

		logger := diags.For(id)
		if opts.Bool(constants.OptionVerbose) {
			logger.Enable()
		}
	}

	if ov.Notes != "" {
		if edge, ok := keys[browser.Edge]; ok && edge != nil {
			edge.Set(constants.OptionNotes, ov.Notes)
		}
	}

	if len(plan.Active()) == 0 {
		return nil, ErrNoArtifact
	}
	return plan, nil
}
