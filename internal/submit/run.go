package submit

import (
	"context"
	"fmt"
	"log"

	"golang.org/x/sync/errgroup"

	"github.com/nupi-ai/webstore-publish/internal/browser"
	"github.com/nupi-ai/webstore-publish/internal/bundle"
	"github.com/nupi-ai/webstore-publish/internal/constants"
	"github.com/nupi-ai/webstore-publish/internal/diag"
	"github.com/nupi-ai/webstore-publish/internal/stores"
	"github.com/nupi-ai/webstore-publish/internal/util/maps"
)

// Status is the settled state of one store's submission.
type Status string

const (
	StatusSkipped   Status = "skipped"
	StatusDeclined  Status = "declined"
	StatusSucceeded Status = "succeeded"
	StatusFailed    Status = "failed"
)

// Outcome is the result of one store's submission.
type Outcome struct {
	Store  browser.ID
	Status Status
	// Bundle is the absolute bundle path, once validated.
	Bundle   string
	Manifest *bundle.Manifest
	DryRun   bool
	// Warning is a non-fatal note, such as a version mismatch.
	Warning string
	Err     error
}

// Report holds one outcome per candidate store, in candidate order.
type Report struct {
	Outcomes []Outcome
}

// Failed reports whether any store failed.
func (r *Report) Failed() bool {
	for _, o := range r.Outcomes {
		if o.Status == StatusFailed {
			return true
		}
	}
	return false
}

// Count returns how many outcomes have status s.
func (r *Report) Count(s Status) int {
	n := 0
	for _, o := range r.Outcomes {
		if o.Status == s {
			n++
		}
	}
	return n
}

// Runner submits a Plan to every active store concurrently.
type Runner struct {
	Registry stores.Registry
	Diags    *diag.Set
}

// Run starts every store's submission and waits until all of them settle.
// A failing store never cancels or hides the others.
func (r *Runner) Run(ctx context.Context, plan *Plan) *Report {
	outcomes := make([]Outcome, len(plan.Candidates))

	// Loggers are created here, before any goroutine starts.
	loggers := make([]*diag.Logger, len(plan.Candidates))
	for i, id := range plan.Candidates {
		loggers[i] = r.Diags.For(id)
	}

	var g errgroup.Group
	for i, id := range plan.Candidates {
		if plan.IsSkipped(id) {
			outcomes[i] = Outcome{Store: id, Status: StatusSkipped}
			continue
		}
		g.Go(func() error {
			outcomes[i] = r.submit(ctx, id, plan.Keys[id], loggers[i])
			return nil
		})
	}
	_ = g.Wait()

	return &Report{Outcomes: outcomes}
}

func (r *Runner) submit(ctx context.Context, id browser.ID, opts browser.Options, logger *diag.Logger) (out Outcome) {
	out = Outcome{Store: id}
	defer func() {
		if rec := recover(); rec != nil {
			log.Printf("[Submit] ERROR: %s submission panicked: %v", id, rec)
			out.Status = StatusFailed
			out.Err = fmt.Errorf("%s: unexpected failure: %v", id.DisplayName(), rec)
		}
	}()

	client, ok := r.Registry[id]
	if !ok {
		out.Status = StatusFailed
		out.Err = fmt.Errorf("%s: no client available", id.DisplayName())
		return out
	}

	logger.Log("Validating options")
	path, err := Validate(id, opts, client.Required())
	if err != nil {
		logger.Error("%v", err)
		out.Status = StatusFailed
		out.Err = err
		return out
	}
	out.Bundle = path
	out.Manifest = bundle.ManifestOrEmpty(path)
	out.Warning = versionWarning(opts, out.Manifest)
	logger.Log("Bundle %s (%s %s)", path, out.Manifest.Name, out.Manifest.Version)

	if opts.Bool(constants.OptionDryRun) {
		logger.Log("Dry run, not contacting the store")
		out.DryRun = true
		out.Status = StatusSucceeded
		return out
	}

	// The client works on its own copy so the shared options stay read-only.
	submitOpts := maps.Clone(opts)
	submitOpts.SetBundle(path)

	accepted, err := client.Submit(ctx, submitOpts, logger)
	switch {
	case err != nil:
		logger.Error("%v", err)
		out.Status = StatusFailed
		out.Err = &SubmissionError{
			Store:         id,
			ExtensionID:   client.ExtensionID(opts),
			ExtensionName: out.Manifest.Name,
			Err:           err,
		}
	case !accepted:
		out.Status = StatusDeclined
	default:
		out.Status = StatusSucceeded
	}
	return out
}

func versionWarning(opts browser.Options, m *bundle.Manifest) string {
	if m.Version == "" {
		return ""
	}
	descVersion, found, err := bundle.ReadVersion(opts.VersionFile())
	if err != nil || !found {
		return ""
	}
	return bundle.VersionMismatch(m.Version, descVersion)
}
