package submit

import (
	"errors"
	"fmt"
	"strings"
)

// Sink receives the user-facing report lines. *ghaction.Action implements it.
type Sink interface {
	Info(format string, args ...any)
	Warning(format string, args ...any)
	Fail(format string, args ...any)
	SetOutput(name, value string)
}

// Publish reports every outcome to sink in store order: one failure
// annotation per failed store, a line per success, and a <store>-status
// job output for each candidate.
func (r *Report) Publish(sink Sink) {
	for _, o := range r.Outcomes {
		name := o.Store.DisplayName()
		if o.Warning != "" {
			sink.Warning("%s: %s", name, o.Warning)
		}
		switch o.Status {
		case StatusFailed:
			sink.Fail("%s", o.failureLine())
		case StatusSucceeded:
			if o.DryRun {
				sink.Info("Dry run: %s would be submitted to %s", o.label(), name)
			} else {
				sink.Info("Successfully submitted %s to %s", o.label(), name)
			}
		case StatusDeclined:
			sink.Warning("%s declined the submission of %s", name, o.label())
		case StatusSkipped:
			sink.Info("%s skipped: no bundle provided", name)
		}
		sink.SetOutput(string(o.Store)+"-status", string(o.Status))
	}
}

// failureLine renders a failed outcome as one line tagged with the store
// name once, followed by the extension context when known.
func (o Outcome) failureLine() string {
	name := o.Store.DisplayName()
	var subErr *SubmissionError
	if errors.As(o.Err, &subErr) {
		return fmt.Sprintf("%s submission failed%s: %s", name, subErr.context(), ErrorDetail(subErr.Err))
	}
	detail := strings.TrimPrefix(ErrorDetail(o.Err), name+": ")
	return fmt.Sprintf("%s submission failed: %s", name, detail)
}

// label names the submitted extension for report lines.
func (o Outcome) label() string {
	if o.Manifest == nil || o.Manifest.Name == "" {
		return "the extension"
	}
	if o.Manifest.Version == "" {
		return o.Manifest.Name
	}
	return fmt.Sprintf("%s %s", o.Manifest.Name, o.Manifest.Version)
}

// Markdown renders the report as a step summary table.
func (r *Report) Markdown() string {
	var b strings.Builder
	b.WriteString("### Web store submissions\n\n")
	b.WriteString("| Store | Status | Extension | Detail |\n")
	b.WriteString("| --- | --- | --- | --- |\n")
	for _, o := range r.Outcomes {
		status := string(o.Status)
		if o.DryRun {
			status += " (dry run)"
		}
		detail := ""
		if o.Err != nil {
			detail = o.Err.Error()
		} else if o.Warning != "" {
			detail = o.Warning
		}
		ext := ""
		if o.Manifest != nil && o.Manifest.Name != "" {
			ext = o.label()
		}
		fmt.Fprintf(&b, "| %s | %s | %s | %s |\n",
			o.Store.DisplayName(), status, cell(ext), cell(detail))
	}
	return b.String()
}

func cell(s string) string {
	s = strings.ReplaceAll(s, "|", `\|`)
	return strings.ReplaceAll(s, "\n", " ")
}

// Entry is the JSON form of an Outcome.
type Entry struct {
	Store     string `json:"store"`
	Status    string `json:"status"`
	DryRun    bool   `json:"dry_run,omitempty"`
	Bundle    string `json:"bundle,omitempty"`
	Extension string `json:"extension,omitempty"`
	Version   string `json:"version,omitempty"`
	Warning   string `json:"warning,omitempty"`
	Error     string `json:"error,omitempty"`
}

// Entries returns the report in its JSON form.
func (r *Report) Entries() []Entry {
	out := make([]Entry, 0, len(r.Outcomes))
	for _, o := range r.Outcomes {
		e := Entry{
			Store:   string(o.Store),
			Status:  string(o.Status),
			DryRun:  o.DryRun,
			Bundle:  o.Bundle,
			Warning: o.Warning,
		}
		if o.Manifest != nil {
			e.Extension = o.Manifest.Name
			e.Version = o.Manifest.Version
		}
		if o.Err != nil {
			e.Error = o.Err.Error()
		}
		out = append(out, e)
	}
	return out
}
