package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/sethvargo/go-githubactions"
	"github.com/spf13/cobra"

	"github.com/nupi-ai/webstore-publish/internal/browser"
	"github.com/nupi-ai/webstore-publish/internal/config"
	"github.com/nupi-ai/webstore-publish/internal/constants"
	"github.com/nupi-ai/webstore-publish/internal/diag"
	"github.com/nupi-ai/webstore-publish/internal/ghaction"
	"github.com/nupi-ai/webstore-publish/internal/stores"
	"github.com/nupi-ai/webstore-publish/internal/submit"
	"github.com/nupi-ai/webstore-publish/internal/version"
)

// errSubmissionsFailed is returned after every store settled and at least
// one failed. The per-store errors have already been reported.
var errSubmissionsFailed = errors.New("one or more store submissions failed")

// newRegistry builds the store clients. Tests replace it with fakes.
var newRegistry = func() stores.Registry {
	return stores.NewRegistry(stores.Config{})
}

// OutputFormatter handles output in JSON or human-readable format
type OutputFormatter struct {
	jsonMode bool
	w        io.Writer
}

// newOutputFormatter creates a new formatter based on the command's --json flag
func newOutputFormatter(cmd *cobra.Command) *OutputFormatter {
	jsonMode, _ := cmd.Flags().GetBool("json")
	return &OutputFormatter{jsonMode: jsonMode, w: cmd.OutOrStdout()}
}

// Print outputs data in the appropriate format
func (f *OutputFormatter) Print(data any) error {
	if s, ok := data.(string); ok && !f.jsonMode {
		fmt.Fprintln(f.w, s)
		return nil
	}
	jsonBytes, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal JSON: %w", err)
	}
	fmt.Fprintln(f.w, string(jsonBytes))
	return nil
}

// publishResult is the --json form of a run.
type publishResult struct {
	Success bool           `json:"success"`
	Error   string         `json:"error,omitempty"`
	Stores  []submit.Entry `json:"stores,omitempty"`
}

// testModeResult is printed instead of submitting when test mode is on.
type testModeResult struct {
	Artifact    string   `json:"artifact"`
	VersionFile string   `json:"version_file"`
	Verbose     bool     `json:"verbose"`
	Candidates  []string `json:"candidates"`
}

func newRootCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "webstore-publish",
		Short: "Submit a browser extension bundle to the extension stores",
		Long: `webstore-publish uploads a packaged browser extension to every store named
in the keys input (Chrome Web Store, Firefox Add-ons, Edge Add-ons and the
Itero TestBed) concurrently, and fails if any store fails.

Inputs are read from the GitHub Actions environment (INPUT_*); a flag of the
same name takes precedence.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE:          runPublish,
	}
	cmd.Version = version.String()
	cmd.SetVersionTemplate("{{printf \"%s\\n\" .Version}}")

	cmd.PersistentFlags().Bool("json", false, "Output in JSON format")
	for _, name := range config.InputNames() {
		cmd.Flags().String(name, "", inputUsage(name))
	}

	cmd.AddCommand(newVersionCommand())
	return cmd
}

func inputUsage(name string) string {
	switch name {
	case constants.InputKeys:
		return "Store credentials as JSON, keyed by store"
	case constants.InputKeysFile:
		return "File holding the keys JSON (used when --keys is empty)"
	case constants.InputVersionFile:
		return "Version descriptor used for {version} substitution"
	case constants.InputVerbose:
		return "Enable verbose diagnostics for every store"
	}
	for _, alias := range constants.ArtifactInputs {
		if name == alias {
			return "Extension bundle submitted to every store"
		}
	}
	for _, alias := range constants.NotesInputs {
		if name == alias {
			return "Release notes for the Edge submission"
		}
	}
	store := strings.TrimSuffix(name, constants.StoreFileInputSuffix)
	return fmt.Sprintf("Extension bundle for %s only", browser.ID(store).DisplayName())
}

func runPublish(cmd *cobra.Command, _ []string) error {
	out := newOutputFormatter(cmd)

	// In JSON mode stdout carries only the result document.
	logWriter := cmd.OutOrStdout()
	if out.jsonMode {
		logWriter = cmd.ErrOrStderr()
	}
	action := ghaction.New(githubactions.WithWriter(logWriter))

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	return publish(ctx, cmd, out, action)
}

func publish(ctx context.Context, cmd *cobra.Command, out *OutputFormatter, action *ghaction.Action) error {
	get := config.Chain(flagSource(cmd), func(name string) string { return action.Input(name) })

	in, err := config.Load(get)
	if err != nil {
		return setupFailure(out, action, err)
	}
	for _, opts := range in.Keys {
		action.Mask(opts.Secrets()...)
	}

	diags := diag.NewSet(func(line string) { action.Info("%s", line) })
	plan, err := submit.Prepare(in.Keys, submit.Overrides{
		Artifact:    in.Artifact,
		StoreFiles:  in.StoreFiles,
		VersionFile: in.VersionFile,
		Verbose:     in.Verbose,
		Notes:       in.Notes,
	}, diags, action.Warning)
	if err != nil {
		return setupFailure(out, action, err)
	}
	for _, id := range plan.Active() {
		action.Debug("%s bundle: %s", id.DisplayName(), plan.Keys[id].Bundle())
	}

	// Test mode stops once every store is resolved, before any client exists.
	if browser.Truthy(os.Getenv(constants.EnvTestMode)) {
		return printTestMode(out, action, in, plan.Candidates)
	}

	action.Info("Submitting to %s", browser.Join(plan.Active()))
	runner := &submit.Runner{Registry: newRegistry(), Diags: diags}
	report := runner.Run(ctx, plan)

	report.Publish(action)
	action.Summary(report.Markdown())

	if out.jsonMode {
		res := publishResult{Success: !report.Failed(), Stores: report.Entries()}
		if report.Failed() {
			res.Error = errSubmissionsFailed.Error()
		}
		if err := out.Print(res); err != nil {
			return err
		}
	}
	if report.Failed() {
		return errSubmissionsFailed
	}
	return nil
}

// setupFailure reports an error that stops the run before any submission.
func setupFailure(out *OutputFormatter, action *ghaction.Action, err error) error {
	action.Fail("%v", err)
	if out.jsonMode {
		if perr := out.Print(publishResult{Success: false, Error: err.Error()}); perr != nil {
			return perr
		}
	}
	return err
}

func printTestMode(out *OutputFormatter, action *ghaction.Action, in *config.Inputs, candidates []browser.ID) error {
	if out.jsonMode {
		names := make([]string, 0, len(candidates))
		for _, id := range candidates {
			names = append(names, string(id))
		}
		return out.Print(testModeResult{
			Artifact:    in.Artifact,
			VersionFile: in.VersionFile,
			Verbose:     in.Verbose,
			Candidates:  names,
		})
	}
	action.Info("artifact: %s", in.Artifact)
	action.Info("version-file: %s", in.VersionFile)
	action.Info("verbose: %t", in.Verbose)
	action.Info("browsers: %s", browser.Join(candidates))
	return nil
}

// flagSource reads inputs from flags that were set on the command line.
func flagSource(cmd *cobra.Command) func(name string) string {
	return func(name string) string {
		f := cmd.Flags().Lookup(name)
		if f == nil || !f.Changed {
			return ""
		}
		return f.Value.String()
	}
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCommand().ExecuteContext(ctx); err != nil {
		stop()
		os.Exit(1)
	}
}
