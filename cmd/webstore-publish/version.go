package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/nupi-ai/webstore-publish/internal/version"
)

func newVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show the publisher version",
		RunE:  runVersion,
	}
}

func runVersion(cmd *cobra.Command, _ []string) error {
	out := newOutputFormatter(cmd)
	v := version.String()

	if out.jsonMode {
		return out.Print(map[string]any{
			"version":    v,
			"user_agent": version.UserAgent(),
		})
	}

	fmt.Fprintf(cmd.OutOrStdout(), "webstore-publish %s\n", version.FormatVersion(v))
	fmt.Fprintf(cmd.OutOrStdout(), "User-Agent: %s\n", version.UserAgent())
	return nil
}
