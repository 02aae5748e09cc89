package main

import (
	"fmt"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/spf13/cobra"
	"github.com/veedubyou/stem-remixer/src/worker/application"
)

func newCleanCommand(ctx *commandContext) *cobra.Command {
	var olderThan time.Duration

	cmd := &cobra.Command{
		Use:   "clean",
		Short: "Remove workspaces left behind by crashed runs",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			tools, err := ctx.tools()
			if err != nil {
				return err
			}

			result := tools.Arena.CleanStale(cmd.Context(), olderThan)

			out := cmd.OutOrStdout()
			for _, removed := range result.Removed {
				fmt.Fprintf(out, "removed  %s\n", removed)
			}
			for _, skipped := range result.Skipped {
				fmt.Fprintf(out, "in use   %s\n", skipped)
			}
			for _, failure := range result.Errors {
				fmt.Fprintf(out, "failed   %s: %v\n", failure.Path, failure.Error)
			}

			fmt.Fprintf(out, "Removed %d, skipped %d\n", len(result.Removed), len(result.Skipped))

			if len(result.Errors) > 0 {
				return errors.Newf("%d workspace(s) couldn't be removed", len(result.Errors))
			}

			return nil
		},
	}

	cmd.Flags().DurationVar(&olderThan, "older-than", application.DefaultStaleWorkspaceAge, "Only remove workspaces at least this old")

	return cmd
}
