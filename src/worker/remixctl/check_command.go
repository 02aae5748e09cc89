package main

import (
	"fmt"

	"github.com/cockroachdb/errors"
	"github.com/spf13/cobra"
	"github.com/veedubyou/stem-remixer/src/worker/internal/application/remix/toolcheck"
)

func newCheckCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "check",
		Short: "Check that demucs and ffmpeg are usable",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			tools, err := ctx.tools()
			if err != nil {
				return err
			}

			statuses := tools.Checker.Check(cmd.Context(), []toolcheck.Requirement{tools.Demucs, tools.FFmpeg})

			out := cmd.OutOrStdout()
			rows := make([][]string, 0, len(statuses))
			missing := 0
			for _, status := range statuses {
				detail := status.Version
				if !status.Available {
					missing++
					detail = status.Detail
				}

				rows = append(rows, []string{status.Name, stateLabel(out, status.Available), status.Command, detail})
			}

			fmt.Fprintln(out, renderTable([]string{"Tool", "Status", "Command", "Detail"}, rows))

			if missing > 0 {
				return errors.Newf("%d required tool(s) unavailable", missing)
			}

			return nil
		},
	}
}
