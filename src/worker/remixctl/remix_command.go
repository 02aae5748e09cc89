package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/dustin/go-humanize"
	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"github.com/veedubyou/stem-remixer/src/shared/remix/entity"
	"github.com/veedubyou/stem-remixer/src/shared/remix/remixerr"
	"github.com/veedubyou/stem-remixer/src/shared/remix/request"
	"github.com/veedubyou/stem-remixer/src/worker/internal/application/remix/encoder"
	"github.com/veedubyou/stem-remixer/src/worker/internal/application/remix/offload"
	"github.com/veedubyou/stem-remixer/src/worker/internal/application/remix/pipeline"
	"github.com/veedubyou/stem-remixer/src/worker/internal/lib/cerr"
)

func newRemixCommand(ctx *commandContext) *cobra.Command {
	var (
		outDir string
		title  string
	)

	cmd := &cobra.Command{
		Use:   "remix <boost|reduce> <file> <stem> [gainDb]",
		Short: "Boost or reduce one stem of a local track",
		Args:  cobra.RangeArgs(3, 4),
		RunE: func(cmd *cobra.Command, args []string) error {
			action, err := request.ParseAction(args[0])
			if err != nil {
				return err
			}

			sourcePath, err := filepath.Abs(args[1])
			if err != nil {
				return err
			}

			if _, err := os.Stat(sourcePath); err != nil {
				return errors.Wrapf(err, "can't read %s", args[1])
			}

			gain := ""
			if len(args) == 4 {
				if !looksLikeGain(args[3]) {
					return remixerr.Validation(notANumberMessage(args[3]))
				}
				gain = args[3]
			}

			if strings.TrimSpace(title) == "" {
				title = strings.TrimSuffix(filepath.Base(sourcePath), filepath.Ext(sourcePath))
			}

			req, err := request.Command(action, commandArgs(args[2], gain, title))
			if err != nil {
				return err
			}

			if outDir == "" {
				outDir = filepath.Dir(sourcePath)
			}

			tools, err := ctx.tools()
			if err != nil {
				return err
			}

			runCtx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
			defer stop()

			jobID := uuid.New().String()
			ws, release, err := tools.Arena.Acquire(jobID)
			if err != nil {
				return err
			}
			defer release()

			out := cmd.OutOrStdout()
			future, err := offload.Submit(runCtx, offload.NewPool(1), func(taskCtx context.Context) (pipeline.Result, error) {
				return tools.Pipeline.Run(taskCtx, ws, pipeline.Job{
					ID:         jobID,
					Action:     action,
					Request:    req,
					SourcePath: sourcePath,
				}, func(stage remixentity.Stage) {
					fmt.Fprintf(out, "%s...\n", stage)
				})
			})
			if err != nil {
				return err
			}

			result, err := future.Await(runCtx)
			if runCtx.Err() != nil {
				// the workspace is released on return, the tools have to be gone first
				fmt.Fprintln(cmd.ErrOrStderr(), "Interrupted, waiting for the tools to stop...")
				<-future.Done()
				return context.Canceled
			}
			if err != nil {
				cerr.Log(err)
				return errors.New(remixerr.UserMessage(err))
			}

			destination := filepath.Join(outDir, result.FileName)
			if err := moveFile(result.Output.Path, destination); err != nil {
				return err
			}

			fmt.Fprintf(out, "Wrote %s (%s, %s)\n", destination, result.Output.Bitrate, humanize.IBytes(uint64(result.Output.SizeBytes)))
			if warning := encoder.SizeWarning(result.Output, tools.Ladder); warning != "" {
				fmt.Fprintf(out, "Warning: %s\n", warning)
			}

			return nil
		},
	}

	cmd.Flags().StringVarP(&outDir, "out", "o", "", "Where to write the remix, defaults to the source's directory")
	cmd.Flags().StringVar(&title, "title", "", "Song title, defaults to the file name")

	return cmd
}

// moveFile falls back to copying when the workspace is on another device.
func moveFile(from string, to string) error {
	if err := os.Rename(from, to); err == nil {
		return nil
	}

	contents, err := os.ReadFile(from)
	if err != nil {
		return err
	}

	return os.WriteFile(to, contents, 0o644)
}
