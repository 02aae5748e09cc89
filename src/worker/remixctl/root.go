package main

import (
	"github.com/apex/log"
	"github.com/apex/log/handlers/cli"
	"github.com/spf13/cobra"
	"github.com/veedubyou/stem-remixer/src/shared/config/envvar"
	"github.com/veedubyou/stem-remixer/src/shared/lib/env"
	"github.com/veedubyou/stem-remixer/src/worker/application"
	"github.com/veedubyou/stem-remixer/src/worker/internal/application/remix/encoder"
	"github.com/veedubyou/stem-remixer/src/worker/internal/application/remix/separator"
)

type commandContext struct {
	demucsBin   string
	demucsModel string
	ffmpegBin   string
	workDir     string
	ladderName  string
	verbose     bool
}

func (c *commandContext) config() (application.Config, error) {
	ladder, err := encoder.LadderByName(c.ladderName)
	if err != nil {
		return application.Config{}, err
	}

	return application.Config{
		DemucsBinPath:  c.demucsBin,
		DemucsModel:    c.demucsModel,
		FFmpegBinPath:  c.ffmpegBin,
		WorkingDirPath: c.workDir,
		EncoderLadder:  ladder,
		Concurrency:    1,
	}, nil
}

func (c *commandContext) tools() (application.Tools, error) {
	config, err := c.config()
	if err != nil {
		return application.Tools{}, err
	}

	return application.NewTools(config)
}

func newRootCommand() *cobra.Command {
	if err := env.LoadDotEnv(".env"); err != nil {
		log.WithError(err).Warn("Failed to load .env")
	}

	ctx := &commandContext{}

	rootCmd := &cobra.Command{
		Use:           "remixctl",
		Short:         "Run and maintain the stem remixer locally",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			log.SetHandler(cli.New(cmd.ErrOrStderr()))
			log.SetLevel(log.InfoLevel)
			if ctx.verbose {
				log.SetLevel(log.DebugLevel)
			}
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	flags := rootCmd.PersistentFlags()
	flags.StringVar(&ctx.demucsBin, "demucs", envvar.GetOrDefault(envvar.DEMUCS_BIN_PATH, "demucs"), "Demucs binary")
	flags.StringVar(&ctx.demucsModel, "model", envvar.GetOrDefault(envvar.DEMUCS_MODEL, separator.DefaultModel), "Demucs model name")
	flags.StringVar(&ctx.ffmpegBin, "ffmpeg", envvar.GetOrDefault(envvar.FFMPEG_BIN_PATH, "ffmpeg"), "FFmpeg binary")
	flags.StringVar(&ctx.workDir, "work-dir", envvar.GetOrDefault(envvar.REMIX_WORKING_DIR_PATH, defaultWorkDir()), "Directory job workspaces are created in")
	flags.StringVar(&ctx.ladderName, "ladder", envvar.GetOrDefault(envvar.REMIX_ENCODER_LADDER, encoder.StandardLadder.Name), "Encoder ladder, standard or legacy")
	flags.BoolVarP(&ctx.verbose, "verbose", "v", false, "Debug logging")

	rootCmd.AddCommand(newRemixCommand(ctx))
	rootCmd.AddCommand(newCheckCommand(ctx))
	rootCmd.AddCommand(newCleanCommand(ctx))

	return rootCmd
}
