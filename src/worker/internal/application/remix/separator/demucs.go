package separator

import (
	"context"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/apex/log"
	"github.com/cockroachdb/errors"
	"github.com/veedubyou/stem-remixer/src/shared/remix/remixerr"
	"github.com/veedubyou/stem-remixer/src/worker/internal/application/executor"
	"github.com/veedubyou/stem-remixer/src/worker/internal/lib/cerr"
)

//go:generate go run github.com/maxbrunsfeld/counterfeiter/v6 -generate

const (
	DefaultModel  = "htdemucs_ft"
	DefaultShifts = 2
)

//counterfeiter:generate . Separator
type Separator interface {
	// Separate splits the track into stems beneath outRoot and returns the
	// folder holding them.
	Separate(ctx context.Context, trackPath string, outRoot string) (string, error)
}

var _ Separator = Demucs{}

type Demucs struct {
	binPath  string
	model    string
	shifts   int
	executor executor.Executor
}

type Option func(d *Demucs)

func WithModel(model string) Option {
	return func(d *Demucs) {
		if model != "" {
			d.model = model
		}
	}
}

func WithShifts(shifts int) Option {
	return func(d *Demucs) {
		if shifts > 0 {
			d.shifts = shifts
		}
	}
}

func NewDemucs(binPath string, executor executor.Executor, options ...Option) Demucs {
	d := Demucs{
		binPath:  binPath,
		model:    DefaultModel,
		shifts:   DefaultShifts,
		executor: executor,
	}

	for _, option := range options {
		option(&d)
	}

	return d
}

func (d Demucs) Args(trackPath string, outRoot string) []string {
	return []string{"-n", d.model, "--shifts", strconv.Itoa(d.shifts), "--out", outRoot, trackPath}
}

// OutputFolder is where demucs puts the stems: <outRoot>/<model>/<track base name>.
func (d Demucs) OutputFolder(trackPath string, outRoot string) string {
	return filepath.Join(outRoot, d.model, TrackBaseName(trackPath))
}

func (d Demucs) Separate(ctx context.Context, trackPath string, outRoot string) (string, error) {
	args := d.Args(trackPath, outRoot)
	errctx := cerr.Field("demucs_bin_path", d.binPath).Field("demucs_args", args)

	// separation is the lengthy part, if we want to halt now is the time
	if ctx.Err() != nil {
		return "", errctx.Wrap(ctx.Err()).Error("Context cancelled before separation could start")
	}

	logger := log.WithFields(log.Fields{
		"track_path": trackPath,
		"out_root":   outRoot,
		"model":      d.model,
	})
	logger.Info("Running demucs command")

	cmd := d.executor.CommandContext(ctx, d.binPath, args...)
	cmd.SetDir(outRoot)

	output, err := cmd.CombinedOutput()
	if err != nil {
		if ctx.Err() != nil {
			return "", errctx.Wrap(ctx.Err()).Error("Demucs was stopped before it finished")
		}

		sepErr := errors.Mark(&SeparationError{Output: string(output), cause: err}, remixerr.SeparationMark)
		return "", errctx.Field("demucs_output", string(output)).
			Wrap(sepErr).
			Error("Audio separation failed")
	}

	logger.Debug(string(output))
	logger.Info("Finished demucs command")

	return d.OutputFolder(trackPath, outRoot), nil
}

// SeparationError is a non-zero exit from the separation tool.
type SeparationError struct {
	Output string
	cause  error
}

func (s *SeparationError) Error() string {
	return "separation tool exited unsuccessfully: " + s.cause.Error()
}

func (s *SeparationError) Unwrap() error {
	return s.cause
}

func (s *SeparationError) ToolOutput() string {
	return strings.TrimSpace(s.Output)
}

func TrackBaseName(trackPath string) string {
	base := filepath.Base(trackPath)
	return strings.TrimSuffix(base, filepath.Ext(base))
}
