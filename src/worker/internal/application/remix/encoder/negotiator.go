package encoder

import (
	"context"
	"os"
	"strings"

	"github.com/apex/log"
	"github.com/cockroachdb/errors"
	"github.com/dustin/go-humanize"
	"github.com/veedubyou/stem-remixer/src/shared/remix/remixerr"
	"github.com/veedubyou/stem-remixer/src/worker/internal/application/executor"
	"github.com/veedubyou/stem-remixer/src/worker/internal/application/remix/mixplan"
	"github.com/veedubyou/stem-remixer/src/worker/internal/application/remix/stems"
	"github.com/veedubyou/stem-remixer/src/worker/internal/lib/cerr"
)

//go:generate go run github.com/maxbrunsfeld/counterfeiter/v6 -generate

//counterfeiter:generate . Encoder
type Encoder interface {
	Encode(ctx context.Context, plan mixplan.Plan, set stems.Set, outPath string) (Output, error)
}

// Output is the encoded file. Oversized means the whole ladder was tried
// and even the last bitrate didn't fit under the ceiling.
type Output struct {
	Path      string
	Bitrate   string
	SizeBytes int64
	Oversized bool
}

var _ Encoder = Negotiator{}

type Negotiator struct {
	binPath  string
	ladder   Ladder
	executor executor.Executor
}

func NewNegotiator(binPath string, ladder Ladder, executor executor.Executor) (Negotiator, error) {
	if err := ladder.Validate(); err != nil {
		return Negotiator{}, cerr.Field("ladder", ladder.Name).Wrap(err).Error("Invalid encoder ladder")
	}

	return Negotiator{
		binPath:  binPath,
		ladder:   ladder,
		executor: executor,
	}, nil
}

func (n Negotiator) Args(plan mixplan.Plan, set stems.Set, bitrate string, outPath string) []string {
	args := []string{"-y"}
	for _, path := range set.Ordered() {
		args = append(args, "-i", path)
	}

	return append(args,
		"-filter_complex", plan.FilterComplex(),
		"-map", mixplan.OutLabel,
		"-codec:a", "libmp3lame",
		"-b:a", bitrate,
		outPath)
}

// Encode walks the ladder from the top and stops at the first output that fits.
// An encoder failure aborts the walk, a miss on the last rung is only a warning.
func (n Negotiator) Encode(ctx context.Context, plan mixplan.Plan, set stems.Set, outPath string) (Output, error) {
	for _, node := range plan.Stems {
		if set[node.Stem] == "" {
			return Output{}, cerr.Field("stem", node.Stem).Error("Mix plan references a stem that wasn't resolved")
		}
	}

	logger := log.WithFields(log.Fields{
		"out_path": outPath,
		"ladder":   n.ladder.Name,
		"ceiling":  humanize.IBytes(uint64(n.ladder.CeilingBytes)),
	})

	output := Output{Path: outPath}

	for _, bitrate := range n.ladder.Bitrates {
		errctx := cerr.Field("ffmpeg_bin_path", n.binPath).Field("bitrate", bitrate)

		if ctx.Err() != nil {
			return Output{}, errctx.Wrap(ctx.Err()).Error("Context cancelled before encoding could start")
		}

		logger.WithField("bitrate", bitrate).Info("Encoding")

		cmd := n.executor.CommandContext(ctx, n.binPath, n.Args(plan, set, bitrate, outPath)...)
		cmdOutput, err := cmd.CombinedOutput()
		if err != nil {
			if ctx.Err() != nil {
				return Output{}, errctx.Wrap(ctx.Err()).Error("FFmpeg was stopped before it finished")
			}

			encErr := errors.Mark(&EncodingError{Bitrate: bitrate, Output: string(cmdOutput), cause: err}, remixerr.EncodingMark)
			return Output{}, errctx.Field("ffmpeg_output", string(cmdOutput)).
				Wrap(encErr).
				Error("Audio mixing failed")
		}

		info, err := os.Stat(outPath)
		if err != nil {
			encErr := errors.Mark(errors.Wrap(err, "encoder reported success without an output"), remixerr.EncodingMark)
			return Output{}, errctx.Wrap(encErr).Error("Audio mixing failed")
		}

		output.Bitrate = bitrate
		output.SizeBytes = info.Size()

		logger.WithFields(log.Fields{
			"bitrate": bitrate,
			"size":    humanize.IBytes(uint64(output.SizeBytes)),
		}).Info("Encoded output")

		if output.SizeBytes <= n.ladder.CeilingBytes {
			return output, nil
		}
	}

	output.Oversized = true
	logger.WithFields(log.Fields{
		"bitrate": output.Bitrate,
		"size":    humanize.IBytes(uint64(output.SizeBytes)),
	}).Warn("Output is still over the size ceiling at the lowest bitrate")

	return output, nil
}

// SizeWarning is the user facing note for an oversized output.
func (n Negotiator) SizeWarning(output Output) string {
	return SizeWarning(output, n.ladder)
}

func SizeWarning(output Output, ladder Ladder) string {
	if !output.Oversized {
		return ""
	}

	return "The remix is " + humanize.IBytes(uint64(output.SizeBytes)) +
		", over the " + humanize.IBytes(uint64(ladder.CeilingBytes)) +
		" limit even at " + output.Bitrate
}

type EncodingError struct {
	Bitrate string
	Output  string
	cause   error
}

func (e *EncodingError) Error() string {
	return "encoder exited unsuccessfully at " + e.Bitrate + ": " + e.cause.Error()
}

func (e *EncodingError) Unwrap() error {
	return e.cause
}

func (e *EncodingError) ToolOutput() string {
	return strings.TrimSpace(e.Output)
}
