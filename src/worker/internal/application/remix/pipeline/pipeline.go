package pipeline

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"unicode"

	"github.com/apex/log"
	"github.com/veedubyou/stem-remixer/src/shared/remix/entity"
	"github.com/veedubyou/stem-remixer/src/shared/remix/request"
	"github.com/veedubyou/stem-remixer/src/shared/remix/stem"
	"github.com/veedubyou/stem-remixer/src/worker/internal/application/remix/encoder"
	"github.com/veedubyou/stem-remixer/src/worker/internal/application/remix/mixplan"
	"github.com/veedubyou/stem-remixer/src/worker/internal/application/remix/separator"
	"github.com/veedubyou/stem-remixer/src/worker/internal/application/remix/stems"
	"github.com/veedubyou/stem-remixer/src/worker/internal/application/remix/workspace"
	"github.com/veedubyou/stem-remixer/src/worker/internal/lib/cerr"
)

const maxFileBaseLength = 120

// Job is one remix to run. SourcePath is the track to separate,
// its base name names every artifact.
type Job struct {
	ID         string
	Action     request.Action
	Request    request.Request
	SourcePath string
}

type Result struct {
	Output   encoder.Output
	FileName string
	Request  request.Request
}

// ProgressFunc hears about each stage as it starts.
type ProgressFunc func(stage remixentity.Stage)

func NoProgress(remixentity.Stage) {}

type Pipeline struct {
	separator separator.Separator
	encoder   encoder.Encoder
}

func New(separator separator.Separator, encoder encoder.Encoder) Pipeline {
	return Pipeline{
		separator: separator,
		encoder:   encoder,
	}
}

// Run takes a job from source track to encoded remix inside ws.
// Stages run strictly in order and nothing is retried, the first failure ends the run.
func (p Pipeline) Run(ctx context.Context, ws workspace.Workspace, job Job, progress ProgressFunc) (Result, error) {
	if progress == nil {
		progress = NoProgress
	}

	req := request.ForAction(job.Action, job.Request)
	errctx := cerr.Field("job_id", job.ID).
		Field("stem", req.Stem).
		Field("gain_db", req.GainDB).
		Field("source_path", job.SourcePath)

	// the plan is pure, building it first fails bad requests before the slow part
	plan, err := mixplan.Build(req.Stem, req.GainDB)
	if err != nil {
		return Result{}, errctx.Wrap(err).Error("Remix request is invalid")
	}

	logger := log.WithFields(log.Fields{
		"job_id":  job.ID,
		"stem":    req.Stem,
		"gain_db": req.GainDB,
		"action":  job.Action,
	})

	logger.Info("Separating track")
	progress(remixentity.SeparatingStage)
	outputFolder, err := p.separator.Separate(ctx, job.SourcePath, ws.SeparatedDir())
	if err != nil {
		return Result{}, errctx.Wrap(err).Error("Failed to separate track")
	}

	progress(remixentity.ResolvingStage)
	set, err := stems.Resolve(outputFolder)
	if err != nil {
		return Result{}, errctx.Field("output_folder", outputFolder).Wrap(err).Error("Failed to resolve stems")
	}

	progress(remixentity.MixingStage)
	logger.WithField("filter_complex", plan.FilterComplex()).Debug("Mix plan")

	fileName := OutputFileName(separator.TrackBaseName(job.SourcePath), req.Stem, job.Action)

	logger.WithField("file_name", fileName).Info("Encoding remix")
	progress(remixentity.EncodingStage)
	output, err := p.encoder.Encode(ctx, plan, set, ws.OutputPath(fileName))
	if err != nil {
		return Result{}, errctx.Field("file_name", fileName).Wrap(err).Error("Failed to encode remix")
	}

	return Result{
		Output:   output,
		FileName: fileName,
		Request:  req,
	}, nil
}

// OutputFileName is "<track> (<Stem> <Boost|Reduce>).mp3".
func OutputFileName(trackBaseName string, target stem.Name, action request.Action) string {
	return fmt.Sprintf("%s (%s %s).mp3", trackBaseName, target.Title(), action.Label())
}

// SafeFileBase turns a song title into something usable as a file base name.
func SafeFileBase(title string) string {
	cleaned := strings.Map(func(r rune) rune {
		switch {
		case r == '/' || r == '\\' || r == ':' || r == '*' || r == '?' || r == '"' || r == '<' || r == '>' || r == '|':
			return '_'
		case unicode.IsControl(r):
			return -1
		default:
			return r
		}
	}, title)

	cleaned = strings.Join(strings.Fields(cleaned), " ")
	cleaned = strings.Trim(cleaned, ". ")

	if runes := []rune(cleaned); len(runes) > maxFileBaseLength {
		cleaned = strings.TrimSpace(string(runes[:maxFileBaseLength]))
	}

	if cleaned == "" {
		return "track"
	}

	return cleaned
}

// SourceFileName keeps the original extension so the separator can sniff the format.
func SourceFileName(title string, originalName string) string {
	ext := strings.ToLower(filepath.Ext(originalName))
	if ext == "" || len(ext) > 6 {
		ext = ".mp3"
	}

	return SafeFileBase(title) + ext
}
