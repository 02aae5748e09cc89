package remix

import (
	"context"
	"encoding/json"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/apex/log"
	"github.com/cockroachdb/errors"
	"github.com/cockroachdb/errors/domains"
	"github.com/veedubyou/stem-remixer/src/shared/remix/entity"
	"github.com/veedubyou/stem-remixer/src/shared/remix/queue"
	"github.com/veedubyou/stem-remixer/src/shared/remix/remixerr"
	"github.com/veedubyou/stem-remixer/src/shared/remix/request"
	cloudstorage "github.com/veedubyou/stem-remixer/src/worker/internal/application/cloud_storage/entity"
	"github.com/veedubyou/stem-remixer/src/worker/internal/application/remix/encoder"
	"github.com/veedubyou/stem-remixer/src/worker/internal/application/remix/offload"
	"github.com/veedubyou/stem-remixer/src/worker/internal/application/remix/pipeline"
	"github.com/veedubyou/stem-remixer/src/worker/internal/application/remix/workspace"
	"github.com/veedubyou/stem-remixer/src/worker/internal/lib/cerr"
	"github.com/veedubyou/stem-remixer/src/worker/internal/lib/storagepath"
)

//go:generate go run github.com/maxbrunsfeld/counterfeiter/v6 -generate

const JobType = remixqueue.RemixJobType

const (
	ReadyMessage = "The remix is ready"
	localScheme  = "file://"
)

// NotRequestedMark means the job was already picked up or finished,
// the message is a duplicate and the record must be left alone.
var NotRequestedMark = domains.New("remix_job_not_requested")

//counterfeiter:generate . RemixJobHandler
type RemixJobHandler interface {
	HandleRemixJob(message []byte) (JobParams, error)
}

type JobParams struct {
	remixqueue.JobIdentifier
}

type Config struct {
	JobStore      remixentity.Store
	FileStore     cloudstorage.FileStore
	PathGenerator storagepath.Generator
	Arena         workspace.Arena
	Pool          *offload.Pool
	Pipeline      pipeline.Pipeline
	Ladder        encoder.Ladder
	Timeout       time.Duration
	// file:// sources are only read when this is set
	AllowLocalSources bool
}

func NewJobHandler(config Config) JobHandler {
	return JobHandler{config: config}
}

var _ RemixJobHandler = JobHandler{}

type JobHandler struct {
	config Config
}

func (j JobHandler) HandleRemixJob(message []byte) (JobParams, error) {
	params, err := unmarshalMessage(message)
	if err != nil {
		return JobParams{}, cerr.Wrap(err).Error("Failed to unmarshal message JSON")
	}

	errctx := cerr.Field("job_id", params.JobID)

	job, err := j.claim(params.JobID)
	if err != nil {
		return params, errctx.Wrap(err).Error("Failed to claim the job")
	}

	ctx := context.Background()
	if j.config.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, j.config.Timeout)
		defer cancel()
	}

	output, outputURL, err := j.remix(ctx, job)
	if err != nil {
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			err = errors.Mark(err, remixerr.TimeoutMark)
		}

		return params, errctx.Wrap(err).Error("Failed to remix track")
	}

	statusMessage := ReadyMessage
	if output.Oversized {
		statusMessage = ReadyMessage + ". " + encoder.SizeWarning(output, j.config.Ladder)
	}

	err = j.config.JobStore.UpdateJob(context.Background(), job.GetID(), func(job remixentity.Job) (remixentity.Job, error) {
		job.Complete(outputURL, output.Bitrate, output.SizeBytes, output.Oversized, statusMessage)
		return job, nil
	})
	if err != nil {
		return params, errctx.Wrap(err).Error("Failed to record the finished remix")
	}

	log.WithFields(log.Fields{
		"job_id":     job.GetID(),
		"output_url": outputURL,
		"bitrate":    output.Bitrate,
		"oversized":  output.Oversized,
	}).Info("Remix finished")

	return params, nil
}

// claim moves the job from requested to processing, anything else is a duplicate delivery.
func (j JobHandler) claim(jobID string) (remixentity.Job, error) {
	var claimed remixentity.Job

	updater := func(job remixentity.Job) (remixentity.Job, error) {
		if job.Defined.Status != remixentity.RequestedStatus {
			return remixentity.Job{}, errors.Mark(
				errors.Newf("job is %s, abort processing to be safe", job.Defined.Status),
				NotRequestedMark)
		}

		job.StartProcessing()
		job.Progress(remixentity.FetchingStage)
		claimed = job
		return job, nil
	}

	if err := j.config.JobStore.UpdateJob(context.Background(), jobID, updater); err != nil {
		return remixentity.Job{}, cerr.Wrap(err).Error("Failed to set the job status")
	}

	return claimed, nil
}

// remix runs fetch, pipeline and upload inside one workspace.
func (j JobHandler) remix(ctx context.Context, job remixentity.Job) (encoder.Output, string, error) {
	ws, release, err := j.config.Arena.Acquire(job.GetID())
	if err != nil {
		return encoder.Output{}, "", cerr.Wrap(err).Error("Failed to acquire a workspace")
	}
	defer release()

	req := job.Request()
	sourcePath := ws.InputPath(pipeline.SourceFileName(req.Title, job.Defined.OriginalURL))
	if err := j.fetch(ctx, job.Defined.OriginalURL, sourcePath); err != nil {
		return encoder.Output{}, "", cerr.Wrap(err).Error("Failed to fetch the source track")
	}

	pipelineJob := pipeline.Job{
		ID:         job.GetID(),
		Action:     job.Defined.Command,
		Request:    req,
		SourcePath: sourcePath,
	}

	// Run waits the task out, the workspace can't be released under it
	result, err := offload.Run(ctx, j.config.Pool, func(ctx context.Context) (pipeline.Result, error) {
		return j.config.Pipeline.Run(ctx, ws, pipelineJob, j.progressReporter(job.GetID()))
	})
	if err != nil {
		return encoder.Output{}, "", err
	}

	j.progressReporter(job.GetID())(remixentity.UploadingStage)

	outputURL := j.config.PathGenerator.GeneratePath(job.GetID(), result.FileName)
	if err := j.upload(ctx, result.Output.Path, outputURL); err != nil {
		return encoder.Output{}, "", cerr.Wrap(err).Error("Failed to upload remix")
	}

	return result.Output, outputURL, nil
}

func (j JobHandler) fetch(ctx context.Context, originalURL string, destination string) error {
	errctx := cerr.Field("original_url", originalURL).Field("destination", destination)

	if err := request.CheckSource(originalURL, j.config.AllowLocalSources); err != nil {
		return errctx.Wrap(err).Error("Refused the source track")
	}

	var (
		contents []byte
		err      error
	)

	if strings.HasPrefix(originalURL, localScheme) {
		var localPath string
		localPath, err = url.PathUnescape(strings.TrimPrefix(originalURL, localScheme))
		if err == nil {
			contents, err = os.ReadFile(localPath)
		}
	} else {
		contents, err = j.config.FileStore.GetFile(ctx, originalURL)
	}

	if err != nil {
		return errctx.Wrap(err).Error("Failed to read the source track")
	}

	if err := os.WriteFile(destination, contents, 0o644); err != nil {
		return errctx.Wrap(err).Error("Failed to write the source track into the workspace")
	}

	return nil
}

func (j JobHandler) upload(ctx context.Context, outputPath string, outputURL string) error {
	contents, err := os.ReadFile(outputPath)
	if err != nil {
		return cerr.Field("output_path", outputPath).Wrap(err).Error("Failed to read the encoded remix")
	}

	if err := j.config.FileStore.WriteFile(ctx, outputURL, contents); err != nil {
		return cerr.Field("output_url", outputURL).Wrap(err).Error("Failed to write the remix to the cloud")
	}

	return nil
}

func (j JobHandler) progressReporter(jobID string) pipeline.ProgressFunc {
	return func(stage remixentity.Stage) {
		err := j.config.JobStore.UpdateJob(context.Background(), jobID, func(job remixentity.Job) (remixentity.Job, error) {
			job.Progress(stage)
			return job, nil
		})

		// progress is informational, a missed update doesn't fail the job
		if err != nil {
			log.WithFields(log.Fields{
				"job_id": jobID,
				"stage":  stage,
			}).WithError(err).Warn("Failed to record job progress")
		}
	}
}

func unmarshalMessage(message []byte) (JobParams, error) {
	params := JobParams{}
	err := json.Unmarshal(message, &params)
	if err != nil {
		return JobParams{}, cerr.Wrap(err).Error("Failed to unmarshal message JSON")
	}

	if params.JobID == "" {
		return JobParams{}, cerr.Field("job_params", params).Error("Missing job ID")
	}

	return params, nil
}
