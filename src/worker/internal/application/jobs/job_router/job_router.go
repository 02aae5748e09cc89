package job_router

import (
	"context"

	"github.com/apex/log"
	"github.com/cockroachdb/errors/markers"
	"github.com/rabbitmq/amqp091-go"
	"github.com/veedubyou/stem-remixer/src/shared/remix/entity"
	"github.com/veedubyou/stem-remixer/src/shared/remix/remixerr"
	"github.com/veedubyou/stem-remixer/src/worker/internal/application/jobs/remix"
	"github.com/veedubyou/stem-remixer/src/worker/internal/lib/cerr"
)

//go:generate go run github.com/maxbrunsfeld/counterfeiter/v6 -generate

//counterfeiter:generate . MessageHandler
type MessageHandler interface {
	HandleMessage(message amqp091.Delivery) error
}

var _ MessageHandler = JobRouter{}

func NewJobRouter(jobStore remixentity.Store, remixHandler remix.RemixJobHandler) JobRouter {
	return JobRouter{
		jobStore:     jobStore,
		remixHandler: remixHandler,
	}
}

type JobRouter struct {
	jobStore     remixentity.Store
	remixHandler remix.RemixJobHandler
}

func (j JobRouter) HandleMessage(message amqp091.Delivery) error {
	switch message.Type {
	case remix.JobType:
		return j.handleRemixJob(message)

	default:
		return cerr.Field("message_type", message.Type).Error("Message type is not recognized")
	}
}

func (j JobRouter) handleRemixJob(message amqp091.Delivery) error {
	params, err := j.remixHandler.HandleRemixJob(message.Body)
	if markers.Is(err, remix.NotRequestedMark) {
		log.WithField("job_id", params.JobID).Warn("Duplicate delivery for a job that's already been picked up, leaving it alone")
		return nil
	}

	if err != nil {
		j.recordFailure(params.JobID, err)
		return cerr.Field("job_id", params.JobID).Wrap(err).Error("Failed to handle remix job")
	}

	return nil
}

// recordFailure leaves one user facing message on the job and keeps the
// diagnostics next to it.
func (j JobRouter) recordFailure(jobID string, err error) {
	logger := log.WithField("job_id", jobID)

	if jobID == "" {
		logger.Warn("Job failed before its ID was known, nothing to update")
		return
	}

	if markers.Is(err, remixerr.StemMissingMark) {
		logger.WithError(err).Error("Separation produced incomplete stems")
	}

	userMessage := remixerr.UserMessage(err)
	debugLog := remixerr.DebugLog(err)

	updateErr := j.jobStore.UpdateJob(context.Background(), jobID, func(job remixentity.Job) (remixentity.Job, error) {
		job.Fail(userMessage, debugLog)
		return job, nil
	})

	if updateErr != nil {
		cerr.Log(cerr.Field("job_id", jobID).Wrap(updateErr).Error("Failed to record the job failure"))
	}
}
