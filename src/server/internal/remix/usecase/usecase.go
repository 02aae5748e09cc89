package remixusecase

import (
	"context"
	"strings"

	"github.com/apex/log"
	"github.com/cockroachdb/errors"
	"github.com/cockroachdb/errors/markers"
	"github.com/go-playground/validator/v10"
	"github.com/veedubyou/stem-remixer/src/server/internal/auth/usecase"
	"github.com/veedubyou/stem-remixer/src/server/internal/errors/api"
	"github.com/veedubyou/stem-remixer/src/server/internal/remix/errors"
	"github.com/veedubyou/stem-remixer/src/shared/lib/rabbitmq"
	"github.com/veedubyou/stem-remixer/src/shared/remix/entity"
	"github.com/veedubyou/stem-remixer/src/shared/remix/queue"
	"github.com/veedubyou/stem-remixer/src/shared/remix/remixerr"
	"github.com/veedubyou/stem-remixer/src/shared/remix/request"
	"github.com/veedubyou/stem-remixer/src/shared/remix/storage"
)

const (
	QueueFailedMessage = "The remix couldn't be queued, please try again"
	RateLimitedMessage = "Too many remixes requested, please wait a little before the next one"
)

type CreateRemixRequest struct {
	Command     string `json:"command" validate:"required,oneof=boost reduce"`
	Args        string `json:"args" validate:"required"`
	OriginalURL string `json:"original_url" validate:"required,url"`
}

type Usecase struct {
	db                remixentity.Store
	publisher         rabbitmq.Publisher
	authUsecase       authusecase.Usecase
	limiter           *submissionLimiter
	validate          *validator.Validate
	allowLocalSources bool
}

func NewUsecase(db remixentity.Store, publisher rabbitmq.Publisher, authUsecase authusecase.Usecase, limit SubmissionLimit) Usecase {
	return Usecase{
		db:          db,
		publisher:   publisher,
		authUsecase: authUsecase,
		limiter:     newSubmissionLimiter(limit),
		validate:    newValidator(),
	}
}

// WithLocalSources lets file:// sources through, for deployments whose
// worker shares a disk with the person submitting.
func (u Usecase) WithLocalSources() Usecase {
	u.allowLocalSources = true
	return u
}

func (u Usecase) CreateRemix(ctx context.Context, authHeader string, body CreateRemixRequest) (remixentity.Job, *api.Error) {
	user, apiErr := u.authUsecase.Authenticate(ctx, authHeader)
	if apiErr != nil {
		return remixentity.Job{}, api.WrapError(apiErr, "Failed to authenticate remix requester")
	}

	body.Command = strings.ToLower(strings.TrimSpace(body.Command))
	body.OriginalURL = strings.TrimSpace(body.OriginalURL)

	if err := u.validate.StructCtx(ctx, body); err != nil {
		return remixentity.Job{}, api.CommitError(errors.Wrap(err, "Remix request failed validation"),
			remixerrors.InvalidRemixRequestCode,
			validationMessage(err))
	}

	if err := request.CheckSource(body.OriginalURL, u.allowLocalSources); err != nil {
		return remixentity.Job{}, api.CommitError(errors.Wrap(err, "Remix source is not allowed"),
			remixerrors.InvalidRemixRequestCode,
			remixerr.UserMessage(err))
	}

	action, err := request.ParseAction(body.Command)
	if err != nil {
		return remixentity.Job{}, api.CommitError(err,
			remixerrors.InvalidRemixRequestCode,
			remixerr.UserMessage(err))
	}

	req, err := request.Command(action, body.Args)
	if err != nil {
		return remixentity.Job{}, api.CommitError(errors.Wrap(err, "Failed to interpret remix arguments"),
			remixerrors.InvalidRemixRequestCode,
			remixerr.UserMessage(err))
	}

	if !u.limiter.Allow(user.GoogleID) {
		return remixentity.Job{}, api.CommitError(errors.Newf("Requester %s is over the submission limit", user.GoogleID),
			remixerrors.RemixRateLimitedCode,
			RateLimitedMessage)
	}

	job := remixentity.NewJob(action, req, body.OriginalURL)
	job.Defined.RequestedBy = user.GoogleID

	err = u.db.SetJob(ctx, job)
	if err != nil {
		return remixentity.Job{}, api.CommitError(errors.Wrap(err, "Failed to save remix job"),
			api.DefaultErrorCode,
			"Unknown error: Failed to save the remix request. Please contact the developer")
	}

	err = remixqueue.PublishRemixJob(u.publisher, job.GetID())
	if err != nil {
		u.markQueueFailed(job.GetID(), err)
		return remixentity.Job{}, api.CommitError(errors.Wrap(err, "Failed to queue remix job"),
			remixerrors.RemixQueueUnavailableCode,
			QueueFailedMessage)
	}

	return job, nil
}

func (u Usecase) GetRemix(ctx context.Context, jobID string) (remixentity.Job, *api.Error) {
	job, err := u.db.GetJob(ctx, jobID)
	if err != nil {
		err = errors.Wrap(err, "Failed to get remix job from DB")
		switch {
		case markers.Is(err, remixstorage.JobNotFound):
			return remixentity.Job{}, api.CommitError(err,
				remixerrors.RemixNotFoundCode,
				"The remix could not be found")

		case markers.Is(err, remixstorage.UnmarshalMark):
			return remixentity.Job{}, api.CommitError(err,
				remixerrors.BadRemixDataCode,
				"The stored remix is malformed. Please contact the developer")

		default:
			return remixentity.Job{}, api.CommitError(err,
				api.DefaultErrorCode,
				"Unknown Error: Failed to fetch the remix")
		}
	}

	return job, nil
}

func (u Usecase) markQueueFailed(jobID string, queueErr error) {
	updater := func(job remixentity.Job) (remixentity.Job, error) {
		job.Fail(QueueFailedMessage, queueErr.Error())
		return job, nil
	}

	// the request context may already be cancelled by now
	err := u.db.UpdateJob(context.Background(), jobID, updater)
	if err != nil {
		log.WithError(err).
			WithField("job_id", jobID).
			Error("Failed to mark unqueued remix job as failed")
	}
}
