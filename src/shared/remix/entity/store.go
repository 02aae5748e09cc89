package remixentity

import "context"

//go:generate go run github.com/maxbrunsfeld/counterfeiter/v6 -generate

type JobUpdater func(job Job) (Job, error)

//counterfeiter:generate . Store
type Store interface {
	GetJob(ctx context.Context, jobID string) (Job, error)
	SetJob(ctx context.Context, job Job) error
	UpdateJob(ctx context.Context, jobID string, updater JobUpdater) error
}
