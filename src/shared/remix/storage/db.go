package remixstorage

import (
	"context"

	"github.com/cockroachdb/errors"
	"github.com/cockroachdb/errors/markers"
	"github.com/guregu/dynamo"
	"github.com/veedubyou/stem-remixer/src/shared/lib/dynamo"
	"github.com/veedubyou/stem-remixer/src/shared/lib/errors/mark"
	"github.com/veedubyou/stem-remixer/src/shared/remix/entity"
)

const (
	JobsTable = "RemixJobs"
)

var _ remixentity.Store = DB{}

type DB struct {
	dynamoDB dynamolib.DynamoDBWrapper
}

func NewDB(dynamoDB dynamolib.DynamoDBWrapper) DB {
	return DB{
		dynamoDB: dynamoDB,
	}
}

func (d DB) GetJob(ctx context.Context, jobID string) (remixentity.Job, error) {
	if jobID == "" {
		return remixentity.Job{}, mark.Message(IDEmptyMark, "No job ID was provided")
	}

	value := dbJob{}
	err := d.dynamoDB.Table(JobsTable).
		Get(idKey, jobID).
		OneWithContext(ctx, &value)

	if err != nil {
		switch {
		case markers.Is(err, UnmarshalMark):
			return remixentity.Job{}, errors.Wrap(err, "Failed to fetch job")
		case errors.Is(err, dynamo.ErrNotFound):
			return remixentity.Job{}, mark.Wrap(err, JobNotFound, "Job is not found")
		default:
			return remixentity.Job{}, mark.Wrap(err, DefaultErrorMark, "Failed to fetch job")
		}
	}

	job := remixentity.Job{}
	err = job.FromMap(value)
	if err != nil {
		return remixentity.Job{},
			mark.Wrap(err, UnmarshalMark, "Failed to transform DB map back to entity job")
	}

	return job, nil
}

func (d DB) SetJob(ctx context.Context, job remixentity.Job) error {
	if job.GetID() == "" {
		return mark.Message(IDEmptyMark, "Job ID is not defined")
	}

	dbObject, err := job.ToMap()
	if err != nil {
		return mark.Wrap(err, MarshalMark, "Failed to transform entity job to a generic map object")
	}

	err = d.dynamoDB.Table(JobsTable).Put(dbObject).RunWithContext(ctx)
	if err != nil {
		return mark.Wrap(err, DefaultErrorMark, "Failed to put the job in the DB")
	}

	return nil
}

// UpdateJob is a read-modify-write guarded on updated_at,
// a concurrent writer makes it fail with ConflictMark instead of clobbering.
func (d DB) UpdateJob(ctx context.Context, jobID string, updater remixentity.JobUpdater) error {
	job, err := d.GetJob(ctx, jobID)
	if err != nil {
		return errors.Wrap(err, "Can't find the job")
	}

	previousVersion := job.Defined.UpdatedAt

	updatedJob, err := updater(job)
	if err != nil {
		return mark.Wrap(err, DefaultErrorMark, "The updater failed to make changes to the job")
	}

	// the key can't change under an update
	updatedJob.Defined.ID = jobID
	updatedJob.Touch()

	dbObject, err := updatedJob.ToMap()
	if err != nil {
		return mark.Wrap(err, MarshalMark, "Failed to marshal job entity to map")
	}

	err = d.dynamoDB.Table(JobsTable).
		PutIfUnchanged(dbObject, updatedAtKey, previousVersion).
		RunWithContext(ctx)

	if err != nil {
		if dynamolib.IsConditionFailed(err) {
			return mark.Wrap(err, ConflictMark, "Job was changed by another writer")
		}

		return mark.Wrap(err, DefaultErrorMark, "Unable to set the job")
	}

	return nil
}
