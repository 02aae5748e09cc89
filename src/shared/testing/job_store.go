package testing

import (
	"context"
	"sync"

	"github.com/cockroachdb/errors"
	"github.com/veedubyou/stem-remixer/src/shared/lib/errors/mark"
	"github.com/veedubyou/stem-remixer/src/shared/remix/entity"
	"github.com/veedubyou/stem-remixer/src/shared/remix/storage"
)

var ErrStoreUnavailable = errors.New("job store is unavailable")

var _ remixentity.Store = &JobStore{}

// JobStore is an in memory remixentity.Store. Jobs go through their map
// form on the way in and out, the same as they would through DynamoDB.
type JobStore struct {
	Unavailable bool

	mutex sync.RWMutex
	state map[string]map[string]any
}

func NewJobStore() *JobStore {
	return &JobStore{
		state: make(map[string]map[string]any),
	}
}

func (j *JobStore) GetJob(_ context.Context, jobID string) (remixentity.Job, error) {
	if j.Unavailable {
		return remixentity.Job{}, ErrStoreUnavailable
	}

	j.mutex.RLock()
	defer j.mutex.RUnlock()

	stored, ok := j.state[jobID]
	if !ok {
		return remixentity.Job{}, mark.Message(remixstorage.JobNotFound, "Job is not found")
	}

	job := remixentity.Job{}
	if err := job.FromMap(stored); err != nil {
		return remixentity.Job{}, mark.Wrap(err, remixstorage.UnmarshalMark, "Failed to read stored job")
	}

	return job, nil
}

func (j *JobStore) SetJob(_ context.Context, job remixentity.Job) error {
	if j.Unavailable {
		return ErrStoreUnavailable
	}

	if job.GetID() == "" {
		return mark.Message(remixstorage.IDEmptyMark, "Job ID is not defined")
	}

	asMap, err := job.ToMap()
	if err != nil {
		return mark.Wrap(err, remixstorage.MarshalMark, "Failed to marshal job")
	}

	j.mutex.Lock()
	defer j.mutex.Unlock()

	j.state[job.GetID()] = asMap
	return nil
}

func (j *JobStore) UpdateJob(ctx context.Context, jobID string, updater remixentity.JobUpdater) error {
	if j.Unavailable {
		return ErrStoreUnavailable
	}

	job, err := j.GetJob(ctx, jobID)
	if err != nil {
		return errors.Wrap(err, "Can't find the job")
	}

	updatedJob, err := updater(job)
	if err != nil {
		return mark.Wrap(err, remixstorage.DefaultErrorMark, "The updater failed to make changes to the job")
	}

	updatedJob.Defined.ID = jobID
	updatedJob.Touch()

	return j.SetJob(ctx, updatedJob)
}

// MustGetJob is for assertions, it fails the test when the job is missing.
func (j *JobStore) MustGetJob(jobID string) remixentity.Job {
	return ExpectSuccess(j.GetJob(context.Background(), jobID))
}

func (j *JobStore) Count() int {
	j.mutex.RLock()
	defer j.mutex.RUnlock()

	return len(j.state)
}

// All returns every stored job, in no particular order.
func (j *JobStore) All() []remixentity.Job {
	j.mutex.RLock()
	ids := make([]string, 0, len(j.state))
	for id := range j.state {
		ids = append(ids, id)
	}
	j.mutex.RUnlock()

	jobs := make([]remixentity.Job, 0, len(ids))
	for _, id := range ids {
		jobs = append(jobs, j.MustGetJob(id))
	}

	return jobs
}
