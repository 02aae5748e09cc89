package remixqueue

import "github.com/veedubyou/stem-remixer/src/shared/lib/rabbitmq"

// RemixJobType is the message type the worker routes remix jobs by.
const RemixJobType = "remix_track"

type JobIdentifier struct {
	JobID string `json:"job_id"`
}

func PublishRemixJob(publisher rabbitmq.Publisher, jobID string) error {
	return rabbitmq.PublishJSON(publisher, RemixJobType, JobIdentifier{JobID: jobID})
}
