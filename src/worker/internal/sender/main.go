package main

import (
	"context"
	"fmt"
	"os"

	"github.com/apex/log"
	"github.com/veedubyou/stem-remixer/src/shared/config/dev"
	"github.com/veedubyou/stem-remixer/src/shared/lib/dynamo"
	"github.com/veedubyou/stem-remixer/src/shared/lib/env"
	"github.com/veedubyou/stem-remixer/src/shared/lib/logging"
	"github.com/veedubyou/stem-remixer/src/shared/lib/rabbitmq"
	"github.com/veedubyou/stem-remixer/src/shared/remix/entity"
	"github.com/veedubyou/stem-remixer/src/shared/remix/queue"
	"github.com/veedubyou/stem-remixer/src/shared/remix/storage"
)

// Resets a job in the dev stack and sends it to the worker again.
func main() {
	if len(os.Args) != 2 {
		fmt.Fprintln(os.Stderr, "usage: sender <job-id>")
		os.Exit(2)
	}
	jobID := os.Args[1]

	if err := env.LoadDotEnv(".env"); err != nil {
		panic(err)
	}
	logging.Setup(env.Development)

	jobStore := remixstorage.NewDB(dynamolib.Connect(dev.DynamoConfig))
	err := jobStore.UpdateJob(context.Background(), jobID, func(job remixentity.Job) (remixentity.Job, error) {
		job.Requeue()
		return job, nil
	})
	if err != nil {
		panic(err)
	}

	publisher, err := rabbitmq.NewQueuePublisher(dev.RabbitMQHost, dev.RabbitMQQueueName)
	if err != nil {
		panic(err)
	}
	defer publisher.Close()

	if err := remixqueue.PublishRemixJob(publisher, jobID); err != nil {
		panic(err)
	}

	log.WithField("job_id", jobID).Info("Requeued remix job")
}
