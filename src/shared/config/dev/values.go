package dev

import (
	"time"

	"github.com/veedubyou/stem-remixer/src/shared/config"
)

// DynamoDB
const (
	DynamoAccessKeyID     = "local"
	DynamoSecretAccessKey = "local"
	DynamoDBHost          = "http://localhost:8000"
	DynamoDBRegion        = "localhost"
)

var DynamoConfig = config.LocalDynamo{
	AccessKeyID:     DynamoAccessKeyID,
	SecretAccessKey: DynamoSecretAccessKey,
	Region:          DynamoDBRegion,
	Host:            DynamoDBHost,
}

// Server
const (
	ServerPort         = ":5000"
	SubmissionInterval = 2 * time.Minute
	SubmissionBurst    = 3
)

// RabbitMQ
const (
	RabbitMQHost      = "amqp://localhost:5672"
	RabbitMQQueueName = "stem-remixer-jobs-dev"
)

// Remix worker
const (
	EncoderLadder = "standard"
	Concurrency   = 1
	JobTimeout    = 20 * time.Minute
)
