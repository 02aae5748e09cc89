package main

import (
	"strings"

	"github.com/veedubyou/stem-remixer/src/server/application"
	"github.com/veedubyou/stem-remixer/src/server/google_id"
	"github.com/veedubyou/stem-remixer/src/server/internal/remix/usecase"
	"github.com/veedubyou/stem-remixer/src/shared/config"
	"github.com/veedubyou/stem-remixer/src/shared/config/dev"
	"github.com/veedubyou/stem-remixer/src/shared/config/envvar"
	"github.com/veedubyou/stem-remixer/src/shared/config/prod"
	"github.com/veedubyou/stem-remixer/src/shared/lib/env"
	"github.com/veedubyou/stem-remixer/src/shared/lib/logging"
)

func main() {
	if err := env.LoadDotEnv(".env"); err != nil {
		panic(err)
	}

	environment := env.Get()
	logging.Setup(environment)

	var appConfig application.Config

	switch environment {
	case env.Production:
		commaSeparatedOrigins := envvar.MustGet(envvar.ALLOWED_FE_ORIGINS)
		allowedOrigins := strings.Split(commaSeparatedOrigins, ",")

		appConfig = application.Config{
			DynamoConfig: config.ProdDynamo{
				AccessKeyID:     envvar.MustGet(envvar.AWS_ACCESS_KEY_ID),
				SecretAccessKey: envvar.MustGet(envvar.AWS_SECRET_ACCESS_KEY),
				Region:          prod.DynamoDBRegion,
			},
			RabbitMQURL:        envvar.MustGet(envvar.RABBITMQ_URL),
			RabbitMQQueueName:  envvar.MustGet(envvar.RABBITMQ_QUEUE_NAME),
			CORSAllowedOrigins: allowedOrigins,
			UserValidator:      google_id.GoogleValidator{ClientID: envvar.MustGet(envvar.GOOGLE_CLIENT_ID)},
			Port:               envvar.GetOrDefault(envvar.SERVER_PORT, dev.ServerPort),
			SubmissionLimit:    submissionLimit(),
			Log:                true,
		}
	case env.Development:
		appConfig = application.Config{
			DynamoConfig:       dev.DynamoConfig,
			RabbitMQURL:        dev.RabbitMQHost,
			RabbitMQQueueName:  dev.RabbitMQQueueName,
			CORSAllowedOrigins: []string{"*"},
			UserValidator:      google_id.GoogleValidator{ClientID: envvar.MustGet(envvar.GOOGLE_CLIENT_ID)},
			Port:               envvar.GetOrDefault(envvar.SERVER_PORT, dev.ServerPort),
			SubmissionLimit:    submissionLimit(),
			AllowLocalSources:  true,
			Log:                true,
		}

	default:
		panic("Unexpected environment")
	}

	app := application.NewApp(appConfig)
	if err := app.Start(); err != nil {
		panic(err)
	}
}

func submissionLimit() remixusecase.SubmissionLimit {
	return remixusecase.SubmissionLimit{
		Every: envvar.DurationOrDefault(envvar.REMIX_SUBMISSION_INTERVAL, dev.SubmissionInterval),
		Burst: envvar.IntOrDefault(envvar.REMIX_SUBMISSION_BURST, dev.SubmissionBurst),
	}
}
