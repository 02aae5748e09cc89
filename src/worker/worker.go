package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/apex/log"
	"github.com/veedubyou/stem-remixer/src/shared/config"
	"github.com/veedubyou/stem-remixer/src/shared/config/dev"
	"github.com/veedubyou/stem-remixer/src/shared/config/envvar"
	"github.com/veedubyou/stem-remixer/src/shared/config/local"
	"github.com/veedubyou/stem-remixer/src/shared/config/prod"
	"github.com/veedubyou/stem-remixer/src/shared/lib/env"
	"github.com/veedubyou/stem-remixer/src/shared/lib/logging"
	"github.com/veedubyou/stem-remixer/src/worker/application"
	"github.com/veedubyou/stem-remixer/src/worker/internal/application/remix/encoder"
	"github.com/veedubyou/stem-remixer/src/worker/internal/application/remix/separator"
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
		appConfig = application.Config{
			DynamoConfig: config.ProdDynamo{
				AccessKeyID:     envvar.MustGet(envvar.AWS_ACCESS_KEY_ID),
				SecretAccessKey: envvar.MustGet(envvar.AWS_SECRET_ACCESS_KEY),
				Region:          prod.DynamoDBRegion,
			},
			CloudStorageConfig: config.ProdCloudStorage{
				StorageHost: prod.GOOGLE_STORAGE_HOST,
				SecretKey:   envvar.MustGet(envvar.GOOGLE_CLOUD_KEY),
				BucketName:  envvar.MustGet(envvar.GOOGLE_CLOUD_STORAGE_BUCKET_NAME),
			},
			RabbitMQURL:       envvar.MustGet(envvar.RABBITMQ_URL),
			RabbitMQQueueName: envvar.MustGet(envvar.RABBITMQ_QUEUE_NAME),
			DemucsBinPath:     envvar.MustGet(envvar.DEMUCS_BIN_PATH),
			DemucsModel:       envvar.GetOrDefault(envvar.DEMUCS_MODEL, separator.DefaultModel),
			FFmpegBinPath:     envvar.MustGet(envvar.FFMPEG_BIN_PATH),
			WorkingDirPath:    envvar.MustGet(envvar.REMIX_WORKING_DIR_PATH),
			EncoderLadder:     ladder(envvar.GetOrDefault(envvar.REMIX_ENCODER_LADDER, encoder.StandardLadder.Name)),
			Concurrency:       envvar.IntOrDefault(envvar.REMIX_CONCURRENCY, 1),
			JobTimeout:        envvar.DurationOrDefault(envvar.REMIX_JOB_TIMEOUT, dev.JobTimeout),
			StaleWorkspaceAge: envvar.DurationOrDefault(envvar.REMIX_STALE_WORKSPACE_AGE, application.DefaultStaleWorkspaceAge),
		}

	case env.Development:
		appConfig = application.Config{
			DynamoConfig: dev.DynamoConfig,
			// using prod for now because the local fake GCS doesn't persist
			CloudStorageConfig: config.ProdCloudStorage{
				StorageHost: prod.GOOGLE_STORAGE_HOST,
				SecretKey:   envvar.MustGet(envvar.GOOGLE_CLOUD_KEY),
				BucketName:  envvar.MustGet(envvar.GOOGLE_CLOUD_STORAGE_BUCKET_NAME),
			},
			RabbitMQURL:       dev.RabbitMQHost,
			RabbitMQQueueName: dev.RabbitMQQueueName,
			DemucsBinPath:     config.BinOrFind(envvar.GetOrDefault(envvar.DEMUCS_BIN_PATH, ""), "demucs"),
			DemucsModel:       envvar.GetOrDefault(envvar.DEMUCS_MODEL, separator.DefaultModel),
			FFmpegBinPath:     config.BinOrFind(envvar.GetOrDefault(envvar.FFMPEG_BIN_PATH, ""), "ffmpeg"),
			WorkingDirPath:    local.WorkingDir(),
			EncoderLadder:     ladder(envvar.GetOrDefault(envvar.REMIX_ENCODER_LADDER, dev.EncoderLadder)),
			Concurrency:       envvar.IntOrDefault(envvar.REMIX_CONCURRENCY, dev.Concurrency),
			JobTimeout:        envvar.DurationOrDefault(envvar.REMIX_JOB_TIMEOUT, dev.JobTimeout),
			StaleWorkspaceAge: envvar.DurationOrDefault(envvar.REMIX_STALE_WORKSPACE_AGE, application.DefaultStaleWorkspaceAge),
			AllowLocalSources: true,
		}

	default:
		panic("Unexpected environment")
	}

	app := application.NewApp(appConfig)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	go func() {
		<-ctx.Done()
		log.Info("Shutting down worker")
		app.Stop()
	}()

	if err := app.Start(); err != nil {
		panic(err)
	}
}

func ladder(name string) encoder.Ladder {
	l, err := encoder.LadderByName(name)
	if err != nil {
		panic(err)
	}

	return l
}
