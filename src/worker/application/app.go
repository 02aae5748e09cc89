package application

import (
	"context"
	"time"

	"github.com/apex/log"
	"github.com/rabbitmq/amqp091-go"
	"github.com/veedubyou/stem-remixer/src/shared/config"
	"github.com/veedubyou/stem-remixer/src/shared/lib/dynamo"
	"github.com/veedubyou/stem-remixer/src/shared/remix/entity"
	"github.com/veedubyou/stem-remixer/src/shared/remix/storage"
	filestore "github.com/veedubyou/stem-remixer/src/worker/internal/application/cloud_storage/store"
	"github.com/veedubyou/stem-remixer/src/worker/internal/application/executor"
	"github.com/veedubyou/stem-remixer/src/worker/internal/application/jobs/job_router"
	"github.com/veedubyou/stem-remixer/src/worker/internal/application/jobs/remix"
	"github.com/veedubyou/stem-remixer/src/worker/internal/application/remix/encoder"
	"github.com/veedubyou/stem-remixer/src/worker/internal/application/remix/offload"
	"github.com/veedubyou/stem-remixer/src/worker/internal/application/remix/pipeline"
	"github.com/veedubyou/stem-remixer/src/worker/internal/application/remix/separator"
	"github.com/veedubyou/stem-remixer/src/worker/internal/application/remix/toolcheck"
	"github.com/veedubyou/stem-remixer/src/worker/internal/application/remix/workspace"
	"github.com/veedubyou/stem-remixer/src/worker/internal/application/worker"
	"github.com/veedubyou/stem-remixer/src/worker/internal/lib/cerr"
	"github.com/veedubyou/stem-remixer/src/worker/internal/lib/storagepath"
	"google.golang.org/api/option"
)

const DefaultStaleWorkspaceAge = 6 * time.Hour

func must[T any](t T, err error) T {
	if err != nil {
		panic(err)
	}

	return t
}

type App struct {
	worker *worker.QueueWorker
	pool   *offload.Pool
	tools  Tools
	config Config
}

type Config struct {
	RabbitMQURL        string
	RabbitMQQueueName  string
	DynamoConfig       config.Dynamo
	CloudStorageConfig config.CloudStorage

	DemucsBinPath     string
	DemucsModel       string
	FFmpegBinPath     string
	WorkingDirPath    string
	EncoderLadder     encoder.Ladder
	Concurrency       int
	JobTimeout        time.Duration
	StaleWorkspaceAge time.Duration
	AllowLocalSources bool
}

// Tools is the remix machinery without any queue or storage around it,
// the CLI runs it directly against local files.
type Tools struct {
	Executor executor.Executor
	Arena    workspace.Arena
	Pipeline pipeline.Pipeline
	Ladder   encoder.Ladder
	Checker  toolcheck.Checker
	Demucs   toolcheck.Requirement
	FFmpeg   toolcheck.Requirement
}

func NewTools(config Config) (Tools, error) {
	exec := executor.BinaryFileExecutor{}

	arena, err := workspace.NewArena(config.WorkingDirPath)
	if err != nil {
		return Tools{}, cerr.Wrap(err).Error("Failed to set up the workspace arena")
	}

	negotiator, err := encoder.NewNegotiator(config.FFmpegBinPath, config.EncoderLadder, exec)
	if err != nil {
		return Tools{}, cerr.Wrap(err).Error("Failed to set up the encoder")
	}

	demucs := separator.NewDemucs(config.DemucsBinPath, exec, separator.WithModel(config.DemucsModel))

	return Tools{
		Executor: exec,
		Arena:    arena,
		Pipeline: pipeline.New(demucs, negotiator),
		Ladder:   config.EncoderLadder,
		Checker:  toolcheck.NewChecker(exec),
		Demucs:   toolcheck.Demucs(config.DemucsBinPath),
		FFmpeg:   toolcheck.FFmpeg(config.FFmpegBinPath),
	}, nil
}

// Preflight fails when a required binary is missing and sweeps workspaces
// that a crashed process left behind.
func (t Tools) Preflight(ctx context.Context, staleAge time.Duration) error {
	if _, err := t.Checker.Require(ctx, t.Demucs, t.FFmpeg); err != nil {
		return cerr.Wrap(err).Error("Remix tools are not ready")
	}

	if staleAge <= 0 {
		staleAge = DefaultStaleWorkspaceAge
	}

	result := t.Arena.CleanStale(ctx, staleAge)
	log.WithFields(log.Fields{
		"removed": len(result.Removed),
		"skipped": len(result.Skipped),
		"errors":  len(result.Errors),
	}).Info("Swept stale workspaces")

	return nil
}

func NewApp(config Config) App {
	consumerConn := must(amqp091.Dial(config.RabbitMQURL))
	tools := must(NewTools(config))
	pool := offload.NewPool(config.Concurrency)

	return App{
		worker: newWorker(config, tools, pool, consumerConn),
		pool:   pool,
		tools:  tools,
		config: config,
	}
}

func (a *App) Start() error {
	if err := a.tools.Preflight(context.Background(), a.config.StaleWorkspaceAge); err != nil {
		return cerr.Wrap(err).Error("Failed preflight checks")
	}

	err := a.worker.Start()
	if err != nil {
		return cerr.Wrap(err).Error("Failed to start worker")
	}

	return nil
}

// Stop stops consuming and lets remixes already running finish.
func (a *App) Stop() {
	a.worker.Stop()
	a.pool.Wait()
}

func newWorker(config Config, tools Tools, pool *offload.Pool, consumerConn *amqp091.Connection) *worker.QueueWorker {
	jobStore := remixstorage.NewDB(dynamolib.Connect(config.DynamoConfig))

	return must(worker.NewQueueWorkerFromConnection(
		consumerConn,
		config.RabbitMQQueueName,
		newJobRouter(config, tools, pool, jobStore),
		config.Concurrency))
}

func newGoogleFileStore(cloudStorageConfig config.CloudStorage) filestore.GoogleFileStore {
	switch t := cloudStorageConfig.(type) {
	case config.ProdCloudStorage:
		return must(filestore.NewGoogleFileStore(
			t.StorageHost,
			option.WithCredentialsJSON([]byte(t.SecretKey)),
		))

	case config.LocalCloudStorage:
		return must(filestore.NewGoogleFileStore(
			t.StorageHost,
			option.WithEndpoint(t.HostEndpoint),
			option.WithAPIKey("fake_api_key"),
		))

	default:
		panic("Unrecognized cloud storage config")
	}
}

func newJobRouter(config Config, tools Tools, pool *offload.Pool, jobStore remixentity.Store) job_router.JobRouter {
	pathGenerator := storagepath.Generator{
		Host:   config.CloudStorageConfig.GetStorageHost(),
		Bucket: config.CloudStorageConfig.GetBucket(),
	}

	handler := remix.NewJobHandler(remix.Config{
		JobStore:      jobStore,
		FileStore:     newGoogleFileStore(config.CloudStorageConfig),
		PathGenerator: pathGenerator,
		Arena:         tools.Arena,
		Pool:          pool,
		Pipeline:      tools.Pipeline,
		Ladder:        tools.Ladder,
		Timeout:       config.JobTimeout,

		AllowLocalSources: config.AllowLocalSources,
	})

	return job_router.NewJobRouter(jobStore, handler)
}
