package application

import (
	"net/http"

	"github.com/cockroachdb/errors"
	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/veedubyou/stem-remixer/src/server/google_id"
	"github.com/veedubyou/stem-remixer/src/server/internal/auth/usecase"
	"github.com/veedubyou/stem-remixer/src/server/internal/remix/gateway"
	"github.com/veedubyou/stem-remixer/src/server/internal/remix/usecase"
	"github.com/veedubyou/stem-remixer/src/shared/config"
	"github.com/veedubyou/stem-remixer/src/shared/lib/dynamo"
	"github.com/veedubyou/stem-remixer/src/shared/lib/rabbitmq"
	"github.com/veedubyou/stem-remixer/src/shared/remix/entity"
	"github.com/veedubyou/stem-remixer/src/shared/remix/storage"
)

type HTTPMethod string

const (
	GET    HTTPMethod = "GET"
	POST   HTTPMethod = "POST"
	PUT    HTTPMethod = "PUT"
	DELETE HTTPMethod = "DELETE"
)

type App struct {
	echo      *echo.Echo
	port      string
	publisher *rabbitmq.QueuePublisher
}

type Config struct {
	DynamoConfig       config.Dynamo       `validate:"required"`
	RabbitMQURL        string              `validate:"required,url"`
	RabbitMQQueueName  string              `validate:"required"`
	CORSAllowedOrigins []string            `validate:"min=1,dive,required"`
	UserValidator      google_id.Validator `validate:"required"`
	Port               string              `validate:"required"`
	SubmissionLimit    remixusecase.SubmissionLimit
	AllowLocalSources  bool
	Log                bool
}

// Stores are the backing services the routes need.
type Stores struct {
	JobStore  remixentity.Store
	Publisher rabbitmq.Publisher
}

func ValidateConfig(config Config) error {
	err := validator.New().Struct(config)
	if err != nil {
		return errors.Wrap(err, "Invalid server config")
	}

	return nil
}

func NewApp(config Config) App {
	if err := ValidateConfig(config); err != nil {
		panic(err)
	}

	publisher := makeRabbitMQPublisher(config)
	jobStore := remixstorage.NewDB(dynamolib.Connect(config.DynamoConfig))

	app := NewAppWithStores(config, Stores{
		JobStore:  jobStore,
		Publisher: publisher,
	})
	app.publisher = publisher

	return app
}

func NewAppWithStores(config Config, stores Stores) App {
	e := echo.New()
	e.HideBanner = true

	if config.Log {
		e.Use(middleware.Logger())
	}

	corsMiddleware := makeCorsMiddleware(config)

	handleRoute := func(method HTTPMethod, path string, handlerFunc echo.HandlerFunc) {
		params := func() (string, echo.HandlerFunc, echo.MiddlewareFunc) {
			return path, handlerFunc, corsMiddleware
		}

		e.OPTIONS(params())

		switch method {
		case GET:
			e.GET(params())
		case POST:
			e.POST(params())
		case PUT:
			e.PUT(params())
		case DELETE:
			e.DELETE(params())
		default:
			panic("unhandled http method!")
		}
	}

	remixGateway := makeRemixGateway(config, stores)

	// health check
	handleRoute(GET, "/health-check", func(c echo.Context) error {
		return c.NoContent(http.StatusOK)
	})

	// remix routes
	handleRoute(POST, "/remixes", remixGateway.CreateRemix)
	handleRoute(GET, "/remixes/:id", func(c echo.Context) error {
		jobID := c.Param("id")
		return remixGateway.GetRemix(c, jobID)
	})

	return App{
		echo: e,
		port: config.Port,
	}
}

func (a *App) Handler() http.Handler {
	return a.echo
}

func (a *App) Start() error {
	err := a.echo.Start(a.port)
	if err != nil && err != http.ErrServerClosed {
		return errors.Wrap(err, "Couldn't start echo server")
	}

	return nil
}

func (a *App) Stop() error {
	if a.publisher != nil {
		_ = a.publisher.Close()
	}

	err := a.echo.Close()
	if err != nil {
		return errors.Wrap(err, "Failed to stop echo server")
	}

	return nil
}

func makeRabbitMQPublisher(config Config) *rabbitmq.QueuePublisher {
	publisher, err := rabbitmq.NewQueuePublisher(config.RabbitMQURL, config.RabbitMQQueueName)
	if err != nil {
		panic(errors.Wrap(err, "Failed to create rabbitMQ publisher"))
	}

	return publisher
}

func makeRemixGateway(config Config, stores Stores) remixgateway.Gateway {
	authUsecase := authusecase.NewUsecase(config.UserValidator)
	remixUsecase := remixusecase.NewUsecase(stores.JobStore, stores.Publisher, authUsecase, config.SubmissionLimit)
	if config.AllowLocalSources {
		remixUsecase = remixUsecase.WithLocalSources()
	}
	return remixgateway.NewGateway(remixUsecase)
}

func makeCorsMiddleware(config Config) echo.MiddlewareFunc {
	return middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: config.CORSAllowedOrigins,
		AllowHeaders: []string{echo.HeaderContentType, echo.HeaderAuthorization},
	})
}
