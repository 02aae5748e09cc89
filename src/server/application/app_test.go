package application_test

import (
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/veedubyou/stem-remixer/src/server/application"
	"github.com/veedubyou/stem-remixer/src/shared/config/dev"
	"github.com/veedubyou/stem-remixer/src/shared/remix/queue"
	. "github.com/veedubyou/stem-remixer/src/shared/testing"
)

var _ = Describe("App", func() {
	var (
		config    application.Config
		jobStore  *JobStore
		publisher *RecordingPublisher
		app       application.App
	)

	BeforeEach(func() {
		config = application.Config{
			DynamoConfig:       dev.DynamoConfig,
			RabbitMQURL:        dev.RabbitMQHost,
			RabbitMQQueueName:  RabbitMQQueueName,
			CORSAllowedOrigins: []string{"https://remix.example.com"},
			UserValidator:      TestingValidator{},
			Port:               ":5000",
		}

		jobStore = NewJobStore()
		publisher = NewRecordingPublisher()
	})

	JustBeforeEach(func() {
		app = application.NewAppWithStores(config, application.Stores{
			JobStore:  jobStore,
			Publisher: publisher,
		})
	})

	Describe("Config validation", func() {
		It("accepts a complete config", func() {
			Expect(application.ValidateConfig(config)).To(Succeed())
		})

		It("requires a port", func() {
			config.Port = ""
			Expect(application.ValidateConfig(config)).NotTo(Succeed())
		})

		It("requires at least one allowed origin", func() {
			config.CORSAllowedOrigins = nil
			Expect(application.ValidateConfig(config)).NotTo(Succeed())
		})

		It("requires a user validator", func() {
			config.UserValidator = nil
			Expect(application.ValidateConfig(config)).NotTo(Succeed())
		})

		It("requires a dynamo config", func() {
			config.DynamoConfig = nil
			Expect(application.ValidateConfig(config)).NotTo(Succeed())
		})
	})

	Describe("Routes", func() {
		It("answers the health check", func() {
			response := RequestFactory{
				Method: "GET",
				Target: "/health-check",
			}.Serve(app.Handler())

			Expect(response.Code).To(Equal(http.StatusOK))
		})

		It("creates and then fetches a remix", func() {
			By("Posting the remix request")
			createResponse := RequestFactory{
				Method: "POST",
				Target: "/remixes",
				Mods:   RequestModifiers{WithUserCred(PrimaryUser)},
				JSONObj: map[string]any{
					"command":      "boost",
					"args":         "bass 6 Kind of Blue",
					"original_url": "https://storage.googleapis.com/bucket/kind-of-blue.mp3",
				},
			}.Serve(app.Handler())

			Expect(createResponse.Code).To(Equal(http.StatusCreated))
			created := DecodeJSON[map[string]any](createResponse.Body)
			jobID := ExpectType[string](created["id"])

			By("Checking the job was queued")
			messages := ExpectSuccess(publisher.Unload())
			Expect(messages).To(HaveLen(1))
			Expect(messages[0].Type).To(Equal(remixqueue.RemixJobType))

			By("Fetching it back by ID")
			getResponse := RequestFactory{
				Method: "GET",
				Target: fmt.Sprintf("/remixes/%s", jobID),
			}.Serve(app.Handler())

			Expect(getResponse.Code).To(Equal(http.StatusOK))
			fetched := DecodeJSON[map[string]any](getResponse.Body)
			Expect(fetched["gain_db"]).To(BeNumerically("==", 6))
		})

		It("responds not found for an unknown remix", func() {
			response := RequestFactory{
				Method: "GET",
				Target: "/remixes/unknown",
			}.Serve(app.Handler())

			Expect(response.Code).To(Equal(http.StatusNotFound))
		})

		It("answers a CORS preflight for an allowed origin", func() {
			response := RequestFactory{
				Method: "OPTIONS",
				Target: "/remixes",
				Mods: RequestModifiers{
					WithHeader(echo.HeaderOrigin, "https://remix.example.com"),
					WithHeader(echo.HeaderAccessControlRequestMethod, "POST"),
				},
			}.Serve(app.Handler())

			Expect(response.Code).To(Equal(http.StatusNoContent))
			Expect(response.Header().Get(echo.HeaderAccessControlAllowOrigin)).To(Equal("https://remix.example.com"))
		})

		It("doesn't allow other origins", func() {
			response := RequestFactory{
				Method: "OPTIONS",
				Target: "/remixes",
				Mods: RequestModifiers{
					WithHeader(echo.HeaderOrigin, "https://elsewhere.example.com"),
					WithHeader(echo.HeaderAccessControlRequestMethod, "POST"),
				},
			}.Serve(app.Handler())

			Expect(response.Header().Get(echo.HeaderAccessControlAllowOrigin)).To(BeEmpty())
		})
	})
})
