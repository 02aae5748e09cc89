package remix_test

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/veedubyou/stem-remixer/src/server/internal/auth/usecase"
	"github.com/veedubyou/stem-remixer/src/server/internal/errors/auth"
	"github.com/veedubyou/stem-remixer/src/server/internal/remix/errors"
	"github.com/veedubyou/stem-remixer/src/server/internal/remix/gateway"
	"github.com/veedubyou/stem-remixer/src/server/internal/remix/usecase"
	"github.com/veedubyou/stem-remixer/src/shared/remix/entity"
	"github.com/veedubyou/stem-remixer/src/shared/remix/queue"
	"github.com/veedubyou/stem-remixer/src/shared/remix/remixerr"
	"github.com/veedubyou/stem-remixer/src/shared/remix/request"
	"github.com/veedubyou/stem-remixer/src/shared/remix/stem"
	. "github.com/veedubyou/stem-remixer/src/shared/testing"
)

var _ = Describe("Remix", func() {
	var (
		remixGateway remixgateway.Gateway
		jobStore     *JobStore
		publisher    *RecordingPublisher
	)

	BeforeEach(func() {
		jobStore = NewJobStore()
		publisher = NewRecordingPublisher()

		authUsecase := authusecase.NewUsecase(TestingValidator{})
		remixUsecase := remixusecase.NewUsecase(jobStore, publisher, authUsecase, remixusecase.SubmissionLimit{})
		remixGateway = remixgateway.NewGateway(remixUsecase)
	})

	var createRemixAs = func(payload map[string]any, mods ...RequestModifier) *httptest.ResponseRecorder {
		createRequest := RequestFactory{
			Method:  "POST",
			Target:  "/remixes",
			JSONObj: payload,
			Mods:    mods,
		}.MakeFake()

		response := httptest.NewRecorder()
		c := PrepareEchoContext(createRequest, response)
		err := remixGateway.CreateRemix(c)
		Expect(err).NotTo(HaveOccurred())

		return response
	}

	var createRemix = func(payload map[string]any) *httptest.ResponseRecorder {
		return createRemixAs(payload, WithUserCred(PrimaryUser))
	}

	var getRemix = func(jobID string) *httptest.ResponseRecorder {
		getRequest := RequestFactory{
			Method: "GET",
			Target: fmt.Sprintf("/remixes/%s", jobID),
		}.MakeFake()

		response := httptest.NewRecorder()
		c := PrepareEchoContext(getRequest, response)
		err := remixGateway.GetRemix(c, jobID)
		Expect(err).NotTo(HaveOccurred())

		return response
	}

	var ItDoesntQueueMessages = func() {
		It("doesn't queue any messages", func() {
			Expect(ExpectSuccess(publisher.Unload())).To(BeEmpty())
		})
	}

	Describe("Create remix", func() {
		var (
			payload  map[string]any
			response *httptest.ResponseRecorder
		)

		BeforeEach(func() {
			payload = map[string]any{
				"command":      "boost",
				"args":         "bass Kind of Blue",
				"original_url": "https://storage.googleapis.com/bucket/kind-of-blue.mp3",
			}
		})

		JustBeforeEach(func() {
			response = createRemix(payload)
		})

		Describe("With a boost command", func() {
			var created map[string]any

			JustBeforeEach(func() {
				created = DecodeJSON[map[string]any](response.Body)
			})

			It("responds created", func() {
				Expect(response.Code).To(Equal(http.StatusCreated))
			})

			It("returns the requested job", func() {
				Expect(created["id"]).NotTo(BeEmpty())
				Expect(created["command"]).To(Equal("boost"))
				Expect(created["stem"]).To(Equal("bass"))
				Expect(created["gain_db"]).To(BeNumerically("==", request.DefaultGainDB))
				Expect(created["title"]).To(Equal("Kind of Blue"))
				Expect(created["status"]).To(Equal(string(remixentity.RequestedStatus)))
				Expect(created["progress_stage"]).To(Equal(string(remixentity.QueuedStage)))
			})

			It("saves the job", func() {
				jobID := ExpectType[string](created["id"])
				job := jobStore.MustGetJob(jobID)

				Expect(job.Defined.RequestedBy).To(Equal(PrimaryUser.GoogleID))
				Expect(job.Defined.Stem).To(Equal(stem.Bass))
				Expect(job.Defined.GainDB).To(Equal(request.DefaultGainDB))
				Expect(job.Defined.OriginalURL).To(Equal(payload["original_url"]))
			})

			It("queues a remix job message", func() {
				messages := ExpectSuccess(publisher.Unload())
				Expect(messages).To(HaveLen(1))
				Expect(messages[0].Type).To(Equal(remixqueue.RemixJobType))
				Expect(messages[0].Message).To(Equal(map[string]any{
					"job_id": created["id"],
				}))
			})
		})

		Describe("With a reduce command carrying a positive gain", func() {
			BeforeEach(func() {
				payload["command"] = "Reduce"
				payload["args"] = "vocals 8 Halo"
			})

			It("forces the gain negative", func() {
				Expect(response.Code).To(Equal(http.StatusCreated))

				created := DecodeJSON[map[string]any](response.Body)
				Expect(created["command"]).To(Equal("reduce"))
				Expect(created["gain_db"]).To(BeNumerically("==", -8))
			})
		})

		Describe("With a local file URL where local sources are allowed", func() {
			BeforeEach(func() {
				authUsecase := authusecase.NewUsecase(TestingValidator{})
				remixUsecase := remixusecase.NewUsecase(jobStore, publisher, authUsecase, remixusecase.SubmissionLimit{})
				remixGateway = remixgateway.NewGateway(remixUsecase.WithLocalSources())
				payload["original_url"] = "file:///music/kind-of-blue.mp3"
			})

			It("accepts it", func() {
				Expect(response.Code).To(Equal(http.StatusCreated))
			})
		})

		var ItRejects = func(expectedMsg string) {
			It("responds bad request", func() {
				Expect(response.Code).To(Equal(http.StatusBadRequest))

				errResponse := DecodeJSONError(response.Body)
				Expect(errResponse.Code).To(Equal(string(remixerrors.InvalidRemixRequestCode)))
				Expect(errResponse.Msg).To(Equal(expectedMsg))
			})

			It("doesn't save a job", func() {
				Expect(jobStore.Count()).To(BeZero())
			})

			ItDoesntQueueMessages()
		}

		Describe("With an unknown command", func() {
			BeforeEach(func() {
				payload["command"] = "louder"
			})

			ItRejects("Unknown command 'louder'. Must be one of: boost, reduce")
		})

		Describe("With no args", func() {
			BeforeEach(func() {
				delete(payload, "args")
			})

			ItRejects("Missing args")
		})

		Describe("With a bad original URL", func() {
			BeforeEach(func() {
				payload["original_url"] = "kind of blue"
			})

			ItRejects("original_url is not a valid URL")
		})

		Describe("With a local file URL", func() {
			BeforeEach(func() {
				payload["original_url"] = "file:///etc/passwd"
			})

			ItRejects(request.LocalSourceMessage)
		})

		Describe("With a source that isn't on the web", func() {
			BeforeEach(func() {
				payload["original_url"] = "ftp://example.com/kind-of-blue.mp3"
			})

			ItRejects(request.SourceSchemeMessage)
		})

		Describe("With an unknown stem", func() {
			BeforeEach(func() {
				payload["args"] = "kazoo Kind of Blue"
			})

			It("responds bad request with the interpreter's message", func() {
				Expect(response.Code).To(Equal(http.StatusBadRequest))

				errResponse := DecodeJSONError(response.Body)
				Expect(errResponse.Code).To(Equal(string(remixerrors.InvalidRemixRequestCode)))
				Expect(errResponse.Msg).To(HavePrefix("Invalid stem 'kazoo'"))
			})

			ItDoesntQueueMessages()
		})

		Describe("With a gain out of range", func() {
			BeforeEach(func() {
				payload["args"] = "drums 101 Kind of Blue"
			})

			ItRejects(request.GainRangeMessage)
		})

		Describe("With a missing title", func() {
			BeforeEach(func() {
				payload["args"] = "drums 6"
			})

			ItRejects(request.MissingTitleMessage)
		})

		Describe("When the store is down", func() {
			BeforeEach(func() {
				jobStore.Unavailable = true
			})

			It("responds with a server error", func() {
				Expect(response.Code).To(Equal(http.StatusInternalServerError))
			})

			ItDoesntQueueMessages()
		})

		Describe("When the queue is down", func() {
			BeforeEach(func() {
				publisher.Unavailable = true
			})

			It("responds service unavailable", func() {
				Expect(response.Code).To(Equal(http.StatusServiceUnavailable))

				errResponse := DecodeJSONError(response.Body)
				Expect(errResponse.Code).To(Equal(string(remixerrors.RemixQueueUnavailableCode)))
				Expect(errResponse.Msg).To(Equal(remixusecase.QueueFailedMessage))
			})

			It("marks the saved job as failed", func() {
				jobs := jobStore.All()
				Expect(jobs).To(HaveLen(1))
				Expect(jobs[0].Defined.Status).To(Equal(remixentity.ErrorStatus))
				Expect(jobs[0].Defined.StatusMessage).To(Equal(remixusecase.QueueFailedMessage))
				Expect(jobs[0].Defined.StatusDebugLog).To(ContainSubstring("publisher is unavailable"))
			})
		})
	})

	Describe("Create remix without valid credentials", func() {
		var payload map[string]any

		BeforeEach(func() {
			payload = map[string]any{
				"command":      "boost",
				"args":         "bass Kind of Blue",
				"original_url": "https://storage.googleapis.com/bucket/kind-of-blue.mp3",
			}
		})

		It("rejects a request with no auth header", func() {
			response := createRemixAs(payload)

			Expect(response.Code).To(Equal(http.StatusBadRequest))
			Expect(DecodeJSONError(response.Body).Code).To(Equal(string(auth.BadAuthorizationHeaderCode)))
			Expect(jobStore.Count()).To(BeZero())
		})

		It("rejects a header that isn't a bearer token", func() {
			response := createRemixAs(payload, WithHeader("Authorization", "Basic abc"))

			Expect(response.Code).To(Equal(http.StatusBadRequest))
			Expect(DecodeJSONError(response.Body).Code).To(Equal(string(auth.BadAuthorizationHeaderCode)))
		})

		It("rejects a token Google doesn't vouch for", func() {
			response := createRemixAs(payload, WithHeader("Authorization", "Bearer forged"))

			Expect(response.Code).To(Equal(http.StatusUnauthorized))
			Expect(DecodeJSONError(response.Body).Code).To(Equal(string(auth.NotGoogleAuthorizedCode)))
			Expect(jobStore.Count()).To(BeZero())
			Expect(ExpectSuccess(publisher.Unload())).To(BeEmpty())
		})
	})

	Describe("Create remix over the submission limit", func() {
		BeforeEach(func() {
			authUsecase := authusecase.NewUsecase(TestingValidator{})
			remixUsecase := remixusecase.NewUsecase(jobStore, publisher, authUsecase, remixusecase.SubmissionLimit{
				Every: time.Hour,
				Burst: 1,
			})
			remixGateway = remixgateway.NewGateway(remixUsecase)
		})

		It("lets the first remix through and turns the next one away", func() {
			payload := map[string]any{
				"command":      "boost",
				"args":         "bass Kind of Blue",
				"original_url": "https://storage.googleapis.com/bucket/kind-of-blue.mp3",
			}

			Expect(createRemix(payload).Code).To(Equal(http.StatusCreated))

			response := createRemix(payload)
			Expect(response.Code).To(Equal(http.StatusTooManyRequests))

			errResponse := DecodeJSONError(response.Body)
			Expect(errResponse.Code).To(Equal(string(remixerrors.RemixRateLimitedCode)))
			Expect(errResponse.Msg).To(Equal(remixusecase.RateLimitedMessage))

			Expect(jobStore.Count()).To(Equal(1))
			Expect(ExpectSuccess(publisher.Unload())).To(HaveLen(1))
		})

		It("doesn't spend the allowance on rejected requests", func() {
			invalid := map[string]any{
				"command":      "boost",
				"args":         "kazoo Kind of Blue",
				"original_url": "https://storage.googleapis.com/bucket/kind-of-blue.mp3",
			}
			Expect(createRemix(invalid).Code).To(Equal(http.StatusBadRequest))

			invalid["args"] = "bass Kind of Blue"
			Expect(createRemix(invalid).Code).To(Equal(http.StatusCreated))
		})
	})

	Describe("Create remix with a malformed body", func() {
		It("responds bad request", func() {
			createRequest := RequestFactory{
				Method:  "POST",
				Target:  "/remixes",
				RawBody: "{not json",
				Mods:    RequestModifiers{WithUserCred(PrimaryUser)},
			}.MakeFake()

			response := httptest.NewRecorder()
			c := PrepareEchoContext(createRequest, response)
			Expect(remixGateway.CreateRemix(c)).To(Succeed())

			Expect(response.Code).To(Equal(http.StatusBadRequest))
			Expect(DecodeJSONError(response.Body).Code).To(Equal(string(remixerrors.BadRemixDataCode)))
		})
	})

	Describe("Get remix", func() {
		It("returns a stored job", func() {
			created := DecodeJSON[map[string]any](createRemix(map[string]any{
				"command":      "reduce",
				"args":         "drums 3 Take Five",
				"original_url": "https://storage.googleapis.com/bucket/take-five.mp3",
			}).Body)
			jobID := ExpectType[string](created["id"])

			response := getRemix(jobID)
			Expect(response.Code).To(Equal(http.StatusOK))

			fetched := DecodeJSON[map[string]any](response.Body)
			Expect(fetched["id"]).To(Equal(jobID))
			Expect(fetched["title"]).To(Equal("Take Five"))
			Expect(fetched["gain_db"]).To(BeNumerically("==", -3))
		})

		It("keeps tool output and the requester out of a failed job", func() {
			job := remixentity.NewJob(request.Boost, request.Request{
				Stem:   stem.Bass,
				GainDB: request.DefaultGainDB,
				Title:  "Kind of Blue",
			}, "https://storage.googleapis.com/bucket/kind-of-blue.mp3")
			job.Defined.RequestedBy = PrimaryUser.GoogleID
			job.Fail(remixerr.SeparationMessage, "demucs: RuntimeError: CUDA out of memory")
			Expect(jobStore.SetJob(context.Background(), job)).To(Succeed())

			response := getRemix(job.GetID())
			Expect(response.Code).To(Equal(http.StatusOK))

			body := response.Body.String()
			Expect(body).To(ContainSubstring(remixerr.SeparationMessage))
			Expect(body).NotTo(ContainSubstring("CUDA out of memory"))
			Expect(body).NotTo(ContainSubstring("status_debug_log"))
			Expect(body).NotTo(ContainSubstring(PrimaryUser.GoogleID))
		})

		It("responds not found for an unknown job", func() {
			response := getRemix("no-such-job")
			Expect(response.Code).To(Equal(http.StatusNotFound))
			Expect(DecodeJSONError(response.Body).Code).To(Equal(string(remixerrors.RemixNotFoundCode)))
		})

		It("responds with a server error when the store is down", func() {
			jobStore.Unavailable = true

			response := getRemix("any-job")
			Expect(response.Code).To(Equal(http.StatusInternalServerError))
		})
	})
})
