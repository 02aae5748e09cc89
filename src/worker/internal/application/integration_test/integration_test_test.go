package integration_test_test

import (
	"context"
	"os"
	"path/filepath"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/rabbitmq/amqp091-go"
	"github.com/veedubyou/stem-remixer/src/shared/config/prod"
	"github.com/veedubyou/stem-remixer/src/shared/remix/entity"
	"github.com/veedubyou/stem-remixer/src/shared/remix/queue"
	"github.com/veedubyou/stem-remixer/src/shared/remix/remixerr"
	"github.com/veedubyou/stem-remixer/src/shared/remix/request"
	"github.com/veedubyou/stem-remixer/src/shared/remix/stem"
	. "github.com/veedubyou/stem-remixer/src/shared/testing"
	"github.com/veedubyou/stem-remixer/src/worker/internal/application/integration_test/dummy"
	"github.com/veedubyou/stem-remixer/src/worker/internal/application/jobs/job_router"
	"github.com/veedubyou/stem-remixer/src/worker/internal/application/jobs/remix"
	"github.com/veedubyou/stem-remixer/src/worker/internal/application/remix/encoder"
	"github.com/veedubyou/stem-remixer/src/worker/internal/application/remix/offload"
	"github.com/veedubyou/stem-remixer/src/worker/internal/application/remix/pipeline"
	"github.com/veedubyou/stem-remixer/src/worker/internal/application/remix/separator"
	"github.com/veedubyou/stem-remixer/src/worker/internal/application/remix/workspace"
	"github.com/veedubyou/stem-remixer/src/worker/internal/application/worker"
	"github.com/veedubyou/stem-remixer/src/worker/internal/lib/storagepath"
)

var _ = Describe("IntegrationTest", func() {
	var (
		originalURL       string
		originalTrackData []byte
		pathGenerator     storagepath.Generator

		rabbitMQ       *dummy.RabbitMQ
		fileStore      *dummy.FileStore
		jobStore       *JobStore
		demucsExecutor *dummy.DemucsExecutor
		ffmpegExecutor *dummy.FFmpegExecutor
		arena          workspace.Arena

		timeout           time.Duration
		concurrency       int
		allowLocalSources bool

		newJob  func(action request.Action, args string) remixentity.Job
		publish func(jobID string)
		run     func(jobIDs ...string)
		getJob  func(jobID string) remixentity.Job
	)

	BeforeEach(func() {
		By("Assigning data to variables", func() {
			pathGenerator = storagepath.Generator{
				Host:   prod.GOOGLE_STORAGE_HOST,
				Bucket: "bucket-head",
			}
			originalURL = pathGenerator.Host + "/" + pathGenerator.Bucket + "/sources/kind-of-blue.mp3"
			originalTrackData = []byte("cool-jamz")
			timeout = time.Minute
			concurrency = 1
			allowLocalSources = false
		})

		By("Instantiating all dummies", func() {
			rabbitMQ = dummy.NewRabbitMQ()
			fileStore = dummy.NewDummyFileStore()
			jobStore = NewJobStore()
			demucsExecutor = dummy.NewDummyDemucsExecutor()
			ffmpegExecutor = dummy.NewDummyFFmpegExecutor()
			arena = ExpectSuccess(workspace.NewArena(GinkgoT().TempDir()))
		})

		By("Setting up the file store", func() {
			Expect(fileStore.WriteFile(context.Background(), originalURL, originalTrackData)).To(Succeed())
		})

		By("Setting up the job helpers", func() {
			newJob = func(action request.Action, args string) remixentity.Job {
				req := ExpectSuccess(request.Command(action, args))
				job := remixentity.NewJob(action, req, originalURL)
				Expect(jobStore.SetJob(context.Background(), job)).To(Succeed())
				return job
			}

			publish = func(jobID string) {
				Expect(remixqueue.PublishRemixJob(rabbitMQ, jobID)).To(Succeed())
			}

			getJob = func(jobID string) remixentity.Job {
				return jobStore.MustGetJob(jobID)
			}
		})

		By("Setting up the run routine", func() {
			run = func(jobIDs ...string) {
				negotiator := ExpectSuccess(encoder.NewNegotiator("/whatever/ffmpeg", encoder.StandardLadder, ffmpegExecutor))
				remixer := pipeline.New(separator.NewDemucs("/whatever/demucs", demucsExecutor), negotiator)

				handler := remix.NewJobHandler(remix.Config{
					JobStore:      jobStore,
					FileStore:     fileStore,
					PathGenerator: pathGenerator,
					Arena:         arena,
					Pool:          offload.NewPool(concurrency),
					Pipeline:      remixer,
					Ladder:        encoder.StandardLadder,
					Timeout:       timeout,

					AllowLocalSources: allowLocalSources,
				})

				router := job_router.NewJobRouter(jobStore, handler)
				queueWorker := worker.NewQueueWorker(rabbitMQ, "test-queue", router, concurrency)

				go func() {
					defer GinkgoRecover()
					err := queueWorker.Start()
					Expect(err).NotTo(HaveOccurred())
				}()

				for _, jobID := range jobIDs {
					publish(jobID)
				}
			}
		})
	})

	statusOf := func(jobID string) func() remixentity.Status {
		return func() remixentity.Status {
			return getJob(jobID).Defined.Status
		}
	}

	Describe("Boosting the bass", func() {
		var job remixentity.Job

		BeforeEach(func() {
			job = newJob(request.Boost, "bass Kind of Blue")
			run(job.GetID())
			Eventually(statusOf(job.GetID())).Should(Equal(remixentity.DoneStatus))
		})

		It("gets 1 ack and no nacks", func() {
			Eventually(rabbitMQ.AckCount).Should(Equal(1))
			Consistently(rabbitMQ.NackCount).Should(Equal(0))
		})

		It("uploads the remix next to the job", func() {
			expectedURL := pathGenerator.GeneratePath(job.GetID(), "Kind of Blue (Bass Boost).mp3")
			finished := getJob(job.GetID())
			Expect(finished.Defined.OutputURL).To(Equal(expectedURL))

			contents := ExpectSuccess(fileStore.GetFile(context.Background(), expectedURL))
			Expect(string(contents)).To(Equal("cool-jamz-bass+cool-jamz-drums+cool-jamz-vocals+cool-jamz-other"))
		})

		It("records the encoding on the job", func() {
			finished := getJob(job.GetID())
			Expect(finished.Defined.OutputBitrate).To(Equal("320k"))
			Expect(finished.Defined.OutputSizeBytes).To(BeNumerically(">", 0))
			Expect(finished.Defined.SizeWarning).To(BeFalse())
			Expect(finished.Defined.Stage).To(Equal(remixentity.FinishedStage))
			Expect(finished.Defined.StatusMessage).To(Equal(remix.ReadyMessage))
			Expect(finished.Defined.StatusDebugLog).To(BeEmpty())
		})

		It("boosts the bass by the default gain", func() {
			Expect(ffmpegExecutor.Invocations()[0].Args).To(ContainElement(ContainSubstring("[0:a]volume=4dB[s0]")))
		})

		It("cleans up the workspace", func() {
			Eventually(func() []os.DirEntry {
				return ExpectSuccess(os.ReadDir(arena.Root()))
			}).Should(BeEmpty())
		})

		It("sets the prefetch to the concurrency", func() {
			Expect(rabbitMQ.Prefetch()).To(Equal(1))
		})
	})

	Describe("Reducing the vocals by 8dB", func() {
		It("attenuates the vocals and labels the output", func() {
			job := newJob(request.Reduce, "vocals 8 Halo")
			run(job.GetID())

			Eventually(statusOf(job.GetID())).Should(Equal(remixentity.DoneStatus))
			Expect(getJob(job.GetID()).Defined.OutputURL).To(HaveSuffix("/Halo%20%28Vocals%20Reduce%29.mp3"))
			Expect(ffmpegExecutor.Invocations()[0].Args).To(ContainElement(ContainSubstring("[2:a]volume=-8dB[s2]")))
		})
	})

	Describe("The remix is too big at every bitrate", func() {
		It("finishes with a size warning", func() {
			ffmpegExecutor.SizeFor = func(string) int64 { return encoder.StandardLadder.CeilingBytes + 1 }
			job := newJob(request.Boost, "drums Kind of Blue")
			run(job.GetID())

			Eventually(statusOf(job.GetID())).Should(Equal(remixentity.DoneStatus))

			finished := getJob(job.GetID())
			Expect(finished.Defined.SizeWarning).To(BeTrue())
			Expect(finished.Defined.OutputBitrate).To(Equal("128k"))
			Expect(finished.Defined.StatusMessage).To(ContainSubstring("over the 8.0 MiB limit even at 128k"))
		})
	})

	Describe("File storage is down", func() {
		var job remixentity.Job

		BeforeEach(func() {
			fileStore.Unavailable = true
			job = newJob(request.Boost, "bass Kind of Blue")
			run(job.GetID())
		})

		It("gets 1 nack", func() {
			Eventually(rabbitMQ.NackCount).Should(Equal(1))
			Consistently(rabbitMQ.AckCount).Should(Equal(0))
		})

		It("reports the error status with a generic message", func() {
			Eventually(statusOf(job.GetID())).Should(Equal(remixentity.ErrorStatus))
			Expect(getJob(job.GetID()).Defined.StatusMessage).To(Equal(remixerr.DefaultMessage))
			Expect(getJob(job.GetID()).Defined.StatusDebugLog).To(ContainSubstring("dummy network failure"))
		})

		It("never runs the separator", func() {
			Eventually(rabbitMQ.NackCount).Should(Equal(1))
			Expect(demucsExecutor.Invocations()).To(BeEmpty())
		})
	})

	Describe("Separation fails", func() {
		It("reports the separation failure and keeps the tool output", func() {
			demucsExecutor.Fail = true
			job := newJob(request.Boost, "bass Kind of Blue")
			run(job.GetID())

			Eventually(statusOf(job.GetID())).Should(Equal(remixentity.ErrorStatus))

			failed := getJob(job.GetID())
			Expect(failed.Defined.StatusMessage).To(Equal(remixerr.SeparationMessage))
			Expect(failed.Defined.StatusDebugLog).To(ContainSubstring(demucsExecutor.FailOutput))
			Expect(failed.Defined.Stage).To(Equal(remixentity.SeparatingStage))
			Eventually(func() []os.DirEntry {
				return ExpectSuccess(os.ReadDir(arena.Root()))
			}).Should(BeEmpty())
		})
	})

	Describe("Separation leaves a stem out", func() {
		It("reports incomplete stems without mixing", func() {
			demucsExecutor.MissingStems = []stem.Name{stem.Vocals}
			job := newJob(request.Boost, "bass Kind of Blue")
			run(job.GetID())

			Eventually(statusOf(job.GetID())).Should(Equal(remixentity.ErrorStatus))
			Expect(getJob(job.GetID()).Defined.StatusMessage).To(Equal(remixerr.StemMissingMessage))
			Expect(ffmpegExecutor.Invocations()).To(BeEmpty())
		})
	})

	Describe("Encoding fails", func() {
		It("reports the mixing failure", func() {
			ffmpegExecutor.FailAtBitrate = "320k"
			job := newJob(request.Boost, "bass Kind of Blue")
			run(job.GetID())

			Eventually(statusOf(job.GetID())).Should(Equal(remixentity.ErrorStatus))
			Expect(getJob(job.GetID()).Defined.StatusMessage).To(Equal(remixerr.EncodingMessage))
			Expect(ffmpegExecutor.Bitrates()).To(Equal([]string{"320k"}))
		})
	})

	Describe("The job runs past its deadline", func() {
		It("stops the separator and reports a timeout", func() {
			timeout = 50 * time.Millisecond
			demucsExecutor.Block = true
			job := newJob(request.Boost, "bass Kind of Blue")
			run(job.GetID())

			Eventually(statusOf(job.GetID())).Should(Equal(remixentity.ErrorStatus))
			Expect(getJob(job.GetID()).Defined.StatusMessage).To(Equal(remixerr.TimeoutMessage))
			Eventually(func() []os.DirEntry {
				return ExpectSuccess(os.ReadDir(arena.Root()))
			}).Should(BeEmpty())
		})
	})

	Describe("A local file source", func() {
		var localPath string

		BeforeEach(func() {
			localPath = filepath.Join(GinkgoT().TempDir(), "kind-of-blue.mp3")
			Expect(os.WriteFile(localPath, originalTrackData, 0o644)).To(Succeed())
			originalURL = "file://" + localPath
		})

		It("is refused when local sources aren't allowed", func() {
			job := newJob(request.Boost, "bass Kind of Blue")
			run(job.GetID())

			Eventually(statusOf(job.GetID())).Should(Equal(remixentity.ErrorStatus))
			Expect(getJob(job.GetID()).Defined.StatusMessage).To(Equal(request.LocalSourceMessage))
			Expect(demucsExecutor.Invocations()).To(BeEmpty())
		})

		It("is read from disk when local sources are allowed", func() {
			allowLocalSources = true
			job := newJob(request.Boost, "bass Kind of Blue")
			run(job.GetID())

			Eventually(statusOf(job.GetID())).Should(Equal(remixentity.DoneStatus))
			Expect(demucsExecutor.Invocations()).To(HaveLen(1))
		})
	})

	Describe("A duplicate delivery", func() {
		It("acks the repeat and leaves the finished job alone", func() {
			job := newJob(request.Boost, "bass Kind of Blue")
			run(job.GetID(), job.GetID())

			Eventually(rabbitMQ.AckCount).Should(Equal(2))
			Consistently(rabbitMQ.NackCount).Should(Equal(0))
			Consistently(statusOf(job.GetID())).Should(Equal(remixentity.DoneStatus))
			Expect(demucsExecutor.Invocations()).To(HaveLen(1))
		})
	})

	Describe("Several jobs at once", func() {
		It("finishes all of them", func() {
			concurrency = 3
			jobs := []remixentity.Job{
				newJob(request.Boost, "bass Kind of Blue"),
				newJob(request.Reduce, "vocals 8 Halo"),
				newJob(request.Boost, "other So What"),
			}

			run(jobs[0].GetID(), jobs[1].GetID(), jobs[2].GetID())

			for _, job := range jobs {
				Eventually(statusOf(job.GetID())).Should(Equal(remixentity.DoneStatus))
			}
			Eventually(rabbitMQ.AckCount).Should(Equal(3))
			Expect(rabbitMQ.Prefetch()).To(Equal(3))
		})
	})

	Describe("An unknown message type", func() {
		It("gets nacked", func() {
			run()
			Expect(rabbitMQ.Publish(amqp091.Publishing{Type: "split_track", Body: []byte("{}")})).To(Succeed())
			Eventually(rabbitMQ.NackCount).Should(Equal(1))
		})
	})
})
