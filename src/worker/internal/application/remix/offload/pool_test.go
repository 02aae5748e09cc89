package offload_test

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/cockroachdb/errors"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	. "github.com/veedubyou/stem-remixer/src/shared/testing"
	"github.com/veedubyou/stem-remixer/src/worker/internal/application/remix/offload"
)

var _ = Describe("Pool", func() {
	var (
		pool *offload.Pool
		ctx  context.Context
	)

	BeforeEach(func() {
		pool = offload.NewPool(2)
		ctx = context.Background()
	})

	It("hands back the task's result", func() {
		future := ExpectSuccess(offload.Submit(ctx, pool, func(context.Context) (string, error) {
			return "remixed", nil
		}))

		Expect(ExpectSuccess(future.Wait())).To(Equal("remixed"))
	})

	It("hands back the task's error", func() {
		failure := errors.New("separation failed")
		_, err := offload.Run(ctx, pool, func(context.Context) (int, error) {
			return 0, failure
		})

		Expect(errors.Is(err, failure)).To(BeTrue())
	})

	It("never runs more than its size at once", func() {
		var (
			current atomic.Int32
			peak    atomic.Int32
		)

		futures := []*offload.Future[int]{}
		for i := 0; i < 6; i++ {
			future := ExpectSuccess(offload.Submit(ctx, pool, func(context.Context) (int, error) {
				now := current.Add(1)
				for {
					seen := peak.Load()
					if now <= seen || peak.CompareAndSwap(seen, now) {
						break
					}
				}

				time.Sleep(20 * time.Millisecond)
				current.Add(-1)
				return int(now), nil
			}))
			futures = append(futures, future)
		}

		for _, future := range futures {
			ExpectSuccess(future.Wait())
		}

		Expect(peak.Load()).To(BeNumerically("<=", 2))
		Expect(peak.Load()).To(BeNumerically(">=", 1))
	})

	It("turns a panic into an error", func() {
		_, err := offload.Run(ctx, pool, func(context.Context) (int, error) {
			panic("demucs exploded")
		})

		Expect(err).To(HaveOccurred())
		Expect(err.Error()).To(ContainSubstring("Offloaded task panicked"))
	})

	It("frees the slot after a panic", func() {
		small := offload.NewPool(1)
		_, _ = offload.Run(ctx, small, func(context.Context) (int, error) {
			panic("boom")
		})

		Expect(ExpectSuccess(offload.Run(ctx, small, func(context.Context) (int, error) {
			return 7, nil
		}))).To(Equal(7))
	})

	Describe("A full pool", func() {
		var release chan struct{}

		BeforeEach(func() {
			pool = offload.NewPool(1)
			release = make(chan struct{})

			ExpectSuccess(offload.Submit(ctx, pool, func(context.Context) (int, error) {
				<-release
				return 0, nil
			}))
		})

		AfterEach(func() {
			close(release)
			pool.Wait()
		})

		It("stops waiting for a slot when the context ends", func() {
			shortCtx, cancel := context.WithTimeout(ctx, 20*time.Millisecond)
			defer cancel()

			ran := false
			_, err := offload.Submit(shortCtx, pool, func(context.Context) (int, error) {
				ran = true
				return 0, nil
			})

			Expect(errors.Is(err, context.DeadlineExceeded)).To(BeTrue())
			Expect(ran).To(BeFalse())
		})
	})

	Describe("Awaiting", func() {
		It("gives up when the caller's context ends while the task keeps going", func() {
			release := make(chan struct{})
			future := ExpectSuccess(offload.Submit(ctx, pool, func(context.Context) (int, error) {
				<-release
				return 42, nil
			}))

			awaitCtx, cancel := context.WithCancel(ctx)
			cancel()

			_, err := future.Await(awaitCtx)
			Expect(errors.Is(err, context.Canceled)).To(BeTrue())

			Consistently(future.Done(), 30*time.Millisecond).ShouldNot(BeClosed())

			close(release)
			Expect(ExpectSuccess(future.Wait())).To(Equal(42))
		})
	})
})
