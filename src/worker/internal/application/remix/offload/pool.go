package offload

import (
	"context"
	"fmt"
	"runtime/debug"
	"sync"

	"github.com/apex/log"
	"github.com/veedubyou/stem-remixer/src/worker/internal/lib/cerr"
	"golang.org/x/sync/semaphore"
)

// Pool runs blocking work on background goroutines, at most size at a time.
type Pool struct {
	slots   *semaphore.Weighted
	size    int64
	running sync.WaitGroup
}

func NewPool(size int) *Pool {
	if size < 1 {
		size = 1
	}

	return &Pool{
		slots: semaphore.NewWeighted(int64(size)),
		size:  int64(size),
	}
}

func (p *Pool) Size() int {
	return int(p.size)
}

// Wait blocks until every submitted task has finished.
func (p *Pool) Wait() {
	p.running.Wait()
}

type Task[T any] func(ctx context.Context) (T, error)

// Future is the eventual result of a submitted task.
type Future[T any] struct {
	done   chan struct{}
	result T
	err    error
}

// Done is closed once the result is ready.
func (f *Future[T]) Done() <-chan struct{} {
	return f.done
}

// Wait blocks until the task has finished, however long that takes.
func (f *Future[T]) Wait() (T, error) {
	<-f.done
	return f.result, f.err
}

// Await is Wait that gives up when ctx ends. The task keeps running,
// callers that own resources the task uses should Wait instead.
func (f *Future[T]) Await(ctx context.Context) (T, error) {
	select {
	case <-f.done:
		return f.result, f.err
	case <-ctx.Done():
		var zero T
		return zero, cerr.Wrap(ctx.Err()).Error("Gave up waiting on offloaded task")
	}
}

// Submit queues task on the pool. It blocks while the pool is full,
// and fails without running the task if ctx ends first.
func Submit[T any](ctx context.Context, pool *Pool, task Task[T]) (*Future[T], error) {
	if err := pool.slots.Acquire(ctx, 1); err != nil {
		return nil, cerr.Wrap(err).Error("Failed to get a slot on the offload pool")
	}

	future := &Future[T]{done: make(chan struct{})}
	pool.running.Add(1)

	go func() {
		defer pool.running.Done()
		defer pool.slots.Release(1)
		defer close(future.done)

		future.result, future.err = runGuarded(ctx, task)
	}()

	return future, nil
}

// Run submits task and waits for it.
func Run[T any](ctx context.Context, pool *Pool, task Task[T]) (T, error) {
	future, err := Submit(ctx, pool, task)
	if err != nil {
		var zero T
		return zero, err
	}

	return future.Wait()
}

func runGuarded[T any](ctx context.Context, task Task[T]) (result T, err error) {
	defer func() {
		if recovered := recover(); recovered != nil {
			log.WithField("stack", string(debug.Stack())).Error("Offloaded task panicked")

			var zero T
			result = zero
			err = cerr.Field("panic", fmt.Sprint(recovered)).Error("Offloaded task panicked")
		}
	}()

	return task(ctx)
}
