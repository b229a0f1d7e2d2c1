package pool

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
)

var ErrShuttingDown = errors.New("worker pool is shutting down")

// A job runs on one worker; id identifies the worker for logging.
type Job func(ctx context.Context, id int)

// Bounds how many jobs run at once. Workers are tokens handed out through
// a channel.
type WorkerPool struct {
	size            int
	workerChannel   chan int // holds idle worker ids
	shutdownChannel chan struct{}
	shutdownOnce    sync.Once
	waitGroup       sync.WaitGroup
}

// Creates a pool of `size` workers.
func NewWorkerPool(size int) (*WorkerPool, error) {
	if size <= 0 {
		return nil, fmt.Errorf("worker pool size must be positive, got %d", size)
	}
	workerPool := &WorkerPool{
		size:            size,
		workerChannel:   make(chan int, size),
		shutdownChannel: make(chan struct{}),
	}
	for i := 0; i < size; i++ {
		workerPool.workerChannel <- i
	}
	return workerPool, nil
}

// Runs job on an idle worker, waiting up to the context deadline for one.
func (workerPool *WorkerPool) Submit(ctx context.Context, job Job) error {
	// Don't accept new jobs if shutting down
	select {
	case <-workerPool.shutdownChannel:
		return ErrShuttingDown
	default:
	}

	var id int
	select {
	case id = <-workerPool.workerChannel:
	case <-workerPool.shutdownChannel:
		return ErrShuttingDown
	case <-ctx.Done():
		return fmt.Errorf("no worker available before timeout: %w", ctx.Err())
	}

	workerPool.waitGroup.Add(1)
	defer func() {
		workerPool.workerChannel <- id
		workerPool.waitGroup.Done()
	}()

	defer func() {
		if r := recover(); r != nil {
			slog.Error("WorkerPool: job panicked", "worker", id, "panic", r)
		}
	}()
	job(ctx, id)
	return nil
}

// Runs n jobs, job(ctx, i) for every i, and waits for all of them. Returns the
// first submission error, typically a cancelled context.
func (workerPool *WorkerPool) RunAll(ctx context.Context, n int, job func(ctx context.Context, i int)) error {
	var (
		wg       sync.WaitGroup
		errMutex sync.Mutex
		firstErr error
	)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			err := workerPool.Submit(ctx, func(ctx context.Context, _ int) { job(ctx, i) })
			if err != nil {
				errMutex.Lock()
				if firstErr == nil {
					firstErr = err
				}
				errMutex.Unlock()
			}
		}(i)
	}
	wg.Wait()
	return firstErr
}

// Returns the number of workers.
func (workerPool *WorkerPool) Size() int {
	return workerPool.size
}

// Stops accepting jobs and waits for in-flight ones to end.
func (workerPool *WorkerPool) Shutdown() {
	workerPool.shutdownOnce.Do(func() {
		close(workerPool.shutdownChannel)
	})
	workerPool.waitGroup.Wait()
}
