// Package worker runs background jobs one at a time in submission order.
package worker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
)

// Job is a unit of background work. The context is cancelled only when a
// shutdown deadline expires while the job is running.
type Job func(ctx context.Context)

// DefaultLimit is the queue capacity when none is given.
const DefaultLimit = 256

// ErrClosed is returned by Flush after Shutdown.
var ErrClosed = errors.New("queue closed")

// Queue is a bounded FIFO served by a single goroutine. Submit blocks while
// the queue is full.
type Queue struct {
	name   string
	log    *slog.Logger
	limit  int
	ctx    context.Context
	cancel context.CancelFunc

	mu       sync.Mutex
	notEmpty *sync.Cond
	notFull  *sync.Cond
	jobs     []Job
	closed   bool
	done     chan struct{}
}

// New starts a queue. A non-positive limit selects DefaultLimit; a nil logger
// selects slog.Default.
func New(name string, limit int, log *slog.Logger) *Queue {
	if limit <= 0 {
		limit = DefaultLimit
	}
	if log == nil {
		log = slog.Default()
	}
	ctx, cancel := context.WithCancel(context.Background())
	q := &Queue{
		name:   name,
		log:    log.With("queue", name),
		limit:  limit,
		ctx:    ctx,
		cancel: cancel,
		jobs:   make([]Job, 0, 16),
		done:   make(chan struct{}),
	}
	q.notEmpty = sync.NewCond(&q.mu)
	q.notFull = sync.NewCond(&q.mu)
	go q.run()
	return q
}

// Submit enqueues job. It returns false if the queue has been shut down.
func (q *Queue) Submit(job Job) bool {
	q.mu.Lock()
	defer q.mu.Unlock()

	for !q.closed && len(q.jobs) >= q.limit {
		q.notFull.Wait()
	}
	if q.closed {
		return false
	}

	q.jobs = append(q.jobs, job)
	q.notEmpty.Signal()
	return true
}

// Len returns the number of jobs waiting to start.
func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.jobs)
}

// Flush waits until every job submitted before the call has finished.
func (q *Queue) Flush(ctx context.Context) error {
	barrier := make(chan struct{})
	if !q.Submit(func(context.Context) { close(barrier) }) {
		return ErrClosed
	}

	select {
	case <-barrier:
		return nil
	case <-q.done:
		return ErrClosed
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Shutdown stops accepting jobs, drops the ones not yet started and waits for
// the running job. If ctx expires first the running job's context is
// cancelled. It returns the number of dropped jobs.
func (q *Queue) Shutdown(ctx context.Context) (int, error) {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		<-q.done
		return 0, nil
	}
	q.closed = true
	dropped := len(q.jobs)
	clear(q.jobs)
	q.jobs = nil
	q.notEmpty.Broadcast()
	q.notFull.Broadcast()
	q.mu.Unlock()

	if dropped > 0 {
		q.log.Warn("dropping queued jobs on shutdown", "dropped", dropped)
	}

	select {
	case <-q.done:
		q.cancel()
		return dropped, nil
	case <-ctx.Done():
		q.cancel()
		<-q.done
		return dropped, fmt.Errorf("waiting for %s job: %w", q.name, ctx.Err())
	}
}

func (q *Queue) run() {
	defer close(q.done)
	for {
		q.mu.Lock()
		for !q.closed && len(q.jobs) == 0 {
			q.notEmpty.Wait()
		}
		if len(q.jobs) == 0 {
			q.mu.Unlock()
			return
		}
		job := q.jobs[0]
		q.jobs[0] = nil
		q.jobs = q.jobs[1:]
		q.notFull.Signal()
		q.mu.Unlock()

		q.exec(job)
	}
}

func (q *Queue) exec(job Job) {
	defer func() {
		if r := recover(); r != nil {
			q.log.Error("background job panicked", "panic", r)
		}
	}()
	job(q.ctx)
}
