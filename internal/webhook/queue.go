package webhook

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/user/tagrelease/pkg/release"
)

var (
	ErrQueueFull   = errors.New("release queue is full")
	ErrQueueClosed = errors.New("release queue is closed")
)

// Job is one accepted tag push waiting for the worker.
type Job struct {
	ID       string
	Provider string
	Events   []release.Event
	Received time.Time
}

type Processor func(ctx context.Context, job Job)

// Queue hands jobs to a single worker so that release attempts triggered by
// webhooks never overlap.
type Queue struct {
	jobs    chan Job
	process Processor

	mu     sync.Mutex
	closed bool
	wg     sync.WaitGroup
}

func NewQueue(size int, process Processor) *Queue {
	if size <= 0 {
		size = 1
	}
	return &Queue{
		jobs:    make(chan Job, size),
		process: process,
	}
}

func (q *Queue) Start(ctx context.Context) {
	q.wg.Add(1)
	go func() {
		defer q.wg.Done()
		for job := range q.jobs {
			q.process(ctx, job)
		}
	}()
}

// Enqueue never blocks. The job gets an ID if it has none.
func (q *Queue) Enqueue(job Job) (Job, error) {
	if job.ID == "" {
		job.ID = uuid.New().String()
	}
	if job.Received.IsZero() {
		job.Received = time.Now()
	}

	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed {
		return job, ErrQueueClosed
	}

	select {
	case q.jobs <- job:
		return job, nil
	default:
		return job, ErrQueueFull
	}
}

// Stop refuses new jobs and waits for queued ones to finish.
func (q *Queue) Stop() {
	q.mu.Lock()
	if !q.closed {
		q.closed = true
		close(q.jobs)
	}
	q.mu.Unlock()

	q.wg.Wait()
}
