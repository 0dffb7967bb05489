package inmemory

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/dvloznov/moneymagic/internal/export"
	"github.com/google/uuid"
)

// DefaultWorkers is used when NewQueue is given a non-positive worker count.
const DefaultWorkers = 5

// Queue is a channel-backed export job queue for single-instance deployments.
type Queue struct {
	jobChan   chan *export.Job
	closeChan chan struct{}
	wg        sync.WaitGroup
	mu        sync.RWMutex
	store     export.JobStore
	workers   int
	backoff   func(retry int) time.Duration
	closed    bool
}

// NewQueue creates a queue. bufferSize determines how many jobs can be
// queued before PublishExport starts rejecting them.
func NewQueue(bufferSize, workers int, store export.JobStore) *Queue {
	if workers <= 0 {
		workers = DefaultWorkers
	}
	return &Queue{
		jobChan:   make(chan *export.Job, bufferSize),
		closeChan: make(chan struct{}),
		store:     store,
		workers:   workers,
		backoff:   LinearBackoff,
	}
}

// LinearBackoff waits one second per retry already made.
func LinearBackoff(retry int) time.Duration {
	return time.Duration(retry) * time.Second
}

// SetBackoff replaces the retry delay policy. Call before Start.
func (q *Queue) SetBackoff(f func(retry int) time.Duration) {
	q.backoff = f
}

// ErrQueueFull is returned by PublishExport when the buffer has no room.
var ErrQueueFull = errors.New("export queue is full")

// PublishExport records the job as pending and enqueues it. It never waits
// for buffer space: a full queue marks the job failed and returns
// ErrQueueFull.
func (q *Queue) PublishExport(ctx context.Context, job *export.Job) error {
	q.mu.RLock()
	closed := q.closed
	q.mu.RUnlock()
	if closed {
		return fmt.Errorf("queue is closed")
	}

	if job.JobID == "" {
		job.JobID = uuid.New().String()
	}
	if job.Status == "" {
		job.Status = export.JobStatusPending
	}
	if job.CreatedAt.IsZero() {
		job.CreatedAt = time.Now()
	}
	if job.MaxRetries == 0 {
		job.MaxRetries = export.DefaultMaxRetries
	}

	if q.store != nil {
		if err := q.store.SaveJob(ctx, job); err != nil {
			return fmt.Errorf("failed to save job: %w", err)
		}
	}

	select {
	case q.jobChan <- job:
		return nil
	case <-q.closeChan:
		return fmt.Errorf("queue is closed")
	default:
	}

	if q.store != nil {
		dropped := *job
		dropped.Status = export.JobStatusFailed
		dropped.Error = ErrQueueFull.Error()
		_ = q.store.SaveJob(ctx, &dropped)
	}
	return ErrQueueFull
}

// Start launches the worker goroutines and returns immediately.
func (q *Queue) Start(ctx context.Context, handler export.JobHandler) error {
	q.mu.RLock()
	if q.closed {
		q.mu.RUnlock()
		return fmt.Errorf("queue is closed")
	}
	q.mu.RUnlock()

	for i := 0; i < q.workers; i++ {
		q.wg.Add(1)
		go q.worker(ctx, handler)
	}
	return nil
}

func (q *Queue) worker(ctx context.Context, handler export.JobHandler) {
	defer q.wg.Done()

	for {
		select {
		case <-ctx.Done():
			return
		case <-q.closeChan:
			return
		case job := <-q.jobChan:
			if job == nil {
				return
			}
			q.processJob(ctx, job, handler)
		}
	}
}

func (q *Queue) processJob(ctx context.Context, job *export.Job, handler export.JobHandler) {
	job.Status = export.JobStatusRunning
	now := time.Now()
	job.StartedAt = &now
	if q.store != nil {
		_ = q.store.SaveJob(ctx, job)
	}

	err := handler(ctx, job)

	completedAt := time.Now()
	job.CompletedAt = &completedAt

	if err != nil {
		job.Error = err.Error()
		if job.RetryCount < job.MaxRetries {
			job.RetryCount++
			job.Status = export.JobStatusRetrying
		} else {
			job.Status = export.JobStatusFailed
		}
	} else {
		job.Status = export.JobStatusCompleted
		job.Error = ""
	}

	// Saved before the retry is scheduled so a fast retry is not
	// overwritten by this attempt's final status.
	if q.store != nil {
		_ = q.store.SaveJob(ctx, job)
	}

	if job.Status == export.JobStatusRetrying {
		retry := *job
		retry.Status = export.JobStatusPending
		retry.StartedAt = nil
		retry.CompletedAt = nil
		time.AfterFunc(q.backoff(job.RetryCount), func() {
			_ = q.PublishExport(ctx, &retry)
		})
	}
}

// Stop closes the queue and waits for in-flight jobs or ctx expiry.
func (q *Queue) Stop(ctx context.Context) error {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return nil
	}
	q.closed = true
	close(q.closeChan)
	q.mu.Unlock()

	done := make(chan struct{})
	go func() {
		q.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Close stops the queue without a deadline.
func (q *Queue) Close() error {
	return q.Stop(context.Background())
}

var _ export.Publisher = (*Queue)(nil)
var _ export.Consumer = (*Queue)(nil)
