package queue

import (
	"errors"
	"sync"

	"github.com/sirupsen/logrus"

	"bestdeal/server/internal/models"
)

var (
	ErrQueueFull   = errors.New("queue is full")
	ErrQueueClosed = errors.New("queue is closed")
)

// JobQueue is an in-memory queue of comparison jobs awaiting processing.
type JobQueue struct {
	items    chan models.ComparisonJob
	done     chan struct{}
	maxSize  int
	closed   bool
	mu       sync.RWMutex
	logger   *logrus.Logger
	handlers []func(models.ComparisonJob) error
}

// NewJobQueue creates a job queue with the specified buffer size.
func NewJobQueue(bufferSize int, logger *logrus.Logger) *JobQueue {
	return &JobQueue{
		items:    make(chan models.ComparisonJob, bufferSize),
		done:     make(chan struct{}),
		maxSize:  bufferSize,
		logger:   logger,
		handlers: make([]func(models.ComparisonJob) error, 0),
	}
}

// Push adds a job to the queue. The send never blocks: a full queue returns
// ErrQueueFull so callers can shed load instead of deadlocking.
func (q *JobQueue) Push(job models.ComparisonJob) error {
	q.mu.RLock()
	if q.closed {
		q.mu.RUnlock()
		return ErrQueueClosed
	}
	q.mu.RUnlock()

	select {
	case q.items <- job:
		q.logger.WithFields(logrus.Fields{
			"query":    job.Query,
			"listings": len(job.Listings),
		}).Debug("Pushed job to queue")
		return nil
	default:
		return ErrQueueFull
	}
}

// Subscribe adds a handler function that will be called for each job.
func (q *JobQueue) Subscribe(handler func(models.ComparisonJob) error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.handlers = append(q.handlers, handler)
}

// Start launches the given number of worker goroutines. Each job is taken by
// exactly one worker, which runs every subscribed handler on it.
func (q *JobQueue) Start(workers int) {
	if workers < 1 {
		workers = 1
	}
	for i := 0; i < workers; i++ {
		go q.process()
	}
}

func (q *JobQueue) process() {
	for {
		select {
		case <-q.done:
			return
		case job, ok := <-q.items:
			if !ok {
				return
			}
			q.processJob(job)
		}
	}
}

func (q *JobQueue) processJob(job models.ComparisonJob) {
	q.mu.RLock()
	handlers := q.handlers
	q.mu.RUnlock()

	for _, handler := range handlers {
		if err := handler(job); err != nil {
			q.logger.WithError(err).WithField("query", job.Query).Error("Handler failed to process job")
		}
	}
}

// Close stops the queue and prevents new jobs from being added.
func (q *JobQueue) Close() error {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return nil
	}

	q.closed = true
	close(q.done)
	close(q.items)
	return nil
}

// Len returns the current number of queued jobs.
func (q *JobQueue) Len() int {
	return len(q.items)
}

// IsClosed returns whether the queue has been closed.
func (q *JobQueue) IsClosed() bool {
	q.mu.RLock()
	defer q.mu.RUnlock()
	return q.closed
}
