package processor

import (
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"bestdeal/server/config"
	"bestdeal/server/internal/engine"
	"bestdeal/server/internal/models"
	"bestdeal/server/internal/queue"
)

// Comparer runs one comparison job. Satisfied by *engine.Engine.
type Comparer interface {
	Compare(query string, raw []models.RawListing) (*engine.Result, error)
}

// Processor consumes comparison jobs from the queue and runs them through
// the engine with bounded retries.
type Processor struct {
	comparer Comparer
	queue    *queue.JobQueue
	config   *config.Config
	logger   *logrus.Logger
}

// NewProcessor creates a new job processor instance.
func NewProcessor(comparer Comparer, queue *queue.JobQueue, config *config.Config, logger *logrus.Logger) *Processor {
	return &Processor{
		comparer: comparer,
		queue:    queue,
		config:   config,
		logger:   logger,
	}
}

// Start subscribes to the queue and launches the worker goroutines.
func (p *Processor) Start() {
	p.queue.Subscribe(p.processJob)
	p.queue.Start(p.config.Pipeline.ProcessorCount)
}

// Stop shuts the queue down; in-flight jobs finish, queued ones are dropped.
func (p *Processor) Stop() {
	p.queue.Close()
}

// processJob runs a single comparison job with retry logic.
func (p *Processor) processJob(job models.ComparisonJob) error {
	maxRetries := p.config.Pipeline.MaxRetries
	if maxRetries < 1 {
		maxRetries = 1
	}

	var err error
	for attempt := 1; attempt <= maxRetries; attempt++ {
		if attempt > 1 {
			p.logger.Infof("Retrying job %q, attempt %d of %d", job.Query, attempt, maxRetries)
			time.Sleep(p.config.Pipeline.RetryDelay)
		}

		var result *engine.Result
		result, err = p.comparer.Compare(job.Query, job.Listings)
		if err == nil {
			p.logger.WithFields(logrus.Fields{
				"query":   job.Query,
				"records": len(result.Records),
				"dropped": result.Dropped,
			}).Info("Processed comparison job")
			return nil
		}

		p.logger.Errorf("Job processing failed: %v", err)
	}

	return fmt.Errorf("failed to process job after %d attempts: %w", maxRetries, err)
}
