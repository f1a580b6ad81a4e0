package scheduler

import (
	"context"
	"os"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"bestdeal/server/internal/models"
	"bestdeal/server/internal/queue"
)

// ListingSource provides raw listings for a query. Satisfied by
// *fetch.Manager.
type ListingSource interface {
	FetchAll(ctx context.Context, query string) []models.RawListing
}

// RecordSource lists the product names with stored prices. Satisfied by
// *database.Store.
type RecordSource interface {
	GetSummary() ([]models.ProductSummary, error)
}

// Scheduler periodically re-fetches every product that has a stored best
// price and enqueues a comparison job for it, so stored prices keep up with
// the sites without anyone asking.
type Scheduler struct {
	store    RecordSource
	source   ListingSource
	queue    *queue.JobQueue
	logger   *logrus.Logger
	interval time.Duration

	stopChan     chan struct{}
	wg           sync.WaitGroup
	runMutex     sync.Mutex // Ensures sequential re-check runs
	isStartupRun bool       // Tracks whether we're in startup run
}

// NewScheduler creates a scheduler. An interval of zero disables it.
func NewScheduler(store RecordSource, source ListingSource, q *queue.JobQueue, logger *logrus.Logger, interval time.Duration) *Scheduler {
	if logger == nil {
		logger = logrus.New()
		logger.SetFormatter(&logrus.JSONFormatter{})
		logger.SetOutput(os.Stdout)
		logger.SetLevel(logrus.InfoLevel)
	}

	return &Scheduler{
		store:        store,
		source:       source,
		queue:        q,
		logger:       logger,
		interval:     interval,
		stopChan:     make(chan struct{}),
		isStartupRun: true,
	}
}

// Start begins the periodic re-checks.
func (s *Scheduler) Start() {
	if s.interval <= 0 {
		s.logger.Info("Price re-check scheduler disabled")
		return
	}
	s.wg.Add(1)
	go s.runScheduler()
}

func (s *Scheduler) runScheduler() {
	defer s.wg.Done()

	// Run the startup re-check in a separate goroutine so Start returns
	// immediately.
	go func() {
		s.runMutex.Lock()
		defer s.runMutex.Unlock()
		s.logger.Info("Running startup price re-check")
		s.recheckAll()
		s.isStartupRun = false
		s.logger.Info("Startup price re-check completed")
	}()

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-s.stopChan:
			return
		case <-ticker.C:
			if s.isStartupRun {
				s.logger.Debug("Skipping scheduled re-check while startup is in progress")
				continue
			}
			s.runMutex.Lock()
			s.logger.Info("Starting scheduled price re-check")
			s.recheckAll()
			s.logger.Info("Completed scheduled price re-check")
			s.runMutex.Unlock()
		}
	}
}

// recheckAll fetches fresh listings for every stored product sequentially
// and enqueues a comparison job per product. Failures are logged per
// product and never abort the run.
func (s *Scheduler) recheckAll() {
	summary, err := s.store.GetSummary()
	if err != nil {
		s.logger.WithError(err).Error("Failed to list stored products for re-check")
		return
	}
	if len(summary) == 0 {
		s.logger.Debug("No stored products to re-check")
		return
	}

	for _, row := range summary {
		select {
		case <-s.stopChan:
			return
		default:
		}

		s.logger.WithField("product", row.Name).Info("Re-checking product prices")

		listings := s.source.FetchAll(context.Background(), row.Name)
		if len(listings) == 0 {
			s.logger.WithField("product", row.Name).Warn("Re-check found no listings")
			continue
		}

		if err := s.queue.Push(models.ComparisonJob{Query: row.Name, Listings: listings}); err != nil {
			s.logger.WithError(err).WithField("product", row.Name).Error("Failed to enqueue re-check job")
		}
	}
}

// Stop gracefully stops the scheduler.
func (s *Scheduler) Stop() {
	close(s.stopChan)
	s.wg.Wait()
}
