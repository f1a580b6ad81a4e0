package queue

import (
	"sync"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"

	"bestdeal/server/internal/models"
)

func newTestQueue(size int) *JobQueue {
	logger := logrus.New()
	logger.SetLevel(logrus.PanicLevel)
	return NewJobQueue(size, logger)
}

func job(query string) models.ComparisonJob {
	return models.ComparisonJob{
		Query: query,
		Listings: []models.RawListing{
			{Site: "amazon-eg", Title: query, PriceText: "EGP 100", URL: "u"},
		},
	}
}

func TestNewJobQueue(t *testing.T) {
	q := newTestQueue(10)
	assert.NotNil(t, q)
	assert.Equal(t, 10, q.maxSize)
	assert.False(t, q.IsClosed())
}

func TestJobQueue_Push(t *testing.T) {
	q := newTestQueue(2)

	// Successful push
	err := q.Push(job("iphone 13"))
	assert.NoError(t, err)
	assert.Equal(t, 1, q.Len())

	// Queue full
	_ = q.Push(job("iphone 14"))
	err = q.Push(job("iphone 15"))
	assert.Equal(t, ErrQueueFull, err)

	// Closed queue
	q.Close()
	err = q.Push(job("iphone 13"))
	assert.Equal(t, ErrQueueClosed, err)
}

func TestJobQueue_Subscribe(t *testing.T) {
	q := newTestQueue(10)

	var processed []models.ComparisonJob
	var mu sync.Mutex

	q.Subscribe(func(j models.ComparisonJob) error {
		mu.Lock()
		processed = append(processed, j)
		mu.Unlock()
		return nil
	})

	q.Start(1)

	err := q.Push(job("iphone 13"))
	assert.NoError(t, err)

	time.Sleep(100 * time.Millisecond)

	mu.Lock()
	assert.Len(t, processed, 1)
	assert.Equal(t, "iphone 13", processed[0].Query)
	mu.Unlock()
}

func TestJobQueue_EachJobTakenOnce(t *testing.T) {
	q := newTestQueue(10)

	processed := 0
	var mu sync.Mutex
	var wg sync.WaitGroup
	wg.Add(3)

	q.Subscribe(func(j models.ComparisonJob) error {
		mu.Lock()
		processed++
		mu.Unlock()
		wg.Done()
		return nil
	})

	q.Start(4)

	for i := 0; i < 3; i++ {
		assert.NoError(t, q.Push(job("playstation 5")))
	}
	wg.Wait()

	mu.Lock()
	assert.Equal(t, 3, processed)
	mu.Unlock()
}

func TestJobQueue_Close(t *testing.T) {
	q := newTestQueue(10)

	err := q.Close()
	assert.NoError(t, err)
	assert.True(t, q.IsClosed())

	// Second close is a no-op
	err = q.Close()
	assert.NoError(t, err)
}
