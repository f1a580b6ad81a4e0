package processor

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bestdeal/server/internal/database"
	"bestdeal/server/internal/dedup"
	"bestdeal/server/internal/engine"
	"bestdeal/server/internal/match"
	"bestdeal/server/internal/models"
	"bestdeal/server/internal/queue"
)

func TestJobProcessingIntegration(t *testing.T) {
	store, err := database.NewTestStore()
	require.NoError(t, err)
	defer store.Close()

	logger := testLogger()
	e := engine.New(dedup.New(match.New(match.DefaultConfig()), logger), store, logger)

	q := queue.NewJobQueue(10, logger)
	p := NewProcessor(e, q, testConfig(), logger)

	p.Start()
	defer p.Stop()

	err = q.Push(models.ComparisonJob{
		Query: "iphone 13",
		Listings: []models.RawListing{
			{Site: "amazon-eg", Title: "Apple iPhone 13 128GB", PriceText: "EGP 24,999", URL: "a"},
			{Site: "noon-eg", Title: "iPhone 13 (128GB) Blue", PriceText: "24500 EGP", URL: "n"},
		},
	})
	require.NoError(t, err)

	// Allow time for processing
	time.Sleep(500 * time.Millisecond)

	amazonPrice, err := store.GetBest("Apple iPhone 13 128GB", "amazon-eg")
	require.NoError(t, err)
	require.NotNil(t, amazonPrice)
	assert.Equal(t, 24999.0, *amazonPrice)

	noonPrice, err := store.GetBest("Apple iPhone 13 128GB", "noon-eg")
	require.NoError(t, err)
	require.NotNil(t, noonPrice)
	assert.Equal(t, 24500.0, *noonPrice)
}

func TestJobProcessingKeepsLowerStoredPrice(t *testing.T) {
	store, err := database.NewTestStore()
	require.NoError(t, err)
	defer store.Close()

	logger := testLogger()
	e := engine.New(dedup.New(match.New(match.DefaultConfig()), logger), store, logger)

	q := queue.NewJobQueue(10, logger)
	p := NewProcessor(e, q, testConfig(), logger)

	p.Start()
	defer p.Stop()

	push := func(priceText string) {
		require.NoError(t, q.Push(models.ComparisonJob{
			Query: "playstation 5",
			Listings: []models.RawListing{
				{Site: "amazon-eg", Title: "Sony PlayStation 5", PriceText: priceText, URL: "a"},
			},
		}))
		time.Sleep(300 * time.Millisecond)
	}

	push("EGP 32,000")
	push("EGP 34,000") // higher, must not overwrite
	push("EGP 31,500") // lower, must overwrite

	price, err := store.GetBest("Sony PlayStation 5", "amazon-eg")
	require.NoError(t, err)
	require.NotNil(t, price)
	assert.Equal(t, 31500.0, *price)
}
