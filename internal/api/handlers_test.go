package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bestdeal/server/internal/database"
	"bestdeal/server/internal/dedup"
	"bestdeal/server/internal/engine"
	"bestdeal/server/internal/match"
	"bestdeal/server/internal/models"
	"bestdeal/server/internal/queue"
)

// stubSource serves canned listings instead of scraping.
type stubSource struct {
	listings []models.RawListing
}

func (s *stubSource) FetchAll(ctx context.Context, query string) []models.RawListing {
	return s.listings
}

func setupRouter(t *testing.T, source ListingSource) (*gin.Engine, *database.Store, *queue.JobQueue) {
	gin.SetMode(gin.TestMode)

	store, err := database.NewTestStore()
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	logger := logrus.New()
	logger.SetLevel(logrus.PanicLevel)

	eng := engine.New(dedup.New(match.New(match.DefaultConfig()), logger), store, logger)
	q := queue.NewJobQueue(8, logger)
	t.Cleanup(func() { q.Close() })

	handler := NewHandler(store, eng, source, q, nil, logger)
	router := gin.New()
	SetupRoutes(router, handler)
	return router, store, q
}

func doJSON(router *gin.Engine, method, path string, body interface{}) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func sampleListings() []models.RawListing {
	return []models.RawListing{
		{Site: "amazon-eg", Title: "Apple iPhone 13 128GB", PriceText: "EGP 24,999", URL: "a"},
		{Site: "noon-eg", Title: "iPhone 13 (128GB) Blue", PriceText: "24500 EGP", URL: "n"},
		{Site: "carrefour-eg", Title: "iPhone 13 Pro", PriceText: "EGP 34,999", URL: "c"},
	}
}

func TestCompareWithProvidedListings(t *testing.T) {
	router, _, _ := setupRouter(t, &stubSource{})

	w := doJSON(router, http.MethodPost, "/api/compare", CompareRequest{
		Query:    "iphone 13",
		Listings: sampleListings(),
	})

	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Query       string                 `json:"query"`
		Records     []models.ProductRecord `json:"records"`
		OverallBest *models.OverallBest    `json:"overall_best"`
		Clusters    int                    `json:"clusters"`
		Dropped     int                    `json:"dropped"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))

	assert.Equal(t, "iphone 13", resp.Query)
	assert.Len(t, resp.Records, 3)
	assert.Equal(t, 2, resp.Clusters)
	assert.Equal(t, 0, resp.Dropped)
	require.NotNil(t, resp.OverallBest)
	assert.Equal(t, "noon-eg", resp.OverallBest.Site)
	assert.Equal(t, 24500.0, resp.OverallBest.Price)
}

func TestCompareFallsBackToFetching(t *testing.T) {
	router, store, _ := setupRouter(t, &stubSource{listings: sampleListings()})

	w := doJSON(router, http.MethodPost, "/api/compare", CompareRequest{Query: "iphone 13"})

	require.Equal(t, http.StatusOK, w.Code)

	price, err := store.GetBest("Apple iPhone 13 128GB", "noon-eg")
	require.NoError(t, err)
	require.NotNil(t, price)
	assert.Equal(t, 24500.0, *price)
}

func TestCompareRejectsMissingQuery(t *testing.T) {
	router, _, _ := setupRouter(t, &stubSource{})

	w := doJSON(router, http.MethodPost, "/api/compare", map[string]string{})

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestCompareAsyncQueuesJob(t *testing.T) {
	router, _, q := setupRouter(t, &stubSource{})

	w := doJSON(router, http.MethodPost, "/api/compare/async", CompareRequest{
		Query:    "iphone 13",
		Listings: sampleListings(),
	})

	require.Equal(t, http.StatusAccepted, w.Code)
	assert.Equal(t, 1, q.Len())
}

func TestCompareAsyncFullQueue(t *testing.T) {
	router, _, q := setupRouter(t, &stubSource{})

	// Fill the queue
	for i := 0; i < 8; i++ {
		require.NoError(t, q.Push(models.ComparisonJob{Query: "x"}))
	}

	w := doJSON(router, http.MethodPost, "/api/compare/async", CompareRequest{
		Query:    "iphone 13",
		Listings: sampleListings(),
	})

	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}

func TestGetRecords(t *testing.T) {
	router, _, _ := setupRouter(t, &stubSource{})

	// Seed via compare
	w := doJSON(router, http.MethodPost, "/api/compare", CompareRequest{
		Query:    "iphone 13",
		Listings: sampleListings(),
	})
	require.Equal(t, http.StatusOK, w.Code)

	w = doJSON(router, http.MethodGet, "/api/records", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var records []models.ProductRecord
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &records))
	assert.Len(t, records, 3)
}

func TestGetSummary(t *testing.T) {
	router, _, _ := setupRouter(t, &stubSource{})

	w := doJSON(router, http.MethodPost, "/api/compare", CompareRequest{
		Query:    "iphone 13",
		Listings: sampleListings(),
	})
	require.Equal(t, http.StatusOK, w.Code)

	w = doJSON(router, http.MethodGet, "/api/summary", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var summary []models.ProductSummary
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &summary))
	require.Len(t, summary, 2)
}

func TestClearRecords(t *testing.T) {
	router, store, _ := setupRouter(t, &stubSource{})

	w := doJSON(router, http.MethodPost, "/api/compare", CompareRequest{
		Query:    "iphone 13",
		Listings: sampleListings(),
	})
	require.Equal(t, http.StatusOK, w.Code)

	w = doJSON(router, http.MethodDelete, "/api/records", nil)
	require.Equal(t, http.StatusOK, w.Code)

	records, err := store.GetRecords()
	require.NoError(t, err)
	assert.Empty(t, records)
}
