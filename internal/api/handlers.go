package api

import (
	"context"
	"net/http"
	"os"
	"sort"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"bestdeal/server/internal/database"
	"bestdeal/server/internal/engine"
	"bestdeal/server/internal/models"
	"bestdeal/server/internal/queue"
	"bestdeal/server/internal/telegram"
)

// ListingSource provides raw listings for a query. Satisfied by
// *fetch.Manager.
type ListingSource interface {
	FetchAll(ctx context.Context, query string) []models.RawListing
}

type Handler struct {
	store    *database.Store
	engine   *engine.Engine
	source   ListingSource
	queue    *queue.JobQueue
	notifier *telegram.Service
	logger   *logrus.Logger
}

// CompareRequest carries a comparison query. Listings may be supplied
// directly by clients that already scraped them; when absent the server
// fetches from the configured sites.
type CompareRequest struct {
	Query    string              `json:"query" binding:"required"`
	Listings []models.RawListing `json:"listings"`
}

func NewHandler(store *database.Store, eng *engine.Engine, source ListingSource, q *queue.JobQueue, notifier *telegram.Service, logger *logrus.Logger) *Handler {
	if logger == nil {
		logger = logrus.New()
		logger.SetFormatter(&logrus.JSONFormatter{})
		logger.SetOutput(os.Stdout)
	}

	return &Handler{
		store:    store,
		engine:   eng,
		source:   source,
		queue:    q,
		notifier: notifier,
		logger:   logger,
	}
}

// Compare fetches listings for the query (unless the request supplied them)
// and runs the comparison synchronously.
func (h *Handler) Compare(c *gin.Context) {
	var req CompareRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.WithError(err).Error("Failed to parse compare request")
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request parameters"})
		return
	}

	listings := req.Listings
	if len(listings) == 0 {
		listings = h.source.FetchAll(c.Request.Context(), req.Query)
	}

	result, err := h.engine.Compare(req.Query, listings)
	if err != nil {
		h.logger.WithError(err).Error("Comparison failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Comparison failed"})
		return
	}

	h.notifyImprovements(result)

	c.JSON(http.StatusOK, gin.H{
		"query":        req.Query,
		"records":      sortedRecords(result),
		"overall_best": result.OverallBest(),
		"clusters":     len(result.Clusters),
		"dropped":      result.Dropped,
	})
}

// CompareAsync enqueues the comparison and returns immediately. When the
// request carries no listings the fetch happens in the background too.
func (h *Handler) CompareAsync(c *gin.Context) {
	var req CompareRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.WithError(err).Error("Failed to parse compare request")
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request parameters"})
		return
	}

	if len(req.Listings) > 0 {
		if err := h.enqueue(models.ComparisonJob{Query: req.Query, Listings: req.Listings}); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": err.Error()})
			return
		}
	} else {
		go func() {
			listings := h.source.FetchAll(context.Background(), req.Query)
			if err := h.enqueue(models.ComparisonJob{Query: req.Query, Listings: listings}); err != nil {
				h.logger.WithError(err).WithField("query", req.Query).Error("Failed to enqueue fetched job")
			}
		}()
	}

	c.JSON(http.StatusAccepted, gin.H{
		"status": "queued",
		"query":  req.Query,
	})
}

func (h *Handler) enqueue(job models.ComparisonJob) error {
	if err := h.queue.Push(job); err != nil {
		h.logger.WithError(err).WithField("query", job.Query).Error("Failed to enqueue comparison job")
		return err
	}
	return nil
}

// GetRecords returns all stored best-price records.
func (h *Handler) GetRecords(c *gin.Context) {
	records, err := h.store.GetRecords()
	if err != nil {
		h.logger.WithError(err).Error("Failed to get records")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to get records"})
		return
	}

	c.JSON(http.StatusOK, records)
}

// GetSummary returns the per-product price summary.
func (h *Handler) GetSummary(c *gin.Context) {
	summary, err := h.store.GetSummary()
	if err != nil {
		h.logger.WithError(err).Error("Failed to get summary")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to get summary"})
		return
	}

	c.JSON(http.StatusOK, summary)
}

// ClearRecords wipes the stored price history.
func (h *Handler) ClearRecords(c *gin.Context) {
	if err := h.store.ClearRecords(); err != nil {
		h.logger.WithError(err).Error("Failed to clear records")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to clear records"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "cleared"})
}

// notifyImprovements pushes a Telegram notification for every record that
// actually beat the stored price. Notification failures are logged, never
// surfaced to the API client.
func (h *Handler) notifyImprovements(result *engine.Result) {
	if h.notifier == nil {
		return
	}
	for _, record := range result.Records {
		if !record.Improved {
			continue
		}
		if err := h.notifier.NotifyPriceDrop(record, record.Previous); err != nil {
			h.logger.WithError(err).WithFields(logrus.Fields{
				"product": record.Name,
				"site":    record.Site,
			}).Error("Failed to send price drop notification")
		}
	}
}

// sortedRecords flattens the result map into a stable name-then-site order.
func sortedRecords(result *engine.Result) []*models.ProductRecord {
	records := make([]*models.ProductRecord, 0, len(result.Records))
	for _, record := range result.Records {
		records = append(records, record)
	}
	sort.Slice(records, func(i, j int) bool {
		if records[i].Name != records[j].Name {
			return records[i].Name < records[j].Name
		}
		return records[i].Site < records[j].Site
	})
	return records
}
