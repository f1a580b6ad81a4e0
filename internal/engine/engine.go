package engine

import (
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"bestdeal/server/internal/dedup"
	"bestdeal/server/internal/models"
	"bestdeal/server/internal/normalize"
)

// Store is the persistence collaborator. Both calls are synchronous and
// idempotent under retry; the implementation enforces the uniqueness of
// (product name, site).
type Store interface {
	// GetBest returns the stored best price for the pair, or nil when no
	// record exists yet.
	GetBest(product, site string) (*float64, error)
	// Upsert inserts or replaces the record for its (name, site) pair.
	Upsert(record *models.ProductRecord) error
}

// Engine runs the full comparison pipeline for one query: normalize,
// cluster, select best prices, and persist strict improvements.
type Engine struct {
	dedup  *dedup.Deduplicator
	store  Store
	logger *logrus.Logger
}

// New creates a comparison engine.
func New(dedup *dedup.Deduplicator, store Store, logger *logrus.Logger) *Engine {
	if logger == nil {
		logger = logrus.New()
	}
	return &Engine{dedup: dedup, store: store, logger: logger}
}

// Result is the outcome of one comparison run.
type Result struct {
	Records  map[models.ProductKey]*models.ProductRecord
	Clusters []models.ProductCluster
	// Dropped counts listings discarded for an unusable price.
	Dropped int
}

// Compare takes a query and the raw listings fetched for it and produces
// the best valid offer per (product, site) pair. Listings whose price text
// cannot be parsed are dropped and counted, never fatal. Records are
// upserted to the store only when no record exists for the pair or the new
// price is strictly lower than the stored one; store failures propagate
// unchanged. Zero usable listings yield an empty result, not an error.
func (e *Engine) Compare(query string, raw []models.RawListing) (*Result, error) {
	result := &Result{
		Records: make(map[models.ProductKey]*models.ProductRecord),
	}

	usable := make([]models.NormalizedListing, 0, len(raw))
	for _, r := range raw {
		l := normalize.Listing(r)
		if l.Price == nil {
			result.Dropped++
			e.logger.WithFields(logrus.Fields{
				"site":  r.Site,
				"title": r.Title,
			}).Debug("Dropping listing with unusable price")
			continue
		}
		usable = append(usable, l)
	}

	if len(usable) == 0 {
		e.logger.WithField("query", query).Info("No usable listings for query")
		return result, nil
	}

	result.Clusters = e.dedup.Cluster(usable)

	now := time.Now()
	for _, cluster := range result.Clusters {
		name := displayName(cluster)
		for site, offer := range SelectBest(cluster) {
			record := &models.ProductRecord{
				Name:      name,
				Site:      site,
				Price:     offer.Price,
				URL:       offer.URL,
				UpdatedAt: now,
			}
			if err := e.persist(record); err != nil {
				return nil, err
			}
			result.Records[models.ProductKey{Product: name, Site: site}] = record
		}
	}

	e.logger.WithFields(logrus.Fields{
		"query":    query,
		"listings": len(raw),
		"dropped":  result.Dropped,
		"clusters": len(result.Clusters),
		"records":  len(result.Records),
	}).Info("Comparison run completed")

	return result, nil
}

// persist upserts the record when it strictly improves on the stored price,
// or when no record exists yet. The store is never asked to overwrite with
// an equal or higher price.
func (e *Engine) persist(record *models.ProductRecord) error {
	existing, err := e.store.GetBest(record.Name, record.Site)
	if err != nil {
		return fmt.Errorf("failed to read stored best price: %w", err)
	}
	if existing != nil && record.Price >= *existing {
		return nil
	}
	if err := e.store.Upsert(record); err != nil {
		return fmt.Errorf("failed to upsert product record: %w", err)
	}
	record.Improved = true
	record.Previous = existing
	return nil
}

// OverallBest returns the single cheapest offer of the dominant cluster,
// for display. The dominant cluster is the one with the most listings;
// ties keep the earliest cluster. Nil when the result is empty.
func (r *Result) OverallBest() *models.OverallBest {
	bestIdx := -1
	for i := range r.Clusters {
		if bestIdx < 0 || len(r.Clusters[i].Listings) > len(r.Clusters[bestIdx].Listings) {
			bestIdx = i
		}
	}
	if bestIdx < 0 {
		return nil
	}

	cluster := r.Clusters[bestIdx]
	name := displayName(cluster)
	var best *models.OverallBest
	for _, site := range siteOrder(cluster) {
		record, ok := r.Records[models.ProductKey{Product: name, Site: site}]
		if !ok {
			continue
		}
		if best == nil || record.Price < best.Price {
			best = &models.OverallBest{
				Product: name,
				Site:    site,
				Price:   record.Price,
				URL:     record.URL,
			}
		}
	}
	return best
}

// displayName derives the product name of a cluster from its
// representative: the original-cased title when present, else the joined
// normalized tokens.
func displayName(cluster models.ProductCluster) string {
	rep := cluster.Representative()
	if rep.Title != "" {
		return rep.Title
	}
	return normalize.Display(joinTokens(rep.Tokens))
}

func joinTokens(set models.TokenSet) string {
	out := ""
	for i, tok := range set.Tokens {
		if i > 0 {
			out += " "
		}
		out += tok
	}
	return out
}

// siteOrder lists the cluster's sites in first-seen listing order so the
// overall-best tie break stays deterministic.
func siteOrder(cluster models.ProductCluster) []string {
	seen := make(map[string]struct{})
	order := make([]string, 0, len(cluster.Listings))
	for _, l := range cluster.Listings {
		if _, ok := seen[l.Site]; ok {
			continue
		}
		seen[l.Site] = struct{}{}
		order = append(order, l.Site)
	}
	return order
}
