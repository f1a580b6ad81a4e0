package dedup

import (
	"github.com/sirupsen/logrus"

	"bestdeal/server/internal/match"
	"bestdeal/server/internal/models"
)

// Deduplicator groups normalized listings into clusters that represent the
// same physical product across sites.
type Deduplicator struct {
	matcher *match.Matcher
	logger  *logrus.Logger
}

// New creates a Deduplicator using the given matcher.
func New(matcher *match.Matcher, logger *logrus.Logger) *Deduplicator {
	if logger == nil {
		logger = logrus.New()
	}
	return &Deduplicator{matcher: matcher, logger: logger}
}

// Cluster performs greedy single-linkage clustering in input order. Each
// listing is scored against every existing cluster's representative (the
// first listing added to that cluster, never replaced); the best-scoring
// cluster wins if it meets the threshold, otherwise the listing starts a
// new cluster. Given the same input order the output is identical every
// run: only slice order drives the outcome, never map iteration.
func (d *Deduplicator) Cluster(listings []models.NormalizedListing) []models.ProductCluster {
	clusters := make([]models.ProductCluster, 0, len(listings))

	for _, listing := range listings {
		bestIdx := -1
		bestScore := 0.0
		for i := range clusters {
			score := d.matcher.Score(listing.Tokens, clusters[i].Representative().Tokens)
			if score > bestScore {
				bestScore = score
				bestIdx = i
			}
		}

		if bestIdx >= 0 && bestScore >= d.matcher.Threshold() {
			clusters[bestIdx].Listings = append(clusters[bestIdx].Listings, listing)
			continue
		}
		clusters = append(clusters, models.ProductCluster{
			Listings: []models.NormalizedListing{listing},
		})
	}

	d.logger.WithFields(logrus.Fields{
		"listings": len(listings),
		"clusters": len(clusters),
	}).Debug("Clustered listings")

	return clusters
}
