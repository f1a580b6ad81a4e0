package engine

import "bestdeal/server/internal/models"

// SelectBest picks, for every site represented in the cluster, the listing
// with the lowest valid price. Listings without a parsed price or with a
// price of zero or below are never selected; a site whose listings are all
// invalid contributes no entry. Ties on the minimum price keep the listing
// that appeared first in input order.
func SelectBest(cluster models.ProductCluster) map[string]models.Offer {
	best := make(map[string]models.Offer)
	for _, l := range cluster.Listings {
		if l.Price == nil || *l.Price <= 0 {
			continue
		}
		current, ok := best[l.Site]
		if !ok || *l.Price < current.Price {
			best[l.Site] = models.Offer{Price: *l.Price, URL: l.URL}
		}
	}
	return best
}
