package fetch

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"

	"bestdeal/server/internal/models"
)

// Manager fans one query across the configured sites.
type Manager struct {
	fetcher Fetcher
	retry   RetryPolicy
	sites   []string
	logger  *logrus.Logger
}

// NewManager creates a fetch manager over the given site IDs.
func NewManager(fetcher Fetcher, retry RetryPolicy, sites []string, logger *logrus.Logger) *Manager {
	return &Manager{
		fetcher: fetcher,
		retry:   retry,
		sites:   sites,
		logger:  logger,
	}
}

// FetchAll collects listings for the query from every configured site, in
// site order. A site that keeps failing after retries contributes nothing;
// the other sites' results still come back.
func (m *Manager) FetchAll(ctx context.Context, query string) []models.RawListing {
	var all []models.RawListing

	for _, siteID := range m.sites {
		var listings []models.RawListing
		err := m.retry.Do(ctx, fmt.Sprintf("fetch %s", siteID), func() error {
			var ferr error
			listings, ferr = m.fetcher.Fetch(ctx, query, siteID)
			return ferr
		})
		if err != nil {
			m.logger.WithError(err).WithField("site", siteID).Error("Fetching failed, skipping site")
			continue
		}
		all = append(all, listings...)
	}

	m.logger.WithFields(logrus.Fields{
		"query":    query,
		"sites":    len(m.sites),
		"listings": len(all),
	}).Info("Fetch fan-out completed")

	return all
}
