package fetch

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"
	"github.com/sirupsen/logrus"

	"bestdeal/server/config"
	"bestdeal/server/internal/models"
)

// Fetcher retrieves raw search listings from one site.
type Fetcher interface {
	Fetch(ctx context.Context, query, siteID string) ([]models.RawListing, error)
}

// Results past this point are mostly accessories and sponsored filler.
const maxResultsPerSite = 30

// SiteFetcher scrapes search results pages with a headless browser.
type SiteFetcher struct {
	browser *rod.Browser
	logger  *logrus.Logger
}

// NewSiteFetcher launches a browser and connects to it. Uses the system
// Chromium when present (Docker), auto-downloads otherwise.
func NewSiteFetcher(headless bool, logger *logrus.Logger) (*SiteFetcher, error) {
	l := launcher.New().
		Headless(headless).
		NoSandbox(true).
		Leakless(false)

	if _, err := os.Stat("/usr/bin/chromium-browser"); err == nil {
		l = l.Bin("/usr/bin/chromium-browser")
	}

	url, err := l.Launch()
	if err != nil {
		return nil, fmt.Errorf("failed to launch browser: %w", err)
	}

	browser := rod.New().ControlURL(url)
	if err := browser.Connect(); err != nil {
		return nil, fmt.Errorf("failed to connect to browser: %w", err)
	}

	return &SiteFetcher{browser: browser, logger: logger}, nil
}

// Close shuts the browser down.
func (f *SiteFetcher) Close() error {
	return f.browser.Close()
}

// Fetch opens the site's search results page for the query and extracts raw
// listings using the site's selectors.
func (f *SiteFetcher) Fetch(ctx context.Context, query, siteID string) ([]models.RawListing, error) {
	site := config.GetSiteByID(siteID)
	if site == nil {
		return nil, fmt.Errorf("unknown site: %s", siteID)
	}

	searchURL := site.SearchFor(query)
	f.logger.WithFields(logrus.Fields{
		"site": site.ID,
		"url":  searchURL,
	}).Debug("Opening search page")

	page, err := f.browser.Page(proto.TargetCreateTarget{})
	if err != nil {
		return nil, fmt.Errorf("failed to open page: %w", err)
	}
	defer page.Close()
	page = page.Context(ctx)

	if err := page.Navigate(searchURL); err != nil {
		return nil, fmt.Errorf("failed to navigate to %s: %w", searchURL, err)
	}
	if err := page.WaitLoad(); err != nil {
		return nil, fmt.Errorf("failed to load %s: %w", searchURL, err)
	}

	elements, err := page.Elements(site.Selectors.Result)
	if err != nil {
		return nil, fmt.Errorf("failed to query results on %s: %w", site.ID, err)
	}

	listings := make([]models.RawListing, 0, len(elements))
	for _, el := range elements {
		if len(listings) >= maxResultsPerSite {
			break
		}
		listing, ok := extractListing(el, site)
		if !ok {
			continue
		}
		listings = append(listings, listing)
	}

	f.logger.WithFields(logrus.Fields{
		"site":     site.ID,
		"query":    query,
		"listings": len(listings),
	}).Info("Fetched listings")

	return listings, nil
}

// extractListing pulls one listing out of a result element. Elements missing
// any of title, price, or link are skipped, matching the behavior of the
// interactive sites that pad results with ads and category tiles.
func extractListing(el *rod.Element, site *config.Site) (models.RawListing, bool) {
	titleEl, err := el.Element(site.Selectors.Title)
	if err != nil {
		return models.RawListing{}, false
	}
	title, err := titleEl.Text()
	if err != nil || strings.TrimSpace(title) == "" {
		return models.RawListing{}, false
	}

	priceEl, err := el.Element(site.Selectors.Price)
	if err != nil {
		return models.RawListing{}, false
	}
	priceText, err := priceEl.Text()
	if err != nil {
		return models.RawListing{}, false
	}

	linkEl, err := el.Element(site.Selectors.Link)
	if err != nil {
		return models.RawListing{}, false
	}
	href, err := linkEl.Attribute("href")
	if err != nil || href == nil {
		return models.RawListing{}, false
	}

	return models.RawListing{
		Site:      site.ID,
		Title:     strings.TrimSpace(title),
		PriceText: strings.TrimSpace(priceText),
		URL:       site.AbsoluteURL(*href),
	}, true
}
