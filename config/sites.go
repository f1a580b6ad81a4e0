package config

import (
	"net/url"
	"strings"
	"sync"
)

// Selectors are the CSS selectors used to pull listings out of a site's
// search results page.
type Selectors struct {
	Result string `json:"result"`
	Title  string `json:"title"`
	Price  string `json:"price"`
	Link   string `json:"link"`
}

// Site describes one supported e-commerce site.
type Site struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	BaseURL   string    `json:"base_url"`
	SearchURL string    `json:"search_url"` // %s is replaced with the escaped query
	Selectors Selectors `json:"selectors"`
}

// SearchFor builds the search results URL for a query.
func (s Site) SearchFor(query string) string {
	return strings.Replace(s.SearchURL, "%s", url.QueryEscape(query), 1)
}

// AbsoluteURL resolves a scraped href against the site's base URL.
func (s Site) AbsoluteURL(href string) string {
	if href == "" || strings.HasPrefix(href, "http") {
		return href
	}
	return s.BaseURL + href
}

var (
	sitesLock sync.RWMutex

	supportedSites = []Site{
		{
			ID:        "amazon-eg",
			Name:      "Amazon Egypt",
			BaseURL:   "https://www.amazon.eg",
			SearchURL: "https://www.amazon.eg/s?k=%s&language=en",
			Selectors: Selectors{
				Result: `div.s-result-item:not(.AdHolder)`,
				Title:  `h2 span.a-text-normal, .a-size-medium.a-text-normal, .a-size-base-plus`,
				Price:  `span.a-price span.a-offscreen, span.a-price .a-price-whole, .a-price`,
				Link:   `a.a-link-normal[href*="/dp/"]`,
			},
		},
		{
			ID:        "noon-eg",
			Name:      "Noon Egypt",
			BaseURL:   "https://www.noon.com",
			SearchURL: "https://www.noon.com/egypt-en/search?q=%s",
			Selectors: Selectors{
				Result: `div[data-qa="product-grid"] div[data-qa="product-item"], div.productContainer`,
				Title:  `div[data-qa="product-name"], div.name`,
				Price:  `div[data-qa="price-box"] strong, span.price`,
				Link:   `a[href*="/egypt-en/"]`,
			},
		},
		{
			ID:        "carrefour-eg",
			Name:      "Carrefour Egypt",
			BaseURL:   "https://www.carrefouregypt.com",
			SearchURL: "https://www.carrefouregypt.com/mafegy/en/search?q=%s",
			Selectors: Selectors{
				Result: `div.product-item, div.product_grid_item`,
				Title:  `.product-name, .name`,
				Price:  `.price, .product-price`,
				Link:   `a[href*="/p/"]`,
			},
		},
	}
)

// GetSites returns the current site registry.
func GetSites() []Site {
	sitesLock.RLock()
	defer sitesLock.RUnlock()

	sites := make([]Site, len(supportedSites))
	copy(sites, supportedSites)
	return sites
}

// GetSiteIDs returns the IDs of all registered sites.
func GetSiteIDs() []string {
	sitesLock.RLock()
	defer sitesLock.RUnlock()

	ids := make([]string, len(supportedSites))
	for i, site := range supportedSites {
		ids[i] = site.ID
	}
	return ids
}

// GetSiteByID returns a site configuration by its ID, nil when unknown.
func GetSiteByID(id string) *Site {
	sitesLock.RLock()
	defer sitesLock.RUnlock()

	for _, site := range supportedSites {
		if site.ID == id {
			s := site
			return &s
		}
	}
	return nil
}

// NormalizeSite converts a display name or loose input into registry ID form:
// lowercased, apostrophes dropped, runs of spaces collapsed to hyphens.
func NormalizeSite(name string) string {
	s := strings.ToLower(strings.TrimSpace(name))
	s = strings.ReplaceAll(s, "'", "")
	return strings.Join(strings.Fields(s), "-")
}
