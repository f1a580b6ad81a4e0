package models

import "time"

// RawListing is one scraped search result from one site, exactly as the
// fetcher saw it. It is never mutated after creation.
type RawListing struct {
	Site      string `json:"site"`
	Title     string `json:"title"`
	PriceText string `json:"price_text"`
	URL       string `json:"url"`
}

// TokenSet holds the canonical tokens derived from a title or query.
// Token order carries no meaning for comparison. Model is the extracted
// model-number hint, empty when none was found.
type TokenSet struct {
	Tokens []string `json:"tokens"`
	Model  string   `json:"model,omitempty"`
}

// IsEmpty reports whether no tokens survived normalization.
func (t TokenSet) IsEmpty() bool {
	return len(t.Tokens) == 0
}

// NormalizedListing is a RawListing after text and price normalization.
// Price is nil when the raw price text contained nothing numeric; such
// listings are unusable and must never be treated as price zero.
type NormalizedListing struct {
	Site   string   `json:"site"`
	Title  string   `json:"title"`
	Tokens TokenSet `json:"tokens"`
	Price  *float64 `json:"price"`
	URL    string   `json:"url"`
}

// ProductCluster groups listings judged to be the same physical product
// across sites. The first listing is the cluster representative and anchors
// the cluster identity; it is never replaced.
type ProductCluster struct {
	Listings []NormalizedListing `json:"listings"`
}

// Representative returns the anchoring listing of the cluster.
func (c *ProductCluster) Representative() NormalizedListing {
	return c.Listings[0]
}

// Offer is the cheapest valid listing of a cluster on one site.
type Offer struct {
	Price float64 `json:"price"`
	URL   string  `json:"url"`
}

// ProductKey identifies one persisted record: one product on one site.
type ProductKey struct {
	Product string `json:"product"`
	Site    string `json:"site"`
}

// ProductRecord is the persisted best price for a (product, site) pair.
// At most one record exists per pair; a record is only overwritten by a
// strictly lower validated price.
type ProductRecord struct {
	ID        int64     `json:"id" gorm:"primaryKey"`
	Name      string    `json:"name" gorm:"uniqueIndex:idx_product_site;not null"`
	Site      string    `json:"site" gorm:"uniqueIndex:idx_product_site;not null"`
	Price     float64   `json:"price"`
	URL       string    `json:"url"`
	UpdatedAt time.Time `json:"updated_at"`

	// Improved marks records whose price actually beat the stored one during
	// the run that produced them; Previous carries the beaten price when one
	// existed. Neither is persisted.
	Improved bool     `json:"-" gorm:"-"`
	Previous *float64 `json:"-" gorm:"-"`
}

// ProductSummary is an aggregate over everything seen for one product name,
// used by the history views.
type ProductSummary struct {
	Name      string  `json:"name"`
	BestPrice float64 `json:"best_price"`
	AvgPrice  float64 `json:"avg_price"`
	Sites     int     `json:"sites"`
}

// ComparisonJob is one unit of work for the background pipeline: a query
// plus the raw listings fetched for it.
type ComparisonJob struct {
	Query    string       `json:"query"`
	Listings []RawListing `json:"listings"`
}

// OverallBest is the single cheapest offer of the dominant cluster,
// for display purposes.
type OverallBest struct {
	Product string  `json:"product"`
	Site    string  `json:"site"`
	Price   float64 `json:"price"`
	URL     string  `json:"url"`
}
