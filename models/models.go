package models

import (
	"database/sql"
	"time"

	"pricer/extract"
)

// ProductAlias links a MasterMarket product to one retailer's product page.
// Aliases are what a scrape run iterates over.
type ProductAlias struct {
	ID        int    `json:"id"`
	ProductID int    `json:"product_id"`
	StoreID   int    `json:"store_id"`
	StoreName string `json:"store_name"`
	Name      string `json:"name"`
	URL       string `json:"url"`
}

// PriceSubmission is the payload uploaded for one successfully scraped alias
type PriceSubmission struct {
	ProductID              int       `json:"product_id"`
	StoreID                int       `json:"store_id"`
	Price                  float64   `json:"price"`
	Currency               string    `json:"currency"`
	OriginalPrice          *float64  `json:"original_price,omitempty"`
	PromotionType          string    `json:"promotion_type,omitempty"`
	PromotionText          string    `json:"promotion_text,omitempty"`
	PromotionDiscountValue *float64  `json:"promotion_discount_value,omitempty"`
	SourceURL              string    `json:"source_url"`
	ScrapedAt              time.Time `json:"scraped_at"`
}

// NewPriceSubmission builds the upload payload from an extraction result
func NewPriceSubmission(alias ProductAlias, rec *extract.PriceRecord) *PriceSubmission {
	return &PriceSubmission{
		ProductID:              alias.ProductID,
		StoreID:                alias.StoreID,
		Price:                  rec.Price,
		Currency:               rec.Currency,
		OriginalPrice:          rec.OriginalPrice,
		PromotionType:          string(rec.PromotionKind),
		PromotionText:          rec.PromotionText,
		PromotionDiscountValue: rec.PromotionDiscountValue,
		SourceURL:              alias.URL,
		ScrapedAt:              time.Now().UTC(),
	}
}

// StatusUpdate reports the outcome of scraping one alias back to the API
type StatusUpdate struct {
	AliasID int    `json:"alias_id"`
	Status  string `json:"status"` // "scraped", "failed" or "skipped"
	Error   string `json:"error,omitempty"`
}

// Run status values
const (
	RunStatusRunning   = "running"
	RunStatusCompleted = "completed"
	RunStatusFailed    = "failed"
)

// ScrapeRun records one pass over the alias list
type ScrapeRun struct {
	ID         int        `json:"id" db:"id"`
	Trigger    string     `json:"trigger" db:"trigger"` // "schedule" or "manual"
	Status     string     `json:"status" db:"status"`
	StartedAt  time.Time  `json:"started_at" db:"started_at"`
	FinishedAt *time.Time `json:"finished_at" db:"finished_at"`
	Total      int        `json:"total" db:"total"`
	Succeeded  int        `json:"succeeded" db:"succeeded"`
	Failed     int        `json:"failed" db:"failed"`
	Skipped    int        `json:"skipped" db:"skipped"`
}

// Duration returns the wall-clock time of the run, zero while still running
func (r *ScrapeRun) Duration() time.Duration {
	if r.FinishedAt == nil {
		return 0
	}
	return r.FinishedAt.Sub(r.StartedAt)
}

// SuccessRate returns the fraction of aliases that produced a price
func (r *ScrapeRun) SuccessRate() float64 {
	if r.Total == 0 {
		return 0
	}
	return float64(r.Succeeded) / float64(r.Total)
}

// ScrapedPrice is one extracted price persisted for audit and backfill
type ScrapedPrice struct {
	ID            int             `json:"id" db:"id"`
	RunID         int             `json:"run_id" db:"run_id"`
	AliasID       int             `json:"alias_id" db:"alias_id"`
	ProductID     int             `json:"product_id" db:"product_id"`
	StoreName     string          `json:"store_name" db:"store_name"`
	Price         float64         `json:"price" db:"price"`
	Currency      string          `json:"currency" db:"currency"`
	OriginalPrice sql.NullFloat64 `json:"-" db:"original_price"`
	PromotionType sql.NullString  `json:"-" db:"promotion_type"`
	PromotionText sql.NullString  `json:"-" db:"promotion_text"`
	DiscountValue sql.NullFloat64 `json:"-" db:"discount_value"`
	CreatedAt     time.Time       `json:"created_at" db:"created_at"`
}

// HasPromotion returns true if the row carries promotion data
func (s *ScrapedPrice) HasPromotion() bool {
	return s.PromotionType.Valid && s.PromotionType.String != ""
}

// GetOriginalPrice returns the original price as float64, or 0 if NULL
func (s *ScrapedPrice) GetOriginalPrice() float64 {
	if s.OriginalPrice.Valid {
		return s.OriginalPrice.Float64
	}
	return 0.0
}
