package repository

import (
	"fmt"

	"pricer/database"
	"pricer/extract"
	"pricer/models"
)

type PriceRepository struct{}

func NewPriceRepository() *PriceRepository {
	return &PriceRepository{}
}

// AddScrapedPrice persists one extraction result for a run
func (r *PriceRepository) AddScrapedPrice(runID int, alias models.ProductAlias, rec *extract.PriceRecord) error {
	query := `
		INSERT INTO scraped_prices (run_id, alias_id, product_id, store_name, price, currency, original_price, promotion_type, promotion_text, discount_value)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`

	var promoType, promoText interface{}
	if rec.PromotionKind != "" {
		promoType = string(rec.PromotionKind)
		promoText = rec.PromotionText
	}

	_, err := database.DB.Exec(query,
		runID, alias.ID, alias.ProductID, alias.StoreName,
		rec.Price, rec.Currency, rec.OriginalPrice, promoType, promoText, rec.PromotionDiscountValue,
	)
	if err != nil {
		return fmt.Errorf("failed to add scraped price: %v", err)
	}

	return nil
}

// GetPricesForRun returns all prices captured during one run
func (r *PriceRepository) GetPricesForRun(runID int) ([]models.ScrapedPrice, error) {
	query := `
		SELECT id, run_id, alias_id, product_id, store_name, price, currency, original_price, promotion_type, promotion_text, discount_value, created_at
		FROM scraped_prices
		WHERE run_id = $1
		ORDER BY created_at
	`

	rows, err := database.DB.Query(query, runID)
	if err != nil {
		return nil, fmt.Errorf("failed to get prices for run: %v", err)
	}
	defer rows.Close()

	var prices []models.ScrapedPrice
	for rows.Next() {
		var p models.ScrapedPrice
		err := rows.Scan(
			&p.ID, &p.RunID, &p.AliasID, &p.ProductID, &p.StoreName,
			&p.Price, &p.Currency, &p.OriginalPrice, &p.PromotionType,
			&p.PromotionText, &p.DiscountValue, &p.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan price: %v", err)
		}
		prices = append(prices, p)
	}

	return prices, nil
}

// CountPromotions returns how many prices in a run carried a promotion
func (r *PriceRepository) CountPromotions(runID int) (int, error) {
	query := `
		SELECT COUNT(*)
		FROM scraped_prices
		WHERE run_id = $1 AND promotion_type IS NOT NULL
	`

	var count int
	if err := database.DB.QueryRow(query, runID).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count promotions: %v", err)
	}

	return count, nil
}
