package extract

import (
	"fmt"
	"math"
)

// PriceRecord is the validated result of one extraction. Promotion fields
// are zero-valued for plain prices and omitted from the JSON encoding.
type PriceRecord struct {
	Price                  float64       `json:"price"`
	Currency               string        `json:"currency"`
	OriginalPrice          *float64      `json:"original_price,omitempty"`
	PromotionKind          PromotionKind `json:"promotion_type,omitempty"`
	PromotionText          string        `json:"promotion_text,omitempty"`
	PromotionDiscountValue *float64      `json:"promotion_discount_value,omitempty"`
}

// HasPromotion reports whether any promotion was attached to the record.
func (r *PriceRecord) HasPromotion() bool {
	return r.PromotionKind != ""
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// Extract runs the full pipeline on one scraped fragment: normalize,
// find candidates, pick the primary price, classify promotion language and
// assemble the record. text is the fragment believed to hold the price;
// context is nearby page text that supplies promotion and unit signals.
//
// Extract is pure and safe for concurrent use: profiles are read-only and
// no state survives the call.
func Extract(text, context string, p *RetailerProfile) (*PriceRecord, error) {
	text = NormalizeText(text)
	context = NormalizeText(context)

	candidates := ExtractCandidates(text, context, p)
	primary, ok := primaryCandidate(candidates)
	if !ok {
		return nil, fmt.Errorf("%w in %q", ErrNoPriceFound, text)
	}

	promo, err := ClassifyPromotion(text, context, primary.Value, p)
	if err != nil {
		return nil, err
	}
	return AssembleRecord(primary.Value, promo, p)
}

// primaryCandidate returns the best selectable candidate. Per-unit
// candidates are never selectable regardless of rank.
func primaryCandidate(candidates []PriceCandidate) (PriceCandidate, bool) {
	for _, c := range candidates {
		if !c.PerUnit {
			return c, true
		}
	}
	return PriceCandidate{}, false
}

// AssembleRecord builds the validated record from the chosen price and an
// optional promotion match. The original price, when present, must exceed
// the current price and sit inside the profile's valid range; for
// membership and was/now promotions the discount is recomputed here so it
// always equals the rounded difference of the two prices.
func AssembleRecord(price float64, promo *PromotionMatch, p *RetailerProfile) (*PriceRecord, error) {
	if !p.ValidPrices.Contains(price) {
		return nil, fmt.Errorf("%w: %.2f", ErrPriceOutOfRange, price)
	}

	record := &PriceRecord{Price: price, Currency: p.Currency}
	if promo == nil {
		return record, nil
	}

	if promo.OriginalPrice != nil {
		original := *promo.OriginalPrice
		if !p.ValidPrices.Contains(original) {
			return nil, fmt.Errorf("%w: original price %.2f", ErrPriceOutOfRange, original)
		}
		// A non-positive discount means the "original" price was stale page
		// text, not a real promotion. Emit a plain record.
		if round2(original-price) <= 0 {
			return record, nil
		}
		record.OriginalPrice = &original
	}

	record.PromotionKind = promo.Kind
	record.PromotionText = promo.Text

	switch promo.Kind {
	case MembershipPrice, TemporaryDiscount:
		if record.OriginalPrice != nil {
			d := round2(*record.OriginalPrice - price)
			record.PromotionDiscountValue = &d
		}
	default:
		record.PromotionDiscountValue = promo.DiscountValue
	}
	return record, nil
}
