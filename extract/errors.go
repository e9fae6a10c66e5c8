package extract

import "errors"

// Extraction failures are sentinel values so callers can branch on them
// with errors.Is. All of them are local and non-fatal: the caller decides
// whether to re-extract from another fragment or report the product as
// unpriced.
var (
	// ErrNoPriceFound means no valid, non-per-unit candidate exists.
	ErrNoPriceFound = errors.New("no price found")

	// ErrPriceOutOfRange means a price or original price falls outside the
	// profile's valid range. Values are never clamped.
	ErrPriceOutOfRange = errors.New("price out of range")

	// ErrAmbiguousPromotion means two pattern families in the same priority
	// tier produced conflicting original prices.
	ErrAmbiguousPromotion = errors.New("ambiguous promotion")

	// ErrInvalidNumericFormat means a matched numeric string failed to parse
	// after separator normalization.
	ErrInvalidNumericFormat = errors.New("invalid numeric format")
)
