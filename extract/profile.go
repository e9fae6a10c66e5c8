package extract

import "strings"

// PriceRange bounds a monetary or percentage value.
type PriceRange struct {
	Min float64
	Max float64
}

// Contains reports whether v falls inside the inclusive range.
func (r PriceRange) Contains(v float64) bool {
	return v >= r.Min && v <= r.Max
}

// RetailerProfile is the immutable per-retailer configuration that
// parameterizes every stage of the pipeline. Profiles carry data only:
// adding a retailer means adding indicator strings, markers and pattern
// families here, never new extraction code.
type RetailerProfile struct {
	Name     string
	Currency string

	// PerUnitIndicators mark weight/volume pricing ("/kg", "per litre").
	// A candidate with one of these inside its window is never selected
	// as the primary price.
	PerUnitIndicators []string

	// LoyaltyMarkers trigger the membership price family ("clubcard").
	LoyaltyMarkers []string

	// StrikeMarkers signal a crossed-out original price in fragment text.
	StrikeMarkers []string

	// PriceHints are label words that raise a candidate's specificity
	// when found near the match.
	PriceHints []string

	ValidPrices   PriceRange // acceptable price and original price values
	PercentBounds PriceRange // acceptable percentage-off values
	AmountBounds  PriceRange // acceptable fixed-amount-off values

	// PerUnitThreshold downgrades candidates above it when the context
	// mentions units anywhere: a €33.23 match next to "per kg" text is
	// almost always a per-kilogram price, not an item price.
	PerUnitThreshold float64

	// Families are evaluated strictly in order; see ClassifyPromotion.
	Families []PromotionFamily
}

// DefaultProfile returns a profile with the pattern set shared by all
// supported retailers and no loyalty scheme.
func DefaultProfile(name string) *RetailerProfile {
	p := &RetailerProfile{
		Name:     name,
		Currency: "EUR",
		PerUnitIndicators: []string{
			"/kg", "/100g", "/ml", "/l", "/litre", "/each",
			"per kg", "per 100g", "per litre", "per unit",
			"unit price", "price per", "€/kg",
		},
		StrikeMarkers: []string{"strikethrough", "crossed out", "price-old"},
		PriceHints:    []string{"price", "now", "only"},
		ValidPrices:   PriceRange{Min: 0.01, Max: 1000.00},
		PercentBounds: PriceRange{Min: 0, Max: 90},
		AmountBounds:  PriceRange{Min: 0, Max: 100},

		// Single grocery items above €20 are rare; per-kg prices are not.
		PerUnitThreshold: 20.00,
	}
	p.Families = defaultFamilies()
	return p
}

// TescoProfile matches Tesco Ireland product pages.
func TescoProfile() *RetailerProfile {
	p := DefaultProfile("Tesco")
	p.LoyaltyMarkers = []string{"clubcard", "club card", "tesco club"}
	p.PriceHints = append(p.PriceHints, "pricetext", "value-bar")
	return p
}

// DunnesProfile matches Dunnes Stores product pages.
func DunnesProfile() *RetailerProfile {
	p := DefaultProfile("Dunnes Stores")
	p.LoyaltyMarkers = []string{"valueclub", "value club"}
	return p
}

// SuperValuProfile matches SuperValu product pages.
func SuperValuProfile() *RetailerProfile {
	p := DefaultProfile("SuperValu")
	p.LoyaltyMarkers = []string{"real rewards"}
	return p
}

// AldiProfile matches Aldi Ireland product pages. Aldi runs no loyalty
// scheme, so the membership family never triggers.
func AldiProfile() *RetailerProfile {
	return DefaultProfile("Aldi")
}

// LidlProfile matches Lidl Ireland product pages.
func LidlProfile() *RetailerProfile {
	p := DefaultProfile("Lidl")
	p.LoyaltyMarkers = []string{"lidl plus"}
	return p
}

// ProfileFor returns the profile for a store name, falling back to the
// default pattern set for unknown stores.
func ProfileFor(store string) *RetailerProfile {
	switch strings.ToLower(strings.TrimSpace(store)) {
	case "tesco":
		return TescoProfile()
	case "dunnes stores", "dunnes":
		return DunnesProfile()
	case "supervalu":
		return SuperValuProfile()
	case "aldi":
		return AldiProfile()
	case "lidl":
		return LidlProfile()
	default:
		return DefaultProfile(store)
	}
}

func containsAny(s string, subs []string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}
