package scraper

import (
	"fmt"
	"regexp"

	"pricer/extract"
)

// Retailer describes how to locate price fragments on one grocery chain's
// product pages. The extraction semantics themselves live in the profile;
// this only knows where to look.
type Retailer struct {
	Name             string
	URLPatterns      []*regexp.Regexp
	ProductIDPattern *regexp.Regexp

	// PriceSelectors locate elements whose text should contain the price
	PriceSelectors []string

	// PromoSelectors locate promotion badges and strikethrough prices
	PromoSelectors []string

	Profile *extract.RetailerProfile
}

var retailers = []*Retailer{
	{
		Name: "Tesco",
		URLPatterns: []*regexp.Regexp{
			regexp.MustCompile(`^https://www\.tesco\.(?:com|ie)/groceries/en-(?:GB|IE)/products/`),
		},
		ProductIDPattern: regexp.MustCompile(`/products/(\d+)`),
		PriceSelectors: []string{
			`[class*="ddsweb-price__container"]`,
			`[class*="ddsweb-price"]`,
			`[data-auto="price-value"]`,
			`.price-per-sellable-unit .value`,
		},
		PromoSelectors: []string{
			`[class*="ddsweb-value-bar"]`,
			`[class*="offer-text"]`,
			`[data-auto="promotion-message"]`,
		},
		Profile: extract.TescoProfile(),
	},
	{
		Name: "Dunnes Stores",
		URLPatterns: []*regexp.Regexp{
			regexp.MustCompile(`^https://www\.dunnesstores(?:grocery)?\.com/`),
		},
		ProductIDPattern: regexp.MustCompile(`/product/([a-z0-9-]+)`),
		PriceSelectors: []string{
			`[class*="ProductCardPrice"]`,
			`.product-details__price`,
			`[data-testid="price"]`,
		},
		PromoSelectors: []string{
			`[class*="ProductCardOffer"]`,
			`.product-details__offer`,
			`[class*="badge"]`,
		},
		Profile: extract.DunnesProfile(),
	},
	{
		Name: "SuperValu",
		URLPatterns: []*regexp.Regexp{
			regexp.MustCompile(`^https://shop\.supervalu\.ie/`),
		},
		ProductIDPattern: regexp.MustCompile(`/product/(\d+)`),
		PriceSelectors: []string{
			`[class*="ProductPrice"]`,
			`.product-price`,
			`[data-testid="productPrice"]`,
		},
		PromoSelectors: []string{
			`[class*="PromotionBadge"]`,
			`.product-offer`,
		},
		Profile: extract.SuperValuProfile(),
	},
	{
		Name: "Aldi",
		URLPatterns: []*regexp.Regexp{
			regexp.MustCompile(`^https://groceries\.aldi\.ie/`),
			regexp.MustCompile(`^https://www\.aldi\.ie/`),
		},
		ProductIDPattern: regexp.MustCompile(`/product/([a-z0-9-]+)`),
		PriceSelectors: []string{
			`.base-price__regular`,
			`[class*="product-price"]`,
			`[data-qa="product-price"]`,
		},
		PromoSelectors: []string{
			`.base-price__was`,
			`[class*="price-reduction"]`,
		},
		Profile: extract.AldiProfile(),
	},
	{
		Name: "Lidl",
		URLPatterns: []*regexp.Regexp{
			regexp.MustCompile(`^https://www\.lidl\.ie/`),
		},
		ProductIDPattern: regexp.MustCompile(`/p(\d+)`),
		PriceSelectors: []string{
			`[class*="m-price__price"]`,
			`.pricebox__price`,
		},
		PromoSelectors: []string{
			`[class*="m-price__label"]`,
			`.pricebox__highlight`,
		},
		Profile: extract.LidlProfile(),
	},
}

// RetailerForURL returns the retailer whose URL patterns match, or an error
// for unsupported URLs
func RetailerForURL(url string) (*Retailer, error) {
	for _, r := range retailers {
		for _, pattern := range r.URLPatterns {
			if pattern.MatchString(url) {
				return r, nil
			}
		}
	}
	return nil, fmt.Errorf("no supported retailer for URL: %s", url)
}

// RetailerByName returns a retailer by its display name
func RetailerByName(name string) (*Retailer, error) {
	for _, r := range retailers {
		if r.Name == name {
			return r, nil
		}
	}
	return nil, fmt.Errorf("unknown retailer: %s", name)
}

// SupportedRetailers lists the names of all configured retailers
func SupportedRetailers() []string {
	names := make([]string, 0, len(retailers))
	for _, r := range retailers {
		names = append(names, r.Name)
	}
	return names
}

// ExtractProductID pulls the retailer-specific product identifier from a URL
func (r *Retailer) ExtractProductID(url string) (string, error) {
	m := r.ProductIDPattern.FindStringSubmatch(url)
	if m == nil {
		return "", fmt.Errorf("no product ID in URL: %s", url)
	}
	return m[1], nil
}
