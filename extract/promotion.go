package extract

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// PromotionKind enumerates the supported promotion categories.
type PromotionKind string

const (
	MultiBuy          PromotionKind = "multi_buy"
	MembershipPrice   PromotionKind = "membership_price"
	PercentageOff     PromotionKind = "percentage_off"
	FixedAmountOff    PromotionKind = "fixed_amount_off"
	TemporaryDiscount PromotionKind = "temporary_discount"
)

// PromotionMatch is the outcome of a successful family evaluation. Fields a
// handler cannot determine stay nil for the record assembler to fill in.
type PromotionMatch struct {
	Kind          PromotionKind
	Text          string
	DiscountValue *float64
	OriginalPrice *float64
	Quantity      *int
}

// MatchInput carries the normalized inputs through family handlers.
type MatchInput struct {
	Text         string
	Context      string
	Combined     string // Text + " " + Context
	Lower        string // lowercased Combined
	CurrentPrice float64
	Profile      *RetailerProfile
}

// HandlerFunc turns one regex match into a PromotionMatch, or nil when the
// match is noise (implausible quantity, value out of bounds, was-price not
// above the current price).
type HandlerFunc func(groups []string, in MatchInput) *PromotionMatch

// PatternRule pairs a pattern with its handler. Within a family the first
// rule to produce a match wins.
type PatternRule struct {
	Pattern *regexp.Regexp
	Handle  HandlerFunc
}

// PromotionFamily is one category of promotion language. Families sharing a
// Priority form a tier; tiers are evaluated in ascending order and matches
// from the same tier must agree on the original price.
type PromotionFamily struct {
	Kind     PromotionKind
	Priority int
	Trigger  func(in MatchInput) bool // optional gate, e.g. loyalty marker present
	Rules    []PatternRule
}

// ClassifyPromotion evaluates the profile's pattern families against the
// normalized text and context, returning the first tier's match or nil when
// no promotion language is present. currentPrice may be zero when the
// primary price has not been chosen yet; handlers that need it for sanity
// checks then skip those checks.
//
// The ordering is total and deterministic: text matching both a multi-buy
// and a percentage pattern always classifies as multi-buy.
func ClassifyPromotion(text, context string, currentPrice float64, p *RetailerProfile) (*PromotionMatch, error) {
	combined := strings.TrimSpace(text + " " + context)
	in := MatchInput{
		Text:         text,
		Context:      context,
		Combined:     combined,
		Lower:        strings.ToLower(combined),
		CurrentPrice: currentPrice,
		Profile:      p,
	}

	fams := p.Families
	for i := 0; i < len(fams); {
		j := i
		var matches []*PromotionMatch
		for j < len(fams) && fams[j].Priority == fams[i].Priority {
			if m := evaluateFamily(fams[j], in); m != nil {
				matches = append(matches, m)
			}
			j++
		}
		if len(matches) > 0 {
			if conflicting(matches) {
				return nil, fmt.Errorf("%w: tier %d produced conflicting original prices",
					ErrAmbiguousPromotion, fams[i].Priority)
			}
			return matches[0], nil
		}
		i = j
	}
	return nil, nil
}

func evaluateFamily(f PromotionFamily, in MatchInput) *PromotionMatch {
	if f.Trigger != nil && !f.Trigger(in) {
		return nil
	}
	for _, rule := range f.Rules {
		groups := rule.Pattern.FindStringSubmatch(in.Combined)
		if groups == nil {
			continue
		}
		if m := rule.Handle(groups, in); m != nil {
			m.Kind = f.Kind
			return m
		}
	}
	return nil
}

// conflicting reports whether two same-tier matches disagree on the
// original price by more than a cent.
func conflicting(matches []*PromotionMatch) bool {
	var first *float64
	for _, m := range matches {
		if m.OriginalPrice == nil {
			continue
		}
		if first == nil {
			first = m.OriginalPrice
			continue
		}
		if diff := *m.OriginalPrice - *first; diff > 0.01 || diff < -0.01 {
			return true
		}
	}
	return false
}

// Multi-buy quantities outside this range are treated as numeric noise
// (markup dimensions, pack sizes).
const (
	minMultiBuyQty = 2
	maxMultiBuyQty = 5
)

var (
	qtyForPricePattern = regexp.MustCompile(`(?i)\b(?:any\s+|buy\s+)?(\d+)\s+for\s+[€£]\s*(\d+(?:[.,]\d{2})?)`)
	buyGetFreePattern  = regexp.MustCompile(`(?i)\bbuy\s+(\d+)\s*,?\s*get\s+(\d+)\s+free\b`)
	xForYPattern       = regexp.MustCompile(`(?i)\b([2-5])\s+for\s+([2-5])\b`)

	memberPricePattern  = regexp.MustCompile(`(?i)[€£]\s*(\d+[.,]\d{2})`)
	regularPricePattern = regexp.MustCompile(`(?i)(?:was|regular(?:\s+price)?|originally|non[-\s]?members?\s+pay|others\s+pay)\b[^\d]{0,8}(\d+[.,]\d{2})`)

	wasPricePattern  = regexp.MustCompile(`(?i)\bwas\b[^\d]{0,8}(\d+[.,]\d{2})`)
	anyDecimalPrice  = regexp.MustCompile(`(\d+[.,]\d{2})`)
	percentOffLabel  = regexp.MustCompile(`(?i)\b(\d+)\s*%\s*(?:off|discount)\b`)
	savePercent      = regexp.MustCompile(`(?i)\bsave\s+(\d+)\s*%`)
	halfPricePattern = regexp.MustCompile(`(?i)\b(?:better\s+than\s+)?half\s+price\b`)
	saveAmount       = regexp.MustCompile(`(?i)\bsave\s*[€£]?\s*(\d+[.,]\d{2})`)
	amountOff        = regexp.MustCompile(`(?i)[€£]\s*(\d+[.,]\d{2})\s*off\b`)
	savingAmount     = regexp.MustCompile(`(?i)\bsaving\b[^\d]{0,8}(\d+[.,]\d{2})`)
)

// defaultFamilies builds the shared family list. Priorities 1-5 match the
// order retailers present promotions: a multi-buy badge wins over the
// percentage language that often accompanies it.
func defaultFamilies() []PromotionFamily {
	return []PromotionFamily{
		{
			Kind:     MultiBuy,
			Priority: 1,
			Rules: []PatternRule{
				{qtyForPricePattern, handleQtyForPrice},
				{buyGetFreePattern, handleBuyGetFree},
				{xForYPattern, handleXForY},
			},
		},
		{
			Kind:     MembershipPrice,
			Priority: 2,
			Trigger: func(in MatchInput) bool {
				return len(in.Profile.LoyaltyMarkers) > 0 &&
					containsAny(in.Lower, in.Profile.LoyaltyMarkers)
			},
			Rules: []PatternRule{
				{memberPricePattern, handleMembership},
			},
		},
		{
			Kind:     TemporaryDiscount,
			Priority: 3,
			Trigger: func(in MatchInput) bool {
				return strings.Contains(in.Lower, "was") ||
					containsAny(in.Lower, in.Profile.StrikeMarkers)
			},
			Rules: []PatternRule{
				{wasPricePattern, handleWasPrice},
				{anyDecimalPrice, handleStruckPrice},
			},
		},
		{
			Kind:     PercentageOff,
			Priority: 4,
			Rules: []PatternRule{
				{percentOffLabel, handlePercent},
				{savePercent, handlePercent},
				{halfPricePattern, handleHalfPrice},
			},
		},
		{
			Kind:     FixedAmountOff,
			Priority: 5,
			Rules: []PatternRule{
				{saveAmount, handleAmountOff},
				{amountOff, handleAmountOff},
				{savingAmount, handleAmountOff},
			},
		},
	}
}

// handleQtyForPrice covers "3 for €5.00" and "Any 3 for €5". The currency
// symbol is required by the pattern so unrelated "N x M" numeric pairs in
// markup never match.
func handleQtyForPrice(groups []string, in MatchInput) *PromotionMatch {
	qty, err := strconv.Atoi(groups[1])
	if err != nil || qty < minMultiBuyQty || qty > maxMultiBuyQty {
		return nil
	}
	price, err := parseAmount(groups[2])
	if err != nil || price == float64(qty) {
		return nil
	}
	if !in.Profile.ValidPrices.Contains(price) {
		return nil
	}
	return &PromotionMatch{Text: strings.TrimSpace(groups[0]), Quantity: &qty}
}

func handleBuyGetFree(groups []string, in MatchInput) *PromotionMatch {
	buy, err1 := strconv.Atoi(groups[1])
	free, err2 := strconv.Atoi(groups[2])
	if err1 != nil || err2 != nil {
		return nil
	}
	if buy < 1 || buy > maxMultiBuyQty || free < 1 || free > maxMultiBuyQty {
		return nil
	}
	return &PromotionMatch{Text: strings.TrimSpace(groups[0]), Quantity: &buy}
}

// handleXForY covers "3 for 2" style offers: buy three, pay for two.
func handleXForY(groups []string, in MatchInput) *PromotionMatch {
	buy, err1 := strconv.Atoi(groups[1])
	pay, err2 := strconv.Atoi(groups[2])
	if err1 != nil || err2 != nil || pay >= buy {
		return nil
	}
	return &PromotionMatch{Text: strings.TrimSpace(groups[0]), Quantity: &buy}
}

// handleMembership extracts the member price from the fragment text itself
// and scans the context for qualifying regular-price language. The member
// price becomes the record's primary price downstream; only the regular
// price travels on the match.
func handleMembership(_ []string, in MatchInput) *PromotionMatch {
	member := memberPricePattern.FindStringSubmatch(in.Text)
	if member == nil {
		return nil
	}
	memberPrice, err := parseAmount(member[1])
	if err != nil || !in.Profile.ValidPrices.Contains(memberPrice) {
		return nil
	}

	m := &PromotionMatch{Text: loyaltyLabel(in)}
	if reg := regularPricePattern.FindStringSubmatch(in.Context); reg != nil {
		if regular, err := parseAmount(reg[1]); err == nil && regular > memberPrice {
			m.OriginalPrice = &regular
		}
	}
	return m
}

// loyaltyLabel produces the human-readable promotion text, e.g. "Clubcard
// Price" from the "clubcard" marker.
func loyaltyLabel(in MatchInput) string {
	for _, marker := range in.Profile.LoyaltyMarkers {
		if strings.Contains(in.Lower, marker) {
			label := titleWords(marker)
			if !strings.Contains(marker, "price") {
				label += " Price"
			}
			return label
		}
	}
	return "Member Price"
}

func titleWords(s string) string {
	words := strings.Fields(s)
	for i, w := range words {
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	return strings.Join(words, " ")
}

// handleWasPrice requires the was-price to exceed the current price, else
// the match is discarded as noise from unrelated page text.
func handleWasPrice(groups []string, in MatchInput) *PromotionMatch {
	was, err := parseAmount(groups[1])
	if err != nil {
		return nil
	}
	if in.CurrentPrice > 0 && was <= in.CurrentPrice {
		return nil
	}
	m := &PromotionMatch{Text: strings.TrimSpace(groups[0]), OriginalPrice: &was}
	if in.CurrentPrice > 0 {
		d := round2(was - in.CurrentPrice)
		m.DiscountValue = &d
	}
	return m
}

// handleStruckPrice finds an original price marked only by strikethrough
// language, with no "was" keyword to anchor it. Every decimal number in
// the fragment is considered; the first one above the current price wins.
func handleStruckPrice(_ []string, in MatchInput) *PromotionMatch {
	if in.CurrentPrice <= 0 || !containsAny(in.Lower, in.Profile.StrikeMarkers) {
		return nil
	}
	for _, groups := range anyDecimalPrice.FindAllStringSubmatch(in.Combined, -1) {
		was, err := parseAmount(groups[1])
		if err != nil || was <= in.CurrentPrice {
			continue
		}
		if !in.Profile.ValidPrices.Contains(was) {
			continue
		}
		d := round2(was - in.CurrentPrice)
		return &PromotionMatch{
			Text:          fmt.Sprintf("Was %.2f", was),
			OriginalPrice: &was,
			DiscountValue: &d,
		}
	}
	return nil
}

func handlePercent(groups []string, in MatchInput) *PromotionMatch {
	pct, err := strconv.ParseFloat(groups[1], 64)
	if err != nil {
		return nil
	}
	b := in.Profile.PercentBounds
	if pct <= b.Min || pct > b.Max {
		return nil
	}
	return &PromotionMatch{Text: strings.TrimSpace(groups[0]), DiscountValue: &pct}
}

func handleHalfPrice(groups []string, in MatchInput) *PromotionMatch {
	half := 50.0
	return &PromotionMatch{Text: strings.TrimSpace(groups[0]), DiscountValue: &half}
}

func handleAmountOff(groups []string, in MatchInput) *PromotionMatch {
	amount, err := parseAmount(groups[1])
	if err != nil {
		return nil
	}
	b := in.Profile.AmountBounds
	if amount <= b.Min || amount >= b.Max {
		return nil
	}
	return &PromotionMatch{Text: strings.TrimSpace(groups[0]), DiscountValue: &amount}
}
