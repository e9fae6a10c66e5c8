package extract

import (
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"
)

// PriceCandidate is one price-like token found in a text fragment.
type PriceCandidate struct {
	Raw         string  // matched substring, e.g. "€3.49"
	Value       float64 // parsed numeric value
	PerUnit     bool    // true when a per-unit indicator sits inside the window
	Specificity int     // higher means more likely to be the product price
}

// Specificity levels. A currency-qualified match outranks a bare number;
// a price-label hint near the match adds one.
const (
	specBare   = 0
	specSymbol = 2
	hintBonus  = 1
)

// Window of characters inspected either side of a match for per-unit
// indicators and label hints. The window never crosses a neighboring
// price match, so "/kg" after "€1.99" in "€4.50 (€1.99/kg)" binds to
// 1.99 only.
const matchWindow = 24

var (
	symbolPrefixPattern = regexp.MustCompile(`[€£$]\s*(\d{1,4}[.,]\d{2})`)
	symbolSuffixPattern = regexp.MustCompile(`(\d{1,4}[.,]\d{2})\s*[€£$]`)
	bareNumberPattern   = regexp.MustCompile(`\d{1,4}[.,]\d{2}`)
)

// parseAmount converts a matched numeric string to a float after
// normalizing the decimal separator.
func parseAmount(s string) (float64, error) {
	s = strings.ReplaceAll(strings.TrimSpace(s), ",", ".")
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrInvalidNumericFormat, s)
	}
	return v, nil
}

type rawMatch struct {
	start, end  int
	value       float64
	specificity int
}

// ExtractCandidates finds price-like tokens in text, ranked highest
// specificity first with lower values winning ties. Both inputs must
// already be normalized. Candidates come from the text only; the context
// contributes per-unit and label signals.
//
// The ascending tie-break is deliberate: when a fragment carries two
// equally specific prices, the lower one is usually the promotional or
// member price the page is actually charging.
func ExtractCandidates(text, context string, p *RetailerProfile) []PriceCandidate {
	var matches []rawMatch
	var covered [][2]int

	add := func(loc []int, numStr string, spec int) {
		value, err := parseAmount(numStr)
		if err != nil {
			return
		}
		if !p.ValidPrices.Contains(value) {
			return
		}
		matches = append(matches, rawMatch{loc[0], loc[1], value, spec})
		covered = append(covered, [2]int{loc[0], loc[1]})
	}

	for _, loc := range symbolPrefixPattern.FindAllStringSubmatchIndex(text, -1) {
		add(loc[0:2], text[loc[2]:loc[3]], specSymbol)
	}
	for _, loc := range symbolSuffixPattern.FindAllStringSubmatchIndex(text, -1) {
		if overlaps(covered, loc[0], loc[1]) {
			continue
		}
		add(loc[0:2], text[loc[2]:loc[3]], specSymbol)
	}
	for _, loc := range bareNumberPattern.FindAllStringIndex(text, -1) {
		if overlaps(covered, loc[0], loc[1]) {
			continue
		}
		add(loc, text[loc[0]:loc[1]], specBare)
	}

	sort.Slice(matches, func(i, j int) bool { return matches[i].start < matches[j].start })

	lowerContext := strings.ToLower(context)
	candidates := make([]PriceCandidate, 0, len(matches))
	for i, m := range matches {
		raw := text[m.start:m.end]
		c := PriceCandidate{Raw: raw, Value: m.value, Specificity: m.specificity}

		window := strings.ToLower(clippedWindow(text, matches, i))
		ctxWindow := strings.ToLower(contextWindow(context, raw))

		if containsAny(window, p.PerUnitIndicators) || containsAny(ctxWindow, p.PerUnitIndicators) {
			c.PerUnit = true
		}

		// Values far above normal item prices next to any unit language
		// are treated as per-unit rather than silently accepted.
		if m.value > p.PerUnitThreshold && containsAny(lowerContext, p.PerUnitIndicators) {
			c.PerUnit = true
		}

		if containsAny(window, p.PriceHints) || containsAny(ctxWindow, p.PriceHints) {
			c.Specificity += hintBonus
		}
		candidates = append(candidates, c)
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		if candidates[i].Specificity != candidates[j].Specificity {
			return candidates[i].Specificity > candidates[j].Specificity
		}
		return candidates[i].Value < candidates[j].Value
	})
	return candidates
}

// clippedWindow returns the text around match i, extending at most
// matchWindow characters each side and never into a neighboring match.
func clippedWindow(text string, matches []rawMatch, i int) string {
	lo := matches[i].start - matchWindow
	if lo < 0 {
		lo = 0
	}
	if i > 0 && matches[i-1].end > lo {
		lo = matches[i-1].end
	}
	hi := matches[i].end + matchWindow
	if hi > len(text) {
		hi = len(text)
	}
	if i < len(matches)-1 && matches[i+1].start < hi {
		hi = matches[i+1].start
	}
	return text[lo:hi]
}

// contextWindow finds raw inside the context and returns the window around
// it, or empty when the context does not repeat the match.
func contextWindow(context, raw string) string {
	idx := strings.Index(context, raw)
	if idx < 0 {
		return ""
	}
	lo := idx - matchWindow
	if lo < 0 {
		lo = 0
	}
	hi := idx + len(raw) + matchWindow
	if hi > len(context) {
		hi = len(context)
	}
	return context[lo:hi]
}

func overlaps(covered [][2]int, start, end int) bool {
	for _, c := range covered {
		if start < c[1] && end > c[0] {
			return true
		}
	}
	return false
}
