package scraper

import (
	"regexp"
	"strings"
)

// BotDetector recognizes bot walls, CAPTCHAs and consent interstitials on
// retailer pages so a blocked load is retried instead of being mistaken
// for a page without a price
type BotDetector struct {
	botPatterns     []*regexp.Regexp
	captchaPatterns []*regexp.Regexp
	blockPatterns   []*regexp.Regexp
}

// NewBotDetector creates a new bot detector
func NewBotDetector() *BotDetector {
	return &BotDetector{
		botPatterns: []*regexp.Regexp{
			regexp.MustCompile(`(?i)access denied`),
			regexp.MustCompile(`(?i)bot detected`),
			regexp.MustCompile(`(?i)please verify you are human`),
			regexp.MustCompile(`(?i)security check`),
			regexp.MustCompile(`(?i)checking your browser`),
			regexp.MustCompile(`(?i)cloudflare`),
			regexp.MustCompile(`(?i)akamai`),
			regexp.MustCompile(`(?i)imperva`),
			regexp.MustCompile(`(?i)pardon our interruption`),
			regexp.MustCompile(`(?i)unusual traffic`),
			regexp.MustCompile(`(?i)rate limit`),
			regexp.MustCompile(`(?i)too many requests`),
		},
		captchaPatterns: []*regexp.Regexp{
			regexp.MustCompile(`(?i)captcha`),
			regexp.MustCompile(`(?i)recaptcha`),
			regexp.MustCompile(`(?i)hcaptcha`),
			regexp.MustCompile(`(?i)turnstile`),
			regexp.MustCompile(`(?i)select all images`),
			regexp.MustCompile(`(?i)click the checkbox`),
		},
		blockPatterns: []*regexp.Regexp{
			regexp.MustCompile(`(?i)403 forbidden`),
			regexp.MustCompile(`(?i)429 too many requests`),
			regexp.MustCompile(`(?i)503 service unavailable`),
			regexp.MustCompile(`(?i)site temporarily unavailable`),
			regexp.MustCompile(`(?i)we'll be back soon`),
			regexp.MustCompile(`(?i)scheduled maintenance`),
		},
	}
}

// DetectBotWall checks whether the page content indicates a blocked load.
// It returns a confidence score so borderline pages can still be attempted.
func (bd *BotDetector) DetectBotWall(pageContent, pageTitle string) (bool, string, float64) {
	content := strings.ToLower(pageContent + " " + pageTitle)

	score := 0.0
	var reasons []string

	for _, pattern := range bd.botPatterns {
		if pattern.MatchString(content) {
			score += 0.3
			reasons = append(reasons, pattern.String())
		}
	}

	// CAPTCHAs are a hard block, weight them higher
	for _, pattern := range bd.captchaPatterns {
		if pattern.MatchString(content) {
			score += 0.5
			reasons = append(reasons, "CAPTCHA: "+pattern.String())
		}
	}

	for _, pattern := range bd.blockPatterns {
		if pattern.MatchString(content) {
			score += 0.4
			reasons = append(reasons, "HTTP error page: "+pattern.String())
		}
	}

	// Bot walls are short pages; a real product page has thousands of
	// characters of body text
	if len(content) < 1000 && score > 0 {
		score += 0.2
		reasons = append(reasons, "very short content with block indicators")
	}

	if score > 1.0 {
		score = 1.0
	}

	return score > 0.3, strings.Join(reasons, "; "), score
}

// DetectCaptcha specifically checks for CAPTCHA challenges
func (bd *BotDetector) DetectCaptcha(pageContent, pageTitle string) (bool, string) {
	content := strings.ToLower(pageContent + " " + pageTitle)

	for _, pattern := range bd.captchaPatterns {
		if pattern.MatchString(content) {
			return true, "CAPTCHA: " + pattern.String()
		}
	}

	return false, ""
}
