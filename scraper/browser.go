package scraper

import (
	"errors"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"

	"pricer/config"
	"pricer/extract"
)

const maxScrapeAttempts = 3

// ProductScraper drives a headless browser over retailer product pages and
// runs price extraction on the fragments it collects
type ProductScraper struct {
	browser  *rod.Browser
	detector *BotDetector

	pageLoadWait time.Duration
	timeout      time.Duration
}

// NewProductScraper launches the browser. Uses system Chromium in Docker,
// auto-detects locally.
func NewProductScraper(cfg *config.Config) (*ProductScraper, error) {
	l := launcher.New().
		Headless(cfg.Headless).
		NoSandbox(true).
		Leakless(false)

	if _, err := os.Stat("/usr/bin/chromium-browser"); err == nil {
		l = l.Bin("/usr/bin/chromium-browser")
		log.Printf("Using system Chromium in Docker environment")
	} else {
		log.Printf("Using auto-detected Chromium (local environment)")
	}

	url, err := l.Launch()
	if err != nil {
		return nil, fmt.Errorf("failed to launch browser: %v", err)
	}

	browser := rod.New().ControlURL(url)
	if err := browser.Connect(); err != nil {
		return nil, fmt.Errorf("failed to connect to browser: %v", err)
	}

	return &ProductScraper{
		browser:      browser,
		detector:     NewBotDetector(),
		pageLoadWait: cfg.PageLoadWait,
		timeout:      cfg.ScrapeTimeout,
	}, nil
}

// Close shuts the browser down
func (ps *ProductScraper) Close() {
	if ps.browser != nil {
		ps.browser.MustClose()
	}
}

// ScrapeProduct loads one product page and extracts its price record.
// Transient failures (bot walls, slow pages) are retried with backoff;
// extraction failures are not, since the page content will not change.
func (ps *ProductScraper) ScrapeProduct(url string) (*extract.PriceRecord, error) {
	retailer, err := RetailerForURL(url)
	if err != nil {
		return nil, err
	}

	var lastErr error
	for attempt := 1; attempt <= maxScrapeAttempts; attempt++ {
		rec, err := ps.scrapeOnce(retailer, url)
		if err == nil {
			return rec, nil
		}
		lastErr = err

		if isExtractionError(err) {
			return nil, err
		}

		if attempt < maxScrapeAttempts {
			delay := time.Duration(attempt) * 5 * time.Second
			log.Printf("Scrape attempt %d/%d failed for %s: %v (retrying in %v)",
				attempt, maxScrapeAttempts, url, err, delay)
			time.Sleep(delay)
		}
	}

	return nil, fmt.Errorf("all %d attempts failed for %s: %v", maxScrapeAttempts, url, lastErr)
}

func isExtractionError(err error) bool {
	return errors.Is(err, extract.ErrNoPriceFound) ||
		errors.Is(err, extract.ErrPriceOutOfRange) ||
		errors.Is(err, extract.ErrAmbiguousPromotion) ||
		errors.Is(err, extract.ErrInvalidNumericFormat)
}

func (ps *ProductScraper) scrapeOnce(retailer *Retailer, url string) (*extract.PriceRecord, error) {
	var page *rod.Page
	trapErr := rod.Try(func() {
		page = ps.browser.MustPage()
		page.MustSetViewport(1920, 1080, 1.0, false)
		applyStealth(page)
		page.Timeout(ps.timeout).MustNavigate(url).MustWaitLoad()
	})
	if page != nil {
		defer page.MustClose()
	}
	if trapErr != nil {
		return nil, fmt.Errorf("failed to load page: %v", trapErr)
	}

	// Retailer pages render prices client-side after load
	time.Sleep(ps.pageLoadWait)

	body, title := pageText(page)
	if blocked, reason, _ := ps.detector.DetectBotWall(body, title); blocked {
		return nil, fmt.Errorf("bot wall detected: %s", reason)
	}

	promoContext := ps.collectText(page, retailer.PromoSelectors)

	var lastErr error = fmt.Errorf("%w: no price fragments on page", extract.ErrNoPriceFound)
	for _, selector := range retailer.PriceSelectors {
		elements, err := page.Elements(selector)
		if err != nil {
			continue
		}
		for _, element := range elements {
			text, err := element.Text()
			if err != nil || strings.TrimSpace(text) == "" {
				continue
			}
			context := elementContext(element)
			if promoContext != "" {
				context = context + " " + promoContext
			}

			rec, err := extract.Extract(text, context, retailer.Profile)
			if err != nil {
				lastErr = err
				continue
			}
			return rec, nil
		}
	}

	return nil, lastErr
}

// collectText joins the text of all elements matching the given selectors
func (ps *ProductScraper) collectText(page *rod.Page, selectors []string) string {
	var parts []string
	for _, selector := range selectors {
		elements, err := page.Elements(selector)
		if err != nil {
			continue
		}
		for _, element := range elements {
			if text, err := element.Text(); err == nil && strings.TrimSpace(text) != "" {
				parts = append(parts, strings.TrimSpace(text))
			}
		}
	}
	return strings.Join(parts, " ")
}

// elementContext gets the surrounding context of an element
func elementContext(element *rod.Element) string {
	parent, err := element.Parent()
	if err == nil {
		if parentText, err := parent.Text(); err == nil {
			if len(parentText) > 300 {
				parentText = parentText[:300]
			}
			return parentText
		}
	}

	text, err := element.Text()
	if err == nil {
		return text
	}
	return ""
}

func pageText(page *rod.Page) (body, title string) {
	_ = rod.Try(func() {
		title = page.MustInfo().Title
		body = page.MustElement("body").MustText()
	})
	return body, title
}

// applyStealth masks the common headless-browser fingerprints retailer
// sites check before serving prices
func applyStealth(page *rod.Page) {
	page.MustEvalOnNewDocument(`
		Object.defineProperty(navigator, 'userAgent', {
			get: function () { return 'Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36'; }
		});

		Object.defineProperty(navigator, 'webdriver', {
			get: () => undefined,
		});

		Object.defineProperty(navigator, 'plugins', {
			get: () => [1, 2, 3, 4, 5],
		});

		Object.defineProperty(navigator, 'languages', {
			get: () => ['en-IE', 'en'],
		});

		Object.defineProperty(navigator, 'platform', {
			get: () => 'Win32',
		});

		window.chrome = {
			runtime: {},
		};

		const originalQuery = window.navigator.permissions.query;
		window.navigator.permissions.query = (parameters) => (
			parameters.name === 'notifications' ?
				Promise.resolve({ state: Notification.permission }) :
				originalQuery(parameters)
		);
	`)
}
