package services

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/go-resty/resty/v2"

	"pricer/config"
	"pricer/models"
)

// MarketClient talks to the MasterMarket API: it fetches the product
// aliases to scrape and uploads the extracted prices. In dry-run mode
// uploads are logged instead of sent.
type MarketClient struct {
	client *resty.Client
	dryRun bool
}

func NewMarketClient(cfg *config.Config) *MarketClient {
	client := resty.New().
		SetBaseURL(cfg.MarketBaseURL).
		SetTimeout(30 * time.Second).
		SetRetryCount(3).
		SetRetryWaitTime(2 * time.Second).
		SetRetryMaxWaitTime(20 * time.Second).
		AddRetryCondition(func(r *resty.Response, err error) bool {
			if err != nil {
				return true
			}
			return r.StatusCode() == http.StatusTooManyRequests || r.StatusCode() >= 500
		})

	return &MarketClient{
		client: client,
		dryRun: cfg.DryRun,
	}
}

type tokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
}

// Login authenticates with the API and stores the bearer token for all
// subsequent requests
func (m *MarketClient) Login(ctx context.Context, email, password string) error {
	var token tokenResponse
	resp, err := m.client.R().
		SetContext(ctx).
		SetFormData(map[string]string{
			"username": email,
			"password": password,
		}).
		SetResult(&token).
		Post("/api/token")

	if err != nil {
		return fmt.Errorf("login request failed: %v", err)
	}
	if resp.IsError() {
		return fmt.Errorf("login failed with status %d", resp.StatusCode())
	}
	if token.AccessToken == "" {
		return fmt.Errorf("login response contained no access token")
	}

	m.client.SetAuthToken(token.AccessToken)
	log.Println("Successfully authenticated with market API")
	return nil
}

// GetAliases returns every product alias registered for scraping,
// optionally filtered to one store
func (m *MarketClient) GetAliases(ctx context.Context, storeName string) ([]models.ProductAlias, error) {
	return m.fetchAliases(ctx, "/api/product-aliases/", storeName)
}

// GetPendingAliases returns only the aliases whose last scrape failed or
// has not happened yet, used by retry runs
func (m *MarketClient) GetPendingAliases(ctx context.Context, storeName string) ([]models.ProductAlias, error) {
	return m.fetchAliases(ctx, "/api/product-aliases/pending", storeName)
}

// fetchAliases performs either alias fetch. The endpoints have returned
// both a bare array and an object wrapping one, so both shapes are
// accepted.
func (m *MarketClient) fetchAliases(ctx context.Context, path, storeName string) ([]models.ProductAlias, error) {
	req := m.client.R().SetContext(ctx)
	if storeName != "" {
		req.SetQueryParam("store_name", storeName)
	}

	resp, err := req.Get(path)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch aliases: %v", err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("alias request failed with status %d", resp.StatusCode())
	}

	return decodeAliases(resp.Body())
}

func decodeAliases(body []byte) ([]models.ProductAlias, error) {
	var aliases []models.ProductAlias
	if err := json.Unmarshal(body, &aliases); err == nil {
		return aliases, nil
	}

	var wrapped struct {
		Aliases []models.ProductAlias `json:"aliases"`
	}
	if err := json.Unmarshal(body, &wrapped); err != nil {
		return nil, fmt.Errorf("failed to decode aliases response: %v", err)
	}
	return wrapped.Aliases, nil
}

// SubmitPrice uploads one scraped price
func (m *MarketClient) SubmitPrice(ctx context.Context, sub *models.PriceSubmission) error {
	if m.dryRun {
		log.Printf("[dry-run] would submit price %.2f %s for product %d (promotion: %q)",
			sub.Price, sub.Currency, sub.ProductID, sub.PromotionType)
		return nil
	}

	resp, err := m.client.R().
		SetContext(ctx).
		SetBody(sub).
		Post("/api/community-prices/submit-scraped")

	if err != nil {
		return fmt.Errorf("failed to submit price: %v", err)
	}
	if resp.IsError() {
		return fmt.Errorf("price submission failed with status %d: %s", resp.StatusCode(), resp.String())
	}

	return nil
}

// UpdateAliasStatus reports the scrape outcome for one alias
func (m *MarketClient) UpdateAliasStatus(ctx context.Context, upd models.StatusUpdate) error {
	if m.dryRun {
		log.Printf("[dry-run] would mark alias %d as %s", upd.AliasID, upd.Status)
		return nil
	}

	resp, err := m.client.R().
		SetContext(ctx).
		SetBody(upd).
		Post(fmt.Sprintf("/api/product-aliases/%d/status", upd.AliasID))

	if err != nil {
		return fmt.Errorf("failed to update alias status: %v", err)
	}
	if resp.IsError() {
		return fmt.Errorf("status update failed with status %d", resp.StatusCode())
	}

	return nil
}
