package services

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pricer/config"
	"pricer/models"
)

func newTestClient(t *testing.T, handler http.Handler, dryRun bool) (*MarketClient, *httptest.Server) {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	client := NewMarketClient(&config.Config{
		MarketBaseURL: server.URL,
		DryRun:        dryRun,
	})
	return client, server
}

func TestLogin(t *testing.T) {
	t.Run("stores bearer token for later requests", func(t *testing.T) {
		mux := http.NewServeMux()
		mux.HandleFunc("/api/token", func(w http.ResponseWriter, r *http.Request) {
			require.NoError(t, r.ParseForm())
			assert.Equal(t, "bot@example.com", r.FormValue("username"))
			assert.Equal(t, "secret", r.FormValue("password"))
			w.Header().Set("Content-Type", "application/json")
			json.NewEncoder(w).Encode(map[string]string{"access_token": "tok123", "token_type": "bearer"})
		})

		var gotAuth string
		mux.HandleFunc("/api/product-aliases/pending", func(w http.ResponseWriter, r *http.Request) {
			gotAuth = r.Header.Get("Authorization")
			w.Write([]byte(`[]`))
		})

		client, _ := newTestClient(t, mux, false)
		require.NoError(t, client.Login(context.Background(), "bot@example.com", "secret"))

		_, err := client.GetPendingAliases(context.Background(), "")
		require.NoError(t, err)
		assert.Equal(t, "Bearer tok123", gotAuth)
	})

	t.Run("rejects bad credentials", func(t *testing.T) {
		mux := http.NewServeMux()
		mux.HandleFunc("/api/token", func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, "bad credentials", http.StatusUnauthorized)
		})

		client, _ := newTestClient(t, mux, false)
		assert.Error(t, client.Login(context.Background(), "bot@example.com", "wrong"))
	})

	t.Run("rejects empty token", func(t *testing.T) {
		mux := http.NewServeMux()
		mux.HandleFunc("/api/token", func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`{}`))
		})

		client, _ := newTestClient(t, mux, false)
		assert.Error(t, client.Login(context.Background(), "bot@example.com", "secret"))
	})
}

func TestGetPendingAliases(t *testing.T) {
	aliases := []models.ProductAlias{
		{ID: 1, ProductID: 10, StoreID: 3, StoreName: "Tesco", Name: "Milk 2L", URL: "https://www.tesco.ie/groceries/en-IE/products/255501985"},
		{ID: 2, ProductID: 11, StoreID: 4, StoreName: "Aldi", Name: "Butter", URL: "https://groceries.aldi.ie/en-GB/product/irish-butter"},
	}

	t.Run("bare array response", func(t *testing.T) {
		mux := http.NewServeMux()
		mux.HandleFunc("/api/product-aliases/pending", func(w http.ResponseWriter, r *http.Request) {
			json.NewEncoder(w).Encode(aliases)
		})

		client, _ := newTestClient(t, mux, false)
		got, err := client.GetPendingAliases(context.Background(), "")
		require.NoError(t, err)
		assert.Equal(t, aliases, got)
	})

	t.Run("wrapped object response", func(t *testing.T) {
		mux := http.NewServeMux()
		mux.HandleFunc("/api/product-aliases/pending", func(w http.ResponseWriter, r *http.Request) {
			json.NewEncoder(w).Encode(map[string]interface{}{"aliases": aliases})
		})

		client, _ := newTestClient(t, mux, false)
		got, err := client.GetPendingAliases(context.Background(), "")
		require.NoError(t, err)
		assert.Equal(t, aliases, got)
	})

	t.Run("store filter is forwarded", func(t *testing.T) {
		var gotStore string
		mux := http.NewServeMux()
		mux.HandleFunc("/api/product-aliases/pending", func(w http.ResponseWriter, r *http.Request) {
			gotStore = r.URL.Query().Get("store_name")
			w.Write([]byte(`[]`))
		})

		client, _ := newTestClient(t, mux, false)
		_, err := client.GetPendingAliases(context.Background(), "Tesco")
		require.NoError(t, err)
		assert.Equal(t, "Tesco", gotStore)
	})
}

func TestGetAliases(t *testing.T) {
	aliases := []models.ProductAlias{
		{ID: 1, ProductID: 10, StoreID: 3, StoreName: "Tesco", Name: "Milk 2L", URL: "https://www.tesco.ie/groceries/en-IE/products/255501985"},
	}

	t.Run("fetches the full alias list", func(t *testing.T) {
		var gotPath string
		mux := http.NewServeMux()
		mux.HandleFunc("/api/product-aliases/", func(w http.ResponseWriter, r *http.Request) {
			gotPath = r.URL.Path
			json.NewEncoder(w).Encode(aliases)
		})

		client, _ := newTestClient(t, mux, false)
		got, err := client.GetAliases(context.Background(), "")
		require.NoError(t, err)
		assert.Equal(t, "/api/product-aliases/", gotPath)
		assert.Equal(t, aliases, got)
	})

	t.Run("store filter is forwarded", func(t *testing.T) {
		var gotStore string
		mux := http.NewServeMux()
		mux.HandleFunc("/api/product-aliases/", func(w http.ResponseWriter, r *http.Request) {
			gotStore = r.URL.Query().Get("store_name")
			w.Write([]byte(`[]`))
		})

		client, _ := newTestClient(t, mux, false)
		_, err := client.GetAliases(context.Background(), "Dunnes")
		require.NoError(t, err)
		assert.Equal(t, "Dunnes", gotStore)
	})
}

func TestSubmitPrice(t *testing.T) {
	orig := 3.00
	sub := &models.PriceSubmission{
		ProductID:     10,
		StoreID:       3,
		Price:         2.00,
		Currency:      "EUR",
		OriginalPrice: &orig,
		PromotionType: "membership_price",
		PromotionText: "Clubcard Price",
	}

	t.Run("posts the payload", func(t *testing.T) {
		var got models.PriceSubmission
		mux := http.NewServeMux()
		mux.HandleFunc("/api/community-prices/submit-scraped", func(w http.ResponseWriter, r *http.Request) {
			require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
			w.WriteHeader(http.StatusCreated)
		})

		client, _ := newTestClient(t, mux, false)
		require.NoError(t, client.SubmitPrice(context.Background(), sub))
		assert.Equal(t, 2.00, got.Price)
		assert.Equal(t, "membership_price", got.PromotionType)
		require.NotNil(t, got.OriginalPrice)
		assert.Equal(t, 3.00, *got.OriginalPrice)
	})

	t.Run("dry run never hits the API", func(t *testing.T) {
		called := false
		mux := http.NewServeMux()
		mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
			called = true
		})

		client, _ := newTestClient(t, mux, true)
		require.NoError(t, client.SubmitPrice(context.Background(), sub))
		assert.False(t, called)
	})
}

func TestUpdateAliasStatus(t *testing.T) {
	var got models.StatusUpdate
	mux := http.NewServeMux()
	mux.HandleFunc("/api/product-aliases/7/status", func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.WriteHeader(http.StatusOK)
	})

	client, _ := newTestClient(t, mux, false)
	err := client.UpdateAliasStatus(context.Background(), models.StatusUpdate{
		AliasID: 7,
		Status:  "skipped",
		Error:   "no price found",
	})
	require.NoError(t, err)
	assert.Equal(t, 7, got.AliasID)
	assert.Equal(t, "skipped", got.Status)
}
