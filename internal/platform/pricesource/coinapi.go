// Package pricesource implements the external rate source capability
// against the CoinAPI exchange-rate endpoint.
package pricesource

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"github.com/crypto-wallet-ledger/internal/config"
	"github.com/crypto-wallet-ledger/internal/domain/pricing"
)

// CoinAPIClient fetches the full rate table for a base currency in a single
// call: GET {base_url}/{base}?apikey={key}. Rates come back quoted as
// "symbol units per one unit of base"; inversion is the cache's job.
type CoinAPIClient struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	logger     *slog.Logger
}

// NewCoinAPIClient creates a CoinAPI rate source from configuration.
func NewCoinAPIClient(logger *slog.Logger, cfg *config.CoinAPIConfig) *CoinAPIClient {
	return &CoinAPIClient{
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:     cfg.APIKey,
		httpClient: &http.Client{Timeout: cfg.Timeout},
		logger:     logger,
	}
}

// exchangeRatesResponse mirrors the CoinAPI payload. Each rate is decoded
// as raw JSON so one malformed value cannot fail the whole response.
type exchangeRatesResponse struct {
	AssetIDBase string `json:"asset_id_base"`
	Rates       []struct {
		AssetIDQuote string          `json:"asset_id_quote"`
		Rate         json.RawMessage `json:"rate"`
	} `json:"rates"`
}

// FetchRates requests every rate CoinAPI quotes against the base currency.
func (c *CoinAPIClient) FetchRates(ctx context.Context, base string) ([]pricing.RawRate, error) {
	endpoint := fmt.Sprintf("%s/%s?apikey=%s", c.baseURL, strings.ToUpper(base), url.QueryEscape(c.apiKey))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("creating rates request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetching rates: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("rate source returned status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var payload exchangeRatesResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("decoding rates response: %w", err)
	}

	rates := make([]pricing.RawRate, 0, len(payload.Rates))
	for _, entry := range payload.Rates {
		// Quoted values pass through as their bare text; whether the text
		// is numeric is decided per entry downstream.
		value := strings.Trim(strings.TrimSpace(string(entry.Rate)), `"`)
		rates = append(rates, pricing.RawRate{
			Symbol: strings.ToUpper(entry.AssetIDQuote),
			Rate:   json.Number(value),
		})
	}

	c.logger.Debug("Fetched rates from CoinAPI", "base", base, "count", len(rates))

	return rates, nil
}
