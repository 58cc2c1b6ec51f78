// Package market fetches and caches upstream market data for the token.
package market

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/bonkai/bonkai/internal/config"
	"github.com/bonkai/bonkai/internal/models"
)

// Client fetches market snapshots from the upstream price API
// (CoinGecko simple/price shape).
type Client struct {
	priceURL string
	tokenID  string
	currency string
	timeout  time.Duration

	httpClient *http.Client
}

// NewClient creates a market client from config.
func NewClient(cfg *config.MarketConfig) *Client {
	return &Client{
		priceURL:   cfg.PriceURL,
		tokenID:    cfg.TokenID,
		currency:   cfg.Currency,
		timeout:    time.Duration(cfg.FetchTimeoutSeconds) * time.Second,
		httpClient: &http.Client{},
	}
}

// Fetch retrieves the current snapshot and normalizes it field by field.
// The request is bounded by the configured timeout via context cancellation.
func (c *Client) Fetch(ctx context.Context) (*models.TokenStats, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	q := url.Values{}
	q.Set("ids", c.tokenID)
	q.Set("vs_currencies", c.currency)
	q.Set("include_market_cap", "true")
	q.Set("include_24hr_vol", "true")
	q.Set("include_24hr_change", "true")
	q.Set("include_last_updated_at", "true")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.priceURL+"?"+q.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build price request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("price fetch failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("price fetch: status %d", resp.StatusCode)
	}

	var payload map[string]map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("failed to decode price response: %w", err)
	}

	fields, ok := payload[c.tokenID]
	if !ok {
		return nil, fmt.Errorf("price response missing token %q", c.tokenID)
	}

	return Normalize(fields, c.currency), nil
}

// Normalize converts a raw upstream field map into TokenStats. Each numeric
// field goes through SafeFloat so absent or non-finite values become nil
// instead of NaN.
func Normalize(fields map[string]any, currency string) *models.TokenStats {
	stats := &models.TokenStats{
		Price:     SafeFloat(fields[currency]),
		MarketCap: SafeFloat(fields[currency+"_market_cap"]),
		Volume24h: SafeFloat(fields[currency+"_24h_vol"]),
		Change24h: SafeFloat(fields[currency+"_24h_change"]),
		UpdatedAt: time.Now(),
	}
	if ts := SafeFloat(fields["last_updated_at"]); ts != nil {
		stats.UpdatedAt = time.Unix(int64(*ts), 0)
	}
	return stats
}

// SafeFloat converts v to a finite float64 pointer. Returns nil for absent
// values, non-numeric types, NaN, and infinities — never a NaN pointer.
func SafeFloat(v any) *float64 {
	var f float64
	switch x := v.(type) {
	case float64:
		f = x
	case float32:
		f = float64(x)
	case int:
		f = float64(x)
	case int64:
		f = float64(x)
	case json.Number:
		parsed, err := x.Float64()
		if err != nil {
			return nil
		}
		f = parsed
	case string:
		parsed, err := strconv.ParseFloat(x, 64)
		if err != nil {
			return nil
		}
		f = parsed
	default:
		return nil
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return nil
	}
	return &f
}
