package infra

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// fxResponse matches the frankfurter-style payload:
// {"amount":1.0,"base":"RUB","date":"2026-10-19","rates":{"USD":0.0107}}
type fxResponse struct {
	Base  string                     `json:"base"`
	Date  string                     `json:"date"`
	Rates map[string]decimal.Decimal `json:"rates"`
}

// FXClient fetches a single conversion rate per call from an HTTP rates API.
type FXClient struct {
	baseURL    string
	httpClient *http.Client
}

func NewFXClient(baseURL string) *FXClient {
	return &FXClient{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: 10 * time.Second},
	}
}

// Enabled reports whether a rates endpoint is configured.
func (c *FXClient) Enabled() bool { return c != nil && c.baseURL != "" }

// Rate returns how many units of symbol one unit of base buys.
func (c *FXClient) Rate(ctx context.Context, base, symbol string) (decimal.Decimal, error) {
	if !c.Enabled() {
		return decimal.Zero, fmt.Errorf("fx: no rates endpoint configured")
	}
	q := url.Values{}
	q.Set("from", strings.ToUpper(base))
	q.Set("to", strings.ToUpper(symbol))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/latest?"+q.Encode(), nil)
	if err != nil {
		return decimal.Zero, fmt.Errorf("fx: create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return decimal.Zero, fmt.Errorf("fx: endpoint unreachable: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return decimal.Zero, fmt.Errorf("fx: endpoint returned %d", resp.StatusCode)
	}

	var result fxResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return decimal.Zero, fmt.Errorf("fx: decode response: %w", err)
	}
	rate, ok := result.Rates[strings.ToUpper(symbol)]
	if !ok || !rate.IsPositive() {
		return decimal.Zero, fmt.Errorf("fx: no usable rate for %s", symbol)
	}
	return rate, nil
}
