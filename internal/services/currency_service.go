package services

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"
)

// CurrencyConverterProvider defines the interface for currency conversion.
type CurrencyConverterProvider interface {
	Convert(ctx context.Context, from, to string, amount float64) (float64, error)
}

// CurrencyConverter converts amounts between currencies through an external
// exchange-rate HTTP API.
type CurrencyConverter struct {
	client  *http.Client
	baseURL string
	apiKey  string
}

// NewCurrencyConverter creates a CurrencyConverter. A nil client gets a
// default with a request timeout.
func NewCurrencyConverter(client *http.Client, baseURL, apiKey string) *CurrencyConverter {
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Second}
	}
	return &CurrencyConverter{client: client, baseURL: baseURL, apiKey: apiKey}
}

// Convert calls GET {base}/convert and returns the converted amount. Any
// transport failure, non-2xx status or response without a numeric "result"
// field fails with ErrConversionFailed.
func (c *CurrencyConverter) Convert(ctx context.Context, from, to string, amount float64) (float64, error) {
	if from == "" || to == "" {
		return 0, fmt.Errorf("%w: from and to currencies are required", ErrValidation)
	}

	params := url.Values{}
	params.Set("access_key", c.apiKey)
	params.Set("from", from)
	params.Set("to", to)
	params.Set("amount", strconv.FormatFloat(amount, 'f', -1, 64))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/convert?"+params.Encode(), nil)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrConversionFailed, err)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrConversionFailed, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return 0, fmt.Errorf("%w: upstream returned %d", ErrConversionFailed, resp.StatusCode)
	}

	var body struct {
		Result *float64 `json:"result"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return 0, fmt.Errorf("%w: %v", ErrConversionFailed, err)
	}
	if body.Result == nil {
		return 0, fmt.Errorf("%w: response has no result", ErrConversionFailed)
	}

	return *body.Result, nil
}
