package wallet

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/tidwall/gjson"
)

// DefaultPaystackURL is the production Paystack API.
const DefaultPaystackURL = "https://api.paystack.co"

// maxResponseBytes caps how much of a gateway response is read.
const maxResponseBytes = 1 << 20

// PaystackConfig holds Paystack client configuration.
type PaystackConfig struct {
	BaseURL   string
	SecretKey string
	Timeout   time.Duration
}

// Paystack verifies transactions against the Paystack API.
type Paystack struct {
	baseURL    string
	secretKey  string
	httpClient *http.Client
}

// NewPaystack creates a Paystack gateway.
func NewPaystack(cfg PaystackConfig) *Paystack {
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 10 * time.Second
	}
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = DefaultPaystackURL
	}

	return &Paystack{
		baseURL:   strings.TrimRight(baseURL, "/"),
		secretKey: cfg.SecretKey,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

// Verify calls GET /transaction/verify/{reference}. Paystack reports amounts in
// the currency's minor unit (kobo), which are converted to major units.
func (p *Paystack) Verify(ctx context.Context, reference string) (*Verification, error) {
	endpoint := p.baseURL + "/transaction/verify/" + url.PathEscape(reference)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+p.secretKey)
	req.Header.Set("Accept", "application/json")

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("paystack request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, fmt.Errorf("failed to read paystack response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		msg := gjson.GetBytes(body, "message").String()
		return nil, fmt.Errorf("paystack returned %d: %s", resp.StatusCode, msg)
	}
	if !gjson.ValidBytes(body) {
		return nil, fmt.Errorf("paystack returned invalid JSON")
	}

	data := gjson.GetBytes(body, "data")
	if !data.Exists() {
		return nil, fmt.Errorf("paystack response has no data")
	}

	return &Verification{
		Status: data.Get("status").String(),
		Amount: decimal.New(data.Get("amount").Int(), -2),
	}, nil
}
