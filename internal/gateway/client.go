package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"
)

const defaultRequestTimeout = 10 * time.Second

// ClientConfig holds checkout API credentials and endpoint.
type ClientConfig struct {
	Endpoint  string
	KeyID     string
	KeySecret string
	Timeout   time.Duration
}

// Client talks to the hosted checkout provider over its REST API and
// implements Provider. Signature checks run locally against the key secret;
// only order creation goes over the wire.
type Client struct {
	endpoint  string
	keyID     string
	keySecret string
	http      *http.Client
}

// NewClient constructs a provider client from credentials.
func NewClient(cfg ClientConfig) (*Client, error) {
	endpoint := strings.TrimRight(strings.TrimSpace(cfg.Endpoint), "/")
	if endpoint == "" {
		return nil, errors.New("gateway: endpoint is required")
	}
	if strings.TrimSpace(cfg.KeyID) == "" || strings.TrimSpace(cfg.KeySecret) == "" {
		return nil, errors.New("gateway: key id and secret are required")
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultRequestTimeout
	}

	return &Client{
		endpoint:  endpoint,
		keyID:     strings.TrimSpace(cfg.KeyID),
		keySecret: strings.TrimSpace(cfg.KeySecret),
		http:      &http.Client{Timeout: timeout},
	}, nil
}

type createOrderRequest struct {
	Amount   int64  `json:"amount"`
	Currency string `json:"currency"`
	Receipt  string `json:"receipt"`
}

type createOrderResponse struct {
	ID       string `json:"id"`
	Amount   int64  `json:"amount"`
	Currency string `json:"currency"`
	Receipt  string `json:"receipt"`
}

// CreateOrder registers an order with the provider. Amount is expected in
// the provider's minor currency unit.
func (c *Client) CreateOrder(ctx context.Context, amount int64, currency, receipt string) (*Order, error) {
	if amount <= 0 {
		return nil, errors.New("gateway: amount must be positive")
	}

	body, err := json.Marshal(createOrderRequest{Amount: amount, Currency: currency, Receipt: receipt})
	if err != nil {
		return nil, fmt.Errorf("gateway: encode order: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint+"/v1/orders", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("gateway: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.SetBasicAuth(c.keyID, c.keySecret)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("gateway: create order: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		return nil, fmt.Errorf("gateway: create order: provider returned %s", resp.Status)
	}

	var decoded createOrderResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return nil, fmt.Errorf("gateway: decode order: %w", err)
	}
	if decoded.ID == "" {
		return nil, errors.New("gateway: provider returned order without id")
	}

	return &Order{
		ID:       decoded.ID,
		Amount:   decoded.Amount,
		Currency: decoded.Currency,
		Receipt:  decoded.Receipt,
	}, nil
}

// VerifySignature checks a checkout callback signature against the key secret.
func (c *Client) VerifySignature(orderID, paymentID, signature string) bool {
	return VerifySignature(c.keySecret, orderID, paymentID, signature)
}
