// Package payment confirms captured payments against the Toss Payments API.
// The gateway response is the single source of truth for whether money
// actually moved; credits are only granted after a successful confirm.
package payment

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/facestudio/facestudio/internal/config"
)

// ErrConfirmFailed indicates the gateway rejected the confirmation.
var ErrConfirmFailed = errors.New("payment confirmation failed")

// Client confirms payments against the gateway.
type Client struct {
	secretKey  string
	baseURL    string
	httpClient *http.Client
}

// NewClient constructs a Client from configuration.
func NewClient(cfg config.PaymentConfig) *Client {
	baseURL := strings.TrimSuffix(cfg.BaseURL, "/")
	if baseURL == "" {
		baseURL = "https://api.tosspayments.com"
	}
	return &Client{
		secretKey:  cfg.SecretKey,
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
}

// Confirmation is the subset of the gateway response the application keeps.
type Confirmation struct {
	OrderID  string // gateway-side order identifier
	Method   string // human-readable payment method label
	Status   string // gateway status, DONE on success
	Currency string // settlement currency
}

type confirmRequest struct {
	PaymentKey string `json:"paymentKey"`
	OrderID    string `json:"orderId"`
	Amount     int64  `json:"amount"`
}

type confirmResponse struct {
	OrderID  string `json:"orderId"`
	Method   string `json:"method"`
	Status   string `json:"status"`
	Currency string `json:"currency"`
	Code     string `json:"code"`
	Message  string `json:"message"`
}

// Confirm asks the gateway to capture the payment identified by paymentKey
// for the given order and amount. An amount mismatch or declined capture
// comes back as ErrConfirmFailed with the gateway's message attached. A 5xx
// or undecodable response is an outage, not a rejection, so callers can
// leave the order retryable.
func (c *Client) Confirm(ctx context.Context, paymentKey, orderID string, amount int64) (*Confirmation, error) {
	raw, errMarshal := json.Marshal(confirmRequest{PaymentKey: paymentKey, OrderID: orderID, Amount: amount})
	if errMarshal != nil {
		return nil, errMarshal
	}

	req, errNew := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v1/payments/confirm", bytes.NewReader(raw))
	if errNew != nil {
		return nil, errNew
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Basic "+base64.StdEncoding.EncodeToString([]byte(c.secretKey+":")))

	resp, errDo := c.httpClient.Do(req)
	if errDo != nil {
		return nil, errDo
	}
	defer resp.Body.Close()

	body, errRead := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if errRead != nil {
		return nil, errRead
	}

	if resp.StatusCode >= 500 {
		return nil, fmt.Errorf("payment: gateway error %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var decoded confirmResponse
	if errDecode := json.Unmarshal(body, &decoded); errDecode != nil {
		return nil, fmt.Errorf("payment: decode response: %w", errDecode)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		message := decoded.Message
		if message == "" {
			message = strings.TrimSpace(string(body))
		}
		return nil, fmt.Errorf("%w: %s (%s)", ErrConfirmFailed, message, decoded.Code)
	}
	if decoded.Status != "DONE" {
		return nil, fmt.Errorf("%w: gateway status %s", ErrConfirmFailed, decoded.Status)
	}

	return &Confirmation{
		OrderID:  decoded.OrderID,
		Method:   decoded.Method,
		Status:   decoded.Status,
		Currency: decoded.Currency,
	}, nil
}
