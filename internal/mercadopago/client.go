// Package mercadopago is a minimal client for the two Mercado Pago operations
// the storefront needs: creating a checkout preference and fetching a payment
// by id for webhook verification.
package mercadopago

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"
)

const defaultBaseURL = "https://api.mercadopago.com"

// ErrMissingAccessToken indicates the gateway credential is absent from the
// environment. This is a deployment problem, not a per-request one.
var ErrMissingAccessToken = errors.New("mercado pago access token missing")

// GatewayError is returned when the gateway rejects a call.
type GatewayError struct {
	Operation  string
	StatusCode int
	Body       string
}

func (e *GatewayError) Error() string {
	return fmt.Sprintf("mercado pago %s: status %d: %s", e.Operation, e.StatusCode, e.Body)
}

// PreferenceItem mirrors the gateway's preference item schema.
type PreferenceItem struct {
	Title      string  `json:"title"`
	Quantity   int     `json:"quantity"`
	UnitPrice  float64 `json:"unit_price"`
	CurrencyID string  `json:"currency_id"`
}

// PreferenceRequest is the payload for POST /checkout/preferences.
type PreferenceRequest struct {
	Items             []PreferenceItem `json:"items"`
	Payer             Payer            `json:"payer"`
	BackURLs          BackURLs         `json:"back_urls"`
	AutoReturn        string           `json:"auto_return"`
	NotificationURL   string           `json:"notification_url"`
	ExternalReference string           `json:"external_reference"`
	PaymentMethods    PaymentMethods   `json:"payment_methods"`
}

type Payer struct {
	Email string `json:"email"`
}

type BackURLs struct {
	Success string `json:"success"`
	Failure string `json:"failure"`
	Pending string `json:"pending"`
}

type PaymentMethods struct {
	ExcludedPaymentTypes []string `json:"excluded_payment_types"`
	Installments         int      `json:"installments"`
}

// Preference is the gateway's response to preference creation.
type Preference struct {
	ID               string `json:"id"`
	InitPoint        string `json:"init_point"`
	SandboxInitPoint string `json:"sandbox_init_point"`
}

// Payment is the authoritative payment record fetched by id. The webhook body
// is only a pointer; status and external_reference come from here.
type Payment struct {
	ID                json.Number `json:"id"`
	Status            string      `json:"status"`
	ExternalReference string      `json:"external_reference"`
	TransactionAmount float64     `json:"transaction_amount"`
}

// Client talks to the Mercado Pago REST API with bearer auth.
type Client struct {
	accessToken string
	baseURL     string
	httpClient  *http.Client
}

// NewClient returns a gateway client. accessToken may be empty; calls will
// fail with ErrMissingAccessToken so handlers can map it to a config error.
func NewClient(accessToken string) *Client {
	return &Client{
		accessToken: accessToken,
		baseURL:     defaultBaseURL,
		httpClient:  &http.Client{Timeout: 10 * time.Second},
	}
}

// WithBaseURL overrides the API base URL, used by tests.
func (c *Client) WithBaseURL(u string) *Client {
	c.baseURL = u
	return c
}

// CreatePreference creates a checkout preference and returns the redirect URLs.
func (c *Client) CreatePreference(ctx context.Context, req PreferenceRequest) (*Preference, error) {
	if c.accessToken == "" {
		return nil, ErrMissingAccessToken
	}
	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("marshal preference: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/checkout/preferences", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	httpReq.Header.Set("Authorization", "Bearer "+c.accessToken)
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("create preference: %w", err)
	}
	defer resp.Body.Close()

	respBody, _ := io.ReadAll(resp.Body)
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &GatewayError{Operation: "create preference", StatusCode: resp.StatusCode, Body: string(respBody)}
	}

	var pref Preference
	if err := json.Unmarshal(respBody, &pref); err != nil {
		return nil, fmt.Errorf("decode preference response: %w", err)
	}
	return &pref, nil
}

// GetPayment fetches the authoritative payment object by id.
func (c *Client) GetPayment(ctx context.Context, paymentID string) (*Payment, error) {
	if c.accessToken == "" {
		return nil, ErrMissingAccessToken
	}
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/v1/payments/"+paymentID, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	httpReq.Header.Set("Authorization", "Bearer "+c.accessToken)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("get payment: %w", err)
	}
	defer resp.Body.Close()

	respBody, _ := io.ReadAll(resp.Body)
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &GatewayError{Operation: "get payment", StatusCode: resp.StatusCode, Body: string(respBody)}
	}

	var p Payment
	if err := json.Unmarshal(respBody, &p); err != nil {
		return nil, fmt.Errorf("decode payment response: %w", err)
	}
	return &p, nil
}
