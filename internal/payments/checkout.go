package payments

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"trailbook/api/internal/config"
)

var ErrBadWebhookSignature = errors.New("webhook signature mismatch")

// Client creates hosted checkout sessions against the payment provider's
// HTTP API (form-encoded request, JSON response).
type Client struct {
	cfg        config.PaymentsConfig
	httpClient *http.Client
}

func NewClient(cfg config.PaymentsConfig) *Client {
	return &Client{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: 15 * time.Second},
	}
}

type CheckoutInput struct {
	TourID        string
	TourName      string
	TourSummary   string
	ImageURL      string
	AmountCents   int64
	CustomerEmail string
	// ClientReference ties the session back to tour and user when the
	// completion webhook arrives: "<tourID>:<userID>".
	ClientReference string
	SuccessURL      string
	CancelURL       string
}

type CheckoutSession struct {
	ID  string `json:"id"`
	URL string `json:"url"`
}

func (c *Client) CreateCheckoutSession(ctx context.Context, input CheckoutInput) (CheckoutSession, error) {
	form := url.Values{}
	form.Set("mode", "payment")
	form.Set("success_url", input.SuccessURL)
	form.Set("cancel_url", input.CancelURL)
	form.Set("customer_email", input.CustomerEmail)
	form.Set("client_reference_id", input.ClientReference)
	form.Set("line_items[0][quantity]", "1")
	form.Set("line_items[0][price_data][currency]", c.cfg.Currency)
	form.Set("line_items[0][price_data][unit_amount]", strconv.FormatInt(input.AmountCents, 10))
	form.Set("line_items[0][price_data][product_data][name]", input.TourName+" Tour")
	form.Set("line_items[0][price_data][product_data][description]", input.TourSummary)
	if input.ImageURL != "" {
		form.Set("line_items[0][price_data][product_data][images][0]", input.ImageURL)
	}

	endpoint := strings.TrimSuffix(c.cfg.Endpoint, "/") + "/v1/checkout/sessions"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return CheckoutSession{}, fmt.Errorf("create checkout request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.cfg.SecretKey)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return CheckoutSession{}, fmt.Errorf("checkout request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return CheckoutSession{}, fmt.Errorf("read checkout response: %w", err)
	}
	if resp.StatusCode >= 300 {
		return CheckoutSession{}, fmt.Errorf("payment provider returned %d: %s", resp.StatusCode, body)
	}

	var session CheckoutSession
	if err := json.Unmarshal(body, &session); err != nil {
		return CheckoutSession{}, fmt.Errorf("decode checkout response: %w", err)
	}
	return session, nil
}

// WebhookEvent is the subset of the provider's event envelope the booking
// flow needs.
type WebhookEvent struct {
	Type string `json:"type"`
	Data struct {
		Object struct {
			ID                string `json:"id"`
			ClientReferenceID string `json:"client_reference_id"`
			CustomerEmail     string `json:"customer_email"`
			AmountTotal       int64  `json:"amount_total"`
		} `json:"object"`
	} `json:"data"`
}

// ParseWebhook verifies the provider's signature header
// ("t=<unix>,v1=<hex hmac>") and decodes the event. The signed payload is
// "<t>.<body>" with the webhook secret as HMAC key.
func ParseWebhook(body []byte, signatureHeader, secret string) (WebhookEvent, error) {
	var timestamp, signature string
	for _, part := range strings.Split(signatureHeader, ",") {
		k, v, ok := strings.Cut(strings.TrimSpace(part), "=")
		if !ok {
			continue
		}
		switch k {
		case "t":
			timestamp = v
		case "v1":
			signature = v
		}
	}
	if timestamp == "" || signature == "" {
		return WebhookEvent{}, ErrBadWebhookSignature
	}

	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(timestamp))
	mac.Write([]byte("."))
	mac.Write(body)
	expected := hex.EncodeToString(mac.Sum(nil))

	if !hmac.Equal([]byte(expected), []byte(signature)) {
		return WebhookEvent{}, ErrBadWebhookSignature
	}

	var event WebhookEvent
	if err := json.Unmarshal(body, &event); err != nil {
		return WebhookEvent{}, fmt.Errorf("decode webhook event: %w", err)
	}
	return event, nil
}
