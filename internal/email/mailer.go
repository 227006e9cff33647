package email

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"trailbook/api/internal/config"
)

// Mailer delivers transactional mail through the provider's HTTP API.
type Mailer struct {
	cfg        config.EmailConfig
	httpClient *http.Client
}

func NewMailer(cfg config.EmailConfig) *Mailer {
	return &Mailer{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: 10 * time.Second},
	}
}

type address struct {
	Email string `json:"email"`
	Name  string `json:"name,omitempty"`
}

type personalization struct {
	To []address `json:"to"`
}

type content struct {
	Type  string `json:"type"`
	Value string `json:"value"`
}

type mailPayload struct {
	Personalizations []personalization `json:"personalizations"`
	From             address           `json:"from"`
	Subject          string            `json:"subject"`
	Content          []content         `json:"content"`
}

func (m *Mailer) send(ctx context.Context, to, toName, subject, text string) error {
	payload := mailPayload{
		Personalizations: []personalization{{
			To: []address{{Email: to, Name: toName}},
		}},
		From:    address{Email: m.cfg.FromEmail, Name: m.cfg.FromName},
		Subject: subject,
		Content: []content{{Type: "text/plain", Value: text}},
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal mail payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, m.cfg.Endpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create mail request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+m.cfg.APIKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := m.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("mail request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return fmt.Errorf("mail provider returned %d: %s", resp.StatusCode, respBody)
	}
	return nil
}

func (m *Mailer) SendWelcome(ctx context.Context, to, name, accountURL string) error {
	text := fmt.Sprintf(
		"Hi %s,\n\nWelcome to Trailbook, we're glad to have you!\nManage your account here: %s\n",
		name, accountURL)
	return m.send(ctx, to, name, "Welcome to Trailbook!", text)
}

func (m *Mailer) SendPasswordReset(ctx context.Context, to, name, resetURL string) error {
	text := fmt.Sprintf(
		"Hi %s,\n\nForgot your password? Submit a new one here: %s\n"+
			"The link is valid for 10 minutes. If you didn't ask for a reset, ignore this email.\n",
		name, resetURL)
	return m.send(ctx, to, name, "Your password reset token (valid for 10 minutes)", text)
}
