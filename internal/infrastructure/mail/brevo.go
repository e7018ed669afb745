package mail

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/portal/backend/internal/infrastructure/config"
)

// BrevoMailer sends through the Brevo transactional email HTTP API
type BrevoMailer struct {
	apiKey     string
	baseURL    string
	fromName   string
	fromAddr   string
	httpClient *http.Client
}

// NewBrevoMailer creates a Brevo-backed mailer
func NewBrevoMailer(cfg config.MailConfig) *BrevoMailer {
	return &BrevoMailer{
		apiKey:   cfg.BrevoAPIKey,
		baseURL:  cfg.BrevoBaseURL,
		fromName: cfg.FromName,
		fromAddr: cfg.FromAddress,
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

type brevoParty struct {
	Name  string `json:"name,omitempty"`
	Email string `json:"email"`
}

type brevoSendRequest struct {
	Sender      brevoParty   `json:"sender"`
	To          []brevoParty `json:"to"`
	Subject     string       `json:"subject"`
	TextContent string       `json:"textContent,omitempty"`
	HTMLContent string       `json:"htmlContent,omitempty"`
}

type brevoErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Send delivers the message via POST /v3/smtp/email
func (m *BrevoMailer) Send(ctx context.Context, msg Message) error {
	payload := brevoSendRequest{
		Sender:      brevoParty{Name: m.fromName, Email: m.fromAddr},
		To:          []brevoParty{{Name: msg.ToName, Email: msg.To}},
		Subject:     msg.Subject,
		TextContent: msg.TextBody,
		HTMLContent: msg.HTMLBody,
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("brevo: marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, m.baseURL+"/v3/smtp/email", bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("brevo: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("api-key", m.apiKey)

	resp, err := m.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("brevo: send: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}

	var apiErr brevoErrorResponse
	data, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
	if json.Unmarshal(data, &apiErr) == nil && apiErr.Message != "" {
		return fmt.Errorf("brevo: send failed (%d %s): %s", resp.StatusCode, apiErr.Code, apiErr.Message)
	}
	return fmt.Errorf("brevo: send failed with status %d", resp.StatusCode)
}

var _ Mailer = (*BrevoMailer)(nil)
