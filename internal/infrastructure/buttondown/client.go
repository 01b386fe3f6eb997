package buttondown

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"DailyByte/internal/config"
	"DailyByte/internal/ports"
)

// DeliveryError is returned for any non-2xx answer from the provider.
type DeliveryError struct {
	StatusCode int
	Body       string
}

func (e *DeliveryError) Error() string {
	return fmt.Sprintf("buttondown returned %d: %s", e.StatusCode, e.Body)
}

// Client sends emails through the Buttondown API.
type Client struct {
	endpoint   string
	apiKey     string
	authScheme string
	status     string
	client     *http.Client
}

var _ ports.DeliveryProvider = (*Client)(nil)

// NewClient registers endpoint, credential and delivery status.
func NewClient(cfg config.ButtondownConfig) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	scheme := cfg.AuthScheme
	if scheme == "" {
		scheme = "Token"
	}
	return &Client{
		endpoint:   cfg.Endpoint,
		apiKey:     cfg.APIKey,
		authScheme: scheme,
		status:     cfg.Status,
		client:     &http.Client{Timeout: timeout},
	}
}

type emailRequest struct {
	Subject string `json:"subject"`
	Body    string `json:"body"`
	Status  string `json:"status,omitempty"`
}

type emailResponse struct {
	ID string `json:"id"`
}

// Deliver posts one email and returns the provider id.
func (c *Client) Deliver(ctx context.Context, subject, body string) (string, error) {
	if c.apiKey == "" || c.endpoint == "" || c.client == nil {
		return "", fmt.Errorf("buttondown client misconfigured")
	}

	payload, err := json.Marshal(emailRequest{Subject: subject, Body: body, Status: c.status})
	if err != nil {
		return "", fmt.Errorf("marshal email: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("new request: %w", err)
	}
	req.Header.Set("Authorization", c.authScheme+" "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("do request: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	if err != nil {
		return "", fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", &DeliveryError{StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(raw))}
	}

	var decoded emailResponse
	if err := json.Unmarshal(raw, &decoded); err != nil {
		return "", fmt.Errorf("decode response: %w", err)
	}
	if decoded.ID == "" {
		return "", fmt.Errorf("buttondown response carries no id")
	}
	return decoded.ID, nil
}
