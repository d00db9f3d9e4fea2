package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/darshan-rambhia/hostwatch/internal/model"
)

const webhookErrSnippet = 256

// webhookPayload is the JSON document posted to webhook endpoints.
type webhookPayload struct {
	Source     string         `json:"source"`
	Severity   model.Severity `json:"severity"`
	Subject    string         `json:"subject"`
	Body       string         `json:"body"`
	Recipients []string       `json:"recipients,omitempty"`
	Timestamp  time.Time      `json:"timestamp"`
	Alert      *model.Alert   `json:"alert,omitempty"`
}

// WebhookProvider delivers notifications as JSON to an HTTP endpoint.
type WebhookProvider struct {
	url     string
	method  string
	headers map[string]string
	client  *http.Client
}

// NewWebhook creates a webhook provider. An empty method means POST.
func NewWebhook(url, method string, headers map[string]string) *WebhookProvider {
	method = strings.ToUpper(strings.TrimSpace(method))
	if method == "" {
		method = http.MethodPost
	}
	return &WebhookProvider{
		url:     url,
		method:  method,
		headers: headers,
		client:  &http.Client{Timeout: 10 * time.Second},
	}
}

func (w *WebhookProvider) Name() string { return "webhook" }

func (w *WebhookProvider) Send(ctx context.Context, n model.Notification) error {
	payload, err := json.Marshal(webhookPayload{
		Source:     "hostwatch",
		Severity:   n.Severity,
		Subject:    n.Subject,
		Body:       n.Body,
		Recipients: n.Recipients,
		Timestamp:  n.Timestamp.UTC(),
		Alert:      n.Alert,
	})
	if err != nil {
		return fmt.Errorf("webhook: marshal: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, w.method, w.url, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("webhook: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", "hostwatch")
	// Configured headers win, including Content-Type.
	for k, v := range w.headers {
		req.Header.Set(k, v)
	}

	resp, err := w.client.Do(req)
	if err != nil {
		return fmt.Errorf("webhook: send: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, webhookErrSnippet))
		if msg := strings.TrimSpace(string(snippet)); msg != "" {
			return fmt.Errorf("webhook: %s %s: unexpected status %d: %s", w.method, w.url, resp.StatusCode, msg)
		}
		return fmt.Errorf("webhook: %s %s: unexpected status %d", w.method, w.url, resp.StatusCode)
	}
	return nil
}
