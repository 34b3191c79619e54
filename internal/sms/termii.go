// Package sms is the delivery collaborator for text messages. It is
// feature-flagged: a nil Sender or a failed send degrades every flow to
// in-app-only, never blocking the primary operation.
package sms

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/tonyorjime-cloud/agromath-mvp/internal/observability"
)

// Sender hides the concrete gateway from callers.
type Sender interface {
	Send(ctx context.Context, phone, text string) error
}

// TermiiClient posts plain SMS to a Termii-compatible HTTP gateway.
type TermiiClient struct {
	Endpoint string
	APIKey   string
	From     string
	Client   *http.Client
}

func NewTermiiClient(endpoint, apiKey, from string) *TermiiClient {
	return &TermiiClient{
		Endpoint: endpoint,
		APIKey:   apiKey,
		From:     from,
		Client:   &http.Client{Timeout: 10 * time.Second},
	}
}

func (c *TermiiClient) Send(ctx context.Context, phone, text string) error {
	body := map[string]any{
		"to":      phone,
		"from":    c.From,
		"sms":     text,
		"type":    "plain",
		"channel": "generic",
		"api_key": c.APIKey,
	}
	b, _ := json.Marshal(body)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.Endpoint, bytes.NewReader(b))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.Client.Do(req)
	if err != nil {
		observability.SMSDeliveries.WithLabelValues("error").Inc()
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		observability.SMSDeliveries.WithLabelValues("rejected").Inc()
		return fmt.Errorf("sms gateway status %d", resp.StatusCode)
	}
	observability.SMSDeliveries.WithLabelValues("ok").Inc()
	return nil
}
