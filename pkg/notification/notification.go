// Package notification posts JSON notifications to outgoing webhooks, either
// as a raw payload or as a Slack incoming-webhook message.
//
//	hook := notification.NewWebhook(url, notification.FormatSlack, nil)
//	err := hook.Notify(ctx, notification.Message{
//	    Title: "Order #12 placed",
//	    Text:  "3 items, total 705.00",
//	    Data:  order,
//	})
package notification

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/farmchain/farmchain/config"
)

// Payload formats.
const (
	FormatJSON  = "json"
	FormatSlack = "slack"
)

// Message is one notification. Slack receivers get Title and Text; JSON
// receivers get the whole message with Data inline.
type Message struct {
	Event string      `json:"event"`
	Title string      `json:"title"`
	Text  string      `json:"text,omitempty"`
	Color string      `json:"-"` // Slack attachment colour: good, warning, danger
	Data  interface{} `json:"data,omitempty"`
	Sent  time.Time   `json:"sentAt"`
}

type slackAttachment struct {
	Color  string `json:"color,omitempty"`
	Title  string `json:"title,omitempty"`
	Text   string `json:"text,omitempty"`
	Footer string `json:"footer,omitempty"`
}

type slackPayload struct {
	Text        string            `json:"text,omitempty"`
	Attachments []slackAttachment `json:"attachments,omitempty"`
}

// Webhook posts messages to one URL.
type Webhook struct {
	URL     string
	Format  string
	Headers map[string]string
	Client  *http.Client
}

// NewWebhook returns a webhook with a 10 second client timeout.
func NewWebhook(url, format string, headers map[string]string) *Webhook {
	return &Webhook{
		URL:     url,
		Format:  format,
		Headers: headers,
		Client:  &http.Client{Timeout: 10 * time.Second},
	}
}

// FromConfig builds the order webhook from ORDER_WEBHOOK_*, or returns nil
// when no URL is configured.
func FromConfig() *Webhook {
	url := config.WebhookURL()
	if url == "" {
		return nil
	}
	var headers map[string]string
	if tok := config.WebhookToken(); tok != "" {
		headers = map[string]string{"Authorization": "Bearer " + tok}
	}
	return NewWebhook(url, config.WebhookFormat(), headers)
}

// Notify delivers m. Any non-2xx answer is an error so queued callers retry.
func (h *Webhook) Notify(ctx context.Context, m Message) error {
	if m.Sent.IsZero() {
		m.Sent = time.Now().UTC()
	}

	var body interface{} = m
	if h.Format == FormatSlack {
		body = slackPayload{
			Text: m.Title,
			Attachments: []slackAttachment{{
				Color:  m.Color,
				Text:   m.Text,
				Footer: m.Event,
			}},
		}
	}

	raw, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("notification: marshal: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, h.URL, bytes.NewReader(raw))
	if err != nil {
		return fmt.Errorf("notification: request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	for k, v := range h.Headers {
		req.Header.Set(k, v)
	}

	resp, err := h.Client.Do(req)
	if err != nil {
		return fmt.Errorf("notification: send: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return fmt.Errorf("notification: webhook returned HTTP %d", resp.StatusCode)
	}
	return nil
}
