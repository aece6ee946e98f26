package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Webhook posts the alert body as JSON to a generic webhook endpoint. The
// payload repeats the body under three keys because different relay
// templates read different fields.
type Webhook struct {
	url    string
	client *http.Client
	logger zerolog.Logger
}

// NewWebhook creates a webhook notifier for the given endpoint.
func NewWebhook(url string) *Webhook {
	return &Webhook{
		url: url,
		client: &http.Client{
			Timeout: 8 * time.Second,
		},
		logger: log.With().Str("component", "webhook").Logger(),
	}
}

func (w *Webhook) Send(ctx context.Context, text string) error {
	payload := map[string]string{
		"text":    text,
		"message": text,
		"content": text,
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, w.url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := w.client.Do(req)
	if err != nil {
		return fmt.Errorf("posting webhook: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("webhook status %d", resp.StatusCode)
	}

	w.logger.Debug().Int("bytes", len(text)).Msg("Delivered webhook message")
	return nil
}
