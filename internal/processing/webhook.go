package processing

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"
)

const defaultWebhookTimeoutMs = 10_000

// WebhookSender posts terminal-state notifications to a fixed URL.
type WebhookSender struct {
	client *http.Client
	url    string
	logger *slog.Logger
}

func NewWebhookSender(url string, timeoutMs int, logger *slog.Logger) *WebhookSender {
	if timeoutMs <= 0 {
		timeoutMs = defaultWebhookTimeoutMs
	}
	return &WebhookSender{
		client: &http.Client{Timeout: time.Duration(timeoutMs) * time.Millisecond},
		url:    url,
		logger: logger,
	}
}

func (s *WebhookSender) Send(ctx context.Context, payload string) error {
	s.logger.InfoContext(ctx, "Sending completion webhook", "url", s.url)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.url, bytes.NewBufferString(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if _, err := io.Copy(io.Discard, resp.Body); err != nil {
		return err
	}

	if resp.StatusCode >= 400 {
		return fmt.Errorf("error response: %s", resp.Status)
	}

	s.logger.InfoContext(ctx, "Completion webhook delivered", "status", resp.Status)
	return nil
}
