package webhook

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"
)

type Service struct {
	webhook Webhook
	client  *http.Client
}

func NewService(webhook Webhook) *Service {
	return &Service{
		webhook: webhook,
		client: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

// Send posts an already encoded event, signed with the webhook secret
func (s *Service) Send(ctx context.Context, eventType string, payload []byte) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.webhook.URL, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}

	timestamp := time.Now().Unix()

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(HeaderSignature, Sign(s.webhook.Secret, timestamp, payload))
	req.Header.Set(HeaderTimestamp, strconv.FormatInt(timestamp, 10))
	req.Header.Set(HeaderEvent, eventType)
	req.Header.Set("User-Agent", "Vivo-Webhook/1.0")

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("send webhook: %w", err)
	}
	defer func() {
		_, _ = io.Copy(io.Discard, resp.Body)
		_ = resp.Body.Close()
	}()

	if resp.StatusCode >= 400 {
		return fmt.Errorf("send webhook: HTTP %d", resp.StatusCode)
	}

	return nil
}
