package events

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/julianstephens/huddle/internal/constants"
	"github.com/julianstephens/huddle/internal/logger"
)

// Webhook POSTs each event as JSON to a fixed URL.
type Webhook struct {
	url        string
	secret     string
	client     *http.Client
	maxRetries int
	retryDelay time.Duration
}

func NewWebhook(url, secret string) *Webhook {
	return &Webhook{
		url:        url,
		secret:     secret,
		client:     &http.Client{Timeout: constants.NotifyTimeout},
		maxRetries: constants.NotifyMaxRetries,
		retryDelay: constants.NotifyRetryDelay,
	}
}

// Publish delivers e, retrying transport errors and 5xx responses.
func (w *Webhook) Publish(ctx context.Context, e Event) error {
	body, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("failed to encode event: %w", err)
	}

	var lastErr error
	for attempt := 0; attempt < w.maxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(w.retryDelay * time.Duration(attempt)):
			}
		}

		retry, err := w.send(ctx, body)
		if err == nil {
			return nil
		}
		lastErr = err
		if !retry {
			break
		}
		logger.Debug("Webhook delivery failed, retrying", "attempt", attempt+1, "error", err)
	}
	return lastErr
}

func (w *Webhook) send(ctx context.Context, body []byte) (retry bool, err error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, w.url, bytes.NewReader(body))
	if err != nil {
		return false, err
	}
	req.Header.Set("Content-Type", "application/json")
	if w.secret != "" {
		req.Header.Set(constants.WebhookSecretHeader, w.secret)
	}

	res, err := w.client.Do(req)
	if err != nil {
		return ctx.Err() == nil, err
	}
	defer res.Body.Close()

	if res.StatusCode >= 200 && res.StatusCode < 300 {
		return false, nil
	}

	msg, _ := io.ReadAll(io.LimitReader(res.Body, 1024))
	return res.StatusCode >= 500, fmt.Errorf("webhook failed with status %d: %s", res.StatusCode, bytes.TrimSpace(msg))
}

func (w *Webhook) Close() error {
	w.client.CloseIdleConnections()
	return nil
}
