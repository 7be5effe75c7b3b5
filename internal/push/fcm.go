package push

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/adoptmatch/chat-service/pkg/metrics"
)

// FCMClient sends notifications through an FCM-compatible HTTP endpoint.
type FCMClient struct {
	endpoint   string
	serverKey  string
	httpClient *http.Client
}

// NewFCMClient creates an FCM client for the given endpoint and server key.
func NewFCMClient(endpoint, serverKey string, timeout time.Duration) *FCMClient {
	return &FCMClient{
		endpoint:  endpoint,
		serverKey: serverKey,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

type fcmRequest struct {
	To           string            `json:"to"`
	Notification fcmNotification   `json:"notification"`
	Data         map[string]string `json:"data,omitempty"`
}

type fcmNotification struct {
	Title string `json:"title"`
	Body  string `json:"body"`
}

type fcmResponse struct {
	Success int `json:"success"`
	Failure int `json:"failure"`
	Results []struct {
		Error string `json:"error"`
	} `json:"results"`
}

// Send implements Client.
func (c *FCMClient) Send(ctx context.Context, n *Notification) error {
	start := time.Now()
	defer func() {
		metrics.PushDuration.Observe(time.Since(start).Seconds())
	}()

	payload, err := json.Marshal(fcmRequest{
		To: n.Token,
		Notification: fcmNotification{
			Title: n.Title,
			Body:  n.Body,
		},
		Data: n.Data,
	})
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "key="+c.serverKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("push request failed: %w", err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusOK:
		// fall through to per-result check
	case resp.StatusCode >= 400 && resp.StatusCode < 500:
		return fmt.Errorf("%w: provider status %d", ErrUndeliverable, resp.StatusCode)
	default:
		return fmt.Errorf("push provider unavailable: status %d", resp.StatusCode)
	}

	var body fcmResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		// Accepted by the provider; an unreadable body is not worth failing.
		return nil
	}
	if body.Failure > 0 && len(body.Results) > 0 && body.Results[0].Error != "" {
		return fmt.Errorf("%w: %s", ErrUndeliverable, body.Results[0].Error)
	}
	return nil
}
