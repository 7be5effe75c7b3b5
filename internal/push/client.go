// Package push provides the push-delivery provider client.
package push

import (
	"context"
	"errors"
)

// ErrUndeliverable means the provider rejected the send, typically because
// the token is invalid or expired. Callers treat it as terminal for this
// notification: no retry, never surfaced to the message sender.
var ErrUndeliverable = errors.New("notification undeliverable")

// Notification is the payload handed to the provider. Data carries the
// room id so a tap deep-links straight into the conversation.
type Notification struct {
	Token string            `json:"-"`
	Title string            `json:"title"`
	Body  string            `json:"body"`
	Data  map[string]string `json:"data,omitempty"`
}

// Client sends push notifications to a device token.
type Client interface {
	// Send delivers the notification. A nil error means the provider
	// accepted the send; ErrUndeliverable or any other error means it did
	// not, and the caller decides whether that matters.
	Send(ctx context.Context, n *Notification) error
}

// NopClient discards every notification. Used when push delivery is disabled.
type NopClient struct{}

// Send implements Client.
func (NopClient) Send(ctx context.Context, n *Notification) error {
	return nil
}
