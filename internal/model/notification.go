package model

import (
	"time"
)

// DeliveryToken is the opaque push handle registered by an actor's device.
// At most one live value exists per actor; the last registration wins. The
// token format is the push provider's business, never validated here.
type DeliveryToken struct {
	ActorID   string    `json:"actor_id"`
	Token     string    `json:"-"`
	Platform  string    `json:"platform,omitempty"`
	UpdatedAt time.Time `json:"updated_at"`
}

// RegisterTokenRequest is the request to register a device delivery token.
type RegisterTokenRequest struct {
	Token    string `json:"token"`
	Platform string `json:"platform,omitempty"`
}

// NotificationRecord is the in-app trace of a push attempt. One is written
// per dispatched message regardless of whether the push itself went through,
// so the recipient's notification list stays consistent when push delivery
// fails. Read flips false to true exactly once.
type NotificationRecord struct {
	ID          string    `json:"id"`
	RecipientID string    `json:"recipient_id"`
	Title       string    `json:"title"`
	Body        string    `json:"body"`
	RoomID      string    `json:"room_id"`
	CreatedAt   time.Time `json:"created_at"`
	Read        bool      `json:"read"`
}

// ListNotificationsResponse is the response for the recipient's notification list.
type ListNotificationsResponse struct {
	Notifications []NotificationRecord `json:"notifications"`
	Unread        int                  `json:"unread"`
}
