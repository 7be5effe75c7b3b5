package model

import (
	"time"
)

// Message is one entry in a room's append-only log. Messages are immutable
// once appended; CreatedAt is assigned by the server at acceptance and is the
// sole ordering key within a room.
type Message struct {
	ID         string    `json:"id"`
	RoomID     string    `json:"room_id"`
	AuthorID   string    `json:"author_id"`
	AuthorRole Role      `json:"author_role"`
	Body       string    `json:"body"`
	CreatedAt  time.Time `json:"created_at"`

	// Sequence is the JetStream stream sequence, populated on reads from the
	// live feed. Zero for messages served from the durable store.
	Sequence uint64 `json:"sequence,omitempty"`
}

// SendMessageRequest is the request to append a message to a room.
// An empty body is allowed; placeholder substitution happens at notification
// time, not at send time.
type SendMessageRequest struct {
	Body string `json:"body"`
}

// ListMessagesResponse is the response for a message history page.
type ListMessagesResponse struct {
	Messages   []Message `json:"messages"`
	HasMore    bool      `json:"has_more"`
	NextCursor string    `json:"next_cursor,omitempty"`
}
