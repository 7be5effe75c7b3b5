package middleware

import (
	"errors"
	"unicode/utf8"

	"github.com/google/uuid"
)

// ValidateMessageBody validates a message body. Empty bodies are allowed;
// the dispatcher substitutes a placeholder at notification time.
func ValidateMessageBody(body string) error {
	if len(body) > 10000 {
		return errors.New("body exceeds maximum length")
	}
	if !utf8.ValidString(body) {
		return errors.New("body must be valid UTF-8")
	}
	return nil
}

// ValidateRoomID validates a room ID.
func ValidateRoomID(id string) error {
	if _, err := uuid.Parse(id); err != nil {
		return errors.New("invalid room ID format")
	}
	return nil
}

// ValidateNotificationID validates a notification record ID.
func ValidateNotificationID(id string) error {
	if _, err := uuid.Parse(id); err != nil {
		return errors.New("invalid notification ID format")
	}
	return nil
}

// ValidateActorID validates a participant/actor identifier.
func ValidateActorID(id string) error {
	if len(id) == 0 {
		return errors.New("actor ID cannot be empty")
	}
	if len(id) > 64 {
		return errors.New("actor ID exceeds maximum length")
	}
	return nil
}

// ValidateDeliveryToken validates a device delivery token handle. The token
// is opaque; only basic shape checks happen here, the provider owns the rest.
func ValidateDeliveryToken(token string) error {
	if len(token) == 0 {
		return errors.New("token cannot be empty")
	}
	if len(token) > 4096 {
		return errors.New("token exceeds maximum length")
	}
	return nil
}
