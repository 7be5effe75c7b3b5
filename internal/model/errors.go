package model

import "errors"

// Error taxonomy for the chat core. Callers branch on these with errors.Is;
// everything else that bubbles out of the stores or transport is wrapped as
// ErrBackendUnavailable and safe to retry.
var (
	// ErrInvalidParticipants means a participant pair was empty, equal, or
	// carried an unknown role. Not retryable.
	ErrInvalidParticipants = errors.New("invalid participants")

	// ErrNotAParticipant means the acting identity is not a member of the
	// room. For the dispatcher this indicates a data-integrity bug.
	ErrNotAParticipant = errors.New("not a participant of the room")

	// ErrRoomNotFound means an operation referenced a room that was never
	// created. Rooms are created by resolution, never by a first message.
	ErrRoomNotFound = errors.New("room not found")

	// ErrNotificationNotFound means a notification record id did not resolve
	// for the acting recipient.
	ErrNotificationNotFound = errors.New("notification not found")

	// ErrBackendUnavailable wraps transient store or transport failures.
	ErrBackendUnavailable = errors.New("backend unavailable")
)
