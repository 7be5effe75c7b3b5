// Package model defines data structures for the adoption chat service.
package model

import (
	"time"
)

// Role tags a participant as an adopter or a shelter organization.
type Role string

const (
	RoleUser         Role = "user"
	RoleOrganization Role = "organization"
)

// Valid reports whether the role is one of the two chat participant roles.
func (r Role) Valid() bool {
	return r == RoleUser || r == RoleOrganization
}

// Participant identifies one side of a room.
type Participant struct {
	ID   string `json:"id"`
	Role Role   `json:"role"`
}

// Room is a conversation channel bound to exactly one unordered pair of
// participants. At most one room exists per pair; the pair is never re-keyed.
type Room struct {
	ID           string      `json:"id"`
	ParticipantA Participant `json:"participant_a"`
	ParticipantB Participant `json:"participant_b"`
	CreatedAt    time.Time   `json:"created_at"`
	LastMessage  *Message    `json:"last_message,omitempty"`
}

// Has reports whether actorID is one of the room's participants.
func (r *Room) Has(actorID string) bool {
	return r.ParticipantA.ID == actorID || r.ParticipantB.ID == actorID
}

// ResolveRoomRequest is the request to resolve or create a room with a counterpart.
type ResolveRoomRequest struct {
	CounterpartID   string `json:"counterpart_id"`
	CounterpartRole Role   `json:"counterpart_role"`
}

// ListRoomsResponse is the response for listing the caller's rooms.
type ListRoomsResponse struct {
	Rooms []Room `json:"rooms"`
	Total int    `json:"total"`
}
