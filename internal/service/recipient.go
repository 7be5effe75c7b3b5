package service

import (
	"fmt"

	"github.com/adoptmatch/chat-service/internal/model"
)

// OtherParticipant returns the counterpart of selfID in the room. Pure
// function over already-resolved room data. Returns ErrNotAParticipant when
// selfID is neither side of the pair.
func OtherParticipant(room *model.Room, selfID string) (model.Participant, error) {
	switch selfID {
	case room.ParticipantA.ID:
		return room.ParticipantB, nil
	case room.ParticipantB.ID:
		return room.ParticipantA, nil
	default:
		return model.Participant{}, fmt.Errorf("%w: %s in room %s", model.ErrNotAParticipant, selfID, room.ID)
	}
}
