package service

import (
	"context"

	"github.com/adoptmatch/chat-service/internal/model"
)

// ChatSession composes room resolution and the live feed for one open
// conversation view. Identity is passed in explicitly; the session never
// reads ambient logged-in state.
type ChatSession struct {
	room *model.Room
	self model.Participant
	log  *MessageLog
	sub  *Subscription
}

// OpenSession resolves (or creates) the room between self and counterpart
// and subscribes to its feed.
func OpenSession(ctx context.Context, directory *RoomDirectory, msgLog *MessageLog, self, counterpart model.Participant) (*ChatSession, error) {
	room, err := directory.ResolveOrCreate(ctx, self, counterpart)
	if err != nil {
		return nil, err
	}

	sub, err := msgLog.Subscribe(ctx, room.ID)
	if err != nil {
		return nil, err
	}

	return &ChatSession{
		room: room,
		self: self,
		log:  msgLog,
		sub:  sub,
	}, nil
}

// Room returns the resolved room.
func (s *ChatSession) Room() *model.Room {
	return s.room
}

// Feed returns the session's live message feed: history first, then live
// appends, duplicate-safe by message id.
func (s *ChatSession) Feed() <-chan model.Message {
	return s.sub.Feed()
}

// Done is closed when the session's subscription ends.
func (s *ChatSession) Done() <-chan struct{} {
	return s.sub.Done()
}

// Send appends a message authored by the session's identity. Empty bodies
// are allowed; the call returns once the append is acknowledged and never
// waits for notification delivery.
func (s *ChatSession) Send(ctx context.Context, body string) (*model.Message, error) {
	return s.log.Append(ctx, s.room.ID, s.self.ID, s.self.Role, body)
}

// Close releases the subscription. Idempotent.
func (s *ChatSession) Close() {
	s.sub.Unsubscribe()
}
