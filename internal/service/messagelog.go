package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/adoptmatch/chat-service/internal/model"
	"github.com/adoptmatch/chat-service/internal/store"
	"github.com/adoptmatch/chat-service/pkg/logger"
	"github.com/adoptmatch/chat-service/pkg/metrics"
)

// Bus is the live transport appended messages are published on. Implemented
// by the JetStream stream manager; tests substitute an in-process fake.
type Bus interface {
	// Publish announces an appended message and returns its stream sequence.
	Publish(ctx context.Context, msg *model.Message) (uint64, error)

	// SubscribeRoom starts delivering messages appended to the room from now
	// on. The returned stop function is idempotent.
	SubscribeRoom(ctx context.Context, roomID string, handler func(model.Message)) (func(), error)
}

// MessageLog is the append-only, per-room ordered message log with a live
// subscription feed. Appends are durably persisted first and then announced
// on the bus; subscriptions replay the persisted history before switching to
// live deliveries, so a feed is at-least-once and consumers de-dup by
// message id.
type MessageLog struct {
	rooms    *store.RoomStore
	messages *store.MessageStore
	bus      Bus
	logger   *logger.Logger
}

// NewMessageLog creates a message log.
func NewMessageLog(rooms *store.RoomStore, messages *store.MessageStore, bus Bus, log *logger.Logger) *MessageLog {
	return &MessageLog{rooms: rooms, messages: messages, bus: bus, logger: log}
}

// Append persists a message to the room and announces it on the bus. The
// room must already exist: the log never creates rooms, a send into an
// unresolved room fails with ErrRoomNotFound and persists nothing. CreatedAt
// is assigned here, on the server clock, so ordering survives client clock
// skew. An empty or whitespace body is accepted.
func (l *MessageLog) Append(ctx context.Context, roomID, authorID string, authorRole model.Role, body string) (*model.Message, error) {
	exists, err := l.rooms.Exists(ctx, roomID)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", model.ErrBackendUnavailable, err)
	}
	if !exists {
		return nil, model.ErrRoomNotFound
	}

	msg := &model.Message{
		ID:         uuid.Must(uuid.NewV7()).String(),
		RoomID:     roomID,
		AuthorID:   authorID,
		AuthorRole: authorRole,
		Body:       body,
		CreatedAt:  time.Now().UTC(),
	}

	if err := l.messages.Append(ctx, msg); err != nil {
		return nil, fmt.Errorf("%w: %v", model.ErrBackendUnavailable, err)
	}

	// The message is durable at this point. A failed publish only delays
	// live feeds and dispatch until reconnect/replay, it must not fail the
	// send or provoke a duplicate append on retry.
	seq, err := l.bus.Publish(ctx, msg)
	if err != nil {
		l.logger.Warn("failed to publish appended message",
			zap.String("room_id", roomID),
			zap.String("message_id", msg.ID),
			zap.Error(err),
		)
	} else {
		msg.Sequence = seq
	}

	metrics.MessagesAppendedTotal.WithLabelValues(string(authorRole)).Inc()
	return msg, nil
}

// History returns a page of the room's messages, newest first.
func (l *MessageLog) History(ctx context.Context, roomID string, limit int, cursor *string) (*model.ListMessagesResponse, error) {
	if limit <= 0 {
		limit = 50
	}
	if limit > 100 {
		limit = 100
	}

	exists, err := l.rooms.Exists(ctx, roomID)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", model.ErrBackendUnavailable, err)
	}
	if !exists {
		return nil, model.ErrRoomNotFound
	}

	messages, next, err := l.messages.Page(ctx, roomID, limit, cursor)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", model.ErrBackendUnavailable, err)
	}

	resp := &model.ListMessagesResponse{
		Messages: messages,
		HasMore:  len(messages) == limit,
	}
	if next != nil {
		resp.NextCursor = *next
	}
	return resp, nil
}

// Latest returns the newest message of the room, or nil for an empty room.
// Used to decorate room listings; absence is not an error.
func (l *MessageLog) Latest(ctx context.Context, roomID string) (*model.Message, error) {
	msg, err := l.messages.Latest(ctx, roomID)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", model.ErrBackendUnavailable, err)
	}
	return msg, nil
}

// errSubscriptionClosed stops a history replay whose subscriber went away.
var errSubscriptionClosed = errors.New("subscription closed")

// Subscription is a live, restartable feed of one room's messages. The feed
// delivers the full history first, then every subsequent append, ascending by
// CreatedAt. A message in flight at the moment of Unsubscribe may or may not
// be delivered; duplicates across the replay/live seam are possible, so
// consumers must be duplicate-safe by message id.
type Subscription struct {
	roomID string
	ch     chan model.Message
	done   chan struct{}
	stop   func()
	once   sync.Once
}

// Feed returns the message channel. It is never closed; select on Done to
// notice the end of the subscription.
func (s *Subscription) Feed() <-chan model.Message {
	return s.ch
}

// Done is closed when the subscription ends.
func (s *Subscription) Done() <-chan struct{} {
	return s.done
}

// RoomID returns the subscribed room.
func (s *Subscription) RoomID() string {
	return s.roomID
}

// Unsubscribe stops delivery and releases the live consumer. Idempotent and
// safe to call concurrently with in-flight deliveries.
func (s *Subscription) Unsubscribe() {
	s.once.Do(func() {
		if s.stop != nil {
			s.stop()
		}
		close(s.done)
		metrics.DecrementSubscriptions()
	})
}

// deliver hands msg to the subscriber unless the subscription ended.
func (s *Subscription) deliver(msg model.Message) bool {
	select {
	case <-s.done:
		return false
	case s.ch <- msg:
		return true
	}
}

// Subscribe opens a live feed for the room: full history replay followed by
// live appends. Live messages are queued by the bus callback and handed over
// by a single delivery goroutine, so they never get ahead of older buffered
// ones and a slow reader backs up only this subscription's queue, never the
// bus delivery goroutine.
func (l *MessageLog) Subscribe(ctx context.Context, roomID string) (*Subscription, error) {
	exists, err := l.rooms.Exists(ctx, roomID)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", model.ErrBackendUnavailable, err)
	}
	if !exists {
		return nil, model.ErrRoomNotFound
	}

	sub := &Subscription{
		roomID: roomID,
		ch:     make(chan model.Message, 64),
		done:   make(chan struct{}),
	}

	var (
		mu      sync.Mutex
		pending []model.Message
	)
	kick := make(chan struct{}, 1)

	// The callback only appends and signals; delivery happens on the
	// subscription's own goroutine below.
	stop, err := l.bus.SubscribeRoom(ctx, roomID, func(msg model.Message) {
		mu.Lock()
		pending = append(pending, msg)
		mu.Unlock()
		select {
		case kick <- struct{}{}:
		default:
		}
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", model.ErrBackendUnavailable, err)
	}
	sub.stop = stop

	go func() {
		err := l.messages.Replay(ctx, roomID, func(msg model.Message) error {
			if !sub.deliver(msg) {
				return errSubscriptionClosed
			}
			return nil
		})
		if err != nil && !errors.Is(err, errSubscriptionClosed) {
			l.logger.Error("history replay failed",
				zap.String("room_id", roomID), zap.Error(err))
		}

		// Drain the live queue in arrival order. A message queued while a
		// batch is in flight leaves a buffered kick behind, so no wakeup is
		// ever lost.
		for {
			mu.Lock()
			buffered := pending
			pending = nil
			mu.Unlock()

			for _, msg := range buffered {
				if !sub.deliver(msg) {
					return
				}
			}

			select {
			case <-sub.done:
				return
			case <-kick:
			}
		}
	}()

	metrics.IncrementSubscriptions()
	return sub, nil
}
