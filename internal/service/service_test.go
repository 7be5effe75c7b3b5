package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/stretchr/testify/require"

	"github.com/adoptmatch/chat-service/internal/model"
	"github.com/adoptmatch/chat-service/internal/push"
	"github.com/adoptmatch/chat-service/internal/store"
	"github.com/adoptmatch/chat-service/pkg/logger"
)

// fakeBus is an in-process Bus: publishes fan out synchronously to the
// registered room handlers.
type fakeBus struct {
	mu          sync.Mutex
	published   []*model.Message
	handlers    map[string][]func(model.Message)
	failPublish bool
}

func newFakeBus() *fakeBus {
	return &fakeBus{handlers: make(map[string][]func(model.Message))}
}

func (b *fakeBus) Publish(ctx context.Context, msg *model.Message) (uint64, error) {
	b.mu.Lock()
	if b.failPublish {
		b.mu.Unlock()
		return 0, errors.New("bus unavailable")
	}
	b.published = append(b.published, msg)
	seq := uint64(len(b.published))
	handlers := append([]func(model.Message){}, b.handlers[msg.RoomID]...)
	b.mu.Unlock()

	delivered := *msg
	delivered.Sequence = seq
	for _, h := range handlers {
		h(delivered)
	}
	return seq, nil
}

func (b *fakeBus) SubscribeRoom(ctx context.Context, roomID string, handler func(model.Message)) (func(), error) {
	b.mu.Lock()
	b.handlers[roomID] = append(b.handlers[roomID], handler)
	idx := len(b.handlers[roomID]) - 1
	b.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			b.mu.Lock()
			b.handlers[roomID][idx] = func(model.Message) {}
			b.mu.Unlock()
		})
	}, nil
}

func (b *fakeBus) publishedCount() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.published)
}

// fakePush records sends and optionally fails every one of them.
type fakePush struct {
	mu    sync.Mutex
	sent  []*push.Notification
	err   error
}

func (p *fakePush) Send(ctx context.Context, n *push.Notification) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return p.err
	}
	p.sent = append(p.sent, n)
	return nil
}

func (p *fakePush) sentCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.sent)
}

func (p *fakePush) last() *push.Notification {
	p.mu.Lock()
	defer p.mu.Unlock()
	if len(p.sent) == 0 {
		return nil
	}
	return p.sent[len(p.sent)-1]
}

// fixture bundles the chat core over a throwaway badger db and fakes.
type fixture struct {
	rooms      *store.RoomStore
	messages   *store.MessageStore
	tokens     *store.TokenStore
	records    *store.NotificationStore
	bus        *fakeBus
	pushClient *fakePush
	directory  *RoomDirectory
	log        *MessageLog
	dispatcher *NotificationDispatcher
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	db, err := badger.Open(badger.DefaultOptions(t.TempDir()).WithLoggingLevel(badger.ERROR))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	f := &fixture{
		rooms:      store.NewRoomStore(db),
		messages:   store.NewMessageStore(db),
		tokens:     store.NewTokenStore(db),
		records:    store.NewNotificationStore(db),
		bus:        newFakeBus(),
		pushClient: &fakePush{},
	}
	nop := logger.NewNop()
	f.directory = NewRoomDirectory(f.rooms, nop)
	f.log = NewMessageLog(f.rooms, f.messages, f.bus, nop)
	f.dispatcher = NewNotificationDispatcher(f.rooms, f.tokens, f.records, f.pushClient, "AdoptMatch", nop)
	return f
}

func (f *fixture) mustRoom(t *testing.T) *model.Room {
	t.Helper()
	room, err := f.directory.ResolveOrCreate(context.Background(),
		model.Participant{ID: "u1", Role: model.RoleUser},
		model.Participant{ID: "o1", Role: model.RoleOrganization},
	)
	require.NoError(t, err)
	return room
}

// recv pulls the next message from a feed or fails the test.
func recv(t *testing.T, feed <-chan model.Message) model.Message {
	t.Helper()
	select {
	case msg := <-feed:
		return msg
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for message")
		return model.Message{}
	}
}

// expectSilence asserts nothing arrives on the feed for a short window.
func expectSilence(t *testing.T, feed <-chan model.Message) {
	t.Helper()
	select {
	case msg := <-feed:
		t.Fatalf("unexpected message delivered: %s", msg.ID)
	case <-time.After(100 * time.Millisecond):
	}
}
