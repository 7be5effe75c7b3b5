package nats

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/nats-io/nats.go/jetstream"
	"go.uber.org/zap"

	"github.com/adoptmatch/chat-service/internal/model"
)

const (
	// StreamName is the name of the chat messages stream.
	StreamName = "CHAT_MESSAGES"

	// SubjectPrefix is the prefix for all room subjects.
	SubjectPrefix = "chat.room"
)

// StreamManager handles JetStream stream operations for the message feed.
type StreamManager struct {
	client *Client
}

// NewStreamManager creates a new stream manager.
func NewStreamManager(client *Client) *StreamManager {
	return &StreamManager{client: client}
}

// EnsureStream ensures the chat messages stream exists with proper configuration.
func (m *StreamManager) EnsureStream(ctx context.Context) error {
	js := m.client.JetStream()

	// Check if stream exists
	_, err := js.Stream(ctx, StreamName)
	if err == nil {
		return nil // Stream already exists
	}

	// Create stream
	_, err = js.CreateStream(ctx, jetstream.StreamConfig{
		Name:        StreamName,
		Subjects:    []string{fmt.Sprintf("%s.>", SubjectPrefix)},
		Retention:   jetstream.LimitsPolicy,
		MaxAge:      90 * 24 * time.Hour,
		Storage:     jetstream.FileStorage,
		Replicas:    1,
		Compression: jetstream.S2Compression,
		DenyDelete:  true,
		DenyPurge:   true,
		Description: "Appended chat messages for live feeds and notification dispatch",
	})
	if err != nil {
		return fmt.Errorf("failed to create stream: %w", err)
	}

	return nil
}

// MessageSubject returns the subject a room's messages are published on.
func MessageSubject(roomID string) string {
	return fmt.Sprintf("%s.%s.msg", SubjectPrefix, roomID)
}

// AllMessagesFilter matches every room's message subject.
func AllMessagesFilter() string {
	return fmt.Sprintf("%s.*.msg", SubjectPrefix)
}

// Publish publishes an appended message to JetStream and returns its stream
// sequence.
func (m *StreamManager) Publish(ctx context.Context, msg *model.Message) (uint64, error) {
	data, err := json.Marshal(msg)
	if err != nil {
		return 0, fmt.Errorf("failed to marshal message: %w", err)
	}

	ack, err := m.client.JetStream().Publish(ctx, MessageSubject(msg.RoomID), data)
	if err != nil {
		return 0, fmt.Errorf("failed to publish message: %w", err)
	}

	return ack.Sequence, nil
}

// SubscribeRoom starts a live feed of messages appended to the room from now
// on. handler runs on the consumer's delivery goroutine and must not block;
// the returned stop function is idempotent.
func (m *StreamManager) SubscribeRoom(ctx context.Context, roomID string, handler func(model.Message)) (func(), error) {
	js := m.client.JetStream()

	consumer, err := js.CreateConsumer(ctx, StreamName, jetstream.ConsumerConfig{
		FilterSubject: MessageSubject(roomID),
		AckPolicy:     jetstream.AckNonePolicy,
		DeliverPolicy: jetstream.DeliverNewPolicy,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create live consumer: %w", err)
	}

	cc, err := consumer.Consume(func(jmsg jetstream.Msg) {
		var msg model.Message
		if err := json.Unmarshal(jmsg.Data(), &msg); err != nil {
			m.client.logger.Error("failed to decode live message",
				zap.String("room_id", roomID), zap.Error(err))
			return
		}
		if meta, err := jmsg.Metadata(); err == nil {
			msg.Sequence = meta.Sequence.Stream
		}
		handler(msg)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to start live consumer: %w", err)
	}

	return cc.Stop, nil
}

// ConsumeAppended runs a durable consumer over every room's appended
// messages, invoking handler once per message. Messages are acked regardless
// of handler outcome: notification work is best-effort and is never redelivered
// indefinitely. Blocks until ctx is done.
func (m *StreamManager) ConsumeAppended(ctx context.Context, durable string, handler func(context.Context, model.Message)) error {
	js := m.client.JetStream()

	consumer, err := js.CreateOrUpdateConsumer(ctx, StreamName, jetstream.ConsumerConfig{
		Durable:       durable,
		FilterSubject: AllMessagesFilter(),
		AckPolicy:     jetstream.AckExplicitPolicy,
		DeliverPolicy: jetstream.DeliverAllPolicy,
		MaxDeliver:    1,
	})
	if err != nil {
		return fmt.Errorf("failed to create durable consumer: %w", err)
	}

	cc, err := consumer.Consume(func(jmsg jetstream.Msg) {
		defer func() {
			if err := jmsg.Ack(); err != nil {
				m.client.logger.Warn("failed to ack dispatched message", zap.Error(err))
			}
		}()

		var msg model.Message
		if err := json.Unmarshal(jmsg.Data(), &msg); err != nil {
			m.client.logger.Error("failed to decode appended message", zap.Error(err))
			return
		}
		if meta, err := jmsg.Metadata(); err == nil {
			msg.Sequence = meta.Sequence.Stream
		}
		handler(ctx, msg)
	})
	if err != nil {
		return fmt.Errorf("failed to start durable consumer: %w", err)
	}
	defer cc.Stop()

	<-ctx.Done()
	return ctx.Err()
}
