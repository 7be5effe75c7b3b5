package store

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/dgraph-io/badger/v4"

	"github.com/adoptmatch/chat-service/internal/model"
)

const msgKeyPrefix = "msg:"

// MessageStore persists the append-only per-room message log.
//
// Keys are "msg:{roomID}:{paddedUnixNano}:{messageID}" so a prefix scan yields
// messages in chronological order; the 19-digit zero padding keeps the
// lexicographic order equal to the numeric one, and the message id breaks
// same-nanosecond ties deterministically by insertion.
type MessageStore struct {
	db *badger.DB
}

// NewMessageStore creates a message store on db.
func NewMessageStore(db *badger.DB) *MessageStore {
	return &MessageStore{db: db}
}

func messageKey(msg *model.Message) []byte {
	return []byte(fmt.Sprintf("%s%s:%019d:%s",
		msgKeyPrefix, msg.RoomID, msg.CreatedAt.UnixNano(), msg.ID))
}

func roomMessagePrefix(roomID string) []byte {
	return []byte(msgKeyPrefix + roomID + ":")
}

// Append persists msg. Messages are immutable; the caller assigns id and
// server timestamp before calling.
func (s *MessageStore) Append(ctx context.Context, msg *model.Message) error {
	data, err := json.Marshal(msg)
	if err != nil {
		return err
	}
	return s.db.Update(func(txn *badger.Txn) error {
		return txn.Set(messageKey(msg), data)
	})
}

// Replay streams the full room history ascending by CreatedAt, invoking fn
// for each message. fn returning an error stops the scan.
func (s *MessageStore) Replay(ctx context.Context, roomID string, fn func(model.Message) error) error {
	return s.db.View(func(txn *badger.Txn) error {
		prefix := roomMessagePrefix(roomID)
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()

		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			if err := ctx.Err(); err != nil {
				return err
			}
			var msg model.Message
			if err := it.Item().Value(func(v []byte) error {
				return json.Unmarshal(v, &msg)
			}); err != nil {
				return err
			}
			if err := fn(msg); err != nil {
				return err
			}
		}
		return nil
	})
}

// Page returns up to limit messages before the cursor, newest first, plus the
// cursor for the next older page. A nil cursor starts from the newest message.
func (s *MessageStore) Page(ctx context.Context, roomID string, limit int, cursor *string) ([]model.Message, *string, error) {
	var (
		messages []model.Message
		lastKey  string
	)
	err := s.db.View(func(txn *badger.Txn) error {
		prefix := roomMessagePrefix(roomID)
		opts := badger.DefaultIteratorOptions
		opts.Reverse = true
		it := txn.NewIterator(opts)
		defer it.Close()

		// Seek past every possible timestamp when no cursor is given.
		seekKey := append(append([]byte{}, prefix...), []byte("9999999999999999999")...)
		if cursor != nil {
			seekKey = append(append([]byte{}, prefix...), []byte(*cursor)...)
		}

		it.Seek(seekKey)
		if cursor != nil && it.ValidForPrefix(prefix) {
			it.Next()
		}

		for ; it.ValidForPrefix(prefix); it.Next() {
			if len(messages) == limit {
				break
			}
			item := it.Item()
			lastKey = string(item.Key()[len(prefix):])
			var msg model.Message
			if err := item.Value(func(v []byte) error {
				return json.Unmarshal(v, &msg)
			}); err != nil {
				return err
			}
			messages = append(messages, msg)
		}
		return nil
	})
	if err != nil {
		return nil, nil, err
	}
	if lastKey == "" {
		return messages, nil, nil
	}
	return messages, &lastKey, nil
}

// Latest returns the newest message in the room, or nil for an empty room.
func (s *MessageStore) Latest(ctx context.Context, roomID string) (*model.Message, error) {
	msgs, _, err := s.Page(ctx, roomID, 1, nil)
	if err != nil {
		return nil, err
	}
	if len(msgs) == 0 {
		return nil, nil
	}
	return &msgs[0], nil
}
