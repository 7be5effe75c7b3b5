package store

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/dgraph-io/badger/v4"
	"github.com/samber/lo"

	"github.com/adoptmatch/chat-service/internal/model"
)

const notifKeyPrefix = "notif:"

// NotificationStore persists in-app notification records per recipient,
// keyed for reverse-chronological listing.
type NotificationStore struct {
	db *badger.DB
}

// NewNotificationStore creates a notification store on db.
func NewNotificationStore(db *badger.DB) *NotificationStore {
	return &NotificationStore{db: db}
}

// Recipient ids are caller-supplied and get encoded, so an id containing ":"
// cannot leak another recipient's records into a prefix scan.
func notifKey(rec *model.NotificationRecord) []byte {
	return []byte(fmt.Sprintf("%s%s:%019d:%s",
		notifKeyPrefix, encodeID(rec.RecipientID), rec.CreatedAt.UnixNano(), rec.ID))
}

func recipientPrefix(recipientID string) []byte {
	return []byte(notifKeyPrefix + encodeID(recipientID) + ":")
}

// Create persists a new notification record.
func (s *NotificationStore) Create(ctx context.Context, rec *model.NotificationRecord) error {
	data, err := json.Marshal(rec)
	if err != nil {
		return err
	}
	return s.db.Update(func(txn *badger.Txn) error {
		return txn.Set(notifKey(rec), data)
	})
}

// List returns the recipient's notification records, newest first.
func (s *NotificationStore) List(ctx context.Context, recipientID string, unreadOnly bool) ([]model.NotificationRecord, error) {
	var records []model.NotificationRecord
	err := s.db.View(func(txn *badger.Txn) error {
		prefix := recipientPrefix(recipientID)
		opts := badger.DefaultIteratorOptions
		opts.Reverse = true
		it := txn.NewIterator(opts)
		defer it.Close()

		seekKey := append(append([]byte{}, prefix...), []byte("9999999999999999999")...)
		for it.Seek(seekKey); it.ValidForPrefix(prefix); it.Next() {
			var rec model.NotificationRecord
			if err := it.Item().Value(func(v []byte) error {
				return json.Unmarshal(v, &rec)
			}); err != nil {
				return err
			}
			records = append(records, rec)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	if unreadOnly {
		records = lo.Filter(records, func(rec model.NotificationRecord, _ int) bool {
			return !rec.Read
		})
	}
	return records, nil
}

// CountUnread returns the number of unread records for the recipient.
func (s *NotificationStore) CountUnread(ctx context.Context, recipientID string) (int, error) {
	unread, err := s.List(ctx, recipientID, true)
	if err != nil {
		return 0, err
	}
	return len(unread), nil
}

// MarkRead transitions the record's read flag to true. The transition happens
// at most once; marking an already-read record is a no-op. Returns
// model.ErrNotificationNotFound when the id does not belong to the recipient.
func (s *NotificationStore) MarkRead(ctx context.Context, recipientID, notificationID string) error {
	return s.db.Update(func(txn *badger.Txn) error {
		prefix := recipientPrefix(recipientID)
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()

		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			key := it.Item().KeyCopy(nil)
			if !strings.HasSuffix(string(key), ":"+notificationID) {
				continue
			}
			var rec model.NotificationRecord
			if err := it.Item().Value(func(v []byte) error {
				return json.Unmarshal(v, &rec)
			}); err != nil {
				return err
			}
			if rec.Read {
				return nil
			}
			rec.Read = true
			data, err := json.Marshal(rec)
			if err != nil {
				return err
			}
			return txn.Set(key, data)
		}
		return model.ErrNotificationNotFound
	})
}
