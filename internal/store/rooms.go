package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/google/uuid"

	"github.com/adoptmatch/chat-service/internal/model"
)

const (
	roomKeyPrefix   = "room:"
	pairKeyPrefix   = "pair:"
	memberKeyPrefix = "member:"
)

// RoomStore persists rooms with a server-side uniqueness constraint on the
// unordered participant pair. The pair index key is written in the same
// transaction as the room record, so Badger's conflict detection serializes
// concurrent first-contact from both sides: the losing transaction retries
// and observes the winner's room.
type RoomStore struct {
	db *badger.DB
}

// NewRoomStore creates a room store on db.
func NewRoomStore(db *badger.DB) *RoomStore {
	return &RoomStore{db: db}
}

func roomKey(id string) []byte {
	return []byte(roomKeyPrefix + id)
}

// pairKey addresses the unordered pair with the two ids sorted, so (a,b) and
// (b,a) hit the same key. Ids are encoded so a delimiter inside an id cannot
// collide two distinct pairs onto one key.
func pairKey(a, b string) []byte {
	lo, hi := a, b
	if hi < lo {
		lo, hi = hi, lo
	}
	return []byte(pairKeyPrefix + encodeID(lo) + "/" + encodeID(hi))
}

func memberKey(actorID, roomID string) []byte {
	return []byte(memberKeyPrefix + encodeID(actorID) + ":" + roomID)
}

// ResolveOrCreate returns the room for the unordered pair (a, b), creating it
// if absent. The returned bool is true when this call created the room.
// Safe to call concurrently from both sides of the pair.
func (s *RoomStore) ResolveOrCreate(ctx context.Context, a, b model.Participant) (*model.Room, bool, error) {
	var (
		room    *model.Room
		created bool
	)

	// Badger aborts one of two conflicting find-or-create transactions; a
	// single retry then lands on the committed room.
	for attempt := 0; attempt < 3; attempt++ {
		if err := ctx.Err(); err != nil {
			return nil, false, err
		}

		room, created = nil, false
		err := s.db.Update(func(txn *badger.Txn) error {
			pk := pairKey(a.ID, b.ID)

			item, err := txn.Get(pk)
			if err == nil {
				var roomID string
				if err := item.Value(func(v []byte) error {
					roomID = string(v)
					return nil
				}); err != nil {
					return err
				}
				room, err = getRoom(txn, roomID)
				return err
			}
			if !errors.Is(err, badger.ErrKeyNotFound) {
				return err
			}

			r := &model.Room{
				ID:           uuid.Must(uuid.NewV7()).String(),
				ParticipantA: a,
				ParticipantB: b,
				CreatedAt:    time.Now().UTC(),
			}
			data, err := json.Marshal(r)
			if err != nil {
				return err
			}
			if err := txn.Set(roomKey(r.ID), data); err != nil {
				return err
			}
			if err := txn.Set(pk, []byte(r.ID)); err != nil {
				return err
			}
			if err := txn.Set(memberKey(a.ID, r.ID), nil); err != nil {
				return err
			}
			if err := txn.Set(memberKey(b.ID, r.ID), nil); err != nil {
				return err
			}
			room, created = r, true
			return nil
		})
		if err == nil {
			return room, created, nil
		}
		if !errors.Is(err, badger.ErrConflict) {
			return nil, false, fmt.Errorf("resolve room: %w", err)
		}
	}

	return nil, false, fmt.Errorf("resolve room: %w", badger.ErrConflict)
}

// Get returns the room by id, or model.ErrRoomNotFound.
func (s *RoomStore) Get(ctx context.Context, roomID string) (*model.Room, error) {
	var room *model.Room
	err := s.db.View(func(txn *badger.Txn) error {
		var err error
		room, err = getRoom(txn, roomID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return room, nil
}

// Exists reports whether the room id resolves to a stored room.
func (s *RoomStore) Exists(ctx context.Context, roomID string) (bool, error) {
	err := s.db.View(func(txn *badger.Txn) error {
		_, err := txn.Get(roomKey(roomID))
		return err
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// ListForActor returns every room the actor participates in.
func (s *RoomStore) ListForActor(ctx context.Context, actorID string) ([]model.Room, error) {
	var rooms []model.Room
	err := s.db.View(func(txn *badger.Txn) error {
		prefix := []byte(memberKeyPrefix + encodeID(actorID) + ":")
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			roomID := string(it.Item().Key()[len(prefix):])
			room, err := getRoom(txn, roomID)
			if err != nil {
				return err
			}
			rooms = append(rooms, *room)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return rooms, nil
}

func getRoom(txn *badger.Txn, roomID string) (*model.Room, error) {
	item, err := txn.Get(roomKey(roomID))
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, model.ErrRoomNotFound
	}
	if err != nil {
		return nil, err
	}
	var room model.Room
	if err := item.Value(func(v []byte) error {
		return json.Unmarshal(v, &room)
	}); err != nil {
		return nil, err
	}
	return &room, nil
}
