package store

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/dgraph-io/badger/v4"

	"github.com/adoptmatch/chat-service/internal/model"
)

const tokenKeyPrefix = "token:"

// TokenStore persists device delivery tokens, one per actor. Registration is
// last-write-wins; logout deletes the key. Tokens left behind by uninstalled
// devices are simply stale, the dispatcher treats push failures from them as
// non-fatal.
type TokenStore struct {
	db *badger.DB
}

// NewTokenStore creates a token store on db.
func NewTokenStore(db *badger.DB) *TokenStore {
	return &TokenStore{db: db}
}

func tokenKey(actorID string) []byte {
	return []byte(tokenKeyPrefix + encodeID(actorID))
}

// storedToken is the on-disk shape. model.DeliveryToken hides the token value
// from API responses; the store keeps it.
type storedToken struct {
	ActorID   string    `json:"actor_id"`
	Token     string    `json:"token"`
	Platform  string    `json:"platform,omitempty"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Set registers the actor's delivery token, replacing any previous value.
func (s *TokenStore) Set(ctx context.Context, actorID, token, platform string) error {
	data, err := json.Marshal(storedToken{
		ActorID:   actorID,
		Token:     token,
		Platform:  platform,
		UpdatedAt: time.Now().UTC(),
	})
	if err != nil {
		return err
	}
	return s.db.Update(func(txn *badger.Txn) error {
		return txn.Set(tokenKey(actorID), data)
	})
}

// Get returns the actor's delivery token. A missing token is not an error:
// the second return value is false and the dispatcher skips the push.
func (s *TokenStore) Get(ctx context.Context, actorID string) (*model.DeliveryToken, bool, error) {
	var stored storedToken
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(tokenKey(actorID))
		if err != nil {
			return err
		}
		return item.Value(func(v []byte) error {
			return json.Unmarshal(v, &stored)
		})
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return &model.DeliveryToken{
		ActorID:   stored.ActorID,
		Token:     stored.Token,
		Platform:  stored.Platform,
		UpdatedAt: stored.UpdatedAt,
	}, true, nil
}

// Delete clears the actor's delivery token on logout. Deleting an absent
// token is a no-op.
func (s *TokenStore) Delete(ctx context.Context, actorID string) error {
	return s.db.Update(func(txn *badger.Txn) error {
		return txn.Delete(tokenKey(actorID))
	})
}
