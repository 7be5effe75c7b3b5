// Package store provides Badger-backed persistence for rooms, messages,
// delivery tokens and notification records.
package store

import (
	"encoding/base64"
	"fmt"

	"github.com/dgraph-io/badger/v4"
)

// encodeID makes a caller-supplied id safe to embed in a key. Actor ids come
// from requests and may contain the key delimiters; raw embedding would let
// ("a", "b/c") and ("a/b", "c") collide on one pair key and would let an id
// with ":" bleed across prefix-scan boundaries. The base64url alphabet
// contains neither delimiter and the encoding is injective, so encoded
// components can never collide or escape their segment.
func encodeID(id string) string {
	return base64.RawURLEncoding.EncodeToString([]byte(id))
}

// Open opens the Badger database at dir.
func Open(dir string) (*badger.DB, error) {
	opts := badger.DefaultOptions(dir).WithLoggingLevel(badger.ERROR)
	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to open badger at %s: %w", dir, err)
	}
	return db, nil
}
