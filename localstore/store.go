// Package localstore is the per-device persistent key-value store backing the
// cart, wishlist and session documents. It plays the role browser local
// storage plays for the web frontend: string keys mapping to small JSON
// documents that survive restarts until explicitly deleted.
package localstore

import (
	"encoding/json"
	"errors"

	"trendora-client/logger"
)

// ErrClosed is returned by store operations after Close.
var ErrClosed = errors.New("localstore: store is closed")

// Store is a string-key/JSON-document store.
type Store interface {
	// Get returns the raw document at key. The second return is false when
	// the key is absent.
	Get(key string) ([]byte, bool, error)
	Put(key string, value []byte) error
	Delete(key string) error
	Close() error
}

// GetJSON decodes the document at key into out. A missing or corrupt
// document is treated as absent: out is left untouched and false is
// returned, never an error. Corruption is logged.
func GetJSON(s Store, key string, out interface{}) bool {
	b, ok, err := s.Get(key)
	if err != nil {
		logger.Get().Warn().Err(err).Str("key", key).Msg("localstore read failed")
		return false
	}
	if !ok {
		return false
	}
	if err := json.Unmarshal(b, out); err != nil {
		logger.Get().Warn().Err(err).Str("key", key).Msg("discarding corrupt document")
		return false
	}
	return true
}

// PutJSON encodes v and stores it at key.
func PutJSON(s Store, key string, v interface{}) error {
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return s.Put(key, b)
}
