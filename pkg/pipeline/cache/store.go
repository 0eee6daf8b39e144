// Package cache stores model responses keyed by the prompt that produced
// them, so a re-run over the same repository does not pay for the same
// completion twice.
package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"time"
)

// Store persists cached responses.
// Implementations must be safe for concurrent use.
type Store interface {
	// Get retrieves a cached value.
	// Returns ErrNotFound if the key is not cached.
	Get(key string) ([]byte, error)

	// Put stores a value. Overwrites an existing entry for key.
	Put(key string, value []byte) error

	// Delete removes an entry.
	// Returns nil if the key is not cached.
	Delete(key string) error

	// List returns metadata for every entry, oldest first.
	List() ([]Info, error)

	// Clear removes every entry.
	Clear() error

	// Close releases any resources (connections, files).
	Close() error
}

// Info provides metadata without loading the value.
type Info struct {
	Key       string
	Size      int64
	CreatedAt time.Time
}

// Sentinel errors for cache operations.
var (
	// ErrNotFound indicates a key is not cached.
	ErrNotFound = errors.New("cache entry not found")

	// ErrStoreClosed indicates the store has been closed.
	ErrStoreClosed = errors.New("cache store closed")
)

// Key derives the cache key for a prompt sent to model.
func Key(model, prompt string) string {
	h := sha256.New()
	h.Write([]byte(model))
	h.Write([]byte{0})
	h.Write([]byte(prompt))
	return hex.EncodeToString(h.Sum(nil))
}
