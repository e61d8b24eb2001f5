package storage

import (
	"errors"
	"time"
)

// Record is what a Backend stores under a key: the raw value plus a small
// string-to-string metadata map that travels with it.
type Record struct {
	Value []byte
	Meta  map[string]string
}

// Backend represents a durable key-value store with per-entry expiration.
// Implementations must return entries exactly as stored until the TTL
// elapses, and must report expired and never-written keys the same way,
// with ErrNotFound.
type Backend interface {
	Put(key string, rec Record, ttl time.Duration) error

	// Get should return ErrNotFound if the key is not in the store or its
	// TTL has elapsed.
	Get(key string) (Record, error)
}

var (
	// ErrNotFound indicates a key is not in the store, or no longer is.
	ErrNotFound = errors.New("not found")
)

func dup(value []byte) []byte {
	if value == nil {
		return nil
	}
	d := make([]byte, len(value))
	copy(d, value)
	return d
}

func dupMeta(meta map[string]string) map[string]string {
	if meta == nil {
		return nil
	}
	d := make(map[string]string, len(meta))
	for k, v := range meta {
		d[k] = v
	}
	return d
}
