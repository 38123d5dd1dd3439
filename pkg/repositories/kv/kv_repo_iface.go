package kv

import (
	"context"
	"errors"
)

// ErrEmptyKey is returned when a caller passes an empty key.
var ErrEmptyKey = errors.New("kv: empty key")

// Repository is a durable string key-value store. The roster persists its
// whole state as one JSON document under a single key, so the interface only
// needs point reads and full overwrites.
type Repository interface {
	// Get returns the value stored under key. ok=false and a nil error mean
	// the key has never been written.
	Get(ctx context.Context, key string) (value string, ok bool, err error)
	// Set overwrites the value stored under key.
	Set(ctx context.Context, key, value string) error
	// Health is a simple check to verify the backend is reachable.
	Health(ctx context.Context) error
	// Disconnect gracefully closes resources. Should be safe to call on shutdown.
	Disconnect()
}
