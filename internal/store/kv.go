// Package store persists nutriplan state as a handful of opaque JSON records
// in a key-value table. SQLite backs it on disk; MemoryStore serves tests and
// ephemeral sessions.
package store

import (
	"context"
	"errors"
)

// ErrClosed is returned by operations on a closed store.
var ErrClosed = errors.New("store closed")

// KV is the minimal key-value port the repository needs. Get reports
// ok=false for a missing key; that is not an error.
type KV interface {
	Get(ctx context.Context, key string) (value []byte, ok bool, err error)
	Set(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error
	Close() error
}
