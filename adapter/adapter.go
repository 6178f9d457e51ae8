// Package adapter defines the backing-store abstraction used by cachalot.
//
// Implementations MUST be text-transparent: Get must return exactly the
// string previously passed to Set for a key (no prepended/appended
// metadata, no re-encoding, no mutation). If a store performs internal
// transforms (e.g., compression), they MUST be fully reversed.
//
// TTLs are expressed as durations with millisecond intent. Stores with
// seconds granularity MUST round up so a sub-second TTL never becomes an
// immediate expiry.
//
// Lock keys are owned by the adapter: AcquireLock, ReleaseLock and
// IsLockExists operate on "{key}_lock" (LockSuffix). External code MUST NOT
// write values under that suffix.
package adapter

import (
	"context"
	"time"
)

// LockSuffix is appended to the effective key to form its lock key.
const LockSuffix = "_lock"

// ConnectionStatus is the adapter's view of its transport.
type ConnectionStatus int32

const (
	StatusConnecting ConnectionStatus = iota
	StatusConnected
	StatusDisconnected
)

func (s ConnectionStatus) String() string {
	switch s {
	case StatusConnecting:
		return "connecting"
	case StatusConnected:
		return "connected"
	case StatusDisconnected:
		return "disconnected"
	default:
		return "unknown"
	}
}

// StorageAdapter is the sole interface a new backend must implement.
// Must be safe for concurrent use.
type StorageAdapter interface {
	// Get returns (value, true, nil) on hit; ("", false, nil) on miss.
	// If an IO/remote error happens, return ("", false, err).
	Get(ctx context.Context, key string) (string, bool, error)

	// Set stores value with the given TTL; ttl <= 0 means no expiry.
	// Returns ok=false when the store rejected the write.
	Set(ctx context.Context, key, value string, ttl time.Duration) (bool, error)

	// Del removes a key and reports whether something was removed.
	Del(ctx context.Context, key string) (bool, error)

	// MGet returns optional values aligned with keys (nil entry = miss).
	MGet(ctx context.Context, keys []string) ([]*string, error)

	// MSet bulk-stores pairs without TTL. Fails if pairs is empty.
	MSet(ctx context.Context, pairs map[string]string) error

	// AcquireLock atomically sets "{key}_lock" if absent, with the given
	// TTL, and reports whether the lock was acquired.
	AcquireLock(ctx context.Context, key string, ttl time.Duration) (bool, error)

	// ReleaseLock deletes "{key}_lock" and reports whether it was held.
	ReleaseLock(ctx context.Context, key string) (bool, error)

	// IsLockExists reports whether "{key}_lock" currently exists.
	IsLockExists(ctx context.Context, key string) (bool, error)

	// ConnectionStatus returns the current transport status.
	ConnectionStatus() ConnectionStatus

	// OnConnect registers a callback fired whenever the transport
	// transitions into StatusConnected. Callbacks must be cheap; spawn a
	// goroutine for real work.
	OnConnect(fn func())
}
