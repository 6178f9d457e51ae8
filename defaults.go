package cachalot

import "time"

const (
	// DefaultExpiresIn is applied when a caller omits ExpiresIn.
	DefaultExpiresIn = 24 * time.Hour
	// DefaultOperationTimeout bounds every adapter call made by BaseStorage.
	DefaultOperationTimeout = 150 * time.Millisecond
	// DefaultLockExpireTimeout bounds the damage of a crashed lock holder.
	DefaultLockExpireTimeout = 20 * time.Second
	// DefaultRefreshAheadFactor is the fraction of a record's lifetime after
	// which a hit schedules a background refresh.
	DefaultRefreshAheadFactor = 0.8
)

// coalesce returns def when v is the zero value of T - otherwise v.
func coalesce[T comparable](v, def T) T {
	var zero T
	if v == zero {
		return def
	}
	return v
}
