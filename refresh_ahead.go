package cachalot

import (
	"context"
	"fmt"
	"math"
)

// ManagerNameRefreshAhead names the refresh-ahead manager in options. It is
// the default manager of the Cache façade.
const ManagerNameRefreshAhead = "refresh-ahead"

// refreshAheadLockPrefix namespaces the auxiliary lock a background refresh
// holds, so refreshers never contend with the single-flight lock.
const refreshAheadLockPrefix = "refreshAhead:"

// RefreshAheadManager serves hits like read-through, but once a record has
// burned through RefreshAheadFactor of its lifetime a hit also schedules a
// background refresh: the caller gets the current value immediately and the
// executor re-runs off the request path.
type RefreshAheadManager struct {
	*baseManager
	refreshAheadFactor float64
}

var _ Manager = (*RefreshAheadManager)(nil)

func NewRefreshAheadManager(opts ManagerOptions) (*RefreshAheadManager, error) {
	base, err := newBaseManager(opts)
	if err != nil {
		return nil, err
	}
	factor := opts.RefreshAheadFactor
	if factor == 0 {
		factor = DefaultRefreshAheadFactor
	}
	if factor <= 0 || (!math.IsInf(factor, 1) && factor >= 1) {
		return nil, fmt.Errorf("cachalot: refresh-ahead factor must be in (0, 1), got %v", factor)
	}
	return &RefreshAheadManager{baseManager: base, refreshAheadFactor: factor}, nil
}

func (m *RefreshAheadManager) Get(ctx context.Context, key string, executor Executor, opts GetOptions) (any, error) {
	rec, err := m.storage.Get(ctx, key)
	if err != nil {
		m.log.Error("cannot read record; falling back to the executor", Fields{"key": key, "error": err})
		return runExecutor(ctx, executor)
	}
	if m.isRecordValid(ctx, rec) {
		if v, ok := m.deserializeValue(rec); ok {
			if m.isRecordExpiringSoon(rec) {
				// fire-and-forget: the caller keeps the current value, the
				// refresh outlives the request
				go m.refresh(context.WithoutCancel(ctx), key, executor, opts)
			}
			return v, nil
		}
	}
	return m.updateCacheAndGetResult(ctx, m.Set, m.strategyContext(key, executor), opts)
}

func (m *RefreshAheadManager) Set(ctx context.Context, key string, value any, opts SetOptions) (*Record, error) {
	return m.storage.Set(ctx, key, value, opts)
}

// refresh re-runs the executor and rewrites the record under the auxiliary
// "refreshAhead:{key}" lock. Losing the lock means another refresher is
// in-flight; any failure is logged and swallowed - it must never reach the
// caller that scheduled it.
func (m *RefreshAheadManager) refresh(ctx context.Context, key string, executor Executor, opts GetOptions) {
	lockKey := refreshAheadLockPrefix + key
	acquired, err := m.storage.LockKey(ctx, lockKey)
	if err != nil {
		m.log.Error("refresh-ahead: cannot acquire refresh lock", Fields{"key": key, "error": err})
		m.hooks.RefreshFailed(key, err)
		return
	}
	if !acquired {
		return
	}
	defer func() {
		if _, err := m.storage.ReleaseKey(ctx, lockKey); err != nil {
			m.log.Error("refresh-ahead: cannot release refresh lock", Fields{"key": key, "error": err})
		}
	}()

	value, err := runExecutor(ctx, executor)
	if err != nil {
		m.log.Error("refresh-ahead: executor failed", Fields{"key": key, "error": err})
		m.hooks.RefreshFailed(key, err)
		return
	}
	if _, err := m.storage.Set(ctx, key, value, opts.SetOptions); err != nil {
		m.log.Error("refresh-ahead: cannot save refreshed value", Fields{"key": key, "error": err})
		m.hooks.RefreshFailed(key, err)
	}
}

func (m *RefreshAheadManager) isRecordValid(ctx context.Context, rec *Record) bool {
	if rec == nil {
		return false
	}
	if rec.TimeExpired() {
		return false
	}
	if rec.Value == "" {
		return false
	}
	return !m.storage.IsOutdated(ctx, rec)
}

func (m *RefreshAheadManager) isRecordExpiringSoon(rec *Record) bool {
	if rec.Permanent || math.IsInf(m.refreshAheadFactor, 1) {
		return false
	}
	threshold := float64(rec.CreatedAt) + float64(rec.ExpiresIn)*m.refreshAheadFactor
	return float64(nowMillis()) > threshold
}
