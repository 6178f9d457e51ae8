package cachalot

import "context"

// ManagerNameReadThrough names the read-through manager in options.
const ManagerNameReadThrough = "read-through"

// ReadThroughManager serves a hit only while the record is alive on every
// axis: present, not time-expired, carrying a value and not tag-outdated.
// Anything else takes the single-flight path.
type ReadThroughManager struct {
	*baseManager
}

var _ Manager = (*ReadThroughManager)(nil)

func NewReadThroughManager(opts ManagerOptions) (*ReadThroughManager, error) {
	base, err := newBaseManager(opts)
	if err != nil {
		return nil, err
	}
	return &ReadThroughManager{baseManager: base}, nil
}

func (m *ReadThroughManager) Get(ctx context.Context, key string, executor Executor, opts GetOptions) (any, error) {
	rec, err := m.storage.Get(ctx, key)
	if err != nil {
		m.log.Error("cannot read record; falling back to the executor", Fields{"key": key, "error": err})
		return runExecutor(ctx, executor)
	}
	if m.isRecordValid(ctx, rec) {
		if v, ok := m.deserializeValue(rec); ok {
			return v, nil
		}
	}
	return m.updateCacheAndGetResult(ctx, m.Set, m.strategyContext(key, executor), opts)
}

func (m *ReadThroughManager) Set(ctx context.Context, key string, value any, opts SetOptions) (*Record, error) {
	return m.storage.Set(ctx, key, value, opts)
}

func (m *ReadThroughManager) isRecordValid(ctx context.Context, rec *Record) bool {
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
