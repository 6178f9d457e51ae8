package cachalot

import "context"

// ManagerNameWriteThrough names the write-through manager in options.
const ManagerNameWriteThrough = "write-through"

// WriteThroughManager assumes the application rewrites the cache on every
// source-of-truth change, so reads ignore both time and tags: any present
// record with a value is a hit. Writes are forced permanent.
type WriteThroughManager struct {
	*baseManager
}

var _ Manager = (*WriteThroughManager)(nil)

func NewWriteThroughManager(opts ManagerOptions) (*WriteThroughManager, error) {
	base, err := newBaseManager(opts)
	if err != nil {
		return nil, err
	}
	return &WriteThroughManager{baseManager: base}, nil
}

func (m *WriteThroughManager) Get(ctx context.Context, key string, executor Executor, opts GetOptions) (any, error) {
	rec, err := m.storage.Get(ctx, key)
	if err != nil {
		m.log.Error("cannot read record; falling back to the executor", Fields{"key": key, "error": err})
		return runExecutor(ctx, executor)
	}
	if rec != nil && rec.Value != "" {
		if v, ok := m.deserializeValue(rec); ok {
			return v, nil
		}
	}
	return m.updateCacheAndGetResult(ctx, m.Set, m.strategyContext(key, executor), opts)
}

// Set writes with ExpiresIn forced to zero: write-through records are
// permanent no matter what the caller asked for.
func (m *WriteThroughManager) Set(ctx context.Context, key string, value any, opts SetOptions) (*Record, error) {
	opts.ExpiresIn = 0
	return m.storage.Set(ctx, key, value, opts)
}
