package cachalot

import (
	"context"
	"errors"
)

// Manager is one freshness policy over a Storage. The façade dispatches
// every Get/Set to the manager named in the options.
type Manager interface {
	Get(ctx context.Context, key string, executor Executor, opts GetOptions) (any, error)
	Set(ctx context.Context, key string, value any, opts SetOptions) (*Record, error)
	Del(ctx context.Context, key string) (bool, error)
}

// ManagerFactory builds a manager from the options shared by the façade.
type ManagerFactory func(opts ManagerOptions) (Manager, error)

// ManagerOptions configure a manager. Storage and Logger are required.
type ManagerOptions struct {
	Storage Storage
	Logger  Logger
	Hooks   Hooks // nil => NopHooks

	// RefreshAheadFactor applies to the refresh-ahead manager only;
	// 0 => 0.8. Construction rejects finite factors outside (0, 1).
	RefreshAheadFactor float64

	// WaitForResult tunes the built-in waitForResult strategy.
	WaitForResult WaitForResultStrategyOptions

	// LockedKeyRetrieveStrategies are registered on top of the built-ins;
	// a strategy with a built-in name overrides it.
	LockedKeyRetrieveStrategies []LockedKeyRetrieveStrategy
}

// baseManager carries the machinery every manager shares: the storage
// reference, the locked-key strategy registry and the single-flight helper.
type baseManager struct {
	storage    Storage
	log        Logger
	hooks      Hooks
	strategies map[string]LockedKeyRetrieveStrategy
}

func newBaseManager(opts ManagerOptions) (*baseManager, error) {
	if opts.Storage == nil {
		return nil, errors.New("cachalot: storage is required")
	}
	if opts.Logger == nil {
		return nil, errors.New("cachalot: logger is required")
	}
	m := &baseManager{
		storage: opts.Storage,
		log:     opts.Logger,
		hooks:   opts.Hooks,
		strategies: map[string]LockedKeyRetrieveStrategy{
			StrategyNameRunExecutor:   runExecutorStrategy{},
			StrategyNameWaitForResult: NewWaitForResultStrategy(opts.WaitForResult),
		},
	}
	if m.hooks == nil {
		m.hooks = NopHooks{}
	}
	for _, st := range opts.LockedKeyRetrieveStrategies {
		m.strategies[st.Name()] = st
	}
	return m, nil
}

func (m *baseManager) Del(ctx context.Context, key string) (bool, error) {
	return m.storage.Del(ctx, key)
}

// setFunc lets the single-flight helper write through the CALLING manager's
// Set, so policy overrides (write-through's forced permanence) apply to
// executor results too.
type setFunc func(ctx context.Context, key string, value any, opts SetOptions) (*Record, error)

// updateCacheAndGetResult is the single-flight path taken on every miss:
// acquire the key's lock, run the executor, write the result back, release.
//
// A lock call that itself errors abandons single-flight entirely - the
// executor runs and the cache is bypassed. A lock held elsewhere hands off
// to the locked-key strategy named in the options.
func (m *baseManager) updateCacheAndGetResult(ctx context.Context, set setFunc, sctx StrategyContext, opts GetOptions) (any, error) {
	acquired, err := m.storage.LockKey(ctx, sctx.Key)
	if err != nil {
		m.log.Error("cannot acquire lock; bypassing cache", Fields{"key": sctx.Key, "error": err})
		m.hooks.LockBypass(sctx.Key, err)
		return runExecutor(ctx, sctx.Executor)
	}
	if !acquired {
		name := coalesce(opts.LockedKeyRetrieveStrategyType, StrategyNameRunExecutor)
		st, ok := m.strategies[name]
		if !ok {
			return nil, &UnknownStrategyError{Name: name}
		}
		return st.Get(ctx, sctx)
	}

	defer func() {
		// the release must be attempted even when the caller's context died
		releaseCtx := context.WithoutCancel(ctx)
		if _, err := m.storage.ReleaseKey(releaseCtx, sctx.Key); err != nil {
			m.log.Error("cannot release lock", Fields{"key": sctx.Key, "error": err})
		}
	}()

	value, err := runExecutor(ctx, sctx.Executor)
	if err != nil {
		return nil, err
	}
	if _, err := set(ctx, sctx.Key, value, opts.SetOptions); err != nil {
		return nil, err
	}
	return value, nil
}

// deserializeValue decodes a record's payload into a caller value.
func (m *baseManager) deserializeValue(rec *Record) (any, bool) {
	var v any
	if err := m.storage.Serializer().Deserialize(rec.Value, &v); err != nil {
		m.log.Warn("record value cannot be deserialized; treating as miss", Fields{"key": rec.Key, "error": err})
		return nil, false
	}
	return v, true
}

func (m *baseManager) strategyContext(key string, executor Executor) StrategyContext {
	return StrategyContext{Key: key, Executor: executor, Storage: m.storage, Logger: m.log}
}
