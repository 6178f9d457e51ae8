package cachalot

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/Tinkoff/cachalot/adapter"
	"github.com/Tinkoff/cachalot/serializer"
)

// Options configure the Cache façade. Logger is mandatory; one of Adapter
// or Storage must be set.
type Options struct {
	// Adapter is wrapped in a BaseStorage using Prefix, HashKeys and
	// TagsAdapter. Ignored when Storage is set.
	Adapter     adapter.StorageAdapter
	TagsAdapter adapter.StorageAdapter

	// Storage, when set, is used as-is and the adapter-related options
	// above are ignored.
	Storage Storage

	Logger     Logger                // required
	Serializer serializer.Serializer // nil => serializer.JSON{}
	Hooks      Hooks                 // nil => NopHooks

	Prefix   string
	HashKeys bool

	// ExpiresIn is substituted whenever a caller omits one. 0 => one day.
	ExpiresIn time.Duration

	OperationTimeout  time.Duration
	LockExpireTimeout time.Duration

	// RefreshAheadFactor tunes the default refresh-ahead manager; 0 => 0.8.
	RefreshAheadFactor float64

	// WaitForResult tunes the built-in waitForResult strategy of every
	// registered manager.
	WaitForResult WaitForResultStrategyOptions

	// LockedKeyRetrieveStrategies are registered on every manager on top of
	// the built-ins.
	LockedKeyRetrieveStrategies []LockedKeyRetrieveStrategy
}

// Cache picks a manager by name for every call and short-circuits to the
// executor while the adapter is away.
type Cache struct {
	storage   Storage
	log       Logger
	expiresIn time.Duration

	managerOptions ManagerOptions

	mu       sync.RWMutex
	managers map[string]Manager
}

// New builds a Cache with the three standard managers registered:
// refresh-ahead (the default), read-through and write-through.
func New(opts Options) (*Cache, error) {
	if opts.Logger == nil {
		return nil, errors.New("cachalot: logger is required")
	}
	storage := opts.Storage
	if storage == nil {
		if opts.Adapter == nil {
			return nil, errors.New("cachalot: either adapter or storage is required")
		}
		var err error
		storage, err = NewBaseStorage(StorageOptions{
			Adapter:           opts.Adapter,
			TagsAdapter:       opts.TagsAdapter,
			Serializer:        opts.Serializer,
			Logger:            opts.Logger,
			Hooks:             opts.Hooks,
			Prefix:            opts.Prefix,
			HashKeys:          opts.HashKeys,
			OperationTimeout:  opts.OperationTimeout,
			LockExpireTimeout: opts.LockExpireTimeout,
		})
		if err != nil {
			return nil, err
		}
	}

	c := &Cache{
		storage:   storage,
		log:       opts.Logger,
		expiresIn: coalesce(opts.ExpiresIn, DefaultExpiresIn),
		managers:  make(map[string]Manager),
		managerOptions: ManagerOptions{
			Storage:                     storage,
			Logger:                      opts.Logger,
			Hooks:                       opts.Hooks,
			RefreshAheadFactor:          opts.RefreshAheadFactor,
			WaitForResult:               opts.WaitForResult,
			LockedKeyRetrieveStrategies: opts.LockedKeyRetrieveStrategies,
		},
	}

	defaults := []struct {
		name    string
		factory ManagerFactory
	}{
		{ManagerNameRefreshAhead, func(o ManagerOptions) (Manager, error) { return NewRefreshAheadManager(o) }},
		{ManagerNameReadThrough, func(o ManagerOptions) (Manager, error) { return NewReadThroughManager(o) }},
		{ManagerNameWriteThrough, func(o ManagerOptions) (Manager, error) { return NewWriteThroughManager(o) }},
	}
	for _, d := range defaults {
		if err := c.RegisterManager(d.name, d.factory); err != nil {
			return nil, err
		}
	}
	return c, nil
}

// RegisterManager instantiates a manager with the façade's shared storage
// and logger and registers it under name. Registering an existing name
// overwrites it silently. Factories needing extra options can tune the
// received ManagerOptions before construction.
func (c *Cache) RegisterManager(name string, factory ManagerFactory) error {
	mgr, err := factory(c.managerOptions)
	if err != nil {
		return err
	}
	c.mu.Lock()
	c.managers[name] = mgr
	c.mu.Unlock()
	return nil
}

// Get returns the cached value under key, or produces it via executor
// according to the selected manager's policy. While the adapter is not
// connected the cache is not touched at all: the executor answers directly.
func (c *Cache) Get(ctx context.Context, key string, executor Executor, opts GetOptions) (any, error) {
	if c.storage.ConnectionStatus() != adapter.StatusConnected {
		c.log.Info("cache is not connected; executor is called directly", Fields{"key": key})
		return runExecutor(ctx, executor)
	}
	mgr, err := c.manager(opts.Manager)
	if err != nil {
		return nil, err
	}
	opts.ExpiresIn = coalesce(opts.ExpiresIn, c.expiresIn)
	return mgr.Get(ctx, key, executor, opts)
}

// Set writes value under key through the selected manager.
func (c *Cache) Set(ctx context.Context, key string, value any, opts SetOptions) (*Record, error) {
	mgr, err := c.manager(opts.Manager)
	if err != nil {
		return nil, err
	}
	opts.ExpiresIn = coalesce(opts.ExpiresIn, c.expiresIn)
	return mgr.Set(ctx, key, value, opts)
}

// Del removes the record under key, bypassing managers.
func (c *Cache) Del(ctx context.Context, key string) (bool, error) {
	return c.storage.Del(ctx, key)
}

// Touch advances the named tags' versions, bypassing managers.
func (c *Cache) Touch(ctx context.Context, tags []string) error {
	return c.storage.Touch(ctx, tags)
}

func (c *Cache) manager(name string) (Manager, error) {
	if name == "" {
		name = ManagerNameRefreshAhead
	}
	c.mu.RLock()
	mgr, ok := c.managers[name]
	c.mu.RUnlock()
	if !ok {
		return nil, &UnknownManagerError{Name: name}
	}
	return mgr, nil
}
