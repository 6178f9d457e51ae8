package cachalot

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/Tinkoff/cachalot/adapter"
	"github.com/Tinkoff/cachalot/internal/keys"
	"github.com/Tinkoff/cachalot/serializer"
)

// Storage translates record and tag semantics to adapter calls. Managers
// depend on this interface, not on BaseStorage, so storage behavior can be
// replaced wholesale in tests or by callers with exotic needs.
type Storage interface {
	Get(ctx context.Context, key string) (*Record, error)
	Set(ctx context.Context, key string, value any, opts SetOptions) (*Record, error)
	Del(ctx context.Context, key string) (bool, error)

	Touch(ctx context.Context, tags []string) error
	GetTags(ctx context.Context, names []string) ([]Tag, error)
	IsOutdated(ctx context.Context, rec *Record) bool

	LockKey(ctx context.Context, key string) (bool, error)
	ReleaseKey(ctx context.Context, key string) (bool, error)
	KeyIsLocked(ctx context.Context, key string) (bool, error)

	ConnectionStatus() adapter.ConnectionStatus
	Serializer() serializer.Serializer
}

// StorageOptions configure BaseStorage. Only Adapter is required.
type StorageOptions struct {
	// Adapter is the backing store for records (and, unless TagsAdapter is
	// set, for tag versions and locks too).
	Adapter adapter.StorageAdapter

	// TagsAdapter, when set, becomes the sole home of tag versions. Useful
	// when the primary store evicts under pressure: records may vanish, but
	// tag versions stay authoritative.
	TagsAdapter adapter.StorageAdapter

	Serializer serializer.Serializer // nil => serializer.JSON{}
	Logger     Logger                // nil => NopLogger
	Hooks      Hooks                 // nil => NopHooks

	// Prefix namespaces every effective key ("{prefix}-{key}").
	Prefix string

	// HashKeys stores every effective key as its MD5 hex. One-way.
	HashKeys bool

	OperationTimeout  time.Duration // per adapter call; 0 => 150ms
	LockExpireTimeout time.Duration // single-flight lock TTL; 0 => 20s
}

// BaseStorage owns the record envelope, the tag-versioning scheme, the
// key-naming policy and the offline command queue.
type BaseStorage struct {
	adapter     adapter.StorageAdapter
	tagsAdapter adapter.StorageAdapter
	serializer  serializer.Serializer
	log         Logger
	hooks       Hooks

	prefix    string
	hashKeys  bool
	opTimeout time.Duration
	lockTTL   time.Duration

	queue commandQueue
}

var _ Storage = (*BaseStorage)(nil)

func NewBaseStorage(opts StorageOptions) (*BaseStorage, error) {
	if opts.Adapter == nil {
		return nil, errors.New("cachalot: adapter is required")
	}
	s := &BaseStorage{
		adapter:     opts.Adapter,
		tagsAdapter: opts.TagsAdapter,
		serializer:  opts.Serializer,
		log:         opts.Logger,
		hooks:       opts.Hooks,
		prefix:      opts.Prefix,
		hashKeys:    opts.HashKeys,
		opTimeout:   coalesce(opts.OperationTimeout, DefaultOperationTimeout),
		lockTTL:     coalesce(opts.LockExpireTimeout, DefaultLockExpireTimeout),
	}
	if s.tagsAdapter == nil {
		s.tagsAdapter = s.adapter
	}
	if s.serializer == nil {
		s.serializer = serializer.JSON{}
	}
	if s.log == nil {
		s.log = NopLogger{}
	}
	if s.hooks == nil {
		s.hooks = NopHooks{}
	}
	s.adapter.OnConnect(func() {
		go s.drainQueue(context.Background())
	})
	return s, nil
}

func (s *BaseStorage) effectiveKey(key string) string {
	return keys.Effective(s.prefix, key, s.hashKeys)
}

func (s *BaseStorage) tagVersionKey(name string) string {
	return s.effectiveKey(keys.TagVersion(name))
}

// Get fetches and decodes the record stored under key. A missing entry, an
// unparsable envelope or an envelope without a key field all read as "no
// record": cache reads are never poisoned by foreign or corrupt payloads.
func (s *BaseStorage) Get(ctx context.Context, key string) (*Record, error) {
	k := s.effectiveKey(key)
	raw, err := withTimeout(ctx, s.opTimeout, func(ctx context.Context) (optionalValue, error) {
		v, ok, err := s.adapter.Get(ctx, k)
		return optionalValue{value: v, ok: ok}, err
	})
	if err != nil {
		return nil, err
	}
	if !raw.ok {
		return nil, nil
	}

	var rec Record
	if err := s.serializer.Deserialize(raw.value, &rec); err != nil {
		var pe *serializer.ParseError
		if errors.As(err, &pe) {
			s.log.Warn("stored entry is not a parsable record; treating as miss", Fields{"key": key, "error": err})
			s.hooks.RecordDropped(key, "parse_error")
			return nil, nil
		}
		return nil, err
	}
	if rec.Key == "" {
		s.hooks.RecordDropped(key, "malformed")
		return nil, nil
	}
	return &rec, nil
}

// Set serializes value, captures the current version of every requested
// tag into a fresh record and writes the envelope with ExpiresIn as TTL.
func (s *BaseStorage) Set(ctx context.Context, key string, value any, opts SetOptions) (*Record, error) {
	tags, err := s.GetTags(ctx, opts.tagNames(value))
	if err != nil {
		return nil, err
	}
	encoded, err := s.serializer.Serialize(value)
	if err != nil {
		return nil, err
	}
	rec := newRecord(key, encoded, tags, opts.ExpiresIn)
	payload, err := s.serializer.Serialize(rec)
	if err != nil {
		return nil, err
	}

	k := s.effectiveKey(key)
	_, err = withTimeout(ctx, s.opTimeout, func(ctx context.Context) (bool, error) {
		return s.adapter.Set(ctx, k, payload, opts.ExpiresIn)
	})
	if err != nil {
		return nil, err
	}
	return rec, nil
}

func (s *BaseStorage) Del(ctx context.Context, key string) (bool, error) {
	k := s.effectiveKey(key)
	return withTimeout(ctx, s.opTimeout, func(ctx context.Context) (bool, error) {
		return s.adapter.Del(ctx, k)
	})
}

// Touch advances the version of every named tag to the current wall clock,
// invalidating all records that recorded an older version. The write is a
// cached command: while the adapter is away it queues instead of failing.
func (s *BaseStorage) Touch(ctx context.Context, tags []string) error {
	if len(tags) == 0 {
		return nil
	}
	names := uniq(tags)
	return s.cachedCommand(ctx, "touch", func(ctx context.Context) error {
		return s.setTagVersions(ctx, names)
	})
}

func (s *BaseStorage) setTagVersions(ctx context.Context, names []string) error {
	now := strconv.FormatInt(time.Now().UnixMilli(), 10)
	pairs := make(map[string]string, len(names))
	for _, n := range names {
		pairs[s.tagVersionKey(n)] = now
	}
	_, err := withTimeout(ctx, s.opTimeout, func(ctx context.Context) (struct{}, error) {
		return struct{}{}, s.tagsAdapter.MSet(ctx, pairs)
	})
	return err
}

// GetTags returns the current (name, version) pair for every requested
// name, aligned with the input; missing tags read as version 0. An empty
// input makes no backend call.
func (s *BaseStorage) GetTags(ctx context.Context, names []string) ([]Tag, error) {
	if len(names) == 0 {
		return []Tag{}, nil
	}
	ks := make([]string, len(names))
	for i, n := range names {
		ks[i] = s.tagVersionKey(n)
	}
	vals, err := withTimeout(ctx, s.opTimeout, func(ctx context.Context) ([]*string, error) {
		return s.tagsAdapter.MGet(ctx, ks)
	})
	if err != nil {
		return nil, err
	}
	if len(vals) != len(names) {
		return nil, fmt.Errorf("cachalot: adapter returned %d values for %d tag keys", len(vals), len(names))
	}

	tags := make([]Tag, len(names))
	for i, n := range names {
		var version int64
		if vals[i] != nil {
			version, err = strconv.ParseInt(*vals[i], 10, 64)
			if err != nil {
				return nil, fmt.Errorf("cachalot: tag version parse at %q: %w", n, err)
			}
		}
		tags[i] = Tag{Name: n, Version: version}
	}
	return tags, nil
}

// IsOutdated reports whether any of the record's tags has moved past the
// version the record captured. When versions cannot be verified the record
// counts as outdated: stale data is never served silently.
func (s *BaseStorage) IsOutdated(ctx context.Context, rec *Record) bool {
	if rec == nil || len(rec.Tags) == 0 {
		return false
	}
	names := make([]string, len(rec.Tags))
	for i, t := range rec.Tags {
		names[i] = t.Name
	}
	actual, err := s.GetTags(ctx, names)
	if err != nil {
		s.log.Error("cannot check tag versions; treating record as outdated", Fields{"key": rec.Key, "error": err})
		return true
	}
	current := make(map[string]int64, len(actual))
	for _, t := range actual {
		current[t.Name] = t.Version
	}
	for _, t := range rec.Tags {
		if current[t.Name] > t.Version {
			return true
		}
	}
	return false
}

func (s *BaseStorage) LockKey(ctx context.Context, key string) (bool, error) {
	k := s.effectiveKey(key)
	return withTimeout(ctx, s.opTimeout, func(ctx context.Context) (bool, error) {
		return s.adapter.AcquireLock(ctx, k, s.lockTTL)
	})
}

func (s *BaseStorage) ReleaseKey(ctx context.Context, key string) (bool, error) {
	k := s.effectiveKey(key)
	return withTimeout(ctx, s.opTimeout, func(ctx context.Context) (bool, error) {
		return s.adapter.ReleaseLock(ctx, k)
	})
}

func (s *BaseStorage) KeyIsLocked(ctx context.Context, key string) (bool, error) {
	k := s.effectiveKey(key)
	return withTimeout(ctx, s.opTimeout, func(ctx context.Context) (bool, error) {
		return s.adapter.IsLockExists(ctx, k)
	})
}

func (s *BaseStorage) ConnectionStatus() adapter.ConnectionStatus {
	return s.adapter.ConnectionStatus()
}

func (s *BaseStorage) Serializer() serializer.Serializer {
	return s.serializer
}

type optionalValue struct {
	value string
	ok    bool
}
