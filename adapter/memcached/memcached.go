// Package memcached implements the cachalot storage adapter on gomemcache.
//
// Memcached expresses TTLs in whole seconds, so millisecond TTLs are
// rounded UP: a 300ms TTL becomes 1s rather than an immediate expiry.
// Locks use Add (insert-if-absent). The connection signal comes from a
// background ping loop, same as the Redis adapter.
package memcached

import (
	"context"
	"errors"
	"time"

	"github.com/bradfitz/gomemcache/memcache"

	"github.com/Tinkoff/cachalot/adapter"
)

var (
	ErrNilClient = errors.New("memcached adapter: nil client")
	// ErrEmptyMSet: a bulk store of nothing is a programming error.
	ErrEmptyMSet = errors.New("memcached adapter: empty mset")
)

const defaultPingInterval = time.Second

type Memcached struct {
	client  *memcache.Client
	tracker *adapter.StatusTracker
	stop    chan struct{}
	done    chan struct{}
}

var _ adapter.StorageAdapter = (*Memcached)(nil)

type Config struct {
	Client *memcache.Client

	// PingInterval tunes the connection-status probe; 0 means 1s.
	PingInterval time.Duration
}

func New(cfg Config) (*Memcached, error) {
	if cfg.Client == nil {
		return nil, ErrNilClient
	}
	a := &Memcached{
		client:  cfg.Client,
		tracker: adapter.NewStatusTracker(),
		stop:    make(chan struct{}),
		done:    make(chan struct{}),
	}
	interval := cfg.PingInterval
	if interval == 0 {
		interval = defaultPingInterval
	}
	go a.watch(interval)
	return a, nil
}

func (a *Memcached) Get(_ context.Context, key string) (string, bool, error) {
	it, err := a.client.Get(key)
	if err == memcache.ErrCacheMiss {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return string(it.Value), true, nil
}

func (a *Memcached) Set(_ context.Context, key, value string, ttl time.Duration) (bool, error) {
	err := a.client.Set(&memcache.Item{
		Key:        key,
		Value:      []byte(value),
		Expiration: ttlSeconds(ttl),
	})
	if err != nil {
		return false, err
	}
	return true, nil
}

func (a *Memcached) Del(_ context.Context, key string) (bool, error) {
	err := a.client.Delete(key)
	if err == memcache.ErrCacheMiss {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

func (a *Memcached) MGet(_ context.Context, keys []string) ([]*string, error) {
	if len(keys) == 0 {
		return []*string{}, nil
	}
	items, err := a.client.GetMulti(keys)
	if err != nil {
		return nil, err
	}
	out := make([]*string, len(keys))
	for i, k := range keys {
		if it, ok := items[k]; ok {
			s := string(it.Value)
			out[i] = &s
		}
	}
	return out, nil
}

// MSet fans out to per-key Set: memcached has no bulk store command.
func (a *Memcached) MSet(_ context.Context, pairs map[string]string) error {
	if len(pairs) == 0 {
		return ErrEmptyMSet
	}
	for k, v := range pairs {
		if err := a.client.Set(&memcache.Item{Key: k, Value: []byte(v)}); err != nil {
			return err
		}
	}
	return nil
}

func (a *Memcached) AcquireLock(_ context.Context, key string, ttl time.Duration) (bool, error) {
	err := a.client.Add(&memcache.Item{
		Key:        key + adapter.LockSuffix,
		Value:      []byte("1"),
		Expiration: ttlSeconds(ttl),
	})
	if err == memcache.ErrNotStored {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

func (a *Memcached) ReleaseLock(_ context.Context, key string) (bool, error) {
	err := a.client.Delete(key + adapter.LockSuffix)
	if err == memcache.ErrCacheMiss {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

func (a *Memcached) IsLockExists(_ context.Context, key string) (bool, error) {
	_, err := a.client.Get(key + adapter.LockSuffix)
	if err == memcache.ErrCacheMiss {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

func (a *Memcached) ConnectionStatus() adapter.ConnectionStatus {
	return a.tracker.Status()
}

func (a *Memcached) OnConnect(fn func()) {
	a.tracker.OnConnect(fn)
}

// Close stops the status probe. The memcache client has no Close of its own.
func (a *Memcached) Close(context.Context) error {
	select {
	case <-a.stop:
	default:
		close(a.stop)
		<-a.done
	}
	return nil
}

func (a *Memcached) watch(interval time.Duration) {
	defer close(a.done)
	a.probe()
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			a.probe()
		case <-a.stop:
			return
		}
	}
}

func (a *Memcached) probe() {
	if err := a.client.Ping(); err != nil {
		a.tracker.SetStatus(adapter.StatusDisconnected)
		return
	}
	a.tracker.SetStatus(adapter.StatusConnected)
}

// ttlSeconds rounds a duration up to whole seconds. 0 stays 0 (no expiry).
func ttlSeconds(ttl time.Duration) int32 {
	if ttl <= 0 {
		return 0
	}
	secs := int32(ttl / time.Second)
	if ttl%time.Second != 0 {
		secs++
	}
	return secs
}
