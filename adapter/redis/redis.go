// Package redis implements the cachalot storage adapter on go-redis.
//
// Locks use SET NX PX, so sub-second TTLs are respected natively. The
// connection signal is derived from a background ping loop: go-redis does
// not surface transport state, and reconnect callbacks configured on the
// client are invisible when the client is injected.
package redis

import (
	"context"
	"errors"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/Tinkoff/cachalot/adapter"
)

var (
	ErrNilClient = errors.New("redis adapter: nil client")
	// ErrEmptyMSet mirrors the server behavior: MSET with no pairs is an error.
	ErrEmptyMSet = errors.New("redis adapter: empty mset")
)

const (
	defaultPingInterval = time.Second
	pingTimeout         = 500 * time.Millisecond
)

// lockValue is what lock keys hold; the content is never inspected.
const lockValue = "1"

type Redis struct {
	rdb         goredis.UniversalClient
	tracker     *adapter.StatusTracker
	closeClient bool
	stop        chan struct{}
	done        chan struct{}
}

var _ adapter.StorageAdapter = (*Redis)(nil)

type Config struct {
	Client      goredis.UniversalClient
	CloseClient bool // set true only if this adapter exclusively owns the client

	// PingInterval tunes the connection-status probe; 0 means 1s.
	PingInterval time.Duration
}

func New(cfg Config) (*Redis, error) {
	if cfg.Client == nil {
		return nil, ErrNilClient
	}
	a := &Redis{
		rdb:         cfg.Client,
		tracker:     adapter.NewStatusTracker(),
		closeClient: cfg.CloseClient,
		stop:        make(chan struct{}),
		done:        make(chan struct{}),
	}
	go a.watch(coalesceDuration(cfg.PingInterval, defaultPingInterval))
	return a, nil
}

func (a *Redis) Get(ctx context.Context, key string) (string, bool, error) {
	v, err := a.rdb.Get(ctx, key).Result()
	if err == goredis.Nil {
		return "", false, nil // miss
	}
	if err != nil {
		return "", false, err // transport/server error
	}
	return v, true, nil
}

func (a *Redis) Set(ctx context.Context, key, value string, ttl time.Duration) (bool, error) {
	if ttl <= 0 {
		ttl = 0 // no expiry
	}
	if err := a.rdb.Set(ctx, key, value, ttl).Err(); err != nil {
		return false, err
	}
	return true, nil
}

func (a *Redis) Del(ctx context.Context, key string) (bool, error) {
	n, err := a.rdb.Del(ctx, key).Result()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func (a *Redis) MGet(ctx context.Context, keys []string) ([]*string, error) {
	if len(keys) == 0 {
		// MGET with no keys is a server error; nothing to ask for anyway.
		return []*string{}, nil
	}
	vals, err := a.rdb.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, err
	}
	out := make([]*string, len(vals))
	for i, v := range vals {
		switch vv := v.(type) {
		case nil:
			out[i] = nil
		case string:
			s := vv
			out[i] = &s
		case []byte:
			s := string(vv)
			out[i] = &s
		}
	}
	return out, nil
}

func (a *Redis) MSet(ctx context.Context, pairs map[string]string) error {
	if len(pairs) == 0 {
		return ErrEmptyMSet
	}
	flat := make([]any, 0, len(pairs)*2)
	for k, v := range pairs {
		flat = append(flat, k, v)
	}
	return a.rdb.MSet(ctx, flat...).Err()
}

func (a *Redis) AcquireLock(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	if ttl < 0 {
		ttl = 0
	}
	return a.rdb.SetNX(ctx, key+adapter.LockSuffix, lockValue, ttl).Result()
}

func (a *Redis) ReleaseLock(ctx context.Context, key string) (bool, error) {
	n, err := a.rdb.Del(ctx, key+adapter.LockSuffix).Result()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func (a *Redis) IsLockExists(ctx context.Context, key string) (bool, error) {
	n, err := a.rdb.Exists(ctx, key+adapter.LockSuffix).Result()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func (a *Redis) ConnectionStatus() adapter.ConnectionStatus {
	return a.tracker.Status()
}

func (a *Redis) OnConnect(fn func()) {
	a.tracker.OnConnect(fn)
}

// Close stops the status probe and releases the underlying client when this
// adapter owns it. Safe to call multiple times.
func (a *Redis) Close(context.Context) error {
	select {
	case <-a.stop:
	default:
		close(a.stop)
		<-a.done
	}
	if a.closeClient {
		if err := a.rdb.Close(); err != nil && !errors.Is(err, goredis.ErrClosed) {
			return err
		}
	}
	return nil
}

func (a *Redis) watch(interval time.Duration) {
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

func (a *Redis) probe() {
	ctx, cancel := context.WithTimeout(context.Background(), pingTimeout)
	defer cancel()
	if err := a.rdb.Ping(ctx).Err(); err != nil {
		a.tracker.SetStatus(adapter.StatusDisconnected)
		return
	}
	a.tracker.SetStatus(adapter.StatusConnected)
}

func coalesceDuration(v, def time.Duration) time.Duration {
	if v == 0 {
		return def
	}
	return v
}
