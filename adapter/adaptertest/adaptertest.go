// Package adaptertest provides a scriptable in-memory StorageAdapter for
// tests: per-operation error and latency injection, call recording and
// manual connection-status transitions.
package adaptertest

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/Tinkoff/cachalot/adapter"
)

// Call is one recorded adapter invocation. Status reads and OnConnect
// registrations are not recorded: they are signals, not store traffic.
type Call struct {
	Op  string
	Key string
}

type entry struct {
	value string
	exp   time.Time // zero => no TTL
}

// Adapter is safe for concurrent use.
type Adapter struct {
	mu           sync.Mutex
	data         map[string]entry
	tracker      *adapter.StatusTracker
	calls        []Call
	failures     map[string]error
	onceFailures map[string][]error
	delays       map[string]time.Duration
}

var _ adapter.StorageAdapter = (*Adapter)(nil)

// New starts connected with an empty store.
func New() *Adapter {
	a := &Adapter{
		data:         make(map[string]entry),
		tracker:      adapter.NewStatusTracker(),
		failures:     make(map[string]error),
		onceFailures: make(map[string][]error),
		delays:       make(map[string]time.Duration),
	}
	a.tracker.SetStatus(adapter.StatusConnected)
	return a
}

// SetStatus transitions the adapter; moving into StatusConnected fires the
// registered OnConnect callbacks.
func (a *Adapter) SetStatus(s adapter.ConnectionStatus) { a.tracker.SetStatus(s) }

// FailOnce makes exactly one subsequent call of op return err. Queued
// one-shot failures are consumed before the persistent FailWith error.
func (a *Adapter) FailOnce(op string, err error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.onceFailures[op] = append(a.onceFailures[op], err)
}

// FailWith makes every subsequent call of op return err. Pass nil to clear.
func (a *Adapter) FailWith(op string, err error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if err == nil {
		delete(a.failures, op)
		return
	}
	a.failures[op] = err
}

// DelayOp makes every subsequent call of op sleep for d before answering.
func (a *Adapter) DelayOp(op string, d time.Duration) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.delays[op] = d
}

// Calls returns a copy of the recorded store traffic.
func (a *Adapter) Calls() []Call {
	a.mu.Lock()
	defer a.mu.Unlock()
	out := make([]Call, len(a.calls))
	copy(out, a.calls)
	return out
}

// CallCount reports how many calls of op were recorded.
func (a *Adapter) CallCount(op string) int {
	a.mu.Lock()
	defer a.mu.Unlock()
	n := 0
	for _, c := range a.calls {
		if c.Op == op {
			n++
		}
	}
	return n
}

// Raw returns the stored value bypassing call recording, for fixtures.
func (a *Adapter) Raw(key string) (string, bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	e, ok := a.live(key)
	return e.value, ok
}

// Put seeds the store bypassing call recording, for fixtures.
func (a *Adapter) Put(key, value string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.data[key] = entry{value: value}
}

// begin records the call and returns the injected failure, if any. The
// injected delay is slept outside the lock.
func (a *Adapter) begin(op, key string) error {
	a.mu.Lock()
	a.calls = append(a.calls, Call{Op: op, Key: key})
	var err error
	if pending := a.onceFailures[op]; len(pending) > 0 {
		err = pending[0]
		a.onceFailures[op] = pending[1:]
	} else {
		err = a.failures[op]
	}
	d := a.delays[op]
	a.mu.Unlock()
	if d > 0 {
		time.Sleep(d)
	}
	return err
}

func (a *Adapter) live(key string) (entry, bool) {
	e, ok := a.data[key]
	if !ok {
		return entry{}, false
	}
	if !e.exp.IsZero() && time.Now().After(e.exp) {
		delete(a.data, key)
		return entry{}, false
	}
	return e, true
}

func (a *Adapter) Get(_ context.Context, key string) (string, bool, error) {
	if err := a.begin("get", key); err != nil {
		return "", false, err
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	e, ok := a.live(key)
	if !ok {
		return "", false, nil
	}
	return e.value, true, nil
}

func (a *Adapter) Set(_ context.Context, key, value string, ttl time.Duration) (bool, error) {
	if err := a.begin("set", key); err != nil {
		return false, err
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	var exp time.Time
	if ttl > 0 {
		exp = time.Now().Add(ttl)
	}
	a.data[key] = entry{value: value, exp: exp}
	return true, nil
}

func (a *Adapter) Del(_ context.Context, key string) (bool, error) {
	if err := a.begin("del", key); err != nil {
		return false, err
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	_, ok := a.live(key)
	delete(a.data, key)
	return ok, nil
}

func (a *Adapter) MGet(_ context.Context, keys []string) ([]*string, error) {
	if err := a.begin("mget", ""); err != nil {
		return nil, err
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	out := make([]*string, len(keys))
	for i, k := range keys {
		if e, ok := a.live(k); ok {
			v := e.value
			out[i] = &v
		}
	}
	return out, nil
}

func (a *Adapter) MSet(_ context.Context, pairs map[string]string) error {
	if err := a.begin("mset", ""); err != nil {
		return err
	}
	if len(pairs) == 0 {
		return errors.New("adaptertest: empty mset")
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	for k, v := range pairs {
		a.data[k] = entry{value: v}
	}
	return nil
}

func (a *Adapter) AcquireLock(_ context.Context, key string, ttl time.Duration) (bool, error) {
	if err := a.begin("acquireLock", key); err != nil {
		return false, err
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	lk := key + adapter.LockSuffix
	if _, held := a.live(lk); held {
		return false, nil
	}
	var exp time.Time
	if ttl > 0 {
		exp = time.Now().Add(ttl)
	}
	a.data[lk] = entry{value: "1", exp: exp}
	return true, nil
}

func (a *Adapter) ReleaseLock(_ context.Context, key string) (bool, error) {
	if err := a.begin("releaseLock", key); err != nil {
		return false, err
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	lk := key + adapter.LockSuffix
	_, held := a.live(lk)
	delete(a.data, lk)
	return held, nil
}

func (a *Adapter) IsLockExists(_ context.Context, key string) (bool, error) {
	if err := a.begin("isLockExists", key); err != nil {
		return false, err
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	_, held := a.live(key + adapter.LockSuffix)
	return held, nil
}

func (a *Adapter) ConnectionStatus() adapter.ConnectionStatus {
	return a.tracker.Status()
}

func (a *Adapter) OnConnect(fn func()) {
	a.tracker.OnConnect(fn)
}
