package redis

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	goredis "github.com/redis/go-redis/v9"

	"github.com/Tinkoff/cachalot/adapter"
)

func newTestAdapter(t *testing.T) (*Redis, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	a, err := New(Config{Client: client, CloseClient: true, PingInterval: 20 * time.Millisecond})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	t.Cleanup(func() { _ = a.Close(context.Background()) })
	waitStatus(t, a, adapter.StatusConnected)
	return a, mr
}

func waitStatus(t *testing.T, a *Redis, want adapter.ConnectionStatus) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if a.ConnectionStatus() == want {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("status never became %v (now %v)", want, a.ConnectionStatus())
}

func TestNewRequiresClient(t *testing.T) {
	if _, err := New(Config{}); err != ErrNilClient {
		t.Fatalf("err = %v, want ErrNilClient", err)
	}
}

func TestGetSetDel(t *testing.T) {
	ctx := context.Background()
	a, _ := newTestAdapter(t)

	if _, ok, err := a.Get(ctx, "k"); err != nil || ok {
		t.Fatalf("miss: ok=%v err=%v", ok, err)
	}
	if ok, err := a.Set(ctx, "k", "v", 0); err != nil || !ok {
		t.Fatalf("Set: ok=%v err=%v", ok, err)
	}
	if v, ok, err := a.Get(ctx, "k"); err != nil || !ok || v != "v" {
		t.Fatalf("Get: v=%q ok=%v err=%v", v, ok, err)
	}
	if removed, err := a.Del(ctx, "k"); err != nil || !removed {
		t.Fatalf("Del: removed=%v err=%v", removed, err)
	}
	if removed, _ := a.Del(ctx, "k"); removed {
		t.Fatalf("second Del must report nothing removed")
	}
}

// TestSubSecondTTL: millisecond TTLs survive the trip to the server.
func TestSubSecondTTL(t *testing.T) {
	ctx := context.Background()
	a, mr := newTestAdapter(t)

	if _, err := a.Set(ctx, "k", "v", 100*time.Millisecond); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if _, ok, _ := a.Get(ctx, "k"); !ok {
		t.Fatalf("entry expired immediately")
	}
	mr.FastForward(200 * time.Millisecond)
	if _, ok, _ := a.Get(ctx, "k"); ok {
		t.Fatalf("entry survived its TTL")
	}
}

func TestMGetMSet(t *testing.T) {
	ctx := context.Background()
	a, _ := newTestAdapter(t)

	if err := a.MSet(ctx, nil); err != ErrEmptyMSet {
		t.Fatalf("empty MSet err = %v, want ErrEmptyMSet", err)
	}
	if err := a.MSet(ctx, map[string]string{"a": "1", "b": "2"}); err != nil {
		t.Fatalf("MSet: %v", err)
	}

	vals, err := a.MGet(ctx, []string{"a", "missing", "b"})
	if err != nil {
		t.Fatalf("MGet: %v", err)
	}
	if len(vals) != 3 || vals[0] == nil || *vals[0] != "1" || vals[1] != nil || vals[2] == nil || *vals[2] != "2" {
		t.Fatalf("MGet = %v, want aligned [1, nil, 2]", vals)
	}

	if vals, err := a.MGet(ctx, nil); err != nil || len(vals) != 0 {
		t.Fatalf("empty MGet: vals=%v err=%v", vals, err)
	}
}

func TestLocks(t *testing.T) {
	ctx := context.Background()
	a, mr := newTestAdapter(t)

	if ok, err := a.AcquireLock(ctx, "k", time.Minute); err != nil || !ok {
		t.Fatalf("AcquireLock: ok=%v err=%v", ok, err)
	}
	if ok, _ := a.AcquireLock(ctx, "k", time.Minute); ok {
		t.Fatalf("second AcquireLock must fail")
	}
	if !mr.Exists("k_lock") {
		t.Fatalf("lock key %q not stored", "k_lock")
	}
	if held, _ := a.IsLockExists(ctx, "k"); !held {
		t.Fatalf("IsLockExists must see the held lock")
	}
	if ok, err := a.ReleaseLock(ctx, "k"); err != nil || !ok {
		t.Fatalf("ReleaseLock: ok=%v err=%v", ok, err)
	}
	if held, _ := a.IsLockExists(ctx, "k"); held {
		t.Fatalf("lock must be gone after release")
	}
	if ok, _ := a.ReleaseLock(ctx, "k"); ok {
		t.Fatalf("releasing a free lock must report false")
	}
}

func TestLockTTLExpires(t *testing.T) {
	ctx := context.Background()
	a, mr := newTestAdapter(t)

	if ok, _ := a.AcquireLock(ctx, "k", 100*time.Millisecond); !ok {
		t.Fatalf("AcquireLock failed")
	}
	mr.FastForward(200 * time.Millisecond)
	if ok, _ := a.AcquireLock(ctx, "k", 100*time.Millisecond); !ok {
		t.Fatalf("lock must be acquirable after its TTL")
	}
}

// TestConnectionSignal: the ping loop tracks the server and every
// reconnection fires the OnConnect callbacks.
func TestConnectionSignal(t *testing.T) {
	a, mr := newTestAdapter(t)

	connects := make(chan struct{}, 8)
	a.OnConnect(func() { connects <- struct{}{} })

	mr.Close()
	waitStatus(t, a, adapter.StatusDisconnected)

	if err := mr.Restart(); err != nil {
		t.Fatalf("Restart: %v", err)
	}
	waitStatus(t, a, adapter.StatusConnected)

	select {
	case <-connects:
	case <-time.After(2 * time.Second):
		t.Fatalf("OnConnect callback never fired after reconnect")
	}
}
