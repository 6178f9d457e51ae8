package cachalot

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/Tinkoff/cachalot/adapter/adaptertest"
)

func newWaitContext(t *testing.T, ad *adaptertest.Adapter, key string) StrategyContext {
	t.Helper()
	return StrategyContext{
		Key:      key,
		Executor: func(context.Context) (any, error) { return nil, errors.New("executor must not run") },
		Storage:  newTestStorage(t, ad, nil),
		Logger:   NopLogger{},
	}
}

// TestWaitForResultMaximumTimeout covers S5: a permanently held lock fails
// with MaximumTimeoutExceededError close to the configured budget.
func TestWaitForResultMaximumTimeout(t *testing.T) {
	ctx := context.Background()
	ad := adaptertest.New()
	if _, err := ad.AcquireLock(ctx, "k", 0); err != nil {
		t.Fatalf("AcquireLock: %v", err)
	}

	st := NewWaitForResultStrategy(WaitForResultStrategyOptions{
		MaximumTimeout: 100 * time.Millisecond,
		RequestTimeout: 10 * time.Millisecond,
	})

	started := time.Now()
	_, err := st.Get(ctx, newWaitContext(t, ad, "k"))
	elapsed := time.Since(started)

	var me *MaximumTimeoutExceededError
	if !errors.As(err, &me) {
		t.Fatalf("error = %v, want MaximumTimeoutExceededError", err)
	}
	if me.MaximumTimeout != 100*time.Millisecond {
		t.Fatalf("reported budget = %s, want 100ms", me.MaximumTimeout)
	}
	if elapsed > 300*time.Millisecond {
		t.Fatalf("gave up after %s, want ~110ms", elapsed)
	}
}

// TestWaitForResultPicksUpRecord: once the holder releases and a record is
// present, the waiter decodes and returns its value.
func TestWaitForResultPicksUpRecord(t *testing.T) {
	ctx := context.Background()
	ad := adaptertest.New()
	sctx := newWaitContext(t, ad, "k")

	if _, err := ad.AcquireLock(ctx, "k", 0); err != nil {
		t.Fatalf("AcquireLock: %v", err)
	}
	go func() {
		time.Sleep(30 * time.Millisecond)
		_, _ = sctx.Storage.Set(ctx, "k", "winner", SetOptions{})
		_, _ = ad.ReleaseLock(ctx, "k")
	}()

	st := NewWaitForResultStrategy(WaitForResultStrategyOptions{
		MaximumTimeout: time.Second,
		RequestTimeout: 10 * time.Millisecond,
	})
	v, err := st.Get(ctx, sctx)
	if err != nil || v != "winner" {
		t.Fatalf("Get: v=%v err=%v", v, err)
	}
}

// TestWaitForResultNoRecord: a released lock with nothing written fails
// immediately with ErrWaitForResult, no extra polling round.
func TestWaitForResultNoRecord(t *testing.T) {
	ctx := context.Background()
	ad := adaptertest.New()

	st := NewWaitForResultStrategy(WaitForResultStrategyOptions{
		MaximumTimeout: time.Second,
		RequestTimeout: 10 * time.Millisecond,
	})
	started := time.Now()
	_, err := st.Get(ctx, newWaitContext(t, ad, "k"))
	if !errors.Is(err, ErrWaitForResult) {
		t.Fatalf("error = %v, want ErrWaitForResult", err)
	}
	if elapsed := time.Since(started); elapsed > 200*time.Millisecond {
		t.Fatalf("failed after %s, want immediately", elapsed)
	}
}

func TestWaitForResultDefaults(t *testing.T) {
	st := NewWaitForResultStrategy(WaitForResultStrategyOptions{}).(waitForResultStrategy)
	if st.maximumTimeout != DefaultMaximumTimeout {
		t.Fatalf("maximumTimeout = %s, want %s", st.maximumTimeout, DefaultMaximumTimeout)
	}
	if st.requestTimeout != DefaultRequestTimeout {
		t.Fatalf("requestTimeout = %s, want %s", st.requestTimeout, DefaultRequestTimeout)
	}
	if st.Name() != StrategyNameWaitForResult {
		t.Fatalf("name = %q", st.Name())
	}
}
