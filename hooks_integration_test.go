package cachalot_test

import (
	"bytes"
	"context"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/Tinkoff/cachalot"
	"github.com/Tinkoff/cachalot/adapter"
	"github.com/Tinkoff/cachalot/adapter/adaptertest"
	asynchook "github.com/Tinkoff/cachalot/hooks/async"
	"github.com/Tinkoff/cachalot/hooks/sloghook"
)

// TestHooksPipeline wires the async dispatcher and the slog sink through a
// real storage and cache: offline queueing, the drain and a malformed-entry
// read all surface as log events.
func TestHooksPipeline(t *testing.T) {
	ctx := context.Background()

	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
	hooks := asynchook.New(sloghook.New(logger, sloghook.Options{QueueDepthWarn: 3, LogKeys: true}), 64)

	ad := adaptertest.New()
	storage, err := cachalot.NewBaseStorage(cachalot.StorageOptions{
		Adapter: ad,
		Logger:  cachalot.NopLogger{},
		Hooks:   hooks,
	})
	if err != nil {
		t.Fatalf("NewBaseStorage: %v", err)
	}
	cache, err := cachalot.New(cachalot.Options{
		Storage: storage,
		Logger:  cachalot.NopLogger{},
		Hooks:   hooks,
	})
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	// three commands queue offline, the third crossing the warn threshold
	ad.SetStatus(adapter.StatusDisconnected)
	for _, tag := range []string{"a", "b", "c"} {
		if err := cache.Touch(ctx, []string{tag}); err != nil {
			t.Fatalf("Touch(%s): %v", tag, err)
		}
	}
	ad.SetStatus(adapter.StatusConnected)
	deadline := time.Now().Add(time.Second)
	for storage.QueueLen() > 0 {
		if time.Now().After(deadline) {
			t.Fatalf("queue never drained")
		}
		time.Sleep(5 * time.Millisecond)
	}

	// a foreign entry read through the cache surfaces as record_dropped
	ad.Put("bad", "{{{")
	if v, err := cache.Get(ctx, "bad", func(context.Context) (any, error) { return "fresh", nil }, cachalot.GetOptions{}); err != nil || v != "fresh" {
		t.Fatalf("Get over corrupt entry: v=%v err=%v", v, err)
	}

	hooks.Close() // flush the dispatcher before reading the buffer
	out := buf.String()

	if got := strings.Count(out, "cachalot.command_queued"); got != 3 {
		t.Fatalf("command_queued events = %d, want 3\n%s", got, out)
	}
	if !strings.Contains(out, `"level":"WARN"`) {
		t.Fatalf("depth 3 must escalate to warn\n%s", out)
	}
	if !strings.Contains(out, "cachalot.queue_drained") {
		t.Fatalf("missing queue_drained event\n%s", out)
	}
	if !strings.Contains(out, "cachalot.record_dropped") || !strings.Contains(out, `"key":"bad"`) {
		t.Fatalf("missing record_dropped event for the corrupt entry\n%s", out)
	}
	if n := hooks.Dropped(); n != 0 {
		t.Fatalf("dispatcher shed %d events with a roomy buffer", n)
	}
}
