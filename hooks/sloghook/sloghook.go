// Package sloghook is a ready-made Hooks sink over slog. Events map to
// levels by severity: routine traffic logs at debug/info, anything that
// loses data or bypasses the cache logs at warn. Because the offline queue
// is unbounded, queue growth escalates from info to warn once the depth
// crosses a configurable threshold - that is the signal to alarm on.
package sloghook

import (
	"context"
	"log/slog"

	"github.com/Tinkoff/cachalot"
)

type Options struct {
	// QueueDepthWarn escalates command_queued events to warn level once the
	// queue depth reaches it. 0 disables the escalation.
	QueueDepthWarn int

	// LogKeys includes cache keys in log output. Off by default: keys often
	// embed user identifiers that do not belong in shared log pipelines.
	LogKeys bool
}

type Hooks struct {
	l    *slog.Logger
	opts Options
}

var _ cachalot.Hooks = (*Hooks)(nil)

// New builds the sink. A nil logger falls back to slog.Default.
func New(l *slog.Logger, opts Options) *Hooks {
	if l == nil {
		l = slog.Default()
	}
	return &Hooks{l: l, opts: opts}
}

func (h *Hooks) key(k string) slog.Attr {
	if h.opts.LogKeys {
		return slog.String("key", k)
	}
	return slog.String("key", "[redacted]")
}

func (h *Hooks) log(level slog.Level, msg string, attrs ...slog.Attr) {
	h.l.LogAttrs(context.Background(), level, msg, attrs...)
}

func (h *Hooks) CommandQueued(command string, depth int) {
	level := slog.LevelInfo
	if h.opts.QueueDepthWarn > 0 && depth >= h.opts.QueueDepthWarn {
		level = slog.LevelWarn
	}
	h.log(level, "cachalot.command_queued",
		slog.String("command", command),
		slog.Int("depth", depth))
}

func (h *Hooks) QueueDrained(attempted, requeued int) {
	level := slog.LevelInfo
	if requeued > 0 {
		level = slog.LevelWarn
	}
	h.log(level, "cachalot.queue_drained",
		slog.Int("attempted", attempted),
		slog.Int("requeued", requeued))
}

func (h *Hooks) RecordDropped(key, reason string) {
	h.log(slog.LevelDebug, "cachalot.record_dropped",
		h.key(key),
		slog.String("reason", reason))
}

func (h *Hooks) LockBypass(key string, err error) {
	h.log(slog.LevelWarn, "cachalot.lock_bypass",
		h.key(key),
		slog.Any("err", err))
}

func (h *Hooks) RefreshFailed(key string, err error) {
	h.log(slog.LevelWarn, "cachalot.refresh_failed",
		h.key(key),
		slog.Any("err", err))
}
