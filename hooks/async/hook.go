// Package asynchook decouples hook sinks from the cache's hot paths.
// Events are converted to plain values on a bounded channel and delivered
// to the wrapped sink by one dispatcher goroutine, preserving arrival
// order. When the buffer is full the event is shed and counted - emitting
// never blocks a cache call.
package asynchook

import (
	"sync"
	"sync/atomic"

	"github.com/Tinkoff/cachalot"
)

type kind int

const (
	kindCommandQueued kind = iota
	kindQueueDrained
	kindRecordDropped
	kindLockBypass
	kindRefreshFailed
)

// event flattens every Hooks callback into one value so the channel stays
// allocation-light: no closures, one struct per emit.
type event struct {
	kind kind
	key  string
	text string // command name or drop reason
	n, m int
	err  error
}

type Hooks struct {
	inner   cachalot.Hooks
	events  chan event
	dropped atomic.Uint64
	closed  atomic.Bool
	wg      sync.WaitGroup
	once    sync.Once
}

var _ cachalot.Hooks = (*Hooks)(nil)

// New wraps inner and starts the dispatcher. qlen bounds the in-flight
// event buffer; qlen <= 0 picks 1024.
func New(inner cachalot.Hooks, qlen int) *Hooks {
	if qlen <= 0 {
		qlen = 1024
	}
	h := &Hooks{inner: inner, events: make(chan event, qlen)}
	h.wg.Add(1)
	go h.dispatch()
	return h
}

func (h *Hooks) dispatch() {
	defer h.wg.Done()
	for ev := range h.events {
		switch ev.kind {
		case kindCommandQueued:
			h.inner.CommandQueued(ev.text, ev.n)
		case kindQueueDrained:
			h.inner.QueueDrained(ev.n, ev.m)
		case kindRecordDropped:
			h.inner.RecordDropped(ev.key, ev.text)
		case kindLockBypass:
			h.inner.LockBypass(ev.key, ev.err)
		case kindRefreshFailed:
			h.inner.RefreshFailed(ev.key, ev.err)
		}
	}
}

// Close delivers everything already buffered, then stops the dispatcher.
// Safe to call multiple times. Close after the cache has gone quiet:
// events emitted afterwards are shed.
func (h *Hooks) Close() {
	h.once.Do(func() {
		h.closed.Store(true)
		close(h.events)
		h.wg.Wait()
	})
}

// Dropped reports how many events were shed because the buffer was full.
func (h *Hooks) Dropped() uint64 { return h.dropped.Load() }

func (h *Hooks) send(ev event) {
	if h.closed.Load() {
		h.dropped.Add(1)
		return
	}
	select {
	case h.events <- ev:
	default:
		h.dropped.Add(1)
	}
}

func (h *Hooks) CommandQueued(command string, depth int) {
	h.send(event{kind: kindCommandQueued, text: command, n: depth})
}

func (h *Hooks) QueueDrained(attempted, requeued int) {
	h.send(event{kind: kindQueueDrained, n: attempted, m: requeued})
}

func (h *Hooks) RecordDropped(key, reason string) {
	h.send(event{kind: kindRecordDropped, key: key, text: reason})
}

func (h *Hooks) LockBypass(key string, err error) {
	h.send(event{kind: kindLockBypass, key: key, err: err})
}

func (h *Hooks) RefreshFailed(key string, err error) {
	h.send(event{kind: kindRefreshFailed, key: key, err: err})
}
