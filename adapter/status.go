package adapter

import "sync"

// StatusTracker maintains a ConnectionStatus and fires registered callbacks
// on every transition into StatusConnected. Remote adapters feed it from a
// ping loop; in-process stores can pin it to StatusConnected.
type StatusTracker struct {
	mu        sync.Mutex
	status    ConnectionStatus
	callbacks []func()
}

// NewStatusTracker starts in StatusConnecting.
func NewStatusTracker() *StatusTracker {
	return &StatusTracker{status: StatusConnecting}
}

func (t *StatusTracker) Status() ConnectionStatus {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.status
}

// SetStatus records the new status. A transition from any other status into
// StatusConnected fires the registered callbacks synchronously, in
// registration order.
func (t *StatusTracker) SetStatus(s ConnectionStatus) {
	t.mu.Lock()
	prev := t.status
	t.status = s
	var fire []func()
	if s == StatusConnected && prev != StatusConnected {
		fire = make([]func(), len(t.callbacks))
		copy(fire, t.callbacks)
	}
	t.mu.Unlock()

	for _, fn := range fire {
		fn()
	}
}

func (t *StatusTracker) OnConnect(fn func()) {
	t.mu.Lock()
	t.callbacks = append(t.callbacks, fn)
	t.mu.Unlock()
}
