package cachalot

// Hooks are lightweight callbacks for high-signal events. Implementations
// MUST be cheap and non-blocking: the cache calls them on hot paths. Wrap
// a slow sink with hooks/async.
type Hooks interface {
	// A command was deferred to the offline queue (adapter away or the
	// attempt timed out). depth is the queue length after the append.
	CommandQueued(command string, depth int)

	// An offline-queue drain finished. Every snapshot entry was attempted
	// exactly once; requeued entries wait for the next drain.
	QueueDrained(attempted, requeued int)

	// A stored entry was ignored on read.
	// reason ∈ {"parse_error", "malformed"}
	RecordDropped(key, reason string)

	// The single-flight lock call itself errored; the executor ran with the
	// cache bypassed.
	LockBypass(key string, err error)

	// A background refresh-ahead attempt failed (lock error, executor error
	// or write error). Never surfaced to the caller that scheduled it.
	RefreshFailed(key string, err error)
}

// NopHooks is the default no-op.
type NopHooks struct{}

func (NopHooks) CommandQueued(string, int)    {}
func (NopHooks) QueueDrained(int, int)        {}
func (NopHooks) RecordDropped(string, string) {}
func (NopHooks) LockBypass(string, error)     {}
func (NopHooks) RefreshFailed(string, error)  {}
