package cachalot

import (
	"context"
	"sync"

	"github.com/Tinkoff/cachalot/adapter"
)

// queuedCommand is one deferred storage write waiting for the adapter to
// come back. The closure carries its own arguments, captured at enqueue
// time; a version-stamping command like touch still reads the clock at
// execution, which keeps versions monotonic across a drain.
type queuedCommand struct {
	name string
	run  func(ctx context.Context) error
}

// commandQueue is the offline command queue: unbounded, append-only between
// drains, guarded against concurrent append/drain.
type commandQueue struct {
	mu       sync.Mutex
	commands []queuedCommand
}

func (q *commandQueue) append(cmd queuedCommand) int {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.commands = append(q.commands, cmd)
	return len(q.commands)
}

// takeAll removes and returns the whole queue.
func (q *commandQueue) takeAll() []queuedCommand {
	q.mu.Lock()
	defer q.mu.Unlock()
	cmds := q.commands
	q.commands = nil
	return cmds
}

func (q *commandQueue) appendAll(cmds []queuedCommand) {
	if len(cmds) == 0 {
		return
	}
	q.mu.Lock()
	defer q.mu.Unlock()
	q.commands = append(q.commands, cmds...)
}

func (q *commandQueue) len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.commands)
}

// cachedCommand runs fn now when the adapter is connected, and defers it to
// the offline queue otherwise. A connected run that fails with
// OperationTimeout is also deferred; any other failure propagates.
func (s *BaseStorage) cachedCommand(ctx context.Context, name string, fn func(ctx context.Context) error) error {
	if s.adapter.ConnectionStatus() != adapter.StatusConnected {
		s.enqueue(name, fn)
		return nil
	}
	err := fn(ctx)
	if isOperationTimeout(err) {
		s.enqueue(name, fn)
		return nil
	}
	return err
}

func (s *BaseStorage) enqueue(name string, fn func(ctx context.Context) error) {
	depth := s.queue.append(queuedCommand{name: name, run: fn})
	s.log.Info("adapter connection is not active; command queued", Fields{"command": name, "queue": depth})
	s.hooks.CommandQueued(name, depth)
}

// drainQueue snapshots the queued commands and attempts each exactly once,
// concurrently. Failed commands are re-queued (in the order they failed)
// behind anything that was appended while the drain ran.
func (s *BaseStorage) drainQueue(ctx context.Context) {
	pending := s.queue.takeAll()
	if len(pending) == 0 {
		return
	}
	s.log.Info("draining offline command queue", Fields{"commands": len(pending)})

	var (
		wg     sync.WaitGroup
		mu     sync.Mutex
		failed []queuedCommand
	)
	for _, cmd := range pending {
		wg.Add(1)
		go func(cmd queuedCommand) {
			defer wg.Done()
			if err := cmd.run(ctx); err != nil {
				s.log.Error("queued command failed; keeping it for the next drain", Fields{"command": cmd.name, "error": err})
				mu.Lock()
				failed = append(failed, cmd)
				mu.Unlock()
			}
		}(cmd)
	}
	wg.Wait()

	s.queue.appendAll(failed)
	s.hooks.QueueDrained(len(pending), len(failed))
}

// QueueLen reports the current offline-queue depth.
func (s *BaseStorage) QueueLen() int {
	return s.queue.len()
}
