package cachalot

import (
	"errors"
	"fmt"
	"time"
)

var (
	// ErrWaitForResult is returned by the waitForResult strategy when the
	// single-flight lock was released but no record was written.
	ErrWaitForResult = errors.New("cachalot: lock is released but record is absent")

	// ErrExecutorReturnsNil marks an executor that resolved with no value
	// and no error. Executors must produce a value or fail.
	ErrExecutorReturnsNil = errors.New("cachalot: executor returned no value")
)

// OperationTimeoutError is produced by the timeout wrapper when an adapter
// call did not complete within its deadline. The underlying transport call
// is not cancelled; only the waiter is released.
type OperationTimeoutError struct {
	Timeout time.Duration
}

func (e *OperationTimeoutError) Error() string {
	return fmt.Sprintf("cachalot: operation timed out after %s", e.Timeout)
}

// MaximumTimeoutExceededError is produced by the waitForResult strategy when
// the total wait exceeded its budget.
type MaximumTimeoutExceededError struct {
	MaximumTimeout time.Duration
}

func (e *MaximumTimeoutExceededError) Error() string {
	return fmt.Sprintf("cachalot: wait-for-result exceeded maximum timeout %s", e.MaximumTimeout)
}

// UnknownManagerError is returned by the Cache façade when GetOptions or
// SetOptions name a manager that was never registered.
type UnknownManagerError struct {
	Name string
}

func (e *UnknownManagerError) Error() string {
	return fmt.Sprintf("cachalot: unknown cache manager %q", e.Name)
}

// UnknownStrategyError is returned when a get names a locked-key retrieve
// strategy that was never registered. This is a programming error.
type UnknownStrategyError struct {
	Name string
}

func (e *UnknownStrategyError) Error() string {
	return fmt.Sprintf("cachalot: unknown locked key retrieve strategy %q", e.Name)
}

func isOperationTimeout(err error) bool {
	var te *OperationTimeoutError
	return errors.As(err, &te)
}
