package cachalot

import (
	"context"
	"errors"
	"time"

	"github.com/cenkalti/backoff/v4"
)

const (
	// DefaultMaximumTimeout bounds the total time waitForResult spends
	// polling for the lock winner's record.
	DefaultMaximumTimeout = 3000 * time.Millisecond
	// DefaultRequestTimeout is the polling cadence.
	DefaultRequestTimeout = 250 * time.Millisecond
)

// WaitForResultStrategyOptions tune the waitForResult strategy.
type WaitForResultStrategyOptions struct {
	MaximumTimeout time.Duration // 0 => 3000ms
	RequestTimeout time.Duration // 0 => 250ms
}

// waitForResultStrategy polls until the lock holder releases and a record
// appears, then returns the record's value. A released lock with no record
// fails fast with ErrWaitForResult; exhausting the budget fails with
// MaximumTimeoutExceededError.
type waitForResultStrategy struct {
	maximumTimeout time.Duration
	requestTimeout time.Duration
}

var _ LockedKeyRetrieveStrategy = waitForResultStrategy{}

// NewWaitForResultStrategy builds the waitForResult strategy with the given
// bounds, defaulting the zeroes.
func NewWaitForResultStrategy(opts WaitForResultStrategyOptions) LockedKeyRetrieveStrategy {
	return waitForResultStrategy{
		maximumTimeout: coalesce(opts.MaximumTimeout, DefaultMaximumTimeout),
		requestTimeout: coalesce(opts.RequestTimeout, DefaultRequestTimeout),
	}
}

func (waitForResultStrategy) Name() string { return StrategyNameWaitForResult }

// errKeyStillLocked drives another polling round.
var errKeyStillLocked = errors.New("cachalot: key is still locked")

func (st waitForResultStrategy) Get(ctx context.Context, sctx StrategyContext) (any, error) {
	pollCtx, cancel := context.WithTimeout(ctx, st.maximumTimeout)
	defer cancel()

	var value any
	poll := func() error {
		locked, err := sctx.Storage.KeyIsLocked(pollCtx, sctx.Key)
		if err != nil {
			return backoff.Permanent(err)
		}
		if locked {
			return errKeyStillLocked
		}
		rec, err := sctx.Storage.Get(pollCtx, sctx.Key)
		if err != nil {
			return backoff.Permanent(err)
		}
		if rec == nil || rec.Value == "" {
			return backoff.Permanent(ErrWaitForResult)
		}
		var v any
		if err := sctx.Storage.Serializer().Deserialize(rec.Value, &v); err != nil {
			return backoff.Permanent(err)
		}
		value = v
		return nil
	}

	err := backoff.Retry(poll, backoff.WithContext(backoff.NewConstantBackOff(st.requestTimeout), pollCtx))
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) && ctx.Err() == nil {
			mErr := &MaximumTimeoutExceededError{MaximumTimeout: st.maximumTimeout}
			sctx.Logger.Error("wait-for-result exceeded its maximum timeout", Fields{
				"key":            sctx.Key,
				"maximumTimeout": st.maximumTimeout.String(),
			})
			return nil, mErr
		}
		return nil, err
	}
	return value, nil
}
