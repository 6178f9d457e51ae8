package cachalot

import (
	"context"
	"time"
)

// Executor produces the value when the cache cannot. Returning (nil, nil)
// is a programming error surfaced as ErrExecutorReturnsNil.
type Executor func(ctx context.Context) (any, error)

// SetOptions tune a single write (and the write half of a get miss).
type SetOptions struct {
	// Manager selects the cache manager by name; empty means refresh-ahead.
	Manager string

	// ExpiresIn is the record lifetime. The façade substitutes its default
	// when left zero; an explicit zero at the storage level means permanent.
	ExpiresIn time.Duration

	// Tags statically names the record's invalidation tags.
	Tags []string

	// DynamicTags computes tag names at write time. The result is unioned
	// with Tags (duplicate-free, order-preserving).
	DynamicTags func() []string

	// GetTags derives tag names from the value being written, unioned with
	// the above.
	GetTags func(value any) []string
}

// tagNames resolves the static/computed tag variants and the value-derived
// tags into one duplicate-free, order-preserving list.
func (o SetOptions) tagNames(value any) []string {
	names := make([]string, 0, len(o.Tags))
	names = append(names, o.Tags...)
	if o.DynamicTags != nil {
		names = append(names, o.DynamicTags()...)
	}
	if o.GetTags != nil {
		names = append(names, o.GetTags(value)...)
	}
	return uniq(names)
}

// GetOptions tune a single read. The embedded SetOptions are applied when
// the read misses and the executor's result is written back.
type GetOptions struct {
	SetOptions

	// LockedKeyRetrieveStrategyType names the behavior when another worker
	// holds the single-flight lock; empty means runExecutor.
	LockedKeyRetrieveStrategyType string
}

func uniq(in []string) []string {
	seen := make(map[string]struct{}, len(in))
	out := make([]string, 0, len(in))
	for _, s := range in {
		if _, ok := seen[s]; ok {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}
	return out
}

// runExecutor invokes the caller's executor and enforces its contract.
func runExecutor(ctx context.Context, executor Executor) (any, error) {
	v, err := executor(ctx)
	if err != nil {
		return nil, err
	}
	if v == nil {
		return nil, ErrExecutorReturnsNil
	}
	return v, nil
}
