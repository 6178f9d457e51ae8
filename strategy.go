package cachalot

import "context"

// Strategy names accepted in GetOptions.LockedKeyRetrieveStrategyType.
const (
	StrategyNameRunExecutor   = "runExecutor"
	StrategyNameWaitForResult = "waitForResult"
)

// StrategyContext is what a locked-key strategy has to work with: the key
// whose lock is held elsewhere, the caller's executor and the storage the
// lock lives in.
type StrategyContext struct {
	Key      string
	Executor Executor
	Storage  Storage
	Logger   Logger
}

// LockedKeyRetrieveStrategy answers: what should a get caller do when it
// could not acquire the single-flight lock for a key? Strategies are
// registered by name at manager construction; there is no runtime
// discovery.
type LockedKeyRetrieveStrategy interface {
	Name() string
	Get(ctx context.Context, sctx StrategyContext) (any, error)
}

// runExecutorStrategy is the default: run the caller's executor and return
// its result. No backoff, no cache interaction.
type runExecutorStrategy struct{}

var _ LockedKeyRetrieveStrategy = runExecutorStrategy{}

func (runExecutorStrategy) Name() string { return StrategyNameRunExecutor }

func (runExecutorStrategy) Get(ctx context.Context, sctx StrategyContext) (any, error) {
	return runExecutor(ctx, sctx.Executor)
}
