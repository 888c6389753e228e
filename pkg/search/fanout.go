// Package search implements the multi-chain fan-out coordinator, the result
// aggregation pipeline, and the outbound search operations built on them.
package search

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/whereissam/chainsearch/pkg/adapter"
	"github.com/whereissam/chainsearch/pkg/classify"
	"github.com/whereissam/chainsearch/pkg/resilience"
	"github.com/whereissam/chainsearch/pkg/types"
	"go.uber.org/zap"
	"golang.org/x/sync/semaphore"
)

// Logical operation names. Breaker keys are "{operation}:{chain}" so one
// broken backend never opens the circuit for its siblings.
const (
	OpSearchByOwner      = "search_by_owner"
	OpSearchByCollection = "search_by_collection"
	OpSearchByAttributes = "search_by_attributes"
	OpTextSearch         = "text_search"
	OpVerifyAsset        = "verify_asset"
	OpQueryAsset         = "query_asset"
)

// FanOutConfig tunes the coordinator.
type FanOutConfig struct {
	// PerCallTimeout bounds each adapter call, retries included.
	PerCallTimeout time.Duration
	// OverallTimeout bounds one whole dispatch; chains still pending when
	// it elapses are recorded as timeout failures.
	OverallTimeout time.Duration
	// MaxConcurrent caps parallel adapter calls. Zero means one in-flight
	// call per targeted chain.
	MaxConcurrent int

	// Retry settings applied to every adapter call.
	MaxRetries        int
	InitialDelay      time.Duration
	BackoffMultiplier float64
}

// DefaultFanOutConfig returns the default coordinator settings.
func DefaultFanOutConfig() FanOutConfig {
	return FanOutConfig{
		PerCallTimeout:    10 * time.Second,
		OverallTimeout:    30 * time.Second,
		MaxRetries:        resilience.DefaultMaxRetries,
		InitialDelay:      resilience.DefaultInitialDelay,
		BackoffMultiplier: resilience.DefaultBackoffMultiplier,
	}
}

// Operation is one adapter call dispatched per chain.
type Operation func(ctx context.Context, a adapter.ChainAdapter) (interface{}, error)

// Outcome is the terminal state of one chain's dispatch: a payload or a
// classified failure, never both.
type Outcome struct {
	Chain types.ChainID
	Value interface{}
	Err   *classify.Record
}

// FanOut dispatches one operation to every targeted chain concurrently,
// isolating each adapter's failure from its siblings.
type FanOut struct {
	config     FanOutConfig
	registry   *adapter.Registry
	executor   *resilience.Executor
	classifier *classify.Classifier
	metrics    *Metrics
	logger     *zap.Logger
}

// NewFanOut creates a coordinator. metrics may be nil.
func NewFanOut(
	config FanOutConfig,
	registry *adapter.Registry,
	executor *resilience.Executor,
	classifier *classify.Classifier,
	metrics *Metrics,
	logger *zap.Logger,
) *FanOut {
	def := DefaultFanOutConfig()
	if config.PerCallTimeout <= 0 {
		config.PerCallTimeout = def.PerCallTimeout
	}
	if config.OverallTimeout <= 0 {
		config.OverallTimeout = def.OverallTimeout
	}
	if config.InitialDelay <= 0 {
		config.InitialDelay = def.InitialDelay
	}
	if config.BackoffMultiplier < 1 {
		config.BackoffMultiplier = def.BackoffMultiplier
	}

	return &FanOut{
		config:     config,
		registry:   registry,
		executor:   executor,
		classifier: classifier,
		metrics:    metrics,
		logger:     logger.Named("fanout"),
	}
}

// resolveTargets picks the chains to dispatch to. Unconfigured chains are
// skipped silently; an explicitly requested unknown chain yields a
// chain-not-supported diagnostic.
func (f *FanOut) resolveTargets(requested []types.ChainID) ([]types.ChainID, map[types.ChainID]Outcome) {
	if len(requested) == 0 {
		return f.registry.Configured(), nil
	}

	var targets []types.ChainID
	rejected := make(map[types.ChainID]Outcome)
	for _, chain := range requested {
		a, err := f.registry.Get(chain)
		if err != nil {
			rec := classify.NewRecord(classify.CodeChainNotSupported, "chain not registered: "+string(chain), err)
			rejected[chain] = Outcome{Chain: chain, Err: rec.WithChain(chain)}
			continue
		}
		if !a.IsConfigured() {
			continue
		}
		targets = append(targets, chain)
	}
	if len(rejected) == 0 {
		rejected = nil
	}
	return targets, rejected
}

// Dispatch runs op once per targeted chain and returns every chain's
// terminal outcome. It never returns an error: failures show up per chain.
func (f *FanOut) Dispatch(ctx context.Context, chains []types.ChainID, operation string, op Operation) map[types.ChainID]Outcome {
	targets, outcomes := f.resolveTargets(chains)
	if outcomes == nil {
		outcomes = make(map[types.ChainID]Outcome, len(targets))
	}
	if len(targets) == 0 {
		return outcomes
	}

	requestID := uuid.NewString()
	logger := f.logger.With(
		zap.String("requestId", requestID),
		zap.String("operation", operation),
	)
	logger.Debug("dispatching", zap.Int("chains", len(targets)))

	dispatchCtx, cancel := context.WithTimeout(ctx, f.config.OverallTimeout)
	defer cancel()

	maxConcurrent := f.config.MaxConcurrent
	if maxConcurrent <= 0 {
		maxConcurrent = len(targets)
	}
	sem := semaphore.NewWeighted(int64(maxConcurrent))

	results := make(chan Outcome, len(targets))
	var wg sync.WaitGroup

	for _, chain := range targets {
		wg.Add(1)
		go func(chain types.ChainID) {
			defer wg.Done()
			results <- f.callChain(dispatchCtx, sem, chain, operation, op)
		}(chain)
	}

	go func() {
		wg.Wait()
		close(results)
	}()

	succeeded, failed := 0, 0
	pending := make(map[types.ChainID]bool, len(targets))
	for _, chain := range targets {
		pending[chain] = true
	}

collect:
	for {
		select {
		case out, ok := <-results:
			if !ok {
				break collect
			}
			outcomes[out.Chain] = out
			delete(pending, out.Chain)
			if out.Err != nil {
				failed++
			} else {
				succeeded++
			}
			if len(pending) == 0 {
				break collect
			}
		case <-dispatchCtx.Done():
			// Overall timeout: whatever is still pending is a timeout
			// failure for that chain only.
			for chain := range pending {
				rec := classify.NewRecord(classify.CodeTimeout, "fan-out deadline elapsed", dispatchCtx.Err())
				outcomes[chain] = Outcome{Chain: chain, Err: rec.WithChain(chain)}
				failed++
			}
			break collect
		}
	}

	f.metrics.observeDispatch(operation, failed, succeeded)
	if failed > 0 {
		logger.Warn("dispatch finished with failures",
			zap.Int("succeeded", succeeded),
			zap.Int("failed", failed),
		)
	} else {
		logger.Debug("dispatch finished", zap.Int("succeeded", succeeded))
	}

	return outcomes
}

// callChain runs one adapter call wrapped by the retry executor.
func (f *FanOut) callChain(ctx context.Context, sem *semaphore.Weighted, chain types.ChainID, operation string, op Operation) Outcome {
	if err := sem.Acquire(ctx, 1); err != nil {
		rec := f.classifier.Classify(err, classify.Context{Chain: chain, Operation: operation})
		return Outcome{Chain: chain, Err: rec}
	}
	defer sem.Release(1)

	a, err := f.registry.Get(chain)
	if err != nil {
		rec := f.classifier.Classify(err, classify.Context{Chain: chain, Operation: operation})
		return Outcome{Chain: chain, Err: rec}
	}

	callCtx, cancel := context.WithTimeout(ctx, f.config.PerCallTimeout)
	defer cancel()

	started := time.Now()
	var value interface{}
	runErr := f.executor.Run(callCtx, resilience.RetryConfig{
		MaxRetries:        f.config.MaxRetries,
		InitialDelay:      f.config.InitialDelay,
		BackoffMultiplier: f.config.BackoffMultiplier,
		Operation:         operation + ":" + string(chain),
		Chain:             chain,
	}, func(ctx context.Context) error {
		v, err := op(ctx, a)
		if err != nil {
			return err
		}
		value = v
		return nil
	})
	elapsed := time.Since(started)

	if runErr != nil {
		rec := classify.AsRecord(runErr)
		if rec == nil {
			rec = f.classifier.Classify(runErr, classify.Context{Chain: chain, Operation: operation})
		}
		f.metrics.observeCall(string(chain), "error", elapsed.Seconds())
		return Outcome{Chain: chain, Err: rec}
	}

	f.metrics.observeCall(string(chain), "success", elapsed.Seconds())
	return Outcome{Chain: chain, Value: value}
}
