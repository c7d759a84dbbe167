// Package core wires the space aggregate to persistence: the transaction
// coordinator, consistency rules, the service layer, the system tool
// registry, and observability exporters.
package core

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"spacecore/pkg/domain"
)

// Coordinator defaults. Backoff doubles per attempt and is capped.
const (
	DefaultMaxRetries         = 3
	DefaultTransactionTimeout = 30 * time.Second
	// MaxBatchSize is the hard store limit on documents per batch call;
	// larger sets must be chunked by the caller.
	MaxBatchSize = 500

	baseBackoff = time.Second
	maxBackoff  = 5 * time.Second
)

// Operation is one named step of an atomic transaction.
type Operation struct {
	ID    string
	Apply func(tx domain.Transaction) error
}

// BatchOperation is one fire-and-forget step of a non-transactional batch.
type BatchOperation struct {
	ID    string
	Apply func(ctx context.Context) error
}

// TransactionResult reports the outcome of an ExecuteTransaction call. The
// completed/failed ledgers are informational: "completed" means completed
// within the final attempt, not separately durable — the underlying
// transaction is atomic.
type TransactionResult struct {
	Success             bool
	Attempts            int
	OperationsCompleted []string
	OperationsFailed    []string
	Result              domain.Result
	Err                 error
}

// BatchResult reports the outcome of an ExecuteBatch call.
type BatchResult struct {
	Success             bool
	OperationsCompleted []string
	OperationsFailed    []string
	Err                 error
}

// attemptOutcome is the immutable per-attempt ledger merged into the running
// result, so no state leaks across retries.
type attemptOutcome struct {
	completed []string
	failed    []string
	result    domain.Result
	err       error
}

// Coordinator executes named operation sequences atomically against the
// store, retrying transient failures with exponential backoff.
type Coordinator struct {
	store      domain.PersistentStore
	maxRetries int
	timeout    time.Duration
	logger     zerolog.Logger
	metrics    MetricsRecorder
	sleep      func(ctx context.Context, d time.Duration) error
}

// CoordinatorOption configures a Coordinator.
type CoordinatorOption func(*Coordinator)

// WithMaxRetries overrides the retry budget.
func WithMaxRetries(n int) CoordinatorOption {
	return func(c *Coordinator) {
		if n > 0 {
			c.maxRetries = n
		}
	}
}

// WithTransactionTimeout overrides the per-transaction wall-clock budget.
func WithTransactionTimeout(d time.Duration) CoordinatorOption {
	return func(c *Coordinator) {
		if d > 0 {
			c.timeout = d
		}
	}
}

// WithLogger attaches a structured logger.
func WithLogger(logger zerolog.Logger) CoordinatorOption {
	return func(c *Coordinator) { c.logger = logger }
}

// WithMetrics attaches a metrics recorder.
func WithMetrics(rec MetricsRecorder) CoordinatorOption {
	return func(c *Coordinator) {
		if rec != nil {
			c.metrics = rec
		}
	}
}

// WithSleep overrides the backoff sleeper, for tests.
func WithSleep(fn func(ctx context.Context, d time.Duration) error) CoordinatorOption {
	return func(c *Coordinator) {
		if fn != nil {
			c.sleep = fn
		}
	}
}

// NewCoordinator constructs a coordinator over the given store.
func NewCoordinator(store domain.PersistentStore, opts ...CoordinatorOption) *Coordinator {
	c := &Coordinator{
		store:      store,
		maxRetries: DefaultMaxRetries,
		timeout:    DefaultTransactionTimeout,
		logger:     zerolog.Nop(),
		metrics:    NoopMetrics{},
		sleep:      sleepContext,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// ExecuteTransaction runs the operations sequentially inside one store
// transaction, retrying the whole list on retriable failures. Operations
// therefore see fresh state on every attempt; callers must not cache
// aggregate snapshots across attempts.
func (c *Coordinator) ExecuteTransaction(ctx context.Context, ops []Operation) TransactionResult {
	started := time.Now()
	final := TransactionResult{}
	for attempt := 1; attempt <= c.maxRetries; attempt++ {
		final.Attempts = attempt
		outcome := c.runAttempt(ctx, ops)
		final.OperationsCompleted = outcome.completed
		final.OperationsFailed = outcome.failed
		final.Result = outcome.result
		final.Err = outcome.err
		if outcome.err == nil {
			final.Success = true
			c.metrics.Observe(ctx, "transaction", true, time.Since(started))
			return final
		}
		retriable := IsRetriable(outcome.err)
		c.logger.Warn().
			Int("attempt", attempt).
			Bool("retriable", retriable).
			Strs("failed_operations", outcome.failed).
			Err(outcome.err).
			Msg("transaction attempt failed")
		if !retriable || attempt == c.maxRetries {
			break
		}
		if err := c.sleep(ctx, backoffDelay(attempt)); err != nil {
			final.Err = domain.NewStoreError(domain.CodeCancelled, err)
			break
		}
	}
	c.metrics.Observe(ctx, "transaction", false, time.Since(started))
	return final
}

// runAttempt executes one transactional attempt under the wall-clock budget.
func (c *Coordinator) runAttempt(ctx context.Context, ops []Operation) attemptOutcome {
	attemptCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	type completionState struct {
		completed []string
		failed    []string
	}
	var state completionState

	done := make(chan attemptOutcome, 1)
	go func() {
		res, err := c.store.RunInTransaction(attemptCtx, func(tx domain.Transaction) error {
			state = completionState{}
			for _, op := range ops {
				if err := attemptCtx.Err(); err != nil {
					state.failed = append(state.failed, op.ID)
					return domain.NewStoreError(domain.CodeDeadlineExceeded, err)
				}
				if err := op.Apply(tx); err != nil {
					state.failed = append(state.failed, op.ID)
					return fmt.Errorf("operation %s: %w", op.ID, err)
				}
				state.completed = append(state.completed, op.ID)
			}
			return nil
		})
		done <- attemptOutcome{completed: state.completed, failed: state.failed, result: res, err: err}
	}()

	select {
	case outcome := <-done:
		return outcome
	case <-attemptCtx.Done():
		// The store callback may still be running; its eventual result is
		// discarded.
		return attemptOutcome{
			failed: operationIDs(ops),
			err:    domain.NewStoreError(domain.CodeDeadlineExceeded, fmt.Errorf("transaction exceeded %s budget", c.timeout)),
		}
	}
}

// ExecuteBatch runs non-transactional fire-and-forget operations with no
// retry. Batch failures are reported once; batches are expected to be
// idempotent deletes where the caller may safely re-issue.
func (c *Coordinator) ExecuteBatch(ctx context.Context, ops []BatchOperation) BatchResult {
	started := time.Now()
	if len(ops) > MaxBatchSize {
		err := domain.NewStoreError(domain.CodeInvalidArgument,
			fmt.Errorf("batch of %d exceeds the %d document limit; chunk the operation list", len(ops), MaxBatchSize))
		c.metrics.Observe(ctx, "batch", false, time.Since(started))
		return BatchResult{Err: err, OperationsFailed: operationIDsBatch(ops)}
	}
	res := BatchResult{Success: true}
	for _, op := range ops {
		if err := op.Apply(ctx); err != nil {
			res.Success = false
			res.OperationsFailed = append(res.OperationsFailed, op.ID)
			if res.Err == nil {
				res.Err = err
			}
			c.logger.Warn().Str("operation", op.ID).Err(err).Msg("batch operation failed")
			continue
		}
		res.OperationsCompleted = append(res.OperationsCompleted, op.ID)
	}
	c.metrics.Observe(ctx, "batch", res.Success, time.Since(started))
	return res
}

// backoffDelay follows min(1s * 2^(attempt-1), 5s).
func backoffDelay(attempt int) time.Duration {
	d := baseBackoff << (attempt - 1)
	if d > maxBackoff {
		return maxBackoff
	}
	return d
}

// retriableMessages match transient failures reported only as text.
var retriableMessages = []string{
	"too much contention",
	"deadline exceeded",
	"service unavailable",
}

// retriableCodes is the transient subset of store error codes.
var retriableCodes = map[domain.StoreErrorCode]struct{}{
	domain.CodeAborted:           {},
	domain.CodeCancelled:         {},
	domain.CodeDeadlineExceeded:  {},
	domain.CodeInternal:          {},
	domain.CodeResourceExhausted: {},
	domain.CodeUnavailable:       {},
}

// IsRetriable classifies an error as a transient infrastructure failure.
// Domain-rule violations are never retriable.
func IsRetriable(err error) bool {
	if err == nil {
		return false
	}
	if domain.IsRuleError(err) {
		return false
	}
	var rve domain.RuleViolationError
	if errors.As(err, &rve) {
		return false
	}
	if code := domain.StoreCode(err); code != "" {
		_, ok := retriableCodes[code]
		return ok
	}
	msg := strings.ToLower(err.Error())
	for _, fragment := range retriableMessages {
		if strings.Contains(msg, fragment) {
			return true
		}
	}
	return false
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

func operationIDs(ops []Operation) []string {
	ids := make([]string, len(ops))
	for i, op := range ops {
		ids[i] = op.ID
	}
	return ids
}

func operationIDsBatch(ops []BatchOperation) []string {
	ids := make([]string, len(ops))
	for i, op := range ops {
		ids[i] = op.ID
	}
	return ids
}
