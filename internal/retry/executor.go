package retry

import (
	"context"
	"time"

	"github.com/vvka-141/tilevault/pkg/tilevault"
)

// Executor runs an operation, retrying transient failures with the
// configured backoff. Safe for concurrent Execute calls; WithOnRetry
// returns a configured copy instead of mutating the receiver.
type Executor struct {
	classifier tilevault.ErrorClassifier
	strategy   tilevault.BackoffStrategy
	onRetry    func(attempt int, err error, delay time.Duration)
}

// NewExecutor creates an executor. Panics on nil classifier or strategy;
// both are construction-time wiring errors, not runtime conditions.
func NewExecutor(classifier tilevault.ErrorClassifier, strategy tilevault.BackoffStrategy) *Executor {
	if classifier == nil {
		panic("classifier cannot be nil")
	}
	if strategy == nil {
		panic("strategy cannot be nil")
	}
	return &Executor{classifier: classifier, strategy: strategy}
}

// WithOnRetry returns a copy that invokes callback before each retry
// wait. The receiver is unchanged.
func (e *Executor) WithOnRetry(callback func(attempt int, err error, delay time.Duration)) *Executor {
	clone := *e
	clone.onRetry = callback
	return &clone
}

// Execute runs operation, retrying while the classifier reports the
// error as transient. The first call does not count against
// MaxAttempts; MaxAttempts below zero retries indefinitely.
func (e *Executor) Execute(ctx context.Context, operation func(ctx context.Context) error) error {
	lastErr := operation(ctx)
	if lastErr == nil || !e.classifier.IsTransient(lastErr) {
		return lastErr
	}

	maxAttempts := e.strategy.MaxAttempts()
	for attempt := 0; maxAttempts < 0 || attempt < maxAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return err
		}

		delay := e.strategy.NextDelay(attempt)
		if e.onRetry != nil {
			e.onRetry(attempt, lastErr, delay)
		}

		if err := sleep(ctx, delay); err != nil {
			return err
		}

		lastErr = operation(ctx)
		if lastErr == nil || !e.classifier.IsTransient(lastErr) {
			return lastErr
		}
	}

	return lastErr
}

func sleep(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
