// Package retry runs operations again after transient failures, with
// exponential backoff between attempts.
//
// Classification and timing are both pluggable. The ErrorClassifier
// decides which errors are worth another attempt; the
// DatabaseErrorClassifier knows the usual transient PostgreSQL, MySQL
// and SQLite failures (connection refused, lock contention, dropped
// connections). The BackoffStrategy decides how long to wait; the
// ExponentialBackoffStrategy doubles the delay per attempt up to a cap,
// with optional jitter.
//
//	executor := retry.NewExecutor(
//	    retry.NewDatabaseErrorClassifier(),
//	    retry.NewExponentialBackoff(3),
//	)
//	err := executor.Execute(ctx, func(ctx context.Context) error {
//	    return connect(ctx)
//	})
//
// An Executor is safe for concurrent use. WithOnRetry returns a copy,
// so per-goroutine callbacks never race.
package retry
