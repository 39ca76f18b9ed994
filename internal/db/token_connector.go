package db

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/vvka-141/tilevault/internal/retry"
	"github.com/vvka-141/tilevault/pkg/tilevault"
)

// tokenExpiryWarning is how close to expiry a freshly acquired token
// has to be before Connect warns about it.
const tokenExpiryWarning = 5 * time.Minute

// TokenBasedConnector serves cloud providers that authenticate with
// short-lived tokens (AWS IAM, Azure Entra ID). Each connection attempt
// acquires a fresh token from the TokenProvider and passes it to
// PostgreSQL as the password.
type TokenBasedConnector struct {
	config        *tilevault.ConnectionConfig
	tokenProvider TokenProvider
	retryExecutor *retry.Executor
	providerName  string
}

// NewTokenBasedConnector creates a connector that uses a TokenProvider for authentication.
// providerName is used in error/warning messages (e.g., "AWS IAM", "Azure").
func NewTokenBasedConnector(config *tilevault.ConnectionConfig, tokenProvider TokenProvider, providerName string) *TokenBasedConnector {
	executor := retry.NewExecutor(
		retry.NewDatabaseErrorClassifier(),
		retry.NewExponentialBackoff(tilevault.DefaultRetryMaxAttempts,
			retry.WithInitialDelay(tilevault.DefaultRetryInitialDelay),
			retry.WithMaxDelay(tilevault.DefaultRetryMaxDelay),
		),
	)

	return &TokenBasedConnector{
		config:        config,
		tokenProvider: tokenProvider,
		retryExecutor: executor,
		providerName:  providerName,
	}
}

// Connect acquires a token and establishes the pool, retrying transient
// failures. The token is re-acquired on every attempt so a retry never
// reuses one that expired during the backoff.
func (c *TokenBasedConnector) Connect(ctx context.Context) (*pgxpool.Pool, error) {
	var pool *pgxpool.Pool

	err := c.retryExecutor.Execute(ctx, func(ctx context.Context) error {
		token, expiresOn, err := c.tokenProvider.GetToken(ctx)
		if err != nil {
			return fmt.Errorf("failed to acquire %s token: %w", c.providerName, err)
		}

		if remaining := time.Until(expiresOn); remaining < tokenExpiryWarning {
			fmt.Printf("Warning: %s token expires in %v\n", c.providerName, remaining.Round(time.Second))
		}

		configWithToken := *c.config
		configWithToken.Password = token

		poolConfig, err := pgxpool.ParseConfig(BuildConnectionString(&configWithToken))
		if err != nil {
			return fmt.Errorf("failed to parse connection config: %w", err)
		}

		configurePool(poolConfig)

		pool, err = pgxpool.NewWithConfig(ctx, poolConfig)
		if err != nil {
			return wrapConnectionError(err, c.config.Host, c.config.Port, c.config.Database)
		}

		if err := pool.Ping(ctx); err != nil {
			pool.Close()
			return wrapConnectionError(err, c.config.Host, c.config.Port, c.config.Database)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return pool, nil
}
