package db

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/vvka-141/tilevault/internal/retry"
	"github.com/vvka-141/tilevault/pkg/tilevault"
)

const (
	// DefaultMaxConns limits concurrent connections to prevent resource exhaustion
	// during long imports.
	DefaultMaxConns = 5

	// DefaultMinConns maintains at least one connection in the pool.
	DefaultMinConns = 1

	// DefaultMaxConnIdleTime keeps connections alive during long imports
	// to avoid reconnection overhead.
	DefaultMaxConnIdleTime = 30 * time.Minute
)

func configurePool(poolConfig *pgxpool.Config) {
	poolConfig.MaxConns = DefaultMaxConns
	poolConfig.MinConns = DefaultMinConns
	poolConfig.MaxConnIdleTime = DefaultMaxConnIdleTime
	poolConfig.ConnConfig.OnNotice = func(_ *pgconn.PgConn, notice *pgconn.Notice) {
		fmt.Println(notice.Message)
	}
}

// StandardConnector implements the Connector interface for standard
// username/password authentication with automatic retry on transient failures.
type StandardConnector struct {
	config        *tilevault.ConnectionConfig
	retryExecutor *retry.Executor
}

// NewStandardConnector creates a new StandardConnector with the given configuration.
// Retry behavior uses the package defaults: DefaultRetryMaxAttempts attempts,
// exponential backoff starting at DefaultRetryInitialDelay, max DefaultRetryMaxDelay.
func NewStandardConnector(config *tilevault.ConnectionConfig) *StandardConnector {
	executor := retry.NewExecutor(
		retry.NewDatabaseErrorClassifier(),
		retry.NewExponentialBackoff(tilevault.DefaultRetryMaxAttempts,
			retry.WithInitialDelay(tilevault.DefaultRetryInitialDelay),
			retry.WithMaxDelay(tilevault.DefaultRetryMaxDelay),
		),
	)

	return &StandardConnector{
		config:        config,
		retryExecutor: executor,
	}
}

// Connect establishes a connection pool, retrying transient failures.
func (c *StandardConnector) Connect(ctx context.Context) (*pgxpool.Pool, error) {
	connStr := BuildConnectionString(c.config)

	var pool *pgxpool.Pool
	err := c.retryExecutor.Execute(ctx, func(ctx context.Context) error {
		poolConfig, err := pgxpool.ParseConfig(connStr)
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

// NewConnector picks the Connector implementation for the config's
// AuthMethod.
func NewConnector(config *tilevault.ConnectionConfig) (tilevault.Connector, error) {
	switch config.AuthMethod {
	case tilevault.AuthMethodStandard:
		return NewStandardConnector(config), nil
	case tilevault.AuthMethodAWSIAM:
		return newAWSConnector(config)
	case tilevault.AuthMethodGoogleIAM:
		return newGoogleConnector(config)
	case tilevault.AuthMethodAzureEntraID:
		return newAzureConnector(config)
	default:
		return nil, fmt.Errorf("unsupported auth method %v: %w", config.AuthMethod, tilevault.ErrUnsupportedAuthMethod)
	}
}

// wrapConnectionError wraps raw pgx connection errors with actionable
// guidance and chains the ErrConnectionFailed sentinel.
func wrapConnectionError(err error, host string, port int, database string) error {
	return errors.Join(tilevault.ErrConnectionFailed, classifyConnectionError(err, host, port, database))
}

func containsAny(s string, subs ...string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}

// classifyConnectionError turns the usual pgx failure modes into a
// headline plus likely causes. Unrecognized errors get a plain wrapper.
func classifyConnectionError(err error, host string, port int, database string) error {
	errStr := strings.ToLower(err.Error())
	addr := fmt.Sprintf("%s:%d", host, port)

	var headline, hints string
	switch {
	case containsAny(errStr, "connection refused", "actively refused"):
		headline = fmt.Sprintf("connection refused to %s", addr)
		hints = fmt.Sprintf(`Possible causes:
  - PostgreSQL is not running (check: pg_isready -h %s -p %d)
  - Wrong host or port
  - Firewall blocking the connection`, host, port)

	case containsAny(errStr, "no such host", "no host"):
		headline = fmt.Sprintf("cannot resolve host %q", host)
		hints = `Possible causes:
  - Hostname is misspelled
  - DNS is not configured or reachable
  - Network connection issue`

	case strings.Contains(errStr, "password authentication failed"):
		headline = fmt.Sprintf("password authentication failed for database %q", database)
		hints = `Possible causes:
  - Wrong password (check $PGPASSWORD or ~/.pgpass)
  - Wrong username
  - User does not have access to the database`

	case strings.Contains(errStr, "does not exist"):
		headline = fmt.Sprintf("database %q does not exist", database)
		hints = fmt.Sprintf("To create it:\n  createdb %s", database)

	case containsAny(errStr, "timeout", "timed out"):
		headline = fmt.Sprintf("connection timed out to %s", addr)
		hints = `Possible causes:
  - Server is overloaded or unresponsive
  - Network latency or packet loss
  - Firewall silently dropping packets
  - Wrong host/port (server not listening)`

	case containsAny(errStr, "ssl", "tls"):
		headline = "SSL/TLS connection error"
		hints = `Possible causes:
  - Server requires SSL but --sslmode is wrong
  - Certificate verification failed (try --sslmode=require)
  - Client certificates missing (check --sslcert, --sslkey)`

	case strings.Contains(errStr, "too many connections"):
		headline = fmt.Sprintf("too many connections to database %q", database)
		hints = fmt.Sprintf(`Possible causes:
  - Connection pool exhausted on server
  - max_connections limit reached in postgresql.conf
  - Stale connections from previous imports

Try: SELECT pg_terminate_backend(pid) FROM pg_stat_activity WHERE datname = '%s';`, database)

	default:
		return fmt.Errorf("failed to connect to database: %w", err)
	}

	return fmt.Errorf("%s\n\n%s\n\nOriginal error: %w", headline, hints, err)
}

// newAWSConnector creates a token-based connector with the AWS IAM token provider.
func newAWSConnector(config *tilevault.ConnectionConfig) (tilevault.Connector, error) {
	endpoint := fmt.Sprintf("%s:%d", config.Host, config.Port)

	tokenProvider, err := NewAWSIAMTokenProvider(endpoint, config.AWSRegion, config.Username)
	if err != nil {
		return nil, fmt.Errorf("failed to create AWS IAM token provider: %w", err)
	}

	return NewTokenBasedConnector(config, tokenProvider, "AWS IAM"), nil
}

func newGoogleConnector(config *tilevault.ConnectionConfig) (tilevault.Connector, error) {
	if config.GoogleInstance == "" {
		return nil, fmt.Errorf("Google Cloud SQL IAM auth requires --google-instance (project:region:instance)")
	}
	if config.Username == "" {
		return nil, fmt.Errorf("Google Cloud SQL IAM auth requires username (-U)")
	}

	return NewGoogleCloudSQLConnector(config, config.GoogleInstance), nil
}

// newAzureConnector uses Service Principal auth when tenant, client and
// secret are all set, and the DefaultAzureCredential chain otherwise.
func newAzureConnector(config *tilevault.ConnectionConfig) (tilevault.Connector, error) {
	var tokenProvider TokenProvider
	var err error

	if config.AzureTenantID != "" && config.AzureClientID != "" && config.AzureClientSecret != "" {
		tokenProvider, err = NewAzureServicePrincipalProvider(
			config.AzureTenantID,
			config.AzureClientID,
			config.AzureClientSecret,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to create Azure Service Principal provider: %w", err)
		}
	} else {
		tokenProvider, err = NewAzureDefaultCredentialProvider()
		if err != nil {
			return nil, fmt.Errorf("failed to create Azure Default Credential provider: %w", err)
		}
	}

	return NewTokenBasedConnector(config, tokenProvider, "Azure"), nil
}
