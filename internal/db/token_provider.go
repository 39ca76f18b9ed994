package db

import (
	"context"
	"time"
)

// TokenProvider acquires short-lived cloud credentials for a working-copy
// database. Implementations cover the managed-Postgres flavors (Azure
// Entra ID, AWS RDS IAM, Google Cloud SQL); tests substitute a canned
// provider.
type TokenProvider interface {
	// GetToken returns a token usable as the connection password, along
	// with its expiry. Connections re-acquire on expiry.
	GetToken(ctx context.Context) (token string, expiresOn time.Time, err error)

	// String describes the provider for logging, without secrets.
	String() string
}

// AzurePostgreSQLScope is the OAuth scope Azure issues database tokens
// against for Azure Database for PostgreSQL.
const AzurePostgreSQLScope = "https://ossrdbms-aad.database.windows.net/.default"
