package services

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/go-sql-driver/mysql"
	_ "github.com/ncruces/go-sqlite3/driver"
	_ "github.com/ncruces/go-sqlite3/embed"

	"github.com/vvka-141/tilevault/internal/db"
	"github.com/vvka-141/tilevault/internal/workingcopy"
	"github.com/vvka-141/tilevault/pkg/tilevault"
)

// OpenSession opens a transaction-scoped backend session for the working
// copy described by config. The returned cleanup releases the session and
// any underlying pool; it is safe to call exactly once.
//
// Each logical operation (import, diff, checkout) runs on one session, so
// a failure mid-operation leaves no half-shared connection state behind.
func OpenSession(ctx context.Context, config *tilevault.DiffConfig) (tilevault.Session, func(), error) {
	switch config.Backend {
	case tilevault.BackendPostgres:
		return openPostgresSession(ctx, config)
	case tilevault.BackendMySQL:
		return openDatabaseSQLSession("mysql", config.ConnectionString)
	case tilevault.BackendGPKG:
		return openDatabaseSQLSession("sqlite3", config.WorkingCopyPath)
	default:
		return nil, nil, fmt.Errorf("unknown working-copy backend %q: %w", config.Backend, tilevault.ErrInvalidConfig)
	}
}

func openPostgresSession(ctx context.Context, config *tilevault.DiffConfig) (tilevault.Session, func(), error) {
	connConfig, err := db.ParseConnectionString(config.ConnectionString)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to parse connection string: %w", err)
	}
	if connConfig.AppName == "" {
		connConfig.AppName = "tilevault"
	}
	connConfig.AuthMethod = config.AuthMethod

	connector, err := db.NewConnector(connConfig)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create connector: %w", err)
	}

	pool, err := connector.Connect(ctx)
	if err != nil {
		return nil, nil, err
	}

	conn, err := pool.Acquire(ctx)
	if err != nil {
		pool.Close()
		return nil, nil, fmt.Errorf("failed to acquire connection: %w", err)
	}

	cleanup := func() {
		conn.Release()
		pool.Close()
	}
	return workingcopy.NewPgxSession(conn), cleanup, nil
}

func openDatabaseSQLSession(driver, dsn string) (tilevault.Session, func(), error) {
	handle, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open %s working copy: %w", driver, err)
	}
	cleanup := func() { _ = handle.Close() }
	return workingcopy.NewSQLSession(handle), cleanup, nil
}
