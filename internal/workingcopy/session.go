package workingcopy

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/vvka-141/tilevault/pkg/tilevault"
)

// SQLSession adapts a database/sql handle (MySQL, SQLite) to the
// tilevault.Session interface. The handle is expected to be a single
// connection or transaction so the whole logical operation shares one
// backend session.
type SQLSession struct {
	db interface {
		ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
		QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)
	}
}

// NewSQLSession wraps a *sql.DB, *sql.Conn or *sql.Tx.
func NewSQLSession(db interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)
}) *SQLSession {
	return &SQLSession{db: db}
}

// Exec runs a statement that returns no rows.
func (s *SQLSession) Exec(ctx context.Context, query string, args ...interface{}) error {
	_, err := s.db.ExecContext(ctx, query, args...)
	return err
}

// Query runs a statement and returns every result row as an ordered
// column-to-value mapping.
func (s *SQLSession) Query(ctx context.Context, query string, args ...interface{}) ([]tilevault.Row, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	columns, err := rows.Columns()
	if err != nil {
		return nil, err
	}

	var result []tilevault.Row
	for rows.Next() {
		values := make([]interface{}, len(columns))
		scan := make([]interface{}, len(columns))
		for i := range values {
			scan[i] = &values[i]
		}
		if err := rows.Scan(scan...); err != nil {
			return nil, err
		}
		result = append(result, tilevault.Row{Columns: columns, Values: values})
	}
	return result, rows.Err()
}

// PgxSession adapts a pgx connection to the tilevault.Session interface.
// One acquired connection serves the whole logical operation.
type PgxSession struct {
	conn *pgxpool.Conn
}

// NewPgxSession wraps an acquired pgx connection.
func NewPgxSession(conn *pgxpool.Conn) *PgxSession {
	return &PgxSession{conn: conn}
}

// Exec runs a statement that returns no rows.
func (s *PgxSession) Exec(ctx context.Context, query string, args ...interface{}) error {
	_, err := s.conn.Exec(ctx, query, args...)
	return err
}

// Query runs a statement and returns every result row as an ordered
// column-to-value mapping.
func (s *PgxSession) Query(ctx context.Context, query string, args ...interface{}) ([]tilevault.Row, error) {
	rows, err := s.conn.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	fields := rows.FieldDescriptions()
	columns := make([]string, len(fields))
	for i, f := range fields {
		columns[i] = f.Name
	}

	var result []tilevault.Row
	for rows.Next() {
		values, err := rows.Values()
		if err != nil {
			return nil, err
		}
		result = append(result, tilevault.Row{Columns: columns, Values: values})
	}
	if err := rows.Err(); err != nil && err != pgx.ErrNoRows {
		return nil, err
	}
	return result, nil
}

// New returns the backend implementation for the configured kind.
func New(kind tilevault.BackendKind) (tilevault.WorkingCopyBackend, error) {
	switch kind {
	case tilevault.BackendPostgres:
		return NewPostgresBackend(), nil
	case tilevault.BackendMySQL:
		return NewMySQLBackend(), nil
	case tilevault.BackendGPKG:
		return NewGPKGBackend(), nil
	default:
		return nil, fmt.Errorf("unknown working-copy backend %q: %w", kind, tilevault.ErrInvalidConfig)
	}
}
