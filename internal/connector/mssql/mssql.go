// Package mssql provides a connector for Microsoft SQL Server using the
// go-mssqldb driver through database/sql.
package mssql

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/microsoft/go-mssqldb"
	"github.com/microsoft/go-mssqldb/msdsn"

	"jstable/internal/connector"
)

// sqlDB is the subset of *sql.DB the connector uses.
type sqlDB interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	Close() error
}

// Connector runs SQL through a database/sql pool.
type Connector struct {
	db sqlDB
}

// Open validates dsn, opens a pool and pings the server.
func Open(ctx context.Context, dsn string) (*Connector, error) {
	if _, err := msdsn.Parse(dsn); err != nil {
		return nil, fmt.Errorf("mssql dsn: %w", err)
	}
	db, err := sql.Open("sqlserver", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database connection: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		if closeErr := db.Close(); closeErr != nil {
			return nil, fmt.Errorf("failed to ping database: %v; additionally failed to close connection: %w", err, closeErr)
		}
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}
	return &Connector{db: db}, nil
}

// New wraps an existing pool opened with the sqlserver driver.
func New(db *sql.DB) *Connector {
	return &Connector{db: db}
}

func (c *Connector) Dialect() string {
	return "mssql"
}

func (c *Connector) Execute(ctx context.Context, batch string) error {
	_, err := c.db.ExecContext(ctx, batch)
	return err
}

func (c *Connector) Query(ctx context.Context, query string) ([]connector.Row, error) {
	rows, err := c.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanRows(rows)
}

func (c *Connector) Close() error {
	return c.db.Close()
}

// rowScanner is the subset of *sql.Rows used to decode a result set.
type rowScanner interface {
	Columns() ([]string, error)
	Next() bool
	Scan(dest ...any) error
	Err() error
}

func scanRows(rows rowScanner) ([]connector.Row, error) {
	cols, err := rows.Columns()
	if err != nil {
		return nil, err
	}
	var out []connector.Row
	for rows.Next() {
		values := make([]any, len(cols))
		ptrs := make([]any, len(cols))
		for i := range values {
			ptrs[i] = &values[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, err
		}
		row := make(connector.Row, len(cols))
		for i, name := range cols {
			if b, ok := values[i].([]byte); ok {
				row[name] = string(b)
				continue
			}
			row[name] = values[i]
		}
		out = append(out, row)
	}
	return out, rows.Err()
}
