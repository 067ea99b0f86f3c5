// Package postgres provides a connector for PostgreSQL (and Redshift) built on
// a pgx connection pool.
package postgres

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"jstable/internal/connector"
)

// pool is the subset of *pgxpool.Pool the connector uses.
type pool interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	Close()
}

// Connector runs SQL through a pgx pool.
type Connector struct {
	pool pool
}

// Open connects to the database at dsn and pings it.
func Open(ctx context.Context, dsn string) (*Connector, error) {
	p, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("pgxpool: %w", err)
	}
	if err := p.Ping(ctx); err != nil {
		p.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}
	return &Connector{pool: p}, nil
}

// New wraps an existing pool.
func New(p *pgxpool.Pool) *Connector {
	return &Connector{pool: p}
}

func (c *Connector) Dialect() string {
	return "postgres"
}

// Execute runs batch without arguments, so pgx sends it through the simple
// protocol and several ";"-separated statements are accepted.
func (c *Connector) Execute(ctx context.Context, batch string) error {
	_, err := c.pool.Exec(ctx, batch)
	return err
}

func (c *Connector) Query(ctx context.Context, query string) ([]connector.Row, error) {
	rows, err := c.pool.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	fields := rows.FieldDescriptions()
	var out []connector.Row
	for rows.Next() {
		values, err := rows.Values()
		if err != nil {
			return nil, err
		}
		row := make(connector.Row, len(fields))
		for i, fd := range fields {
			row[fd.Name] = values[i]
		}
		out = append(out, row)
	}
	return out, rows.Err()
}

// IsRedshift reports whether the server identifies itself as Redshift.
func (c *Connector) IsRedshift(ctx context.Context) (bool, error) {
	rows, err := c.Query(ctx, "SELECT version() AS version")
	if err != nil {
		return false, err
	}
	if len(rows) == 0 {
		return false, nil
	}
	v, _ := rows[0].Get("version").(string)
	return strings.Contains(strings.ToLower(v), "redshift"), nil
}

func (c *Connector) Close() error {
	c.pool.Close()
	return nil
}
