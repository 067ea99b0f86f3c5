// Package connector defines the database capability the compiler relies on:
// running a batch of SQL and reading tabular rows back. Concrete connectors
// live in the mssql and postgres subpackages; Recorder wraps any connector to
// capture DDL instead of executing it.
package connector

import (
	"context"
	"strings"
	"sync"
)

// Row is one result row keyed by column alias.
type Row map[string]any

// Get looks a value up by alias, ignoring case. Drivers differ in how they
// report alias case, so callers should not depend on it.
func (r Row) Get(alias string) any {
	if v, ok := r[alias]; ok {
		return v
	}
	for k, v := range r {
		if strings.EqualFold(k, alias) {
			return v
		}
	}
	return nil
}

// Connector runs SQL against a database. Execute receives a single string
// that may hold several statements joined with ";".
type Connector interface {
	Execute(ctx context.Context, batch string) error
	Query(ctx context.Context, query string) ([]Row, error)
}

// DialectNamer is implemented by connectors that know which SQL dialect
// they speak.
type DialectNamer interface {
	Dialect() string
}

// RedshiftProber is implemented by Postgres connectors able to tell whether
// the server is Amazon Redshift, which has no usable constraint catalog.
type RedshiftProber interface {
	IsRedshift(ctx context.Context) (bool, error)
}

// Recorder forwards queries to the wrapped connector but records batches
// passed to Execute without running them. It backs dry-run planning.
type Recorder struct {
	conn Connector

	mu      sync.Mutex
	batches []string
}

// NewRecorder wraps conn.
func NewRecorder(conn Connector) *Recorder {
	return &Recorder{conn: conn}
}

func (r *Recorder) Execute(_ context.Context, batch string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.batches = append(r.batches, batch)
	return nil
}

func (r *Recorder) Query(ctx context.Context, query string) ([]Row, error) {
	return r.conn.Query(ctx, query)
}

// Dialect reports the dialect of the wrapped connector, if it knows it.
func (r *Recorder) Dialect() string {
	if n, ok := r.conn.(DialectNamer); ok {
		return n.Dialect()
	}
	return ""
}

// IsRedshift delegates to the wrapped connector when it supports the probe.
func (r *Recorder) IsRedshift(ctx context.Context) (bool, error) {
	if p, ok := r.conn.(RedshiftProber); ok {
		return p.IsRedshift(ctx)
	}
	return false, nil
}

// Batches returns the recorded batches in execution order.
func (r *Recorder) Batches() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, len(r.batches))
	copy(out, r.batches)
	return out
}

// Statements splits the recorded batches into single statements.
func (r *Recorder) Statements() []string {
	var out []string
	for _, b := range r.Batches() {
		out = append(out, SplitBatch(b)...)
	}
	return out
}

// Reset drops every recorded batch.
func (r *Recorder) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.batches = nil
}

// SplitBatch splits a ";"-joined batch into trimmed statements. Generated
// batches never contain ";" inside literals, so no quoting rules apply.
func SplitBatch(batch string) []string {
	var out []string
	for stmt := range strings.SplitSeq(batch, ";") {
		if stmt = strings.TrimSpace(stmt); stmt != "" {
			out = append(out, stmt)
		}
	}
	return out
}
