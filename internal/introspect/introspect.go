// Package introspect contains a main introspecter interface which lets you read
// the current state of a table from the database catalog. It returns a
// core.Metadata snapshot with the table columns and the key constraints of its
// database schema, or an error if a catalog query was unsuccessful.
package introspect

import (
	"context"
	"fmt"
	"sync"

	"jstable/internal/connector"
	"jstable/internal/core"
	"jstable/internal/dialect"
)

type Introspecter interface {
	Introspect(ctx context.Context, db connector.Connector, schemaName, table string) (*core.Metadata, error)
}

var (
	registry = make(map[dialect.Type]func(dialect.Dialect) Introspecter)
	mu       sync.RWMutex
)

func Register(d dialect.Type, fn func(dialect.Dialect) Introspecter) {
	mu.Lock()
	defer mu.Unlock()
	registry[d] = fn
}

func NewIntrospecter(d dialect.Dialect) (Introspecter, error) {
	mu.RLock()
	fn, ok := registry[d.Name()]
	mu.RUnlock()

	if !ok {
		return nil, fmt.Errorf("unsupported dialect %v: %w", d.Name(), core.ErrConfiguration)
	}

	return fn(d), nil
}
