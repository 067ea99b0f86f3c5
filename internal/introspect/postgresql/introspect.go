// Package postgresql registers the PostgreSQL introspecter. Redshift speaks the
// same protocol but keeps no key constraints, so they are not queried there.
package postgresql

import (
	"context"

	"jstable/internal/connector"
	"jstable/internal/dialect"
	"jstable/internal/introspect"
)

func init() {
	introspect.Register(dialect.PostgreSQL, New)
}

func New(d dialect.Dialect) introspect.Introspecter {
	return &introspect.Catalog{
		Dialect:        d,
		Database:       "current_database()",
		HasConstraints: hasConstraints,
	}
}

func hasConstraints(ctx context.Context, db connector.Connector) (bool, error) {
	prober, ok := db.(connector.RedshiftProber)
	if !ok {
		return true, nil
	}
	redshift, err := prober.IsRedshift(ctx)
	if err != nil {
		return false, err
	}
	return !redshift, nil
}
