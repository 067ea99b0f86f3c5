// Package table is the entry point of the compiler. A Table binds one schema to
// a database connector and offers the three operations callers need: create
// the table, sync an existing table with its schema, and read its metadata.
package table

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"jstable/internal/connector"
	"jstable/internal/core"
	"jstable/internal/ddl"
	"jstable/internal/dialect"
	_ "jstable/internal/dialect/mssql"
	_ "jstable/internal/dialect/postgres"
	"jstable/internal/diff"
	"jstable/internal/introspect"
	_ "jstable/internal/introspect/mssql"
	_ "jstable/internal/introspect/postgresql"
	"jstable/internal/reference"
)

// Config carries the database connector and the dialect options.
type Config struct {
	DB connector.Connector
	// Schema is the database schema holding the table. Empty means the
	// dialect default (dbo or public).
	Schema string
	// Datetime maps time-zone-naive datetimes to the legacy T-SQL DATETIME.
	Datetime     bool
	BigInt       bool
	DoubleFloats bool
	// Logger receives debug logs of every query and batch. Nil disables it.
	Logger *zap.Logger
}

// SyncOptions tune Sync.
type SyncOptions struct {
	// SkipReferences stops after columns and keys, leaving foreign keys for a
	// later pass.
	SkipReferences bool
}

type Table struct {
	name       string
	schema     *core.Schema
	db         connector.Connector
	gen        *ddl.Generator
	introspect introspect.Introspecter
	logger     *zap.Logger
}

// New binds schema s to table name. The dialect is chosen once from cfg.DB.
func New(name string, s *core.Schema, cfg Config) (*Table, error) {
	if name == "" {
		return nil, fmt.Errorf("table name is required: %w", core.ErrConfiguration)
	}
	if s == nil {
		return nil, core.WrapTable(name, fmt.Errorf("schema is required: %w", core.ErrConfiguration))
	}

	d, err := dialect.FromConnector(cfg.DB, dialect.Flags{
		BigInt:         cfg.BigInt,
		DoubleFloats:   cfg.DoubleFloats,
		LegacyDatetime: cfg.Datetime,
	})
	if err != nil {
		return nil, core.WrapTable(name, err)
	}
	in, err := introspect.NewIntrospecter(d)
	if err != nil {
		return nil, core.WrapTable(name, err)
	}

	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	gen := ddl.NewGenerator(d, cfg.Schema)
	logger = logger.With(
		zap.String("table", name),
		zap.String("schema", gen.SchemaName()),
		zap.String("dialect", string(d.Name())),
	)

	return &Table{
		name:       name,
		schema:     s,
		db:         connector.NewLogged(cfg.DB, logger),
		gen:        gen,
		introspect: in,
		logger:     logger,
	}, nil
}

func (t *Table) Name() string {
	return t.name
}

// CreateStatement renders the CREATE TABLE statement without running it.
func (t *Table) CreateStatement() (string, error) {
	stmt, err := t.gen.CreateTable(t.name, t.schema)
	if err != nil {
		return "", core.WrapTable(t.gen.SchemaName()+"."+t.name, err)
	}
	return stmt, nil
}

// Create creates the table if it does not exist. Existing tables are left
// untouched; use Sync to change them.
func (t *Table) Create(ctx context.Context) error {
	stmt, err := t.CreateStatement()
	if err != nil {
		return err
	}
	if err := t.db.Execute(ctx, stmt); err != nil {
		return core.WrapTable(t.gen.SchemaName()+"."+t.name, err)
	}
	return nil
}

// Sync brings an existing table in line with its schema: it adds and widens
// columns, swaps the primary key, adds unique keys and then adds the foreign
// keys that can be resolved. Each phase runs as a single batch, planned in full
// before anything is executed.
func (t *Table) Sync(ctx context.Context, opts SyncOptions) error {
	m, err := t.introspect.Introspect(ctx, t.db, t.gen.SchemaName(), t.name)
	if err != nil {
		return core.WrapTable(t.name, err)
	}

	batch, err := diff.BuildAlterTable(t.gen, t.name, t.schema, m)
	if err != nil {
		return core.WrapTable(t.name, err)
	}
	if batch != "" {
		if err := t.db.Execute(ctx, batch); err != nil {
			return core.WrapTable(t.name, err)
		}
		// Reference resolution must see the columns and keys just added.
		if m, err = t.introspect.Introspect(ctx, t.db, t.gen.SchemaName(), t.name); err != nil {
			return core.WrapTable(t.name, err)
		}
	} else {
		t.logger.Debug("table is up to date")
	}

	if opts.SkipReferences {
		return nil
	}
	return t.syncReferences(ctx, m)
}

func (t *Table) syncReferences(ctx context.Context, m *core.Metadata) error {
	batch, err := reference.BuildReferences(t.gen, t.name, t.schema, m)
	if err != nil {
		return core.WrapTable(t.name, err)
	}
	if batch == "" {
		return nil
	}
	if err := t.db.Execute(ctx, batch); err != nil {
		return core.WrapTable(t.name, err)
	}
	return nil
}

// Metadata reads the table back from the catalog.
func (t *Table) Metadata(ctx context.Context) (*core.TableMetadata, error) {
	m, err := t.introspect.Introspect(ctx, t.db, t.gen.SchemaName(), t.name)
	if err != nil {
		return nil, core.WrapTable(t.name, err)
	}
	return m.ForTable(t.name), nil
}
