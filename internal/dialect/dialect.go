// Package dialect provides a unified interface for the SQL dialects we compile
// schemas to. A dialect is chosen once, from the connector, and then passed
// explicitly to every generator, so no code re-checks which database it talks to.
package dialect

import (
	"fmt"
	"strings"
	"sync"

	"jstable/internal/connector"
	"jstable/internal/core"
)

type Type string

const (
	MSSQL      Type = "mssql"
	PostgreSQL Type = "postgres"
)

// Flags tune the type mapping of a dialect.
type Flags struct {
	// BigInt maps integers to 64-bit types.
	BigInt bool
	// DoubleFloats maps numbers without size to double precision.
	DoubleFloats bool
	// LegacyDatetime maps time-zone-naive datetimes to DATETIME instead of
	// DATETIME2. Only T-SQL honours it.
	LegacyDatetime bool
}

// NativeColumn is one column row read from the information schema.
// MaxLength is -1 for unbounded (MAX) types and 0 when not applicable.
type NativeColumn struct {
	Name       string
	DataType   string
	MaxLength  int
	Precision  int
	Scale      int
	Nullable   bool
	References string
}

// Dialect maps abstract properties to one SQL engine's vocabulary.
type Dialect interface {
	Name() Type
	Flags() Flags
	// DefaultSchema is the database schema used when none is configured.
	DefaultSchema() string
	QuoteIdentifier(name string) string
	QuoteString(value string) string
	// ColumnType returns the native type of a property. ok is false when the
	// property does not describe a physical column (object or no type).
	ColumnType(name string, p *core.Property) (typ string, ok bool, err error)
	// ColumnInfo maps a catalog row back to its abstract form.
	ColumnInfo(col NativeColumn) (*core.ColumnInfo, error)
	// AlterColumn returns the ALTER TABLE clauses changing a column's type
	// and nullability, without the leading "ALTER TABLE <name>".
	AlterColumn(column, typ string, required bool) []string
	// CreateTable wraps the column and constraint definitions into an
	// idempotent CREATE TABLE statement.
	CreateTable(schemaName, table, definitions string) string
}

var (
	registry = make(map[Type]func(Flags) Dialect)
	mu       sync.RWMutex
)

// RegisterDialect creates a new registry entry for the specified dialect.
func RegisterDialect(d Type, ctor func(Flags) Dialect) {
	mu.Lock()
	defer mu.Unlock()
	registry[d] = ctor
}

// GetDialect returns the registered dialect configured with flags.
func GetDialect(d Type, flags Flags) (Dialect, error) {
	mu.RLock()
	ctor, ok := registry[d]
	mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("unsupported dialect %q: %w", d, core.ErrConfiguration)
	}
	return ctor(flags), nil
}

// ParseType normalises the driver names users and connectors use.
func ParseType(name string) (Type, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "mssql", "sqlserver", "tsql":
		return MSSQL, nil
	case "postgres", "postgresql", "pg", "pgx", "redshift":
		return PostgreSQL, nil
	default:
		return "", fmt.Errorf("unsupported dialect %q: %w", name, core.ErrConfiguration)
	}
}

// FromConnector selects the dialect of conn. This is the only place where a
// connector is probed for its identity.
func FromConnector(conn connector.Connector, flags Flags) (Dialect, error) {
	if conn == nil {
		return nil, fmt.Errorf("database connector is required: %w", core.ErrConfiguration)
	}
	namer, ok := conn.(connector.DialectNamer)
	if !ok {
		return nil, fmt.Errorf("unsupported dialect: connector %T does not report one: %w", conn, core.ErrConfiguration)
	}
	t, err := ParseType(namer.Dialect())
	if err != nil {
		return nil, err
	}
	return GetDialect(t, flags)
}

// QualifiedName returns schema.table quoted for d.
func QualifiedName(d Dialect, schemaName, table string) string {
	if schemaName == "" {
		return d.QuoteIdentifier(table)
	}
	return d.QuoteIdentifier(schemaName) + "." + d.QuoteIdentifier(table)
}

// Nullability renders the trailing nullability clause of a column.
func Nullability(required bool) string {
	if required {
		return "NOT NULL"
	}
	return "NULL"
}
