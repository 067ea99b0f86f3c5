// Package postgres provides the PostgreSQL dialect. Redshift speaks the same
// dialect and is told apart only during introspection.
package postgres

import (
	"fmt"
	"strings"

	"jstable/internal/core"
	"jstable/internal/dialect"
)

func init() {
	dialect.RegisterDialect(dialect.PostgreSQL, func(flags dialect.Flags) dialect.Dialect {
		return New(flags)
	})
}

// Dialect is the PostgreSQL dialect.
type Dialect struct {
	flags dialect.Flags
}

func New(flags dialect.Flags) *Dialect {
	return &Dialect{flags: flags}
}

func (d *Dialect) Name() dialect.Type {
	return dialect.PostgreSQL
}

func (d *Dialect) Flags() dialect.Flags {
	return d.flags
}

func (d *Dialect) DefaultSchema() string {
	return "public"
}

// QuoteIdentifier wraps name in double quotes, doubling embedded quotes.
func (d *Dialect) QuoteIdentifier(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}

func (d *Dialect) QuoteString(value string) string {
	return "'" + strings.ReplaceAll(value, "'", "''") + "'"
}

func (d *Dialect) integerType() string {
	if d.flags.BigInt {
		return "BIGINT"
	}
	return "INTEGER"
}

func withTimezone(typ string, p *core.Property) string {
	if p.Timezone == core.TimezoneIgnore {
		return typ
	}
	return typ + " WITH TIME ZONE"
}

func (d *Dialect) ColumnType(name string, p *core.Property) (string, bool, error) {
	switch p.Type {
	case core.TypeInteger:
		if p.AutoIncrement {
			if d.flags.BigInt {
				return "BIGSERIAL", true, nil
			}
			return "SERIAL", true, nil
		}
		return d.integerType(), true, nil
	case core.TypeNumber:
		switch {
		case p.Decimals > 0:
			if p.MaxLength < p.Decimals {
				return "", false, fmt.Errorf("property %s: decimals %d exceed maxLength: %w", name, p.Decimals, core.ErrInvalidSchema)
			}
			return fmt.Sprintf("NUMERIC(%d,%d)", p.MaxLength, p.Decimals), true, nil
		case p.MaxLength > 0:
			return d.integerType(), true, nil
		case d.flags.DoubleFloats:
			return "DOUBLE PRECISION", true, nil
		default:
			return "REAL", true, nil
		}
	case core.TypeString:
		if p.Format == core.FormatDateTime {
			return "TIMESTAMP WITH TIME ZONE", true, nil
		}
		if p.MaxLength > 0 {
			return fmt.Sprintf("VARCHAR(%d)", p.MaxLength), true, nil
		}
		return "TEXT", true, nil
	case core.TypeText:
		return "TEXT", true, nil
	case core.TypeDate:
		return "DATE", true, nil
	case core.TypeTime:
		return withTimezone("TIME", p), true, nil
	case core.TypeDatetime:
		return withTimezone("TIMESTAMP", p), true, nil
	case core.TypeBoolean:
		return "BOOLEAN", true, nil
	case core.TypeBlob:
		return "BYTEA", true, nil
	case core.TypeObject, core.TypeUndefined:
		return "", false, nil
	case core.TypeArray:
		return "", false, fmt.Errorf("property %s has %w: %s", name, core.ErrUnsupportedType, p.Type)
	default:
		return "", false, fmt.Errorf("property %s of type %q %w in postgres", name, p.Type, core.ErrUnknownPropertyType)
	}
}

func (d *Dialect) ColumnInfo(col dialect.NativeColumn) (*core.ColumnInfo, error) {
	info := &core.ColumnInfo{
		Name:       col.Name,
		Required:   !col.Nullable,
		References: col.References,
	}
	switch strings.ToLower(col.DataType) {
	case "integer", "bigint", "smallint":
		info.Type = core.TypeInteger
	case "boolean":
		info.Type = core.TypeBoolean
	case "text":
		info.Type = core.TypeText
	case "character varying", "character":
		if col.MaxLength > 0 {
			info.Type = core.TypeString
			info.MaxLength = col.MaxLength
		} else {
			info.Type = core.TypeText
		}
	case "bytea":
		info.Type = core.TypeBlob
	case "date":
		info.Type = core.TypeDate
	case "time", "time with time zone", "time without time zone":
		info.Type = core.TypeTime
	case "timestamp", "timestamp with time zone", "timestamp without time zone":
		info.Type = core.TypeDatetime
	case "numeric":
		info.Type = core.TypeNumber
		info.MaxLength = col.Precision
		info.Decimals = col.Scale
	case "real", "double precision":
		info.Type = core.TypeNumber
	default:
		return nil, fmt.Errorf("postgres column %s type %s %w", col.Name, col.DataType, core.ErrUnrecognizedNativeType)
	}
	return info, nil
}

// AlterColumn changes the type and the nullability in two clauses, as
// PostgreSQL does not accept both in one.
func (d *Dialect) AlterColumn(column, typ string, required bool) []string {
	nullability := "DROP NOT NULL"
	if required {
		nullability = "SET NOT NULL"
	}
	return []string{
		"ALTER COLUMN " + column + " TYPE " + typ,
		"ALTER COLUMN " + column + " " + nullability,
	}
}

func (d *Dialect) CreateTable(schemaName, table, definitions string) string {
	return fmt.Sprintf("CREATE TABLE IF NOT EXISTS %s (%s)", dialect.QualifiedName(d, schemaName, table), definitions)
}
