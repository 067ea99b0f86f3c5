// Package mssql provides the T-SQL dialect used for Microsoft SQL Server.
package mssql

import (
	"fmt"
	"strings"

	"jstable/internal/core"
	"jstable/internal/dialect"
)

func init() {
	dialect.RegisterDialect(dialect.MSSQL, func(flags dialect.Flags) dialect.Dialect {
		return New(flags)
	})
}

// Dialect is the T-SQL dialect.
type Dialect struct {
	flags dialect.Flags
}

func New(flags dialect.Flags) *Dialect {
	return &Dialect{flags: flags}
}

func (d *Dialect) Name() dialect.Type {
	return dialect.MSSQL
}

func (d *Dialect) Flags() dialect.Flags {
	return d.flags
}

func (d *Dialect) DefaultSchema() string {
	return "dbo"
}

// QuoteIdentifier wraps name in brackets, doubling any closing bracket.
func (d *Dialect) QuoteIdentifier(name string) string {
	return "[" + strings.ReplaceAll(name, "]", "]]") + "]"
}

func (d *Dialect) QuoteString(value string) string {
	return "'" + strings.ReplaceAll(value, "'", "''") + "'"
}

func (d *Dialect) integerType() string {
	if d.flags.BigInt {
		return "BIGINT"
	}
	return "INT"
}

func (d *Dialect) ColumnType(name string, p *core.Property) (string, bool, error) {
	switch p.Type {
	case core.TypeInteger:
		if p.AutoIncrement {
			return d.integerType() + " IDENTITY(1,1)", true, nil
		}
		return d.integerType(), true, nil
	case core.TypeNumber:
		switch {
		case p.Decimals > 0:
			if p.MaxLength < p.Decimals {
				return "", false, fmt.Errorf("property %s: decimals %d exceed maxLength: %w", name, p.Decimals, core.ErrInvalidSchema)
			}
			return fmt.Sprintf("DECIMAL(%d,%d)", p.MaxLength, p.Decimals), true, nil
		case p.MaxLength > 0:
			return d.integerType(), true, nil
		case d.flags.DoubleFloats:
			return "FLOAT(53)", true, nil
		default:
			return "REAL", true, nil
		}
	case core.TypeString:
		if p.Format == core.FormatDateTime {
			return "DATETIMEOFFSET", true, nil
		}
		if p.MaxLength > 0 {
			return fmt.Sprintf("NVARCHAR(%d)", p.MaxLength), true, nil
		}
		return "NVARCHAR(MAX)", true, nil
	case core.TypeText:
		return "NVARCHAR(MAX)", true, nil
	case core.TypeDate:
		return "DATE", true, nil
	case core.TypeTime:
		return "TIME", true, nil
	case core.TypeDatetime:
		switch {
		case p.Timezone != core.TimezoneIgnore:
			return "DATETIMEOFFSET", true, nil
		case d.flags.LegacyDatetime:
			return "DATETIME", true, nil
		default:
			return "DATETIME2", true, nil
		}
	case core.TypeBoolean:
		return "BIT", true, nil
	case core.TypeBlob:
		return "VARBINARY(MAX)", true, nil
	case core.TypeObject, core.TypeUndefined:
		return "", false, nil
	case core.TypeArray:
		return "", false, fmt.Errorf("property %s has %w: %s", name, core.ErrUnsupportedType, p.Type)
	default:
		return "", false, fmt.Errorf("property %s of type %q %w in mssql", name, p.Type, core.ErrUnknownPropertyType)
	}
}

func (d *Dialect) ColumnInfo(col dialect.NativeColumn) (*core.ColumnInfo, error) {
	info := &core.ColumnInfo{
		Name:       col.Name,
		Required:   !col.Nullable,
		References: col.References,
	}
	switch strings.ToLower(col.DataType) {
	case "int", "bigint", "smallint", "tinyint":
		info.Type = core.TypeInteger
	case "nvarchar", "varchar", "nchar", "char":
		if col.MaxLength < 0 {
			info.Type = core.TypeText
		} else {
			info.Type = core.TypeString
			info.MaxLength = col.MaxLength
		}
	case "ntext", "text":
		info.Type = core.TypeText
	case "varbinary", "binary", "image":
		info.Type = core.TypeBlob
	case "date":
		info.Type = core.TypeDate
	case "time":
		info.Type = core.TypeTime
	case "datetime", "datetime2", "datetimeoffset", "smalldatetime":
		info.Type = core.TypeDatetime
	case "decimal", "numeric":
		info.Type = core.TypeNumber
		info.MaxLength = col.Precision
		info.Decimals = col.Scale
	case "real", "float":
		info.Type = core.TypeNumber
	case "bit":
		info.Type = core.TypeBoolean
	default:
		return nil, fmt.Errorf("mssql column %s type %s %w", col.Name, col.DataType, core.ErrUnrecognizedNativeType)
	}
	return info, nil
}

// AlterColumn changes type and nullability in a single clause.
func (d *Dialect) AlterColumn(column, typ string, required bool) []string {
	return []string{"ALTER COLUMN " + column + " " + typ + " " + dialect.Nullability(required)}
}

// CreateTable guards the statement with an INFORMATION_SCHEMA lookup, since
// T-SQL has no CREATE TABLE IF NOT EXISTS.
func (d *Dialect) CreateTable(schemaName, table, definitions string) string {
	return fmt.Sprintf(
		"IF (NOT EXISTS (SELECT * FROM INFORMATION_SCHEMA.TABLES WHERE TABLE_SCHEMA = %s AND TABLE_NAME = %s)) CREATE TABLE %s (%s)",
		d.QuoteString(schemaName), d.QuoteString(table), dialect.QualifiedName(d, schemaName, table), definitions,
	)
}
