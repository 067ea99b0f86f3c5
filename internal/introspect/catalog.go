package introspect

import (
	"context"
	"fmt"
	"strconv"

	"jstable/internal/connector"
	"jstable/internal/core"
	"jstable/internal/dialect"
)

// Catalog reads metadata from the standard INFORMATION_SCHEMA views, which both
// supported engines provide with the same layout.
type Catalog struct {
	Dialect dialect.Dialect
	// Database is the SQL expression returning the current database name.
	Database string
	// HasConstraints reports whether the database keeps key constraints at
	// all. Nil means it always does.
	HasConstraints func(ctx context.Context, db connector.Connector) (bool, error)
}

// ConstraintsQuery lists every key column of every PK, UK and FK constraint in
// schemaName, with the referenced column for foreign keys. Rows come ordered by
// table, constraint and column position.
func (c *Catalog) ConstraintsQuery(schemaName string) string {
	return "SELECT pk.CONSTRAINT_NAME AS constraint_name, pk.TABLE_NAME AS table_name, " +
		"pk.COLUMN_NAME AS column_name, " +
		"rfk.TABLE_NAME AS ref_table_name, rfk.COLUMN_NAME AS ref_column_name, " +
		"c.DATA_TYPE AS data_type, " +
		"CAST(c.CHARACTER_MAXIMUM_LENGTH AS integer) AS character_maximum_length, " +
		"CAST(c.NUMERIC_PRECISION AS integer) AS numeric_precision, " +
		"CAST(c.NUMERIC_SCALE AS integer) AS numeric_scale " +
		"FROM INFORMATION_SCHEMA.KEY_COLUMN_USAGE AS pk " +
		"INNER JOIN INFORMATION_SCHEMA.COLUMNS AS c ON pk.COLUMN_NAME = c.COLUMN_NAME AND pk.TABLE_NAME = c.TABLE_NAME " +
		"AND pk.TABLE_CATALOG = c.TABLE_CATALOG AND pk.TABLE_SCHEMA = c.TABLE_SCHEMA " +
		"LEFT OUTER JOIN INFORMATION_SCHEMA.REFERENTIAL_CONSTRAINTS AS rk ON pk.CONSTRAINT_NAME = rk.CONSTRAINT_NAME " +
		"AND pk.TABLE_CATALOG = rk.CONSTRAINT_CATALOG AND pk.TABLE_SCHEMA = rk.CONSTRAINT_SCHEMA " +
		"LEFT OUTER JOIN INFORMATION_SCHEMA.KEY_COLUMN_USAGE AS rfk ON rk.UNIQUE_CONSTRAINT_NAME = rfk.CONSTRAINT_NAME " +
		"AND pk.ORDINAL_POSITION = rfk.ORDINAL_POSITION " +
		"AND pk.TABLE_CATALOG = rfk.TABLE_CATALOG AND pk.TABLE_SCHEMA = rfk.TABLE_SCHEMA " +
		"WHERE pk.TABLE_CATALOG = " + c.Database + " AND pk.TABLE_SCHEMA = " + c.Dialect.QuoteString(schemaName) + " " +
		"ORDER BY pk.TABLE_NAME, pk.CONSTRAINT_NAME, pk.ORDINAL_POSITION"
}

// ColumnsQuery lists the columns of one table in ordinal order.
func (c *Catalog) ColumnsQuery(schemaName, table string) string {
	return "SELECT COLUMN_NAME AS column_name, IS_NULLABLE AS is_nullable, DATA_TYPE AS data_type, " +
		"CAST(CHARACTER_MAXIMUM_LENGTH AS integer) AS character_maximum_length, " +
		"CAST(NUMERIC_PRECISION AS integer) AS numeric_precision, " +
		"CAST(NUMERIC_SCALE AS integer) AS numeric_scale " +
		"FROM INFORMATION_SCHEMA.COLUMNS " +
		"WHERE TABLE_NAME = " + c.Dialect.QuoteString(table) +
		" AND TABLE_CATALOG = " + c.Database +
		" AND TABLE_SCHEMA = " + c.Dialect.QuoteString(schemaName) + " " +
		"ORDER BY ORDINAL_POSITION"
}

func (c *Catalog) Introspect(ctx context.Context, db connector.Connector, schemaName, table string) (*core.Metadata, error) {
	m := core.NewMetadata()

	withConstraints := true
	if c.HasConstraints != nil {
		var err error
		if withConstraints, err = c.HasConstraints(ctx, db); err != nil {
			return nil, err
		}
	}
	if withConstraints {
		if err := c.introspectConstraints(ctx, db, schemaName, m); err != nil {
			return nil, err
		}
	}

	rows, err := db.Query(ctx, c.ColumnsQuery(schemaName, table))
	if err != nil {
		return nil, err
	}
	for _, row := range rows {
		col := nativeColumn(row)
		col.Nullable = StringValue(row.Get("is_nullable")) != "NO"
		info, err := c.Dialect.ColumnInfo(col)
		if err != nil {
			return nil, err
		}
		m.Columns.Set(info.Name, info)
	}
	return m, nil
}

type constraintKey struct {
	table string
	name  string
}

type constraintRows struct {
	kind       core.ConstraintKind
	references string
	columns    []*core.ColumnInfo
}

func (c *Catalog) introspectConstraints(ctx context.Context, db connector.Connector, schemaName string, m *core.Metadata) error {
	rows, err := db.Query(ctx, c.ConstraintsQuery(schemaName))
	if err != nil {
		return err
	}

	var order []constraintKey
	constraints := make(map[constraintKey]*constraintRows)
	for _, row := range rows {
		key := constraintKey{
			table: StringValue(row.Get("table_name")),
			name:  StringValue(row.Get("constraint_name")),
		}
		cr, ok := constraints[key]
		if !ok {
			cr = &constraintRows{
				kind:       core.ParseConstraintKind(key.name),
				references: StringValue(row.Get("ref_table_name")),
			}
			constraints[key] = cr
			order = append(order, key)
		}
		if cr.kind == core.ConstraintUnknown {
			continue
		}

		col := nativeColumn(row)
		col.Nullable = true
		col.References = StringValue(row.Get("ref_column_name"))
		info, err := c.Dialect.ColumnInfo(col)
		if err != nil {
			return err
		}
		cr.columns = append(cr.columns, info)
	}

	for _, key := range order {
		cr := constraints[key]
		switch cr.kind {
		case core.ConstraintPrimaryKey:
			m.PrimaryKeys[key.table] = &core.KeyConstraint{Name: key.name, Columns: cr.columns}
		case core.ConstraintUniqueKey:
			m.UniqueKeys[key.table] = append(m.UniqueKeys[key.table], &core.KeyConstraint{Name: key.name, Columns: cr.columns})
		case core.ConstraintForeignKey:
			m.ForeignKeys[key.table] = append(m.ForeignKeys[key.table], &core.ForeignKeyConstraint{
				Name:    key.name,
				Table:   cr.references,
				Columns: cr.columns,
			})
		}
	}
	return nil
}

func nativeColumn(row connector.Row) dialect.NativeColumn {
	return dialect.NativeColumn{
		Name:      StringValue(row.Get("column_name")),
		DataType:  StringValue(row.Get("data_type")),
		MaxLength: IntValue(row.Get("character_maximum_length")),
		Precision: IntValue(row.Get("numeric_precision")),
		Scale:     IntValue(row.Get("numeric_scale")),
	}
}

// StringValue normalizes a catalog value to a string. NULL becomes "".
func StringValue(v any) string {
	switch v := v.(type) {
	case nil:
		return ""
	case string:
		return v
	case []byte:
		return string(v)
	default:
		return fmt.Sprint(v)
	}
}

// IntValue normalizes a catalog value to an int. NULL and anything that is not
// a number become 0.
func IntValue(v any) int {
	switch v := v.(type) {
	case int:
		return v
	case int64:
		return int(v)
	case int32:
		return int(v)
	case int16:
		return int(v)
	case uint8:
		return int(v)
	case float64:
		return int(v)
	case string:
		n, _ := strconv.Atoi(v)
		return n
	case []byte:
		n, _ := strconv.Atoi(string(v))
		return n
	default:
		return 0
	}
}
