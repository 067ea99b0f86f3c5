// Package ddl builds the CREATE and ALTER statements for a table schema. Every
// statement is rendered through a dialect.Dialect, so this package holds no
// engine-specific SQL of its own.
package ddl

import (
	"fmt"
	"strings"

	"jstable/internal/core"
	"jstable/internal/dialect"
)

// Generator renders DDL for tables living in one database schema.
type Generator struct {
	dialect    dialect.Dialect
	schemaName string
}

// NewGenerator returns a generator for schemaName. An empty schemaName falls
// back to the dialect default.
func NewGenerator(d dialect.Dialect, schemaName string) *Generator {
	if schemaName == "" {
		schemaName = d.DefaultSchema()
	}
	return &Generator{dialect: d, schemaName: schemaName}
}

func (g *Generator) Dialect() dialect.Dialect {
	return g.dialect
}

func (g *Generator) SchemaName() string {
	return g.schemaName
}

// TableName returns the schema-qualified, quoted table name.
func (g *Generator) TableName(table string) string {
	return dialect.QualifiedName(g.dialect, g.schemaName, table)
}

func (g *Generator) quoteList(cols []string) string {
	quoted := make([]string, len(cols))
	for i, c := range cols {
		quoted[i] = g.dialect.QuoteIdentifier(c)
	}
	return strings.Join(quoted, ", ")
}

// ColumnType returns the native type and requiredness of a property. ok is
// false for properties that have no column.
func (g *Generator) ColumnType(name string, p *core.Property, s *core.Schema) (typ string, required bool, ok bool, err error) {
	typ, ok, err = g.dialect.ColumnType(name, p)
	if err != nil || !ok {
		return "", false, ok, err
	}
	required, err = s.IsRequired(name, p)
	if err != nil {
		return "", false, false, err
	}
	return typ, required, true, nil
}

// ColumnDefinition renders "<column> <type> <NULL|NOT NULL>" for a property.
// A nil schema only uses the property flags for the nullability clause.
func (g *Generator) ColumnDefinition(name string, p *core.Property, s *core.Schema) (string, bool, error) {
	typ, required, ok, err := g.ColumnType(name, p, s)
	if err != nil || !ok {
		return "", false, err
	}
	col := g.dialect.QuoteIdentifier(core.PhysicalName(name, p))
	return col + " " + typ + " " + dialect.Nullability(required), true, nil
}

// CreateTable renders the idempotent CREATE TABLE statement for s: columns in
// declaration order, the primary key, then one constraint per unique group.
func (g *Generator) CreateTable(table string, s *core.Schema) (string, error) {
	var defs []string
	for name, p := range s.Properties.All() {
		def, ok, err := g.ColumnDefinition(name, p, s)
		if err != nil {
			return "", err
		}
		if ok {
			defs = append(defs, def)
		}
	}

	pk, err := s.DesiredPrimaryKey()
	if err != nil {
		return "", err
	}
	if len(pk) > 0 {
		defs = append(defs, g.primaryKeyClause(table, pk))
	}

	uniques, err := s.DesiredUniqueKeys()
	if err != nil {
		return "", err
	}
	for _, cols := range uniques {
		defs = append(defs, g.uniqueClause(table, cols))
	}

	return g.dialect.CreateTable(g.schemaName, table, strings.Join(defs, ", ")), nil
}

func (g *Generator) primaryKeyClause(table string, cols []string) string {
	return fmt.Sprintf("CONSTRAINT %s PRIMARY KEY (%s)", g.dialect.QuoteIdentifier(PrimaryKeyName(table, cols)), g.quoteList(cols))
}

func (g *Generator) uniqueClause(table string, cols []string) string {
	return fmt.Sprintf("CONSTRAINT %s UNIQUE (%s)", g.dialect.QuoteIdentifier(UniqueKeyName(table, cols)), g.quoteList(cols))
}

// AddColumn renders ALTER TABLE ... ADD for a full column definition.
func (g *Generator) AddColumn(table, definition string) string {
	return "ALTER TABLE " + g.TableName(table) + " ADD " + definition
}

// AlterColumn renders the statements changing a column type and nullability.
func (g *Generator) AlterColumn(table, column, typ string, required bool) []string {
	clauses := g.dialect.AlterColumn(g.dialect.QuoteIdentifier(column), typ, required)
	out := make([]string, len(clauses))
	for i, c := range clauses {
		out[i] = "ALTER TABLE " + g.TableName(table) + " " + c
	}
	return out
}

func (g *Generator) DropConstraint(table, name string) string {
	return "ALTER TABLE " + g.TableName(table) + " DROP CONSTRAINT " + g.dialect.QuoteIdentifier(name)
}

func (g *Generator) AddPrimaryKey(table string, cols []string) string {
	return "ALTER TABLE " + g.TableName(table) + " ADD " + g.primaryKeyClause(table, cols)
}

func (g *Generator) AddUniqueKey(table string, cols []string) string {
	return "ALTER TABLE " + g.TableName(table) + " ADD " + g.uniqueClause(table, cols)
}

// AddForeignKey renders the constraint tying cols of table to refCols of refTable.
func (g *Generator) AddForeignKey(table string, cols []string, refTable string, refCols []string) string {
	return fmt.Sprintf("ALTER TABLE %s ADD CONSTRAINT %s FOREIGN KEY (%s) REFERENCES %s (%s)",
		g.TableName(table),
		g.dialect.QuoteIdentifier(ForeignKeyName(table, cols)),
		g.quoteList(cols),
		g.TableName(refTable),
		g.quoteList(refCols),
	)
}

// Batch joins statements into the single ";"-separated string handed to the
// connector.
func Batch(stmts []string) string {
	return strings.Join(stmts, ";")
}
