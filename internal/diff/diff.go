// Package diff reconciles a desired table schema with the metadata read from
// the database. It decides which columns to add or widen, whether the primary
// key must be swapped and which unique keys are missing, and refuses any
// column change that could narrow or reinterpret existing data.
package diff

import (
	"fmt"

	"jstable/internal/core"
	"jstable/internal/ddl"
	"jstable/internal/dialect"
)

// TableDiff represents the differences between a table and its schema.
type TableDiff struct {
	Name            string
	AddedColumns    []*ColumnAdd
	ModifiedColumns []*ColumnChange
	PrimaryKey      *KeyChange
	AddedUniqueKeys [][]string
}

// ColumnAdd is a column missing from the table.
type ColumnAdd struct {
	Name     string
	Type     string
	Required bool
}

// ColumnChange is a column whose type must be widened.
type ColumnChange struct {
	Name     string
	Old      *core.ColumnInfo
	New      *core.Property
	Type     string
	Required bool
}

// KeyChange swaps the primary key. Old is nil when the table had none.
type KeyChange struct {
	Old *core.KeyConstraint
	New []string
}

// IsEmpty reports whether the table already matches its schema.
func (td *TableDiff) IsEmpty() bool {
	return len(td.AddedColumns) == 0 &&
		len(td.ModifiedColumns) == 0 &&
		td.PrimaryKey == nil &&
		len(td.AddedUniqueKeys) == 0
}

// CompareTable diffs schema s of table against snapshot m. It has no side
// effects: any refusal is returned before a single statement is produced.
func CompareTable(g *ddl.Generator, table string, s *core.Schema, m *core.Metadata) (*TableDiff, error) {
	if !m.TableExists() {
		return nil, core.ErrTableNotFound
	}

	td := &TableDiff{Name: table}
	if err := compareColumns(g, td, s, m); err != nil {
		return nil, err
	}
	if err := comparePrimaryKey(td, table, s, m); err != nil {
		return nil, err
	}
	if err := compareUniqueKeys(td, table, s, m); err != nil {
		return nil, err
	}
	return td, nil
}

func compareColumns(g *ddl.Generator, td *TableDiff, s *core.Schema, m *core.Metadata) error {
	for name, p := range s.Properties.All() {
		typ, required, ok, err := g.ColumnType(name, p, s)
		if err != nil {
			return err
		}
		if !ok {
			continue
		}

		col := core.PhysicalName(name, p)
		existing, found := m.Columns.Get(col)
		if !found {
			td.AddedColumns = append(td.AddedColumns, &ColumnAdd{Name: col, Type: typ, Required: required})
			continue
		}
		if EqualDefinitions(existing, p) {
			continue
		}
		if !CanAlterColumn(existing, p) {
			return fmt.Errorf("column %s %w", col, core.ErrColumnNotModifiable)
		}
		td.ModifiedColumns = append(td.ModifiedColumns, &ColumnChange{
			Name:     col,
			Old:      existing,
			New:      p,
			Type:     typ,
			Required: required,
		})
	}
	return nil
}

// comparePrimaryKey swaps the key when the ordered column list changed. A
// schema declaring no key leaves the existing one alone.
func comparePrimaryKey(td *TableDiff, table string, s *core.Schema, m *core.Metadata) error {
	desired, err := s.DesiredPrimaryKey()
	if err != nil {
		return err
	}
	if len(desired) == 0 {
		return nil
	}
	old := m.PrimaryKeys[table]
	if old != nil && core.EqualFoldNames(desired, old.ColumnNames()) {
		return nil
	}
	td.PrimaryKey = &KeyChange{Old: old, New: desired}
	return nil
}

func compareUniqueKeys(td *TableDiff, table string, s *core.Schema, m *core.Metadata) error {
	desired, err := s.DesiredUniqueKeys()
	if err != nil {
		return err
	}
	seen := make(map[uint64]struct{})
	for _, uk := range m.UniqueKeys[table] {
		seen[ddl.KeyHash(uk.ColumnNames()...)] = struct{}{}
	}
	for _, cols := range desired {
		h := ddl.KeyHash(cols...)
		if _, ok := seen[h]; ok {
			continue
		}
		seen[h] = struct{}{}
		td.AddedUniqueKeys = append(td.AddedUniqueKeys, cols)
	}
	return nil
}

// Statements renders the diff in execution order: columns first, then the
// primary key swap, then the unique keys.
func (td *TableDiff) Statements(g *ddl.Generator) []string {
	var stmts []string
	d := g.Dialect()
	for _, c := range td.AddedColumns {
		def := d.QuoteIdentifier(c.Name) + " " + c.Type + " " + dialect.Nullability(c.Required)
		stmts = append(stmts, g.AddColumn(td.Name, def))
	}
	for _, c := range td.ModifiedColumns {
		stmts = append(stmts, g.AlterColumn(td.Name, c.Name, c.Type, c.Required)...)
	}
	if pk := td.PrimaryKey; pk != nil {
		if pk.Old != nil {
			stmts = append(stmts, g.DropConstraint(td.Name, pk.Old.Name))
		}
		stmts = append(stmts, g.AddPrimaryKey(td.Name, pk.New))
	}
	for _, cols := range td.AddedUniqueKeys {
		stmts = append(stmts, g.AddUniqueKey(td.Name, cols))
	}
	return stmts
}

// BuildAlterTable returns the ";"-joined batch bringing table in line with s,
// or an empty string when nothing needs to change.
func BuildAlterTable(g *ddl.Generator, table string, s *core.Schema, m *core.Metadata) (string, error) {
	td, err := CompareTable(g, table, s, m)
	if err != nil {
		return "", err
	}
	return ddl.Batch(td.Statements(g)), nil
}
