// Package reference derives the foreign keys a schema asks for and renders the
// constraints that are not in the database yet.
package reference

import (
	"fmt"
	"strings"

	"jstable/internal/core"
	"jstable/internal/ddl"
)

// Reference is one foreign key requested by a schema. Columns are local
// physical columns, Key the matching candidate key columns of Table.
type Reference struct {
	Table   string
	Columns []string
	Key     []string
}

func (r Reference) hash() uint64 {
	parts := make([]string, 0, len(r.Columns)+len(r.Key)+1)
	parts = append(parts, r.Columns...)
	parts = append(parts, r.Table)
	parts = append(parts, r.Key...)
	return ddl.KeyHash(parts...)
}

func hashForeignKey(fk *core.ForeignKeyConstraint) uint64 {
	parts := make([]string, 0, 2*len(fk.Columns)+1)
	for _, c := range fk.Columns {
		parts = append(parts, c.Name)
	}
	parts = append(parts, fk.Table)
	for _, c := range fk.Columns {
		parts = append(parts, c.References)
	}
	return ddl.KeyHash(parts...)
}

func hasKey(m *core.Metadata, table string) bool {
	return m.PrimaryKeys[table] != nil || len(m.UniqueKeys[table]) > 0
}

// Collect lists the references of s: first the $ref properties in declaration
// order, then the explicit foreign key map. References to tables that have
// neither a primary nor a unique key yet are left out, so they can be picked up
// by a later sync once the target has a key.
func Collect(s *core.Schema, m *core.Metadata) ([]Reference, error) {
	var refs []Reference
	for name, p := range s.Properties.All() {
		ref := p.Reference()
		if ref == "" {
			continue
		}
		table := core.ReferencedTableName(ref)
		if !hasKey(m, table) {
			continue
		}
		local := core.PhysicalName(name, p)
		key := p.ReferenceKey()
		if key == "" {
			if pk := m.PrimaryKeys[table]; pk != nil && len(pk.Columns) == 1 {
				key = pk.Columns[0].Name
			}
		}
		if key == "" {
			return nil, fmt.Errorf("foreign key %q %w in table %q", local, core.ErrNoCandidateKey, table)
		}
		refs = append(refs, Reference{Table: table, Columns: []string{local}, Key: []string{key}})
	}

	for table, columns := range s.ForeignKeys.All() {
		if !hasKey(m, table) {
			continue
		}
		r := Reference{Table: table}
		for local, key := range columns.All() {
			r.Columns = append(r.Columns, local)
			r.Key = append(r.Key, key)
		}
		refs = append(refs, r)
	}
	return refs, nil
}

// CandidateKey returns the primary or unique key of the referenced table whose
// columns match r.Key, ignoring case.
func CandidateKey(r Reference, m *core.Metadata) (*core.KeyConstraint, error) {
	candidates := make([]*core.KeyConstraint, 0, 1+len(m.UniqueKeys[r.Table]))
	if pk := m.PrimaryKeys[r.Table]; pk != nil {
		candidates = append(candidates, pk)
	}
	candidates = append(candidates, m.UniqueKeys[r.Table]...)
	for _, ck := range candidates {
		if core.EqualFoldNames(ck.ColumnNames(), r.Key) {
			return ck, nil
		}
	}
	return nil, fmt.Errorf("table %q has %w for %q", r.Table, core.ErrNoCandidateKeyFound, strings.Join(r.Key, ","))
}

// Statements resolves every reference of s and returns the DDL adding the
// foreign keys table is missing. Local columns that do not exist yet are added
// first, nullable and typed like the candidate key column they point at.
// Nothing is returned when every foreign key is already in place.
func Statements(g *ddl.Generator, table string, s *core.Schema, m *core.Metadata) ([]string, error) {
	refs, err := Collect(s, m)
	if err != nil {
		return nil, err
	}

	present := make(map[uint64]struct{})
	for _, fk := range m.ForeignKeys[table] {
		present[hashForeignKey(fk)] = struct{}{}
	}
	added := make(map[string]struct{})

	var stmts []string
	for _, r := range refs {
		ck, err := CandidateKey(r, m)
		if err != nil {
			return nil, err
		}
		h := r.hash()
		if _, ok := present[h]; ok {
			continue
		}
		present[h] = struct{}{}

		for i, col := range r.Columns {
			if _, ok := m.Columns.Get(col); ok {
				continue
			}
			if _, ok := added[col]; ok {
				continue
			}
			def, ok, err := g.ColumnDefinition(col, ck.Columns[i].Property(), nil)
			if err != nil {
				return nil, fmt.Errorf("foreign key column %s: %w", col, err)
			}
			if !ok {
				return nil, fmt.Errorf("foreign key column %s references %s.%s of type %q: %w",
					col, r.Table, ck.Columns[i].Name, ck.Columns[i].Type, core.ErrUnknownPropertyType)
			}
			added[col] = struct{}{}
			stmts = append(stmts, g.AddColumn(table, def))
		}
		stmts = append(stmts, g.AddForeignKey(table, r.Columns, r.Table, ck.ColumnNames()))
	}
	return stmts, nil
}

// BuildReferences returns Statements as one batch, or "" when there is
// nothing to add.
func BuildReferences(g *ddl.Generator, table string, s *core.Schema, m *core.Metadata) (string, error) {
	stmts, err := Statements(g, table, s, m)
	if err != nil {
		return "", err
	}
	return ddl.Batch(stmts), nil
}
