package core

import (
	"strings"

	"golang.org/x/text/cases"
)

// ColumnInfo is the abstract view of one introspected column.
type ColumnInfo struct {
	Name       string       `json:"name"`
	Type       PropertyType `json:"type"`
	MaxLength  int          `json:"maxLength,omitempty"`
	Decimals   int          `json:"decimals,omitempty"`
	Required   bool         `json:"required,omitempty"`
	References string       `json:"references,omitempty"`
}

// Property converts the column back into a property definition. Nullability
// is not carried over: columns typed from a candidate key are always added as
// nullable.
func (c *ColumnInfo) Property() *Property {
	return &Property{
		Type:      c.Type,
		MaxLength: c.MaxLength,
		Decimals:  c.Decimals,
	}
}

// ConstraintKind is the kind of a constraint recovered from its name prefix.
type ConstraintKind int

const (
	ConstraintUnknown ConstraintKind = iota
	ConstraintPrimaryKey
	ConstraintUniqueKey
	ConstraintForeignKey
)

func (k ConstraintKind) String() string {
	switch k {
	case ConstraintPrimaryKey:
		return "PK"
	case ConstraintUniqueKey:
		return "UK"
	case ConstraintForeignKey:
		return "FK"
	default:
		return "UNKNOWN"
	}
}

// ParseConstraintKind reads the two-letter prefix of a constraint name.
// Constraints that do not follow the PK/UK/FK naming convention are unknown
// and are ignored by the reconciliation engine.
func ParseConstraintKind(name string) ConstraintKind {
	if len(name) < 2 {
		return ConstraintUnknown
	}
	switch cases.Fold().String(name[:2]) {
	case "pk":
		return ConstraintPrimaryKey
	case "uk":
		return ConstraintUniqueKey
	case "fk":
		return ConstraintForeignKey
	default:
		return ConstraintUnknown
	}
}

// KeyConstraint is a primary or unique key found in the catalog.
type KeyConstraint struct {
	Name    string
	Columns []*ColumnInfo
}

// ColumnNames returns the key columns in ordinal order.
func (k *KeyConstraint) ColumnNames() []string {
	return columnNames(k.Columns)
}

// ForeignKeyConstraint is a foreign key found in the catalog. Table is the
// referenced table; each column carries the referenced column name.
type ForeignKeyConstraint struct {
	Name    string
	Table   string
	Columns []*ColumnInfo
}

// Metadata is a snapshot of the catalog for one table, plus the key
// constraints of every table in the same database schema.
type Metadata struct {
	Columns     OrderedMap[*ColumnInfo]
	PrimaryKeys map[string]*KeyConstraint
	UniqueKeys  map[string][]*KeyConstraint
	ForeignKeys map[string][]*ForeignKeyConstraint
}

// NewMetadata returns an empty snapshot.
func NewMetadata() *Metadata {
	return &Metadata{
		Columns:     NewOrderedMap[*ColumnInfo](),
		PrimaryKeys: make(map[string]*KeyConstraint),
		UniqueKeys:  make(map[string][]*KeyConstraint),
		ForeignKeys: make(map[string][]*ForeignKeyConstraint),
	}
}

// TableExists reports whether the introspected table has any column.
func (m *Metadata) TableExists() bool {
	return m.Columns.Len() > 0
}

// TableMetadata is the public shape of a snapshot for one table.
type TableMetadata struct {
	Columns     OrderedMap[*ColumnInfo] `json:"columns"`
	PrimaryKey  []string                `json:"primaryKey,omitempty"`
	UniqueKeys  [][]string              `json:"uniqueKeys,omitempty"`
	ForeignKeys []ForeignKey            `json:"foreignKeys,omitempty"`
}

// ForeignKey is a foreign key as returned to callers.
type ForeignKey struct {
	Table   string        `json:"table"`
	Columns []*ColumnInfo `json:"columns"`
}

// ForTable shapes the snapshot for table.
func (m *Metadata) ForTable(table string) *TableMetadata {
	out := &TableMetadata{Columns: m.Columns}
	if pk, ok := m.PrimaryKeys[table]; ok {
		out.PrimaryKey = pk.ColumnNames()
	}
	for _, uk := range m.UniqueKeys[table] {
		out.UniqueKeys = append(out.UniqueKeys, uk.ColumnNames())
	}
	for _, fk := range m.ForeignKeys[table] {
		out.ForeignKeys = append(out.ForeignKeys, ForeignKey{Table: fk.Table, Columns: fk.Columns})
	}
	return out
}

func columnNames(cols []*ColumnInfo) []string {
	out := make([]string, 0, len(cols))
	for _, c := range cols {
		out = append(out, c.Name)
	}
	return out
}

// EqualFoldNames compares two column lists position by position, ignoring case.
func EqualFoldNames(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if !strings.EqualFold(a[i], b[i]) {
			return false
		}
	}
	return true
}
