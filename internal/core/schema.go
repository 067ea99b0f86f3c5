// Package core contains the single source of truth for a table description.
// It provides a structured representation of schemas, properties and the
// metadata snapshots read back from a live database, shared by every dialect
// we support.
package core

import (
	"regexp"
	"slices"
)

// PropertyType is the abstract type of a property, independent of any dialect.
type PropertyType string

const (
	TypeUndefined PropertyType = ""
	TypeInteger   PropertyType = "integer"
	TypeNumber    PropertyType = "number"
	TypeString    PropertyType = "string"
	TypeText      PropertyType = "text"
	TypeDate      PropertyType = "date"
	TypeTime      PropertyType = "time"
	TypeDatetime  PropertyType = "datetime"
	TypeBoolean   PropertyType = "boolean"
	TypeBlob      PropertyType = "blob"
	TypeObject    PropertyType = "object"
	TypeArray     PropertyType = "array"
)

const (
	// FormatDateTime marks a string property holding an RFC 3339 timestamp.
	FormatDateTime = "date-time"

	// TimezoneIgnore drops time-zone awareness from datetime and time columns.
	TimezoneIgnore = "ignore"
	TimezoneUTC    = "UTC"
)

// Property is the abstract definition of one column.
type Property struct {
	Type          PropertyType `json:"type,omitempty" toml:"type"`
	Field         string       `json:"field,omitempty" toml:"field"`
	MaxLength     int          `json:"maxLength,omitempty" toml:"max_length"`
	Decimals      int          `json:"decimals,omitempty" toml:"decimals"`
	Required      bool         `json:"required,omitempty" toml:"required"`
	PrimaryKey    bool         `json:"primaryKey,omitempty" toml:"primary_key"`
	Unique        bool         `json:"unique,omitempty" toml:"unique"`
	AutoIncrement bool         `json:"autoIncrement,omitempty" toml:"auto_increment"`
	Timezone      string       `json:"timezone,omitempty" toml:"timezone"`
	Format        string       `json:"format,omitempty" toml:"format"`
	Ref           string       `json:"$ref,omitempty" toml:"ref"`
	Schema        *RefSchema   `json:"schema,omitempty" toml:"schema"`
}

// RefSchema is the nested form of a reference, optionally naming the
// candidate key of the referenced table.
type RefSchema struct {
	Ref string `json:"$ref,omitempty" toml:"ref"`
	Key string `json:"key,omitempty" toml:"key"`
}

// Reference returns the $ref of the property, looking into the nested schema
// when the property carries none itself.
func (p *Property) Reference() string {
	if p.Ref != "" {
		return p.Ref
	}
	if p.Schema != nil {
		return p.Schema.Ref
	}
	return ""
}

// ReferenceKey returns the explicit candidate key named by the property, if any.
func (p *Property) ReferenceKey() string {
	if p.Schema != nil {
		return p.Schema.Key
	}
	return ""
}

// Physical reports whether the property maps to a column at all.
func (p *Property) Physical() bool {
	return p.Type != TypeUndefined && p.Type != TypeObject
}

// Schema is the desired definition of one table.
type Schema struct {
	Properties  OrderedMap[*Property]          `json:"properties"`
	PrimaryKey  []string                       `json:"primaryKey,omitempty"`
	Required    []string                       `json:"required,omitempty"`
	Unique      [][]string                     `json:"unique,omitempty"`
	ForeignKeys OrderedMap[OrderedMap[string]] `json:"foreignKeys,omitzero"`
}

// Clone returns a deep copy, so callers may mutate a schema between operations
// without affecting a facade that already holds the original.
func (s *Schema) Clone() *Schema {
	if s == nil {
		return nil
	}
	out := &Schema{
		Properties: NewOrderedMap[*Property](),
		PrimaryKey: slices.Clone(s.PrimaryKey),
		Required:   slices.Clone(s.Required),
	}
	for name, p := range s.Properties.All() {
		cp := *p
		if p.Schema != nil {
			rs := *p.Schema
			cp.Schema = &rs
		}
		out.Properties.Set(name, &cp)
	}
	for _, group := range s.Unique {
		out.Unique = append(out.Unique, slices.Clone(group))
	}
	for table, keys := range s.ForeignKeys.All() {
		m := NewOrderedMap[string]()
		for local, ref := range keys.All() {
			m.Set(local, ref)
		}
		out.ForeignKeys.Set(table, m)
	}
	return out
}

var definitionRef = regexp.MustCompile(`^#/definitions/(.*)`)

// ReferencedTableName extracts the table name from a $ref, accepting both the
// "#/definitions/<name>" pointer form and a bare table name.
func ReferencedTableName(ref string) string {
	if m := definitionRef.FindStringSubmatch(ref); m != nil {
		return m[1]
	}
	return ref
}
