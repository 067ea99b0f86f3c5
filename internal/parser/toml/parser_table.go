package toml

import (
	"fmt"

	"jstable/internal/core"
)

// tomlTable maps [[tables]].
type tomlTable struct {
	Name        string           `toml:"name"`
	PrimaryKey  []string         `toml:"primary_key"`
	Required    []string         `toml:"required"`
	Unique      [][]string       `toml:"unique"`
	Properties  []tomlProperty   `toml:"properties"`
	ForeignKeys []tomlForeignKey `toml:"foreign_keys"`
}

// tomlProperty maps [[tables.properties]]. Properties are an array of tables
// rather than a table so that their declaration order survives decoding.
type tomlProperty struct {
	Name          string          `toml:"name"`
	Type          string          `toml:"type"`
	Field         string          `toml:"field"`
	MaxLength     int             `toml:"max_length"`
	Decimals      int             `toml:"decimals"`
	Required      bool            `toml:"required"`
	PrimaryKey    bool            `toml:"primary_key"`
	Unique        bool            `toml:"unique"`
	AutoIncrement bool            `toml:"auto_increment"`
	Timezone      string          `toml:"timezone"`
	Format        string          `toml:"format"`
	Ref           string          `toml:"ref"`
	Schema        *core.RefSchema `toml:"schema"`
}

// tomlForeignKey maps [[tables.foreign_keys]]: columns[i] references
// references[i] in table.
type tomlForeignKey struct {
	Table      string   `toml:"table"`
	Columns    []string `toml:"columns"`
	References []string `toml:"references"`
}

func (t *tomlTable) convert() (*core.Schema, error) {
	if t.Name == "" {
		return nil, fmt.Errorf("table name is required: %w", core.ErrInvalidSchema)
	}

	s := &core.Schema{
		Properties: core.NewOrderedMap[*core.Property](),
		PrimaryKey: t.PrimaryKey,
		Required:   t.Required,
		Unique:     t.Unique,
	}
	for i := range t.Properties {
		tp := &t.Properties[i]
		if tp.Name == "" {
			return nil, fmt.Errorf("property #%d has no name: %w", i+1, core.ErrInvalidSchema)
		}
		if _, ok := s.Properties.Get(tp.Name); ok {
			return nil, fmt.Errorf("duplicate property %q: %w", tp.Name, core.ErrInvalidSchema)
		}
		s.Properties.Set(tp.Name, tp.property())
	}

	for _, fk := range t.ForeignKeys {
		if fk.Table == "" {
			return nil, fmt.Errorf("foreign key without table: %w", core.ErrInvalidSchema)
		}
		if len(fk.Columns) == 0 || len(fk.Columns) != len(fk.References) {
			return nil, fmt.Errorf("foreign key to %q needs as many columns as references: %w", fk.Table, core.ErrInvalidSchema)
		}
		keys, _ := s.ForeignKeys.Get(fk.Table)
		for i, col := range fk.Columns {
			keys.Set(col, fk.References[i])
		}
		s.ForeignKeys.Set(fk.Table, keys)
	}
	return s, nil
}

func (tp *tomlProperty) property() *core.Property {
	return &core.Property{
		Type:          core.PropertyType(tp.Type),
		Field:         tp.Field,
		MaxLength:     tp.MaxLength,
		Decimals:      tp.Decimals,
		Required:      tp.Required,
		PrimaryKey:    tp.PrimaryKey,
		Unique:        tp.Unique,
		AutoIncrement: tp.AutoIncrement,
		Timezone:      tp.Timezone,
		Format:        tp.Format,
		Ref:           tp.Ref,
		Schema:        tp.Schema,
	}
}
