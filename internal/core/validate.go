package core

import (
	"errors"
	"fmt"
	"strings"
)

// Validate runs the structural checks a schema document must pass before any
// table is created or synced. Type support is dialect specific and is left
// to the generator. It returns the first error encountered.
func (ss *SchemaSet) Validate() error {
	if ss == nil || ss.Tables.Len() == 0 {
		return fmt.Errorf("schema is empty, declare some tables first: %w", ErrInvalidSchema)
	}
	if err := validateDuplicateTableNames(ss.Tables.Keys()); err != nil {
		return err
	}
	for name, s := range ss.Tables.All() {
		if err := s.Validate(); err != nil {
			return fmt.Errorf("table %q: %w", name, err)
		}
	}
	return nil
}

// Validate checks that every name the schema mentions resolves to a property
// and that primary key declarations agree.
func (s *Schema) Validate() error {
	if s == nil || s.Properties.Len() == 0 {
		return fmt.Errorf("table has no properties: %w", ErrInvalidSchema)
	}
	for name, p := range s.Properties.All() {
		if p == nil {
			return fmt.Errorf("property %q is empty: %w", name, ErrInvalidSchema)
		}
	}
	if err := validateDuplicateColumns(s); err != nil {
		return err
	}
	if _, err := s.DesiredPrimaryKey(); err != nil {
		return err
	}
	if _, err := s.DesiredUniqueKeys(); err != nil {
		return err
	}
	if _, err := s.PhysicalNames(s.Required); err != nil {
		return err
	}
	return validateForeignKeys(s)
}

func validateDuplicateTableNames(tables []string) error {
	seen := make(map[string]bool, len(tables))
	for _, table := range tables {
		if strings.TrimSpace(table) == "" {
			return fmt.Errorf("table name is required: %w", ErrInvalidSchema)
		}
		lower := strings.ToLower(table)
		if seen[lower] {
			return fmt.Errorf("duplicate table name %q: %w", table, ErrInvalidSchema)
		}
		seen[lower] = true
	}
	return nil
}

// validateDuplicateColumns rejects two properties landing on the same column,
// which happens when a field override collides with another property.
func validateDuplicateColumns(s *Schema) error {
	seen := make(map[string]string, s.Properties.Len())
	for name, p := range s.Properties.All() {
		if !p.Physical() {
			continue
		}
		col := strings.ToLower(PhysicalName(name, p))
		if other, ok := seen[col]; ok {
			return fmt.Errorf("properties %q and %q map to the same column: %w", other, name, ErrInvalidSchema)
		}
		seen[col] = name
	}
	return nil
}

func validateForeignKeys(s *Schema) error {
	var errs []error
	for table, keys := range s.ForeignKeys.All() {
		if keys.Len() == 0 {
			errs = append(errs, fmt.Errorf("foreign key to %q has no columns: %w", table, ErrInvalidSchema))
			continue
		}
		for local, ref := range keys.All() {
			if strings.TrimSpace(local) == "" || strings.TrimSpace(ref) == "" {
				errs = append(errs, fmt.Errorf("foreign key to %q has an empty column name: %w", table, ErrInvalidSchema))
			}
		}
	}
	return errors.Join(errs...)
}
