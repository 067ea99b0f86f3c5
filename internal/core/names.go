package core

import "fmt"

// FindProperty looks a property up by its logical name, falling back to the
// physical column name given by a field override.
func FindProperty(name string, properties OrderedMap[*Property]) (*Property, error) {
	if p, ok := properties.Get(name); ok {
		return p, nil
	}
	for _, p := range properties.All() {
		if p.Field != "" && p.Field == name {
			return p, nil
		}
	}
	return nil, fmt.Errorf("property %q %w", name, ErrPropertyNotFound)
}

// PhysicalName returns the column name of a property: its field override, or
// the logical name itself.
func PhysicalName(name string, p *Property) string {
	if p != nil && p.Field != "" {
		return p.Field
	}
	return name
}

// PhysicalName resolves name against the schema properties.
func (s *Schema) PhysicalName(name string) (string, error) {
	p, err := FindProperty(name, s.Properties)
	if err != nil {
		return "", err
	}
	return PhysicalName(name, p), nil
}

// PhysicalNames maps a list of logical (or physical) names to column names.
func (s *Schema) PhysicalNames(names []string) ([]string, error) {
	if names == nil {
		return nil, nil
	}
	out := make([]string, 0, len(names))
	for _, name := range names {
		col, err := s.PhysicalName(name)
		if err != nil {
			return nil, err
		}
		out = append(out, col)
	}
	return out, nil
}

// InGroup reports whether the property name belongs to group, where group
// members may be spelled with either the logical or the physical name.
func (s *Schema) InGroup(name string, group []string) (bool, error) {
	if len(group) == 0 {
		return false, nil
	}
	p, err := FindProperty(name, s.Properties)
	if err != nil {
		return false, err
	}
	for _, member := range group {
		if member == name || (p.Field != "" && member == p.Field) {
			return true, nil
		}
	}
	return false, nil
}

// IsRequired applies the requiredness rule: a column is NOT NULL when the
// property says so, when it belongs to the primary key, or when the schema
// lists it as required. A nil schema only consults the property.
func (s *Schema) IsRequired(name string, p *Property) (bool, error) {
	if p.Required || p.PrimaryKey {
		return true, nil
	}
	if s == nil {
		return false, nil
	}
	if ok, err := s.InGroup(name, s.PrimaryKey); err != nil || ok {
		return ok, err
	}
	return s.InGroup(name, s.Required)
}

// DesiredPrimaryKey returns the physical primary key columns. An explicit
// schema-level list wins over per-property flags; flagged properties outside
// that list are rejected as conflicting definitions.
func (s *Schema) DesiredPrimaryKey() ([]string, error) {
	if len(s.PrimaryKey) > 0 {
		for name, p := range s.Properties.All() {
			if !p.PrimaryKey {
				continue
			}
			ok, err := s.InGroup(name, s.PrimaryKey)
			if err != nil {
				return nil, err
			}
			if !ok {
				return nil, fmt.Errorf("property %q is flagged as primary key but missing from the primaryKey list: %w", name, ErrInvalidSchema)
			}
		}
		return s.PhysicalNames(s.PrimaryKey)
	}

	var key []string
	for name, p := range s.Properties.All() {
		if p.PrimaryKey && p.Physical() {
			key = append(key, PhysicalName(name, p))
		}
	}
	return key, nil
}

// DesiredUniqueKeys returns the unique groups as physical column lists:
// single-column groups from unique properties first, then the schema groups.
// A group repeated in any letter case is kept once.
func (s *Schema) DesiredUniqueKeys() ([][]string, error) {
	var groups [][]string
	seen := make(map[uint64]struct{})
	add := func(cols []string) {
		h := KeyHash(cols...)
		if _, ok := seen[h]; ok {
			return
		}
		seen[h] = struct{}{}
		groups = append(groups, cols)
	}
	for name, p := range s.Properties.All() {
		if p.Unique && p.Physical() {
			add([]string{PhysicalName(name, p)})
		}
	}
	for _, group := range s.Unique {
		cols, err := s.PhysicalNames(group)
		if err != nil {
			return nil, err
		}
		add(cols)
	}
	return groups, nil
}
