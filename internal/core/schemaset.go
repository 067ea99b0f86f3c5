package core

import (
	"cmp"
	"slices"
)

// SchemaSet is an ordered collection of table schemas, as found in a schema
// document with a definitions section.
type SchemaSet struct {
	Tables OrderedMap[*Schema]
}

// Dependencies returns the tables referenced by s, through $ref properties or
// the explicit foreign key map, in declaration order and without duplicates.
func (s *Schema) Dependencies() []string {
	var deps []string
	seen := make(map[string]struct{})
	add := func(table string) {
		if _, ok := seen[table]; ok || table == "" {
			return
		}
		seen[table] = struct{}{}
		deps = append(deps, table)
	}
	for _, p := range s.Properties.All() {
		if ref := p.Reference(); ref != "" {
			add(ReferencedTableName(ref))
		}
	}
	for table := range s.ForeignKeys.All() {
		add(table)
	}
	return deps
}

// DependencyOrder returns the table names ordered so that every referenced
// table comes before the tables referencing it. Self references and
// references to tables outside the set are ignored. Tables caught in a cycle
// keep their relative declaration order.
func (ss *SchemaSet) DependencyOrder() []string {
	names := ss.Tables.Keys()
	level := make(map[string]int, len(names))
	visited := make(map[string]bool, len(names))
	onStack := make(map[string]bool, len(names))

	var visit func(string) int
	visit = func(table string) int {
		if onStack[table] {
			return 0
		}
		if visited[table] {
			return level[table]
		}
		visited[table] = true
		onStack[table] = true

		s, _ := ss.Tables.Get(table)
		maxLevel := 0
		for _, dep := range s.Dependencies() {
			if dep == table {
				continue
			}
			if _, ok := ss.Tables.Get(dep); !ok {
				continue
			}
			if l := visit(dep) + 1; l > maxLevel {
				maxLevel = l
			}
		}

		onStack[table] = false
		level[table] = maxLevel
		return maxLevel
	}

	for _, name := range names {
		visit(name)
	}

	ordered := slices.Clone(names)
	slices.SortStableFunc(ordered, func(a, b string) int {
		return cmp.Compare(level[a], level[b])
	})
	return ordered
}
