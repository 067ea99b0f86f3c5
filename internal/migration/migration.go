// Package migration collects the statements a run would execute, table by
// table, so they can be reviewed before anything touches the database.
package migration

import (
	"slices"
	"strings"

	"jstable/internal/connector"
)

// Migration struct contains all operations planned for a set of tables.
type Migration struct {
	Operations []Operation
}

// Plan returns the list of operations in the order they were planned.
func (m *Migration) Plan() []Operation {
	return m.Operations
}

// SQLStatements returns the statements to execute, in order.
func (m *Migration) SQLStatements() []string {
	return m.filterByKind(OperationSQL, func(op Operation) string { return op.SQL })
}

// UnresolvedNotes returns the reasons why tables could not be planned.
func (m *Migration) UnresolvedNotes() []string {
	return m.filterByKind(OperationUnresolved, func(op Operation) string { return op.UnresolvedReason })
}

// InfoNotes returns the informational notes of the plan.
func (m *Migration) InfoNotes() []string {
	return m.filterByKind(OperationNote, func(op Operation) string { return op.SQL })
}

// Tables returns the tables touched by the plan in first-seen order.
func (m *Migration) Tables() []string {
	var out []string
	for _, op := range m.Operations {
		if op.Table != "" && !slices.Contains(out, op.Table) {
			out = append(out, op.Table)
		}
	}
	return out
}

// ForTable returns the operations planned for table.
func (m *Migration) ForTable(table string) []Operation {
	var out []Operation
	for _, op := range m.Operations {
		if op.Table == table {
			out = append(out, op)
		}
	}
	return out
}

func (m *Migration) AddStatement(table, stmt string) {
	if stmt = strings.TrimSpace(stmt); stmt == "" {
		return
	}
	risk, lock := classify(stmt)
	m.Operations = append(m.Operations, Operation{
		Kind:         OperationSQL,
		Table:        table,
		SQL:          stmt,
		Risk:         risk,
		RequiresLock: lock,
	})
}

// AddBatch adds every statement of a ";"-joined batch.
func (m *Migration) AddBatch(table, batch string) {
	for _, stmt := range connector.SplitBatch(batch) {
		m.AddStatement(table, stmt)
	}
}

func (m *Migration) AddNote(table, msg string) {
	if msg = strings.TrimSpace(msg); msg == "" {
		return
	}
	m.Operations = append(m.Operations, Operation{Kind: OperationNote, Table: table, SQL: msg, Risk: RiskInfo})
}

func (m *Migration) AddUnresolved(table, reason string) {
	if reason = strings.TrimSpace(reason); reason == "" {
		return
	}
	m.Operations = append(m.Operations, Operation{Kind: OperationUnresolved, Table: table, UnresolvedReason: reason})
}

// Dedupe drops repeated notes and reasons of the same table. Statements are
// never deduplicated, their order matters.
func (m *Migration) Dedupe() {
	n := len(m.Operations)
	if n == 0 {
		return
	}
	seen := make(map[Operation]struct{}, n)
	out := make([]Operation, 0, n)
	for _, op := range m.Operations {
		if op.Kind != OperationSQL {
			if _, ok := seen[op]; ok {
				continue
			}
			seen[op] = struct{}{}
		}
		out = append(out, op)
	}
	m.Operations = out
}

func (m *Migration) filterByKind(kind OperationKind, fieldFn func(Operation) string) []string {
	out := make([]string, 0, len(m.Operations)/4+1)
	for i := range m.Operations {
		op := &m.Operations[i]
		if op.Kind != kind {
			continue
		}
		val := strings.TrimSpace(fieldFn(*op))
		if val == "" {
			continue
		}
		out = append(out, val)
	}
	return out
}
