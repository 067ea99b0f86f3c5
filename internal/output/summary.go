package output

import (
	"fmt"
	"strings"

	"jstable/internal/migration"
)

type summaryFormatter struct{}

// FormatMigration formats a migration as a compact summary.
// Example output:
//
//	Plan Summary
//	============
//
//	Tables:         2
//	SQL Statements: 3
//
//	Details:
//	  ~ person (2 statements)
//	  = client (up to date)
func (summaryFormatter) FormatMigration(m *migration.Migration) (string, error) {
	if m == nil || len(m.Operations) == 0 {
		return "No migration operations.\n", nil
	}

	var sb strings.Builder

	tables := m.Tables()
	unresolved := m.UnresolvedNotes()

	sb.WriteString("Plan Summary\n")
	sb.WriteString("============\n\n")

	fmt.Fprintf(&sb, "Tables:         %d\n", len(tables))
	fmt.Fprintf(&sb, "SQL Statements: %d\n", len(m.SQLStatements()))

	if len(unresolved) > 0 {
		fmt.Fprintf(&sb, "\nUnresolved Issues: %d\n", len(unresolved))
		for _, u := range unresolved {
			fmt.Fprintf(&sb, "   - %s\n", u)
		}
	}

	if len(tables) > 0 {
		sb.WriteString("\nDetails:\n")
		for _, table := range tables {
			fmt.Fprintf(&sb, "  %s\n", describeTablePlan(table, m.ForTable(table)))
		}
	}

	return sb.String(), nil
}

func describeTablePlan(table string, ops []migration.Operation) string {
	var stmts, warnings int
	for _, op := range ops {
		switch op.Kind {
		case migration.OperationUnresolved:
			return "! " + table + " (unresolved)"
		case migration.OperationSQL:
			stmts++
			if op.Risk == migration.RiskWarning {
				warnings++
			}
		}
	}
	switch {
	case stmts == 0:
		return "= " + table + " (up to date)"
	case warnings > 0:
		return fmt.Sprintf("~ %s (%d statements, %d warnings)", table, stmts, warnings)
	case stmts == 1:
		return "~ " + table + " (1 statement)"
	default:
		return fmt.Sprintf("~ %s (%d statements)", table, stmts)
	}
}

// FormatMetadata formats metadata as an indented listing per table.
func (summaryFormatter) FormatMetadata(tables Tables) (string, error) {
	if tables.Len() == 0 {
		return "No tables.\n", nil
	}

	var sb strings.Builder
	for name, meta := range tables.All() {
		if meta == nil || meta.Columns.Len() == 0 {
			fmt.Fprintf(&sb, "%s (missing)\n", name)
			continue
		}
		fmt.Fprintf(&sb, "%s\n", name)
		for col, c := range meta.Columns.All() {
			fmt.Fprintf(&sb, "  %-20s %s\n", col, describeColumn(c))
		}
		if len(meta.PrimaryKey) > 0 {
			fmt.Fprintf(&sb, "  primary key: %s\n", strings.Join(meta.PrimaryKey, ", "))
		}
		for _, uk := range meta.UniqueKeys {
			fmt.Fprintf(&sb, "  unique: %s\n", strings.Join(uk, ", "))
		}
		for _, fk := range meta.ForeignKeys {
			fmt.Fprintf(&sb, "  foreign key: %s\n", describeForeignKey(fk))
		}
	}
	return sb.String(), nil
}
