package output

import (
	"strings"

	"jstable/internal/migration"
)

type sqlFormatter struct{}

// FormatMigration formats a migration in SQL format, grouped by table.
func (sqlFormatter) FormatMigration(m *migration.Migration) (string, error) {
	if m == nil {
		return "", nil
	}

	var sb strings.Builder
	sb.WriteString("-- jstable plan\n")
	sb.WriteString("-- Review before running in production.\n")

	writeCommentSection(&sb, "UNRESOLVED (cannot be synced)", m.UnresolvedNotes())
	writeCommentSection(&sb, "NOTES", m.InfoNotes())

	if len(m.SQLStatements()) == 0 {
		sb.WriteString("\n-- No SQL statements generated.\n")
		return sb.String(), nil
	}

	for _, table := range m.Tables() {
		writeSQLOperations(&sb, table, m.ForTable(table))
	}
	return sb.String(), nil
}

// FormatMetadata renders metadata as SQL comments, one block per table.
func (sqlFormatter) FormatMetadata(tables Tables) (string, error) {
	var sb strings.Builder
	for name, meta := range tables.All() {
		sb.WriteString("-- " + name + "\n")
		if meta == nil {
			continue
		}
		for col, c := range meta.Columns.All() {
			sb.WriteString("--   " + col + " " + describeColumn(c) + "\n")
		}
		if len(meta.PrimaryKey) > 0 {
			sb.WriteString("--   PRIMARY KEY (" + strings.Join(meta.PrimaryKey, ", ") + ")\n")
		}
		for _, uk := range meta.UniqueKeys {
			sb.WriteString("--   UNIQUE (" + strings.Join(uk, ", ") + ")\n")
		}
		for _, fk := range meta.ForeignKeys {
			sb.WriteString("--   FOREIGN KEY " + describeForeignKey(fk) + "\n")
		}
	}
	return sb.String(), nil
}

func writeSQLOperations(sb *strings.Builder, table string, ops []migration.Operation) {
	var wrote bool
	for _, op := range ops {
		if op.Kind != migration.OperationSQL || op.SQL == "" {
			continue
		}
		if !wrote {
			sb.WriteString("\n-- " + table + "\n")
			wrote = true
		}
		writeRiskComment(sb, op)
		sb.WriteString(op.SQL)
		if !strings.HasSuffix(op.SQL, ";") {
			sb.WriteString(";")
		}
		sb.WriteString("\n")
	}
}

func writeRiskComment(sb *strings.Builder, op migration.Operation) {
	if op.Risk != "" && op.Risk != migration.RiskInfo {
		sb.WriteString("-- [" + string(op.Risk) + "]")
		if op.RequiresLock {
			sb.WriteString(" (may acquire locks)")
		}
		sb.WriteString("\n")
	}
}

func writeCommentSection(sb *strings.Builder, title string, items []string) {
	if len(items) == 0 {
		return
	}
	sb.WriteString("\n-- " + title + "\n")
	for _, item := range items {
		for _, line := range splitCommentLines(item) {
			if line == "" {
				continue
			}
			sb.WriteString("-- - " + line + "\n")
		}
	}
}

func splitCommentLines(s string) []string {
	s = strings.ReplaceAll(s, "\r\n", "\n")
	s = strings.ReplaceAll(s, "\r", "\n")
	lines := strings.Split(s, "\n")
	for i, line := range lines {
		lines[i] = strings.TrimSpace(line)
	}
	return lines
}
