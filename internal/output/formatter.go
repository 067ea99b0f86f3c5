// Package output provides a set of formatters for migration plans and table
// metadata. It is extendable and for now provides three formats: SQL, JSON
// and a human summary.
package output

import (
	"fmt"
	"strings"

	"jstable/internal/core"
	"jstable/internal/migration"
)

// Format is an enum type representing the available output formats.
type Format string

const (
	FormatSQL     Format = "sql"
	FormatJSON    Format = "json"
	FormatSummary Format = "summary"
)

// Tables is the metadata of several tables keyed by table name, in the order
// they were read.
type Tables = core.OrderedMap[*core.TableMetadata]

// Formatter is an interface for formatting migrations and table metadata.
type Formatter interface {
	FormatMigration(*migration.Migration) (string, error)
	FormatMetadata(Tables) (string, error)
}

// NewFormatter creates a new Formatter instance based on the given name.
// If no format is specified, defaults to SQL format.
func NewFormatter(name string) (Formatter, error) {
	format := Format(strings.ToLower(strings.TrimSpace(name)))
	switch format {
	case "", FormatSQL:
		return sqlFormatter{}, nil
	case FormatJSON:
		return jsonFormatter{}, nil
	case FormatSummary:
		return summaryFormatter{}, nil
	default:
		return nil, fmt.Errorf("unsupported format: %s; use 'sql', 'json', or 'summary': %w", name, core.ErrConfiguration)
	}
}

func normalizeStatements(stmts []string) []string {
	var out []string
	for _, stmt := range stmts {
		stmt = strings.TrimSpace(stmt)
		if stmt == "" {
			continue
		}
		if !strings.HasSuffix(stmt, ";") {
			stmt += ";"
		}
		out = append(out, stmt)
	}
	return out
}

// describeColumn renders a column the way a schema author would write it,
// e.g. "string(50) required".
func describeColumn(c *core.ColumnInfo) string {
	var sb strings.Builder
	sb.WriteString(string(c.Type))
	switch {
	case c.MaxLength > 0 && c.Decimals > 0:
		fmt.Fprintf(&sb, "(%d,%d)", c.MaxLength, c.Decimals)
	case c.MaxLength > 0:
		fmt.Fprintf(&sb, "(%d)", c.MaxLength)
	}
	if c.Required {
		sb.WriteString(" required")
	}
	return sb.String()
}

func describeForeignKey(fk core.ForeignKey) string {
	local := make([]string, 0, len(fk.Columns))
	ref := make([]string, 0, len(fk.Columns))
	for _, c := range fk.Columns {
		local = append(local, c.Name)
		ref = append(ref, c.References)
	}
	return fmt.Sprintf("(%s) -> %s(%s)", strings.Join(local, ", "), fk.Table, strings.Join(ref, ", "))
}
