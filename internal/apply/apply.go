// Package apply runs a reviewed plan against a database. The plan is the
// output of the plan command, either as SQL or as JSON, so that what was
// reviewed is exactly what gets executed.
package apply

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"jstable/internal/connector"
	"jstable/internal/dialect"
)

// PreflightResult contains a list of warnings, errors, and transactionality info about a plan.
type PreflightResult struct {
	Warnings        []Warning
	Errors          []string
	IsTransactional bool
	NonTxReasons    []string
}

// Warning contains a Level of a warning, message, and actual SQL from the plan.
type Warning struct {
	Level   WarningLevel
	Message string
	SQL     string
}

// WarningLevel is a const that is expandable for later and contains different levels of danger.
type WarningLevel string

const (
	WarnCaution WarningLevel = "CAUTION"
	WarnDanger  WarningLevel = "DANGER"
)

// Options struct contains all setting available for user to choose during apply command.
type Options struct {
	// Dialect selects the transaction wrapper. Empty means the dialect the
	// connector reports.
	Dialect               dialect.Type
	DryRun                bool
	Transaction           bool
	AllowNonTransactional bool
	Unsafe                bool
	Out                   io.Writer
}

type jsonPlan struct {
	Format string   `json:"format"`
	SQL    []string `json:"sql,omitempty"`
}

// Applier executes plan statements through a connector.
type Applier struct {
	conn     connector.Connector
	options  Options
	analyzer *StatementAnalyzer
	out      io.Writer
}

// NewApplier returns an Applier running statements on conn with the provided options.
func NewApplier(conn connector.Connector, options Options) *Applier {
	out := options.Out
	if out == nil {
		out = io.Discard
	}
	if options.Dialect == "" {
		if n, ok := conn.(connector.DialectNamer); ok {
			options.Dialect, _ = dialect.ParseType(n.Dialect())
		}
	}
	return &Applier{
		conn:     conn,
		options:  options,
		analyzer: NewStatementAnalyzer(),
		out:      out,
	}
}

func (a *Applier) printf(format string, args ...any) {
	_, _ = fmt.Fprintf(a.out, format, args...)
}

func (a *Applier) println(args ...any) {
	_, _ = fmt.Fprintln(a.out, args...)
}

// Apply runs the statements, or only reports on them in dry-run mode.
// With Transaction set and a transaction-safe plan, every statement runs in
// one transaction; otherwise statements run one by one.
func (a *Applier) Apply(ctx context.Context, statements []string, preflight *PreflightResult) error {
	if a.options.DryRun {
		return a.dryRun(statements, preflight)
	}

	if HasDestructiveOperations(preflight) && !a.options.Unsafe {
		return fmt.Errorf("destructive operations detected; use --unsafe to allow these operations")
	}

	if a.options.Transaction && !preflight.IsTransactional {
		if !a.options.AllowNonTransactional {
			return fmt.Errorf("plan contains non-transactional statements; use --allow-non-transactional to proceed")
		}
	}

	if a.options.Transaction && preflight.IsTransactional {
		return a.applyWithTransaction(ctx, statements)
	}

	return a.applyWithoutTransaction(ctx, statements)
}

// ParseStatements reads a plan in JSON format, falling back to SQL text where
// statements end with ";" at the end of a line and "--" lines are comments.
func (a *Applier) ParseStatements(content string) []string {
	content = strings.TrimSpace(content)

	var plan jsonPlan
	if err := json.Unmarshal([]byte(content), &plan); err == nil && plan.Format == "json" {
		var statements []string
		for _, stmt := range plan.SQL {
			stmt = strings.TrimSuffix(strings.TrimSpace(stmt), ";")
			if stmt != "" {
				statements = append(statements, stmt)
			}
		}
		return statements
	}

	return splitSQL(content)
}

// PreflightChecks analyzes the statements for blocking, destructive and
// non-transactional operations.
func (a *Applier) PreflightChecks(statements []string, unsafe bool) *PreflightResult {
	return a.analyzer.AnalyzeStatements(statements, unsafe)
}

func splitSQL(content string) []string {
	var statements []string
	var current strings.Builder
	flush := func() {
		stmt := strings.TrimSuffix(strings.TrimSpace(current.String()), ";")
		if stmt = strings.TrimSpace(stmt); stmt != "" {
			statements = append(statements, stmt)
		}
		current.Reset()
	}

	for line := range strings.SplitSeq(content, "\n") {
		trimmed := strings.TrimSpace(line)
		if strings.HasPrefix(trimmed, "--") || trimmed == "" {
			continue
		}

		current.WriteString(line)
		current.WriteString("\n")

		if strings.HasSuffix(trimmed, ";") {
			flush()
		}
	}
	flush()

	return statements
}

func truncateSQL(stmt string) string {
	stmt = strings.TrimSpace(stmt)
	if len(stmt) > 80 {
		return stmt[:77] + "..."
	}
	return stmt
}

func (a *Applier) dryRun(statements []string, preflight *PreflightResult) error {
	a.println("=== DRY RUN MODE ===")

	a.println("--- Preflight Checks ---")
	if len(preflight.Warnings) == 0 {
		a.println("No warnings")
	} else {
		for _, w := range preflight.Warnings {
			a.printf("[%s] %s\n", w.Level, w.Message)
			if w.SQL != "" {
				a.printf("    SQL: %s\n", w.SQL)
			}
		}
	}

	a.println("--- Transaction Safety ---")
	if preflight.IsTransactional {
		a.println("All statements are transaction-safe")
	} else {
		a.println("Plan is NOT transaction-safe")
		for _, reason := range preflight.NonTxReasons {
			a.printf("  - %s\n", reason)
		}
	}

	a.println("--- Statements to Execute ---")
	for i, stmt := range statements {
		a.printf("%d. %s\n\n", i+1, stmt)
	}

	if HasDestructiveOperations(preflight) && !a.options.Unsafe {
		return fmt.Errorf("preflight checks failed: destructive operations detected without --unsafe flag")
	}

	if a.options.Transaction && !preflight.IsTransactional && !a.options.AllowNonTransactional {
		return fmt.Errorf("preflight checks failed: non-transactional statements detected without --allow-non-transactional flag")
	}

	a.println("=== DRY RUN COMPLETE ===")
	a.println("All preflight checks passed. Run without --dry-run to apply.")
	return nil
}

// transactionBatch wraps statements so the database runs them atomically.
// Postgres runs a multi-statement simple query in one implicit transaction.
// SQL Server needs an explicit one, aborted on the first error.
func (a *Applier) transactionBatch(statements []string) string {
	batch := strings.Join(statements, ";")
	if a.options.Dialect == dialect.MSSQL {
		return "SET XACT_ABORT ON;BEGIN TRANSACTION;" + batch + ";COMMIT TRANSACTION"
	}
	return batch
}

func (a *Applier) applyWithTransaction(ctx context.Context, statements []string) error {
	if len(statements) == 0 {
		a.println("No statements to apply")
		return nil
	}
	a.printf("Executing %d statements in one transaction...\n", len(statements))
	if err := a.conn.Execute(ctx, a.transactionBatch(statements)); err != nil {
		return fmt.Errorf("execute failed (rolled back): %w", err)
	}

	a.printf("Successfully applied %d statements\n", len(statements))
	return nil
}

func (a *Applier) applyWithoutTransaction(ctx context.Context, statements []string) error {
	a.println("Applying plan statement by statement")

	successCount := 0
	for i, stmt := range statements {
		a.printf("Executing statement %d/%d...\n", i+1, len(statements))
		if err := a.conn.Execute(ctx, stmt); err != nil {
			return fmt.Errorf("statement %d failed: %w\n  Statement: %s\n  %d statements were already applied and cannot be automatically rolled back",
				i+1, err, truncateSQL(stmt), successCount)
		}
		successCount++
	}

	a.printf("Successfully applied %d statements\n", len(statements))
	return nil
}

// HasDestructiveOperations checks if there is a dangerous warning inside a preflight
// analysis of a plan. If it has returns true, otherwise false.
func HasDestructiveOperations(preflight *PreflightResult) bool {
	for _, w := range preflight.Warnings {
		if w.Level == WarnDanger {
			return true
		}
	}
	return false
}
