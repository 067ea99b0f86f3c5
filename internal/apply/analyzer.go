package apply

import (
	"fmt"
	"regexp"
	"strings"
)

// statementRule matches a statement shape by its normalized upper-case text.
type statementRule struct {
	statementType string
	pattern       *regexp.Regexp

	blocking          bool
	blockingReason    string
	destructive       bool
	destructiveReason string
	txUnsafe          bool
	txUnsafeReason    string
}

// Rules are tried in order; the first match wins. ALTER TABLE rules look at
// the action following the table name.
var statementRules = []statementRule{
	{
		statementType:     "DROP DATABASE",
		pattern:           regexp.MustCompile(`^DROP\s+DATABASE\b`),
		destructive:       true,
		destructiveReason: "DROP DATABASE will permanently delete the database",
		txUnsafe:          true,
		txUnsafeReason:    "DROP DATABASE cannot run inside a transaction",
	},
	{
		statementType:     "DROP TABLE",
		pattern:           regexp.MustCompile(`^DROP\s+TABLE\b`),
		destructive:       true,
		destructiveReason: "DROP TABLE will permanently delete the table and its data",
	},
	{
		statementType:     "TRUNCATE TABLE",
		pattern:           regexp.MustCompile(`^TRUNCATE\b`),
		blocking:          true,
		blockingReason:    "TRUNCATE acquires an exclusive lock on the table",
		destructive:       true,
		destructiveReason: "TRUNCATE will permanently delete all rows",
	},
	{
		statementType:     "DELETE",
		pattern:           regexp.MustCompile(`^DELETE\b`),
		destructive:       true,
		destructiveReason: "DELETE removes rows",
	},
	{
		statementType:     "DROP COLUMN",
		pattern:           regexp.MustCompile(`^ALTER\s+TABLE\s+\S+\s+DROP\s+COLUMN\b`),
		blocking:          true,
		blockingReason:    "DROP COLUMN locks the table",
		destructive:       true,
		destructiveReason: "DROP COLUMN will permanently delete the column and its data",
	},
	{
		statementType:  "DROP CONSTRAINT",
		pattern:        regexp.MustCompile(`^ALTER\s+TABLE\s+\S+\s+DROP\s+CONSTRAINT\b`),
		blocking:       true,
		blockingReason: "DROP CONSTRAINT leaves the table without that key until it is added back",
	},
	{
		statementType:  "ALTER COLUMN",
		pattern:        regexp.MustCompile(`^ALTER\s+TABLE\s+\S+\s+ALTER\s+COLUMN\b`),
		blocking:       true,
		blockingReason: "ALTER COLUMN may rewrite the table under an exclusive lock",
	},
	{
		statementType:  "ADD PRIMARY KEY",
		pattern:        regexp.MustCompile(`^ALTER\s+TABLE\s+\S+\s+ADD\s+CONSTRAINT\s+\S+\s+PRIMARY\s+KEY\b`),
		blocking:       true,
		blockingReason: "ADD PRIMARY KEY builds an index and validates every row",
	},
	{
		statementType:  "ADD UNIQUE",
		pattern:        regexp.MustCompile(`^ALTER\s+TABLE\s+\S+\s+ADD\s+CONSTRAINT\s+\S+\s+UNIQUE\b`),
		blocking:       true,
		blockingReason: "ADD UNIQUE builds an index and validates every row",
	},
	{
		statementType:  "ADD FOREIGN KEY",
		pattern:        regexp.MustCompile(`^ALTER\s+TABLE\s+\S+\s+ADD\s+CONSTRAINT\s+\S+\s+FOREIGN\s+KEY\b`),
		blocking:       true,
		blockingReason: "ADD FOREIGN KEY validates every row against the referenced table",
	},
	{
		statementType: "ADD COLUMN",
		pattern:       regexp.MustCompile(`^ALTER\s+TABLE\s+\S+\s+ADD\b`),
	},
	{
		statementType: "CREATE TABLE",
		pattern:       regexp.MustCompile(`^(IF\s*\(.*\)\s*)?CREATE\s+TABLE\b`),
	},
	{
		statementType:  "CREATE INDEX CONCURRENTLY",
		pattern:        regexp.MustCompile(`^CREATE\s+(UNIQUE\s+)?INDEX\s+CONCURRENTLY\b`),
		txUnsafe:       true,
		txUnsafeReason: "CREATE INDEX CONCURRENTLY cannot run inside a transaction",
	},
	{
		statementType:  "CREATE DATABASE",
		pattern:        regexp.MustCompile(`^(CREATE|ALTER)\s+DATABASE\b`),
		txUnsafe:       true,
		txUnsafeReason: "database statements cannot run inside a transaction",
	},
}

// StatementAnalysis contains the results of analyzing a SQL statement.
type StatementAnalysis struct {
	IsBlocking        bool
	BlockingReasons   []string
	IsDestructive     bool
	DestructiveReason string
	IsTransactionSafe bool
	TxUnsafeReason    string
	StatementType     string
}

// StatementAnalyzer classifies statements by shape. Statements come from the
// plan command or from a reviewed copy of it, so identifiers may be quoted
// with either "double quotes" or [brackets].
type StatementAnalyzer struct{}

// NewStatementAnalyzer creates a new statement analyzer.
func NewStatementAnalyzer() *StatementAnalyzer {
	return &StatementAnalyzer{}
}

var spaces = regexp.MustCompile(`\s+`)

// AnalyzeStatement returns the analysis of a single SQL statement.
func (a *StatementAnalyzer) AnalyzeStatement(sql string) *StatementAnalysis {
	normalized := strings.ToUpper(spaces.ReplaceAllString(strings.TrimSpace(sql), " "))
	normalized = strings.TrimSuffix(normalized, ";")
	if normalized == "" {
		return &StatementAnalysis{IsTransactionSafe: true}
	}

	analysis := &StatementAnalysis{StatementType: "OTHER", IsTransactionSafe: true}
	for _, rule := range statementRules {
		if !rule.pattern.MatchString(normalized) {
			continue
		}
		analysis.StatementType = rule.statementType
		if rule.blocking {
			analysis.IsBlocking = true
			analysis.BlockingReasons = append(analysis.BlockingReasons, rule.blockingReason)
		}
		analysis.IsDestructive = rule.destructive
		analysis.DestructiveReason = rule.destructiveReason
		analysis.IsTransactionSafe = !rule.txUnsafe
		analysis.TxUnsafeReason = rule.txUnsafeReason
		break
	}
	return analysis
}

// AnalyzeStatements analyzes multiple SQL statements and returns a PreflightResult.
func (a *StatementAnalyzer) AnalyzeStatements(statements []string, unsafeAllowed bool) *PreflightResult {
	result := &PreflightResult{
		IsTransactional: true,
	}

	for _, stmt := range statements {
		analysis := a.AnalyzeStatement(stmt)
		a.addBlockingWarnings(result, analysis, stmt)
		a.addDestructiveWarning(result, analysis, stmt, unsafeAllowed)
		a.addTransactionSafety(result, analysis, stmt)
	}

	return result
}

func (a *StatementAnalyzer) addBlockingWarnings(result *PreflightResult, analysis *StatementAnalysis, stmt string) {
	if !analysis.IsBlocking {
		return
	}
	for _, reason := range analysis.BlockingReasons {
		result.Warnings = append(result.Warnings, Warning{
			Level:   WarnCaution,
			Message: fmt.Sprintf("Potentially blocking DDL: %s", reason),
			SQL:     stmt,
		})
	}
}

func (a *StatementAnalyzer) addDestructiveWarning(result *PreflightResult, analysis *StatementAnalysis, stmt string, unsafeAllowed bool) {
	if !analysis.IsDestructive {
		return
	}
	msg := analysis.DestructiveReason
	if !unsafeAllowed {
		msg = fmt.Sprintf("%s (requires --unsafe flag)", msg)
	}
	result.Warnings = append(result.Warnings, Warning{
		Level:   WarnDanger,
		Message: msg,
		SQL:     stmt,
	})
}

func (a *StatementAnalyzer) addTransactionSafety(result *PreflightResult, analysis *StatementAnalysis, stmt string) {
	if analysis.IsTransactionSafe {
		return
	}
	result.IsTransactional = false
	result.NonTxReasons = append(result.NonTxReasons, fmt.Sprintf("%s: %s", analysis.TxUnsafeReason, stmt))
}
