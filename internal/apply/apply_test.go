package apply

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"jstable/internal/connector"
	"jstable/internal/dialect"
)

type fakeConn struct {
	dialect  string
	executed []string
	failOn   int
}

func (f *fakeConn) Execute(_ context.Context, batch string) error {
	f.executed = append(f.executed, batch)
	if f.failOn > 0 && len(f.executed) == f.failOn {
		return errors.New("boom")
	}
	return nil
}

func (f *fakeConn) Query(context.Context, string) ([]connector.Row, error) {
	return nil, nil
}

func (f *fakeConn) Dialect() string {
	return f.dialect
}

const sqlPlan = `-- jstable plan
-- Review before running in production.

-- person
-- [WARNING] (may acquire locks)
ALTER TABLE "public"."person" DROP CONSTRAINT "PK__person__id";
ALTER TABLE "public"."person" ADD CONSTRAINT "PK__person__code" PRIMARY KEY ("code");
`

func TestParseStatements(t *testing.T) {
	a := NewApplier(&fakeConn{}, Options{})

	want := []string{
		`ALTER TABLE "public"."person" DROP CONSTRAINT "PK__person__id"`,
		`ALTER TABLE "public"."person" ADD CONSTRAINT "PK__person__code" PRIMARY KEY ("code")`,
	}
	assert.Equal(t, want, a.ParseStatements(sqlPlan))

	jsonPlan := `{"format": "json", "sql": [
		"ALTER TABLE \"public\".\"person\" DROP CONSTRAINT \"PK__person__id\";",
		" ",
		"ALTER TABLE \"public\".\"person\" ADD CONSTRAINT \"PK__person__code\" PRIMARY KEY (\"code\");"
	]}`
	assert.Equal(t, want, a.ParseStatements(jsonPlan))

	assert.Equal(t, []string{"SELECT 1", "SELECT\n2"}, a.ParseStatements("SELECT 1;\nSELECT\n2"))
	assert.Empty(t, a.ParseStatements("-- nothing to do\n"))
}

func TestApplyDryRun(t *testing.T) {
	conn := &fakeConn{dialect: "postgres"}
	var buf bytes.Buffer
	a := NewApplier(conn, Options{DryRun: true, Out: &buf})

	stmts := a.ParseStatements(sqlPlan)
	require.NoError(t, a.Apply(context.Background(), stmts, a.PreflightChecks(stmts, false)))
	assert.Empty(t, conn.executed)

	out := buf.String()
	assert.Contains(t, out, "=== DRY RUN MODE ===")
	assert.Contains(t, out, "[CAUTION] Potentially blocking DDL: DROP CONSTRAINT")
	assert.Contains(t, out, "All statements are transaction-safe")
	assert.Contains(t, out, "2. ALTER TABLE")
	assert.Contains(t, out, "=== DRY RUN COMPLETE ===")
}

func TestApplyDryRunRefusals(t *testing.T) {
	a := NewApplier(&fakeConn{}, Options{DryRun: true})
	stmts := []string{"DROP TABLE person"}
	err := a.Apply(context.Background(), stmts, a.PreflightChecks(stmts, false))
	assert.EqualError(t, err, "preflight checks failed: destructive operations detected without --unsafe flag")

	a = NewApplier(&fakeConn{}, Options{DryRun: true, Transaction: true})
	stmts = []string{"DROP DATABASE sales"}
	a.options.Unsafe = true
	err = a.Apply(context.Background(), stmts, a.PreflightChecks(stmts, true))
	assert.EqualError(t, err, "preflight checks failed: non-transactional statements detected without --allow-non-transactional flag")
}

func TestApplyStatementByStatement(t *testing.T) {
	conn := &fakeConn{dialect: "postgres"}
	var buf bytes.Buffer
	a := NewApplier(conn, Options{Out: &buf})

	stmts := a.ParseStatements(sqlPlan)
	require.NoError(t, a.Apply(context.Background(), stmts, a.PreflightChecks(stmts, false)))
	assert.Equal(t, stmts, conn.executed)
	assert.Contains(t, buf.String(), "Successfully applied 2 statements")
}

func TestApplyStatementFailure(t *testing.T) {
	conn := &fakeConn{dialect: "postgres", failOn: 2}
	a := NewApplier(conn, Options{})

	stmts := []string{"ALTER TABLE t ADD a INT NULL", "ALTER TABLE t ADD b INT NULL", "ALTER TABLE t ADD c INT NULL"}
	err := a.Apply(context.Background(), stmts, a.PreflightChecks(stmts, false))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "statement 2 failed: boom")
	assert.Contains(t, err.Error(), "1 statements were already applied")
	assert.Len(t, conn.executed, 2)
}

func TestApplyRefusesDestructive(t *testing.T) {
	conn := &fakeConn{dialect: "postgres"}
	a := NewApplier(conn, Options{})
	stmts := []string{"TRUNCATE TABLE person"}
	err := a.Apply(context.Background(), stmts, a.PreflightChecks(stmts, false))
	assert.ErrorContains(t, err, "destructive operations detected")
	assert.Empty(t, conn.executed)
}

func TestApplyWithTransaction(t *testing.T) {
	stmts := []string{"ALTER TABLE t ADD a INT NULL", "ALTER TABLE t ADD b INT NULL"}

	tests := []struct {
		dialect string
		want    string
	}{
		{"postgres", "ALTER TABLE t ADD a INT NULL;ALTER TABLE t ADD b INT NULL"},
		{"mssql", "SET XACT_ABORT ON;BEGIN TRANSACTION;ALTER TABLE t ADD a INT NULL;ALTER TABLE t ADD b INT NULL;COMMIT TRANSACTION"},
		{"SQLServer", "SET XACT_ABORT ON;BEGIN TRANSACTION;ALTER TABLE t ADD a INT NULL;ALTER TABLE t ADD b INT NULL;COMMIT TRANSACTION"},
	}
	for _, tt := range tests {
		t.Run(tt.dialect, func(t *testing.T) {
			conn := &fakeConn{dialect: tt.dialect}
			a := NewApplier(conn, Options{Transaction: true})
			require.NoError(t, a.Apply(context.Background(), stmts, a.PreflightChecks(stmts, false)))
			assert.Equal(t, []string{tt.want}, conn.executed)
		})
	}

	conn := &fakeConn{dialect: "postgres", failOn: 1}
	a := NewApplier(conn, Options{Transaction: true})
	err := a.Apply(context.Background(), stmts, a.PreflightChecks(stmts, false))
	assert.EqualError(t, err, "execute failed (rolled back): boom")
}

func TestApplyWithTransactionExplicitDialect(t *testing.T) {
	stmts := []string{"ALTER TABLE t ADD a INT NULL"}
	conn := &fakeConn{}
	a := NewApplier(conn, Options{Transaction: true, Dialect: dialect.MSSQL})
	require.NoError(t, a.Apply(context.Background(), stmts, a.PreflightChecks(stmts, false)))
	assert.Equal(t, []string{"SET XACT_ABORT ON;BEGIN TRANSACTION;ALTER TABLE t ADD a INT NULL;COMMIT TRANSACTION"}, conn.executed)
}

func TestApplyNonTransactionalPlan(t *testing.T) {
	stmts := []string{"CREATE INDEX CONCURRENTLY i ON t (c)"}

	a := NewApplier(&fakeConn{dialect: "postgres"}, Options{Transaction: true})
	err := a.Apply(context.Background(), stmts, a.PreflightChecks(stmts, false))
	assert.ErrorContains(t, err, "use --allow-non-transactional")

	conn := &fakeConn{dialect: "postgres"}
	a = NewApplier(conn, Options{Transaction: true, AllowNonTransactional: true})
	require.NoError(t, a.Apply(context.Background(), stmts, a.PreflightChecks(stmts, false)))
	assert.Equal(t, stmts, conn.executed)
}

func TestTruncateSQL(t *testing.T) {
	assert.Equal(t, "SELECT 1", truncateSQL("  SELECT 1 "))
	long := "ALTER TABLE t ADD c VARCHAR(10) NULL -- padding padding padding padding padding padding"
	got := truncateSQL(long)
	assert.Len(t, got, 80)
	assert.True(t, len(long) > 80)
	assert.Equal(t, "...", got[77:])
}
