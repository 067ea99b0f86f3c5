package output

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJSONFormatterFormatMigration(t *testing.T) {
	out, err := jsonFormatter{}.FormatMigration(samplePlan())
	require.NoError(t, err)
	assert.JSONEq(t, `{
		"format": "json",
		"summary": {"tables": 3, "unresolved": 1, "notes": 1, "sqlStatements": 2},
		"unresolved": ["column rate cannot be modified (tax)"],
		"notes": ["table is up to date"],
		"sql": [
			"ALTER TABLE \"public\".\"person\" DROP CONSTRAINT \"PK__person__id\";",
			"ALTER TABLE \"public\".\"person\" ADD CONSTRAINT \"PK__person__code\" PRIMARY KEY (\"code\");"
		],
		"operations": [
			{"kind": "SQL", "table": "person", "sql": "ALTER TABLE \"public\".\"person\" DROP CONSTRAINT \"PK__person__id\"", "risk": "WARNING", "requiresLock": true},
			{"kind": "SQL", "table": "person", "sql": "ALTER TABLE \"public\".\"person\" ADD CONSTRAINT \"PK__person__code\" PRIMARY KEY (\"code\")", "risk": "INFO", "requiresLock": true},
			{"kind": "NOTE", "table": "client", "sql": "table is up to date", "risk": "INFO"},
			{"kind": "UNRESOLVED", "table": "tax", "unresolvedReason": "column rate cannot be modified (tax)"}
		]
	}`, out)
}

func TestJSONFormatterFormatMigrationNil(t *testing.T) {
	out, err := jsonFormatter{}.FormatMigration(nil)
	require.NoError(t, err)
	assert.JSONEq(t, `{"format": "json", "summary": {"tables": 0, "unresolved": 0, "notes": 0, "sqlStatements": 0}}`, out)
}

func TestJSONFormatterFormatMetadata(t *testing.T) {
	out, err := jsonFormatter{}.FormatMetadata(sampleTables())
	require.NoError(t, err)
	assert.JSONEq(t, `{
		"format": "json",
		"tables": {
			"client": {
				"columns": {
					"clientId": {"name": "clientId", "type": "integer", "required": true},
					"email": {"name": "email", "type": "string", "maxLength": 120},
					"personId": {"name": "personId", "type": "integer"}
				},
				"primaryKey": ["clientId"],
				"uniqueKeys": [["email"]],
				"foreignKeys": [{"table": "person", "columns": [{"name": "personId", "type": "integer", "references": "id"}]}]
			}
		}
	}`, out)
	assert.Regexp(t, `^\{\n  "format"`, out)
}
