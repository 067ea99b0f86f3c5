package output

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"jstable/internal/core"
	"jstable/internal/migration"
)

func TestSummaryFormatterFormatMigrationEmpty(t *testing.T) {
	sf := summaryFormatter{}
	result, err := sf.FormatMigration(nil)
	require.NoError(t, err)
	assert.Equal(t, "No migration operations.\n", result)

	result, err = sf.FormatMigration(&migration.Migration{})
	require.NoError(t, err)
	assert.Equal(t, "No migration operations.\n", result)
}

func TestSummaryFormatterFormatMigration(t *testing.T) {
	m := samplePlan()
	m.AddStatement("owner", `ALTER TABLE "public"."owner" ADD "name" VARCHAR(50) NULL`)

	result, err := summaryFormatter{}.FormatMigration(m)
	require.NoError(t, err)
	assert.Equal(t, `Plan Summary
============

Tables:         4
SQL Statements: 3

Unresolved Issues: 1
   - column rate cannot be modified (tax)

Details:
  ~ person (2 statements, 1 warnings)
  = client (up to date)
  ! tax (unresolved)
  ~ owner (1 statement)
`, result)
}

func TestSummaryFormatterFormatMetadata(t *testing.T) {
	tables := sampleTables()
	tables.Set("ghost", &core.TableMetadata{})

	result, err := summaryFormatter{}.FormatMetadata(tables)
	require.NoError(t, err)
	assert.Contains(t, result, "client\n  clientId             integer required\n")
	assert.Contains(t, result, "  primary key: clientId\n")
	assert.Contains(t, result, "  unique: email\n")
	assert.Contains(t, result, "  foreign key: (personId) -> person(id)\n")
	assert.Contains(t, result, "ghost (missing)\n")
}

func TestSummaryFormatterFormatMetadataEmpty(t *testing.T) {
	result, err := summaryFormatter{}.FormatMetadata(core.NewOrderedMap[*core.TableMetadata]())
	require.NoError(t, err)
	assert.Equal(t, "No tables.\n", result)
}
