package table_test

import (
	"context"
	"encoding/json"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcmssql "github.com/testcontainers/testcontainers-go/modules/mssql"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"

	"jstable/internal/connector"
	"jstable/internal/connector/mssql"
	"jstable/internal/connector/postgres"
	"jstable/internal/core"
	"jstable/internal/table"
)

func setupPostgres(t *testing.T) connector.Connector {
	t.Helper()
	ctx := context.Background()

	pgContainer, err := tcpostgres.Run(ctx, "postgres:16-alpine",
		tcpostgres.WithDatabase("testdb"),
		tcpostgres.WithUsername("postgres"),
		tcpostgres.WithPassword("testpass"),
		tcpostgres.BasicWaitStrategies(),
	)
	require.NoError(t, err, "failed to start Postgres container")
	t.Cleanup(func() {
		if err := testcontainers.TerminateContainer(pgContainer); err != nil {
			t.Logf("failed to terminate container: %v", err)
		}
	})

	dsn, err := pgContainer.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err, "failed to get connection string")

	conn, err := postgres.Open(ctx, dsn)
	require.NoError(t, err, "failed to connect")
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

func setupMSSQL(t *testing.T) connector.Connector {
	t.Helper()
	ctx := context.Background()

	msContainer, err := tcmssql.Run(ctx, "mcr.microsoft.com/mssql/server:2022-CU14-ubuntu-22.04",
		tcmssql.WithAcceptEULA(),
		tcmssql.WithPassword("Jstable-Test-1"),
	)
	require.NoError(t, err, "failed to start SQL Server container")
	t.Cleanup(func() {
		if err := testcontainers.TerminateContainer(msContainer); err != nil {
			t.Logf("failed to terminate container: %v", err)
		}
	})

	dsn, err := msContainer.ConnectionString(ctx)
	require.NoError(t, err, "failed to get connection string")

	conn, err := mssql.Open(ctx, dsn)
	require.NoError(t, err, "failed to connect")
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

func TestPostgresIntegration(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	runScenarios(t, setupPostgres(t))
}

func TestMSSQLIntegration(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	runScenarios(t, setupMSSQL(t))
}

func schemaOf(t *testing.T, doc string) *core.Schema {
	t.Helper()
	var s core.Schema
	require.NoError(t, json.Unmarshal([]byte(doc), &s))
	return &s
}

func newTable(t *testing.T, db connector.Connector, name, doc string) *table.Table {
	t.Helper()
	tbl, err := table.New(name, schemaOf(t, doc), table.Config{DB: db})
	require.NoError(t, err)
	return tbl
}

func runScenarios(t *testing.T, db connector.Connector) {
	ctx := context.Background()

	t.Run("create then read metadata", func(t *testing.T) {
		person := newTable(t, db, "person", `{
			"properties": {
				"personId": {"type": "integer", "primaryKey": true},
				"name": {"type": "string", "maxLength": 50, "required": true}
			}
		}`)
		require.NoError(t, person.Create(ctx))
		require.NoError(t, person.Create(ctx), "create must be idempotent")

		meta, err := person.Metadata(ctx)
		require.NoError(t, err)
		assert.Equal(t, []string{"personId"}, meta.PrimaryKey)
		id, ok := meta.Columns.Get("personId")
		require.True(t, ok)
		assert.Equal(t, core.TypeInteger, id.Type)
		name, ok := meta.Columns.Get("name")
		require.True(t, ok)
		assert.True(t, name.Required)
	})

	t.Run("sync before create", func(t *testing.T) {
		ghost := newTable(t, db, "ghost", `{"properties": {"id": {"type": "integer"}}}`)
		err := ghost.Sync(ctx, table.SyncOptions{})
		require.ErrorIs(t, err, core.ErrTableNotFound)
		assert.Contains(t, err.Error(), "created first")
	})

	t.Run("widen only", func(t *testing.T) {
		const doc = `{"properties": {"id": {"type": "integer", "primaryKey": true}, "initials": {"type": "string", "maxLength": %s}}}`
		require.NoError(t, newTable(t, db, "initials", fmt.Sprintf(doc, "2")).Create(ctx))

		err := newTable(t, db, "initials", fmt.Sprintf(doc, "1")).Sync(ctx, table.SyncOptions{})
		require.ErrorIs(t, err, core.ErrColumnNotModifiable)
		assert.Contains(t, err.Error(), "cannot be modified")

		wider := newTable(t, db, "initials", fmt.Sprintf(doc, "50"))
		require.NoError(t, wider.Sync(ctx, table.SyncOptions{}))
		meta, err := wider.Metadata(ctx)
		require.NoError(t, err)
		col, _ := meta.Columns.Get("initials")
		assert.Equal(t, 50, col.MaxLength)

		require.NoError(t, wider.Sync(ctx, table.SyncOptions{}), "second sync must be a no-op")
	})

	t.Run("references", func(t *testing.T) {
		require.NoError(t, newTable(t, db, "owner", `{"properties": {"id": {"type": "integer", "primaryKey": true}}}`).Create(ctx))

		pet := newTable(t, db, "pet", `{
			"properties": {
				"petId": {"type": "integer", "primaryKey": true},
				"owner": {"$ref": "#/definitions/owner", "field": "ownerId"}
			}
		}`)
		require.NoError(t, pet.Create(ctx))
		require.NoError(t, pet.Sync(ctx, table.SyncOptions{}))
		require.NoError(t, pet.Sync(ctx, table.SyncOptions{}))

		meta, err := pet.Metadata(ctx)
		require.NoError(t, err)
		require.Len(t, meta.ForeignKeys, 1)
		assert.Equal(t, "owner", meta.ForeignKeys[0].Table)
		require.Len(t, meta.ForeignKeys[0].Columns, 1)
		assert.Equal(t, "ownerId", meta.ForeignKeys[0].Columns[0].Name)
		assert.Equal(t, "id", meta.ForeignKeys[0].Columns[0].References)
	})

	t.Run("array is rejected", func(t *testing.T) {
		bad := newTable(t, db, "bad", `{"properties": {"id": {"type": "integer"}, "tags": {"type": "array"}}}`)
		err := bad.Create(ctx)
		require.ErrorIs(t, err, core.ErrUnsupportedType)
		assert.Contains(t, err.Error(), "not yet implemented")
	})
}
