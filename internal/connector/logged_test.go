package connector

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestLogged(t *testing.T) {
	ctx := context.Background()
	core, logs := observer.New(zapcore.DebugLevel)
	inner := &stubConnector{rows: []Row{{"a": 1}, {"a": 2}}}
	l := NewLogged(inner, zap.New(core))

	require.NoError(t, l.Execute(ctx, "ALTER TABLE a ADD b INT NULL;ALTER TABLE a ADD c INT NULL"))
	rows, err := l.Query(ctx, "SELECT a FROM t")
	require.NoError(t, err)
	assert.Len(t, rows, 2)
	assert.Equal(t, []string{"ALTER TABLE a ADD b INT NULL;ALTER TABLE a ADD c INT NULL"}, inner.executed)

	entries := logs.All()
	require.Len(t, entries, 2)
	assert.Equal(t, "execute", entries[0].Message)
	assert.Equal(t, "query", entries[1].Message)
	assert.Equal(t, "SELECT a FROM t", entries[1].ContextMap()["sql"])
	assert.EqualValues(t, 2, entries[1].ContextMap()["rows"])

	assert.Equal(t, "postgres", l.Dialect())
	assert.Same(t, inner, l.Unwrap())
}

func TestLoggedWithoutLogger(t *testing.T) {
	l := NewLogged(plainConnector{}, nil)
	assert.Equal(t, "", l.Dialect())
	_, err := l.Query(context.Background(), "SELECT 1")
	assert.EqualError(t, err, "boom")

	rs, err := l.IsRedshift(context.Background())
	require.NoError(t, err)
	assert.False(t, rs)
}
