package db

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dbkit/src/core/domain"
)

func TestConnect_Idempotent(t *testing.T) {
	env := newTestDB(t)
	ctx := context.Background()

	require.NoError(t, env.db.Connect(ctx))
	require.NoError(t, env.db.Connect(ctx))

	opened := 0
	for _, m := range env.sink.messages() {
		if m == "Open database connection" {
			opened++
		}
	}
	assert.Equal(t, 1, opened)
}

func TestConnect_Failure(t *testing.T) {
	sink := &recordingSink{}
	opts := sqliteOptions(filepath.Join(t.TempDir(), "missing", "dir", "x.db"))
	d := New(opts, sink, newFixedTimer(0), nil)

	err := d.Connect(context.Background())
	require.Error(t, err)
	assert.True(t, domain.IsConnectionError(err))

	require.Len(t, sink.exceptions, 1)
	assert.Equal(t, "ConnectionError", sink.exceptions[0].Kind)
	assert.Equal(t, domain.CodeConnect, sink.exceptions[0].Code)
	assert.Equal(t, exceptionPointer, sink.lastMessage())

	// every operation surfaces the connection error
	_, err = d.Query(context.Background(), "SELECT 1")
	assert.True(t, domain.IsConnectionError(err))
}

func TestClose_IdempotentAndReconnects(t *testing.T) {
	env := newTestDB(t)
	ctx := context.Background()
	env.insertUser(t, "Alice")

	require.NoError(t, env.db.Close())
	require.NoError(t, env.db.Close())
	assert.True(t, env.sink.containsMessage("Close database connection"))

	n, err := env.db.Count(ctx, "users", "")
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
}

func TestClose_KeepsSchemaCacheAndStack(t *testing.T) {
	env := newTestDB(t)
	ctx := context.Background()

	_, err := env.db.Describe(ctx, "users")
	require.NoError(t, err)
	stack := env.db.QueryStack()

	require.NoError(t, env.db.Close())

	_, err = env.db.Describe(ctx, "users")
	require.NoError(t, err)
	assert.Equal(t, stack, env.db.QueryStack())
}

func TestTransaction_CommitAndRollback(t *testing.T) {
	env := newTestDB(t)
	ctx := context.Background()

	assert.False(t, env.db.InTransaction())

	require.NoError(t, env.db.Begin(ctx))
	assert.True(t, env.db.InTransaction())
	env.insertUser(t, "Alice")
	require.NoError(t, env.db.Rollback(ctx))
	assert.False(t, env.db.InTransaction())

	n, err := env.db.Count(ctx, "users", "")
	require.NoError(t, err)
	assert.Zero(t, n)

	require.NoError(t, env.db.Begin(ctx))
	env.insertUser(t, "Bob")
	require.NoError(t, env.db.Commit(ctx))

	n, err = env.db.Count(ctx, "users", "")
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
}

func TestTransaction_OutlivesCallerContext(t *testing.T) {
	env := newTestDB(t)

	ctx, cancel := context.WithCancel(context.Background())
	require.NoError(t, env.db.Begin(ctx))
	cancel()

	env.insertUser(t, "Alice")
	require.NoError(t, env.db.Commit(context.Background()))

	n, err := env.db.Count(context.Background(), "users", "")
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
}

func TestTransaction_Errors(t *testing.T) {
	env := newTestDB(t)
	ctx := context.Background()

	err := env.db.Commit(ctx)
	assert.True(t, domain.IsTransactionOp(err, domain.TxCommit))

	err = env.db.Rollback(ctx)
	assert.True(t, domain.IsTransactionOp(err, domain.TxRollback))

	require.NoError(t, env.db.Begin(ctx))
	err = env.db.Begin(ctx)
	assert.True(t, domain.IsTransactionOp(err, domain.TxBegin))
	assert.True(t, env.db.InTransaction())

	require.Len(t, env.sink.exceptions, 3)
	assert.Equal(t, domain.CodeBegin, env.sink.exceptions[2].Code)
}

func TestClose_RollsBackOpenTransaction(t *testing.T) {
	env := newTestDB(t)
	ctx := context.Background()

	require.NoError(t, env.db.Begin(ctx))
	env.insertUser(t, "Alice")
	require.NoError(t, env.db.Close())
	assert.False(t, env.db.InTransaction())

	n, err := env.db.Count(ctx, "users", "")
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestPing(t *testing.T) {
	env := newTestDB(t)
	require.NoError(t, env.db.Close())
	assert.NoError(t, env.db.Health(context.Background()))
}
