package repo

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dbkit/src/core/domain"
	"dbkit/src/infra/benchmark"
	"dbkit/src/infra/config"
	"dbkit/src/infra/db"
	"dbkit/src/infra/logger"
	"dbkit/src/infra/sqlbuilder"
)

func newTestRepository(t *testing.T) (*InspectorRepository, *bytes.Buffer) {
	t.Helper()

	var out bytes.Buffer
	sink, err := logger.NewChannelSink(config.LogConfig{Level: "info", Format: "plain"}, &out)
	require.NoError(t, err)

	database := db.New(db.Options{
		DriverName:         db.SQLiteDriverName,
		DSN:                "file:" + filepath.Join(t.TempDir(), "repo.db"),
		Dialect:            sqlbuilder.SQLite,
		Columns:            sqlbuilder.DefaultOptions(),
		SlowQueryThreshold: domain.DefaultSlowQueryThreshold,
		QueryLog:           true,
	}, sink, benchmark.New(), nil)

	ctx := context.Background()
	_, err = database.Execute(ctx, "CREATE TABLE items (id INTEGER PRIMARY KEY, label TEXT NOT NULL)")
	require.NoError(t, err)
	for i := 1; i <= 3; i++ {
		_, err = database.Insert(ctx, "items", domain.RowOf(domain.F("label", fmt.Sprintf("item-%d", i))))
		require.NoError(t, err)
	}

	r := NewInspectorRepository(database, logger.NewWithWriter(config.LogConfig{Level: "error"}, io.Discard))
	t.Cleanup(func() { _ = r.Close() })
	return r, &out
}

func TestInspectorRepository_Health(t *testing.T) {
	r, _ := newTestRepository(t)

	require.NoError(t, r.Close())
	assert.NoError(t, r.Health(context.Background()))
}

func TestInspectorRepository_DescribeColumns(t *testing.T) {
	r, _ := newTestRepository(t)

	cols, err := r.DescribeColumns(context.Background(), "items")
	require.NoError(t, err)
	require.Len(t, cols, 2)
	assert.Equal(t, "id", cols[0].Name)
	assert.Equal(t, "PRI", cols[0].Key)
	assert.False(t, cols[1].Nullable)
}

func TestInspectorRepository_CountAndQuery(t *testing.T) {
	r, out := newTestRepository(t)
	ctx := context.Background()

	n, err := r.Count(ctx, "items", "WHERE id > ?", 1)
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)
	assert.Equal(t, "SELECT COUNT(*) AS count FROM items WHERE id > '1'", r.LastQuery())

	recs, err := r.Query(ctx, "SELECT label FROM items ORDER BY id DESC")
	require.NoError(t, err)
	require.Len(t, recs, 3)
	assert.Equal(t, "item-3", recs[0]["label"])

	assert.Contains(t, out.String(), "SELECT label FROM items ORDER BY id DESC")
}

func TestInspectorRepository_Explain(t *testing.T) {
	r, _ := newTestRepository(t)

	rec, err := r.Explain(context.Background(), "SELECT * FROM items WHERE id = ?", 2)
	require.NoError(t, err)
	assert.Contains(t, rec, "detail")
}

func TestInspectorRepository_QueryError(t *testing.T) {
	r, out := newTestRepository(t)

	_, err := r.Query(context.Background(), "SELECT * FROM missing")
	require.Error(t, err)
	assert.True(t, domain.IsExecuteError(err))
	assert.Contains(t, out.String(), "[Exception:ExecuteError][Code:80003]")
}

func TestInspectorRepository_ConcurrentUse(t *testing.T) {
	r, _ := newTestRepository(t)
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			n, err := r.Count(ctx, "items", "")
			assert.NoError(t, err)
			assert.Equal(t, int64(3), n)
			_ = r.LastQuery()
		}()
	}
	wg.Wait()

	stack := r.QueryStack()
	assert.Equal(t, "SELECT COUNT(*) AS count FROM items", stack[len(stack)-1])
}
