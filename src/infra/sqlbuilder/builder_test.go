package sqlbuilder

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/sebdah/goldie/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dbkit/src/core/domain"
)

type fakeSchema struct {
	tables map[string][]string
	err    error
	calls  int
}

func (f *fakeSchema) ColumnExists(_ context.Context, table, column string) (bool, error) {
	f.calls++
	if f.err != nil {
		return false, f.err
	}
	for _, c := range f.tables[table] {
		if c == column {
			return true, nil
		}
	}
	return false, nil
}

func newSchema() *fakeSchema {
	return &fakeSchema{tables: map[string][]string{
		"users": {"id", "name", "email", "created_at", "updated_at"},
		"logs":  {"id", "message"},
		"tags":  {"name"},
	}}
}

func newBuilder(d Dialect) *Builder {
	return New(d, newSchema(), DefaultOptions())
}

func assertGolden(t *testing.T, name string, stmt Statement) {
	t.Helper()
	var args any = stmt.Args
	if stmt.IsNamed() {
		args = stmt.Named
	}
	data, err := json.Marshal(args)
	require.NoError(t, err)

	g := goldie.New(t)
	g.Assert(t, name, []byte(stmt.SQL+"\n"+string(data)+"\n"))
}

func TestInsert_AppendsTimestampColumns(t *testing.T) {
	stmt, err := newBuilder(MySQL).Insert(context.Background(), "users", domain.RowOf(domain.F("name", "Alice")))
	require.NoError(t, err)

	assertGolden(t, "insert_users", stmt)
	assert.Equal(t, "INSERT INTO users (name, created_at, updated_at) VALUES (?, NOW(), NOW())", stmt.SQL)
	assert.Equal(t, []any{"Alice"}, stmt.Args)
}

func TestInsert_CallerTimestampNotDuplicated(t *testing.T) {
	row := domain.RowOf(
		domain.F("name", "Alice"),
		domain.F("created_at", "2024-01-01 00:00:00"),
	)

	stmt, err := newBuilder(MySQL).Insert(context.Background(), "users", row)
	require.NoError(t, err)

	assert.Equal(t, "INSERT INTO users (name, created_at, updated_at) VALUES (?, ?, NOW())", stmt.SQL)
	assert.Equal(t, []any{"Alice", "2024-01-01 00:00:00"}, stmt.Args)
	assert.Equal(t, 1, strings.Count(stmt.SQL, "created_at"))
}

func TestInsert_RawExprConsumesNoArgument(t *testing.T) {
	row := domain.RowOf(domain.F("message", "hi"), domain.F("id", domain.RawExpr("LAST_INSERT_ID() + 1")))

	stmt, err := newBuilder(MySQL).Insert(context.Background(), "logs", row)
	require.NoError(t, err)

	assert.Equal(t, "INSERT INTO logs (message, id) VALUES (?, LAST_INSERT_ID() + 1)", stmt.SQL)
	assert.Equal(t, []any{"hi"}, stmt.Args)
}

func TestInsert_TableWithoutTimestamps(t *testing.T) {
	stmt, err := newBuilder(MySQL).Insert(context.Background(), "logs", domain.RowOf(domain.F("message", "x")))
	require.NoError(t, err)
	assert.Equal(t, "INSERT INTO logs (message) VALUES (?)", stmt.SQL)
}

func TestInsert_NilSchemaSkipsTimestamps(t *testing.T) {
	stmt, err := New(MySQL, nil, DefaultOptions()).Insert(context.Background(), "users", domain.RowOf(domain.F("name", "A")))
	require.NoError(t, err)
	assert.Equal(t, "INSERT INTO users (name) VALUES (?)", stmt.SQL)
}

func TestInsert_SchemaErrorPassesThrough(t *testing.T) {
	schema := newSchema()
	schema.err = domain.NewExecuteError("SHOW FULL COLUMNS FROM users", errors.New("gone away"))

	_, err := New(MySQL, schema, DefaultOptions()).Insert(context.Background(), "users", domain.RowOf(domain.F("name", "A")))
	require.Error(t, err)
	assert.True(t, domain.IsExecuteError(err))
}

func TestInsert_Rejects(t *testing.T) {
	b := newBuilder(MySQL)
	ctx := context.Background()

	tests := []struct {
		name  string
		table string
		row   domain.Row
	}{
		{"bad table", "users; DROP TABLE x", domain.RowOf(domain.F("name", "A"))},
		{"bad column", "users", domain.RowOf(domain.F("na me", "A"))},
		{"duplicate column", "users", domain.RowOf(domain.F("name", "A"), domain.F("name", "B"))},
		{"no columns", "logs", domain.RowOf()},
		{"nil value", "users", domain.Row{{Name: "name"}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := b.Insert(ctx, tt.table, tt.row)
			require.Error(t, err)
			assert.True(t, domain.IsUnexpectedError(err))
		})
	}
}

func TestInsert_OnlyTimestamps(t *testing.T) {
	stmt, err := newBuilder(MySQL).Insert(context.Background(), "users", domain.RowOf())
	require.NoError(t, err)
	assert.Equal(t, "INSERT INTO users (created_at, updated_at) VALUES (NOW(), NOW())", stmt.SQL)
	assert.Empty(t, stmt.Args)
}

func TestInsert_PlaceholderInRawExprIsRejected(t *testing.T) {
	row := domain.RowOf(domain.F("message", domain.RawExpr("CONCAT(?, 'x')")))

	_, err := newBuilder(MySQL).Insert(context.Background(), "logs", row)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "1 placeholders but 0 arguments")
}

func TestInsertMultiple(t *testing.T) {
	batch := domain.Batch{
		domain.RowOf(domain.F("name", "Alice"), domain.F("email", "a@x")),
		domain.RowOf(domain.F("name", "Bob"), domain.F("email", "b@x")),
	}

	stmt, err := newBuilder(MySQL).InsertMultiple(context.Background(), "users", batch)
	require.NoError(t, err)

	assertGolden(t, "insert_multiple_users", stmt)
	assert.Equal(t, 2, strings.Count(stmt.SQL, "(?, ?, NOW(), NOW())"))
	assert.Len(t, stmt.Args, 2*2)
}

func TestInsertMultiple_RowOrderFollowsFirstRow(t *testing.T) {
	batch := domain.Batch{
		domain.RowOf(domain.F("name", "Alice"), domain.F("email", "a@x")),
		domain.RowOf(domain.F("email", "b@x"), domain.F("name", "Bob")),
	}

	stmt, err := newBuilder(MySQL).InsertMultiple(context.Background(), "users", batch)
	require.NoError(t, err)
	assert.Equal(t, []any{"Alice", "a@x", "Bob", "b@x"}, stmt.Args)
}

func TestInsertMultiple_RowCountScales(t *testing.T) {
	const n = 25
	batch := make(domain.Batch, n)
	for i := range batch {
		batch[i] = domain.RowOf(domain.F("name", i), domain.F("email", domain.Now()))
	}

	stmt, err := newBuilder(MySQL).InsertMultiple(context.Background(), "users", batch)
	require.NoError(t, err)

	assert.Equal(t, n, strings.Count(stmt.SQL, "(?, NOW(), NOW(), NOW())"))
	assert.Len(t, stmt.Args, n)
}

func TestInsertMultiple_Rejects(t *testing.T) {
	b := newBuilder(MySQL)
	ctx := context.Background()

	_, err := b.InsertMultiple(ctx, "users", nil)
	assert.True(t, domain.IsUnexpectedError(err))

	_, err = b.InsertMultiple(ctx, "users", domain.Batch{
		domain.RowOf(domain.F("name", "A"), domain.F("email", "a")),
		domain.RowOf(domain.F("name", "B")),
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "row 1")

	_, err = b.InsertMultiple(ctx, "users", domain.Batch{
		domain.RowOf(domain.F("name", "A")),
		domain.RowOf(domain.F("email", "b")),
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), `missing column "name"`)
}

func TestUpsertMultiple(t *testing.T) {
	batch := domain.Batch{
		domain.RowOf(domain.F("id", 1), domain.F("name", "Alice")),
		domain.RowOf(domain.F("id", 2), domain.F("name", "Bob")),
	}

	for _, d := range []Dialect{MySQL, SQLite, Postgres} {
		t.Run(d.Name(), func(t *testing.T) {
			stmt, err := newBuilder(d).UpsertMultiple(context.Background(), "users", batch)
			require.NoError(t, err)
			assertGolden(t, "upsert_users_"+d.Name(), stmt)
		})
	}
}

func TestUpsertMultiple_IdentityNeverUpdated(t *testing.T) {
	batch := domain.Batch{domain.RowOf(domain.F("id", 1), domain.F("message", "x"))}

	stmt, err := newBuilder(MySQL).UpsertMultiple(context.Background(), "logs", batch)
	require.NoError(t, err)

	clause := stmt.SQL[strings.Index(stmt.SQL, "ON DUPLICATE KEY UPDATE"):]
	assert.Equal(t, "ON DUPLICATE KEY UPDATE message=VALUES(message)", clause)
	assert.Equal(t, 1, strings.Count(clause, "message="))
	assert.NotContains(t, clause, "id=")
}

func TestUpsertMultiple_NoUpdatableColumns(t *testing.T) {
	batch := domain.Batch{domain.RowOf(domain.F("id", 1))}

	_, err := newBuilder(MySQL).UpsertMultiple(context.Background(), "logs", batch)
	require.Error(t, err)
	assert.True(t, domain.IsUnexpectedError(err))
}

func TestInsert_PostgresReturning(t *testing.T) {
	b := newBuilder(Postgres)

	stmt, err := b.Insert(context.Background(), "logs", domain.RowOf(domain.F("message", "x")))
	require.NoError(t, err)
	assert.Equal(t, "INSERT INTO logs (message) VALUES (?) RETURNING id", stmt.SQL)
	assert.Equal(t, "id", stmt.Returning)

	stmt, err = b.Insert(context.Background(), "tags", domain.RowOf(domain.F("name", "x")))
	require.NoError(t, err)
	assert.Empty(t, stmt.Returning)

	bound, args, err := stmt.Bind(Postgres)
	require.NoError(t, err)
	assert.Equal(t, "INSERT INTO tags (name) VALUES ($1)", bound)
	assert.Equal(t, []any{"x"}, args)
}

func TestUpdate(t *testing.T) {
	stmt, err := newBuilder(MySQL).Update(context.Background(), "users",
		domain.RowOf(domain.F("name", "Bob")), "WHERE id = :id", domain.Params{"id": 5})
	require.NoError(t, err)

	assertGolden(t, "update_users", stmt)
	assert.Equal(t, "UPDATE users SET name=:name, updated_at=NOW() WHERE id = :id", stmt.SQL)
	assert.Equal(t, domain.Params{"name": "Bob", "id": 5}, stmt.Named)
	assert.Empty(t, stmt.Overridden)

	bound, args, err := stmt.Bind(MySQL)
	require.NoError(t, err)
	assert.Equal(t, "UPDATE users SET name=?, updated_at=NOW() WHERE id = ?", bound)
	assert.Equal(t, []any{"Bob", 5}, args)
}

func TestUpdate_SuffixParamsWin(t *testing.T) {
	stmt, err := newBuilder(MySQL).Update(context.Background(), "users",
		domain.RowOf(domain.F("name", "Bob")), "WHERE name = :name", domain.Params{"name": "Alice"})
	require.NoError(t, err)

	assert.Equal(t, "Alice", stmt.Named["name"])
	assert.Equal(t, []string{"name"}, stmt.Overridden)
}

func TestUpdate_RawExprAndCallerUpdatedAt(t *testing.T) {
	row := domain.RowOf(domain.F("name", "Bob"), domain.F("updated_at", domain.Now()))

	stmt, err := newBuilder(MySQL).Update(context.Background(), "users", row, "", nil)
	require.NoError(t, err)
	assert.Equal(t, "UPDATE users SET name=:name, updated_at=NOW()", stmt.SQL)
	assert.Equal(t, 1, strings.Count(stmt.SQL, "updated_at"))
}

func TestUpdate_Rejects(t *testing.T) {
	b := newBuilder(MySQL)
	ctx := context.Background()

	_, err := b.Update(ctx, "logs", domain.RowOf(), "", nil)
	assert.True(t, domain.IsUnexpectedError(err))

	_, err = b.Update(ctx, "logs", domain.RowOf(domain.F("message", "x")), "WHERE id = :id", nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "missing value for :id")

	_, err = b.Update(ctx, "logs", domain.RowOf(domain.F("message", "x")), "WHERE id = ?", nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "mixes named and positional")
}

func TestSelect(t *testing.T) {
	b := newBuilder(MySQL)

	stmt, err := b.Select("users", "*", "WHERE active = ?", 1)
	require.NoError(t, err)
	assert.Equal(t, "SELECT * FROM users WHERE active = ?", stmt.SQL)
	assert.Equal(t, []any{1}, stmt.Args)

	stmt, err = b.Select("users", "", "")
	require.NoError(t, err)
	assert.Equal(t, "SELECT * FROM users", stmt.SQL)

	stmt, err = b.Select("users", "id, name", "WHERE name = :name", domain.Params{"name": "A"})
	require.NoError(t, err)
	assert.True(t, stmt.IsNamed())

	_, err = b.Select("users", "*", "WHERE a = ? AND b = ?", 1)
	assert.True(t, domain.IsUnexpectedError(err))
}

func TestCount(t *testing.T) {
	stmt, err := newBuilder(MySQL).Count("users", "WHERE id > ?", 3)
	require.NoError(t, err)
	assert.Equal(t, "SELECT COUNT(*) AS count FROM users WHERE id > ?", stmt.SQL)
}

func TestDelete(t *testing.T) {
	stmt, err := newBuilder(MySQL).Delete("users", "WHERE id = ?", 7)
	require.NoError(t, err)
	assert.Equal(t, "DELETE FROM users WHERE id = ?", stmt.SQL)
	assert.Equal(t, []any{7}, stmt.Args)
}

func TestExplain(t *testing.T) {
	stmt, _ := newBuilder(SQLite).Select("users", "*", "WHERE id = ?", 1)

	explained := newBuilder(SQLite).Explain(stmt)
	assert.Equal(t, "EXPLAIN QUERY PLAN SELECT * FROM users WHERE id = ?", explained.SQL)
	assert.Equal(t, "SELECT * FROM users WHERE id = ?", stmt.SQL)
}

func TestTruncate(t *testing.T) {
	plan, err := newBuilder(MySQL).Truncate("users")
	require.NoError(t, err)
	assert.Equal(t, TruncatePlan{
		Disable:  "SET FOREIGN_KEY_CHECKS = 0",
		Truncate: "TRUNCATE users",
		Enable:   "SET FOREIGN_KEY_CHECKS = 1",
	}, plan)

	plan, err = newBuilder(Postgres).Truncate("users")
	require.NoError(t, err)
	assert.Empty(t, plan.Disable)
	assert.Equal(t, "TRUNCATE users", plan.Truncate)
}

func TestCloneTemporaryTable(t *testing.T) {
	tmp, stmt, err := newBuilder(MySQL).CloneTemporaryTable("users", domain.DefaultTemporaryTablePrefix)
	require.NoError(t, err)
	assert.Equal(t, "TMP_users", tmp)
	assert.Equal(t, "CREATE TEMPORARY TABLE TMP_users LIKE users", stmt.SQL)

	_, _, err = newBuilder(MySQL).CloneTemporaryTable("users", "bad-")
	assert.Error(t, err)
}

func TestDescribe(t *testing.T) {
	stmt, err := newBuilder(MySQL).Describe("users")
	require.NoError(t, err)
	assert.Equal(t, "SHOW FULL COLUMNS FROM users", stmt.SQL)
	assert.Empty(t, stmt.Args)

	stmt, err = newBuilder(SQLite).Describe("users")
	require.NoError(t, err)
	assert.Contains(t, stmt.SQL, "pragma_table_info(?)")
	assert.Equal(t, []any{"users"}, stmt.Args)
}

func TestIsIdentifier(t *testing.T) {
	assert.True(t, IsIdentifier("users"))
	assert.True(t, IsIdentifier("_tmp1"))
	assert.False(t, IsIdentifier("1users"))
	assert.False(t, IsIdentifier(""))
	assert.False(t, IsIdentifier("users`"))
}
