package sqlbuilder

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dbkit/src/core/domain"
)

func TestNewStatement_BindingStyle(t *testing.T) {
	assert.False(t, NewStatement("SELECT 1").IsNamed())
	assert.False(t, NewStatement("SELECT ?", 1).IsNamed())
	assert.True(t, NewStatement("SELECT :a", domain.Params{"a": 1}).IsNamed())
	assert.True(t, NewStatement("SELECT :a", map[string]any{"a": 1}).IsNamed())
	assert.False(t, NewStatement("SELECT ?, ?", map[string]any{}, 2).IsNamed())
}

func TestBind_Named(t *testing.T) {
	stmt := NewStatement(
		"SELECT * FROM users WHERE status = :status AND id IN (:ids) AND note <> ':skip' -- :also\nAND x::int = 1",
		domain.Params{"status": "active", "ids": []int{1, 2, 3}},
	)

	query, args, err := stmt.Bind(MySQL)
	require.NoError(t, err)
	assert.Equal(t, "SELECT * FROM users WHERE status = ? AND id IN (?,?,?) AND note <> ':skip' -- :also\nAND x::int = 1", query)
	assert.Equal(t, []any{"active", 1, 2, 3}, args)
}

func TestBind_NamedEmptySliceBecomesNull(t *testing.T) {
	query, args, err := NewStatement("SELECT 1 FROM t WHERE id IN (:ids)", domain.Params{"ids": []int{}}).Bind(MySQL)
	require.NoError(t, err)
	assert.Equal(t, "SELECT 1 FROM t WHERE id IN (NULL)", query)
	assert.Empty(t, args)
}

func TestBind_NamedMissing(t *testing.T) {
	_, _, err := NewStatement("SELECT :a, :b", domain.Params{"a": 1}).Bind(MySQL)
	require.Error(t, err)
	assert.Contains(t, err.Error(), ":b")
}

func TestBind_Dollar(t *testing.T) {
	query, args, err := NewStatement("SELECT '?' , ? FROM t WHERE a = ? AND b = $tag$?$tag$", 1, 2).Bind(Postgres)
	require.NoError(t, err)
	assert.Equal(t, "SELECT '?' , $1 FROM t WHERE a = $2 AND b = $tag$?$tag$", query)
	assert.Equal(t, []any{1, 2}, args)
}

func TestBind_UnterminatedQuote(t *testing.T) {
	_, _, err := NewStatement("SELECT ':a", domain.Params{"a": 1}).Bind(MySQL)
	assert.Error(t, err)
}

func TestCountPlaceholders(t *testing.T) {
	tests := []struct {
		query string
		want  int
	}{
		{"SELECT 1", 0},
		{"SELECT ? , ?", 2},
		{`SELECT '?', "?", ` + "`?`" + `, ? /* ? */`, 1},
		{`SELECT 'it\'s ?', ?`, 1},
		{"SELECT 'a''?', ?", 1},
	}
	for _, tt := range tests {
		n, err := countPlaceholders(tt.query)
		require.NoError(t, err, tt.query)
		assert.Equal(t, tt.want, n, tt.query)
	}
}

func TestBoundQuery_Positional(t *testing.T) {
	stmt := NewStatement("INSERT INTO users (name, age, note) VALUES (?, ?, ?)", "Alice", 30, nil)
	assert.Equal(t, "INSERT INTO users (name, age, note) VALUES ('Alice', '30', NULL)", stmt.BoundQuery())
}

func TestBoundQuery_PositionalSkipsQuotedMarks(t *testing.T) {
	stmt := NewStatement("SELECT * FROM t WHERE a = '?' AND b = ?", "x")
	assert.Equal(t, "SELECT * FROM t WHERE a = '?' AND b = 'x'", stmt.BoundQuery())
}

func TestBoundQuery_Named(t *testing.T) {
	stmt := NewStatement("UPDATE users SET name=:name WHERE id = :id AND name_old = :name_old",
		domain.Params{"name": "Bob", "id": 5, "name_old": "Al"})
	assert.Equal(t, "UPDATE users SET name='Bob' WHERE id = '5' AND name_old = 'Al'", stmt.BoundQuery())
}

func TestBoundQuery_Values(t *testing.T) {
	ts := time.Date(2024, 3, 1, 12, 30, 0, 0, time.UTC)
	stmt := NewStatement("SELECT ?, ?, :x", 1) // named marker left alone in positional mode
	assert.Equal(t, "SELECT '1', ?, :x", stmt.BoundQuery())

	assert.Equal(t, "'2024-03-01 12:30:00'", displayValue(ts))
	assert.Equal(t, "'raw'", displayValue([]byte("raw")))
	assert.Equal(t, "'1','2'", displayValue([]int{1, 2}))
	assert.Equal(t, "NULL", displayValue([]string{}))
}

func TestDialectFor(t *testing.T) {
	for name, want := range map[string]Dialect{
		"mysql": MySQL, "": MySQL, "sqlite": SQLite, "sqlite3_dbkit": SQLite, "pgx": Postgres, "postgres": Postgres,
	} {
		d, err := DialectFor(name)
		require.NoError(t, err)
		assert.Equal(t, want, d, name)
	}

	_, err := DialectFor("oracle")
	assert.Error(t, err)
}
