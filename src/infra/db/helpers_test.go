package db

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"dbkit/src/core/domain"
	"dbkit/src/infra/sqlbuilder"
)

type sinkLine struct {
	channel string
	message string
	attrs   []any
}

type recordingSink struct {
	lines      []sinkLine
	exceptions []domain.ExceptionInfo
}

func (s *recordingSink) Write(channel, message string, _ bool, attrs ...any) {
	s.lines = append(s.lines, sinkLine{channel: channel, message: message, attrs: attrs})
}

func (s *recordingSink) WriteException(info domain.ExceptionInfo, _ bool) {
	s.exceptions = append(s.exceptions, info)
}

func (s *recordingSink) messages() []string {
	out := make([]string, len(s.lines))
	for i, l := range s.lines {
		out[i] = l.message
	}
	return out
}

func (s *recordingSink) lastMessage() string {
	if len(s.lines) == 0 {
		return ""
	}
	return s.lines[len(s.lines)-1].message
}

func (s *recordingSink) containsMessage(sub string) bool {
	for _, l := range s.lines {
		if strings.Contains(l.message, sub) {
			return true
		}
	}
	return false
}

// fixedTimer reports the same execution time for every namespace.
type fixedTimer struct {
	elapsed time.Duration
	records map[string]domain.BenchmarkRecord
}

func newFixedTimer(elapsed time.Duration) *fixedTimer {
	return &fixedTimer{elapsed: elapsed, records: make(map[string]domain.BenchmarkRecord)}
}

func (f *fixedTimer) Start(ns string) {
	f.records[ns] = domain.BenchmarkRecord{Namespace: ns, StartTime: time.Unix(0, 0)}
}

func (f *fixedTimer) End(ns string) {
	rec, ok := f.records[ns]
	if !ok {
		return
	}
	rec.EndTime = rec.StartTime.Add(f.elapsed)
	rec.ExecutionTime = f.elapsed
	f.records[ns] = rec
}

func (f *fixedTimer) Result(ns string) (domain.BenchmarkRecord, bool) {
	rec, ok := f.records[ns]
	return rec, ok
}

const testSchema = `
CREATE TABLE users (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	name TEXT NOT NULL,
	email TEXT,
	active INTEGER NOT NULL DEFAULT 1,
	created_at TEXT,
	updated_at TEXT
);
CREATE TABLE logs (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	message TEXT
);
CREATE TABLE posts (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	user_id INTEGER NOT NULL REFERENCES users(id),
	title TEXT
);`

func sqliteOptions(path string) Options {
	return Options{
		DriverName:         SQLiteDriverName,
		DSN:                fmt.Sprintf("file:%s?_foreign_keys=on&_busy_timeout=5000", path),
		Dialect:            sqlbuilder.SQLite,
		Columns:            sqlbuilder.DefaultOptions(),
		TempTablePrefix:    domain.DefaultTemporaryTablePrefix,
		SlowQueryThreshold: domain.DefaultSlowQueryThreshold,
		QueryLog:           true,
	}
}

type testEnv struct {
	db    *DB
	sink  *recordingSink
	timer *fixedTimer
}

// newTestDB opens a schema-loaded SQLite database in a temp dir.
func newTestDB(t *testing.T, configure ...func(*Options)) *testEnv {
	t.Helper()

	opts := sqliteOptions(filepath.Join(t.TempDir(), "test.db"))
	for _, fn := range configure {
		fn(&opts)
	}

	env := &testEnv{sink: &recordingSink{}, timer: newFixedTimer(time.Millisecond)}
	env.db = New(opts, env.sink, env.timer, nil)
	t.Cleanup(func() { _ = env.db.Close() })

	ctx := context.Background()
	for _, stmt := range strings.Split(testSchema, ";") {
		if strings.TrimSpace(stmt) == "" {
			continue
		}
		_, err := env.db.Execute(ctx, stmt)
		require.NoError(t, err)
	}
	return env
}

func (e *testEnv) insertUser(t *testing.T, name string) int64 {
	t.Helper()
	id, err := e.db.Insert(context.Background(), "users", domain.RowOf(domain.F("name", name)))
	require.NoError(t, err)
	return id
}
