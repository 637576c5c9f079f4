package db

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"dbkit/src/core/domain"
	"dbkit/src/core/ports"
	"dbkit/src/infra/benchmark"
	"dbkit/src/infra/config"
	"dbkit/src/infra/sqlbuilder"
)

// Options configures a DB.
type Options struct {
	// DriverName and DSN are passed to sql.Open.
	DriverName string
	DSN        string

	Dialect sqlbuilder.Dialect
	Columns sqlbuilder.Options

	// TempTablePrefix prefixes tables made by CreateCloneTemporaryTable.
	TempTablePrefix string

	ConnectTimeout time.Duration

	// SlowQueryThreshold marks queries at or above it as slow. Zero or
	// less disables slow marking.
	SlowQueryThreshold time.Duration

	// QueryLog writes every query to the database channel. Slow queries
	// are written regardless.
	QueryLog bool
}

// OptionsFromConfig maps the database section of the configuration.
func OptionsFromConfig(cfg config.DatabaseConfig) (Options, error) {
	dialect, err := sqlbuilder.DialectFor(cfg.Driver)
	if err != nil {
		return Options{}, fmt.Errorf("resolving dialect: %w", err)
	}
	return Options{
		DriverName: cfg.DriverName(),
		DSN:        cfg.DSN(),
		Dialect:    dialect,
		Columns: sqlbuilder.Options{
			IdentityColumn:  cfg.IdentityColumn,
			CreatedAtColumn: cfg.CreatedAtColumn,
			UpdatedAtColumn: cfg.UpdatedAtColumn,
		},
		TempTablePrefix:    cfg.TempTablePrefix,
		ConnectTimeout:     cfg.ConnectTimeout,
		SlowQueryThreshold: cfg.SlowQueryThreshold,
		QueryLog:           cfg.QueryLog,
	}, nil
}

// querier is satisfied by both *sql.Conn and *sql.Tx.
type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

// DB is the handle to one database connection. See the package
// documentation for its lifecycle.
type DB struct {
	opts    Options
	builder *sqlbuilder.Builder
	sink    ports.LogSink
	timer   ports.Timer
	log     *slog.Logger

	pool *sql.DB
	conn *sql.Conn
	tx   *sql.Tx

	// schema is filled lazily and never invalidated, so a table altered
	// while the process runs keeps its old column list.
	schema map[string][]domain.Column

	stack []string

	// reported is the last error written to the exception channel.
	reported *domain.DbError
}

// New creates a DB without connecting. sink and timer are required; log
// may be nil.
func New(opts Options, sink ports.LogSink, timer ports.Timer, log *slog.Logger) *DB {
	if opts.Dialect == nil {
		opts.Dialect = sqlbuilder.MySQL
	}
	if opts.TempTablePrefix == "" {
		opts.TempTablePrefix = domain.DefaultTemporaryTablePrefix
	}
	d := &DB{
		opts:   opts,
		sink:   sink,
		timer:  timer,
		log:    log,
		schema: make(map[string][]domain.Column),
	}
	d.builder = sqlbuilder.New(opts.Dialect, d, opts.Columns)
	return d
}

// Open builds a DB from configuration and connects it.
func Open(ctx context.Context, cfg config.DatabaseConfig, sink ports.LogSink, log *slog.Logger) (*DB, error) {
	opts, err := OptionsFromConfig(cfg)
	if err != nil {
		return nil, err
	}
	d := New(opts, sink, benchmark.New(benchmark.WithMemory(cfg.Benchmark)), log)
	if err := d.Connect(ctx); err != nil {
		return nil, err
	}
	return d, nil
}

// Dialect returns the SQL dialect in use.
func (d *DB) Dialect() sqlbuilder.Dialect {
	return d.opts.Dialect
}
