package repo

import (
	"context"
	"log/slog"
	"sync"

	"dbkit/src/core/domain"
	"dbkit/src/core/ports"
	"dbkit/src/infra/db"
	"dbkit/src/infra/logger"
)

// Ensure InspectorRepository implements ports.Inspector (compile-time check)
var _ ports.Inspector = (*InspectorRepository)(nil)

// InspectorRepository implements ports.Inspector on top of *db.DB.
type InspectorRepository struct {
	mu  sync.Mutex
	db  *db.DB
	log *slog.Logger
}

// NewInspectorRepository wraps database.
func NewInspectorRepository(database *db.DB, log *slog.Logger) *InspectorRepository {
	return &InspectorRepository{
		db:  database,
		log: logger.WithComponent(log, "inspector"),
	}
}

// Health pings the database, reconnecting if the connection was closed.
func (r *InspectorRepository) Health(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	return r.db.Ping(ctx)
}

func (r *InspectorRepository) DescribeColumns(ctx context.Context, table string) ([]domain.Column, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	cols, err := r.db.DescribeColumns(ctx, table)
	if err != nil {
		logger.Error(r.log, "DescribeColumns failed", "table", table, "err", err)
		return nil, err
	}
	return cols, nil
}

func (r *InspectorRepository) Count(ctx context.Context, table, suffix string, args ...any) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	n, err := r.db.Count(ctx, table, suffix, args...)
	if err != nil {
		logger.Error(r.log, "Count failed", "table", table, "err", err)
		return 0, err
	}
	return n, nil
}

func (r *InspectorRepository) Query(ctx context.Context, query string, args ...any) ([]domain.Record, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	recs, err := r.db.Query(ctx, query, args...)
	if err != nil {
		logger.Error(r.log, "Query failed", "err", err)
		return nil, err
	}
	return recs, nil
}

func (r *InspectorRepository) Explain(ctx context.Context, query string, args ...any) (domain.Record, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	rec, err := r.db.Explain(ctx, query, args...)
	if err != nil {
		logger.Error(r.log, "Explain failed", "err", err)
		return nil, err
	}
	return rec, nil
}

func (r *InspectorRepository) LastQuery() string {
	r.mu.Lock()
	defer r.mu.Unlock()

	return r.db.LastQuery()
}

func (r *InspectorRepository) QueryStack() []string {
	r.mu.Lock()
	defer r.mu.Unlock()

	return r.db.QueryStack()
}

// Close closes the underlying connection.
func (r *InspectorRepository) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	return r.db.Close()
}
