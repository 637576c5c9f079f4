// Package ports defines interfaces (ports) that connect core domain to infrastructure.
// These interfaces follow the ports and adapters (hexagonal) architecture pattern.
//
// Ports are defined here in the core layer, while implementations (adapters)
// live in src/infra. This ensures the core has no dependency on infrastructure.
package ports

import (
	"context"

	"dbkit/src/core/domain"
)

// Repository is the base interface for all repositories.
// Concrete repositories should embed this and add entity-specific methods.
type Repository interface {
	// Health checks if the underlying storage is reachable.
	Health(ctx context.Context) error
}

// Inspector exposes the read-only diagnostics of the database layer.
//
// Implementations must be safe for concurrent use.
type Inspector interface {
	Repository

	// DescribeColumns returns the columns of table in definition order.
	// An unknown table yields an empty slice.
	DescribeColumns(ctx context.Context, table string) ([]domain.Column, error)

	// Count returns the number of rows matching suffix.
	Count(ctx context.Context, table, suffix string, args ...any) (int64, error)

	// Query runs a statement and returns every fetched row.
	Query(ctx context.Context, query string, args ...any) ([]domain.Record, error)

	// Explain returns the first row of the query plan.
	Explain(ctx context.Context, query string, args ...any) (domain.Record, error)

	// LastQuery returns the bound-query text of the latest execution.
	LastQuery() string

	// QueryStack returns every bound query executed so far, oldest first.
	QueryStack() []string
}
