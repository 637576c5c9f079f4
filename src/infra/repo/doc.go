// Package repo adapts the database layer to the repository ports.
//
// This package implements the ports defined in src/core/ports.
//
// A *db.DB owns a single connection and keeps per-call state (the query
// stack, the pending transaction), so it must not be shared between
// goroutines. InspectorRepository serialises every call behind a mutex,
// which lets HTTP handlers use one handle.
//
//	database, err := db.Open(ctx, cfg.Database, sink, log)
//	inspector := repo.NewInspectorRepository(database, log)
//	cols, err := inspector.DescribeColumns(ctx, "users")
package repo
