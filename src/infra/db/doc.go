// Package db is the database access layer: one shared connection, explicit
// transactions, statement execution, schema introspection and per-query
// instrumentation.
//
// A DB owns exactly one connection. It is opened lazily on first use,
// reopened after Close, and pinned so that session state (transactions,
// temporary tables, foreign key toggles) applies to every call. While a
// transaction is active all statements run inside it.
//
// Every failure is returned as a *domain.DbError and reported once to the
// exception channel of the log sink. Every execution, failed or not, is
// pushed onto the query stack as display-only bound-query text.
//
// A DB is not safe for concurrent use. Callers sharing one across
// goroutines must serialise access.
//
// Example usage:
//
//	d := db.New(opts, sink, benchmark.New(), log)
//	defer d.Close()
//
//	id, err := d.Insert(ctx, "users", domain.RowOf(domain.F("name", "Alice")))
//	rows, err := d.Select(ctx, "users", "*", "WHERE id = ?", id)
package db
