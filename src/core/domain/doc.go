// Package domain contains the core model shared by the database layer and
// its diagnostics surfaces.
//
// This package defines:
//   - Values: the tagged Literal/RawExpr variant used in write statements
//   - Rows and Batches: ordered column sets for insert and update
//   - Records and Columns: fetched rows and introspected column metadata
//   - Errors: the DbError taxonomy (connection, transaction, execute, unexpected)
//
// Rules for this package:
//   - No external dependencies except the standard library
//   - No infrastructure concerns (drivers, HTTP, etc.)
//
// Example row:
//
//	row := domain.RowOf(
//	    domain.F("name", "Alice"),
//	    domain.F("last_login_at", domain.Now()),
//	)
package domain
