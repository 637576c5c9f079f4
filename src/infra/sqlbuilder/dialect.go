package sqlbuilder

import (
	"fmt"
	"strings"
)

// Placeholder selects the positional parameter style of a database.
type Placeholder int

const (
	// PlaceholderQuestion is "?" (MySQL, SQLite).
	PlaceholderQuestion Placeholder = iota
	// PlaceholderDollar is "$1, $2, ..." (PostgreSQL).
	PlaceholderDollar
)

// TruncatePlan is the statement sequence that empties a table. Disable and
// Enable are empty when the dialect needs no foreign key toggling.
type TruncatePlan struct {
	Disable  string
	Truncate string
	Enable   string
}

// Dialect holds the SQL text that differs between databases.
type Dialect interface {
	Name() string
	Placeholder() Placeholder

	// UpsertClause returns the conflict clause updating columns, with a
	// leading space. identity is the conflict target where one is needed.
	UpsertClause(identity string, columns []string) string

	ExplainPrefix() string

	// DescribeQuery returns a query listing the columns of table with the
	// result columns Field, Type, Null, Key, Default, Extra and Comment.
	DescribeQuery(table string) (string, []any)

	Truncate(table string) TruncatePlan
	CloneTemporaryTable(tmp, table string) string

	// ReturnsInsertID reports whether inserted ids are read through a
	// RETURNING clause instead of the driver's LastInsertId.
	ReturnsInsertID() bool
}

// Dialects by name.
var (
	MySQL    Dialect = mysqlDialect{}
	SQLite   Dialect = sqliteDialect{}
	Postgres Dialect = postgresDialect{}
)

// DialectFor returns the dialect for a driver or dialect name.
func DialectFor(name string) (Dialect, error) {
	switch strings.ToLower(name) {
	case "mysql", "":
		return MySQL, nil
	case "sqlite", "sqlite3", "sqlite3_dbkit":
		return SQLite, nil
	case "postgres", "postgresql", "pgx":
		return Postgres, nil
	default:
		return nil, fmt.Errorf("unsupported dialect %q", name)
	}
}

type mysqlDialect struct{}

func (mysqlDialect) Name() string             { return "mysql" }
func (mysqlDialect) Placeholder() Placeholder { return PlaceholderQuestion }
func (mysqlDialect) ExplainPrefix() string    { return "EXPLAIN " }
func (mysqlDialect) ReturnsInsertID() bool    { return false }

func (mysqlDialect) UpsertClause(_ string, columns []string) string {
	return " ON DUPLICATE KEY UPDATE " + assignments(columns, "%[1]s=VALUES(%[1]s)")
}

func (mysqlDialect) DescribeQuery(table string) (string, []any) {
	return "SHOW FULL COLUMNS FROM " + table, nil
}

func (mysqlDialect) Truncate(table string) TruncatePlan {
	return TruncatePlan{
		Disable:  "SET FOREIGN_KEY_CHECKS = 0",
		Truncate: "TRUNCATE " + table,
		Enable:   "SET FOREIGN_KEY_CHECKS = 1",
	}
}

func (mysqlDialect) CloneTemporaryTable(tmp, table string) string {
	return fmt.Sprintf("CREATE TEMPORARY TABLE %s LIKE %s", tmp, table)
}

type sqliteDialect struct{}

func (sqliteDialect) Name() string             { return "sqlite" }
func (sqliteDialect) Placeholder() Placeholder { return PlaceholderQuestion }
func (sqliteDialect) ExplainPrefix() string    { return "EXPLAIN QUERY PLAN " }
func (sqliteDialect) ReturnsInsertID() bool    { return false }

func (sqliteDialect) UpsertClause(identity string, columns []string) string {
	return fmt.Sprintf(" ON CONFLICT(%s) DO UPDATE SET %s", identity, assignments(columns, "%[1]s=excluded.%[1]s"))
}

const sqliteDescribe = `SELECT name AS "Field", upper(type) AS "Type", ` +
	`CASE WHEN "notnull" = 1 THEN 'NO' ELSE 'YES' END AS "Null", ` +
	`CASE WHEN pk > 0 THEN 'PRI' ELSE '' END AS "Key", ` +
	`dflt_value AS "Default", '' AS "Extra", '' AS "Comment" ` +
	`FROM pragma_table_info(?) ORDER BY cid`

func (sqliteDialect) DescribeQuery(table string) (string, []any) {
	return sqliteDescribe, []any{table}
}

func (sqliteDialect) Truncate(table string) TruncatePlan {
	return TruncatePlan{
		Disable:  "PRAGMA foreign_keys = OFF",
		Truncate: "DELETE FROM " + table,
		Enable:   "PRAGMA foreign_keys = ON",
	}
}

func (sqliteDialect) CloneTemporaryTable(tmp, table string) string {
	return fmt.Sprintf("CREATE TEMPORARY TABLE %s AS SELECT * FROM %s WHERE 0", tmp, table)
}

type postgresDialect struct{}

func (postgresDialect) Name() string             { return "postgres" }
func (postgresDialect) Placeholder() Placeholder { return PlaceholderDollar }
func (postgresDialect) ExplainPrefix() string    { return "EXPLAIN " }
func (postgresDialect) ReturnsInsertID() bool    { return true }

func (postgresDialect) UpsertClause(identity string, columns []string) string {
	return fmt.Sprintf(" ON CONFLICT (%s) DO UPDATE SET %s", identity, assignments(columns, "%[1]s=EXCLUDED.%[1]s"))
}

const postgresDescribe = `SELECT c.column_name AS "Field", upper(c.data_type) AS "Type", ` +
	`c.is_nullable AS "Null", ` +
	`CASE WHEN EXISTS (SELECT 1 FROM information_schema.table_constraints tc ` +
	`JOIN information_schema.key_column_usage k ON k.constraint_name = tc.constraint_name ` +
	`AND k.table_schema = tc.table_schema AND k.table_name = tc.table_name ` +
	`WHERE tc.constraint_type = 'PRIMARY KEY' AND tc.table_schema = c.table_schema ` +
	`AND tc.table_name = c.table_name AND k.column_name = c.column_name) ` +
	`THEN 'PRI' ELSE '' END AS "Key", ` +
	`c.column_default AS "Default", '' AS "Extra", ` +
	`coalesce(col_description(to_regclass(quote_ident(c.table_name))::oid, c.ordinal_position::int), '') AS "Comment" ` +
	`FROM information_schema.columns c ` +
	`WHERE c.table_schema = current_schema() AND c.table_name = ? ` +
	`ORDER BY c.ordinal_position`

func (postgresDialect) DescribeQuery(table string) (string, []any) {
	return postgresDescribe, []any{table}
}

func (postgresDialect) Truncate(table string) TruncatePlan {
	return TruncatePlan{Truncate: "TRUNCATE " + table}
}

func (postgresDialect) CloneTemporaryTable(tmp, table string) string {
	return fmt.Sprintf("CREATE TEMPORARY TABLE %s (LIKE %s INCLUDING ALL)", tmp, table)
}

func assignments(columns []string, format string) string {
	parts := make([]string, len(columns))
	for i, c := range columns {
		parts[i] = fmt.Sprintf(format, c)
	}
	return strings.Join(parts, ", ")
}
