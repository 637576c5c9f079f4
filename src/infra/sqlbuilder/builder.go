package sqlbuilder

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"dbkit/src/core/domain"
)

// ColumnChecker answers whether a table has a column.
type ColumnChecker interface {
	ColumnExists(ctx context.Context, table, column string) (bool, error)
}

// Options names the columns the builder manages. An empty name turns the
// corresponding behaviour off.
type Options struct {
	// IdentityColumn is never overwritten by upserts.
	IdentityColumn string

	// CreatedAtColumn is set to NOW() on insert when the caller omits it.
	CreatedAtColumn string

	// UpdatedAtColumn is set to NOW() on insert and update when the caller omits it.
	UpdatedAtColumn string
}

// DefaultOptions returns the conventional column names.
func DefaultOptions() Options {
	return Options{
		IdentityColumn:  domain.DefaultIdentityColumn,
		CreatedAtColumn: domain.DefaultCreatedAtColumn,
		UpdatedAtColumn: domain.DefaultUpdatedAtColumn,
	}
}

// Builder composes statements for one dialect.
type Builder struct {
	dialect Dialect
	schema  ColumnChecker
	opts    Options
}

// New creates a Builder. schema may be nil, which disables timestamp
// auto-fill and RETURNING detection.
func New(dialect Dialect, schema ColumnChecker, opts Options) *Builder {
	return &Builder{dialect: dialect, schema: schema, opts: opts}
}

// Dialect returns the builder's dialect.
func (b *Builder) Dialect() Dialect {
	return b.dialect
}

// Select builds "SELECT columns FROM table[ suffix]". Empty columns select *.
func (b *Builder) Select(table, columns, suffix string, args ...any) (Statement, error) {
	if err := checkTable(table); err != nil {
		return Statement{}, err
	}
	if strings.TrimSpace(columns) == "" {
		columns = "*"
	}
	stmt := NewStatement(withSuffix("SELECT "+columns+" FROM "+table, suffix), args...)
	return stmt, verify(stmt)
}

// Count builds a select projecting COUNT(*) AS count.
func (b *Builder) Count(table, suffix string, args ...any) (Statement, error) {
	return b.Select(table, "COUNT(*) AS count", suffix, args...)
}

// Insert builds a single-row insert.
func (b *Builder) Insert(ctx context.Context, table string, row domain.Row) (Statement, error) {
	return b.insert(ctx, table, domain.Batch{row}, false)
}

// InsertMultiple builds one insert with a VALUES tuple per row.
func (b *Builder) InsertMultiple(ctx context.Context, table string, batch domain.Batch) (Statement, error) {
	return b.insert(ctx, table, batch, false)
}

// UpsertMultiple builds a multi-row insert that updates every column
// except the identity column on key conflict.
func (b *Builder) UpsertMultiple(ctx context.Context, table string, batch domain.Batch) (Statement, error) {
	return b.insert(ctx, table, batch, true)
}

func (b *Builder) insert(ctx context.Context, table string, batch domain.Batch, upsert bool) (Statement, error) {
	if err := checkTable(table); err != nil {
		return Statement{}, err
	}
	if len(batch) == 0 {
		return Statement{}, buildError("insert into %s: no rows", table)
	}
	columns := batch[0].Columns()
	if err := checkRow(batch[0]); err != nil {
		return Statement{}, err
	}
	for i, row := range batch[1:] {
		if err := sameShape(batch[0], row); err != nil {
			return Statement{}, buildError("insert into %s: row %d: %v", table, i+1, err)
		}
	}

	// Rows share one column set, so the auto-filled columns are decided once.
	var stamps []string
	for _, col := range []string{b.opts.CreatedAtColumn, b.opts.UpdatedAtColumn} {
		if col == "" || batch[0].Has(col) {
			continue
		}
		ok, err := b.hasColumn(ctx, table, col)
		if err != nil {
			return Statement{}, err
		}
		if ok {
			stamps = append(stamps, col)
		}
	}
	if len(columns)+len(stamps) == 0 {
		return Statement{}, buildError("insert into %s: no columns", table)
	}

	var args []any
	tuples := make([]string, len(batch))
	for i, row := range batch {
		values := make([]string, 0, len(columns)+len(stamps))
		for _, col := range columns {
			v, _ := row.Get(col)
			values = append(values, b.placeholder(v, &args))
		}
		for range stamps {
			values = append(values, string(domain.Now()))
		}
		tuples[i] = "(" + strings.Join(values, ", ") + ")"
	}

	all := append(append([]string{}, columns...), stamps...)
	query := fmt.Sprintf("INSERT INTO %s (%s) VALUES %s", table, strings.Join(all, ", "), strings.Join(tuples, ", "))

	if upsert {
		var updatable []string
		for _, col := range all {
			if col != b.opts.IdentityColumn {
				updatable = append(updatable, col)
			}
		}
		if len(updatable) == 0 {
			return Statement{}, buildError("upsert into %s: no updatable columns", table)
		}
		query += b.dialect.UpsertClause(b.opts.IdentityColumn, updatable)
	}

	stmt := Statement{SQL: query, Args: args}
	if b.dialect.ReturnsInsertID() && b.opts.IdentityColumn != "" {
		ok, err := b.hasColumn(ctx, table, b.opts.IdentityColumn)
		if err != nil {
			return Statement{}, err
		}
		if ok {
			stmt.SQL += " RETURNING " + b.opts.IdentityColumn
			stmt.Returning = b.opts.IdentityColumn
		}
	}
	return stmt, verify(stmt)
}

// Update builds "UPDATE table SET col=:col, ...[ suffix]". params bind the
// suffix; on a name clash with a row column the suffix value wins and the
// name is reported in Statement.Overridden.
func (b *Builder) Update(ctx context.Context, table string, row domain.Row, suffix string, params domain.Params) (Statement, error) {
	if err := checkTable(table); err != nil {
		return Statement{}, err
	}
	if err := checkRow(row); err != nil {
		return Statement{}, err
	}

	named := make(domain.Params, len(row)+len(params))
	sets := make([]string, 0, len(row)+1)
	for _, f := range row {
		switch v := f.Value.(type) {
		case domain.RawExpr:
			sets = append(sets, f.Name+"="+string(v))
		case domain.Literal:
			sets = append(sets, f.Name+"=:"+f.Name)
			named[f.Name] = v.V
		}
	}

	if col := b.opts.UpdatedAtColumn; col != "" && !row.Has(col) {
		ok, err := b.hasColumn(ctx, table, col)
		if err != nil {
			return Statement{}, err
		}
		if ok {
			sets = append(sets, col+"="+string(domain.Now()))
		}
	}
	if len(sets) == 0 {
		return Statement{}, buildError("update %s: no columns", table)
	}

	var overridden []string
	for k, v := range params {
		if _, clash := named[k]; clash {
			overridden = append(overridden, k)
		}
		named[k] = v
	}
	sort.Strings(overridden)

	stmt := Statement{
		SQL:        withSuffix("UPDATE "+table+" SET "+strings.Join(sets, ", "), suffix),
		Named:      named,
		Overridden: overridden,
	}
	return stmt, verify(stmt)
}

// Delete builds "DELETE FROM table[ suffix]".
func (b *Builder) Delete(table, suffix string, args ...any) (Statement, error) {
	if err := checkTable(table); err != nil {
		return Statement{}, err
	}
	stmt := NewStatement(withSuffix("DELETE FROM "+table, suffix), args...)
	return stmt, verify(stmt)
}

// Truncate returns the statements emptying table.
func (b *Builder) Truncate(table string) (TruncatePlan, error) {
	if err := checkTable(table); err != nil {
		return TruncatePlan{}, err
	}
	return b.dialect.Truncate(table), nil
}

// Explain prefixes stmt with the dialect's EXPLAIN form.
func (b *Builder) Explain(stmt Statement) Statement {
	return stmt.WithPrefix(b.dialect.ExplainPrefix())
}

// Describe builds the column introspection query for table.
func (b *Builder) Describe(table string) (Statement, error) {
	if err := checkTable(table); err != nil {
		return Statement{}, err
	}
	query, args := b.dialect.DescribeQuery(table)
	return Statement{SQL: query, Args: args}, nil
}

// CloneTemporaryTable builds the DDL creating prefix+table with the
// structure of table. It returns the temporary table name.
func (b *Builder) CloneTemporaryTable(table, prefix string) (string, Statement, error) {
	if err := checkTable(table); err != nil {
		return "", Statement{}, err
	}
	tmp := prefix + table
	if err := checkTable(tmp); err != nil {
		return "", Statement{}, err
	}
	return tmp, Statement{SQL: b.dialect.CloneTemporaryTable(tmp, table)}, nil
}

func (b *Builder) hasColumn(ctx context.Context, table, column string) (bool, error) {
	if b.schema == nil {
		return false, nil
	}
	ok, err := b.schema.ColumnExists(ctx, table, column)
	if err != nil {
		return false, domain.NewUnexpectedError(err)
	}
	return ok, nil
}

// placeholder returns the SQL for v, appending literal values to args.
func (b *Builder) placeholder(v domain.Value, args *[]any) string {
	if raw, ok := v.(domain.RawExpr); ok {
		return string(raw)
	}
	lit, _ := v.(domain.Literal)
	*args = append(*args, lit.V)
	return "?"
}

func withSuffix(query, suffix string) string {
	if suffix = strings.TrimSpace(suffix); suffix != "" {
		return query + " " + suffix
	}
	return query
}

// verify checks that placeholders and arguments line up.
func verify(stmt Statement) error {
	n, err := countPlaceholders(stmt.SQL)
	if err != nil {
		return buildError("%v", err)
	}
	if stmt.IsNamed() {
		if n > 0 {
			return buildError("statement mixes named and positional placeholders: %s", stmt.SQL)
		}
		toks, err := findNamedParams(stmt.SQL)
		if err != nil {
			return buildError("%v", err)
		}
		for _, t := range toks {
			if _, ok := stmt.Named[t.name]; !ok {
				return buildError("missing value for :%s", t.name)
			}
		}
		return nil
	}
	if n != len(stmt.Args) {
		return buildError("statement has %d placeholders but %d arguments", n, len(stmt.Args))
	}
	return nil
}

func checkRow(row domain.Row) error {
	seen := make(map[string]struct{}, len(row))
	for _, f := range row {
		if !isIdentifier(f.Name) {
			return buildError("invalid column name %q", f.Name)
		}
		if _, dup := seen[f.Name]; dup {
			return buildError("duplicate column %q", f.Name)
		}
		if f.Value == nil {
			return buildError("column %q has no value", f.Name)
		}
		seen[f.Name] = struct{}{}
	}
	return nil
}

func sameShape(first, row domain.Row) error {
	if err := checkRow(row); err != nil {
		return err
	}
	if len(row) != len(first) {
		return fmt.Errorf("has %d columns, want %d", len(row), len(first))
	}
	for _, f := range first {
		if !row.Has(f.Name) {
			return fmt.Errorf("missing column %q", f.Name)
		}
	}
	return nil
}

func checkTable(table string) error {
	for _, part := range strings.Split(table, ".") {
		if !isIdentifier(part) {
			return buildError("invalid table name %q", table)
		}
	}
	return nil
}

// IsIdentifier reports whether s is a plain SQL identifier.
func IsIdentifier(s string) bool {
	return isIdentifier(s)
}

func isIdentifier(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case c == '_', c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z':
		case c >= '0' && c <= '9' && i > 0:
		default:
			return false
		}
	}
	return true
}

func buildError(format string, args ...any) error {
	return domain.NewUnexpectedError(fmt.Errorf(format, args...))
}
