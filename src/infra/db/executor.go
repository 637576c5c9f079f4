package db

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/spf13/cast"

	"dbkit/src/core/domain"
	"dbkit/src/infra/logger"
	"dbkit/src/infra/sqlbuilder"
)

// Execute runs a statement that returns no rows.
//
// A single domain.Params (or map[string]any) argument binds ":name"
// placeholders; otherwise args bind "?" placeholders in order.
func (d *DB) Execute(ctx context.Context, query string, args ...any) (sql.Result, error) {
	return d.exec(ctx, domain.NamespaceDefault, sqlbuilder.NewStatement(query, args...))
}

// Query runs a statement and returns every row. No rows yields a nil slice.
func (d *DB) Query(ctx context.Context, query string, args ...any) ([]domain.Record, error) {
	return d.records(ctx, domain.NamespaceDefault, sqlbuilder.NewStatement(query, args...), 0)
}

// Explain returns the first row of the query plan of query.
func (d *DB) Explain(ctx context.Context, query string, args ...any) (domain.Record, error) {
	return d.explain(ctx, sqlbuilder.NewStatement(query, args...))
}

// Select returns the rows of "SELECT columns FROM table suffix", or nil
// when nothing matches.
func (d *DB) Select(ctx context.Context, table, columns, suffix string, args ...any) ([]domain.Record, error) {
	stmt, err := d.builder.Select(table, columns, suffix, args...)
	if err != nil {
		return nil, d.fail(err)
	}
	recs, err := d.records(ctx, domain.NamespaceDefault, stmt, 0)
	if err != nil || len(recs) == 0 {
		return nil, err
	}
	return recs, nil
}

// ExplainSelect returns the first row of the query plan of the select
// Select would run.
func (d *DB) ExplainSelect(ctx context.Context, table, columns, suffix string, args ...any) (domain.Record, error) {
	stmt, err := d.builder.Select(table, columns, suffix, args...)
	if err != nil {
		return nil, d.fail(err)
	}
	return d.explain(ctx, stmt)
}

// SelectRow returns the first row of the select, or nil when nothing matches.
func (d *DB) SelectRow(ctx context.Context, table, columns, suffix string, args ...any) (domain.Record, error) {
	stmt, err := d.builder.Select(table, columns, suffix, args...)
	if err != nil {
		return nil, d.fail(err)
	}
	return d.first(ctx, domain.NamespaceDefault, stmt)
}

// Insert inserts row and returns the generated id. Omitted timestamp
// columns present in the table are set to NOW().
func (d *DB) Insert(ctx context.Context, table string, row domain.Row) (int64, error) {
	stmt, err := d.builder.Insert(ctx, table, row)
	if err != nil {
		return 0, d.fail(err)
	}
	return d.insert(ctx, domain.NamespaceInsert, stmt)
}

// InsertMultipleRow inserts every row of batch in one statement and returns
// the id the driver reports: MySQL and PostgreSQL report the first row,
// SQLite the last.
func (d *DB) InsertMultipleRow(ctx context.Context, table string, batch domain.Batch) (int64, error) {
	stmt, err := d.builder.InsertMultiple(ctx, table, batch)
	if err != nil {
		return 0, d.fail(err)
	}
	return d.insert(ctx, domain.NamespaceInsertMultiple, stmt)
}

// InsertDuplicateKeyUpdateMultiple inserts batch, updating rows whose key
// already exists. The identity column is never updated.
func (d *DB) InsertDuplicateKeyUpdateMultiple(ctx context.Context, table string, batch domain.Batch) (int64, error) {
	stmt, err := d.builder.UpsertMultiple(ctx, table, batch)
	if err != nil {
		return 0, d.fail(err)
	}
	return d.insert(ctx, domain.NamespaceUpsertMultiple, stmt)
}

// Update sets the columns of row on the rows matched by suffix and returns
// the number of affected rows. params bind the ":name" placeholders of
// suffix and win over row values of the same name.
func (d *DB) Update(ctx context.Context, table string, row domain.Row, suffix string, params domain.Params) (int64, error) {
	stmt, err := d.builder.Update(ctx, table, row, suffix, params)
	if err != nil {
		return 0, d.fail(err)
	}
	if len(stmt.Overridden) > 0 {
		d.sink.Write(domain.ChannelDatabase, "update values replaced by suffix parameters", true,
			"table", table, "params", stmt.Overridden)
		logger.Warn(d.log, "update parameter collision", "table", table, "params", stmt.Overridden)
	}
	res, err := d.exec(ctx, domain.NamespaceUpdate, stmt)
	if err != nil {
		return 0, err
	}
	return d.affected(res)
}

// Delete deletes the rows matched by suffix and returns how many were removed.
func (d *DB) Delete(ctx context.Context, table, suffix string, args ...any) (int64, error) {
	stmt, err := d.builder.Delete(table, suffix, args...)
	if err != nil {
		return 0, d.fail(err)
	}
	res, err := d.exec(ctx, domain.NamespaceDelete, stmt)
	if err != nil {
		return 0, err
	}
	return d.affected(res)
}

// Count returns the number of rows matched by suffix; 0 when none.
func (d *DB) Count(ctx context.Context, table, suffix string, args ...any) (int64, error) {
	stmt, err := d.builder.Count(table, suffix, args...)
	if err != nil {
		return 0, d.fail(err)
	}
	rec, err := d.first(ctx, domain.NamespaceDefault, stmt)
	if err != nil || rec == nil {
		return 0, err
	}
	n, err := cast.ToInt64E(rec["count"])
	if err != nil {
		return 0, d.fail(domain.NewUnexpectedError(fmt.Errorf("reading count: %w", err)))
	}
	return n, nil
}

// Truncate empties table with foreign key checks disabled where the
// dialect supports it. Checks are re-enabled even when the truncate fails.
func (d *DB) Truncate(ctx context.Context, table string) error {
	plan, err := d.builder.Truncate(table)
	if err != nil {
		return d.fail(err)
	}

	if plan.Disable != "" {
		if _, err := d.exec(ctx, domain.NamespaceDefault, sqlbuilder.NewStatement(plan.Disable)); err != nil {
			return err
		}
	}
	_, err = d.exec(ctx, domain.NamespaceDefault, sqlbuilder.NewStatement(plan.Truncate))
	if plan.Enable != "" {
		if _, enableErr := d.exec(ctx, domain.NamespaceDefault, sqlbuilder.NewStatement(plan.Enable)); err == nil {
			err = enableErr
		}
	}
	return err
}

// CreateCloneTemporaryTable creates an empty temporary table with the
// structure of table and returns its name.
func (d *DB) CreateCloneTemporaryTable(ctx context.Context, table string) (string, error) {
	tmp, stmt, err := d.builder.CloneTemporaryTable(table, d.opts.TempTablePrefix)
	if err != nil {
		return "", d.fail(err)
	}
	if _, err := d.exec(ctx, domain.NamespaceDefault, stmt); err != nil {
		return "", err
	}
	return tmp, nil
}

// LastQuery returns the bound-query text of the latest execution.
func (d *DB) LastQuery() string {
	if len(d.stack) == 0 {
		return ""
	}
	return d.stack[len(d.stack)-1]
}

// QueryStack returns every executed bound query, oldest first.
func (d *DB) QueryStack() []string {
	out := make([]string, len(d.stack))
	copy(out, d.stack)
	return out
}

func (d *DB) explain(ctx context.Context, stmt sqlbuilder.Statement) (domain.Record, error) {
	return d.first(ctx, domain.NamespaceExplain, d.builder.Explain(stmt))
}

func (d *DB) first(ctx context.Context, ns string, stmt sqlbuilder.Statement) (domain.Record, error) {
	recs, err := d.records(ctx, ns, stmt, 1)
	if err != nil || len(recs) == 0 {
		return nil, err
	}
	return recs[0], nil
}

func (d *DB) exec(ctx context.Context, ns string, stmt sqlbuilder.Statement) (sql.Result, error) {
	var res sql.Result
	err := d.run(ctx, ns, stmt, func(q querier, query string, args []any) error {
		var err error
		res, err = q.ExecContext(ctx, query, args...)
		return err
	})
	return res, err
}

// records runs stmt and scans up to limit rows; limit 0 reads all.
func (d *DB) records(ctx context.Context, ns string, stmt sqlbuilder.Statement, limit int) ([]domain.Record, error) {
	var recs []domain.Record
	err := d.run(ctx, ns, stmt, func(q querier, query string, args []any) error {
		rows, err := q.QueryContext(ctx, query, args...)
		if err != nil {
			return err
		}
		recs, err = scanRecords(rows, limit)
		return err
	})
	return recs, err
}

func (d *DB) insert(ctx context.Context, ns string, stmt sqlbuilder.Statement) (int64, error) {
	if stmt.Returning != "" {
		rec, err := d.first(ctx, ns, stmt)
		if err != nil || rec == nil {
			return 0, err
		}
		id, err := cast.ToInt64E(rec[stmt.Returning])
		if err != nil {
			return 0, d.fail(domain.NewUnexpectedError(fmt.Errorf("reading inserted id: %w", err)))
		}
		return id, nil
	}

	res, err := d.exec(ctx, ns, stmt)
	if err != nil {
		return 0, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, d.fail(domain.NewUnexpectedError(fmt.Errorf("reading inserted id: %w", err)))
	}
	return id, nil
}

func (d *DB) affected(res sql.Result) (int64, error) {
	n, err := res.RowsAffected()
	if err != nil {
		return 0, d.fail(domain.NewUnexpectedError(fmt.Errorf("reading affected rows: %w", err)))
	}
	return n, nil
}

// scanRecords reads rows into records, converting []byte values to
// strings. rows is always closed.
func scanRecords(rows *sql.Rows, limit int) ([]domain.Record, error) {
	defer rows.Close()

	cols, err := rows.Columns()
	if err != nil {
		return nil, err
	}

	var out []domain.Record
	for rows.Next() {
		values := make([]any, len(cols))
		ptrs := make([]any, len(cols))
		for i := range values {
			ptrs[i] = &values[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, err
		}

		rec := make(domain.Record, len(cols))
		for i, c := range cols {
			if b, ok := values[i].([]byte); ok {
				rec[c] = string(b)
				continue
			}
			rec[c] = values[i]
		}
		out = append(out, rec)

		if limit > 0 && len(out) >= limit {
			break
		}
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}
