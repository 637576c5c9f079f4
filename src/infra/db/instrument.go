package db

import (
	"context"
	"errors"
	"fmt"

	"dbkit/src/core/domain"
	"dbkit/src/infra/benchmark"
	"dbkit/src/infra/logger"
	"dbkit/src/infra/sqlbuilder"
)

const exceptionPointer = "Exception has occurred. Please refer to the exception log for details."

// run binds stmt, executes it through fn under the ns timer, records the
// bound query and logs the outcome.
func (d *DB) run(ctx context.Context, ns string, stmt sqlbuilder.Statement, fn func(q querier, query string, args []any) error) error {
	q, err := d.querier(ctx)
	if err != nil {
		return err
	}

	query, args, err := stmt.Bind(d.opts.Dialect)
	if err != nil {
		return d.fail(domain.NewUnexpectedError(fmt.Errorf("binding %q: %w", stmt.SQL, err)))
	}
	bound := stmt.BoundQuery()

	d.timer.Start(ns)
	err = fn(q, query, args)
	d.timer.End(ns)

	d.stack = append(d.stack, bound)
	if err != nil {
		return d.fail(domain.NewExecuteError(stmt.SQL, err).WithDriverCode(driverCode(err)))
	}
	d.logQuery(ns, bound)
	return nil
}

// logQuery writes the timing line of the last execution under ns.
func (d *DB) logQuery(ns, bound string) {
	rec, _ := d.timer.Result(ns)
	slow := d.opts.SlowQueryThreshold > 0 && rec.ExecutionTime >= d.opts.SlowQueryThreshold
	if !d.opts.QueryLog && !slow {
		return
	}

	msg := fmt.Sprintf("[Time:%s]%s", benchmark.FormatTime(rec.ExecutionTime), bound)
	if slow {
		msg = "[Slow]" + msg
	}
	d.sink.Write(domain.ChannelDatabase, msg, true,
		"namespace", ns,
		"elapsed", rec.ExecutionTime,
		"memory_delta", benchmark.FormatSize(rec.MemoryUsage),
		"slow", slow,
		"query", bound,
	)
}

// fail reports err to the exception channel once and returns it as a
// *domain.DbError. Errors already reported pass through silently.
func (d *DB) fail(err error) error {
	var dbErr *domain.DbError
	if !errors.As(err, &dbErr) {
		dbErr = domain.NewUnexpectedError(err)
	}
	if dbErr == d.reported {
		return dbErr
	}
	d.reported = dbErr

	d.sink.WriteException(dbErr.ExceptionInfo(), true)
	d.sink.Write(domain.ChannelDatabase, exceptionPointer, true)
	logger.Debug(d.log, "database error", "kind", dbErr.Kind, "code", dbErr.Code, "error", dbErr)
	return dbErr
}
