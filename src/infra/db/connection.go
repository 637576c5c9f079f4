package db

import (
	"context"
	"database/sql"
	"errors"

	"dbkit/src/core/domain"
	"dbkit/src/infra/logger"
)

var (
	errNoTransaction     = errors.New("no active transaction")
	errNestedTransaction = errors.New("a transaction is already active")
)

// Connect opens the connection unless it is already open.
func (d *DB) Connect(ctx context.Context) error {
	if d.conn != nil {
		return nil
	}

	pool, err := sql.Open(d.opts.DriverName, d.opts.DSN)
	if err != nil {
		return d.fail(domain.NewConnectionError("connect", err))
	}
	pool.SetMaxOpenConns(1)
	pool.SetMaxIdleConns(1)

	dialCtx := ctx
	if d.opts.ConnectTimeout > 0 {
		var cancel context.CancelFunc
		dialCtx, cancel = context.WithTimeout(ctx, d.opts.ConnectTimeout)
		defer cancel()
	}

	conn, err := pool.Conn(dialCtx)
	if err == nil {
		err = conn.PingContext(dialCtx)
		if err != nil {
			_ = conn.Close()
		}
	}
	if err != nil {
		_ = pool.Close()
		return d.fail(domain.NewConnectionError("connect", err).WithDriverCode(driverCode(err)))
	}

	d.pool, d.conn = pool, conn
	d.sink.Write(domain.ChannelDatabase, "Open database connection", true,
		"driver", d.opts.DriverName, "dialect", d.opts.Dialect.Name())
	logger.Info(d.log, "database connected", "driver", d.opts.DriverName)
	return nil
}

// Close rolls back an open transaction and closes the connection. Closing
// a closed DB is a no-op. The schema cache and query stack survive.
func (d *DB) Close() error {
	if d.conn == nil {
		return nil
	}

	var errs []error
	if d.tx != nil {
		if err := d.tx.Rollback(); err != nil && !errors.Is(err, sql.ErrTxDone) {
			errs = append(errs, err)
		}
		d.tx = nil
	}
	if err := d.conn.Close(); err != nil {
		errs = append(errs, err)
	}
	if err := d.pool.Close(); err != nil {
		errs = append(errs, err)
	}
	d.conn, d.pool = nil, nil

	if err := errors.Join(errs...); err != nil {
		return d.fail(domain.NewConnectionError("close", err).WithDriverCode(driverCode(err)))
	}
	d.sink.Write(domain.ChannelDatabase, "Close database connection", true)
	return nil
}

// Ping verifies the connection, opening it if needed.
func (d *DB) Ping(ctx context.Context) error {
	if err := d.Connect(ctx); err != nil {
		return err
	}
	if err := d.conn.PingContext(ctx); err != nil {
		return d.fail(domain.NewConnectionError("connect", err).WithDriverCode(driverCode(err)))
	}
	return nil
}

// Health implements ports.Repository.
func (d *DB) Health(ctx context.Context) error {
	return d.Ping(ctx)
}

// InTransaction reports whether a transaction is active. It never connects.
func (d *DB) InTransaction() bool {
	return d.tx != nil
}

// Begin starts a transaction. Nested transactions are rejected.
func (d *DB) Begin(ctx context.Context) error {
	if err := d.Connect(ctx); err != nil {
		return err
	}
	if d.tx != nil {
		return d.fail(domain.NewTransactionError(domain.TxBegin, errNestedTransaction))
	}

	// The transaction lives until Commit or Rollback, not until ctx ends.
	tx, err := d.conn.BeginTx(context.WithoutCancel(ctx), nil)
	if err != nil {
		return d.fail(domain.NewTransactionError(domain.TxBegin, err).WithDriverCode(driverCode(err)))
	}
	d.tx = tx
	return nil
}

// Commit commits the active transaction.
func (d *DB) Commit(ctx context.Context) error {
	return d.finish(ctx, domain.TxCommit)
}

// Rollback rolls back the active transaction.
func (d *DB) Rollback(ctx context.Context) error {
	return d.finish(ctx, domain.TxRollback)
}

func (d *DB) finish(ctx context.Context, op domain.TxOp) error {
	if err := d.Connect(ctx); err != nil {
		return err
	}
	if d.tx == nil {
		return d.fail(domain.NewTransactionError(op, errNoTransaction))
	}

	tx := d.tx
	d.tx = nil

	var err error
	if op == domain.TxCommit {
		err = tx.Commit()
	} else {
		err = tx.Rollback()
	}
	if err != nil {
		return d.fail(domain.NewTransactionError(op, err).WithDriverCode(driverCode(err)))
	}
	return nil
}

// querier returns the active transaction or the connection.
func (d *DB) querier(ctx context.Context) (querier, error) {
	if err := d.Connect(ctx); err != nil {
		return nil, err
	}
	if d.tx != nil {
		return d.tx, nil
	}
	return d.conn, nil
}
