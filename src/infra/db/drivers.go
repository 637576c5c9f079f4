package db

import (
	"database/sql"
	"errors"
	"strconv"
	"time"

	"github.com/go-sql-driver/mysql"
	"github.com/jackc/pgx/v5/pgconn"
	_ "github.com/jackc/pgx/v5/stdlib" // registers "pgx"
	"github.com/mattn/go-sqlite3"
)

// SQLiteDriverName is a go-sqlite3 driver with a NOW() function, so SQL
// written for MySQL timestamps runs unchanged.
const SQLiteDriverName = "sqlite3_dbkit"

const sqliteTimeLayout = "2006-01-02 15:04:05"

func init() {
	sql.Register(SQLiteDriverName, &sqlite3.SQLiteDriver{
		ConnectHook: func(conn *sqlite3.SQLiteConn) error {
			return conn.RegisterFunc("NOW", func() string {
				return time.Now().UTC().Format(sqliteTimeLayout)
			}, false)
		},
	})
}

// driverCode extracts the driver specific error code of err, if any.
func driverCode(err error) string {
	var myErr *mysql.MySQLError
	if errors.As(err, &myErr) {
		return strconv.Itoa(int(myErr.Number))
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code
	}

	var liteErr sqlite3.Error
	if errors.As(err, &liteErr) {
		if liteErr.ExtendedCode != 0 {
			return strconv.Itoa(int(liteErr.ExtendedCode))
		}
		return strconv.Itoa(int(liteErr.Code))
	}
	return ""
}
