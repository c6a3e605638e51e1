package sqlstore

import (
	"errors"

	"github.com/go-sql-driver/mysql"
	"github.com/jackc/pgx/v5/pgconn"
)

const (
	pgErrUndefinedTable = "42P01" // undefined_table
	mysqlErrNoSuchTable = 1146    // ER_NO_SUCH_TABLE
)

// isMissingTable reports whether err means crypto_metrics has not been created yet.
func isMissingTable(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == pgErrUndefinedTable
	}

	var myErr *mysql.MySQLError
	if errors.As(err, &myErr) {
		return myErr.Number == mysqlErrNoSuchTable
	}

	return false
}
