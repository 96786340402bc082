package database

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/go-sql-driver/mysql"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

// Querier is implemented by both *sql.DB and *sql.Tx.
type Querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// WithTx runs fn inside a transaction, committing if fn returns nil.
// fn must only use tx, with sqlite there is a single connection and it's held by tx.
func WithTx(ctx context.Context, db *sql.DB, fn func(tx *sql.Tx) error) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}

	err = fn(tx)
	if err != nil {
		if rollbackErr := tx.Rollback(); rollbackErr != nil {
			return errors.Join(err, rollbackErr)
		}
		return err
	}

	return tx.Commit()
}

const mysqlDuplicateEntry = 1062

// IsUniqueViolation reports whether err comes from inserting a row that
// collides with an existing primary key or unique constraint.
func IsUniqueViolation(err error) bool {
	if err == nil {
		return false
	}

	var mysqlErr *mysql.MySQLError
	if errors.As(err, &mysqlErr) {
		return mysqlErr.Number == mysqlDuplicateEntry
	}

	var sqliteErr *sqlite.Error
	if errors.As(err, &sqliteErr) {
		switch sqliteErr.Code() {
		case sqlite3.SQLITE_CONSTRAINT_UNIQUE, sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY:
			return true
		case sqlite3.SQLITE_CONSTRAINT:
			// primary result code only, extended codes weren't enabled
			return strings.Contains(sqliteErr.Error(), "UNIQUE constraint failed")
		}
	}

	return false
}

func Exists(ctx context.Context, q Querier, query string, args ...any) (bool, error) {
	var exists bool
	err := q.QueryRowContext(ctx, "SELECT EXISTS("+query+")", args...).Scan(&exists)
	if err != nil {
		return false, err
	}
	return exists, nil
}
