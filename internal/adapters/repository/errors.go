package repository

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/lib/pq"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"

	"github.com/taskmaster/tracker/internal/domain/entities"
)

// PostgreSQL error codes
const (
	uniqueViolationCode     = "23505"
	foreignKeyViolationCode = "23503"
	checkViolationCode      = "23514"
)

// mapError maps a driver error to a domain error kind, keeping the original
// error in the chain for logging.
func mapError(err error) error {
	if err == nil {
		return nil
	}

	switch {
	case errors.Is(err, sql.ErrNoRows):
		return fmt.Errorf("%w: %v", entities.ErrNotFound, err)
	case isUniqueViolation(err):
		return fmt.Errorf("%w: %v", entities.ErrConflict, err)
	case isReferenceViolation(err):
		return fmt.Errorf("%w: %v", entities.ErrValidation, err)
	}
	return err
}

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return string(pqErr.Code) == uniqueViolationCode
	}

	var liteErr *sqlite.Error
	if errors.As(err, &liteErr) {
		switch liteErr.Code() {
		case sqlite3.SQLITE_CONSTRAINT_UNIQUE, sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY:
			return true
		case sqlite3.SQLITE_CONSTRAINT:
			return strings.Contains(liteErr.Error(), "UNIQUE constraint failed")
		}
	}
	return false
}

func isReferenceViolation(err error) bool {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		code := string(pqErr.Code)
		return code == foreignKeyViolationCode || code == checkViolationCode
	}

	var liteErr *sqlite.Error
	if errors.As(err, &liteErr) {
		switch liteErr.Code() {
		case sqlite3.SQLITE_CONSTRAINT_FOREIGNKEY, sqlite3.SQLITE_CONSTRAINT_CHECK:
			return true
		case sqlite3.SQLITE_CONSTRAINT:
			msg := liteErr.Error()
			return strings.Contains(msg, "FOREIGN KEY constraint failed") || strings.Contains(msg, "CHECK constraint failed")
		}
	}
	return false
}

// uniqueViolationOn reports whether err is a unique violation involving column.
// Postgres names the constraint, SQLite names table.column in the message.
func uniqueViolationOn(err error, column string) bool {
	if !isUniqueViolation(err) {
		return false
	}

	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return strings.Contains(pqErr.Constraint, column)
	}
	return strings.Contains(err.Error(), "."+column)
}
