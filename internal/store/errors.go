package store

import (
	"errors"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

var (
	ErrNotFound          = errors.New("not found")
	ErrDuplicateUsername = errors.New("username already exists")
	ErrDuplicateEmail    = errors.New("email already exists")
)

// uniqueViolation maps a unique-constraint failure on users to the matching
// sentinel. Any other error is returned as is.
func uniqueViolation(err error) error {
	var detail string

	var pgErr *pgconn.PgError
	var liteErr *sqlite.Error
	switch {
	case errors.As(err, &pgErr) && pgErr.Code == "23505":
		detail = pgErr.ConstraintName + " " + pgErr.Message
	case errors.As(err, &liteErr) && liteErr.Code()&0xff == sqlite3.SQLITE_CONSTRAINT:
		detail = liteErr.Error()
	default:
		return err
	}

	switch {
	case strings.Contains(detail, "email"):
		return ErrDuplicateEmail
	case strings.Contains(detail, "username"):
		return ErrDuplicateUsername
	}
	return err
}
