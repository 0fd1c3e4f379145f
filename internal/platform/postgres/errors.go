package postgres

import (
	"errors"

	"github.com/jackc/pgx/v5/pgconn"
)

// uniqueViolationCode is the PostgreSQL error code for a unique
// constraint violation.
const uniqueViolationCode = "23505"

// isUniqueViolation reports whether err is a PostgreSQL unique constraint
// violation, such as a duplicate email address.
func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == uniqueViolationCode
}
