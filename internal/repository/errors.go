package repository

import (
	"errors"

	"github.com/jackc/pgx/v5/pgconn"
)

// Errors returned by both the PostgreSQL and in-memory stores.
var (
	ErrCustomerNotFound = errors.New("customer not found")
	ErrNameExists       = errors.New("customer name already exists")
	ErrEmailExists      = errors.New("email already exists")
	ErrUploadNotFound   = errors.New("upload not found")
	ErrUploadExists     = errors.New("upload already exists")
	ErrOwnerNotFound    = errors.New("upload owner does not exist")
)

// PostgreSQL error codes.
const (
	pgUniqueViolation     = "23505"
	pgForeignKeyViolation = "23503"
)

// Constraint names from migrations.
const (
	constraintCustomerName  = "customers_name_key"
	constraintCustomerEmail = "customers_email_key"
	constraintUploadOwner   = "uploads_owner_id_fkey"
)

// uniqueViolation returns the violated constraint name if err is a unique violation.
func uniqueViolation(err error) (string, bool) {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation {
		return pgErr.ConstraintName, true
	}
	return "", false
}

func isForeignKeyViolation(err error, constraint string) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == pgForeignKeyViolation && pgErr.ConstraintName == constraint
}
