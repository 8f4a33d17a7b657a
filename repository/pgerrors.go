package repository

import (
	"errors"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/lib/pq"
)

const (
	codeUniqueViolation  = "23505"
	codeNumericOverflow  = "22003"
	codeCheckViolation   = "23514"
	constraintUsername   = "users_username_key"
	constraintAccountOwn = "accounts_user_id_key"
)

// pgError extracts the SQLSTATE and constraint name from either driver.
func pgError(err error) (code, constraint string, ok bool) {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return string(pqErr.Code), pqErr.Constraint, true
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code, pgErr.ConstraintName, true
	}
	return "", "", false
}

func isUniqueViolation(err error, constraint string) bool {
	code, name, ok := pgError(err)
	return ok && code == codeUniqueViolation && name == constraint
}

func isNumericOverflow(err error) bool {
	code, _, ok := pgError(err)
	return ok && code == codeNumericOverflow
}

func isCheckViolation(err error) bool {
	code, _, ok := pgError(err)
	return ok && code == codeCheckViolation
}
