package apperror

import (
	"errors"
	"regexp"

	"github.com/golang-jwt/jwt/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

const (
	pgUniqueViolation   = "23505"
	pgInvalidTextRepr   = "22P02"
	pgCheckViolation    = "23514"
	pgForeignKeyMissing = "23503"
)

// Detail shape: Key (email)=(bob@example.com) already exists.
var pgDetailValue = regexp.MustCompile(`\)=\((.*)\) already exists`)

// Classify normalizes an arbitrary failure into an *Error. Already-typed
// errors pass through unchanged; recognized database and token error shapes
// map to their kinds; anything else becomes an internal error.
func Classify(err error) *Error {
	if err == nil {
		return nil
	}

	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case pgUniqueViolation:
			value := pgErr.Detail
			if m := pgDetailValue.FindStringSubmatch(pgErr.Detail); m != nil {
				value = m[1]
			}
			e := DuplicateField(value)
			e.Err = err
			return e
		case pgInvalidTextRepr:
			e := newError(KindInvalidIdentifier, 400, "Invalid identifier in request")
			e.Err = err
			return e
		case pgCheckViolation, pgForeignKeyMissing:
			e := BadRequest("Invalid input data.")
			e.Err = err
			return e
		}
	}

	switch {
	case errors.Is(err, jwt.ErrTokenExpired):
		e := TokenExpired()
		e.Err = err
		return e
	case errors.Is(err, jwt.ErrTokenMalformed),
		errors.Is(err, jwt.ErrTokenSignatureInvalid),
		errors.Is(err, jwt.ErrTokenUnverifiable):
		return InvalidToken(err)
	}

	return Internal(err)
}
