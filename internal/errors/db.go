package errors

import (
	"context"
	"database/sql"
	"errors"
	"regexp"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// reKeyField extracts the column from a unique violation detail: "Key (jti)=(...) already exists.".
var reKeyField = regexp.MustCompile(`Key \(([^)]+)\)=`)

// MapDBError maps database errors to AppError instances:
//   - context deadline/cancel → Timeout/Canceled
//   - no rows → NotFound
//   - unique violation → Conflict
//   - NOT NULL / CHECK violation → Validation
//   - connection exceptions → Unavailable
//
// Other postgres errors become Internal. Unrecognized errors are returned unchanged.
func MapDBError(err error) error {
	if err == nil {
		return nil
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return Wrap(err, ErrCodeTimeout, "database request timed out")
	}
	if errors.Is(err, context.Canceled) {
		return Wrap(err, ErrCodeCanceled, "database request was canceled")
	}
	if errors.Is(err, pgx.ErrNoRows) || errors.Is(err, sql.ErrNoRows) {
		return Wrap(err, ErrCodeNotFound, "resource not found")
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return mapPgError(pgErr)
	}

	return err
}

func mapPgError(pgErr *pgconn.PgError) error {
	switch {
	case pgErr.Code == pgerrcode.UniqueViolation:
		return &AppError{
			Code:    ErrCodeConflict,
			Message: "value already exists",
			Field:   uniqueField(pgErr),
			Cause:   pgErr,
		}
	case pgErr.Code == pgerrcode.NotNullViolation:
		return &AppError{Code: ErrCodeValidation, Message: "required value is missing", Field: pgErr.ColumnName, Cause: pgErr}
	case pgErr.Code == pgerrcode.CheckViolation:
		return &AppError{Code: ErrCodeValidation, Message: "value is out of range", Field: pgErr.ColumnName, Cause: pgErr}
	case pgerrcode.IsConnectionException(pgErr.Code),
		pgerrcode.IsInsufficientResources(pgErr.Code),
		pgErr.Code == pgerrcode.CannotConnectNow:
		return Wrap(pgErr, ErrCodeUnavailable, "database unavailable")
	default:
		return Wrap(pgErr, ErrCodeInternal, "database error")
	}
}

// uniqueField prefers the column metadata and falls back to parsing the detail message.
func uniqueField(pgErr *pgconn.PgError) string {
	if pgErr.ColumnName != "" {
		return pgErr.ColumnName
	}
	if m := reKeyField.FindStringSubmatch(pgErr.Detail); len(m) == 2 {
		return m[1]
	}
	return ""
}
