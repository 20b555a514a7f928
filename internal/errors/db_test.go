package errors

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

func TestMapDBError(t *testing.T) {
	tests := []struct {
		name      string
		err       error
		wantCode  ErrorCode
		wantField string
	}{
		{name: "deadline exceeded", err: context.DeadlineExceeded, wantCode: ErrCodeTimeout},
		{name: "canceled", err: fmt.Errorf("query: %w", context.Canceled), wantCode: ErrCodeCanceled},
		{name: "pgx no rows", err: pgx.ErrNoRows, wantCode: ErrCodeNotFound},
		{name: "sql no rows", err: sql.ErrNoRows, wantCode: ErrCodeNotFound},
		{
			name:      "unique violation with column",
			err:       &pgconn.PgError{Code: pgerrcode.UniqueViolation, ColumnName: "jti"},
			wantCode:  ErrCodeConflict,
			wantField: "jti",
		},
		{
			name:      "unique violation from detail",
			err:       &pgconn.PgError{Code: pgerrcode.UniqueViolation, Detail: "Key (jti)=(abc) already exists."},
			wantCode:  ErrCodeConflict,
			wantField: "jti",
		},
		{
			name:      "not null",
			err:       &pgconn.PgError{Code: pgerrcode.NotNullViolation, ColumnName: "expires_at"},
			wantCode:  ErrCodeValidation,
			wantField: "expires_at",
		},
		{name: "check", err: &pgconn.PgError{Code: pgerrcode.CheckViolation}, wantCode: ErrCodeValidation},
		{name: "connection failure", err: &pgconn.PgError{Code: pgerrcode.ConnectionFailure}, wantCode: ErrCodeUnavailable},
		{name: "too many connections", err: &pgconn.PgError{Code: pgerrcode.TooManyConnections}, wantCode: ErrCodeUnavailable},
		{name: "other pg error", err: &pgconn.PgError{Code: pgerrcode.SyntaxError}, wantCode: ErrCodeInternal},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := MapDBError(tt.err)
			if code := GetCode(got); code != tt.wantCode {
				t.Fatalf("MapDBError() code = %v, want %v", code, tt.wantCode)
			}
			if field := GetField(got); field != tt.wantField {
				t.Errorf("MapDBError() field = %q, want %q", field, tt.wantField)
			}
			if !errors.Is(got, tt.err) {
				t.Errorf("MapDBError() should wrap the original error")
			}
		})
	}
}

func TestMapDBError_PassThrough(t *testing.T) {
	if MapDBError(nil) != nil {
		t.Error("MapDBError(nil) should be nil")
	}

	plain := errors.New("plain")
	if got := MapDBError(plain); got != plain {
		t.Errorf("MapDBError(plain) = %v, want the same error", got)
	}
}
