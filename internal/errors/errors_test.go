package errors

import (
	"errors"
	"fmt"
	"testing"
)

func TestAppError_Error(t *testing.T) {
	tests := []struct {
		name string
		err  *AppError
		want string
	}{
		{
			name: "message only",
			err:  &AppError{Code: ErrCodeNotFound, Message: "resource not found"},
			want: "resource not found",
		},
		{
			name: "with cause",
			err:  &AppError{Code: ErrCodeInternal, Message: "failed to process", Cause: errors.New("boom")},
			want: "failed to process: boom",
		},
		{
			name: "with field",
			err:  Configuration("JWT_SECRET", "is required"),
			want: "JWT_SECRET: is required",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.err.Error(); got != tt.want {
				t.Errorf("AppError.Error() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestAppError_Unwrap(t *testing.T) {
	cause := errors.New("underlying error")
	err := Wrap(cause, ErrCodeUnavailable, "store down")

	if !errors.Is(err, cause) {
		t.Errorf("errors.Is(%v, cause) = false, want true", err)
	}
	if Wrap(nil, ErrCodeInternal, "x") != nil {
		t.Error("Wrap(nil) should return nil")
	}
}

func TestConstructorsAndPredicates(t *testing.T) {
	tests := []struct {
		name string
		err  error
		code ErrorCode
		is   func(error) bool
	}{
		{"not found", NotFound("x"), ErrCodeNotFound, IsNotFound},
		{"conflict", Conflict("x"), ErrCodeConflict, IsConflict},
		{"validation", Validationf("bad %s", "x"), ErrCodeValidation, IsValidation},
		{"unauthenticated", Unauthenticated("x"), ErrCodeUnauthenticated, IsUnauthenticated},
		{"forbidden", Forbidden("x"), ErrCodeForbidden, IsForbidden},
		{"rate limited", RateLimited("x"), ErrCodeRateLimited, IsRateLimited},
		{"configuration", Configurationf("TOKEN_TTL", "must be at least %s", "1s"), ErrCodeConfiguration, IsConfiguration},
		{"unavailable", Wrap(errors.New("dial"), ErrCodeUnavailable, "x"), ErrCodeUnavailable, IsUnavailable},
		{"internal", Internalf("x %d", 1), ErrCodeInternal, IsInternal},
		{"timeout", Wrapf(errors.New("slow"), ErrCodeTimeout, "after %s", "1s"), ErrCodeTimeout, IsTimeout},
		{"canceled", Wrap(errors.New("gone"), ErrCodeCanceled, "x"), ErrCodeCanceled, IsCanceled},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := GetCode(tt.err); got != tt.code {
				t.Errorf("GetCode() = %v, want %v", got, tt.code)
			}
			if !tt.is(tt.err) {
				t.Errorf("predicate returned false for %v", tt.err)
			}
			wrapped := fmt.Errorf("outer: %w", tt.err)
			if !tt.is(wrapped) {
				t.Errorf("predicate returned false for wrapped %v", wrapped)
			}
		})
	}
}

func TestPredicates_DoNotMatchOtherCodes(t *testing.T) {
	err := Forbidden("admin access required")
	if IsUnauthenticated(err) {
		t.Error("Forbidden should not be Unauthenticated")
	}
	if IsConfiguration(errors.New("plain")) {
		t.Error("plain error should not be Configuration")
	}
	if GetCode(errors.New("plain")) != "" {
		t.Error("GetCode(plain) should be empty")
	}
}

func TestGetField(t *testing.T) {
	if got := GetField(ValidationField("password", "required")); got != "password" {
		t.Errorf("GetField() = %q, want password", got)
	}
	if got := GetField(errors.New("plain")); got != "" {
		t.Errorf("GetField(plain) = %q, want empty", got)
	}
}
