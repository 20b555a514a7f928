package postgres

// Package postgres provides database/sql adapters backed by PostgreSQL (pgx driver).

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/target/quizgate/internal/adapters/clock"
	apperrors "github.com/target/quizgate/internal/errors"
	"github.com/target/quizgate/internal/ports"
)

var (
	_ ports.RevocationStore = (*RevocationStore)(nil)
	_ ports.Sweeper         = (*RevocationStore)(nil)
)

const (
	revokeQuery = `INSERT INTO revoked_tokens (jti, expires_at) VALUES ($1, $2)
ON CONFLICT (jti) DO UPDATE SET expires_at = GREATEST(revoked_tokens.expires_at, EXCLUDED.expires_at)`
	isRevokedQuery = `SELECT EXISTS(SELECT 1 FROM revoked_tokens WHERE jti = $1 AND expires_at > $2)`
	sweepQuery     = `DELETE FROM revoked_tokens WHERE expires_at <= $1`
)

// RevocationStore persists revoked token IDs in the revoked_tokens table.
type RevocationStore struct {
	db    *sql.DB
	clock ports.Clock
}

// NewRevocationStore creates a store on db. A nil clock uses the system time.
func NewRevocationStore(db *sql.DB, clk ports.Clock) *RevocationStore {
	if clk == nil {
		clk = clock.System{}
	}
	return &RevocationStore{db: db, clock: clk}
}

// Revoke denies id until expiresAt. Re-revoking keeps the later expiry.
func (s *RevocationStore) Revoke(ctx context.Context, id string, expiresAt time.Time) error {
	if id == "" {
		return errors.New("token ID cannot be empty")
	}
	if _, err := s.db.ExecContext(ctx, revokeQuery, id, expiresAt.UTC()); err != nil {
		return fmt.Errorf("revoke token: %w", apperrors.MapDBError(err))
	}
	return nil
}

// IsRevoked reports whether id is denied at the store clock's current time.
func (s *RevocationStore) IsRevoked(ctx context.Context, id string) (bool, error) {
	if id == "" {
		return false, nil
	}
	var revoked bool
	if err := s.db.QueryRowContext(ctx, isRevokedQuery, id, s.clock.Now().UTC()).Scan(&revoked); err != nil {
		return false, fmt.Errorf("check revocation: %w", apperrors.MapDBError(err))
	}
	return revoked, nil
}

// Sweep deletes entries whose expiry is at or before now.
func (s *RevocationStore) Sweep(ctx context.Context, now time.Time) (int64, error) {
	res, err := s.db.ExecContext(ctx, sweepQuery, now.UTC())
	if err != nil {
		return 0, fmt.Errorf("sweep revoked tokens: %w", apperrors.MapDBError(err))
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("sweep revoked tokens: rows affected: %w", err)
	}
	return n, nil
}
