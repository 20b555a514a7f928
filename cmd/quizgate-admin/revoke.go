package main

import (
	"context"
	"database/sql"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/target/quizgate/config"
	"github.com/target/quizgate/internal/adapters/postgres"
	redisadapter "github.com/target/quizgate/internal/adapters/redis"
	"github.com/target/quizgate/internal/bootstrap"
	"github.com/target/quizgate/internal/domain/token"
	"github.com/target/quizgate/internal/ports"
)

const defaultRevokeTimeout = 30 * time.Second

var (
	errRevocationDisabled = errors.New("REVOCATION_STORE must be redis or postgres to revoke from the CLI")
	errTokenHasNoID       = errors.New("token carries no jti and cannot be revoked")
)

type revokeOptions struct {
	Token   string
	Timeout time.Duration
}

func parseRevokeFlags(args []string) (revokeOptions, error) {
	fs := flag.NewFlagSet("revoke", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)

	opts := revokeOptions{}
	fs.StringVar(&opts.Token, "token", "", "Token to deny until it expires")
	fs.DurationVar(&opts.Timeout, "timeout", defaultRevokeTimeout, "Maximum duration for the store write")

	if err := fs.Parse(args); err != nil {
		return revokeOptions{}, err
	}
	opts.Token = strings.TrimSpace(opts.Token)
	if opts.Token == "" {
		return revokeOptions{}, errors.New("--token is required")
	}
	if opts.Timeout <= 0 {
		return revokeOptions{}, errors.New("--timeout must be greater than zero")
	}
	return opts, nil
}

func runRevoke(cmdCtx *commandContext, args []string) error {
	opts, err := parseRevokeFlags(args)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmdCtx.Ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx, cancel := context.WithTimeout(ctx, opts.Timeout)
	defer cancel()

	store, closeFn, err := openRevocationStore(cmdCtx)
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := closeFn(); closeErr != nil {
			cmdCtx.Logger.Warn("close revocation store failed", "error", closeErr)
		}
	}()

	res, err := revokeToken(ctx, store, []byte(cmdCtx.Config.Auth.JWTSecret), opts.Token, time.Now())
	if err != nil {
		return err
	}
	if res.AlreadyExpired {
		return writef(cmdCtx.Out, "token %s already expired at %s; nothing to revoke\n",
			res.ID, res.ExpiresAt.Format(time.RFC3339))
	}
	cmdCtx.Logger.Info("token revoked", "jti", res.ID, "subject", res.Subject)
	return writef(cmdCtx.Out, "revoked %s until %s\n", res.ID, res.ExpiresAt.Format(time.RFC3339))
}

type revokeResult struct {
	ID             string
	Subject        string
	ExpiresAt      time.Time
	AlreadyExpired bool
}

// revokeToken verifies tok and denies its jti until exp. Expired tokens are reported, not stored.
func revokeToken(
	ctx context.Context,
	store ports.RevocationStore,
	secret []byte,
	tok string,
	now time.Time,
) (revokeResult, error) {
	claims, err := token.Verify(tok, secret, now)
	switch {
	case errors.Is(err, token.ErrTokenExpired):
		// Expiry is the last check, so re-verifying at the epoch only recovers the claims.
		claims, err = token.Verify(tok, secret, time.Unix(0, 0))
		if err != nil {
			return revokeResult{}, fmt.Errorf("token rejected: %w", err)
		}
		return revokeResult{ID: claims.ID, Subject: claims.Subject, ExpiresAt: claims.ExpiresAtTime(), AlreadyExpired: true}, nil
	case err != nil:
		return revokeResult{}, fmt.Errorf("token rejected (%s): %w", token.Stage(err), err)
	}

	if claims.ID == "" {
		return revokeResult{}, errTokenHasNoID
	}
	if err := store.Revoke(ctx, claims.ID, claims.ExpiresAtTime()); err != nil {
		return revokeResult{}, fmt.Errorf("revoke %s: %w", claims.ID, err)
	}
	return revokeResult{ID: claims.ID, Subject: claims.Subject, ExpiresAt: claims.ExpiresAtTime()}, nil
}

// openRevocationStore connects the shared deny-list named by REVOCATION_STORE.
// The in-process memory list is meaningless from a separate CLI process.
//
//nolint:ireturn // returns the port so callers stay store-agnostic.
func openRevocationStore(cmdCtx *commandContext) (ports.RevocationStore, func() error, error) {
	cfg := cmdCtx.Config
	switch cfg.Auth.RevocationStore {
	case config.RevocationStoreRedis:
		client, err := bootstrap.ConnectRedis(bootstrap.DatabaseConfig{RedisConfig: cfg.Redis, Logger: cmdCtx.Logger})
		if err != nil {
			return nil, nil, fmt.Errorf("connect redis: %w", err)
		}
		return redisadapter.NewRevocationStore(client), closeRedis(client), nil
	case config.RevocationStorePostgres:
		db, err := bootstrap.ConnectDB(bootstrap.DatabaseConfig{DBConfig: cfg.Postgres, Logger: cmdCtx.Logger})
		if err != nil {
			return nil, nil, fmt.Errorf("connect db: %w", err)
		}
		return postgres.NewRevocationStore(db, nil), closeDB(db), nil
	default:
		return nil, nil, errRevocationDisabled
	}
}

func closeRedis(client redis.UniversalClient) func() error {
	return func() error {
		if err := client.Close(); err != nil {
			return fmt.Errorf("close redis: %w", err)
		}
		return nil
	}
}

func closeDB(db *sql.DB) func() error {
	return func() error {
		if err := db.Close(); err != nil {
			return fmt.Errorf("close db: %w", err)
		}
		return nil
	}
}
