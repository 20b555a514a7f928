package service

import (
	"context"
	"crypto/sha256"
	"crypto/subtle"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/target/quizgate/internal/adapters/clock"
	domainaccess "github.com/target/quizgate/internal/domain/access"
	domainauth "github.com/target/quizgate/internal/domain/auth"
	"github.com/target/quizgate/internal/domain/token"
	apperrors "github.com/target/quizgate/internal/errors"
	"github.com/target/quizgate/internal/observability/metrics"
	"github.com/target/quizgate/internal/observability/statsd"
	"github.com/target/quizgate/internal/ports"
)

var (
	// ErrInvalidCredentials is returned when the presented password does not match.
	ErrInvalidCredentials = apperrors.Unauthenticated("invalid password")

	// ErrTokenRevoked is returned for a valid token whose ID is on the deny-list.
	ErrTokenRevoked = errors.New("token revoked")
)

// AuthServiceConfig carries the startup credential and token settings.
type AuthServiceConfig struct {
	AdminPassword string
	AdminSubject  string
	Secret        []byte
	TokenTTL      time.Duration
}

// AuthServiceOptions groups dependencies for AuthService.
type AuthServiceOptions struct {
	Config      AuthServiceConfig     // Required: credential, subject, secret and TTL
	Revocations ports.RevocationStore // Optional: nil disables revocation
	Clock       ports.Clock           // Optional: defaults to system time
	Logger      *slog.Logger          // Optional: structured logger
	Metrics     statsd.Sink           // Optional: metrics sink (StatsD-compatible)
}

// AuthService issues tokens for verified credentials and authenticates presented tokens.
type AuthService struct {
	issuer      *token.Issuer
	verifier    *token.Verifier
	credential  [sha256.Size]byte
	subject     string
	ttl         time.Duration
	revocations ports.RevocationStore
	clock       ports.Clock
	logger      *slog.Logger
	metrics     statsd.Sink
}

// LoginResult is a freshly issued session token.
type LoginResult struct {
	Token     string
	Claims    token.Claims
	ExpiresIn time.Duration
}

// NewAuthService constructs a new AuthService.
func NewAuthService(opts AuthServiceOptions) (*AuthService, error) {
	cfg := opts.Config
	if cfg.AdminPassword == "" {
		return nil, errors.New("admin password is required")
	}
	if cfg.AdminSubject == "" {
		return nil, errors.New("admin subject is required")
	}
	if cfg.TokenTTL < time.Second {
		return nil, token.ErrInvalidTTL
	}

	clk := opts.Clock
	if clk == nil {
		clk = clock.System{}
	}

	issuer, err := token.NewIssuer(token.IssuerOptions{Secret: cfg.Secret, Now: clk.Now})
	if err != nil {
		return nil, fmt.Errorf("create issuer: %w", err)
	}
	verifier, err := token.NewVerifier(cfg.Secret)
	if err != nil {
		return nil, fmt.Errorf("create verifier: %w", err)
	}

	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &AuthService{
		issuer:      issuer,
		verifier:    verifier,
		credential:  sha256.Sum256([]byte(cfg.AdminPassword)),
		subject:     cfg.AdminSubject,
		ttl:         cfg.TokenTTL,
		revocations: opts.Revocations,
		clock:       clk,
		logger:      logger.With("component", "auth_service"),
		metrics:     opts.Metrics,
	}, nil
}

// TokenTTL returns the lifetime of issued tokens.
func (s *AuthService) TokenTTL() time.Duration { return s.ttl }

// RevocationEnabled reports whether logout revokes tokens server-side.
func (s *AuthService) RevocationEnabled() bool { return s.revocations != nil }

// Login checks password against the reference credential and issues an admin token on a match.
// The comparison runs over fixed-size digests so neither length nor content leaks through timing.
func (s *AuthService) Login(ctx context.Context, password string) (LoginResult, error) {
	start := time.Now()
	presented := sha256.Sum256([]byte(password))

	if subtle.ConstantTimeCompare(presented[:], s.credential[:]) != 1 {
		metrics.EmitLogin(s.metrics, metrics.LoginMetric{Result: metrics.ResultInvalidCredentials, Duration: time.Since(start)})
		s.logger.InfoContext(ctx, "login rejected", "reason", "invalid credentials")
		return LoginResult{}, ErrInvalidCredentials
	}

	issued, err := s.issuer.Issue(s.subject, domainauth.RoleAdmin, s.ttl)
	if err != nil {
		metrics.EmitLogin(s.metrics, metrics.LoginMetric{Result: metrics.ResultError, Duration: time.Since(start)})
		return LoginResult{}, fmt.Errorf("issue token: %w", err)
	}

	metrics.EmitLogin(s.metrics, metrics.LoginMetric{Result: metrics.ResultSuccess, Duration: time.Since(start)})
	s.logger.InfoContext(ctx, "login succeeded", "subject", issued.Claims.Subject, "role", issued.Claims.Role)

	return LoginResult{
		Token:     issued.Token,
		Claims:    issued.Claims,
		ExpiresIn: time.Duration(issued.Claims.ExpiresAt-issued.Claims.IssuedAt) * time.Second,
	}, nil
}

// Authenticate verifies tok and, when revocation is enabled, checks the deny-list.
// Verification failures return the token package's sentinel errors; a revoked token
// returns ErrTokenRevoked. Any other error means the deny-list could not be read.
func (s *AuthService) Authenticate(ctx context.Context, tok string) (token.Claims, error) {
	claims, err := s.verifier.Verify(tok, s.clock.Now())
	if err != nil {
		stage := token.Stage(err)
		metrics.EmitVerify(s.metrics, metrics.VerifyMetric{Result: metrics.ResultDenied, Stage: stage})
		s.logger.DebugContext(ctx, "token rejected", "stage", stage)
		return token.Claims{}, err
	}

	if s.revocations != nil && claims.ID != "" {
		revoked, revErr := s.revocations.IsRevoked(ctx, claims.ID)
		if revErr != nil {
			metrics.EmitVerify(s.metrics, metrics.VerifyMetric{Result: metrics.ResultError, Stage: "revocation"})
			return token.Claims{}, fmt.Errorf("check revocation: %w", revErr)
		}
		if revoked {
			metrics.EmitVerify(s.metrics, metrics.VerifyMetric{Result: metrics.ResultDenied, Stage: "revoked"})
			s.logger.DebugContext(ctx, "token rejected", "stage", "revoked", "subject", claims.Subject)
			return token.Claims{}, ErrTokenRevoked
		}
	}

	metrics.EmitVerify(s.metrics, metrics.VerifyMetric{Result: metrics.ResultAllowed, Stage: token.Stage(nil)})
	return claims, nil
}

// Authorize applies the Access Gate to claims already returned by Authenticate.
func (s *AuthService) Authorize(ctx context.Context, claims token.Claims, class domainaccess.ResourceClass) domainaccess.Decision {
	decision := domainaccess.Authorize(claims, class)
	if !decision.Allowed {
		s.logger.InfoContext(ctx, "access denied",
			"subject", claims.Subject,
			"role", claims.Role,
			"resource_class", class,
		)
	}
	return decision
}

// Logout revokes tok until its natural expiry. Invalid tokens are ignored,
// since they already grant nothing.
func (s *AuthService) Logout(ctx context.Context, tok string) error {
	if s.revocations == nil || tok == "" {
		return nil
	}
	claims, err := s.verifier.Verify(tok, s.clock.Now())
	if err != nil || claims.ID == "" {
		return nil
	}
	if revokeErr := s.revocations.Revoke(ctx, claims.ID, claims.ExpiresAtTime()); revokeErr != nil {
		return fmt.Errorf("revoke token: %w", revokeErr)
	}
	s.logger.InfoContext(ctx, "token revoked", "subject", claims.Subject)
	return nil
}

// IsAuthFailure reports whether err means the presented token must be treated as unauthenticated
// (as opposed to an internal failure).
func IsAuthFailure(err error) bool {
	return token.IsVerificationError(err) || errors.Is(err, ErrTokenRevoked)
}
