package main

import (
	"crypto/rand"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/target/quizgate/config"
	domainauth "github.com/target/quizgate/internal/domain/auth"
	"github.com/target/quizgate/internal/domain/token"
)

const defaultSecretBytes = 48

type issueOptions struct {
	Subject string
	Role    domainauth.Role
	TTL     time.Duration
}

func parseIssueFlags(args []string, cfg config.AuthConfig) (issueOptions, error) {
	fs := flag.NewFlagSet("issue-token", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)

	var roleStr string
	opts := issueOptions{}
	fs.StringVar(&opts.Subject, "subject", cfg.AdminSubject, "Subject placed in the sub claim")
	fs.StringVar(&roleStr, "role", string(domainauth.RoleAdmin), "Role claim (admin, user, guest)")
	fs.DurationVar(&opts.TTL, "ttl", cfg.TokenTTL, "Token lifetime")

	if err := fs.Parse(args); err != nil {
		return issueOptions{}, err
	}

	role, err := domainauth.ParseRole(roleStr)
	if err != nil {
		return issueOptions{}, err
	}
	opts.Role = role
	opts.Subject = strings.TrimSpace(opts.Subject)
	if opts.Subject == "" {
		return issueOptions{}, errors.New("--subject is required")
	}
	return opts, nil
}

func runIssueToken(cmdCtx *commandContext, args []string) error {
	opts, err := parseIssueFlags(args, cmdCtx.Config.Auth)
	if err != nil {
		return err
	}

	issuer, err := token.NewIssuer(token.IssuerOptions{Secret: []byte(cmdCtx.Config.Auth.JWTSecret)})
	if err != nil {
		return fmt.Errorf("create issuer: %w", err)
	}
	issued, err := issuer.Issue(opts.Subject, opts.Role, opts.TTL)
	if err != nil {
		return fmt.Errorf("issue token: %w", err)
	}

	cmdCtx.Logger.Info("issued token",
		"subject", issued.Claims.Subject,
		"role", issued.Claims.Role,
		"jti", issued.Claims.ID,
		"expires_at", issued.Claims.ExpiresAtTime().Format(time.RFC3339))
	return writeln(cmdCtx.Out, issued.Token)
}

type inspectOptions struct {
	Token string
	Now   time.Time
}

func parseInspectFlags(args []string) (inspectOptions, error) {
	fs := flag.NewFlagSet("inspect-token", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)

	var tok, nowStr string
	fs.StringVar(&tok, "token", "", "Token to verify")
	fs.StringVar(&nowStr, "now", "", "Evaluate expiry at this RFC3339 time instead of the current time")

	if err := fs.Parse(args); err != nil {
		return inspectOptions{}, err
	}

	opts := inspectOptions{Token: strings.TrimSpace(tok), Now: time.Now()}
	if opts.Token == "" {
		return inspectOptions{}, errors.New("--token is required")
	}
	if nowStr != "" {
		now, err := time.Parse(time.RFC3339, nowStr)
		if err != nil {
			return inspectOptions{}, fmt.Errorf("--now: %w", err)
		}
		opts.Now = now
	}
	return opts, nil
}

type inspectOutput struct {
	Valid     bool          `json:"valid"`
	Stage     string        `json:"stage"`
	Claims    *token.Claims `json:"claims,omitempty"`
	IssuedAt  string        `json:"issuedAt,omitempty"`
	ExpiresAt string        `json:"expiresAt,omitempty"`
	Remaining string        `json:"remaining,omitempty"`
}

func runInspectToken(cmdCtx *commandContext, args []string) error {
	opts, err := parseInspectFlags(args)
	if err != nil {
		return err
	}

	claims, verifyErr := token.Verify(opts.Token, []byte(cmdCtx.Config.Auth.JWTSecret), opts.Now)
	out := inspectOutput{Valid: verifyErr == nil, Stage: token.Stage(verifyErr)}
	if verifyErr == nil {
		out.Claims = &claims
		out.IssuedAt = claims.IssuedAtTime().Format(time.RFC3339)
		out.ExpiresAt = claims.ExpiresAtTime().Format(time.RFC3339)
		out.Remaining = claims.RemainingAt(opts.Now).String()
	}

	enc := json.NewEncoder(cmdCtx.Out)
	enc.SetIndent("", "  ")
	if err := enc.Encode(out); err != nil {
		return fmt.Errorf("write output: %w", err)
	}
	if verifyErr != nil {
		return fmt.Errorf("token rejected: %w", verifyErr)
	}
	return nil
}

func parseGenSecretFlags(args []string) (int, error) {
	fs := flag.NewFlagSet("gen-secret", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)

	n := fs.Int("bytes", defaultSecretBytes, "Number of random bytes before encoding")
	if err := fs.Parse(args); err != nil {
		return 0, err
	}
	if *n < config.MinSecretBytes {
		return 0, fmt.Errorf("--bytes must be at least %d", config.MinSecretBytes)
	}
	return *n, nil
}

func runGenSecret(cmdCtx *commandContext, args []string) error {
	n, err := parseGenSecretFlags(args)
	if err != nil {
		return err
	}
	buf := make([]byte, n)
	if _, err = rand.Read(buf); err != nil {
		return fmt.Errorf("read random bytes: %w", err)
	}
	return writeln(cmdCtx.Out, token.Encode(buf))
}
