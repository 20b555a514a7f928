package ratelimit

// Package ratelimit defines fixed-window attempt limiting per (identifier, action).
// The window arithmetic lives here as a pure function; stores only make it atomic.

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// Action is the class of attempt being limited.
type Action string

const (
	ActionLogin   Action = "login"
	ActionPayment Action = "payment"
	ActionDefault Action = "default"

	// ActionLoginGate counts the server-side login attempts. It is governed by the
	// login policy but keeps its own counters, and ParseAction never yields it.
	ActionLoginGate Action = "login_gate"
)

// PolicyAction returns the action whose policy governs a.
func (a Action) PolicyAction() Action {
	if a == ActionLoginGate {
		return ActionLogin
	}
	return a
}

// ParseAction maps a raw action name to an Action. Unknown names use the default policy.
func ParseAction(s string) Action {
	switch a := Action(strings.ToLower(strings.TrimSpace(s))); a {
	case ActionLogin, ActionPayment:
		return a
	default:
		return ActionDefault
	}
}

// Policy bounds attempts to Max per Window.
type Policy struct {
	Max    int
	Window time.Duration
}

// Validate reports whether the policy can be enforced.
func (p Policy) Validate() error {
	if p.Max < 1 {
		return fmt.Errorf("max must be at least 1, got %d", p.Max)
	}
	if p.Window < time.Second {
		return fmt.Errorf("window must be at least 1s, got %s", p.Window)
	}
	return nil
}

// Policies maps each action to its policy.
type Policies map[Action]Policy

// DefaultPolicies returns the stock limits: login 5/15m, payment 10/1h, default 20/1h.
func DefaultPolicies() Policies {
	return Policies{
		ActionLogin:   {Max: 5, Window: 15 * time.Minute},
		ActionPayment: {Max: 10, Window: time.Hour},
		ActionDefault: {Max: 20, Window: time.Hour},
	}
}

// For returns the policy governing a, falling back to the default action's policy.
func (p Policies) For(a Action) Policy {
	if pol, ok := p[a.PolicyAction()]; ok {
		return pol
	}
	return p[ActionDefault]
}

// Validate checks every configured policy and requires a default.
func (p Policies) Validate() error {
	if _, ok := p[ActionDefault]; !ok {
		return errors.New("a default rate limit policy is required")
	}
	for a, pol := range p {
		if err := pol.Validate(); err != nil {
			return fmt.Errorf("rate limit policy %q: %w", a, err)
		}
	}
	return nil
}

// Counter is the state kept per (identifier, action).
type Counter struct {
	Count       int
	WindowStart time.Time
}

// Decision is the outcome of one check-and-consume.
type Decision struct {
	Allowed   bool
	Remaining int
	ResetAt   time.Time
}

// RetryAfter returns how long a denied caller should wait, rounded up to whole seconds.
func (d Decision) RetryAfter(now time.Time) time.Duration {
	wait := d.ResetAt.Sub(now)
	if wait <= 0 {
		return 0
	}
	return (wait + time.Second - 1) / time.Second * time.Second
}

// Step applies one attempt at now to c under p and returns the new counter.
// A denied attempt does not increment the count.
func Step(c Counter, p Policy, now time.Time) (Counter, Decision) {
	if c.WindowStart.IsZero() || now.Sub(c.WindowStart) >= p.Window {
		c = Counter{WindowStart: now}
	}
	resetAt := c.WindowStart.Add(p.Window)

	if c.Count >= p.Max {
		return c, Decision{Allowed: false, Remaining: 0, ResetAt: resetAt}
	}

	c.Count++
	return c, Decision{Allowed: true, Remaining: p.Max - c.Count, ResetAt: resetAt}
}

// Expired reports whether c's window has fully elapsed at now under window.
func (c Counter) Expired(now time.Time, window time.Duration) bool {
	return now.Sub(c.WindowStart) >= window
}

// Key builds the store key for an identifier and action.
func Key(identifier string, a Action) string {
	return string(a) + ":" + identifier
}

// FailurePolicy decides the outcome when the counter store cannot be consulted.
type FailurePolicy string

const (
	// FailClosed denies the attempt. It is the default.
	FailClosed FailurePolicy = "closed"
	// FailOpen allows the attempt without counting it.
	FailOpen FailurePolicy = "open"
)

// UnmarshalText implements encoding.TextUnmarshaler for FailurePolicy.
func (f *FailurePolicy) UnmarshalText(text []byte) error {
	switch v := FailurePolicy(strings.ToLower(strings.TrimSpace(string(text)))); v {
	case FailClosed, FailOpen:
		*f = v
		return nil
	default:
		return fmt.Errorf("invalid failure policy: %q (valid options: closed, open)", string(text))
	}
}

// Fallback returns the decision to use for p at now when the store failed.
func (f FailurePolicy) Fallback(p Policy, now time.Time) Decision {
	if f == FailOpen {
		return Decision{Allowed: true, Remaining: p.Max, ResetAt: now.Add(p.Window)}
	}
	return Decision{Allowed: false, Remaining: 0, ResetAt: now.Add(p.Window)}
}
