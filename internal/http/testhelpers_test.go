package httpx

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/target/quizgate/internal/adapters/clock"
	"github.com/target/quizgate/internal/adapters/memory"
	domainaccess "github.com/target/quizgate/internal/domain/access"
	"github.com/target/quizgate/internal/domain/ratelimit"
	"github.com/target/quizgate/internal/domain/token"
	"github.com/target/quizgate/internal/service"
	"github.com/target/quizgate/internal/testutil"
)

const testPassword = "correct horse battery staple"

type testServer struct {
	handler http.Handler
	auth    *service.AuthService
	clock   *clock.Fixed
}

type testServerOptions struct {
	trustProxy bool
	origins    []string
}

// newTestServer wires real services over in-memory stores and a fixed clock.
func newTestServer(t *testing.T, opts testServerOptions) *testServer {
	t.Helper()
	clk := clock.NewFixed(testutil.TestTime())

	auth, err := service.NewAuthService(service.AuthServiceOptions{
		Config: service.AuthServiceConfig{
			AdminPassword: testPassword,
			AdminSubject:  "admin",
			Secret:        []byte(testutil.TestSecret),
			TokenTTL:      30 * time.Minute,
		},
		Revocations: memory.NewRevocationList(clk),
		Clock:       clk,
	})
	require.NoError(t, err)

	limiter, err := service.NewRateLimitService(service.RateLimitServiceOptions{
		Store:  memory.NewRateCounterStore(),
		Config: service.RateLimitServiceConfig{Policies: ratelimit.DefaultPolicies()},
		Clock:  clk,
	})
	require.NoError(t, err)

	h := NewRouter(RouterServices{
		Auth:           auth,
		RateLimit:      limiter,
		AllowedOrigins: opts.origins,
		TrustProxy:     opts.trustProxy,
		Now:            clk.Now,
	})
	return &testServer{handler: h, auth: auth, clock: clk}
}

type requestOptions struct {
	body    any
	headers map[string]string
	cookies []*http.Cookie
	remote  string
}

func (s *testServer) do(t *testing.T, method, path string, opts requestOptions) *httptest.ResponseRecorder {
	t.Helper()
	var body io.Reader
	if opts.body != nil {
		b, err := json.Marshal(opts.body)
		require.NoError(t, err)
		body = bytes.NewReader(b)
	}
	req := httptest.NewRequest(method, path, body)
	if opts.remote != "" {
		req.RemoteAddr = opts.remote
	}
	for k, v := range opts.headers {
		req.Header.Set(k, v)
	}
	for _, c := range opts.cookies {
		req.AddCookie(c)
	}
	rec := httptest.NewRecorder()
	s.handler.ServeHTTP(rec, req)
	return rec
}

func (s *testServer) login(t *testing.T) string {
	t.Helper()
	res, err := s.auth.Login(context.Background(), testPassword)
	require.NoError(t, err)
	return res.Token
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	return out
}

func bearer(tok string) map[string]string {
	return map[string]string{"Authorization": "Bearer " + tok}
}

// stubAuthService is a func-field double for AuthServiceInterface.
type stubAuthService struct {
	loginFunc        func(ctx context.Context, password string) (service.LoginResult, error)
	authenticateFunc func(ctx context.Context, tok string) (token.Claims, error)
	logoutFunc       func(ctx context.Context, tok string) error
}

func (s *stubAuthService) Login(ctx context.Context, password string) (service.LoginResult, error) {
	if s.loginFunc != nil {
		return s.loginFunc(ctx, password)
	}
	return service.LoginResult{}, service.ErrInvalidCredentials
}

func (s *stubAuthService) Authenticate(ctx context.Context, tok string) (token.Claims, error) {
	if s.authenticateFunc != nil {
		return s.authenticateFunc(ctx, tok)
	}
	return token.Claims{}, token.ErrMalformedToken
}

func (s *stubAuthService) Authorize(_ context.Context, claims token.Claims, class domainaccess.ResourceClass) domainaccess.Decision {
	return domainaccess.Authorize(claims, class)
}

func (s *stubAuthService) Logout(ctx context.Context, tok string) error {
	if s.logoutFunc != nil {
		return s.logoutFunc(ctx, tok)
	}
	return nil
}

// stubLimiter is a func-field double for RateLimiterInterface.
type stubLimiter struct {
	checkFunc func(ctx context.Context, identifier string, action ratelimit.Action) (ratelimit.Decision, error)
}

func (s *stubLimiter) CheckAndConsume(ctx context.Context, identifier string, action ratelimit.Action) (ratelimit.Decision, error) {
	return s.checkFunc(ctx, identifier, action)
}
