package httpx

import (
	"net"
	"net/http"
	"strings"

	domainaccess "github.com/target/quizgate/internal/domain/access"
)

// AuthCookieName is the cookie carrying the session token.
const AuthCookieName = "authToken"

// ClientIP returns the caller's address. With trustProxy it prefers the first
// X-Forwarded-For hop, which is only safe behind a proxy that overwrites the header.
func ClientIP(r *http.Request, trustProxy bool) string {
	if trustProxy {
		if xff := strings.TrimSpace(r.Header.Get("X-Forwarded-For")); xff != "" {
			first, _, _ := strings.Cut(xff, ",")
			if ip := strings.TrimSpace(first); ip != "" {
				return ip
			}
		}
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err == nil && host != "" {
		return host
	}
	return r.RemoteAddr
}

// TokenFromRequest extracts the session token. A Bearer Authorization header
// wins over the auth cookie. Returns "" when neither is present.
func TokenFromRequest(r *http.Request) string {
	if h := strings.TrimSpace(r.Header.Get("Authorization")); h != "" {
		scheme, value, ok := strings.Cut(h, " ")
		if ok && strings.EqualFold(scheme, "Bearer") {
			if tok := strings.TrimSpace(value); tok != "" {
				return tok
			}
		}
	}
	if c, err := r.Cookie(AuthCookieName); err == nil && c.Value != "" {
		return c.Value
	}
	return ""
}

// forwardedPath returns the original path a forward-auth proxy passed in
// X-Forwarded-Uri or X-Original-URI, or "" when neither is set.
func forwardedPath(r *http.Request) string {
	for _, h := range []string{"X-Forwarded-Uri", "X-Original-URI"} {
		if v := strings.TrimSpace(r.Header.Get(h)); v != "" {
			path, _, _ := strings.Cut(v, "?")
			return path
		}
	}
	return ""
}

// requestedClass returns the resource class the caller is asking about. The
// request's own path always counts; a forwarded path only counts with trustProxy
// and can only make the class stricter.
func requestedClass(r *http.Request, trustProxy bool) domainaccess.ResourceClass {
	class := domainaccess.ClassForPath(r.URL.Path)
	if class == domainaccess.ResourceAdmin || !trustProxy {
		return class
	}
	if fwd := forwardedPath(r); fwd != "" {
		return domainaccess.ClassForPath(fwd)
	}
	return class
}
