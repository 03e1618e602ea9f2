// Package auth implements the single shared-token admin login: the token is
// posted once, then carried in an HttpOnly cookie.
package auth

import (
	"crypto/subtle"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const (
	CookieName = "admin_auth"
	CookieTTL  = 30 * 24 * time.Hour

	// LoginPage is where unauthenticated admin requests are sent.
	LoginPage = "/add-book/"
)

// ValidateToken compares provided against expected in constant time. An
// unset expected token rejects everything.
func ValidateToken(expected, provided string) bool {
	if expected == "" {
		slog.Error("admin token is not configured")
		return false
	}
	if provided == "" || len(provided) != len(expected) {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(expected), []byte(provided)) == 1
}

// ParseCookies splits a Cookie header into name/value pairs. Values are
// URL-decoded; pairs with an empty name or value are dropped.
func ParseCookies(header string) map[string]string {
	out := map[string]string{}
	for _, part := range strings.Split(header, ";") {
		name, value, _ := strings.Cut(part, "=")
		name, value = strings.TrimSpace(name), strings.TrimSpace(value)
		if name == "" || value == "" {
			continue
		}
		if dec, err := url.QueryUnescape(value); err == nil {
			value = dec
		}
		out[name] = value
	}
	return out
}

// IsAuthenticated reports whether r carries a valid auth cookie.
func IsAuthenticated(r *http.Request, expected string) bool {
	token := ParseCookies(strings.Join(r.Header.Values("Cookie"), ";"))[CookieName]
	if token == "" {
		return false
	}
	return ValidateToken(expected, token)
}

// NewAuthCookie stores token for 30 days.
func NewAuthCookie(token string) *http.Cookie {
	return &http.Cookie{
		Name:     CookieName,
		Value:    url.QueryEscape(token),
		Path:     "/",
		MaxAge:   int(CookieTTL / time.Second),
		HttpOnly: true,
		Secure:   true,
		SameSite: http.SameSiteStrictMode,
	}
}

// ClearAuthCookie expires the auth cookie.
func ClearAuthCookie() *http.Cookie {
	return &http.Cookie{
		Name:     CookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   true,
		SameSite: http.SameSiteStrictMode,
	}
}

// RequireAuth redirects requests without a valid cookie back to the login
// page.
func RequireAuth(expected string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !IsAuthenticated(r, expected) {
				http.Redirect(w, r, LoginPage+"?auth=failed&error=expired", http.StatusFound)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
