package handler

import (
	"context"
	"net"
	"net/http"
	"strings"

	"github.com/msomdec/design-catalog/internal/domain"
	"github.com/msomdec/design-catalog/internal/service"
)

type contextKey string

const adminContextKey contextKey = "admin"

const authCookie = "auth_token"

// AdminFromContext extracts the authenticated admin from the request context.
// Returns nil if no admin is authenticated.
func AdminFromContext(ctx context.Context) *domain.Admin {
	admin, _ := ctx.Value(adminContextKey).(*domain.Admin)
	return admin
}

// RequireAdmin rejects requests without a valid admin token. The token is
// read from the Authorization bearer header, then the auth_token cookie.
func RequireAdmin(auth *service.AuthService, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		admin, err := authenticateRequest(r, auth)
		if err != nil {
			writeError(w, http.StatusUnauthorized, "Unauthorized.")
			return
		}

		ctx := context.WithValue(r.Context(), adminContextKey, admin)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// OptionalAdmin injects the admin when a valid token is present and lets
// anonymous requests through.
func OptionalAdmin(auth *service.AuthService, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if admin, err := authenticateRequest(r, auth); err == nil {
			r = r.WithContext(context.WithValue(r.Context(), adminContextKey, admin))
		}
		next.ServeHTTP(w, r)
	})
}

func authenticateRequest(r *http.Request, auth *service.AuthService) (*domain.Admin, error) {
	token := bearerToken(r)
	if token == "" {
		cookie, err := r.Cookie(authCookie)
		if err != nil {
			return nil, err
		}
		token = cookie.Value
	}

	adminID, err := auth.ValidateToken(token)
	if err != nil {
		return nil, err
	}
	return auth.GetAdminByID(r.Context(), adminID)
}

func bearerToken(r *http.Request) string {
	h := r.Header.Get("Authorization")
	if len(h) > 7 && strings.EqualFold(h[:7], "bearer ") {
		return strings.TrimSpace(h[7:])
	}
	return ""
}

// RateLimit answers 429 once the client IP has exhausted its bucket.
func RateLimit(limiter *service.TokenBucket, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !limiter.Allow(clientIP(r)) {
			w.Header().Set("Retry-After", "60")
			writeError(w, http.StatusTooManyRequests, "Too many attempts. Please wait a minute and try again.")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

// SecurityHeaders sets conservative response headers on every response.
func SecurityHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h := w.Header()
		h.Set("X-Content-Type-Options", "nosniff")
		h.Set("X-Frame-Options", "DENY")
		h.Set("Referrer-Policy", "strict-origin-when-cross-origin")
		next.ServeHTTP(w, r)
	})
}

