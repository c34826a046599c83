package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/ayo6706/banking-ledger/internal/api/problem"
	"github.com/ayo6706/banking-ledger/internal/auth"
)

type contextKey string

const (
	identityContextKey contextKey = "identity"
	traceContextKey    contextKey = "trace_id"
)

// TokenVerifier validates a bearer token and returns who it was issued to.
type TokenVerifier interface {
	Verify(token string) (auth.Identity, error)
}

// Authenticate validates the bearer token and injects the identity into the context.
func Authenticate(verifier TokenVerifier) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				problem.Respond(w, r, http.StatusUnauthorized, "auth/authorization-header-required", "Access token required")
				return
			}

			tokenString := strings.TrimPrefix(authHeader, "Bearer ")
			if tokenString == authHeader || strings.TrimSpace(tokenString) == "" {
				problem.Respond(w, r, http.StatusUnauthorized, "auth/invalid-token-format", "Invalid token format")
				return
			}

			id, err := verifier.Verify(tokenString)
			if err != nil {
				problem.Respond(w, r, http.StatusUnauthorized, "auth/invalid-token", "Invalid token")
				return
			}
			recordCaller(r.Context(), id.UserID)
			next.ServeHTTP(w, r.WithContext(ContextWithIdentity(r.Context(), id)))
		})
	}
}

// RequireRole ensures the authenticated caller has the required role.
func RequireRole(requiredRole string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if IdentityFromContext(r.Context()).Role != requiredRole {
				problem.Respond(w, r, http.StatusForbidden, "auth/insufficient-permissions", "Admin access required")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func ContextWithIdentity(ctx context.Context, id auth.Identity) context.Context {
	return context.WithValue(ctx, identityContextKey, id)
}

// IdentityFromContext returns the authenticated caller, or the zero Identity.
func IdentityFromContext(ctx context.Context) auth.Identity {
	if ctx == nil {
		return auth.Identity{}
	}
	if v, ok := ctx.Value(identityContextKey).(auth.Identity); ok {
		return v
	}
	return auth.Identity{}
}

// UserIDFromContext returns the authenticated user ID.
func UserIDFromContext(ctx context.Context) string {
	return IdentityFromContext(ctx).UserID
}

// TraceIDFromContext returns the trace id for the request.
func TraceIDFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	if v, ok := ctx.Value(traceContextKey).(string); ok {
		return v
	}
	return ""
}
