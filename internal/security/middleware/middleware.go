package middleware

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/aryan0dhankhar/issuedesk/internal/domain"
	"github.com/aryan0dhankhar/issuedesk/internal/security/auth"
)

type ClaimsContextKey struct{}

// TokenVerifier validates a bearer token, including revocation.
type TokenVerifier interface {
	VerifyToken(ctx context.Context, token string) (*auth.Claims, error)
}

// PublicRoute is a path reachable without a token. An empty Method matches
// every method.
type PublicRoute struct {
	Method string
	Path   string
}

func isPublic(routes []PublicRoute, r *http.Request) bool {
	for _, route := range routes {
		if route.Path == r.URL.Path && (route.Method == "" || route.Method == r.Method) {
			return true
		}
	}
	return false
}

// JWTMiddleware requires a valid, unrevoked bearer token on every route except
// the public ones and stores its claims in the request context.
func JWTMiddleware(verifier TokenVerifier, public []PublicRoute, log *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if isPublic(public, r) {
				next.ServeHTTP(w, r)
				return
			}

			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				writeError(w, http.StatusUnauthorized, "missing auth")
				return
			}

			tokenString, err := auth.ExtractToken(authHeader)
			if err != nil {
				writeError(w, http.StatusUnauthorized, "invalid auth")
				return
			}

			claims, err := verifier.VerifyToken(r.Context(), tokenString)
			if err != nil {
				if domain.KindOf(err) == domain.KindUnauthenticated {
					writeError(w, http.StatusUnauthorized, domain.MessageOf(err))
					return
				}
				log.Error("token verification failed",
					slog.String("path", r.URL.Path),
					slog.String("error", err.Error()),
				)
				writeError(w, http.StatusInternalServerError, "internal server error")
				return
			}

			ctx := context.WithValue(r.Context(), ClaimsContextKey{}, claims)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func GetClaimsFromContext(ctx context.Context) *auth.Claims {
	if c := ctx.Value(ClaimsContextKey{}); c != nil {
		return c.(*auth.Claims)
	}
	return nil
}

// IdentityFromContext returns the authenticated identity, or nil on public
// routes.
func IdentityFromContext(ctx context.Context) *domain.Identity {
	claims := GetClaimsFromContext(ctx)
	if claims == nil {
		return nil
	}
	return claims.Identity()
}

// RequireAdmin admits only callers whose user id is in adminIDs. An empty
// list admits nobody.
func RequireAdmin(adminIDs []int64, log *slog.Logger) func(http.Handler) http.Handler {
	admins := make(map[int64]struct{}, len(adminIDs))
	for _, id := range adminIDs {
		admins[id] = struct{}{}
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			identity := IdentityFromContext(r.Context())
			if identity == nil {
				writeError(w, http.StatusUnauthorized, "missing auth")
				return
			}
			if _, ok := admins[identity.UserID]; !ok {
				log.Warn("admin access denied",
					slog.Int64("user_id", identity.UserID),
					slog.String("path", r.URL.Path),
				)
				writeError(w, http.StatusForbidden, "admin access required")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func writeError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": message})
}
