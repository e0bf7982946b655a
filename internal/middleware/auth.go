package middleware

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"auth-service/internal/model"
	"auth-service/internal/token"
)

type userResolver interface {
	FindByUsername(ctx context.Context, username string) (model.User, error)
}

type contextKey string

const principalContextKey contextKey = "principal"

// AuthGate is the per-request authentication point. Its Handler runs before
// route dispatch and converts a bearer token into a request-scoped
// Principal. It never rejects by itself: requests with a missing or invalid
// token continue without a principal, and RequirePrincipal/RequireRoles
// produce the user-visible rejection.
type AuthGate struct {
	codec     *token.Codec
	validator *token.Validator
	users     userResolver
}

func NewAuthGate(codec *token.Codec, users userResolver) *AuthGate {
	return &AuthGate{
		codec:     codec,
		validator: token.NewValidator(codec),
		users:     users,
	}
}

func (g *AuthGate) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		bearer, ok := extractBearer(r)
		if !ok {
			next.ServeHTTP(w, r)
			return
		}

		claims, err := g.codec.Parse(bearer)
		if err != nil {
			slog.Debug("bearer token rejected", "reason", err.Error(), "path", r.URL.Path)
			next.ServeHTTP(w, r)
			return
		}

		user, err := g.users.FindByUsername(r.Context(), claims.Subject)
		if err != nil || !g.validator.IsValid(bearer, user.Username) {
			next.ServeHTTP(w, r)
			return
		}

		principal := model.Principal{Username: user.Username, Role: user.Role}
		ctx := context.WithValue(r.Context(), principalContextKey, principal)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// RequirePrincipal rejects requests that reached a protected route without
// an installed principal.
func RequirePrincipal(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, ok := PrincipalFromContext(r.Context()); !ok {
			writeMessage(w, http.StatusUnauthorized, "authentication required")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// RequireRoles additionally restricts a route to the given roles.
func RequireRoles(allowedRoles ...string) func(http.Handler) http.Handler {
	roleSet := map[string]struct{}{}
	for _, role := range allowedRoles {
		roleSet[role] = struct{}{}
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			principal, ok := PrincipalFromContext(r.Context())
			if !ok {
				writeMessage(w, http.StatusUnauthorized, "authentication required")
				return
			}

			if _, allowed := roleSet[principal.Role]; !allowed {
				writeMessage(w, http.StatusForbidden, "insufficient permissions")
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// PrincipalFromContext returns the principal installed by the gate for this
// request, if any.
func PrincipalFromContext(ctx context.Context) (model.Principal, bool) {
	principal, ok := ctx.Value(principalContextKey).(model.Principal)
	return principal, ok
}

func extractBearer(r *http.Request) (string, bool) {
	header := strings.TrimSpace(r.Header.Get("Authorization"))
	if header == "" || !strings.HasPrefix(strings.ToLower(header), "bearer ") {
		return "", false
	}

	bearer := strings.TrimSpace(header[7:])
	return bearer, bearer != ""
}
