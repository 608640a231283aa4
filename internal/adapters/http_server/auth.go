package httpserver

import (
	"context"
	"net/http"
	"strings"

	"hotel_booking/internal/domain"
)

// TokenVerifier turns a bearer token into the caller's identity.
type TokenVerifier interface {
	Verify(token string) (domain.Principal, error)
}

type principalKey struct{}

func WithPrincipal(ctx context.Context, p domain.Principal) context.Context {
	return context.WithValue(ctx, principalKey{}, p)
}

func PrincipalFrom(ctx context.Context) (domain.Principal, bool) {
	p, ok := ctx.Value(principalKey{}).(domain.Principal)
	return p, ok
}

// Authenticate rejects requests without a valid "Authorization: Bearer" token.
func Authenticate(v TokenVerifier) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			h := r.Header.Get("Authorization")
			scheme, token, ok := strings.Cut(h, " ")
			if !ok || !strings.EqualFold(scheme, "Bearer") || strings.TrimSpace(token) == "" {
				w.Header().Set("WWW-Authenticate", `Bearer realm="hotel"`)
				writeProblem(w, http.StatusUnauthorized, "Unauthorized", "missing bearer token")
				return
			}
			p, err := v.Verify(strings.TrimSpace(token))
			if err != nil {
				w.Header().Set("WWW-Authenticate", `Bearer realm="hotel", error="invalid_token"`)
				writeProblem(w, http.StatusUnauthorized, "Unauthorized", err.Error())
				return
			}
			if ri := infoFrom(r.Context()); ri != nil {
				ri.userID = p.UserID
			}
			next.ServeHTTP(w, r.WithContext(WithPrincipal(r.Context(), p)))
		})
	}
}

// Allow guards a route by action. Must run after Authenticate.
func Allow(a domain.Action) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			p, ok := PrincipalFrom(r.Context())
			if !ok {
				writeProblem(w, http.StatusUnauthorized, "Unauthorized", "missing principal")
				return
			}
			if !p.Role.Can(a) {
				writeProblem(w, http.StatusForbidden, "Forbidden", "role "+string(p.Role)+" may not perform this action")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
