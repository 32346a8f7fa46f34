package httpapi

import (
	"context"
	"net/http"
	"strings"

	"github.com/pictolab/pictolab/internal/apperr"
	"github.com/pictolab/pictolab/internal/domain"
	"github.com/pictolab/pictolab/internal/token"
)

type contextKey int

const claimsKey contextKey = 0

// claimsFrom returns the verified claims placed by requireAuth.
func claimsFrom(ctx context.Context) *token.Claims {
	claims, _ := ctx.Value(claimsKey).(*token.Claims)
	return claims
}

func bearerToken(r *http.Request) string {
	header := r.Header.Get("Authorization")
	const prefix = "Bearer "
	if len(header) > len(prefix) && strings.EqualFold(header[:len(prefix)], prefix) {
		return header[len(prefix):]
	}
	return ""
}

// requireAuth verifies the bearer token and stores the claims in the request
// context.
func (s *Server) requireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw := bearerToken(r)
		if raw == "" {
			writeError(w, r, s.log, apperr.New(apperr.KindUnauthorized, "missing bearer token"))
			return
		}
		claims, err := s.auth.Authenticate(r.Context(), raw)
		if err != nil {
			writeError(w, r, s.log, err)
			return
		}
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), claimsKey, claims)))
	})
}

// requireAdmin gates a subtree on the Admin role. Must run after requireAuth.
func (s *Server) requireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		claims := claimsFrom(r.Context())
		if claims == nil || claims.Role != domain.RoleAdmin {
			writeError(w, r, s.log, apperr.New(apperr.KindPermissionDenied, "admin role required"))
			return
		}
		next.ServeHTTP(w, r)
	})
}
