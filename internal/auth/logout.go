package auth

import (
	"context"
	"time"

	"github.com/pictolab/pictolab/internal/apperr"
	"github.com/pictolab/pictolab/internal/audit"
	"github.com/pictolab/pictolab/internal/metrics"
	"github.com/pictolab/pictolab/internal/token"
)

// Logout revokes every session of the authenticated user and denylists the
// presented access token for its remaining lifetime. Calling it twice is
// harmless.
func (s *Service) Logout(ctx context.Context, claims *token.Claims) error {
	userID, err := claims.UserID()
	if err != nil {
		return apperr.Internal(err)
	}

	if err := s.sessions.RevokeAll(ctx, userID.String()); err != nil {
		return apperr.Internal(err)
	}

	if claims.ID != "" && claims.ExpiresAt != nil {
		if remaining := time.Until(claims.ExpiresAt.Time); remaining > 0 {
			if err := s.sessions.DenylistAccess(ctx, claims.ID, remaining); err != nil {
				return apperr.Internal(err)
			}
		}
	}

	s.metrics.Inc(metrics.Logout)
	s.metrics.Inc(metrics.SessionsRevoked)
	s.emit(audit.EventLogout, userID.String(), "", true, nil)
	return nil
}
