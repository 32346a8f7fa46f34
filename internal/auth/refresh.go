package auth

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"github.com/pictolab/pictolab/internal/apperr"
	"github.com/pictolab/pictolab/internal/audit"
	"github.com/pictolab/pictolab/internal/metrics"
	"github.com/pictolab/pictolab/internal/session"
)

// Refresh rotates a refresh token and mints a fresh access token. Presenting
// a token that was already rotated is treated as theft evidence: every
// session of the attributed user is revoked before the caller is rejected.
// Missing and reused tokens produce the same error shape.
func (s *Service) Refresh(ctx context.Context, refreshToken string) (*TokenPair, error) {
	userID, newToken, err := s.sessions.Rotate(ctx, refreshToken)
	switch {
	case err == nil:
	case errors.Is(err, session.ErrReuseDetected):
		s.metrics.Inc(metrics.RefreshReuseDetected)
		if userID != "" {
			if revokeErr := s.sessions.RevokeAll(ctx, userID); revokeErr != nil {
				s.log.Error("revoke after reuse failed", "userId", userID, "error", revokeErr)
			}
			s.metrics.Inc(metrics.SessionsRevoked)
			s.emit(audit.EventRefreshReuse, userID, "", false, err)
		}
		return nil, apperr.New(apperr.KindInvalidSession, "session is no longer valid")
	case errors.Is(err, session.ErrRefreshNotFound):
		s.metrics.Inc(metrics.RefreshFailure)
		return nil, apperr.New(apperr.KindInvalidSession, "session is no longer valid")
	default:
		return nil, apperr.Internal(err)
	}

	uid, err := uuid.Parse(userID)
	if err != nil {
		return nil, apperr.Internal(err)
	}
	user, err := s.users.FindByID(ctx, uid)
	if err != nil {
		return nil, apperr.Internal(err)
	}
	if user == nil || !user.IsActive {
		// Account deleted or deactivated since the session started; the
		// chain must not outlive it.
		if revokeErr := s.sessions.RevokeAll(ctx, userID); revokeErr != nil {
			s.log.Error("revoke stale chain failed", "userId", userID, "error", revokeErr)
		}
		return nil, apperr.New(apperr.KindInvalidSession, "session is no longer valid")
	}

	access, _, err := s.tokens.IssueAccess(user.ID, user.Role)
	if err != nil {
		return nil, apperr.Internal(err)
	}

	s.metrics.Inc(metrics.RefreshSuccess)
	s.emit(audit.EventRefresh, userID, "", true, nil)
	return &TokenPair{
		TokenType:    TokenType,
		AccessToken:  access,
		RefreshToken: newToken,
		ExpireIn:     uint64(s.tokens.AccessTTL().Seconds()),
	}, nil
}
