package auth

import (
	"context"
	"errors"

	"github.com/pictolab/pictolab/internal/apperr"
	"github.com/pictolab/pictolab/internal/token"
)

// Authenticate validates a raw access token against the signature, the jti
// denylist, and the per-user revocation marker. Tokens issued before a
// revoke-all are rejected even though their signature still verifies.
func (s *Service) Authenticate(ctx context.Context, raw string) (*token.Claims, error) {
	claims, err := s.tokens.ParseAccess(raw)
	switch {
	case err == nil:
	case errors.Is(err, token.ErrTokenExpired):
		return nil, apperr.New(apperr.KindUnauthorized, "token expired")
	default:
		return nil, apperr.New(apperr.KindUnauthorized, "invalid token")
	}

	denied, err := s.sessions.IsDenylisted(ctx, claims.ID)
	if err != nil {
		return nil, apperr.Internal(err)
	}
	if denied {
		return nil, apperr.New(apperr.KindUnauthorized, "token revoked")
	}

	userID, err := claims.UserID()
	if err != nil {
		return nil, apperr.New(apperr.KindUnauthorized, "invalid token")
	}
	revokedAt, revoked, err := s.sessions.RevokedSince(ctx, userID.String())
	if err != nil {
		return nil, apperr.Internal(err)
	}
	if revoked && !claims.IssuedTime().After(revokedAt) {
		return nil, apperr.New(apperr.KindUnauthorized, "token revoked")
	}

	return claims, nil
}
