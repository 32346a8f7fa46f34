package auth

import (
	"context"

	"github.com/google/uuid"

	"github.com/pictolab/pictolab/internal/apperr"
	"github.com/pictolab/pictolab/internal/otp"
)

// AccessCodes reports which one-time codes are currently live for the user
// and how long each has left. The codes themselves stay in the mail that
// delivered them; only purpose and remaining lifetime are exposed.
func (s *Service) AccessCodes(ctx context.Context, userID uuid.UUID) ([]otp.Status, error) {
	live, err := s.codes.Outstanding(ctx, userID.String())
	if err != nil {
		return nil, apperr.Internal(err)
	}
	return live, nil
}
