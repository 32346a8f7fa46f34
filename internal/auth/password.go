package auth

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"github.com/pictolab/pictolab/internal/apperr"
	"github.com/pictolab/pictolab/internal/audit"
	"github.com/pictolab/pictolab/internal/mail"
	"github.com/pictolab/pictolab/internal/metrics"
	"github.com/pictolab/pictolab/internal/otp"
)

const resetMessage = "If that email is registered, a reset code has been sent."

// ForgetPassword starts a password reset. The response is identical whether
// or not the email is registered, so the endpoint cannot be used to probe
// for accounts.
func (s *Service) ForgetPassword(ctx context.Context, email string) (*CodeChallenge, error) {
	challenge := &CodeChallenge{
		Message:  resetMessage,
		ExpireIn: uint64(s.cfg.ResetTTL.Seconds()),
	}

	user, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		return nil, apperr.Internal(err)
	}
	if user == nil {
		s.emit(audit.EventPasswordForget, "", email, true, nil)
		return challenge, nil
	}

	code, err := s.codes.Issue(ctx, otp.PurposePasswordReset, user.ID.String(), s.cfg.ResetTTL)
	if err != nil {
		return nil, apperr.Internal(err)
	}
	s.metrics.Inc(metrics.CodeIssued)
	s.metrics.Inc(metrics.PasswordResetRequest)
	s.dispatchCode(ctx, user, mail.TemplatePasswordReset, code, s.cfg.ResetTTL)

	s.emit(audit.EventPasswordForget, user.ID.String(), email, true, nil)
	return challenge, nil
}

// ResetPassword consumes the reset code, installs the new password hash, and
// revokes every live session so stolen tokens die with the old password.
func (s *Service) ResetPassword(ctx context.Context, userID uuid.UUID, code, newPassword string) error {
	ok, err := s.codes.Consume(ctx, otp.PurposePasswordReset, userID.String(), code)
	if err != nil {
		return apperr.Internal(err)
	}
	if !ok {
		s.metrics.Inc(metrics.CodeRejected)
		s.metrics.Inc(metrics.PasswordResetFailure)
		s.emit(audit.EventPasswordReset, userID.String(), "", false, errors.New("code rejected"))
		return apperr.New(apperr.KindBadRequest, "invalid or expired reset code")
	}
	s.metrics.Inc(metrics.CodeConsumed)

	hash, err := s.hasher.Hash(newPassword)
	if err != nil {
		return apperr.Internal(err)
	}
	if err := s.users.UpdatePasswordHash(ctx, userID, hash); err != nil {
		return apperr.Internal(err)
	}

	if err := s.sessions.RevokeAll(ctx, userID.String()); err != nil {
		return apperr.Internal(err)
	}
	s.metrics.Inc(metrics.SessionsRevoked)

	s.metrics.Inc(metrics.PasswordResetSuccess)
	s.emit(audit.EventPasswordReset, userID.String(), "", true, nil)
	return nil
}
