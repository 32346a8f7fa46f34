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

const twoFactorMessage = "A login code has been sent to your email."

// Login verifies the password and either issues a token pair or, for
// accounts with a second factor enabled, stores a login code and answers
// with a challenge. Unknown emails and wrong passwords are indistinguishable
// to the caller.
func (s *Service) Login(ctx context.Context, email, plainPassword string) (*LoginResult, error) {
	user, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		return nil, apperr.Internal(err)
	}
	if user == nil {
		// Burn a verify against a throwaway hash so the miss costs the
		// same as a wrong password.
		_, _ = s.hasher.Verify(plainPassword, s.dummyHash)
		s.metrics.Inc(metrics.LoginFailure)
		s.emit(audit.EventLogin, "", email, false, errors.New("unknown email"))
		return nil, apperr.New(apperr.KindUnauthorized, "invalid email or password")
	}

	ok, err := s.hasher.Verify(plainPassword, user.PasswordHash)
	if err != nil {
		return nil, apperr.Internal(err)
	}
	if !ok {
		s.metrics.Inc(metrics.LoginFailure)
		s.emit(audit.EventLogin, user.ID.String(), email, false, errors.New("bad password"))
		return nil, apperr.New(apperr.KindUnauthorized, "invalid email or password")
	}

	if !user.IsActive {
		s.emit(audit.EventLogin, user.ID.String(), email, false, errors.New("inactive account"))
		return nil, apperr.New(apperr.KindUserNotActive, "account is not activated")
	}

	if user.Is2FA {
		code, err := s.codes.Issue(ctx, otp.PurposeTwoFactor, user.ID.String(), s.cfg.TwoFactorTTL)
		if err != nil {
			return nil, apperr.Internal(err)
		}
		s.metrics.Inc(metrics.CodeIssued)
		s.metrics.Inc(metrics.TwoFactorRequired)
		s.dispatchCode(ctx, user, mail.TemplateTwoFactor, code, s.cfg.TwoFactorTTL)
		s.emit(audit.EventLogin, user.ID.String(), email, true, nil)
		return &LoginResult{Challenge: &CodeChallenge{
			Message:  twoFactorMessage,
			ExpireIn: uint64(s.cfg.TwoFactorTTL.Seconds()),
		}}, nil
	}

	pair, err := s.issuePair(ctx, user)
	if err != nil {
		return nil, apperr.Internal(err)
	}
	s.metrics.Inc(metrics.LoginSuccess)
	s.emit(audit.EventLogin, user.ID.String(), email, true, nil)
	return &LoginResult{Pair: pair}, nil
}

// Login2FA completes a challenged login by consuming the stored login code.
func (s *Service) Login2FA(ctx context.Context, userID uuid.UUID, code string) (*TokenPair, error) {
	ok, err := s.codes.Consume(ctx, otp.PurposeTwoFactor, userID.String(), code)
	if err != nil {
		return nil, apperr.Internal(err)
	}
	if !ok {
		s.metrics.Inc(metrics.CodeRejected)
		s.metrics.Inc(metrics.TwoFactorFailure)
		s.emit(audit.EventTwoFactor, userID.String(), "", false, errors.New("code rejected"))
		return nil, apperr.New(apperr.KindUnauthorized, "invalid or expired code")
	}
	s.metrics.Inc(metrics.CodeConsumed)

	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		return nil, apperr.Internal(err)
	}
	if user == nil || !user.IsActive {
		s.emit(audit.EventTwoFactor, userID.String(), "", false, errors.New("account unavailable"))
		return nil, apperr.New(apperr.KindUnauthorized, "invalid or expired code")
	}

	pair, err := s.issuePair(ctx, user)
	if err != nil {
		return nil, apperr.Internal(err)
	}
	s.metrics.Inc(metrics.TwoFactorSuccess)
	s.emit(audit.EventTwoFactor, user.ID.String(), user.Email, true, nil)
	return pair, nil
}
