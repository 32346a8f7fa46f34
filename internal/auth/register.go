package auth

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/pictolab/pictolab/internal/apperr"
	"github.com/pictolab/pictolab/internal/audit"
	"github.com/pictolab/pictolab/internal/domain"
	"github.com/pictolab/pictolab/internal/mail"
	"github.com/pictolab/pictolab/internal/metrics"
	"github.com/pictolab/pictolab/internal/otp"
)

// Register creates an inactive account and emails an activation code. The
// returned ID identifies the pending account for the activation call.
func (s *Service) Register(ctx context.Context, username, email, plainPassword string) (uuid.UUID, error) {
	if existing, err := s.users.FindByUsername(ctx, username); err != nil {
		return uuid.Nil, apperr.Internal(err)
	} else if existing != nil {
		s.metrics.Inc(metrics.RegisterDuplicate)
		return uuid.Nil, apperr.New(apperr.KindResourceExists, "username already taken")
	}
	if existing, err := s.users.FindByEmail(ctx, email); err != nil {
		return uuid.Nil, apperr.Internal(err)
	} else if existing != nil {
		s.metrics.Inc(metrics.RegisterDuplicate)
		return uuid.Nil, apperr.New(apperr.KindResourceExists, "email already taken")
	}

	hash, err := s.hasher.Hash(plainPassword)
	if err != nil {
		return uuid.Nil, apperr.Internal(err)
	}

	user := &domain.User{
		ID:           uuid.New(),
		Username:     username,
		Email:        email,
		PasswordHash: hash,
		Role:         domain.RoleUser,
		IsActive:     false,
	}
	if err := s.users.Create(ctx, user); err != nil {
		// The pre-checks race against concurrent registrations; the unique
		// constraints are the source of truth.
		if errors.Is(err, domain.ErrUserExists) {
			s.metrics.Inc(metrics.RegisterDuplicate)
			return uuid.Nil, apperr.New(apperr.KindResourceExists, "username or email already taken")
		}
		return uuid.Nil, apperr.Internal(err)
	}

	code, err := s.codes.Issue(ctx, otp.PurposeActivation, user.ID.String(), s.cfg.ActivationTTL)
	if err != nil {
		return uuid.Nil, apperr.Internal(fmt.Errorf("issue activation code: %w", err))
	}
	s.metrics.Inc(metrics.CodeIssued)
	s.dispatchCode(ctx, user, mail.TemplateActivation, code, s.cfg.ActivationTTL)

	s.metrics.Inc(metrics.RegisterSuccess)
	s.emit(audit.EventRegister, user.ID.String(), user.Email, true, nil)
	return user.ID, nil
}

// Activate consumes the activation code and marks the account active.
// Activating an already-active account with a fresh code is a no-op success.
func (s *Service) Activate(ctx context.Context, userID uuid.UUID, code string) error {
	ok, err := s.codes.Consume(ctx, otp.PurposeActivation, userID.String(), code)
	if err != nil {
		return apperr.Internal(err)
	}
	if !ok {
		s.metrics.Inc(metrics.CodeRejected)
		s.metrics.Inc(metrics.ActivateFailure)
		s.emit(audit.EventActivate, userID.String(), "", false, errors.New("code rejected"))
		return apperr.New(apperr.KindBadRequest, "invalid or expired activation code")
	}
	s.metrics.Inc(metrics.CodeConsumed)

	if err := s.users.SetActive(ctx, userID, true); err != nil {
		return apperr.Internal(err)
	}

	s.metrics.Inc(metrics.ActivateSuccess)
	s.emit(audit.EventActivate, userID.String(), "", true, nil)
	return nil
}
