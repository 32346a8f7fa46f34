// Package auth implements the credential and session lifecycle: registration
// with expiring activation codes, password login optionally gated by a second
// factor, access/refresh token issuance and rotation, logout/revocation, and
// password reset. The service holds no mutable in-process state; everything
// cross-request lives in the session registry and the credential store.
package auth

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/pictolab/pictolab/internal/audit"
	"github.com/pictolab/pictolab/internal/domain"
	"github.com/pictolab/pictolab/internal/mail"
	"github.com/pictolab/pictolab/internal/metrics"
	"github.com/pictolab/pictolab/internal/otp"
	"github.com/pictolab/pictolab/internal/password"
	"github.com/pictolab/pictolab/internal/session"
	"github.com/pictolab/pictolab/internal/token"
)

// TokenType is the scheme reported in token responses.
const TokenType = "Bearer"

// UserStore is the credential-store surface the auth service consumes.
// Lookups return (nil, nil) when no row matches.
type UserStore interface {
	FindByEmail(ctx context.Context, email string) (*domain.User, error)
	FindByUsername(ctx context.Context, username string) (*domain.User, error)
	FindByID(ctx context.Context, id uuid.UUID) (*domain.User, error)
	Create(ctx context.Context, user *domain.User) error
	SetActive(ctx context.Context, id uuid.UUID, active bool) error
	UpdatePasswordHash(ctx context.Context, id uuid.UUID, hash string) error
}

// Config sets the per-purpose code lifetimes.
type Config struct {
	ActivationTTL time.Duration
	TwoFactorTTL  time.Duration
	ResetTTL      time.Duration
}

// TokenPair is a freshly issued access/refresh pair. ExpireIn is the access
// token lifetime in seconds.
type TokenPair struct {
	TokenType    string
	AccessToken  string
	RefreshToken string
	ExpireIn     uint64
}

// CodeChallenge is returned when a flow answers with a one-time code
// instead of tokens.
type CodeChallenge struct {
	Message  string
	ExpireIn uint64
}

// LoginResult carries exactly one of Pair or Challenge.
type LoginResult struct {
	Pair      *TokenPair
	Challenge *CodeChallenge
}

// Service orchestrates the auth flows. Safe for concurrent use.
type Service struct {
	users    UserStore
	hasher   *password.Hasher
	tokens   *token.Manager
	codes    *otp.Store
	sessions *session.Registry
	mailer   mail.Mailer
	audit    *audit.Dispatcher
	metrics  *metrics.Metrics
	cfg      Config
	log      *slog.Logger

	// dummyHash equalizes login latency when the email is unknown.
	dummyHash string
}

// New wires a Service. Audit dispatcher and metrics may be nil.
func New(
	users UserStore,
	hasher *password.Hasher,
	tokens *token.Manager,
	codes *otp.Store,
	sessions *session.Registry,
	mailer mail.Mailer,
	auditor *audit.Dispatcher,
	m *metrics.Metrics,
	cfg Config,
	log *slog.Logger,
) (*Service, error) {
	if cfg.ActivationTTL <= 0 {
		cfg.ActivationTTL = 10 * time.Minute
	}
	if cfg.TwoFactorTTL <= 0 {
		cfg.TwoFactorTTL = 5 * time.Minute
	}
	if cfg.ResetTTL <= 0 {
		cfg.ResetTTL = 10 * time.Minute
	}
	if log == nil {
		log = slog.Default()
	}

	dummy, err := hasher.Hash(uuid.NewString())
	if err != nil {
		return nil, err
	}

	return &Service{
		users:     users,
		hasher:    hasher,
		tokens:    tokens,
		codes:     codes,
		sessions:  sessions,
		mailer:    mailer,
		audit:     auditor,
		metrics:   m,
		cfg:       cfg,
		log:       log,
		dummyHash: dummy,
	}, nil
}

// issuePair mints an access token and registers a new refresh chain.
func (s *Service) issuePair(ctx context.Context, user *domain.User) (*TokenPair, error) {
	access, _, err := s.tokens.IssueAccess(user.ID, user.Role)
	if err != nil {
		return nil, err
	}
	refresh, err := s.sessions.IssueRefresh(ctx, user.ID.String())
	if err != nil {
		return nil, err
	}
	return &TokenPair{
		TokenType:    TokenType,
		AccessToken:  access,
		RefreshToken: refresh,
		ExpireIn:     uint64(s.tokens.AccessTTL().Seconds()),
	}, nil
}

// dispatchCode emails a one-time code. The code is already persisted, so a
// mail failure is logged and swallowed; the caller's flow still succeeds.
func (s *Service) dispatchCode(ctx context.Context, user *domain.User, tmpl mail.Template, code string, ttl time.Duration) {
	err := s.mailer.Send(ctx, user.Email, tmpl, map[string]string{
		"Username": user.Username,
		"Code":     code,
		"ExpireIn": ttl.String(),
	})
	if err != nil {
		s.metrics.Inc(metrics.MailDispatchFailure)
		s.log.Warn("mail dispatch failed", "template", string(tmpl), "error", err)
	}
}

func (s *Service) emit(eventType string, userID, email string, success bool, failure error) {
	event := audit.Event{
		Timestamp: time.Now(),
		EventType: eventType,
		UserID:    userID,
		Email:     email,
		Success:   success,
	}
	if failure != nil {
		event.Error = failure.Error()
	}
	s.audit.Emit(event)
}
