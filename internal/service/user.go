// Package service implements the resource-facing application logic: user
// profiles, image storage, and collaborative annotations. Authentication
// and session concerns live in internal/auth.
package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"
	cache "github.com/patrickmn/go-cache"

	"github.com/pictolab/pictolab/internal/apperr"
	"github.com/pictolab/pictolab/internal/domain"
)

// UserStore is the persistence surface the user service needs.
type UserStore interface {
	FindByID(ctx context.Context, id uuid.UUID) (*domain.User, error)
	UpdateProfile(ctx context.Context, id uuid.UUID, username string, is2FA bool) error
	List(ctx context.Context, limit, offset int) ([]domain.User, int64, error)
}

// UserService serves profile reads and updates. Profiles are cached briefly
// since the profile endpoint is hit on most page loads.
type UserService struct {
	users UserStore
	cache *cache.Cache
	log   *slog.Logger
}

func NewUserService(users UserStore, log *slog.Logger) *UserService {
	if log == nil {
		log = slog.Default()
	}
	return &UserService{
		users: users,
		cache: cache.New(30*time.Second, time.Minute),
		log:   log,
	}
}

func profileKey(id uuid.UUID) string { return "user:" + id.String() }

// Profile returns the user's profile, served from cache when fresh.
func (s *UserService) Profile(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	if cached, ok := s.cache.Get(profileKey(id)); ok {
		if user, ok := cached.(*domain.User); ok {
			return user, nil
		}
	}

	user, err := s.users.FindByID(ctx, id)
	if err != nil {
		return nil, apperr.Internal(err)
	}
	if user == nil {
		return nil, apperr.New(apperr.KindNotFound, "user not found")
	}

	s.cache.SetDefault(profileKey(id), user)
	return user, nil
}

// UpdateProfile changes the username and two-factor toggle, then returns the
// fresh profile. The cache entry is dropped so the next read sees the write.
func (s *UserService) UpdateProfile(ctx context.Context, id uuid.UUID, username string, is2FA bool) (*domain.User, error) {
	err := s.users.UpdateProfile(ctx, id, username, is2FA)
	if err != nil {
		if errors.Is(err, domain.ErrUserExists) {
			return nil, apperr.New(apperr.KindResourceExists, "username already taken")
		}
		return nil, apperr.Internal(err)
	}
	s.cache.Delete(profileKey(id))

	user, err := s.users.FindByID(ctx, id)
	if err != nil {
		return nil, apperr.Internal(err)
	}
	if user == nil {
		return nil, apperr.New(apperr.KindNotFound, "user not found")
	}
	return user, nil
}

// List returns one page of users. Admin-only at the transport layer.
func (s *UserService) List(ctx context.Context, limit, offset int) ([]domain.User, int64, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}
	users, total, err := s.users.List(ctx, limit, offset)
	if err != nil {
		return nil, 0, apperr.Internal(err)
	}
	return users, total, nil
}
