package auth

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/pictolab/pictolab/internal/domain"
	"github.com/pictolab/pictolab/internal/mail"
	"github.com/pictolab/pictolab/internal/metrics"
	"github.com/pictolab/pictolab/internal/otp"
	"github.com/pictolab/pictolab/internal/password"
	"github.com/pictolab/pictolab/internal/session"
	"github.com/pictolab/pictolab/internal/token"
)

// fakeUserStore is an in-memory UserStore.
type fakeUserStore struct {
	mu    sync.Mutex
	users map[uuid.UUID]*domain.User
	fail  error
}

func newFakeUserStore() *fakeUserStore {
	return &fakeUserStore{users: make(map[uuid.UUID]*domain.User)}
}

func (f *fakeUserStore) FindByEmail(_ context.Context, email string) (*domain.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fail != nil {
		return nil, f.fail
	}
	for _, u := range f.users {
		if u.Email == email {
			copied := *u
			return &copied, nil
		}
	}
	return nil, nil
}

func (f *fakeUserStore) FindByUsername(_ context.Context, username string) (*domain.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fail != nil {
		return nil, f.fail
	}
	for _, u := range f.users {
		if u.Username == username {
			copied := *u
			return &copied, nil
		}
	}
	return nil, nil
}

func (f *fakeUserStore) FindByID(_ context.Context, id uuid.UUID) (*domain.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fail != nil {
		return nil, f.fail
	}
	if u, ok := f.users[id]; ok {
		copied := *u
		return &copied, nil
	}
	return nil, nil
}

func (f *fakeUserStore) Create(_ context.Context, user *domain.User) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fail != nil {
		return f.fail
	}
	for _, u := range f.users {
		if u.Username == user.Username || u.Email == user.Email {
			return domain.ErrUserExists
		}
	}
	copied := *user
	copied.CreateAt = time.Now()
	f.users[user.ID] = &copied
	return nil
}

func (f *fakeUserStore) SetActive(_ context.Context, id uuid.UUID, active bool) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if u, ok := f.users[id]; ok {
		u.IsActive = active
	}
	return nil
}

func (f *fakeUserStore) UpdatePasswordHash(_ context.Context, id uuid.UUID, hash string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if u, ok := f.users[id]; ok {
		u.PasswordHash = hash
	}
	return nil
}

// set2FA flips the flag directly; the auth flows never do.
func (f *fakeUserStore) set2FA(id uuid.UUID, on bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if u, ok := f.users[id]; ok {
		u.Is2FA = on
	}
}

type testEnv struct {
	svc      *Service
	users    *fakeUserStore
	mailer   *mail.Recorder
	sessions *session.Registry
	codes    *otp.Store
	metrics  *metrics.Metrics
	redis    *miniredis.Miniredis
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis failed: %v", err)
	}
	t.Cleanup(mr.Close)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})

	hasher, err := password.NewHasher(password.Params{
		Memory: 8 * 1024, Time: 1, Parallelism: 1, SaltLength: 16, KeyLength: 32,
	})
	if err != nil {
		t.Fatalf("NewHasher failed: %v", err)
	}

	tokens, err := token.NewManager(token.Config{
		AccessTTL:     15 * time.Minute,
		SigningMethod: token.MethodHS256,
		Secret:        []byte("0123456789abcdef0123456789abcdef"),
		Issuer:        "test",
	})
	if err != nil {
		t.Fatalf("NewManager failed: %v", err)
	}

	users := newFakeUserStore()
	mailer := &mail.Recorder{}
	codes := otp.NewStore(rdb, "otp", 8)
	sessions := session.NewRegistry(rdb, "pl", time.Hour, 15*time.Minute)
	m := metrics.New()
	log := slog.New(slog.NewTextHandler(io.Discard, nil))

	svc, err := New(users, hasher, tokens, codes, sessions, mailer, nil, m, Config{
		ActivationTTL: 10 * time.Minute,
		TwoFactorTTL:  5 * time.Minute,
		ResetTTL:      10 * time.Minute,
	}, log)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	return &testEnv{
		svc:      svc,
		users:    users,
		mailer:   mailer,
		sessions: sessions,
		codes:    codes,
		metrics:  m,
		redis:    mr,
	}
}

// lastCode returns the code from the most recent captured mail.
func (e *testEnv) lastCode(t *testing.T) string {
	t.Helper()
	sent := e.mailer.Sent()
	if len(sent) == 0 {
		t.Fatal("no mail captured")
	}
	code := sent[len(sent)-1].Data["Code"]
	if code == "" {
		t.Fatal("captured mail has no code")
	}
	return code
}

// registerActive registers and activates a user, returning the id.
func (e *testEnv) registerActive(t *testing.T, username, email, pass string) uuid.UUID {
	t.Helper()
	ctx := context.Background()
	id, err := e.svc.Register(ctx, username, email, pass)
	if err != nil {
		t.Fatalf("Register failed: %v", err)
	}
	if err := e.svc.Activate(ctx, id, e.lastCode(t)); err != nil {
		t.Fatalf("Activate failed: %v", err)
	}
	return id
}
