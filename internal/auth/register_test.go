package auth

import (
	"context"
	"testing"
	"time"

	"github.com/pictolab/pictolab/internal/apperr"
	"github.com/pictolab/pictolab/internal/mail"
)

func TestRegisterActivateLogin(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	id, err := env.svc.Register(ctx, "alice", "alice@example.com", "password-123")
	if err != nil {
		t.Fatalf("Register failed: %v", err)
	}

	// Account starts inactive; login is refused until activation.
	if _, err := env.svc.Login(ctx, "alice@example.com", "password-123"); !apperr.IsKind(err, apperr.KindUserNotActive) {
		t.Fatalf("expected USER_NOT_ACTIVE before activation, got %v", err)
	}

	sent := env.mailer.Sent()
	if len(sent) != 1 || sent[0].Template != mail.TemplateActivation {
		t.Fatalf("expected one activation mail, got %+v", sent)
	}
	if sent[0].To != "alice@example.com" {
		t.Fatalf("mail recipient = %q", sent[0].To)
	}

	if err := env.svc.Activate(ctx, id, env.lastCode(t)); err != nil {
		t.Fatalf("Activate failed: %v", err)
	}

	result, err := env.svc.Login(ctx, "alice@example.com", "password-123")
	if err != nil {
		t.Fatalf("Login after activation failed: %v", err)
	}
	if result.Pair == nil {
		t.Fatal("expected a token pair")
	}
	if result.Pair.TokenType != "Bearer" {
		t.Fatalf("tokenType = %q, want Bearer", result.Pair.TokenType)
	}
	if result.Pair.ExpireIn != 15*60 {
		t.Fatalf("expireIn = %d, want 900", result.Pair.ExpireIn)
	}
}

func TestRegisterDuplicate(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	if _, err := env.svc.Register(ctx, "alice", "alice@example.com", "password-123"); err != nil {
		t.Fatalf("Register failed: %v", err)
	}

	if _, err := env.svc.Register(ctx, "alice", "other@example.com", "password-123"); !apperr.IsKind(err, apperr.KindResourceExists) {
		t.Fatalf("expected RESOURCE_EXISTS for duplicate username, got %v", err)
	}
	if _, err := env.svc.Register(ctx, "bob", "alice@example.com", "password-123"); !apperr.IsKind(err, apperr.KindResourceExists) {
		t.Fatalf("expected RESOURCE_EXISTS for duplicate email, got %v", err)
	}
}

func TestActivateCodeIsSingleUse(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	id, err := env.svc.Register(ctx, "alice", "alice@example.com", "password-123")
	if err != nil {
		t.Fatalf("Register failed: %v", err)
	}
	code := env.lastCode(t)

	if err := env.svc.Activate(ctx, id, code); err != nil {
		t.Fatalf("Activate failed: %v", err)
	}
	if err := env.svc.Activate(ctx, id, code); !apperr.IsKind(err, apperr.KindBadRequest) {
		t.Fatalf("expected BAD_REQUEST on replayed code, got %v", err)
	}
}

func TestActivateWrongCode(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	id, err := env.svc.Register(ctx, "alice", "alice@example.com", "password-123")
	if err != nil {
		t.Fatalf("Register failed: %v", err)
	}

	if err := env.svc.Activate(ctx, id, "WRONGONE"); !apperr.IsKind(err, apperr.KindBadRequest) {
		t.Fatalf("expected BAD_REQUEST for wrong code, got %v", err)
	}
	// A wrong guess must not burn the real code.
	if err := env.svc.Activate(ctx, id, env.lastCode(t)); err != nil {
		t.Fatalf("Activate with real code failed after wrong guess: %v", err)
	}
}

func TestActivateExpiredCode(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	id, err := env.svc.Register(ctx, "alice", "alice@example.com", "password-123")
	if err != nil {
		t.Fatalf("Register failed: %v", err)
	}
	code := env.lastCode(t)

	env.redis.FastForward(11 * time.Minute)

	if err := env.svc.Activate(ctx, id, code); !apperr.IsKind(err, apperr.KindBadRequest) {
		t.Fatalf("expected BAD_REQUEST for expired code, got %v", err)
	}
}

func TestRegisterSucceedsWhenMailFails(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	env.mailer.FailWith(mail.ErrMail)
	id, err := env.svc.Register(ctx, "alice", "alice@example.com", "password-123")
	if err != nil {
		t.Fatalf("Register should survive a mail failure, got %v", err)
	}
	if id.String() == "" {
		t.Fatal("expected a user id")
	}
}
