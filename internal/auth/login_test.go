package auth

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/pictolab/pictolab/internal/apperr"
	"github.com/pictolab/pictolab/internal/mail"
)

func TestLoginWrongPassword(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.registerActive(t, "alice", "alice@example.com", "password-123")

	_, err := env.svc.Login(ctx, "alice@example.com", "not-the-password")
	if !apperr.IsKind(err, apperr.KindUnauthorized) {
		t.Fatalf("expected UNAUTHORIZED, got %v", err)
	}
}

func TestLoginUnknownEmailMatchesWrongPassword(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.registerActive(t, "alice", "alice@example.com", "password-123")

	_, unknownErr := env.svc.Login(ctx, "nobody@example.com", "whatever-pass")
	_, wrongErr := env.svc.Login(ctx, "alice@example.com", "whatever-pass")

	if !apperr.IsKind(unknownErr, apperr.KindUnauthorized) || !apperr.IsKind(wrongErr, apperr.KindUnauthorized) {
		t.Fatalf("expected UNAUTHORIZED for both, got %v / %v", unknownErr, wrongErr)
	}
	if apperr.MessageOf(unknownErr) != apperr.MessageOf(wrongErr) {
		t.Fatalf("unknown-email and wrong-password messages differ: %q vs %q",
			apperr.MessageOf(unknownErr), apperr.MessageOf(wrongErr))
	}
}

func TestLoginWith2FA(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	id := env.registerActive(t, "alice", "alice@example.com", "password-123")
	env.users.set2FA(id, true)

	result, err := env.svc.Login(ctx, "alice@example.com", "password-123")
	if err != nil {
		t.Fatalf("Login failed: %v", err)
	}
	if result.Pair != nil || result.Challenge == nil {
		t.Fatalf("expected a code challenge, got %+v", result)
	}
	if result.Challenge.ExpireIn != 5*60 {
		t.Fatalf("challenge expireIn = %d, want 300", result.Challenge.ExpireIn)
	}

	sent := env.mailer.Sent()
	last := sent[len(sent)-1]
	if last.Template != mail.TemplateTwoFactor {
		t.Fatalf("expected two-factor mail, got %q", last.Template)
	}

	pair, err := env.svc.Login2FA(ctx, id, last.Data["Code"])
	if err != nil {
		t.Fatalf("Login2FA failed: %v", err)
	}
	if pair.AccessToken == "" || pair.RefreshToken == "" {
		t.Fatal("expected a full token pair")
	}
}

func TestLogin2FACodeIsSingleUse(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	id := env.registerActive(t, "alice", "alice@example.com", "password-123")
	env.users.set2FA(id, true)

	if _, err := env.svc.Login(ctx, "alice@example.com", "password-123"); err != nil {
		t.Fatalf("Login failed: %v", err)
	}
	code := env.lastCode(t)

	if _, err := env.svc.Login2FA(ctx, id, code); err != nil {
		t.Fatalf("Login2FA failed: %v", err)
	}
	if _, err := env.svc.Login2FA(ctx, id, code); !apperr.IsKind(err, apperr.KindUnauthorized) {
		t.Fatalf("expected UNAUTHORIZED on replayed code, got %v", err)
	}
}

func TestLogin2FAExpiredCode(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	id := env.registerActive(t, "alice", "alice@example.com", "password-123")
	env.users.set2FA(id, true)

	if _, err := env.svc.Login(ctx, "alice@example.com", "password-123"); err != nil {
		t.Fatalf("Login failed: %v", err)
	}
	code := env.lastCode(t)

	env.redis.FastForward(6 * time.Minute)

	if _, err := env.svc.Login2FA(ctx, id, code); !apperr.IsKind(err, apperr.KindUnauthorized) {
		t.Fatalf("expected UNAUTHORIZED for expired code, got %v", err)
	}
}

func TestLogin2FAUnknownUser(t *testing.T) {
	env := newTestEnv(t)

	_, err := env.svc.Login2FA(context.Background(), uuid.New(), "ABCDE234")
	if !apperr.IsKind(err, apperr.KindUnauthorized) {
		t.Fatalf("expected UNAUTHORIZED, got %v", err)
	}
}

func TestFreshLoginsGetDistinctChains(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.registerActive(t, "alice", "alice@example.com", "password-123")

	one, err := env.svc.Login(ctx, "alice@example.com", "password-123")
	if err != nil {
		t.Fatalf("Login failed: %v", err)
	}
	two, err := env.svc.Login(ctx, "alice@example.com", "password-123")
	if err != nil {
		t.Fatalf("Login failed: %v", err)
	}
	if one.Pair.RefreshToken == two.Pair.RefreshToken {
		t.Fatal("two logins must not share a refresh token")
	}

	// Both chains stay live independently.
	if _, err := env.svc.Refresh(ctx, one.Pair.RefreshToken); err != nil {
		t.Fatalf("first chain refresh failed: %v", err)
	}
	if _, err := env.svc.Refresh(ctx, two.Pair.RefreshToken); err != nil {
		t.Fatalf("second chain refresh failed: %v", err)
	}
}
