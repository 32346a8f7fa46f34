package otp

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func newTestRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis failed: %v", err)
	}
	return mr, redis.NewClient(&redis.Options{Addr: mr.Addr()})
}

func TestIssueAndConsume(t *testing.T) {
	mr, rdb := newTestRedis(t)
	defer mr.Close()

	ctx := context.Background()
	store := NewStore(rdb, "otp", 8)

	code, err := store.Issue(ctx, PurposeActivation, "u1", 10*time.Minute)
	if err != nil {
		t.Fatalf("Issue failed: %v", err)
	}
	if len(code) != 8 {
		t.Fatalf("code length = %d, want 8", len(code))
	}
	for _, c := range code {
		if !strings.ContainsRune(codeAlphabet, c) {
			t.Fatalf("code %q contains character outside alphabet", code)
		}
	}

	ok, err := store.Consume(ctx, PurposeActivation, "u1", code)
	if err != nil {
		t.Fatalf("Consume failed: %v", err)
	}
	if !ok {
		t.Fatal("expected matching code to consume")
	}
}

func TestConsumeIsSingleUse(t *testing.T) {
	mr, rdb := newTestRedis(t)
	defer mr.Close()

	ctx := context.Background()
	store := NewStore(rdb, "otp", 8)

	code, err := store.Issue(ctx, PurposeTwoFactor, "u1", time.Minute)
	if err != nil {
		t.Fatalf("Issue failed: %v", err)
	}

	if ok, _ := store.Consume(ctx, PurposeTwoFactor, "u1", code); !ok {
		t.Fatal("first consume should succeed")
	}
	if ok, err := store.Consume(ctx, PurposeTwoFactor, "u1", code); err != nil || ok {
		t.Fatalf("second consume = (%v, %v), want (false, nil)", ok, err)
	}
}

func TestConsumeWrongCodeKeepsStored(t *testing.T) {
	mr, rdb := newTestRedis(t)
	defer mr.Close()

	ctx := context.Background()
	store := NewStore(rdb, "otp", 8)

	code, err := store.Issue(ctx, PurposePasswordReset, "u1", time.Minute)
	if err != nil {
		t.Fatalf("Issue failed: %v", err)
	}

	if ok, err := store.Consume(ctx, PurposePasswordReset, "u1", "WRONGONE"); err != nil || ok {
		t.Fatalf("wrong code consume = (%v, %v), want (false, nil)", ok, err)
	}
	if ok, _ := store.Consume(ctx, PurposePasswordReset, "u1", code); !ok {
		t.Fatal("stored code should survive a failed attempt")
	}
}

func TestConsumeExpiredCode(t *testing.T) {
	mr, rdb := newTestRedis(t)
	defer mr.Close()

	ctx := context.Background()
	store := NewStore(rdb, "otp", 8)

	code, err := store.Issue(ctx, PurposeActivation, "u1", time.Minute)
	if err != nil {
		t.Fatalf("Issue failed: %v", err)
	}

	mr.FastForward(2 * time.Minute)

	if ok, err := store.Consume(ctx, PurposeActivation, "u1", code); err != nil || ok {
		t.Fatalf("expired consume = (%v, %v), want (false, nil)", ok, err)
	}
}

func TestReissueInvalidatesPriorCode(t *testing.T) {
	mr, rdb := newTestRedis(t)
	defer mr.Close()

	ctx := context.Background()
	store := NewStore(rdb, "otp", 8)

	first, err := store.Issue(ctx, PurposeActivation, "u1", time.Minute)
	if err != nil {
		t.Fatalf("Issue failed: %v", err)
	}
	second, err := store.Issue(ctx, PurposeActivation, "u1", time.Minute)
	if err != nil {
		t.Fatalf("Issue failed: %v", err)
	}

	if first != second {
		if ok, _ := store.Consume(ctx, PurposeActivation, "u1", first); ok {
			t.Fatal("first code should be invalid after reissue")
		}
	}
	if ok, _ := store.Consume(ctx, PurposeActivation, "u1", second); !ok {
		t.Fatal("latest code should consume")
	}
}

func TestPurposesAreIsolated(t *testing.T) {
	mr, rdb := newTestRedis(t)
	defer mr.Close()

	ctx := context.Background()
	store := NewStore(rdb, "otp", 8)

	code, err := store.Issue(ctx, PurposeActivation, "u1", time.Minute)
	if err != nil {
		t.Fatalf("Issue failed: %v", err)
	}

	if ok, _ := store.Consume(ctx, PurposeTwoFactor, "u1", code); ok {
		t.Fatal("code must not cross purposes")
	}
	if ok, _ := store.Consume(ctx, PurposeActivation, "u2", code); ok {
		t.Fatal("code must not cross users")
	}
	if ok, _ := store.Consume(ctx, PurposeActivation, "u1", code); !ok {
		t.Fatal("code should still consume for its own purpose and user")
	}
}

func TestStoredCodeIsDigest(t *testing.T) {
	mr, rdb := newTestRedis(t)
	defer mr.Close()

	ctx := context.Background()
	store := NewStore(rdb, "otp", 8)

	code, err := store.Issue(ctx, PurposePasswordReset, "u1", time.Minute)
	if err != nil {
		t.Fatalf("Issue failed: %v", err)
	}

	stored, err := mr.Get("otp:reset:u1")
	if err != nil {
		t.Fatalf("stored value missing: %v", err)
	}
	if strings.Contains(stored, code) {
		t.Fatalf("code stored in plaintext: %q", stored)
	}
	if stored != codeDigest(code) {
		t.Fatalf("stored value %q is not the code digest", stored)
	}
}

func TestOutstanding(t *testing.T) {
	mr, rdb := newTestRedis(t)
	defer mr.Close()

	ctx := context.Background()
	store := NewStore(rdb, "otp", 8)

	if _, err := store.Issue(ctx, PurposeActivation, "u1", 10*time.Minute); err != nil {
		t.Fatalf("Issue failed: %v", err)
	}
	if _, err := store.Issue(ctx, PurposeTwoFactor, "u1", time.Minute); err != nil {
		t.Fatalf("Issue failed: %v", err)
	}

	live, err := store.Outstanding(ctx, "u1")
	if err != nil {
		t.Fatalf("Outstanding failed: %v", err)
	}
	if len(live) != 2 {
		t.Fatalf("live codes = %d, want 2", len(live))
	}
	for _, status := range live {
		if status.ExpireIn <= 0 {
			t.Fatalf("non-positive ttl for %s", status.Purpose)
		}
	}

	// Consumed codes disappear, and users never see each other's codes.
	code, err := store.Issue(ctx, PurposeActivation, "u2", time.Minute)
	if err != nil {
		t.Fatalf("Issue failed: %v", err)
	}
	if ok, _ := store.Consume(ctx, PurposeActivation, "u2", code); !ok {
		t.Fatal("consume should succeed")
	}
	live, err = store.Outstanding(ctx, "u2")
	if err != nil {
		t.Fatalf("Outstanding failed: %v", err)
	}
	if len(live) != 0 {
		t.Fatalf("consumed user still has %d live codes", len(live))
	}

	mr.FastForward(2 * time.Minute)
	live, err = store.Outstanding(ctx, "u1")
	if err != nil {
		t.Fatalf("Outstanding failed: %v", err)
	}
	if len(live) != 1 || live[0].Purpose != PurposeActivation {
		t.Fatalf("after expiry live = %+v", live)
	}
}
