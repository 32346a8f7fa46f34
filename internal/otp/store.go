// Package otp issues and consumes short-lived one-time codes (activation,
// two-factor login, password reset). Codes live in Redis keyed by
// purpose+user, so issuing a new code always invalidates the prior one, and
// the key TTL is the only cleanup mechanism. Only SHA-256 digests are
// stored; the plaintext code exists in the issuing response and the
// outbound mail, nowhere else.
package otp

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"errors"
	"fmt"
	"math/big"
	"time"

	"github.com/redis/go-redis/v9"
)

// Purpose namespaces a code. At most one live code exists per
// (purpose, user).
type Purpose string

const (
	PurposeActivation    Purpose = "activate"
	PurposeTwoFactor     Purpose = "2fa"
	PurposePasswordReset Purpose = "reset"
)

// ErrBackend wraps Redis failures.
var ErrBackend = errors.New("otp backend unavailable")

// Codes avoid ambiguous characters (0/O, 1/I/L) so they survive being read
// aloud or retyped from an email.
const codeAlphabet = "ABCDEFGHJKMNPQRSTUVWXYZ23456789"

// Store issues and consumes codes against Redis.
type Store struct {
	redis  redis.UniversalClient
	prefix string
	length int
}

// NewStore returns a Store. length is the generated code length; values
// below 5 are raised to 5 to keep enough entropy for a 10-minute window.
func NewStore(client redis.UniversalClient, prefix string, length int) *Store {
	if prefix == "" {
		prefix = "otp"
	}
	if length < 5 {
		length = 5
	}
	return &Store{redis: client, prefix: prefix, length: length}
}

func (s *Store) key(purpose Purpose, userID string) string {
	return s.prefix + ":" + string(purpose) + ":" + userID
}

// Issue generates a random code and stores its digest with the given TTL,
// overwriting any prior live code for the same purpose and user.
func (s *Store) Issue(ctx context.Context, purpose Purpose, userID string, ttl time.Duration) (string, error) {
	code, err := generateCode(s.length)
	if err != nil {
		return "", err
	}
	if err := s.redis.Set(ctx, s.key(purpose, userID), codeDigest(code), ttl).Err(); err != nil {
		return "", fmt.Errorf("%w: %v", ErrBackend, err)
	}
	return code, nil
}

// Consume atomically compares candidate against the stored code and deletes
// it on match. A mismatch or an absent/expired code returns false with no
// side effects; callers must not distinguish the two in their response.
func (s *Store) Consume(ctx context.Context, purpose Purpose, userID, candidate string) (bool, error) {
	const maxRetries = 4
	key := s.key(purpose, userID)

	for i := 0; i < maxRetries; i++ {
		var matched bool

		err := s.redis.Watch(ctx, func(tx *redis.Tx) error {
			stored, err := tx.Get(ctx, key).Result()
			if err != nil {
				return err
			}
			if subtle.ConstantTimeCompare([]byte(stored), []byte(codeDigest(candidate))) != 1 {
				matched = false
				return nil
			}
			_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
				pipe.Del(ctx, key)
				return nil
			})
			if err != nil {
				return err
			}
			matched = true
			return nil
		}, key)

		if errors.Is(err, redis.TxFailedErr) {
			// Key changed under us (reissue or concurrent consume); retry.
			continue
		}
		if err != nil {
			if errors.Is(err, redis.Nil) {
				return false, nil
			}
			return false, fmt.Errorf("%w: %v", ErrBackend, err)
		}
		return matched, nil
	}

	return false, nil
}

// Status describes a live code without exposing it.
type Status struct {
	Purpose  Purpose
	ExpireIn time.Duration
}

// Outstanding reports which purposes currently hold a live code for the
// user, with the remaining lifetime of each. Purposes without a live code
// are omitted.
func (s *Store) Outstanding(ctx context.Context, userID string) ([]Status, error) {
	out := make([]Status, 0, 3)
	for _, purpose := range []Purpose{PurposeActivation, PurposeTwoFactor, PurposePasswordReset} {
		ttl, err := s.redis.PTTL(ctx, s.key(purpose, userID)).Result()
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrBackend, err)
		}
		if ttl > 0 {
			out = append(out, Status{Purpose: purpose, ExpireIn: ttl})
		}
	}
	return out, nil
}

// codeDigest is the at-rest form of a code. Comparing digests also keeps
// the match constant time regardless of candidate length.
func codeDigest(code string) string {
	sum := sha256.Sum256([]byte(code))
	return hex.EncodeToString(sum[:])
}

func generateCode(length int) (string, error) {
	out := make([]byte, length)
	max := big.NewInt(int64(len(codeAlphabet)))
	for i := range out {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", err
		}
		out[i] = codeAlphabet[n.Int64()]
	}
	return string(out), nil
}
