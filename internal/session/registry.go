// Package session tracks server-side session state in Redis: live refresh
// tokens (for rotation and revocation), rotation tombstones (for reuse
// detection), a denylist of revoked access-token ids, and per-user
// revoked-since markers. Refresh tokens reach Redis only as SHA-256
// digests; a snapshot of the store yields nothing replayable. All keys
// expire at their TTL; there is no explicit garbage collector.
package session

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

var (
	// ErrReuseDetected is returned by Rotate when the presented token was
	// already rotated away. The caller must revoke the whole chain.
	ErrReuseDetected = errors.New("refresh token reuse detected")
	// ErrRefreshNotFound is returned when the token is unknown: never issued,
	// expired, or revoked long enough ago that the tombstone lapsed.
	ErrRefreshNotFound = errors.New("refresh token not found")
	// ErrBackend wraps Redis failures.
	ErrBackend = errors.New("session backend unavailable")
)

// rotateScript atomically swaps the live refresh token for a chain. The
// old token's tombstone outlives rotation so a replay can still be
// attributed to its user. Tokens appear here only as digests. Key layout:
//
//	KEYS[1] rt:<old digest>   live entry (value = user id)
//	KEYS[2] rtu:<old digest>  tombstone of old token
//	KEYS[3] rt:<new digest>   live entry for the rotated-in token
//	KEYS[4] rtu:<new digest>  tombstone for the rotated-in token
//
// ARGV: refresh TTL ms, tombstone TTL ms, old digest, new digest, user-set
// key prefix. The per-user set key is derived from the stored user id, so
// this script requires a single-node deployment (as does WATCH elsewhere).
var rotateScript = redis.NewScript(`
local uid = redis.call("GET", KEYS[1])
if not uid then
  local ghost = redis.call("GET", KEYS[2])
  if ghost then
    return {"reuse", ghost}
  end
  return {"missing", ""}
end
redis.call("DEL", KEYS[1])
redis.call("SET", KEYS[3], uid, "PX", ARGV[1])
redis.call("SET", KEYS[4], uid, "PX", ARGV[2])
local set_key = ARGV[5] .. uid
redis.call("SREM", set_key, ARGV[3])
redis.call("SADD", set_key, ARGV[4])
redis.call("PEXPIRE", set_key, ARGV[1])
return {"ok", uid}
`)

// Registry is the session store. Safe for concurrent use.
type Registry struct {
	redis      redis.UniversalClient
	prefix     string
	refreshTTL time.Duration
	accessTTL  time.Duration
}

// NewRegistry returns a Registry. accessTTL bounds how long denylist and
// revoked-since markers must survive.
func NewRegistry(client redis.UniversalClient, prefix string, refreshTTL, accessTTL time.Duration) *Registry {
	if prefix == "" {
		prefix = "pl"
	}
	return &Registry{
		redis:      client,
		prefix:     prefix,
		refreshTTL: refreshTTL,
		accessTTL:  accessTTL,
	}
}

func (r *Registry) refreshKey(digest string) string { return r.prefix + ":rt:" + digest }
func (r *Registry) ghostKey(digest string) string   { return r.prefix + ":rtu:" + digest }
func (r *Registry) userSetKey(userID string) string {
	return r.prefix + ":rts:" + userID
}
func (r *Registry) denyKey(jti string) string      { return r.prefix + ":deny:" + jti }
func (r *Registry) revokedKey(userID string) string {
	return r.prefix + ":rvk:" + userID
}

// tombstoneTTL keeps reuse attribution alive well past the token's own
// lifetime.
func (r *Registry) tombstoneTTL() time.Duration { return 2 * r.refreshTTL }

// IssueRefresh mints an opaque refresh token for userID and registers it as
// the live token of a new chain. Only the token's digest is persisted.
func (r *Registry) IssueRefresh(ctx context.Context, userID string) (string, error) {
	token, err := newToken()
	if err != nil {
		return "", err
	}
	d := tokenDigest(token)

	_, err = r.redis.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, r.refreshKey(d), userID, r.refreshTTL)
		pipe.Set(ctx, r.ghostKey(d), userID, r.tombstoneTTL())
		pipe.SAdd(ctx, r.userSetKey(userID), d)
		pipe.Expire(ctx, r.userSetKey(userID), r.refreshTTL)
		return nil
	})
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrBackend, err)
	}
	return token, nil
}

// Rotate atomically invalidates oldToken and registers a replacement for
// the same chain. Exactly one of two concurrent calls with the same token
// wins; the loser observes ErrReuseDetected (with the owning user returned
// for chain revocation) or ErrRefreshNotFound when the token cannot be
// attributed.
func (r *Registry) Rotate(ctx context.Context, oldToken string) (userID, nextToken string, err error) {
	nextToken, err = newToken()
	if err != nil {
		return "", "", err
	}

	oldDigest := tokenDigest(oldToken)
	newDigest := tokenDigest(nextToken)
	res, err := rotateScript.Run(ctx, r.redis,
		[]string{
			r.refreshKey(oldDigest),
			r.ghostKey(oldDigest),
			r.refreshKey(newDigest),
			r.ghostKey(newDigest),
		},
		r.refreshTTL.Milliseconds(),
		r.tombstoneTTL().Milliseconds(),
		oldDigest,
		newDigest,
		r.prefix+":rts:",
	).Result()
	if err != nil {
		return "", "", fmt.Errorf("%w: %v", ErrBackend, err)
	}

	reply, ok := res.([]interface{})
	if !ok || len(reply) != 2 {
		return "", "", fmt.Errorf("%w: unexpected rotate reply", ErrBackend)
	}
	status, _ := reply[0].(string)
	uid, _ := reply[1].(string)

	switch status {
	case "ok":
		return uid, nextToken, nil
	case "reuse":
		return uid, "", ErrReuseDetected
	default:
		return "", "", ErrRefreshNotFound
	}
}

// RevokeAll deletes every live refresh token for the user and records a
// revoked-since marker so access tokens issued before this instant are
// rejected at verify time.
func (r *Registry) RevokeAll(ctx context.Context, userID string) error {
	setKey := r.userSetKey(userID)
	digests, err := r.redis.SMembers(ctx, setKey).Result()
	if err != nil && !errors.Is(err, redis.Nil) {
		return fmt.Errorf("%w: %v", ErrBackend, err)
	}

	_, err = r.redis.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		for _, d := range digests {
			pipe.Del(ctx, r.refreshKey(d))
		}
		pipe.Del(ctx, setKey)
		// Marker only needs to outlive the longest-lived access token.
		pipe.Set(ctx, r.revokedKey(userID),
			strconv.FormatInt(time.Now().UnixNano(), 10),
			r.accessTTL+time.Minute)
		return nil
	})
	if err != nil {
		return fmt.Errorf("%w: %v", ErrBackend, err)
	}
	return nil
}

// DenylistAccess records an access-token id until its natural expiry.
func (r *Registry) DenylistAccess(ctx context.Context, jti string, ttl time.Duration) error {
	if ttl <= 0 {
		return nil
	}
	if err := r.redis.Set(ctx, r.denyKey(jti), "1", ttl).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrBackend, err)
	}
	return nil
}

// IsDenylisted reports whether the access-token id was revoked before its
// expiry.
func (r *Registry) IsDenylisted(ctx context.Context, jti string) (bool, error) {
	n, err := r.redis.Exists(ctx, r.denyKey(jti)).Result()
	if err != nil {
		return false, fmt.Errorf("%w: %v", ErrBackend, err)
	}
	return n > 0, nil
}

// RevokedSince returns the user's revoked-since instant when one is live.
func (r *Registry) RevokedSince(ctx context.Context, userID string) (time.Time, bool, error) {
	val, err := r.redis.Get(ctx, r.revokedKey(userID)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return time.Time{}, false, nil
		}
		return time.Time{}, false, fmt.Errorf("%w: %v", ErrBackend, err)
	}
	unix, err := strconv.ParseInt(val, 10, 64)
	if err != nil {
		return time.Time{}, false, fmt.Errorf("%w: corrupt revoked marker", ErrBackend)
	}
	return time.Unix(0, unix), true, nil
}

// Ping verifies Redis connectivity.
func (r *Registry) Ping(ctx context.Context) error {
	if err := r.redis.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrBackend, err)
	}
	return nil
}

func newToken() (string, error) {
	raw := make([]byte, 32)
	if _, err := io.ReadFull(rand.Reader, raw); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(raw), nil
}

// tokenDigest is the at-rest form of a refresh token. The raw token exists
// only in the client's hands and in transit through Rotate.
func tokenDigest(token string) string {
	sum := sha256.Sum256([]byte(token))
	return base64.RawURLEncoding.EncodeToString(sum[:])
}
