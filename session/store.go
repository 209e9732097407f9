package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// ErrNotFound is returned when a session id, token, or alternative key does
// not resolve to a live session.
var ErrNotFound = errors.New("session not found")

// ErrRedisUnavailable wraps transport-level Redis failures so callers can
// report infrastructure errors distinctly from expired sessions.
var ErrRedisUnavailable = errors.New("redis unavailable")

// redeemTokenScript consumes a random token atomically: lookup and
// invalidation are a single Redis round-trip, so two concurrent redemptions
// of the same token can never both succeed.
const redeemTokenScript = `
local sid = redis.call("GET", KEYS[1])
if not sid then
  return false
end
redis.call("DEL", KEYS[1])
return sid
`

var redeemTokenLua = redis.NewScript(redeemTokenScript)

// Store is the Redis-backed session registry. It persists session records as
// JSON blobs with a sliding TTL and maintains two secondary keys per session:
// the one-time random-token index and the (hash, remote address) alternative
// index used for cookie recovery.
type Store struct {
	redis    redis.UniversalClient
	prefix   string
	lifetime time.Duration
	tokenTTL time.Duration
}

// NewStore creates a session [Store] backed by the given Redis client.
// prefix namespaces all keys; lifetime is the sliding session TTL; tokenTTL
// bounds how long an unredeemed random token stays valid.
func NewStore(rdb redis.UniversalClient, prefix string, lifetime, tokenTTL time.Duration) *Store {
	return &Store{
		redis:    rdb,
		prefix:   prefix,
		lifetime: lifetime,
		tokenTTL: tokenTTL,
	}
}

func (s *Store) key(sessionID string) string {
	return s.prefix + ":s:" + sessionID
}

func (s *Store) tokenKey(token string) string {
	return s.prefix + ":t:" + token
}

func (s *Store) altKey(hash, ip string) string {
	return s.prefix + ":a:" + hash + ":" + ip
}

// Add persists a new session together with its secondary keys.
func (s *Store) Add(ctx context.Context, sess *Session) error {
	data, err := json.Marshal(sess)
	if err != nil {
		return err
	}

	_, err = s.redis.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, s.key(sess.ID), data, s.lifetime)
		if sess.Hash != "" && sess.LocalIP != "" {
			pipe.Set(ctx, s.altKey(sess.Hash, sess.LocalIP), sess.ID, s.lifetime)
		}
		if sess.RandomToken != "" {
			pipe.Set(ctx, s.tokenKey(sess.RandomToken), sess.ID, s.tokenTTL)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}

	return nil
}

// Get retrieves a session by id and slides its TTL forward. Returns
// [ErrNotFound] for missing or expired sessions.
func (s *Store) Get(ctx context.Context, sessionID string) (*Session, error) {
	sess, err := s.Peek(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	_, err = s.redis.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Expire(ctx, s.key(sessionID), s.lifetime)
		if sess.Hash != "" && sess.LocalIP != "" {
			pipe.Expire(ctx, s.altKey(sess.Hash, sess.LocalIP), s.lifetime)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}

	return sess, nil
}

// Peek retrieves a session without touching its TTL.
func (s *Store) Peek(ctx context.Context, sessionID string) (*Session, error) {
	data, err := s.redis.Get(ctx, s.key(sessionID)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}

	var sess Session
	if err := json.Unmarshal(data, &sess); err != nil {
		return nil, err
	}
	sess.ID = sessionID

	return &sess, nil
}

// GetByAlternative resolves a session through the (hash, remote address)
// index. Used when the client presents no session cookie but the same
// browser recently held one for this hash.
func (s *Store) GetByAlternative(ctx context.Context, hash, ip string) (*Session, error) {
	sessionID, err := s.redis.Get(ctx, s.altKey(hash, ip)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}

	return s.Get(ctx, sessionID)
}

// Redeem consumes a random token and returns the session it pointed at. The
// token is invalidated in the same Redis round-trip as the lookup; a second
// redemption of the same token returns [ErrNotFound].
func (s *Store) Redeem(ctx context.Context, token string) (*Session, error) {
	res, err := redeemTokenLua.Run(ctx, s.redis, []string{s.tokenKey(token)}).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}

	sessionID, ok := res.(string)
	if !ok || sessionID == "" {
		return nil, ErrNotFound
	}

	sess, err := s.Get(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	// The token is gone from the index; drop it from the record too so a
	// dump of the session can never resurrect it.
	if sess.RandomToken != "" {
		sess.RandomToken = ""
		if err := s.rewrite(ctx, sess); err != nil {
			return nil, err
		}
	}

	return sess, nil
}

// Remove deletes a session and all of its secondary keys. Removing an
// already-absent session is not an error.
func (s *Store) Remove(ctx context.Context, sessionID string) error {
	sess, err := s.Peek(ctx, sessionID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil
		}
		return err
	}

	_, err = s.redis.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Del(ctx, s.key(sessionID))
		if sess.Hash != "" && sess.LocalIP != "" {
			pipe.Del(ctx, s.altKey(sess.Hash, sess.LocalIP))
		}
		if sess.RandomToken != "" {
			pipe.Del(ctx, s.tokenKey(sess.RandomToken))
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}

	return nil
}

// UpdateLocalIP rebinds a session to a new remote address and moves the
// alternative index entry along with it.
//
// ATOMICITY NOTE: this is a read-modify-write; two requests racing on the
// same session can interleave, in which case the later write wins. LocalIP
// is advisory metadata under the relaxed policy and re-converges on the next
// request, so last-write-wins is acceptable here.
func (s *Store) UpdateLocalIP(ctx context.Context, sessionID, ip string) (*Session, error) {
	sess, err := s.Peek(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if sess.LocalIP == ip {
		return sess, nil
	}

	oldAlt := s.altKey(sess.Hash, sess.LocalIP)
	sess.LocalIP = ip

	if err := s.moveAlternative(ctx, sess, oldAlt); err != nil {
		return nil, err
	}
	return sess, nil
}

// UpdateClient rebinds a session to a new declared client and cookie hash,
// used by the redirect/redeem handoff when the consuming client differs from
// the creating one.
func (s *Store) UpdateClient(ctx context.Context, sessionID, client, version, hash string) (*Session, error) {
	sess, err := s.Peek(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	oldAlt := s.altKey(sess.Hash, sess.LocalIP)
	sess.Client = client
	sess.Version = version
	sess.Hash = hash

	if err := s.moveAlternative(ctx, sess, oldAlt); err != nil {
		return nil, err
	}
	return sess, nil
}

func (s *Store) moveAlternative(ctx context.Context, sess *Session, oldAlt string) error {
	data, err := json.Marshal(sess)
	if err != nil {
		return err
	}

	newAlt := s.altKey(sess.Hash, sess.LocalIP)
	_, err = s.redis.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, s.key(sess.ID), data, s.lifetime)
		if oldAlt != newAlt {
			pipe.Del(ctx, oldAlt)
		}
		if sess.Hash != "" && sess.LocalIP != "" {
			pipe.Set(ctx, newAlt, sess.ID, s.lifetime)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}

	return nil
}

func (s *Store) rewrite(ctx context.Context, sess *Session) error {
	data, err := json.Marshal(sess)
	if err != nil {
		return err
	}
	if err := s.redis.Set(ctx, s.key(sess.ID), data, s.lifetime).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}
	return nil
}
