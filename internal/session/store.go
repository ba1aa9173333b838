// Package session implements the server-side session store.  Sessions are
// JSON principals keyed by a random 128-bit identifier in Redis; the cookie
// carries only the identifier, so a leaked cookie can be invalidated
// centrally and nothing secret ever reaches the client.
package session

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/partier/partier/internal/utils"
)

// CookieName is the session cookie set on login and registration.
const CookieName = "partier_session"

const keyPrefix = "sess:"

// ErrNotFound is returned when a session ID is unknown, expired or revoked.
var ErrNotFound = errors.New("session not found")

// Principal is the authenticated identity stored per session.  Role flags
// are snapshotted at login; a role change takes effect on the next login.
type Principal struct {
	UserID       uint64 `json:"userId"`
	Username     string `json:"username"`
	IsOrganizer  bool   `json:"isOrganizer"`
	IsSuperAdmin bool   `json:"isSuperAdmin"`
}

// Store persists sessions in Redis with a fixed TTL.
type Store struct {
	rdb *redis.Client
	ttl time.Duration
}

// NewStore builds a Store.  The Redis client must be non-nil; unlike the
// cache and rate limiter, auth cannot degrade to a no-op.
func NewStore(rdb *redis.Client, ttl time.Duration) *Store {
	if rdb == nil {
		panic("nil redis client passed to session.NewStore")
	}
	return &Store{rdb: rdb, ttl: ttl}
}

// newID is swapped out by tests that need a deterministic identifier.
var newID = func() (string, error) { return utils.RandomHex(16) }

// Create stores the principal under a fresh session ID and returns the ID.
func (s *Store) Create(ctx context.Context, p Principal) (string, error) {
	id, err := newID()
	if err != nil {
		return "", err
	}
	data, err := json.Marshal(p)
	if err != nil {
		return "", err
	}
	if err := s.rdb.Set(ctx, keyPrefix+id, data, s.ttl).Err(); err != nil {
		return "", err
	}
	return id, nil
}

// Get resolves a session ID to its principal.  Unknown and expired IDs both
// return ErrNotFound.
func (s *Store) Get(ctx context.Context, id string) (Principal, error) {
	var p Principal
	data, err := s.rdb.Get(ctx, keyPrefix+id).Bytes()
	if err == redis.Nil {
		return p, ErrNotFound
	}
	if err != nil {
		return p, err
	}
	if err := json.Unmarshal(data, &p); err != nil {
		return p, err
	}
	return p, nil
}

// Destroy revokes a session.  Deleting an already-gone session is not an
// error.
func (s *Store) Destroy(ctx context.Context, id string) error {
	return s.rdb.Del(ctx, keyPrefix+id).Err()
}

// TTL reports the configured session lifetime.
func (s *Store) TTL() time.Duration { return s.ttl }

// Cookie builds the HTTP cookie carrying the session ID.  An empty id with
// maxAge -1 clears the cookie on logout.
func Cookie(id string, ttl time.Duration, secure bool) *http.Cookie {
	maxAge := int(ttl / time.Second)
	if id == "" {
		maxAge = -1
	}
	return &http.Cookie{
		Name:     CookieName,
		Value:    id,
		Path:     "/",
		MaxAge:   maxAge,
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
	}
}
