package auth

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/videohub/backend/internal/logging"
	"github.com/videohub/backend/internal/models"
)

// DefaultSessionTTL is how long a login session record is retained.
const DefaultSessionTTL = 24 * time.Hour

const sessionKeyPrefix = "session:"

// Cache is the subset of the cache adapter used for session bookkeeping.
// Implementations absorb their own failures.
type Cache interface {
	Get(ctx context.Context, key string, dest any) bool
	Set(ctx context.Context, key string, value any, ttl time.Duration) bool
	Delete(ctx context.Context, key string) bool
}

// Session records a login event. It is kept for audit and logout
// bookkeeping and is never consulted for authorization.
type Session struct {
	UserID  string    `json:"userId"`
	Email   string    `json:"email"`
	Role    string    `json:"role"`
	LoginAt time.Time `json:"loginAt"`
}

// SessionStore keeps login sessions in the cache under session:<token>.
type SessionStore struct {
	cache Cache
	ttl   time.Duration
}

// NewSessionStore constructs a SessionStore. A non-positive ttl falls back
// to DefaultSessionTTL.
func NewSessionStore(cache Cache, ttl time.Duration) *SessionStore {
	if cache == nil {
		panic("auth: session cache must not be nil")
	}
	if ttl <= 0 {
		ttl = DefaultSessionTTL
	}
	return &SessionStore{cache: cache, ttl: ttl}
}

// Create records a session for user and returns its opaque token. The token
// is returned even when the cache write fails.
func (s *SessionStore) Create(ctx context.Context, user models.User, loginAt time.Time) string {
	token := uuid.NewString()

	session := Session{
		UserID:  user.ID,
		Email:   user.Email,
		Role:    user.Role,
		LoginAt: loginAt.UTC(),
	}
	if !s.cache.Set(ctx, sessionKey(token), session, s.ttl) {
		logging.FromContext(ctx).Warn("session not recorded", "userId", user.ID)
	}

	return token
}

// Find loads the session stored for token.
func (s *SessionStore) Find(ctx context.Context, token string) (Session, bool) {
	if token == "" {
		return Session{}, false
	}
	var session Session
	if !s.cache.Get(ctx, sessionKey(token), &session) {
		return Session{}, false
	}
	return session, true
}

// Delete removes the session for token. Unknown tokens are ignored.
func (s *SessionStore) Delete(ctx context.Context, token string) {
	if token == "" {
		return
	}
	s.cache.Delete(ctx, sessionKey(token))
}

func sessionKey(token string) string {
	return sessionKeyPrefix + token
}
