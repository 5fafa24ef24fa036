package identity

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
	goredis "github.com/redis/go-redis/v9"

	"propverify/internal/platform/metrics"
	"propverify/internal/platform/redis"
	id "propverify/pkg/domain"
	dErrors "propverify/pkg/domain-errors"
	"propverify/pkg/platform/middleware/auth"
	"propverify/pkg/platform/sentinel"
)

// SessionStore looks up the user behind an opaque session id. It returns
// sentinel.ErrNotFound for unknown or expired sessions.
type SessionStore interface {
	Lookup(ctx context.Context, sessionID string) (Session, error)
}

// Session is what the marketplace stores per logged-in browser.
type Session struct {
	UserID   id.UserID `json:"user_id"`
	Reviewer bool      `json:"reviewer,omitempty"`
}

// SessionProvider resolves session ids through an expiring LRU in front of
// the session store. Only found sessions are cached.
type SessionProvider struct {
	store   SessionStore
	cache   *expirable.LRU[string, Session]
	metrics *metrics.Metrics
}

func NewSessionProvider(store SessionStore, size int, ttl time.Duration, m *metrics.Metrics) *SessionProvider {
	if size <= 0 {
		size = 10_000
	}
	return &SessionProvider{
		store:   store,
		cache:   expirable.NewLRU[string, Session](size, nil, ttl),
		metrics: m,
	}
}

func (p *SessionProvider) Resolve(ctx context.Context, creds auth.Credentials) (*auth.Identity, error) {
	if creds.SessionID == "" {
		return nil, ErrNotApplicable
	}
	if sess, ok := p.cache.Get(creds.SessionID); ok {
		if p.metrics != nil {
			p.metrics.IncSessionCacheHit()
		}
		return sess.identity(), nil
	}
	if p.metrics != nil {
		p.metrics.IncSessionCacheMiss()
	}

	sess, err := p.store.Lookup(ctx, creds.SessionID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, ErrNotApplicable
		}
		return nil, dErrors.Translate(err, "look up session")
	}
	if sess.UserID.IsNil() {
		return nil, dErrors.New(dErrors.CodeUnauthorized, "session has no user")
	}
	p.cache.Add(creds.SessionID, sess)
	return sess.identity(), nil
}

// Forget evicts a session, e.g. after logout.
func (p *SessionProvider) Forget(sessionID string) {
	p.cache.Remove(sessionID)
}

func (s Session) identity() *auth.Identity {
	return &auth.Identity{UserID: s.UserID, Reviewer: s.Reviewer, Source: "session"}
}

// MemorySessions is a SessionStore for development and tests.
type MemorySessions struct {
	mu       sync.RWMutex
	sessions map[string]Session
}

func NewMemorySessions() *MemorySessions {
	return &MemorySessions{sessions: make(map[string]Session)}
}

func (m *MemorySessions) Put(sessionID string, sess Session) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sessions[sessionID] = sess
}

func (m *MemorySessions) Lookup(_ context.Context, sessionID string) (Session, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	sess, ok := m.sessions[sessionID]
	if !ok {
		return Session{}, fmt.Errorf("session: %w", sentinel.ErrNotFound)
	}
	return sess, nil
}

// RedisSessions reads sessions the marketplace writes to Redis as JSON under
// "<prefix><session id>".
type RedisSessions struct {
	client *redis.Client
	prefix string
}

func NewRedisSessions(client *redis.Client, prefix string) *RedisSessions {
	if prefix == "" {
		prefix = "session:"
	}
	return &RedisSessions{client: client, prefix: prefix}
}

func (r *RedisSessions) Lookup(ctx context.Context, sessionID string) (Session, error) {
	raw, err := r.client.Get(ctx, r.prefix+sessionID).Bytes()
	if err != nil {
		if errors.Is(err, goredis.Nil) {
			return Session{}, fmt.Errorf("session: %w", sentinel.ErrNotFound)
		}
		return Session{}, fmt.Errorf("get session: %w: %w", sentinel.ErrUnavailable, err)
	}
	var sess Session
	if err := json.Unmarshal(raw, &sess); err != nil {
		return Session{}, fmt.Errorf("decode session: %w", err)
	}
	return sess, nil
}
