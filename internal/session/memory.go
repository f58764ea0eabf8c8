package session

import (
	"context"
	"sync"
	"time"
)

// MemoryStore keeps sessions in process memory. Suitable for a single local
// instance; sessions are lost on restart.
type MemoryStore struct {
	mu       sync.Mutex
	sessions map[string]Record
	ttl      time.Duration
	nowFunc  func() time.Time
}

// NewMemoryStore returns an empty MemoryStore. ttl <= 0 disables expiry.
func NewMemoryStore(ttl time.Duration) *MemoryStore {
	return &MemoryStore{
		sessions: map[string]Record{},
		ttl:      ttl,
		nowFunc:  time.Now,
	}
}

func (m *MemoryStore) IssueToken(ctx context.Context, sessionID string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.nowFunc()
	if rec, ok := m.sessions[sessionID]; ok && !rec.expired(now) {
		return rec.CSRF, nil
	}
	token, err := NewToken()
	if err != nil {
		return "", err
	}
	rec := Record{SessionID: sessionID, CSRF: token, CreatedAt: now}
	if m.ttl > 0 {
		rec.ExpiresAt = now.Add(m.ttl).Unix()
	}
	m.sessions[sessionID] = rec
	return token, nil
}

func (m *MemoryStore) Token(ctx context.Context, sessionID string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	rec, ok := m.sessions[sessionID]
	if !ok || rec.expired(m.nowFunc()) {
		return "", nil
	}
	return rec.CSRF, nil
}
