package session

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/DanielCifuentes1997/AiVi-bot/internal/domain"
	"github.com/DanielCifuentes1997/AiVi-bot/internal/port"
	"github.com/google/uuid"
)

// MemoryStore keeps sessions in memory keyed by an opaque token.
// A zero idle timeout disables expiry.
type MemoryStore struct {
	mu       sync.RWMutex
	sessions map[string]*domain.Session
	idle     time.Duration
	now      func() time.Time
}

// NewMemoryStore creates a new session store.
func NewMemoryStore(idle time.Duration) *MemoryStore {
	return &MemoryStore{
		sessions: make(map[string]*domain.Session),
		idle:     idle,
		now:      time.Now,
	}
}

// Create replaces any session under token and starts an empty transcript.
func (m *MemoryStore) Create(token, identityID, displayName string) (*domain.Session, error) {
	if token == "" {
		token = uuid.New().String()
	}
	now := m.now()
	sess := &domain.Session{
		Token:       token,
		IdentityID:  identityID,
		DisplayName: displayName,
		Transcript:  []domain.Turn{},
		CreatedAt:   now,
		LastSeen:    now,
	}

	m.mu.Lock()
	m.sessions[token] = sess
	m.mu.Unlock()

	return sess.Clone(), nil
}

// Get returns a copy of the session and refreshes its idle timer.
func (m *MemoryStore) Get(token string) (*domain.Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	sess, err := m.live(token)
	if err != nil {
		return nil, err
	}
	return sess.Clone(), nil
}

// AppendTurn adds a turn to the transcript of identityID's session.
func (m *MemoryStore) AppendTurn(token, identityID string, turn domain.Turn) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	sess, err := m.live(token)
	if err != nil {
		return err
	}
	if sess.IdentityID != identityID {
		return port.ErrNoActiveSession
	}
	sess.Transcript = append(sess.Transcript, turn)
	sess.Modified = true
	return nil
}

// ClearTranscript empties the transcript, keeping the identity fields, and
// returns the removed turns.
func (m *MemoryStore) ClearTranscript(token string) ([]domain.Turn, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	sess, err := m.live(token)
	if err != nil {
		return nil, err
	}
	removed := sess.Transcript
	sess.Transcript = []domain.Turn{}
	sess.Modified = true
	return removed, nil
}

// Destroy removes the session.
func (m *MemoryStore) Destroy(token string) {
	m.mu.Lock()
	delete(m.sessions, token)
	m.mu.Unlock()
}

// Len returns the number of stored sessions, expired or not.
func (m *MemoryStore) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}

// Sweep evicts idle sessions and returns how many were removed.
func (m *MemoryStore) Sweep() int {
	if m.idle <= 0 {
		return 0
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	now := m.now()
	removed := 0
	for token, sess := range m.sessions {
		if now.Sub(sess.LastSeen) > m.idle {
			delete(m.sessions, token)
			removed++
		}
	}
	return removed
}

// Run sweeps idle sessions every interval until ctx is done.
func (m *MemoryStore) Run(ctx context.Context, interval time.Duration) {
	if m.idle <= 0 || interval <= 0 {
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := m.Sweep(); n > 0 {
				slog.Debug("expired idle sessions", "count", n)
			}
		}
	}
}

// live returns the stored session, evicting it if idle. Caller holds mu.
func (m *MemoryStore) live(token string) (*domain.Session, error) {
	sess, ok := m.sessions[token]
	if !ok || token == "" {
		return nil, port.ErrNoActiveSession
	}
	now := m.now()
	if m.idle > 0 && now.Sub(sess.LastSeen) > m.idle {
		delete(m.sessions, token)
		return nil, port.ErrNoActiveSession
	}
	sess.LastSeen = now
	return sess, nil
}

var _ port.SessionStore = (*MemoryStore)(nil)
