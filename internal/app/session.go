package app

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/sunears/LiaoFansLifeRecord/internal/domain"
)

// Session owns all mutable state for one game. Every mutation happens under
// mu, so concurrent API calls against the same session are serialized.
type Session struct {
	mu sync.Mutex

	id         string
	lang       string
	phase      domain.Phase
	stats      domain.PlayerStats
	hand       []domain.Card
	scenario   *domain.Scenario
	selected   *domain.Card
	resolution *domain.Resolution
	log        []domain.LogEntry
	errMsg     string

	// epoch increments on every (re)start; in-flight generation results
	// carrying an older epoch are discarded.
	epoch   uint64
	touched time.Time
}

// SessionStore is an in-memory session registry with TTL eviction. Sessions
// are ephemeral: there is no persistence across process restarts.
type SessionStore struct {
	mu       sync.RWMutex
	sessions map[string]*Session
	ttl      time.Duration
}

func NewSessionStore(ttl time.Duration) *SessionStore {
	return &SessionStore{
		sessions: make(map[string]*Session),
		ttl:      ttl,
	}
}

// Create registers a fresh session in the init phase.
func (s *SessionStore) Create(lang string) *Session {
	sess := &Session{
		id:      uuid.NewString(),
		lang:    lang,
		phase:   domain.PhaseInit,
		stats:   domain.InitialStats(),
		touched: time.Now(),
	}

	s.mu.Lock()
	s.sessions[sess.id] = sess
	s.mu.Unlock()

	return sess
}

func (s *SessionStore) Get(id string) (*Session, error) {
	s.mu.RLock()
	sess, ok := s.sessions[id]
	s.mu.RUnlock()
	if !ok {
		return nil, domain.ErrSessionNotFound
	}
	return sess, nil
}

func (s *SessionStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}

// Run sweeps expired sessions until ctx is done.
func (s *SessionStore) Run(ctx context.Context) {
	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.sweep(time.Now())
		}
	}
}

func (s *SessionStore) sweep(now time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, sess := range s.sessions {
		sess.mu.Lock()
		expired := now.Sub(sess.touched) > s.ttl
		sess.mu.Unlock()
		if expired {
			delete(s.sessions, id)
		}
	}
}
