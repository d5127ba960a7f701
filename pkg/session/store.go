package session

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// Store defines pluggable session persistence.
type Store interface {
	// Get retrieves a session by id. Returns nil, nil when absent or expired.
	Get(ctx context.Context, sessionID string) (*Session, error)

	// Save creates or replaces a session.
	Save(ctx context.Context, state *Session) error

	// UpdateTurn appends a completed exchange to an existing session.
	UpdateTurn(ctx context.Context, sessionID string, turn *TurnExchange) error

	// Delete removes a session.
	Delete(ctx context.Context, sessionID string) error
}

// InMemoryStore keeps sessions in a process-local map with TTL eviction.
// Suitable for single-node deployments; replicated gateways should use
// RedisStore so state survives routing changes.
type InMemoryStore struct {
	sessions map[string]*Session
	mu       sync.RWMutex

	maxAge       time.Duration
	cleanupEvery time.Duration

	stopCleanup chan struct{}
	cleanupOnce sync.Once
}

// StoreOption is a functional option for configuring InMemoryStore.
type StoreOption func(*InMemoryStore)

// WithMaxAge sets the session TTL. Sessions idle longer than this are
// treated as absent and eventually evicted.
func WithMaxAge(d time.Duration) StoreOption {
	return func(s *InMemoryStore) {
		s.maxAge = d
	}
}

// WithCleanupInterval sets how often the eviction routine runs.
func WithCleanupInterval(d time.Duration) StoreOption {
	return func(s *InMemoryStore) {
		s.cleanupEvery = d
	}
}

// NewInMemoryStore creates a session store with a background eviction
// goroutine. Call Close to stop it.
func NewInMemoryStore(opts ...StoreOption) *InMemoryStore {
	s := &InMemoryStore{
		sessions:     make(map[string]*Session),
		maxAge:       1 * time.Hour,
		cleanupEvery: 5 * time.Minute,
		stopCleanup:  make(chan struct{}),
	}

	for _, opt := range opts {
		opt(s)
	}

	go s.cleanupLoop()

	return s
}

// Get retrieves a session by id. Expired sessions are treated as absent;
// actual eviction happens in the cleanup loop.
func (s *InMemoryStore) Get(_ context.Context, sessionID string) (*Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sess, ok := s.sessions[sessionID]
	if !ok {
		return nil, nil
	}
	if time.Since(sess.LastSeenAt) > s.maxAge {
		return nil, nil
	}
	return sess, nil
}

// Save creates or replaces a session. Any save counts as activity for TTL
// purposes, so sessions that only ever produce blocked turns stay alive.
func (s *InMemoryStore) Save(_ context.Context, state *Session) error {
	if state == nil {
		return fmt.Errorf("session state is nil")
	}
	if state.ID == "" {
		return fmt.Errorf("session id is required")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now().UTC()
	if state.CreatedAt.IsZero() {
		state.CreatedAt = now
	}
	state.LastSeenAt = now

	s.sessions[state.ID] = state
	return nil
}

// UpdateTurn appends a completed exchange to an existing session.
func (s *InMemoryStore) UpdateTurn(_ context.Context, sessionID string, turn *TurnExchange) error {
	if turn == nil {
		return fmt.Errorf("turn exchange is nil")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.sessions[sessionID]
	if !ok {
		return fmt.Errorf("session not found: %s", sessionID)
	}
	sess.ApplyExchange(turn)
	return nil
}

// Delete removes a session.
func (s *InMemoryStore) Delete(_ context.Context, sessionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.sessions, sessionID)
	return nil
}

// Close stops the eviction goroutine.
func (s *InMemoryStore) Close() {
	s.cleanupOnce.Do(func() {
		close(s.stopCleanup)
	})
}

// cleanupLoop periodically removes expired sessions.
func (s *InMemoryStore) cleanupLoop() {
	ticker := time.NewTicker(s.cleanupEvery)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.cleanup()
		case <-s.stopCleanup:
			return
		}
	}
}

func (s *InMemoryStore) cleanup() {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now()
	for id, sess := range s.sessions {
		if now.Sub(sess.LastSeenAt) > s.maxAge {
			delete(s.sessions, id)
		}
	}
}

// StoreStats describes the current in-memory store contents.
type StoreStats struct {
	SessionCount int `json:"session_count"`
	TotalTurns   int `json:"total_turns"`
	Honeypots    int `json:"honeypots"`
}

// Stats returns current session store statistics.
func (s *InMemoryStore) Stats() StoreStats {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stats := StoreStats{
		SessionCount: len(s.sessions),
	}

	for _, sess := range s.sessions {
		stats.TotalTurns += sess.TurnCount
		if sess.IsHoneypot {
			stats.Honeypots++
		}
	}

	return stats
}

// Ensure InMemoryStore implements Store.
var _ Store = (*InMemoryStore)(nil)
