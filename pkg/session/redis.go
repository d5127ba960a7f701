package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisStore persists sessions as JSON values with a server-side TTL, so
// replicated gateways share conversation state. Expiry is handled by Redis
// itself; there is no cleanup goroutine.
type RedisStore struct {
	client    *redis.Client
	keyPrefix string
	ttl       time.Duration
}

// RedisOption is a functional option for configuring RedisStore.
type RedisOption func(*RedisStore)

// WithKeyPrefix overrides the default "rampart:session:" key prefix.
func WithKeyPrefix(prefix string) RedisOption {
	return func(s *RedisStore) {
		s.keyPrefix = prefix
	}
}

// WithTTL sets the per-session expiry. Every write refreshes it.
func WithTTL(d time.Duration) RedisOption {
	return func(s *RedisStore) {
		s.ttl = d
	}
}

// NewRedisStore wraps an existing client. The caller owns the client
// lifecycle.
func NewRedisStore(client *redis.Client, opts ...RedisOption) *RedisStore {
	s := &RedisStore{
		client:    client,
		keyPrefix: "rampart:session:",
		ttl:       1 * time.Hour,
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

func (s *RedisStore) key(sessionID string) string {
	return s.keyPrefix + sessionID
}

// Get retrieves a session by id. Returns nil, nil when the key is absent
// or already expired.
func (s *RedisStore) Get(ctx context.Context, sessionID string) (*Session, error) {
	data, err := s.client.Get(ctx, s.key(sessionID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("redis get %s: %w", sessionID, err)
	}

	var sess Session
	if err := json.Unmarshal(data, &sess); err != nil {
		return nil, fmt.Errorf("decode session %s: %w", sessionID, err)
	}
	return &sess, nil
}

// Save creates or replaces a session, refreshing its TTL.
func (s *RedisStore) Save(ctx context.Context, state *Session) error {
	if state == nil {
		return fmt.Errorf("session state is nil")
	}
	if state.ID == "" {
		return fmt.Errorf("session id is required")
	}

	now := time.Now().UTC()
	if state.CreatedAt.IsZero() {
		state.CreatedAt = now
	}
	state.LastSeenAt = now

	data, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("encode session %s: %w", state.ID, err)
	}
	if err := s.client.Set(ctx, s.key(state.ID), data, s.ttl).Err(); err != nil {
		return fmt.Errorf("redis set %s: %w", state.ID, err)
	}
	return nil
}

// UpdateTurn appends a completed exchange to an existing session. The
// read-modify-write is not atomic on its own; the pipeline's per-session
// lock serializes writers for a given id.
func (s *RedisStore) UpdateTurn(ctx context.Context, sessionID string, turn *TurnExchange) error {
	if turn == nil {
		return fmt.Errorf("turn exchange is nil")
	}

	sess, err := s.Get(ctx, sessionID)
	if err != nil {
		return err
	}
	if sess == nil {
		return fmt.Errorf("session not found: %s", sessionID)
	}

	sess.ApplyExchange(turn)
	return s.Save(ctx, sess)
}

// Delete removes a session.
func (s *RedisStore) Delete(ctx context.Context, sessionID string) error {
	if err := s.client.Del(ctx, s.key(sessionID)).Err(); err != nil {
		return fmt.Errorf("redis del %s: %w", sessionID, err)
	}
	return nil
}

// Ensure RedisStore implements Store.
var _ Store = (*RedisStore)(nil)
