package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"go.uber.org/zap"

	"github.com/rampart-sec/rampart/pkg/httputil"
)

// Execer is the slice of pgxpool.Pool the sink needs. Accepting the
// interface keeps the sink testable without a live server.
type Execer interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

// PGSink mirrors pipeline activity into Postgres. Writes run on their own
// goroutines behind a semaphore: saturation drops the write, errors are
// logged and swallowed. The dashboard reads these tables; the pipeline
// never does, so losing a row costs nothing but history.
type PGSink struct {
	db          Execer
	sem         *httputil.Semaphore
	concurrency int
	timeout     time.Duration
	log         *zap.Logger
}

// PGSinkOption is a functional option for configuring a PGSink.
type PGSinkOption func(*PGSink)

// WithConcurrency caps simultaneous in-flight writes.
func WithConcurrency(n int) PGSinkOption {
	return func(s *PGSink) {
		if n > 0 {
			s.concurrency = n
		}
	}
}

// WithWriteTimeout bounds each write. Expired writes are abandoned, not
// retried.
func WithWriteTimeout(d time.Duration) PGSinkOption {
	return func(s *PGSink) {
		if d > 0 {
			s.timeout = d
		}
	}
}

// NewPGSink wraps a pgx pool (or anything exposing Exec). A nil logger
// disables sink logging.
func NewPGSink(db Execer, log *zap.Logger, opts ...PGSinkOption) *PGSink {
	if log == nil {
		log = zap.NewNop()
	}
	s := &PGSink{
		db:          db,
		concurrency: 16,
		timeout:     3 * time.Second,
		log:         log,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.sem = httputil.NewSemaphore(s.concurrency)
	return s
}

const insertEventSQL = `
INSERT INTO events
    (event_id, session_id, layer, action, threat_score, reason, owasp_tag,
     turn_number, x_coord, y_coord, metadata, timestamp)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`

// Consume mirrors one event into the events table. Implements Sink.
func (s *PGSink) Consume(ev SecurityEvent) {
	s.submit("insert event", func(ctx context.Context) error {
		meta, err := json.Marshal(ev.Metadata)
		if err != nil {
			return fmt.Errorf("encode metadata: %w", err)
		}
		_, err = s.db.Exec(ctx, insertEventSQL,
			ev.EventID, ev.SessionID, ev.Layer, ev.Action, ev.ThreatScore,
			ev.Reason, ev.OWASPTag, ev.TurnNumber, ev.XCoord, ev.YCoord,
			meta, ev.Timestamp)
		return err
	})
}

const insertSessionSQL = `
INSERT INTO sessions (session_id, role, total_turns, final_risk_score, is_honeypot)
VALUES ($1, $2, 0, 0.0, false)
ON CONFLICT (session_id) DO NOTHING`

// LogSessionStart records a session row the first time a conversation id
// appears. Re-logging an id is a no-op so an evicted-then-reused session
// cannot wipe its recorded totals.
func (s *PGSink) LogSessionStart(sessionID, role string) {
	s.submit("session start", func(ctx context.Context) error {
		_, err := s.db.Exec(ctx, insertSessionSQL, sessionID, role)
		return err
	})
}

const endSessionSQL = `
UPDATE sessions
SET total_turns = $2, final_risk_score = $3, is_honeypot = $4, ended_at = now()
WHERE session_id = $1`

// LogSessionEnd records final session totals.
func (s *PGSink) LogSessionEnd(sessionID string, totalTurns int, finalRisk float64, honeypot bool) {
	s.submit("session end", func(ctx context.Context) error {
		_, err := s.db.Exec(ctx, endSessionSQL, sessionID, totalTurns, finalRisk, honeypot)
		return err
	})
}

const insertSnapshotSQL = `
INSERT INTO memory_snapshots
    (session_id, snapshot_hash, content_length, quarantined, quarantine_reason)
VALUES ($1, $2, $3, $4, $5)`

// LogMemorySnapshot records a memory verification outcome.
func (s *PGSink) LogMemorySnapshot(sessionID, snapshotHash string, contentLength int, quarantined bool, reason string) {
	s.submit("memory snapshot", func(ctx context.Context) error {
		_, err := s.db.Exec(ctx, insertSnapshotSQL,
			sessionID, snapshotHash, contentLength, quarantined, reason)
		return err
	})
}

const appendHoneypotSQL = `
INSERT INTO honeypot_sessions (session_id, messages, total_messages, attack_type)
VALUES ($1, jsonb_build_array($2::jsonb), 1, 'unknown')
ON CONFLICT (session_id) DO UPDATE SET
    messages = honeypot_sessions.messages || $2::jsonb,
    total_messages = honeypot_sessions.total_messages + 1`

// LogHoneypotMessage appends one side of a deceptive exchange to the
// session's honeypot transcript.
func (s *PGSink) LogHoneypotMessage(sessionID, role, content string) {
	s.submit("honeypot message", func(ctx context.Context) error {
		msg, err := json.Marshal(map[string]any{
			"role":      role,
			"content":   content,
			"timestamp": time.Now().UTC().Format(time.RFC3339),
		})
		if err != nil {
			return fmt.Errorf("encode honeypot message: %w", err)
		}
		_, err = s.db.Exec(ctx, appendHoneypotSQL, sessionID, msg)
		return err
	})
}

var schemaStatements = []string{
	`CREATE TABLE IF NOT EXISTS events (
		event_id     TEXT PRIMARY KEY,
		session_id   TEXT NOT NULL,
		layer        INT NOT NULL,
		action       TEXT NOT NULL,
		threat_score DOUBLE PRECISION NOT NULL,
		reason       TEXT NOT NULL DEFAULT '',
		owasp_tag    TEXT NOT NULL DEFAULT '',
		turn_number  INT NOT NULL DEFAULT 0,
		x_coord      DOUBLE PRECISION NOT NULL DEFAULT 0,
		y_coord      DOUBLE PRECISION NOT NULL DEFAULT 0,
		metadata     JSONB NOT NULL DEFAULT '{}'::jsonb,
		timestamp    TIMESTAMPTZ NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS events_session_idx
		ON events (session_id, timestamp DESC)`,
	`CREATE TABLE IF NOT EXISTS sessions (
		session_id       TEXT PRIMARY KEY,
		role             TEXT NOT NULL DEFAULT 'guest',
		total_turns      INT NOT NULL DEFAULT 0,
		final_risk_score DOUBLE PRECISION NOT NULL DEFAULT 0,
		is_honeypot      BOOLEAN NOT NULL DEFAULT false,
		started_at       TIMESTAMPTZ NOT NULL DEFAULT now(),
		ended_at         TIMESTAMPTZ
	)`,
	`CREATE TABLE IF NOT EXISTS memory_snapshots (
		id                BIGSERIAL PRIMARY KEY,
		session_id        TEXT NOT NULL,
		snapshot_hash     TEXT NOT NULL,
		content_length    INT NOT NULL DEFAULT 0,
		quarantined       BOOLEAN NOT NULL DEFAULT false,
		quarantine_reason TEXT NOT NULL DEFAULT '',
		created_at        TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE TABLE IF NOT EXISTS honeypot_sessions (
		session_id     TEXT PRIMARY KEY,
		messages       JSONB NOT NULL DEFAULT '[]'::jsonb,
		total_messages INT NOT NULL DEFAULT 0,
		attack_type    TEXT NOT NULL DEFAULT 'unknown',
		created_at     TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
}

// EnsureSchema creates the mirror tables if missing. Unlike the write
// paths this is synchronous and returns its error: a broken schema should
// surface at startup, not as a stream of dropped writes.
func (s *PGSink) EnsureSchema(ctx context.Context) error {
	for _, stmt := range schemaStatements {
		if _, err := s.db.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("ensure schema: %w", err)
		}
	}
	return nil
}

// Dropped reports writes discarded because the sink was saturated.
func (s *PGSink) Dropped() int64 {
	return s.sem.DroppedCount()
}

// Stats snapshots write concurrency for the health endpoint.
func (s *PGSink) Stats() httputil.SemaphoreStats {
	return s.sem.Stats()
}

// Close blocks until in-flight writes drain or the context expires.
func (s *PGSink) Close(ctx context.Context) error {
	for i := 0; i < s.concurrency; i++ {
		if err := s.sem.Acquire(ctx); err != nil {
			return fmt.Errorf("drain postgres sink: %w", err)
		}
	}
	return nil
}

// submit runs one write behind the semaphore.
func (s *PGSink) submit(op string, fn func(ctx context.Context) error) {
	if !s.sem.TryAcquire() {
		s.log.Debug("postgres sink saturated, dropping write", zap.String("op", op))
		return
	}
	go func() {
		defer s.sem.Release()
		ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
		defer cancel()
		if err := fn(ctx); err != nil {
			s.log.Warn("postgres write failed", zap.String("op", op), zap.Error(err))
		}
	}()
}

// Ensure PGSink implements Sink.
var _ Sink = (*PGSink)(nil)
