package events

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"go.uber.org/zap"
)

// ============================================================
// POSTGRES SINK (fake execer)
// ============================================================

type execCall struct {
	sql  string
	args []any
}

type fakeExecer struct {
	mu      sync.Mutex
	calls   []execCall
	err     error
	started chan struct{} // signaled before blocking on gate
	gate    chan struct{} // when non-nil, Exec blocks until closed
	done    chan struct{} // signaled after each Exec returns
}

func (f *fakeExecer) Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	if f.gate != nil {
		if f.started != nil {
			f.started <- struct{}{}
		}
		select {
		case <-f.gate:
		case <-ctx.Done():
			f.signalDone()
			return pgconn.CommandTag{}, ctx.Err()
		}
	}
	f.mu.Lock()
	f.calls = append(f.calls, execCall{sql: sql, args: args})
	f.mu.Unlock()
	f.signalDone()
	return pgconn.CommandTag{}, f.err
}

func (f *fakeExecer) signalDone() {
	if f.done != nil {
		f.done <- struct{}{}
	}
}

func (f *fakeExecer) snapshot() []execCall {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]execCall, len(f.calls))
	copy(out, f.calls)
	return out
}

func waitWrites(t *testing.T, done chan struct{}, n int) {
	t.Helper()
	for i := 0; i < n; i++ {
		select {
		case <-done:
		case <-time.After(2 * time.Second):
			t.Fatalf("timed out waiting for write %d of %d", i+1, n)
		}
	}
}

func findCall(calls []execCall, fragment string) (execCall, bool) {
	for _, c := range calls {
		if strings.Contains(c.sql, fragment) {
			return c, true
		}
	}
	return execCall{}, false
}

func TestPGSinkConsumeWritesEvent(t *testing.T) {
	fake := &fakeExecer{done: make(chan struct{}, 8)}
	sink := NewPGSink(fake, zap.NewNop())

	sink.Consume(SecurityEvent{
		EventID:     "ev-1",
		Timestamp:   time.Now().UTC(),
		SessionID:   "sess-1",
		Layer:       4,
		Action:      "BLOCKED",
		ThreatScore: 0.9,
		Reason:      "Drift velocity alert",
		OWASPTag:    "LLM01:2025",
		TurnNumber:  2,
		XCoord:      1.5,
		YCoord:      -2.25,
		Metadata:    map[string]any{"velocity": 0.3},
	})
	waitWrites(t, fake.done, 1)

	calls := fake.snapshot()
	if len(calls) != 1 {
		t.Fatalf("writes = %d, want 1", len(calls))
	}
	c := calls[0]
	if !strings.Contains(c.sql, "INSERT INTO events") {
		t.Errorf("sql = %q", c.sql)
	}
	if len(c.args) != 12 {
		t.Fatalf("args = %d, want 12", len(c.args))
	}
	if c.args[0] != "ev-1" || c.args[1] != "sess-1" || c.args[2] != 4 {
		t.Errorf("identity args = %v", c.args[:3])
	}
	if c.args[4] != 0.9 || c.args[8] != 1.5 || c.args[9] != -2.25 {
		t.Errorf("numeric args = %v %v %v", c.args[4], c.args[8], c.args[9])
	}
	meta, ok := c.args[10].([]byte)
	if !ok || !strings.Contains(string(meta), `"velocity":0.3`) {
		t.Errorf("metadata arg = %v", c.args[10])
	}

	if err := sink.Close(context.Background()); err != nil {
		t.Errorf("Close: %v", err)
	}
}

func TestPGSinkSessionLifecycle(t *testing.T) {
	fake := &fakeExecer{done: make(chan struct{}, 8)}
	sink := NewPGSink(fake, zap.NewNop())

	sink.LogSessionStart("sess-1", "guest")
	sink.LogSessionEnd("sess-1", 5, 0.42, true)
	waitWrites(t, fake.done, 2)

	calls := fake.snapshot()

	start, ok := findCall(calls, "INSERT INTO sessions")
	if !ok {
		t.Fatal("no session insert issued")
	}
	if !strings.Contains(start.sql, "ON CONFLICT (session_id) DO NOTHING") {
		t.Errorf("start sql = %q, want conflict no-op", start.sql)
	}
	if start.args[0] != "sess-1" || start.args[1] != "guest" {
		t.Errorf("start args = %v", start.args)
	}

	end, ok := findCall(calls, "UPDATE sessions")
	if !ok {
		t.Fatal("no session update issued")
	}
	if end.args[1] != 5 || end.args[2] != 0.42 || end.args[3] != true {
		t.Errorf("end args = %v", end.args)
	}

	if err := sink.Close(context.Background()); err != nil {
		t.Errorf("Close: %v", err)
	}
}

func TestPGSinkMemorySnapshot(t *testing.T) {
	fake := &fakeExecer{done: make(chan struct{}, 8)}
	sink := NewPGSink(fake, zap.NewNop())

	sink.LogMemorySnapshot("sess-1", "abc123", 42, true, "Suspicious memory modification")
	waitWrites(t, fake.done, 1)

	c := fake.snapshot()[0]
	if !strings.Contains(c.sql, "INSERT INTO memory_snapshots") {
		t.Errorf("sql = %q", c.sql)
	}
	if c.args[1] != "abc123" || c.args[2] != 42 || c.args[3] != true {
		t.Errorf("args = %v", c.args)
	}

	if err := sink.Close(context.Background()); err != nil {
		t.Errorf("Close: %v", err)
	}
}

func TestPGSinkHoneypotMessage(t *testing.T) {
	fake := &fakeExecer{done: make(chan struct{}, 8)}
	sink := NewPGSink(fake, zap.NewNop())

	sink.LogHoneypotMessage("sess-1", "assistant", "decoy reply")
	waitWrites(t, fake.done, 1)

	c := fake.snapshot()[0]
	if !strings.Contains(c.sql, "honeypot_sessions") ||
		!strings.Contains(c.sql, "ON CONFLICT (session_id) DO UPDATE") {
		t.Errorf("sql = %q", c.sql)
	}
	msg, ok := c.args[1].([]byte)
	if !ok {
		t.Fatalf("message arg = %T", c.args[1])
	}
	if !strings.Contains(string(msg), `"role":"assistant"`) ||
		!strings.Contains(string(msg), `"content":"decoy reply"`) {
		t.Errorf("message = %s", msg)
	}

	if err := sink.Close(context.Background()); err != nil {
		t.Errorf("Close: %v", err)
	}
}

func TestPGSinkWriteFailureSwallowed(t *testing.T) {
	fake := &fakeExecer{done: make(chan struct{}, 8), err: errors.New("connection refused")}
	sink := NewPGSink(fake, zap.NewNop())

	sink.Consume(SecurityEvent{EventID: "ev-1", SessionID: "sess-1"})
	waitWrites(t, fake.done, 1)

	// The failure is logged, never surfaced; the sink keeps accepting.
	sink.Consume(SecurityEvent{EventID: "ev-2", SessionID: "sess-1"})
	waitWrites(t, fake.done, 1)

	if got := len(fake.snapshot()); got != 2 {
		t.Errorf("writes attempted = %d, want 2", got)
	}
	if err := sink.Close(context.Background()); err != nil {
		t.Errorf("Close: %v", err)
	}
}

func TestPGSinkSaturationDrops(t *testing.T) {
	fake := &fakeExecer{
		done:    make(chan struct{}, 8),
		started: make(chan struct{}, 1),
		gate:    make(chan struct{}),
	}
	sink := NewPGSink(fake, zap.NewNop(), WithConcurrency(1))

	sink.LogSessionStart("sess-1", "guest")
	<-fake.started // the only slot is now held by a blocked write

	sink.LogSessionStart("sess-2", "guest")
	if got := sink.Dropped(); got != 1 {
		t.Errorf("Dropped = %d, want 1", got)
	}

	close(fake.gate)
	waitWrites(t, fake.done, 1)
	if got := len(fake.snapshot()); got != 1 {
		t.Errorf("writes = %d, want 1; dropped write must never run", got)
	}

	if err := sink.Close(context.Background()); err != nil {
		t.Errorf("Close: %v", err)
	}
}

func TestPGSinkCloseWaitsForInflight(t *testing.T) {
	fake := &fakeExecer{
		done:    make(chan struct{}, 8),
		started: make(chan struct{}, 1),
		gate:    make(chan struct{}),
	}
	sink := NewPGSink(fake, zap.NewNop(), WithConcurrency(1), WithWriteTimeout(5*time.Second))

	sink.LogSessionStart("sess-1", "guest")
	<-fake.started

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	if err := sink.Close(ctx); err == nil {
		t.Error("Close must fail while a write is still in flight")
	}

	close(fake.gate)
	waitWrites(t, fake.done, 1)
	if err := sink.Close(context.Background()); err != nil {
		t.Errorf("Close after drain: %v", err)
	}
}

func TestPGSinkEnsureSchema(t *testing.T) {
	fake := &fakeExecer{}
	sink := NewPGSink(fake, zap.NewNop())

	if err := sink.EnsureSchema(context.Background()); err != nil {
		t.Fatalf("EnsureSchema: %v", err)
	}

	calls := fake.snapshot()
	if len(calls) != 5 {
		t.Fatalf("statements = %d, want 5", len(calls))
	}
	var all strings.Builder
	for _, c := range calls {
		all.WriteString(c.sql)
	}
	for _, table := range []string{"events", "sessions", "memory_snapshots", "honeypot_sessions"} {
		if !strings.Contains(all.String(), "CREATE TABLE IF NOT EXISTS "+table) {
			t.Errorf("schema missing table %s", table)
		}
	}
}

func TestPGSinkEnsureSchemaPropagatesError(t *testing.T) {
	fake := &fakeExecer{err: errors.New("permission denied")}
	sink := NewPGSink(fake, zap.NewNop())

	if err := sink.EnsureSchema(context.Background()); err == nil {
		t.Error("EnsureSchema must surface DDL failures")
	}
}
