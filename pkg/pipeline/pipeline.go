// Package pipeline runs the turn processing loop: load the session,
// walk the inspection stages in order with fail-secure wrapping, decide
// on honeypot redirection, call the generator, filter its output, and
// persist what happened. One Pipeline instance serves every session;
// turns for the same session are serialized by a keyed mutex, turns for
// different sessions proceed in parallel.
package pipeline

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/rampart-sec/rampart/pkg/events"
	"github.com/rampart-sec/rampart/pkg/guard"
	"github.com/rampart-sec/rampart/pkg/llm"
	"github.com/rampart-sec/rampart/pkg/session"
	"github.com/rampart-sec/rampart/pkg/telemetry"
)

// Lifecycle receives session milestones that fall outside the event
// stream: creation, teardown, memory quarantines, and the honeypot
// transcript. events.PGSink implements it; a nil Lifecycle is skipped.
type Lifecycle interface {
	LogSessionStart(sessionID, role string)
	LogSessionEnd(sessionID string, totalTurns int, finalRisk float64, honeypot bool)
	LogMemorySnapshot(sessionID, snapshotHash string, contentLength int, quarantined bool, reason string)
	LogHoneypotMessage(sessionID, role, content string)
}

// Pipeline owns the nine stages and everything a turn touches. Build it
// with New and share one instance across the gateway.
type Pipeline struct {
	store  session.Store
	seeds  *guard.SeedStore
	locks  *session.KeyedMutex
	states *stateTable
	log    *zap.Logger

	ingestion *guard.IngestionGuard
	toolScan  *guard.ToolScanner
	ragScan   *guard.RAGScanner
	memory    *guard.MemoryVerifier
	drift     *guard.DriftEngine
	output    *guard.OutputGuard
	honeypot  *guard.HoneypotEngine
	agents    *guard.AgentValidator
	adaptive  *guard.AdaptiveEngine
	observer  *guard.Observability

	bus       *events.Bus
	metrics   *telemetry.Collector
	lifecycle Lifecycle

	generator     llm.Generator
	generatorName string
	decoy         *llm.HoneypotGenerator

	honeypotOn       bool
	adaptiveOn       bool
	adaptiveStore    string
	systemPromptHash string
}

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithBus substitutes an externally built event bus, usually so the
// caller can attach sinks before the first turn.
func WithBus(bus *events.Bus) Option {
	return func(p *Pipeline) {
		p.bus = bus
	}
}

// WithGenerator sets the primary response generator. name labels the
// backend in generation metrics.
func WithGenerator(g llm.Generator, name string) Option {
	return func(p *Pipeline) {
		if g != nil {
			p.generator = g
		}
		if name != "" {
			p.generatorName = name
		}
	}
}

// WithDecoy sets the generator used for honeypot sessions.
func WithDecoy(d *llm.HoneypotGenerator) Option {
	return func(p *Pipeline) {
		if d != nil {
			p.decoy = d
		}
	}
}

// WithMetrics attaches a Prometheus collector. The collector is also
// registered as a bus sink so stage decisions are counted at the source.
func WithMetrics(c *telemetry.Collector) Option {
	return func(p *Pipeline) {
		p.metrics = c
	}
}

// WithLifecycle attaches a session lifecycle sink.
func WithLifecycle(l Lifecycle) Option {
	return func(p *Pipeline) {
		p.lifecycle = l
	}
}

// WithAdaptiveStorePath points the adaptive engine's durable pattern
// store at a different file.
func WithAdaptiveStorePath(path string) Option {
	return func(p *Pipeline) {
		if path != "" {
			p.adaptiveStore = path
		}
	}
}

// WithHoneypotEnabled toggles honeypot redirection. Disabled pipelines
// still run every stage; confirmed attackers just get blocked instead
// of trapped.
func WithHoneypotEnabled(enabled bool) Option {
	return func(p *Pipeline) {
		p.honeypotOn = enabled
	}
}

// WithAdaptiveEnabled toggles the attack learning feed into stage 8.
func WithAdaptiveEnabled(enabled bool) Option {
	return func(p *Pipeline) {
		p.adaptiveOn = enabled
	}
}

// WithSystemPrompt records the hash of the generator's system prompt so
// the output guard can tag suspected leaks of it.
func WithSystemPrompt(prompt string) Option {
	return func(p *Pipeline) {
		if prompt == "" {
			p.systemPromptHash = ""
			return
		}
		sum := sha256.Sum256([]byte(prompt))
		p.systemPromptHash = hex.EncodeToString(sum[:])
	}
}

// New wires a pipeline around the given session store and seed store.
// The seed store may be empty or nil; semantic scoring degrades to the
// pattern tables until seeds are loaded.
func New(store session.Store, seeds *guard.SeedStore, log *zap.Logger, opts ...Option) *Pipeline {
	if log == nil {
		log = zap.NewNop()
	}

	p := &Pipeline{
		store:  store,
		seeds:  seeds,
		locks:  session.NewKeyedMutex(),
		states: newStateTable(),
		log:    log,

		ingestion: guard.NewIngestionGuard(seeds),
		toolScan:  guard.NewToolScanner(),
		ragScan:   guard.NewRAGScanner(),
		memory:    guard.NewMemoryVerifier(seeds),
		drift:     guard.NewDriftEngine(),
		output:    guard.NewOutputGuard(),
		honeypot:  guard.NewHoneypotEngine(),
		agents:    guard.NewAgentValidator(),
		observer:  guard.NewObservability(),

		generatorName: "primary",
		honeypotOn:    true,
		adaptiveOn:    true,
		adaptiveStore: "adaptive_patterns.json",
	}

	for _, opt := range opts {
		opt(p)
	}

	if p.bus == nil {
		p.bus = events.NewBus(log)
	}
	if p.generator == nil {
		p.generator = &llm.StaticGenerator{Response: llm.FallbackUnavailable}
	}
	if p.decoy == nil {
		p.decoy = llm.NewHoneypotGenerator(log)
	}
	p.adaptive = guard.NewAdaptiveEngine(p.adaptiveStore)

	// Stage 9 sees every published decision; the metrics collector
	// rides the same sink list.
	p.bus.AddSink(observerSink{p.observer})
	if p.metrics != nil {
		p.bus.AddSink(p.metrics)
		p.metrics.ObserveBus(p.bus)
	}

	return p
}

// Bus exposes the event bus for live subscribers (the SSE feed).
func (p *Pipeline) Bus() *events.Bus {
	return p.bus
}

// StageSummary is one stage's verdict line in a turn result.
type StageSummary struct {
	Layer       int     `json:"layer"`
	Action      string  `json:"action"`
	ThreatScore float64 `json:"threat_score"`
}

// TurnResult is what a chat caller gets back. Blocked turns carry a
// fixed generic message; the detailed reason stays in the audit trail
// and the event stream, with only the summary lines echoed here.
type TurnResult struct {
	SessionID   string         `json:"session_id"`
	Response    string         `json:"response"`
	Blocked     bool           `json:"blocked"`
	BlockReason string         `json:"block_reason,omitempty"`
	BlockLayer  int            `json:"block_layer,omitempty"`
	TurnNumber  int            `json:"turn_number"`
	Stages      []StageSummary `json:"layers"`
}

// ResetSession tears down a session: the lifecycle sink gets a final
// summary, the in-process drift state is cleared, and the store record
// is removed. The next message under the same id starts clean.
func (p *Pipeline) ResetSession(ctx context.Context, sessionID string) error {
	if sessionID == "" {
		return &guard.ValidationError{Field: "session_id", Detail: "must not be empty"}
	}

	p.locks.Lock(sessionID)
	defer p.locks.Unlock(sessionID)

	sess, err := p.store.Get(ctx, sessionID)
	if err != nil {
		return fmt.Errorf("load session %s: %w", sessionID, err)
	}
	if sess != nil && p.lifecycle != nil {
		p.lifecycle.LogSessionEnd(sessionID, sess.TurnCount, sess.CumulativeRisk, sess.IsHoneypot)
	}
	p.states.drop(sessionID)
	return p.store.Delete(ctx, sessionID)
}

func (p *Pipeline) recordTurn(outcome string, start time.Time) {
	if p.metrics != nil {
		p.metrics.RecordTurn(outcome, time.Since(start))
	}
}

func (p *Pipeline) saveSession(ctx context.Context, sess *session.Session) {
	if err := p.store.Save(ctx, sess); err != nil {
		p.log.Warn("session save failed",
			zap.String("session_id", sess.ID),
			zap.Error(err))
	}
}
