// Package session holds per-conversation state for the pipeline: turn
// history, cumulative risk, the append-only memory transcript, honeypot
// marking, and the stage decision audit trail. Storage is pluggable: an
// in-memory TTL store for single-node deployments and a Redis store for
// replicated gateways.
package session

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"time"
)

// History entry roles.
const (
	TurnRoleUser      = "user"
	TurnRoleAssistant = "assistant"
)

// riskAlpha weights the newest turn score in the cumulative risk average.
const riskAlpha = 0.6

// Turn is one conversation history entry. Each completed exchange appends
// two: the user entry carrying the turn risk score and the assistant entry
// at zero.
type Turn struct {
	Role      string  `json:"role"`
	Content   string  `json:"content"`
	RiskScore float64 `json:"risk_score"`
	Number    int     `json:"turn"`
}

// Decision is one audit record of a stage verdict for a session.
type Decision struct {
	Layer       int       `json:"layer"`
	Action      string    `json:"action"`
	Reason      string    `json:"reason"`
	ThreatScore float64   `json:"threat_score"`
	Turn        int       `json:"turn"`
	Timestamp   time.Time `json:"timestamp"`
}

// TurnExchange is one completed user/assistant exchange ready to be
// appended to a session.
type TurnExchange struct {
	UserText      string
	AssistantText string
	RiskScore     float64
}

// Session is the mutable state of one conversation. The JSON field names
// double as the Redis persistence format and must stay stable.
type Session struct {
	ID             string     `json:"session_id"`
	Role           string     `json:"role"`
	CreatedAt      time.Time  `json:"created_at"`
	LastSeenAt     time.Time  `json:"last_seen_at"`
	TurnCount      int        `json:"turn_count"`
	CumulativeRisk float64    `json:"cumulative_risk_score"`
	History        []Turn     `json:"conversation_history"`
	MemoryContent  string     `json:"memory_content"`
	MemoryHash     string     `json:"memory_hash"`
	IsHoneypot     bool       `json:"is_honeypot"`
	Decisions      []Decision `json:"layer_decisions"`
}

// New creates a fresh session for the given conversation id and caller role.
func New(id, role string) *Session {
	now := time.Now().UTC()
	return &Session{
		ID:         id,
		Role:       role,
		CreatedAt:  now,
		LastSeenAt: now,
	}
}

// ApplyRisk folds a turn score into the cumulative risk as an exponential
// moving average weighted toward recent turns.
func (s *Session) ApplyRisk(score float64) {
	s.CumulativeRisk = riskAlpha*score + (1-riskAlpha)*s.CumulativeRisk
}

// ApplyExchange appends a completed exchange: the turn counter increments
// once, both history entries share the new turn number, and the exchange
// is added to the memory transcript with a refreshed hash.
func (s *Session) ApplyExchange(t *TurnExchange) {
	s.TurnCount++
	s.History = append(s.History,
		Turn{Role: TurnRoleUser, Content: t.UserText, RiskScore: t.RiskScore, Number: s.TurnCount},
		Turn{Role: TurnRoleAssistant, Content: t.AssistantText, Number: s.TurnCount},
	)
	s.MemoryContent += fmt.Sprintf("\nUser: %s\nAssistant: %s", t.UserText, t.AssistantText)
	s.MemoryHash = hashMemory(s.MemoryContent)
	s.LastSeenAt = time.Now().UTC()
}

// RecordDecision appends a stage verdict to the audit trail. Records are
// stamped with the current turn counter, which while a turn is still in
// flight is the previously completed turn.
func (s *Session) RecordDecision(layer int, action, reason string, threatScore float64) {
	s.Decisions = append(s.Decisions, Decision{
		Layer:       layer,
		Action:      action,
		Reason:      reason,
		ThreatScore: threatScore,
		Turn:        s.TurnCount,
		Timestamp:   time.Now().UTC(),
	})
}

// MarkHoneypot flags the session for the decoy path. The flag is sticky
// for the session lifetime.
func (s *Session) MarkHoneypot() {
	s.IsHoneypot = true
}

func hashMemory(content string) string {
	sum := sha256.Sum256([]byte(content))
	return hex.EncodeToString(sum[:])
}
