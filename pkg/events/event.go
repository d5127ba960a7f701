// Package events carries stage decisions out of the pipeline: an immutable
// SecurityEvent record, a fan-out Bus for live observers (the SSE feed),
// a synchronous Sink list for aggregation and metrics, and a best-effort
// Postgres sink. Nothing in this package may block or fail a turn.
package events

import "time"

// SecurityEvent is one stage decision. Field names are part of the wire
// contract shared by the SSE feed and the events table.
type SecurityEvent struct {
	EventID     string         `json:"event_id"`
	Timestamp   time.Time      `json:"timestamp"`
	SessionID   string         `json:"session_id"`
	Layer       int            `json:"layer"`
	Action      string         `json:"action"`
	ThreatScore float64        `json:"threat_score"`
	Reason      string         `json:"reason"`
	OWASPTag    string         `json:"owasp_tag"`
	TurnNumber  int            `json:"turn_number"`
	XCoord      float64        `json:"x_coord"`
	YCoord      float64        `json:"y_coord"`
	Metadata    map[string]any `json:"metadata"`
}
