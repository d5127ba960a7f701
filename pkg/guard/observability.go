package guard

import (
	"fmt"
	"sort"
	"sync"
	"time"
)

// layerNames are the fixed display names used on the dashboard.
var layerNames = map[int]string{
	LayerIngestion:     "Ingestion Guard",
	LayerPreExecution:  "Pre-Execution Scanner",
	LayerMemory:        "Memory Integrity",
	LayerDrift:         "Conversation Intelligence",
	LayerOutput:        "Output Firewall",
	LayerHoneypot:      "Honeypot Tarpit",
	LayerInterAgent:    "Inter-Agent Zero Trust",
	LayerAdaptive:      "Adaptive Learning",
	LayerObservability: "Observability",
}

// LayerName returns the display name for a pipeline layer number.
func LayerName(layer int) string {
	if name, ok := layerNames[layer]; ok {
		return name
	}
	return fmt.Sprintf("Layer %d", layer)
}

// maxObservedEvents bounds the rolling event log. Oldest entries are
// dropped past this point.
const maxObservedEvents = 10000

// LayerMetrics is the per-layer breakdown row of a dashboard snapshot.
type LayerMetrics struct {
	LayerID        int     `json:"layer_id"`
	LayerName      string  `json:"layer_name"`
	TotalProcessed int     `json:"total_processed"`
	BlockedCount   int     `json:"blocked_count"`
	AvgRisk        float64 `json:"avg_risk"`
	MaxRisk        float64 `json:"max_risk"`
	BlockRate      float64 `json:"block_rate"`
}

// ThreatEvent is one timeline entry: a stage decision with risk above the
// timeline floor.
type ThreatEvent struct {
	Timestamp time.Time `json:"timestamp"`
	Layer     int       `json:"layer"`
	RiskScore float64   `json:"risk_score"`
	Action    string    `json:"action"`
	SessionID string    `json:"session_id"`
}

// SessionSummary ranks one session by its riskiest decision.
type SessionSummary struct {
	SessionID       string  `json:"session_id"`
	TotalMessages   int     `json:"total_messages"`
	ThreatsDetected int     `json:"threats_detected"`
	HighestRisk     float64 `json:"highest_risk"`
	LayersTriggered []int   `json:"layers_triggered"`
}

// ObservabilitySnapshot is the full dashboard payload.
type ObservabilitySnapshot struct {
	AggregatedRisk  float64          `json:"aggregated_risk"`
	ThreatSummary   string           `json:"threat_summary"`
	LayerMetrics    []LayerMetrics   `json:"layer_metrics"`
	ActiveSessions  int              `json:"active_sessions"`
	TotalThreats24h int              `json:"total_threats_24h"`
	ThreatTimeline  []ThreatEvent    `json:"threat_timeline"`
	TopSessions     []SessionSummary `json:"top_sessions"`
}

// LayerSample is a caller-supplied decision merged into a snapshot, for
// results that never passed through RecordEvent. Samples carry no
// timestamp and are exempt from the aggregation window.
type LayerSample struct {
	Layer     int
	RiskScore float64
	Action    string
}

type securityEvent struct {
	Timestamp time.Time
	Layer     int
	SessionID string
	RiskScore float64
	Action    string
	Details   string
}

// Observability keeps a rolling in-memory log of stage decisions and
// aggregates them into dashboard snapshots.
type Observability struct {
	mu           sync.RWMutex
	events       []securityEvent
	sessions     map[string][]securityEvent
	sessionOrder []string
}

func NewObservability() *Observability {
	return &Observability{sessions: make(map[string][]securityEvent)}
}

// RecordEvent appends one stage decision to the rolling log.
func (o *Observability) RecordEvent(layer int, sessionID string, riskScore float64, action, details string) {
	ev := securityEvent{
		Timestamp: time.Now().UTC(),
		Layer:     layer,
		SessionID: sessionID,
		RiskScore: riskScore,
		Action:    action,
		Details:   details,
	}

	o.mu.Lock()
	defer o.mu.Unlock()

	o.events = append(o.events, ev)
	if len(o.events) > maxObservedEvents {
		o.events = o.events[len(o.events)-maxObservedEvents:]
	}
	if _, ok := o.sessions[sessionID]; !ok {
		o.sessionOrder = append(o.sessionOrder, sessionID)
	}
	o.sessions[sessionID] = append(o.sessions[sessionID], ev)
}

// AggregateMetrics builds a dashboard snapshot from recorded events inside
// the window (default 24h) plus any extra caller-supplied samples. The
// timeline keeps the 20 most recent events with risk above 0.3, and top
// sessions are the 10 highest-risk sessions seen so far.
func (o *Observability) AggregateMetrics(extra []LayerSample, window time.Duration) ObservabilitySnapshot {
	if window <= 0 {
		window = 24 * time.Hour
	}
	cutoff := time.Now().UTC().Add(-window)

	o.mu.RLock()
	defer o.mu.RUnlock()

	type layerAccum struct {
		risks   []float64
		blocked int
		total   int
	}
	perLayer := make(map[int]*layerAccum)
	observe := func(layer int, risk float64, action string) {
		acc, ok := perLayer[layer]
		if !ok {
			acc = &layerAccum{}
			perLayer[layer] = acc
		}
		acc.risks = append(acc.risks, risk)
		acc.total++
		if action == ActionBlocked {
			acc.blocked++
		}
	}

	for _, s := range extra {
		observe(s.Layer, s.RiskScore, s.Action)
	}
	for _, ev := range o.events {
		if ev.Timestamp.Before(cutoff) {
			continue
		}
		observe(ev.Layer, ev.RiskScore, ev.Action)
	}

	var metrics []LayerMetrics
	var allRisks []float64
	for layer := LayerIngestion; layer <= LayerObservability; layer++ {
		acc := perLayer[layer]
		if acc == nil {
			acc = &layerAccum{}
		}
		var avg, max float64
		if len(acc.risks) > 0 {
			avg = mean(acc.risks)
			for _, r := range acc.risks {
				if r > max {
					max = r
				}
			}
			allRisks = append(allRisks, acc.risks...)
		}
		var blockRate float64
		if acc.total > 0 {
			blockRate = float64(acc.blocked) / float64(acc.total)
		}
		metrics = append(metrics, LayerMetrics{
			LayerID:        layer,
			LayerName:      LayerName(layer),
			TotalProcessed: acc.total,
			BlockedCount:   acc.blocked,
			AvgRisk:        round3(avg),
			MaxRisk:        round3(max),
			BlockRate:      round3(blockRate),
		})
	}

	totalThreats := 0
	for _, r := range allRisks {
		if r > 0.5 {
			totalThreats++
		}
	}

	timeline := []ThreatEvent{}
	for _, ev := range o.events {
		if ev.RiskScore > 0.3 {
			timeline = append(timeline, ThreatEvent{
				Timestamp: ev.Timestamp,
				Layer:     ev.Layer,
				RiskScore: ev.RiskScore,
				Action:    ev.Action,
				SessionID: ev.SessionID,
			})
		}
	}
	sort.SliceStable(timeline, func(i, j int) bool {
		return timeline[i].Timestamp.After(timeline[j].Timestamp)
	})
	if len(timeline) > 20 {
		timeline = timeline[:20]
	}

	summaries := []SessionSummary{}
	for _, sid := range o.sessionOrder {
		events := o.sessions[sid]
		if len(events) == 0 {
			continue
		}
		var highest float64
		threats := 0
		layerSet := map[int]bool{}
		for _, ev := range events {
			if ev.RiskScore > highest {
				highest = ev.RiskScore
			}
			if ev.RiskScore > 0.5 {
				threats++
			}
			if ev.RiskScore > 0.3 {
				layerSet[ev.Layer] = true
			}
		}
		layers := make([]int, 0, len(layerSet))
		for l := range layerSet {
			layers = append(layers, l)
		}
		sort.Ints(layers)
		summaries = append(summaries, SessionSummary{
			SessionID:       sid,
			TotalMessages:   len(events),
			ThreatsDetected: threats,
			HighestRisk:     highest,
			LayersTriggered: layers,
		})
	}
	sort.SliceStable(summaries, func(i, j int) bool {
		return summaries[i].HighestRisk > summaries[j].HighestRisk
	})
	if len(summaries) > 10 {
		summaries = summaries[:10]
	}

	return ObservabilitySnapshot{
		AggregatedRisk:  round3(mean(allRisks)),
		ThreatSummary:   fmt.Sprintf("Processed %d events, %d threats detected", len(allRisks), totalThreats),
		LayerMetrics:    metrics,
		ActiveSessions:  len(o.sessions),
		TotalThreats24h: totalThreats,
		ThreatTimeline:  timeline,
		TopSessions:     summaries,
	}
}

// LayerBreakdown is the per-layer metrics slice of a default snapshot.
func (o *Observability) LayerBreakdown() []LayerMetrics {
	return o.AggregateMetrics(nil, 0).LayerMetrics
}
