package pipeline

import (
	"github.com/rampart-sec/rampart/pkg/events"
	"github.com/rampart-sec/rampart/pkg/guard"
)

// observerSink feeds every published event into the observability
// aggregator so stage 9 snapshots cover all traffic, not just the
// sessions a caller asks about.
type observerSink struct {
	obs *guard.Observability
}

func (s observerSink) Consume(ev events.SecurityEvent) {
	s.obs.RecordEvent(ev.Layer, ev.SessionID, ev.ThreatScore, ev.Action, ev.Reason)
}
