package pipeline

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/rampart-sec/rampart/pkg/events"
	"github.com/rampart-sec/rampart/pkg/guard"
)

// The scan entry points run one stage in isolation for callers that
// bring their own context: CI hooks checking tool manifests, retrieval
// layers vetting documents, agent frameworks clearing messages before
// delivery. Nothing here touches sessions or the event stream.

// ScanInput classifies a single message without session state.
func (p *Pipeline) ScanInput(ctx context.Context, text, role string) (guard.ClassifierResult, error) {
	return p.ingestion.Classify(ctx, text, role)
}

// ScanTool inspects a tool manifest before it is registered.
func (p *Pipeline) ScanTool(tool guard.ToolManifest) (guard.ClassifierResult, error) {
	return p.toolScan.Scan(tool)
}

// ScanRAG inspects retrieved content before it reaches a prompt.
func (p *Pipeline) ScanRAG(text, documentType string) guard.ClassifierResult {
	return p.ragScan.Scan(text, documentType)
}

// ScanOutput runs the output firewall over arbitrary generated text.
func (p *Pipeline) ScanOutput(text string, sessionRisk float64) (guard.ClassifierResult, error) {
	return p.output.Check(text, p.systemPromptHash, sessionRisk)
}

// AuditMemory compares two memory snapshots for injected content.
func (p *Pipeline) AuditMemory(ctx context.Context, oldMemory, newMemory string) (guard.ClassifierResult, error) {
	return p.memory.Audit(ctx, oldMemory, newMemory)
}

// ValidateAgent checks one inter-agent message against the trust model.
func (p *Pipeline) ValidateAgent(sourceAgent, targetAgent, message, requestedAction string) guard.ClassifierResult {
	return p.agents.Validate(sourceAgent, targetAgent, message, requestedAction)
}

// AdaptiveStats reports the learning engine's pattern counts.
func (p *Pipeline) AdaptiveStats() guard.AdaptiveStats {
	return p.adaptive.Stats()
}

// Snapshot aggregates the observability view over the given window.
func (p *Pipeline) Snapshot(window time.Duration) guard.ObservabilitySnapshot {
	return p.observer.AggregateMetrics(nil, window)
}

// RunSweep promotes repeated attack patterns into detection seeds and,
// when anything was promoted, folds them into the live seed store so
// the next ingestion scan already knows them.
func (p *Pipeline) RunSweep(ctx context.Context) (guard.SweepResult, error) {
	res, err := p.adaptive.Sweep()
	if err != nil {
		return res, err
	}
	if p.metrics != nil {
		p.metrics.RecordPromotions(res.Promoted)
		p.metrics.SetPendingPatterns(res.Pending)
	}
	if res.Promoted == 0 {
		return res, nil
	}

	p.bus.Publish(events.SecurityEvent{
		SessionID:   "system",
		Layer:       guard.LayerAdaptive,
		Action:      guard.ActionOptimized,
		ThreatScore: 0,
		Reason:      "Rules updated",
		Metadata: map[string]any{
			"promoted": res.Promoted,
			"pending":  res.Pending,
		},
	})
	p.reloadSeeds(ctx)
	return res, nil
}

// reloadSeeds rebuilds the injection collection from the built-in seeds
// plus everything the learner has promoted so far.
func (p *Pipeline) reloadSeeds(ctx context.Context) {
	if p.seeds == nil {
		return
	}
	promoted := p.adaptive.PromotedSeeds()
	merged := make([]string, 0, len(guard.InjectionSeeds)+len(promoted))
	merged = append(merged, guard.InjectionSeeds...)
	for _, s := range promoted {
		merged = append(merged, s.Text)
	}
	if err := p.seeds.LoadSeeds(ctx, guard.SeedsInjection, merged); err != nil {
		p.log.Warn("seed reload failed", zap.Error(err))
		return
	}
	p.log.Info("seed store updated",
		zap.Int("promoted", len(promoted)),
		zap.Int("total", len(merged)))
}
