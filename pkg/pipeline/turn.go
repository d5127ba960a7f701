package pipeline

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/rampart-sec/rampart/pkg/events"
	"github.com/rampart-sec/rampart/pkg/guard"
	"github.com/rampart-sec/rampart/pkg/llm"
	"github.com/rampart-sec/rampart/pkg/session"
)

// Generic texts returned in place of blocked content. The detector's own
// reason travels in block_reason and the event stream, never in the chat
// response an attacker reads.
const (
	blockMessageScreening = "Your message was blocked by the security layer."
	blockMessageMemory    = "Session memory integrity check failed. Message blocked."
	blockMessageDrift     = "Multi-turn attack pattern detected. Message blocked."
	blockMessageAgent     = "Inter-agent trust validation failed. Message blocked."
	safetyErrorNotice     = "[Output blocked due to safety error]"
)

// A session qualifies as high risk for honeypot redirection when its
// cumulative score has climbed past highRiskCumulative or the current
// turn's drift velocity spikes past highRiskVelocity.
const (
	highRiskCumulative = 0.7
	highRiskVelocity   = 0.8
)

// agentTargetID is the trust boundary inter-agent traffic is validated
// against. Anything arriving over the chat surface claims to address the
// orchestrator.
const agentTargetID = "orchestrator_primary"

// ProcessTurn runs one user message through the full stage sequence and
// returns the turn outcome. Turns on the same session are serialized;
// distinct sessions run concurrently.
func (p *Pipeline) ProcessTurn(ctx context.Context, sessionID, role, message string) (*TurnResult, error) {
	if sessionID == "" {
		return nil, &guard.ValidationError{Field: "session_id", Detail: "must not be empty"}
	}
	if message == "" {
		return nil, &guard.ValidationError{Field: "message", Detail: "must not be empty"}
	}

	turnStart := time.Now()

	p.locks.Lock(sessionID)
	defer p.locks.Unlock(sessionID)

	sess, err := p.store.Get(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("load session %s: %w", sessionID, err)
	}
	if sess == nil {
		if role == "" {
			role = "guest"
		}
		p.states.drop(sessionID)
		sess = session.New(sessionID, role)
		if err := p.store.Save(ctx, sess); err != nil {
			return nil, fmt.Errorf("create session %s: %w", sessionID, err)
		}
		if p.lifecycle != nil {
			p.lifecycle.LogSessionStart(sessionID, role)
		}
	}

	// A trapped session never leaves the decoy path.
	if sess.IsHoneypot {
		return p.trappedTurn(ctx, sess, message, turnStart), nil
	}

	eventTurn := sess.TurnCount + 1
	st := p.states.get(sessionID)
	result := &TurnResult{SessionID: sessionID, TurnNumber: eventTurn}

	runStage := func(layer int, tag string, stage guard.Stage) guard.ClassifierResult {
		stageStart := time.Now()
		res := guard.FailSecure(ctx, layer, tag, stage)
		if p.metrics != nil {
			p.metrics.RecordStage(layer, time.Since(stageStart))
		}
		action := guard.ActionFor(layer, res.Passed)
		sess.RecordDecision(layer, action, res.Reason, res.ThreatScore)
		p.bus.Publish(events.SecurityEvent{
			SessionID:   sessionID,
			Layer:       layer,
			Action:      action,
			ThreatScore: res.ThreatScore,
			Reason:      res.Reason,
			OWASPTag:    res.OWASPTag,
			TurnNumber:  eventTurn,
			XCoord:      metaFloat(res.Metadata, "x_coord"),
			YCoord:      metaFloat(res.Metadata, "y_coord"),
			Metadata:    res.Metadata,
		})
		result.Stages = append(result.Stages, StageSummary{
			Layer:       layer,
			Action:      action,
			ThreatScore: res.ThreatScore,
		})
		if !res.Passed {
			st.noteTag(res.OWASPTag)
		}
		return res
	}

	block := func(layer int, msg, reason string) *TurnResult {
		result.Blocked = true
		result.BlockLayer = layer
		result.BlockReason = reason
		result.Response = msg
		p.saveSession(ctx, sess)
		p.recordTurn("blocked", turnStart)
		return result
	}

	// Stage 1: ingestion screening on the raw message.
	var sanitized guard.Sanitized
	l1 := runStage(guard.LayerIngestion, guard.TagPromptInjection, func(ctx context.Context) (guard.ClassifierResult, error) {
		res, san, err := p.ingestion.Analyze(ctx, message, sess.Role)
		sanitized = san
		return res, err
	})
	if !l1.Passed {
		p.feedAdaptive(message, "prompt_injection", guard.LayerIngestion, sessionID)
		return block(guard.LayerIngestion, blockMessageScreening, l1.Reason), nil
	}

	// Later stages see the sanitized text: homoglyphs folded to Latin,
	// zero-width characters stripped.
	scanText := sanitized.Text

	// Stage 2: pre-execution content scan.
	l2 := runStage(guard.LayerPreExecution, guard.TagImproperOutput, func(context.Context) (guard.ClassifierResult, error) {
		return p.ragScan.Scan(scanText, "general"), nil
	})
	if !l2.Passed {
		p.feedAdaptive(message, "content_injection", guard.LayerPreExecution, sessionID)
		return block(guard.LayerPreExecution, blockMessageScreening, l2.Reason), nil
	}

	// Stage 3: memory integrity. The audit covers whatever was added to
	// the transcript since the last clean snapshot.
	l3 := runStage(guard.LayerMemory, guard.TagVectorWeakness, func(ctx context.Context) (guard.ClassifierResult, error) {
		return p.memory.Audit(ctx, st.auditedMemory, sess.MemoryContent)
	})
	if !l3.Passed {
		if p.lifecycle != nil {
			p.lifecycle.LogMemorySnapshot(sessionID, sess.MemoryHash, len(sess.MemoryContent), true, l3.Reason)
		}
		return block(guard.LayerMemory, blockMessageMemory, l3.Reason), nil
	}
	st.auditedMemory = sess.MemoryContent

	// Stage 4: conversation drift across the session's score history.
	var analysis guard.DriftAnalysis
	l4 := runStage(guard.LayerDrift, guard.TagPromptInjection, func(context.Context) (guard.ClassifierResult, error) {
		analysis = p.drift.Analyze(scanText, st.scores)
		return analysis.Result, nil
	})
	if analysis.Turn > 0 {
		st.scores = append(st.scores, analysis.BaseScore)
		st.lastCluster = analysis.Cluster
		st.noteCluster(analysis.Cluster)
	}
	if !l4.Passed {
		attackType := analysis.Cluster
		if attackType == "" || attackType == "benign" {
			attackType = "conversation_drift"
		}
		p.feedAdaptive(message, attackType, guard.LayerDrift, sessionID)
		return block(guard.LayerDrift, blockMessageDrift, l4.Reason), nil
	}

	// Honeypot decision: confirmed attackers get a decoy model instead
	// of a block, so their technique keeps unfolding against nothing.
	if p.honeypotOn {
		highRisk := sess.CumulativeRisk > highRiskCumulative || analysis.Velocity > highRiskVelocity
		decision := p.honeypot.Evaluate(highRisk, p.attackCount(sess), st.vectorCount(), sess.CumulativeRisk)
		if decision.ShouldRedirect {
			return p.honeypotTurn(ctx, sess, st, message, eventTurn, l4, analysis, decision, result, turnStart), nil
		}
	}

	// Stage 7 runs only when the message carries inter-agent markers.
	if guard.LooksInterAgent(scanText) {
		l7 := runStage(guard.LayerInterAgent, guard.TagExcessiveAgency, func(context.Context) (guard.ClassifierResult, error) {
			return p.agents.Validate("external_"+sess.Role, agentTargetID, scanText, ""), nil
		})
		if !l7.Passed {
			return block(guard.LayerInterAgent, blockMessageAgent, l7.Reason), nil
		}
	}

	// Generate the real response.
	genStart := time.Now()
	response, genErr := p.generator.Generate(ctx, p.chatHistory(sess, message))
	if p.metrics != nil {
		status := "success"
		if genErr != nil {
			status = "error"
		}
		p.metrics.RecordGeneration(p.generatorName, status, time.Since(genStart))
	}
	if genErr != nil {
		p.log.Warn("generation failed",
			zap.String("session_id", sessionID),
			zap.Error(genErr))
		response = llm.FallbackUnavailable
	}

	// Stage 5: output firewall on the generated text.
	l5 := runStage(guard.LayerOutput, guard.TagExcessiveAgency, func(context.Context) (guard.ClassifierResult, error) {
		return p.output.Check(response, p.systemPromptHash, sess.CumulativeRisk)
	})
	if !l5.Passed {
		if redacted, ok := l5.Metadata["redacted_response"].(string); ok {
			response = redacted
		} else {
			response = safetyErrorNotice
		}
	}

	result.Response = response
	sess.ApplyRisk(l4.ThreatScore)
	p.saveSession(ctx, sess)
	p.applyExchange(ctx, sessionID, &session.TurnExchange{
		UserText:      message,
		AssistantText: response,
		RiskScore:     l4.ThreatScore,
	})
	p.recordTurn("passed", turnStart)
	return result, nil
}

// honeypotTurn redirects a freshly confirmed attacker: mark the session,
// serve a decoy response after the tarpit delay, and record the exchange
// as if it were real so the attacker sees nothing change.
func (p *Pipeline) honeypotTurn(ctx context.Context, sess *session.Session, st *sessionState, message string, eventTurn int, l4 guard.ClassifierResult, analysis guard.DriftAnalysis, decision guard.HoneypotDecision, result *TurnResult, turnStart time.Time) *TurnResult {
	sess.MarkHoneypot()
	p.log.Info("session redirected to honeypot",
		zap.String("session_id", sess.ID),
		zap.String("persona", decision.DecoyPersona),
		zap.String("reason", decision.Reason))

	p.tarpit(ctx, decision.TarpitDelayMS)
	response := p.decoy.Decoy(ctx, p.chatHistory(sess, message), decision.DecoyPersona, analysis.Cluster)

	p.bus.Publish(events.SecurityEvent{
		SessionID:   sess.ID,
		Layer:       guard.LayerHoneypot,
		Action:      guard.ActionHoneypot,
		ThreatScore: l4.ThreatScore,
		Reason:      "Redirected to honeypot model",
		OWASPTag:    guard.TagPromptInjection,
		TurnNumber:  eventTurn,
		XCoord:      analysis.X,
		YCoord:      analysis.Y,
	})
	if p.lifecycle != nil {
		p.lifecycle.LogHoneypotMessage(sess.ID, session.TurnRoleUser, message)
		p.lifecycle.LogHoneypotMessage(sess.ID, session.TurnRoleAssistant, response)
	}

	result.Response = response
	result.Stages = append(result.Stages, StageSummary{
		Layer:       guard.LayerHoneypot,
		Action:      guard.ActionHoneypot,
		ThreatScore: l4.ThreatScore,
	})

	sess.ApplyRisk(l4.ThreatScore)
	p.saveSession(ctx, sess)
	p.applyExchange(ctx, sess.ID, &session.TurnExchange{
		UserText:      message,
		AssistantText: response,
		RiskScore:     l4.ThreatScore,
	})
	p.recordTurn("honeypot", turnStart)
	return result
}

// trappedTurn serves a session already living in the honeypot. No stages
// run; the decoy persona answers after whatever tarpit delay the attack
// profile has earned by now.
func (p *Pipeline) trappedTurn(ctx context.Context, sess *session.Session, message string, turnStart time.Time) *TurnResult {
	eventTurn := sess.TurnCount + 1
	st := p.states.get(sess.ID)

	decision := p.honeypot.Evaluate(true, p.attackCount(sess), st.vectorCount(), sess.CumulativeRisk)
	persona := decision.DecoyPersona
	if persona == "" {
		persona = "naive_assistant"
	}
	p.tarpit(ctx, decision.TarpitDelayMS)
	response := p.decoy.Decoy(ctx, p.chatHistory(sess, message), persona, st.lastCluster)

	p.bus.Publish(events.SecurityEvent{
		SessionID:   sess.ID,
		Layer:       guard.LayerHoneypot,
		Action:      guard.ActionTrapped,
		ThreatScore: sess.CumulativeRisk,
		Reason:      "Session held in honeypot",
		OWASPTag:    guard.TagPromptInjection,
		TurnNumber:  eventTurn,
	})
	if p.lifecycle != nil {
		p.lifecycle.LogHoneypotMessage(sess.ID, session.TurnRoleUser, message)
		p.lifecycle.LogHoneypotMessage(sess.ID, session.TurnRoleAssistant, response)
	}

	result := &TurnResult{
		SessionID:  sess.ID,
		Response:   response,
		TurnNumber: eventTurn,
		Stages: []StageSummary{{
			Layer:       guard.LayerHoneypot,
			Action:      guard.ActionTrapped,
			ThreatScore: sess.CumulativeRisk,
		}},
	}

	p.saveSession(ctx, sess)
	p.applyExchange(ctx, sess.ID, &session.TurnExchange{
		UserText:      message,
		AssistantText: response,
		RiskScore:     sess.CumulativeRisk,
	})
	p.recordTurn("trapped", turnStart)
	return result
}

// applyExchange persists a completed exchange. Persistence trouble is
// logged, not surfaced: the user already has their response.
func (p *Pipeline) applyExchange(ctx context.Context, sessionID string, t *session.TurnExchange) {
	if err := p.store.UpdateTurn(ctx, sessionID, t); err != nil {
		p.log.Warn("turn persistence failed",
			zap.String("session_id", sessionID),
			zap.Error(err))
	}
}

// feedAdaptive hands a blocked message to the pattern learner.
func (p *Pipeline) feedAdaptive(message, attackType string, layer int, sessionID string) {
	if !p.adaptiveOn {
		return
	}
	if err := p.adaptive.RecordAttack(message, attackType, layer, sessionID); err != nil {
		p.log.Warn("adaptive capture failed",
			zap.String("session_id", sessionID),
			zap.Int("layer", layer),
			zap.Error(err))
	}
}

// tarpit stalls the attacker for the earned delay, giving up early if
// the caller's context ends first.
func (p *Pipeline) tarpit(ctx context.Context, delayMS int) {
	if delayMS <= 0 {
		return
	}
	timer := time.NewTimer(time.Duration(delayMS) * time.Millisecond)
	defer timer.Stop()
	select {
	case <-timer.C:
	case <-ctx.Done():
	}
}

// attackCount tallies the session's non-passing stage verdicts.
func (p *Pipeline) attackCount(sess *session.Session) int {
	n := 0
	for _, d := range sess.Decisions {
		if d.Action != guard.ActionPassed {
			n++
		}
	}
	return n
}

// chatHistory converts the stored transcript plus the incoming message
// into generator input.
func (p *Pipeline) chatHistory(sess *session.Session, message string) []llm.Message {
	msgs := make([]llm.Message, 0, len(sess.History)+1)
	for _, t := range sess.History {
		msgs = append(msgs, llm.Message{Role: t.Role, Content: t.Content})
	}
	return append(msgs, llm.Message{Role: session.TurnRoleUser, Content: message})
}

func metaFloat(m map[string]any, key string) float64 {
	if m == nil {
		return 0
	}
	if v, ok := m[key].(float64); ok {
		return v
	}
	return 0
}
