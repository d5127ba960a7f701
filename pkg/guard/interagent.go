package guard

import (
	"fmt"
	"strings"

	"github.com/rampart-sec/rampart/pkg/patterns"
)

// TrustViolation records one zero-trust rule an agent message broke.
type TrustViolation struct {
	ViolationType string  `json:"violation_type"`
	Severity      float64 `json:"severity"`
	Details       string  `json:"details"`
}

const (
	trustedAgentLevel    = 0.9
	defaultAgentLevel    = 0.5
	restrictedAgentLevel = 0.2

	agentTrustThreshold  = 0.6
	agentActionThreshold = 0.7
)

var trustedAgentPrefixes = []string{"system_", "orchestrator_", "supervisor_"}
var restrictedAgentPrefixes = []string{"external_", "untrusted_", "sandboxed_"}

// agentMarkers make a chat message look like agent-to-agent traffic and
// route it through the zero-trust validator.
var agentMarkers = []string{"agent:", "@agent", "[agent", "agent_id="}

// LooksInterAgent reports whether a message carries agent addressing
// markers.
func LooksInterAgent(text string) bool {
	lowered := strings.ToLower(text)
	for _, m := range agentMarkers {
		if strings.Contains(lowered, m) {
			return true
		}
	}
	return false
}

// AgentValidator enforces zero trust between agents. Every message is
// scored against privilege escalation, suspicious command, and scope
// violation rules; risk rises further when a lower-trust agent targets
// a higher-trust one.
type AgentValidator struct {
	registry *patterns.Registry
}

func NewAgentValidator() *AgentValidator {
	return &AgentValidator{registry: patterns.Get()}
}

// AgentTrustLevel derives an agent's standing from its identifier
// prefix. Unknown agents sit in the middle.
func AgentTrustLevel(agentID string) float64 {
	lowered := strings.ToLower(agentID)
	for _, prefix := range trustedAgentPrefixes {
		if strings.HasPrefix(lowered, prefix) {
			return trustedAgentLevel
		}
	}
	for _, prefix := range restrictedAgentPrefixes {
		if strings.HasPrefix(lowered, prefix) {
			return restrictedAgentLevel
		}
	}
	return defaultAgentLevel
}

// Validate scores one agent-to-agent interaction. The message and the
// requested action are scanned together; risk is the highest matched
// severity, bumped by 0.2 when the source outranks its trust.
func (v *AgentValidator) Validate(sourceAgent, targetAgent, message, requestedAction string) ClassifierResult {
	violations := []TrustViolation{}
	risk := 0.0

	sourceTrust := AgentTrustLevel(sourceAgent)
	targetTrust := AgentTrustLevel(targetAgent)

	combined := message + " " + requestedAction

	checks := []struct {
		category      patterns.Category
		violationType string
	}{
		{patterns.CategoryPrivilegeEscalation, "PRIVILEGE_ESCALATION"},
		{patterns.CategoryAgentControl, "SUSPICIOUS_COMMAND"},
		{patterns.CategoryScopeViolation, "SCOPE_VIOLATION"},
	}
	for _, check := range checks {
		for _, p := range v.registry.GetByCategory(check.category) {
			if p.Regex.MatchString(combined) {
				violations = append(violations, TrustViolation{
					ViolationType: check.violationType,
					Severity:      p.Weight,
					Details:       p.Description,
				})
				if p.Weight > risk {
					risk = p.Weight
				}
			}
		}
	}

	if sourceTrust < targetTrust && risk > 0 {
		risk += 0.2
		if risk > 1 {
			risk = 1
		}
		violations = append(violations, TrustViolation{
			ViolationType: "TRUST_ASYMMETRY",
			Severity:      0.5,
			Details:       fmt.Sprintf("Lower-trust agent (%s) targeting higher-trust agent (%s)", sourceAgent, targetAgent),
		})
	}

	risk = round3(risk)

	reason := "Trust threshold exceeded"
	if len(violations) > 0 {
		reason = "Inter-agent trust violation: " + violations[0].Details
	}

	metadata := map[string]any{
		"source_agent":   sourceAgent,
		"target_agent":   targetAgent,
		"source_trust":   sourceTrust,
		"target_trust":   targetTrust,
		"violations":     violations,
		"action_allowed": risk < agentActionThreshold,
	}

	return NewResult(risk, agentTrustThreshold, TagExcessiveAgency, reason, metadata)
}
