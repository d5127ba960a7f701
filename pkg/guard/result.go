// Package guard implements the nine inspection stages of the Rampart
// pipeline: ingestion screening, tool/RAG pre-execution scanning, memory
// integrity verification, conversation drift tracking, output filtering,
// honeypot decisions, inter-agent trust validation, adaptive pattern
// learning, and observability aggregation. Every stage returns the same
// ClassifierResult contract and fails closed on internal errors.
package guard

import (
	"fmt"
	"math"
)

// OWASP LLM Top 10 (2025) taxonomy codes. Each stage attaches exactly one
// of these to every non-passing result; the strings are wire-frozen.
const (
	TagPromptInjection     = "LLM01:2025" // prompt injection
	TagSensitiveDisclosure = "LLM02:2025" // sensitive information disclosure
	TagImproperOutput      = "LLM05:2025" // improper output handling
	TagExcessiveAgency     = "LLM06:2025" // excessive agency
	TagVectorWeakness      = "LLM08:2025" // vector and embedding weaknesses
)

// Pipeline layer numbers. The numbering is part of the event stream
// contract and must not be reordered.
const (
	LayerIngestion     = 1
	LayerPreExecution  = 2
	LayerMemory        = 3
	LayerDrift         = 4
	LayerOutput        = 5
	LayerHoneypot      = 6
	LayerInterAgent    = 7
	LayerAdaptive      = 8
	LayerObservability = 9
)

// Actions attached to security events, one per stage decision.
const (
	ActionPassed      = "PASSED"
	ActionBlocked     = "BLOCKED"
	ActionQuarantined = "QUARANTINED"
	ActionFlagged     = "FLAGGED"
	ActionHoneypot    = "HONEYPOT"
	ActionTrapped     = "TRAPPED"
	ActionOptimized   = "OPTIMIZED"
)

// ClassifierResult is the verdict shape every stage returns. Field names
// are frozen for compatibility with existing event consumers.
type ClassifierResult struct {
	Passed      bool           `json:"passed"`
	ThreatScore float64        `json:"threat_score"`
	OWASPTag    string         `json:"owasp_tag"`
	Reason      string         `json:"reason"`
	Metadata    map[string]any `json:"metadata"`
}

// NewResult builds a result from a raw score and the stage's pass
// threshold. The score is clamped to [0,1] and Passed is derived from the
// comparison, never set independently.
func NewResult(score, threshold float64, tag, reason string, metadata map[string]any) ClassifierResult {
	score = clamp01(score)
	if metadata == nil {
		metadata = map[string]any{}
	}
	r := ClassifierResult{
		Passed:      score < threshold,
		ThreatScore: score,
		OWASPTag:    tag,
		Metadata:    metadata,
	}
	if !r.Passed {
		r.Reason = reason
	}
	return r
}

// NewResultWithReason is NewResult but keeps the reason on passing results
// too. Stages whose passing verdicts carry a human-readable summary
// (OutputGuard, PreExecutionScanner) use this variant.
func NewResultWithReason(score, threshold float64, tag, reason string, metadata map[string]any) ClassifierResult {
	r := NewResult(score, threshold, tag, reason, metadata)
	r.Reason = reason
	return r
}

// FailClosed is the synthetic result substituted when a stage's analysis
// errors or panics: maximum threat, not passed.
func FailClosed(layer int, tag string, err error) ClassifierResult {
	return ClassifierResult{
		Passed:      false,
		ThreatScore: 1.0,
		OWASPTag:    tag,
		Reason:      fmt.Sprintf("Layer %d error: %v", layer, err),
		Metadata:    map[string]any{"fail_secure": true},
	}
}

// ValidationError reports malformed caller input: wrong types, out-of-range
// enums, empty required strings. It is surfaced synchronously and never
// coerced into a score.
type ValidationError struct {
	Field  string
	Detail string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Detail)
}

func invalidInput(field, detail string) *ValidationError {
	return &ValidationError{Field: field, Detail: detail}
}

// DetectorFailure reports a fault inside a stage's analysis. The
// orchestrator's fail-secure wrapper converts it to a blocking result.
type DetectorFailure struct {
	Stage string
	Err   error
}

func (e *DetectorFailure) Error() string {
	return fmt.Sprintf("%s detector failure: %v", e.Stage, e.Err)
}

func (e *DetectorFailure) Unwrap() error { return e.Err }

func detectorFailure(stage, format string, args ...any) *DetectorFailure {
	return &DetectorFailure{Stage: stage, Err: fmt.Errorf(format, args...)}
}

func clamp01(x float64) float64 {
	switch {
	case x < 0:
		return 0
	case x > 1:
		return 1
	}
	return x
}

func roundTo(x float64, places int) float64 {
	pow := math.Pow(10, float64(places))
	return math.Round(x*pow) / pow
}

func round2(x float64) float64 { return roundTo(x, 2) }
func round3(x float64) float64 { return roundTo(x, 3) }
func round4(x float64) float64 { return roundTo(x, 4) }

func mean(xs []float64) float64 {
	if len(xs) == 0 {
		return 0
	}
	var sum float64
	for _, x := range xs {
		sum += x
	}
	return sum / float64(len(xs))
}
