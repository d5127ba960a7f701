package guard

import "fmt"

// AttackProfile summarizes an attacker's observed persistence.
type AttackProfile struct {
	AttackCount      int     `json:"attack_count"`
	UniqueVectors    int     `json:"unique_vectors"`
	PersistenceScore float64 `json:"persistence_score"`
	Sophistication   string  `json:"sophistication"`
}

// HoneypotDecision says whether to divert a session to the decoy model,
// and with what tarpit delay and persona.
type HoneypotDecision struct {
	ShouldRedirect bool          `json:"should_redirect"`
	TargetLLM      string        `json:"target_llm"`
	Reason         string        `json:"reason"`
	AttackProfile  AttackProfile `json:"attack_profile"`
	TarpitDelayMS  int           `json:"tarpit_delay_ms"`
	DecoyPersona   string        `json:"decoy_persona"`
}

// sophisticationLevels bucket attack counts into escalating tarpit
// delays. Ranges are half-open [low, high).
var sophisticationLevels = []struct {
	low, high int
	level     string
	delayMS   int
}{
	{0, 2, "novice", 0},
	{2, 5, "intermediate", 500},
	{5, 10, "advanced", 1000},
	{10, 100, "persistent_threat", 2000},
}

var decoyPersonas = []string{
	"naive_assistant",
	"overly_helpful_bot",
	"confused_model",
	"security_researcher_trap",
}

const (
	primaryTarget = "primary"
	decoyTarget   = "decoy-phi3"
)

// HoneypotEngine decides when a session has earned the decoy model.
// Persistent attackers get slower, blander responses instead of blocks,
// which keeps them burning time against a model that knows nothing.
type HoneypotEngine struct{}

func NewHoneypotEngine() *HoneypotEngine {
	return &HoneypotEngine{}
}

// Evaluate combines persistence signals into a redirect decision. Later
// conditions override earlier reasons so the strongest signal wins.
func (e *HoneypotEngine) Evaluate(highRiskUser bool, attackCount, uniqueVectors int, cumulativeRisk float64) HoneypotDecision {
	level, delay, persistence := sophistication(attackCount, uniqueVectors)

	redirect := false
	reason := ""
	persona := ""

	if highRiskUser && attackCount >= 2 {
		redirect = true
		reason = fmt.Sprintf("Persistent attacker: %d attempts with %d vectors", attackCount, uniqueVectors)
		persona = decoyPersonas[attackCount%len(decoyPersonas)]
	}

	if cumulativeRisk > 2.0 {
		redirect = true
		reason = fmt.Sprintf("Cumulative risk threshold exceeded: %.2f", cumulativeRisk)
		persona = "security_researcher_trap"
	}

	if attackCount >= 5 && !redirect {
		redirect = true
		reason = fmt.Sprintf("Attack persistence threshold: %d attempts", attackCount)
		persona = "naive_assistant"
	}

	target := primaryTarget
	tarpitDelay := 0
	if redirect {
		target = decoyTarget
		tarpitDelay = delay
	}

	return HoneypotDecision{
		ShouldRedirect: redirect,
		TargetLLM:      target,
		Reason:         reason,
		AttackProfile: AttackProfile{
			AttackCount:      attackCount,
			UniqueVectors:    uniqueVectors,
			PersistenceScore: round3(persistence),
			Sophistication:   level,
		},
		TarpitDelayMS: tarpitDelay,
		DecoyPersona:  persona,
	}
}

func sophistication(attackCount, uniqueVectors int) (string, int, float64) {
	persistence := float64(attackCount) / 10.0
	if persistence > 1 {
		persistence = 1
	}
	diversity := float64(uniqueVectors) / 5.0
	if diversity > 1 {
		diversity = 1
	}
	score := (persistence + diversity) / 2.0

	for _, bucket := range sophisticationLevels {
		if attackCount >= bucket.low && attackCount < bucket.high {
			return bucket.level, bucket.delayMS, score
		}
	}
	return "persistent_threat", 2000, score
}
