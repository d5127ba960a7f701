package guard

import "fmt"

const driftThreshold = 0.4

// DriftAnalysis is the per-turn output of the drift engine. BaseScore is
// what the caller appends to the session's score history; Result carries
// the combined verdict including the velocity contribution.
type DriftAnalysis struct {
	Result    ClassifierResult
	BaseScore float64
	Velocity  float64
	Cluster   string
	Turn      int
	X, Y      float64
}

// DriftEngine tracks how a conversation trends toward known attack
// clusters. Each turn gets a base score from keyword patterns and
// centroid proximity; the velocity term rewards slow-burn escalation
// that no single turn would trip on its own.
type DriftEngine struct {
	centroids []clusterCentroid
}

type clusterCentroid struct {
	name string
	vec  []float64
}

// NewDriftEngine precomputes the attack cluster centroids.
func NewDriftEngine() *DriftEngine {
	centroids := make([]clusterCentroid, 0, len(clusterSeeds))
	for _, cluster := range clusterSeeds {
		centroid := make([]float64, EmbeddingDim)
		for _, seed := range cluster.seeds {
			emb := Embed(seed)
			for i, v := range emb {
				centroid[i] += v
			}
		}
		n := float64(len(cluster.seeds))
		for i := range centroid {
			centroid[i] /= n
		}
		normalize(centroid)
		centroids = append(centroids, clusterCentroid{name: cluster.name, vec: centroid})
	}
	return &DriftEngine{centroids: centroids}
}

// Analyze scores one turn given the session's prior base scores. The
// engine itself is stateless; the caller owns the history and appends
// BaseScore after each analyzed turn, whatever the verdict.
func (e *DriftEngine) Analyze(message string, priorScores []float64) DriftAnalysis {
	emb := Embed(message)

	patternScore := driftPatternScore(message)
	cluster, clusterSim := e.nearestCluster(emb, message)
	clusterScore := (clusterSim - 0.4) * 1.5
	if clusterScore < 0 {
		clusterScore = 0
	}

	base := patternScore
	if clusterScore > base {
		base = clusterScore
	}

	scores := make([]float64, 0, len(priorScores)+1)
	scores = append(scores, priorScores...)
	scores = append(scores, base)
	velocity := computeVelocity(scores)

	threat := round4(clamp01(base + velocity*0.3))
	turn := len(scores)
	x, y := project2D(emb)

	tag := TagPromptInjection
	switch cluster {
	case "data_exfiltration":
		tag = TagExcessiveAgency
	case "system_access":
		tag = TagImproperOutput
	case "credential_extraction":
		tag = TagSensitiveDisclosure
	}

	metadata := map[string]any{
		"velocity":               velocity,
		"nearest_cluster":        cluster,
		"x_coord":                x,
		"y_coord":                y,
		"turn_number":            turn,
		"session_vector_history": turn,
	}

	reason := fmt.Sprintf("Drift velocity alert: cluster=%s, velocity=%.3f, turn=%d", cluster, velocity, turn)
	return DriftAnalysis{
		Result:    NewResult(threat, driftThreshold, tag, reason, metadata),
		BaseScore: base,
		Velocity:  velocity,
		Cluster:   cluster,
		Turn:      turn,
		X:         x,
		Y:         y,
	}
}

// nearestCluster prefers a direct keyword match; otherwise the closest
// centroid by cosine similarity wins.
func (e *DriftEngine) nearestCluster(emb []float64, text string) (string, float64) {
	if text != "" {
		for _, ck := range clusterKeywords {
			for _, re := range ck.patterns {
				if re.MatchString(text) {
					return ck.name, 0.7
				}
			}
		}
	}

	bestName := "benign"
	bestSim := -1.0
	for _, c := range e.centroids {
		sim := dot(emb, c.vec)
		if sim > bestSim {
			bestSim = sim
			bestName = c.name
		}
	}
	if bestSim < 0 {
		bestSim = 0
	}
	return bestName, bestSim
}

func driftPatternScore(text string) float64 {
	if text == "" {
		return 0
	}
	score := 0.0
	for _, p := range driftThreatPatterns {
		if p.re.MatchString(text) {
			score += p.weight
		}
	}
	if score > 1 {
		score = 1
	}
	return score
}

// computeVelocity measures how much the recent turns outscore the early
// ones. Single-turn sessions have no velocity.
func computeVelocity(scores []float64) float64 {
	if len(scores) < 2 {
		return 0
	}
	recent := scores
	early := scores[:1]
	if len(scores) >= 3 {
		recent = scores[len(scores)-3:]
		early = scores[:3]
	}
	vel := mean(recent) - mean(early)
	if vel < 0 {
		vel = 0
	}
	if vel > 1 {
		vel = 1
	}
	return round4(vel)
}

// project2D collapses an embedding to deterministic plot coordinates for
// the drift map in the dashboard.
func project2D(emb []float64) (float64, float64) {
	half := EmbeddingDim / 2
	x := mean(emb[:half]) * 50
	y := mean(emb[half:]) * 50
	return round2(x), round2(y)
}
