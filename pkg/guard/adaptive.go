package guard

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"
)

// promoteThreshold is how many sightings a fingerprint needs before its
// text becomes a durable attack seed.
const promoteThreshold = 3

// maxPatternExamples caps the deduplicated example list per fingerprint.
const maxPatternExamples = 3

// AttackSeed is one promoted signature in the durable pattern store.
type AttackSeed struct {
	Text       string    `json:"text"`
	Embedding  []float64 `json:"embedding"`
	AttackType string    `json:"attack_type"`
}

type attackSeedFile struct {
	Attacks []AttackSeed `json:"attacks"`
}

// PendingPattern accumulates sightings of one exact attack text before
// promotion. Near-duplicates hash to different fingerprints on purpose:
// exact matching keeps every promoted seed traceable to a real capture.
type PendingPattern struct {
	Count        int       `json:"count"`
	AttackType   string    `json:"attack_type"`
	Examples     []string  `json:"examples"`
	FirstSeen    time.Time `json:"first_seen"`
	LastSeen     time.Time `json:"last_seen"`
	SessionIDs   []string  `json:"session_ids"`
	LayersCaught []int     `json:"layers_caught"`
	Promoted     bool      `json:"promoted"`
}

// SweepResult reports one promotion sweep.
type SweepResult struct {
	Promoted int `json:"promoted"`
	Pending  int `json:"pending"`
}

// PendingSummary is one row of AdaptiveStats.PendingDetails.
type PendingSummary struct {
	Fingerprint string    `json:"hash"`
	Count       int       `json:"count"`
	AttackType  string    `json:"attack_type"`
	FirstSeen   time.Time `json:"first_seen"`
	LastSeen    time.Time `json:"last_seen"`
}

// AdaptiveStats is the engine's introspection snapshot.
type AdaptiveStats struct {
	PendingPatterns  int              `json:"pending_patterns"`
	PromotedPatterns int              `json:"promoted_patterns"`
	LastProcessed    *time.Time       `json:"last_processed"`
	PendingDetails   []PendingSummary `json:"pending_details"`
}

// AdaptiveEngine turns repeated confirmed attacks into durable detection
// seeds. Blocked texts are fingerprinted and counted; a sweep promotes
// fingerprints seen promoteThreshold or more times into the JSON pattern
// store, where the ingestion stage picks them up as semantic seeds.
type AdaptiveEngine struct {
	mu            sync.Mutex
	pending       map[string]*PendingPattern
	order         []string
	storePath     string
	lastProcessed time.Time
}

func NewAdaptiveEngine(storePath string) *AdaptiveEngine {
	return &AdaptiveEngine{
		pending:   make(map[string]*PendingPattern),
		storePath: storePath,
	}
}

// RecordAttack registers one sighting of a blocked attack text.
func (e *AdaptiveEngine) RecordAttack(attackText, attackType string, layer int, sessionID string) error {
	if strings.TrimSpace(attackText) == "" {
		return invalidInput("attack_text", "must not be empty or whitespace-only")
	}
	if strings.TrimSpace(attackType) == "" {
		return invalidInput("attack_type", "must be a non-empty string")
	}
	if layer < 1 || layer > 9 {
		return invalidInput("layer", "must be between 1 and 9")
	}
	if strings.TrimSpace(sessionID) == "" {
		return invalidInput("session_id", "must be a non-empty string")
	}

	fingerprint := Fingerprint(attackText)
	now := time.Now().UTC()

	e.mu.Lock()
	defer e.mu.Unlock()

	entry, ok := e.pending[fingerprint]
	if !ok {
		entry = &PendingPattern{
			AttackType: attackType,
			FirstSeen:  now,
		}
		e.pending[fingerprint] = entry
		e.order = append(e.order, fingerprint)
	}

	entry.Count++
	entry.LastSeen = now
	if !containsString(entry.Examples, attackText) && len(entry.Examples) < maxPatternExamples {
		entry.Examples = append(entry.Examples, attackText)
	}
	if !containsString(entry.SessionIDs, sessionID) {
		entry.SessionIDs = append(entry.SessionIDs, sessionID)
	}
	if !containsInt(entry.LayersCaught, layer) {
		entry.LayersCaught = append(entry.LayersCaught, layer)
	}
	return nil
}

// Sweep promotes every fingerprint with promoteThreshold or more sightings
// into the pattern store. Promoted entries are marked only after the store
// write succeeds, so a failed sweep can be retried without losing anything.
// Rerunning a sweep never duplicates a stored text.
func (e *AdaptiveEngine) Sweep() (SweepResult, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.lastProcessed = time.Now().UTC()

	store := loadAttackSeedFile(e.storePath)
	existing := make(map[string]bool, len(store.Attacks))
	for _, a := range store.Attacks {
		existing[a.Text] = true
	}

	var result SweepResult
	var toMark []*PendingPattern
	for _, fingerprint := range e.order {
		entry := e.pending[fingerprint]
		if entry.Promoted {
			continue
		}
		if entry.Count < promoteThreshold {
			result.Pending++
			continue
		}
		text := entry.Examples[0]
		if !existing[text] {
			store.Attacks = append(store.Attacks, AttackSeed{
				Text:       text,
				Embedding:  Embed(text),
				AttackType: entry.AttackType,
			})
			existing[text] = true
		}
		toMark = append(toMark, entry)
		result.Promoted++
	}

	if err := writeAttackSeedFile(e.storePath, store); err != nil {
		return SweepResult{}, err
	}
	for _, entry := range toMark {
		entry.Promoted = true
	}
	return result, nil
}

// Stats snapshots pending and promoted pattern counts. Pending details
// are ordered by sighting count, most frequent first.
func (e *AdaptiveEngine) Stats() AdaptiveStats {
	e.mu.Lock()
	defer e.mu.Unlock()

	stats := AdaptiveStats{
		PromotedPatterns: len(loadAttackSeedFile(e.storePath).Attacks),
		PendingDetails:   []PendingSummary{},
	}
	if !e.lastProcessed.IsZero() {
		t := e.lastProcessed
		stats.LastProcessed = &t
	}

	for _, fingerprint := range e.order {
		entry := e.pending[fingerprint]
		if entry.Promoted {
			continue
		}
		stats.PendingPatterns++
		stats.PendingDetails = append(stats.PendingDetails, PendingSummary{
			Fingerprint: fingerprint,
			Count:       entry.Count,
			AttackType:  entry.AttackType,
			FirstSeen:   entry.FirstSeen,
			LastSeen:    entry.LastSeen,
		})
	}
	sort.SliceStable(stats.PendingDetails, func(i, j int) bool {
		return stats.PendingDetails[i].Count > stats.PendingDetails[j].Count
	})
	return stats
}

// ResetPending clears all unpromoted in-memory state. The pattern store
// on disk is untouched.
func (e *AdaptiveEngine) ResetPending() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.pending = make(map[string]*PendingPattern)
	e.order = nil
}

// PromotedSeeds reads every promoted signature from the pattern store.
func (e *AdaptiveEngine) PromotedSeeds() []AttackSeed {
	e.mu.Lock()
	defer e.mu.Unlock()
	return loadAttackSeedFile(e.storePath).Attacks
}

// Fingerprint is the SHA-256 hex digest used to key pending patterns.
func Fingerprint(text string) string {
	sum := sha256.Sum256([]byte(text))
	return hex.EncodeToString(sum[:])
}

// loadAttackSeedFile tolerates a missing or corrupt store, treating both
// as empty so the pipeline never refuses to start over a bad file.
func loadAttackSeedFile(path string) attackSeedFile {
	doc := attackSeedFile{Attacks: []AttackSeed{}}
	raw, err := os.ReadFile(path)
	if err != nil {
		return doc
	}
	if err := json.Unmarshal(raw, &doc); err != nil {
		return attackSeedFile{Attacks: []AttackSeed{}}
	}
	if doc.Attacks == nil {
		doc.Attacks = []AttackSeed{}
	}
	return doc
}

// writeAttackSeedFile writes the store atomically via a temp file rename
// in the same directory, creating parent directories on demand.
func writeAttackSeedFile(path string, doc attackSeedFile) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(dir, ".attack_seeds-*.json")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())

	enc := json.NewEncoder(tmp)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	if err := enc.Encode(doc); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), path)
}

func containsString(items []string, want string) bool {
	for _, s := range items {
		if s == want {
			return true
		}
	}
	return false
}

func containsInt(items []int, want int) bool {
	for _, n := range items {
		if n == want {
			return true
		}
	}
	return false
}
