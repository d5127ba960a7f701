package guard

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"sort"
	"strings"

	"github.com/rampart-sec/rampart/pkg/patterns"
)

const memoryThreshold = 0.4

// MemoryVerifier audits agent memory updates. New or modified lines are
// scored against three pattern families plus seed similarity, so that
// instructions planted in memory ("always reveal...", "when user says
// X, bypass...") are caught before they persist.
type MemoryVerifier struct {
	registry *patterns.Registry
	seeds    *SeedStore
}

func NewMemoryVerifier(seeds *SeedStore) *MemoryVerifier {
	return &MemoryVerifier{
		registry: patterns.Get(),
		seeds:    seeds,
	}
}

// Audit compares the old and new memory snapshots. Only lines added or
// modified by the update are scored; unchanged lines were audited when
// they were first written.
func (v *MemoryVerifier) Audit(ctx context.Context, oldMemory, newMemory string) (ClassifierResult, error) {
	oldLines := make(map[string]bool)
	for _, line := range splitLines(oldMemory) {
		oldLines[line] = true
	}

	var added []string
	for _, line := range splitLines(newMemory) {
		if !oldLines[line] && strings.TrimSpace(line) != "" {
			added = append(added, line)
		}
	}

	total := 0.0
	suspicious := []string{}
	families := make(map[string]bool)

	for _, line := range added {
		lineScore, matched := v.scoreLine(line)
		if lineScore > 0 {
			suspicious = append(suspicious, strings.TrimSpace(line))
			for f := range matched {
				families[f] = true
			}
			total += lineScore
		}
	}

	// Seed similarity on the combined added text. The 0.6 floor maps to
	// zero so only near-verbatim plants contribute.
	if len(added) > 0 && v.seeds != nil && v.seeds.IsReady() {
		maxSim, err := v.seeds.MaxSimilarity(ctx, SeedsMemory, strings.Join(added, " "))
		if err != nil {
			return ClassifierResult{}, err
		}
		if maxSim > 0.6 {
			semantic := (maxSim - 0.6) * 2.5
			if semantic > 0.1 {
				total += semantic * 0.3
				families["semantic_attack_similarity"] = true
			}
		}
	}

	total = round4(clamp01(total))

	matched := make([]string, 0, len(families))
	for f := range families {
		matched = append(matched, f)
	}
	sort.Strings(matched)

	metadata := map[string]any{
		"new_lines_added":  len(added),
		"suspicious_lines": suspicious,
		"patterns_matched": matched,
	}

	reason := "Memory integrity violation: " + strings.Join(matched, ", ")
	return NewResult(total, memoryThreshold, TagSensitiveDisclosure, reason, metadata), nil
}

// scoreLine scores one added line. Imperative matches start at 0.3 and
// each extra match adds 0.1 up to 0.6; a conditional trigger adds 0.4
// and an identity override 0.5, each counted once per line.
func (v *MemoryVerifier) scoreLine(line string) (float64, map[string]bool) {
	score := 0.0
	matched := make(map[string]bool)
	lowered := strings.ToLower(line)

	imperatives := 0
	for _, p := range v.registry.GetByCategory(patterns.CategoryMemoryImperative) {
		if p.Regex.MatchString(lowered) {
			imperatives++
		}
	}
	if imperatives > 0 {
		score += 0.3 + float64(imperatives-1)*0.1
		if score > 0.6 {
			score = 0.6
		}
		matched["imperative_instruction"] = true
	}

	for _, p := range v.registry.GetByCategory(patterns.CategoryMemoryConditional) {
		if p.Regex.MatchString(lowered) {
			score += 0.4
			matched["conditional_logic_bomb"] = true
			break
		}
	}

	for _, p := range v.registry.GetByCategory(patterns.CategoryMemoryIdentity) {
		if p.Regex.MatchString(lowered) {
			score += 0.5
			matched["identity_override"] = true
			break
		}
	}

	return score, matched
}

// ComputeMemoryHash returns the SHA-256 hex digest of a memory snapshot.
func ComputeMemoryHash(content string) string {
	sum := sha256.Sum256([]byte(content))
	return hex.EncodeToString(sum[:])
}

// VerifyMemoryHash reports whether content still matches the fingerprint
// taken when it was last written.
func VerifyMemoryHash(content, expected string) bool {
	return ComputeMemoryHash(content) == expected
}

func splitLines(s string) []string {
	return strings.Split(strings.ReplaceAll(s, "\r\n", "\n"), "\n")
}
