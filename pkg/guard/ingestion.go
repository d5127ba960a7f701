package guard

import (
	"context"
	"fmt"
	"math"
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/unicode/norm"

	"github.com/rampart-sec/rampart/pkg/patterns"
)

// RoleThresholds maps caller roles to the threat score at which input is
// blocked. Guest is strictest, admin is most permissive.
var RoleThresholds = map[string]float64{
	"guest": 0.5,
	"user":  0.65,
	"admin": 0.85,
}

const defaultRoleThreshold = 0.5

func thresholdForRole(role string) float64 {
	if t, ok := RoleThresholds[role]; ok {
		return t
	}
	return defaultRoleThreshold
}

// indicScripts lists the Unicode ranges checked during script detection.
// Order matters: detected script names are reported in table order.
var indicScripts = []struct {
	name   string
	lo, hi rune
}{
	{"Devanagari", 0x0900, 0x097F},
	{"Bengali", 0x0980, 0x09FF},
	{"Gujarati", 0x0A80, 0x0AFF},
	{"Odia", 0x0B00, 0x0B7F},
	{"Gurmukhi", 0x0A00, 0x0A7F},
	{"Tamil", 0x0B80, 0x0BFF},
	{"Telugu", 0x0C00, 0x0C7F},
	{"Kannada", 0x0C80, 0x0CFF},
	{"Malayalam", 0x0D00, 0x0D7F},
	{"CJK", 0x4E00, 0x9FFF},
	{"Arabic", 0x0600, 0x06FF},
	{"Cyrillic", 0x0400, 0x04FF},
}

// homoglyphs maps Cyrillic lookalikes onto their Latin twins so that
// "Ignоre" written with a Cyrillic о still hits the regex tables.
var homoglyphs = map[rune]rune{
	'А': 'A', 'В': 'B', 'С': 'C', 'Е': 'E',
	'Н': 'H', 'К': 'K', 'М': 'M', 'О': 'O',
	'Р': 'P', 'Т': 'T', 'Х': 'X',
	'а': 'a', 'е': 'e', 'о': 'o', 'р': 'p',
	'с': 'c', 'у': 'y', 'х': 'x',
}

// Sanitized is the normalized form of an incoming message plus the
// anomalies observed while producing it.
type Sanitized struct {
	Text         string
	Scripts      []string
	Language     string
	AnomalyScore float64
	Anomalies    []string
}

// IngestionGuard is the first stage of the pipeline. It normalizes
// Unicode, folds homoglyphs, and scores the result with multilingual
// regex tables plus seed similarity under role-based thresholds.
type IngestionGuard struct {
	registry *patterns.Registry
	seeds    *SeedStore
}

// NewIngestionGuard creates the guard. The seed store may be nil, in
// which case classification degrades to pattern scoring only.
func NewIngestionGuard(seeds *SeedStore) *IngestionGuard {
	return &IngestionGuard{
		registry: patterns.Get(),
		seeds:    seeds,
	}
}

// Sanitize applies NFKD normalization and homoglyph folding, detects
// which scripts the original text mixes, and accumulates anomaly bonuses
// for mixed-script input and unusually symbol-heavy input.
func (g *IngestionGuard) Sanitize(text string) Sanitized {
	folded := strings.Map(func(r rune) rune {
		if mapped, ok := homoglyphs[r]; ok {
			return mapped
		}
		return r
	}, norm.NFKD.String(text))

	scripts := detectScripts(text)
	language := "English"
	if len(scripts) > 0 {
		language = strings.Join(scripts, "/")
	}

	san := Sanitized{
		Text:     folded,
		Scripts:  scripts,
		Language: language,
	}

	if len(scripts) > 1 {
		san.AnomalyScore += 0.15
		san.Anomalies = append(san.Anomalies, "Mixed-script input: "+language)
	}

	special := 0
	total := utf8.RuneCountInString(text)
	for _, r := range text {
		if !unicode.IsLetter(r) && !unicode.IsDigit(r) && !unicode.IsSpace(r) {
			special++
		}
	}
	if total == 0 {
		total = 1
	}
	if float64(special)/float64(total) > 0.3 {
		san.AnomalyScore += 0.2
		san.Anomalies = append(san.Anomalies, "High special-character ratio")
	}

	return san
}

// Analyze sanitizes and classifies a message in one pass, returning the
// verdict together with the sanitized form for downstream stages.
func (g *IngestionGuard) Analyze(ctx context.Context, message, role string) (ClassifierResult, Sanitized, error) {
	if strings.TrimSpace(message) == "" {
		return ClassifierResult{}, Sanitized{}, invalidInput("message", "must not be empty")
	}

	role = strings.ToLower(strings.TrimSpace(role))
	if role == "" {
		role = "guest"
	}

	san := g.Sanitize(message)
	lowered := strings.ToLower(san.Text)

	patternScore := g.registry.SumWeights(lowered,
		patterns.CategoryInjectionEnglish,
		patterns.CategoryInjectionHindi,
		patterns.CategoryInjectionTamil,
	)
	if patternScore > 1 {
		patternScore = 1
	}

	// Seed similarity is optional. Without a loaded store the stage
	// degrades to pattern scoring; a loaded store that fails to answer
	// is a detector failure and the caller fails closed. The query uses
	// the folded text with case intact because the hash embedder is
	// byte-sensitive.
	var semanticScore float64
	semanticReady := g.seeds != nil && g.seeds.IsReady()
	if semanticReady {
		sim, err := g.seeds.MaxSimilarity(ctx, SeedsInjection, san.Text)
		if err != nil {
			return ClassifierResult{}, Sanitized{}, err
		}
		semanticScore = sim
	}

	threat := round4(clamp01(math.Max(patternScore, semanticScore) + san.AnomalyScore))
	threshold := thresholdForRole(role)

	metadata := map[string]any{
		"role":              role,
		"threshold":         threshold,
		"pattern_score":     round4(patternScore),
		"detected_language": san.Language,
	}
	if semanticReady {
		metadata["semantic_score"] = round4(semanticScore)
	} else {
		metadata["semantic_score"] = nil
	}
	if san.AnomalyScore > 0 {
		metadata["anomaly_score"] = round4(san.AnomalyScore)
		metadata["anomalies"] = san.Anomalies
	}

	reason := fmt.Sprintf("Threat detected (score=%.2f, threshold=%v)", threat, threshold)
	return NewResult(threat, threshold, TagPromptInjection, reason, metadata), san, nil
}

// Classify is Analyze without the sanitized text, for callers that only
// need the verdict.
func (g *IngestionGuard) Classify(ctx context.Context, message, role string) (ClassifierResult, error) {
	result, _, err := g.Analyze(ctx, message, role)
	return result, err
}

func detectScripts(text string) []string {
	matched := make(map[string]bool)
	hasLatin := false
	for _, r := range text {
		if (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') {
			hasLatin = true
			continue
		}
		for _, s := range indicScripts {
			if r >= s.lo && r <= s.hi {
				matched[s.name] = true
				break
			}
		}
	}

	var found []string
	if hasLatin {
		found = append(found, "Latin")
	}
	for _, s := range indicScripts {
		if matched[s.name] {
			found = append(found, s.name)
		}
	}
	return found
}
