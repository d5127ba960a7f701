package guard

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/rampart-sec/rampart/pkg/patterns"
)

// Document type labels accepted by the RAG scanner.
const (
	DocTypeMedical   = "medical"
	DocTypeLegal     = "legal"
	DocTypeTechnical = "technical"
	DocTypeResearch  = "research"
	DocTypeFinancial = "financial"
	DocTypeGeneral   = "general"
)

var validDocTypes = map[string]bool{
	DocTypeMedical:   true,
	DocTypeLegal:     true,
	DocTypeTechnical: true,
	DocTypeResearch:  true,
	DocTypeFinancial: true,
	DocTypeGeneral:   true,
}

// forbiddenByDocType maps a declared document type to the pattern
// category that must not appear in it. Types without an entry have no
// out-of-context rules.
var forbiddenByDocType = map[string]patterns.Category{
	DocTypeMedical:   patterns.CategoryRAGForbiddenMedical,
	DocTypeLegal:     patterns.CategoryRAGForbiddenLegal,
	DocTypeTechnical: patterns.CategoryRAGForbiddenTechnical,
}

const (
	ragThreshold       = 0.45
	ragHighConfidence  = 0.50
	ragSoloDiscount    = 0.6
	ragCorroborationMu = 0.7
)

var (
	zeroWidthRe  = regexp.MustCompile("[​‌‍]")
	rloRe        = regexp.MustCompile("[‪-‮⁦-⁩]")
	invisibleRe  = regexp.MustCompile("[​‌‍\uFEFF­⁠-⁤]")
	htmlEntityRe = regexp.MustCompile(`(?i)&lt;script|&lt;img|&#x3C;|&#60;`)
)

// ragAttackPhrases is a keyword fallback for paraphrased attacks hidden
// in otherwise clean chunks. Only the first hit counts.
var ragAttackPhrases = []*regexp.Regexp{
	regexp.MustCompile(`(?i)ignore\s+(all\s+)?previous\s+instructions`),
	regexp.MustCompile(`(?i)reveal\s+(your\s+)?system\s+prompt`),
	regexp.MustCompile(`(?i)forget\s+everything`),
	regexp.MustCompile(`(?i)bypass\s+safety`),
	regexp.MustCompile(`(?i)you\s+are\s+now\s+(unrestricted|DAN)`),
	regexp.MustCompile(`(?i)override\s+(all\s+)?constraints`),
}

// RAGScanner inspects document chunks before they enter retrieval
// context. Three independent methods vote through a corroboration
// model: a single weak signal is discounted, a single strong signal or
// any two signals together fail the chunk.
type RAGScanner struct {
	registry *patterns.Registry
}

func NewRAGScanner() *RAGScanner {
	return &RAGScanner{registry: patterns.Get()}
}

// Scan scores a chunk against its declared document type. An empty
// documentType skips the context inconsistency method.
func (s *RAGScanner) Scan(text, documentType string) ClassifierResult {
	m1Score, m1Patterns := s.detectInstructionPatterns(text)
	m2Score, m2Reason := detectSemanticAnomaly(text)
	m3Score, m3Reason := s.detectContextInconsistency(text, documentType)

	triggered := 0
	for _, v := range []float64{m1Score, m2Score, m3Score} {
		if v > 0 {
			triggered++
		}
	}

	var score float64
	switch {
	case triggered == 0:
		score = 0
	case triggered == 1:
		solo := m1Score
		if m2Score > solo {
			solo = m2Score
		}
		if m3Score > solo {
			solo = m3Score
		}
		if solo >= ragHighConfidence {
			score = solo
		} else {
			score = solo * ragSoloDiscount
		}
	default:
		score = (m1Score + m2Score + m3Score) * ragCorroborationMu
		if score > 1 {
			score = 1
		}
	}
	score = round4(clamp01(score))

	var reasons []string
	if m1Score > 0 {
		reasons = append(reasons, fmt.Sprintf("Instruction patterns detected (score=%.2f)", m1Score))
	}
	if m2Score > 0 {
		reasons = append(reasons, fmt.Sprintf("Unicode/invisible character anomaly (score=%.2f)", m2Score))
	}
	if m3Score > 0 {
		reasons = append(reasons, fmt.Sprintf("Context inconsistency for %s (score=%.2f)", documentType, m3Score))
	}
	reason := "No threats detected"
	if len(reasons) > 0 {
		reason = strings.Join(reasons, "; ")
	}

	docType := documentType
	if docType == "" {
		docType = "unknown"
	}
	metadata := map[string]any{
		"method_1_score":    round4(m1Score),
		"method_2_score":    round4(m2Score),
		"method_3_score":    round4(m3Score),
		"method_1_patterns": m1Patterns,
		"method_2_reason":   m2Reason,
		"method_3_reason":   m3Reason,
		"methods_triggered": triggered,
		"document_type":     docType,
	}

	return NewResultWithReason(score, ragThreshold, TagVectorWeakness, reason, metadata)
}

func (s *RAGScanner) detectInstructionPatterns(text string) (float64, []string) {
	found := []string{}
	if text == "" {
		return 0, found
	}
	score := 0.0
	for _, p := range s.registry.GetByCategory(patterns.CategoryRAGInstruction) {
		if p.Regex.MatchString(text) {
			score += p.Weight
			found = append(found, displayPattern(p.Regex))
		}
	}
	if score > 1 {
		score = 1
	}
	return score, found
}

func detectSemanticAnomaly(text string) (float64, string) {
	if text == "" {
		return 0, ""
	}
	score := 0.0
	var reasons []string

	zwCount := len(zeroWidthRe.FindAllString(text, -1))
	if zwCount >= 2 {
		bonus := float64(zwCount) * 0.05
		if bonus > 0.3 {
			bonus = 0.3
		}
		score += 0.6 + bonus
		reasons = append(reasons, "Multiple zero-width characters detected")
	}

	if rloRe.MatchString(text) {
		score += 0.5
		reasons = append(reasons, "Right-to-left override characters detected")
	}

	if invisibleRe.MatchString(text) && zwCount == 0 {
		score += 0.3
		reasons = append(reasons, "Invisible Unicode characters detected")
	}

	if htmlEntityRe.MatchString(text) {
		score += 0.4
		reasons = append(reasons, "HTML entity encoding detected")
	}

	for _, phrase := range ragAttackPhrases {
		if phrase.MatchString(text) {
			score += 0.35
			reasons = append(reasons, "Attack-like phrase detected")
			break
		}
	}

	if score > 1 {
		score = 1
	}
	return score, strings.Join(reasons, "; ")
}

func (s *RAGScanner) detectContextInconsistency(text, documentType string) (float64, string) {
	if text == "" || documentType == "" {
		return 0, ""
	}
	docType := strings.ToLower(documentType)
	if !validDocTypes[docType] {
		return 0, "invalid document type: " + docType
	}

	category, ok := forbiddenByDocType[docType]
	if !ok {
		return 0, ""
	}
	for _, p := range s.registry.GetByCategory(category) {
		if p.Regex.MatchString(text) {
			reason := fmt.Sprintf("Forbidden pattern '%s' in %s doc", displayPattern(p.Regex), docType)
			return 0.5, reason
		}
	}
	return 0, ""
}

// displayPattern strips the case-folding flag so reported patterns read
// the way they were authored.
func displayPattern(re *regexp.Regexp) string {
	return strings.TrimPrefix(re.String(), "(?i)")
}
