package guard

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	"github.com/rampart-sec/rampart/pkg/patterns"
)

// PIIFinding is one redacted PII hit in a model response.
type PIIFinding struct {
	Type     string `json:"type"`
	Redacted string `json:"redacted"`
}

// piiPatterns run case-sensitive: PAN cards and API key prefixes are
// case-significant. Indian phone numbers are handled separately because
// they need digit-neighbour checks the regex engine cannot express.
var piiPatterns = []struct {
	re      *regexp.Regexp
	piiType string
}{
	{regexp.MustCompile(`\b(\d{4}\s\d{4}\s\d{4})\b`), "aadhaar"},
	{regexp.MustCompile(`\b([A-Z]{5}\d{4}[A-Z])\b`), "pan_card"},
	{regexp.MustCompile(`\b(\d{4}[-\s]\d{4}[-\s]\d{4}[-\s]\d{4})\b`), "credit_card"},
	{regexp.MustCompile(`\b((?:sk|pk)[-_](?:live|test|proj)?[-_]?[A-Za-z0-9]{10,})\b`), "api_key"},
	{regexp.MustCompile(`\b([A-Za-z0-9._%+-]+@[A-Za-z0-9.-]+\.[A-Za-z]{2,})\b`), "email"},
}

var indianPhoneRe = regexp.MustCompile(`[6-9]\d{9}`)

var leakageRes = []*regexp.Regexp{
	regexp.MustCompile(`(?i)\b(your|my)\s+instructions\b`),
	regexp.MustCompile(`(?i)\bsystem\s+prompt\b`),
	regexp.MustCompile(`(?i)\bthe\s+system\s+prompt\b`),
	regexp.MustCompile(`(?i)\bI\s+was\s+instructed\s+to\b`),
}

var toldToRe = regexp.MustCompile(`(?i)\bI\s+was\s+told\s+to\s+(\w+)`)
var youAreRe = regexp.MustCompile(`(?i)\bYou\s+are\b`)

// casualToldVerbs exempt harmless "I was told to contact support" style
// phrasing from the leakage check.
var casualToldVerbs = set(
	"contact", "call", "visit", "go", "see", "try", "check", "ask",
	"come", "leave", "wait", "stop", "buy", "eat", "drink",
)

var base64Re = regexp.MustCompile(`[A-Za-z0-9+/]{32,}={0,2}`)
var hexOnlyRe = regexp.MustCompile(`^[0-9a-fA-F]+$`)

// WithheldNotice replaces a response whose leakage or exfiltration
// signals fired. Unlike PII, those cannot be masked span by span.
const WithheldNotice = "[Response withheld: sensitive content detected]"

// OutputGuard inspects model responses before they reach the caller.
// The block threshold tightens as the session's cumulative risk rises,
// so a session that has already misbehaved gets less slack on output.
type OutputGuard struct {
	registry *patterns.Registry
}

func NewOutputGuard() *OutputGuard {
	return &OutputGuard{registry: patterns.Get()}
}

// Check scores a response for PII, system prompt leakage, and
// exfiltration shapes. sessionRisk must be in [0, 1].
func (g *OutputGuard) Check(responseText, systemPromptHash string, sessionRisk float64) (ClassifierResult, error) {
	if sessionRisk < 0 || sessionRisk > 1 {
		return ClassifierResult{}, invalidInput("session_risk_score", "must be between 0.0 and 1.0")
	}

	finalThreshold := roundTo(0.5-sessionRisk*0.2, 10)

	score := 0.0

	piiFound := DetectPII(responseText)
	for _, pii := range piiFound {
		if pii.Type == "api_key" {
			score += 0.35
		} else {
			score += 0.3
		}
	}

	leakage := detectSystemPromptLeakage(responseText)
	if leakage {
		score += 0.5
	}

	exfil := []string{}
	exfil = append(exfil, detectJSONExfiltration(responseText)...)
	exfil = append(exfil, detectBase64Exfiltration(responseText)...)
	exfil = append(exfil, detectCSVExfiltration(responseText)...)
	exfil = append(exfil, g.detectSensitivePaths(responseText)...)
	distinct := make(map[string]bool, len(exfil))
	for _, e := range exfil {
		distinct[e] = true
	}
	score += float64(len(distinct)) * 0.4

	score = roundTo(clamp01(score), 10)

	var parts []string
	if len(piiFound) > 0 {
		parts = append(parts, fmt.Sprintf("%d PII item(s) found, threat += %.1f", len(piiFound), float64(len(piiFound))*0.3))
	}
	if leakage {
		parts = append(parts, "System prompt leakage detected, threat += 0.5")
	}
	if len(exfil) > 0 {
		parts = append(parts, fmt.Sprintf("Exfiltration check: %s, threat += %.1f", strings.Join(exfil, ", "), float64(len(distinct))*0.4))
	}
	reason := "Output check passed, no threats detected"
	if len(parts) > 0 {
		reason = strings.Join(parts, "; ")
	}

	// PII spans can be masked in place, but a leaked prompt or an
	// exfiltration payload cannot: the substitute is a withheld notice.
	redacted := RedactPII(responseText)
	if leakage || len(distinct) > 0 {
		redacted = WithheldNotice
	}

	metadata := map[string]any{
		"pii_found":             piiFound,
		"system_prompt_leakage": leakage,
		"exfiltration_patterns": exfil,
		"session_risk_score":    sessionRisk,
		"final_threshold":       finalThreshold,
		"system_prompt_hash":    systemPromptHash,
		"redacted_response":     redacted,
	}

	return NewResultWithReason(score, finalThreshold, TagSensitiveDisclosure, reason, metadata), nil
}

// DetectPII returns a finding per PII match, already redacted. Raw
// values never leave this function.
func DetectPII(text string) []PIIFinding {
	findings := []PIIFinding{}
	for _, p := range piiPatterns {
		for _, m := range p.re.FindAllString(text, -1) {
			findings = append(findings, PIIFinding{Type: p.piiType, Redacted: redactValue(m, p.piiType)})
		}
	}
	for _, loc := range standalonePhones(text) {
		findings = append(findings, PIIFinding{Type: "indian_phone", Redacted: redactValue(text[loc[0]:loc[1]], "indian_phone")})
	}
	return findings
}

// RedactPII rewrites text with every PII value masked.
func RedactPII(text string) string {
	for _, p := range piiPatterns {
		piiType := p.piiType
		text = p.re.ReplaceAllStringFunc(text, func(m string) string {
			return redactValue(m, piiType)
		})
	}
	locs := standalonePhones(text)
	for i := len(locs) - 1; i >= 0; i-- {
		loc := locs[i]
		text = text[:loc[0]] + redactValue(text[loc[0]:loc[1]], "indian_phone") + text[loc[1]:]
	}
	return text
}

// standalonePhones finds 10-digit runs starting 6-9 with no adjacent
// digits, standing in for the lookarounds the original rule needs.
func standalonePhones(text string) [][]int {
	var out [][]int
	for _, loc := range indianPhoneRe.FindAllStringIndex(text, -1) {
		if loc[0] > 0 && isDigit(text[loc[0]-1]) {
			continue
		}
		if loc[1] < len(text) && isDigit(text[loc[1]]) {
			continue
		}
		out = append(out, loc)
	}
	return out
}

func isDigit(b byte) bool { return b >= '0' && b <= '9' }

func redactValue(value, piiType string) string {
	switch piiType {
	case "aadhaar":
		parts := strings.Fields(value)
		if len(parts) == 3 {
			return parts[0] + " **** " + parts[2]
		}
		return "****"
	case "email":
		at := strings.Index(value, "@")
		if at > 0 {
			return value[:1] + "***@" + value[at+1:]
		}
		return "****"
	case "credit_card":
		sep := " "
		if strings.Contains(value, "-") {
			sep = "-"
		}
		return "****" + sep + "****" + sep + "****" + sep + value[len(value)-4:]
	case "api_key":
		return value[:3] + "****"
	case "indian_phone":
		return value[:2] + "******" + value[len(value)-2:]
	case "pan_card":
		return value[:1] + "****" + value[len(value)-1:]
	}
	return "****"
}

func detectSystemPromptLeakage(text string) bool {
	for _, rx := range leakageRes {
		if rx.MatchString(text) {
			return true
		}
	}
	if m := toldToRe.FindStringSubmatch(text); m != nil {
		if !casualToldVerbs[strings.ToLower(m[1])] {
			return true
		}
	}
	// A long run of text after "You are" reads like a dumped persona
	// block rather than conversation.
	if loc := youAreRe.FindStringIndex(text); loc != nil && len(text)-loc[0] > 200 {
		return true
	}
	return false
}

// detectJSONExfiltration flags responses embedding a JSON object with
// more than three top-level keys.
func detectJSONExfiltration(text string) []string {
	for i := 0; i < len(text); i++ {
		if text[i] != '{' {
			continue
		}
		dec := json.NewDecoder(strings.NewReader(text[i:]))
		var obj any
		if err := dec.Decode(&obj); err != nil {
			continue
		}
		if m, ok := obj.(map[string]any); ok && len(m) > 3 {
			return []string{"json_blob"}
		}
	}
	return nil
}

// detectBase64Exfiltration flags base64-looking runs of 32+ chars.
// Pure hex (hashes, fingerprints) is exempt.
func detectBase64Exfiltration(text string) []string {
	for _, blob := range base64Re.FindAllString(text, -1) {
		if hexOnlyRe.MatchString(blob) {
			continue
		}
		return []string{"base64_blob"}
	}
	return nil
}

// detectCSVExfiltration flags tabular dumps: a header with 2+ commas
// followed by at least two rows with the same column count.
func detectCSVExfiltration(text string) []string {
	var lines []string
	for _, l := range splitLines(strings.TrimSpace(text)) {
		if s := strings.TrimSpace(l); s != "" {
			lines = append(lines, s)
		}
	}
	if len(lines) < 3 {
		return nil
	}
	headerCommas := strings.Count(lines[0], ",")
	if headerCommas < 2 {
		return nil
	}
	matching := 0
	for _, l := range lines[1:] {
		if strings.Count(l, ",") == headerCommas {
			matching++
		}
	}
	if matching >= 2 {
		return []string{"csv_data"}
	}
	return nil
}

func (g *OutputGuard) detectSensitivePaths(text string) []string {
	for _, p := range g.registry.GetByCategory(patterns.CategorySensitivePath) {
		if p.Regex.MatchString(text) {
			return []string{"sensitive_paths"}
		}
	}
	return nil
}
