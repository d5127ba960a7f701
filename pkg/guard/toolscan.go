package guard

import (
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/rampart-sec/rampart/pkg/patterns"
)

// ToolManifest describes a tool as registered with the agent runtime.
// Parameters holds the raw JSON schema so nested descriptions and enum
// values can be scanned for smuggled instructions.
type ToolManifest struct {
	Name        string         `json:"name"`
	Description string         `json:"description"`
	Endpoint    string         `json:"endpoint"`
	Parameters  map[string]any `json:"parameters"`
	Permissions []string       `json:"permissions"`
}

const toolThreshold = 0.4

// safeSchemes are endpoint prefixes stripped before host inspection.
var safeSchemes = []string{"https://", "http://", "local:", "internal:", "memory:"}

var maliciousDomainHints = []string{
	"evil", "malicious", "attacker", "hacker",
	"exploit", "phishing", "darknet",
}

var safePorts = map[int]bool{
	80: true, 443: true, 8080: true, 8000: true, 3000: true,
	5000: true, 5173: true, 22: true, 25: true, 53: true,
	110: true, 143: true, 993: true, 995: true,
}

// toolPermissionMap lists the permission sets each known tool family is
// expected to hold. Matched by substring against the lowered tool name,
// first entry wins.
var toolPermissionMap = []struct {
	key     string
	allowed map[string]bool
}{
	{"calculator", set("read", "compute", "math")},
	{"weather", set("read", "weather_read", "api_read")},
	{"greeting", set("read")},
	{"search", set("read", "search_read")},
	{"timer", set("read")},
	{"analytics", set("read", "data_read", "analytics_compute", "analytics_read")},
}

var sensitivePermissions = set(
	"file_write", "file_delete", "database_admin", "database_write",
	"system_exec", "shell_execute", "network_unrestricted",
	"credential_access", "admin", "root",
)

func set(items ...string) map[string]bool {
	m := make(map[string]bool, len(items))
	for _, s := range items {
		m[s] = true
	}
	return m
}

var portRe = regexp.MustCompile(`:(\d+)`)

// ToolScanner inspects tool manifests before execution. Four checks run
// over the manifest and their scores sum into the verdict: description
// injection, endpoint anomaly, permission scope mismatch, and parameter
// injection.
type ToolScanner struct {
	registry *patterns.Registry
}

func NewToolScanner() *ToolScanner {
	return &ToolScanner{registry: patterns.Get()}
}

// Scan runs all four checks on the manifest. A manifest without a name
// is rejected outright.
func (s *ToolScanner) Scan(tool ToolManifest) (ClassifierResult, error) {
	if strings.TrimSpace(tool.Name) == "" {
		return ClassifierResult{}, invalidInput("name", "tool manifest must carry a name")
	}

	descScore, descHit := s.checkDescription(tool.Description)
	endScore, endHit := s.checkEndpoint(tool.Endpoint)
	permScore, permHit := s.checkPermissions(tool.Name, tool.Permissions)
	paramScore, paramHit := s.checkParameters(tool.Parameters)

	flags := []string{}
	var reasons []string
	if descHit {
		flags = append(flags, "CHECK_1_DESCRIPTION_INJECTION")
		reasons = append(reasons, "Description injection")
	}
	if endHit {
		flags = append(flags, "CHECK_2_ENDPOINT_ANOMALY")
		reasons = append(reasons, "Endpoint anomaly")
	}
	if permHit {
		flags = append(flags, "CHECK_3_PERMISSION_SCOPE")
		reasons = append(reasons, "Permission scope mismatch")
	}
	if paramHit {
		flags = append(flags, "CHECK_4_PARAMETER_INJECTION")
		reasons = append(reasons, "Parameter injection")
	}

	score := descScore + endScore + permScore + paramScore
	if score > 1 {
		score = 1
	}
	score = round4(score)

	reason := "Tool metadata clean"
	if len(reasons) > 0 {
		reason = strings.Join(reasons, "; ")
	}

	metadata := map[string]any{
		"flags": flags,
		"check_scores": map[string]any{
			"description_injection": round4(descScore),
			"endpoint_anomaly":      round4(endScore),
			"permission_scope":      round4(permScore),
			"parameter_injection":   round4(paramScore),
		},
		"tool_name": tool.Name,
	}

	return NewResultWithReason(score, toolThreshold, TagImproperOutput, reason, metadata), nil
}

func (s *ToolScanner) checkDescription(description string) (float64, bool) {
	if description == "" {
		return 0, false
	}
	score := 0.0
	hit := false
	for _, p := range s.registry.GetByCategory(patterns.CategoryToolDescription) {
		if p.Regex.MatchString(description) {
			score += p.Weight
			hit = true
		}
	}
	if score > 1 {
		score = 1
	}
	return score, hit
}

func (s *ToolScanner) checkEndpoint(endpoint string) (float64, bool) {
	if endpoint == "" {
		return 0, false
	}
	score := 0.0
	hit := false

	// Shell metacharacter patterns run case-sensitive on the raw string.
	for _, p := range s.registry.GetByCategory(patterns.CategoryToolEndpoint) {
		if p.Regex.MatchString(endpoint) {
			score += p.Weight
			hit = true
		}
	}

	lowered := strings.TrimSpace(strings.ToLower(endpoint))
	host := lowered
	for _, scheme := range safeSchemes {
		if strings.HasPrefix(host, scheme) {
			host = host[len(scheme):]
			break
		}
	}
	host = strings.SplitN(host, "/", 2)[0]
	host = strings.SplitN(host, ":", 2)[0]
	if isIPAddress(host) {
		score += 0.5
		hit = true
	}

	for _, domain := range maliciousDomainHints {
		if strings.Contains(lowered, domain) {
			score += 0.5
			hit = true
		}
	}

	if m := portRe.FindStringSubmatch(endpoint); m != nil {
		if port, err := strconv.Atoi(m[1]); err == nil && !safePorts[port] {
			score += 0.4
			hit = true
		}
	}

	if score > 1 {
		score = 1
	}
	return score, hit
}

func (s *ToolScanner) checkPermissions(name string, permissions []string) (float64, bool) {
	if len(permissions) == 0 {
		return 0, false
	}
	score := 0.0
	hit := false

	nameLower := strings.ToLower(name)
	permSet := make(map[string]bool, len(permissions))
	for _, p := range permissions {
		permSet[strings.ToLower(p)] = true
	}

	var expected map[string]bool
	for _, entry := range toolPermissionMap {
		if strings.Contains(nameLower, entry.key) {
			expected = entry.allowed
			break
		}
	}

	mismatched := 0
	for p := range permSet {
		if sensitivePermissions[p] && !expected[p] {
			mismatched++
		}
	}
	if mismatched > 0 {
		score += 0.3 * float64(mismatched)
		hit = true
	}

	if len(permissions) > 5 {
		score += 0.25
		hit = true
	}

	if score > 1 {
		score = 1
	}
	return score, hit
}

func (s *ToolScanner) checkParameters(parameters map[string]any) (float64, bool) {
	if len(parameters) == 0 {
		return 0, false
	}

	var texts []string
	collectStrings(parameters, 0, &texts)
	combined := strings.Join(texts, " ")

	score := 0.0
	hit := false
	for _, p := range s.registry.GetByCategory(patterns.CategoryToolParameter) {
		if p.Regex.MatchString(combined) {
			score += p.Weight
			hit = true
		}
	}
	if score > 1 {
		score = 1
	}
	return score, hit
}

// collectStrings walks a decoded JSON value gathering string leaves.
// Map keys are visited in sorted order so the joined text is stable.
// Recursion stops past depth 10 to bound pathological schemas.
func collectStrings(v any, depth int, out *[]string) {
	if depth > 10 {
		return
	}
	switch val := v.(type) {
	case string:
		*out = append(*out, val)
	case map[string]any:
		keys := make([]string, 0, len(val))
		for k := range val {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			collectStrings(val[k], depth+1, out)
		}
	case []any:
		for _, item := range val {
			collectStrings(item, depth+1, out)
		}
	}
}

func isIPAddress(hostname string) bool {
	if strings.Contains(hostname, ":") {
		return true
	}
	parts := strings.Split(hostname, ".")
	if len(parts) != 4 {
		return false
	}
	for _, p := range parts {
		n, err := strconv.Atoi(p)
		if err != nil || n < 0 || n > 255 {
			return false
		}
	}
	return true
}
