// Package patterns provides a centralized registry of the weighted threat
// signatures shared by the pipeline stages. All regexes are compiled once at
// first use and reused across every turn.
//
// Design principles:
// - COMPILE ONCE: patterns compiled at init, not per-request
// - DRY: one source of truth for signatures consumed by multiple stages
// - CATEGORIZED: patterns grouped by the stage concern they serve
// - WEIGHTED: each pattern carries the score it contributes when summed
package patterns

import (
	"regexp"
	"sync"
)

// Category groups patterns by the stage concern they serve
type Category string

const (
	// Ingestion screening (layer 1)
	CategoryInjectionEnglish Category = "injection_english"
	CategoryInjectionHindi   Category = "injection_hindi"
	CategoryInjectionTamil   Category = "injection_tamil"

	// Tool manifest scanning (layer 2)
	CategoryToolDescription Category = "tool_description"
	CategoryToolEndpoint    Category = "tool_endpoint"
	CategoryToolParameter   Category = "tool_parameter"

	// RAG chunk scanning (layer 2)
	CategoryRAGInstruction        Category = "rag_instruction"
	CategoryRAGForbiddenMedical   Category = "rag_forbidden_medical"
	CategoryRAGForbiddenLegal     Category = "rag_forbidden_legal"
	CategoryRAGForbiddenTechnical Category = "rag_forbidden_technical"

	// Memory integrity (layer 3)
	CategoryMemoryImperative  Category = "memory_imperative"
	CategoryMemoryConditional Category = "memory_conditional"
	CategoryMemoryIdentity    Category = "memory_identity"

	// Inter-agent trust (layer 7)
	CategoryPrivilegeEscalation Category = "privilege_escalation"
	CategoryAgentControl        Category = "agent_control"
	CategoryScopeViolation      Category = "scope_violation"

	// Output filtering (layer 5)
	CategorySensitivePath Category = "sensitive_path"
)

// Pattern holds a compiled regex with scoring metadata
type Pattern struct {
	Name        string         // Stable identifier for logging and metadata
	Regex       *regexp.Regexp // Compiled regex (never nil after init)
	Category    Category       // Stage concern this pattern serves
	Weight      float64        // Score contribution when the pattern matches
	Description string         // What this pattern detects
}

// Registry holds all compiled patterns, organized by category
type Registry struct {
	mu         sync.RWMutex
	byCategory map[Category][]*Pattern
	all        []*Pattern
}

// global singleton - initialized once at package load
var (
	globalRegistry *Registry
	initOnce       sync.Once
)

// Get returns the global pattern registry (singleton)
// Thread-safe and guaranteed to be initialized
func Get() *Registry {
	initOnce.Do(func() {
		globalRegistry = newRegistry()
	})
	return globalRegistry
}

// newRegistry creates and populates the pattern registry
func newRegistry() *Registry {
	r := &Registry{
		byCategory: make(map[Category][]*Pattern),
		all:        make([]*Pattern, 0, 128),
	}

	r.registerInjectionPatterns()
	r.registerToolPatterns()
	r.registerRAGPatterns()
	r.registerMemoryPatterns()
	r.registerInterAgentPatterns()
	r.registerSensitivePathPatterns()

	return r
}

// register adds a pattern to the registry (internal use only)
func (r *Registry) register(name string, pattern string, category Category, weight float64, description string) {
	compiled := regexp.MustCompile(pattern)

	p := &Pattern{
		Name:        name,
		Regex:       compiled,
		Category:    category,
		Weight:      weight,
		Description: description,
	}

	r.byCategory[category] = append(r.byCategory[category], p)
	r.all = append(r.all, p)
}

// GetByCategory returns all patterns for a specific category
// Returns empty slice if category not found (never nil)
func (r *Registry) GetByCategory(cat Category) []*Pattern {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if patterns, ok := r.byCategory[cat]; ok {
		return patterns
	}
	return []*Pattern{}
}

// GetMultipleCategories returns patterns from multiple categories
func (r *Registry) GetMultipleCategories(cats ...Category) []*Pattern {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var result []*Pattern
	for _, cat := range cats {
		if patterns, ok := r.byCategory[cat]; ok {
			result = append(result, patterns...)
		}
	}
	return result
}

// MatchAny checks if text matches any pattern in the given categories
// Returns the first matching pattern or nil
func (r *Registry) MatchAny(text string, cats ...Category) *Pattern {
	patterns := r.GetMultipleCategories(cats...)
	for _, p := range patterns {
		if p.Regex.MatchString(text) {
			return p
		}
	}
	return nil
}

// MatchAll returns all patterns that match the text in given categories
// Use when you need to know ALL matches (for comprehensive scoring)
func (r *Registry) MatchAll(text string, cats ...Category) []*Pattern {
	patterns := r.GetMultipleCategories(cats...)
	var matches []*Pattern
	for _, p := range patterns {
		if p.Regex.MatchString(text) {
			matches = append(matches, p)
		}
	}
	return matches
}

// SumWeights returns the uncapped sum of weights of all matching patterns
// in the given categories. Callers apply their own caps.
func (r *Registry) SumWeights(text string, cats ...Category) float64 {
	var sum float64
	for _, p := range r.MatchAll(text, cats...) {
		sum += p.Weight
	}
	return sum
}

// TotalPatterns returns the total count of registered patterns
func (r *Registry) TotalPatterns() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.all)
}

// CategoryCount returns the number of patterns in a category
func (r *Registry) CategoryCount(cat Category) int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.byCategory[cat])
}
