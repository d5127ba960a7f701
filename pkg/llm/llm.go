// Package llm talks to the response-generating model backends.
//
// The gateway treats generation as an opaque capability: history in, text
// out. Two transports are provided, an OpenAI-compatible chat-completions
// client (Groq, OpenRouter, Ollama's /v1 shim) and a native Ollama client,
// plus a decoy generator that chains them for honeypot sessions.
package llm

import "context"

// Message is one turn of a chat transcript in wire order.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Generator produces the assistant reply for a conversation history.
// The history carries user and assistant turns only; implementations
// prepend their own system prompt.
type Generator interface {
	Generate(ctx context.Context, history []Message) (string, error)
}

// Chatter is the raw transport under a Generator: it sends a complete
// message list, system prompt included, and returns the reply text.
type Chatter interface {
	Chat(ctx context.Context, msgs []Message) (string, error)
}

// Canned replies used when every backend is unreachable. The pipeline
// substitutes FallbackUnavailable on primary outages; the decoy generator
// returns FallbackDecoy itself so honeypot sessions never see an error.
const (
	FallbackUnavailable = "I'm currently unable to process your request. Please try again later."
	FallbackDecoy       = "I can help with that. Let me look into it for you."
)

// StaticGenerator returns a fixed reply. It backs offline mode and tests.
type StaticGenerator struct {
	Response string
	Err      error
}

func (g *StaticGenerator) Generate(_ context.Context, _ []Message) (string, error) {
	return g.Response, g.Err
}

func (g *StaticGenerator) Chat(_ context.Context, _ []Message) (string, error) {
	return g.Response, g.Err
}

var (
	_ Generator = (*StaticGenerator)(nil)
	_ Chatter   = (*StaticGenerator)(nil)
)
