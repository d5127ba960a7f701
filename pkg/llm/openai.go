package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/rampart-sec/rampart/pkg/httputil"
)

// DefaultGroqBaseURL is the OpenAI-compatible endpoint of Groq, the
// default primary backend.
const DefaultGroqBaseURL = "https://api.groq.com/openai/v1"

// Generous ceiling for a single completion body. Providers are untrusted;
// a broken one must not be able to balloon memory here.
const maxResponseBytes = 2 * 1024 * 1024

// OpenAIClient speaks the chat-completions protocol shared by Groq,
// OpenRouter and Ollama's /v1 shim. The zero temperature and token limits
// match the primary generation settings, not classification settings.
type OpenAIClient struct {
	client       *http.Client
	baseURL      string
	apiKey       string
	model        string
	systemPrompt string
	maxTokens    int
	temperature  float64
}

type OpenAIOption func(*OpenAIClient)

// WithModel overrides the completion model.
func WithModel(model string) OpenAIOption {
	return func(c *OpenAIClient) { c.model = model }
}

// WithMaxTokens caps the completion length.
func WithMaxTokens(n int) OpenAIOption {
	return func(c *OpenAIClient) { c.maxTokens = n }
}

// WithTemperature sets the sampling temperature.
func WithTemperature(t float64) OpenAIOption {
	return func(c *OpenAIClient) { c.temperature = t }
}

// WithSystemPrompt replaces the system prompt prepended by Generate.
// Chat is unaffected; callers of Chat supply their own system message.
func WithSystemPrompt(prompt string) OpenAIOption {
	return func(c *OpenAIClient) { c.systemPrompt = prompt }
}

// WithHTTPClient swaps the transport, mainly for tests.
func WithHTTPClient(client *http.Client) OpenAIOption {
	return func(c *OpenAIClient) { c.client = client }
}

// NewOpenAIClient builds a client for an OpenAI-compatible endpoint.
// An empty baseURL selects Groq. The API key may be empty for backends
// that do not authenticate (local Ollama).
func NewOpenAIClient(baseURL, apiKey string, opts ...OpenAIOption) *OpenAIClient {
	if baseURL == "" {
		baseURL = DefaultGroqBaseURL
	}
	c := &OpenAIClient{
		client:       httputil.SlowClient(),
		baseURL:      strings.TrimRight(baseURL, "/"),
		apiKey:       apiKey,
		model:        "llama-3.3-70b-versatile",
		systemPrompt: "You are a helpful assistant.",
		maxTokens:    1024,
		temperature:  0.7,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type chatRequest struct {
	Model       string    `json:"model"`
	Messages    []Message `json:"messages"`
	MaxTokens   int       `json:"max_tokens,omitempty"`
	Temperature float64   `json:"temperature"`
}

type chatResponse struct {
	Choices []struct {
		Message Message `json:"message"`
	} `json:"choices"`
}

// Generate prepends the configured system prompt and requests a completion.
func (c *OpenAIClient) Generate(ctx context.Context, history []Message) (string, error) {
	msgs := make([]Message, 0, len(history)+1)
	if c.systemPrompt != "" {
		msgs = append(msgs, Message{Role: RoleSystem, Content: c.systemPrompt})
	}
	msgs = append(msgs, history...)
	return c.Chat(ctx, msgs)
}

// Chat sends a complete message list to the chat-completions endpoint.
func (c *OpenAIClient) Chat(ctx context.Context, msgs []Message) (string, error) {
	payload, err := json.Marshal(chatRequest{
		Model:       c.model,
		Messages:    msgs,
		MaxTokens:   c.maxTokens,
		Temperature: c.temperature,
	})
	if err != nil {
		return "", err
	}

	endpoint := c.baseURL + "/chat/completions"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return "", err
	}
	defer httputil.DrainAndClose(resp.Body)

	body, err := httputil.ReadResponseBody(resp.Body, maxResponseBytes)
	if err != nil {
		return "", err
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("API error %d: %s", resp.StatusCode, string(body))
	}

	var result chatResponse
	if err := json.Unmarshal(body, &result); err != nil {
		return "", fmt.Errorf("unmarshal error: %w", err)
	}
	if len(result.Choices) == 0 {
		return "", fmt.Errorf("no choices returned")
	}
	return result.Choices[0].Message.Content, nil
}

var (
	_ Generator = (*OpenAIClient)(nil)
	_ Chatter   = (*OpenAIClient)(nil)
)
