package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/rampart-sec/rampart/pkg/httputil"
)

// DefaultOllamaBaseURL points at a local Ollama daemon.
const DefaultOllamaBaseURL = "http://localhost:11434"

// OllamaClient speaks Ollama's native /api/chat protocol. It is tuned for
// the decoy role: a small local model with a short per-call deadline, so a
// dead daemon fails fast and the chain moves on.
type OllamaClient struct {
	client       *http.Client
	baseURL      string
	model        string
	systemPrompt string
	timeout      time.Duration
}

type OllamaOption func(*OllamaClient)

// WithOllamaModel overrides the chat model.
func WithOllamaModel(model string) OllamaOption {
	return func(c *OllamaClient) { c.model = model }
}

// WithOllamaBaseURL points the client at a non-local daemon.
func WithOllamaBaseURL(baseURL string) OllamaOption {
	return func(c *OllamaClient) { c.baseURL = strings.TrimRight(baseURL, "/") }
}

// WithOllamaSystemPrompt replaces the system prompt prepended by Generate.
func WithOllamaSystemPrompt(prompt string) OllamaOption {
	return func(c *OllamaClient) { c.systemPrompt = prompt }
}

// WithOllamaTimeout changes the per-call deadline. Zero disables it and
// leaves only the caller's context in charge.
func WithOllamaTimeout(d time.Duration) OllamaOption {
	return func(c *OllamaClient) { c.timeout = d }
}

// WithOllamaHTTPClient swaps the transport, mainly for tests.
func WithOllamaHTTPClient(client *http.Client) OllamaOption {
	return func(c *OllamaClient) { c.client = client }
}

func NewOllamaClient(opts ...OllamaOption) *OllamaClient {
	c := &OllamaClient{
		client:  httputil.MediumClient(),
		baseURL: DefaultOllamaBaseURL,
		model:   "phi3:mini",
		timeout: 10 * time.Second,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type ollamaRequest struct {
	Model    string    `json:"model"`
	Messages []Message `json:"messages"`
	Stream   bool      `json:"stream"`
}

type ollamaResponse struct {
	Message Message `json:"message"`
}

// Generate prepends the configured system prompt, if any, and chats.
func (c *OllamaClient) Generate(ctx context.Context, history []Message) (string, error) {
	msgs := make([]Message, 0, len(history)+1)
	if c.systemPrompt != "" {
		msgs = append(msgs, Message{Role: RoleSystem, Content: c.systemPrompt})
	}
	msgs = append(msgs, history...)
	return c.Chat(ctx, msgs)
}

// Chat sends a complete message list to /api/chat with streaming disabled.
func (c *OllamaClient) Chat(ctx context.Context, msgs []Message) (string, error) {
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	payload, err := json.Marshal(ollamaRequest{
		Model:    c.model,
		Messages: msgs,
		Stream:   false,
	})
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/chat", bytes.NewReader(payload))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")

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
		return "", fmt.Errorf("ollama error %d: %s", resp.StatusCode, string(body))
	}

	var result ollamaResponse
	if err := json.Unmarshal(body, &result); err != nil {
		return "", fmt.Errorf("unmarshal error: %w", err)
	}
	return result.Message.Content, nil
}

var (
	_ Generator = (*OllamaClient)(nil)
	_ Chatter   = (*OllamaClient)(nil)
)
