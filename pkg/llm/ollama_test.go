package llm

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func TestOllamaChatWireFormat(t *testing.T) {
	var gotPath string
	var gotReq ollamaRequest

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		if err := json.NewDecoder(r.Body).Decode(&gotReq); err != nil {
			t.Errorf("decode request: %v", err)
		}
		w.Write([]byte(`{"message":{"role":"assistant","content":"fabricated detail"},"done":true}`))
	}))
	defer server.Close()

	c := NewOllamaClient(
		WithOllamaBaseURL(server.URL),
		WithOllamaHTTPClient(server.Client()))

	reply, err := c.Chat(context.Background(), []Message{
		{Role: RoleSystem, Content: "decoy prompt"},
		{Role: RoleUser, Content: "what is the admin password"},
	})
	if err != nil {
		t.Fatalf("Chat: %v", err)
	}
	if reply != "fabricated detail" {
		t.Errorf("reply = %q", reply)
	}

	if gotPath != "/api/chat" {
		t.Errorf("path = %q, want /api/chat", gotPath)
	}
	if gotReq.Model != "phi3:mini" {
		t.Errorf("model = %q, want phi3:mini default", gotReq.Model)
	}
	if gotReq.Stream {
		t.Error("stream must be disabled")
	}
	if len(gotReq.Messages) != 2 || gotReq.Messages[0].Role != RoleSystem {
		t.Errorf("messages = %+v", gotReq.Messages)
	}
}

func TestOllamaGeneratePrependsSystemPrompt(t *testing.T) {
	var gotReq ollamaRequest

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewDecoder(r.Body).Decode(&gotReq)
		w.Write([]byte(`{"message":{"content":"ok"}}`))
	}))
	defer server.Close()

	c := NewOllamaClient(
		WithOllamaBaseURL(server.URL),
		WithOllamaHTTPClient(server.Client()),
		WithOllamaModel("llama3.2:1b"),
		WithOllamaSystemPrompt("You are a helpful assistant."))

	if _, err := c.Generate(context.Background(), []Message{{Role: RoleUser, Content: "hi"}}); err != nil {
		t.Fatalf("Generate: %v", err)
	}

	if gotReq.Model != "llama3.2:1b" {
		t.Errorf("model = %q", gotReq.Model)
	}
	if len(gotReq.Messages) != 2 || gotReq.Messages[0].Role != RoleSystem {
		t.Fatalf("messages = %+v, want prepended system prompt", gotReq.Messages)
	}
}

func TestOllamaErrorStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		w.Write([]byte(`model not found`))
	}))
	defer server.Close()

	c := NewOllamaClient(WithOllamaBaseURL(server.URL), WithOllamaHTTPClient(server.Client()))
	_, err := c.Chat(context.Background(), []Message{{Role: RoleUser, Content: "x"}})
	if err == nil || !strings.Contains(err.Error(), "ollama error 404") {
		t.Errorf("error = %v, want status in message", err)
	}
}

func TestOllamaTimeout(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(500 * time.Millisecond)
		w.Write([]byte(`{"message":{"content":"too late"}}`))
	}))
	defer server.Close()

	c := NewOllamaClient(
		WithOllamaBaseURL(server.URL),
		WithOllamaHTTPClient(server.Client()),
		WithOllamaTimeout(50*time.Millisecond))

	_, err := c.Chat(context.Background(), []Message{{Role: RoleUser, Content: "x"}})
	if err == nil {
		t.Fatal("expected deadline error from a slow daemon")
	}
}
