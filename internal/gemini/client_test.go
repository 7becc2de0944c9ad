package gemini

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

func newTestClient(url string) *Client {
	return NewClient("test-key", Options{
		BaseURL: url,
		Model:   "test-model",
		Ack:     "Understood.",
	})
}

func TestGenerateBuildsTranscript(t *testing.T) {
	var captured generateRequest

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/models/test-model:generateContent" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if got := r.Header.Get("x-goog-api-key"); got != "test-key" {
			t.Errorf("expected api key header, got %q", got)
		}
		if err := json.NewDecoder(r.Body).Decode(&captured); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		_ = json.NewEncoder(w).Encode(generateResponse{Text: "hello"})
	}))
	defer server.Close()

	client := newTestClient(server.URL)

	text, err := client.Generate(context.Background(), Request{
		SystemPrompt: "be helpful",
		Turns: []Turn{
			{Role: "user", Content: "hi"},
			{Role: "assistant", Content: "hey"},
			{Role: "user", Content: "question"},
		},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if text != "hello" {
		t.Errorf("expected %q, got %q", "hello", text)
	}

	if len(captured.Contents) != 5 {
		t.Fatalf("expected 5 transcript entries, got %d", len(captured.Contents))
	}
	if captured.Contents[0].Role != "user" || captured.Contents[0].Parts[0].Text != "System: be helpful" {
		t.Errorf("expected system instruction first, got %+v", captured.Contents[0])
	}
	if captured.Contents[1].Role != "model" || captured.Contents[1].Parts[0].Text != "Understood." {
		t.Errorf("expected acknowledgment turn second, got %+v", captured.Contents[1])
	}
	if captured.Contents[3].Role != "model" {
		t.Errorf("expected assistant turn mapped to model role, got %q", captured.Contents[3].Role)
	}
	if captured.Config != nil {
		t.Errorf("expected no config without thinking budget, got %+v", captured.Config)
	}
}

func TestGenerateThinkingBudget(t *testing.T) {
	var captured generateRequest

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewDecoder(r.Body).Decode(&captured)
		_ = json.NewEncoder(w).Encode(generateResponse{Text: "ok"})
	}))
	defer server.Close()

	client := newTestClient(server.URL)

	_, err := client.Generate(context.Background(), Request{
		Turns:          []Turn{{Role: "user", Content: "hi"}},
		ThinkingBudget: 2048,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if captured.Config == nil || captured.Config.ThinkingConfig == nil {
		t.Fatal("expected thinking config in request")
	}
	if captured.Config.ThinkingConfig.ThinkingBudget != 2048 {
		t.Errorf("expected budget 2048, got %d", captured.Config.ThinkingConfig.ThinkingBudget)
	}
}

func TestGenerateNoSystemPrompt(t *testing.T) {
	var captured generateRequest

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewDecoder(r.Body).Decode(&captured)
		_ = json.NewEncoder(w).Encode(generateResponse{Text: "ok"})
	}))
	defer server.Close()

	client := newTestClient(server.URL)

	_, err := client.Generate(context.Background(), Request{
		Turns: []Turn{{Role: "user", Content: "hi"}},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(captured.Contents) != 1 {
		t.Fatalf("expected 1 transcript entry, got %d", len(captured.Contents))
	}
}

func TestGenerateUpstreamStatusError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "bad request", http.StatusBadRequest)
	}))
	defer server.Close()

	client := newTestClient(server.URL)

	_, err := client.Generate(context.Background(), Request{
		Turns: []Turn{{Role: "user", Content: "hi"}},
	})
	if !errors.Is(err, ErrUpstream) {
		t.Errorf("expected ErrUpstream, got %v", err)
	}
}

func TestGenerateErrorBody(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(generateResponse{Error: &apiError{Message: "model overloaded"}})
	}))
	defer server.Close()

	client := newTestClient(server.URL)

	_, err := client.Generate(context.Background(), Request{
		Turns: []Turn{{Role: "user", Content: "hi"}},
	})
	if !errors.Is(err, ErrUpstream) {
		t.Errorf("expected ErrUpstream, got %v", err)
	}
}

func TestGenerateEmptyText(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(generateResponse{})
	}))
	defer server.Close()

	client := newTestClient(server.URL)

	_, err := client.Generate(context.Background(), Request{
		Turns: []Turn{{Role: "user", Content: "hi"}},
	})
	if !errors.Is(err, ErrUpstream) {
		t.Errorf("expected ErrUpstream for empty text, got %v", err)
	}
}
