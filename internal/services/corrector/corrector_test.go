package corrector

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"bilitext/internal/services"
)

type fakeProvider struct {
	reply string
	err   error
}

func (f *fakeProvider) Name() string { return "fake" }

func (f *fakeProvider) Complete(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	return f.reply, f.err
}

func TestCorrectParsesMarkers(t *testing.T) {
	provider := &fakeProvider{reply: `CORRECTED_TRANSCRIPT:
Today we look at Kubernetes networking.

KEY_CORRECTIONS:
- "cube and eighties" -> "Kubernetes"`}

	corrector := New(provider, nil)
	result, err := corrector.Correct(context.Background(), "today we look at cube and eighties networking")
	if err != nil {
		t.Fatalf("Correct returned error: %v", err)
	}
	if result.Corrected != "Today we look at Kubernetes networking." {
		t.Fatalf("unexpected corrected text %q", result.Corrected)
	}
	if !strings.Contains(result.Notes, "Kubernetes") {
		t.Fatalf("unexpected notes %q", result.Notes)
	}
	if result.Degraded {
		t.Fatal("marked reply should not be degraded")
	}
}

func TestCorrectMissingMarkersDegrades(t *testing.T) {
	provider := &fakeProvider{reply: "Today we look at Kubernetes networking."}
	corrector := New(provider, nil)

	result, err := corrector.Correct(context.Background(), "raw text")
	if err != nil {
		t.Fatalf("Correct returned error: %v", err)
	}
	if !result.Degraded {
		t.Fatal("unmarked reply should be flagged degraded")
	}
	if result.Corrected != "Today we look at Kubernetes networking." {
		t.Fatalf("whole reply should be used as corrected text, got %q", result.Corrected)
	}
}

func TestCorrectTranscriptMarkerOnly(t *testing.T) {
	provider := &fakeProvider{reply: "Sure, here is the result.\nCORRECTED_TRANSCRIPT:\nToday we look at Kubernetes networking."}
	corrector := New(provider, nil)

	result, err := corrector.Correct(context.Background(), "raw text")
	if err != nil {
		t.Fatalf("Correct returned error: %v", err)
	}
	// The transcript marker alone is enough to strip the model's preamble;
	// only the text after it is kept.
	if result.Corrected != "Today we look at Kubernetes networking." {
		t.Fatalf("unexpected corrected text %q", result.Corrected)
	}
	if result.Notes != "" {
		t.Fatalf("no notes section means no notes, got %q", result.Notes)
	}
	if result.Degraded {
		t.Fatal("a marked transcript is not a degraded reply")
	}
}

func TestCorrectNoneNotesDropped(t *testing.T) {
	provider := &fakeProvider{reply: "CORRECTED_TRANSCRIPT:\nClean text.\n\nKEY_CORRECTIONS:\nnone"}
	corrector := New(provider, nil)

	result, err := corrector.Correct(context.Background(), "clean text")
	if err != nil {
		t.Fatalf("Correct returned error: %v", err)
	}
	if result.Notes != "" {
		t.Fatalf("\"none\" notes should be dropped, got %q", result.Notes)
	}
}

func TestCorrectEmptyTranscript(t *testing.T) {
	corrector := New(&fakeProvider{}, nil)
	if _, err := corrector.Correct(context.Background(), "   "); !errors.Is(err, services.ErrValidation) {
		t.Fatalf("expected ErrValidation, got %v", err)
	}
}

func TestCorrectProviderFailure(t *testing.T) {
	corrector := New(&fakeProvider{err: errors.New("connection refused")}, nil)
	if _, err := corrector.Correct(context.Background(), "raw text"); !errors.Is(err, services.ErrExternalTool) {
		t.Fatalf("expected ErrExternalTool, got %v", err)
	}
}

func TestChatClientComplete(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Authorization"); got != "Bearer test-key" {
			t.Fatalf("unexpected auth header %q", got)
		}
		var req chatRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		if len(req.Messages) != 2 || req.Messages[0].Role != "system" {
			t.Fatalf("unexpected messages %+v", req.Messages)
		}
		_ = json.NewEncoder(w).Encode(map[string]any{
			"choices": []map[string]any{
				{"message": map[string]any{"content": "CORRECTED_TRANSCRIPT:\nfixed"}},
			},
		})
	}))
	defer server.Close()

	client, err := NewChatClient(ChatConfig{
		Provider: "openai",
		APIKey:   "test-key",
		BaseURL:  server.URL,
		Model:    "gpt-4.1-nano",
	}, WithHTTPClient(server.Client()))
	if err != nil {
		t.Fatalf("NewChatClient returned error: %v", err)
	}

	content, err := client.Complete(context.Background(), "system", "user")
	if err != nil {
		t.Fatalf("Complete returned error: %v", err)
	}
	if !strings.Contains(content, "fixed") {
		t.Fatalf("unexpected content %q", content)
	}
}

func TestChatClientRetriesRateLimit(t *testing.T) {
	var calls int
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		if calls == 1 {
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]any{
			"choices": []map[string]any{{"message": map[string]any{"content": "ok"}}},
		})
	}))
	defer server.Close()

	client, err := NewChatClient(ChatConfig{
		Provider: "deepseek",
		APIKey:   "test-key",
		BaseURL:  server.URL,
		Model:    "deepseek-chat",
	}, WithHTTPClient(server.Client()), WithRetry(3, 0, func(time.Duration) {}))
	if err != nil {
		t.Fatalf("NewChatClient returned error: %v", err)
	}

	content, err := client.Complete(context.Background(), "system", "user")
	if err != nil {
		t.Fatalf("Complete returned error: %v", err)
	}
	if content != "ok" || calls != 2 {
		t.Fatalf("expected retry then success, content=%q calls=%d", content, calls)
	}
}

func TestChatClientAuthFailureNoRetry(t *testing.T) {
	var calls int
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer server.Close()

	client, err := NewChatClient(ChatConfig{
		Provider: "openai",
		APIKey:   "bad-key",
		BaseURL:  server.URL,
		Model:    "gpt-4.1-nano",
	}, WithHTTPClient(server.Client()))
	if err != nil {
		t.Fatalf("NewChatClient returned error: %v", err)
	}

	if _, err := client.Complete(context.Background(), "system", "user"); err == nil {
		t.Fatal("expected error for 401")
	}
	if calls != 1 {
		t.Fatalf("401 should not be retried, got %d calls", calls)
	}
}

func TestNewChatClientUnsupportedProvider(t *testing.T) {
	if _, err := NewChatClient(ChatConfig{Provider: "anthropic", APIKey: "k"}); err == nil {
		t.Fatal("expected error for unsupported provider")
	}
}

func TestOllamaCompleteChatSchema(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/chat" {
			t.Fatalf("unexpected path %s", r.URL.Path)
		}
		var req ollamaRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		if req.Stream {
			t.Fatal("streaming should be disabled")
		}
		_ = json.NewEncoder(w).Encode(map[string]any{
			"message": map[string]any{"content": "chat reply"},
		})
	}))
	defer server.Close()

	client := NewOllamaClient(server.URL, "qwen2.5", 0)
	content, err := client.Complete(context.Background(), "system", "user")
	if err != nil {
		t.Fatalf("Complete returned error: %v", err)
	}
	if content != "chat reply" {
		t.Fatalf("unexpected content %q", content)
	}
}

func TestOllamaCompleteGenerateSchemaFallback(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{"response": "generate reply"})
	}))
	defer server.Close()

	client := NewOllamaClient(server.URL, "qwen2.5", 0)
	content, err := client.Complete(context.Background(), "system", "user")
	if err != nil {
		t.Fatalf("Complete returned error: %v", err)
	}
	if content != "generate reply" {
		t.Fatalf("unexpected content %q", content)
	}
}
