package provider_test

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/tokenstorm/tokenstorm/internal/feeder"
	"github.com/tokenstorm/tokenstorm/internal/provider"
)

func completionBody(text string, promptTokens, completionTokens int) string {
	return `{
		"choices": [{"message": {"role": "assistant", "content": ` + jsonString(text) + `}}],
		"usage": {"prompt_tokens": ` + itoa(promptTokens) + `, "completion_tokens": ` + itoa(completionTokens) + `}
	}`
}

func jsonString(s string) string {
	b, _ := json.Marshal(s)
	return string(b)
}

func itoa(n int) string {
	b, _ := json.Marshal(n)
	return string(b)
}

func TestGenerateSuccess(t *testing.T) {
	var captured struct {
		path   string
		auth   string
		body   map[string]interface{}
	}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		captured.path = r.URL.Path
		captured.auth = r.Header.Get("Authorization")
		raw, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(raw, &captured.body)
		w.Header().Set("Content-Type", "application/json")
		io.WriteString(w, completionBody("It was the best of times.", 12, 34))
	}))
	defer server.Close()

	client := provider.NewOpenAI(server.URL+"/v1", "sk-test", 5*time.Second)
	got, err := client.Generate(context.Background(), feeder.Prompt{Text: "Tell me a story"}, provider.Overlay{Model: "llama3"})
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}

	if got.Text != "It was the best of times." {
		t.Errorf("text = %q", got.Text)
	}
	if got.InputTokens != 12 || got.OutputTokens != 34 {
		t.Errorf("tokens = %d/%d, want 12/34", got.InputTokens, got.OutputTokens)
	}
	if captured.path != "/v1/chat/completions" {
		t.Errorf("path = %q", captured.path)
	}
	if captured.auth != "Bearer sk-test" {
		t.Errorf("auth = %q", captured.auth)
	}
	if captured.body["model"] != "llama3" {
		t.Errorf("model = %v", captured.body["model"])
	}
}

func TestGenerateOverlayAndPromptPrecedence(t *testing.T) {
	var body map[string]interface{}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(raw, &body)
		io.WriteString(w, completionBody("ok", 1, 1))
	}))
	defer server.Close()

	temp := 0.2
	overlayTemp := 0.9
	client := provider.NewOpenAI(server.URL, "", time.Second)
	_, err := client.Generate(context.Background(),
		feeder.Prompt{Text: "hi", System: "prompt system", MaxTokens: 64, Temperature: &temp},
		provider.Overlay{Model: "m", System: "overlay system", MaxTokens: 128, Temperature: &overlayTemp})
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}

	if body["max_tokens"] != float64(64) {
		t.Errorf("max_tokens = %v, want prompt override 64", body["max_tokens"])
	}
	if body["temperature"] != 0.2 {
		t.Errorf("temperature = %v, want prompt override 0.2", body["temperature"])
	}
	messages := body["messages"].([]interface{})
	if len(messages) != 2 {
		t.Fatalf("messages = %v", messages)
	}
	system := messages[0].(map[string]interface{})
	if system["role"] != "system" || system["content"] != "prompt system" {
		t.Errorf("system message = %v", system)
	}
	user := messages[1].(map[string]interface{})
	if user["role"] != "user" || user["content"] != "hi" {
		t.Errorf("user message = %v", user)
	}
}

func TestGenerateOverlayDefaultsApply(t *testing.T) {
	var body map[string]interface{}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(raw, &body)
		io.WriteString(w, completionBody("ok", 1, 1))
	}))
	defer server.Close()

	client := provider.NewOpenAI(server.URL, "", time.Second)
	_, err := client.Generate(context.Background(),
		feeder.Prompt{Text: "hi"},
		provider.Overlay{Model: "m", System: "overlay system", MaxTokens: 128})
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}

	if body["max_tokens"] != float64(128) {
		t.Errorf("max_tokens = %v, want overlay 128", body["max_tokens"])
	}
	if _, ok := body["temperature"]; ok {
		t.Error("temperature must be omitted when unset")
	}
	messages := body["messages"].([]interface{})
	system := messages[0].(map[string]interface{})
	if system["content"] != "overlay system" {
		t.Errorf("system message = %v", system)
	}
}

func TestGenerateHTTPError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		io.WriteString(w, `{"error": {"message": "rate limit exceeded", "type": "rate_limit_error"}}`)
	}))
	defer server.Close()

	client := provider.NewOpenAI(server.URL, "", time.Second)
	_, err := client.Generate(context.Background(), feeder.Prompt{Text: "hi"}, provider.Overlay{Model: "m"})
	if err == nil {
		t.Fatal("expected error for 429")
	}

	var callErr *provider.CallError
	if !errors.As(err, &callErr) {
		t.Fatalf("error type = %T", err)
	}
	if callErr.StatusCode != 429 {
		t.Errorf("status = %d", callErr.StatusCode)
	}
	if err.Error() != "provider returned 429: rate limit exceeded" {
		t.Errorf("message = %q", err.Error())
	}
}

func TestGenerateHTTPErrorNonJSONBody(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		io.WriteString(w, "<html>bad gateway</html>")
	}))
	defer server.Close()

	client := provider.NewOpenAI(server.URL, "", time.Second)
	_, err := client.Generate(context.Background(), feeder.Prompt{Text: "hi"}, provider.Overlay{Model: "m"})
	if err == nil {
		t.Fatal("expected error for 502")
	}
	if !strings.Contains(err.Error(), "provider returned 502") || !strings.Contains(err.Error(), "bad gateway") {
		t.Errorf("message = %q", err.Error())
	}
}

func TestGenerateTimeout(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
		io.WriteString(w, completionBody("late", 1, 1))
	}))
	defer server.Close()

	client := provider.NewOpenAI(server.URL, "", 20*time.Millisecond)
	_, err := client.Generate(context.Background(), feeder.Prompt{Text: "hi"}, provider.Overlay{Model: "m"})
	if err == nil {
		t.Fatal("expected timeout error")
	}
	if !strings.Contains(strings.ToLower(err.Error()), "timeout") {
		t.Errorf("timeout errors must be classifiable: %q", err.Error())
	}
}

func TestGenerateConnectionRefused(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := server.URL
	server.Close()

	client := provider.NewOpenAI(url, "", time.Second)
	_, err := client.Generate(context.Background(), feeder.Prompt{Text: "hi"}, provider.Overlay{Model: "m"})
	if err == nil {
		t.Fatal("expected connection error")
	}
	if !strings.Contains(err.Error(), "network error") {
		t.Errorf("connection failures must carry the network prefix: %q", err.Error())
	}
}

func TestGenerateContextCanceled(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(time.Second)
	}))
	defer server.Close()

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(20 * time.Millisecond)
		cancel()
	}()

	client := provider.NewOpenAI(server.URL, "", 5*time.Second)
	_, err := client.Generate(ctx, feeder.Prompt{Text: "hi"}, provider.Overlay{Model: "m"})
	if err == nil {
		t.Fatal("expected cancellation error")
	}
	if !errors.Is(err, context.Canceled) {
		t.Errorf("err = %v, want context.Canceled in chain", err)
	}
}
