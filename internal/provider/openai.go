package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/tidwall/gjson"

	"github.com/tokenstorm/tokenstorm/internal/feeder"
	"github.com/tokenstorm/tokenstorm/internal/tracing"
)

const maxErrorBodyBytes = 1024

// OpenAI calls an OpenAI-compatible chat-completions endpoint.
type OpenAI struct {
	client  *http.Client
	baseURL string
	apiKey  string
}

// NewOpenAI creates a client for the given base URL (e.g.
// "https://api.openai.com/v1"). The timeout applies per request.
func NewOpenAI(baseURL, apiKey string, timeout time.Duration) *OpenAI {
	transport := http.DefaultTransport.(*http.Transport).Clone()
	// The scheduler issues requests with no in-flight cap; without these the
	// default per-host connection limit would serialize the open loop.
	transport.MaxIdleConns = 0
	transport.MaxIdleConnsPerHost = 1024

	return &OpenAI{
		client: &http.Client{
			Timeout:   timeout,
			Transport: transport,
		},
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
	}
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	MaxTokens   int           `json:"max_tokens,omitempty"`
	Temperature *float64      `json:"temperature,omitempty"`
}

// Generate performs one chat-completion call, merging the overlay defaults
// beneath per-prompt overrides.
func (o *OpenAI) Generate(ctx context.Context, prompt feeder.Prompt, overlay Overlay) (Completion, error) {
	payload := chatRequest{
		Model:       overlay.Model,
		MaxTokens:   overlay.MaxTokens,
		Temperature: overlay.Temperature,
	}
	if prompt.MaxTokens > 0 {
		payload.MaxTokens = prompt.MaxTokens
	}
	if prompt.Temperature != nil {
		payload.Temperature = prompt.Temperature
	}

	system := overlay.System
	if prompt.System != "" {
		system = prompt.System
	}
	if system != "" {
		payload.Messages = append(payload.Messages, chatMessage{Role: "system", Content: system})
	}
	payload.Messages = append(payload.Messages, chatMessage{Role: "user", Content: prompt.Text})

	body, err := json.Marshal(payload)
	if err != nil {
		return Completion{}, fmt.Errorf("encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, o.baseURL+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return Completion{}, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if o.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+o.apiKey)
	}
	tracing.InjectHTTPHeaders(ctx, req.Header)

	resp, err := o.client.Do(req)
	if err != nil {
		return Completion{}, classifyTransportError(err)
	}
	defer resp.Body.Close()

	respBody, readErr := io.ReadAll(resp.Body)
	if readErr != nil {
		return Completion{}, fmt.Errorf("read response: %w", readErr)
	}

	if resp.StatusCode >= 400 {
		return Completion{}, &CallError{
			StatusCode: resp.StatusCode,
			Message:    errorMessageFromBody(respBody),
		}
	}

	result := gjson.ParseBytes(respBody)
	return Completion{
		Text:         result.Get("choices.0.message.content").String(),
		InputTokens:  int(result.Get("usage.prompt_tokens").Int()),
		OutputTokens: int(result.Get("usage.completion_tokens").Int()),
	}, nil
}

// classifyTransportError rewrites transport failures so their messages carry
// the substrings the error taxonomy keys on.
func classifyTransportError(err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("request timeout: %w", err)
	}
	if errors.Is(err, context.Canceled) {
		return err
	}
	if strings.Contains(strings.ToLower(err.Error()), "timeout") {
		return err
	}
	return fmt.Errorf("network error: %w", err)
}

func errorMessageFromBody(body []byte) string {
	if msg := gjson.GetBytes(body, "error.message").String(); msg != "" {
		return msg
	}
	snippet := strings.TrimSpace(string(body))
	if len(snippet) > maxErrorBodyBytes {
		snippet = snippet[:maxErrorBodyBytes]
	}
	if snippet == "" {
		return "empty error response"
	}
	return snippet
}
