// Package provider defines the text-generation call boundary. The load core
// treats a Caller as a black box with arbitrary latency; the only concrete
// implementation speaks the OpenAI-compatible chat-completions protocol.
package provider

import (
	"context"
	"fmt"

	"github.com/tokenstorm/tokenstorm/internal/feeder"
)

// Completion is the settled result of one successful generation call.
type Completion struct {
	Text         string
	InputTokens  int
	OutputTokens int
}

// Overlay carries run-level generation defaults. Per-prompt fields take
// precedence over the overlay.
type Overlay struct {
	Model       string
	System      string
	MaxTokens   int
	Temperature *float64
}

// Caller executes exactly one generation request. Implementations must be
// safe for concurrent use; the scheduler issues calls without any in-flight
// cap.
type Caller interface {
	Generate(ctx context.Context, prompt feeder.Prompt, overlay Overlay) (Completion, error)
}

// CallError is a failed provider response. Error() embeds the HTTP status
// code so the error taxonomy can classify by message.
type CallError struct {
	StatusCode int
	Message    string
}

func (e *CallError) Error() string {
	if e.StatusCode > 0 {
		return fmt.Sprintf("provider returned %d: %s", e.StatusCode, e.Message)
	}
	return e.Message
}
