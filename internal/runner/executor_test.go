package runner_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/tokenstorm/tokenstorm/internal/feeder"
	"github.com/tokenstorm/tokenstorm/internal/provider"
	"github.com/tokenstorm/tokenstorm/internal/runner"
)

type stubCaller struct {
	completion provider.Completion
	err        error
	delay      time.Duration

	lastPrompt  feeder.Prompt
	lastOverlay provider.Overlay
}

func (c *stubCaller) Generate(ctx context.Context, prompt feeder.Prompt, overlay provider.Overlay) (provider.Completion, error) {
	c.lastPrompt = prompt
	c.lastOverlay = overlay
	if c.delay > 0 {
		time.Sleep(c.delay)
	}
	return c.completion, c.err
}

func TestExecutorSuccessOutcome(t *testing.T) {
	caller := &stubCaller{
		completion: provider.Completion{Text: "hi", InputTokens: 12, OutputTokens: 34},
		delay:      20 * time.Millisecond,
	}
	exec := runner.NewExecutor(caller, provider.Overlay{Model: "llama3"}, nil)

	before := time.Now().UnixMilli()
	outcome := exec.Execute(context.Background(), 7, feeder.Prompt{Text: "hello"})

	if !outcome.Success {
		t.Fatalf("expected success, got error %q", outcome.Error)
	}
	if outcome.Sequence != 7 {
		t.Errorf("sequence = %d", outcome.Sequence)
	}
	if outcome.InputTokens != 12 || outcome.OutputTokens != 34 {
		t.Errorf("tokens = %d/%d", outcome.InputTokens, outcome.OutputTokens)
	}
	if outcome.LatencyMs < 15 {
		t.Errorf("latency %dms should cover the provider delay", outcome.LatencyMs)
	}
	if outcome.IssuedAt < before {
		t.Errorf("issued-at %d predates the call", outcome.IssuedAt)
	}
	if caller.lastOverlay.Model != "llama3" {
		t.Errorf("overlay not passed through: %+v", caller.lastOverlay)
	}
}

func TestExecutorConvertsErrorsToFailedOutcomes(t *testing.T) {
	caller := &stubCaller{err: errors.New("provider returned 429: slow down")}
	exec := runner.NewExecutor(caller, provider.Overlay{}, nil)

	outcome := exec.Execute(context.Background(), 0, feeder.Prompt{Text: "hello"})

	if outcome.Success {
		t.Fatal("expected failure")
	}
	if outcome.Error != "provider returned 429: slow down" {
		t.Errorf("error message = %q", outcome.Error)
	}
	if outcome.InputTokens != 0 || outcome.OutputTokens != 0 {
		t.Errorf("failed outcomes must not carry tokens: %d/%d", outcome.InputTokens, outcome.OutputTokens)
	}
}

func TestExecutorSubstitutesPromptVars(t *testing.T) {
	caller := &stubCaller{}
	exec := runner.NewExecutor(caller, provider.Overlay{}, nil)

	exec.Execute(context.Background(), 0, feeder.Prompt{
		Text: "Explain {{topic}}",
		Vars: map[string]string{"topic": "channels"},
	})

	if caller.lastPrompt.Text != "Explain channels" {
		t.Errorf("prompt sent to provider = %q", caller.lastPrompt.Text)
	}
}
