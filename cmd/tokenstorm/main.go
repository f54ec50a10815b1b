package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/tokenstorm/tokenstorm/internal/config"
	"github.com/tokenstorm/tokenstorm/internal/dashboard"
	"github.com/tokenstorm/tokenstorm/internal/feeder"
	"github.com/tokenstorm/tokenstorm/internal/metrics"
	"github.com/tokenstorm/tokenstorm/internal/output"
	"github.com/tokenstorm/tokenstorm/internal/provider"
	"github.com/tokenstorm/tokenstorm/internal/runner"
	"github.com/tokenstorm/tokenstorm/internal/threshold"
	"github.com/tokenstorm/tokenstorm/internal/tracing"
)

const shutdownTimeout = 5 * time.Second

type stderrFailureLogger struct {
	mu sync.Mutex
}

func (l *stderrFailureLogger) LogFailure(sequence int, message string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	fmt.Fprintf(os.Stderr, "[tokenstorm] request %d failed: %s\n", sequence, message)
}

func main() {
	if err := run(os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string) error {
	loader := config.NewLoader()
	cfg, err := loader.Load(args)
	if err != nil {
		if errors.Is(err, config.ErrHelpRequested) {
			return nil
		}
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	// Threshold strings must parse before any request is issued.
	thresholds, err := threshold.ParseAll(cfg.Thresholds)
	if err != nil {
		return err
	}

	prompts, err := loadPrompts(cfg)
	if err != nil {
		return err
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	tracer, err := tracing.Init(ctx, cfg.Tracing)
	if err != nil {
		return err
	}
	defer func() {
		shutdownCtx, done := context.WithTimeout(context.Background(), shutdownTimeout)
		defer done()
		if err := tracer.Shutdown(shutdownCtx); err != nil {
			fmt.Fprintf(os.Stderr, "[tokenstorm] trace shutdown: %v\n", err)
		}
	}()

	caller := provider.NewOpenAI(cfg.Target, cfg.APIKey, cfg.Timeout)
	overlay := provider.Overlay{
		Model:       cfg.Model,
		System:      cfg.System,
		MaxTokens:   cfg.MaxTokens,
		Temperature: cfg.Temperature,
	}
	executor := runner.NewExecutor(caller, overlay, tracer.Tracer())

	collector := metrics.NewLiveCollector()
	onOutcome := func(o runner.Outcome) { collector.Record(o) }
	if cfg.LogErrors {
		logger := &stderrFailureLogger{}
		onOutcome = func(o runner.Outcome) {
			collector.Record(o)
			if !o.Success {
				logger.LogFailure(o.Sequence, o.Error)
			}
		}
	}

	var progress *output.ProgressReporter
	opts := runner.Options{
		Rate:         cfg.Rate,
		Duration:     cfg.Duration,
		Prompts:      prompts,
		Invoker:      executor,
		DrainTimeout: cfg.DrainTimeout,
		Arrival:      toRunnerArrivalModel(cfg.Arrival),
		Seed:         cfg.Seed,
		OnOutcome:    onOutcome,
	}
	if !cfg.JSONOutput && !cfg.Dashboard {
		progress = output.NewProgressReporter(os.Stdout)
		opts.Sink = progress
	}

	sched, err := runner.New(opts)
	if err != nil {
		return err
	}

	var dash *dashboard.Dashboard
	if cfg.Dashboard {
		dash, err = dashboard.New(collector, dashboard.RunInfo{
			Target:    cfg.Target,
			Model:     cfg.Model,
			TargetRps: cfg.Rate,
			Duration:  cfg.Duration,
			Arrival:   string(cfg.Arrival),
		}, sched.Stop)
		if err != nil {
			return err
		}
		dash.Start()
	}

	collector.Start()
	result := sched.Run(ctx)

	if dash != nil {
		dash.Stop()
	}
	if progress != nil {
		progress.Finish()
	}

	report := metrics.Build(ulid.Make().String(), metrics.ConfigSnapshot{
		Target:          cfg.Target,
		Model:           cfg.Model,
		TargetRps:       cfg.Rate,
		DurationSeconds: cfg.Duration.Seconds(),
		PromptCount:     prompts.Len(),
		ArrivalModel:    string(cfg.Arrival),
	}, result)

	results := threshold.Evaluate(thresholds, report)

	if cfg.JSONOutput {
		if err := output.PrintJSONReport(os.Stdout, report); err != nil {
			return err
		}
		// Keep stdout machine-readable.
		output.PrintThresholds(os.Stderr, results)
	} else {
		output.PrintReport(os.Stdout, report)
		output.PrintThresholds(os.Stdout, results)
	}

	// Request failures are data, not a process error; only broken
	// thresholds fail the run.
	if !threshold.AllPassed(results) {
		return fmt.Errorf("thresholds not met")
	}
	return nil
}

// loadPrompts builds the prompt set from whichever source the config names.
func loadPrompts(cfg *config.Config) (*feeder.Set, error) {
	if cfg.PromptFile != "" {
		return feeder.Load(cfg.PromptFile)
	}
	prompts := make([]feeder.Prompt, 0, len(cfg.Prompts))
	for i, text := range cfg.Prompts {
		prompts = append(prompts, feeder.Prompt{
			Name: fmt.Sprintf("inline-%d", i),
			Text: text,
		})
	}
	return feeder.NewSet(prompts)
}

func toRunnerArrivalModel(model config.ArrivalModel) runner.ArrivalModel {
	switch strings.ToLower(string(model)) {
	case string(config.ArrivalModelPoisson):
		return runner.ArrivalModelPoisson
	default:
		return runner.ArrivalModelUniform
	}
}
