package config

import (
	"fmt"
	"strings"
	"time"
)

// ArrivalModel selects how inter-issue gaps are paced.
type ArrivalModel string

const (
	ArrivalModelUniform ArrivalModel = "uniform"
	ArrivalModelPoisson ArrivalModel = "poisson"
)

// Config describes one load run. It is read-only once the run starts.
type Config struct {
	Target       string        `mapstructure:"target"`
	Model        string        `mapstructure:"model"`
	APIKey       string        `mapstructure:"api_key"`
	Rate         float64       `mapstructure:"rate"`
	Duration     time.Duration `mapstructure:"duration"`
	Timeout      time.Duration `mapstructure:"timeout"`
	DrainTimeout time.Duration `mapstructure:"drain_timeout"`
	PromptFile   string        `mapstructure:"prompt_file"`
	Prompts      []string      `mapstructure:"prompts"`
	System       string        `mapstructure:"system"`
	MaxTokens    int           `mapstructure:"max_tokens"`
	Temperature  *float64      `mapstructure:"temperature"`
	Arrival      ArrivalModel  `mapstructure:"arrival_model"`
	Seed         int64         `mapstructure:"seed"`
	Thresholds   []string      `mapstructure:"thresholds"`
	JSONOutput   bool          `mapstructure:"json_output"`
	Dashboard    bool          `mapstructure:"dashboard"`
	LogErrors    bool          `mapstructure:"log_errors"`
	ConfigFile   string        `mapstructure:"-"`
	Tracing      TracingConfig `mapstructure:"tracing"`
}

// TracingConfig configures OTLP span export.
type TracingConfig struct {
	Endpoint    string  `mapstructure:"endpoint"`
	Protocol    string  `mapstructure:"protocol"`
	ServiceName string  `mapstructure:"service_name"`
	Insecure    bool    `mapstructure:"insecure"`
	SampleRate  float64 `mapstructure:"sample_rate"`
}

// Enabled reports whether span export is configured.
func (t TracingConfig) Enabled() bool {
	return strings.TrimSpace(t.Endpoint) != ""
}

// ValidationError aggregates every configuration problem found in one pass.
type ValidationError struct {
	issues []string
}

func (e ValidationError) Error() string {
	if len(e.issues) == 0 {
		return "validation failed"
	}
	return fmt.Sprintf("validation failed: %s", strings.Join(e.issues, "; "))
}

// Issues returns the individual validation failures.
func (e ValidationError) Issues() []string {
	return append([]string(nil), e.issues...)
}

// Validate checks run preconditions. A failing config must reject the run
// before any request is issued.
func (c Config) Validate() error {
	var issues []string

	if strings.TrimSpace(c.Target) == "" {
		issues = append(issues, "target is required (use --help for usage information)")
	}
	if strings.TrimSpace(c.Model) == "" {
		issues = append(issues, "model is required")
	}
	if c.Rate <= 0 {
		issues = append(issues, "rate must be > 0")
	}
	if c.Duration <= 0 {
		issues = append(issues, "duration must be > 0")
	}
	if c.Timeout <= 0 {
		issues = append(issues, "timeout must be > 0")
	}
	if c.DrainTimeout < 0 {
		issues = append(issues, "drain-timeout must be >= 0")
	}
	if strings.TrimSpace(c.PromptFile) == "" && len(c.Prompts) == 0 {
		issues = append(issues, "at least one prompt is required (--prompt or --prompts)")
	}
	if strings.TrimSpace(c.PromptFile) != "" && len(c.Prompts) > 0 {
		issues = append(issues, "prompt file and inline prompts are mutually exclusive")
	}
	if c.MaxTokens < 0 {
		issues = append(issues, "max-tokens must be >= 0")
	}
	if c.Dashboard && c.JSONOutput {
		issues = append(issues, "dashboard and json-output are mutually exclusive")
	}

	switch c.Arrival {
	case "", ArrivalModelUniform, ArrivalModelPoisson:
	default:
		issues = append(issues, fmt.Sprintf("arrival model %q is not supported (use uniform or poisson)", c.Arrival))
	}

	if c.Tracing.SampleRate < 0 || c.Tracing.SampleRate > 1 {
		issues = append(issues, "tracing sample_rate must be between 0.0 and 1.0")
	}

	if len(issues) > 0 {
		return ValidationError{issues: issues}
	}
	return nil
}
