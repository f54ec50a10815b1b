package config

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

// newFlagCommand creates a cobra command with all flags configured.
func newFlagCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "tokenstorm",
		SilenceErrors: true,
		SilenceUsage:  true,
	}
	cmd.SetOut(os.Stdout)
	configureFlags(cmd.Flags())
	return cmd
}

// configureFlags sets up all CLI flags on the provided flag set.
func configureFlags(flags *pflag.FlagSet) {
	// Target endpoint flags
	flags.String("target", "", "Base URL of the OpenAI-compatible endpoint (e.g. https://api.openai.com/v1)")
	flags.StringP("model", "m", "", "Model name sent with every request")
	flags.String("api-key", "", "API key for the endpoint (or TOKENSTORM_API_KEY)")

	// Load control flags
	flags.Float64P("rate", "r", 1, "Target requests per second")
	flags.DurationP("duration", "d", 30*time.Second, "How long to issue requests (e.g. 30s, 2m)")
	flags.Duration("timeout", 120*time.Second, "Per-request timeout")
	flags.Duration("drain-timeout", 30*time.Second, "Max time to wait for in-flight requests after issuance ends")
	flags.String("arrival-model", string(ArrivalModelUniform), "Arrival model for pacing (uniform or poisson)")
	flags.Int64("seed", 0, "Random seed for the poisson arrival model (0 = time-based)")

	// Prompt flags
	flags.String("prompts", "", "Path to a YAML, JSON, or CSV prompt set file")
	flags.StringSliceP("prompt", "p", nil, "Inline prompt text (repeatable)")
	flags.String("system", "", "System prompt applied to every request")
	flags.Int("max-tokens", 0, "Default max_tokens per request (0 = provider default)")
	flags.Float64("temperature", 0, "Default sampling temperature")

	// Output flags
	flags.Bool("json-output", false, "Emit the run report as JSON")
	flags.Bool("dashboard", false, "Show live terminal dashboard with metrics")
	flags.Bool("log-errors", false, "Log each failed request to stderr")
	flags.StringSlice("threshold", nil, "Post-run assertion, e.g. 'gen_req_duration:p95 < 800' (repeatable)")
	flags.String("config", "", "Path to configuration file (JSON or YAML)")

	// Tracing flags
	flags.String("trace-endpoint", "", "OTLP collector endpoint for span export")
	flags.String("trace-protocol", "grpc", "OTLP protocol: 'grpc' or 'http'")
	flags.Bool("trace-insecure", false, "Disable TLS for OTLP export")
	flags.Float64("trace-sample-rate", 1.0, "Trace sampling ratio between 0.0 and 1.0")

	flags.BoolP("help", "h", false, "Show usage information")
}

func displayHelp(cmd *cobra.Command) {
	out := cmd.OutOrStdout()
	fmt.Fprintln(out, "tokenstorm - open-loop load generator for text-generation endpoints")
	fmt.Fprintln(out)
	fmt.Fprintln(out, "Usage:")
	fmt.Fprintln(out, "  tokenstorm --target URL --model NAME [flags]")
	fmt.Fprintln(out)
	fmt.Fprintln(out, "Flags:")
	fmt.Fprint(out, cmd.Flags().FlagUsages())
	fmt.Fprintln(out)
	fmt.Fprintln(out, "Examples:")
	fmt.Fprintln(out, "  tokenstorm --target http://localhost:8080/v1 --model llama3 -p \"Why is the sky blue?\" -r 10 -d 1m")
	fmt.Fprintln(out, "  tokenstorm --config run.yaml --json-output")
}
