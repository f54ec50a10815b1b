package config

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// Loader handles loading configuration from files and command-line arguments.
type Loader struct{}

// ErrHelpRequested is returned when the user requests help via --help flag.
var ErrHelpRequested = errors.New("help requested")

// NewLoader creates a new configuration Loader.
func NewLoader() *Loader {
	return &Loader{}
}

// Load parses command-line arguments and configuration files to produce a
// Config. Flags override file settings; the TOKENSTORM_API_KEY environment
// variable backs the api_key setting.
func (Loader) Load(args []string) (*Config, error) {
	cmd := newFlagCommand()
	if err := cmd.Flags().Parse(args); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			displayHelp(cmd)
			return nil, ErrHelpRequested
		}
		return nil, err
	}

	flagSet := cmd.Flags()
	if helpFlag := flagSet.Lookup("help"); helpFlag != nil {
		if wantsHelp, err := strconv.ParseBool(helpFlag.Value.String()); err == nil && wantsHelp {
			displayHelp(cmd)
			return nil, ErrHelpRequested
		}
	}

	configPath := flagSet.Lookup("config").Value.String()
	if len(args) == 0 && configPath == "" {
		displayHelp(cmd)
		return nil, ErrHelpRequested
	}

	cfgViper := viper.New()
	cfgViper.SetEnvPrefix("TOKENSTORM")
	if err := cfgViper.BindEnv("api_key"); err != nil {
		return nil, err
	}
	if configPath != "" {
		cfgViper.SetConfigFile(configPath)
		if err := cfgViper.ReadInConfig(); err != nil {
			return nil, err
		}
	}

	cfg := &Config{
		Rate:         1,
		Duration:     30 * time.Second,
		Timeout:      120 * time.Second,
		DrainTimeout: 30 * time.Second,
		Arrival:      ArrivalModelUniform,
		ConfigFile:   configPath,
		Tracing: TracingConfig{
			Protocol:   "grpc",
			SampleRate: 1.0,
		},
	}

	if err := cfgViper.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("decode config file: %w", err)
	}
	cfg.ConfigFile = configPath

	if err := applyFlagOverrides(cfg, flagSet); err != nil {
		return nil, err
	}

	return cfg, nil
}

// applyFlagOverrides copies explicitly-set flag values over the file config.
func applyFlagOverrides(cfg *Config, flags *pflag.FlagSet) error {
	var err error
	override := func(name string, apply func() error) {
		if err != nil || !flags.Changed(name) {
			return
		}
		err = apply()
	}

	override("target", func() error { return getString(flags, "target", &cfg.Target) })
	override("model", func() error { return getString(flags, "model", &cfg.Model) })
	override("api-key", func() error { return getString(flags, "api-key", &cfg.APIKey) })
	override("rate", func() error { return getFloat(flags, "rate", &cfg.Rate) })
	override("duration", func() error { return getDuration(flags, "duration", &cfg.Duration) })
	override("timeout", func() error { return getDuration(flags, "timeout", &cfg.Timeout) })
	override("drain-timeout", func() error { return getDuration(flags, "drain-timeout", &cfg.DrainTimeout) })
	override("prompts", func() error { return getString(flags, "prompts", &cfg.PromptFile) })
	override("prompt", func() error {
		vals, err := flags.GetStringSlice("prompt")
		if err != nil {
			return err
		}
		cfg.Prompts = vals
		return nil
	})
	override("system", func() error { return getString(flags, "system", &cfg.System) })
	override("max-tokens", func() error {
		val, err := flags.GetInt("max-tokens")
		if err != nil {
			return err
		}
		cfg.MaxTokens = val
		return nil
	})
	override("temperature", func() error {
		val, err := flags.GetFloat64("temperature")
		if err != nil {
			return err
		}
		cfg.Temperature = &val
		return nil
	})
	override("arrival-model", func() error {
		val, err := flags.GetString("arrival-model")
		if err != nil {
			return err
		}
		cfg.Arrival = ArrivalModel(val)
		return nil
	})
	override("seed", func() error {
		val, err := flags.GetInt64("seed")
		if err != nil {
			return err
		}
		cfg.Seed = val
		return nil
	})
	override("threshold", func() error {
		vals, err := flags.GetStringSlice("threshold")
		if err != nil {
			return err
		}
		cfg.Thresholds = vals
		return nil
	})
	override("json-output", func() error { return getBool(flags, "json-output", &cfg.JSONOutput) })
	override("dashboard", func() error { return getBool(flags, "dashboard", &cfg.Dashboard) })
	override("log-errors", func() error { return getBool(flags, "log-errors", &cfg.LogErrors) })
	override("trace-endpoint", func() error { return getString(flags, "trace-endpoint", &cfg.Tracing.Endpoint) })
	override("trace-protocol", func() error { return getString(flags, "trace-protocol", &cfg.Tracing.Protocol) })
	override("trace-insecure", func() error { return getBool(flags, "trace-insecure", &cfg.Tracing.Insecure) })
	override("trace-sample-rate", func() error { return getFloat(flags, "trace-sample-rate", &cfg.Tracing.SampleRate) })

	return err
}

func getString(flags *pflag.FlagSet, name string, dst *string) error {
	val, err := flags.GetString(name)
	if err != nil {
		return err
	}
	*dst = val
	return nil
}

func getBool(flags *pflag.FlagSet, name string, dst *bool) error {
	val, err := flags.GetBool(name)
	if err != nil {
		return err
	}
	*dst = val
	return nil
}

func getFloat(flags *pflag.FlagSet, name string, dst *float64) error {
	val, err := flags.GetFloat64(name)
	if err != nil {
		return err
	}
	*dst = val
	return nil
}

func getDuration(flags *pflag.FlagSet, name string, dst *time.Duration) error {
	val, err := flags.GetDuration(name)
	if err != nil {
		return err
	}
	*dst = val
	return nil
}
