package config

import (
	"errors"
	"fmt"
	"math"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"gopkg.in/yaml.v3"
)

// DefaultListenAddr is where the live server listens unless told otherwise
const DefaultListenAddr = "127.0.0.1:8124"

// Default returns the configuration used when no file is given
func Default() *Config {
	return &Config{
		Environment: "production",
		LogLevel:    "info",
		Report: ReportConfig{
			Summary:       true,
			TimelineLimit: 50,
		},
		Live: LiveConfig{
			Unit: time.Second,
		},
	}
}

// LoadConfig loads and parses the configuration file.
// An empty filename yields the defaults. Environment overrides apply in both cases.
func LoadConfig(filename string) (*Config, error) {
	config := Default()

	if filename != "" {
		data, err := os.ReadFile(filename)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}

		if err := yaml.Unmarshal(data, config); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
	}

	applyEnv(config)

	// Validate configuration
	if err := validateConfig(config); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return config, nil
}

// applyEnv overrides file values with ACTUATOR_* environment variables
func applyEnv(config *Config) {
	config.Environment = getEnv("ACTUATOR_ENV", config.Environment)
	config.LogLevel = getEnv("ACTUATOR_LOG_LEVEL", config.LogLevel)
	config.Live.Listen = getEnv("ACTUATOR_LISTEN", config.Live.Listen)
	config.Live.MetricsAddr = getEnv("ACTUATOR_METRICS_ADDR", config.Live.MetricsAddr)
}

func getEnv(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok && strings.TrimSpace(v) != "" {
		return strings.TrimSpace(v)
	}
	return fallback
}

// validateConfig validates the configuration
func validateConfig(config *Config) error {
	if _, err := zerolog.ParseLevel(config.LogLevel); err != nil {
		return fmt.Errorf("logLevel %q is not a valid level", config.LogLevel)
	}

	if config.Report.TimelineLimit < 0 {
		return fmt.Errorf("report.timelineLimit must not be negative")
	}

	if config.Live.Unit <= 0 {
		return fmt.Errorf("live.unit must be greater than 0")
	}

	return nil
}

// LoadScenario loads and validates a scenario file
func LoadScenario(filename string) (*Scenario, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}

	var scenario Scenario
	if err := yaml.Unmarshal(data, &scenario); err != nil {
		return nil, fmt.Errorf("failed to parse scenario file: %w", err)
	}

	if scenario.Resolution == 0 {
		scenario.Resolution = time.Minute
	}

	if err := ValidateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}

	return &scenario, nil
}

// ValidateScenario validates a scenario
func ValidateScenario(scenario *Scenario) error {
	if scenario.Start.IsZero() {
		return errors.New("start is required")
	}

	if scenario.Horizon <= 0 {
		return fmt.Errorf("horizon must be greater than 0")
	}

	if scenario.Resolution <= 0 {
		return fmt.Errorf("resolution must be greater than 0")
	}

	if len(scenario.Commands) == 0 {
		return fmt.Errorf("at least one command must be defined")
	}

	for i, cmd := range scenario.Commands {
		if cmd.Name == "" {
			return fmt.Errorf("command %d: name is required", i)
		}

		if cmd.CronSchedule == "" {
			return fmt.Errorf("command %s: cronSchedule is required", cmd.Name)
		}

		if cmd.Delay > math.MaxInt64 {
			return fmt.Errorf("command %s: delay %d does not fit a signed 64-bit signal", cmd.Name, cmd.Delay)
		}
	}

	return nil
}
