package config

import (
	"time"
)

// Config represents the entire configuration for the actuator
type Config struct {
	Environment string       `yaml:"environment"`
	LogLevel    string       `yaml:"logLevel"`
	Replay      ReplayConfig `yaml:"replay"`
	Report      ReportConfig `yaml:"report"`
	Live        LiveConfig   `yaml:"live"`
}

// ReplayConfig bounds the discrete-time replay
type ReplayConfig struct {
	// MaxTicks stops a replay that would otherwise drain for too long. Zero means unbounded.
	MaxTicks uint64 `yaml:"maxTicks"`
}

// ReportConfig selects what is printed after a replay
type ReportConfig struct {
	Enabled       bool `yaml:"enabled"`
	Summary       bool `yaml:"summary"`
	Timeline      bool `yaml:"timeline"`
	TimelineLimit int  `yaml:"timelineLimit"`
}

// LiveConfig configures the wall-clock mode
type LiveConfig struct {
	// Listen is a TCP address to serve on. Empty means read standard input.
	Listen string `yaml:"listen"`
	// Unit is the wall-clock length of one delay unit
	Unit        time.Duration `yaml:"unit"`
	MetricsAddr string        `yaml:"metricsAddr"`
}

// Scenario describes a synthetic command log built from cron schedules
type Scenario struct {
	Start      time.Time     `yaml:"start"`
	Horizon    time.Duration `yaml:"horizon"`
	Resolution time.Duration `yaml:"resolution"`
	Commands   []Command     `yaml:"commands"`
}

// Command is a recurring command in a Scenario
type Command struct {
	Name         string `yaml:"name"`
	CronSchedule string `yaml:"cronSchedule"`

	// Delay is expressed in ticks. Ignored when Cancel is set.
	Delay  uint64 `yaml:"delay,omitempty"`
	Cancel bool   `yaml:"cancel,omitempty"`
}
