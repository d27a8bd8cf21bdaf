// Package config loads the dockmcp configuration file. YAML and TOML are both accepted;
// the format is chosen by file extension.
package config

import (
	"time"

	"github.com/pkg/errors"

	"github.com/mensylisir/dockmcp/pkg/logger"
	"github.com/mensylisir/dockmcp/pkg/runner"
)

// Config is the top-level configuration object, typically parsed from dockmcp.yaml.
type Config struct {
	Runtime RuntimeConfig `yaml:"runtime" toml:"runtime"`
	Server  ServerConfig  `yaml:"server" toml:"server"`
	Log     LogConfig     `yaml:"log" toml:"log"`
}

// RuntimeConfig describes how the docker CLI is invoked.
type RuntimeConfig struct {
	// Binary is the docker CLI, by name (looked up in PATH) or absolute path.
	Binary   string         `yaml:"binary,omitempty" toml:"binary,omitempty"`
	Timeouts TimeoutsConfig `yaml:"timeouts,omitempty" toml:"timeouts,omitempty"`
}

// TimeoutsConfig bounds each operation. Zero means the built-in default.
type TimeoutsConfig struct {
	Probe   Duration `yaml:"probe,omitempty" toml:"probe,omitempty"`
	List    Duration `yaml:"list,omitempty" toml:"list,omitempty"`
	Logs    Duration `yaml:"logs,omitempty" toml:"logs,omitempty"`
	Inspect Duration `yaml:"inspect,omitempty" toml:"inspect,omitempty"`
	Stats   Duration `yaml:"stats,omitempty" toml:"stats,omitempty"`
	Exec    Duration `yaml:"exec,omitempty" toml:"exec,omitempty"`
}

type ServerConfig struct {
	// Transport is stdio or http.
	Transport       string   `yaml:"transport,omitempty" toml:"transport,omitempty"`
	Listen          string   `yaml:"listen,omitempty" toml:"listen,omitempty"`
	ReadTimeout     Duration `yaml:"readTimeout,omitempty" toml:"readTimeout,omitempty"`
	WriteTimeout    Duration `yaml:"writeTimeout,omitempty" toml:"writeTimeout,omitempty"`
	ShutdownTimeout Duration `yaml:"shutdownTimeout,omitempty" toml:"shutdownTimeout,omitempty"`
}

type LogConfig struct {
	Level string `yaml:"level,omitempty" toml:"level,omitempty"`
	// File enables JSON file output, rotated by size.
	File       string `yaml:"file,omitempty" toml:"file,omitempty"`
	MaxSizeMB  int    `yaml:"maxSizeMB,omitempty" toml:"maxSizeMB,omitempty"`
	MaxBackups int    `yaml:"maxBackups,omitempty" toml:"maxBackups,omitempty"`
	MaxAgeDays int    `yaml:"maxAgeDays,omitempty" toml:"maxAgeDays,omitempty"`
	Compress   bool   `yaml:"compress,omitempty" toml:"compress,omitempty"`
	Color      *bool  `yaml:"color,omitempty" toml:"color,omitempty"`
}

// Duration is a time.Duration written as a Go duration string ("30s", "5m").
type Duration time.Duration

func (d Duration) Std() time.Duration {
	return time.Duration(d)
}

func (d Duration) MarshalText() ([]byte, error) {
	return []byte(time.Duration(d).String()), nil
}

func (d *Duration) UnmarshalText(text []byte) error {
	parsed, err := time.ParseDuration(string(text))
	if err != nil {
		return errors.Wrapf(err, "invalid duration %q", string(text))
	}
	*d = Duration(parsed)
	return nil
}

// RunnerTimeouts converts the configured timeouts; zero fields fall back to the runner defaults.
func (t TimeoutsConfig) RunnerTimeouts() runner.Timeouts {
	return runner.Timeouts{
		Probe:   t.Probe.Std(),
		List:    t.List.Std(),
		Logs:    t.Logs.Std(),
		Inspect: t.Inspect.Std(),
		Stats:   t.Stats.Std(),
		Exec:    t.Exec.Std(),
	}
}

// LoggerOptions builds logger options from the log section. The console always goes to
// stderr; stdout carries the stdio transport.
func (l LogConfig) LoggerOptions() (logger.Options, error) {
	opts := logger.DefaultOptions()
	level, err := logger.ParseLevel(l.Level)
	if err != nil {
		return opts, err
	}
	opts.ConsoleLevel = level
	opts.FileOutput = l.File != ""
	if l.File != "" {
		opts.LogFilePath = l.File
	}
	if l.MaxSizeMB > 0 {
		opts.LogMaxSizeMB = l.MaxSizeMB
	}
	if l.MaxBackups > 0 {
		opts.LogMaxBackups = l.MaxBackups
	}
	if l.MaxAgeDays > 0 {
		opts.LogMaxAgeDays = l.MaxAgeDays
	}
	opts.LogCompress = l.Compress
	if l.Color != nil {
		opts.ColorConsole = *l.Color
	}
	return opts, nil
}
