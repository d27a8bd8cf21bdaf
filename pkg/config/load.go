package config

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"github.com/mensylisir/dockmcp/pkg/common"
)

// Format is a configuration file syntax.
type Format string

const (
	FormatYAML Format = "yaml"
	FormatTOML Format = "toml"
)

// FormatFor picks the syntax from the file extension.
func FormatFor(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return FormatYAML, nil
	case ".toml":
		return FormatTOML, nil
	default:
		return "", errors.Errorf("unsupported config file extension %q (want .yaml, .yml or .toml)", filepath.Ext(path))
	}
}

// Load reads the configuration file at path, applies environment overrides, sets defaults
// and validates it. An empty path yields the defaults plus environment overrides.
func Load(path string) (*Config, error) {
	if path == "" {
		return finish(&Config{})
	}
	format, err := FormatFor(path)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to read config file '%s'", path)
	}
	cfg, err := Parse(data, format)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to load config file '%s'", path)
	}
	return finish(cfg)
}

func finish(cfg *Config) (*Config, error) {
	ApplyEnv(cfg, os.LookupEnv)
	SetDefaults(cfg)
	if err := Validate(cfg); err != nil {
		return nil, errors.Wrap(err, "configuration validation failed")
	}
	return cfg, nil
}

// Parse decodes data without applying defaults. Unknown keys are errors.
func Parse(data []byte, format Format) (*Config, error) {
	var cfg Config
	switch format {
	case FormatYAML:
		if len(bytes.TrimSpace(data)) == 0 {
			return &cfg, nil
		}
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		if err := dec.Decode(&cfg); err != nil {
			return nil, errors.Wrap(err, "failed to unmarshal yaml config")
		}
	case FormatTOML:
		dec := toml.NewDecoder(bytes.NewReader(data))
		dec.DisallowUnknownFields()
		if err := dec.Decode(&cfg); err != nil {
			return nil, errors.Wrap(err, "failed to unmarshal toml config")
		}
	default:
		return nil, errors.Errorf("unknown config format %q", format)
	}
	return &cfg, nil
}

// ApplyEnv overrides fields from DOCKMCP_* environment variables.
func ApplyEnv(cfg *Config, lookup func(string) (string, bool)) {
	if v, ok := lookup(common.EnvDockerBinary); ok && v != "" {
		cfg.Runtime.Binary = v
	}
	if v, ok := lookup(common.EnvListen); ok && v != "" {
		cfg.Server.Listen = v
	}
	if v, ok := lookup(common.EnvLogLevel); ok && v != "" {
		cfg.Log.Level = v
	}
}
