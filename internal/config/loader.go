package config

import (
	_ "embed"
	"fmt"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/rawbytes"
	"github.com/knadh/koanf/v2"
)

// EnvPrefix prefixes every environment variable the loader reads.
const EnvPrefix = "QUALITYGATE_"

//go:embed defaults.yaml
var defaultsYAML []byte

// Load builds the gate configuration from embedded defaults, then
// overrides with environment variables.
//
// Configuration precedence (highest to lowest):
//  1. Environment variables (QUALITYGATE_PROJECT_DIR, QUALITYGATE_LOGGING_LEVEL, ...)
//  2. Embedded defaults.yaml
//
// # Environment Variable Mapping
//
// The prefix is stripped, the rest is lowercased and split on the first
// underscore only (section.field_name pattern):
//
//	QUALITYGATE_PROJECT_DIR          -> project.dir
//	QUALITYGATE_CHECKER_COMMAND      -> checker.command
//	QUALITYGATE_TELEMETRY_SERVICE_NAME -> telemetry.service_name
//
// # Example
//
//	cfg, err := config.Load()
//	if err != nil {
//	    return err
//	}
func Load() (*Config, error) {
	return load(defaultsYAML)
}

func load(defaults []byte) (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(rawbytes.Provider(defaults), yaml.Parser()); err != nil {
		return nil, fmt.Errorf("failed to load built-in defaults: %w", err)
	}

	if err := k.Load(env.Provider(EnvPrefix, ".", envKey), nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	cfg := Config{k: k}
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &cfg, nil
}

// envKey maps QUALITYGATE_SECTION_FIELD_NAME to section.field_name.
func envKey(s string) string {
	lower := strings.ToLower(strings.TrimPrefix(s, EnvPrefix))
	parts := strings.SplitN(lower, "_", 2)
	if len(parts) == 1 {
		return lower
	}
	return parts[0] + "." + parts[1]
}
