// Package config provides configuration loading for qualitygate.
//
// The gate accepts no flags or arguments. Its settings come from built-in
// defaults (defaults.yaml, embedded at build time), optionally overridden
// by QUALITYGATE_* environment variables for operators and tests.
package config

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/knadh/koanf/v2"
)

// Config holds the complete qualitygate configuration.
//
// Logging and telemetry sections are decoded by their owning packages via
// Section so that those packages keep their own defaults and validation.
type Config struct {
	Project ProjectConfig `koanf:"project"`
	Checker CheckerConfig `koanf:"checker"`
	Metrics MetricsConfig `koanf:"metrics"`

	k *koanf.Koanf
}

// ProjectConfig locates the project under check and its isolated environment.
type ProjectConfig struct {
	// Dir is the project root, relative to the gate's working directory
	// unless absolute.
	Dir string `koanf:"dir"`

	// Env is the name of the environment directory inside Dir.
	Env string `koanf:"env"`
}

// CheckerConfig describes the static-analysis tool.
type CheckerConfig struct {
	// Command is the executable name, resolved only inside the environment.
	Command string `koanf:"command"`

	// Target is the path handed to the checker, relative to Project.Dir.
	Target string `koanf:"target"`
}

// MetricsConfig controls the Prometheus textfile written after each run.
type MetricsConfig struct {
	// Textfile is the output path; empty disables the file.
	Textfile string `koanf:"textfile"`
}

// Validate checks the gate configuration for errors.
func (c *Config) Validate() error {
	var errs []error

	if strings.TrimSpace(c.Project.Dir) == "" {
		errs = append(errs, errors.New("project.dir is required"))
	}
	if strings.TrimSpace(c.Project.Env) == "" {
		errs = append(errs, errors.New("project.env is required"))
	} else if filepath.IsAbs(c.Project.Env) || !insideDir(c.Project.Env) {
		errs = append(errs, fmt.Errorf("project.env must name a directory inside the project, got %q", c.Project.Env))
	}

	switch cmd := strings.TrimSpace(c.Checker.Command); {
	case cmd == "":
		errs = append(errs, errors.New("checker.command is required"))
	case strings.ContainsAny(cmd, `/\`):
		// No path separators: the checker must come from the environment.
		errs = append(errs, fmt.Errorf("checker.command must be a bare executable name, got %q", cmd))
	}

	if strings.TrimSpace(c.Checker.Target) == "" {
		errs = append(errs, errors.New("checker.target is required"))
	}

	return errors.Join(errs...)
}

// insideDir reports whether the relative path name, once cleaned, names an
// entry strictly below the directory it is joined to.
func insideDir(name string) bool {
	clean := filepath.ToSlash(filepath.Clean(name))
	return clean != "." && clean != ".." && !strings.HasPrefix(clean, "../")
}

// Section decodes the configuration subtree at path into out.
//
// Fields of out that are absent from the loaded configuration keep their
// current values, so callers pass a struct pre-filled with defaults.
func (c *Config) Section(path string, out any) error {
	if c.k == nil || !c.k.Exists(path) {
		return nil
	}
	if err := c.k.Unmarshal(path, out); err != nil {
		return fmt.Errorf("failed to decode %s config: %w", path, err)
	}
	return nil
}
