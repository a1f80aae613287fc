// Package venv locates and activates a project's isolated Python
// environment.
//
// Activation never touches the calling process. It produces an Environment
// whose Environ yields the variables `source <env>/bin/activate` would have
// exported, for use by a child process.
package venv

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
)

// ErrEnvironmentMissing indicates the project directory or its isolated
// environment does not exist. There is no fallback toolchain.
var ErrEnvironmentMissing = errors.New("isolated environment missing")

// Environment is an activated isolated environment.
type Environment struct {
	// ProjectDir is the absolute project root the checker runs in.
	ProjectDir string

	// Root is the absolute environment directory (VIRTUAL_ENV).
	Root string

	// BinDir holds the environment's executables.
	BinDir string
}

// scriptsDir is "bin" on Unix and "Scripts" on Windows.
var scriptsDir = func() string {
	if runtime.GOOS == "windows" {
		return "Scripts"
	}
	return "bin"
}()

// markers identify a directory as a real environment rather than any
// folder that happens to share the name.
var markers = []string{
	"pyvenv.cfg",
	filepath.Join(scriptsDir, "activate"),
	filepath.Join(scriptsDir, "activate.bat"),
}

// Activate resolves the environment called name inside projectDir.
//
// Returns an error wrapping ErrEnvironmentMissing if projectDir, the
// environment root, or its scripts directory is missing, or if the
// environment has no activation marker.
func Activate(projectDir, name string) (*Environment, error) {
	absProject, err := filepath.Abs(projectDir)
	if err != nil {
		return nil, fmt.Errorf("resolving project dir %s: %w", projectDir, err)
	}
	if err := requireDir(absProject); err != nil {
		return nil, fmt.Errorf("%w: project dir: %v", ErrEnvironmentMissing, err)
	}

	root := filepath.Join(absProject, name)
	if err := requireDir(root); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrEnvironmentMissing, err)
	}

	bin := filepath.Join(root, scriptsDir)
	if err := requireDir(bin); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrEnvironmentMissing, err)
	}

	if !hasMarker(root) {
		return nil, fmt.Errorf("%w: %s has no pyvenv.cfg or activate script", ErrEnvironmentMissing, root)
	}

	return &Environment{
		ProjectDir: absProject,
		Root:       root,
		BinDir:     bin,
	}, nil
}

// Executable returns the path name would have inside the environment.
// It does not check that the file exists.
func (e *Environment) Executable(name string) string {
	if runtime.GOOS == "windows" && filepath.Ext(name) == "" {
		name += ".exe"
	}
	return filepath.Join(e.BinDir, name)
}

// Environ derives a child environment from base: VIRTUAL_ENV is set, the
// scripts directory leads PATH, and PYTHONHOME is dropped.
// base is not modified.
func (e *Environment) Environ(base []string) []string {
	out := make([]string, 0, len(base)+2)
	path := ""
	for _, kv := range base {
		key, value, _ := strings.Cut(kv, "=")
		switch {
		case envKeyEqual(key, "PATH"):
			path = value
		case envKeyEqual(key, "VIRTUAL_ENV"), envKeyEqual(key, "PYTHONHOME"):
		default:
			out = append(out, kv)
		}
	}

	if path == "" {
		path = e.BinDir
	} else {
		path = e.BinDir + string(os.PathListSeparator) + path
	}

	return append(out, "VIRTUAL_ENV="+e.Root, "PATH="+path)
}

func requireDir(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("%s does not exist", path)
		}
		return err
	}
	if !info.IsDir() {
		return fmt.Errorf("%s is not a directory", path)
	}
	return nil
}

func hasMarker(root string) bool {
	for _, m := range markers {
		if info, err := os.Stat(filepath.Join(root, m)); err == nil && !info.IsDir() {
			return true
		}
	}
	return false
}

// envKeyEqual compares variable names, case-insensitively on Windows.
func envKeyEqual(a, b string) bool {
	if runtime.GOOS == "windows" {
		return strings.EqualFold(a, b)
	}
	return a == b
}
