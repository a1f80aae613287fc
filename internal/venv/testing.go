package venv

import (
	"os"
	"path/filepath"
	"testing"
)

// Scaffold creates a minimal environment named name inside projectDir, the
// way `python -m venv` lays one out, and returns its scripts directory.
func Scaffold(tb testing.TB, projectDir, name string) string {
	tb.Helper()
	root := filepath.Join(projectDir, name)
	bin := filepath.Join(root, scriptsDir)
	if err := os.MkdirAll(bin, 0o755); err != nil {
		tb.Fatalf("scaffold %s: %v", bin, err)
	}
	cfg := "home = /usr/bin\ninclude-system-site-packages = false\n"
	if err := os.WriteFile(filepath.Join(root, "pyvenv.cfg"), []byte(cfg), 0o644); err != nil {
		tb.Fatalf("scaffold pyvenv.cfg: %v", err)
	}
	if err := os.WriteFile(filepath.Join(bin, "activate"), []byte("# activate\n"), 0o644); err != nil {
		tb.Fatalf("scaffold activate: %v", err)
	}
	return bin
}
