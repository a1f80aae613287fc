package checker

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"testing"
)

// InstallFake writes a shell-script checker called name into binDir that
// prints output (a printf format string) and exits with code. Each call
// appends its working directory, arguments and VIRTUAL_ENV to
// binDir/<name>.calls.
//
// Skips the test on Windows.
func InstallFake(tb testing.TB, binDir, name string, code int, output string) string {
	tb.Helper()
	if runtime.GOOS == "windows" {
		tb.Skip("fake checker requires a POSIX shell")
	}
	calls := filepath.Join(binDir, name+".calls")
	script := fmt.Sprintf(`#!/bin/sh
echo "$(pwd -P) $*" >> %q
echo "VIRTUAL_ENV=$VIRTUAL_ENV" >> %q
printf %q
exit %d
`, calls, calls, output, code)
	path := filepath.Join(binDir, name)
	if err := os.WriteFile(path, []byte(script), 0o755); err != nil {
		tb.Fatalf("install fake checker: %v", err)
	}
	return path
}

// Calls returns what InstallFake's script recorded, or "" if it never ran.
func Calls(tb testing.TB, binDir, name string) string {
	tb.Helper()
	data, err := os.ReadFile(filepath.Join(binDir, name+".calls"))
	if err != nil {
		if os.IsNotExist(err) {
			return ""
		}
		tb.Fatalf("read calls: %v", err)
	}
	return string(data)
}
