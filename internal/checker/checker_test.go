package checker

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fyrsmithlabs/qualitygate/internal/venv"
)

func activate(t *testing.T) (*venv.Environment, string) {
	t.Helper()
	project := t.TempDir()
	bin := venv.Scaffold(t, project, "venv")
	env, err := venv.Activate(project, "venv")
	require.NoError(t, err)
	return env, bin
}

func newTestInvoker() (*Invoker, *bytes.Buffer, *bytes.Buffer) {
	var stdout, stderr bytes.Buffer
	inv := New("flake8", ".")
	inv.Stdout = &stdout
	inv.Stderr = &stderr
	return inv, &stdout, &stderr
}

func TestInvoker_Run_Clean(t *testing.T) {
	env, bin := activate(t)
	InstallFake(t, bin, "flake8", 0, "")

	inv, stdout, _ := newTestInvoker()
	status, err := inv.Run(context.Background(), env)
	require.NoError(t, err)

	assert.Equal(t, Status{Code: 0}, status)
	assert.True(t, status.Passed())
	assert.Empty(t, stdout.String())
}

func TestInvoker_Run_Violations(t *testing.T) {
	tests := []struct {
		name string
		code int
	}{
		{"one style violation", 1},
		{"usage error", 2},
		{"arbitrary status", 5},
		{"command not found inside tool", 127},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env, bin := activate(t)
			InstallFake(t, bin, "flake8", tt.code, `./app.py:1:1: E302 expected 2 blank lines\n`)

			inv, stdout, _ := newTestInvoker()
			status, err := inv.Run(context.Background(), env)
			require.NoError(t, err, "violations are an outcome, not an error")

			assert.Equal(t, tt.code, status.Code)
			assert.False(t, status.Signaled)
			assert.False(t, status.Passed())
			assert.Equal(t, "./app.py:1:1: E302 expected 2 blank lines\n", stdout.String())
		})
	}
}

func TestInvoker_Run_WorkingDirAndEnvironment(t *testing.T) {
	env, bin := activate(t)
	InstallFake(t, bin, "flake8", 0, "")

	inv, _, _ := newTestInvoker()
	_, err := inv.Run(context.Background(), env)
	require.NoError(t, err)

	project, err := filepath.EvalSymlinks(env.ProjectDir)
	require.NoError(t, err)

	calls := Calls(t, bin, "flake8")
	assert.Contains(t, calls, project+" .\n")
	assert.Contains(t, calls, "VIRTUAL_ENV="+env.Root+"\n")
}

func TestInvoker_Run_Signaled(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("signals are POSIX-only")
	}
	env, bin := activate(t)
	script := "#!/bin/sh\nkill -TERM $$\n"
	require.NoError(t, os.WriteFile(filepath.Join(bin, "flake8"), []byte(script), 0o755))

	inv, _, _ := newTestInvoker()
	status, err := inv.Run(context.Background(), env)
	require.NoError(t, err)

	assert.Equal(t, Status{Code: -1, Signaled: true}, status)
	assert.False(t, status.Passed())
}

func TestInvoker_Run_ToolUnavailable(t *testing.T) {
	tests := []struct {
		name  string
		setup func(t *testing.T, bin string)
	}{
		{
			name:  "not installed",
			setup: func(*testing.T, string) {},
		},
		{
			name: "directory in place of binary",
			setup: func(t *testing.T, bin string) {
				require.NoError(t, os.Mkdir(filepath.Join(bin, "flake8"), 0o755))
			},
		},
		{
			name: "not executable",
			setup: func(t *testing.T, bin string) {
				if runtime.GOOS == "windows" {
					t.Skip("no execute bit on Windows")
				}
				require.NoError(t, os.WriteFile(filepath.Join(bin, "flake8"), []byte("#!/bin/sh\nexit 0\n"), 0o644))
			},
		},
		{
			name: "bad interpreter",
			setup: func(t *testing.T, bin string) {
				if runtime.GOOS == "windows" {
					t.Skip("shebangs are POSIX-only")
				}
				script := "#!/nonexistent/python3\n"
				require.NoError(t, os.WriteFile(filepath.Join(bin, "flake8"), []byte(script), 0o755))
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env, bin := activate(t)
			tt.setup(t, bin)

			inv, _, _ := newTestInvoker()
			_, err := inv.Run(context.Background(), env)
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrToolUnavailable)
		})
	}
}

func TestInvoker_Resolve_IgnoresSystemPath(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("fake checker requires a POSIX shell")
	}
	env, _ := activate(t)

	systemBin := t.TempDir()
	InstallFake(t, systemBin, "flake8", 0, "")
	t.Setenv("PATH", systemBin+string(os.PathListSeparator)+os.Getenv("PATH"))

	inv, _, _ := newTestInvoker()
	_, err := inv.Resolve(env)
	assert.ErrorIs(t, err, ErrToolUnavailable)
	assert.Empty(t, Calls(t, systemBin, "flake8"))
}

func TestInvoker_Run_Deterministic(t *testing.T) {
	env, bin := activate(t)
	InstallFake(t, bin, "flake8", 1, "")

	inv, _, _ := newTestInvoker()
	first, err := inv.Run(context.Background(), env)
	require.NoError(t, err)
	second, err := inv.Run(context.Background(), env)
	require.NoError(t, err)

	assert.Equal(t, first, second)
}
