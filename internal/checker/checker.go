// Package checker runs the static-analysis tool inside an activated
// environment and reports how it terminated.
//
// The checker's diagnostics stream straight to the configured writers.
// Nothing is captured or parsed; the exit status is the only result.
package checker

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"runtime"

	"github.com/fyrsmithlabs/qualitygate/internal/venv"
)

// ErrToolUnavailable indicates the checker binary is absent from the
// environment or cannot be executed.
var ErrToolUnavailable = errors.New("checker unavailable")

// Status is the termination status of one checker run.
type Status struct {
	// Code is the exit status, or -1 when the process was killed by a signal.
	Code int

	// Signaled is true when the checker did not exit on its own.
	Signaled bool
}

// Passed reports whether the checker found nothing to complain about.
func (s Status) Passed() bool {
	return s.Code == 0 && !s.Signaled
}

// Invoker runs one checker command against a target path.
type Invoker struct {
	// Command is the executable name, resolved only inside the environment.
	Command string

	// Target is passed as the checker's sole argument.
	Target string

	Stdout io.Writer
	Stderr io.Writer
}

// New returns an Invoker wired to the process's own output streams.
func New(command, target string) *Invoker {
	return &Invoker{
		Command: command,
		Target:  target,
		Stdout:  os.Stdout,
		Stderr:  os.Stderr,
	}
}

// Resolve returns the checker's path inside env.
//
// The system PATH is never consulted: a checker that is not installed in
// the environment is ErrToolUnavailable.
func (i *Invoker) Resolve(env *venv.Environment) (string, error) {
	path := env.Executable(i.Command)

	info, err := os.Stat(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return "", fmt.Errorf("%w: %s not installed in %s", ErrToolUnavailable, i.Command, env.Root)
		}
		return "", fmt.Errorf("%w: %v", ErrToolUnavailable, err)
	}
	if info.IsDir() {
		return "", fmt.Errorf("%w: %s is a directory", ErrToolUnavailable, path)
	}
	if runtime.GOOS != "windows" && info.Mode().Perm()&0o111 == 0 {
		return "", fmt.Errorf("%w: %s is not executable", ErrToolUnavailable, path)
	}

	return path, nil
}

// Run executes the checker in env.ProjectDir and blocks until it exits.
//
// A nonzero exit is a normal outcome and is returned as a Status with a nil
// error. The error is non-nil only when the checker could not be started,
// and then wraps ErrToolUnavailable.
func (i *Invoker) Run(ctx context.Context, env *venv.Environment) (Status, error) {
	path, err := i.Resolve(env)
	if err != nil {
		return Status{}, err
	}

	cmd := exec.CommandContext(ctx, path, i.Target)
	cmd.Dir = env.ProjectDir
	cmd.Env = env.Environ(os.Environ())
	cmd.Stdout = i.Stdout
	cmd.Stderr = i.Stderr

	err = cmd.Run()
	if err == nil {
		return Status{Code: 0}, nil
	}

	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		code := exitErr.ExitCode()
		return Status{Code: code, Signaled: code == -1}, nil
	}

	return Status{}, fmt.Errorf("%w: starting %s: %v", ErrToolUnavailable, path, err)
}
