package gate

import (
	"time"

	"github.com/fyrsmithlabs/qualitygate/internal/checker"
	"github.com/fyrsmithlabs/qualitygate/internal/revision"
)

// Result is everything one gate run produced.
type Result struct {
	RunID    string
	Decision Decision

	// Status is nil when the checker never ran.
	Status *checker.Status

	// Err is the setup failure (wrapping venv.ErrEnvironmentMissing or
	// checker.ErrToolUnavailable), nil when the checker ran.
	Err error

	Revision revision.Info
	Started  time.Time
	Duration time.Duration
}

// ExitCode is the status the enclosing process must exit with.
func (r Result) ExitCode() int {
	return r.Decision.ExitCode()
}

// SetupFailed reports whether the gate failed before getting a verdict
// from the checker.
func (r Result) SetupFailed() bool {
	return r.Err != nil
}

// CheckerExitStatus returns the checker's exit status, or -1 if it never ran.
func (r Result) CheckerExitStatus() int {
	if r.Status == nil {
		return -1
	}
	return r.Status.Code
}
