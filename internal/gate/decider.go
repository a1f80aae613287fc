// Package gate turns one checker run into a single pass/fail decision.
//
// A Runner sequences the three phases: activate the environment, invoke
// the checker, decide. Every setup failure and every nonzero checker
// status becomes Fail, which maps to exit code 1.
package gate

import (
	"errors"
	"fmt"

	"github.com/fyrsmithlabs/qualitygate/internal/checker"
)

// Decision is the binary outcome of a gate run.
type Decision string

const (
	Pass Decision = "pass"
	Fail Decision = "fail"
)

// ExitCode maps a decision to the process exit status.
// Anything other than Pass blocks the pipeline.
func (d Decision) ExitCode() int {
	if d == Pass {
		return 0
	}
	return 1
}

// State is the Decider's lifecycle position.
type State int

const (
	// Pending is entered when the checker is launched; a run that fails
	// before launch never creates a Decider.
	Pending State = iota
	// Decided is terminal.
	Decided
)

func (s State) String() string {
	switch s {
	case Pending:
		return "pending"
	case Decided:
		return "decided"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// ErrAlreadyDecided is returned when a Decider is asked to decide twice.
var ErrAlreadyDecided = errors.New("gate already decided")

// Decider makes exactly one decision. Not safe for concurrent use; the
// gate is strictly sequential.
type Decider struct {
	state    State
	decision Decision
}

// NewDecider returns a Decider in the Pending state.
func NewDecider() *Decider {
	return &Decider{state: Pending}
}

// State returns the current state.
func (d *Decider) State() State {
	return d.state
}

// Decision returns the decision, or "" while Pending.
func (d *Decider) Decision() Decision {
	return d.decision
}

// Decide maps a checker status to Pass (status 0) or Fail (anything else).
func (d *Decider) Decide(status checker.Status) (Decision, error) {
	if status.Passed() {
		return d.settle(Pass)
	}
	return d.settle(Fail)
}

// Fail records a checker that could not be launched. The cause is kept by
// the caller; the decision is always Fail.
func (d *Decider) Fail() (Decision, error) {
	return d.settle(Fail)
}

func (d *Decider) settle(decision Decision) (Decision, error) {
	if d.state == Decided {
		return d.decision, ErrAlreadyDecided
	}
	d.state = Decided
	d.decision = decision
	return decision, nil
}
