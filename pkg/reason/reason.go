// Package reason runs the reasoning backend as a cancellable subprocess,
// one invocation per conversation turn. Conversation continuity is carried
// explicitly via the session id the backend returns, never via hidden
// process state, so a crashed turn loses nothing but that turn.
package reason

import (
	"context"
	"errors"
	"fmt"
)

// ErrTimeout is returned when a turn exceeds its hard deadline.
// The subprocess is killed before this is returned.
var ErrTimeout = errors.New("reason: turn timed out")

// RunError reports a failed subprocess invocation.
type RunError struct {
	// Stage is one of "spawn", "exit", "parse".
	Stage  string
	Detail string
	Err    error
}

func (e *RunError) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("reason: %s failed: %s", e.Stage, e.Detail)
	}
	return fmt.Sprintf("reason: %s failed: %v", e.Stage, e.Err)
}

// Unwrap returns the underlying error.
func (e *RunError) Unwrap() error {
	return e.Err
}

// Runner produces one response per turn of a call's conversation.
type Runner interface {
	// Run sends one turn's input and returns the response text. It must
	// be cancellable via ctx; cancellation kills any subprocess mid-run.
	Run(ctx context.Context, callID, input string) (string, error)

	// EndSession drops conversation state for a finished call.
	EndSession(callID string)
}
