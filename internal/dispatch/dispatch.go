// Package dispatch launches review sessions asynchronously. The dispatcher
// never retries: the session owns its own retry policy.
package dispatch

import (
	"context"
	"log"

	"github.com/env0/claude-pr-reviewer/internal/session"
)

// SessionRunner runs one review session to a terminal outcome
type SessionRunner interface {
	Run(ctx context.Context, p session.Params) session.Outcome
}

// InProcess runs each session on its own goroutine. Sessions share no
// mutable state with each other; at most one session per PR is assumed to
// be in flight at a time.
type InProcess struct {
	runner SessionRunner
	logger *log.Logger
}

// NewInProcess creates the goroutine-backed dispatcher
func NewInProcess(runner SessionRunner, logger *log.Logger) *InProcess {
	return &InProcess{runner: runner, logger: logger}
}

// Dispatch starts one isolated session and returns immediately. The session
// runs to a terminal outcome on its own; its lifetime is bounded only by
// the engine timeout and the host's own limits.
func (d *InProcess) Dispatch(p session.Params) error {
	go func() {
		outcome := d.runner.Run(context.Background(), p)
		d.logger.Printf("%s: dispatch complete: %s", p, outcome.Status)
	}()
	return nil
}
