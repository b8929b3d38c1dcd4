package engine

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strings"
	"time"
)

// Runner executes a command and captures its output. It exists as an
// interface so tests can substitute a fake engine process.
type Runner interface {
	Run(ctx context.Context, cmd []string, opts RunOpts) (RunResult, error)
}

// RunOpts contains options for command execution
type RunOpts struct {
	// WorkDir is the working directory for the command
	WorkDir string

	// Env contains extra environment variables (KEY=VALUE format)
	Env []string

	// Timeout is the maximum wall-clock duration; the process is killed on expiry
	Timeout time.Duration
}

// RunResult contains the result of command execution
type RunResult struct {
	Stdout   string
	Stderr   string
	ExitCode int
	Duration time.Duration
	TimedOut bool
}

// LocalRunner executes commands directly on the local system
type LocalRunner struct{}

// NewLocalRunner creates a new LocalRunner
func NewLocalRunner() *LocalRunner {
	return &LocalRunner{}
}

// Run executes a command locally with the given options. A non-zero exit is
// reported through ExitCode, not the error; the error is reserved for
// failures to start or a killed process.
func (r *LocalRunner) Run(ctx context.Context, cmd []string, opts RunOpts) (RunResult, error) {
	if len(cmd) == 0 {
		return RunResult{}, fmt.Errorf("command cannot be empty")
	}

	if opts.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, opts.Timeout)
		defer cancel()
	}

	execCmd := exec.CommandContext(ctx, cmd[0], cmd[1:]...)

	if opts.WorkDir != "" {
		if _, err := os.Stat(opts.WorkDir); os.IsNotExist(err) {
			return RunResult{}, fmt.Errorf("working directory does not exist: %s", opts.WorkDir)
		}
		execCmd.Dir = opts.WorkDir
	}

	if len(opts.Env) > 0 {
		execCmd.Env = append(os.Environ(), opts.Env...)
	}

	var stdoutBuf, stderrBuf strings.Builder
	execCmd.Stdout = &stdoutBuf
	execCmd.Stderr = &stderrBuf

	startTime := time.Now()
	err := execCmd.Run()
	duration := time.Since(startTime)

	result := RunResult{
		Stdout:   stdoutBuf.String(),
		Stderr:   stderrBuf.String(),
		Duration: duration,
		TimedOut: errors.Is(ctx.Err(), context.DeadlineExceeded),
	}

	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) && !result.TimedOut {
			// Non-zero exit codes are the caller's to interpret
			result.ExitCode = exitErr.ExitCode()
			err = nil
		} else {
			result.ExitCode = -1
			if result.TimedOut {
				err = nil
			}
		}
	}

	return result, err
}
