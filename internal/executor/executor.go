// Package executor runs policy-approved command lines as child processes
// with a hard wall-clock timeout and bounded output capture.
package executor

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"runtime"
	"strings"
	"time"
)

// Outcome classifies how an execution ended.
type Outcome string

const (
	OutcomeSuccess Outcome = "success"
	OutcomeFailure Outcome = "failure"
	OutcomeTimeout Outcome = "timeout"
)

// ExitCodeNone is the ExitCode sentinel when no exit code exists (timeout
// or pre-execution spawn failure).
const ExitCodeNone = -1

// Result captures one subprocess execution. Stdout and Stderr are each
// truncated at the configured ceiling.
type Result struct {
	Command  string        `json:"command"`
	ExitCode int           `json:"exit_code"`
	Stdout   string        `json:"stdout,omitempty"`
	Stderr   string        `json:"stderr,omitempty"`
	Duration time.Duration `json:"duration_ms"`
	Outcome  Outcome       `json:"outcome"`
	Err      string        `json:"error,omitempty"`
}

const (
	// DefaultTimeout bounds a single execution's wall-clock time.
	DefaultTimeout = 30 * time.Second
	// DefaultMaxOutput bounds each captured stream.
	DefaultMaxOutput = 64 * 1024
	// waitDelay bounds how long Wait may linger on inherited pipes after
	// the child is killed, so a turn can never outlive its timeout by much.
	waitDelay = 3 * time.Second
)

// Executor spawns child processes through the host OS command launcher.
// Immutable after construction; safe for sequential per-turn use.
type Executor struct {
	timeout   time.Duration
	maxOutput int
}

// Option configures an Executor.
type Option func(*Executor)

// WithTimeout overrides the execution timeout.
func WithTimeout(d time.Duration) Option {
	return func(e *Executor) {
		if d > 0 {
			e.timeout = d
		}
	}
}

// WithMaxOutput overrides the per-stream capture ceiling in bytes.
func WithMaxOutput(n int) Option {
	return func(e *Executor) {
		if n > 0 {
			e.maxOutput = n
		}
	}
}

// New returns an Executor with the documented defaults applied.
func New(opts ...Option) *Executor {
	e := &Executor{timeout: DefaultTimeout, maxOutput: DefaultMaxOutput}
	for _, o := range opts {
		o(e)
	}
	return e
}

// Run executes cmdline synchronously. The command is passed to the host
// launcher as the already-fully-resolved string; safety filtering has
// already run against exactly this string. Every exit path releases the
// child process and its pipes.
func (e *Executor) Run(ctx context.Context, cmdline string) *Result {
	ctx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	cmd := launcherCommand(ctx, cmdline)

	stdout := newCapBuffer(e.maxOutput)
	stderr := newCapBuffer(e.maxOutput)
	cmd.Stdout = stdout
	cmd.Stderr = stderr
	cmd.WaitDelay = waitDelay

	start := time.Now()
	err := cmd.Run()
	res := &Result{
		Command:  cmdline,
		Duration: time.Since(start),
		Stdout:   stdout.String(),
		Stderr:   stderr.String(),
	}

	switch {
	case ctx.Err() == context.DeadlineExceeded:
		res.Outcome = OutcomeTimeout
		res.ExitCode = ExitCodeNone
		res.Err = fmt.Sprintf("command timed out after %s and was terminated", e.timeout)
	case err == nil:
		res.Outcome = OutcomeSuccess
		res.ExitCode = 0
	default:
		res.Outcome = OutcomeFailure
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			res.ExitCode = exitErr.ExitCode()
			res.Err = fmt.Sprintf("command exited with code %d", res.ExitCode)
		} else {
			// Spawn failure: command not found, permission denied, etc.
			res.ExitCode = ExitCodeNone
			res.Err = fmt.Sprintf("failed to start command: %v", err)
		}
	}

	return res
}

// launcherCommand wraps the command line in the host OS launcher. Templates
// legitimately contain pipes and wildcards, so a shell is required; the
// safety policy has already vetted the exact string being passed.
func launcherCommand(ctx context.Context, cmdline string) *exec.Cmd {
	if runtime.GOOS == "windows" {
		return exec.CommandContext(ctx, "cmd", "/C", cmdline)
	}
	return exec.CommandContext(ctx, "sh", "-c", cmdline)
}

// capBuffer keeps at most max bytes and drops the rest, recording that
// truncation happened.
type capBuffer struct {
	buf       bytes.Buffer
	max       int
	truncated bool
}

func newCapBuffer(max int) *capBuffer {
	return &capBuffer{max: max}
}

func (b *capBuffer) Write(p []byte) (int, error) {
	room := b.max - b.buf.Len()
	if room <= 0 {
		b.truncated = true
		return len(p), nil
	}
	if len(p) > room {
		b.buf.Write(p[:room])
		b.truncated = true
		return len(p), nil
	}
	b.buf.Write(p)
	return len(p), nil
}

func (b *capBuffer) String() string {
	s := strings.TrimRight(b.buf.String(), "\n")
	if b.truncated {
		s += "\n[output truncated]"
	}
	return s
}
