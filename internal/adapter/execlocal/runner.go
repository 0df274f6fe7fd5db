// Package execlocal implements the command port with os/exec.
package execlocal

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
	"time"

	"github.com/avishiprsd/llm-automation-agent/internal/port/command"
)

// waitDelay bounds how long Run waits for orphaned children holding the
// output pipes after the main process is killed.
const waitDelay = 2 * time.Second

// Runner runs programs on the local host with a per-call timeout and a cap
// on captured output.
type Runner struct {
	timeout   time.Duration
	maxOutput int
	env       []string
}

// NewRunner creates a Runner. A zero timeout leaves only the caller's
// context deadline. maxOutput <= 0 captures everything.
func NewRunner(timeout time.Duration, maxOutput int) *Runner {
	return &Runner{timeout: timeout, maxOutput: maxOutput}
}

// WithEnv returns a copy of r that appends env to the inherited environment
// of every command.
func (r *Runner) WithEnv(env ...string) *Runner {
	cp := *r
	cp.env = append(append([]string{}, r.env...), env...)
	return &cp
}

// Available reports whether name is on PATH.
func (r *Runner) Available(name string) bool {
	_, err := exec.LookPath(name)
	return err == nil
}

// Run executes name with args in dir.
func (r *Runner) Run(ctx context.Context, dir, name string, args ...string) (command.Output, error) {
	if name == "" {
		return command.Output{}, errors.New("execlocal: command is required")
	}
	if r.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.timeout)
		defer cancel()
	}

	cmd := exec.CommandContext(ctx, name, args...) //nolint:gosec // G204: commands are fixed by task handlers
	cmd.Dir = dir
	cmd.WaitDelay = waitDelay
	if len(r.env) > 0 {
		cmd.Env = append(cmd.Environ(), r.env...)
	}

	stdout := &limitedBuffer{limit: r.maxOutput}
	stderr := &limitedBuffer{limit: r.maxOutput}
	cmd.Stdout = stdout
	cmd.Stderr = stderr

	err := cmd.Run()
	out := command.Output{Stdout: stdout.String(), Stderr: stderr.String()}
	if err == nil {
		return out, nil
	}

	var exitErr *exec.ExitError
	switch {
	case errors.As(err, &exitErr):
		out.ExitCode = exitErr.ExitCode()
		if ctxErr := ctx.Err(); ctxErr != nil {
			return out, fmt.Errorf("execlocal: %s: %w", name, ctxErr)
		}
		return out, fmt.Errorf("execlocal: %s: %w (code %d): %s",
			name, command.ErrNonZeroExit, out.ExitCode, strings.TrimSpace(out.Stderr))
	case errors.Is(err, exec.ErrNotFound):
		return out, fmt.Errorf("execlocal: %s: %w", name, command.ErrNotFound)
	default:
		return out, fmt.Errorf("execlocal: %s: %w", name, err)
	}
}

// limitedBuffer keeps the first limit bytes written and silently discards
// the rest so a chatty tool cannot exhaust memory.
type limitedBuffer struct {
	buf       bytes.Buffer
	limit     int
	truncated bool
}

func (l *limitedBuffer) Write(p []byte) (int, error) {
	if l.limit <= 0 {
		return l.buf.Write(p)
	}
	remaining := l.limit - l.buf.Len()
	if remaining <= 0 {
		l.truncated = true
		return len(p), nil
	}
	if len(p) > remaining {
		l.truncated = true
		_, _ = l.buf.Write(p[:remaining])
		return len(p), nil
	}
	return l.buf.Write(p)
}

func (l *limitedBuffer) String() string {
	if l.truncated {
		return l.buf.String() + "\n[output truncated]"
	}
	return l.buf.String()
}
