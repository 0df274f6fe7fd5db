// Package command defines the port interface for running external programs.
package command

import (
	"context"
	"errors"
)

// ErrNonZeroExit is wrapped by Run when the program exits unsuccessfully.
var ErrNonZeroExit = errors.New("non-zero exit status")

// ErrNotFound is wrapped by Run when the program is not on PATH.
var ErrNotFound = errors.New("executable not found")

// Output is the captured result of one command.
type Output struct {
	Stdout   string
	Stderr   string
	ExitCode int
}

// Runner executes an external program in dir. An empty dir runs in the
// process working directory.
type Runner interface {
	Run(ctx context.Context, dir, name string, args ...string) (Output, error)
	// Available reports whether name resolves to an executable.
	Available(name string) bool
}
