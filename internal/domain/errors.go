// Package domain provides shared domain-level sentinel errors.
package domain

import (
	"errors"
	"fmt"
)

// ErrNotFound indicates the requested file or entity does not exist.
var ErrNotFound = errors.New("not found")

// ErrValidation indicates the request itself is unacceptable (bad input, policy refusal).
var ErrValidation = errors.New("validation error")

// ErrIntentParse indicates the language model reply could not be decoded as a task intent.
var ErrIntentParse = fmt.Errorf("%w: unable to parse task description", ErrValidation)

// ErrSandboxViolation indicates a path lies outside the sandbox root.
var ErrSandboxViolation = fmt.Errorf("%w: path outside sandbox", ErrValidation)
