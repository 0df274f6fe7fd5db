package service

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"

	"github.com/avishiprsd/llm-automation-agent/internal/domain/sandbox"
)

// ReadOutcome classifies a Read.
type ReadOutcome string

const (
	ReadFound          ReadOutcome = "found"
	ReadNotFound       ReadOutcome = "not_found"
	ReadOutsideSandbox ReadOutcome = "outside_sandbox"
	ReadFailed         ReadOutcome = "failed"
)

// ReadResult is the outcome of a guarded read. Content holds the file for
// ReadFound and a descriptive message for ReadOutsideSandbox.
type ReadResult struct {
	Outcome ReadOutcome
	Content []byte
}

// ReadGateway reads single files under the sandbox root, independent of
// task dispatch.
type ReadGateway struct {
	policy *sandbox.Policy
}

// NewReadGateway creates a ReadGateway.
func NewReadGateway(policy *sandbox.Policy) *ReadGateway {
	return &ReadGateway{policy: policy}
}

// Read returns the content of path. A path outside the sandbox yields a
// descriptive message rather than the not-found outcome.
func (g *ReadGateway) Read(path string) ReadResult {
	if !g.policy.Contains(path) {
		return ReadResult{
			Outcome: ReadOutsideSandbox,
			Content: []byte(fmt.Sprintf("The directory for the path '%s' is invalid.", path)),
		}
	}

	data, err := os.ReadFile(path) //nolint:gosec // G304: path checked against the sandbox above
	switch {
	case errors.Is(err, fs.ErrNotExist):
		return ReadResult{Outcome: ReadNotFound}
	case err != nil:
		slog.Warn("read failed", "path", path, "error", err)
		return ReadResult{Outcome: ReadFailed}
	}
	return ReadResult{Outcome: ReadFound, Content: data}
}
