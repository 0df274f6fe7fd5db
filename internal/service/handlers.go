package service

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/avishiprsd/llm-automation-agent/internal/config"
	"github.com/avishiprsd/llm-automation-agent/internal/domain/sandbox"
	"github.com/avishiprsd/llm-automation-agent/internal/domain/task"
	"github.com/avishiprsd/llm-automation-agent/internal/port/cache"
	"github.com/avishiprsd/llm-automation-agent/internal/port/command"
	"github.com/avishiprsd/llm-automation-agent/internal/port/database"
	"github.com/avishiprsd/llm-automation-agent/internal/port/fetch"
	"github.com/avishiprsd/llm-automation-agent/internal/port/gitprovider"
	"github.com/avishiprsd/llm-automation-agent/internal/port/llm"
	"github.com/avishiprsd/llm-automation-agent/internal/port/media"
)

// HandlerDeps carries every capability a handler may use. Handlers hold no
// other state. A nil capability makes the handlers that need it fail.
type HandlerDeps struct {
	Policy      *sandbox.Policy
	Interpreter llm.Interpreter
	Runner      command.Runner
	Git         gitprovider.Provider
	Querier     database.Querier
	Fetcher     fetch.Fetcher
	Text        fetch.TextExtractor
	Resizer     media.ImageResizer
	Cache       cache.Cache
	Generator   config.Generator
	CacheTTL    time.Duration
}

// Handlers implements the task operations over HandlerDeps.
type Handlers struct {
	deps HandlerDeps
}

// NewHandlers creates Handlers. deps.Policy is required.
func NewHandlers(deps HandlerDeps) *Handlers {
	return &Handlers{deps: deps}
}

var (
	urlPattern = regexp.MustCompile(`https?://\S+`)
	sqlPattern = regexp.MustCompile(`(?i)SELECT .+`)
)

// firstURL returns the first http(s) URL in text with trailing sentence
// punctuation removed, or "".
func firstURL(text string) string {
	return strings.TrimRight(urlPattern.FindString(text), `.,;:)]}"'`)
}

// sandboxMessage is the rejection text for paths outside root.
func sandboxMessage(root string) string {
	return fmt.Sprintf("Error: File paths must be within the %s directory.", root)
}

// contained re-checks a path derived by a handler.
func (h *Handlers) contained(path string) bool {
	return h.deps.Policy.Contains(path)
}

func notConfigured(capability string) task.Result {
	return task.Failed("%s is not configured.", capability)
}

func fileNotFound(path string) task.Result {
	return task.Failed("File %s not found.", path)
}

// readInput reads a handler's input file. ok is false when the file is
// missing or unreadable, and res carries the failure.
func readInput(path string) (data []byte, res task.Result, ok bool) {
	data, err := os.ReadFile(path) //nolint:gosec // G304: path checked against the sandbox by the engine
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fileNotFound(path), false
		}
		return nil, task.Failed("Unable to read %s: %v", path, err), false
	}
	return data, task.Result{}, true
}

func exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

func isDir(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}

// ensureParent creates the directory that will hold path.
func ensureParent(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil { //nolint:gosec // G301: sandbox files are read by other tools
		return fmt.Errorf("create output directory: %w", err)
	}
	return nil
}

// writeOutput writes data to path, creating the parent directory.
func writeOutput(path string, data []byte) error {
	if err := ensureParent(path); err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0o644); err != nil { //nolint:gosec // G306: sandbox files are read by other tools
		return fmt.Errorf("write output: %w", err)
	}
	return nil
}

// finish writes data to path and returns success, or the write failure.
func finish(path string, data []byte, success string) task.Result {
	if err := writeOutput(path, data); err != nil {
		return task.Failed("Unable to write %s: %v", path, err)
	}
	return task.Succeeded(success)
}
