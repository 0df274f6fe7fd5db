package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"

	"github.com/avishiprsd/llm-automation-agent/internal/domain/task"
	"github.com/avishiprsd/llm-automation-agent/internal/port/command"
)

const (
	defaultPrettierVersion = "3.4.2"
	defaultCommitMessage   = "Automated commit"
	generatorScriptName    = "datagen.py"
)

// InstallAndRun makes sure uv is installed, downloads the data generator
// script and runs it with the user's email.
func (h *Handlers) InstallAndRun(ctx context.Context, req Request) task.Result {
	if h.deps.Runner == nil {
		return notConfigured("Command runner")
	}
	if !h.deps.Runner.Available("uv") {
		if _, err := h.deps.Runner.Run(ctx, "", "pip", "install", "uv"); err != nil {
			slog.WarnContext(ctx, "uv install failed", "error", err)
			return task.Failure("Error installing `uv`.")
		}
	}

	script, err := h.generatorScript(ctx)
	if err != nil {
		return task.Failure(fmt.Sprintf("Error downloading datagen.py: %v", err))
	}

	dir := h.deps.Generator.WorkDir
	if dir == "" {
		dir = h.deps.Policy.Root
	}
	scriptPath := filepath.Join(dir, generatorScriptName)
	if !h.contained(scriptPath) {
		return task.Rejected(sandboxMessage(h.deps.Policy.Root))
	}
	if err := writeOutput(scriptPath, script); err != nil {
		return task.Failure(fmt.Sprintf("Error downloading datagen.py: %v", err))
	}

	interpreter := h.deps.Generator.Interpreter
	if interpreter == "" {
		interpreter = "python"
	}
	email := req.Intent.Param("email", "")
	if _, err := h.deps.Runner.Run(ctx, dir, interpreter, generatorScriptName, email); err != nil {
		slog.WarnContext(ctx, "generator script failed", "error", err)
		return task.Failure("Error running `datagen.py`.")
	}
	return task.Succeeded("Data generation complete.")
}

// generatorScript returns the generator script, served from the cache when
// a previous download is still fresh.
func (h *Handlers) generatorScript(ctx context.Context) ([]byte, error) {
	if h.deps.Fetcher == nil {
		return nil, errors.New("fetcher is not configured")
	}
	url := h.deps.Generator.URL
	key := "generator:" + url

	if h.deps.Cache != nil {
		if data, ok, err := h.deps.Cache.Get(ctx, key); err == nil && ok {
			slog.DebugContext(ctx, "generator script cache hit", "url", url)
			return data, nil
		}
	}

	resp, err := h.deps.Fetcher.Get(ctx, url)
	if err != nil {
		return nil, err
	}

	if h.deps.Cache != nil {
		if err := h.deps.Cache.Set(ctx, key, resp.Body, h.deps.CacheTTL); err != nil {
			slog.WarnContext(ctx, "generator script cache set failed", "error", err)
		}
	}
	return resp.Body, nil
}

// Format runs Prettier over the input file in place.
func (h *Handlers) Format(ctx context.Context, req Request) task.Result {
	input := req.Intent.InputPath
	if !exists(input) {
		return fileNotFound(input)
	}
	if h.deps.Runner == nil {
		return notConfigured("Command runner")
	}

	version := req.Intent.Param("prettier_version", defaultPrettierVersion)
	_, err := h.deps.Runner.Run(ctx, "", "npx", "prettier@"+version, "--write", input)
	switch {
	case errors.Is(err, command.ErrNotFound):
		return task.Failure("Error: `npx` is not installed or not found in PATH.")
	case err != nil:
		slog.WarnContext(ctx, "prettier failed", "error", err)
		return task.Failure("Error running Prettier.")
	}
	return task.Succeeded("Markdown formatted successfully.")
}

// AccessData reports whether the input path is inside the sandbox. It
// touches no files.
func (h *Handlers) AccessData(_ context.Context, req Request) task.Result {
	if !h.contained(req.Intent.InputPath) {
		return task.Rejected(fmt.Sprintf("Error: Access to data outside %s is not allowed.", h.deps.Policy.Root))
	}
	return task.Succeeded("Data access verified.")
}

// Delete always refuses.
func (h *Handlers) Delete(_ context.Context, _ Request) task.Result {
	return task.Rejected(task.MessageDeleteForbidden)
}

// GitClone clones the repository named in the task text and records a commit.
func (h *Handlers) GitClone(ctx context.Context, req Request) task.Result {
	url := firstURL(req.Text)
	if url == "" {
		return task.Failed("No valid Git repository URL found in task description.")
	}
	if h.deps.Git == nil {
		return notConfigured("Git provider")
	}

	dest := req.Intent.Param("dest", h.deps.Policy.Join("repo"))
	if !h.contained(dest) {
		return task.Rejected(sandboxMessage(h.deps.Policy.Root))
	}

	if err := h.deps.Git.Clone(ctx, url, dest); err != nil {
		slog.WarnContext(ctx, "git clone failed", "url", url, "error", err)
		return task.Failure("Error cloning Git repository or making commit.")
	}
	hash, err := h.deps.Git.Commit(ctx, dest, req.Intent.Param("commit_message", defaultCommitMessage))
	if err != nil {
		slog.WarnContext(ctx, "git commit failed", "dest", dest, "error", err)
		return task.Failure("Error cloning Git repository or making commit.")
	}
	slog.InfoContext(ctx, "repository cloned", "url", url, "dest", dest, "commit", hash)
	return task.Succeeded("Git repository cloned and commit made.")
}
