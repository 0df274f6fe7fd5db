package http

import (
	"context"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/avishiprsd/llm-automation-agent/internal/domain/task"
	"github.com/avishiprsd/llm-automation-agent/internal/service"
)

const healthTimeout = 5 * time.Second

// TaskExecutor runs a task description to completion.
type TaskExecutor interface {
	Execute(ctx context.Context, text string) task.Result
}

// FileReader performs guarded reads.
type FileReader interface {
	Read(path string) service.ReadResult
}

// HealthChecker probes the language model endpoint.
type HealthChecker interface {
	Health(ctx context.Context) (bool, error)
}

// Handlers holds the HTTP handler dependencies.
type Handlers struct {
	Tasks            TaskExecutor
	Files            FileReader
	LLM              HealthChecker // optional
	SandboxRoot      string
	StrictReadStatus bool // 403 instead of 200 for reads outside the sandbox
}

type runRequest struct {
	Task string `json:"task"`
}

// RunTask handles POST /run. The task text comes from the "task" query
// parameter or a JSON body {"task": "..."}.
func (h *Handlers) RunTask(w http.ResponseWriter, r *http.Request) {
	text := r.URL.Query().Get("task")
	if text == "" && strings.HasPrefix(r.Header.Get("Content-Type"), "application/json") {
		req, ok := readJSON[runRequest](w, r)
		if !ok {
			return
		}
		text = req.Task
	}
	if strings.TrimSpace(text) == "" {
		writeError(w, http.StatusBadRequest, "Task description required")
		return
	}

	writeResult(w, h.Tasks.Execute(r.Context(), text))
}

// ReadFile handles GET /read?path=...
func (h *Handlers) ReadFile(w http.ResponseWriter, r *http.Request) {
	path := r.URL.Query().Get("path")
	if !requireField(w, path, "path") {
		return
	}

	res := h.Files.Read(path)
	switch res.Outcome {
	case service.ReadFound:
		writeText(w, http.StatusOK, res.Content)
	case service.ReadNotFound:
		w.WriteHeader(http.StatusNotFound)
	case service.ReadOutsideSandbox:
		status := http.StatusOK
		if h.StrictReadStatus {
			status = http.StatusForbidden
		}
		writeText(w, status, res.Content)
	default:
		writeError(w, http.StatusInternalServerError, task.MessageInternalError)
	}
}

type healthStatus struct {
	Status  string `json:"status"`
	LLM     string `json:"llm"`
	Sandbox string `json:"sandbox"`
}

// Health handles GET /health. The service stays "ok" when the language
// model is unreachable; the llm field reports it.
func (h *Handlers) Health(w http.ResponseWriter, r *http.Request) {
	status := healthStatus{Status: "ok", LLM: "unconfigured", Sandbox: h.SandboxRoot}
	if h.LLM != nil {
		ctx, cancel := context.WithTimeout(r.Context(), healthTimeout)
		defer cancel()
		if ok, err := h.LLM.Health(ctx); ok {
			status.LLM = "ok"
		} else {
			slog.WarnContext(r.Context(), "llm health check failed", "error", err)
			status.LLM = "unreachable"
		}
	}
	writeJSON(w, http.StatusOK, status)
}
