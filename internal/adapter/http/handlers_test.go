package http_test

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"

	cfhttp "github.com/avishiprsd/llm-automation-agent/internal/adapter/http"
	"github.com/avishiprsd/llm-automation-agent/internal/domain/sandbox"
	"github.com/avishiprsd/llm-automation-agent/internal/service"
)

// stubInterpreter answers every prompt with reply or err.
type stubInterpreter struct {
	reply string
	err   error
}

func (s *stubInterpreter) Interpret(context.Context, string) (string, error) {
	return s.reply, s.err
}

type stubHealth struct{ ok bool }

func (s stubHealth) Health(context.Context) (bool, error) {
	if !s.ok {
		return false, errors.New("connection refused")
	}
	return true, nil
}

type testEnv struct {
	router      http.Handler
	root        string
	interpreter *stubInterpreter
}

func newTestEnv(t *testing.T, strict bool, health cfhttp.HealthChecker) *testEnv {
	t.Helper()
	policy, err := sandbox.NewPolicy(t.TempDir(), sandbox.ModeSegment)
	if err != nil {
		t.Fatal(err)
	}
	si := &stubInterpreter{}
	handlers := service.NewHandlers(service.HandlerDeps{Policy: policy})
	engine := service.NewEngine(service.NewIntentExtractor(si), service.NewDispatcher(service.StandardRoutes(handlers)), policy)

	r := chi.NewRouter()
	cfhttp.MountRoutes(r, &cfhttp.Handlers{
		Tasks:            engine,
		Files:            service.NewReadGateway(policy),
		LLM:              health,
		SandboxRoot:      policy.Root,
		StrictReadStatus: strict,
	})
	return &testEnv{router: r, root: policy.Root, interpreter: si}
}

func (e *testEnv) intent(action string) {
	p := filepath.Join(e.root, "file.txt")
	e.interpreter.reply = fmt.Sprintf(`{"action":%q,"input_path":%q,"output_path":%q}`, action, p, p)
}

func (e *testEnv) do(req *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

func decodeBody(t *testing.T, w *httptest.ResponseRecorder) map[string]string {
	t.Helper()
	var m map[string]string
	if err := json.NewDecoder(w.Body).Decode(&m); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	return m
}

func runRequest(text string) *http.Request {
	return httptest.NewRequest(http.MethodPost, "/run?task="+url.QueryEscape(text), http.NoBody)
}

func TestRunTaskRequiresDescription(t *testing.T) {
	env := newTestEnv(t, false, nil)
	w := env.do(httptest.NewRequest(http.MethodPost, "/run", http.NoBody))

	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", w.Code)
	}
	if got := decodeBody(t, w)["error"]; got != "Task description required" {
		t.Fatalf("unexpected error %q", got)
	}
}

func TestRunTaskStatusMapping(t *testing.T) {
	tests := []struct {
		name      string
		action    string
		reply     string
		err       error
		wantCode  int
		wantKey   string
		wantValue string
	}{
		{name: "success", action: "access data", wantCode: 200, wantKey: "result", wantValue: "Data access verified."},
		{name: "unknown task", action: "juggle", wantCode: 200, wantKey: "result", wantValue: "Unknown task"},
		{name: "handled failure", action: "count wednesdays", wantCode: 200, wantKey: "result"},
		{name: "delete rejected", action: "delete logs", wantCode: 400, wantKey: "error", wantValue: "Error: Data deletion is not allowed."},
		{name: "unparseable intent", reply: "no idea", wantCode: 400, wantKey: "error", wantValue: "Error: Unable to parse task description."},
		{name: "interpreter down", err: errors.New("dial tcp: refused"), wantCode: 500, wantKey: "error", wantValue: "Internal Server Error"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newTestEnv(t, false, nil)
			if tt.action != "" {
				env.intent(tt.action)
			} else {
				env.interpreter.reply = tt.reply
			}
			env.interpreter.err = tt.err

			w := env.do(runRequest("do the thing"))
			if w.Code != tt.wantCode {
				t.Fatalf("expected %d, got %d: %s", tt.wantCode, w.Code, w.Body.String())
			}
			body := decodeBody(t, w)
			got, ok := body[tt.wantKey]
			if !ok {
				t.Fatalf("missing %q in %v", tt.wantKey, body)
			}
			if tt.wantValue != "" && got != tt.wantValue {
				t.Errorf("%s = %q, want %q", tt.wantKey, got, tt.wantValue)
			}
		})
	}
}

func TestRunTaskSandboxViolation(t *testing.T) {
	env := newTestEnv(t, false, nil)
	env.interpreter.reply = `{"action":"count","input_path":"/etc/passwd","output_path":"/tmp/x"}`

	w := env.do(runRequest("count"))
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", w.Code)
	}
	want := "Error: File paths must be within the " + env.root + " directory."
	if got := decodeBody(t, w)["error"]; got != want {
		t.Errorf("error = %q, want %q", got, want)
	}
}

func TestRunTaskJSONBody(t *testing.T) {
	env := newTestEnv(t, false, nil)
	env.intent("access data")

	req := httptest.NewRequest(http.MethodPost, "/run", strings.NewReader(`{"task":"check access"}`))
	req.Header.Set("Content-Type", "application/json")
	w := env.do(req)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}

	req = httptest.NewRequest(http.MethodPost, "/run", strings.NewReader(`{"task":`))
	req.Header.Set("Content-Type", "application/json")
	if w := env.do(req); w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for malformed body, got %d", w.Code)
	}
}

func TestReadFile(t *testing.T) {
	env := newTestEnv(t, false, nil)
	present := filepath.Join(env.root, "hello.txt")
	if err := os.WriteFile(present, []byte("hello"), 0o600); err != nil {
		t.Fatal(err)
	}

	w := env.do(httptest.NewRequest(http.MethodGet, "/read?path="+url.QueryEscape(present), http.NoBody))
	if w.Code != http.StatusOK || w.Body.String() != "hello" {
		t.Fatalf("found: got %d %q", w.Code, w.Body.String())
	}

	w = env.do(httptest.NewRequest(http.MethodGet, "/read?path="+url.QueryEscape(filepath.Join(env.root, "nope")), http.NoBody))
	if w.Code != http.StatusNotFound || w.Body.Len() != 0 {
		t.Fatalf("missing: got %d %q", w.Code, w.Body.String())
	}

	w = env.do(httptest.NewRequest(http.MethodGet, "/read?path=/etc/passwd", http.NoBody))
	if w.Code != http.StatusOK {
		t.Fatalf("outside: expected 200, got %d", w.Code)
	}
	if got := w.Body.String(); got != "The directory for the path '/etc/passwd' is invalid." {
		t.Fatalf("outside: unexpected body %q", got)
	}

	w = env.do(httptest.NewRequest(http.MethodGet, "/read", http.NoBody))
	if w.Code != http.StatusBadRequest {
		t.Fatalf("no path: expected 400, got %d", w.Code)
	}
}

func TestReadFileStrictStatus(t *testing.T) {
	env := newTestEnv(t, true, nil)
	w := env.do(httptest.NewRequest(http.MethodGet, "/read?path=/etc/passwd", http.NoBody))
	if w.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", w.Code)
	}
}

func TestHealth(t *testing.T) {
	tests := []struct {
		name    string
		checker cfhttp.HealthChecker
		want    string
	}{
		{"no llm", nil, "unconfigured"},
		{"llm up", stubHealth{ok: true}, "ok"},
		{"llm down", stubHealth{ok: false}, "unreachable"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newTestEnv(t, false, tt.checker)
			w := env.do(httptest.NewRequest(http.MethodGet, "/health", http.NoBody))
			if w.Code != http.StatusOK {
				t.Fatalf("expected 200, got %d", w.Code)
			}
			body := decodeBody(t, w)
			if body["status"] != "ok" || body["llm"] != tt.want || body["sandbox"] != env.root {
				t.Errorf("unexpected body %v", body)
			}
		})
	}
}
