package service

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/avishiprsd/llm-automation-agent/internal/domain/sandbox"
	"github.com/avishiprsd/llm-automation-agent/internal/port/command"
	"github.com/avishiprsd/llm-automation-agent/internal/port/fetch"
	"github.com/avishiprsd/llm-automation-agent/internal/port/media"
)

// fakeInterpreter replies with reply, or err, and records prompts.
type fakeInterpreter struct {
	mu      sync.Mutex
	reply   string
	err     error
	prompts []string
}

func (f *fakeInterpreter) Interpret(_ context.Context, prompt string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.prompts = append(f.prompts, prompt)
	return f.reply, f.err
}

func (f *fakeInterpreter) lastPrompt() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.prompts) == 0 {
		return ""
	}
	return f.prompts[len(f.prompts)-1]
}

// fakeMultimodal adds image and audio support.
type fakeMultimodal struct {
	fakeInterpreter
	image    []byte
	mimeType string
	audio    []byte
	filename string
}

func (f *fakeMultimodal) InterpretImage(_ context.Context, _ string, image []byte, mimeType string) (string, error) {
	f.image, f.mimeType = image, mimeType
	return f.reply, f.err
}

func (f *fakeMultimodal) Transcribe(_ context.Context, filename string, audio []byte) (string, error) {
	f.filename, f.audio = filename, audio
	return f.reply, f.err
}

type runCall struct {
	dir  string
	name string
	args []string
}

// fakeRunner records calls and fails for names listed in fail.
type fakeRunner struct {
	available map[string]bool
	fail      map[string]error
	calls     []runCall
}

func (f *fakeRunner) Run(_ context.Context, dir, name string, args ...string) (command.Output, error) {
	f.calls = append(f.calls, runCall{dir: dir, name: name, args: args})
	if err, ok := f.fail[name]; ok {
		return command.Output{ExitCode: 1}, err
	}
	return command.Output{}, nil
}

func (f *fakeRunner) Available(name string) bool { return f.available[name] }

type fakeGit struct {
	cloneErr  error
	commitErr error
	cloned    [2]string
	message   string
}

func (f *fakeGit) Clone(_ context.Context, url, dest string) error {
	f.cloned = [2]string{url, dest}
	return f.cloneErr
}

func (f *fakeGit) Commit(_ context.Context, _ string, message string) (string, error) {
	f.message = message
	return "abc123", f.commitErr
}

// fakeFetcher serves fixed bodies by URL.
type fakeFetcher struct {
	bodies map[string]string
	err    error
	gets   int
}

func (f *fakeFetcher) Get(_ context.Context, url string) (*fetch.Response, error) {
	f.gets++
	if f.err != nil {
		return nil, f.err
	}
	body, ok := f.bodies[url]
	if !ok {
		return nil, errors.Join(fetch.ErrStatus, errors.New("404 Not Found"))
	}
	return &fetch.Response{StatusCode: 200, Body: []byte(body)}, nil
}

type fakeResizer struct {
	opts  media.ResizeOptions
	err   error
	calls int
}

func (f *fakeResizer) Resize(_ context.Context, _, dst string, opts media.ResizeOptions) error {
	f.calls++
	f.opts = opts
	if f.err != nil {
		return f.err
	}
	return os.WriteFile(dst, []byte("img"), 0o600)
}

// mapCache is an in-memory cache.Cache.
type mapCache struct {
	mu sync.Mutex
	m  map[string][]byte
}

func (c *mapCache) Get(_ context.Context, key string) ([]byte, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	v, ok := c.m[key]
	return v, ok, nil
}

func (c *mapCache) Set(_ context.Context, key string, value []byte, _ time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.m == nil {
		c.m = map[string][]byte{}
	}
	c.m[key] = value
	return nil
}

func (c *mapCache) Delete(_ context.Context, key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.m, key)
	return nil
}

func newTestPolicy(t *testing.T) *sandbox.Policy {
	t.Helper()
	p, err := sandbox.NewPolicy(t.TempDir(), sandbox.ModeSegment)
	if err != nil {
		t.Fatal(err)
	}
	return p
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}
}

func readFile(t *testing.T, path string) string {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	return string(data)
}
