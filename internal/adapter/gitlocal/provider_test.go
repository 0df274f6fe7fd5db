package gitlocal_test

import (
	"context"
	"errors"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/avishiprsd/llm-automation-agent/internal/adapter/execlocal"
	"github.com/avishiprsd/llm-automation-agent/internal/adapter/gitlocal"
	"github.com/avishiprsd/llm-automation-agent/internal/git"
	"github.com/avishiprsd/llm-automation-agent/internal/port/command"
)

var testAuthor = gitlocal.Author{Name: "Agent Test", Email: "agent@test.local"}

func TestCloneAndCommit(t *testing.T) {
	if _, err := exec.LookPath("git"); err != nil {
		t.Skip("git not available in test environment")
	}

	ctx := context.Background()
	srcDir := initTestRepo(t)

	p := gitlocal.NewProvider(execlocal.NewRunner(30*time.Second, 0), git.NewPool(2), testAuthor)

	cloneDir := filepath.Join(t.TempDir(), "repo")
	if err := p.Clone(ctx, srcDir, cloneDir); err != nil {
		t.Fatalf("Clone failed: %v", err)
	}
	if _, err := os.Stat(filepath.Join(cloneDir, "README.md")); err != nil {
		t.Fatalf("expected README.md in clone: %v", err)
	}

	hash, err := p.Commit(ctx, cloneDir, "Automated commit")
	if err != nil {
		t.Fatalf("Commit failed: %v", err)
	}
	if len(hash) < 7 {
		t.Fatalf("expected commit hash, got %q", hash)
	}

	out, err := exec.Command("git", "-C", cloneDir, "log", "-1", "--format=%an|%s").Output()
	if err != nil {
		t.Fatal(err)
	}
	if got := strings.TrimSpace(string(out)); got != "Agent Test|Automated commit" {
		t.Errorf("unexpected last commit %q", got)
	}
}

func TestCloneInvalidSource(t *testing.T) {
	if _, err := exec.LookPath("git"); err != nil {
		t.Skip("git not available in test environment")
	}

	p := gitlocal.NewProvider(execlocal.NewRunner(30*time.Second, 0), nil, testAuthor)
	err := p.Clone(context.Background(), filepath.Join(t.TempDir(), "missing"), filepath.Join(t.TempDir(), "dst"))
	if err == nil {
		t.Fatal("expected clone of missing repo to fail")
	}
	if !strings.Contains(err.Error(), "gitlocal: clone") {
		t.Errorf("expected wrapped clone error, got %v", err)
	}
}

// recordingRunner captures git invocations without touching the host.
type recordingRunner struct {
	mu    sync.Mutex
	calls [][]string
	fail  string
}

func (r *recordingRunner) Run(_ context.Context, dir, name string, args ...string) (command.Output, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, append([]string{dir, name}, args...))
	if r.fail != "" && strings.Contains(strings.Join(args, " "), r.fail) {
		return command.Output{ExitCode: 1}, errors.New("boom")
	}
	return command.Output{Stdout: "abc1234\n"}, nil
}

func (r *recordingRunner) Available(string) bool { return true }

func TestCommitPassesIdentity(t *testing.T) {
	r := &recordingRunner{}
	p := gitlocal.NewProvider(r, nil, testAuthor)

	hash, err := p.Commit(context.Background(), "/data/repo", "msg")
	if err != nil {
		t.Fatal(err)
	}
	if hash != "abc1234" {
		t.Errorf("expected trimmed hash, got %q", hash)
	}
	if len(r.calls) != 3 {
		t.Fatalf("expected add, commit, rev-parse; got %v", r.calls)
	}
	commit := strings.Join(r.calls[1], " ")
	want := "/data/repo git -c user.name=Agent Test -c user.email=agent@test.local commit --allow-empty -m msg"
	if commit != want {
		t.Errorf("unexpected commit invocation\n got: %s\nwant: %s", commit, want)
	}
}

func TestCommitStopsOnFailure(t *testing.T) {
	r := &recordingRunner{fail: "add"}
	p := gitlocal.NewProvider(r, nil, gitlocal.Author{})

	if _, err := p.Commit(context.Background(), "/data/repo", "msg"); err == nil {
		t.Fatal("expected error")
	}
	if len(r.calls) != 1 {
		t.Errorf("expected commit to stop after failed add, got %d calls", len(r.calls))
	}
}

// initTestRepo creates a temporary git repository with one commit.
func initTestRepo(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()

	run := func(args ...string) {
		t.Helper()
		cmd := exec.Command("git", args...)
		cmd.Dir = dir
		cmd.Env = append(os.Environ(),
			"GIT_AUTHOR_NAME=Test", "GIT_AUTHOR_EMAIL=test@test.local",
			"GIT_COMMITTER_NAME=Test", "GIT_COMMITTER_EMAIL=test@test.local",
		)
		if out, err := cmd.CombinedOutput(); err != nil {
			t.Fatalf("git %v: %v\n%s", args, err, out)
		}
	}

	run("init")
	if err := os.WriteFile(filepath.Join(dir, "README.md"), []byte("# Test\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	run("add", ".")
	run("commit", "-m", "initial")
	return dir
}
