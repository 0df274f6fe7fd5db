// Package gitlocal implements the gitprovider port with the local git CLI.
package gitlocal

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/avishiprsd/llm-automation-agent/internal/git"
	"github.com/avishiprsd/llm-automation-agent/internal/port/command"
)

// Author is the identity recorded on commits the agent makes.
type Author struct {
	Name  string
	Email string
}

// Provider runs git through a command runner, bounded by a shared pool.
type Provider struct {
	runner command.Runner
	pool   *git.Pool
	author Author
}

// NewProvider creates a Provider. A nil pool runs git without a
// concurrency limit.
func NewProvider(runner command.Runner, pool *git.Pool, author Author) *Provider {
	return &Provider{runner: runner, pool: pool, author: author}
}

// Clone clones url into dest.
func (p *Provider) Clone(ctx context.Context, url, dest string) error {
	absPath, err := filepath.Abs(dest)
	if err != nil {
		return fmt.Errorf("gitlocal: resolve path: %w", err)
	}

	return p.pool.Run(ctx, func() error {
		if _, execErr := p.git(ctx, "", "clone", "--", url, absPath); execErr != nil {
			return fmt.Errorf("gitlocal: clone: %w", execErr)
		}
		return nil
	})
}

// Commit stages everything in repoPath and commits it, allowing an empty
// commit. Returns the new HEAD hash.
func (p *Provider) Commit(ctx context.Context, repoPath, message string) (string, error) {
	var hash string
	err := p.pool.Run(ctx, func() error {
		if _, err := p.git(ctx, repoPath, "add", "-A"); err != nil {
			return fmt.Errorf("gitlocal: add: %w", err)
		}
		if _, err := p.git(ctx, repoPath, p.identity("commit", "--allow-empty", "-m", message)...); err != nil {
			return fmt.Errorf("gitlocal: commit: %w", err)
		}
		out, err := p.git(ctx, repoPath, "rev-parse", "HEAD")
		if err != nil {
			return fmt.Errorf("gitlocal: rev-parse: %w", err)
		}
		hash = strings.TrimSpace(out)
		return nil
	})
	return hash, err
}

// identity prefixes a git subcommand with the configured author so commits
// work on hosts without a global git identity.
func (p *Provider) identity(args ...string) []string {
	var prefix []string
	if p.author.Name != "" {
		prefix = append(prefix, "-c", "user.name="+p.author.Name)
	}
	if p.author.Email != "" {
		prefix = append(prefix, "-c", "user.email="+p.author.Email)
	}
	return append(prefix, args...)
}

func (p *Provider) git(ctx context.Context, dir string, args ...string) (string, error) {
	out, err := p.runner.Run(ctx, dir, "git", args...)
	if err != nil {
		return "", err
	}
	return out.Stdout, nil
}
