// Package gitprovider defines the port interface for git working-copy
// operations.
package gitprovider

import "context"

// Provider clones repositories and records commits in a working copy.
type Provider interface {
	// Clone clones url into dest. dest must not exist or be empty.
	Clone(ctx context.Context, url, dest string) error

	// Commit stages all changes in repoPath and commits them with message.
	// An empty change set still produces a commit. It returns the new
	// commit hash.
	Commit(ctx context.Context, repoPath, message string) (string, error)
}
