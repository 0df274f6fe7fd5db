// Package sandbox defines the containment policy that confines every file
// operation to a single root directory.
package sandbox

import (
	"fmt"
	"path/filepath"
	"strings"
)

// Mode selects how containment is decided.
type Mode string

const (
	// ModePrefix treats a path as contained when its absolute form starts with
	// the root as a plain string. A sibling such as /data-evil passes for root
	// /data. Kept for compatibility with existing task suites.
	ModePrefix Mode = "prefix"

	// ModeSegment requires the path to be the root or below it by whole path
	// segments.
	ModeSegment Mode = "segment"
)

// Policy confines paths to Root.
type Policy struct {
	Root string `json:"root"`
	Mode Mode   `json:"mode"`
}

// NewPolicy resolves root to an absolute, cleaned path. An empty mode selects
// ModeSegment.
func NewPolicy(root string, mode Mode) (*Policy, error) {
	if root == "" {
		return nil, fmt.Errorf("sandbox: root is required")
	}
	if mode == "" {
		mode = ModeSegment
	}
	if !mode.Valid() {
		return nil, fmt.Errorf("sandbox: invalid mode %q", mode)
	}
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("sandbox: resolve root: %w", err)
	}
	return &Policy{Root: abs, Mode: mode}, nil
}

// Valid reports whether m is a known mode.
func (m Mode) Valid() bool {
	switch m {
	case ModePrefix, ModeSegment:
		return true
	}
	return false
}

// Contains applies the configured mode.
func (p *Policy) Contains(path string) bool {
	if p.Mode == ModePrefix {
		return p.ContainsPrefix(path)
	}
	return p.ContainsSegment(path)
}

// ContainsPrefix is the string-prefix containment check.
func (p *Policy) ContainsPrefix(path string) bool {
	if path == "" {
		return false
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return false
	}
	return strings.HasPrefix(abs, p.Root)
}

// ContainsSegment is the path-segment containment check.
func (p *Policy) ContainsSegment(path string) bool {
	if path == "" {
		return false
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return false
	}
	rel, err := filepath.Rel(p.Root, abs)
	if err != nil {
		return false
	}
	if rel == "." {
		return true
	}
	return rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))
}

// Join returns root joined with elem. The result is not guaranteed to be
// contained; callers must still check it.
func (p *Policy) Join(elem ...string) string {
	return filepath.Join(append([]string{p.Root}, elem...)...)
}
