package vault

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/TechnicallyShaun/secretary/internal/secretary"
)

var _ secretary.NoteWriter = (*Writer)(nil)

// CollisionPolicy decides what happens when a note path already exists.
type CollisionPolicy string

const (
	// Overwrite replaces the existing note.
	Overwrite CollisionPolicy = "overwrite"
	// Suffix writes to the first free name of the form "<name>-2<ext>", "<name>-3<ext>"...
	Suffix CollisionPolicy = "suffix"
)

const maxSuffix = 1000

// ParseCollisionPolicy converts a config value. An empty value means Overwrite.
func ParseCollisionPolicy(s string) (CollisionPolicy, error) {
	switch CollisionPolicy(s) {
	case "", Overwrite:
		return Overwrite, nil
	case Suffix:
		return Suffix, nil
	}
	return "", fmt.Errorf("unknown collision policy %q", s)
}

// Writer saves notes into the vault.
type Writer struct {
	policy CollisionPolicy
}

// NewWriter creates a Writer with the given collision policy.
func NewWriter(policy CollisionPolicy) *Writer {
	if policy == "" {
		policy = Overwrite
	}
	return &Writer{policy: policy}
}

// Write saves content at path, creating the parent directory if needed, and
// returns the path written.
func (w *Writer) Write(ctx context.Context, path, content string) (string, error) {
	select {
	case <-ctx.Done():
		return "", ctx.Err()
	default:
	}

	if path == "" {
		return "", fmt.Errorf("note path is required")
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return "", fmt.Errorf("failed to create vault directory: %w", err)
	}

	if w.policy == Suffix {
		free, err := freePath(path)
		if err != nil {
			return "", err
		}
		path = free
	}

	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		return "", fmt.Errorf("failed to write note: %w", err)
	}
	return path, nil
}

// freePath returns path if nothing exists there, otherwise the first free
// "-N" variant.
func freePath(path string) (string, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return path, nil
	}

	ext := filepath.Ext(path)
	base := strings.TrimSuffix(path, ext)
	for i := 2; i <= maxSuffix; i++ {
		candidate := fmt.Sprintf("%s-%d%s", base, i, ext)
		if _, err := os.Stat(candidate); os.IsNotExist(err) {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("too many notes named %s", filepath.Base(path))
}
