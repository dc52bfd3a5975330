// Package workdir hands out per-call working directories for checkouts.
package workdir

import (
	"fmt"
	"os"
	"os/user"
	"path/filepath"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// Allocator builds paths of the form <root>/<prefix>-<user>/<identifier>/<uuid>.
// The random suffix keeps concurrent checkouts of the same bug apart.
type Allocator struct {
	Prefix string
	// Root defaults to os.TempDir().
	Root string
}

func (a *Allocator) New(identifier string) (string, error) {
	root := a.Root
	if root == "" {
		root = os.TempDir()
	}
	prefix := a.Prefix
	if prefix == "" {
		prefix = "repair-bench"
	}

	parent := filepath.Join(root, fmt.Sprintf("%s-%s", prefix, currentUser()), identifier)
	if err := os.MkdirAll(parent, 0o755); err != nil {
		return "", fmt.Errorf("create workdir parent %s: %w", parent, err)
	}
	return filepath.Join(parent, uuid.NewString()), nil
}

// Remove deletes a directory handed out by New. Failures are logged, never
// returned, so they cannot hide the result of the work done inside it.
func Remove(path string) {
	if path == "" {
		return
	}
	if err := os.RemoveAll(path); err != nil {
		log.Warn().Err(err).Str("path", path).Msg("failed to remove working copy")
		return
	}
	// drop the per-bug parent once its last working copy is gone
	_ = os.Remove(filepath.Dir(path))
}

func currentUser() string {
	if u, err := user.Current(); err == nil && u.Username != "" {
		return filepath.Base(u.Username)
	}
	if name := os.Getenv("USER"); name != "" {
		return name
	}
	return "unknown"
}
