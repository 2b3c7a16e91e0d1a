// Package workspace provides private scratch directories for verification
// runs.
package workspace

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/uuid"
)

// Workspace is a directory owned by one run. Files written there are not
// shared with other runs.
type Workspace struct {
	id   string
	dir  string
	keep bool
}

// New creates a fresh directory under root, or under the system temporary
// directory when root is empty. With keep, Close leaves the files in place.
func New(root string, keep bool) (*Workspace, error) {
	if root == "" {
		root = os.TempDir()
	}
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("workspace: %w", err)
	}
	id := uuid.New().String()
	dir := filepath.Join(root, "pyuppaal-"+id)
	if err := os.Mkdir(dir, 0o755); err != nil {
		return nil, fmt.Errorf("workspace: %w", err)
	}
	return &Workspace{id: id, dir: dir, keep: keep}, nil
}

// ID identifies the run the workspace belongs to.
func (w *Workspace) ID() string {
	return w.id
}

func (w *Workspace) Dir() string {
	return w.dir
}

// Path joins name onto the workspace directory.
func (w *Workspace) Path(name string) string {
	return filepath.Join(w.dir, name)
}

// Close removes the directory unless the workspace keeps its files. It is
// safe to call more than once.
func (w *Workspace) Close() error {
	if w.keep {
		return nil
	}
	return os.RemoveAll(w.dir)
}
