package utils

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/uuid"
)

// Workspace is a scratch directory owned by one pipeline invocation.
// Concurrent invocations never share file names.
type Workspace struct {
	ID  string
	Dir string
}

// NewWorkspace creates <root>/impactsync-<uuid>.
func NewWorkspace(root string) (*Workspace, error) {
	if root == "" {
		root = os.TempDir()
	}
	if err := MakeDir(root); err != nil {
		return nil, fmt.Errorf("creating temp root: %w", err)
	}

	id := uuid.NewString()
	dir := filepath.Join(root, "impactsync-"+id)
	if err := os.Mkdir(dir, 0o700); err != nil {
		return nil, fmt.Errorf("creating workspace: %w", err)
	}
	return &Workspace{ID: id, Dir: dir}, nil
}

// Path returns a path for name inside the workspace.
func (w *Workspace) Path(name string) string {
	return filepath.Join(w.Dir, name)
}

// Release removes the workspace and everything in it.
func (w *Workspace) Release() error {
	if w == nil || w.Dir == "" {
		return nil
	}
	return DeleteDir(w.Dir)
}
