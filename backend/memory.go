package backend

import (
	"path"

	"github.com/jmgilman/go/fs/billy"
	"github.com/jmgilman/go/fs/core"

	"github.com/jmgilman/go/buildfs/internal/pathutil"
)

// NewMemory creates an empty in-memory real backend. It stays writable so
// callers can Seed it before stacking a store on top; the store itself only
// ever reads from it.
func NewMemory() *billy.MemoryFS {
	return billy.NewMemory()
}

// Seed writes files into w, keyed by path, creating parent directories as
// needed.
func Seed(w core.WriteFS, files map[string]string) error {
	for name, content := range files {
		name = pathutil.Normalize(name)
		if dir := path.Dir(name); dir != "." && dir != "/" {
			if err := w.MkdirAll(dir, 0o755); err != nil {
				return err
			}
		}
		if err := w.WriteFile(name, []byte(content), 0o644); err != nil {
			return err
		}
	}
	return nil
}
