// Package backend provides the real (read-only) backends a layered store can
// be stacked on.
//
// ReadOnly adapts any go-billy filesystem, such as osfs for local disk or a
// go-git worktree, to core.ReadFS. Unlike the writable adapters in
// github.com/jmgilman/go/fs/billy it exposes no mutation and additionally
// implements Readlink.
package backend

import (
	"errors"
	"io"
	"io/fs"
	"runtime"

	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/osfs"
	"github.com/jmgilman/go/fs/core"

	"github.com/jmgilman/go/buildfs/internal/pathutil"
)

// ReadOnly serves normalized paths from a billy.Filesystem. Each path is
// mapped to the filesystem's own form before use.
type ReadOnly struct {
	bfs    billy.Filesystem
	native func(string) string
}

// NewReadOnly wraps bfs as a read-only backend addressed by normalized
// paths.
func NewReadOnly(bfs billy.Filesystem) *ReadOnly {
	return &ReadOnly{bfs: bfs, native: pathutil.Normalize}
}

// NewLocal creates a read-only backend over the local disk. On Windows the
// drive segment of a normalized path selects the volume.
func NewLocal() *ReadOnly {
	if runtime.GOOS != "windows" {
		return NewReadOnly(osfs.New("/"))
	}
	return &ReadOnly{
		bfs: osfs.New(""),
		native: func(p string) string {
			return pathutil.ToSystem(pathutil.Normalize(p), true)
		},
	}
}

// Unwrap returns the underlying billy.Filesystem.
func (r *ReadOnly) Unwrap() billy.Filesystem {
	return r.bfs
}

func (r *ReadOnly) Open(name string) (fs.File, error) {
	p := r.native(name)
	f, err := r.bfs.Open(p)
	if err != nil {
		return nil, err
	}
	return &file{File: f, stat: func() (fs.FileInfo, error) { return r.bfs.Stat(p) }}, nil
}

func (r *ReadOnly) Stat(name string) (fs.FileInfo, error) {
	return r.bfs.Stat(r.native(name))
}

// ReadDir returns the entries of directory name in the order the
// filesystem reports them.
func (r *ReadOnly) ReadDir(name string) ([]fs.DirEntry, error) {
	infos, err := r.bfs.ReadDir(r.native(name))
	if err != nil {
		return nil, err
	}

	entries := make([]fs.DirEntry, 0, len(infos))
	for _, info := range infos {
		entries = append(entries, fs.FileInfoToDirEntry(info))
	}
	return entries, nil
}

func (r *ReadOnly) ReadFile(name string) ([]byte, error) {
	f, err := r.bfs.Open(r.native(name))
	if err != nil {
		return nil, err
	}
	defer func() { _ = f.Close() }()
	return io.ReadAll(f)
}

// Exists reports whether name exists. Only absence yields false without an
// error.
func (r *ReadOnly) Exists(name string) (bool, error) {
	switch _, err := r.bfs.Stat(r.native(name)); {
	case err == nil:
		return true, nil
	case errors.Is(err, fs.ErrNotExist):
		return false, nil
	default:
		return false, err
	}
}

// Readlink returns the destination of symbolic link name.
func (r *ReadOnly) Readlink(name string) (string, error) {
	return r.bfs.Readlink(r.native(name))
}

// file gives a billy.File the Stat method fs.File requires.
type file struct {
	billy.File
	stat func() (fs.FileInfo, error)
}

func (f *file) Stat() (fs.FileInfo, error) { return f.stat() }

var (
	_ core.ReadFS = (*ReadOnly)(nil)
	_ fs.File     = (*file)(nil)
)
