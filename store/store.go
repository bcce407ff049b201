package store

import (
	"io"
	"io/fs"
	"os"
	"path"
	"sort"
	"time"

	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/memfs"
	platformerrors "github.com/jmgilman/go/errors"
	"github.com/jmgilman/go/fs/core"
)

// Store is the layered file store: an in-memory overlay stacked over a
// read-only real backend.
type Store struct {
	overlay billy.Filesystem
	backend core.ReadFS
	records map[string]*record
	now     func() time.Time
}

// record tracks an overlay entry created by Write.
type record struct {
	created  time.Time
	modified time.Time
}

// Option configures store creation.
type Option func(*Store)

// WithClock sets the clock used to timestamp overlay writes.
// Defaults to time.Now.
func WithClock(now func() time.Time) Option {
	return func(s *Store) {
		s.now = now
	}
}

// New creates a Store layering a fresh overlay over backend.
// Returns a CodeInvalidConfig error if backend is nil.
func New(backend core.ReadFS, opts ...Option) (*Store, error) {
	if backend == nil {
		return nil, platformerrors.New(platformerrors.CodeInvalidConfig, "store requires a real backend")
	}

	s := &Store{
		overlay: memfs.New(),
		backend: backend,
		records: make(map[string]*record),
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Backend returns the real backend the overlay is stacked on.
func (s *Store) Backend() core.ReadFS {
	return s.backend
}

// IsVirtual reports whether p was ever written through Write.
func (s *Store) IsVirtual(p string) bool {
	_, ok := s.records[p]
	return ok
}

// VirtualPaths returns every path written through Write, sorted.
func (s *Store) VirtualPaths() []string {
	paths := make([]string, 0, len(s.records))
	for p := range s.records {
		paths = append(paths, p)
	}
	sort.Strings(paths)
	return paths
}

// Exists reports whether p exists in either layer.
func (s *Store) Exists(p string) (bool, error) {
	if s.IsVirtual(p) || s.overlayDir(p) {
		return true, nil
	}
	return s.backend.Exists(p)
}

// IsFile reports whether p is a regular file in the merged view.
func (s *Store) IsFile(p string) (bool, error) {
	if s.IsVirtual(p) {
		return true, nil
	}
	if s.overlayDir(p) {
		return false, nil
	}
	return s.BackendIsFile(p)
}

// IsDirectory reports whether p is a directory in the merged view.
func (s *Store) IsDirectory(p string) (bool, error) {
	if s.IsVirtual(p) {
		return false, nil
	}
	if s.overlayDir(p) {
		return true, nil
	}
	info, err := s.backend.Stat(p)
	if err != nil {
		if isNotExist(err) {
			return false, nil
		}
		return false, err
	}
	return info.IsDir(), nil
}

// BackendIsFile reports whether the real backend alone has a regular file at p.
// The overlay is not consulted.
func (s *Store) BackendIsFile(p string) (bool, error) {
	info, err := s.backend.Stat(p)
	if err != nil {
		if isNotExist(err) {
			return false, nil
		}
		return false, err
	}
	return info.Mode().IsRegular(), nil
}

// Read returns the contents of p. Virtual paths are read from the overlay.
func (s *Store) Read(p string) ([]byte, error) {
	if !s.IsVirtual(p) {
		data, err := s.backend.ReadFile(p)
		if err != nil {
			return nil, pathError("read", p, err)
		}
		return data, nil
	}

	f, err := s.overlay.Open(p)
	if err != nil {
		return nil, pathError("read", p, err)
	}
	defer func() { _ = f.Close() }()

	data, err := io.ReadAll(f)
	if err != nil {
		return nil, pathError("read", p, err)
	}
	return data, nil
}

// Write stores data at p in the overlay, creating parent directories as
// needed. Writing an existing virtual path replaces its contents.
func (s *Store) Write(p string, data []byte) error {
	if dir := path.Dir(p); dir != "." && dir != "/" {
		if err := s.overlay.MkdirAll(dir, 0o755); err != nil {
			return pathError("write", p, err)
		}
	}

	f, err := s.overlay.OpenFile(p, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o644)
	if err != nil {
		return pathError("write", p, err)
	}
	if _, err := f.Write(data); err != nil {
		_ = f.Close()
		return pathError("write", p, err)
	}
	if err := f.Close(); err != nil {
		return pathError("write", p, err)
	}

	now := s.now()
	if rec, ok := s.records[p]; ok {
		rec.modified = now
	} else {
		s.records[p] = &record{created: now, modified: now}
	}
	return nil
}

// Stat returns file metadata for p. Overlay entries carry a *Times in Sys().
func (s *Store) Stat(p string) (fs.FileInfo, error) {
	if rec, ok := s.records[p]; ok {
		info, err := s.overlay.Stat(p)
		if err != nil {
			return nil, pathError("stat", p, err)
		}
		return &overlayInfo{FileInfo: info, times: rec.times()}, nil
	}

	if info, err := s.overlay.Stat(p); err == nil && info.IsDir() {
		return info, nil
	}

	info, err := s.backend.Stat(p)
	if err != nil {
		return nil, pathError("stat", p, err)
	}
	return info, nil
}

// List returns the sorted, unique child names of directory p across both
// layers.
//
// A failure listing the real directory is not propagated when p is known to
// exist; the result then holds whatever the overlay reports. List returns an
// error wrapping fs.ErrNotExist when neither layer has p and ErrNotDirectory
// when p is a file.
func (s *Store) List(p string) ([]string, error) {
	if s.IsVirtual(p) {
		return nil, pathError("list", p, ErrNotDirectory)
	}

	names := make(map[string]struct{})
	known := false

	if s.overlayDir(p) {
		known = true
		if infos, err := s.overlay.ReadDir(p); err == nil {
			for _, info := range infos {
				names[info.Name()] = struct{}{}
			}
		}
	}

	entries, err := s.backend.ReadDir(p)
	switch {
	case err == nil:
		for _, e := range entries {
			names[e.Name()] = struct{}{}
		}
	case known:
		// Overlay content stays visible when the real directory is gone.
	case isNotExist(err):
		return nil, pathError("list", p, fs.ErrNotExist)
	default:
		if isFile, _ := s.BackendIsFile(p); isFile {
			return nil, pathError("list", p, ErrNotDirectory)
		}
	}

	result := make([]string, 0, len(names))
	for name := range names {
		result = append(result, name)
	}
	sort.Strings(result)
	return result, nil
}

// overlayDir reports whether the overlay holds a directory at p. Overlay
// directories exist only as parents of virtual files.
func (s *Store) overlayDir(p string) bool {
	info, err := s.overlay.Stat(p)
	return err == nil && info.IsDir()
}

func (r *record) times() *Times {
	return &Times{
		Access: r.modified,
		Modify: r.modified,
		Change: r.modified,
		Birth:  r.created,
	}
}
