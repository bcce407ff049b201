// Package inputfs provides a cached bundler input file system over any
// core.ReadFS.
//
// Results of stat, read, readdir, readlink and JSON reads are cached per
// path, failures included, until purged. Concurrent loads of the same path
// share one backend call. FS is safe for concurrent use.
package inputfs

import (
	"context"
	"encoding/json"
	"fmt"
	"io/fs"
	"log/slog"
	"sort"
	"strings"
	"sync"

	"github.com/jmgilman/go/fs/core"
	"github.com/tidwall/jsonc"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"

	"github.com/jmgilman/go/buildfs/intercept"
	"github.com/jmgilman/go/buildfs/internal/pathutil"
)

const defaultConcurrency = 8

// entry is a cached result.
type entry[T any] struct {
	value T
	err   error
}

// flight is a backend call in progress.
type flight struct {
	path string
	gen  uint64
}

// FS is a caching intercept.InputFileSystem.
type FS struct {
	backend     core.ReadFS
	logger      *slog.Logger
	concurrency int

	group singleflight.Group

	mu sync.Mutex
	// gen counts purges. A load only caches its result when no purge ran
	// while it was in flight.
	gen      uint64
	inflight map[string]*flight
	stats    map[string]entry[fs.FileInfo]
	files    map[string]entry[[]byte]
	dirs     map[string]entry[[]string]
	values   map[string]entry[any]
	links    map[string]entry[string]
}

// Option configures FS creation.
type Option func(*FS)

// WithLogger sets the logger used for purge and warm-up events.
func WithLogger(logger *slog.Logger) Option {
	return func(f *FS) {
		if logger != nil {
			f.logger = logger
		}
	}
}

// WithConcurrency sets how many files Warm reads at once.
// Values below 1 are ignored. Defaults to 8.
func WithConcurrency(n int) Option {
	return func(f *FS) {
		if n > 0 {
			f.concurrency = n
		}
	}
}

// New creates an FS reading from backend.
func New(backend core.ReadFS, opts ...Option) *FS {
	f := &FS{
		backend:     backend,
		logger:      slog.Default(),
		concurrency: defaultConcurrency,
		inflight:    make(map[string]*flight),
		stats:       make(map[string]entry[fs.FileInfo]),
		files:       make(map[string]entry[[]byte]),
		dirs:        make(map[string]entry[[]string]),
		values:      make(map[string]entry[any]),
		links:       make(map[string]entry[string]),
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

func (f *FS) Stat(path string, callback intercept.StatCallback) {
	callback(f.StatSync(path))
}

func (f *FS) ReadFile(path string, callback intercept.ReadFileCallback) {
	callback(f.ReadFileSync(path))
}

func (f *FS) Readdir(path string, callback intercept.ReaddirCallback) {
	callback(f.ReaddirSync(path))
}

func (f *FS) ReadJSON(path string, callback intercept.ReadJSONCallback) {
	callback(f.ReadJSONSync(path))
}

func (f *FS) Readlink(path string, callback intercept.ReadlinkCallback) {
	callback(f.ReadlinkSync(path))
}

// StatSync returns metadata for path.
func (f *FS) StatSync(path string) (fs.FileInfo, error) {
	return load(f, f.stats, "stat", path, func(p string) (fs.FileInfo, error) {
		return f.backend.Stat(p)
	})
}

// ReadFileSync returns the contents of path. Callers must not modify the
// returned slice; it is shared with the cache.
func (f *FS) ReadFileSync(path string) ([]byte, error) {
	return load(f, f.files, "read", path, func(p string) ([]byte, error) {
		return f.backend.ReadFile(p)
	})
}

// ReaddirSync returns the sorted entry names of directory path.
func (f *FS) ReaddirSync(path string) ([]string, error) {
	return load(f, f.dirs, "readdir", path, func(p string) ([]string, error) {
		entries, err := f.backend.ReadDir(p)
		if err != nil {
			return nil, err
		}
		names := make([]string, len(entries))
		for i, e := range entries {
			names[i] = e.Name()
		}
		sort.Strings(names)
		return names, nil
	})
}

// ReadJSONSync reads path and decodes it as JSON. Comments and trailing
// commas are accepted.
func (f *FS) ReadJSONSync(path string) (any, error) {
	return load(f, f.values, "json", path, func(p string) (any, error) {
		data, err := f.ReadFileSync(p)
		if err != nil {
			return nil, err
		}

		var value any
		if err := json.Unmarshal(jsonc.ToJSON(data), &value); err != nil {
			return nil, &fs.PathError{Op: "readjson", Path: p, Err: fmt.Errorf("parsing JSON: %w", err)}
		}
		return value, nil
	})
}

// readlinker is implemented by backends that can resolve symbolic links.
type readlinker interface {
	Readlink(name string) (string, error)
}

// ReadlinkSync returns the destination of symbolic link path. Backends
// without link support yield core.ErrUnsupported.
func (f *FS) ReadlinkSync(path string) (string, error) {
	return load(f, f.links, "readlink", path, func(p string) (string, error) {
		rl, ok := f.backend.(readlinker)
		if !ok {
			return "", &fs.PathError{Op: "readlink", Path: p, Err: core.ErrUnsupported}
		}
		return rl.Readlink(p)
	})
}

// Purge drops cached results for each path and everything below it. With no
// paths every cached result is dropped.
func (f *FS) Purge(paths ...string) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.gen++

	if len(paths) == 0 {
		f.reset()
		for key := range f.inflight {
			f.group.Forget(key)
		}
		f.logger.Debug("purged input cache")
		return
	}

	for _, p := range paths {
		p = pathutil.Normalize(p)
		purge(f.stats, p)
		purge(f.files, p)
		purge(f.dirs, p)
		purge(f.values, p)
		purge(f.links, p)
		for key, call := range f.inflight {
			if covers(p, call.path) {
				f.group.Forget(key)
			}
		}
		f.logger.Debug("purged input cache entry", "path", p)
	}
}

// Warm reads paths into the cache concurrently. It returns the first read
// failure; paths that fail stay cached with their error.
func (f *FS) Warm(ctx context.Context, paths ...string) error {
	eg, egCtx := errgroup.WithContext(ctx)
	eg.SetLimit(f.concurrency)

	for _, p := range paths {
		eg.Go(func() error {
			if err := egCtx.Err(); err != nil {
				return err
			}
			if _, err := f.ReadFileSync(p); err != nil {
				return fmt.Errorf("warm %s: %w", p, err)
			}
			return nil
		})
	}

	if err := eg.Wait(); err != nil {
		return err
	}
	f.logger.Debug("warmed input cache", "files", len(paths))
	return nil
}

// reset empties every cache. The caller holds f.mu.
func (f *FS) reset() {
	clear(f.stats)
	clear(f.files)
	clear(f.dirs)
	clear(f.values)
	clear(f.links)
}

// load returns the cached result for path in cache, calling fn on a miss.
// Concurrent misses for the same path and kind share one call to fn. A purge
// covering path while fn runs detaches the call, so later callers start a
// fresh one and the stale result is never cached.
func load[T any](f *FS, cache map[string]entry[T], kind, path string, fn func(p string) (T, error)) (T, error) {
	p := pathutil.Normalize(path)
	key := kind + ":" + p

	f.mu.Lock()
	e, ok := cache[p]
	f.mu.Unlock()
	if ok {
		return e.value, e.err
	}

	v, err, _ := f.group.Do(key, func() (any, error) {
		f.mu.Lock()
		if e, ok := cache[p]; ok {
			f.mu.Unlock()
			return e.value, e.err
		}
		call := &flight{path: p, gen: f.gen}
		f.inflight[key] = call
		f.mu.Unlock()

		value, err := fn(p)

		f.mu.Lock()
		if f.gen == call.gen {
			cache[p] = entry[T]{value: value, err: err}
		}
		if f.inflight[key] == call {
			delete(f.inflight, key)
		}
		f.mu.Unlock()
		return value, err
	})

	value, _ := v.(T)
	return value, err
}

// purge deletes the entry for p and every entry below it.
func purge[T any](cache map[string]entry[T], p string) {
	for key := range cache {
		if covers(p, key) {
			delete(cache, key)
		}
	}
}

// covers reports whether purging p drops the entry for key.
func covers(p, key string) bool {
	return key == p || strings.HasPrefix(key, strings.TrimSuffix(p, "/")+"/")
}

// Compile-time interface checks.
var (
	_ intercept.InputFileSystem = (*FS)(nil)
	_ intercept.Purger          = (*FS)(nil)
)
