package intercept

import (
	"io/fs"
	"log/slog"

	platformerrors "github.com/jmgilman/go/errors"

	"github.com/jmgilman/go/buildfs/host"
)

// Callback signatures of the asynchronous input file system operations.
type (
	StatCallback     func(info fs.FileInfo, err error)
	ReadFileCallback func(data []byte, err error)
	ReaddirCallback  func(names []string, err error)
	ReadJSONCallback func(value any, err error)
	ReadlinkCallback func(target string, err error)
)

// InputFileSystem is the file-system surface a bundler reads through. Each
// callback form invokes its callback exactly once.
type InputFileSystem interface {
	Stat(path string, callback StatCallback)
	ReadFile(path string, callback ReadFileCallback)
	Readdir(path string, callback ReaddirCallback)
	ReadJSON(path string, callback ReadJSONCallback)
	Readlink(path string, callback ReadlinkCallback)

	StatSync(path string) (fs.FileInfo, error)
	ReadFileSync(path string) ([]byte, error)
	ReaddirSync(path string) ([]string, error)
	ReadJSONSync(path string) (any, error)
	ReadlinkSync(path string) (string, error)
}

// Purger is implemented by input file systems that cache results. Purge with
// no paths drops every cached entry.
type Purger interface {
	Purge(paths ...string)
}

// Host is the part of the compiler host the interceptor consults.
type Host interface {
	FileExistsVirtualOnly(name string) bool
	Stat(name string) *host.Stat
	ReadFileBuffer(name string) ([]byte, bool)
	Invalidate(name string)
}

// FileSystem wraps an InputFileSystem, serving virtual-only files from a
// Host.
type FileSystem struct {
	input  InputFileSystem
	host   Host
	logger *slog.Logger
}

// Option configures interceptor creation.
type Option func(*FileSystem)

// WithLogger sets the logger used to trace files served from the host.
// Defaults to slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(f *FileSystem) {
		if logger != nil {
			f.logger = logger
		}
	}
}

// New creates a FileSystem decorating input with h.
// Returns a CodeInvalidConfig error if either argument is nil.
func New(input InputFileSystem, h Host, opts ...Option) (*FileSystem, error) {
	if input == nil {
		return nil, platformerrors.New(platformerrors.CodeInvalidConfig, "interceptor requires an input file system")
	}
	if h == nil {
		return nil, platformerrors.New(platformerrors.CodeInvalidConfig, "interceptor requires a compiler host")
	}

	f := &FileSystem{input: input, host: h, logger: slog.Default()}
	for _, opt := range opts {
		opt(f)
	}
	return f, nil
}

// Stat reports metadata for path through callback.
func (f *FileSystem) Stat(path string, callback StatCallback) {
	if info, ok := f.virtualStat(path); ok {
		callback(info, nil)
		return
	}
	f.input.Stat(path, callback)
}

// StatSync returns metadata for path.
func (f *FileSystem) StatSync(path string) (fs.FileInfo, error) {
	if info, ok := f.virtualStat(path); ok {
		return info, nil
	}
	return f.input.StatSync(path)
}

// ReadFile reads path and passes its contents to callback.
func (f *FileSystem) ReadFile(path string, callback ReadFileCallback) {
	if data, ok := f.virtualRead(path); ok {
		callback(data, nil)
		return
	}
	f.input.ReadFile(path, callback)
}

// ReadFileSync returns the contents of path.
func (f *FileSystem) ReadFileSync(path string) ([]byte, error) {
	if data, ok := f.virtualRead(path); ok {
		return data, nil
	}
	return f.input.ReadFileSync(path)
}

func (f *FileSystem) Readdir(path string, callback ReaddirCallback) {
	f.input.Readdir(path, callback)
}

func (f *FileSystem) ReaddirSync(path string) ([]string, error) {
	return f.input.ReaddirSync(path)
}

func (f *FileSystem) ReadJSON(path string, callback ReadJSONCallback) {
	f.input.ReadJSON(path, callback)
}

func (f *FileSystem) ReadJSONSync(path string) (any, error) {
	return f.input.ReadJSONSync(path)
}

func (f *FileSystem) Readlink(path string, callback ReadlinkCallback) {
	f.input.Readlink(path, callback)
}

func (f *FileSystem) ReadlinkSync(path string) (string, error) {
	return f.input.ReadlinkSync(path)
}

// Purge marks each path changed on the host, then forwards the same paths to
// the input file system if it is a Purger.
func (f *FileSystem) Purge(paths ...string) {
	for _, p := range paths {
		f.host.Invalidate(p)
	}
	if purger, ok := f.input.(Purger); ok {
		purger.Purge(paths...)
	}
}

// virtualStat returns the host's metadata for path when path exists only in
// the overlay.
func (f *FileSystem) virtualStat(path string) (fs.FileInfo, bool) {
	if !f.host.FileExistsVirtualOnly(path) {
		return nil, false
	}
	s := f.host.Stat(path)
	if s == nil {
		return nil, false
	}
	f.logger.Debug("serving virtual stat", "path", path)
	return s, true
}

// virtualRead returns the host's contents for path when path exists only in
// the overlay.
func (f *FileSystem) virtualRead(path string) ([]byte, bool) {
	if !f.host.FileExistsVirtualOnly(path) {
		return nil, false
	}
	data, ok := f.host.ReadFileBuffer(path)
	if !ok {
		return nil, false
	}
	f.logger.Debug("serving virtual file", "path", path)
	return data, true
}

// Compile-time interface checks.
var (
	_ InputFileSystem = (*FileSystem)(nil)
	_ Purger          = (*FileSystem)(nil)
	_ Host            = (*host.Host)(nil)
)
