package host

import (
	"log/slog"
	"math/rand/v2"
	"runtime"
	"sort"
	"strings"

	platformerrors "github.com/jmgilman/go/errors"

	"github.com/jmgilman/go/buildfs/internal/pathutil"
	"github.com/jmgilman/go/buildfs/store"
)

// Host serves the compiler host contract from a layered store and tracks
// which files changed since the last reset.
type Host struct {
	root          string
	store         *store.Store
	changed       map[string]struct{}
	logger        *slog.Logger
	loader        ResourceLoader
	parse         ParseFunc
	caseSensitive bool
	windows       bool
	dev           uint64
	devSet        bool
}

// New creates a Host rooted at root over st.
//
// Relative names passed to the host are resolved against root. A relative
// root is anchored at "/". Returns a CodeInvalidConfig error if root is empty
// or st is nil.
func New(root string, st *store.Store, opts ...Option) (*Host, error) {
	if strings.TrimSpace(root) == "" {
		return nil, platformerrors.New(platformerrors.CodeInvalidConfig, "host requires a project root")
	}
	if st == nil {
		return nil, platformerrors.New(platformerrors.CodeInvalidConfig, "host requires a store")
	}

	normalized := pathutil.Normalize(root)
	if !pathutil.IsAbsolute(normalized) {
		normalized = pathutil.Join("/", normalized)
	}

	h := &Host{
		root:          normalized,
		store:         st,
		changed:       make(map[string]struct{}),
		logger:        slog.Default(),
		parse:         ParseSource,
		caseSensitive: runtime.GOOS != "windows",
		windows:       runtime.GOOS == "windows",
	}
	for _, opt := range opts {
		opt(h)
	}
	if !h.devSet {
		h.dev = rand.Uint64N(10000)
	}
	return h, nil
}

// Resolve returns the normalized absolute form of name. Relative names are
// joined to the project root.
func (h *Host) Resolve(name string) string {
	p := pathutil.Normalize(name)
	if pathutil.IsAbsolute(p) {
		return p
	}
	return pathutil.Join(h.root, p)
}

// Denormalize converts name to system form.
func (h *Host) Denormalize(name string) string {
	return pathutil.ToSystem(pathutil.Normalize(name), h.windows)
}

// CanonicalFileName returns the resolved name, lower-cased when file names
// are case-insensitive.
func (h *Host) CanonicalFileName(name string) string {
	p := h.Resolve(name)
	if h.caseSensitive {
		return p
	}
	return strings.ToLower(p)
}

// UseCaseSensitiveFileNames reports the host's case-sensitivity policy.
func (h *Host) UseCaseSensitiveFileNames() bool {
	return h.caseSensitive
}

// CurrentDirectory returns the normalized project root.
func (h *Host) CurrentDirectory() string {
	return h.root
}

// NewLine returns the line terminator used for emitted files.
func (h *Host) NewLine() string {
	return "\n"
}

// FileExists reports whether name is a regular file in the merged view.
func (h *Host) FileExists(name string) bool {
	return h.isFile(h.Resolve(name))
}

// FileExistsVirtualOnly reports whether name is a file only because of
// overlay content. It is false when the real backend also holds a regular
// file at the same path, even if the overlay shadows it.
func (h *Host) FileExistsVirtualOnly(name string) bool {
	p := h.Resolve(name)
	if !h.isFile(p) {
		return false
	}

	onBackend, err := h.store.BackendIsFile(p)
	if err != nil {
		h.logger.Debug("backend stat failed", "path", p, "error", err)
		return false
	}
	return !onBackend
}

// ReadFile returns the contents of name as a string. ok is false when the
// merged view has no such file or the read fails.
func (h *Host) ReadFile(name string) (string, bool) {
	data, ok := h.ReadFileBuffer(name)
	if !ok {
		return "", false
	}
	return string(data), true
}

// ReadFileBuffer returns the raw contents of name.
func (h *Host) ReadFileBuffer(name string) ([]byte, bool) {
	p := h.Resolve(name)
	data, ok, err := h.read(p)
	if err != nil {
		h.logger.Debug("read failed", "path", p, "error", err)
		return nil, false
	}
	return data, ok
}

// DirectoryExists reports whether name is a directory in the merged view.
func (h *Host) DirectoryExists(name string) bool {
	p := h.Resolve(name)
	exists, err := h.store.Exists(p)
	if err != nil || !exists {
		return false
	}
	isDir, err := h.store.IsDirectory(p)
	return err == nil && isDir
}

// Directories returns the sorted names of the immediate child directories of
// name. Listing faults yield an empty slice.
func (h *Host) Directories(name string) []string {
	p := h.Resolve(name)
	names, err := h.store.List(p)
	if err != nil {
		h.logger.Debug("list failed", "path", p, "error", err)
		return []string{}
	}

	dirs := make([]string, 0, len(names))
	for _, n := range names {
		if isDir, err := h.store.IsDirectory(pathutil.Join(p, n)); err == nil && isDir {
			dirs = append(dirs, n)
		}
	}
	return dirs
}

// Invalidate marks name as changed. Names that are not currently regular
// files in the merged view are ignored.
func (h *Host) Invalidate(name string) {
	p := h.Resolve(name)
	if h.isFile(p) {
		h.changed[p] = struct{}{}
	}
}

// ResetChangedFileTracker clears the changed-file set.
func (h *Host) ResetChangedFileTracker() {
	h.changed = make(map[string]struct{})
}

// ChangedFilePaths returns a sorted snapshot of the changed-file set.
func (h *Host) ChangedFilePaths() []string {
	paths := make([]string, 0, len(h.changed))
	for p := range h.changed {
		paths = append(paths, p)
	}
	sort.Strings(paths)
	return paths
}

// WriteFile writes data to name in the overlay. The byte order mark flag is
// accepted for contract compatibility and ignored. A failed write is
// reported to onError, or logged and dropped when onError is nil.
func (h *Host) WriteFile(name, data string, _ bool, onError OnErrorFunc) {
	p := h.Resolve(name)
	if err := h.store.Write(p, []byte(data)); err != nil {
		h.report(onError, p, platformerrors.Wrap(err, platformerrors.CodeInternal, "failed to write file"))
	}
}

// Trace logs a compiler trace message.
func (h *Host) Trace(message string) {
	h.logger.Info(message)
}

// VirtualFiles returns every path written to the overlay, sorted.
func (h *Host) VirtualFiles() []string {
	return h.store.VirtualPaths()
}

// isFile reports whether p exists and is a regular file. Backend faults
// count as absence.
func (h *Host) isFile(p string) bool {
	exists, err := h.store.Exists(p)
	if err != nil || !exists {
		return false
	}
	isFile, err := h.store.IsFile(p)
	return err == nil && isFile
}

// read returns the contents of p. ok is false when p is not a file; err is
// set only for genuine read faults.
func (h *Host) read(p string) ([]byte, bool, error) {
	if !h.isFile(p) {
		return nil, false, nil
	}
	data, err := h.store.Read(p)
	if err != nil {
		return nil, false, err
	}
	return data, true, nil
}

// report hands err to onError, or logs it when no callback was supplied.
func (h *Host) report(onError OnErrorFunc, p string, err error) {
	if onError != nil {
		onError(err.Error())
		return
	}
	h.logger.Debug("dropped host fault", "path", p, "error", err)
}
