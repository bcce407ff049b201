package host

import (
	"sort"

	platformerrors "github.com/jmgilman/go/errors"

	"github.com/jmgilman/go/buildfs/internal/pathutil"
)

// Suffixes of the ahead-of-time factory and style outputs.
const (
	FactorySuffix = ".ngfactory.js"
	StyleSuffix   = ".ngstyle.js"
)

// SetResourceLoader installs loader for ReadResource. A nil loader restores
// plain file reads.
func (h *Host) SetResourceLoader(loader ResourceLoader) {
	h.loader = loader
}

// ReadResource returns the content of a resource. With a loader installed
// the loader is asked for the system form of the resolved name; otherwise
// the file is read from the merged view and a CodeNotFound error is
// returned when it is absent.
func (h *Host) ReadResource(name string) (string, error) {
	p := h.Resolve(name)
	if h.loader != nil {
		return h.loader.Get(h.Denormalize(p))
	}

	content, ok := h.ReadFile(p)
	if !ok {
		return "", platformerrors.WithContext(
			platformerrors.New(platformerrors.CodeNotFound, "resource not found"),
			"path", p,
		)
	}
	return content, nil
}

// GeneratedOutputPaths returns the system form of every virtual file whose
// name ends in one of suffixes, sorted.
func (h *Host) GeneratedOutputPaths(suffixes ...string) []string {
	var paths []string
	for _, p := range h.store.VirtualPaths() {
		if pathutil.HasSuffix(p, suffixes...) {
			paths = append(paths, h.Denormalize(p))
		}
	}
	sort.Strings(paths)
	return paths
}

// FactoryOutputPaths returns the generated factory and style outputs.
func (h *Host) FactoryOutputPaths() []string {
	return h.GeneratedOutputPaths(FactorySuffix, StyleSuffix)
}
