// Package store provides the layered file store shared by the compiler host
// and the bundler interceptor.
//
// A Store stacks a writable in-memory overlay (a go-billy memfs) over a
// read-only real backend (any core.ReadFS: local disk, memory, or a remote
// bucket). Every path written through Store.Write becomes "virtual" for the
// lifetime of the store and is served from the overlay from then on; the
// real backend is never written.
//
// # Resolution Rules
//
//   - Exists, Read and Stat answer from the overlay for virtual paths and
//     directories implied by them; everything else is delegated to the backend.
//   - List merges child names from both layers and tolerates a missing or
//     unreadable real directory when the overlay has content there.
//   - A missing path is reported with an error wrapping fs.ErrNotExist, never
//     treated as a fault. Other backend errors are returned unchanged.
//
// The overlay only grows or is overwritten: there is no delete. Removing an
// entry would make "is this path virtual" indistinguishable from the backend.
//
// Paths passed to a Store must be normalized and absolute (see the host
// package, which resolves user paths before calling in). A Store is not safe
// for concurrent mutation.
package store
