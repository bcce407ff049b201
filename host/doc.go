// Package host implements the compiler host over a layered file store.
//
// A Host answers every file-system question a compiler asks of its host
// (existence checks, reads, stats, directory listings, canonical naming,
// default library lookup and source file construction) from the merged view
// of a store.Store, and routes the compiler's emitted output back into the
// store's overlay. Between incremental builds it keeps a changed-file set
// that callers reset and query to decide what to rebuild.
//
// # Paths
//
// Every name a Host receives is resolved first: absolute names are
// normalized, relative names are joined to the project root given to New.
// Denormalize converts a resolved path to the system form the external
// toolchains and resource loaders expect.
//
// # Failures
//
// Absence is never an error at this boundary. ReadFile and ReadFileBuffer
// report absence through their ok result, Stat returns nil and Directories
// returns an empty slice. Read and write faults are handed to the caller's
// OnErrorFunc when one is supplied and otherwise logged at debug level and
// dropped, so the compiler's emit loop never observes them.
//
// # Concurrency
//
// A Host is not safe for concurrent use. Callers running builds across
// goroutines must serialize WriteFile and Invalidate against reads.
//
// # Example
//
//	st, err := store.New(backend.NewLocal())
//	if err != nil {
//	    return err
//	}
//	h, err := host.New("/work/project", st, host.WithLogger(logger))
//	if err != nil {
//	    return err
//	}
//
//	h.WriteFile("src/app.ts", "export const v = 2;", false, nil)
//	h.Invalidate("src/app.ts")
//	changed := h.ChangedFilePaths()
package host
